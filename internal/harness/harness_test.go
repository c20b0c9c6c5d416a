package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, yaml string) *Scenario {
	t.Helper()
	s, err := ParseScenario([]byte(yaml))
	require.NoError(t, err)
	return s
}

func TestRun_Minimal(t *testing.T) {
	result, err := Run(context.Background(), mustParse(t, minimalScenario))
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	require.Len(t, result.Trace, 2)
	assert.Equal(t, "join room: Solo 0001", result.Trace[0].Summary())
	assert.Equal(t, "say room: Solo 0001", result.Trace[1].Summary())

	require.Len(t, result.Transcripts, 1)
	assert.Equal(t, "room", result.Transcripts[0].Meeting)
	require.Len(t, result.Transcripts[0].Entries, 1)
	assert.Equal(t, "hello", result.Transcripts[0].Entries[0].Chat.Content)
}

func TestRun_FailedAssertionsAreReported(t *testing.T) {
	scenario := mustParse(t, `
name: failing
description: "Counts and history that do not hold"
agents:
  - ref: a
    name: Alice
meetings:
  - ref: m
    name: room
steps:
  - join: { meeting: m, agents: [a] }
  - say: { meeting: m, agent: a, text: "hi" }
assertions:
  - type: chat_count
    meeting: m
    count: 2
  - type: history
    agent: a
    messages:
      - { role: user, content: "hi" }
  - type: member_count
    meeting: m
    count: 1
`)

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "assertion 0")
	assert.Contains(t, result.Errors[0], "chat_count room")
	assert.Contains(t, result.Errors[1], "assertion 1")
	assert.Contains(t, result.Errors[1], "assistant> You: hi")
}

func TestRun_AskExpectationMismatch(t *testing.T) {
	scenario := mustParse(t, `
name: ask-mismatch
description: "The scripted answer differs from the expectation"
agents:
  - { ref: sys, name: system }
  - { ref: s, name: Solver }
meetings:
  - { ref: m, name: room }
steps:
  - join: { meeting: m, agents: [sys, s] }
  - ask:
      meeting: m
      from: sys
      agent: s
      prompt: "Pick one."
      fields: [answer]
      reply: '{"answer": "C"}'
      expect: { answer: "A" }
`)

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], `expected "A", got "C"`)
}

func TestRun_MalformedReplyFailsRun(t *testing.T) {
	scenario := mustParse(t, `
name: malformed
description: "A reply missing a required field"
agents:
  - { ref: sys, name: system }
  - { ref: s, name: Solver }
meetings:
  - { ref: m, name: room }
steps:
  - ask:
      meeting: m
      from: sys
      agent: s
      prompt: "Pick one."
      fields: [thinking, answer]
      reply: '{"answer": "C"}'
`)

	_, err := Run(context.Background(), scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step 0 (ask)")
}

func TestRun_SolveWithUnusedReplies(t *testing.T) {
	scenario := mustParse(t, `
name: unused
description: "More replies than the pattern consumes"
steps:
  - solve:
      pattern: cot
      task: "2+2?"
      replies:
        - '{"thinking": "t", "answer": "B"}'
        - '{"thinking": "t", "answer": "C"}'
`)

	_, err := Run(context.Background(), scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 scripted replies unused")
}

func TestRun_SolveAnswerMismatch(t *testing.T) {
	scenario := mustParse(t, `
name: wrong-answer
description: "The pattern answers differently"
steps:
  - solve:
      pattern: cot
      task: "2+2?"
      replies: ['{"thinking": "t", "answer": "C"}']
      expect: B
`)

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Equal(t, "solve cot -> C", result.Trace[0].Summary())
}

func TestAssertionError_Format(t *testing.T) {
	err := &AssertionError{Type: AssertChatCount, Subject: "room", Expected: "2", Actual: "1"}
	assert.Equal(t, "Assertion failed: chat_count room\n  Expected: 2\n  Actual: 1\n", err.Error())

	multi := &AssertionError{Type: AssertHistory, Subject: "A", Expected: "a\nb\n", Actual: "(empty)"}
	assert.Contains(t, multi.Error(), "Expected: \n    a\n    b\n")
}
