// Package harness runs meeting scenarios against a fresh in-memory store.
//
// A scenario declares agents and meetings, then replays a list of steps and
// checks the resulting store. Completions are scripted, so a scenario is
// fully deterministic: the same file always yields the same keys, suffixes,
// timestamps and transcripts.
//
// # Scenario Format
//
//	name: shared-meeting
//	description: "Members see each other's chats"
//	agents:
//	  - ref: system
//	    name: system
//	  - ref: solver
//	    name: Solver
//	    temperature: 0.7
//	meetings:
//	  - ref: review
//	    name: review
//	steps:
//	  - join: { meeting: review, agents: [system, solver] }
//	  - say: { meeting: review, agent: system, text: "Solve 2+2." }
//	  - ask:
//	      meeting: review
//	      from: system
//	      agent: solver
//	      prompt: "Answer now."
//	      fields: [thinking, answer]
//	      reply: '{"thinking": "two plus two", "answer": "4"}'
//	      say: thinking
//	      expect: { answer: "4" }
//	  - solve:
//	      pattern: cot
//	      task: "What is 2+2? (A) 3 (B) 4"
//	      replies: ['{"thinking": "add", "answer": "B"}']
//	      expect: B
//	assertions:
//	  - type: history
//	    agent: solver
//	    messages:
//	      - { role: system, content: "System: Solve 2+2." }
//	  - type: chat_count
//	    meeting: review
//	    count: 3
//
// # Assertion Types
//
//   - history: the agent's relabeled conversation history equals messages
//   - chat_count: the meeting holds exactly count chats
//   - member_count: the meeting has exactly count members
//   - membership_count: exactly count join rows link agent and meeting
//   - meeting_count: the agent belongs to exactly count meetings
//
// # Golden Files
//
// RunWithGolden renders the trace and every meeting transcript as text and
// compares it with testdata/golden/{name}.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
