package pattern

import (
	"context"

	"github.com/roach88/conclave/internal/meeting"
)

// ChainOfThought asks a single agent to think step by step.
type ChainOfThought struct{}

func (ChainOfThought) Name() string { return "cot" }

func (ChainOfThought) Solve(ctx context.Context, rt *meeting.Runtime, task string) (string, error) {
	system, agents, err := cast(ctx, rt, role{"Chain-of-Thought Agent", 0.7})
	if err != nil {
		return "", err
	}
	cot := agents[0]

	m, err := rt.Convene(ctx, "chain-of-thought", system, cot)
	if err != nil {
		return "", err
	}

	out, err := m.Ask(ctx, system, cot, solvePrompt(task), answerSchema)
	if err != nil {
		return "", err
	}
	if _, err := m.Say(ctx, cot, out.String("thinking")); err != nil {
		return "", err
	}
	return out.String("answer"), nil
}
