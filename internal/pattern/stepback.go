package pattern

import (
	"context"

	"github.com/roach88/conclave/internal/meeting"
)

const (
	stepBackPrinciples = "What are the physics, chemistry or biology principles and concepts involved in solving this task? " +
		"First think step by step. Then list all involved principles and explain them."
	stepBackSolve = "Given the question and the involved principles above, think step by step and then solve the task: "
)

// StepBack first asks for the principles behind the task, then solves it
// with those principles in view.
type StepBack struct{}

func (StepBack) Name() string { return "step-back" }

func (StepBack) Solve(ctx context.Context, rt *meeting.Runtime, task string) (string, error) {
	system, agents, err := cast(ctx, rt,
		role{"Principle Agent", 0.8},
		role{"Chain-of-Thought Agent", 0.8},
	)
	if err != nil {
		return "", err
	}
	principle, cot := agents[0], agents[1]

	m, err := rt.Convene(ctx, "step-back", system, principle, cot)
	if err != nil {
		return "", err
	}

	p, err := m.Ask(ctx, system, principle, stepBackPrinciples, principleSchema)
	if err != nil {
		return "", err
	}
	if _, err := m.Say(ctx, principle, p.String("thinking")+"\n\n"+p.String("principles")); err != nil {
		return "", err
	}

	out, err := m.Ask(ctx, system, cot, stepBackSolve+task, answerSchema)
	if err != nil {
		return "", err
	}
	return out.String("answer"), nil
}
