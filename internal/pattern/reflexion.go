package pattern

import (
	"context"
	"strings"

	"github.com/roach88/conclave/internal/meeting"
)

const (
	reflexionReview = "Please review the answer above and criticize where it might be wrong. " +
		"If you are absolutely sure it is correct, output 'CORRECT'."
	reflexionRetry = "Given the feedback above, carefully consider where you could go wrong in your latest attempt. " +
		"Using these insights, try to solve the task better: "
)

// Reflexion alternates a solver and a critic until the critic answers
// CORRECT or MaxRefinements refinements have been made.
type Reflexion struct {
	MaxRefinements int
}

func (Reflexion) Name() string { return "reflexion" }

func (r Reflexion) Solve(ctx context.Context, rt *meeting.Runtime, task string) (string, error) {
	system, agents, err := cast(ctx, rt,
		role{"Chain-of-Thought Agent", 0.7},
		role{"Critic Agent", 0.6},
	)
	if err != nil {
		return "", err
	}
	cot, critic := agents[0], agents[1]

	m, err := rt.Convene(ctx, "reflexion", system, cot, critic)
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

	for i := 0; i < r.MaxRefinements; i++ {
		review, err := m.Ask(ctx, system, critic, reflexionReview, criticSchema)
		if err != nil {
			return "", err
		}
		if _, err := m.Say(ctx, critic, review.String("feedback")); err != nil {
			return "", err
		}
		if strings.EqualFold(strings.TrimSpace(review.String("correct")), "CORRECT") {
			break
		}

		if out, err = m.Ask(ctx, system, cot, reflexionRetry+task, answerSchema); err != nil {
			return "", err
		}
		if _, err := m.Say(ctx, cot, out.String("thinking")); err != nil {
			return "", err
		}
	}
	return out.String("answer"), nil
}
