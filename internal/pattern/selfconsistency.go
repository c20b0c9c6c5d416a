package pattern

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/conclave/internal/meeting"
	"github.com/roach88/conclave/internal/model"
)

// SelfConsistency asks several chain-of-thought agents and returns the
// majority answer. Ties go to the answer seen first.
//
// By default the agents share one meeting and answer in turn, each seeing
// the earlier answers. With Independent set, each agent gets its own meeting
// and all are asked concurrently.
type SelfConsistency struct {
	Samples     int
	Independent bool
}

func (SelfConsistency) Name() string { return "self-consistency" }

func (s SelfConsistency) Solve(ctx context.Context, rt *meeting.Runtime, task string) (string, error) {
	n := max(s.Samples, 1)
	roles := make([]role, n)
	for i := range roles {
		roles[i] = role{fmt.Sprintf("Chain-of-Thought Agent %d", i), 0.8}
	}
	system, agents, err := cast(ctx, rt, roles...)
	if err != nil {
		return "", err
	}

	var answers []string
	if s.Independent {
		answers, err = s.independent(ctx, rt, system, agents, task)
	} else {
		answers, err = s.shared(ctx, rt, system, agents, task)
	}
	if err != nil {
		return "", err
	}
	return majority(answers), nil
}

func (SelfConsistency) shared(ctx context.Context, rt *meeting.Runtime, system *model.Agent, agents []*model.Agent, task string) ([]string, error) {
	m, err := rt.Convene(ctx, "self-consistency", append([]*model.Agent{system}, agents...)...)
	if err != nil {
		return nil, err
	}

	answers := make([]string, 0, len(agents))
	for _, a := range agents {
		out, err := m.Ask(ctx, system, a, solvePrompt(task), answerSchema)
		if err != nil {
			return nil, err
		}
		if _, err := m.Say(ctx, a, out.String("thinking")); err != nil {
			return nil, err
		}
		answers = append(answers, out.String("answer"))
	}
	return answers, nil
}

func (SelfConsistency) independent(ctx context.Context, rt *meeting.Runtime, system *model.Agent, agents []*model.Agent, task string) ([]string, error) {
	answers := make([]string, len(agents))
	g, ctx := errgroup.WithContext(ctx)
	for i, a := range agents {
		g.Go(func() error {
			m, err := rt.Convene(ctx, fmt.Sprintf("self-consistency-%d", i), system, a)
			if err != nil {
				return err
			}
			out, err := m.Ask(ctx, system, a, solvePrompt(task), answerSchema)
			if err != nil {
				return err
			}
			if _, err := m.Say(ctx, a, out.String("thinking")); err != nil {
				return err
			}
			answers[i] = out.String("answer")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return answers, nil
}

// majority returns the most common answer, comparing trimmed values.
// Ties go to the answer seen first.
func majority(answers []string) string {
	counts := make(map[string]int, len(answers))
	order := make([]string, 0, len(answers))
	for _, a := range answers {
		a = strings.TrimSpace(a)
		if counts[a] == 0 {
			order = append(order, a)
		}
		counts[a]++
	}

	var best string
	bestCount := 0
	for _, a := range order {
		if counts[a] > bestCount {
			best, bestCount = a, counts[a]
		}
	}
	return best
}
