package pattern

import (
	"context"

	"github.com/roach88/conclave/internal/completion"
	"github.com/roach88/conclave/internal/meeting"
)

const (
	diversityAlternative = "Given previous attempts, try to come up with another interesting way to solve the task: "
	diversityDecision    = "Given all the above solutions, reason over them carefully and provide a final answer."
)

// QualityDiversity collects an initial solution plus a number of deliberately
// different attempts, then asks a final decision agent to compare them.
type QualityDiversity struct {
	Alternatives int
}

func (QualityDiversity) Name() string { return "quality-diversity" }

func (q QualityDiversity) Solve(ctx context.Context, rt *meeting.Runtime, task string) (string, error) {
	system, agents, err := cast(ctx, rt,
		role{"Chain-of-Thought Agent", 0.8},
		role{"Final Decision Agent", 0.1},
	)
	if err != nil {
		return "", err
	}
	cot, judge := agents[0], agents[1]

	m, err := rt.Convene(ctx, "quality-diversity", system, cot, judge)
	if err != nil {
		return "", err
	}

	attempt := func(prompt string, schema completion.Schema) error {
		out, err := m.Ask(ctx, system, cot, prompt, schema)
		if err != nil {
			return err
		}
		_, err = m.Say(ctx, cot, out.String("thinking")+"\n\nAnswer: "+out.String("answer"))
		return err
	}

	if err := attempt(solvePrompt(task), answerSchema); err != nil {
		return "", err
	}
	for i := 0; i < q.Alternatives; i++ {
		if err := attempt(diversityAlternative+task, alternativeSchema); err != nil {
			return "", err
		}
	}

	out, err := m.Ask(ctx, system, judge, diversityDecision, comparisonSchema)
	if err != nil {
		return "", err
	}
	return out.String("answer"), nil
}
