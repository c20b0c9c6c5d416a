package pattern

import (
	"context"

	"github.com/roach88/conclave/internal/completion"
	"github.com/roach88/conclave/internal/meeting"
	"github.com/roach88/conclave/internal/model"
)

const (
	debateFollowUp = "Given solutions to the problem from other agents, consider their opinions as additional advice. " +
		"Please think carefully and provide an updated answer. Reminder, the task is: "
	debateDecision = "Given all the above thinking and answers, reason over them carefully and provide a final answer."
)

// Debate runs three experts for a number of rounds in one meeting, each
// seeing the others' answers, then asks a final decision agent.
type Debate struct {
	Rounds int
}

func (Debate) Name() string { return "debate" }

func (d Debate) Solve(ctx context.Context, rt *meeting.Runtime, task string) (string, error) {
	system, agents, err := cast(ctx, rt,
		role{"Biology Expert", 0.8},
		role{"Physics Expert", 0.8},
		role{"Science Generalist", 0.8},
		role{"Final Decision Agent", 0.1},
	)
	if err != nil {
		return "", err
	}
	experts, judge := agents[:3], agents[3]

	members := make([]*model.Agent, 0, len(agents)+1)
	members = append(members, experts...)
	members = append(members, system, judge)
	m, err := rt.Convene(ctx, "debate", members...)
	if err != nil {
		return "", err
	}

	rounds := max(d.Rounds, 1)
	for r := 0; r < rounds; r++ {
		for i, expert := range experts {
			prompt := debateFollowUp + task
			if r == 0 && i == 0 {
				prompt = solvePrompt(task)
			}

			var out completion.Result
			if out, err = m.Ask(ctx, system, expert, prompt, debateSchema); err != nil {
				return "", err
			}
			if _, err := m.Say(ctx, expert, out.String("thinking")+"\n\n"+out.String("response")); err != nil {
				return "", err
			}
		}
	}

	out, err := m.Ask(ctx, system, judge, debateDecision, answerSchema)
	if err != nil {
		return "", err
	}
	return out.String("answer"), nil
}
