package pattern

import (
	"context"
	"strings"

	"github.com/roach88/conclave/internal/meeting"
	"github.com/roach88/conclave/internal/model"
)

const routingPrompt = "Given the task, please choose an Expert to answer the question. " +
	"Choose from: Physics, Chemistry, Biology Expert, or Science Generalist."

// expertChoices are the routing answers, in cast order.
var expertChoices = []string{"physics", "chemistry", "biology", "general"}

// DynamicRoles lets a routing agent pick the expert that answers. An
// unrecognised choice falls back to the generalist.
type DynamicRoles struct{}

func (DynamicRoles) Name() string { return "dynamic-roles" }

func (DynamicRoles) Solve(ctx context.Context, rt *meeting.Runtime, task string) (string, error) {
	system, agents, err := cast(ctx, rt,
		role{"Routing Agent", 0.8},
		role{"Physics Expert", 0.8},
		role{"Chemistry Expert", 0.8},
		role{"Biology Expert", 0.8},
		role{"Science Generalist", 0.8},
	)
	if err != nil {
		return "", err
	}
	router := agents[0]
	experts := make(map[string]*model.Agent, len(expertChoices))
	for i, choice := range expertChoices {
		experts[choice] = agents[i+1]
	}

	m, err := rt.Convene(ctx, "dynamic-roles", append([]*model.Agent{system}, agents...)...)
	if err != nil {
		return "", err
	}

	route, err := m.Ask(ctx, system, router, routingPrompt, routingSchema)
	if err != nil {
		return "", err
	}
	expert := experts[routeChoice(route.String("choice"))]

	out, err := m.Ask(ctx, system, expert, solvePrompt(task), answerSchema)
	if err != nil {
		return "", err
	}
	return out.String("answer"), nil
}

// routeChoice maps a routing answer to an expert key. "Physics Expert" and
// "physics" both select physics; anything unknown selects general.
func routeChoice(choice string) string {
	fields := strings.Fields(strings.ToLower(choice))
	if len(fields) == 0 {
		return "general"
	}
	for _, c := range expertChoices {
		if fields[0] == c {
			return c
		}
	}
	return "general"
}
