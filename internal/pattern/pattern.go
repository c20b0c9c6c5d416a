// Package pattern holds multi-agent reasoning patterns. Each pattern sets up
// its agents and a meeting in the runtime's store, runs the conversation,
// and returns a final answer for the task.
package pattern

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/conclave/internal/completion"
	"github.com/roach88/conclave/internal/meeting"
	"github.com/roach88/conclave/internal/model"
)

// Pattern solves a task with a group of agents.
type Pattern interface {
	Name() string
	Solve(ctx context.Context, rt *meeting.Runtime, task string) (string, error)
}

// Response shapes shared by the patterns.
var (
	answerSchema = completion.MustSchema(
		completion.Text("thinking", "Your step by step thinking."),
		completion.Text("answer", "A single letter, A, B, C or D."),
	)
	debateSchema = completion.MustSchema(
		completion.Text("thinking", "Your step by step thinking."),
		completion.Text("response", "Your final response."),
		completion.Text("answer", "A single letter, A, B, C or D."),
	)
	criticSchema = completion.MustSchema(
		completion.Text("feedback", "Your detailed feedback."),
		completion.Text("correct", "Either 'CORRECT' or 'INCORRECT'"),
	)
	principleSchema = completion.MustSchema(
		completion.Text("thinking", "Your step by step thinking about the principles."),
		completion.Text("principles", "List and explanation of the principles involved."),
	)
	alternativeSchema = completion.MustSchema(
		completion.Text("thinking", "Your step by step thinking with a new approach."),
		completion.Text("answer", "A single letter, A, B, C or D."),
	)
	comparisonSchema = completion.MustSchema(
		completion.Text("thinking", "Your step by step thinking comparing all solutions."),
		completion.Text("answer", "A single letter, A, B, C or D."),
	)
	routingSchema = completion.MustSchema(
		completion.Text("choice", "One of: physics, chemistry, biology, or general"),
	)
)

func solvePrompt(task string) string {
	return "Please think step by step and then solve the task: " + task
}

var registry = map[string]func() Pattern{
	"cot":               func() Pattern { return ChainOfThought{} },
	"debate":            func() Pattern { return Debate{Rounds: 2} },
	"reflexion":         func() Pattern { return Reflexion{MaxRefinements: 3} },
	"self-consistency":  func() Pattern { return SelfConsistency{Samples: 3} },
	"step-back":         func() Pattern { return StepBack{} },
	"quality-diversity": func() Pattern { return QualityDiversity{Alternatives: 3} },
	"dynamic-roles":     func() Pattern { return DynamicRoles{} },
}

// Lookup returns the pattern registered under name.
func Lookup(name string) (Pattern, error) {
	build, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown pattern %q (known: %s)", name, strings.Join(Names(), ", "))
	}
	return build(), nil
}

// Names returns the registered pattern names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// cast creates the system agent and the named agents, in order.
func cast(ctx context.Context, rt *meeting.Runtime, roles ...role) (*model.Agent, []*model.Agent, error) {
	system, err := rt.NewAgent(ctx, model.SystemName, 0.8)
	if err != nil {
		return nil, nil, err
	}
	agents := make([]*model.Agent, len(roles))
	for i, r := range roles {
		if agents[i], err = rt.NewAgent(ctx, r.name, r.temperature); err != nil {
			return nil, nil, err
		}
	}
	return system, agents, nil
}

type role struct {
	name        string
	temperature float64
}
