package harness

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/conclave/internal/model"
)

// TraceEvent records one executed step.
type TraceEvent struct {
	Step    int               `json:"step"`
	Kind    string            `json:"kind"`
	Meeting string            `json:"meeting,omitempty"`
	Pattern string            `json:"pattern,omitempty"`
	Agents  []string          `json:"agents,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
	Answer  string            `json:"answer,omitempty"`
}

// Summary renders the event on one line.
func (e TraceEvent) Summary() string {
	switch e.Kind {
	case StepJoin:
		return fmt.Sprintf("join %s: %s", e.Meeting, strings.Join(e.Agents, ", "))
	case StepSay:
		return fmt.Sprintf("say %s: %s", e.Meeting, strings.Join(e.Agents, ", "))
	case StepAsk:
		names := make([]string, 0, len(e.Fields))
		for name := range e.Fields {
			names = append(names, name)
		}
		sort.Strings(names)
		pairs := make([]string, len(names))
		for i, name := range names {
			pairs[i] = name + "=" + e.Fields[name]
		}
		return fmt.Sprintf("ask %s: %s -> %s", e.Meeting, strings.Join(e.Agents, ", "), strings.Join(pairs, ", "))
	case StepSolve:
		return fmt.Sprintf("solve %s -> %s", e.Pattern, e.Answer)
	default:
		return e.Kind
	}
}

// Transcript is one meeting's chats at the end of a run.
type Transcript struct {
	Meeting string               `json:"meeting"`
	Entries []model.AuthoredChat `json:"-"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Scenario is the scenario name.
	Scenario string `json:"scenario"`

	// Pass is true when every expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace holds the executed steps in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Transcripts holds every meeting in the store, in creation order,
	// including meetings created by solve steps.
	Transcripts []Transcript `json:"-"`
}

// NewResult creates a new passing result.
func NewResult(scenario string) *Result {
	return &Result{
		Scenario: scenario,
		Pass:     true,
		Trace:    []TraceEvent{},
		Errors:   []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

func (r *Result) addTrace(e TraceEvent) {
	e.Step = len(r.Trace)
	r.Trace = append(r.Trace, e)
}
