package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/conclave/internal/completion"
	"github.com/roach88/conclave/internal/meeting"
	"github.com/roach88/conclave/internal/model"
	"github.com/roach88/conclave/internal/pattern"
	"github.com/roach88/conclave/internal/store"
	"github.com/roach88/conclave/internal/testutil"
)

// Harness executes one scenario against one session.
type Harness struct {
	sess     *store.Session
	rt       *meeting.Runtime
	scripted *completion.Scripted
	agents   map[string]*model.Agent
	meetings map[string]*meeting.Meeting
	logger   *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database with a deterministic
// clock, key sequence and name suffixes. Assertion failures and unmet step
// expectations are reported in the result; an error is returned only when
// the scenario cannot be executed at all.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	opts := []store.Option{
		store.WithClock(testutil.NewDeterministicClock()),
		store.WithIDGenerator(testutil.NewSequenceGenerator()),
		store.WithSuffixFunc(testutil.CountingSuffix()),
		store.WithLogger(discardLogger()),
	}

	st, err := store.Open(store.MemoryName, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	sess := store.NewSession(st, opts...)
	defer sess.Close()

	scripted := completion.NewScripted()
	h := &Harness{
		sess:     sess,
		rt:       meeting.New(sess, scripted, meeting.WithLogger(discardLogger())),
		scripted: scripted,
		agents:   make(map[string]*model.Agent, len(scenario.Agents)),
		meetings: make(map[string]*meeting.Meeting, len(scenario.Meetings)),
		logger:   discardLogger(),
	}

	if err := h.declare(ctx, scenario); err != nil {
		return nil, fmt.Errorf("failed to declare entities: %w", err)
	}

	result := NewResult(scenario.Name)
	for i, step := range scenario.Steps {
		if err := h.execute(ctx, step, result); err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, step.Kind(), err)
		}
	}

	for _, msg := range EvaluateAssertions(ctx, h, scenario.Assertions) {
		result.AddError(msg)
	}

	if result.Transcripts, err = h.transcripts(ctx); err != nil {
		return nil, err
	}
	return result, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (h *Harness) declare(ctx context.Context, s *Scenario) error {
	f := h.rt.Factories()
	for _, decl := range s.Agents {
		a, err := f.Agent.New(ctx, model.AgentFields{
			Name:        decl.Name,
			Model:       decl.Model,
			Temperature: decl.Temperature,
		})
		if err != nil {
			return fmt.Errorf("agent %s: %w", decl.Ref, err)
		}
		h.agents[decl.Ref] = a
	}

	for _, decl := range s.Meetings {
		m, err := f.Meeting.New(ctx, model.MeetingFields{Name: decl.Name})
		if err != nil {
			return fmt.Errorf("meeting %s: %w", decl.Ref, err)
		}
		if h.meetings[decl.Ref], err = h.rt.Attach(ctx, m); err != nil {
			return fmt.Errorf("meeting %s: %w", decl.Ref, err)
		}
	}
	return nil
}

func (h *Harness) execute(ctx context.Context, step Step, result *Result) error {
	switch step.Kind() {
	case StepJoin:
		return h.join(ctx, step.Join, result)
	case StepSay:
		return h.say(ctx, step.Say, result)
	case StepAsk:
		return h.ask(ctx, step.Ask, result)
	case StepSolve:
		return h.solve(ctx, step.Solve, result)
	default:
		return fmt.Errorf("step sets no single action")
	}
}

func (h *Harness) join(ctx context.Context, step *JoinStep, result *Result) error {
	m := h.meetings[step.Meeting]
	agents := make([]*model.Agent, len(step.Agents))
	names := make([]string, len(step.Agents))
	for i, ref := range step.Agents {
		agents[i] = h.agents[ref]
		names[i] = agents[i].Name
	}
	if err := m.Join(ctx, agents...); err != nil {
		return err
	}

	result.addTrace(TraceEvent{Kind: StepJoin, Meeting: m.Name, Agents: names})
	return nil
}

func (h *Harness) say(ctx context.Context, step *SayStep, result *Result) error {
	m := h.meetings[step.Meeting]
	a := h.agents[step.Agent]
	if _, err := m.Say(ctx, a, step.Text); err != nil {
		return err
	}

	result.addTrace(TraceEvent{Kind: StepSay, Meeting: m.Name, Agents: []string{a.Name}})
	return nil
}

func (h *Harness) ask(ctx context.Context, step *AskStep, result *Result) error {
	m := h.meetings[step.Meeting]
	from, a := h.agents[step.From], h.agents[step.Agent]

	fields := make([]completion.Field, len(step.Fields))
	for i, name := range step.Fields {
		fields[i] = completion.Text(name, "")
	}
	schema, err := completion.NewSchema(fields...)
	if err != nil {
		return err
	}

	h.scripted.Push(step.Reply)
	out, err := m.Ask(ctx, from, a, step.Prompt, schema)
	if err != nil {
		return err
	}
	if step.Say != "" {
		if _, err := m.Say(ctx, a, out.String(step.Say)); err != nil {
			return err
		}
	}

	values := make(map[string]string, len(step.Fields))
	for _, name := range out.Names() {
		values[name] = out.String(name)
	}
	result.addTrace(TraceEvent{Kind: StepAsk, Meeting: m.Name, Agents: []string{a.Name}, Fields: values})

	for name, want := range step.Expect {
		if got := values[name]; got != want {
			result.AddError(fmt.Sprintf("ask %s in %s: field %s: expected %q, got %q",
				a.Name, m.Name, name, want, got))
		}
	}
	return nil
}

func (h *Harness) solve(ctx context.Context, step *SolveStep, result *Result) error {
	p, err := pattern.Lookup(step.Pattern)
	if err != nil {
		return err
	}

	h.scripted.Push(step.Replies...)
	answer, err := p.Solve(ctx, h.rt, step.Task)
	if err != nil {
		return err
	}
	if n := h.scripted.Remaining(); n > 0 {
		return fmt.Errorf("%s left %d scripted replies unused", p.Name(), n)
	}

	result.addTrace(TraceEvent{Kind: StepSolve, Pattern: p.Name(), Answer: answer})

	if step.Expect != "" && answer != step.Expect {
		result.AddError(fmt.Sprintf("solve %s: expected answer %q, got %q", p.Name(), step.Expect, answer))
	}
	return nil
}

// transcripts reads every meeting's chats in creation order.
func (h *Harness) transcripts(ctx context.Context) ([]Transcript, error) {
	snap, err := h.sess.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}

	out := make([]Transcript, 0, len(snap.Meetings))
	for _, m := range snap.Meetings {
		entries, err := h.sess.Transcript(ctx, m.ID)
		if err != nil {
			return nil, fmt.Errorf("transcript of %s: %w", m.Name, err)
		}
		out = append(out, Transcript{Meeting: m.Name, Entries: entries})
	}
	return out, nil
}
