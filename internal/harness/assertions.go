package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/conclave/internal/meeting"
	"github.com/roach88/conclave/internal/model"
	"github.com/roach88/conclave/internal/store"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Subject  string // Agent or meeting the assertion is about
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s %s\n", e.Type, e.Subject)
	fmt.Fprintf(&buf, "  Expected: %s\n", indent(e.Expected))
	fmt.Fprintf(&buf, "  Actual: %s\n", indent(e.Actual))
	return buf.String()
}

func indent(s string) string {
	s = strings.TrimSuffix(s, "\n")
	if !strings.Contains(s, "\n") {
		return s
	}
	return "\n    " + strings.ReplaceAll(s, "\n", "\n    ")
}

// EvaluateAssertions checks every assertion and returns one message per
// failure, in order. Counts are taken from one snapshot of the store.
func EvaluateAssertions(ctx context.Context, h *Harness, assertions []Assertion) []string {
	snap, err := h.sess.Snapshot(ctx)
	if err != nil {
		return []string{fmt.Sprintf("snapshot: %v", err)}
	}

	var failures []string
	for i, a := range assertions {
		if err := evaluate(ctx, h, snap, a); err != nil {
			failures = append(failures, fmt.Sprintf("assertion %d: %v", i, err))
		}
	}
	return failures
}

func evaluate(ctx context.Context, h *Harness, snap store.Snapshot, a Assertion) error {
	switch a.Type {
	case AssertHistory:
		return assertHistory(ctx, h, a)
	case AssertChatCount:
		m := h.meetings[a.Meeting]
		n := 0
		for _, c := range snap.Chats {
			if c.MeetingID == m.ID {
				n++
			}
		}
		return assertCount(a, m.Name, n)
	case AssertMemberCount:
		m := h.meetings[a.Meeting]
		n := 0
		for _, ms := range snap.Memberships {
			if ms.MeetingID == m.ID {
				n++
			}
		}
		return assertCount(a, m.Name, n)
	case AssertMembershipCount:
		ag, m := h.agents[a.Agent], h.meetings[a.Meeting]
		n, err := h.sess.CountMemberships(ctx, ag.ID, m.ID)
		if err != nil {
			return err
		}
		return assertCount(a, ag.Name+" in "+m.Name, n)
	case AssertMeetingCount:
		ag := h.agents[a.Agent]
		n := 0
		for _, ms := range snap.Memberships {
			if ms.AgentID == ag.ID {
				n++
			}
		}
		return assertCount(a, ag.Name, n)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertHistory compares an agent's full history, read back from the store.
func assertHistory(ctx context.Context, h *Harness, a Assertion) error {
	ag := h.agents[a.Agent]
	got, err := h.sess.History(ctx, ag.ID)
	if err != nil {
		return err
	}

	if equalMessages(got, a.Messages) {
		return nil
	}
	return &AssertionError{
		Type:     AssertHistory,
		Subject:  ag.Name,
		Expected: renderHistory(a.Messages),
		Actual:   renderHistory(got),
	}
}

func assertCount(a Assertion, subject string, got int) error {
	if got == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Subject:  subject,
		Expected: fmt.Sprintf("%d", a.Count),
		Actual:   fmt.Sprintf("%d", got),
	}
}

func equalMessages(a, b []model.Message) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func renderHistory(messages []model.Message) string {
	if len(messages) == 0 {
		return "(empty)"
	}
	var buf strings.Builder
	_ = meeting.WriteHistory(&buf, messages)
	return buf.String()
}
