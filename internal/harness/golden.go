package harness

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/conclave/internal/meeting"
)

// Render writes the result as text: the trace, then each meeting's
// transcript. Identical runs render identical bytes.
func Render(w io.Writer, r *Result) error {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "scenario: %s\n", r.Scenario)

	buf.WriteString("\ntrace:\n")
	for _, e := range r.Trace {
		fmt.Fprintf(&buf, "  %d. %s\n", e.Step+1, e.Summary())
	}

	for _, t := range r.Transcripts {
		fmt.Fprintf(&buf, "\nmeeting %s:\n", t.Meeting)
		if err := meeting.WriteTranscript(&buf, t.Entries); err != nil {
			return err
		}
	}

	_, err := w.Write(buf.Bytes())
	return err
}

// RunWithGolden executes a scenario and compares the rendered result against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result so callers can also check Pass and Errors.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an already computed result against its golden file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	var buf bytes.Buffer
	if err := Render(&buf, result); err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, buf.Bytes())
	return nil
}
