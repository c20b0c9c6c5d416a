package evaluation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
)

// SampleResult is the outcome of one sample.
type SampleResult struct {
	Index   int    `json:"index"`
	Subject string `json:"subject,omitempty"`
	Target  string `json:"target"`
	Answer  string `json:"answer,omitempty"`
	Correct bool   `json:"correct"`
	Error   string `json:"error,omitempty"`
}

// Report summarizes one pattern over a dataset.
type Report struct {
	Pattern  string         `json:"pattern"`
	Total    int            `json:"total"`
	Correct  int            `json:"correct"`
	Errors   int            `json:"errors"`
	Accuracy float64        `json:"accuracy"`
	Samples  []SampleResult `json:"samples"`
}

// tally recomputes the counters from Samples.
func (r *Report) tally() {
	r.Total = len(r.Samples)
	r.Correct, r.Errors = 0, 0
	for _, s := range r.Samples {
		if s.Correct {
			r.Correct++
		}
		if s.Error != "" {
			r.Errors++
		}
	}
	r.Accuracy = 0
	if r.Total > 0 {
		r.Accuracy = float64(r.Correct) / float64(r.Total)
	}
}

// MarshalReport renders a report as indented JSON with a trailing newline.
func MarshalReport(r *Report) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteSummary writes one aligned line per report.
func WriteSummary(w io.Writer, reports []*Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PATTERN\tCORRECT\tTOTAL\tERRORS\tACCURACY")
	for _, r := range reports {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%.3f\n", r.Pattern, r.Correct, r.Total, r.Errors, r.Accuracy)
	}
	return tw.Flush()
}
