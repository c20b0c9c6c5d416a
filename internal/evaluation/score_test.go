package evaluation

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"B", "B"},
		{" b \n", "B"},
		{"(c)", "C"},
		{"(D) because", "D"},
		{"A.", "A"},
		{"a) first", "A"},
		{"neutron", "NEUTRON"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestMatch(t *testing.T) {
	assert.True(t, Match("(B)", "B"))
	assert.True(t, Match("b", "B"))
	assert.False(t, Match("C", "B"))
	assert.False(t, Match("", ""), "a non-answer never matches")
}

func TestReport_Tally(t *testing.T) {
	r := &Report{Samples: []SampleResult{
		{Correct: true},
		{Error: "boom"},
		{Correct: false},
		{Correct: true},
	}}
	r.tally()

	assert.Equal(t, 4, r.Total)
	assert.Equal(t, 2, r.Correct)
	assert.Equal(t, 1, r.Errors)
	assert.Equal(t, 0.5, r.Accuracy)

	empty := &Report{}
	empty.tally()
	assert.Equal(t, 0.0, empty.Accuracy)
}

func TestWriteSummary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, []*Report{
		{Pattern: "cot", Total: 4, Correct: 3, Accuracy: 0.75},
		{Pattern: "self-consistency", Total: 4, Correct: 1, Errors: 1, Accuracy: 0.25},
	}))
	assert.Equal(t,
		"PATTERN           CORRECT  TOTAL  ERRORS  ACCURACY\n"+
			"cot               3        4      0       0.750\n"+
			"self-consistency  1        4      1       0.250\n",
		buf.String())
}
