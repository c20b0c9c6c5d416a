package evaluation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSample_Prompt(t *testing.T) {
	s := Sample{Question: "  What is 2+2? ", Choices: []string{"3", "4", "5"}, Answer: 1}

	assert.Equal(t, "Answer the following multiple choice question.\n\n"+
		"What is 2+2?\n(A) 3\n(B) 4\n(C) 5\n\n"+
		"Provide your answer as a single letter in the range A-C.", s.Prompt())
	assert.Equal(t, "B", s.Target())
}

func TestLoadDataset_YAML(t *testing.T) {
	samples, err := LoadDataset("testdata/mmlu.yaml", Filter{})
	require.NoError(t, err)
	require.Len(t, samples, 3)
	assert.Equal(t, "physics", samples[0].Subject)
	assert.Equal(t, []string{"S", "So", "Na", "Sd"}, samples[1].Choices)
	assert.Equal(t, "A", samples[2].Target())
}

func TestLoadDataset_JSONL(t *testing.T) {
	samples, err := LoadDataset("testdata/mmlu.jsonl", Filter{})
	require.NoError(t, err)
	require.Len(t, samples, 2, "blank lines are skipped")
	assert.Equal(t, "C", samples[1].Target())
}

func TestLoadDataset_SubjectFilterAndLimit(t *testing.T) {
	samples, err := LoadDataset("testdata/mmlu.yaml", Filter{Subjects: []string{"physics"}})
	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.Equal(t, "What is the SI unit of force?", samples[1].Question)

	samples, err = LoadDataset("testdata/mmlu.yaml", Filter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.Equal(t, "Which particle has no electric charge?", samples[0].Question)
}

func TestFilter_ShuffleIsSeeded(t *testing.T) {
	samples := make([]Sample, 20)
	for i := range samples {
		samples[i] = Sample{Question: string(rune('a' + i))}
	}

	a := Filter{Shuffle: true, Seed: 42}.Apply(samples)
	b := Filter{Shuffle: true, Seed: 42}.Apply(samples)
	assert.Equal(t, a, b)
	assert.ElementsMatch(t, samples, a)
	assert.Equal(t, "a", samples[0].Question, "input untouched")
}

func TestLoadDataset_Errors(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
		return path
	}

	tests := []struct {
		name    string
		path    string
		wantErr string
	}{
		{"missing file", filepath.Join(dir, "nope.yaml"), "failed to read dataset"},
		{"unknown format", write("data.csv", "q,a\n"), "unsupported dataset format"},
		{"unknown field", write("typo.yaml", "- question: q\n  choice: [a, b]\n"), "failed to parse YAML"},
		{"answer out of range", write("range.yaml", "- question: q\n  choices: [a, b]\n  answer: 2\n"), "sample 0: answer 2 out of range"},
		{"too few choices", write("few.yaml", "- question: q\n  choices: [a]\n"), "need 2 to 26 choices"},
		{"empty question", write("empty.jsonl", `{"question": " ", "choices": ["a", "b"], "answer": 0}`+"\n"), "question is required"},
		{"bad json line", write("bad.jsonl", "{\"question\": \"q\"}\n{oops\n"), "line 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadDataset(tt.path, Filter{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
