package evaluation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/conclave/internal/completion"
	"github.com/roach88/conclave/internal/pattern"
	"github.com/roach88/conclave/internal/store"
	"github.com/roach88/conclave/internal/testutil"
)

// answerB answers every request with B, except prompts mentioning "boom".
func answerB() completion.Completer {
	return completion.CompleterFunc(func(ctx context.Context, req completion.Request) (completion.Result, error) {
		if strings.Contains(req.Messages[0].Content, "boom") {
			return completion.Result{}, errors.New("boom")
		}
		return req.Schema.Validate([]byte(`{"thinking": "it is B", "answer": "B"}`))
	})
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func deterministicStores() Option {
	return WithStoreOptions(
		store.WithClock(testutil.NewDeterministicClock()),
		store.WithIDGenerator(testutil.NewSequenceGenerator()),
		store.WithSuffixFunc(testutil.CountingSuffix()),
	)
}

func TestEvaluate_Golden(t *testing.T) {
	samples, err := LoadDataset("testdata/mmlu.yaml", Filter{})
	require.NoError(t, err)

	r := NewRunner(t.TempDir(), answerB(), deterministicStores(), WithLogger(quietLogger()))
	report, err := r.Evaluate(context.Background(), pattern.ChainOfThought{}, samples)
	require.NoError(t, err)

	data, err := MarshalReport(report)
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "cot-report", data)
}

func TestEvaluate_OneStorePerSample(t *testing.T) {
	dir := t.TempDir()
	samples, err := LoadDataset("testdata/mmlu.yaml", Filter{Limit: 2})
	require.NoError(t, err)

	r := NewRunner(dir, answerB(), WithParallel(2), WithLogger(quietLogger()))
	_, err = r.Evaluate(context.Background(), pattern.ChainOfThought{}, samples)
	require.NoError(t, err)

	for _, name := range []string{"cot-0.db", "cot-1.db"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}

	st, err := store.Open(filepath.Join(dir, "cot-0.db"))
	require.NoError(t, err)
	defer st.Close()
	meetings, err := st.Meetings(context.Background())
	require.NoError(t, err)
	assert.Len(t, meetings, 1)
}

func TestEvaluate_RerunStartsFresh(t *testing.T) {
	dir := t.TempDir()
	samples, err := LoadDataset("testdata/mmlu.yaml", Filter{Limit: 1})
	require.NoError(t, err)

	r := NewRunner(dir, answerB(), WithLogger(quietLogger()))
	for i := 0; i < 2; i++ {
		_, err = r.Evaluate(context.Background(), pattern.ChainOfThought{}, samples)
		require.NoError(t, err)
	}

	st, err := store.Open(filepath.Join(dir, "cot-0.db"))
	require.NoError(t, err)
	defer st.Close()
	agents, err := st.Agents(context.Background())
	require.NoError(t, err)
	assert.Len(t, agents, 2)
}

func TestEvaluate_Parallel(t *testing.T) {
	var calls atomic.Int64
	c := completion.CompleterFunc(func(ctx context.Context, req completion.Request) (completion.Result, error) {
		calls.Add(1)
		return req.Schema.Validate([]byte(`{"thinking": "t", "answer": "(A)"}`))
	})

	samples := make([]Sample, 8)
	for i := range samples {
		samples[i] = Sample{Question: "q", Choices: []string{"x", "y"}, Answer: i % 2}
	}

	r := NewRunner(t.TempDir(), c, WithParallel(4), WithLogger(quietLogger()))
	report, err := r.Evaluate(context.Background(), pattern.ChainOfThought{}, samples)
	require.NoError(t, err)

	assert.Equal(t, int64(8), calls.Load())
	assert.Equal(t, 8, report.Total)
	assert.Equal(t, 4, report.Correct)
	for i, s := range report.Samples {
		assert.Equal(t, i, s.Index, "results keep sample order")
	}
}

func TestEvaluate_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	samples, err := LoadDataset("testdata/mmlu.yaml", Filter{})
	require.NoError(t, err)

	r := NewRunner(t.TempDir(), answerB(), WithLogger(quietLogger()))
	_, err = r.Evaluate(ctx, pattern.ChainOfThought{}, samples)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEvaluateAll(t *testing.T) {
	samples, err := LoadDataset("testdata/mmlu.yaml", Filter{Subjects: []string{"physics"}})
	require.NoError(t, err)

	r := NewRunner(t.TempDir(), answerB(), WithLogger(quietLogger()))
	reports, err := r.EvaluateAll(context.Background(),
		[]pattern.Pattern{pattern.ChainOfThought{}, pattern.SelfConsistency{Samples: 3}}, samples)
	require.NoError(t, err)

	require.Len(t, reports, 2)
	assert.Equal(t, "cot", reports[0].Pattern)
	assert.Equal(t, "self-consistency", reports[1].Pattern)
	for _, r := range reports {
		assert.Equal(t, 2, r.Total)
		assert.Equal(t, 1, r.Correct)
	}
}
