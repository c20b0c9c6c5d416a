package evaluation

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/conclave/internal/completion"
	"github.com/roach88/conclave/internal/meeting"
	"github.com/roach88/conclave/internal/pattern"
	"github.com/roach88/conclave/internal/store"
)

// Runner evaluates patterns sample by sample.
//
// Thread-safety: safe for concurrent use if the completer is.
type Runner struct {
	dataDir   string
	completer completion.Completer
	model     string
	parallel  int
	storeOpts []store.Option
	logger    *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithParallel sets how many samples run at once. Values below 1 mean 1.
func WithParallel(n int) Option {
	return func(r *Runner) { r.parallel = max(n, 1) }
}

// WithModel sets the model of every agent.
func WithModel(name string) Option {
	return func(r *Runner) { r.model = name }
}

// WithStoreOptions passes options to every per-sample store.
func WithStoreOptions(opts ...store.Option) Option {
	return func(r *Runner) { r.storeOpts = append(r.storeOpts, opts...) }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// NewRunner creates a runner writing stores under dataDir.
func NewRunner(dataDir string, c completion.Completer, opts ...Option) *Runner {
	r := &Runner{
		dataDir:   dataDir,
		completer: c,
		parallel:  1,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Evaluate runs p on every sample and scores the answers.
// Only context cancellation stops the sweep early.
func (r *Runner) Evaluate(ctx context.Context, p pattern.Pattern, samples []Sample) (*Report, error) {
	results := make([]SampleResult, len(samples))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.parallel)
	for i, s := range samples {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = r.runSample(gctx, p, i, s)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("evaluate %s: %w", p.Name(), err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("evaluate %s: %w", p.Name(), err)
	}

	report := &Report{Pattern: p.Name(), Samples: results}
	report.tally()

	r.logger.Info("evaluation finished",
		"pattern", report.Pattern,
		"total", report.Total,
		"correct", report.Correct,
		"errors", report.Errors,
		"accuracy", report.Accuracy,
	)
	return report, nil
}

// EvaluateAll evaluates each pattern in turn over the same samples.
func (r *Runner) EvaluateAll(ctx context.Context, patterns []pattern.Pattern, samples []Sample) ([]*Report, error) {
	reports := make([]*Report, 0, len(patterns))
	for _, p := range patterns {
		report, err := r.Evaluate(ctx, p, samples)
		if err != nil {
			return reports, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}

func (r *Runner) runSample(ctx context.Context, p pattern.Pattern, i int, s Sample) SampleResult {
	res := SampleResult{Index: i, Subject: s.Subject, Target: s.Target()}

	answer, err := r.solve(ctx, p, i, s)
	if err != nil {
		r.logger.Warn("sample failed", "pattern", p.Name(), "sample", i, "error", err)
		res.Error = err.Error()
		return res
	}

	res.Answer = answer
	res.Correct = Match(answer, res.Target)
	r.logger.Debug("sample scored", "pattern", p.Name(), "sample", i,
		"answer", answer, "target", res.Target, "correct", res.Correct)
	return res
}

// solve runs p in a fresh store for sample i.
func (r *Runner) solve(ctx context.Context, p pattern.Pattern, i int, s Sample) (string, error) {
	name := fmt.Sprintf("%s-%d", p.Name(), i)
	if err := removeStore(r.dataDir, name); err != nil {
		return "", err
	}

	sess, _, err := store.Initialize(r.dataDir, name, r.storeOpts...)
	if err != nil {
		return "", err
	}
	defer sess.Close()

	rt := meeting.New(sess, r.completer, meeting.WithModel(r.model), meeting.WithLogger(r.logger))
	return p.Solve(ctx, rt, s.Prompt())
}

// removeStore deletes the database files of an earlier run of the same
// sample, so every run starts from an empty store.
func removeStore(dir, name string) error {
	path, err := store.Path(dir, name)
	if err != nil {
		return err
	}
	for _, suffix := range []string{"", "-wal", "-shm"} {
		if err := os.Remove(path + suffix); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove stale store: %w", err)
		}
	}
	return nil
}
