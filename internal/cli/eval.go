package cli

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/conclave/internal/evaluation"
	"github.com/roach88/conclave/internal/pattern"
)

// EvalOptions holds flags for the eval command.
type EvalOptions struct {
	*RootOptions
	Dataset  string
	Patterns []string
	Subjects []string
	Limit    int
	Parallel int
	Shuffle  bool
	Seed     uint64
}

// NewEvalCommand creates the eval command.
func NewEvalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Score reasoning patterns on a multiple-choice dataset",
		Long: `Run each pattern on every selected dataset sample and report accuracy.
Each sample runs in its own store, <data-dir>/<pattern>-<index>.db, which is
recreated on every evaluation.

Datasets are YAML lists or JSON lines of {question, choices, answer, subject}
where answer is the index of the correct choice. Unset flags fall back to the
evaluation section of the config file.

Exit codes:
  0 - Every sample produced an answer (right or wrong)
  1 - One or more samples errored
  2 - Command error

Examples:
  conclave eval --dataset mmlu.jsonl --patterns cot,debate --limit 20
  conclave eval --dataset mmlu.yaml --subject physics --parallel 4 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Dataset, "dataset", "d", "", "dataset file (.yaml, .yml or .jsonl)")
	cmd.Flags().StringSliceVar(&opts.Patterns, "patterns", []string{"cot"}, "patterns to evaluate")
	cmd.Flags().StringSliceVar(&opts.Subjects, "subject", nil, "keep only these subjects")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of samples")
	cmd.Flags().IntVar(&opts.Parallel, "parallel", 0, "samples evaluated concurrently")
	cmd.Flags().BoolVar(&opts.Shuffle, "shuffle", false, "shuffle samples before the limit is applied")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 0, "shuffle seed")
	_ = cmd.MarkFlagRequired("dataset")

	return cmd
}

func runEval(cmd *cobra.Command, opts *EvalOptions) error {
	if err := opts.resolve(cmd.ErrOrStderr()); err != nil {
		return err
	}
	out := opts.formatter(cmd)

	patterns := make([]pattern.Pattern, 0, len(opts.Patterns))
	for _, name := range opts.Patterns {
		p, err := pattern.Lookup(name)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid pattern", err)
		}
		patterns = append(patterns, p)
	}

	filter := opts.filter(cmd)
	samples, err := evaluation.LoadDataset(opts.Dataset, filter)
	if err != nil {
		return out.Fail(ExitCommandError, CodeDataset, "load dataset", err)
	}
	if len(samples) == 0 {
		return NewExitError(ExitCommandError, "no samples selected")
	}

	c, err := opts.completer(nil)
	if err != nil {
		return WrapExitError(ExitCommandError, "configure completion", err)
	}

	parallel := opts.cfg.Evaluation.Parallel
	if opts.Parallel > 0 {
		parallel = opts.Parallel
	}
	runner := evaluation.NewRunner(opts.cfg.DataDir, c,
		evaluation.WithParallel(parallel),
		evaluation.WithModel(opts.cfg.Completion.Model),
		evaluation.WithLogger(opts.logger),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out.VerboseLog("Evaluating %d samples with %d pattern(s)", len(samples), len(patterns))
	reports, err := runner.EvaluateAll(ctx, patterns, samples)
	if err != nil {
		return out.Fail(ExitFailure, CodeCompletion, "evaluation interrupted", err)
	}

	if err := out.Emit(reports, func(w io.Writer) error {
		return evaluation.WriteSummary(w, reports)
	}); err != nil {
		return err
	}

	errored := 0
	for _, r := range reports {
		errored += r.Errors
	}
	if errored > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d sample(s) errored", errored))
	}
	return nil
}

// filter merges the config's evaluation section with the flags that were set.
func (o *EvalOptions) filter(cmd *cobra.Command) evaluation.Filter {
	ev := o.cfg.Evaluation
	f := evaluation.Filter{
		Subjects: ev.Subjects,
		Shuffle:  ev.Shuffle,
		Seed:     ev.Seed,
		Limit:    ev.Limit,
	}
	flags := cmd.Flags()
	if flags.Changed("subject") {
		f.Subjects = o.Subjects
	}
	if flags.Changed("shuffle") {
		f.Shuffle = o.Shuffle
	}
	if flags.Changed("seed") {
		f.Seed = o.Seed
	}
	if flags.Changed("limit") {
		f.Limit = o.Limit
	}
	return f
}
