package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/conclave/internal/meeting"
	"github.com/roach88/conclave/internal/pattern"
	"github.com/roach88/conclave/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Pattern    string
	Task       string
	TaskFile   string
	DB         string
	Replies    []string
	Transcript bool
}

// RunResult is the JSON payload of the run command.
type RunResult struct {
	Pattern     string              `json:"pattern"`
	Store       string              `json:"store"`
	Answer      string              `json:"answer"`
	Transcripts []MeetingTranscript `json:"transcripts,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Solve a task with a reasoning pattern",
		Long: `Solve one task with a multi-agent reasoning pattern. Every agent,
meeting and chat the pattern creates is written to the store as it happens,
so an interrupted run leaves a readable partial transcript.

Patterns: ` + strings.Join(pattern.Names(), ", ") + `

The scripted provider answers with the --reply values in order, which makes
a run reproducible without network access.

Examples:
  conclave run --pattern cot --task "What is 2+2? A) 3 B) 4"
  conclave run --pattern debate --task-file question.txt --db debate
  conclave run --pattern cot --task "..." --provider scripted \
      --reply '{"thinking":"...","answer":"B"}'`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPattern(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Pattern, "pattern", "p", "cot", "reasoning pattern")
	cmd.Flags().StringVarP(&opts.Task, "task", "t", "", "task text")
	cmd.Flags().StringVar(&opts.TaskFile, "task-file", "", "read the task from a file")
	cmd.Flags().StringVar(&opts.DB, "db", "", "store name (defaults to the pattern name)")
	cmd.Flags().StringArrayVar(&opts.Replies, "reply", nil, "scripted provider reply (repeatable)")
	cmd.Flags().BoolVar(&opts.Transcript, "transcript", false, "print the meeting transcripts after the answer")

	return cmd
}

func runPattern(cmd *cobra.Command, opts *RunOptions) error {
	if err := opts.resolve(cmd.ErrOrStderr()); err != nil {
		return err
	}
	out := opts.formatter(cmd)

	p, err := pattern.Lookup(opts.Pattern)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid pattern", err)
	}

	task, err := opts.task()
	if err != nil {
		return err
	}

	c, err := opts.completer(opts.Replies)
	if err != nil {
		return WrapExitError(ExitCommandError, "configure completion", err)
	}

	name := opts.DB
	if name == "" {
		name = p.Name()
	}
	sess, err := opts.openStore(name)
	if err != nil {
		return out.Fail(ExitCommandError, CodeStore, "open store", err)
	}
	defer sess.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out.VerboseLog("Running %s in %s", p.Name(), sess.Store().Path())
	rt := meeting.New(sess, c,
		meeting.WithModel(opts.cfg.Completion.Model),
		meeting.WithLogger(opts.logger),
	)
	answer, err := p.Solve(ctx, rt, task)
	if err != nil {
		return out.Fail(ExitFailure, CodeCompletion, p.Name()+" failed", err)
	}

	result := RunResult{Pattern: p.Name(), Store: sess.Store().Path(), Answer: answer}
	if opts.Transcript {
		if result.Transcripts, err = transcripts(ctx, sess); err != nil {
			return out.Fail(ExitCommandError, CodeStore, "read transcripts", err)
		}
	}

	return out.Emit(result, func(w io.Writer) error {
		fmt.Fprintln(w, answer)
		for _, t := range result.Transcripts {
			fmt.Fprintf(w, "\n[%s] %s\n", t.Meeting, t.ID)
			if err := meeting.WriteTranscript(w, t.entries); err != nil {
				return err
			}
		}
		return nil
	})
}

// task returns the task from --task or --task-file.
func (o *RunOptions) task() (string, error) {
	task := o.Task
	switch {
	case o.Task != "" && o.TaskFile != "":
		return "", NewExitError(ExitCommandError, "use either --task or --task-file, not both")
	case o.TaskFile != "":
		data, err := os.ReadFile(o.TaskFile)
		if err != nil {
			return "", WrapExitError(ExitCommandError, "read task file", err)
		}
		task = string(data)
	}
	task = strings.TrimSpace(task)
	if task == "" {
		return "", NewExitError(ExitCommandError, "a task is required (--task or --task-file)")
	}
	return task, nil
}

// transcripts reads every meeting of the store with its chats.
func transcripts(ctx context.Context, sess *store.Session) ([]MeetingTranscript, error) {
	snap, err := sess.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]MeetingTranscript, 0, len(snap.Meetings))
	for _, m := range snap.Meetings {
		entries, err := sess.Transcript(ctx, m.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, newMeetingTranscript(m, entries))
	}
	return out, nil
}
