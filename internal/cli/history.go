package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/conclave/internal/meeting"
	"github.com/roach88/conclave/internal/model"
	"github.com/roach88/conclave/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	DB    string
	Agent string
}

// HistoryResult is the JSON payload of the history command.
type HistoryResult struct {
	Agent    *model.Agent    `json:"agent"`
	Messages []model.Message `json:"messages"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show an agent's conversation history",
		Long: `Show the conversation history of one agent exactly as it is sent to the
completion service: every chat of every meeting the agent belongs to, in
creation order, labeled from the agent's point of view. Without --agent the
agents of the store are listed.

--agent accepts an agent ID or a full agent name such as "Critic x9Qa".

Examples:
  conclave history --db debate
  conclave history --db debate --agent "Critic x9Qa"`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "conclave", "store name")
	cmd.Flags().StringVarP(&opts.Agent, "agent", "a", "", "agent ID or name")

	return cmd
}

func runHistory(cmd *cobra.Command, opts *HistoryOptions) error {
	if err := opts.resolve(cmd.ErrOrStderr()); err != nil {
		return err
	}
	out := opts.formatter(cmd)
	ctx := cmd.Context()

	sess, err := opts.openExisting(opts.DB)
	if err != nil {
		return out.Fail(ExitCommandError, CodeStore, "open store", err)
	}
	defer sess.Close()

	snap, err := sess.Snapshot(ctx)
	if err != nil {
		return out.Fail(ExitCommandError, CodeStore, "read store", err)
	}

	if opts.Agent == "" {
		return out.Emit(snap.Agents, func(w io.Writer) error {
			return writeAgents(w, snap.Agents)
		})
	}

	agent := findAgent(snap.Agents, opts.Agent)
	if agent == nil {
		return out.Fail(ExitCommandError, CodeNotFound, "unknown agent",
			fmt.Errorf("%q: %w", opts.Agent, store.ErrNotFound))
	}
	messages, err := sess.History(ctx, agent.ID)
	if err != nil {
		return out.Fail(ExitCommandError, CodeStore, "read history", err)
	}

	return out.Emit(HistoryResult{Agent: agent, Messages: messages}, func(w io.Writer) error {
		return meeting.WriteHistory(w, messages)
	})
}

func findAgent(agents []*model.Agent, ref string) *model.Agent {
	for _, a := range agents {
		if a.ID == ref || a.Name == ref {
			return a
		}
	}
	return nil
}

func writeAgents(w io.Writer, agents []*model.Agent) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tMODEL\tTEMPERATURE")
	for _, a := range agents {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\n", a.ID, a.Name, a.Model, a.Temperature)
	}
	return tw.Flush()
}
