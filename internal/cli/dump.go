package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/conclave/internal/store"
)

// NewDumpCommand creates the dump command.
func NewDumpCommand(rootOpts *RootOptions) *cobra.Command {
	var db string

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Write the full store content as JSON",
		Long: `Write every agent, meeting, chat and membership of a store as one
JSON document in storage order. The output is the same for the same store
content, so two dumps can be diffed.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rootOpts.resolve(cmd.ErrOrStderr()); err != nil {
				return err
			}
			out := rootOpts.formatter(cmd)

			sess, err := rootOpts.openExisting(db)
			if err != nil {
				return out.Fail(ExitCommandError, CodeStore, "open store", err)
			}
			defer sess.Close()

			snap, err := sess.Snapshot(cmd.Context())
			if err != nil {
				return out.Fail(ExitCommandError, CodeStore, "read store", err)
			}
			data, err := store.MarshalSnapshot(snap)
			if err != nil {
				return out.Fail(ExitCommandError, CodeStore, "encode snapshot", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().StringVar(&db, "db", "conclave", "store name")

	return cmd
}
