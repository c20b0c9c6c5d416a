package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// InitOptions holds flags for the init command.
type InitOptions struct {
	*RootOptions
	DB string
}

// InitResult is the JSON payload of the init command.
type InitResult struct {
	Path   string   `json:"path"`
	Tables []string `json:"tables"`
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a store and its schema",
		Long: `Create the named store under the data directory, or open it if it
already exists, and apply the schema. Running init twice is harmless.

Examples:
  conclave init --db debate
  conclave init --db debate --data-dir ./runs --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "conclave", "store name")

	return cmd
}

func runInit(cmd *cobra.Command, opts *InitOptions) error {
	if err := opts.resolve(cmd.ErrOrStderr()); err != nil {
		return err
	}
	out := opts.formatter(cmd)

	sess, err := opts.openStore(opts.DB)
	if err != nil {
		return out.Fail(ExitCommandError, CodeStore, "initialize store", err)
	}
	defer sess.Close()

	result := InitResult{Path: sess.Store().Path()}
	for _, t := range sess.Registry().Tables() {
		result.Tables = append(result.Tables, t.Name)
	}

	return out.Emit(result, func(w io.Writer) error {
		fmt.Fprintf(w, "Initialized %s\n", result.Path)
		for _, t := range sess.Registry().Tables() {
			fmt.Fprintf(w, "  %-18s %s\n", t.Name, t.Label)
		}
		return nil
	})
}
