package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/conclave/internal/completion"
	"github.com/roach88/conclave/internal/config"
	"github.com/roach88/conclave/internal/logging"
	"github.com/roach88/conclave/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
	DataDir    string
	Provider   string
	Model      string
	LogFormat  string

	// Completer replaces the configured provider when set.
	Completer completion.Completer

	cfg      config.Config
	logger   *slog.Logger
	resolved bool
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the conclave CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "conclave",
		Short: "conclave - multi-agent meetings over SQLite",
		Long: `Run multi-agent LLM reasoning patterns whose agents, meetings and
chats persist to a SQLite store as they happen.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.resolve(cmd.ErrOrStderr())
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output (debug logging)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to a YAML config file")
	cmd.PersistentFlags().StringVar(&opts.DataDir, "data-dir", "", "directory holding the store files")
	cmd.PersistentFlags().StringVar(&opts.Provider, "provider", "", "completion provider (openai|anthropic|gateway|scripted)")
	cmd.PersistentFlags().StringVar(&opts.Model, "model", "", "model name sent to the provider")
	cmd.PersistentFlags().StringVar(&opts.LogFormat, "log-format", "", "log format (text|json)")

	cmd.AddCommand(NewInitCommand(opts))
	cmd.AddCommand(NewSchemaCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewTranscriptCommand(opts))
	cmd.AddCommand(NewDumpCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewEvalCommand(opts))

	return cmd
}

// resolve validates the global flags, loads the config file and applies the
// flag overrides. Later calls are no-ops.
func (o *RootOptions) resolve(logOut io.Writer) error {
	if o.resolved {
		return nil
	}
	if o.Format == "" {
		o.Format = "text"
	}
	if !isValidFormat(o.Format) {
		return NewExitError(ExitCommandError,
			fmt.Sprintf("invalid format %q: must be one of %v", o.Format, ValidFormats))
	}

	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "load config", err)
	}
	if o.DataDir != "" {
		cfg.DataDir = o.DataDir
	}
	if o.Provider != "" {
		cfg.Completion.Provider = o.Provider
	}
	if o.Model != "" {
		cfg.Completion.Model = o.Model
	}
	if o.LogFormat != "" {
		cfg.Log.Format = o.LogFormat
	}
	if o.Verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	logger, err := logging.Setup(cfg.Logging(logOut))
	if err != nil {
		return WrapExitError(ExitCommandError, "configure logging", err)
	}

	o.cfg = cfg
	o.logger = logger
	o.resolved = true
	return nil
}

// formatter returns the output formatter for cmd.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// openStore initializes the named store under the data directory.
func (o *RootOptions) openStore(name string) (*store.Session, error) {
	sess, _, err := store.Initialize(o.cfg.DataDir, name, store.WithLogger(o.logger))
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// completer returns the injected completer or builds the configured one.
// script feeds the scripted provider.
func (o *RootOptions) completer(script []string) (completion.Completer, error) {
	if o.Completer != nil {
		return o.Completer, nil
	}
	opts := o.cfg.CompletionOptions()
	opts.Script = script
	return completion.New(opts, o.logger)
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// openExisting opens a store that must already exist, so read-only commands
// never create an empty file.
func (o *RootOptions) openExisting(name string) (*store.Session, error) {
	path, err := store.Path(o.cfg.DataDir, name)
	if err != nil {
		return nil, err
	}
	if path != store.MemoryName {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("store not found: %s", path)
		}
	}
	return o.openStore(name)
}
