package cli

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "conclave", cmd.Use)
	assert.Contains(t, cmd.Long, "SQLite")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"init", "schema", "run", "history", "transcript", "dump", "check", "eval"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	for _, name := range []string{"config", "data-dir", "provider", "model", "log-format"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), name)
	}
}

func TestRunCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	runCmd, _, err := cmd.Find([]string{"run"})
	require.NoError(t, err)

	patternFlag := runCmd.Flags().Lookup("pattern")
	require.NotNil(t, patternFlag)
	assert.Equal(t, "p", patternFlag.Shorthand)
	assert.Equal(t, "cot", patternFlag.DefValue)
	assert.NotNil(t, runCmd.Flags().Lookup("reply"))
}

func TestRootCommand_InvalidFormat(t *testing.T) {
	_, err := execute(t, NewRootCommand(), "schema", "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRootCommand_ConfigFileSetsDataDir(t *testing.T) {
	dataDir := t.TempDir()
	cfgPath := filepath.Join(t.TempDir(), "conclave.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("data_dir: "+dataDir+"\n"), 0o644))

	_, err := execute(t, NewRootCommand(), "init", "--db", "from-config", "--config", cfgPath)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dataDir, "from-config.db"))
}

func TestResolve_FlagsOverrideConfig(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "conclave.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
data_dir: /var/lib/conclave
completion:
  provider: anthropic
  model: claude-3-5-haiku-latest
`), 0o644))

	opts := &RootOptions{ConfigPath: cfgPath, Model: "gpt-4o", Verbose: true, LogFormat: "json"}
	require.NoError(t, opts.resolve(io.Discard))

	assert.Equal(t, "/var/lib/conclave", opts.cfg.DataDir)
	assert.Equal(t, "anthropic", opts.cfg.Completion.Provider)
	assert.Equal(t, "gpt-4o", opts.cfg.Completion.Model)
	assert.Equal(t, "debug", opts.cfg.Log.Level)
	assert.Equal(t, "json", opts.cfg.Log.Format)
	assert.Equal(t, "text", opts.Format)
}

func TestResolve_RejectsUnknownProvider(t *testing.T) {
	opts := &RootOptions{Provider: "carrier-pigeon"}
	err := opts.resolve(io.Discard)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "carrier-pigeon")
}

func TestResolve_MissingConfigFile(t *testing.T) {
	opts := &RootOptions{ConfigPath: filepath.Join(t.TempDir(), "absent.yaml")}
	err := opts.resolve(io.Discard)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
