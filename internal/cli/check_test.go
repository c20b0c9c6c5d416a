package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const passingScenario = `
name: greeting
description: "One agent greets an empty room"
agents:
  - ref: a
    name: Alice
meetings:
  - ref: m
    name: room
steps:
  - join: { meeting: m, agents: [a] }
  - say: { meeting: m, agent: a, text: "hello" }
assertions:
  - type: chat_count
    meeting: m
    count: 1
`

const failingScenario = `
name: miscount
description: "Expects a chat that was never said"
agents:
  - ref: a
    name: Alice
meetings:
  - ref: m
    name: room
steps:
  - join: { meeting: m, agents: [a] }
assertions:
  - type: chat_count
    meeting: m
    count: 1
`

func writeScenario(t *testing.T, dir, file, content string) string {
	t.Helper()
	path := filepath.Join(dir, file)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCheckCommandMissingArgs(t *testing.T) {
	_, err := execute(t, NewCheckCommand(testRoot(t)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg")
}

func TestCheckCommandNonExistentPath(t *testing.T) {
	_, err := execute(t, NewCheckCommand(testRoot(t)), "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenario path not found")
}

func TestCheckCommandEmptyDir(t *testing.T) {
	out, err := execute(t, NewCheckCommand(testRoot(t)), t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found")
}

func TestCheckCommandPassing(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "greeting.yaml", passingScenario)
	writeScenario(t, dir, "notes.txt", "not a scenario")

	out, err := execute(t, NewCheckCommand(testRoot(t)), dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ greeting")
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")
}

func TestCheckCommandFailing(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "greeting.yaml", passingScenario)
	writeScenario(t, dir, "miscount.yml", failingScenario)

	out, err := execute(t, NewCheckCommand(testRoot(t)), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ miscount")
	assert.Contains(t, out, "Assertion failed: chat_count")
	assert.Contains(t, out, "1 passed, 1 failed, 2 total")
}

func TestCheckCommandLoadError(t *testing.T) {
	dir := t.TempDir()
	file := writeScenario(t, dir, "broken.yaml", "name: broken\nunknown_key: 1\n")

	out, err := execute(t, NewCheckCommand(testRoot(t)), file)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ broken.yaml")
	assert.Contains(t, out, "failed to load scenario")
}

func TestCheckCommandFilter(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "greeting.yaml", passingScenario)
	writeScenario(t, dir, "miscount.yaml", failingScenario)

	out, err := execute(t, NewCheckCommand(testRoot(t)), dir, "--filter", "greet*")
	require.NoError(t, err)
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")
}

func TestCheckCommandJSON(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "miscount.yaml", failingScenario)

	opts := testRoot(t)
	opts.Format = "json"
	out, err := execute(t, NewCheckCommand(opts), dir)
	require.Error(t, err)

	var result CheckResult
	decodeData(t, out, &result)
	assert.Equal(t, 1, result.Total)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Scenarios, 1)
	assert.Equal(t, "miscount", result.Scenarios[0].Name)
	assert.NotEmpty(t, result.Scenarios[0].Errors)
}

func TestCheckCommandGolden(t *testing.T) {
	dir := t.TempDir()
	goldenDir := filepath.Join(t.TempDir(), "golden")
	writeScenario(t, dir, "greeting.yaml", passingScenario)

	_, err := execute(t, NewCheckCommand(testRoot(t)), dir, "--golden", goldenDir, "--update")
	require.NoError(t, err)

	goldenPath := filepath.Join(goldenDir, "greeting.golden")
	data, err := os.ReadFile(goldenPath)
	require.NoError(t, err)
	assert.Equal(t,
		"scenario: greeting\n\ntrace:\n  1. join room: Alice 0001\n  2. say room: Alice 0001\n\nmeeting room:\nAlice 0001: hello\n",
		string(data))

	_, err = execute(t, NewCheckCommand(testRoot(t)), dir, "--golden", goldenDir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(goldenPath, []byte("stale\n"), 0o644))
	out, err := execute(t, NewCheckCommand(testRoot(t)), dir, "--golden", goldenDir)
	require.Error(t, err)
	assert.Contains(t, out, "output does not match")
}

func TestCheckCommandUpdateRequiresGolden(t *testing.T) {
	_, err := execute(t, NewCheckCommand(testRoot(t)), t.TempDir(), "--update")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestFindScenarioFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0o755))
	writeScenario(t, dir, "a.yaml", passingScenario)
	writeScenario(t, filepath.Join(dir, "nested"), "b.yml", passingScenario)
	writeScenario(t, dir, "c.json", "{}")

	files, err := findScenarioFiles(dir, "")
	require.NoError(t, err)
	assert.Len(t, files, 2)

	files, err = findScenarioFiles(filepath.Join(dir, "a.yaml"), "")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.yaml")}, files)

	_, err = findScenarioFiles(dir, "[")
	require.Error(t, err)
}
