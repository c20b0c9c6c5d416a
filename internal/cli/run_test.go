package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/conclave/internal/completion"
)

func TestRunCommand_ScriptedCoT(t *testing.T) {
	opts := testRoot(t)

	out, err := execute(t, NewRunCommand(opts),
		"--pattern", "cot",
		"--task", "What is 2+2? (A) 3 (B) 4",
		"--reply", cotReply,
	)
	require.NoError(t, err)
	assert.Equal(t, "B\n", out)
	assert.FileExists(t, filepath.Join(opts.DataDir, "cot.db"), "store defaults to the pattern name")
}

func TestRunCommand_JSONWithTranscript(t *testing.T) {
	opts := testRoot(t)
	opts.Format = "json"

	out, err := execute(t, NewRunCommand(opts),
		"--task", "What is 2+2? (A) 3 (B) 4",
		"--db", "json-run",
		"--reply", cotReply,
		"--transcript",
	)
	require.NoError(t, err)

	var result RunResult
	decodeData(t, out, &result)
	assert.Equal(t, "cot", result.Pattern)
	assert.Equal(t, "B", result.Answer)
	assert.Equal(t, filepath.Join(opts.DataDir, "json-run.db"), result.Store)

	require.Len(t, result.Transcripts, 1)
	tr := result.Transcripts[0]
	assert.Equal(t, "chain-of-thought", tr.Meeting)
	require.Len(t, tr.Lines, 2)
	assert.Contains(t, tr.Lines[0].Content, "What is 2+2?")
	assert.Contains(t, tr.Lines[0].Agent, "system ")
	assert.Equal(t, "2 plus 2 is 4", tr.Lines[1].Content)
	assert.Contains(t, tr.Lines[1].Agent, "Chain-of-Thought Agent ")
}

func TestRunCommand_TextTranscript(t *testing.T) {
	opts := testRoot(t)

	out, err := execute(t, NewRunCommand(opts),
		"--task", "What is 2+2? (A) 3 (B) 4",
		"--reply", cotReply,
		"--transcript",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "B\n\n[chain-of-thought] ")
	assert.Regexp(t, `Chain-of-Thought Agent \w{4}: 2 plus 2 is 4`, out)
}

func TestRunCommand_TaskFile(t *testing.T) {
	opts := testRoot(t)
	taskPath := filepath.Join(t.TempDir(), "task.txt")
	require.NoError(t, os.WriteFile(taskPath, []byte("What is 2+2? (A) 3 (B) 4\n"), 0o644))

	out, err := execute(t, NewRunCommand(opts), "--task-file", taskPath, "--reply", cotReply)
	require.NoError(t, err)
	assert.Equal(t, "B\n", out)
}

func TestRunCommand_InjectedCompleter(t *testing.T) {
	opts := testRoot(t)
	scripted := completion.NewScripted(cotReply)
	opts.Completer = scripted

	_, err := execute(t, NewRunCommand(opts), "--task", "What is 2+2?")
	require.NoError(t, err)

	reqs := scripted.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, 0.7, reqs[0].Temperature)
	assert.Equal(t, "gpt-4o-mini", reqs[0].Model)
}

func TestRunCommand_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code int
		want string
	}{
		{
			name: "missing task",
			args: []string{"--reply", cotReply},
			code: ExitCommandError,
			want: "a task is required",
		},
		{
			name: "task and task file",
			args: []string{"--task", "x", "--task-file", "y.txt"},
			code: ExitCommandError,
			want: "not both",
		},
		{
			name: "unknown pattern",
			args: []string{"--pattern", "tree-of-thought", "--task", "x"},
			code: ExitCommandError,
			want: "unknown pattern",
		},
		{
			name: "script exhausted",
			args: []string{"--task", "x"},
			code: ExitFailure,
			want: "cot failed",
		},
		{
			name: "malformed reply",
			args: []string{"--task", "x", "--reply", `{"thinking": "no answer"}`},
			code: ExitFailure,
			want: "cot failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, NewRunCommand(testRoot(t)), tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.code, GetExitCode(err))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRunCommand_ErrorJSON(t *testing.T) {
	opts := testRoot(t)
	opts.Format = "json"

	out, err := execute(t, NewRunCommand(opts), "--task", "x")
	require.Error(t, err)
	assert.Contains(t, out, `"status":"error"`)
	assert.Contains(t, out, CodeCompletion)
}
