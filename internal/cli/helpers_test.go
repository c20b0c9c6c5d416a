package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/roach88/conclave/internal/completion"
)

// cotReply answers the single question of the cot pattern.
const cotReply = `{"thinking": "2 plus 2 is 4", "answer": "B"}`

// testRoot returns root options that write into a fresh data directory and
// use the scripted provider.
func testRoot(t *testing.T) *RootOptions {
	t.Helper()
	return &RootOptions{
		Format:   "text",
		DataDir:  t.TempDir(),
		Provider: completion.ProviderScripted,
	}
}

// execute runs cmd with args and returns what it wrote to stdout.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// seedCoT runs the cot pattern once into the store named db.
func seedCoT(t *testing.T, opts *RootOptions, db string) {
	t.Helper()
	_, err := execute(t, NewRunCommand(opts),
		"--pattern", "cot",
		"--task", "What is 2+2? (A) 3 (B) 4",
		"--db", db,
		"--reply", cotReply,
	)
	require.NoError(t, err)
}

// decodeData decodes the data of an "ok" JSON response into v.
func decodeData(t *testing.T, out string, v any) {
	t.Helper()
	var resp struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	require.Equal(t, "ok", resp.Status, out)
	require.NoError(t, json.Unmarshal(resp.Data, v))
}
