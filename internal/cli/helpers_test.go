package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/repokit/internal/store"
	"github.com/roach88/repokit/internal/testutil"
)

const spiesCUE = `package spies

entity: Spy: {
	table:      "spies"
	columns:    ["username", "password", "name", "xp", "branch_id", "created_at", "updated_at"]
	fillable:   ["username", "password", "name", "xp", "branch_id"]
	timestamps: true
	associations: {
		targets: {kind: "has_many", entity: "Target"}
	}
	rules: default: {
		username: "required|unique:spies,username,{id}"
		name:     "required"
	}
}

entity: Target: {
	table:   "targets"
	columns: ["spy_id", "name"]
	associations: spy: {kind: "belongs_to", entity: "Spy", foreign_key: "spy_id"}
}
`

// workspace is a temp directory with a schema, a migrations directory
// and a database path.
type workspace struct {
	Dir        string
	SchemaDir  string
	Migrations string
	DB         string
}

func newWorkspace(t *testing.T) *workspace {
	t.Helper()
	dir := t.TempDir()
	ws := &workspace{
		Dir:        dir,
		SchemaDir:  filepath.Join(dir, "schema"),
		Migrations: filepath.Join(dir, "migrations"),
		DB:         filepath.Join(dir, "repokit.db"),
	}
	require.NoError(t, os.MkdirAll(ws.SchemaDir, 0o755))
	require.NoError(t, os.MkdirAll(ws.Migrations, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(ws.SchemaDir, "spies.cue"), []byte(spiesCUE), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(ws.Migrations, "001_spies.sql"), []byte(testutil.SpiesDDL), 0o644))
	return ws
}

// seeded migrates the workspace database and inserts the default spies.
func seeded(t *testing.T) *workspace {
	t.Helper()
	ws := newWorkspace(t)
	s, err := store.OpenSQLite(ws.DB)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Migrate(t.Context(), []string{testutil.SpiesDDL}))
	testutil.SeedSpies(t, s)
	return ws
}

// run executes the root command with the workspace's --db and --schema
// flags followed by args.
func (ws *workspace) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(bytes.NewBufferString(stdin))
	cmd.SetArgs(append([]string{"--db", ws.DB, "--schema", ws.SchemaDir, "--env-file", ws.envFile(t)}, args...))
	err := cmd.Execute()
	return out.String(), err
}

// envFile writes an empty env file so a stray .env in the working
// directory is never read.
func (ws *workspace) envFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(ws.Dir, "test.env")
	if _, err := os.Stat(path); err != nil {
		require.NoError(t, os.WriteFile(path, []byte("REPOKIT_LOG_LEVEL=error\n"), 0o644))
	}
	return path
}

// records decodes a JSON response whose data is a record list.
func records(t *testing.T, out string) []map[string]any {
	t.Helper()
	var resp struct {
		Status string           `json:"status"`
		Data   []map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	require.Equal(t, "ok", resp.Status, out)
	return resp.Data
}

// failure decodes a JSON error response.
func failure(t *testing.T, out string) CLIError {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	require.Equal(t, "error", resp.Status, out)
	require.NotNil(t, resp.Error)
	return *resp.Error
}

func names(rows []map[string]any) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i], _ = r["name"].(string)
	}
	return out
}
