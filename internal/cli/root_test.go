package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()

	assert.Equal(t, "repokit", cmd.Use)
	assert.NotEmpty(t, cmd.Short)

	// Verify subcommands exist
	subcommands := cmd.Commands()
	names := make([]string, len(subcommands))
	for i, sub := range subcommands {
		names[i] = sub.Name()
	}

	for _, want := range []string{"validate", "migrate", "columns", "query", "search", "save", "delete"} {
		assert.Contains(t, names, want)
	}
}

func TestRootCommandFlags(t *testing.T) {
	cmd := NewRootCommand()

	tests := []struct {
		flag string
		def  string
	}{
		{"verbose", "false"},
		{"format", "text"},
		{"driver", ""},
		{"db", ""},
		{"schema", ""},
		{"env-file", ""},
	}
	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			f := cmd.PersistentFlags().Lookup(tt.flag)
			require.NotNil(t, f)
			assert.Equal(t, tt.def, f.DefValue)
		})
	}

	assert.Equal(t, "v", cmd.PersistentFlags().Lookup("verbose").Shorthand)
}

func TestQueryCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	queryCmd, _, err := cmd.Find([]string{"query"})
	require.NoError(t, err)

	for _, name := range []string{"params", "with", "attributes", "filters", "sort", "limit", "offset", "page", "per-page", "count", "find"} {
		assert.NotNil(t, queryCmd.Flags().Lookup(name), name)
	}
}

func TestSaveCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	saveCmd, _, err := cmd.Find([]string{"save"})
	require.NoError(t, err)

	mode := saveCmd.Flags().Lookup("mode")
	require.NotNil(t, mode)
	assert.Equal(t, ModeSave, mode.DefValue)

	data := saveCmd.Flags().Lookup("data")
	require.NotNil(t, data)
	assert.Equal(t, "-", data.DefValue)
}

func TestFormatValidation(t *testing.T) {
	// Test valid formats
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))

	// Test invalid formats
	assert.False(t, isValidFormat("xml"))
	assert.False(t, isValidFormat(""))
	assert.False(t, isValidFormat("TEXT"))
}

func TestFormatValidationIntegration(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"--format", "invalid", "validate", "."})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestFlagsOverrideEnvironment(t *testing.T) {
	ws := newWorkspace(t)
	t.Setenv("REPOKIT_SCHEMA_DIR", "/does/not/exist")
	t.Setenv("REPOKIT_DB_DRIVER", "sqlite3")

	// --schema wins over REPOKIT_SCHEMA_DIR
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"--schema", ws.SchemaDir, "--env-file", ws.envFile(t), "validate"})
	cmd.SetOut(&bytes.Buffer{})
	require.NoError(t, cmd.Execute())
}

func TestEnvironmentConfiguresCommands(t *testing.T) {
	ws := newWorkspace(t)
	t.Setenv("REPOKIT_SCHEMA_DIR", ws.SchemaDir)

	cmd := NewRootCommand()
	cmd.SetArgs([]string{"--env-file", ws.envFile(t), "--format", "json", "validate"})
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), `"Spy"`)
}

func TestInvalidEnvironment(t *testing.T) {
	ws := newWorkspace(t)
	t.Setenv("REPOKIT_PER_PAGE", "0")

	_, err := ws.run(t, "", "validate")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
