package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/repokit/internal/store"
)

// MigrateOptions holds flags for the migrate command.
type MigrateOptions struct {
	*RootOptions
	Dir string
}

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MigrateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply SQL migrations to the database",
		Long: `Apply the .sql files of the migrations directory in file-name order.

Applied versions are recorded in schema_migrations; running migrate again
only applies files added since.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd.Context(), cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Dir, "dir", "", "migrations directory, overrides REPOKIT_MIGRATIONS_DIR")

	return cmd
}

func runMigrate(ctx context.Context, cmd *cobra.Command, opts *MigrateOptions) error {
	out := opts.formatter(cmd)

	dir := opts.Dir
	if dir == "" {
		dir = opts.Config.MigrationsDir
	}
	if dir == "" {
		return out.Fail("migrate", NewExitError(ExitCommandError, "no migrations directory: pass --dir or set REPOKIT_MIGRATIONS_DIR"))
	}

	scripts, files, err := readMigrations(dir)
	if err != nil {
		return out.Fail("migrate", WrapExitError(ExitCommandError, "read migrations", err))
	}

	st, err := store.Open(opts.Config.Driver, opts.Config.DSN)
	if err != nil {
		return out.Fail("migrate", WrapExitError(ExitCommandError, "open database", err))
	}
	defer st.Close()

	for _, f := range files {
		out.VerboseLog("Migration %s", f)
	}
	if err := st.Migrate(ctx, scripts); err != nil {
		return out.Fail("migrate", err)
	}

	if opts.Format == "json" {
		return out.Success(map[string]any{"migrations": files})
	}
	return out.Success(fmt.Sprintf("Database at version %d", len(files)))
}

// readMigrations returns the contents and names of the .sql files in dir,
// sorted by name.
func readMigrations(dir string) ([]string, []string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		return nil, nil, err
	}
	if len(files) == 0 {
		return nil, nil, fmt.Errorf("no .sql files in %s", dir)
	}
	sort.Strings(files)

	scripts := make([]string, 0, len(files))
	names := make([]string, 0, len(files))
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, nil, err
		}
		scripts = append(scripts, string(data))
		names = append(names, filepath.Base(f))
	}
	return scripts, names, nil
}
