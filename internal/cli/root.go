package cli

import (
	"fmt"
	"log/slog"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/repokit/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose   bool
	Format    string // "json" | "text"
	Driver    string
	Database  string
	SchemaDir string
	EnvFile   string

	// Config is resolved in PersistentPreRunE: environment first, then
	// any flag the user set explicitly.
	Config config.Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the repokit CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "repokit",
		Short: "repokit - repository queries over CUE-described entities",
		Long:  "Query, search and persist records of entities described in CUE, backed by SQLite or PostgreSQL.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate format flag
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return opts.resolve(cmd)
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Driver, "driver", "", "database driver (sqlite3|pgx), overrides REPOKIT_DB_DRIVER")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "database path or DSN, overrides REPOKIT_DB_DSN")
	cmd.PersistentFlags().StringVar(&opts.SchemaDir, "schema", "", "CUE schema directory, overrides REPOKIT_SCHEMA_DIR")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", "", "env file to read (default .env when present)")

	// Add subcommands
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewColumnsCommand(opts))
	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewSearchCommand(opts))
	cmd.AddCommand(NewSaveCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))

	return cmd
}

// resolve loads the configuration, applies explicit flag overrides and
// installs the default slog logger.
func (o *RootOptions) resolve(cmd *cobra.Command) error {
	var files []string
	if o.EnvFile != "" {
		files = append(files, o.EnvFile)
	}
	cfg, err := config.Load(files...)
	if err != nil {
		return WrapExitError(ExitCommandError, "load configuration", err)
	}

	flags := cmd.Flags()
	if flags.Changed("driver") {
		cfg.Driver = o.Driver
	}
	if flags.Changed("db") {
		cfg.DSN = o.Database
	}
	if flags.Changed("schema") {
		cfg.SchemaDir = o.SchemaDir
	}
	o.Config = cfg

	level, _ := cfg.Level()
	if o.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

// formatter builds the output formatter for cmd.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
