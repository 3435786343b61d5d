package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/repokit/internal/schema"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
}

// SchemaSummary is the data reported by a successful validate.
type SchemaSummary struct {
	Entities []string `json:"entities"`
	Files    int      `json:"files"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate [dir]",
		Short: "Validate the CUE entity schema",
		Long: `Load and check the CUE entity definitions without touching the database.

Checks entity names, key types, association kinds and targets, and that
fillable attributes are declared columns. Defaults to the configured schema
directory.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := opts.Config.SchemaDir
			if len(args) == 1 {
				dir = args[0]
			}
			return runValidate(cmd, opts, dir)
		},
	}

	return cmd
}

func runValidate(cmd *cobra.Command, opts *ValidateOptions, dir string) error {
	out := opts.formatter(cmd)
	out.VerboseLog("Validating schema in %s", dir)

	result, err := schema.LoadDir(dir)
	if err != nil {
		return out.Fail("validate schema", err)
	}

	summary := SchemaSummary{Entities: result.Schema.Names(), Files: result.FileCount}
	if opts.Format == "json" {
		return out.Success(summary)
	}
	return out.Success(fmt.Sprintf("Schema valid: %d entities from %d files", len(summary.Entities), summary.Files))
}
