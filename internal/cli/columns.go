package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"
)

// NewColumnsCommand creates the columns command.
func NewColumnsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "columns <entity>",
		Short:         "List the table columns of an entity",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runColumns(cmd.Context(), cmd, rootOpts, args[0])
		},
	}
	return cmd
}

func runColumns(ctx context.Context, cmd *cobra.Command, opts *RootOptions, entity string) error {
	out := opts.formatter(cmd)

	sess, err := openSession(opts)
	if err != nil {
		return out.Fail("columns", err)
	}
	defer sess.Close()

	repo, err := sess.Repository(entity)
	if err != nil {
		return out.Fail("columns", err)
	}

	cols, err := sess.Store.Columns(ctx, repo.Entity().Table)
	if err != nil {
		return out.Fail("columns", err)
	}
	if opts.Format == "json" {
		return out.Success(cols)
	}
	return out.Success(strings.Join(cols, "\n"))
}
