package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/repokit/internal/record"
	"github.com/roach88/repokit/internal/repository"
)

// Save modes.
const (
	ModeSave   = "save"
	ModeCreate = "create"
	ModeUpdate = "update"
)

// SaveOptions holds flags for the save command.
type SaveOptions struct {
	*RootOptions
	Data   string
	Mode   string
	ID     string
	Atomic bool
}

// NewSaveCommand creates the save command.
func NewSaveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SaveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "save <entity>",
		Short: "Create or update records from YAML or JSON",
		Long: `Persist one record (a mapping) or several (a list of mappings).

Modes:
  save    update when the key is present and stored, create otherwise
  create  always insert; a key in the input is ignored
  update  merge into stored records; the key comes from --id or the input

Without --data the document is read from stdin. Items are saved in order
and the first failure stops the batch; --atomic rolls the whole batch back
on failure.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSave(cmd.Context(), cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Data, "data", "-", "YAML or JSON file, - for stdin")
	cmd.Flags().StringVar(&opts.Mode, "mode", ModeSave, "save|create|update")
	cmd.Flags().StringVar(&opts.ID, "id", "", "key of the record to update (update mode, single record)")
	cmd.Flags().BoolVar(&opts.Atomic, "atomic", false, "run the batch in one transaction")

	return cmd
}

func runSave(ctx context.Context, cmd *cobra.Command, opts *SaveOptions, entity string) error {
	out := opts.formatter(cmd)

	switch opts.Mode {
	case ModeSave, ModeCreate, ModeUpdate:
	default:
		return out.Fail("save", NewExitError(ExitCommandError, fmt.Sprintf("invalid mode %q: must be save, create or update", opts.Mode)))
	}

	in, err := readInput(cmd.InOrStdin(), opts.Data)
	if err != nil {
		return out.Fail("save", err)
	}

	sess, err := openSession(opts.RootOptions)
	if err != nil {
		return out.Fail("save", err)
	}
	defer sess.Close()

	repo, err := sess.Repository(entity)
	if err != nil {
		return out.Fail("save", err)
	}

	var saved record.Collection
	persist := func(ctx context.Context) error {
		var err error
		switch opts.Mode {
		case ModeCreate:
			saved, err = repo.Create(ctx, in)
		case ModeUpdate:
			var id any
			if opts.ID != "" {
				id = parseKey(opts.ID)
			}
			saved, err = repo.Update(ctx, in, id)
		default:
			saved, err = repo.Save(ctx, in)
		}
		return err
	}

	if opts.Atomic {
		err = sess.Store.RunInTx(ctx, persist)
	} else {
		err = persist(ctx)
	}
	if err != nil {
		out.VerboseLog("%d records saved before the failure", len(saved))
		return out.Fail("save", err)
	}
	return out.Records(saved)
}

// readInput decodes a YAML or JSON document from path, or from stdin when
// path is "-".
func readInput(stdin io.Reader, path string) (repository.Input, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "read data", err)
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, WrapExitError(ExitCommandError, "parse data", err)
	}
	if doc == nil {
		return nil, NewExitError(ExitCommandError, "no data to save")
	}
	return repository.FromValue(doc)
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "delete <entity> <key>...",
		Short:         "Delete records by key",
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(cmd.Context(), cmd, rootOpts, args[0], args[1:])
		},
	}
	return cmd
}

func runDelete(ctx context.Context, cmd *cobra.Command, opts *RootOptions, entity string, keys []string) error {
	out := opts.formatter(cmd)

	sess, err := openSession(opts)
	if err != nil {
		return out.Fail("delete", err)
	}
	defer sess.Close()

	repo, err := sess.Repository(entity)
	if err != nil {
		return out.Fail("delete", err)
	}

	ids := make([]any, len(keys))
	for i, k := range keys {
		ids[i] = parseKey(k)
	}
	n, err := repo.Delete(ctx, repository.IDsTarget(ids...))
	if err != nil {
		return out.Fail("delete", err)
	}

	if opts.Format == "json" {
		return out.Success(map[string]int64{"deleted": n})
	}
	return out.Success(fmt.Sprintf("Deleted %d %s records", n, repo.Entity().Name))
}
