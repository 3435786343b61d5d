package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/repokit/internal/query"
	"github.com/roach88/repokit/internal/record"
	"github.com/roach88/repokit/internal/repository"
)

// QueryOptions holds the read flags shared by query and search.
type QueryOptions struct {
	*RootOptions
	ParamsFile string
	With       []string
	Attributes []string
	Filters    string
	Sort       []string
	Limit      int
	Offset     int
	Page       int
	PerPage    int
	Count      bool
	Find       string
	Columns    []string
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <entity>",
		Short: "Read records of an entity",
		Long: `Read records with eager loads, filters, sort and paging.

Filters are YAML: a scalar or list means equality, a mapping means
operators, for example

  repokit query spy --filters '{xp: {">": 100}, name: [mark, anna]}'

--params reads the whole request (relations, attributes, filters, sort,
page, per_page) from a YAML or JSON file. Flags given alongside it are
applied after the file.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd.Context(), cmd, opts, args[0])
		},
	}

	addReadFlags(cmd, opts)
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of records")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "records to skip (requires --limit)")
	cmd.Flags().IntVar(&opts.Page, "page", 0, "page number, 1-based")
	cmd.Flags().IntVar(&opts.PerPage, "per-page", 0, "page size (default REPOKIT_PER_PAGE)")
	cmd.Flags().BoolVar(&opts.Count, "count", false, "print the number of matching records")
	cmd.Flags().StringVar(&opts.Find, "find", "", "read the single record with this key")

	return cmd
}

// NewSearchCommand creates the search command.
func NewSearchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "search <entity> <input>",
		Short: "Fuzzy-search records of an entity",
		Long: `Find records where any compared column contains the characters of
input in order, ignoring case and accents. Without --columns every column
of the entity's table is compared.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd.Context(), cmd, opts, args[0], args[1])
		},
	}

	addReadFlags(cmd, opts)
	cmd.Flags().StringSliceVar(&opts.Columns, "columns", nil, "columns to compare (default every column)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of records")

	return cmd
}

func addReadFlags(cmd *cobra.Command, opts *QueryOptions) {
	cmd.Flags().StringVar(&opts.ParamsFile, "params", "", "YAML or JSON file with query params")
	cmd.Flags().StringSliceVar(&opts.With, "with", nil, "relations to eager-load")
	cmd.Flags().StringSliceVar(&opts.Attributes, "attributes", nil, "attributes to select (default all)")
	cmd.Flags().StringVar(&opts.Filters, "filters", "", "YAML filter mapping")
	cmd.Flags().StringSliceVar(&opts.Sort, "sort", nil, "sort keys as attr or attr:desc, in order")
}

// prepare applies the read flags to repo.
func (o *QueryOptions) prepare(repo *repository.Repository) error {
	if o.ParamsFile != "" {
		data, err := os.ReadFile(o.ParamsFile)
		if err != nil {
			return WrapExitError(ExitCommandError, "read params", err)
		}
		params, err := query.ParseParams(data)
		if err != nil {
			return WrapExitError(ExitCommandError, "parse params", err)
		}
		repo.ApplyParams(params)
	}

	if len(o.With) > 0 {
		repo.WithNames(o.With...)
	}
	if len(o.Attributes) > 0 {
		repo.Attributes(o.Attributes...)
	}
	if o.Filters != "" {
		var filters map[string]any
		if err := yaml.Unmarshal([]byte(o.Filters), &filters); err != nil {
			return WrapExitError(ExitCommandError, "parse filters", err)
		}
		repo.Filters(filters)
	}
	keys, err := parseSortFlags(o.Sort)
	if err != nil {
		return WrapExitError(ExitCommandError, "parse sort", err)
	}
	repo.Sort(keys...)
	repo.Limit(o.Limit).Offset(o.Offset)
	return nil
}

// parseSortFlags parses "attr" and "attr:direction" sort flags.
func parseSortFlags(flags []string) ([]query.SortKey, error) {
	keys := make([]query.SortKey, 0, len(flags))
	for _, f := range flags {
		attr, dir, found := strings.Cut(f, ":")
		if attr == "" {
			return nil, fmt.Errorf("empty sort attribute in %q", f)
		}
		if !found {
			keys = append(keys, query.Asc(attr))
			continue
		}
		d, err := query.ParseDirection(dir)
		if err != nil {
			return nil, fmt.Errorf("sort %q: %w", attr, err)
		}
		keys = append(keys, query.SortKey{Attribute: attr, Direction: d})
	}
	return keys, nil
}

func runQuery(ctx context.Context, cmd *cobra.Command, opts *QueryOptions, entity string) error {
	out := opts.formatter(cmd)

	sess, err := openSession(opts.RootOptions)
	if err != nil {
		return out.Fail("query", err)
	}
	defer sess.Close()

	repo, err := sess.Repository(entity)
	if err != nil {
		return out.Fail("query", err)
	}
	if err := opts.prepare(repo); err != nil {
		return out.Fail("query", err)
	}

	switch {
	case opts.Count:
		n, err := repo.Count(ctx)
		if err != nil {
			return out.Fail("query", err)
		}
		if opts.Format == "json" {
			return out.Success(map[string]int64{"count": n})
		}
		return out.Success(n)

	case opts.Find != "":
		rec, err := repo.FindOrFail(ctx, parseKey(opts.Find))
		if err != nil {
			return out.Fail("query", err)
		}
		return out.Records(record.Collection{rec})

	case opts.Page > 0 || cmd.Flags().Changed("per-page"):
		perPage := opts.PerPage
		if perPage <= 0 {
			perPage = opts.Config.PerPage
		}
		recs, err := repo.Paginate(ctx, opts.Page, perPage)
		if err != nil {
			return out.Fail("query", err)
		}
		return out.Records(recs)

	default:
		recs, err := repo.Get(ctx)
		if err != nil {
			return out.Fail("query", err)
		}
		out.VerboseLog("%d %s records", len(recs), repo.Entity().Name)
		return out.Records(recs)
	}
}

func runSearch(ctx context.Context, cmd *cobra.Command, opts *QueryOptions, entity, input string) error {
	out := opts.formatter(cmd)

	sess, err := openSession(opts.RootOptions)
	if err != nil {
		return out.Fail("search", err)
	}
	defer sess.Close()

	repo, err := sess.Repository(entity)
	if err != nil {
		return out.Fail("search", err)
	}
	if err := opts.prepare(repo); err != nil {
		return out.Fail("search", err)
	}

	recs, err := repo.Search(ctx, input, opts.Columns)
	if err != nil {
		return out.Fail("search", err)
	}
	return out.Records(recs)
}

// parseKey decodes a key given on the command line as a YAML scalar, so
// "7" becomes an integer and "0193..." stays a string.
func parseKey(s string) any {
	var v any
	if err := yaml.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	switch v.(type) {
	case int, string:
		return v
	default:
		return s
	}
}
