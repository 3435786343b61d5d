package repository

import (
	"context"
	"log/slog"

	"github.com/roach88/repokit/internal/query"
	"github.com/roach88/repokit/internal/record"
)

// Get runs the accumulated query and returns the matching records with
// their eager-loaded relations.
func (r *Repository) Get(ctx context.Context, projection ...string) (record.Collection, error) {
	defer r.spec.Reset()
	return r.run(ctx, projection, nil)
}

// All is Get without limit and offset.
func (r *Repository) All(ctx context.Context, projection ...string) (record.Collection, error) {
	defer r.spec.Reset()
	return r.run(ctx, projection, func(p *query.Plan) {
		p.Select.Limit = 0
		p.Select.Offset = 0
	})
}

// Paginate reads one page. Zero perPage means query.DefaultPerPage and
// zero page means the first page.
func (r *Repository) Paginate(ctx context.Context, page, perPage int, projection ...string) (record.Collection, error) {
	r.spec.Page(query.NewPageLimitOffset(perPage, page))
	return r.Get(ctx, projection...)
}

// Find returns the record with key id, or nil when there is none.
func (r *Repository) Find(ctx context.Context, id any, projection ...string) (*record.Record, error) {
	defer r.spec.Reset()
	r.spec.Where(r.entity.KeyName(), string(query.Equals), id)
	recs, err := r.run(ctx, projection, unpaged)
	if err != nil {
		return nil, err
	}
	return recs.First(), nil
}

// FindOrFail is Find that reports a NotFound error for a missing record.
func (r *Repository) FindOrFail(ctx context.Context, id any, projection ...string) (*record.Record, error) {
	rec, err := r.Find(ctx, id, projection...)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, newNotFound(r.entity.Name, id)
	}
	return rec, nil
}

// FindOrNew is Find that returns a new unsaved record for a missing key.
func (r *Repository) FindOrNew(ctx context.Context, id any, projection ...string) (*record.Record, error) {
	rec, err := r.Find(ctx, id, projection...)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return r.entity.New(nil), nil
	}
	return rec, nil
}

// FindMany returns the records whose key is among ids. An empty id list
// yields an empty collection without touching the store.
func (r *Repository) FindMany(ctx context.Context, ids []any, projection ...string) (record.Collection, error) {
	defer r.spec.Reset()
	if len(ids) == 0 {
		return record.Collection{}, nil
	}
	r.spec.Where(r.entity.KeyName(), string(query.Equals), ids...)
	return r.run(ctx, projection, unpaged)
}

// FindWhere returns every record whose attributes equal where.
func (r *Repository) FindWhere(ctx context.Context, where map[string]any, projection ...string) (record.Collection, error) {
	defer r.spec.Reset()
	r.spec.WhereEquals(where)
	return r.run(ctx, projection, nil)
}

// First returns the first record matching where and the accumulated
// query, or nil when there is none.
func (r *Repository) First(ctx context.Context, where map[string]any, projection ...string) (*record.Record, error) {
	defer r.spec.Reset()
	r.spec.WhereEquals(where)
	r.spec.Limit(1)
	recs, err := r.run(ctx, projection, nil)
	if err != nil {
		return nil, err
	}
	return recs.First(), nil
}

// FirstOrNew returns the first record matching attrs, or a new unsaved
// record filled with attrs.
func (r *Repository) FirstOrNew(ctx context.Context, attrs map[string]any) (*record.Record, error) {
	rec, err := r.First(ctx, attrs)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return r.entity.New(attrs), nil
	}
	return rec, nil
}

// FirstOrCreate returns the first record matching attrs, creating it when
// there is none.
func (r *Repository) FirstOrCreate(ctx context.Context, attrs map[string]any) (*record.Record, error) {
	rec, err := r.First(ctx, attrs)
	if err != nil {
		return nil, err
	}
	if rec != nil {
		return rec, nil
	}
	return r.CreateOne(ctx, attrs)
}

// Search runs the accumulated query restricted to records where any of
// compare fuzzily matches input. A nil compare list or a lone "*" searches
// every column of the entity's table.
func (r *Repository) Search(ctx context.Context, input string, compare []string, projection ...string) (record.Collection, error) {
	defer r.spec.Reset()
	if len(compare) == 0 || (len(compare) == 1 && compare[0] == "*") {
		cols, err := r.store.Columns(ctx, r.entity.Table)
		if err != nil {
			return nil, newQueryError(r.entity.Name, "list columns", err)
		}
		compare = cols
	}
	r.spec.Search(compare, input)
	return r.run(ctx, projection, nil)
}

// Count returns the number of records matching the accumulated query.
// Eager loads, sort and paging are ignored.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	defer r.spec.Reset()
	q, err := r.spec.Count(r.entity, r.schema)
	if err != nil {
		return 0, newQueryError(r.entity.Name, "compile", err)
	}
	n, err := r.store.Count(ctx, q)
	if err != nil {
		return 0, newQueryError(r.entity.Name, "count", err)
	}
	return n, nil
}

func unpaged(p *query.Plan) {
	p.Select.Limit = 0
	p.Select.Offset = 0
}

// run compiles r.spec, lets adjust tweak the plan, executes it and
// loads relations. Callers reset r.spec.
func (r *Repository) run(ctx context.Context, projection []string, adjust func(*query.Plan)) (record.Collection, error) {
	plan, err := r.spec.Compile(r.entity, r.schema, projection)
	if err != nil {
		return nil, newQueryError(r.entity.Name, "compile", err)
	}
	if adjust != nil {
		adjust(plan)
	}

	slog.Debug("running query",
		"entity", r.entity.Name,
		"columns", plan.Select.Columns,
		"eager", len(plan.Eager),
		"limit", plan.Select.Limit,
		"offset", plan.Select.Offset,
	)

	rows, err := r.store.Select(ctx, plan.Select)
	if err != nil {
		return nil, newQueryError(r.entity.Name, "select", err)
	}
	recs := make(record.Collection, 0, len(rows))
	for _, row := range rows {
		recs = append(recs, r.entity.Hydrate(row))
	}
	if err := r.loadEager(ctx, recs, plan.Eager); err != nil {
		return nil, err
	}
	return recs, nil
}
