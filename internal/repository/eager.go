package repository

import (
	"context"

	"github.com/roach88/repokit/internal/query"
	"github.com/roach88/repokit/internal/queryir"
	"github.com/roach88/repokit/internal/record"
)

// loadEager attaches related records to owners, one query per step.
// Owners without matches get an empty collection (many) or nil (one).
func (r *Repository) loadEager(ctx context.Context, owners record.Collection, steps []query.Eager) error {
	if len(owners) == 0 {
		return nil
	}
	for _, step := range steps {
		var keys []any
		seen := make(map[string]bool)
		for _, o := range owners {
			v := o.Value(step.LocalKey)
			if record.IsBlank(v) {
				continue
			}
			k := record.KeyString(v)
			if seen[k] {
				continue
			}
			seen[k] = true
			keys = append(keys, v)
		}

		groups := make(map[string]record.Collection)
		if len(keys) > 0 {
			rows, err := r.store.Select(ctx, queryir.Select{
				From:    step.Related.Table,
				Columns: step.Columns,
				Filter:  queryir.In{Field: step.RemoteKey, Values: keys},
				Key:     step.Related.KeyName(),
			})
			if err != nil {
				return newQueryError(r.entity.Name, "eager load "+step.Relation, err)
			}
			for _, row := range rows {
				rec := step.Related.Hydrate(row)
				k := record.KeyString(rec.Value(step.RemoteKey))
				groups[k] = append(groups[k], rec)
			}
		}

		for _, o := range owners {
			matches := groups[record.KeyString(o.Value(step.LocalKey))]
			if record.IsBlank(o.Value(step.LocalKey)) {
				matches = nil
			}
			if step.Association.Many() {
				if matches == nil {
					matches = record.Collection{}
				}
				o.SetRelation(step.Relation, matches)
				continue
			}
			o.SetRelation(step.Relation, matches.First())
		}
	}
	return nil
}
