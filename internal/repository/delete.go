package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/repokit/internal/record"
)

// Delete removes the records t selects and returns how many rows went.
// Record targets are marked as no longer stored unless a row with their
// key survived the delete. An empty key set is a no-op.
func (r *Repository) Delete(ctx context.Context, t Target) (int64, error) {
	switch t := t.(type) {
	case recordTarget:
		ok, err := r.DeleteRecord(ctx, t.rec)
		if ok {
			return 1, err
		}
		return 0, err
	case recordsTarget:
		keys := t.recs.Keys()
		n, err := r.deleteKeys(ctx, keys)
		if err != nil {
			return 0, err
		}
		stored := map[string]bool{}
		if n < int64(len(keys)) {
			if stored, err = r.storedKeys(ctx, keys); err != nil {
				return n, err
			}
		}
		for _, rec := range t.recs {
			if rec != nil && rec.HasKey() && !stored[record.KeyString(rec.Key())] {
				rec.SetExists(false)
			}
		}
		return n, nil
	case idsTarget:
		return r.deleteKeys(ctx, t.ids)
	default:
		return 0, newInvalidInputShape(r.entity.Name, fmt.Sprintf("unsupported delete target %T", t))
	}
}

// DeleteRecord removes one record instance. It reports false when the
// record has no key or no row was removed.
func (r *Repository) DeleteRecord(ctx context.Context, rec *record.Record) (bool, error) {
	if rec == nil || !rec.HasKey() {
		return false, nil
	}
	n, err := r.deleteKeys(ctx, []any{rec.Key()})
	if err != nil {
		return false, err
	}
	rec.SetExists(false)
	return n > 0, nil
}

// storedKeys reports which of keys still have a row.
func (r *Repository) storedKeys(ctx context.Context, keys []any) (map[string]bool, error) {
	key := r.entity.KeyName()
	recs, err := r.Fresh().FindMany(ctx, keys, key)
	if err != nil {
		return nil, err
	}
	stored := make(map[string]bool, len(recs))
	for _, rec := range recs {
		stored[record.KeyString(rec.Value(key))] = true
	}
	return stored, nil
}

func (r *Repository) deleteKeys(ctx context.Context, ids []any) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	n, err := r.store.DeleteByKeys(ctx, r.entity.Table, r.entity.KeyName(), ids)
	if err != nil {
		return 0, newQueryError(r.entity.Name, "delete", err)
	}
	slog.Debug("deleted records", "entity", r.entity.Name, "requested", len(ids), "deleted", n)
	return n, nil
}
