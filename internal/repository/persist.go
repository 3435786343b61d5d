package repository

import (
	"context"
	"fmt"
	"log/slog"
	"maps"

	"github.com/google/uuid"

	"github.com/roach88/repokit/internal/queryir"
	"github.com/roach88/repokit/internal/record"
)

const (
	createdAt = "created_at"
	updatedAt = "updated_at"
)

// saveRun carries state across one top-level write call.
type saveRun struct {
	recursive bool
	visited   map[*record.Record]bool
}

func (r *Repository) newRun() *saveRun {
	return &saveRun{recursive: r.saveRecursive, visited: make(map[*record.Record]bool)}
}

// Save persists in. Records are saved as they are; attribute maps go
// through MakeModel first. The saved records are returned in input order.
func (r *Repository) Save(ctx context.Context, in Input) (record.Collection, error) {
	run := r.newRun()
	switch t := in.(type) {
	case manyInputs:
		out := make(record.Collection, 0, len(t.items))
		for i, item := range t.items {
			rec, err := r.saveOne(ctx, item, run)
			if err != nil {
				return out, fmt.Errorf("save %s item %d: %w", r.entity.Name, i, err)
			}
			out = append(out, rec)
		}
		return out, nil
	default:
		rec, err := r.saveOne(ctx, in, run)
		if err != nil {
			return nil, err
		}
		return record.Collection{rec}, nil
	}
}

// SaveRecord persists one record.
func (r *Repository) SaveRecord(ctx context.Context, rec *record.Record) error {
	return r.saveRecord(ctx, rec, r.newRun())
}

// SaveMany persists records in order, stopping at the first failure.
func (r *Repository) SaveMany(ctx context.Context, recs record.Collection) (record.Collection, error) {
	return r.Save(ctx, ManyRecords(recs...))
}

func (r *Repository) saveOne(ctx context.Context, in Input, run *saveRun) (*record.Record, error) {
	switch t := in.(type) {
	case singleRecord:
		if t.rec == nil {
			return nil, newInvalidInputShape(r.entity.Name, "nil record")
		}
		return t.rec, r.saveRecord(ctx, t.rec, run)
	case singleAttrs:
		rec, err := r.MakeModel(ctx, t.attrs)
		if err != nil {
			return nil, err
		}
		return rec, r.saveRecord(ctx, rec, run)
	case manyInputs:
		return nil, newInvalidInputShape(r.entity.Name, "nested list")
	default:
		return nil, newInvalidInputShape(r.entity.Name, fmt.Sprintf("unsupported input %T", in))
	}
}

// MakeModel turns an attribute map into a record ready to save.
//
// When the map carries a non-blank key and update-when-id-exists is on,
// the existing record is loaded (selecting only the fillable attributes
// supplied, plus the key) and the map is filled onto it; a missing record
// is a NotFound error. Otherwise a new record is built from the map.
func (r *Repository) MakeModel(ctx context.Context, attrs map[string]any) (*record.Record, error) {
	if isListLike(attrs) {
		return nil, newInvalidInputShape(r.entity.Name, "attribute map with only positional keys")
	}
	key := r.entity.KeyName()
	id, hasID := attrs[key]
	if !hasID || record.IsBlank(id) || !r.updateWhenIDExists {
		return r.entity.New(attrs), nil
	}

	cols := []string{key}
	for attr := range attrs {
		if attr != key && r.entity.IsFillable(attr) && r.entity.Persistable(attr) {
			cols = append(cols, attr)
		}
	}
	rec, err := r.loadByKey(ctx, id, cols)
	if err != nil {
		return nil, err
	}
	rest := maps.Clone(attrs)
	delete(rest, key)
	return rec.Fill(rest), nil
}

func (r *Repository) loadByKey(ctx context.Context, id any, cols []string) (*record.Record, error) {
	key := r.entity.KeyName()
	rows, err := r.store.Select(ctx, queryir.Select{
		From:    r.entity.Table,
		Columns: cols,
		Filter:  queryir.In{Field: key, Values: []any{id}},
		Key:     key,
	})
	if err != nil {
		return nil, newQueryError(r.entity.Name, "load", err)
	}
	if len(rows) == 0 {
		return nil, newNotFound(r.entity.Name, id)
	}
	return r.entity.Hydrate(rows[0]), nil
}

// Create inserts new records from attribute maps. With
// update-when-id-exists on, a supplied key is ignored so the input always
// creates.
func (r *Repository) Create(ctx context.Context, in Input) (record.Collection, error) {
	switch t := in.(type) {
	case singleAttrs:
		return r.Save(ctx, r.createInput(t.attrs))
	case manyInputs:
		items := make([]Input, len(t.items))
		for i, item := range t.items {
			a, ok := item.(singleAttrs)
			if !ok {
				return nil, newInvalidInputShape(r.entity.Name, fmt.Sprintf("create item %d: expected attribute map", i))
			}
			items[i] = r.createInput(a.attrs)
		}
		return r.Save(ctx, Many(items...))
	default:
		return nil, newInvalidInputShape(r.entity.Name, "create expects attribute maps")
	}
}

// CreateOne inserts one record.
func (r *Repository) CreateOne(ctx context.Context, attrs map[string]any) (*record.Record, error) {
	recs, err := r.Create(ctx, SingleAttrs(attrs))
	if err != nil {
		return nil, err
	}
	return recs.First(), nil
}

func (r *Repository) createInput(attrs map[string]any) Input {
	if r.updateWhenIDExists {
		attrs = maps.Clone(attrs)
		delete(attrs, r.entity.KeyName())
	}
	return SingleAttrs(attrs)
}

// Update merges attribute maps onto existing records. For a single map the
// key is id when given, else the map's own key attribute. A list input
// takes every key from its maps and rejects a non-nil id.
func (r *Repository) Update(ctx context.Context, in Input, id any) (record.Collection, error) {
	switch t := in.(type) {
	case singleAttrs:
		rec, err := r.updateOne(ctx, t.attrs, id, r.newRun())
		if err != nil {
			return nil, err
		}
		return record.Collection{rec}, nil
	case manyInputs:
		if id != nil {
			return nil, newInvalidInputShape(r.entity.Name, "update of a list takes keys from the attributes")
		}
		run := r.newRun()
		out := make(record.Collection, 0, len(t.items))
		for i, item := range t.items {
			a, ok := item.(singleAttrs)
			if !ok {
				return out, newInvalidInputShape(r.entity.Name, fmt.Sprintf("update item %d: expected attribute map", i))
			}
			rec, err := r.updateOne(ctx, a.attrs, nil, run)
			if err != nil {
				return out, fmt.Errorf("update %s item %d: %w", r.entity.Name, i, err)
			}
			out = append(out, rec)
		}
		return out, nil
	default:
		return nil, newInvalidInputShape(r.entity.Name, "update expects attribute maps")
	}
}

// UpdateOne updates one record. A nil id takes the key from attrs.
func (r *Repository) UpdateOne(ctx context.Context, attrs map[string]any, id any) (*record.Record, error) {
	recs, err := r.Update(ctx, SingleAttrs(attrs), id)
	if err != nil {
		return nil, err
	}
	return recs.First(), nil
}

func (r *Repository) updateOne(ctx context.Context, attrs map[string]any, id any, run *saveRun) (*record.Record, error) {
	if isListLike(attrs) {
		return nil, newInvalidInputShape(r.entity.Name, "attribute map with only positional keys")
	}
	key := r.entity.KeyName()
	if record.IsBlank(id) {
		id = attrs[key]
	}
	if record.IsBlank(id) {
		return nil, newMissingIdentifier(r.entity.Name)
	}
	rec, err := r.loadByKey(ctx, id, nil)
	if err != nil {
		return nil, err
	}
	rest := maps.Clone(attrs)
	delete(rest, key)
	rec.Fill(rest)
	if err := r.saveRecord(ctx, rec, run); err != nil {
		return nil, err
	}
	return rec, nil
}

// saveRecord validates, runs hooks, commits and cascades one record.
func (r *Repository) saveRecord(ctx context.Context, rec *record.Record, run *saveRun) error {
	if run.visited[rec] {
		return nil
	}
	run.visited[rec] = true

	if rec.Exists() && rec.IsDirty(r.entity.KeyName()) {
		orig, _ := rec.Original(r.entity.KeyName())
		return &Error{Code: CodeImmutableKey, Entity: r.entity.Name, Message: "primary key of a stored record cannot change", ID: orig}
	}

	if err := r.engine.Validate(ctx, rec); err != nil {
		return err
	}
	for _, hook := range r.beforeSave {
		if err := hook(ctx, rec); err != nil {
			return fmt.Errorf("before save %s: %w", r.entity.Name, err)
		}
	}
	if err := r.commit(ctx, rec); err != nil {
		return err
	}
	if run.recursive {
		return r.cascade(ctx, rec, run)
	}
	return nil
}

// commit writes rec to the store: an insert for a new record, an update of
// the dirty persistable attributes for a stored one.
func (r *Repository) commit(ctx context.Context, rec *record.Record) error {
	key := r.entity.KeyName()
	if r.entity.Timestamps {
		now := r.now()
		if !rec.Exists() {
			if _, ok := rec.Get(createdAt); !ok {
				rec.Set(createdAt, now)
			}
			rec.Set(updatedAt, now)
		} else if len(r.persistable(rec.Dirty())) > 0 {
			rec.Set(updatedAt, now)
		}
	}

	if rec.Exists() {
		dirty := r.persistable(rec.Dirty())
		delete(dirty, key)
		if len(dirty) == 0 {
			rec.SyncOriginal()
			return nil
		}
		n, err := r.store.Update(ctx, r.entity.Table, key, rec.Key(), dirty)
		if err != nil {
			return newQueryError(r.entity.Name, "update", err)
		}
		if n == 0 {
			return newNotFound(r.entity.Name, rec.Key())
		}
		slog.Debug("updated record", "entity", r.entity.Name, "id", rec.Key(), "attributes", len(dirty))
		rec.SyncOriginal()
		return nil
	}

	if r.entity.KeyType == record.KeyUUID && !rec.HasKey() {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("generate key: %w", err)
		}
		rec.Set(key, id.String())
	}
	attrs := r.persistable(rec.Attributes())
	if record.IsBlank(attrs[key]) {
		delete(attrs, key)
	}
	id, err := r.store.Insert(ctx, r.entity.Table, key, attrs)
	if err != nil {
		return newQueryError(r.entity.Name, "insert", err)
	}
	rec.Set(key, record.Normalize(id))
	rec.SetExists(true)
	rec.SyncOriginal()
	slog.Debug("inserted record", "entity", r.entity.Name, "id", rec.Key())
	return nil
}

func (r *Repository) persistable(attrs map[string]any) map[string]any {
	out := make(map[string]any, len(attrs))
	for k, v := range attrs {
		if r.entity.Persistable(k) {
			out[k] = v
		}
	}
	return out
}
