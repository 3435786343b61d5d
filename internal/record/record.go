package record

import (
	"encoding/json"
	"maps"
	"sort"
)

// Record is one entity instance mapped to a storage row.
//
// A Record is not safe for concurrent use.
type Record struct {
	entity     *Entity
	attributes map[string]any
	original   map[string]any
	exists     bool
	relations  map[string]any
}

// Entity returns the record's entity metadata.
func (r *Record) Entity() *Entity {
	return r.entity
}

// Exists reports whether the record is persisted in the store.
func (r *Record) Exists() bool {
	return r.exists
}

// SetExists flips the persisted flag. Used by the persistence layer after a
// commit or delete.
func (r *Record) SetExists(exists bool) {
	r.exists = exists
}

// Key returns the primary key value, or nil when unset.
func (r *Record) Key() any {
	return r.attributes[r.entity.KeyName()]
}

// HasKey reports whether the primary key carries a usable value.
func (r *Record) HasKey() bool {
	return !IsBlank(r.Key())
}

// Get returns an attribute value.
func (r *Record) Get(attr string) (any, bool) {
	v, ok := r.attributes[attr]
	return v, ok
}

// Value returns an attribute value or nil.
func (r *Record) Value(attr string) any {
	return r.attributes[attr]
}

// Set assigns an attribute, bypassing the fillable list.
func (r *Record) Set(attr string, value any) {
	r.attributes[attr] = value
}

// Unset removes an attribute.
func (r *Record) Unset(attr string) {
	delete(r.attributes, attr)
}

// Fill mass assigns attrs, skipping attributes the entity does not allow.
func (r *Record) Fill(attrs map[string]any) *Record {
	for k, v := range attrs {
		if r.entity.IsFillable(k) || k == r.entity.KeyName() {
			r.attributes[k] = v
		}
	}
	return r
}

// Attributes returns a copy of the current attribute map.
func (r *Record) Attributes() map[string]any {
	return maps.Clone(r.attributes)
}

// AttributeNames returns attribute names in sorted order.
func (r *Record) AttributeNames() []string {
	names := make([]string, 0, len(r.attributes))
	for k := range r.attributes {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Original returns the value captured at load time or last commit.
func (r *Record) Original(attr string) (any, bool) {
	v, ok := r.original[attr]
	return v, ok
}

// Dirty returns the attributes changed since load or the last commit.
func (r *Record) Dirty() map[string]any {
	dirty := make(map[string]any)
	for k, v := range r.attributes {
		orig, ok := r.original[k]
		if !ok || !Equal(orig, v) {
			dirty[k] = v
		}
	}
	return dirty
}

// IsDirty reports whether any of attrs changed. With no arguments it reports
// whether anything changed.
func (r *Record) IsDirty(attrs ...string) bool {
	dirty := r.Dirty()
	if len(attrs) == 0 {
		return len(dirty) > 0
	}
	for _, a := range attrs {
		if _, ok := dirty[a]; ok {
			return true
		}
	}
	return false
}

// SyncOriginal marks the current attributes as clean.
func (r *Record) SyncOriginal() {
	r.original = maps.Clone(r.attributes)
}

// SetRelation attaches a loaded association. value is a *Record, a
// Collection, or nil.
func (r *Record) SetRelation(name string, value any) {
	if r.relations == nil {
		r.relations = make(map[string]any)
	}
	r.relations[name] = value
}

// Relation returns a loaded association.
func (r *Record) Relation(name string) (any, bool) {
	v, ok := r.relations[name]
	return v, ok
}

// RelationLoaded reports whether the association was attached.
func (r *Record) RelationLoaded(name string) bool {
	_, ok := r.relations[name]
	return ok
}

// One returns a loaded single-record association, or nil.
func (r *Record) One(name string) *Record {
	rec, _ := r.relations[name].(*Record)
	return rec
}

// Many returns a loaded collection association, or nil.
func (r *Record) Many(name string) Collection {
	c, _ := r.relations[name].(Collection)
	return c
}

// LoadedRelations returns the names of attached associations. Declared
// associations come first in declaration order, then any others sorted.
func (r *Record) LoadedRelations() []string {
	var names []string
	seen := make(map[string]bool, len(r.relations))
	for _, a := range r.entity.Associations {
		if _, ok := r.relations[a.Name]; ok {
			names = append(names, a.Name)
			seen[a.Name] = true
		}
	}
	var rest []string
	for n := range r.relations {
		if !seen[n] {
			rest = append(rest, n)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}

// MarshalJSON encodes attributes with loaded associations nested under
// their names.
func (r *Record) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.attributes)+len(r.relations))
	for k, v := range r.attributes {
		out[k] = v
	}
	for k, v := range r.relations {
		out[k] = v
	}
	return json.Marshal(out)
}

// Collection is an ordered set of records.
type Collection []*Record

// Keys returns the primary key of every record, skipping blank keys.
func (c Collection) Keys() []any {
	keys := make([]any, 0, len(c))
	for _, r := range c {
		if r.HasKey() {
			keys = append(keys, r.Key())
		}
	}
	return keys
}

// Pluck returns attr from every record, in order.
func (c Collection) Pluck(attr string) []any {
	vals := make([]any, len(c))
	for i, r := range c {
		vals[i] = r.Value(attr)
	}
	return vals
}

// First returns the first record or nil.
func (c Collection) First() *Record {
	if len(c) == 0 {
		return nil
	}
	return c[0]
}

// Last returns the last record or nil.
func (c Collection) Last() *Record {
	if len(c) == 0 {
		return nil
	}
	return c[len(c)-1]
}
