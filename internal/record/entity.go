package record

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"unicode"
)

// DefaultKey is the primary key attribute used when an entity declares none.
const DefaultKey = "id"

// KeyType controls how a new record obtains its primary key.
type KeyType string

const (
	// KeyAutoIncrement lets the store assign the key on insert.
	KeyAutoIncrement KeyType = "auto"

	// KeyUUID assigns a time-ordered UUID before insert.
	KeyUUID KeyType = "uuid"
)

// Kind is the cardinality of an association.
type Kind string

const (
	HasOne    Kind = "has_one"
	HasMany   Kind = "has_many"
	BelongsTo Kind = "belongs_to"
)

// ValidKinds lists the association kinds an entity may declare.
var ValidKinds = map[Kind]bool{
	HasOne:    true,
	HasMany:   true,
	BelongsTo: true,
}

// Association is a named relationship from one entity to another.
//
// For HasOne and HasMany the foreign key lives on the related entity and
// points at the owner's key. For BelongsTo the foreign key lives on the
// owner and points at the related entity's key.
type Association struct {
	Name       string `json:"name"`
	Kind       Kind   `json:"kind"`
	Entity     string `json:"entity"`
	ForeignKey string `json:"foreign_key,omitempty"`
	OwnerKey   string `json:"owner_key,omitempty"`
}

// Many reports whether the association loads a collection.
func (a Association) Many() bool {
	return a.Kind == HasMany
}

// Keys resolves the attribute pair that links owner and related records.
// local is read from owner records, remote from related records.
func (a Association) Keys(owner, related *Entity) (local, remote string) {
	switch a.Kind {
	case BelongsTo:
		local = a.ForeignKey
		if local == "" {
			local = SnakeCase(a.Name) + "_" + related.KeyName()
		}
		remote = a.OwnerKey
		if remote == "" {
			remote = related.KeyName()
		}
	default:
		local = a.OwnerKey
		if local == "" {
			local = owner.KeyName()
		}
		remote = a.ForeignKey
		if remote == "" {
			remote = owner.ForeignKey()
		}
	}
	return local, remote
}

// Entity is the static description of one record type.
type Entity struct {
	Name         string        `json:"name"`
	Table        string        `json:"table"`
	Key          string        `json:"key,omitempty"`
	KeyType      KeyType       `json:"key_type,omitempty"`
	Columns      []string      `json:"columns,omitempty"`
	Fillable     []string      `json:"fillable,omitempty"`
	Timestamps   bool          `json:"timestamps,omitempty"`
	Associations []Association `json:"associations,omitempty"`
}

// KeyName returns the primary key attribute.
func (e *Entity) KeyName() string {
	if e.Key == "" {
		return DefaultKey
	}
	return e.Key
}

// ForeignKey returns the attribute other entities use to reference this
// one, e.g. "spy_id" for Spy.
func (e *Entity) ForeignKey() string {
	return SnakeCase(e.Name) + "_" + e.KeyName()
}

// Association looks up an association by name.
func (e *Entity) Association(name string) (Association, bool) {
	for _, a := range e.Associations {
		if a.Name == name {
			return a, true
		}
	}
	return Association{}, false
}

// IsFillable reports whether attr may be mass assigned. An entity without a
// fillable list accepts every attribute.
func (e *Entity) IsFillable(attr string) bool {
	if len(e.Fillable) == 0 {
		return true
	}
	return slices.Contains(e.Fillable, attr)
}

// Persistable reports whether attr is written to the store. An entity
// without a column list persists every attribute.
func (e *Entity) Persistable(attr string) bool {
	if len(e.Columns) == 0 {
		return true
	}
	return attr == e.KeyName() || slices.Contains(e.Columns, attr)
}

// New returns an unsaved record with attrs mass assigned.
func (e *Entity) New(attrs map[string]any) *Record {
	r := &Record{
		entity:     e,
		attributes: make(map[string]any, len(attrs)),
		original:   map[string]any{},
	}
	r.Fill(attrs)
	return r
}

// Hydrate returns a persisted record built from a store row.
func (e *Entity) Hydrate(row map[string]any) *Record {
	r := &Record{
		entity:     e,
		attributes: make(map[string]any, len(row)),
		exists:     true,
	}
	for k, v := range row {
		r.attributes[k] = v
	}
	r.SyncOriginal()
	return r
}

// Schema is the set of entities known to a process.
type Schema struct {
	entities map[string]*Entity
}

// NewSchema builds a schema from entity definitions.
// Returns an error on duplicate or empty names.
func NewSchema(entities ...*Entity) (*Schema, error) {
	s := &Schema{entities: make(map[string]*Entity, len(entities))}
	for _, e := range entities {
		if err := s.Add(e); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Add registers an entity.
func (s *Schema) Add(e *Entity) error {
	if e == nil || e.Name == "" {
		return fmt.Errorf("entity name is required")
	}
	if _, dup := s.entities[e.Name]; dup {
		return fmt.Errorf("duplicate entity %q", e.Name)
	}
	if e.Table == "" {
		e.Table = Plural(SnakeCase(e.Name))
	}
	s.entities[e.Name] = e
	return nil
}

// Entity looks up an entity by name.
func (s *Schema) Entity(name string) (*Entity, bool) {
	e, ok := s.entities[name]
	return e, ok
}

// Names returns entity names in sorted order.
func (s *Schema) Names() []string {
	names := make([]string, 0, len(s.entities))
	for n := range s.entities {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Related resolves the entity on the far side of an association.
func (s *Schema) Related(owner *Entity, relation string) (Association, *Entity, error) {
	assoc, ok := owner.Association(relation)
	if !ok {
		return Association{}, nil, fmt.Errorf("entity %s has no association %q", owner.Name, relation)
	}
	related, ok := s.entities[assoc.Entity]
	if !ok {
		return Association{}, nil, fmt.Errorf("association %s.%s references unknown entity %q", owner.Name, relation, assoc.Entity)
	}
	return assoc, related, nil
}

// Plural forms the English plural of a lower-case table word: "spy" →
// "spies", "box" → "boxes", "day" → "days".
func Plural(s string) string {
	n := len(s)
	switch {
	case n == 0:
		return s
	case n > 1 && s[n-1] == 'y' && !strings.ContainsRune("aeiou", rune(s[n-2])):
		return s[:n-1] + "ies"
	case strings.HasSuffix(s, "s"), strings.HasSuffix(s, "x"), strings.HasSuffix(s, "z"),
		strings.HasSuffix(s, "ch"), strings.HasSuffix(s, "sh"):
		return s + "es"
	default:
		return s + "s"
	}
}

// SnakeCase converts a Go-style name to snake_case: "SpyTarget" → "spy_target".
func SnakeCase(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && (unicode.IsLower(runes[i-1]) || (i+1 < len(runes) && unicode.IsLower(runes[i+1]) && runes[i-1] != '_')) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
