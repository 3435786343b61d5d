package record

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func spyEntity() *Entity {
	return &Entity{
		Name:     "Spy",
		Table:    "spies",
		Columns:  []string{"username", "password", "name", "xp"},
		Fillable: []string{"username", "password", "name", "xp"},
		Associations: []Association{
			{Name: "target", Kind: HasOne, Entity: "Target"},
			{Name: "missions", Kind: HasMany, Entity: "Mission"},
		},
	}
}

func targetEntity() *Entity {
	return &Entity{
		Name:  "Target",
		Table: "targets",
		Associations: []Association{
			{Name: "spy", Kind: BelongsTo, Entity: "Spy"},
		},
	}
}

func TestEntity_Keys(t *testing.T) {
	spy, target := spyEntity(), targetEntity()

	assert.Equal(t, "id", spy.KeyName())
	assert.Equal(t, "spy_id", spy.ForeignKey())

	local, remote := spy.Associations[0].Keys(spy, target)
	assert.Equal(t, "id", local)
	assert.Equal(t, "spy_id", remote)

	local, remote = target.Associations[0].Keys(target, spy)
	assert.Equal(t, "spy_id", local)
	assert.Equal(t, "id", remote)

	custom := Association{Name: "handler", Kind: BelongsTo, Entity: "Spy", ForeignKey: "handler_ref", OwnerKey: "username"}
	local, remote = custom.Keys(target, spy)
	assert.Equal(t, "handler_ref", local)
	assert.Equal(t, "username", remote)
}

func TestRecord_FillRespectsFillable(t *testing.T) {
	spy := spyEntity()

	r := spy.New(map[string]any{"name": "mark", "xp": 172, "is_admin": true, "id": 4})
	assert.Equal(t, "mark", r.Value("name"))
	assert.Equal(t, 4, r.Key())

	_, ok := r.Get("is_admin")
	assert.False(t, ok, "guarded attribute must not be mass assigned")

	r.Set("is_admin", true)
	assert.Equal(t, true, r.Value("is_admin"))
	assert.False(t, r.Exists())
}

func TestRecord_FillableEmptyAcceptsAll(t *testing.T) {
	r := targetEntity().New(map[string]any{"anything": 1})
	assert.Equal(t, 1, r.Value("anything"))
}

func TestRecord_Dirty(t *testing.T) {
	r := spyEntity().Hydrate(map[string]any{"id": int64(1), "name": "mark", "xp": int64(172)})
	assert.True(t, r.Exists())
	assert.False(t, r.IsDirty())

	// Same value in a different integer width is not a change.
	r.Set("xp", 172)
	assert.False(t, r.IsDirty("xp"))

	r.Set("name", "marcus")
	assert.True(t, r.IsDirty())
	assert.True(t, r.IsDirty("name"))
	assert.False(t, r.IsDirty("xp"))
	assert.Equal(t, map[string]any{"name": "marcus"}, r.Dirty())

	orig, ok := r.Original("name")
	require.True(t, ok)
	assert.Equal(t, "mark", orig)

	r.SyncOriginal()
	assert.False(t, r.IsDirty())
}

func TestRecord_NewRecordIsAllDirty(t *testing.T) {
	r := spyEntity().New(map[string]any{"name": "mark"})
	assert.Equal(t, map[string]any{"name": "mark"}, r.Dirty())
}

func TestRecord_AttributesIsACopy(t *testing.T) {
	r := spyEntity().New(map[string]any{"name": "mark"})
	attrs := r.Attributes()
	attrs["name"] = "changed"
	assert.Equal(t, "mark", r.Value("name"))
	assert.Equal(t, []string{"name"}, r.AttributeNames())
}

func TestRecord_HasKey(t *testing.T) {
	spy := spyEntity()
	assert.False(t, spy.New(nil).HasKey())
	assert.False(t, spy.New(map[string]any{"id": ""}).HasKey())
	assert.True(t, spy.New(map[string]any{"id": 0}).HasKey())
	assert.True(t, spy.New(map[string]any{"id": "abc"}).HasKey())
}

func TestRecord_Relations(t *testing.T) {
	spy, target := spyEntity(), targetEntity()
	r := spy.Hydrate(map[string]any{"id": int64(1), "name": "mark"})
	tr := target.Hydrate(map[string]any{"id": int64(9), "spy_id": int64(1), "name": "t"})

	r.SetRelation("missions", Collection{})
	r.SetRelation("target", tr)
	r.SetRelation("extra", nil)

	assert.Same(t, tr, r.One("target"))
	assert.NotNil(t, r.Many("missions"))
	assert.Nil(t, r.One("missions"))
	assert.True(t, r.RelationLoaded("extra"))
	assert.Equal(t, []string{"target", "missions", "extra"}, r.LoadedRelations())

	out, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"name":"mark","target":{"id":9,"spy_id":1,"name":"t"},"missions":[],"extra":null}`, string(out))
}

func TestCollection(t *testing.T) {
	spy := spyEntity()
	c := Collection{
		spy.Hydrate(map[string]any{"id": int64(1), "name": "a"}),
		spy.New(map[string]any{"name": "b"}),
		spy.Hydrate(map[string]any{"id": int64(3), "name": "c"}),
	}

	assert.Equal(t, []any{int64(1), int64(3)}, c.Keys())
	assert.Equal(t, []any{"a", "b", "c"}, c.Pluck("name"))
	assert.Equal(t, "a", c.First().Value("name"))
	assert.Equal(t, "c", c.Last().Value("name"))
	assert.Nil(t, Collection{}.First())
	assert.Nil(t, Collection{}.Last())
}

func TestSchema(t *testing.T) {
	s, err := NewSchema(spyEntity(), targetEntity(), &Entity{Name: "SpyMission"})
	require.NoError(t, err)

	assert.Equal(t, []string{"Spy", "SpyMission", "Target"}, s.Names())

	e, ok := s.Entity("SpyMission")
	require.True(t, ok)
	assert.Equal(t, "spy_missions", e.Table)

	spy, _ := s.Entity("Spy")
	assoc, related, err := s.Related(spy, "target")
	require.NoError(t, err)
	assert.Equal(t, HasOne, assoc.Kind)
	assert.Equal(t, "targets", related.Table)

	_, _, err = s.Related(spy, "nope")
	assert.Error(t, err)

	_, _, err = s.Related(spy, "missions")
	assert.ErrorContains(t, err, "unknown entity")

	_, err = NewSchema(spyEntity(), spyEntity())
	assert.ErrorContains(t, err, "duplicate")
}

func TestSnakeCase(t *testing.T) {
	tests := map[string]string{
		"Spy":           "spy",
		"SpyTarget":     "spy_target",
		"HTTPServer":    "http_server",
		"SpyRepository": "spy_repository",
		"already_snake": "already_snake",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, SnakeCase(in))
		})
	}
}

func TestPlural(t *testing.T) {
	tests := map[string]string{
		"spy":         "spies",
		"day":         "days",
		"target":      "targets",
		"spy_mission": "spy_missions",
		"branch":      "branches",
		"box":         "boxes",
		"status":      "statuses",
		"wish":        "wishes",
		"y":           "ys",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, Plural(in))
		})
	}
}

func TestSchema_DefaultTableIsPlural(t *testing.T) {
	s, err := NewSchema(&Entity{Name: "Spy"}, &Entity{Name: "Branch"}, &Entity{Name: "Agent", Table: "operatives"})
	require.NoError(t, err)

	tables := map[string]string{"Spy": "spies", "Branch": "branches", "Agent": "operatives"}
	for name, want := range tables {
		e, ok := s.Entity(name)
		require.True(t, ok)
		assert.Equal(t, want, e.Table, name)
	}
}

func TestValueHelpers(t *testing.T) {
	assert.True(t, Equal(int64(3), 3))
	assert.True(t, Equal(3.0, int32(3)))
	assert.True(t, Equal([]byte("a"), "a"))
	assert.True(t, Equal(nil, nil))
	assert.False(t, Equal(nil, 0))
	assert.False(t, Equal("3", 3))
	assert.True(t, Equal([]any{1}, []any{1}))

	assert.Equal(t, "7", KeyString(7))
	assert.Equal(t, "7", KeyString(int64(7)))
	assert.Equal(t, "7", KeyString("7"))
	assert.Equal(t, "", KeyString(nil))

	assert.Equal(t, []any{}, ToSlice(nil))
	assert.Equal(t, []any{5}, ToSlice(5))
	assert.Equal(t, []any{1, 2}, ToSlice([]int{1, 2}))
	assert.Equal(t, []any{"ab"}, ToSlice([]byte("ab")))
}
