package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/repokit/internal/record"
	"github.com/roach88/repokit/internal/store"
)

// SpiesDDL creates the spies/targets/tokens fixture tables.
const SpiesDDL = `
CREATE TABLE spies (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT,
	password TEXT,
	name TEXT,
	xp INTEGER,
	branch_id INTEGER,
	created_at DATETIME,
	updated_at DATETIME
);
CREATE UNIQUE INDEX spies_username ON spies(username);
CREATE TABLE targets (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	spy_id INTEGER REFERENCES spies(id),
	name TEXT
);
CREATE TABLE tokens (
	id TEXT PRIMARY KEY,
	spy_id INTEGER,
	value TEXT
)
`

// SpySchema returns the fixture entities: Spy has one Target and many
// Targets, Target belongs to Spy, Token has a UUID key.
func SpySchema(t *testing.T) *record.Schema {
	t.Helper()
	schema, err := record.NewSchema(
		&record.Entity{
			Name:       "Spy",
			Table:      "spies",
			Columns:    []string{"username", "password", "name", "xp", "branch_id", "created_at", "updated_at"},
			Timestamps: true,
			Associations: []record.Association{
				{Name: "target", Kind: record.HasOne, Entity: "Target"},
				{Name: "targets", Kind: record.HasMany, Entity: "Target"},
			},
		},
		&record.Entity{
			Name:    "Target",
			Table:   "targets",
			Columns: []string{"spy_id", "name"},
			Associations: []record.Association{
				{Name: "spy", Kind: record.BelongsTo, Entity: "Spy"},
			},
		},
		&record.Entity{
			Name:    "Token",
			Table:   "tokens",
			KeyType: record.KeyUUID,
			Columns: []string{"spy_id", "value"},
		},
	)
	require.NoError(t, err)
	return schema
}

// OpenStore opens a migrated SQLite store in a temp directory.
func OpenStore(t *testing.T) *store.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.db")
	s, err := store.OpenSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	require.NoError(t, s.Migrate(context.Background(), []string{SpiesDDL}))
	return s
}

// Spy is one fixture row.
type Spy struct {
	Username string
	Name     string
	XP       int
}

// DefaultSpies are mark, katrina and janelle with xp 172, 57 and 352.
var DefaultSpies = []Spy{
	{Username: "markii1607", Name: "mark", XP: 172},
	{Username: "katbritanico", Name: "katrina", XP: 57},
	{Username: "janelagatuz", Name: "janelle", XP: 352},
}

// SeedSpies inserts spies in order and returns their keys.
func SeedSpies(t *testing.T, s *store.Store, spies ...Spy) []int64 {
	t.Helper()
	if len(spies) == 0 {
		spies = DefaultSpies
	}
	ids := make([]int64, 0, len(spies))
	for _, spy := range spies {
		id, err := s.Insert(context.Background(), "spies", "id", map[string]any{
			"username": spy.Username,
			"password": "secret",
			"name":     spy.Name,
			"xp":       spy.XP,
		})
		require.NoError(t, err)
		ids = append(ids, id.(int64))
	}
	return ids
}

// SeedTarget inserts a target for spyID and returns its key.
func SeedTarget(t *testing.T, s *store.Store, spyID int64, name string) int64 {
	t.Helper()
	id, err := s.Insert(context.Background(), "targets", "id", map[string]any{
		"spy_id": spyID,
		"name":   name,
	})
	require.NoError(t, err)
	return id.(int64)
}
