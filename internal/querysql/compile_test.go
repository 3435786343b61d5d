package querysql

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/repokit/internal/queryir"
)

func newGolden(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func filteredSelect() queryir.Select {
	return queryir.Select{
		From:    "spies",
		Columns: []string{"id", "name", "xp"},
		Filter: queryir.And{Predicates: []queryir.Predicate{
			queryir.In{Field: "xp", Values: []any{352, 57}},
			queryir.Compare{Field: "xp", Op: ">", Value: 100},
			queryir.NotNull{Field: "name"},
		}},
		OrderBy: []queryir.Order{{Field: "name", Direction: queryir.Asc}},
		Key:     "id",
		Limit:   3,
		Offset:  6,
	}
}

func TestCompile_Golden(t *testing.T) {
	search := queryir.Select{
		From:   "spies",
		Filter: queryir.Fuzzy{Fields: []string{"name", "username"}, Pattern: "%r%n%"},
		Key:    "id",
	}

	tests := []struct {
		name    string
		dialect Dialect
		query   queryir.Query
		params  []any
	}{
		{
			name:    "select_filters_sqlite",
			dialect: SQLite,
			query:   filteredSelect(),
			params:  []any{352, 57, 100, int64(3), int64(6)},
		},
		{
			name:    "select_filters_postgres",
			dialect: Postgres,
			query:   filteredSelect(),
			params:  []any{352, 57, 100, int64(3), int64(6)},
		},
		{
			name:    "search_sqlite",
			dialect: SQLite,
			query:   search,
			params:  []any{"%r%n%", "%r%n%"},
		},
		{
			name:    "search_postgres",
			dialect: Postgres,
			query:   &search,
			params:  []any{"%r%n%", "%r%n%"},
		},
		{
			name:    "has_sqlite",
			dialect: SQLite,
			query: queryir.Select{
				From:   "spies",
				Filter: queryir.Has{Table: "targets", RemoteColumn: "spy_id", LocalColumn: "id", Op: ">=", Count: 1},
				Key:    "id",
			},
			params: []any{int64(1)},
		},
		{
			name:    "count_sqlite",
			dialect: SQLite,
			query:   queryir.Count{From: "spies", Filter: queryir.IsNull{Field: "name"}},
			params:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, params, err := NewSQLCompiler(tt.dialect).Compile(tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.params, params)
			newGolden(t).Assert(t, tt.name, []byte(sql+"\n"))
		})
	}
}

func TestCompile_DMLGolden(t *testing.T) {
	attrs := map[string]any{"xp": 172, "name": "mark"}

	t.Run("insert_postgres", func(t *testing.T) {
		sql, params := NewSQLCompiler(Postgres).CompileInsert("spies", "id", attrs)
		assert.Equal(t, []any{"mark", 172}, params)
		newGolden(t).Assert(t, "insert_postgres", []byte(sql+"\n"))
	})

	t.Run("update_sqlite", func(t *testing.T) {
		sql, params := NewSQLCompiler(SQLite).CompileUpdate("spies", "id", int64(7), attrs)
		assert.Equal(t, []any{"mark", 172, int64(7)}, params)
		newGolden(t).Assert(t, "update_sqlite", []byte(sql+"\n"))
	})

	t.Run("delete_postgres", func(t *testing.T) {
		sql, params := NewSQLCompiler(Postgres).CompileDelete("spies", "id", []any{1, 2})
		assert.Equal(t, []any{1, 2}, params)
		newGolden(t).Assert(t, "delete_postgres", []byte(sql+"\n"))
	})
}

func TestCompile_ValuesNeverInterpolated(t *testing.T) {
	q := queryir.Select{
		From:   "spies",
		Filter: queryir.Compare{Field: "name", Op: "=", Value: "x'; DROP TABLE spies; --"},
		Key:    "id",
	}

	sql, params, err := NewSQLCompiler(SQLite).Compile(q)
	require.NoError(t, err)
	assert.NotContains(t, sql, "DROP")
	assert.Equal(t, []any{"x'; DROP TABLE spies; --"}, params)
}

func TestCompile_EmptySets(t *testing.T) {
	tests := []struct {
		name   string
		filter queryir.Predicate
		want   string
	}{
		{"empty in matches nothing", queryir.In{Field: "id"}, "WHERE 1 = 0"},
		{"empty not in matches everything", queryir.NotIn{Field: "id"}, "WHERE 1 = 1"},
		{"fuzzy without fields matches nothing", queryir.Fuzzy{Pattern: "%a%"}, "WHERE 1 = 0"},
		{"empty and is true", queryir.And{}, "WHERE 1 = 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, params, err := NewSQLCompiler(SQLite).Compile(queryir.Select{From: "t", Filter: tt.filter})
			require.NoError(t, err)
			assert.Contains(t, sql, tt.want)
			assert.Empty(t, params)
		})
	}
}

func TestCompile_OrderTiebreaker(t *testing.T) {
	tests := []struct {
		name  string
		order []queryir.Order
		key   string
		want  string
	}{
		{"key appended", []queryir.Order{{Field: "xp", Direction: queryir.Desc}}, "id", "ORDER BY `xp` DESC, `id` ASC"},
		{"key already sorted", []queryir.Order{{Field: "id", Direction: queryir.Desc}}, "id", "ORDER BY `id` DESC"},
		{"key only", nil, "id", "ORDER BY `id` ASC"},
		{"multi key", []queryir.Order{{Field: "name", Direction: queryir.Asc}, {Field: "xp", Direction: queryir.Desc}}, "id", "ORDER BY `name` ASC, `xp` DESC, `id` ASC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, _, err := NewSQLCompiler(SQLite).Compile(queryir.Select{From: "t", OrderBy: tt.order, Key: tt.key})
			require.NoError(t, err)
			assert.Contains(t, sql, tt.want)
		})
	}

	t.Run("no key no order", func(t *testing.T) {
		sql, _, err := NewSQLCompiler(SQLite).Compile(queryir.Select{From: "t"})
		require.NoError(t, err)
		assert.Equal(t, "SELECT * FROM `t`", sql)
	})
}

func TestCompile_LimitOnlyWhenSet(t *testing.T) {
	sql, params, err := NewSQLCompiler(SQLite).Compile(queryir.Select{From: "t", Offset: 5})
	require.NoError(t, err)
	assert.NotContains(t, sql, "LIMIT")
	assert.NotContains(t, sql, "OFFSET")
	assert.Empty(t, params)
}

func TestCompile_CompareOperators(t *testing.T) {
	tests := []struct {
		op      string
		dialect Dialect
		want    string
	}{
		{">=", SQLite, "`xp` >= ?"},
		{"<>", SQLite, "`xp` <> ?"},
		{"like", SQLite, "`xp` LIKE ?"},
		{"not like", Postgres, `"xp" NOT LIKE $1`},
		{"ilike", SQLite, "`xp` LIKE ?"},
		{"ilike", Postgres, `"xp" ILIKE $1`},
	}

	for _, tt := range tests {
		t.Run(tt.dialect.String()+" "+tt.op, func(t *testing.T) {
			sql, _, err := NewSQLCompiler(tt.dialect).Compile(queryir.Select{
				From:   "spies",
				Filter: queryir.Compare{Field: "xp", Op: tt.op, Value: 1},
			})
			require.NoError(t, err)
			assert.Contains(t, sql, tt.want)
		})
	}
}

func TestCompile_RejectsInvalid(t *testing.T) {
	_, _, err := NewSQLCompiler(SQLite).Compile(nil)
	require.Error(t, err)

	_, _, err = NewSQLCompiler(SQLite).Compile(queryir.Select{From: "t", Filter: queryir.Compare{Field: "a", Op: ";", Value: 1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported operator")
}

func TestCompileColumns(t *testing.T) {
	sql, params := NewSQLCompiler(SQLite).CompileColumns("spies")
	assert.Contains(t, sql, "pragma_table_info(?)")
	assert.Equal(t, []any{"spies"}, params)

	sql, params = NewSQLCompiler(Postgres).CompileColumns("spies")
	assert.Contains(t, sql, "information_schema.columns")
	assert.Contains(t, sql, "$1")
	assert.Equal(t, []any{"spies"}, params)
}

func TestCompileInsert_DefaultValues(t *testing.T) {
	sql, params := NewSQLCompiler(SQLite).CompileInsert("spies", "id", nil)
	assert.Equal(t, "INSERT INTO `spies` DEFAULT VALUES RETURNING `id`", sql)
	assert.Empty(t, params)
}

func TestDialect(t *testing.T) {
	tests := []struct {
		driver string
		want   Dialect
		err    bool
	}{
		{"sqlite3", SQLite, false},
		{"pgx", Postgres, false},
		{"postgres", Postgres, false},
		{"mysql", SQLite, true},
	}
	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			d, err := DialectFor(tt.driver)
			if tt.err {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d)
		})
	}

	assert.Equal(t, "`spies`.`id`", SQLite.Quote("spies.id"))
	assert.Equal(t, "`we``ird`", SQLite.Quote("we`ird"))
	assert.Equal(t, "`we\"ird`", SQLite.Quote(`we"ird`))
	assert.Equal(t, "*", SQLite.Quote("*"))
	assert.Equal(t, "`t`.*", SQLite.Quote("t.*"))
	assert.Equal(t, `"spies"."id"`, Postgres.Quote("spies.id"))
	assert.Equal(t, `"we""ird"`, Postgres.Quote(`we"ird`))
	assert.Equal(t, "$3", Postgres.Placeholder(3))
	assert.Equal(t, "?", SQLite.Placeholder(3))
}
