package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/repokit/internal/query"
	"github.com/roach88/repokit/internal/testutil"
)

func TestNew_UnknownEntity(t *testing.T) {
	st := testutil.OpenStore(t)
	_, err := New(st, testutil.SpySchema(t), "Ghost")
	require.Error(t, err)
}

func TestFilters(t *testing.T) {
	tests := []struct {
		name    string
		filters map[string]any
		want    int
	}{
		{"equality over a set", map[string]any{"xp": []any{352, 57}}, 2},
		{"numeric operator key", map[string]any{"xp": map[string]any{"0": []any{352, 57}}}, 2},
		{"explicit equals", map[string]any{"xp": map[string]any{"=": []any{352, 57}}}, 2},
		{"alias e", map[string]any{"xp": map[string]any{"e": 172}}, 1},
		{"not equals over a set", map[string]any{"xp": map[string]any{"!=": []any{352, 57}}}, 1},
		{"alias ne", map[string]any{"xp": map[string]any{"ne": []any{352, 57}}}, 1},
		{"greater than", map[string]any{"xp": map[string]any{">": 100}}, 2},
		{"less or equal", map[string]any{"xp": map[string]any{"<=": 172}}, 2},
		{"range", map[string]any{"xp": map[string]any{">": 100, "<": 200}}, 1},
		{"null", map[string]any{"branch_id": map[string]any{"n": nil}}, 3},
		{"not null", map[string]any{"branch_id": map[string]any{"nn": nil}}, 0},
		{"scalar", map[string]any{"name": "mark"}, 1},
		{"two attributes", map[string]any{"name": []any{"mark", "katrina"}, "xp": map[string]any{">": 100}}, 1},
		{"like", map[string]any{"name": map[string]any{"like": "ja%"}}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, st := newSpyRepo(t)
			testutil.SeedSpies(t, st)

			recs, err := repo.Filters(tt.filters).Get(context.Background())
			require.NoError(t, err)
			assert.Len(t, recs, tt.want)
		})
	}
}

func TestSort(t *testing.T) {
	ctx := context.Background()
	repo, st := newSpyRepo(t)
	testutil.SeedSpies(t, st)

	recs, err := repo.Sort(query.Asc("name")).Get(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "janelle", recs.First().Value("name"))
	assert.Equal(t, "mark", recs.Last().Value("name"))

	recs, err = repo.Sort(query.Desc("xp")).Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(352), recs.First().Value("xp"))
	assert.Equal(t, int64(57), recs.Last().Value("xp"))
}

func TestSort_MultiKey(t *testing.T) {
	repo, st := newSpyRepo(t)
	testutil.SeedSpies(t, st,
		testutil.Spy{Username: "anna2", Name: "anna", XP: 2},
		testutil.Spy{Username: "anna3", Name: "anna", XP: 3},
		testutil.Spy{Username: "anna4", Name: "anna", XP: 4},
	)

	recs, err := repo.Sort(query.Asc("name"), query.Desc("xp")).Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []any{int64(4), int64(3), int64(2)}, recs.Pluck("xp"))
}

func TestLimitOffset(t *testing.T) {
	ctx := context.Background()
	repo, st := newSpyRepo(t)
	testutil.SeedSpies(t, st)

	recs, err := repo.Limit(2).Get(ctx)
	require.NoError(t, err)
	assert.Len(t, recs, 2)

	recs, err = repo.Limit(2).Offset(2).Get(ctx)
	require.NoError(t, err)
	assert.Len(t, recs, 1)

	// zero is ignored
	recs, err = repo.Limit(0).Offset(0).Get(ctx)
	require.NoError(t, err)
	assert.Len(t, recs, 3)
}

func TestPaginate(t *testing.T) {
	ctx := context.Background()
	repo, st := newSpyRepo(t)
	var spies []testutil.Spy
	for _, n := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"} {
		spies = append(spies, testutil.Spy{Username: "u" + n, Name: n, XP: 1})
	}
	ids := testutil.SeedSpies(t, st, spies...)

	recs, err := repo.Paginate(ctx, 3, 3)
	require.NoError(t, err)
	assert.Equal(t, []any{ids[6], ids[7], ids[8]}, recs.Keys())

	recs, err = repo.Paginate(ctx, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, []any{ids[0], ids[1], ids[2]}, recs.Keys())

	recs, err = repo.Paginate(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, recs, 10)
}

func TestProjection(t *testing.T) {
	ctx := context.Background()
	repo, st := newSpyRepo(t)
	testutil.SeedSpies(t, st)

	recs, err := repo.Attributes("name").Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name"}, recs.First().AttributeNames(), "key is always read back")

	recs, err = repo.Attributes("name").Get(ctx, "xp")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "xp"}, recs.First().AttributeNames(), "per-call projection wins")

	recs, err = repo.Attributes("name").Get(ctx, "*")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name"}, recs.First().AttributeNames(), "wildcard falls back to defaults")
}

func TestBuilderStateResetsAfterTerminalCall(t *testing.T) {
	ctx := context.Background()
	repo, st := newSpyRepo(t)
	testutil.SeedSpies(t, st)

	recs, err := repo.Filters(map[string]any{"name": "mark"}).Limit(1).Get(ctx)
	require.NoError(t, err)
	assert.Len(t, recs, 1)

	recs, err = repo.Get(ctx)
	require.NoError(t, err)
	assert.Len(t, recs, 3)

	// a failing call resets too
	_, err = repo.Filters(map[string]any{"missing_column": 1}).Get(ctx)
	require.Error(t, err)
	assert.True(t, IsQueryExecution(err))

	recs, err = repo.Get(ctx)
	require.NoError(t, err)
	assert.Len(t, recs, 3)
}

func TestUnknownColumnsFailTheQuery(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		run  func(repo *Repository) error
	}{
		{"filter", func(repo *Repository) error {
			_, err := repo.Filters(map[string]any{"missing_column": 1}).Get(ctx)
			return err
		}},
		{"filter in count", func(repo *Repository) error {
			_, err := repo.Filters(map[string]any{"missing_column": 1}).Count(ctx)
			return err
		}},
		{"projection", func(repo *Repository) error {
			_, err := repo.Get(ctx, "nmae")
			return err
		}},
		{"sort", func(repo *Repository) error {
			_, err := repo.Sort(query.Desc("xpp")).Get(ctx)
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, st := newSpyRepo(t)
			testutil.SeedSpies(t, st)

			err := tt.run(repo)
			require.Error(t, err)
			assert.True(t, IsQueryExecution(err), err.Error())
		})
	}
}

func TestAll_IgnoresPaging(t *testing.T) {
	repo, st := newSpyRepo(t)
	testutil.SeedSpies(t, st)

	recs, err := repo.Limit(1).All(context.Background())
	require.NoError(t, err)
	assert.Len(t, recs, 3)
}

func TestFind(t *testing.T) {
	ctx := context.Background()
	repo, st := newSpyRepo(t)
	ids := testutil.SeedSpies(t, st)

	rec, err := repo.Find(ctx, ids[1])
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "katrina", rec.Value("name"))
	assert.True(t, rec.Exists())

	rec, err = repo.Find(ctx, 999)
	require.NoError(t, err)
	assert.Nil(t, rec)

	_, err = repo.FindOrFail(ctx, 999)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	rec, err = repo.FindOrNew(ctx, 999)
	require.NoError(t, err)
	assert.False(t, rec.Exists())
	assert.Same(t, repo.Entity(), rec.Entity())
}

func TestFindMany(t *testing.T) {
	ctx := context.Background()
	repo, st := newSpyRepo(t)
	ids := testutil.SeedSpies(t, st)

	recs, err := repo.FindMany(ctx, []any{ids[0], ids[2]})
	require.NoError(t, err)
	assert.Equal(t, []string{"mark", "janelle"}, names(t, recs.Pluck("name")))

	recs, err = repo.FindMany(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestFindWhereAndFirst(t *testing.T) {
	ctx := context.Background()
	repo, st := newSpyRepo(t)
	testutil.SeedSpies(t, st)

	recs, err := repo.FindWhere(ctx, map[string]any{"xp": 57})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "katrina", recs.First().Value("name"))

	rec, err := repo.Sort(query.Desc("xp")).First(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, "janelle", rec.Value("name"))

	rec, err = repo.First(ctx, map[string]any{"name": "nobody"})
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestFirstOrNewAndFirstOrCreate(t *testing.T) {
	ctx := context.Background()
	repo, st := newSpyRepo(t)
	testutil.SeedSpies(t, st)

	rec, err := repo.FirstOrNew(ctx, map[string]any{"name": "mark"})
	require.NoError(t, err)
	assert.True(t, rec.Exists())

	rec, err = repo.FirstOrNew(ctx, map[string]any{"name": "ken", "xp": 86})
	require.NoError(t, err)
	assert.False(t, rec.Exists())
	assert.Equal(t, 86, rec.Value("xp"))

	rec, err = repo.FirstOrCreate(ctx, map[string]any{"name": "ken", "username": "kenn"})
	require.NoError(t, err)
	assert.True(t, rec.Exists())
	assert.Equal(t, int64(4), countSpies(t, st))

	again, err := repo.FirstOrCreate(ctx, map[string]any{"name": "ken", "username": "kenn"})
	require.NoError(t, err)
	assert.Equal(t, rec.Key(), again.Key())
	assert.Equal(t, int64(4), countSpies(t, st))
}

func TestSearch(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		compare []string
		want    []string
	}{
		{"subsequence", "ka", []string{"name"}, []string{"katrina"}},
		{"loose match", "jle", []string{"name"}, []string{"janelle"}},
		{"several columns", "brit", []string{"name", "username"}, []string{"katrina"}},
		{"wildcard columns", "markii", []string{"*"}, []string{"mark"}},
		{"all columns when nil", "janelag", nil, []string{"janelle"}},
		{"empty input matches all", "", []string{"name"}, []string{"mark", "katrina", "janelle"}},
		{"no match", "zz", []string{"name"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, st := newSpyRepo(t)
			testutil.SeedSpies(t, st)

			recs, err := repo.Search(context.Background(), tt.input, tt.compare)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(t, recs.Pluck("name")))
		})
	}
}

func TestSearch_CombinesWithFilters(t *testing.T) {
	repo, st := newSpyRepo(t)
	testutil.SeedSpies(t, st)

	recs, err := repo.Filters(map[string]any{"xp": map[string]any{">": 100}}).
		Search(context.Background(), "a", []string{"name"})
	require.NoError(t, err)
	assert.Equal(t, []string{"mark", "janelle"}, names(t, recs.Pluck("name")))
}

func TestCount(t *testing.T) {
	ctx := context.Background()
	repo, st := newSpyRepo(t)
	testutil.SeedSpies(t, st)

	n, err := repo.Filters(map[string]any{"xp": map[string]any{">": 100}}).Limit(1).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestHasRelation(t *testing.T) {
	ctx := context.Background()
	repo, st := newSpyRepo(t)
	ids := testutil.SeedSpies(t, st)
	testutil.SeedTarget(t, st, ids[0], "t1")
	testutil.SeedTarget(t, st, ids[0], "t2")
	testutil.SeedTarget(t, st, ids[2], "t3")

	recs, err := repo.HasRelation("targets", "", 1).Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"mark", "janelle"}, names(t, recs.Pluck("name")))

	recs, err = repo.HasRelation("targets", ">=", 2).Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"mark"}, names(t, recs.Pluck("name")))

	recs, err = repo.HasRelation("targets", "=", 0).Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"katrina"}, names(t, recs.Pluck("name")))
}

func TestEagerLoad_IncludesForeignKey(t *testing.T) {
	ctx := context.Background()
	repo, st := newSpyRepo(t)
	ids := testutil.SeedSpies(t, st)
	testutil.SeedTarget(t, st, ids[0], "moscow")

	plan, err := repo.With(query.Rel("target", "name")).Compile()
	require.NoError(t, err)
	require.Len(t, plan.Eager, 1)
	assert.Equal(t, []string{"name", "spy_id"}, plan.Eager[0].Columns)

	recs, err := repo.With(query.Rel("target", "name")).Sort(query.Asc("id")).Get(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 3)

	target := recs[0].One("target")
	require.NotNil(t, target)
	assert.Equal(t, "moscow", target.Value("name"))
	assert.Equal(t, ids[0], target.Value("spy_id"))
	assert.True(t, recs[1].RelationLoaded("target"))
	assert.Nil(t, recs[1].One("target"))
}

func TestEagerLoad_HasManyAndBelongsTo(t *testing.T) {
	ctx := context.Background()
	repo, st := newSpyRepo(t)
	ids := testutil.SeedSpies(t, st)
	testutil.SeedTarget(t, st, ids[0], "t1")
	testutil.SeedTarget(t, st, ids[0], "t2")

	recs, err := repo.WithNames("targets").Attributes("name").Get(ctx)
	require.NoError(t, err)
	assert.Len(t, recs[0].Many("targets"), 2)
	assert.NotNil(t, recs[1].Many("targets"))
	assert.Empty(t, recs[1].Many("targets"))

	targets, err := New(st, repo.Schema(), "Target")
	require.NoError(t, err)
	trecs, err := targets.With(query.Rel("spy", "name")).Get(ctx, "name")
	require.NoError(t, err)
	require.Len(t, trecs, 2)
	for _, tr := range trecs {
		spy := tr.One("spy")
		require.NotNil(t, spy)
		assert.Equal(t, "mark", spy.Value("name"))
	}
}

func TestEagerLoad_UnknownRelation(t *testing.T) {
	repo, _ := newSpyRepo(t)
	_, err := repo.WithNames("handlers").Get(context.Background())
	require.Error(t, err)
	assert.True(t, IsQueryExecution(err))
}

func TestApplyParams(t *testing.T) {
	ctx := context.Background()
	repo, st := newSpyRepo(t)
	ids := testutil.SeedSpies(t, st)
	testutil.SeedTarget(t, st, ids[2], "lisbon")

	p, err := query.ParseParams([]byte(`
relations:
  target: [name]
attributes: [name, xp]
filters:
  xp:
    ">": 100
sort:
  xp: desc
per_page: 1
page: 1
`))
	require.NoError(t, err)

	recs, err := repo.ApplyParams(p).Get(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "janelle", recs[0].Value("name"))
	assert.Equal(t, "lisbon", recs[0].One("target").Value("name"))
}

func TestFresh_IndependentState(t *testing.T) {
	repo, st := newSpyRepo(t)
	testutil.SeedSpies(t, st)

	repo.Filters(map[string]any{"name": "mark"})
	fresh := repo.Fresh()

	recs, err := fresh.Get(context.Background())
	require.NoError(t, err)
	assert.Len(t, recs, 3)

	recs, err = repo.Get(context.Background())
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestCollectionJSON(t *testing.T) {
	repo, st := newSpyRepo(t)
	ids := testutil.SeedSpies(t, st, testutil.Spy{Username: "m", Name: "mark", XP: 1})
	testutil.SeedTarget(t, st, ids[0], "oslo")

	recs, err := repo.WithNames("target").Attributes("name").Get(context.Background())
	require.NoError(t, err)
	out, err := recs.First().MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"name":"mark","target":{"id":1,"spy_id":1,"name":"oslo"}}`, string(out))
}

