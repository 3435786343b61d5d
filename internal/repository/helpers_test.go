package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/repokit/internal/store"
	"github.com/roach88/repokit/internal/testutil"
)

// newSpyRepo returns a Spy repository over a fresh fixture store.
func newSpyRepo(t *testing.T, opts ...Option) (*Repository, *store.Store) {
	t.Helper()
	st := testutil.OpenStore(t)
	opts = append([]Option{WithClock(testutil.NewStepClock(testutil.Epoch, 0).Now)}, opts...)
	repo, err := New(st, testutil.SpySchema(t), "Spy", opts...)
	require.NoError(t, err)
	return repo, st
}

// names plucks the name attribute of every record.
func names(t *testing.T, recs []any) []string {
	t.Helper()
	out := make([]string, len(recs))
	for i, v := range recs {
		s, ok := v.(string)
		require.True(t, ok, "name %v is %T", v, v)
		out[i] = s
	}
	return out
}

func countSpies(t *testing.T, st *store.Store) int64 {
	t.Helper()
	repo, err := New(st, testutil.SpySchema(t), "Spy")
	require.NoError(t, err)
	n, err := repo.Count(context.Background())
	require.NoError(t, err)
	return n
}
