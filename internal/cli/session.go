package cli

import (
	"fmt"
	"log/slog"

	"github.com/roach88/repokit/internal/repository"
	"github.com/roach88/repokit/internal/schema"
	"github.com/roach88/repokit/internal/store"
)

// session is the schema, store and repositories one command works with.
type session struct {
	Schema   *schema.Result
	Store    *store.Store
	Registry *repository.Registry
}

// openSession loads the schema, opens the database and registers one
// repository per entity.
func openSession(opts *RootOptions) (*session, error) {
	cfg := opts.Config

	result, err := schema.LoadDir(cfg.SchemaDir)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load schema", err)
	}

	st, err := store.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "open database", err)
	}

	reg := repository.NewRegistry()
	for _, name := range result.Schema.Names() {
		repo, err := repository.New(st, result.Schema, name,
			repository.WithRules(result.RulesFor(name)),
			repository.WithSaveRecursive(cfg.SaveRecursive),
			repository.WithRegistry(reg),
		)
		if err != nil {
			st.Close()
			return nil, WrapExitError(ExitCommandError, "build repository "+name, err)
		}
		reg.Add(repo)
	}

	slog.Debug("session opened",
		"driver", cfg.Driver,
		"schema_dir", cfg.SchemaDir,
		"entities", len(result.Schema.Names()),
	)
	return &session{Schema: result, Store: st, Registry: reg}, nil
}

// Repository returns a fresh repository for entity.
func (s *session) Repository(entity string) (*repository.Repository, error) {
	repo, ok := s.Registry.Fresh(entity)
	if !ok {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("unknown entity %q (known: %v)", entity, s.Registry.Names()))
	}
	return repo, nil
}

func (s *session) Close() error {
	return s.Store.Close()
}
