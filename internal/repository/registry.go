package repository

import (
	"sort"
	"strings"

	"github.com/roach88/repokit/internal/record"
)

// Registry maps repository names to configured repositories.
type Registry struct {
	repos map[string]*Repository
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{repos: make(map[string]*Repository)}
}

// RepositoryName derives the registry name of an entity or repository
// type name: a "Repository" suffix is dropped and the rest snake cased,
// so "SpyTargetRepository" and "SpyTarget" both give "spy_target".
func RepositoryName(name string) string {
	name = strings.TrimSuffix(name, "Repository")
	return record.SnakeCase(name)
}

// Add registers repo under its entity's name. A repository without a
// registry is attached to this one.
func (g *Registry) Add(repo *Repository) *Registry {
	return g.AddNamed(RepositoryName(repo.entity.Name), repo)
}

// AddNamed registers repo under name.
func (g *Registry) AddNamed(name string, repo *Repository) *Registry {
	if repo.registry == nil {
		repo.registry = g
	}
	g.repos[RepositoryName(name)] = repo
	return g
}

// Get returns the shared repository registered under name.
func (g *Registry) Get(name string) (*Repository, bool) {
	repo, ok := g.repos[RepositoryName(name)]
	return repo, ok
}

// Fresh returns an independent copy of the named repository with empty
// builder state.
func (g *Registry) Fresh(name string) (*Repository, bool) {
	repo, ok := g.Get(name)
	if !ok {
		return nil, false
	}
	return repo.Fresh(), true
}

// Names returns the registered names in sorted order.
func (g *Registry) Names() []string {
	names := make([]string, 0, len(g.repos))
	for n := range g.repos {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
