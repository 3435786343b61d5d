package repository

import (
	"context"
	"fmt"

	"github.com/roach88/repokit/internal/record"
)

// cascade saves every association attached to rec, in declaration order.
// Children of has-one and has-many associations get their foreign key set
// from rec; for belongs-to the parent is saved first and rec's foreign key
// is then pointed at it.
func (r *Repository) cascade(ctx context.Context, rec *record.Record, run *saveRun) error {
	for _, assoc := range r.entity.Associations {
		if !rec.RelationLoaded(assoc.Name) {
			continue
		}
		_, related, err := r.schema.Related(r.entity, assoc.Name)
		if err != nil {
			return err
		}
		repo, err := r.repositoryFor(related)
		if err != nil {
			return err
		}
		local, remote := assoc.Keys(r.entity, related)

		switch assoc.Kind {
		case record.BelongsTo:
			parent := rec.One(assoc.Name)
			if parent == nil {
				continue
			}
			if err := repo.saveRecord(ctx, parent, run); err != nil {
				return fmt.Errorf("cascade %s.%s: %w", r.entity.Name, assoc.Name, err)
			}
			if !record.Equal(rec.Value(local), parent.Value(remote)) {
				rec.Set(local, parent.Value(remote))
				if err := r.commit(ctx, rec); err != nil {
					return err
				}
			}
		default:
			var children record.Collection
			if assoc.Many() {
				children = rec.Many(assoc.Name)
			} else if child := rec.One(assoc.Name); child != nil {
				children = record.Collection{child}
			}
			for _, child := range children {
				if child == nil {
					continue
				}
				if !record.Equal(child.Value(remote), rec.Value(local)) {
					child.Set(remote, rec.Value(local))
				}
				if err := repo.saveRecord(ctx, child, run); err != nil {
					return fmt.Errorf("cascade %s.%s: %w", r.entity.Name, assoc.Name, err)
				}
			}
		}
	}
	return nil
}

// repositoryFor returns the repository saving related records. With a
// registry attached the related entity must be registered there, so its
// rules, checks and hooks apply to cascaded records. Without a registry a
// plain repository on the same store is used: it shares this repository's
// clock and validator but has no rules, checks or hooks of its own.
func (r *Repository) repositoryFor(related *record.Entity) (*Repository, error) {
	if related == r.entity {
		return r, nil
	}
	if r.registry == nil {
		return New(r.store, r.schema, related.Name, WithClock(r.now), WithValidator(r.validator))
	}
	repo, ok := r.registry.Get(related.Name)
	if !ok {
		return nil, fmt.Errorf("cascade %s into %s: no repository registered for %q", r.entity.Name, related.Name, RepositoryName(related.Name))
	}
	return repo, nil
}
