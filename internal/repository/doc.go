// Package repository is the per-entity data-access façade.
//
// A Repository composes a query.Spec (reads), a validation.Engine and the
// persistence orchestrator (writes) on top of a Store.
//
// # Builder state
//
// Builder methods (With, Attributes, Filters, Where, Sort, HasRelation,
// Limit, Offset, ApplyParams) mutate the repository and return it for
// chaining. Every terminal call (Get, All, Find*, First*, Paginate, Search,
// Count, Compile) consumes the accumulated state and resets it, whether it
// succeeds or fails. A Repository is request-scoped and not safe for
// concurrent use; Registry.Fresh hands out independent copies.
//
// # Writes
//
// Save, Create and Update take an Input, a small sum type built with
// Single, SingleAttrs, Many, ManyAttrs or ManyRecords. For attribute maps,
// the presence of the primary key decides between update and create
// (see MakeModel). Batches run in input order and stop at the first
// failure; items already written stay written. Callers needing atomicity
// wrap the call in store.RunInTx.
//
// With WithSaveRecursive, saving a record also saves every association
// currently attached to it, in declaration order.
package repository
