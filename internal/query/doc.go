// Package query accumulates read-query intent and compiles it into the
// queryir form the store executes.
//
// A Spec collects eager-load relations, a default projection, filters,
// sort keys, has-relation constraints, a fuzzy search and limit/offset.
// Compile resolves relation names against the record schema and produces a
// Plan: one queryir.Select for the owning entity plus one eager-load step
// per relation.
//
// Compilation order is fixed:
//
//	eager-load → has-relation constraints → filters → search → sort → limit/offset
//
// Attribute names are not checked here. An unknown column fails when the
// store executes the compiled query.
//
// # Filter DSL
//
// Filters map an attribute to either a value (or list of values), meaning
// equality against that set, or to an operator map:
//
//	xp:   [352, 57]                # xp IN (352, 57)
//	xp:   {"!=": [352, 57]}        # xp NOT IN (352, 57)
//	xp:   {">": 100, "<": 200}     # xp > 100 AND xp < 200
//	name: {"nn": true}             # name IS NOT NULL
//
// Operator aliases: e and = mean equality, ne, != and <> mean inequality,
// n means null and nn means not-null. Numeric or empty operator keys mean
// equality. Any other operator is forwarded to the store with the first
// value.
package query
