// Package record provides the in-memory model the repository layer works on.
//
// This package contains no storage code. Every other internal package
// imports record; record imports nothing internal.
//
// Key concepts:
//   - Entity: static metadata for one table (primary key, columns,
//     fillable attributes, associations)
//   - Schema: the set of entities known to a process, looked up by name
//   - Record: one row, with its attribute map, original values, the
//     persisted flag and any loaded associations
//   - Collection: an ordered slice of records
//
// Dirty tracking compares current attributes against the values captured at
// load time (or after the last commit). Numeric values are normalized before
// comparison so an int set by a caller equals the int64 read back from the
// driver.
package record
