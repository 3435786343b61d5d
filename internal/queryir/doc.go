// Package queryir provides the abstract read-query representation that the
// repository layer compiles its query builders into.
//
// The IR is the boundary between the query builder and the SQL backend.
// Builders describe intent (which table, which columns, which predicates,
// which order) and backends decide how that intent is spelled for a
// particular dialect.
//
// SEALED INTERFACES:
//
// Query and Predicate are sealed with marker methods, so only types in this
// package implement them. Backends switch over them exhaustively:
//
//	switch q := query.(type) {
//	case Select:
//	    // row query
//	case Count:
//	    // aggregate count
//	default:
//	    // unreachable
//	}
//
// VALUES:
//
// Literal values are carried as plain Go values (string, int64, float64,
// bool, nil). They are always bound as parameters and never spliced into
// query text. Field names and operators are the only caller-controlled
// strings that reach the query text, so Validate checks operators against a
// fixed set and backends quote every identifier.
package queryir
