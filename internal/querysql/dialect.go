package querysql

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect selects the SQL spelling for one database family.
type Dialect int

const (
	// SQLite uses ? placeholders and case-insensitive LIKE.
	SQLite Dialect = iota

	// Postgres uses $n placeholders and ILIKE.
	Postgres
)

// DialectFor maps a database/sql driver name to its dialect.
func DialectFor(driver string) (Dialect, error) {
	switch strings.ToLower(driver) {
	case "sqlite3", "sqlite":
		return SQLite, nil
	case "pgx", "postgres", "postgresql":
		return Postgres, nil
	default:
		return SQLite, fmt.Errorf("unsupported driver %q", driver)
	}
}

// String returns the dialect name.
func (d Dialect) String() string {
	if d == Postgres {
		return "postgres"
	}
	return "sqlite"
}

// Placeholder returns the parameter marker for the n-th (1-based) parameter.
func (d Dialect) Placeholder(n int) string {
	if d == Postgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// Like returns the case-insensitive pattern match operator.
func (d Dialect) Like() string {
	if d == Postgres {
		return "ILIKE"
	}
	return "LIKE"
}

// Quote quotes an identifier. Dotted names are quoted per segment and a
// bare * is left alone.
//
// SQLite uses backticks: a double-quoted name that matches no column is
// read as a string literal there, backticks are always identifiers.
func (d Dialect) Quote(ident string) string {
	if ident == "*" {
		return ident
	}
	q := "`"
	if d == Postgres {
		q = `"`
	}
	parts := strings.Split(ident, ".")
	for i, p := range parts {
		if p == "*" {
			continue
		}
		parts[i] = q + strings.ReplaceAll(p, q, q+q) + q
	}
	return strings.Join(parts, ".")
}
