// Package store executes compiled queries against a relational database.
//
// The store is the capability the repository layer depends on: row reads
// for a queryir.Select, counts, single-row insert and update by key, bulk
// delete by key list, and column listing for schema introspection.
//
// # Drivers
//
//   - sqlite3 (github.com/mattn/go-sqlite3): default, used by tests
//   - pgx (github.com/jackc/pgx/v5/stdlib): PostgreSQL
//
// # Database Configuration (SQLite)
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// # Transactions
//
// The store never opens a transaction on its own. RunInTx places a *sql.Tx
// in the context and every store call made with that context runs inside
// it.
//
// # Rows
//
// Rows come back as map[string]any keyed by column name. []byte values are
// converted to string so records compare and print the same way across
// drivers.
package store
