package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/repokit/internal/querysql"
)

// Store wraps a database handle and the SQL compiler for its dialect.
type Store struct {
	db       *sql.DB
	dialect  querysql.Dialect
	compiler *querysql.SQLCompiler
}

// Open connects to a database through a database/sql driver ("sqlite3" or
// "pgx"). SQLite connections get the pragmas listed in the package doc.
func Open(driver, dsn string) (*Store, error) {
	dialect, err := querysql.DialectFor(driver)
	if err != nil {
		return nil, err
	}
	if dialect == querysql.SQLite {
		return OpenSQLite(dsn)
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return New(db, querysql.Postgres), nil
}

// OpenSQLite creates or opens a SQLite database at the given path.
//
// This function is idempotent - safe to call multiple times.
func OpenSQLite(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	return New(db, querysql.SQLite), nil
}

// New wraps an existing handle.
func New(db *sql.DB, dialect querysql.Dialect) *Store {
	return &Store{
		db:       db,
		dialect:  dialect,
		compiler: querysql.NewSQLCompiler(dialect),
	}
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Dialect returns the SQL dialect of the connection.
func (s *Store) Dialect() querysql.Dialect {
	return s.dialect
}

// Compiler returns the SQL compiler bound to the store's dialect.
func (s *Store) Compiler() *querysql.SQLCompiler {
	return s.compiler
}

// Exec runs a statement that returns no rows, inside the context
// transaction if there is one.
func (s *Store) Exec(ctx context.Context, query string, args ...any) error {
	if _, err := s.conn(ctx).ExecContext(ctx, query, args...); err != nil {
		return &QueryError{Op: "exec", SQL: query, Err: err}
	}
	return nil
}

// Migrate applies numbered DDL scripts in order, recording progress in a
// schema_migrations table. Scripts already applied are skipped, so calling
// Migrate again with an extended list only runs the new tail.
func (s *Store) Migrate(ctx context.Context, scripts []string) error {
	if err := s.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER NOT NULL PRIMARY KEY)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	var version int
	row := s.conn(ctx).QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`)
	if err := row.Scan(&version); err != nil {
		return fmt.Errorf("get schema version: %w", err)
	}

	for i := version; i < len(scripts); i++ {
		if err := s.RunInTx(ctx, func(ctx context.Context) error {
			for _, stmt := range splitStatements(scripts[i]) {
				if err := s.Exec(ctx, stmt); err != nil {
					return err
				}
			}
			return s.Exec(ctx, "INSERT INTO schema_migrations (version) VALUES ("+s.dialect.Placeholder(1)+")", i+1)
		}); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
	}
	return nil
}

// splitStatements splits a script on semicolons. Scripts must not embed
// semicolons inside literals.
func splitStatements(script string) []string {
	var out []string
	for _, stmt := range strings.Split(script, ";") {
		if strings.TrimSpace(stmt) != "" {
			out = append(out, strings.TrimSpace(stmt))
		}
	}
	return out
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}
