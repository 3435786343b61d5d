package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/roach88/repokit/internal/queryir"
)

// Select runs a row query. Returns an empty slice, never nil, when nothing
// matches.
func (s *Store) Select(ctx context.Context, q queryir.Select) ([]map[string]any, error) {
	query, params, err := s.compiler.Compile(q)
	if err != nil {
		return nil, fmt.Errorf("compile select: %w", err)
	}
	slog.Debug("select", "sql", query, "params", params)

	rows, err := s.conn(ctx).QueryContext(ctx, query, params...)
	if err != nil {
		return nil, &QueryError{Op: "select " + q.From, SQL: query, Err: err}
	}
	defer rows.Close()

	result, err := scanRows(rows)
	if err != nil {
		return nil, &QueryError{Op: "select " + q.From, SQL: query, Err: err}
	}
	return result, nil
}

// Count runs an aggregate count.
func (s *Store) Count(ctx context.Context, q queryir.Count) (int64, error) {
	query, params, err := s.compiler.Compile(q)
	if err != nil {
		return 0, fmt.Errorf("compile count: %w", err)
	}
	slog.Debug("count", "sql", query, "params", params)

	var n int64
	if err := s.conn(ctx).QueryRowContext(ctx, query, params...).Scan(&n); err != nil {
		return 0, &QueryError{Op: "count " + q.From, SQL: query, Err: err}
	}
	return n, nil
}

// Columns lists a table's columns in declaration order. An unknown table
// yields an empty list.
func (s *Store) Columns(ctx context.Context, table string) ([]string, error) {
	query, params := s.compiler.CompileColumns(table)

	rows, err := s.conn(ctx).QueryContext(ctx, query, params...)
	if err != nil {
		return nil, &QueryError{Op: "columns " + table, SQL: query, Err: err}
	}
	defer rows.Close()

	cols := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, &QueryError{Op: "columns " + table, SQL: query, Err: err}
		}
		cols = append(cols, name)
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{Op: "columns " + table, SQL: query, Err: err}
	}
	return cols, nil
}

// scanRows reads every row into a column → value map.
func scanRows(rows *sql.Rows) ([]map[string]any, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	result := []map[string]any{}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		row := make(map[string]any, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = values[i]
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return result, nil
}
