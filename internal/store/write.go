package store

import (
	"context"
)

// Insert writes one row and returns the key the database reports for it.
func (s *Store) Insert(ctx context.Context, table, key string, attrs map[string]any) (any, error) {
	query, params := s.compiler.CompileInsert(table, key, attrs)

	var id any
	if err := s.conn(ctx).QueryRowContext(ctx, query, params...).Scan(&id); err != nil {
		return nil, &QueryError{Op: "insert " + table, SQL: query, Err: err}
	}
	if b, ok := id.([]byte); ok {
		id = string(b)
	}
	return id, nil
}

// Update writes attrs to the row with the given key and returns the number
// of rows affected. Empty attrs is a no-op.
func (s *Store) Update(ctx context.Context, table, key string, id any, attrs map[string]any) (int64, error) {
	if len(attrs) == 0 {
		return 0, nil
	}
	query, params := s.compiler.CompileUpdate(table, key, id, attrs)

	res, err := s.conn(ctx).ExecContext(ctx, query, params...)
	if err != nil {
		return 0, &QueryError{Op: "update " + table, SQL: query, Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, &QueryError{Op: "update " + table, SQL: query, Err: err}
	}
	return n, nil
}

// DeleteByKeys removes every row whose key is in ids and returns the
// number removed. An empty id list is a no-op.
func (s *Store) DeleteByKeys(ctx context.Context, table, key string, ids []any) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, params := s.compiler.CompileDelete(table, key, ids)

	res, err := s.conn(ctx).ExecContext(ctx, query, params...)
	if err != nil {
		return 0, &QueryError{Op: "delete " + table, SQL: query, Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, &QueryError{Op: "delete " + table, SQL: query, Err: err}
	}
	return n, nil
}
