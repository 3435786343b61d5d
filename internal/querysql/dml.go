package querysql

import (
	"sort"
	"strings"
)

// sortedKeys returns map keys in a stable order so statements and their
// parameter lists line up deterministically.
func sortedKeys(attrs map[string]any) []string {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// CompileInsert renders an INSERT that returns the generated key.
func (c *SQLCompiler) CompileInsert(table, key string, attrs map[string]any) (string, []any) {
	comp := &compilation{d: c.Dialect}
	q := c.Dialect.Quote(table)

	if len(attrs) == 0 {
		return "INSERT INTO " + q + " DEFAULT VALUES RETURNING " + c.Dialect.Quote(key), nil
	}

	cols := sortedKeys(attrs)
	quoted := make([]string, len(cols))
	marks := make([]string, len(cols))
	for i, col := range cols {
		quoted[i] = c.Dialect.Quote(col)
		marks[i] = comp.bind(attrs[col])
	}

	sql := "INSERT INTO " + q + " (" + strings.Join(quoted, ", ") + ") VALUES (" +
		strings.Join(marks, ", ") + ") RETURNING " + c.Dialect.Quote(key)
	return sql, comp.params
}

// CompileUpdate renders an UPDATE of one row by key.
// attrs must be non-empty.
func (c *SQLCompiler) CompileUpdate(table, key string, id any, attrs map[string]any) (string, []any) {
	comp := &compilation{d: c.Dialect}

	cols := sortedKeys(attrs)
	sets := make([]string, len(cols))
	for i, col := range cols {
		sets[i] = c.Dialect.Quote(col) + " = " + comp.bind(attrs[col])
	}

	sql := "UPDATE " + c.Dialect.Quote(table) + " SET " + strings.Join(sets, ", ") +
		" WHERE " + c.Dialect.Quote(key) + " = " + comp.bind(id)
	return sql, comp.params
}

// CompileDelete renders a bulk DELETE by key. ids must be non-empty.
func (c *SQLCompiler) CompileDelete(table, key string, ids []any) (string, []any) {
	comp := &compilation{d: c.Dialect}
	where := comp.membership(key, ids, "IN", "1 = 0")
	return "DELETE FROM " + c.Dialect.Quote(table) + " WHERE " + where, comp.params
}

// CompileColumns renders the schema introspection query listing a table's
// columns in declaration order.
func (c *SQLCompiler) CompileColumns(table string) (string, []any) {
	if c.Dialect == Postgres {
		return "SELECT column_name FROM information_schema.columns " +
			"WHERE table_schema = current_schema() AND table_name = $1 " +
			"ORDER BY ordinal_position", []any{table}
	}
	return "SELECT name FROM pragma_table_info(?) ORDER BY cid", []any{table}
}
