package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/repokit/internal/queryir"
)

// SQLCompiler compiles queryir queries to parameterized SQL.
//
// All values are bound as parameters and every identifier is quoted.
// Every Select ends its ORDER BY with the primary key so results are
// deterministic across pages.
type SQLCompiler struct {
	Dialect Dialect
}

// NewSQLCompiler creates a compiler for a dialect.
func NewSQLCompiler(d Dialect) *SQLCompiler {
	return &SQLCompiler{Dialect: d}
}

// compilation accumulates parameters for one statement so placeholder
// numbering stays consistent across clauses.
type compilation struct {
	d      Dialect
	outer  string
	params []any
}

func (c *compilation) bind(v any) string {
	c.params = append(c.params, v)
	return c.d.Placeholder(len(c.params))
}

// Compile converts a query to SQL.
// Returns (sql, params, error).
func (c *SQLCompiler) Compile(q queryir.Query) (string, []any, error) {
	if q == nil {
		return "", nil, fmt.Errorf("cannot compile nil query")
	}
	if err := queryir.Validate(q).Err(); err != nil {
		return "", nil, err
	}

	switch query := q.(type) {
	case queryir.Select:
		return c.compileSelect(query)
	case *queryir.Select:
		return c.compileSelect(*query)
	case queryir.Count:
		return c.compileCount(query)
	case *queryir.Count:
		return c.compileCount(*query)
	default:
		return "", nil, fmt.Errorf("unsupported query type: %T", q)
	}
}

func (c *SQLCompiler) compileSelect(q queryir.Select) (string, []any, error) {
	comp := &compilation{d: c.Dialect, outer: q.From}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(c.compileColumns(q.Columns))
	sb.WriteString(" FROM ")
	sb.WriteString(c.Dialect.Quote(q.From))

	if q.Filter != nil {
		where, err := comp.predicate(q.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		sb.WriteString(" WHERE ")
		sb.WriteString(where)
	}

	if order := c.compileOrder(q); order != "" {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(order)
	}

	if q.Limit > 0 {
		sb.WriteString(" LIMIT ")
		sb.WriteString(comp.bind(int64(q.Limit)))
		sb.WriteString(" OFFSET ")
		sb.WriteString(comp.bind(int64(q.Offset)))
	}

	return sb.String(), comp.params, nil
}

func (c *SQLCompiler) compileCount(q queryir.Count) (string, []any, error) {
	comp := &compilation{d: c.Dialect, outer: q.From}

	sql := "SELECT COUNT(*) FROM " + c.Dialect.Quote(q.From)
	if q.Filter != nil {
		where, err := comp.predicate(q.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		sql += " WHERE " + where
	}
	return sql, comp.params, nil
}

func (c *SQLCompiler) compileColumns(cols []string) string {
	if len(cols) == 0 {
		return "*"
	}
	quoted := make([]string, len(cols))
	for i, col := range cols {
		quoted[i] = c.Dialect.Quote(col)
	}
	return strings.Join(quoted, ", ")
}

// compileOrder renders the caller's sort keys followed by the primary key
// tiebreaker.
func (c *SQLCompiler) compileOrder(q queryir.Select) string {
	var parts []string
	sawKey := false
	for _, o := range q.OrderBy {
		if o.Field == q.Key {
			sawKey = true
		}
		parts = append(parts, c.Dialect.Quote(o.Field)+" "+string(o.Direction))
	}
	if q.Key != "" && !sawKey {
		parts = append(parts, c.Dialect.Quote(q.Key)+" "+string(queryir.Asc))
	}
	return strings.Join(parts, ", ")
}

func (c *compilation) predicate(p queryir.Predicate) (string, error) {
	if p == nil {
		return "1 = 1", nil
	}

	switch pred := p.(type) {
	case queryir.In:
		return c.membership(pred.Field, pred.Values, "IN", "1 = 0"), nil
	case queryir.NotIn:
		return c.membership(pred.Field, pred.Values, "NOT IN", "1 = 1"), nil
	case queryir.IsNull:
		return c.d.Quote(pred.Field) + " IS NULL", nil
	case queryir.NotNull:
		return c.d.Quote(pred.Field) + " IS NOT NULL", nil
	case queryir.Compare:
		return c.compare(pred), nil
	case queryir.Fuzzy:
		return c.fuzzy(pred), nil
	case queryir.Has:
		return c.has(pred), nil
	case queryir.And:
		return c.and(pred)
	default:
		return "", fmt.Errorf("unsupported predicate type: %T", p)
	}
}

// membership renders IN / NOT IN; an empty set collapses to a constant.
func (c *compilation) membership(field string, values []any, op, empty string) string {
	if len(values) == 0 {
		return empty
	}
	marks := make([]string, len(values))
	for i, v := range values {
		marks[i] = c.bind(v)
	}
	return fmt.Sprintf("%s %s (%s)", c.d.Quote(field), op, strings.Join(marks, ", "))
}

func (c *compilation) compare(cmp queryir.Compare) string {
	op := strings.ToUpper(cmp.Op)
	if op == "ILIKE" && c.d == SQLite {
		op = "LIKE"
	}
	return fmt.Sprintf("%s %s %s", c.d.Quote(cmp.Field), op, c.bind(cmp.Value))
}

func (c *compilation) fuzzy(f queryir.Fuzzy) string {
	if len(f.Fields) == 0 {
		return "1 = 0"
	}
	parts := make([]string, len(f.Fields))
	for i, field := range f.Fields {
		parts[i] = fmt.Sprintf("%s %s %s", c.d.Quote(field), c.d.Like(), c.bind(f.Pattern))
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}

func (c *compilation) has(h queryir.Has) string {
	return fmt.Sprintf("(SELECT COUNT(*) FROM %s WHERE %s = %s) %s %s",
		c.d.Quote(h.Table),
		c.d.Quote(h.Table+"."+h.RemoteColumn),
		c.d.Quote(c.outer+"."+h.LocalColumn),
		h.Op,
		c.bind(int64(h.Count)))
}

func (c *compilation) and(and queryir.And) (string, error) {
	if len(and.Predicates) == 0 {
		return "1 = 1", nil
	}
	parts := make([]string, 0, len(and.Predicates))
	for _, p := range and.Predicates {
		sql, err := c.predicate(p)
		if err != nil {
			return "", err
		}
		parts = append(parts, sql)
	}
	return strings.Join(parts, " AND "), nil
}
