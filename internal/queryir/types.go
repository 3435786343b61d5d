package queryir

// Query is a read query.
//
// This is a sealed interface. Query types:
//   - Select: rows from one table
//   - Count: number of rows from one table
type Query interface {
	queryNode()
}

// Predicate is a row filter.
//
// This is a sealed interface. Predicate types:
//   - In, NotIn: set membership
//   - IsNull, NotNull: nullity
//   - Compare: field <op> value
//   - Fuzzy: ordered character match across several fields
//   - Has: cardinality of related rows
//   - And: conjunction
type Predicate interface {
	predicateNode()
}

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// Order is one ORDER BY key.
type Order struct {
	Field     string
	Direction Direction
}

// Select reads rows from a table.
//
// Semantics:
//
//	SELECT <columns> FROM <from> WHERE <filter> ORDER BY <order_by>, <key>
//	LIMIT <limit> OFFSET <offset>
//
// Columns empty means every column. Key names the primary key; backends
// append it as a final ascending sort key unless OrderBy already mentions
// it, so paging over equal sort values is stable. Limit zero means no
// limit, and Offset is ignored without a limit.
//
// Example:
//
//	Select{
//	  From:    "spies",
//	  Columns: []string{"id", "name"},
//	  Filter:  In{Field: "xp", Values: []any{352, 57}},
//	  OrderBy: []Order{{Field: "name", Direction: Asc}},
//	  Key:     "id",
//	  Limit:   3,
//	}
//
// Translates to SQLite:
//
//	SELECT "id", "name" FROM "spies" WHERE "xp" IN (?, ?)
//	ORDER BY "name" ASC, "id" ASC LIMIT ? OFFSET ?
type Select struct {
	From    string
	Columns []string
	Filter  Predicate
	OrderBy []Order
	Key     string
	Limit   int
	Offset  int
}

func (Select) queryNode() {}

// Count counts rows matching a filter.
type Count struct {
	From   string
	Filter Predicate
}

func (Count) queryNode() {}

// In matches rows whose field is one of Values. An empty set matches
// nothing.
type In struct {
	Field  string
	Values []any
}

func (In) predicateNode() {}

// NotIn matches rows whose field is none of Values. An empty set matches
// everything.
type NotIn struct {
	Field  string
	Values []any
}

func (NotIn) predicateNode() {}

// IsNull matches rows whose field is NULL.
type IsNull struct {
	Field string
}

func (IsNull) predicateNode() {}

// NotNull matches rows whose field is not NULL.
type NotNull struct {
	Field string
}

func (NotNull) predicateNode() {}

// Compare matches rows where field <Op> Value holds. Op must be one of
// Operators.
type Compare struct {
	Field string
	Op    string
	Value any
}

func (Compare) predicateNode() {}

// Fuzzy matches rows where any of Fields matches Pattern with LIKE
// semantics. Backends pick a case-insensitive form for their dialect.
// No fields matches nothing.
type Fuzzy struct {
	Fields  []string
	Pattern string
}

func (Fuzzy) predicateNode() {}

// Has constrains the number of related rows.
//
// Semantics:
//
//	(SELECT COUNT(*) FROM <table> WHERE <table>.<remote> = <outer>.<local>) <op> <count>
type Has struct {
	Table        string
	RemoteColumn string
	LocalColumn  string
	Op           string
	Count        int
}

func (Has) predicateNode() {}

// And is a conjunction. Empty Predicates is always true.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Operators lists the comparison operators Compare and Has accept.
var Operators = map[string]bool{
	"=":        true,
	"!=":       true,
	"<>":       true,
	"<":        true,
	"<=":       true,
	">":        true,
	">=":       true,
	"like":     true,
	"not like": true,
	"ilike":    true,
}

// CountOperators lists the operators Has accepts.
var CountOperators = map[string]bool{
	"=":  true,
	"!=": true,
	"<>": true,
	"<":  true,
	"<=": true,
	">":  true,
	">=": true,
}
