package queryir

import (
	"reflect"
	"strings"
)

// Combinator joins the children of a Group.
type Combinator string

const (
	And Combinator = "AND"
	Or  Combinator = "OR"
)

// Valid reports whether the combinator is one of the two known values.
func (c Combinator) Valid() bool {
	return c == And || c == Or
}

// Op is a comparison operator in a condition leaf.
type Op string

const (
	OpEq        Op = "="
	OpNotEq     Op = "!="
	OpGt        Op = ">"
	OpLt        Op = "<"
	OpGte       Op = ">="
	OpLte       Op = "<="
	OpIn        Op = "IN"
	OpNotIn     Op = "NOT IN"
	OpLike      Op = "LIKE"
	OpIsNull    Op = "IS NULL"
	OpIsNotNull Op = "IS NOT NULL"
)

// Valid reports whether the operator is part of the closed operator set.
func (o Op) Valid() bool {
	switch o {
	case OpEq, OpNotEq, OpGt, OpLt, OpGte, OpLte, OpIn, OpNotIn, OpLike, OpIsNull, OpIsNotNull:
		return true
	}
	return false
}

// TakesValue reports whether the operator compares against a value.
// IS NULL and IS NOT NULL are the only operators that carry none.
func (o Op) TakesValue() bool {
	return o != OpIsNull && o != OpIsNotNull
}

// TakesList reports whether the operator compares against a value list.
func (o Op) TakesList() bool {
	return o == OpIn || o == OpNotIn
}

// Node represents one node of a condition tree.
//
// This is a sealed interface - only types in this package implement it.
// The marker method pattern prevents external implementations and enables
// exhaustive type switches in the SQL compiler.
type Node interface {
	conditionNode() // Marker method - seals interface to this package
}

// Condition is a leaf comparing a column to a value.
//
// Column is either a bare column name (single-table queries only) or an
// "alias.column" qualified reference. Value is a scalar, or a slice for
// IN / NOT IN, and must be absent for IS NULL / IS NOT NULL.
//
// The value itself is never rendered into SQL text; the compiler assigns
// it a fresh parameter name.
type Condition struct {
	Column string
	Op     Op
	Value  any
}

func (Condition) conditionNode() {}

// ColumnCondition is a leaf comparing two columns, used in join ON trees
// ("w.category_id = pc.category_id"). It consumes no parameters.
type ColumnCondition struct {
	Left  string
	Op    Op
	Right string
}

func (ColumnCondition) conditionNode() {}

// Group combines child nodes with a single combinator. Rendering always
// wraps the children in one parenthesis pair.
type Group struct {
	Combinator Combinator
	Children   []Node
}

func (Group) conditionNode() {}

// NewGroup creates a group with the given combinator and children.
func NewGroup(c Combinator, children ...Node) *Group {
	return &Group{Combinator: c, Children: children}
}

// Append adds child nodes to the group and returns it.
func (g *Group) Append(children ...Node) *Group {
	g.Children = append(g.Children, children...)
	return g
}

// Empty reports whether the group has no children. Empty groups are
// skipped entirely by the compiler (no WHERE clause is emitted).
func (g *Group) Empty() bool {
	return g == nil || len(g.Children) == 0
}

// JoinKind is the SQL join variant.
type JoinKind string

const (
	InnerJoin JoinKind = "INNER"
	LeftJoin  JoinKind = "LEFT"
	RightJoin JoinKind = "RIGHT"
	FullJoin  JoinKind = "FULL"
)

// Valid reports whether the join kind is one of the four known variants.
func (k JoinKind) Valid() bool {
	switch k {
	case InnerJoin, LeftJoin, RightJoin, FullJoin:
		return true
	}
	return false
}

// TableRef names a base table together with the alias it is queried under.
// The pair must match a registry entry exactly before any SQL is produced.
type TableRef struct {
	Table string `json:"table"`
	Alias string `json:"alias"`
}

// JoinClause describes one JOIN: the kind, the joined table/alias pair,
// and the ON condition tree. The ON tree may mix ColumnCondition leaves
// with value conditions, which lets callers fold a filter into the join
// ("anti-join": LEFT JOIN … ON (a.id = b.id AND b.owner = @p0)).
type JoinClause struct {
	Kind  JoinKind `json:"kind"`
	Table string   `json:"table"`
	Alias string   `json:"alias"`
	On    *Group   `json:"on"`
}

// SortDirection orders a sort key.
type SortDirection string

const (
	Asc  SortDirection = "ASC"
	Desc SortDirection = "DESC"
)

// Valid reports whether the direction is ASC or DESC.
func (d SortDirection) Valid() bool {
	return d == Asc || d == Desc
}

// SortKey is one ORDER BY entry.
type SortKey struct {
	Column    string        `json:"column"`
	Direction SortDirection `json:"direction"`
}

// QueryDescription is the complete, immutable description of one query.
// It is constructed once (by the builder or decoded from a payload),
// compiled once, and discarded.
//
// Select and a FROM source (From here, or a fixed/template FROM passed
// to the compiler) are mandatory before compilation.
type QueryDescription struct {
	Select  []string     `json:"select"`
	From    *TableRef    `json:"from,omitempty"`
	Joins   []JoinClause `json:"joins,omitempty"`
	Where   *Group       `json:"where,omitempty"`
	OrderBy []SortKey    `json:"orderBy,omitempty"`
	Limit   *int         `json:"limit,omitempty"`
	Offset  *int         `json:"offset,omitempty"`
}

// SplitColumn splits an "alias.column" reference into its parts.
// A bare column name yields an empty alias.
func SplitColumn(ref string) (alias, column string) {
	if i := strings.IndexByte(ref, '.'); i >= 0 {
		return ref[:i], ref[i+1:]
	}
	return "", ref
}

// ValueList normalizes a condition value into a []any for IN / NOT IN
// rendering. It accepts any slice or array type; everything else reports
// ok=false. A nil value yields an empty list.
func ValueList(v any) ([]any, bool) {
	if v == nil {
		return nil, true
	}
	if vs, ok := v.([]any); ok {
		return vs, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
