package builder

import (
	"github.com/roach88/querygate/internal/queryir"
	"github.com/roach88/querygate/internal/schema"
)

// phase tracks the clause the builder last accepted. Methods may only
// move the phase forward; a backwards call is a misuse.
type phase int

const (
	phaseStart phase = iota
	phaseSelect
	phaseFrom
	phaseJoin
	phaseWhere
	phaseOrder
	phasePage
	phaseBuilt
)

func (p phase) String() string {
	switch p {
	case phaseStart:
		return "start"
	case phaseSelect:
		return "select"
	case phaseFrom:
		return "from"
	case phaseJoin:
		return "join"
	case phaseWhere:
		return "where"
	case phaseOrder:
		return "order by"
	case phasePage:
		return "pagination"
	case phaseBuilt:
		return "built"
	default:
		return "unknown"
	}
}

// QueryBuilder assembles a QueryDescription clause by clause. Zero value
// is not usable; construct with NewQuery.
type QueryBuilder struct {
	desc  queryir.QueryDescription
	phase phase
	err   error
}

// NewQuery starts a fresh query builder.
func NewQuery() *QueryBuilder {
	return &QueryBuilder{}
}

// advance checks the phase window for op and moves the builder forward.
// On violation it records the misuse and reports false; the caller then
// skips its mutation, leaving the builder poisoned but chainable.
func (b *QueryBuilder) advance(op string, min, max, next phase) bool {
	if b.err != nil {
		return false
	}
	if b.phase < min || b.phase > max {
		b.err = errMisuse(op, "not allowed in phase %q", b.phase)
		return false
	}
	b.phase = next
	return true
}

// Select sets the projection. It must be the first call and the list
// must be non-empty.
func (b *QueryBuilder) Select(exprs ...string) *QueryBuilder {
	if !b.advance("Select", phaseStart, phaseStart, phaseSelect) {
		return b
	}
	if len(exprs) == 0 {
		b.err = errMisuse("Select", "projection list is empty")
		return b
	}
	b.desc.Select = exprs
	return b
}

// From sets the base table. Optional: endpoints compiling against a
// fixed FROM or a named template leave it unset.
func (b *QueryBuilder) From(table, alias string) *QueryBuilder {
	if !b.advance("From", phaseSelect, phaseSelect, phaseFrom) {
		return b
	}
	b.desc.From = &queryir.TableRef{Table: table, Alias: alias}
	return b
}

// InnerJoin adds an INNER JOIN. The closure builds the ON tree.
func (b *QueryBuilder) InnerJoin(table, alias string, on func(*ConditionBuilder)) *QueryBuilder {
	return b.join("InnerJoin", queryir.InnerJoin, table, alias, on)
}

// LeftJoin adds a LEFT JOIN.
func (b *QueryBuilder) LeftJoin(table, alias string, on func(*ConditionBuilder)) *QueryBuilder {
	return b.join("LeftJoin", queryir.LeftJoin, table, alias, on)
}

// RightJoin adds a RIGHT JOIN.
func (b *QueryBuilder) RightJoin(table, alias string, on func(*ConditionBuilder)) *QueryBuilder {
	return b.join("RightJoin", queryir.RightJoin, table, alias, on)
}

// FullJoin adds a FULL JOIN.
func (b *QueryBuilder) FullJoin(table, alias string, on func(*ConditionBuilder)) *QueryBuilder {
	return b.join("FullJoin", queryir.FullJoin, table, alias, on)
}

func (b *QueryBuilder) join(op string, kind queryir.JoinKind, table, alias string, on func(*ConditionBuilder)) *QueryBuilder {
	if !b.advance(op, phaseSelect, phaseJoin, phaseJoin) {
		return b
	}
	cb := newConditionBuilder()
	if on != nil {
		on(cb)
	}
	b.desc.Joins = append(b.desc.Joins, queryir.JoinClause{
		Kind:  kind,
		Table: table,
		Alias: alias,
		On:    cb.Group(),
	})
	return b
}

// Where builds the filter tree. At most one Where per query; nest groups
// inside the closure instead of calling it twice.
func (b *QueryBuilder) Where(fn func(*ConditionBuilder)) *QueryBuilder {
	if !b.advance("Where", phaseSelect, phaseJoin, phaseWhere) {
		return b
	}
	cb := newConditionBuilder()
	fn(cb)
	b.desc.Where = cb.Group()
	return b
}

// OrderBy appends one sort key. Call repeatedly for multi-key sorts.
func (b *QueryBuilder) OrderBy(column string, direction queryir.SortDirection) *QueryBuilder {
	if !b.advance("OrderBy", phaseSelect, phaseOrder, phaseOrder) {
		return b
	}
	b.desc.OrderBy = append(b.desc.OrderBy, queryir.SortKey{Column: column, Direction: direction})
	return b
}

// Limit caps the row count. Negative limits are a misuse.
func (b *QueryBuilder) Limit(n int) *QueryBuilder {
	if !b.advance("Limit", phaseSelect, phasePage, phasePage) {
		return b
	}
	if n < 0 {
		b.err = errMisuse("Limit", "negative limit %d", n)
		return b
	}
	if b.desc.Limit != nil {
		b.err = errMisuse("Limit", "limit already set")
		return b
	}
	b.desc.Limit = &n
	return b
}

// Offset skips the first n rows. Negative offsets are a misuse.
func (b *QueryBuilder) Offset(n int) *QueryBuilder {
	if !b.advance("Offset", phaseSelect, phasePage, phasePage) {
		return b
	}
	if n < 0 {
		b.err = errMisuse("Offset", "negative offset %d", n)
		return b
	}
	if b.desc.Offset != nil {
		b.err = errMisuse("Offset", "offset already set")
		return b
	}
	b.desc.Offset = &n
	return b
}

// Build finalizes the description. It returns the first misuse recorded
// during the chain, or the first grammar violation found in the finished
// trees. Build may be called once.
func (b *QueryBuilder) Build() (*queryir.QueryDescription, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.phase == phaseBuilt {
		return nil, errMisuse("Build", "builder already built")
	}
	if b.phase == phaseStart {
		return nil, errMisuse("Build", "no clauses were added")
	}
	b.phase = phaseBuilt

	desc := b.desc
	if err := queryir.ValidateDescription(&desc); err != nil {
		return nil, err
	}
	return &desc, nil
}

// TemplateBuilder assembles a named join template: a FROM plus its JOINs
// and nothing else. Filter, sort, and pagination clauses do not exist on
// this variant, so a template can never smuggle them in.
type TemplateBuilder struct {
	from  *queryir.TableRef
	joins []queryir.JoinClause
	err   error
	built bool
}

// NewTemplate starts a fresh template builder.
func NewTemplate() *TemplateBuilder {
	return &TemplateBuilder{}
}

// From sets the template's base table. Required, exactly once.
func (t *TemplateBuilder) From(table, alias string) *TemplateBuilder {
	if t.err != nil {
		return t
	}
	if t.from != nil {
		t.err = errMisuse("From", "template base table already set")
		return t
	}
	t.from = &queryir.TableRef{Table: table, Alias: alias}
	return t
}

// InnerJoin adds an INNER JOIN to the template.
func (t *TemplateBuilder) InnerJoin(table, alias string, on func(*ConditionBuilder)) *TemplateBuilder {
	return t.join("InnerJoin", queryir.InnerJoin, table, alias, on)
}

// LeftJoin adds a LEFT JOIN to the template.
func (t *TemplateBuilder) LeftJoin(table, alias string, on func(*ConditionBuilder)) *TemplateBuilder {
	return t.join("LeftJoin", queryir.LeftJoin, table, alias, on)
}

func (t *TemplateBuilder) join(op string, kind queryir.JoinKind, table, alias string, on func(*ConditionBuilder)) *TemplateBuilder {
	if t.err != nil {
		return t
	}
	if t.from == nil {
		t.err = errMisuse(op, "template join before From")
		return t
	}
	cb := newConditionBuilder()
	if on != nil {
		on(cb)
	}
	t.joins = append(t.joins, queryir.JoinClause{Kind: kind, Table: table, Alias: alias, On: cb.Group()})
	return t
}

// Build finalizes the template.
func (t *TemplateBuilder) Build() (schema.JoinTemplate, error) {
	if t.err != nil {
		return schema.JoinTemplate{}, t.err
	}
	if t.built {
		return schema.JoinTemplate{}, errMisuse("Build", "builder already built")
	}
	if t.from == nil {
		return schema.JoinTemplate{}, errMisuse("Build", "template has no base table")
	}
	t.built = true

	for i, join := range t.joins {
		if join.On != nil {
			if err := queryir.ValidateNode(join.On); err != nil {
				return schema.JoinTemplate{}, errMisuse("Build", "join %d: %v", i, err)
			}
		}
	}
	return schema.JoinTemplate{From: *t.from, Joins: t.joins}, nil
}
