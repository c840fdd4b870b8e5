package builder

import (
	"github.com/roach88/querygate/internal/queryir"
)

// ConditionBuilder accumulates one condition group. It is handed to the
// closures passed to Where and the join methods; the closure fills it in
// and the finished group is attached to the description.
type ConditionBuilder struct {
	group *queryir.Group
}

func newConditionBuilder() *ConditionBuilder {
	return &ConditionBuilder{group: queryir.NewGroup(queryir.And)}
}

// And appends a column-vs-value condition. Pass nil for value with
// IS NULL / IS NOT NULL operators.
func (c *ConditionBuilder) And(column string, op queryir.Op, value any) *ConditionBuilder {
	c.group.Append(queryir.Condition{Column: column, Op: op, Value: value})
	return c
}

// Or appends a column-vs-value condition and switches the whole group to
// OR. The chain stays flat: And(a).Or(b).Or(c) is one OR group with
// three children.
func (c *ConditionBuilder) Or(column string, op queryir.Op, value any) *ConditionBuilder {
	c.group.Combinator = queryir.Or
	c.group.Append(queryir.Condition{Column: column, Op: op, Value: value})
	return c
}

// AndColumns appends a column-vs-column condition, as used in join ON
// trees.
func (c *ConditionBuilder) AndColumns(left string, op queryir.Op, right string) *ConditionBuilder {
	c.group.Append(queryir.ColumnCondition{Left: left, Op: op, Right: right})
	return c
}

// OrColumns appends a column-vs-column condition and switches the group
// to OR.
func (c *ConditionBuilder) OrColumns(left string, op queryir.Op, right string) *ConditionBuilder {
	c.group.Combinator = queryir.Or
	c.group.Append(queryir.ColumnCondition{Left: left, Op: op, Right: right})
	return c
}

// AndGroup opens a nested subgroup as a sibling of the current children.
// The subgroup starts as AND; the closure may flip it with Or calls.
// Nesting is the only way to mix combinators.
func (c *ConditionBuilder) AndGroup(fn func(*ConditionBuilder)) *ConditionBuilder {
	sub := newConditionBuilder()
	fn(sub)
	if !sub.group.Empty() {
		c.group.Append(sub.group)
	}
	return c
}

// OrGroup opens a nested subgroup and switches the parent to OR.
func (c *ConditionBuilder) OrGroup(fn func(*ConditionBuilder)) *ConditionBuilder {
	c.group.Combinator = queryir.Or
	sub := newConditionBuilder()
	fn(sub)
	if !sub.group.Empty() {
		c.group.Append(sub.group)
	}
	return c
}

// Group returns the accumulated group, or nil if nothing was added.
func (c *ConditionBuilder) Group() *queryir.Group {
	if c.group.Empty() {
		return nil
	}
	return c.group
}
