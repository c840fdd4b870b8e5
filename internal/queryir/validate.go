package queryir

import "fmt"

// ValidateNode checks that a condition tree is structurally well formed:
// operators are known, value-less operators carry no value, list
// operators carry a slice, and every node is one of the sealed variants.
//
// ValidateNode is a pure function; the compiler performs the same checks
// during rendering, but the builder runs this at Build time so grammar
// violations surface before a description ever reaches compilation.
func ValidateNode(n Node) error {
	switch node := n.(type) {
	case Condition:
		return validateCondition(node)
	case *Condition:
		return validateCondition(*node)
	case ColumnCondition:
		return validateColumnCondition(node)
	case *ColumnCondition:
		return validateColumnCondition(*node)
	case Group:
		return validateGroup(node)
	case *Group:
		return validateGroup(*node)
	case nil:
		return fmt.Errorf("nil condition node")
	default:
		return fmt.Errorf("unsupported condition node type %T", n)
	}
}

func validateCondition(c Condition) error {
	if c.Column == "" {
		return fmt.Errorf("condition is missing a column")
	}
	if !c.Op.Valid() {
		return fmt.Errorf("condition on %q uses unknown operator %q", c.Column, c.Op)
	}
	if !c.Op.TakesValue() && c.Value != nil {
		return fmt.Errorf("condition %q %s must not carry a value", c.Column, c.Op)
	}
	if c.Op.TakesList() {
		if _, ok := ValueList(c.Value); !ok {
			return fmt.Errorf("condition %q %s requires a value list, got %T", c.Column, c.Op, c.Value)
		}
	}
	return nil
}

func validateColumnCondition(c ColumnCondition) error {
	if c.Left == "" || c.Right == "" {
		return fmt.Errorf("column condition needs both sides, got left=%q right=%q", c.Left, c.Right)
	}
	if !c.Op.Valid() {
		return fmt.Errorf("column condition %q %q %q uses unknown operator", c.Left, c.Op, c.Right)
	}
	if !c.Op.TakesValue() || c.Op.TakesList() {
		return fmt.Errorf("operator %s cannot compare two columns", c.Op)
	}
	return nil
}

func validateGroup(g Group) error {
	if !g.Combinator.Valid() {
		return fmt.Errorf("group uses unknown combinator %q", g.Combinator)
	}
	for i, child := range g.Children {
		if child == nil {
			return fmt.Errorf("group child %d is nil", i)
		}
		if err := ValidateNode(child); err != nil {
			return fmt.Errorf("group child %d: %w", i, err)
		}
	}
	return nil
}

// ValidateDescription checks the parts of a QueryDescription that do not
// need the schema registry: join kinds, sort directions, and the WHERE
// and ON trees. Registry-dependent checks (alias/table binding, column
// allow-lists) belong to the compiler.
func ValidateDescription(d *QueryDescription) error {
	if d == nil {
		return fmt.Errorf("nil query description")
	}
	if d.Where != nil {
		if err := ValidateNode(d.Where); err != nil {
			return fmt.Errorf("where: %w", err)
		}
	}
	for i, join := range d.Joins {
		// An empty kind is allowed and defaults to INNER downstream.
		if join.Kind != "" && !join.Kind.Valid() {
			return fmt.Errorf("join %d: unknown join kind %q", i, join.Kind)
		}
		if join.On != nil {
			if err := ValidateNode(join.On); err != nil {
				return fmt.Errorf("join %d on: %w", i, err)
			}
		}
	}
	for i, key := range d.OrderBy {
		if key.Column == "" {
			return fmt.Errorf("order by %d: missing column", i)
		}
		if !key.Direction.Valid() {
			return fmt.Errorf("order by %d: unknown direction %q", i, key.Direction)
		}
	}
	if d.Limit != nil && *d.Limit < 0 {
		return fmt.Errorf("negative limit %d", *d.Limit)
	}
	if d.Offset != nil && *d.Offset < 0 {
		return fmt.Errorf("negative offset %d", *d.Offset)
	}
	return nil
}
