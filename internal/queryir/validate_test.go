package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateNode(t *testing.T) {
	tests := []struct {
		name    string
		node    Node
		wantErr bool
	}{
		{
			name: "valid condition",
			node: Condition{Column: "w.status", Op: OpEq, Value: "active"},
		},
		{
			name:    "condition missing column",
			node:    Condition{Op: OpEq, Value: 1},
			wantErr: true,
		},
		{
			name:    "condition unknown operator",
			node:    Condition{Column: "w.status", Op: "~=", Value: 1},
			wantErr: true,
		},
		{
			name:    "is null with value",
			node:    Condition{Column: "w.region", Op: OpIsNull, Value: "x"},
			wantErr: true,
		},
		{
			name: "is null without value",
			node: Condition{Column: "w.region", Op: OpIsNull},
		},
		{
			name:    "in with scalar value",
			node:    Condition{Column: "w.region", Op: OpIn, Value: "north"},
			wantErr: true,
		},
		{
			name: "in with nil value",
			node: Condition{Column: "w.region", Op: OpIn},
		},
		{
			name: "valid column condition",
			node: ColumnCondition{Left: "w.category_id", Op: OpEq, Right: "pc.category_id"},
		},
		{
			name:    "column condition missing side",
			node:    ColumnCondition{Left: "w.category_id", Op: OpEq},
			wantErr: true,
		},
		{
			name:    "column condition with list operator",
			node:    ColumnCondition{Left: "a.x", Op: OpIn, Right: "b.y"},
			wantErr: true,
		},
		{
			name:    "column condition with null operator",
			node:    ColumnCondition{Left: "a.x", Op: OpIsNull, Right: "b.y"},
			wantErr: true,
		},
		{
			name: "valid nested group",
			node: NewGroup(And,
				Condition{Column: "a", Op: OpEq, Value: 1},
				NewGroup(Or, Condition{Column: "b", Op: OpGt, Value: 2}),
			),
		},
		{
			name:    "group with bad combinator",
			node:    &Group{Combinator: "XOR"},
			wantErr: true,
		},
		{
			name:    "group with nil child",
			node:    &Group{Combinator: And, Children: []Node{nil}},
			wantErr: true,
		},
		{
			name:    "group with invalid descendant",
			node:    NewGroup(And, Condition{Op: OpEq}),
			wantErr: true,
		},
		{
			name:    "nil node",
			node:    nil,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNode(tt.node)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateDescription(t *testing.T) {
	valid := func() *QueryDescription {
		return &QueryDescription{
			Select: []string{"w.name"},
			From:   &TableRef{Table: "wholesalers", Alias: "w"},
			Where: NewGroup(And,
				Condition{Column: "w.status", Op: OpEq, Value: "active"},
			),
			OrderBy: []SortKey{{Column: "w.name", Direction: Asc}},
		}
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, ValidateDescription(valid()))
	})

	t.Run("nil description", func(t *testing.T) {
		assert.Error(t, ValidateDescription(nil))
	})

	t.Run("empty join kind defaults downstream", func(t *testing.T) {
		d := valid()
		d.Joins = []JoinClause{{
			Table: "product_categories",
			Alias: "pc",
			On:    NewGroup(And, ColumnCondition{Left: "w.category_id", Op: OpEq, Right: "pc.category_id"}),
		}}
		assert.NoError(t, ValidateDescription(d))
	})

	t.Run("unknown join kind", func(t *testing.T) {
		d := valid()
		d.Joins = []JoinClause{{Kind: "CROSS", Table: "product_categories", Alias: "pc"}}
		assert.Error(t, ValidateDescription(d))
	})

	t.Run("invalid where tree", func(t *testing.T) {
		d := valid()
		d.Where = NewGroup(And, Condition{Column: "w.x", Op: "BOGUS"})
		assert.Error(t, ValidateDescription(d))
	})

	t.Run("bad sort direction", func(t *testing.T) {
		d := valid()
		d.OrderBy = []SortKey{{Column: "w.name", Direction: "SIDEWAYS"}}
		assert.Error(t, ValidateDescription(d))
	})

	t.Run("negative limit", func(t *testing.T) {
		d := valid()
		limit := -1
		d.Limit = &limit
		assert.Error(t, ValidateDescription(d))
	})

	t.Run("negative offset", func(t *testing.T) {
		d := valid()
		offset := -5
		d.Offset = &offset
		assert.Error(t, ValidateDescription(d))
	})
}

func TestSplitColumn(t *testing.T) {
	tests := []struct {
		ref    string
		alias  string
		column string
	}{
		{ref: "w.name", alias: "w", column: "name"},
		{ref: "name", alias: "", column: "name"},
		{ref: "w.*", alias: "w", column: "*"},
		{ref: "", alias: "", column: ""},
	}
	for _, tt := range tests {
		alias, column := SplitColumn(tt.ref)
		assert.Equal(t, tt.alias, alias, "ref %q", tt.ref)
		assert.Equal(t, tt.column, column, "ref %q", tt.ref)
	}
}

func TestValueList(t *testing.T) {
	t.Run("any slice", func(t *testing.T) {
		got, ok := ValueList([]any{1, "two"})
		assert.True(t, ok)
		assert.Equal(t, []any{1, "two"}, got)
	})

	t.Run("typed slice", func(t *testing.T) {
		got, ok := ValueList([]string{"a", "b"})
		assert.True(t, ok)
		assert.Equal(t, []any{"a", "b"}, got)
	})

	t.Run("nil is an empty list", func(t *testing.T) {
		got, ok := ValueList(nil)
		assert.True(t, ok)
		assert.Empty(t, got)
	})

	t.Run("scalar rejected", func(t *testing.T) {
		_, ok := ValueList("north")
		assert.False(t, ok)
	})
}

func TestOpHelpers(t *testing.T) {
	assert.True(t, OpEq.TakesValue())
	assert.False(t, OpIsNull.TakesValue())
	assert.False(t, OpIsNotNull.TakesValue())
	assert.True(t, OpIn.TakesList())
	assert.True(t, OpNotIn.TakesList())
	assert.False(t, OpLike.TakesList())
	assert.False(t, Op("MATCHES").Valid())
	assert.False(t, Combinator("XOR").Valid())
	assert.False(t, JoinKind("CROSS").Valid())
}
