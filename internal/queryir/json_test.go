package queryir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeNode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Node
		wantErr string
	}{
		{
			name:  "condition",
			input: `{"kind":"condition","column":"w.status","op":"=","value":"active"}`,
			want:  Condition{Column: "w.status", Op: OpEq, Value: "active"},
		},
		{
			name:  "condition with list value",
			input: `{"kind":"condition","column":"w.region","op":"IN","value":["north","south"]}`,
			want:  Condition{Column: "w.region", Op: OpIn, Value: []any{"north", "south"}},
		},
		{
			name:  "condition without value",
			input: `{"kind":"condition","column":"w.region","op":"IS NULL"}`,
			want:  Condition{Column: "w.region", Op: OpIsNull},
		},
		{
			name:  "column condition",
			input: `{"kind":"columns","left":"w.category_id","op":"=","right":"pc.category_id"}`,
			want:  ColumnCondition{Left: "w.category_id", Op: OpEq, Right: "pc.category_id"},
		},
		{
			name:    "missing kind",
			input:   `{"column":"w.status","op":"=","value":"active"}`,
			wantErr: "missing the kind",
		},
		{
			name:    "unknown kind",
			input:   `{"kind":"subquery","column":"w.status"}`,
			wantErr: `unknown condition node kind "subquery"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeNode([]byte(tt.input))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGroupRoundTrip(t *testing.T) {
	original := NewGroup(And,
		Condition{Column: "w.status", Op: OpEq, Value: "active"},
		NewGroup(Or,
			Condition{Column: "w.region", Op: OpEq, Value: "north"},
			ColumnCondition{Left: "w.category_id", Op: OpEq, Right: "pc.category_id"},
		),
	)

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded Group
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, And, decoded.Combinator)
	require.Len(t, decoded.Children, 2)
	assert.Equal(t, Condition{Column: "w.status", Op: OpEq, Value: "active"}, decoded.Children[0])

	inner, ok := decoded.Children[1].(*Group)
	require.True(t, ok, "nested child should decode as a group, got %T", decoded.Children[1])
	assert.Equal(t, Or, inner.Combinator)
	require.Len(t, inner.Children, 2)
	assert.Equal(t, ColumnCondition{Left: "w.category_id", Op: OpEq, Right: "pc.category_id"}, inner.Children[1])
}

func TestGroupUnmarshalRejectsBadInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "wrong kind", input: `{"kind":"condition","column":"x","op":"="}`},
		{name: "invalid combinator", input: `{"kind":"group","combinator":"XOR","children":[]}`},
		{name: "missing combinator", input: `{"kind":"group","children":[]}`},
		{name: "bad child", input: `{"kind":"group","combinator":"AND","children":[{"op":"="}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var g Group
			assert.Error(t, json.Unmarshal([]byte(tt.input), &g))
		})
	}
}

func TestConditionMarshalOmitsValueForNullOps(t *testing.T) {
	data, err := json.Marshal(Condition{Column: "w.region", Op: OpIsNull})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "value")
	assert.Contains(t, string(data), `"kind":"condition"`)
}

func TestQueryDescriptionDecode(t *testing.T) {
	payload := `{
		"select": ["w.name", "pc.name AS category_name"],
		"from": {"table": "wholesalers", "alias": "w"},
		"joins": [{
			"kind": "INNER",
			"table": "product_categories",
			"alias": "pc",
			"on": {
				"kind": "group",
				"combinator": "AND",
				"children": [
					{"kind": "columns", "left": "w.category_id", "op": "=", "right": "pc.category_id"}
				]
			}
		}],
		"where": {
			"kind": "group",
			"combinator": "AND",
			"children": [
				{"kind": "condition", "column": "w.status", "op": "=", "value": "active"}
			]
		},
		"orderBy": [{"column": "w.name", "direction": "ASC"}],
		"limit": 20
	}`

	var desc QueryDescription
	require.NoError(t, json.Unmarshal([]byte(payload), &desc))
	require.NoError(t, ValidateDescription(&desc))

	assert.Equal(t, []string{"w.name", "pc.name AS category_name"}, desc.Select)
	require.NotNil(t, desc.From)
	assert.Equal(t, "w", desc.From.Alias)
	require.Len(t, desc.Joins, 1)
	assert.Equal(t, InnerJoin, desc.Joins[0].Kind)
	require.NotNil(t, desc.Where)
	require.Len(t, desc.Where.Children, 1)
	require.NotNil(t, desc.Limit)
	assert.Equal(t, 20, *desc.Limit)
}
