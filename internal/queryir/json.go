package queryir

import (
	"encoding/json"
	"fmt"
)

// Node kinds used as JSON discriminators. Payloads carry an explicit
// "kind" field on every tree node; the decoder never infers a node's
// variant from which fields happen to be present.
const (
	kindCondition = "condition"
	kindColumns   = "columns"
	kindGroup     = "group"
)

// nodeEnvelope is the union of all node fields plus the discriminator.
type nodeEnvelope struct {
	Kind       string            `json:"kind"`
	Column     string            `json:"column,omitempty"`
	Op         Op                `json:"op,omitempty"`
	Value      json.RawMessage   `json:"value,omitempty"`
	Left       string            `json:"left,omitempty"`
	Right      string            `json:"right,omitempty"`
	Combinator Combinator        `json:"combinator,omitempty"`
	Children   []json.RawMessage `json:"children,omitempty"`
}

// MarshalJSON encodes the condition with its "kind" discriminator.
func (c Condition) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"kind":   kindCondition,
		"column": c.Column,
		"op":     c.Op,
	}
	if c.Op.TakesValue() {
		out["value"] = c.Value
	}
	return json.Marshal(out)
}

// MarshalJSON encodes the column condition with its "kind" discriminator.
func (c ColumnCondition) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"kind":  kindColumns,
		"left":  c.Left,
		"op":    c.Op,
		"right": c.Right,
	})
}

// MarshalJSON encodes the group and its children with "kind" discriminators.
func (g Group) MarshalJSON() ([]byte, error) {
	children := make([]json.RawMessage, len(g.Children))
	for i, child := range g.Children {
		data, err := marshalNode(child)
		if err != nil {
			return nil, fmt.Errorf("child %d: %w", i, err)
		}
		children[i] = data
	}
	return json.Marshal(map[string]any{
		"kind":       kindGroup,
		"combinator": g.Combinator,
		"children":   children,
	})
}

func marshalNode(n Node) ([]byte, error) {
	switch node := n.(type) {
	case Condition:
		return node.MarshalJSON()
	case *Condition:
		return node.MarshalJSON()
	case ColumnCondition:
		return node.MarshalJSON()
	case *ColumnCondition:
		return node.MarshalJSON()
	case Group:
		return node.MarshalJSON()
	case *Group:
		return node.MarshalJSON()
	default:
		return nil, fmt.Errorf("unsupported node type: %T", n)
	}
}

// UnmarshalJSON decodes a group, dispatching children on their "kind".
func (g *Group) UnmarshalJSON(data []byte) error {
	var env nodeEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	if env.Kind != kindGroup {
		return fmt.Errorf("expected node kind %q, got %q", kindGroup, env.Kind)
	}
	if !env.Combinator.Valid() {
		return fmt.Errorf("invalid combinator %q", env.Combinator)
	}
	g.Combinator = env.Combinator
	g.Children = make([]Node, len(env.Children))
	for i, raw := range env.Children {
		child, err := DecodeNode(raw)
		if err != nil {
			return fmt.Errorf("child %d: %w", i, err)
		}
		g.Children[i] = child
	}
	return nil
}

// DecodeNode decodes one tree node from JSON using the "kind" field.
// Unknown kinds are an error, never a silent fallback.
func DecodeNode(data []byte) (Node, error) {
	var env nodeEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	switch env.Kind {
	case kindCondition:
		cond := Condition{Column: env.Column, Op: env.Op}
		if len(env.Value) > 0 {
			if err := json.Unmarshal(env.Value, &cond.Value); err != nil {
				return nil, fmt.Errorf("condition value: %w", err)
			}
		}
		return cond, nil
	case kindColumns:
		return ColumnCondition{Left: env.Left, Op: env.Op, Right: env.Right}, nil
	case kindGroup:
		var group Group
		if err := group.UnmarshalJSON(data); err != nil {
			return nil, err
		}
		return &group, nil
	case "":
		return nil, fmt.Errorf("condition node is missing the kind field")
	default:
		return nil, fmt.Errorf("unknown condition node kind %q", env.Kind)
	}
}
