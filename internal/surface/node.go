package surface

import (
	"encoding/json"
	"fmt"
)

// NodeKind identifies a component-tree element type.
type NodeKind string

const (
	NodeText     NodeKind = "text"
	NodeButton   NodeKind = "button"
	NodeCard     NodeKind = "card"
	NodeRow      NodeKind = "row"
	NodeColumn   NodeKind = "column"
	NodeDivider  NodeKind = "divider"
	NodeIcon     NodeKind = "icon"
	NodeProgress NodeKind = "progress"
	NodeImage    NodeKind = "image"
)

func (k NodeKind) valid() bool {
	switch k {
	case NodeText, NodeButton, NodeCard, NodeRow, NodeColumn, NodeDivider, NodeIcon, NodeProgress, NodeImage:
		return true
	}
	return false
}

// Node is one element of a surface's component tree. Children are referenced
// by node id, not embedded; a referenced id whose defining surfaceUpdate has
// not arrived yet is tolerated as unresolved.
type Node struct {
	NodeKind NodeKind `json:"kind"`

	// Value carries the kind's primary content: text content, icon name,
	// or progress percentage (0-100).
	Value *Value `json:"value,omitempty"`

	// Label is the button caption.
	Label *Value `json:"label,omitempty"`

	// Title is the card heading.
	Title *Value `json:"title,omitempty"`

	// Source and Alt describe an image.
	Source *Value `json:"source,omitempty"`
	Alt    *Value `json:"alt,omitempty"`

	// Children lists child node ids for card, row, and column.
	Children []string `json:"children,omitempty"`

	// Action is the behavior attached to a button.
	Action *Action `json:"action,omitempty"`
}

// Action names a behavior attached to an interactive node. Argument bindings
// are resolved against the surface's data model at interaction time, not at
// render time.
type Action struct {
	Name string            `json:"name"`
	Args map[string]*Value `json:"args,omitempty"`
}

// Value is either an embedded literal or a bound reference into the owning
// surface's data model. A bound value whose path has no data-model entry is
// unresolved until the matching dataModelUpdate arrives.
type Value struct {
	Literal any
	Bound   string
}

// Lit returns a literal value.
func Lit(v any) *Value { return &Value{Literal: v} }

// Bind returns a value bound to a data-model path.
func Bind(path string) *Value { return &Value{Bound: path} }

// IsBound reports whether the value is a data-model reference.
func (v *Value) IsBound() bool { return v != nil && v.Bound != "" }

type valueEnvelope struct {
	Literal json.RawMessage `json:"literal"`
	Bound   string          `json:"bound"`
}

// UnmarshalJSON accepts {"bound": path}, {"literal": x}, or a bare JSON value
// as shorthand for a literal.
func (v *Value) UnmarshalJSON(data []byte) error {
	var env valueEnvelope
	if err := json.Unmarshal(data, &env); err == nil {
		if env.Bound != "" {
			v.Bound = env.Bound
			v.Literal = nil
			return nil
		}
		if env.Literal != nil {
			v.Bound = ""
			return json.Unmarshal(env.Literal, &v.Literal)
		}
	}
	v.Bound = ""
	if err := json.Unmarshal(data, &v.Literal); err != nil {
		return fmt.Errorf("parse value: %w", err)
	}
	return nil
}

// MarshalJSON emits the canonical object form.
func (v *Value) MarshalJSON() ([]byte, error) {
	if v.IsBound() {
		return json.Marshal(map[string]string{"bound": v.Bound})
	}
	return json.Marshal(map[string]any{"literal": v.Literal})
}
