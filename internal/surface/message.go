// Package surface implements the incremental surface-rendering engine: it
// consumes a stream of newline-delimited JSON update messages, assembles
// addressable surfaces from them, and renders each surface through an injected
// Renderer once the surface has received its render signal and every binding
// reachable from its roots resolves.
package surface

import (
	"encoding/json"
	"fmt"
)

// MessageKind discriminates the wire message union.
type MessageKind string

const (
	KindSurfaceUpdate   MessageKind = "surfaceUpdate"
	KindDataModelUpdate MessageKind = "dataModelUpdate"
	KindBeginRendering  MessageKind = "beginRendering"
)

// Message is one record of the wire protocol. The set of implementations is
// closed: SurfaceUpdate, DataModelUpdate, and BeginRendering.
type Message interface {
	Kind() MessageKind
	// TargetSurface returns the id of the surface the message addresses.
	TargetSurface() string
}

// SurfaceUpdate adds or replaces nodes in a surface's component tree. Nodes
// are addressed by id rather than nested, so a later update can patch part of
// the tree without retransmitting ancestors.
type SurfaceUpdate struct {
	SurfaceID string
	Nodes     map[string]*Node
}

func (m *SurfaceUpdate) Kind() MessageKind     { return KindSurfaceUpdate }
func (m *SurfaceUpdate) TargetSurface() string { return m.SurfaceID }

// DataModelUpdate sets one value in a surface's key-value data model.
type DataModelUpdate struct {
	SurfaceID string
	Path      string
	Value     any
}

func (m *DataModelUpdate) Kind() MessageKind     { return KindDataModelUpdate }
func (m *DataModelUpdate) TargetSurface() string { return m.SurfaceID }

// BeginRendering signals that no more structural updates are expected and the
// surface should render as soon as all bindings resolve.
type BeginRendering struct {
	SurfaceID string
}

func (m *BeginRendering) Kind() MessageKind     { return KindBeginRendering }
func (m *BeginRendering) TargetSurface() string { return m.SurfaceID }

// envelope is the single-pass decode target for all message kinds.
type envelope struct {
	Kind      MessageKind      `json:"kind"`
	SurfaceID string           `json:"surfaceId"`
	Nodes     map[string]*Node `json:"nodes,omitempty"`
	Path      string           `json:"path,omitempty"`
	Value     any              `json:"value,omitempty"`
}

// ParseMessage decodes a single wire record. A record that is not valid JSON,
// names an unknown kind, or is missing required fields for its kind is an
// error; callers decide whether to drop or report it.
func ParseMessage(line []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(line, &env); err != nil {
		return nil, fmt.Errorf("parse message: %w", err)
	}
	if env.SurfaceID == "" {
		return nil, fmt.Errorf("parse message: missing surfaceId")
	}
	switch env.Kind {
	case KindSurfaceUpdate:
		if len(env.Nodes) == 0 {
			return nil, fmt.Errorf("parse message: surfaceUpdate without nodes")
		}
		for id, node := range env.Nodes {
			if node == nil {
				return nil, fmt.Errorf("parse message: node %q is null", id)
			}
			if !node.NodeKind.valid() {
				return nil, fmt.Errorf("parse message: node %q has unknown kind %q", id, node.NodeKind)
			}
		}
		return &SurfaceUpdate{SurfaceID: env.SurfaceID, Nodes: env.Nodes}, nil
	case KindDataModelUpdate:
		if env.Path == "" {
			return nil, fmt.Errorf("parse message: dataModelUpdate without path")
		}
		return &DataModelUpdate{SurfaceID: env.SurfaceID, Path: env.Path, Value: env.Value}, nil
	case KindBeginRendering:
		return &BeginRendering{SurfaceID: env.SurfaceID}, nil
	default:
		return nil, fmt.Errorf("parse message: unknown kind %q", env.Kind)
	}
}
