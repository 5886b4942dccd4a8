// Package bridge routes user interactions on rendered payloads back to a
// registered application handler.
package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/haasonsaas/loom/internal/surface"
)

// InteractionEvent is the normalized inbound form of a user interaction on a
// rendered payload.
type InteractionEvent struct {
	SurfaceID string `json:"surfaceId"`
	NodeID    string `json:"nodeId"`
	UserID    string `json:"userId"`
}

// Interaction is what the registered handler receives: the action name and
// its arguments, resolved against the surface's data model at interaction
// time so the handler sees the freshest data.
type Interaction struct {
	ID         string         `json:"id"`
	UserID     string         `json:"userId"`
	ActionName string         `json:"actionName"`
	Args       map[string]any `json:"args,omitempty"`
	ReceivedAt time.Time      `json:"receivedAt"`
}

// Handler processes one interaction.
type Handler func(ctx context.Context, in Interaction) error

// Bridge maps interaction events to handler invocations. Collaborators are
// injected; there is no process-wide registration.
type Bridge struct {
	store   *surface.Store
	handler Handler
	logger  *slog.Logger
	metrics *surface.Metrics
}

// New creates a bridge. A nil handler is allowed: the system can run with
// rendering-only capability, in which case interactions are no-ops.
func New(store *surface.Store, handler Handler, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{
		store:   store,
		handler: handler,
		logger:  logger.With("component", "bridge"),
	}
}

// SetMetrics wires prometheus counters.
func (b *Bridge) SetMetrics(metrics *surface.Metrics) {
	if b == nil {
		return
	}
	b.metrics = metrics
}

// HandleInteraction looks up the addressed node, resolves its action's bound
// arguments against the surface's current data model, and invokes the
// handler. A missing surface or node is a lookup failure reported to the
// caller, not a panic past the platform event boundary. Arguments that do not
// resolve are omitted from the handler's view.
func (b *Bridge) HandleInteraction(ctx context.Context, evt InteractionEvent) error {
	surf, ok := b.store.Get(evt.SurfaceID)
	if !ok {
		return fmt.Errorf("interaction for surface %q: %w", evt.SurfaceID, surface.ErrNotFound)
	}
	node, ok := surf.Nodes[evt.NodeID]
	if !ok {
		return fmt.Errorf("interaction for node %q on surface %q: %w", evt.NodeID, evt.SurfaceID, surface.ErrNotFound)
	}
	if node.Action == nil {
		return fmt.Errorf("node %q on surface %q has no action: %w", evt.NodeID, evt.SurfaceID, surface.ErrNotFound)
	}

	if b.handler == nil {
		b.logger.Debug("no handler registered, dropping interaction",
			"surface_id", evt.SurfaceID, "node_id", evt.NodeID, "action", node.Action.Name)
		return nil
	}

	args := map[string]any{}
	for name, v := range node.Action.Args {
		val, ok := surface.Resolve(v, surf.DataModel)
		if !ok {
			b.logger.Warn("omitting unresolved action argument",
				"surface_id", evt.SurfaceID, "action", node.Action.Name, "arg", name, "path", v.Bound)
			continue
		}
		args[name] = val
	}

	b.metrics.RecordInteraction()
	return b.handler(ctx, Interaction{
		ID:         uuid.NewString(),
		UserID:     evt.UserID,
		ActionName: node.Action.Name,
		Args:       args,
		ReceivedAt: time.Now(),
	})
}
