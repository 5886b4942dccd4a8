// Package delivery defines the collaborator that carries rendered payloads to
// the target platform. Delivery failures are the platform client's concern;
// the engine only requires that they never be mistaken for render errors.
package delivery

import (
	"context"

	"github.com/haasonsaas/loom/internal/surface"
)

// Deliverer posts a rendered payload for a surface. Re-delivery of the same
// surface id should update the previously posted message where the platform
// supports it.
type Deliverer interface {
	Deliver(ctx context.Context, surfaceID string, payload surface.Payload) error
}
