package bridge

import (
	"context"
	"errors"
	"testing"

	"github.com/haasonsaas/loom/internal/surface"
)

func buttonStore(t *testing.T) *surface.Store {
	t.Helper()
	store := surface.NewStore(nil, nil)
	lines := []string{
		`{"kind":"surfaceUpdate","surfaceId":"s1","nodes":{"confirm":{"kind":"button","label":"Confirm","action":{"name":"approve","args":{"orderId":{"bound":"order.id"},"note":"manual"}}},"plain":{"kind":"text","value":"hello"}}}`,
		`{"kind":"dataModelUpdate","surfaceId":"s1","path":"order.id","value":"ord-42"}`,
	}
	for _, line := range lines {
		msg, err := surface.ParseMessage([]byte(line))
		if err != nil {
			t.Fatalf("ParseMessage() error = %v", err)
		}
		store.ProcessMessage(msg)
	}
	return store
}

func TestHandleInteractionInvokesHandler(t *testing.T) {
	store := buttonStore(t)
	var got Interaction
	b := New(store, func(ctx context.Context, in Interaction) error {
		got = in
		return nil
	}, nil)

	evt := InteractionEvent{SurfaceID: "s1", NodeID: "confirm", UserID: "U123"}
	if err := b.HandleInteraction(context.Background(), evt); err != nil {
		t.Fatalf("HandleInteraction() error = %v", err)
	}
	if got.ActionName != "approve" {
		t.Fatalf("expected action approve, got %q", got.ActionName)
	}
	if got.UserID != "U123" {
		t.Fatalf("expected user U123, got %q", got.UserID)
	}
	if got.ID == "" {
		t.Fatalf("expected a generated interaction id")
	}
	if got.Args["orderId"] != "ord-42" || got.Args["note"] != "manual" {
		t.Fatalf("unexpected args %v", got.Args)
	}
}

func TestHandleInteractionResolvesArgsAtInteractionTime(t *testing.T) {
	store := buttonStore(t)
	var got Interaction
	b := New(store, func(ctx context.Context, in Interaction) error {
		got = in
		return nil
	}, nil)

	// The data model moves on after the payload was rendered; the handler
	// sees the value current at click time.
	msg, err := surface.ParseMessage([]byte(`{"kind":"dataModelUpdate","surfaceId":"s1","path":"order.id","value":"ord-43"}`))
	if err != nil {
		t.Fatalf("ParseMessage() error = %v", err)
	}
	store.ProcessMessage(msg)

	evt := InteractionEvent{SurfaceID: "s1", NodeID: "confirm", UserID: "U123"}
	if err := b.HandleInteraction(context.Background(), evt); err != nil {
		t.Fatalf("HandleInteraction() error = %v", err)
	}
	if got.Args["orderId"] != "ord-43" {
		t.Fatalf("expected freshest arg ord-43, got %v", got.Args["orderId"])
	}
}

func TestHandleInteractionOmitsUnresolvedArgs(t *testing.T) {
	store := surface.NewStore(nil, nil)
	line := `{"kind":"surfaceUpdate","surfaceId":"s1","nodes":{"btn":{"kind":"button","label":"Go","action":{"name":"go","args":{"missing":{"bound":"not.there"},"present":"yes"}}}}}`
	msg, err := surface.ParseMessage([]byte(line))
	if err != nil {
		t.Fatalf("ParseMessage() error = %v", err)
	}
	store.ProcessMessage(msg)

	var got Interaction
	b := New(store, func(ctx context.Context, in Interaction) error {
		got = in
		return nil
	}, nil)
	if err := b.HandleInteraction(context.Background(), InteractionEvent{SurfaceID: "s1", NodeID: "btn"}); err != nil {
		t.Fatalf("HandleInteraction() error = %v", err)
	}
	if _, ok := got.Args["missing"]; ok {
		t.Fatalf("unresolved arg must be omitted, got %v", got.Args)
	}
	if got.Args["present"] != "yes" {
		t.Fatalf("resolved arg must survive, got %v", got.Args)
	}
}

func TestHandleInteractionLookupFailures(t *testing.T) {
	store := buttonStore(t)
	b := New(store, func(ctx context.Context, in Interaction) error {
		t.Fatalf("handler must not run on lookup failure")
		return nil
	}, nil)

	cases := []struct {
		name string
		evt  InteractionEvent
	}{
		{"unknown surface", InteractionEvent{SurfaceID: "nope", NodeID: "confirm"}},
		{"unknown node", InteractionEvent{SurfaceID: "s1", NodeID: "nope"}},
		{"node without action", InteractionEvent{SurfaceID: "s1", NodeID: "plain"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := b.HandleInteraction(context.Background(), tc.evt)
			if !errors.Is(err, surface.ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestHandleInteractionNilHandler(t *testing.T) {
	store := buttonStore(t)
	b := New(store, nil, nil)
	evt := InteractionEvent{SurfaceID: "s1", NodeID: "confirm", UserID: "U123"}
	if err := b.HandleInteraction(context.Background(), evt); err != nil {
		t.Fatalf("nil handler must be a no-op, got %v", err)
	}
}

func TestHandleInteractionPropagatesHandlerError(t *testing.T) {
	store := buttonStore(t)
	want := errors.New("downstream rejected")
	b := New(store, func(ctx context.Context, in Interaction) error {
		return want
	}, nil)
	evt := InteractionEvent{SurfaceID: "s1", NodeID: "confirm"}
	if err := b.HandleInteraction(context.Background(), evt); !errors.Is(err, want) {
		t.Fatalf("expected handler error, got %v", err)
	}
}
