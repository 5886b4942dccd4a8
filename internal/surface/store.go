package surface

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sort"
	"sync"
)

// ErrNotFound is returned when a surface or node lookup fails.
var ErrNotFound = errors.New("surface: not found")

// Payload is a rendered platform message. Implementations must marshal
// deterministically so an unchanged surface produces a byte-identical form.
type Payload interface {
	CanonicalJSON() ([]byte, error)
}

// Renderer converts a ready surface into a platform payload. It must be pure:
// no I/O, no mutation of the surface.
type Renderer interface {
	Render(*Surface) (Payload, error)
}

// Surface is an addressable, incrementally-built screen: a flat id-addressed
// node map plus the key-value data model its bindings reference. Maps only
// grow or get overwritten by key; the protocol has no deletion.
type Surface struct {
	ID           string
	Nodes        map[string]*Node
	DataModel    map[string]any
	RenderSignal bool

	// revision counts applied messages; renderedRevision records the
	// revision captured by the last successful render.
	revision         uint64
	renderedRevision uint64
	lastPayload      Payload
}

// LastPayload returns the payload produced by the most recent render, or nil
// if the surface has never been rendered.
func (s *Surface) LastPayload() Payload { return s.lastPayload }

func (s *Surface) clone() *Surface {
	if s == nil {
		return nil
	}
	c := *s
	c.Nodes = maps.Clone(s.Nodes)
	c.DataModel = maps.Clone(s.DataModel)
	return &c
}

// Store holds surfaces keyed by id and applies wire messages in arrival
// order. Message application is a critical section: the store serializes it
// internally, but callers remain responsible for feeding messages in order.
type Store struct {
	mu       sync.RWMutex
	surfaces map[string]*Surface
	renderer Renderer
	logger   *slog.Logger
	hub      *Hub
	metrics  *Metrics
}

// NewStore creates a surface store rendering through the given renderer.
func NewStore(renderer Renderer, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		surfaces: map[string]*Surface{},
		renderer: renderer,
		logger:   logger.With("component", "surface"),
	}
}

// SetHub wires a hub that receives a RenderEvent for every successful render.
func (s *Store) SetHub(hub *Hub) {
	if s == nil {
		return
	}
	s.hub = hub
}

// SetMetrics wires prometheus counters.
func (s *Store) SetMetrics(metrics *Metrics) {
	if s == nil {
		return
	}
	s.metrics = metrics
}

// ProcessMessage applies one message. A surface is created implicitly on
// first reference; later node updates overwrite earlier ones by id.
func (s *Store) ProcessMessage(msg Message) {
	if msg == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	target := s.getOrCreateLocked(msg.TargetSurface())
	switch m := msg.(type) {
	case *SurfaceUpdate:
		for id, node := range m.Nodes {
			target.Nodes[id] = node
		}
	case *DataModelUpdate:
		target.DataModel[m.Path] = m.Value
	case *BeginRendering:
		target.RenderSignal = true
	default:
		s.logger.Warn("ignoring unknown message kind", "kind", msg.Kind())
		return
	}
	target.revision++
	s.metrics.RecordMessage(msg.Kind())
}

func (s *Store) getOrCreateLocked(id string) *Surface {
	if existing, ok := s.surfaces[id]; ok {
		return existing
	}
	created := &Surface{
		ID:        id,
		Nodes:     map[string]*Node{},
		DataModel: map[string]any{},
	}
	s.surfaces[id] = created
	return created
}

// Get returns a read-consistent snapshot of a surface.
func (s *Store) Get(id string) (*Surface, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	surf, ok := s.surfaces[id]
	if !ok {
		return nil, false
	}
	return surf.clone(), true
}

// Delete evicts a surface. The protocol never deletes; this exists for the
// owning application's lifecycle policy.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.surfaces, id)
}

// RenderableSurfaces returns snapshots of every surface that has received its
// render signal, resolves completely, and has content the renderer has not
// yet produced an up-to-date payload for. Renderability is recomputed on
// every call; any message can flip it.
func (s *Store) RenderableSurfaces() []*Surface {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*Surface{}
	for _, surf := range s.surfaces {
		if surf.RenderSignal && surf.revision != surf.renderedRevision && Ready(surf) {
			out = append(out, surf.clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// RenderSurface renders one surface through the configured renderer. It
// returns (nil, nil) when the surface is absent or not yet renderable. On
// success the payload is cached so repeat calls on unchanged content are
// idempotent and callers can diff against the previous render.
func (s *Store) RenderSurface(id string) (Payload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	surf, ok := s.surfaces[id]
	if !ok {
		return nil, nil
	}
	if !surf.RenderSignal || !Ready(surf) {
		return nil, nil
	}
	if surf.revision == surf.renderedRevision && surf.lastPayload != nil {
		return surf.lastPayload, nil
	}
	if s.renderer == nil {
		return nil, fmt.Errorf("surface: no renderer configured")
	}

	payload, err := s.renderer.Render(surf.clone())
	if err != nil {
		s.metrics.RecordRenderError()
		return nil, fmt.Errorf("render surface %q: %w", id, err)
	}
	if unchangedPayload(surf.lastPayload, payload) {
		// A message rewrote state without changing the rendered form; treat
		// the cached payload as current and skip the broadcast.
		surf.renderedRevision = surf.revision
		return surf.lastPayload, nil
	}
	surf.lastPayload = payload
	surf.renderedRevision = surf.revision
	s.metrics.RecordRender()
	s.hub.Broadcast(RenderEvent{SurfaceID: id, Payload: payload})
	return payload, nil
}

// unchangedPayload reports whether next marshals byte-identically to prev.
func unchangedPayload(prev, next Payload) bool {
	if prev == nil || next == nil {
		return false
	}
	prevRaw, err := prev.CanonicalJSON()
	if err != nil {
		return false
	}
	nextRaw, err := next.CanonicalJSON()
	if err != nil {
		return false
	}
	return bytes.Equal(prevRaw, nextRaw)
}

// Sweep renders every currently renderable surface, invoking fn per rendered
// payload. Render failures do not stop the sweep; they are joined into the
// returned error.
func (s *Store) Sweep(fn func(surfaceID string, payload Payload)) error {
	var errs []error
	for _, surf := range s.RenderableSurfaces() {
		payload, err := s.RenderSurface(surf.ID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if payload != nil && fn != nil {
			fn(surf.ID, payload)
		}
	}
	return errors.Join(errs...)
}

// RenderAllSurfaces renders everything currently renderable and returns the
// payloads keyed by surface id.
func (s *Store) RenderAllSurfaces() (map[string]Payload, error) {
	out := map[string]Payload{}
	err := s.Sweep(func(id string, payload Payload) {
		out[id] = payload
	})
	return out, err
}
