package surface

import (
	"context"
	"errors"
	"io"
)

// PumpOptions configures the streaming entry point.
type PumpOptions struct {
	Decoder DecoderOptions

	// OnRender fires whenever a surface newly becomes renderable during the
	// scan, once per up-to-date payload.
	OnRender func(surfaceID string, payload Payload)

	// OnError receives render errors (and, in strict decode mode, parse
	// failures). When nil, render errors abort the pump.
	OnError func(error)

	// OnEnd fires once at clean stream end, after a final renderability
	// sweep.
	OnEnd func()
}

// Pump drains r, applying each decoded message to the store in arrival order
// and rendering surfaces as they become renderable. Cancelling ctx terminates
// the loop; any buffered partial line is discarded. A clean EOF triggers one
// final parse attempt of the trailing line, a final sweep, and OnEnd.
func Pump(ctx context.Context, r io.Reader, store *Store, opts PumpOptions) error {
	decOpts := opts.Decoder
	if decOpts.Strict && decOpts.OnError == nil {
		decOpts.OnError = opts.OnError
	}
	dec := NewDecoder(r, decOpts)

	report := func(err error) error {
		if opts.OnError != nil {
			opts.OnError(err)
			return nil
		}
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		msg, err := dec.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		store.ProcessMessage(msg)
		if err := store.Sweep(opts.OnRender); err != nil {
			if abort := report(err); abort != nil {
				return abort
			}
		}
	}

	if err := store.Sweep(opts.OnRender); err != nil {
		if abort := report(err); abort != nil {
			return abort
		}
	}
	if opts.OnEnd != nil {
		opts.OnEnd()
	}
	return nil
}

// ProcessNDJSON is the batch entry point: it parses the entire text, applies
// every message in order to the store, and returns every currently-renderable
// surface's payload keyed by surface id. Render failures are joined into the
// returned error; successfully rendered surfaces are returned regardless.
func ProcessNDJSON(text string, store *Store) (map[string]Payload, error) {
	for _, msg := range ParseLines(text) {
		store.ProcessMessage(msg)
	}
	return store.RenderAllSurfaces()
}
