// Package tail follows a growing NDJSON file and feeds appended records to a
// surface store, rendering surfaces as they become renderable. It exists for
// producers that write to a file instead of a pipe.
package tail

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/haasonsaas/loom/internal/surface"
)

const debounce = 200 * time.Millisecond

// Follower tails one NDJSON file. Appends may split a record across writes;
// the follower buffers the trailing partial line until it is terminated.
type Follower struct {
	path     string
	store    *surface.Store
	logger   *slog.Logger
	onRender func(surfaceID string, payload surface.Payload)
	onError  func(error)

	mu      sync.Mutex
	offset  int64
	pending []byte
	watcher *fsnotify.Watcher
}

// New creates a follower. onRender fires per newly rendered surface; onError
// receives render failures (nil means they are only logged).
func New(path string, store *surface.Store, logger *slog.Logger, onRender func(string, surface.Payload), onError func(error)) *Follower {
	if logger == nil {
		logger = slog.Default()
	}
	return &Follower{
		path:     path,
		store:    store,
		logger:   logger.With("component", "tail"),
		onRender: onRender,
		onError:  onError,
	}
}

// Start drains the file's current content, then watches for appends until ctx
// is cancelled.
func (f *Follower) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(f.path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch %s: %w", f.path, err)
	}
	f.mu.Lock()
	f.watcher = watcher
	f.mu.Unlock()

	if err := f.drain(); err != nil {
		f.logger.Warn("initial drain failed", "error", err)
	}

	go f.watchLoop(ctx, watcher)
	return nil
}

// Close stops watching.
func (f *Follower) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.watcher != nil {
		err := f.watcher.Close()
		f.watcher = nil
		return err
	}
	return nil
}

func (f *Follower) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	var mu sync.Mutex
	var timer *time.Timer

	schedule := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(debounce, func() {
			if err := f.drain(); err != nil {
				f.logger.Warn("drain failed", "error", err)
			}
		})
	}

	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-watcher.Events:
			if !ok {
				return
			}
			if evt.Name != f.path {
				continue
			}
			if evt.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				schedule()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			f.logger.Warn("watch error", "error", err)
		}
	}
}

// drain reads everything appended since the last offset and applies it.
func (f *Follower) drain() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	file, err := os.Open(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}
	if info.Size() < f.offset {
		// File was truncated or replaced; start over.
		f.offset = 0
		f.pending = nil
	}
	if _, err := file.Seek(f.offset, io.SeekStart); err != nil {
		return err
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return err
	}
	f.offset += int64(len(data))
	f.consume(data)
	f.Sweep()
	return nil
}

// consume appends new bytes to the pending buffer, applies every complete
// line, and keeps the unterminated remainder for the next append.
func (f *Follower) consume(data []byte) {
	f.pending = append(f.pending, data...)
	for {
		idx := bytes.IndexByte(f.pending, '\n')
		if idx < 0 {
			return
		}
		line := f.pending[:idx]
		f.pending = f.pending[idx+1:]
		for _, msg := range surface.ParseLines(string(line)) {
			f.store.ProcessMessage(msg)
		}
	}
}

// Sweep renders everything newly renderable and reports render failures.
// Called by drain after applying a batch; exported for tests and embedders
// that apply messages out of band.
func (f *Follower) Sweep() {
	if err := f.store.Sweep(f.onRender); err != nil {
		if f.onError != nil {
			f.onError(err)
			return
		}
		f.logger.Warn("render sweep failed", "error", err)
	}
}
