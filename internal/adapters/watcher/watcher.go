// Package watcher provides inbox watching for arriving products.
package watcher

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Arrival is a settled file-system arrival in the inbox.
type Arrival struct {
	Path string
}

// Handler is called once an arrival has settled.
type Handler func(ctx context.Context, arrival Arrival) error

// Recognizer filters raw events; only recognized paths are queued. A nil
// recognizer queues everything.
type Recognizer func(path string) bool

// Watcher watches inbox directories for new products. Writes are debounced
// so a product is only handed off after its transfer has settled; removals
// are ignored, an archive inbox only ever grows.
type Watcher struct {
	fsWatcher  *fsnotify.Watcher
	handler    Handler
	recognizer Recognizer
	logger     *slog.Logger
	paths      []string
	debounce   time.Duration
	mu         sync.Mutex
	pending    map[string]time.Time
}

// Config holds watcher configuration.
type Config struct {
	Paths    []string
	Debounce time.Duration
}

// New creates a new inbox watcher.
func New(cfg Config, recognizer Recognizer, handler Handler, logger *slog.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if cfg.Debounce == 0 {
		cfg.Debounce = 500 * time.Millisecond
	}

	return &Watcher{
		fsWatcher:  fsWatcher,
		handler:    handler,
		recognizer: recognizer,
		logger:     logger,
		paths:      cfg.Paths,
		debounce:   cfg.Debounce,
		pending:    make(map[string]time.Time),
	}, nil
}

// Start starts watching the configured paths.
func (w *Watcher) Start(ctx context.Context) error {
	for _, path := range w.paths {
		absPath, err := filepath.Abs(path)
		if err != nil {
			w.logger.Warn("invalid watch path", "path", path, "error", err)
			continue
		}

		if err := w.fsWatcher.Add(absPath); err != nil {
			w.logger.Warn("failed to watch path", "path", absPath, "error", err)
			continue
		}

		w.logger.Info("watching inbox", "path", absPath)
	}

	go w.eventLoop(ctx)
	go w.debounceLoop(ctx)

	return nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	return w.fsWatcher.Close()
}

func (w *Watcher) eventLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleFsEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleFsEvent(event fsnotify.Event) {
	// Only creations and writes matter for an inbox.
	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
		return
	}
	if w.recognizer != nil && !w.recognizer(event.Name) {
		return
	}

	w.logger.Debug("inbox event", "path", event.Name, "op", event.Op.String())

	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[event.Name] = time.Now()
}

func (w *Watcher) debounceLoop(ctx context.Context) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			w.processPending(ctx)
		}
	}
}

func (w *Watcher) processPending(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	for path, last := range w.pending {
		if now.Sub(last) < w.debounce {
			continue
		}

		delete(w.pending, path)

		w.logger.Info("product arrival settled", "path", path)

		go func(a Arrival) {
			if err := w.handler(ctx, a); err != nil {
				w.logger.Error("arrival handler error", "path", a.Path, "error", err)
			}
		}(Arrival{Path: path})
	}
}

// AddPath adds a path to watch.
func (w *Watcher) AddPath(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	if err := w.fsWatcher.Add(absPath); err != nil {
		return err
	}

	w.logger.Info("added watch path", "path", absPath)
	return nil
}
