// Package app provides application initialization and wiring.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/geoarchive/sentinel2/internal/adapters/catalog"
	"github.com/geoarchive/sentinel2/internal/adapters/watcher"
	"github.com/geoarchive/sentinel2/internal/application"
	"github.com/geoarchive/sentinel2/internal/config"
	"github.com/geoarchive/sentinel2/internal/ports/output"
	"github.com/geoarchive/sentinel2/internal/product"
)

// App holds all application components.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Registry *product.Registry
	Catalog  output.ProductCatalog
	Ingest   *application.IngestService
	Watcher  *watcher.Watcher
}

// New creates and initializes a new application.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	app := &App{
		Config:   cfg,
		Logger:   logger,
		Registry: product.NewRegistry(),
	}

	cat, err := catalog.Open(ctx, cfg.Catalog.Path)
	if err != nil {
		return nil, fmt.Errorf("initializing catalog: %w", err)
	}
	app.Catalog = cat

	app.Ingest = application.NewIngestService(app.Registry, app.Catalog, logger)

	w, err := watcher.New(
		watcher.Config{
			Paths:    cfg.Inbox.Paths,
			Debounce: cfg.Inbox.Debounce,
		},
		app.recognize,
		app.handleArrival,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("initializing watcher: %w", err)
	}
	app.Watcher = w

	return app, nil
}

// Start starts the inbox watcher.
func (a *App) Start(ctx context.Context) error {
	return a.Watcher.Start(ctx)
}

// Shutdown gracefully shuts down all components.
func (a *App) Shutdown() error {
	a.Logger.Info("shutting down")

	if err := a.Watcher.Stop(); err != nil {
		a.Logger.Error("watcher shutdown error", "error", err)
	}
	return a.Catalog.Close()
}

// recognize filters raw inbox events down to plausible product arrivals.
// Half of a data/header pair is recognized as well; pairing happens in the
// arrival handler once both halves exist.
func (a *App) recognize(path string) bool {
	if other, ok := pairCounterpart(path); ok {
		_, ok := a.Registry.Detect([]string{path, other})
		return ok
	}
	_, ok := a.Registry.Detect([]string{path})
	return ok
}

// handleArrival ingests a settled arrival. For data/header pairs the ingest
// waits until both halves are on disk; each half triggers the same upsert,
// so the second arrival is harmless.
func (a *App) handleArrival(ctx context.Context, arrival watcher.Arrival) error {
	paths := []string{arrival.Path}
	if other, ok := pairCounterpart(arrival.Path); ok {
		if _, err := os.Stat(other); err != nil {
			a.Logger.Debug("waiting for pair counterpart", "path", arrival.Path, "counterpart", other)
			return nil
		}
		paths = append(paths, other)
	}

	result, err := a.Ingest.Ingest(ctx, paths)
	if err != nil {
		return err
	}

	a.Logger.Info("arrival cataloged",
		"kind", result.Kind,
		"physical_name", result.PhysicalName,
		"archive_path", result.ArchivePath,
	)
	return nil
}

// pairCounterpart returns the other half of a data/header pair filename.
func pairCounterpart(path string) (string, bool) {
	switch {
	case strings.HasSuffix(path, ".DBL"):
		return strings.TrimSuffix(path, ".DBL") + ".HDR", true
	case strings.HasSuffix(path, ".HDR"):
		return strings.TrimSuffix(path, ".HDR") + ".DBL", true
	}
	return "", false
}
