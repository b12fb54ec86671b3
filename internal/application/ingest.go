// Package application contains the application services.
package application

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/geoarchive/sentinel2/internal/domain"
	"github.com/geoarchive/sentinel2/internal/ports/output"
	"github.com/geoarchive/sentinel2/internal/product"
)

// IngestResult summarizes one cataloged product.
type IngestResult struct {
	Kind         string `json:"kind"`
	PhysicalName string `json:"physical_name"`
	ArchivePath  string `json:"archive_path"`
	Hash         string `json:"hash"`
}

// IngestService identifies arriving products, analyzes them and stores the
// result in the product catalog.
type IngestService struct {
	registry *product.Registry
	catalog  output.ProductCatalog
	logger   *slog.Logger
}

// NewIngestService creates a new ingest service.
func NewIngestService(registry *product.Registry, catalog output.ProductCatalog, logger *slog.Logger) *IngestService {
	return &IngestService{
		registry: registry,
		catalog:  catalog,
		logger:   logger,
	}
}

// Ingest runs the full pipeline for one product: detect the kind, analyze
// the metadata, hash the payload, derive the archive path and store the
// record. The path set must be the complete product (both files of a
// data/header pair).
func (s *IngestService) Ingest(ctx context.Context, paths []string) (*IngestResult, error) {
	descriptor, ok := s.registry.Detect(paths)
	if !ok {
		return nil, fmt.Errorf("%v: %w", paths, domain.ErrNotIdentified)
	}

	props, err := descriptor.Analyze(paths, false)
	if err != nil {
		return nil, fmt.Errorf("analyzing %s product: %w", descriptor.Kind(), err)
	}

	hash, err := hashPaths(paths)
	if err != nil {
		return nil, fmt.Errorf("hashing %s product: %w", descriptor.Kind(), err)
	}

	archivePath, err := descriptor.ArchivePath(props)
	if err != nil {
		return nil, err
	}

	record := &output.ProductRecord{
		Properties:  *props,
		Kind:        descriptor.Kind(),
		ArchivePath: archivePath,
		Hash:        hash,
		HashAlgo:    product.HashAlgorithm,
	}
	if err := s.catalog.Store(ctx, record); err != nil {
		return nil, fmt.Errorf("cataloging %s: %w", props.Core.PhysicalName, err)
	}

	s.logger.Info("product ingested",
		"kind", descriptor.Kind(),
		"physical_name", props.Core.PhysicalName,
		"archive_path", archivePath,
	)

	return &IngestResult{
		Kind:         descriptor.Kind(),
		PhysicalName: props.Core.PhysicalName,
		ArchivePath:  archivePath,
		Hash:         hash,
	}, nil
}

// hashPaths computes the payload checksum over every regular file under the
// product paths, in sorted relative order, so the digest is independent of
// walk order.
func hashPaths(paths []string) (string, error) {
	var files []string
	for _, p := range paths {
		err := filepath.Walk(p, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.Mode().IsRegular() {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return "", err
		}
	}
	sort.Strings(files)

	digest := md5.New()
	for _, file := range files {
		f, err := os.Open(file)
		if err != nil {
			return "", err
		}
		_, err = io.Copy(digest, f)
		f.Close()
		if err != nil {
			return "", err
		}
	}
	return hex.EncodeToString(digest.Sum(nil)), nil
}
