// Package output defines the secondary ports of the archive.
package output

import (
	"context"

	"github.com/geoarchive/sentinel2/internal/domain"
)

// ProductRecord is a cataloged product: the analyzed property bag plus the
// archival bookkeeping derived during ingest.
type ProductRecord struct {
	Properties  domain.Properties
	Kind        string
	ArchivePath string // relative storage path mission/kind/year/month/day
	Hash        string // payload checksum, empty when not computed
	HashAlgo    string
}

// ProductCatalog defines the secondary port for product metadata persistence.
type ProductCatalog interface {
	// Store inserts the record, replacing any previous record with the same
	// physical name.
	Store(ctx context.Context, record *ProductRecord) error

	// Get returns the record for a physical name.
	Get(ctx context.Context, physicalName string) (*ProductRecord, error)

	// List returns the physical names of all cataloged products, sorted.
	List(ctx context.Context) ([]string, error)

	// Close releases the catalog's resources.
	Close() error
}
