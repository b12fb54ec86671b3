package application

import (
	"context"

	"github.com/geoarchive/sentinel2/internal/domain"
	"github.com/geoarchive/sentinel2/internal/ports/output"
)

// mockCatalog implements output.ProductCatalog for testing.
type mockCatalog struct {
	records  map[string]*output.ProductRecord
	storeErr error
}

func newMockCatalog() *mockCatalog {
	return &mockCatalog{records: make(map[string]*output.ProductRecord)}
}

func (m *mockCatalog) Store(_ context.Context, record *output.ProductRecord) error {
	if m.storeErr != nil {
		return m.storeErr
	}
	m.records[record.Properties.Core.PhysicalName] = record
	return nil
}

func (m *mockCatalog) Get(_ context.Context, physicalName string) (*output.ProductRecord, error) {
	record, ok := m.records[physicalName]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return record, nil
}

func (m *mockCatalog) List(_ context.Context) ([]string, error) {
	names := make([]string, 0, len(m.records))
	for name := range m.records {
		names = append(names, name)
	}
	return names, nil
}

func (m *mockCatalog) Close() error { return nil }
