package product

import (
	"fmt"

	"github.com/geoarchive/sentinel2/internal/domain"
)

// Registry is the fixed mapping from product kind identifier to descriptor,
// built once from the static kind tables and read-only thereafter.
type Registry struct {
	order       []string
	descriptors map[string]Descriptor
}

// NewRegistry builds the registry of all known product kinds in their
// canonical unpackaged form.
func NewRegistry() *Registry {
	r := &Registry{descriptors: make(map[string]Descriptor)}
	for _, kind := range UserProductKinds {
		r.add(NewSAFEProduct(kind, false))
	}
	for _, kind := range PDIProductKinds {
		r.add(NewPDIProduct(kind, false))
	}
	for _, kind := range OrbitKinds {
		r.add(NewEOFProduct(kind, false))
	}
	for _, kind := range SplitAuxKinds {
		r.add(NewSplitEOFProduct(kind, false))
	}
	for _, kind := range CalibrationKinds {
		r.add(NewGIPPProduct(kind, false))
	}
	for _, kind := range TimeCorrectionKinds {
		r.add(NewIERSProduct(kind, false))
	}
	return r
}

func (r *Registry) add(d Descriptor) {
	r.order = append(r.order, d.Kind())
	r.descriptors[d.Kind()] = d
}

// Lookup returns the descriptor for a product kind.
func (r *Registry) Lookup(kind string) (Descriptor, error) {
	d, ok := r.descriptors[kind]
	if !ok {
		return nil, fmt.Errorf("%q: %w", kind, domain.ErrUnknownProductType)
	}
	return d, nil
}

// Kinds returns all registered kind identifiers in registration order.
func (r *Registry) Kinds() []string {
	kinds := make([]string, len(r.order))
	copy(kinds, r.order)
	return kinds
}

// Detect returns the first registered descriptor that identifies the
// candidate path set. Iteration order is the fixed registration order, so
// detection is deterministic.
func (r *Registry) Detect(paths []string) (Descriptor, bool) {
	for _, kind := range r.order {
		d := r.descriptors[kind]
		if d.Identify(paths) {
			return d, true
		}
	}
	return nil, false
}
