// Package domain contains the core value types shared by all product kinds.
package domain

import (
	"time"

	"github.com/paulmach/orb"
)

// Properties is the result of analyzing a product: a core section common to
// every kind plus the sentinel2 namespace section.
type Properties struct {
	Core      CoreProperties      `json:"core" yaml:"core"`
	Sentinel2 Sentinel2Properties `json:"sentinel2" yaml:"sentinel2"`
}

// CoreProperties holds the kind-independent product properties.
type CoreProperties struct {
	ProductName   string       `json:"product_name" yaml:"product_name"`
	PhysicalName  string       `json:"physical_name" yaml:"physical_name"`
	ValidityStart time.Time    `json:"validity_start" yaml:"validity_start"`
	ValidityStop  time.Time    `json:"validity_stop,omitempty" yaml:"validity_stop,omitempty"`
	CreationDate  time.Time    `json:"creation_date,omitempty" yaml:"creation_date,omitempty"`
	Footprint     *orb.Polygon `json:"footprint,omitempty" yaml:"footprint,omitempty"`
}

// Sentinel2Properties holds the sentinel2 namespace properties. Every field is
// optional; a field is populated only when the kind's filename grammar or
// metadata document provides it.
type Sentinel2Properties struct {
	Mission            string   `json:"mission,omitempty" yaml:"mission,omitempty"`
	AbsoluteOrbit      *int     `json:"absolute_orbit,omitempty" yaml:"absolute_orbit,omitempty"`
	RelativeOrbit      *int     `json:"relative_orbit,omitempty" yaml:"relative_orbit,omitempty"`
	OrbitDirection     string   `json:"orbit_direction,omitempty" yaml:"orbit_direction,omitempty"`
	TileNumber         string   `json:"tile_number,omitempty" yaml:"tile_number,omitempty"`
	DatatakeID         string   `json:"datatake_id,omitempty" yaml:"datatake_id,omitempty"`
	ProcessingBaseline *int     `json:"processing_baseline,omitempty" yaml:"processing_baseline,omitempty"`
	ProcessingFacility string   `json:"processing_facility,omitempty" yaml:"processing_facility,omitempty"`
	ProcessorName      string   `json:"processor_name,omitempty" yaml:"processor_name,omitempty"`
	ProcessorVersion   string   `json:"processor_version,omitempty" yaml:"processor_version,omitempty"`
	CloudCover         *float64 `json:"cloud_cover,omitempty" yaml:"cloud_cover,omitempty"`
	SnowCover          *float64 `json:"snow_cover,omitempty" yaml:"snow_cover,omitempty"`
}

// IntRef returns a pointer to v, for populating optional integer properties.
func IntRef(v int) *int { return &v }

// RealRef returns a pointer to v, for populating optional real properties.
func RealRef(v float64) *float64 { return &v }
