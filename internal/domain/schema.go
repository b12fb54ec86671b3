package domain

// NamespaceName is the single metadata namespace declared by every Sentinel-2
// product kind. The host catalogue validates and stores the Sentinel2Properties
// section under this namespace.
const NamespaceName = "sentinel2"

// FieldType is the storage type of a namespace field.
type FieldType string

// Namespace field types.
const (
	FieldText    FieldType = "text"
	FieldInteger FieldType = "integer"
	FieldReal    FieldType = "real"
)

// FieldDefinition declares one field of the namespace schema.
type FieldDefinition struct {
	Name    string
	Type    FieldType
	Indexed bool
}

// NamespaceSchema returns the field declarations of the sentinel2 namespace.
// All fields are optional; the order is stable and suitable for building
// storage schemas.
func NamespaceSchema() []FieldDefinition {
	return []FieldDefinition{
		{Name: "mission", Type: FieldText, Indexed: true},
		{Name: "absolute_orbit", Type: FieldInteger, Indexed: true},
		{Name: "relative_orbit", Type: FieldInteger, Indexed: true},
		{Name: "orbit_direction", Type: FieldText, Indexed: true},
		{Name: "tile_number", Type: FieldText, Indexed: true},
		{Name: "datatake_id", Type: FieldText, Indexed: true},
		{Name: "processing_baseline", Type: FieldInteger, Indexed: true},
		{Name: "processing_facility", Type: FieldText, Indexed: true},
		{Name: "processor_name", Type: FieldText, Indexed: true},
		{Name: "processor_version", Type: FieldText, Indexed: true},
		{Name: "cloud_cover", Type: FieldReal, Indexed: true},
		{Name: "snow_cover", Type: FieldReal, Indexed: true},
	}
}

// FieldValue returns the value of a namespace field by name, or nil when the
// field is unset. The concrete type matches the field's declared FieldType.
func (s *Sentinel2Properties) FieldValue(name string) interface{} {
	switch name {
	case "mission":
		return textValue(s.Mission)
	case "absolute_orbit":
		return intValue(s.AbsoluteOrbit)
	case "relative_orbit":
		return intValue(s.RelativeOrbit)
	case "orbit_direction":
		return textValue(s.OrbitDirection)
	case "tile_number":
		return textValue(s.TileNumber)
	case "datatake_id":
		return textValue(s.DatatakeID)
	case "processing_baseline":
		return intValue(s.ProcessingBaseline)
	case "processing_facility":
		return textValue(s.ProcessingFacility)
	case "processor_name":
		return textValue(s.ProcessorName)
	case "processor_version":
		return textValue(s.ProcessorVersion)
	case "cloud_cover":
		return realValue(s.CloudCover)
	case "snow_cover":
		return realValue(s.SnowCover)
	}
	return nil
}

func textValue(v string) interface{} {
	if v == "" {
		return nil
	}
	return v
}

func intValue(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func realValue(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
