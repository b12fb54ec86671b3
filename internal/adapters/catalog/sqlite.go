// Package catalog provides the sqlite-backed product catalog.
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/geoarchive/sentinel2/internal/domain"
	"github.com/geoarchive/sentinel2/internal/ports/output"
)

// coreColumns are the fixed columns preceding the namespace columns. The
// namespace columns themselves are generated from the schema declaration so
// that the table always matches the namespace definition.
var coreColumns = []string{
	"physical_name",
	"product_name",
	"kind",
	"archive_path",
	"hash",
	"hash_algo",
	"validity_start",
	"validity_stop",
	"creation_date",
	"footprint",
}

// Catalog implements the ProductCatalog port on a sqlite database file.
type Catalog struct {
	db *sql.DB
}

// Open opens (and if needed initializes) the catalog database at path.
func Open(ctx context.Context, path string) (*Catalog, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog %s: %w", path, err)
	}
	c := &Catalog{db: db}
	if err := c.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return c, nil
}

// Close closes the underlying database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

func (c *Catalog) migrate(ctx context.Context) error {
	var cols strings.Builder
	cols.WriteString(`CREATE TABLE IF NOT EXISTS products (
		physical_name TEXT PRIMARY KEY,
		product_name TEXT NOT NULL,
		kind TEXT NOT NULL,
		archive_path TEXT NOT NULL,
		hash TEXT,
		hash_algo TEXT,
		validity_start TEXT NOT NULL,
		validity_stop TEXT,
		creation_date TEXT,
		footprint TEXT`)
	for _, field := range domain.NamespaceSchema() {
		cols.WriteString(",\n\t\t")
		cols.WriteString(field.Name)
		cols.WriteString(" ")
		cols.WriteString(sqlType(field.Type))
	}
	cols.WriteString("\n\t)")

	if _, err := c.db.ExecContext(ctx, cols.String()); err != nil {
		return fmt.Errorf("creating products table: %w", err)
	}

	indexed := []string{"kind", "validity_start"}
	for _, field := range domain.NamespaceSchema() {
		if field.Indexed {
			indexed = append(indexed, field.Name)
		}
	}
	for _, name := range indexed {
		stmt := fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_products_%s ON products(%s)", name, name)
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating index on %s: %w", name, err)
		}
	}
	return nil
}

func sqlType(t domain.FieldType) string {
	switch t {
	case domain.FieldInteger:
		return "INTEGER"
	case domain.FieldReal:
		return "REAL"
	default:
		return "TEXT"
	}
}

// Store inserts the record, replacing any previous record with the same
// physical name.
func (c *Catalog) Store(ctx context.Context, record *output.ProductRecord) error {
	columns := make([]string, 0, len(coreColumns)+len(domain.NamespaceSchema()))
	columns = append(columns, coreColumns...)

	core := record.Properties.Core
	footprint, err := marshalFootprint(core.Footprint)
	if err != nil {
		return fmt.Errorf("storing %s: %w", core.PhysicalName, err)
	}

	values := []interface{}{
		core.PhysicalName,
		core.ProductName,
		record.Kind,
		record.ArchivePath,
		nullableText(record.Hash),
		nullableText(record.HashAlgo),
		core.ValidityStart.Format(time.RFC3339Nano),
		nullableTime(core.ValidityStop),
		nullableTime(core.CreationDate),
		footprint,
	}
	for _, field := range domain.NamespaceSchema() {
		columns = append(columns, field.Name)
		values = append(values, record.Properties.Sentinel2.FieldValue(field.Name))
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	stmt := fmt.Sprintf("INSERT OR REPLACE INTO products (%s) VALUES (%s)",
		strings.Join(columns, ", "), placeholders)

	if _, err := c.db.ExecContext(ctx, stmt, values...); err != nil {
		return fmt.Errorf("storing %s: %w", core.PhysicalName, err)
	}
	return nil
}

// Get returns the record for a physical name.
func (c *Catalog) Get(ctx context.Context, physicalName string) (*output.ProductRecord, error) {
	columns := make([]string, 0, len(coreColumns)+len(domain.NamespaceSchema()))
	columns = append(columns, coreColumns...)
	for _, field := range domain.NamespaceSchema() {
		columns = append(columns, field.Name)
	}

	stmt := fmt.Sprintf("SELECT %s FROM products WHERE physical_name = ?",
		strings.Join(columns, ", "))
	row := c.db.QueryRowContext(ctx, stmt, physicalName)

	record := &output.ProductRecord{}
	core := &record.Properties.Core

	var hash, hashAlgo, stop, created, footprint sql.NullString
	var start string
	dest := []interface{}{
		&core.PhysicalName,
		&core.ProductName,
		&record.Kind,
		&record.ArchivePath,
		&hash,
		&hashAlgo,
		&start,
		&stop,
		&created,
		&footprint,
	}

	ns := make([]interface{}, len(domain.NamespaceSchema()))
	for i, field := range domain.NamespaceSchema() {
		switch field.Type {
		case domain.FieldInteger:
			ns[i] = &sql.NullInt64{}
		case domain.FieldReal:
			ns[i] = &sql.NullFloat64{}
		default:
			ns[i] = &sql.NullString{}
		}
		dest = append(dest, ns[i])
	}

	if err := row.Scan(dest...); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%q: %w", physicalName, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("reading %s: %w", physicalName, err)
	}

	record.Hash = hash.String
	record.HashAlgo = hashAlgo.String

	var err error
	if core.ValidityStart, err = time.Parse(time.RFC3339Nano, start); err != nil {
		return nil, fmt.Errorf("reading %s: validity_start: %w", physicalName, err)
	}
	if stop.Valid {
		if core.ValidityStop, err = time.Parse(time.RFC3339Nano, stop.String); err != nil {
			return nil, fmt.Errorf("reading %s: validity_stop: %w", physicalName, err)
		}
	}
	if created.Valid {
		if core.CreationDate, err = time.Parse(time.RFC3339Nano, created.String); err != nil {
			return nil, fmt.Errorf("reading %s: creation_date: %w", physicalName, err)
		}
	}
	if footprint.Valid {
		if core.Footprint, err = unmarshalFootprint(footprint.String); err != nil {
			return nil, fmt.Errorf("reading %s: %w", physicalName, err)
		}
	}

	for i, field := range domain.NamespaceSchema() {
		setField(&record.Properties.Sentinel2, field, ns[i])
	}
	return record, nil
}

// List returns the physical names of all cataloged products, sorted.
func (c *Catalog) List(ctx context.Context) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, "SELECT physical_name FROM products ORDER BY physical_name")
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func setField(s *domain.Sentinel2Properties, field domain.FieldDefinition, value interface{}) {
	switch field.Name {
	case "mission":
		s.Mission = textOf(value)
	case "absolute_orbit":
		s.AbsoluteOrbit = intOf(value)
	case "relative_orbit":
		s.RelativeOrbit = intOf(value)
	case "orbit_direction":
		s.OrbitDirection = textOf(value)
	case "tile_number":
		s.TileNumber = textOf(value)
	case "datatake_id":
		s.DatatakeID = textOf(value)
	case "processing_baseline":
		s.ProcessingBaseline = intOf(value)
	case "processing_facility":
		s.ProcessingFacility = textOf(value)
	case "processor_name":
		s.ProcessorName = textOf(value)
	case "processor_version":
		s.ProcessorVersion = textOf(value)
	case "cloud_cover":
		s.CloudCover = realOf(value)
	case "snow_cover":
		s.SnowCover = realOf(value)
	}
}

func textOf(value interface{}) string {
	if v, ok := value.(*sql.NullString); ok && v.Valid {
		return v.String
	}
	return ""
}

func intOf(value interface{}) *int {
	if v, ok := value.(*sql.NullInt64); ok && v.Valid {
		return domain.IntRef(int(v.Int64))
	}
	return nil
}

func realOf(value interface{}) *float64 {
	if v, ok := value.(*sql.NullFloat64); ok && v.Valid {
		return domain.RealRef(v.Float64)
	}
	return nil
}

func nullableText(v string) interface{} {
	if v == "" {
		return nil
	}
	return v
}

func nullableTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t.Format(time.RFC3339Nano)
}

// marshalFootprint stores the footprint as a GeoJSON geometry.
func marshalFootprint(p *orb.Polygon) (interface{}, error) {
	if p == nil {
		return nil, nil
	}
	data, err := json.Marshal(geojson.NewGeometry(*p))
	if err != nil {
		return nil, fmt.Errorf("encoding footprint: %w", err)
	}
	return string(data), nil
}

func unmarshalFootprint(data string) (*orb.Polygon, error) {
	geometry, err := geojson.UnmarshalGeometry([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("decoding footprint: %w", err)
	}
	polygon, ok := geometry.Geometry().(orb.Polygon)
	if !ok {
		return nil, fmt.Errorf("footprint is not a polygon: %w", domain.ErrInvalidInput)
	}
	return &polygon, nil
}
