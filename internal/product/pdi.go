package product

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/geoarchive/sentinel2/internal/container"
	"github.com/geoarchive/sentinel2/internal/domain"
	"github.com/geoarchive/sentinel2/internal/grammar"
)

// pdiProduct describes the PDI-layer datastrip (..._DS) and tile (..._TL)
// descriptors. Level-1C kinds carry an inventory metadata document; Level-2A
// kinds carry level-specific MTD documents whose element paths differ
// between datastrips and tiles.
type pdiProduct struct {
	base
}

// NewPDIProduct returns the descriptor for a datastrip or tile kind.
func NewPDIProduct(kind string, packaged bool) Descriptor {
	segments := []string{
		`(?P<mission>S2(_|A|B|C|D))`,
		`(?P<file_class>.{4})`,
		`(?P<product_type>` + kind + `)`,
		`(?P<site_centre>.{4})`,
		`(?P<creation_date>[\dT]{15})`,
	}
	switch {
	case strings.HasSuffix(kind, "DS"):
		segments = append(segments, `S(?P<validity_start>[\dT]{15})`)
	case strings.HasSuffix(kind, "TL"):
		segments = append(segments,
			`A(?P<absolute_orbit>[\d]{6})`,
			`T(?P<tile_number>.{5})`,
		)
	}
	segments = append(segments, `N(?P<processing_baseline>[\d]{2}\.[\d]{2})`)

	pattern := grammar.Pattern{Segments: segments}
	if packaged {
		pattern.Suffix = `\.zip$`
	} else {
		pattern.Suffix = `$`
	}
	return &pdiProduct{base{
		kind:         kind,
		grammar:      grammar.MustCompile(pattern),
		packaged:     packaged,
		format:       container.FormatZip,
		exportFormat: container.FormatZip,
	}}
}

// ArchivePath derives mission/kind/year/month/day from the analyzed validity
// start. Tile kinds carry no validity start in their filename, so a
// filename-only analysis cannot produce an archive path.
func (p *pdiProduct) ArchivePath(props *domain.Properties) (string, error) {
	if props.Core.ValidityStart.IsZero() {
		return "", fmt.Errorf("archive path for %s: validity start unset: %w", p.kind, domain.ErrInvalidInput)
	}
	if props.Sentinel2.Mission == "" {
		return "", fmt.Errorf("archive path for %s: mission unset: %w", p.kind, domain.ErrInvalidInput)
	}
	start := props.Core.ValidityStart
	return filepath.Join(
		props.Sentinel2.Mission,
		p.kind,
		fmt.Sprintf("%04d", start.Year()),
		fmt.Sprintf("%02d", int(start.Month())),
		fmt.Sprintf("%02d", start.Day()),
	), nil
}

// Analyze extracts the property bag from the filename and, unless
// filenameOnly is set, from the kind's metadata document.
func (p *pdiProduct) Analyze(paths []string, filenameOnly bool) (*domain.Properties, error) {
	inpath := paths[0]
	fields := p.ParseFilename(inpath)
	if fields == nil {
		return nil, domain.ErrNotIdentified
	}

	props := &domain.Properties{}
	props.Core.ProductName = p.productName(inpath)
	props.Core.PhysicalName = filepath.Base(inpath)

	var err error
	if fields.Has("validity_start") {
		if props.Core.ValidityStart, err = requiredFieldTime(fields, "validity_start", props.Core.PhysicalName); err != nil {
			return nil, err
		}
	}
	if props.Core.CreationDate, err = requiredFieldTime(fields, "creation_date", props.Core.PhysicalName); err != nil {
		return nil, err
	}

	props.Sentinel2.Mission = normalizeMission(fields["mission"])
	props.Sentinel2.ProcessingFacility = fields["site_centre"]

	rawBaseline, err := requiredField(fields, "processing_baseline", props.Core.PhysicalName)
	if err != nil {
		return nil, err
	}
	baseline, err := strconv.Atoi(strings.ReplaceAll(rawBaseline, ".", ""))
	if err != nil {
		return nil, &domain.ParseError{Element: "processing_baseline", Err: err}
	}
	props.Sentinel2.ProcessingBaseline = domain.IntRef(baseline)

	if fields.Has("absolute_orbit") {
		orbit, err := requiredFieldInt(fields, "absolute_orbit", props.Core.PhysicalName)
		if err != nil {
			return nil, err
		}
		props.Sentinel2.AbsoluteOrbit = domain.IntRef(orbit)
	}
	if fields.Has("tile_number") {
		props.Sentinel2.TileNumber = fields["tile_number"]
	}

	if !filenameOnly {
		if err := p.analyzeDocument(inpath, props); err != nil {
			return nil, err
		}
	}
	return props, nil
}

func (p *pdiProduct) analyzeDocument(inpath string, props *domain.Properties) error {
	switch {
	case strings.HasPrefix(p.kind, "MSI_L1C"):
		root, err := container.ReadDocument(p.Layout(), inpath, "Inventory_Metadata.xml")
		if err != nil {
			return err
		}
		return p.analyzeInventory(root, "Inventory_Metadata.xml", props)
	case p.kind == "MSI_L2A_DS":
		root, err := container.ReadDocument(p.Layout(), inpath, "MTD_DS.xml")
		if err != nil {
			return err
		}
		return p.analyzeDatastrip(root, "MTD_DS.xml", props)
	case p.kind == "MSI_L2A_TL":
		root, err := container.ReadDocument(p.Layout(), inpath, "MTD_TL.xml")
		if err != nil {
			return err
		}
		return p.analyzeTile(root, "MTD_TL.xml", props)
	}
	return nil
}

// analyzeInventory reads the Level-1C inventory metadata: validity window,
// footprint from separate latitude/longitude lists, orbit direction from the
// ascending flag, and orbit/baseline sliced from the group identifier.
func (p *pdiProduct) analyzeInventory(root *etree.Element, doc string, props *domain.Properties) error {
	var err error
	if props.Core.ValidityStart, err = elementTime(root, doc, "./Validity_Start", domain.ParseUTCTime); err != nil {
		return err
	}
	if props.Core.ValidityStop, err = elementTime(root, doc, "./Validity_Stop", domain.ParseUTCTime); err != nil {
		return err
	}
	if props.Core.CreationDate, err = elementTime(root, doc, "./Generation_Time", domain.ParseUTCTime); err != nil {
		return err
	}

	points := root.FindElement("./Geographic_Localization/List_Of_Geo_Pnt")
	if points == nil {
		return &domain.ParseError{Document: doc, Element: "List_Of_Geo_Pnt", Err: domain.ErrNotFound}
	}
	latitudes, err := pointValues(points, doc, "LATITUDE")
	if err != nil {
		return err
	}
	longitudes, err := pointValues(points, doc, "LONGITUDE")
	if err != nil {
		return err
	}
	if props.Core.Footprint, err = domain.FootprintFromLatLonLists(latitudes, longitudes); err != nil {
		return &domain.ParseError{Document: doc, Element: "List_Of_Geo_Pnt", Err: err}
	}

	groupID, err := elementText(root, doc, "./Group_ID")
	if err != nil {
		return err
	}
	props.Sentinel2.DatatakeID = groupID
	orbit, err := sliceInt(doc, "Group_ID", groupID, 21, 27)
	if err != nil {
		return err
	}
	props.Sentinel2.AbsoluteOrbit = domain.IntRef(orbit)

	ascending, err := elementText(root, doc, "./Ascending_Flag")
	if err != nil {
		return err
	}
	if ascending == "true" {
		props.Sentinel2.OrbitDirection = "ascending"
	} else {
		props.Sentinel2.OrbitDirection = "descending"
	}

	baseline, err := trailingBaseline(doc, "Group_ID", groupID)
	if err != nil {
		return err
	}
	props.Sentinel2.ProcessingBaseline = domain.IntRef(baseline)

	cloud, err := elementFloat(root, doc, "./CloudPercentage")
	if err != nil {
		return err
	}
	props.Sentinel2.CloudCover = domain.RealRef(cloud)
	return nil
}

// analyzeDatastrip reads the Level-2A datastrip metadata.
func (p *pdiProduct) analyzeDatastrip(root *etree.Element, doc string, props *domain.Properties) error {
	info := root.FindElement("./General_Info")
	if info == nil {
		return &domain.ParseError{Document: doc, Element: "General_Info", Err: domain.ErrNotFound}
	}
	datatakeInfo := info.FindElement("./Datatake_Info")
	if datatakeInfo == nil {
		return &domain.ParseError{Document: doc, Element: "Datatake_Info", Err: domain.ErrNotFound}
	}

	var err error
	if props.Core.ValidityStart, err = elementTime(info, doc, "./Datastrip_Time_Info/DATASTRIP_SENSING_START", domain.ParseXMLTime); err != nil {
		return err
	}
	if props.Core.ValidityStop, err = elementTime(info, doc, "./Datastrip_Time_Info/DATASTRIP_SENSING_STOP", domain.ParseXMLTime); err != nil {
		return err
	}
	if props.Core.CreationDate, err = elementTime(info, doc, "./Archiving_Info/ARCHIVING_TIME", domain.ParseXMLTime); err != nil {
		return err
	}

	props.Sentinel2.DatatakeID = datatakeInfo.SelectAttrValue("datatakeIdentifier", "")
	orbit, err := sliceInt(doc, "datatakeIdentifier", props.Sentinel2.DatatakeID, 21, 27)
	if err != nil {
		return err
	}
	props.Sentinel2.AbsoluteOrbit = domain.IntRef(orbit)

	relOrbit, err := elementInt(datatakeInfo, doc, "./SENSING_ORBIT_NUMBER")
	if err != nil {
		return err
	}
	props.Sentinel2.RelativeOrbit = domain.IntRef(relOrbit)

	direction, err := elementText(datatakeInfo, doc, "./SENSING_ORBIT_DIRECTION")
	if err != nil {
		return err
	}
	props.Sentinel2.OrbitDirection = strings.ToLower(direction)

	baseline, err := trailingBaseline(doc, "datatakeIdentifier", props.Sentinel2.DatatakeID)
	if err != nil {
		return err
	}
	props.Sentinel2.ProcessingBaseline = domain.IntRef(baseline)

	facility, err := elementText(info, doc, "./Processing_Info/PROCESSING_CENTER")
	if err != nil {
		return err
	}
	props.Sentinel2.ProcessingFacility = facility
	return nil
}

// analyzeTile reads the Level-2A tile metadata. The tile identifier encodes
// the absolute orbit at characters 42-48, the tile number at 50-55, the
// processing facility at 20-24 and the baseline as its last five characters.
func (p *pdiProduct) analyzeTile(root *etree.Element, doc string, props *domain.Properties) error {
	info := root.FindElement("./General_Info")
	if info == nil {
		return &domain.ParseError{Document: doc, Element: "General_Info", Err: domain.ErrNotFound}
	}

	tileID, err := elementText(info, doc, "./TILE_ID")
	if err != nil {
		return err
	}
	if props.Core.ValidityStart, err = elementTime(info, doc, "./SENSING_TIME", domain.ParseXMLTime); err != nil {
		return err
	}
	if props.Core.CreationDate, err = elementTime(info, doc, "./Archiving_Info/ARCHIVING_TIME", domain.ParseXMLTime); err != nil {
		return err
	}

	orbit, err := sliceInt(doc, "TILE_ID", tileID, 42, 48)
	if err != nil {
		return err
	}
	props.Sentinel2.AbsoluteOrbit = domain.IntRef(orbit)

	tile, err := sliceText(doc, "TILE_ID", tileID, 50, 55)
	if err != nil {
		return err
	}
	props.Sentinel2.TileNumber = tile

	baseline, err := trailingBaseline(doc, "TILE_ID", tileID)
	if err != nil {
		return err
	}
	props.Sentinel2.ProcessingBaseline = domain.IntRef(baseline)

	facility, err := sliceText(doc, "TILE_ID", tileID, 20, 24)
	if err != nil {
		return err
	}
	props.Sentinel2.ProcessingFacility = facility

	qi := root.FindElement("./Quality_Indicators_Info")
	if qi == nil {
		return &domain.ParseError{Document: doc, Element: "Quality_Indicators_Info", Err: domain.ErrNotFound}
	}
	cloud, err := elementFloat(qi, doc, "./Image_Content_QI/CLOUDY_PIXEL_PERCENTAGE")
	if err != nil {
		return err
	}
	props.Sentinel2.CloudCover = domain.RealRef(cloud)
	return nil
}

func pointValues(points *etree.Element, doc, tag string) ([]float64, error) {
	elements := points.FindElements("./Geo_Pnt/" + tag)
	values := make([]float64, len(elements))
	for i, el := range elements {
		f, err := strconv.ParseFloat(strings.TrimSpace(el.Text()), 64)
		if err != nil {
			return nil, &domain.ParseError{Document: doc, Element: tag, Err: err}
		}
		values[i] = f
	}
	return values, nil
}
