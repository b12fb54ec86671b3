package product

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/geoarchive/sentinel2/internal/container"
	"github.com/geoarchive/sentinel2/internal/domain"
	"github.com/geoarchive/sentinel2/internal/grammar"
)

// safeProduct describes the self-describing user-level imagery products
// distributed in SAFE containers (MSIL1C, MSIL2A). The product's own MTD
// descriptor document carries the authoritative timestamps, orbit, footprint
// and quality indicators.
type safeProduct struct {
	base
}

// NewSAFEProduct returns the descriptor for a user product kind. Packaged
// products are zip archives wrapping the SAFE directory.
func NewSAFEProduct(kind string, packaged bool) Descriptor {
	pattern := grammar.Pattern{
		Segments: []string{
			`(?P<mission>S2(_|A|B|C|D))`,
			`(?P<product_type>` + kind + `)`,
			`(?P<validity_start>[\dT]{15})`,
			`N(?P<processing_baseline>[\d]{4})`,
			`R(?P<relative_orbit>[\d]{3})`,
			`T(?P<tile_number>.{5})`,
			`(?P<creation_date>[\dT]{15})`,
		},
		Suffix: `\.SAFE$`,
	}
	if packaged {
		pattern.Suffix = `\.SAFE\.zip$`
	}
	return &safeProduct{base{
		kind:         kind,
		grammar:      grammar.MustCompile(pattern),
		packaged:     packaged,
		format:       container.FormatZip,
		exportFormat: container.FormatZip,
	}}
}

// Analyze extracts the property bag from the filename and, unless
// filenameOnly is set, from the product's MTD descriptor document.
func (p *safeProduct) Analyze(paths []string, filenameOnly bool) (*domain.Properties, error) {
	inpath := paths[0]
	fields := p.ParseFilename(inpath)
	if fields == nil {
		return nil, domain.ErrNotIdentified
	}

	props := &domain.Properties{}
	props.Core.ProductName = p.productName(inpath)
	props.Core.PhysicalName = filepath.Base(inpath)

	var err error
	if props.Core.ValidityStart, err = requiredFieldTime(fields, "validity_start", props.Core.PhysicalName); err != nil {
		return nil, err
	}
	if props.Core.CreationDate, err = requiredFieldTime(fields, "creation_date", props.Core.PhysicalName); err != nil {
		return nil, err
	}

	props.Sentinel2.Mission = normalizeMission(fields["mission"])
	baseline, err := requiredFieldInt(fields, "processing_baseline", props.Core.PhysicalName)
	if err != nil {
		return nil, err
	}
	props.Sentinel2.ProcessingBaseline = domain.IntRef(baseline)
	relOrbit, err := requiredFieldInt(fields, "relative_orbit", props.Core.PhysicalName)
	if err != nil {
		return nil, err
	}
	props.Sentinel2.RelativeOrbit = domain.IntRef(relOrbit)
	props.Sentinel2.TileNumber = fields["tile_number"]

	if !filenameOnly {
		doc := "MTD_" + p.kind + ".xml"
		root, err := container.ReadDocument(p.Layout(), inpath, doc)
		if err != nil {
			return nil, err
		}
		if err := p.analyzeDescriptor(root, doc, props); err != nil {
			return nil, err
		}
	}
	return props, nil
}

// analyzeDescriptor layers the MTD document's values over the
// filename-derived ones. The absolute orbit is encoded at characters 21-27
// of the datatake identifier; the footprint coordinate list is in lat,lon
// document order.
func (p *safeProduct) analyzeDescriptor(root *etree.Element, doc string, props *domain.Properties) error {
	info := root.FindElement(".//Product_Info")
	if info == nil {
		return &domain.ParseError{Document: doc, Element: "Product_Info", Err: domain.ErrNotFound}
	}

	var err error
	if props.Core.ValidityStart, err = elementTime(info, doc, "./PRODUCT_START_TIME", domain.ParseXMLTime); err != nil {
		return err
	}
	if props.Core.ValidityStop, err = elementTime(info, doc, "./PRODUCT_STOP_TIME", domain.ParseXMLTime); err != nil {
		return err
	}
	if props.Core.CreationDate, err = elementTime(info, doc, "./GENERATION_TIME", domain.ParseXMLTime); err != nil {
		return err
	}

	datatake := info.FindElement("./Datatake")
	if datatake == nil {
		return &domain.ParseError{Document: doc, Element: "Datatake", Err: domain.ErrNotFound}
	}
	props.Sentinel2.DatatakeID = datatake.SelectAttrValue("datatakeIdentifier", "")
	orbit, err := sliceInt(doc, "datatakeIdentifier", props.Sentinel2.DatatakeID, 21, 27)
	if err != nil {
		return err
	}
	props.Sentinel2.AbsoluteOrbit = domain.IntRef(orbit)

	direction, err := elementText(info, doc, "./Datatake/SENSING_ORBIT_DIRECTION")
	if err != nil {
		return err
	}
	props.Sentinel2.OrbitDirection = strings.ToLower(direction)

	posList, err := elementText(root, doc, ".//Global_Footprint/EXT_POS_LIST")
	if err != nil {
		return err
	}
	coords, err := parseFloats(doc, "EXT_POS_LIST", posList)
	if err != nil {
		return err
	}
	if props.Core.Footprint, err = domain.FootprintFromPosList(coords); err != nil {
		return &domain.ParseError{Document: doc, Element: "EXT_POS_LIST", Err: err}
	}

	qi := root.FindElement("./Quality_Indicators_Info")
	if qi == nil {
		return &domain.ParseError{Document: doc, Element: "Quality_Indicators_Info", Err: domain.ErrNotFound}
	}
	cloud, err := elementFloat(qi, doc, "./Cloud_Coverage_Assessment")
	if err != nil {
		return err
	}
	props.Sentinel2.CloudCover = domain.RealRef(cloud)
	// Snow assessment is absent from products without a snow evaluation.
	if snow := qi.FindElement("./Snow_Coverage_Assessment"); snow != nil {
		value, err := strconv.ParseFloat(strings.TrimSpace(snow.Text()), 64)
		if err != nil {
			return &domain.ParseError{Document: doc, Element: "Snow_Coverage_Assessment", Err: err}
		}
		props.Sentinel2.SnowCover = domain.RealRef(value)
	}
	return nil
}
