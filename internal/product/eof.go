package product

import (
	"path/filepath"

	"github.com/geoarchive/sentinel2/internal/container"
	"github.com/geoarchive/sentinel2/internal/domain"
	"github.com/geoarchive/sentinel2/internal/grammar"
)

// eofProduct describes the Earth Explorer style auxiliary products: orbit
// files, split data/header calibration files, banded GIPP files and the
// plain-text time-correction files. The filename carries the full validity
// window; when a header document is read, its Fixed_Header values supersede
// the filename-derived ones.
type eofProduct struct {
	base
	headerExt    string // header document extension
	xmlNamespace string // expected header namespace, "" when the header declares none
	filenameOnly bool   // suppress header analysis unconditionally
}

type eofConfig struct {
	split        bool
	packaged     bool
	segments     []string // nil selects the default EOF segment set
	ext          string   // payload extension for single-file kinds, "EOF" by default
	namespace    string
	filenameOnly bool
}

func defaultEOFSegments(kind string) []string {
	return []string{
		`(?P<mission>S2(_|A|B|C|D))`,
		`(?P<file_class>.{4})`,
		`(?P<product_type>` + kind + `)`,
		`(?P<processing_facility>.{4})`,
		`(?P<creation_date>[\dT]{15})`,
		`V(?P<validity_start>[\dT]{15})`,
		`(?P<validity_stop>[\dT]{15})`,
	}
}

func newEOF(kind string, cfg eofConfig) *eofProduct {
	segments := cfg.segments
	if segments == nil {
		segments = defaultEOFSegments(kind)
	}
	ext := cfg.ext
	if ext == "" {
		ext = "EOF"
	}

	pattern := grammar.Pattern{Segments: segments}
	headerExt := "." + ext
	format := container.FormatZip
	exportFormat := container.FormatZip
	if cfg.split {
		headerExt = ".HDR"
		format = container.FormatTarGzip
		exportFormat = container.FormatTarGzip
		if cfg.packaged {
			pattern.Suffix = `\.TGZ$`
		} else {
			pattern.DataSuffix = `\.DBL$`
			pattern.HeaderSuffix = `\.HDR$`
		}
	} else {
		if cfg.packaged {
			pattern.Suffix = `\.` + ext + `\.zip$`
		} else {
			pattern.Suffix = `\.` + ext + `$`
		}
	}

	return &eofProduct{
		base: base{
			kind:         kind,
			grammar:      grammar.MustCompile(pattern),
			packaged:     cfg.packaged,
			format:       format,
			exportFormat: exportFormat,
			multiFile:    cfg.split,
		},
		headerExt:    headerExt,
		xmlNamespace: cfg.namespace,
		filenameOnly: cfg.filenameOnly,
	}
}

// NewEOFProduct returns the descriptor for a single-file Earth Explorer
// product kind (orbit files).
func NewEOFProduct(kind string, packaged bool) Descriptor {
	return newEOF(kind, eofConfig{packaged: packaged})
}

// NewSplitEOFProduct returns the descriptor for a data/header (DBL/HDR) pair
// kind.
func NewSplitEOFProduct(kind string, packaged bool) Descriptor {
	return newEOF(kind, eofConfig{split: true, packaged: packaged})
}

// NewGIPPProduct returns the descriptor for a banded GIPP calibration kind.
// GIPP filenames append a two-character band code, and their headers declare
// the S2 schema namespace.
func NewGIPPProduct(kind string, packaged bool) Descriptor {
	segments := append(defaultEOFSegments(kind),
		`B(?P<band>(00|01|02|03|04|05|06|07|08|8A|09|10|11|12))`)
	return newEOF(kind, eofConfig{
		split:     true,
		packaged:  packaged,
		segments:  segments,
		namespace: "http://eop-cfi.esa.int/S2/S2_SCHEMAS",
	})
}

// NewIERSProduct returns the descriptor for the plain-text time-correction
// kind. Its analysis is always filename-only: the text payload never carries
// anything beyond what the filename already encodes.
func NewIERSProduct(kind string, packaged bool) Descriptor {
	return newEOF(kind, eofConfig{packaged: packaged, ext: "txt", filenameOnly: true})
}

// Analyze extracts the property bag from the filename fields and, unless
// filename-only analysis applies, from the header document.
func (p *eofProduct) Analyze(paths []string, filenameOnly bool) (*domain.Properties, error) {
	if p.filenameOnly {
		filenameOnly = true
	}

	var inpath string
	var fields grammar.Fields
	if p.multiFile && !p.packaged {
		// The pair sorts data-first; the header carries the metadata.
		sorted := sortedByBase(paths)
		inpath = sorted[len(sorted)-1]
		fields = p.grammar.Match(stripExt(filepath.Base(paths[0])))
	} else {
		inpath = paths[0]
		fields = p.ParseFilename(inpath)
	}
	if fields == nil {
		return nil, domain.ErrNotIdentified
	}

	props := &domain.Properties{}
	props.Core.ProductName = stripExt(filepath.Base(inpath))
	if p.UsesEnclosingDirectory() {
		props.Core.PhysicalName = props.Core.ProductName
	} else {
		props.Core.PhysicalName = filepath.Base(inpath)
	}

	var err error
	if fields.Has("creation_date") {
		if props.Core.CreationDate, err = requiredFieldTime(fields, "creation_date", props.Core.PhysicalName); err != nil {
			return nil, err
		}
	}
	if props.Core.ValidityStart, err = requiredFieldTime(fields, "validity_start", props.Core.PhysicalName); err != nil {
		return nil, err
	}
	stop, err := requiredField(fields, "validity_stop", props.Core.PhysicalName)
	if err != nil {
		return nil, err
	}
	if props.Core.ValidityStop, err = domain.ParseCompactStop(stop); err != nil {
		return nil, &domain.ParseError{Element: "validity_stop", Err: err}
	}

	props.Sentinel2.Mission = normalizeMission(fields["mission"])
	if fields.Has("processing_facility") {
		props.Sentinel2.ProcessingFacility = fields["processing_facility"]
	}

	if !filenameOnly {
		if err := p.analyzeHeader(inpath, props); err != nil {
			return nil, err
		}
	}
	return props, nil
}

func (p *eofProduct) analyzeHeader(inpath string, props *domain.Properties) error {
	doc := filepath.Base(inpath)
	header, err := container.ReadHeader(p.Layout(), inpath, p.headerExt)
	if err != nil {
		return err
	}

	// Not every header document declares a namespace; when this kind's does,
	// a conflicting declaration means the wrong document.
	if p.xmlNamespace != "" {
		if ns := header.SelectAttrValue("xmlns", ""); ns != "" && ns != p.xmlNamespace {
			return &domain.ParseError{
				Document: doc,
				Element:  "xmlns",
				Err:      domain.ErrInvalidInput,
			}
		}
	}

	if props.Core.ValidityStart, err = elementTime(header, doc, "./Fixed_Header/Validity_Period/Validity_Start", domain.ParseUTCTime); err != nil {
		return err
	}
	if props.Core.ValidityStop, err = elementTime(header, doc, "./Fixed_Header/Validity_Period/Validity_Stop", domain.ParseUTCStop); err != nil {
		return err
	}
	if props.Core.CreationDate, err = elementTime(header, doc, "./Fixed_Header/Source/Creation_Date", domain.ParseUTCTime); err != nil {
		return err
	}

	facility, err := elementText(header, doc, "./Fixed_Header/Source/System")
	if err != nil {
		return err
	}
	props.Sentinel2.ProcessingFacility = facility

	name, err := elementText(header, doc, "./Fixed_Header/Source/Creator")
	if err != nil {
		return err
	}
	props.Sentinel2.ProcessorName = name

	version, err := elementText(header, doc, "./Fixed_Header/Source/Creator_Version")
	if err != nil {
		return err
	}
	props.Sentinel2.ProcessorVersion = version
	return nil
}
