// Package product implements the Sentinel-2 product kind descriptors and
// their registry. A descriptor owns its kind's filename grammar, its
// metadata-document extraction rules, its archive-path rule and its packaging
// rule.
package product

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"

	"github.com/geoarchive/sentinel2/internal/container"
	"github.com/geoarchive/sentinel2/internal/domain"
	"github.com/geoarchive/sentinel2/internal/grammar"
)

// HashAlgorithm is the checksum algorithm declared by every product kind.
const HashAlgorithm = "md5"

// Descriptor is the capability set implemented by every product kind.
type Descriptor interface {
	// Kind returns the product kind identifier.
	Kind() string

	// Identify reports whether the candidate path set structurally matches
	// this kind's filename grammar. False is a mismatch, not an error;
	// callers must check before calling Analyze.
	Identify(paths []string) bool

	// ParseFilename extracts the grammar's named fields from the path's
	// basename, or nil when it does not match.
	ParseFilename(path string) grammar.Fields

	// Analyze extracts the property bag from the filename fields and, unless
	// filenameOnly is set, from the kind's metadata documents. Document
	// values supersede filename-derived values. Any extraction failure
	// aborts the whole call; no partial bag is returned.
	Analyze(paths []string, filenameOnly bool) (*domain.Properties, error)

	// ArchivePath returns the relative storage path
	// mission/kind/year/month/day derived from the kind's anchor date.
	ArchivePath(props *domain.Properties) (string, error)

	// Export packages the product into targetDir in the kind's canonical
	// container format and returns the absolute container path. An already
	// packaged product is copied verbatim.
	Export(targetDir string, paths []string) (string, error)

	// Namespaces returns the metadata namespaces the kind declares.
	Namespaces() []string

	// Layout describes the kind's on-disk container layout.
	Layout() container.Layout

	// UsesEnclosingDirectory reports whether the unpackaged product's files
	// live in a dedicated enclosing directory.
	UsesEnclosingDirectory() bool

	// EnclosingDirectoryName returns the enclosing directory name for an
	// analyzed product.
	EnclosingDirectoryName(props *domain.Properties) string
}

// base carries the state and behavior shared by all descriptor variants.
type base struct {
	kind         string
	grammar      *grammar.Grammar
	packaged     bool
	format       container.Format // container format when packaged
	exportFormat container.Format // format Export uses when building a container
	multiFile    bool
}

// Kind returns the product kind identifier.
func (b *base) Kind() string { return b.kind }

// Namespaces returns the metadata namespaces the kind declares.
func (b *base) Namespaces() []string { return []string{domain.NamespaceName} }

// Identify reports whether paths structurally match the kind's grammar.
func (b *base) Identify(paths []string) bool { return b.grammar.Identify(paths) }

// ParseFilename extracts the grammar's named fields from path's basename.
func (b *base) ParseFilename(path string) grammar.Fields {
	return b.grammar.Match(filepath.Base(path))
}

// Layout describes the kind's on-disk container layout.
func (b *base) Layout() container.Layout {
	format := container.FormatNone
	if b.packaged {
		format = b.format
	}
	return container.Layout{Format: format, MultiFile: b.multiFile}
}

// UsesEnclosingDirectory reports whether the unpackaged product's files live
// in a dedicated enclosing directory.
func (b *base) UsesEnclosingDirectory() bool { return b.multiFile && !b.packaged }

// EnclosingDirectoryName returns the enclosing directory name.
func (b *base) EnclosingDirectoryName(props *domain.Properties) string {
	return props.Core.ProductName
}

// ArchivePath derives mission/kind/year/month/day from the validity start
// encoded in the product's physical name.
func (b *base) ArchivePath(props *domain.Properties) (string, error) {
	fields := b.grammar.Match(props.Core.PhysicalName)
	if fields == nil {
		return "", fmt.Errorf("physical name %q does not match %s grammar: %w",
			props.Core.PhysicalName, b.kind, domain.ErrInvalidInput)
	}
	start, err := requiredField(fields, "validity_start", props.Core.PhysicalName)
	if err != nil {
		return "", err
	}
	if len(start) < 8 {
		return "", &domain.FieldError{Field: "validity_start", Filename: props.Core.PhysicalName}
	}
	mission := normalizeMission(fields["mission"])
	return filepath.Join(mission, b.kind, start[0:4], start[4:6], start[6:8]), nil
}

// Export packages the product into targetDir. A product already packaged in
// its canonical format is copied verbatim; anything else is combined into a
// fresh container in the kind's export format. Passing more than one path
// for a packaged kind is a caller bug.
func (b *base) Export(targetDir string, paths []string) (string, error) {
	if b.packaged {
		// Every constructor sets format and exportFormat to the same value
		// for a packaged kind, so the container is already in the export
		// format and can be copied verbatim.
		if len(paths) != 1 {
			return "", fmt.Errorf("export of packaged %s product: got %d paths, want exactly 1: %w",
				b.kind, len(paths), domain.ErrInvalidInput)
		}
		return container.CopyFile(targetDir, paths[0])
	}
	if len(paths) == 0 {
		return "", fmt.Errorf("export of %s product: no paths: %w", b.kind, domain.ErrInvalidInput)
	}

	name := filepath.Base(sortedByBase(paths)[0])
	if b.multiFile {
		name = stripExt(name)
	}
	name += "." + b.exportFormat.Extension()

	switch b.exportFormat {
	case container.FormatZip:
		return container.BuildZip(targetDir, name, paths)
	case container.FormatTar:
		return container.BuildTar(targetDir, name, paths, false)
	case container.FormatTarGzip:
		return container.BuildTar(targetDir, name, paths, true)
	}
	return "", &domain.ContainerError{Format: string(b.exportFormat), Path: targetDir}
}

// productName strips the container extensions from the product's basename.
func (b *base) productName(path string) string {
	name := stripExt(filepath.Base(path))
	if b.packaged {
		name = stripExt(name)
	}
	return name
}

// normalizeMission strips the trailing placeholder from a generic mission
// code: "S2_" becomes "S2", specific satellites (S2A, S2B, ...) are kept.
func normalizeMission(mission string) string {
	if len(mission) == 3 && mission[2] == '_' {
		return mission[:2]
	}
	return mission
}

func stripExt(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}

func sortedByBase(paths []string) []string {
	sorted := make([]string, len(paths))
	copy(sorted, paths)
	sort.Slice(sorted, func(i, j int) bool {
		return filepath.Base(sorted[i]) < filepath.Base(sorted[j])
	})
	return sorted
}

func requiredField(fields grammar.Fields, name, filename string) (string, error) {
	v, ok := fields[name]
	if !ok {
		return "", &domain.FieldError{Field: name, Filename: filename}
	}
	return v, nil
}

func requiredFieldInt(fields grammar.Fields, name, filename string) (int, error) {
	v, err := requiredField(fields, name, filename)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, &domain.ParseError{Element: name, Err: err}
	}
	return n, nil
}

func requiredFieldTime(fields grammar.Fields, name, filename string) (time.Time, error) {
	v, err := requiredField(fields, name, filename)
	if err != nil {
		return time.Time{}, err
	}
	t, err := domain.ParseCompactTime(v)
	if err != nil {
		return time.Time{}, &domain.ParseError{Element: name, Err: err}
	}
	return t, nil
}

// elementText returns the text of the element at path below parent, failing
// with a ParseError when the element is absent.
func elementText(parent *etree.Element, doc, path string) (string, error) {
	el := parent.FindElement(path)
	if el == nil {
		return "", &domain.ParseError{Document: doc, Element: path, Err: domain.ErrNotFound}
	}
	return el.Text(), nil
}

func elementTime(parent *etree.Element, doc, path string, parse func(string) (time.Time, error)) (time.Time, error) {
	text, err := elementText(parent, doc, path)
	if err != nil {
		return time.Time{}, err
	}
	t, err := parse(text)
	if err != nil {
		return time.Time{}, &domain.ParseError{Document: doc, Element: path, Err: err}
	}
	return t, nil
}

func elementFloat(parent *etree.Element, doc, path string) (float64, error) {
	text, err := elementText(parent, doc, path)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return 0, &domain.ParseError{Document: doc, Element: path, Err: err}
	}
	return f, nil
}

func elementInt(parent *etree.Element, doc, path string) (int, error) {
	text, err := elementText(parent, doc, path)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, &domain.ParseError{Document: doc, Element: path, Err: err}
	}
	return n, nil
}

// sliceInt extracts the integer encoded at the fixed character range
// [start:end) of a ground-segment identifier. The offsets are part of the
// identifier encoding and differ between kinds; they must not be re-derived.
func sliceInt(doc, name, id string, start, end int) (int, error) {
	if len(id) < end {
		return 0, &domain.ParseError{
			Document: doc,
			Element:  name,
			Err:      fmt.Errorf("identifier %q shorter than offset %d: %w", id, end, domain.ErrInvalidInput),
		}
	}
	n, err := strconv.Atoi(id[start:end])
	if err != nil {
		return 0, &domain.ParseError{Document: doc, Element: name, Err: err}
	}
	return n, nil
}

// sliceText extracts the substring at the fixed character range [start:end)
// of a ground-segment identifier.
func sliceText(doc, name, id string, start, end int) (string, error) {
	if len(id) < end {
		return "", &domain.ParseError{
			Document: doc,
			Element:  name,
			Err:      fmt.Errorf("identifier %q shorter than offset %d: %w", id, end, domain.ErrInvalidInput),
		}
	}
	return id[start:end], nil
}

// parseFloats parses a whitespace-separated coordinate list.
func parseFloats(doc, name, text string) ([]float64, error) {
	parts := strings.Fields(text)
	values := make([]float64, len(parts))
	for i, part := range parts {
		f, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, &domain.ParseError{Document: doc, Element: name, Err: err}
		}
		values[i] = f
	}
	return values, nil
}

// trailingBaseline extracts the processing baseline encoded as the last five
// characters of an identifier (NN.NN), with the decimal point removed.
func trailingBaseline(doc, name, id string) (int, error) {
	if len(id) < 5 {
		return 0, &domain.ParseError{
			Document: doc,
			Element:  name,
			Err:      fmt.Errorf("identifier %q too short for baseline suffix: %w", id, domain.ErrInvalidInput),
		}
	}
	n, err := strconv.Atoi(strings.ReplaceAll(id[len(id)-5:], ".", ""))
	if err != nil {
		return 0, &domain.ParseError{Document: doc, Element: name, Err: err}
	}
	return n, nil
}
