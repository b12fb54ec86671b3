// Package container reads metadata documents out of product containers and
// builds export archives. Supported container forms are plain directories,
// zip archives, tar archives and gzip-compressed tar archives.
package container

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/beevik/etree"

	"github.com/geoarchive/sentinel2/internal/domain"
)

// Format is a product package format.
type Format string

// Package formats.
const (
	FormatNone    Format = "none"
	FormatZip     Format = "zip"
	FormatTar     Format = "tar"
	FormatTarGzip Format = "tar-gzip"
)

// Extension returns the container filename extension for the format.
func (f Format) Extension() string {
	switch f {
	case FormatZip:
		return "zip"
	case FormatTar:
		return "tar"
	case FormatTarGzip:
		return "TGZ"
	}
	return ""
}

// Layout describes how a product presents its documents on disk.
type Layout struct {
	Format    Format // package format, FormatNone when unpackaged
	MultiFile bool   // paired data/header product
}

// Packaged reports whether the product is wrapped in an archive container.
func (l Layout) Packaged() bool {
	return l.Format != FormatNone
}

// ReadDocument opens the product container and returns the root element of
// the XML document at docPath inside it.
//
// Unpackaged products are treated as directories and the document is read
// relative to productPath. Packaged single-file products wrap their payload
// in a directory named after the product, so the document path is prefixed
// with the container's base name; packaged multi-file products apply no such
// prefix.
func ReadDocument(layout Layout, productPath, docPath string) (*etree.Element, error) {
	if !layout.Packaged() {
		return parseFile(filepath.Join(productPath, docPath), docPath)
	}

	entry := docPath
	if !layout.MultiFile {
		entry = path.Join(stripExtension(filepath.Base(productPath)), docPath)
	}

	switch layout.Format {
	case FormatZip:
		return readZipEntry(productPath, entry)
	case FormatTar:
		return readTarEntry(productPath, entry, false)
	case FormatTarGzip:
		return readTarEntry(productPath, entry, true)
	}
	return nil, &domain.ContainerError{Format: string(layout.Format), Path: productPath}
}

// ReadHeader returns the root element of a product's header document.
//
// For unpackaged multi-file products, productPath is the standalone header
// file itself. For packaged multi-file products the header's basename is
// derived from the container's basename and extracted from a gzip-compressed
// tar. Single-file products open the sole payload file (directly or via zip)
// and narrow to its Earth_Explorer_Header element.
//
// The derived entry name strips only the container extension before
// re-appending headerExt, so a zip named stem.EOF.zip holds its payload as
// stem.EOF.EOF. A zip whose member keeps the single suffix (as Export builds
// from a bare stem.EOF file) is not readable back through this convention.
func ReadHeader(layout Layout, productPath, headerExt string) (*etree.Element, error) {
	base := stripExtension(filepath.Base(productPath))

	if layout.MultiFile {
		if layout.Packaged() {
			if layout.Format != FormatTarGzip {
				return nil, &domain.ContainerError{Format: string(layout.Format), Path: productPath}
			}
			return readTarEntry(productPath, base+headerExt, true)
		}
		return parseFile(productPath, filepath.Base(productPath))
	}

	var root *etree.Element
	var err error
	switch {
	case !layout.Packaged():
		root, err = parseFile(productPath, filepath.Base(productPath))
	case layout.Format == FormatZip:
		root, err = readZipEntry(productPath, base+headerExt)
	default:
		return nil, &domain.ContainerError{Format: string(layout.Format), Path: productPath}
	}
	if err != nil {
		return nil, err
	}

	header := root.FindElement("./Earth_Explorer_Header")
	if header == nil {
		return nil, &domain.ParseError{
			Document: filepath.Base(productPath),
			Element:  "Earth_Explorer_Header",
			Err:      domain.ErrNotFound,
		}
	}
	return header, nil
}

func parseFile(filePath, document string) (*etree.Element, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, &domain.DocumentError{Document: document, Product: filePath, Err: err}
	}
	defer f.Close()
	return parseXML(f, document, filePath)
}

func parseXML(r io.Reader, document, product string) (*etree.Element, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, &domain.ParseError{Document: document, Element: "/", Err: err}
	}
	root := doc.Root()
	if root == nil {
		return nil, &domain.ParseError{Document: document, Element: "/", Err: domain.ErrInvalidInput}
	}
	return root, nil
}

func readZipEntry(containerPath, entry string) (*etree.Element, error) {
	zr, err := zip.OpenReader(containerPath)
	if err != nil {
		return nil, &domain.ContainerError{Format: string(FormatZip), Path: containerPath, Err: err}
	}
	defer zr.Close()

	for _, f := range zr.File {
		if path.Clean(f.Name) != entry {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, &domain.ContainerError{Format: string(FormatZip), Path: containerPath, Err: err}
		}
		defer rc.Close()
		return parseXML(rc, entry, containerPath)
	}
	return nil, &domain.DocumentError{Document: entry, Product: containerPath}
}

func readTarEntry(containerPath, entry string, compressed bool) (*etree.Element, error) {
	format := FormatTar
	if compressed {
		format = FormatTarGzip
	}

	f, err := os.Open(containerPath)
	if err != nil {
		return nil, &domain.ContainerError{Format: string(format), Path: containerPath, Err: err}
	}
	defer f.Close()

	var r io.Reader = f
	if compressed {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, &domain.ContainerError{Format: string(format), Path: containerPath, Err: err}
		}
		defer gz.Close()
		r = gz
	}

	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &domain.ContainerError{Format: string(format), Path: containerPath, Err: err}
		}
		if path.Clean(hdr.Name) == entry {
			return parseXML(tr, entry, containerPath)
		}
	}
	return nil, &domain.DocumentError{Document: entry, Product: containerPath}
}

func stripExtension(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
