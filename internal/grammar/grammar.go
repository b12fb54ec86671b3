// Package grammar compiles product filename patterns and extracts their
// named fields.
//
// A grammar is an ordered sequence of named sub-patterns joined by the fixed
// "_" delimiter, anchored at the start of the basename, with a kind-specific
// fixed suffix. Paired data/header kinds compile an open-ended base pattern
// plus one matcher per component suffix.
package grammar

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
)

// Fields maps grammar field names to their raw string captures.
type Fields map[string]string

// Has reports whether the named field was captured.
func (f Fields) Has(name string) bool {
	_, ok := f[name]
	return ok
}

// Pattern describes one filename grammar before compilation.
type Pattern struct {
	// Segments are the named sub-patterns, joined by the field delimiter.
	Segments []string
	// Suffix is the fixed suffix appended to the joined segments, as regular
	// expression source including the trailing anchor. Empty means the
	// pattern is open-ended (prefix match).
	Suffix string
	// DataSuffix and HeaderSuffix, when both set, make this a paired grammar:
	// identification expects exactly two companion files whose basenames end
	// in these suffixes.
	DataSuffix   string
	HeaderSuffix string
}

// Grammar is a compiled filename grammar.
type Grammar struct {
	product *regexp.Regexp // base + Suffix
	data    *regexp.Regexp // base + DataSuffix, paired grammars only
	header  *regexp.Regexp // base + HeaderSuffix, paired grammars only
	paired  bool
}

// Compile builds the matcher set for a pattern.
func Compile(p Pattern) (*Grammar, error) {
	if len(p.Segments) == 0 {
		return nil, fmt.Errorf("grammar: no segments")
	}
	base := "^" + p.Segments[0]
	for _, s := range p.Segments[1:] {
		base += "_" + s
	}

	g := &Grammar{paired: p.DataSuffix != "" && p.HeaderSuffix != ""}

	var err error
	if g.product, err = regexp.Compile(base + p.Suffix); err != nil {
		return nil, fmt.Errorf("grammar: compiling product pattern: %w", err)
	}
	if g.paired {
		if g.data, err = regexp.Compile(base + p.DataSuffix); err != nil {
			return nil, fmt.Errorf("grammar: compiling data pattern: %w", err)
		}
		if g.header, err = regexp.Compile(base + p.HeaderSuffix); err != nil {
			return nil, fmt.Errorf("grammar: compiling header pattern: %w", err)
		}
	}
	return g, nil
}

// MustCompile is Compile for statically known patterns.
func MustCompile(p Pattern) *Grammar {
	g, err := Compile(p)
	if err != nil {
		panic(err)
	}
	return g
}

// Paired reports whether this grammar identifies a data/header file pair.
func (g *Grammar) Paired() bool {
	return g.paired
}

// Match extracts the named fields from a basename, or nil when the basename
// does not match the product pattern.
func (g *Grammar) Match(basename string) Fields {
	m := g.product.FindStringSubmatch(basename)
	if m == nil {
		return nil
	}
	fields := make(Fields)
	for i, name := range g.product.SubexpNames() {
		if name != "" {
			fields[name] = m[i]
		}
	}
	return fields
}

// MatchHeader reports whether basename matches the header-component pattern
// of a paired grammar.
func (g *Grammar) MatchHeader(basename string) bool {
	return g.paired && g.header.MatchString(basename)
}

// Identify reports whether a candidate path set structurally matches this
// grammar: a single path matching the product pattern, or, for paired
// grammars, exactly two paths whose lexicographically ascending basenames
// match the data and header patterns in that order. Any other shape is
// rejected.
func (g *Grammar) Identify(paths []string) bool {
	if g.paired {
		if len(paths) != 2 {
			return false
		}
		names := []string{filepath.Base(paths[0]), filepath.Base(paths[1])}
		sort.Strings(names)
		return g.data.MatchString(names[0]) && g.header.MatchString(names[1])
	}
	if len(paths) != 1 {
		return false
	}
	return g.product.MatchString(filepath.Base(paths[0]))
}
