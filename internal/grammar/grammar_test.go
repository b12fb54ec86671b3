package grammar

import (
	"testing"
)

func testPattern() Pattern {
	return Pattern{
		Segments: []string{
			`(?P<mission>S2(_|A|B|C|D))`,
			`(?P<product_type>MSIL1C)`,
			`(?P<validity_start>[\dT]{15})`,
		},
		Suffix: `\.SAFE$`,
	}
}

func TestMatchExtractsNamedFields(t *testing.T) {
	g := MustCompile(testPattern())

	fields := g.Match("S2A_MSIL1C_20210101T103421.SAFE")
	if fields == nil {
		t.Fatal("Match() = nil, want fields")
	}

	want := map[string]string{
		"mission":        "S2A",
		"product_type":   "MSIL1C",
		"validity_start": "20210101T103421",
	}
	for name, v := range want {
		if fields[name] != v {
			t.Errorf("fields[%q] = %q, want %q", name, fields[name], v)
		}
	}
}

func TestMatchRejections(t *testing.T) {
	g := MustCompile(testPattern())

	tests := []struct {
		name     string
		basename string
	}{
		{"wrong suffix", "S2A_MSIL1C_20210101T103421.zip"},
		{"missing suffix", "S2A_MSIL1C_20210101T103421"},
		{"wrong mission", "S3A_MSIL1C_20210101T103421.SAFE"},
		{"wrong product type", "S2A_MSIL2A_20210101T103421.SAFE"},
		{"leading garbage", "X_S2A_MSIL1C_20210101T103421.SAFE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if g.Match(tt.basename) != nil {
				t.Errorf("Match(%q) matched, want nil", tt.basename)
			}
		})
	}
}

func TestIdentifySingleFile(t *testing.T) {
	g := MustCompile(testPattern())

	if !g.Identify([]string{"/data/S2A_MSIL1C_20210101T103421.SAFE"}) {
		t.Error("Identify(single matching path) = false")
	}
	if g.Identify(nil) {
		t.Error("Identify(no paths) = true")
	}
	if g.Identify([]string{"/data/a.SAFE", "/data/b.SAFE"}) {
		t.Error("Identify(two paths for single-file grammar) = true")
	}
}

func pairedPattern() Pattern {
	return Pattern{
		Segments: []string{
			`(?P<mission>S2(_|A|B|C|D))`,
			`(?P<product_type>AUX_GNSSRD)`,
			`(?P<validity_start>[\dT]{15})`,
		},
		DataSuffix:   `\.DBL$`,
		HeaderSuffix: `\.HDR$`,
	}
}

func TestIdentifyPairedFiles(t *testing.T) {
	g := MustCompile(pairedPattern())
	if !g.Paired() {
		t.Fatal("Paired() = false")
	}

	dbl := "/in/S2A_AUX_GNSSRD_20210101T103421.DBL"
	hdr := "/in/S2A_AUX_GNSSRD_20210101T103421.HDR"

	if !g.Identify([]string{dbl, hdr}) {
		t.Error("Identify(pair) = false")
	}
	// Order of the argument slice must not matter; sorting is internal.
	if !g.Identify([]string{hdr, dbl}) {
		t.Error("Identify(pair, reversed) = false")
	}
	if g.Identify([]string{dbl}) {
		t.Error("Identify(data file only) = true")
	}
	if g.Identify([]string{dbl, hdr, hdr}) {
		t.Error("Identify(three paths) = true")
	}
	if g.Identify([]string{dbl, "/in/S2A_AUX_GNSSRD_20210101T103421.XYZ"}) {
		t.Error("Identify(pair with wrong header suffix) = true")
	}
}

func TestMatchHeader(t *testing.T) {
	g := MustCompile(pairedPattern())

	if !g.MatchHeader("S2A_AUX_GNSSRD_20210101T103421.HDR") {
		t.Error("MatchHeader(header basename) = false")
	}
	if g.MatchHeader("S2A_AUX_GNSSRD_20210101T103421.DBL") {
		t.Error("MatchHeader(data basename) = true")
	}

	single := MustCompile(testPattern())
	if single.MatchHeader("S2A_MSIL1C_20210101T103421.SAFE") {
		t.Error("MatchHeader on unpaired grammar = true")
	}
}

func TestOpenEndedPatternPrefixMatch(t *testing.T) {
	p := pairedPattern()
	g := MustCompile(p)

	// The product pattern of a paired grammar is open-ended so that archive
	// path derivation can parse a stored physical name with no extension.
	fields := g.Match("S2A_AUX_GNSSRD_20210101T103421")
	if fields == nil {
		t.Fatal("Match(bare physical name) = nil")
	}
	if fields["validity_start"] != "20210101T103421" {
		t.Errorf("validity_start = %q", fields["validity_start"])
	}
}

func TestCompileErrors(t *testing.T) {
	if _, err := Compile(Pattern{}); err == nil {
		t.Error("Compile(empty pattern) expected error")
	}
	if _, err := Compile(Pattern{Segments: []string{`(?P<broken>`}}); err == nil {
		t.Error("Compile(invalid regexp) expected error")
	}
}
