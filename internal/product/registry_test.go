package product

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geoarchive/sentinel2/internal/domain"
)

func TestRegistryCoversAllKindTables(t *testing.T) {
	r := NewRegistry()
	kinds := r.Kinds()

	var want []string
	want = append(want, UserProductKinds...)
	want = append(want, PDIProductKinds...)
	want = append(want, OrbitKinds...)
	want = append(want, SplitAuxKinds...)
	want = append(want, CalibrationKinds...)
	want = append(want, TimeCorrectionKinds...)

	assert.Equal(t, want, kinds, "registration order follows the kind tables")

	for _, kind := range want {
		d, err := r.Lookup(kind)
		require.NoError(t, err, kind)
		assert.Equal(t, kind, d.Kind())
	}
}

func TestRegistryLookupUnknownKind(t *testing.T) {
	r := NewRegistry()

	_, err := r.Lookup("MSI_L3X_DS")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnknownProductType)
}

func TestRegistryDetect(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		name  string
		paths []string
		kind  string
	}{
		{
			name:  "user product",
			paths: []string{safeName},
			kind:  "MSIL1C",
		},
		{
			name:  "datastrip",
			paths: []string{datastripL1CName},
			kind:  "MSI_L1C_DS",
		},
		{
			name:  "tile",
			paths: []string{tileL2AName},
			kind:  "MSI_L2A_TL",
		},
		{
			name:  "orbit file",
			paths: []string{orbitName},
			kind:  "AUX_POEORB",
		},
		{
			name:  "split pair",
			paths: []string{gnssName + ".DBL", gnssName + ".HDR"},
			kind:  "AUX_GNSSRD",
		},
		{
			name:  "banded calibration pair",
			paths: []string{gippName + ".DBL", gippName + ".HDR"},
			kind:  "GIP_ATMIMA",
		},
		{
			name:  "time correction file",
			paths: []string{iersName},
			kind:  "AUX_UT1UTC",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok := r.Detect(tt.paths)
			require.True(t, ok)
			assert.Equal(t, tt.kind, d.Kind())
		})
	}
}

func TestRegistryDetectNoMatch(t *testing.T) {
	r := NewRegistry()

	_, ok := r.Detect([]string{"random_file.txt"})
	assert.False(t, ok)
	_, ok = r.Detect(nil)
	assert.False(t, ok)
}

// Each representative name must identify as exactly one registered kind;
// overlapping grammars would make detection depend on registration order.
func TestRegistryKindsDoNotOverlap(t *testing.T) {
	r := NewRegistry()

	samples := map[string][]string{
		"MSIL1C":     {safeName},
		"MSI_L1C_DS": {datastripL1CName},
		"MSI_L1C_TL": {tileL1CName},
		"MSI_L2A_DS": {datastripL2AName},
		"MSI_L2A_TL": {tileL2AName},
		"AUX_POEORB": {orbitName},
		"AUX_GNSSRD": {gnssName + ".DBL", gnssName + ".HDR"},
		"GIP_ATMIMA": {gippName + ".DBL", gippName + ".HDR"},
		"AUX_UT1UTC": {iersName},
	}

	for wantKind, paths := range samples {
		var matched []string
		for _, kind := range r.Kinds() {
			d, err := r.Lookup(kind)
			require.NoError(t, err)
			if d.Identify(paths) {
				matched = append(matched, kind)
			}
		}
		assert.Equal(t, []string{wantKind}, matched, "paths %v", paths)
	}
}
