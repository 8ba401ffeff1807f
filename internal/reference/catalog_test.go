package reference

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultCatalog(t *testing.T) {
	catalog := NewDefaultCatalog()

	require.Greater(t, catalog.Len(), 30)

	entry, ok := catalog.Lookup("hemoglobin")
	require.True(t, ok)
	assert.Equal(t, 13.0, entry.Min)
	assert.Equal(t, 17.0, entry.Max)
	assert.Equal(t, "g/dL", entry.Unit)
	assert.Equal(t, CategoryBloodCount, entry.Category)
	assert.Equal(t, "Hemoglobin", entry.DisplayName)
}

func TestCatalog_Lookup_Unknown(t *testing.T) {
	catalog := NewDefaultCatalog()

	_, ok := catalog.Lookup("chakra_alignment")
	assert.False(t, ok)
}

func TestNewCatalog_CopiesInputs(t *testing.T) {
	entries := []Entry{{Key: "custom", Min: 1, Max: 2, Unit: "u", Category: CategoryOther, DisplayName: "Custom"}}
	aliases := map[string]string{"cst": "custom"}

	catalog := NewCatalog(entries, aliases)

	// Mutating the source maps after construction must not leak into the catalog.
	aliases["cst"] = "hijacked"
	assert.Equal(t, "custom", catalog.Resolve("cst"))
}

func TestCatalog_UnboundedEntries(t *testing.T) {
	catalog := NewDefaultCatalog()

	hdl, ok := catalog.Lookup("hdl_cholesterol")
	require.True(t, ok)
	assert.Equal(t, UnboundedMax, hdl.Max)

	chol, ok := catalog.Lookup("total_cholesterol")
	require.True(t, ok)
	assert.Equal(t, 0.0, chol.Min)
}

func TestCategoryWeight(t *testing.T) {
	tests := []struct {
		category string
		want     float64
	}{
		{CategoryBloodCount, 1.5},
		{CategoryElectrolytes, 1.5},
		{CategoryLiverFunction, 1.4},
		{CategoryMetabolic, 1.3},
		{CategoryThyroid, 1.3},
		{CategoryLipidProfile, 1.2},
		{CategoryVitamins, 1.0},
		{CategoryOther, 1.0},
		{"Unknown Category", 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.category, func(t *testing.T) {
			assert.Equal(t, tt.want, CategoryWeight(tt.category))
		})
	}
}
