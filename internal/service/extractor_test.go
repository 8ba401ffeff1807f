package service

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lab-clarity-engine/internal/reference"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestExtractor(t *testing.T) *Extractor {
	t.Helper()
	return NewExtractor(reference.NewDefaultCatalog(), testLogger())
}

func TestExtract_ColonLayout(t *testing.T) {
	extractor := newTestExtractor(t)

	candidates := extractor.Extract("Hemoglobin: 11.2 g/dL (Reference: 13.0-17.0)")
	require.Len(t, candidates, 1)

	c := candidates[0]
	assert.Equal(t, "Hemoglobin", c.RawName)
	assert.Equal(t, "11.2", c.RawValue)
	assert.InDelta(t, 11.2, c.Value, 1e-9)
	assert.Equal(t, "g/dL", c.Unit)
	require.NotNil(t, c.ReferenceMin)
	require.NotNil(t, c.ReferenceMax)
	assert.InDelta(t, 13.0, *c.ReferenceMin, 1e-9)
	assert.InDelta(t, 17.0, *c.ReferenceMax, 1e-9)
}

func TestExtract_LessThanReference(t *testing.T) {
	extractor := newTestExtractor(t)

	candidates := extractor.Extract("Total Cholesterol: 245 mg/dL (Reference: <200)")
	require.Len(t, candidates, 1)

	c := candidates[0]
	assert.Equal(t, "Total Cholesterol", c.RawName)
	assert.InDelta(t, 245, c.Value, 1e-9)
	require.NotNil(t, c.ReferenceMin)
	require.NotNil(t, c.ReferenceMax)
	assert.Zero(t, *c.ReferenceMin)
	assert.InDelta(t, 200, *c.ReferenceMax, 1e-9)
}

func TestExtract_TableLayout(t *testing.T) {
	extractor := newTestExtractor(t)

	candidates := extractor.Extract("Glucose | 94 | mg/dL | 70-100")
	require.Len(t, candidates, 1)

	c := candidates[0]
	assert.Equal(t, "Glucose", c.RawName)
	assert.Equal(t, "94", c.RawValue)
	assert.Equal(t, "mg/dL", c.Unit)
}

func TestExtract_MultilineReport(t *testing.T) {
	extractor := newTestExtractor(t)

	text := `Hemoglobin: 11.2 g/dL (Reference: 13.0-17.0)
Total Cholesterol: 245 mg/dL (Reference: <200)
TSH: 2.5 mIU/L (Reference: 0.4-4.0)`

	candidates := extractor.Extract(text)
	require.Len(t, candidates, 3)
	assert.Equal(t, "Hemoglobin", candidates[0].RawName)
	assert.Equal(t, "Total Cholesterol", candidates[1].RawName)
	assert.Equal(t, "TSH", candidates[2].RawName)
}

func TestExtract_DeduplicatesByCanonicalKey(t *testing.T) {
	extractor := newTestExtractor(t)

	// "Hb" and "Hemoglobin" resolve to the same canonical key; only the
	// first match survives.
	text := "Hemoglobin: 11.2 g/dL (Reference: 13.0-17.0) Hb: 12.9 g/dL"

	candidates := extractor.Extract(text)
	require.Len(t, candidates, 1)
	assert.Equal(t, "Hemoglobin", candidates[0].RawName)
	assert.Equal(t, "11.2", candidates[0].RawValue)
}

func TestExtract_EmptyInput(t *testing.T) {
	extractor := newTestExtractor(t)

	assert.Empty(t, extractor.Extract(""))
	assert.Empty(t, extractor.Extract("No measurements in this text at all"))
}

func TestParseReferenceRange(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantMin float64
		wantMax float64
		wantNil bool
	}{
		{name: "hyphen range", input: "13.0-17.0", wantMin: 13.0, wantMax: 17.0},
		{name: "hyphen range with spaces", input: "13.0 - 17.0", wantMin: 13.0, wantMax: 17.0},
		{name: "en dash range", input: "0.4–4.0", wantMin: 0.4, wantMax: 4.0},
		{name: "less than", input: "<200", wantMin: 0, wantMax: 200},
		{name: "less than with space", input: "< 150", wantMin: 0, wantMax: 150},
		{name: "greater than", input: ">40", wantMin: 40, wantMax: reference.UnboundedMax},
		{name: "empty", input: "", wantNil: true},
		{name: "garbage", input: "see notes", wantNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			min, max := ParseReferenceRange(tt.input)

			if tt.wantNil {
				assert.Nil(t, min)
				assert.Nil(t, max)
				return
			}

			require.NotNil(t, min)
			require.NotNil(t, max)
			assert.InDelta(t, tt.wantMin, *min, 1e-9)
			assert.InDelta(t, tt.wantMax, *max, 1e-9)
		})
	}
}

func TestFormatRange_RoundTrip(t *testing.T) {
	tests := []struct {
		min  float64
		max  float64
		want string
	}{
		{13, 17, "13 - 17"},
		{0, 200, "< 200"},
		{0.4, 4, "0.4 - 4"},
		{150, 400, "150 - 400"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			formatted := FormatRange(tt.min, tt.max)
			assert.Equal(t, tt.want, formatted)

			min, max := ParseReferenceRange(formatted)
			require.NotNil(t, min)
			require.NotNil(t, max)
			assert.InDelta(t, tt.min, *min, 1e-9)
			assert.InDelta(t, tt.max, *max, 1e-9)
		})
	}
}

func TestExtract_RejectsDegenerateCandidates(t *testing.T) {
	extractor := newTestExtractor(t)

	// Single-character names are noise, not measurements.
	candidates := extractor.Extract("x: 5 mg/dL")
	assert.Empty(t, candidates)
}
