package service

import (
	"strings"
	"unicode"

	"github.com/sirupsen/logrus"

	"github.com/lab-clarity-engine/internal/domain"
	"github.com/lab-clarity-engine/internal/reference"
)

// Validator turns raw candidates into classified parameters. It never
// fails: a candidate without any reference data is still surfaced, just
// unclassified. The extractor has already rejected candidates with
// unparsable values, which is the only hard rejection in the pipeline.
type Validator struct {
	catalog *reference.Catalog
	logger  *logrus.Logger
}

// NewValidator creates a new validator/classifier.
func NewValidator(catalog *reference.Catalog, logger *logrus.Logger) *Validator {
	return &Validator{
		catalog: catalog,
		logger:  logger,
	}
}

// Validate enriches a candidate with reference data and classifies it.
//
// Reference data is resolved in priority order: catalog entry for the
// resolved canonical key, then the candidate's own in-document range,
// then nothing — in which case the parameter is accepted with category
// "Other" and status forced to normal, because surfacing an
// unclassifiable measurement beats discarding it.
func (v *Validator) Validate(candidate Candidate) domain.Parameter {
	key := v.catalog.Resolve(candidate.RawName)

	if entry, ok := v.catalog.Lookup(key); ok {
		unit := entry.Unit
		if candidate.Unit != "" {
			unit = candidate.Unit
		}

		return domain.Parameter{
			Name:           entry.DisplayName,
			Value:          candidate.RawValue,
			Unit:           unit,
			ReferenceRange: FormatRange(entry.Min, entry.Max),
			Status:         Classify(candidate.Value, entry.Min, entry.Max),
			Category:       entry.Category,
		}
	}

	if candidate.ReferenceMin != nil && candidate.ReferenceMax != nil {
		refRange := candidate.RawReference
		if refRange == "" {
			refRange = FormatRange(*candidate.ReferenceMin, *candidate.ReferenceMax)
		}

		return domain.Parameter{
			Name:           titleCase(candidate.RawName),
			Value:          candidate.RawValue,
			Unit:           candidate.Unit,
			ReferenceRange: refRange,
			Status:         Classify(candidate.Value, *candidate.ReferenceMin, *candidate.ReferenceMax),
			Category:       reference.CategoryOther,
		}
	}

	refRange := candidate.RawReference
	if refRange == "" {
		refRange = "Not specified"
	}

	v.logger.WithField("parameter", candidate.RawName).Debug("No reference data, accepting as unclassified")

	return domain.Parameter{
		Name:           titleCase(candidate.RawName),
		Value:          candidate.RawValue,
		Unit:           candidate.Unit,
		ReferenceRange: refRange,
		Status:         domain.StatusNormal,
		Category:       reference.CategoryOther,
	}
}

// ValidateAll validates candidates in order.
func (v *Validator) ValidateAll(candidates []Candidate) []domain.Parameter {
	params := make([]domain.Parameter, 0, len(candidates))
	for _, c := range candidates {
		params = append(params, v.Validate(c))
	}
	return params
}

// Classify applies the inclusive-bounds classification rule. Values
// exactly at min or max are normal.
func Classify(value, min, max float64) domain.ParameterStatus {
	switch {
	case value < min:
		return domain.StatusLow
	case value > max:
		return domain.StatusHigh
	default:
		return domain.StatusNormal
	}
}

// titleCase capitalizes the first letter of each word, for display names
// of parameters that have no catalog entry.
func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
