package service

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/lab-clarity-engine/internal/reference"
)

// Candidate is a raw extracted measurement before validation. It is
// produced by the extractor, consumed once by the validator, and then
// discarded.
type Candidate struct {
	RawName      string
	RawValue     string
	Value        float64
	Unit         string
	ReferenceMin *float64
	ReferenceMax *float64
	RawReference string
}

// patternStrategy is one named extraction layout. Strategies are tried
// in fixed order; the order is load-bearing because the first match for
// a canonical key wins and later duplicates are dropped.
type patternStrategy struct {
	name string
	re   *regexp.Regexp
}

const unitClass = `[a-zA-Z/%×⁶³μ]+(?:/[a-zA-Z]+)?`

var extractionStrategies = []patternStrategy{
	{
		// "Hemoglobin: 11.2 g/dL (Reference: 13.0-17.0)"
		name: "colon",
		re: regexp.MustCompile(`(?i)(?P<name>[A-Za-z\s()]+?)[:\s]+(?P<value>[\d.]+)\s*(?P<unit>` + unitClass + `)\s*(?:\((?:Reference|Ref|Normal)[:\s]*(?P<ref>[^)]+)\))?`),
	},
	{
		// "Hemoglobin 11.2 g/dL Ref: 13.0-17.0"
		name: "inline_reference",
		re: regexp.MustCompile(`(?i)(?P<name>[A-Za-z\s()]+?)[:\s]+(?P<value>[\d.]+)\s*(?P<unit>` + unitClass + `)\s*(?:Ref(?:erence)?[:\s]*(?P<ref>[\d.\-<>–]+))?`),
	},
	{
		// "Hemoglobin | 11.2 | g/dL | 13.0-17.0"
		name: "table",
		re: regexp.MustCompile(`(?i)(?P<name>[A-Za-z\s()]+?)\s*[|\t]\s*(?P<value>[\d.]+)\s*[|\t]\s*(?P<unit>` + unitClass + `)\s*[|\t]?\s*(?P<ref>[\d.\-<>–\s]+)?`),
	},
}

// Reference range sub-parser patterns.
var (
	rangePattern       = regexp.MustCompile(`^([\d.]+)\s*[-–]\s*([\d.]+)`)
	lessThanPattern    = regexp.MustCompile(`^<\s*([\d.]+)`)
	greaterThanPattern = regexp.MustCompile(`^>\s*([\d.]+)`)
	whitespacePattern  = regexp.MustCompile(`\s+`)
)

// Extractor applies the ordered pattern strategies to normalized OCR
// text and produces deduplicated candidates. It is stateless apart from
// the injected catalog (needed for canonical-key deduplication) and is
// safe for concurrent use.
type Extractor struct {
	catalog *reference.Catalog
	logger  *logrus.Logger
}

// NewExtractor creates a new candidate extractor.
func NewExtractor(catalog *reference.Catalog, logger *logrus.Logger) *Extractor {
	return &Extractor{
		catalog: catalog,
		logger:  logger,
	}
}

// Extract runs every pattern strategy over the text and returns the
// accepted candidates in match order. A candidate is dropped when its
// canonical key was already accepted, its name is shorter than two
// characters, or its value token is not numeric. No matches at all is
// not an error: the result is simply empty and any fallback policy
// belongs to the caller.
func (e *Extractor) Extract(ocrText string) []Candidate {
	text := normalizeText(ocrText)

	candidates := make([]Candidate, 0)
	seen := make(map[string]struct{})

	for _, strategy := range extractionStrategies {
		for _, match := range strategy.re.FindAllStringSubmatch(text, -1) {
			candidate, ok := e.buildCandidate(strategy, match)
			if !ok {
				continue
			}

			key := e.catalog.Resolve(candidate.RawName)
			if _, dup := seen[key]; dup {
				continue
			}

			seen[key] = struct{}{}
			candidates = append(candidates, candidate)
		}
	}

	e.logger.WithFields(logrus.Fields{
		"text_length": len(ocrText),
		"candidates":  len(candidates),
	}).Debug("Candidate extraction completed")

	return candidates
}

// buildCandidate converts one regex match into a Candidate, applying
// the degenerate-candidate rejections.
func (e *Extractor) buildCandidate(strategy patternStrategy, match []string) (Candidate, bool) {
	name := strings.TrimSpace(group(strategy.re, match, "name"))
	rawValue := group(strategy.re, match, "value")
	unit := strings.TrimSpace(group(strategy.re, match, "unit"))
	rawRef := strings.TrimSpace(group(strategy.re, match, "ref"))

	if len(name) < 2 || rawValue == "" {
		return Candidate{}, false
	}

	value, err := strconv.ParseFloat(rawValue, 64)
	if err != nil {
		return Candidate{}, false
	}

	refMin, refMax := ParseReferenceRange(rawRef)

	return Candidate{
		RawName:      name,
		RawValue:     rawValue,
		Value:        value,
		Unit:         unit,
		ReferenceMin: refMin,
		ReferenceMax: refMax,
		RawReference: rawRef,
	}, true
}

// ParseReferenceRange parses a free-text reference string into bounds.
// Recognized forms: "min - max" (hyphen or en-dash), "< max" (min 0),
// and "> min" (max pinned to the unbounded sentinel). Anything else
// yields (nil, nil).
func ParseReferenceRange(ref string) (*float64, *float64) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, nil
	}

	if m := rangePattern.FindStringSubmatch(ref); m != nil {
		low, err1 := strconv.ParseFloat(m[1], 64)
		high, err2 := strconv.ParseFloat(m[2], 64)
		if err1 == nil && err2 == nil {
			return &low, &high
		}
	}

	if m := lessThanPattern.FindStringSubmatch(ref); m != nil {
		if high, err := strconv.ParseFloat(m[1], 64); err == nil {
			low := 0.0
			return &low, &high
		}
	}

	if m := greaterThanPattern.FindStringSubmatch(ref); m != nil {
		if low, err := strconv.ParseFloat(m[1], 64); err == nil {
			high := reference.UnboundedMax
			return &low, &high
		}
	}

	return nil, nil
}

// FormatRange renders a reference range for display. Ranges starting at
// zero render as an upper bound only.
func FormatRange(min, max float64) string {
	if min == 0 {
		return "< " + formatFloat(max)
	}
	return formatFloat(min) + " - " + formatFloat(max)
}

// formatFloat renders a float without trailing zeros ("13" not "13.000000").
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// normalizeText collapses all whitespace and newlines to single spaces
// so the layout patterns can match across line breaks in OCR output.
func normalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r", " ")
	text = strings.ReplaceAll(text, "\n", " ")
	return whitespacePattern.ReplaceAllString(text, " ")
}

// group extracts a named capture group from a match, returning "" when
// the group did not participate.
func group(re *regexp.Regexp, match []string, name string) string {
	idx := re.SubexpIndex(name)
	if idx < 0 || idx >= len(match) {
		return ""
	}
	return match[idx]
}
