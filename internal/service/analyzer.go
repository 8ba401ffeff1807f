package service

import (
	"math"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/lab-clarity-engine/internal/domain"
	"github.com/lab-clarity-engine/internal/reference"
)

// Deviations beyond half the reference bound are flagged critical.
const criticalDeviationThreshold = 0.5

// deviationFactorCap bounds how much a single extreme value can inflate
// its severity weight.
const deviationFactorCap = 2.0

// Analyzer computes per-parameter deviation and severity weights, and
// derives the overall severity level for a report.
type Analyzer struct {
	catalog *reference.Catalog
	logger  *logrus.Logger
}

// NewAnalyzer creates a new deviation and severity analyzer.
func NewAnalyzer(catalog *reference.Catalog, logger *logrus.Logger) *Analyzer {
	return &Analyzer{
		catalog: catalog,
		logger:  logger,
	}
}

// Analyze computes the analysis result for a single classified parameter.
//
// Deviation is relative to the violated bound: (min-v)/min for low
// values, (v-max)/max for high ones, zero otherwise and zero whenever
// the denominator is not positive (degenerate ranges never raise, they
// just stop contributing). Parameters with no catalog entry get a flat
// weight of 1.0 when abnormal so unknown-but-flagged values still count.
func (a *Analyzer) Analyze(param domain.Parameter) domain.AnalysisResult {
	value, err := strconv.ParseFloat(param.Value, 64)
	if err != nil {
		return domain.AnalysisResult{Parameter: param}
	}

	entry, ok := a.catalog.ResolveEntry(param.Name)
	if !ok {
		result := domain.AnalysisResult{Parameter: param}
		if param.Status.IsAbnormal() {
			result.SeverityWeight = 1.0
		}
		return result
	}

	var deviation float64
	switch param.Status {
	case domain.StatusLow:
		if entry.Min > 0 {
			deviation = (entry.Min - value) / entry.Min
		}
	case domain.StatusHigh:
		if entry.Max > 0 {
			deviation = (value - entry.Max) / entry.Max
		}
	}

	return domain.AnalysisResult{
		Parameter:      param,
		Deviation:      deviation,
		SeverityWeight: a.severityWeight(entry, param.Status, value),
		IsCritical:     math.Abs(deviation) > criticalDeviationThreshold,
	}
}

// AnalyzeAll analyzes every parameter in a report.
func (a *Analyzer) AnalyzeAll(params []domain.Parameter) []domain.AnalysisResult {
	results := make([]domain.AnalysisResult, 0, len(params))
	for _, p := range params {
		results = append(results, a.Analyze(p))
	}
	return results
}

// severityWeight combines the category multiplier with a deviation
// factor normalized by the reference range width. Normal values weigh
// nothing.
func (a *Analyzer) severityWeight(entry reference.Entry, status domain.ParameterStatus, value float64) float64 {
	if !status.IsAbnormal() {
		return 0
	}

	rangeWidth := entry.Max - entry.Min
	if rangeWidth <= 0 {
		rangeWidth = 1
	}

	var deviation float64
	if status == domain.StatusLow {
		deviation = (entry.Min - value) / rangeWidth
	} else {
		deviation = (value - entry.Max) / rangeWidth
	}

	deviationFactor := math.Min(math.Abs(deviation), deviationFactorCap) + 1.0

	return reference.CategoryWeight(entry.Category) * deviationFactor
}

// DetermineSeverityLevel derives the report-wide severity from the
// analysis results: any critical value or a high average weight means
// high attention; multiple abnormal values or a moderate average means
// moderate attention.
func (a *Analyzer) DetermineSeverityLevel(results []domain.AnalysisResult) domain.SeverityLevel {
	if len(results) == 0 {
		return domain.SeverityLow
	}

	criticalCount := 0
	abnormalCount := 0
	totalSeverity := 0.0

	for _, r := range results {
		if r.IsCritical {
			criticalCount++
		}
		if r.Parameter.Status.IsAbnormal() {
			abnormalCount++
		}
		totalSeverity += r.SeverityWeight
	}

	avgSeverity := totalSeverity / float64(len(results))

	switch {
	case criticalCount > 0 || avgSeverity > 2.0:
		return domain.SeverityHigh
	case abnormalCount >= 2 || avgSeverity > 1.0:
		return domain.SeverityModerate
	default:
		return domain.SeverityLow
	}
}

// ParameterTrend classifies the change between a current and previous
// observation of the same parameter. A missing or zero previous value
// yields stable; beyond a 5% move in either direction the trend tips.
func ParameterTrend(current float64, previous *float64) domain.TrendDirection {
	if previous == nil || *previous == 0 {
		return domain.TrendStable
	}

	changePct := (current - *previous) / math.Abs(*previous)

	switch {
	case changePct > trendChangeThreshold:
		return domain.TrendUp
	case changePct < -trendChangeThreshold:
		return domain.TrendDown
	default:
		return domain.TrendStable
	}
}

// EnrichWithTrends annotates current parameters with their direction
// relative to the previous report's values, matched by display name.
// Parameters absent from the previous report stay trend-less.
func (a *Analyzer) EnrichWithTrends(current []domain.Parameter, previous []domain.Parameter) []domain.Parameter {
	if len(previous) == 0 {
		return current
	}

	prevValues := make(map[string]float64, len(previous))
	for _, p := range previous {
		if v, err := strconv.ParseFloat(p.Value, 64); err == nil {
			prevValues[p.Name] = v
		}
	}

	enriched := make([]domain.Parameter, len(current))
	for i, p := range current {
		enriched[i] = p

		value, err := strconv.ParseFloat(p.Value, 64)
		if err != nil {
			continue
		}

		if prev, ok := prevValues[p.Name]; ok {
			enriched[i].Trend = ParameterTrend(value, &prev)
		}
	}

	return enriched
}
