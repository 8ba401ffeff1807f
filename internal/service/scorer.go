package service

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/lab-clarity-engine/internal/domain"
)

// Scoring constants. The penalty cap keeps a handful of wildly abnormal
// values from zeroing out an otherwise mostly-normal report.
const (
	penaltyPerWeight   = 5.0
	criticalMultiplier = 1.5
	maxPenalty         = 50.0
)

// Score trend threshold in points: moves of three or less read as stable.
const scoreTrendThreshold = 3

// Scorer reduces a report's analysis results to the Health Clarity Score.
type Scorer struct {
	analyzer *Analyzer
	logger   *logrus.Logger
}

// NewScorer creates a new score aggregator.
func NewScorer(analyzer *Analyzer, logger *logrus.Logger) *Scorer {
	return &Scorer{
		analyzer: analyzer,
		logger:   logger,
	}
}

// Calculate computes the Health Clarity Score for one report snapshot.
//
// The base score is the share of in-range parameters scaled to 100.
// Each abnormal parameter subtracts its severity weight times five,
// critical values half again as much, with the total penalty capped.
// The final score is clamped to [0, 100] and rounded half away from
// zero. An empty parameter set scores a perfect 100.
func (s *Scorer) Calculate(params []domain.Parameter) domain.HealthClarityScore {
	if len(params) == 0 {
		return domain.HealthClarityScore{
			Score:         100,
			SeverityLevel: domain.SeverityLow,
			SeverityColor: domain.SeverityLow.Color(),
		}
	}

	results := s.analyzer.AnalyzeAll(params)

	normalCount := 0
	for _, r := range results {
		if !r.Parameter.Status.IsAbnormal() {
			normalCount++
		}
	}
	abnormalCount := len(results) - normalCount

	baseScore := 100 * float64(normalCount) / float64(len(results))

	totalPenalty := 0.0
	for _, r := range results {
		if !r.Parameter.Status.IsAbnormal() {
			continue
		}
		penalty := r.SeverityWeight * penaltyPerWeight
		if r.IsCritical {
			penalty *= criticalMultiplier
		}
		totalPenalty += penalty
	}
	totalPenalty = math.Min(totalPenalty, maxPenalty)

	finalScore := math.Max(0, math.Min(100, baseScore-totalPenalty))

	severity := s.analyzer.DetermineSeverityLevel(results)

	score := domain.HealthClarityScore{
		Score:                      int(math.Round(finalScore)),
		SeverityLevel:              severity,
		SeverityColor:              severity.Color(),
		ParametersInRange:          normalCount,
		ParametersNeedingAttention: abnormalCount,
		TotalParameters:            len(results),
	}

	s.logger.WithFields(logrus.Fields{
		"score":          score.Score,
		"severity":       severity.String(),
		"normal_count":   normalCount,
		"abnormal_count": abnormalCount,
	}).Info("Health clarity score calculated")

	return score
}

// ScoreTrend classifies the movement between two score observations.
func ScoreTrend(current int, previous *int) string {
	if previous == nil {
		return "stable"
	}

	diff := current - *previous
	switch {
	case diff > scoreTrendThreshold:
		return "improving"
	case diff < -scoreTrendThreshold:
		return "declining"
	default:
		return "stable"
	}
}

// Interpretation returns the plain-language reading of a score band.
func Interpretation(score int) string {
	switch {
	case score >= 85:
		return "Most of your test values are within typical reference ranges."
	case score >= 70:
		return "The majority of your test values are within reference ranges, with some requiring attention."
	case score >= 50:
		return "Several test values are outside typical reference ranges. Consider consulting a healthcare provider."
	default:
		return "Multiple test values require attention. Please consult with a healthcare professional."
	}
}
