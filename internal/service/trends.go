package service

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/lab-clarity-engine/internal/domain"
)

// trendChangeThreshold is the relative move beyond which a series is no
// longer considered stable (5%).
const trendChangeThreshold = 0.05

// TrendEngine derives longitudinal trends across an ordered history of
// report snapshots. It depends only on the persisted parameter shape.
type TrendEngine struct {
	logger *logrus.Logger
}

// NewTrendEngine creates a new trend engine.
func NewTrendEngine(logger *logrus.Logger) *TrendEngine {
	return &TrendEngine{logger: logger}
}

// Direction classifies the overall movement of a value series by
// comparing the first-half average against the second-half average,
// with the same 5% threshold used for pairwise trends. Fewer than two
// observations read as stable.
func (t *TrendEngine) Direction(values []float64) domain.TrendDirection {
	if len(values) < 2 {
		return domain.TrendStable
	}

	mid := len(values) / 2
	firstHalf := mean(values[:mid])
	secondHalf := mean(values[mid:])

	if firstHalf == 0 {
		return domain.TrendStable
	}

	changePct := (secondHalf - firstHalf) / math.Abs(firstHalf)

	switch {
	case changePct > trendChangeThreshold:
		return domain.TrendUp
	case changePct < -trendChangeThreshold:
		return domain.TrendDown
	default:
		return domain.TrendStable
	}
}

// ParameterSeries builds the longitudinal series for one parameter
// (matched by display name) across the given snapshots. Data points are
// sorted by date before the direction is derived. Returns nil when the
// parameter never appears with a parsable value.
func (t *TrendEngine) ParameterSeries(parameterName string, snapshots []domain.ReportSnapshot) *domain.ParameterTrendData {
	dataPoints := make([]domain.TrendDataPoint, 0)
	unit := ""

	for _, snapshot := range snapshots {
		for _, param := range snapshot.Parameters {
			if param.Name != parameterName {
				continue
			}

			value, err := strconv.ParseFloat(param.Value, 64)
			if err != nil {
				continue
			}

			unit = param.Unit
			refLow, refHigh := referenceBandForDisplay(param.ReferenceRange)

			dataPoints = append(dataPoints, domain.TrendDataPoint{
				Date:    snapshot.ReportDate,
				Value:   value,
				RefLow:  refLow,
				RefHigh: refHigh,
			})
		}
	}

	if len(dataPoints) == 0 {
		return nil
	}

	sort.SliceStable(dataPoints, func(i, j int) bool {
		return dataPoints[i].Date < dataPoints[j].Date
	})

	values := make([]float64, len(dataPoints))
	for i, dp := range dataPoints {
		values[i] = dp.Value
	}

	return &domain.ParameterTrendData{
		ParameterID:    parameterID(parameterName),
		ParameterName:  parameterName,
		Unit:           unit,
		TrendDirection: t.Direction(values),
		DataPoints:     dataPoints,
	}
}

// ScoreSeries builds the health clarity score history, sorted by date.
func (t *TrendEngine) ScoreSeries(snapshots []domain.ReportSnapshot) []domain.ScoreTrendPoint {
	points := make([]domain.ScoreTrendPoint, 0, len(snapshots))
	for _, snapshot := range snapshots {
		points = append(points, domain.ScoreTrendPoint{
			Date:  snapshot.ReportDate,
			Score: snapshot.HealthClarityScore.Score,
		})
	}

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Date < points[j].Date
	})

	return points
}

// AvailableParameters lists parameter names that appear in at least two
// snapshots, i.e. those for which a trend series is meaningful.
func (t *TrendEngine) AvailableParameters(snapshots []domain.ReportSnapshot) []string {
	counts := make(map[string]int)
	for _, snapshot := range snapshots {
		seenInReport := make(map[string]struct{})
		for _, param := range snapshot.Parameters {
			if param.Name == "" {
				continue
			}
			if _, seen := seenInReport[param.Name]; seen {
				continue
			}
			seenInReport[param.Name] = struct{}{}
			counts[param.Name]++
		}
	}

	names := make([]string, 0)
	for name, count := range counts {
		if count >= 2 {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	return names
}

// referenceBandForDisplay parses a stored display range back into
// numeric bounds for chart rendering, defaulting to (0, 100) when the
// string is unrecognized.
func referenceBandForDisplay(refRange string) (float64, float64) {
	low, high := ParseReferenceRange(refRange)
	if low == nil || high == nil {
		return 0.0, 100.0
	}
	return *low, *high
}

// parameterID derives the stable chart identifier from a display name.
func parameterID(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "_")
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
