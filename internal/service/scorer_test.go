package service

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lab-clarity-engine/internal/domain"
	"github.com/lab-clarity-engine/internal/reference"
)

func newTestScorer(t *testing.T) *Scorer {
	t.Helper()
	return NewScorer(newTestAnalyzer(t), testLogger())
}

func normalParams(n int) []domain.Parameter {
	params := make([]domain.Parameter, n)
	for i := range params {
		params[i] = domain.Parameter{
			Name:     fmt.Sprintf("Marker %d", i),
			Value:    "50",
			Status:   domain.StatusNormal,
			Category: reference.CategoryOther,
		}
	}
	return params
}

func TestCalculate_AllNormalIsPerfect(t *testing.T) {
	scorer := newTestScorer(t)

	score := scorer.Calculate(normalParams(10))

	assert.Equal(t, 100, score.Score)
	assert.Equal(t, domain.SeverityLow, score.SeverityLevel)
	assert.Equal(t, domain.ColorSeverityLow, score.SeverityColor)
	assert.Equal(t, 10, score.ParametersInRange)
	assert.Zero(t, score.ParametersNeedingAttention)
	assert.Equal(t, 10, score.TotalParameters)
}

func TestCalculate_EmptyReportIsPerfect(t *testing.T) {
	scorer := newTestScorer(t)

	score := scorer.Calculate(nil)

	assert.Equal(t, 100, score.Score)
	assert.Equal(t, domain.SeverityLow, score.SeverityLevel)
	assert.Zero(t, score.TotalParameters)
}

func TestCalculate_CriticalAbnormalsDragScoreDown(t *testing.T) {
	scorer := newTestScorer(t)

	// Seven normal plus three critically high blood count parameters.
	params := normalParams(7)
	params = append(params,
		domain.Parameter{Name: "Hemoglobin", Value: "6.0", Status: domain.StatusLow, Category: reference.CategoryBloodCount},
		domain.Parameter{Name: "WBC", Value: "22.0", Status: domain.StatusHigh, Category: reference.CategoryBloodCount},
		domain.Parameter{Name: "Platelets", Value: "680", Status: domain.StatusHigh, Category: reference.CategoryBloodCount},
	)

	score := scorer.Calculate(params)

	assert.Equal(t, domain.SeverityHigh, score.SeverityLevel)
	assert.Equal(t, domain.ColorSeverityHigh, score.SeverityColor)
	assert.Less(t, score.Score, 70)
	assert.Equal(t, 7, score.ParametersInRange)
	assert.Equal(t, 3, score.ParametersNeedingAttention)
}

func TestCalculate_MoreAbnormalsNeverRaiseScore(t *testing.T) {
	scorer := newTestScorer(t)

	abnormal := domain.Parameter{Name: "Total Cholesterol", Value: "245", Status: domain.StatusHigh, Category: reference.CategoryLipidProfile}

	oneAbnormal := append(normalParams(9), abnormal)
	twoAbnormal := append(normalParams(8), abnormal,
		domain.Parameter{Name: "LDL", Value: "165", Status: domain.StatusHigh, Category: reference.CategoryLipidProfile})

	scoreOne := scorer.Calculate(oneAbnormal)
	scoreTwo := scorer.Calculate(twoAbnormal)

	assert.GreaterOrEqual(t, scoreOne.Score, scoreTwo.Score)
}

func TestCalculate_ScoreStaysInBounds(t *testing.T) {
	scorer := newTestScorer(t)

	// Every parameter wildly abnormal; the penalty cap must keep the
	// score from going below zero.
	params := []domain.Parameter{
		{Name: "Hemoglobin", Value: "3.0", Status: domain.StatusLow, Category: reference.CategoryBloodCount},
		{Name: "Total Cholesterol", Value: "500", Status: domain.StatusHigh, Category: reference.CategoryLipidProfile},
		{Name: "Sodium", Value: "110", Status: domain.StatusLow, Category: reference.CategoryElectrolytes},
		{Name: "TSH", Value: "25", Status: domain.StatusHigh, Category: reference.CategoryThyroid},
	}

	score := scorer.Calculate(params)

	assert.GreaterOrEqual(t, score.Score, 0)
	assert.LessOrEqual(t, score.Score, 100)
}

func TestScoreTrend(t *testing.T) {
	prev := func(v int) *int { return &v }

	tests := []struct {
		name     string
		current  int
		previous *int
		want     string
	}{
		{name: "no previous", current: 80, previous: nil, want: "stable"},
		{name: "improving", current: 85, previous: prev(78), want: "improving"},
		{name: "declining", current: 70, previous: prev(82), want: "declining"},
		{name: "within threshold", current: 80, previous: prev(78), want: "stable"},
		{name: "exactly at threshold", current: 81, previous: prev(78), want: "stable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ScoreTrend(tt.current, tt.previous))
		})
	}
}

func TestInterpretation_Bands(t *testing.T) {
	assert.Contains(t, Interpretation(92), "within typical reference ranges")
	assert.Contains(t, Interpretation(75), "some requiring attention")
	assert.Contains(t, Interpretation(55), "consulting a healthcare provider")
	assert.Contains(t, Interpretation(30), "healthcare professional")
}
