package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lab-clarity-engine/internal/domain"
)

func TestBuildActionTimeline(t *testing.T) {
	for _, severity := range []domain.SeverityLevel{domain.SeverityLow, domain.SeverityModerate, domain.SeverityHigh} {
		t.Run(severity.String(), func(t *testing.T) {
			timeline := BuildActionTimeline(severity)

			assert.Equal(t, severity, timeline.SeverityLevel)
			assert.NotEmpty(t, timeline.Disclaimer)

			require.Len(t, timeline.Phases, 3)
			assert.Equal(t, "Now", timeline.Phases[0].Timeframe)
			assert.Equal(t, "1–3 Days", timeline.Phases[1].Timeframe)
			assert.Equal(t, "1 Month", timeline.Phases[2].Timeframe)

			for _, phase := range timeline.Phases {
				assert.NotEmpty(t, phase.Actions)
				assert.NotEmpty(t, phase.Color)
			}
		})
	}
}

func TestBuildActionTimeline_UnknownSeverityFallsBack(t *testing.T) {
	timeline := BuildActionTimeline(domain.SeverityLevel("Unmapped"))

	assert.Len(t, timeline.Phases, 3)
	assert.NotEmpty(t, timeline.Phases[0].Actions)
}

func TestBuildActionTimeline_HighSeverityEscalates(t *testing.T) {
	timeline := BuildActionTimeline(domain.SeverityHigh)

	// The short-term phase for high attention must carry an immediate
	// priority action.
	found := false
	for _, action := range timeline.Phases[1].Actions {
		if action.Priority == "immediate" {
			found = true
		}
	}
	assert.True(t, found)
}
