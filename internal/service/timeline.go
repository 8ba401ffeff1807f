package service

import "github.com/lab-clarity-engine/internal/domain"

// Timeline phase colors, matching the client palette.
const (
	colorPhaseNow       = "#3A9CA6"
	colorPhaseShortTerm = "#6B5B95"
	colorPhaseLongTerm  = "#2F4A68"
)

const timelineDisclaimer = "These suggestions are for general guidance only. They do not constitute medical advice. " +
	"Always follow the specific recommendations of qualified healthcare professionals."

// BuildActionTimeline returns the non-prescriptive action phases for a
// severity level. The content is deliberately neutral: it suggests
// reviewing, documenting, and consulting — never treatment.
func BuildActionTimeline(severity domain.SeverityLevel) domain.ActionTimeline {
	template, ok := timelineTemplates()[severity]
	if !ok {
		template = timelineTemplates()[domain.SeverityModerate]
	}

	phases := []domain.ActionTimelinePhase{
		{Timeframe: "Now", Color: colorPhaseNow, Actions: template.now},
		{Timeframe: "1–3 Days", Color: colorPhaseShortTerm, Actions: template.shortTerm},
		{Timeframe: "1 Month", Color: colorPhaseLongTerm, Actions: template.longTerm},
	}

	return domain.ActionTimeline{
		SeverityLevel: severity,
		Phases:        phases,
		Disclaimer:    timelineDisclaimer,
	}
}

type timelineTemplate struct {
	now       []domain.ActionTimelineItem
	shortTerm []domain.ActionTimelineItem
	longTerm  []domain.ActionTimelineItem
}

func timelineTemplates() map[domain.SeverityLevel]timelineTemplate {
	return map[domain.SeverityLevel]timelineTemplate{
		domain.SeverityLow: {
			now: []domain.ActionTimelineItem{
				{Title: "Review Report Summary", Description: "Look through the key findings and understand which parameters are in range", Priority: "low"},
				{Title: "Save for Records", Description: "Keep a copy of this report for your health records", Priority: "low"},
			},
			shortTerm: []domain.ActionTimelineItem{
				{Title: "Routine Check-in", Description: "Consider discussing results at your next regular healthcare appointment", Priority: "low"},
			},
			longTerm: []domain.ActionTimelineItem{
				{Title: "Schedule Next Test", Description: "Plan for periodic health monitoring as recommended by your healthcare provider", Priority: "low"},
				{Title: "Maintain Healthy Habits", Description: "Continue with balanced nutrition and regular physical activity", Priority: "low"},
			},
		},
		domain.SeverityModerate: {
			now: []domain.ActionTimelineItem{
				{Title: "Review Complete Report", Description: "Examine all parameters and their reference ranges in detail", Priority: "immediate"},
				{Title: "Document Current Values", Description: "Keep a record of today's test results for future comparison", Priority: "immediate"},
			},
			shortTerm: []domain.ActionTimelineItem{
				{Title: "Consult Healthcare Provider", Description: "Schedule an appointment to discuss parameters requiring attention", Priority: "high"},
				{Title: "Share Report with Specialist", Description: "Provide this analysis to your healthcare team for comprehensive evaluation", Priority: "high"},
				{Title: "Explore Related Information", Description: "Research reliable health resources about the identified parameters", Priority: "moderate"},
			},
			longTerm: []domain.ActionTimelineItem{
				{Title: "Follow-up Testing", Description: "Consider scheduling follow-up tests as recommended by healthcare provider", Priority: "moderate"},
				{Title: "Track Lifestyle Changes", Description: "Monitor any modifications to diet, exercise, or medication as advised", Priority: "moderate"},
				{Title: "Update Health Records", Description: "Upload new test reports to track longitudinal health trends", Priority: "low"},
			},
		},
		domain.SeverityHigh: {
			now: []domain.ActionTimelineItem{
				{Title: "Review Critical Findings", Description: "Carefully note all parameters marked as requiring high attention", Priority: "immediate"},
				{Title: "Document All Values", Description: "Record all test values for discussion with healthcare providers", Priority: "immediate"},
			},
			shortTerm: []domain.ActionTimelineItem{
				{Title: "Contact Healthcare Provider Promptly", Description: "Schedule an appointment as soon as possible to discuss findings", Priority: "immediate"},
				{Title: "Prepare Questions", Description: "Write down questions about your results to ask your healthcare provider", Priority: "high"},
				{Title: "Gather Related Records", Description: "Collect previous test results and relevant medical history", Priority: "high"},
			},
			longTerm: []domain.ActionTimelineItem{
				{Title: "Follow Provider Recommendations", Description: "Adhere to any guidance provided by your healthcare team", Priority: "high"},
				{Title: "Schedule Follow-up Tests", Description: "Plan for monitoring tests as directed by healthcare professionals", Priority: "high"},
				{Title: "Regular Monitoring", Description: "Establish a routine for ongoing health tracking", Priority: "moderate"},
			},
		},
	}
}
