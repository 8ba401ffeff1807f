// Package domain contains the core business entities for lab report
// analysis: extracted parameters, their classification against reference
// ranges, the aggregate Health Clarity Score, and longitudinal trends.
//
// All types here are plain value types. The string values of the enums
// are the wire contract consumed by clients and must remain stable.
package domain

import "errors"

// ParameterStatus classifies a measured value against its reference range.
type ParameterStatus string

const (
	StatusNormal     ParameterStatus = "normal"
	StatusHigh       ParameterStatus = "high"
	StatusLow        ParameterStatus = "low"
	StatusBorderline ParameterStatus = "borderline"
)

// TrendDirection describes how a parameter or score moved between
// chronologically ordered observations.
type TrendDirection string

const (
	TrendUp     TrendDirection = "up"
	TrendDown   TrendDirection = "down"
	TrendStable TrendDirection = "stable"
)

// SeverityLevel is the overall attention level derived from a report's
// analysis results.
type SeverityLevel string

const (
	SeverityLow      SeverityLevel = "Low Attention"
	SeverityModerate SeverityLevel = "Moderate Attention"
	SeverityHigh     SeverityLevel = "High Attention"
)

// Severity display colors. Clients render the score ring with these.
const (
	ColorSeverityLow      = "#2E7D5B"
	ColorSeverityModerate = "#C89B3C"
	ColorSeverityHigh     = "#D64545"
	ColorSeverityUnknown  = "#5E6C7A"
)

// Validation errors for report data integrity.
var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidStatus   = errors.New("invalid parameter status")
	ErrInvalidTrend    = errors.New("invalid trend direction")
	ErrInvalidSeverity = errors.New("invalid severity level")
)

// IsValid reports whether the status is one of the declared values.
// BORDERLINE is a valid declared status even though the current
// classification rule never produces it.
func (s ParameterStatus) IsValid() bool {
	switch s {
	case StatusNormal, StatusHigh, StatusLow, StatusBorderline:
		return true
	default:
		return false
	}
}

// String returns the wire representation of the status.
func (s ParameterStatus) String() string {
	return string(s)
}

// IsAbnormal reports whether the status counts against the score.
func (s ParameterStatus) IsAbnormal() bool {
	return s != StatusNormal
}

// IsValid reports whether the trend direction is one of the declared values.
func (t TrendDirection) IsValid() bool {
	switch t {
	case TrendUp, TrendDown, TrendStable:
		return true
	default:
		return false
	}
}

// String returns the wire representation of the trend direction.
func (t TrendDirection) String() string {
	return string(t)
}

// IsValid reports whether the severity level is one of the declared values.
func (l SeverityLevel) IsValid() bool {
	switch l {
	case SeverityLow, SeverityModerate, SeverityHigh:
		return true
	default:
		return false
	}
}

// String returns the wire representation of the severity level.
func (l SeverityLevel) String() string {
	return string(l)
}

// Color returns the fixed display color for the severity level.
func (l SeverityLevel) Color() string {
	switch l {
	case SeverityLow:
		return ColorSeverityLow
	case SeverityModerate:
		return ColorSeverityModerate
	case SeverityHigh:
		return ColorSeverityHigh
	default:
		return ColorSeverityUnknown
	}
}
