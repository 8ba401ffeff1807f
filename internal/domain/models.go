package domain

import "time"

// Parameter is a single classified measurement extracted from a lab
// report. Value is kept as a string to preserve the original formatting
// from the document (e.g. "11.2" stays "11.2", not 11.2000001).
type Parameter struct {
	Name           string          `json:"name"`
	Value          string          `json:"value"`
	Unit           string          `json:"unit"`
	ReferenceRange string          `json:"referenceRange"`
	Status         ParameterStatus `json:"status"`
	Category       string          `json:"category"`
	Trend          TrendDirection  `json:"trend,omitempty"`
	Explanation    string          `json:"explanation,omitempty"`
}

// AnalysisResult pairs a parameter with its deviation from the reference
// range and the severity weight it contributes to the overall score.
type AnalysisResult struct {
	Parameter      Parameter `json:"parameter"`
	Deviation      float64   `json:"deviation"`
	SeverityWeight float64   `json:"severity_weight"`
	IsCritical     bool      `json:"is_critical"`
}

// HealthClarityScore is the 0-100 summary metric for one report snapshot.
type HealthClarityScore struct {
	Score                      int           `json:"score"`
	SeverityLevel              SeverityLevel `json:"severity_level"`
	SeverityColor              string        `json:"severity_color"`
	ParametersInRange          int           `json:"parameters_in_range"`
	ParametersNeedingAttention int           `json:"parameters_needing_attention"`
	TotalParameters            int           `json:"total_parameters"`
}

// TrendDataPoint is one historical observation of a single parameter,
// with the reference band that applied at observation time.
type TrendDataPoint struct {
	Date    string  `json:"date"`
	Value   float64 `json:"value"`
	RefLow  float64 `json:"refLow"`
	RefHigh float64 `json:"refHigh"`
}

// ParameterTrendData is the longitudinal series for one parameter across
// multiple reports, ordered by date, with the derived direction.
type ParameterTrendData struct {
	ParameterID    string           `json:"parameter_id"`
	ParameterName  string           `json:"parameter_name"`
	Unit           string           `json:"unit"`
	TrendDirection TrendDirection   `json:"trend_direction"`
	DataPoints     []TrendDataPoint `json:"data_points"`
}

// ScoreTrendPoint is one historical Health Clarity Score observation.
type ScoreTrendPoint struct {
	Date  string `json:"date"`
	Score int    `json:"score"`
}

// OCRResult is the contract with the OCR collaborator. The engine only
// consumes Text; confidence gating is the caller's responsibility.
type OCRResult struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	PageCount  int     `json:"page_count"`
	Success    bool    `json:"success"`
	Error      string  `json:"error,omitempty"`
}

// ReportSnapshot is one persisted analyzed report. The repository keeps
// snapshots ordered by upload time per patient; the trend engine
// consumes that ordered history.
type ReportSnapshot struct {
	ReportID           string             `json:"report_id"`
	PatientID          string             `json:"patient_id"`
	ReportDate         string             `json:"report_date"`
	UploadDate         time.Time          `json:"upload_date"`
	Filename           string             `json:"filename"`
	Parameters         []Parameter        `json:"parameters"`
	HealthClarityScore HealthClarityScore `json:"health_clarity_score"`
	OCRConfidence      float64            `json:"ocr_confidence"`
}

// ReportSummary is the compact listing form of a snapshot.
type ReportSummary struct {
	ReportID           string        `json:"report_id"`
	ReportDate         string        `json:"report_date"`
	HealthClarityScore int           `json:"health_clarity_score"`
	SeverityLevel      SeverityLevel `json:"severity_level"`
	AbnormalCount      int           `json:"abnormal_count"`
	TotalParameters    int           `json:"total_parameters"`
}

// ExplainRequest is the contract with the explanation collaborator.
// It deliberately has no field for the measured value: only the
// canonical name, status, and optional trend cross that boundary.
type ExplainRequest struct {
	ParameterName string `json:"parameter_name"`
	Status        string `json:"status"`
	Trend         string `json:"trend,omitempty"`
}

// ExplainResponse is the educational prose returned for a parameter.
type ExplainResponse struct {
	ParameterName      string `json:"parameter_name"`
	Explanation        string `json:"explanation"`
	EducationalContext string `json:"educational_context"`
	Disclaimer         string `json:"disclaimer"`
}

// ActionTimelineItem is a single non-prescriptive suggested action.
type ActionTimelineItem struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
}

// ActionTimelinePhase groups actions under a timeframe.
type ActionTimelinePhase struct {
	Timeframe string               `json:"timeframe"`
	Color     string               `json:"color"`
	Actions   []ActionTimelineItem `json:"actions"`
}

// ActionTimeline is the severity-keyed set of suggested phases.
type ActionTimeline struct {
	SeverityLevel SeverityLevel         `json:"severity_level"`
	Phases        []ActionTimelinePhase `json:"phases"`
	Disclaimer    string                `json:"disclaimer"`
}

// AbnormalParameters filters to parameters counting against the score.
func AbnormalParameters(params []Parameter) []Parameter {
	out := make([]Parameter, 0)
	for _, p := range params {
		if p.Status.IsAbnormal() {
			out = append(out, p)
		}
	}
	return out
}

// NormalParameters filters to in-range parameters.
func NormalParameters(params []Parameter) []Parameter {
	out := make([]Parameter, 0)
	for _, p := range params {
		if !p.Status.IsAbnormal() {
			out = append(out, p)
		}
	}
	return out
}

// GroupByCategory groups parameters under their category, defaulting to
// "Other" when the category is empty.
func GroupByCategory(params []Parameter) map[string][]Parameter {
	grouped := make(map[string][]Parameter)
	for _, p := range params {
		category := p.Category
		if category == "" {
			category = "Other"
		}
		grouped[category] = append(grouped[category], p)
	}
	return grouped
}
