package service

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lab-clarity-engine/internal/domain"
	"github.com/lab-clarity-engine/internal/reference"
)

// ReportAnalyzer is the deterministic analysis pipeline: extract,
// validate, classify, score, and (when history is supplied) annotate
// trends. It is purely functional over its inputs; it performs no I/O
// and never substitutes data on an empty extraction — that policy lives
// in DemoFallbackAnalyzer.
type ReportAnalyzer struct {
	extractor *Extractor
	validator *Validator
	analyzer  *Analyzer
	scorer    *Scorer
	logger    *logrus.Logger
}

// AnalysisReport is the full output for one report snapshot.
type AnalysisReport struct {
	Parameters         []domain.Parameter        `json:"parameters"`
	AnalysisResults    []domain.AnalysisResult   `json:"analysis_results"`
	HealthClarityScore domain.HealthClarityScore `json:"health_clarity_score"`
	Interpretation     string                    `json:"interpretation"`
	ProcessingTime     time.Duration             `json:"processing_time"`
}

// NewReportAnalyzer wires the pipeline stages over a shared catalog.
func NewReportAnalyzer(catalog *reference.Catalog, logger *logrus.Logger) *ReportAnalyzer {
	analyzer := NewAnalyzer(catalog, logger)
	return &ReportAnalyzer{
		extractor: NewExtractor(catalog, logger),
		validator: NewValidator(catalog, logger),
		analyzer:  analyzer,
		scorer:    NewScorer(analyzer, logger),
		logger:    logger,
	}
}

// Analyze runs the full pipeline over OCR text. previousParams may be
// nil; when present the resulting parameters carry pairwise trend
// directions against that report.
func (r *ReportAnalyzer) Analyze(ocrText string, previousParams []domain.Parameter) AnalysisReport {
	startTime := time.Now()

	candidates := r.extractor.Extract(ocrText)
	params := r.validator.ValidateAll(candidates)
	params = r.analyzer.EnrichWithTrends(params, previousParams)

	results := r.analyzer.AnalyzeAll(params)
	score := r.scorer.Calculate(params)

	report := AnalysisReport{
		Parameters:         params,
		AnalysisResults:    results,
		HealthClarityScore: score,
		Interpretation:     Interpretation(score.Score),
		ProcessingTime:     time.Since(startTime),
	}

	r.logger.WithFields(logrus.Fields{
		"parameters":      len(params),
		"score":           score.Score,
		"severity":        score.SeverityLevel.String(),
		"processing_time": report.ProcessingTime,
	}).Info("Report analysis completed")

	return report
}
