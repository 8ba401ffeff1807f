package service

import (
	"github.com/sirupsen/logrus"

	"github.com/lab-clarity-engine/internal/domain"
)

// DemoFallbackAnalyzer decorates a ReportAnalyzer with the
// demo-data-on-empty-extraction policy. The policy is deliberately kept
// out of the pipeline itself so the engine stays a pure, testable
// function; callers that want strict behavior use ReportAnalyzer
// directly.
type DemoFallbackAnalyzer struct {
	inner  *ReportAnalyzer
	scorer *Scorer
	logger *logrus.Logger
}

// NewDemoFallbackAnalyzer wraps an analyzer with the demo fallback.
func NewDemoFallbackAnalyzer(inner *ReportAnalyzer, logger *logrus.Logger) *DemoFallbackAnalyzer {
	return &DemoFallbackAnalyzer{
		inner:  inner,
		scorer: inner.scorer,
		logger: logger,
	}
}

// Analyze delegates to the wrapped pipeline and substitutes the demo
// parameter set when nothing at all was extracted.
func (d *DemoFallbackAnalyzer) Analyze(ocrText string, previousParams []domain.Parameter) AnalysisReport {
	report := d.inner.Analyze(ocrText, previousParams)
	if len(report.Parameters) > 0 {
		return report
	}

	d.logger.Warn("No parameters extracted, returning demo data")

	params := DemoParameters()
	results := d.inner.analyzer.AnalyzeAll(params)
	score := d.scorer.Calculate(params)

	report.Parameters = params
	report.AnalysisResults = results
	report.HealthClarityScore = score
	report.Interpretation = Interpretation(score.Score)

	return report
}

// DemoParameters returns the canonical demo parameter set used when
// extraction comes up empty.
func DemoParameters() []domain.Parameter {
	return []domain.Parameter{
		{Name: "Hemoglobin", Value: "11.2", Unit: "g/dL", ReferenceRange: "13 - 17", Status: domain.StatusLow, Category: "Blood Count",
			Explanation: "Hemoglobin carries oxygen throughout the body. Lower values may indicate iron deficiency or other conditions."},
		{Name: "White Blood Cell Count", Value: "7.5", Unit: "×10³/μL", ReferenceRange: "4 - 11", Status: domain.StatusNormal, Category: "Blood Count"},
		{Name: "Platelet Count", Value: "225", Unit: "×10³/μL", ReferenceRange: "150 - 400", Status: domain.StatusNormal, Category: "Blood Count"},
		{Name: "Red Blood Cell Count", Value: "4.2", Unit: "×10⁶/μL", ReferenceRange: "4.5 - 5.5", Status: domain.StatusLow, Category: "Blood Count"},
		{Name: "Total Cholesterol", Value: "245", Unit: "mg/dL", ReferenceRange: "< 200", Status: domain.StatusHigh, Category: "Lipid Profile",
			Explanation: "Total cholesterol includes HDL, LDL, and other lipid components. Values above 200 mg/dL are considered elevated."},
		{Name: "HDL Cholesterol", Value: "48", Unit: "mg/dL", ReferenceRange: "> 40", Status: domain.StatusNormal, Category: "Lipid Profile"},
		{Name: "LDL Cholesterol", Value: "165", Unit: "mg/dL", ReferenceRange: "< 100", Status: domain.StatusHigh, Category: "Lipid Profile",
			Explanation: "LDL is often called 'bad cholesterol'. Elevated levels may contribute to cardiovascular risk factors."},
		{Name: "Triglycerides", Value: "142", Unit: "mg/dL", ReferenceRange: "< 150", Status: domain.StatusNormal, Category: "Lipid Profile"},
		{Name: "Fasting Glucose", Value: "94", Unit: "mg/dL", ReferenceRange: "70 - 100", Status: domain.StatusNormal, Category: "Metabolic"},
		{Name: "HbA1c", Value: "5.6", Unit: "%", ReferenceRange: "< 5.7", Status: domain.StatusNormal, Category: "Metabolic"},
		{Name: "Creatinine", Value: "1.1", Unit: "mg/dL", ReferenceRange: "0.7 - 1.3", Status: domain.StatusNormal, Category: "Metabolic"},
		{Name: "TSH", Value: "2.5", Unit: "mIU/L", ReferenceRange: "0.4 - 4", Status: domain.StatusNormal, Category: "Thyroid"},
		{Name: "Vitamin D", Value: "18", Unit: "ng/mL", ReferenceRange: "30 - 100", Status: domain.StatusLow, Category: "Vitamins",
			Explanation: "Vitamin D supports bone health and immune function. Values below 30 ng/mL are considered insufficient."},
		{Name: "Vitamin B12", Value: "425", Unit: "pg/mL", ReferenceRange: "200 - 900", Status: domain.StatusNormal, Category: "Vitamins"},
	}
}
