package api

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/lab-clarity-engine/internal/domain"
	"github.com/lab-clarity-engine/internal/service"
)

// AnalyzeResponse is the body returned after a report is analyzed.
type AnalyzeResponse struct {
	ReportID           string                    `json:"report_id"`
	ReportDate         string                    `json:"report_date"`
	Parameters         []domain.Parameter        `json:"parameters"`
	HealthClarityScore domain.HealthClarityScore `json:"health_clarity_score"`
	Interpretation     string                    `json:"interpretation"`
	ScoreTrend         string                    `json:"score_trend"`
	OCRConfidence      float64                   `json:"ocr_confidence,omitempty"`
}

// analyzeTextRequest is the body for direct text analysis.
type analyzeTextRequest struct {
	Text       string `json:"text" binding:"required"`
	ReportDate string `json:"report_date"`
}

// handleUploadReport accepts a multipart report document, runs OCR and
// the analysis pipeline, and persists the snapshot.
func (s *Server) handleUploadReport(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		s.respondError(c, http.StatusBadRequest, domain.ErrCodeInvalidInput, "file is required", err.Error())
		return
	}

	maxBytes := int64(s.cfg.Upload.MaxSizeMB) << 20
	if fileHeader.Size > maxBytes {
		s.respondError(c, http.StatusRequestEntityTooLarge, domain.ErrCodeValidation, "file too large", "")
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if !s.allowedContentType(contentType) {
		s.respondError(c, http.StatusUnsupportedMediaType, domain.ErrCodeValidation, "unsupported file type", contentType)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, domain.ErrCodeInternalServer, "failed to read upload", err.Error())
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, maxBytes))
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, domain.ErrCodeInternalServer, "failed to read upload", err.Error())
		return
	}

	ocrResult, err := s.ocr.ExtractText(c.Request.Context(), fileHeader.Filename, content)
	if err != nil {
		s.respondError(c, http.StatusBadGateway, domain.ErrCodeExternalAPI, "OCR service failed", err.Error())
		return
	}

	if ocrResult.Confidence < s.cfg.OCR.MinConfidence {
		s.logger.WithFields(logrus.Fields{
			"confidence": ocrResult.Confidence,
			"threshold":  s.cfg.OCR.MinConfidence,
		}).Warn("Low OCR confidence, analysis may be incomplete")
	}

	s.analyzeAndRespond(c, ocrResult.Text, c.PostForm("report_date"), fileHeader.Filename, ocrResult.Confidence)
}

// handleAnalyzeText analyzes already-extracted report text.
func (s *Server) handleAnalyzeText(c *gin.Context) {
	var req analyzeTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, domain.ErrCodeInvalidInput, "text is required", err.Error())
		return
	}

	s.analyzeAndRespond(c, req.Text, req.ReportDate, "", 1.0)
}

// analyzeAndRespond is the shared tail of both analysis entry points:
// run the pipeline against the previous report, annotate explanations,
// persist, and respond.
func (s *Server) analyzeAndRespond(c *gin.Context, text, reportDate, filename string, ocrConfidence float64) {
	ctx := c.Request.Context()
	patientID := c.GetString("patient_id")

	var previousParams []domain.Parameter
	var previousScore *int

	previous, err := s.store.Latest(ctx, patientID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		s.respondError(c, http.StatusInternalServerError, domain.ErrCodeDatabaseError, "failed to load report history", err.Error())
		return
	}
	if previous != nil {
		previousParams = previous.Parameters
		score := previous.HealthClarityScore.Score
		previousScore = &score
	}

	report := s.pipeline.Analyze(text, previousParams)
	report.Parameters = s.explainer.ExplainAll(ctx, report.Parameters)

	if reportDate == "" {
		reportDate = time.Now().UTC().Format("2006-01-02")
	}

	snapshot := &domain.ReportSnapshot{
		ReportID:           uuid.NewString(),
		PatientID:          patientID,
		ReportDate:         reportDate,
		UploadDate:         time.Now().UTC(),
		Filename:           filename,
		Parameters:         report.Parameters,
		HealthClarityScore: report.HealthClarityScore,
		OCRConfidence:      ocrConfidence,
	}

	if err := s.store.Save(ctx, snapshot); err != nil {
		s.respondError(c, http.StatusInternalServerError, domain.ErrCodeDatabaseError, "failed to save report", err.Error())
		return
	}

	c.JSON(http.StatusCreated, AnalyzeResponse{
		ReportID:           snapshot.ReportID,
		ReportDate:         snapshot.ReportDate,
		Parameters:         report.Parameters,
		HealthClarityScore: report.HealthClarityScore,
		Interpretation:     report.Interpretation,
		ScoreTrend:         service.ScoreTrend(report.HealthClarityScore.Score, previousScore),
		OCRConfidence:      ocrConfidence,
	})
}

func (s *Server) handleListReports(c *gin.Context) {
	summaries, err := s.store.List(c.Request.Context(), c.GetString("patient_id"))
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, domain.ErrCodeDatabaseError, "failed to list reports", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"reports": summaries})
}

func (s *Server) handleGetReport(c *gin.Context) {
	snapshot, err := s.store.GetByID(c.Request.Context(), c.GetString("patient_id"), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.respondError(c, http.StatusNotFound, domain.ErrCodeNotFound, "report not found", "")
			return
		}
		s.respondError(c, http.StatusInternalServerError, domain.ErrCodeDatabaseError, "failed to load report", err.Error())
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

func (s *Server) handleDeleteReport(c *gin.Context) {
	err := s.store.Delete(c.Request.Context(), c.GetString("patient_id"), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.respondError(c, http.StatusNotFound, domain.ErrCodeNotFound, "report not found", "")
			return
		}
		s.respondError(c, http.StatusInternalServerError, domain.ErrCodeDatabaseError, "failed to delete report", err.Error())
		return
	}

	c.Status(http.StatusNoContent)
}

// handleReportTimeline returns the suggested action phases for one
// report's severity level.
func (s *Server) handleReportTimeline(c *gin.Context) {
	snapshot, err := s.store.GetByID(c.Request.Context(), c.GetString("patient_id"), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.respondError(c, http.StatusNotFound, domain.ErrCodeNotFound, "report not found", "")
			return
		}
		s.respondError(c, http.StatusInternalServerError, domain.ErrCodeDatabaseError, "failed to load report", err.Error())
		return
	}

	c.JSON(http.StatusOK, service.BuildActionTimeline(snapshot.HealthClarityScore.SeverityLevel))
}

func (s *Server) handleAvailableParameters(c *gin.Context) {
	snapshots, err := s.store.History(c.Request.Context(), c.GetString("patient_id"))
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, domain.ErrCodeDatabaseError, "failed to load report history", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"parameters": s.trends.AvailableParameters(snapshots)})
}

func (s *Server) handleParameterTrend(c *gin.Context) {
	name := c.Param("name")

	snapshots, err := s.store.History(c.Request.Context(), c.GetString("patient_id"))
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, domain.ErrCodeDatabaseError, "failed to load report history", err.Error())
		return
	}

	series := s.trends.ParameterSeries(name, snapshots)
	if series == nil {
		s.respondError(c, http.StatusNotFound, domain.ErrCodeNotFound, "no trend data for parameter", name)
		return
	}

	c.JSON(http.StatusOK, series)
}

func (s *Server) handleScoreTrend(c *gin.Context) {
	snapshots, err := s.store.History(c.Request.Context(), c.GetString("patient_id"))
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, domain.ErrCodeDatabaseError, "failed to load report history", err.Error())
		return
	}

	points := s.trends.ScoreSeries(snapshots)

	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = float64(p.Score)
	}

	c.JSON(http.StatusOK, gin.H{
		"points":    points,
		"direction": s.trends.Direction(values),
	})
}

// handleExplain returns the educational explanation for one parameter.
// Only the parameter name, status, and trend reach the explainer.
func (s *Server) handleExplain(c *gin.Context) {
	status := c.DefaultQuery("status", domain.StatusNormal.String())
	if !domain.ParameterStatus(status).IsValid() {
		s.respondError(c, http.StatusBadRequest, domain.ErrCodeInvalidInput, "invalid status", status)
		return
	}

	trend := c.Query("trend")
	if trend != "" && !domain.TrendDirection(trend).IsValid() {
		s.respondError(c, http.StatusBadRequest, domain.ErrCodeInvalidInput, "invalid trend", trend)
		return
	}

	resp := s.explainer.Explain(c.Request.Context(), domain.ExplainRequest{
		ParameterName: c.Param("parameter"),
		Status:        status,
		Trend:         trend,
	})

	c.JSON(http.StatusOK, resp)
}

func (s *Server) allowedContentType(contentType string) bool {
	if len(s.cfg.Upload.AllowedTypes) == 0 {
		return true
	}

	contentType = strings.ToLower(strings.TrimSpace(contentType))
	for _, allowed := range s.cfg.Upload.AllowedTypes {
		if contentType == allowed {
			return true
		}
	}
	return false
}
