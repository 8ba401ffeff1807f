package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lab-clarity-engine/internal/config"
	"github.com/lab-clarity-engine/internal/domain"
	"github.com/lab-clarity-engine/internal/external"
	"github.com/lab-clarity-engine/internal/reference"
	"github.com/lab-clarity-engine/internal/repository"
	"github.com/lab-clarity-engine/internal/service"
)

const sampleReportText = `Hemoglobin: 11.2 g/dL (Reference: 13.0-17.0)
Total Cholesterol: 245 mg/dL (Reference: <200)
TSH: 2.5 mIU/L (Reference: 0.4-4.0)`

// stubOCR returns canned text without any real OCR.
type stubOCR struct {
	text       string
	confidence float64
	err        error
}

func (s *stubOCR) ExtractText(ctx context.Context, filename string, content []byte) (*domain.OCRResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.OCRResult{Text: s.text, Confidence: s.confidence, PageCount: 1, Success: true}, nil
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		Server: config.ServerConfig{
			Host:           "127.0.0.1",
			Port:           8080,
			AllowedOrigins: []string{"*"},
		},
		OCR:    config.OCRConfig{BaseURL: "http://localhost:8090", MinConfidence: 0.3},
		Upload: config.UploadConfig{MaxSizeMB: 10, AllowedTypes: []string{"application/pdf", "text/plain"}},
		Logging: config.LoggingConfig{
			Level:  "error",
			Format: "json",
		},
	}
}

func newTestServer(t *testing.T, ocr OCRService) *Server {
	t.Helper()

	logger := testLogger()

	store, err := repository.NewSQLiteReportStore(filepath.Join(t.TempDir(), "reports.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	catalog := reference.NewDefaultCatalog()
	pipeline := service.NewDemoFallbackAnalyzer(service.NewReportAnalyzer(catalog, logger), logger)
	explainer := external.NewExplainClient(external.ExplainConfig{}, nil, logger)

	return NewServer(testConfig(), Deps{
		Store:     store,
		Pipeline:  pipeline,
		Trends:    service.NewTrendEngine(logger),
		Explainer: explainer,
		OCR:       ocr,
	}, logger)
}

// doRequest performs one request against the router, attaching any
// session cookies captured from earlier responses.
func doRequest(t *testing.T, server *Server, method, path string, body io.Reader, contentType string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)
	return rec
}

func analyzeText(t *testing.T, server *Server, text, reportDate string, cookies []*http.Cookie) (*httptest.ResponseRecorder, AnalyzeResponse) {
	t.Helper()

	payload, err := json.Marshal(map[string]string{"text": text, "report_date": reportDate})
	require.NoError(t, err)

	rec := doRequest(t, server, http.MethodPost, "/api/v1/analyze", bytes.NewReader(payload), "application/json", cookies)

	var resp AnalyzeResponse
	if rec.Code == http.StatusCreated {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer(t, &stubOCR{})

	rec := doRequest(t, server, http.MethodGet, "/health", nil, "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestAnalyzeText(t *testing.T) {
	server := newTestServer(t, &stubOCR{})

	rec, resp := analyzeText(t, server, sampleReportText, "2026-01-15", nil)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotEmpty(t, resp.ReportID)
	assert.Equal(t, "2026-01-15", resp.ReportDate)
	assert.Len(t, resp.Parameters, 3)
	assert.Equal(t, 1, resp.HealthClarityScore.ParametersInRange)
	assert.Equal(t, 2, resp.HealthClarityScore.ParametersNeedingAttention)
	assert.Equal(t, "stable", resp.ScoreTrend, "first report has no previous score")
	assert.NotEmpty(t, resp.Interpretation)

	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies, "first request starts a session")
	assert.Equal(t, sessionCookie, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
}

func TestAnalyzeText_AbnormalParametersExplained(t *testing.T) {
	server := newTestServer(t, &stubOCR{})

	_, resp := analyzeText(t, server, sampleReportText, "2026-01-15", nil)

	for _, p := range resp.Parameters {
		if p.Status.IsAbnormal() {
			assert.NotEmpty(t, p.Explanation, "abnormal parameter %s should carry an explanation", p.Name)
		} else {
			assert.Empty(t, p.Explanation)
		}
	}
}

func TestAnalyzeText_MissingBody(t *testing.T) {
	server := newTestServer(t, &stubOCR{})

	rec := doRequest(t, server, http.MethodPost, "/api/v1/analyze", bytes.NewReader([]byte(`{}`)), "application/json", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), domain.ErrCodeInvalidInput)
}

func TestSessionIsolation(t *testing.T) {
	server := newTestServer(t, &stubOCR{})

	rec, resp := analyzeText(t, server, sampleReportText, "2026-01-15", nil)
	cookies := rec.Result().Cookies()

	// Same session sees the report.
	recList := doRequest(t, server, http.MethodGet, "/api/v1/reports", nil, "", cookies)
	assert.Equal(t, http.StatusOK, recList.Code)
	assert.Contains(t, recList.Body.String(), resp.ReportID)

	// A fresh session does not.
	recOther := doRequest(t, server, http.MethodGet, "/api/v1/reports/"+resp.ReportID, nil, "", nil)
	assert.Equal(t, http.StatusNotFound, recOther.Code)
}

func TestAnalyzeText_SecondReportCarriesTrends(t *testing.T) {
	server := newTestServer(t, &stubOCR{})

	first := "Hemoglobin: 13.2 g/dL (Reference: 13.0-17.0)"
	second := "Hemoglobin: 11.2 g/dL (Reference: 13.0-17.0)"

	rec, _ := analyzeText(t, server, first, "2026-01-01", nil)
	cookies := rec.Result().Cookies()

	_, resp := analyzeText(t, server, second, "2026-02-01", cookies)

	require.Len(t, resp.Parameters, 1)
	assert.Equal(t, domain.TrendDown, resp.Parameters[0].Trend)
	assert.Equal(t, "declining", resp.ScoreTrend)
}

func TestGetAndDeleteReport(t *testing.T) {
	server := newTestServer(t, &stubOCR{})

	rec, resp := analyzeText(t, server, sampleReportText, "2026-01-15", nil)
	cookies := rec.Result().Cookies()

	recGet := doRequest(t, server, http.MethodGet, "/api/v1/reports/"+resp.ReportID, nil, "", cookies)
	require.Equal(t, http.StatusOK, recGet.Code)

	var snapshot domain.ReportSnapshot
	require.NoError(t, json.Unmarshal(recGet.Body.Bytes(), &snapshot))
	assert.Equal(t, resp.ReportID, snapshot.ReportID)
	assert.Len(t, snapshot.Parameters, 3)

	recDel := doRequest(t, server, http.MethodDelete, "/api/v1/reports/"+resp.ReportID, nil, "", cookies)
	assert.Equal(t, http.StatusNoContent, recDel.Code)

	recGone := doRequest(t, server, http.MethodGet, "/api/v1/reports/"+resp.ReportID, nil, "", cookies)
	assert.Equal(t, http.StatusNotFound, recGone.Code)
}

func TestReportTimeline(t *testing.T) {
	server := newTestServer(t, &stubOCR{})

	rec, resp := analyzeText(t, server, sampleReportText, "2026-01-15", nil)
	cookies := rec.Result().Cookies()

	recTimeline := doRequest(t, server, http.MethodGet, "/api/v1/reports/"+resp.ReportID+"/timeline", nil, "", cookies)
	require.Equal(t, http.StatusOK, recTimeline.Code)

	var timeline domain.ActionTimeline
	require.NoError(t, json.Unmarshal(recTimeline.Body.Bytes(), &timeline))
	assert.Len(t, timeline.Phases, 3)
	assert.NotEmpty(t, timeline.Disclaimer)
}

func TestParameterTrends(t *testing.T) {
	server := newTestServer(t, &stubOCR{})

	rec, _ := analyzeText(t, server, "Hemoglobin: 13.2 g/dL (Reference: 13.0-17.0)", "2026-01-01", nil)
	cookies := rec.Result().Cookies()
	analyzeText(t, server, "Hemoglobin: 11.2 g/dL (Reference: 13.0-17.0)", "2026-02-01", cookies)

	recAvail := doRequest(t, server, http.MethodGet, "/api/v1/trends/parameters", nil, "", cookies)
	require.Equal(t, http.StatusOK, recAvail.Code)
	assert.Contains(t, recAvail.Body.String(), "Hemoglobin")

	recSeries := doRequest(t, server, http.MethodGet, "/api/v1/trends/parameters/Hemoglobin", nil, "", cookies)
	require.Equal(t, http.StatusOK, recSeries.Code)

	var series domain.ParameterTrendData
	require.NoError(t, json.Unmarshal(recSeries.Body.Bytes(), &series))
	assert.Equal(t, domain.TrendDown, series.TrendDirection)
	assert.Len(t, series.DataPoints, 2)

	recMissing := doRequest(t, server, http.MethodGet, "/api/v1/trends/parameters/Ferritin", nil, "", cookies)
	assert.Equal(t, http.StatusNotFound, recMissing.Code)
}

func TestScoreTrendEndpoint(t *testing.T) {
	server := newTestServer(t, &stubOCR{})

	rec, _ := analyzeText(t, server, "Hemoglobin: 14.0 g/dL (Reference: 13.0-17.0)", "2026-01-01", nil)
	cookies := rec.Result().Cookies()
	analyzeText(t, server, sampleReportText, "2026-02-01", cookies)

	recScore := doRequest(t, server, http.MethodGet, "/api/v1/trends/score", nil, "", cookies)
	require.Equal(t, http.StatusOK, recScore.Code)

	var body struct {
		Points    []domain.ScoreTrendPoint `json:"points"`
		Direction domain.TrendDirection    `json:"direction"`
	}
	require.NoError(t, json.Unmarshal(recScore.Body.Bytes(), &body))
	assert.Len(t, body.Points, 2)
	assert.Equal(t, domain.TrendDown, body.Direction)
}

func TestExplainEndpoint(t *testing.T) {
	server := newTestServer(t, &stubOCR{})

	rec := doRequest(t, server, http.MethodGet, "/api/v1/explain/Hemoglobin?status=low", nil, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp domain.ExplainResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Explanation, "Hemoglobin")
	assert.NotEmpty(t, resp.Disclaimer)

	recBad := doRequest(t, server, http.MethodGet, "/api/v1/explain/Hemoglobin?status=weird", nil, "", nil)
	assert.Equal(t, http.StatusBadRequest, recBad.Code)
}

// pdfUpload builds a multipart body with an explicit part Content-Type,
// since the upload handler checks the declared file type.
func pdfUpload(t *testing.T, reportDate string) (*bytes.Buffer, string) {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="report.pdf"`)
	header.Set("Content-Type", "application/pdf")

	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4 fake"))
	require.NoError(t, err)

	if reportDate != "" {
		require.NoError(t, writer.WriteField("report_date", reportDate))
	}
	require.NoError(t, writer.Close())

	return &body, writer.FormDataContentType()
}

func TestUploadReport(t *testing.T) {
	server := newTestServer(t, &stubOCR{text: sampleReportText, confidence: 0.95})

	body, contentType := pdfUpload(t, "2026-01-15")
	rec := doRequest(t, server, http.MethodPost, "/api/v1/reports", body, contentType, nil)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp AnalyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Parameters, 3)
	assert.InDelta(t, 0.95, resp.OCRConfidence, 1e-9)
}

func TestUploadReport_OCRFailure(t *testing.T) {
	server := newTestServer(t, &stubOCR{err: context.DeadlineExceeded})

	body, contentType := pdfUpload(t, "")
	rec := doRequest(t, server, http.MethodPost, "/api/v1/reports", body, contentType, nil)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), domain.ErrCodeExternalAPI)
}

func TestUploadReport_MissingFile(t *testing.T) {
	server := newTestServer(t, &stubOCR{})

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	require.NoError(t, writer.Close())

	rec := doRequest(t, server, http.MethodPost, "/api/v1/reports", &body, writer.FormDataContentType(), nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	server := newTestServer(t, &stubOCR{})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/reports", nil)
	req.Header.Set("Origin", "https://app.example.com")

	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestSecurityHeaders(t *testing.T) {
	server := newTestServer(t, &stubOCR{})

	rec := doRequest(t, server, http.MethodGet, "/health", nil, "", nil)

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rec.Header().Get("X-Correlation-ID"))
}

func TestDemoFallbackOnUnreadableText(t *testing.T) {
	server := newTestServer(t, &stubOCR{})

	_, resp := analyzeText(t, server, "completely unreadable scan output", "2026-01-15", nil)

	assert.Len(t, resp.Parameters, len(service.DemoParameters()))
	assert.Greater(t, resp.HealthClarityScore.TotalParameters, 0)
}

func TestUploadDateOrderingForTrends(t *testing.T) {
	// Uploads seconds apart must still order history correctly.
	server := newTestServer(t, &stubOCR{})

	rec, _ := analyzeText(t, server, "Hemoglobin: 13.2 g/dL (Reference: 13.0-17.0)", "2026-01-01", nil)
	cookies := rec.Result().Cookies()

	time.Sleep(10 * time.Millisecond)
	_, resp := analyzeText(t, server, "Hemoglobin: 12.0 g/dL (Reference: 13.0-17.0)", "2026-02-01", cookies)

	assert.Equal(t, domain.TrendDown, resp.Parameters[0].Trend)
}
