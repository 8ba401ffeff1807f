package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lab-clarity-engine/internal/domain"
)

// OCRService extracts text from an uploaded report document. The
// analysis pipeline only ever sees the returned text; the raw document
// stays with the OCR collaborator.
type OCRService interface {
	ExtractText(ctx context.Context, filename string, content []byte) (*domain.OCRResult, error)
}

// HTTPOCRClient calls the OCR collaborator service over HTTP.
type HTTPOCRClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewHTTPOCRClient creates an OCR client for the given base URL.
func NewHTTPOCRClient(baseURL string, timeout time.Duration, logger *logrus.Logger) *HTTPOCRClient {
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	return &HTTPOCRClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// ExtractText uploads the document and returns the recognized text.
func (o *HTTPOCRClient) ExtractText(ctx context.Context, filename string, content []byte) (*domain.OCRResult, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("creating form file: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return nil, fmt.Errorf("writing form file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/v1/ocr", &body)
	if err != nil {
		return nil, fmt.Errorf("creating OCR request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing OCR request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("OCR service returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var result domain.OCRResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding OCR response: %w", err)
	}

	o.logger.WithFields(logrus.Fields{
		"filename":   filename,
		"confidence": result.Confidence,
		"pages":      result.PageCount,
		"text_len":   len(result.Text),
	}).Debug("OCR extraction completed")

	return &result, nil
}
