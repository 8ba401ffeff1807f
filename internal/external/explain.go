// Package external holds clients for collaborator services: the
// explanation service and its cache tiers. Nothing in this package may
// see measured values; requests carry only canonical parameter names,
// statuses, and trends.
package external

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/lab-clarity-engine/internal/domain"
)

const explainDisclaimer = "This is general educational information, not medical advice. " +
	"Consult a qualified healthcare professional about your results."

// ExplainConfig configures the explanation client.
type ExplainConfig struct {
	BaseURL     string
	APIKey      string
	Timeout     time.Duration
	RateLimit   float64
	RateBurst   int
	MaxFailures uint32
	OpenTimeout time.Duration
}

// ExplainClient fetches plain-language parameter explanations from the
// explanation service, guarded by a rate limiter and a circuit breaker.
// Every failure path degrades to a static explanation; callers never see
// an error for a missing explanation, only poorer prose.
type ExplainClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	cache      *ExplanationCache
	logger     *logrus.Logger
}

// NewExplainClient creates an explanation client. An empty BaseURL is
// valid and yields a client that always serves static fallbacks.
func NewExplainClient(config ExplainConfig, cache *ExplanationCache, logger *logrus.Logger) *ExplainClient {
	if config.Timeout == 0 {
		config.Timeout = 20 * time.Second
	}
	if config.RateLimit == 0 {
		config.RateLimit = 5
	}
	if config.RateBurst == 0 {
		config.RateBurst = 10
	}
	if config.MaxFailures == 0 {
		config.MaxFailures = 5
	}
	if config.OpenTimeout == 0 {
		config.OpenTimeout = 60 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "explain",
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     config.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})

	return &ExplainClient{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		apiKey:     config.APIKey,
		httpClient: &http.Client{Timeout: config.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(config.RateLimit), config.RateBurst),
		breaker:    breaker,
		cache:      cache,
		logger:     logger,
	}
}

// Explain returns the explanation for one parameter observation. The
// lookup order is cache, remote service, static fallback; the method
// never returns an error for explanation content.
func (c *ExplainClient) Explain(ctx context.Context, req domain.ExplainRequest) *domain.ExplainResponse {
	if c.cache != nil {
		if resp, ok := c.cache.Get(ctx, req); ok {
			return resp
		}
	}

	if c.baseURL == "" {
		return c.fallback(req)
	}

	resp, err := c.fetch(ctx, req)
	if err != nil {
		c.logger.WithFields(logrus.Fields{
			"parameter": req.ParameterName,
			"error":     err,
		}).Warn("Explanation service unavailable, using fallback")
		return c.fallback(req)
	}

	if c.cache != nil {
		c.cache.Set(ctx, req, resp)
	}
	return resp
}

// ExplainAll annotates abnormal parameters in place with explanations.
// Normal parameters are left untouched to keep responses compact.
func (c *ExplainClient) ExplainAll(ctx context.Context, params []domain.Parameter) []domain.Parameter {
	out := make([]domain.Parameter, len(params))
	for i, p := range params {
		out[i] = p
		if !p.Status.IsAbnormal() {
			continue
		}

		resp := c.Explain(ctx, domain.ExplainRequest{
			ParameterName: p.Name,
			Status:        p.Status.String(),
			Trend:         p.Trend.String(),
		})
		out[i].Explanation = resp.Explanation
	}
	return out
}

func (c *ExplainClient) fetch(ctx context.Context, req domain.ExplainRequest) (*domain.ExplainResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait failed: %w", err)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.doRequest(ctx, req)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState {
			return nil, fmt.Errorf("explanation service unavailable (circuit breaker open)")
		}
		return nil, err
	}

	return result.(*domain.ExplainResponse), nil
}

func (c *ExplainClient) doRequest(ctx context.Context, req domain.ExplainRequest) (*domain.ExplainResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling explain request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/explain", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating explain request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("executing explain request: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(httpResp.Body)
		return nil, fmt.Errorf("explanation service returned status %d: %s", httpResp.StatusCode, string(body))
	}

	var resp domain.ExplainResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decoding explain response: %w", err)
	}

	if resp.ParameterName == "" {
		resp.ParameterName = req.ParameterName
	}
	if resp.Disclaimer == "" {
		resp.Disclaimer = explainDisclaimer
	}

	return &resp, nil
}

// fallback returns the static explanation for a request. Unknown
// parameters get a generic status-appropriate sentence.
func (c *ExplainClient) fallback(req domain.ExplainRequest) *domain.ExplainResponse {
	explanation, ok := staticExplanations()[strings.ToLower(req.ParameterName)]
	if !ok {
		switch req.Status {
		case domain.StatusHigh.String():
			explanation = "This value is above its typical reference range. Elevated results can have many causes and are best interpreted by a healthcare professional."
		case domain.StatusLow.String():
			explanation = "This value is below its typical reference range. Lower results can have many causes and are best interpreted by a healthcare professional."
		default:
			explanation = "This value is within its typical reference range."
		}
	}

	return &domain.ExplainResponse{
		ParameterName:      req.ParameterName,
		Explanation:        explanation,
		EducationalContext: "Reference ranges vary between laboratories and individuals; a single out-of-range value is not a diagnosis.",
		Disclaimer:         explainDisclaimer,
	}
}

// staticExplanations holds the curated fallback prose for common
// parameters, keyed by lowercase display name.
func staticExplanations() map[string]string {
	return map[string]string{
		"hemoglobin":             "Hemoglobin carries oxygen throughout the body. Lower values may indicate iron deficiency or other conditions.",
		"white blood cell count": "White blood cells are part of the immune system. Counts outside the typical range can reflect infection, inflammation, or other processes.",
		"platelet count":         "Platelets help blood clot. Counts outside the typical range can affect bruising and bleeding tendency.",
		"total cholesterol":      "Total cholesterol includes HDL, LDL, and other lipid components. Values above 200 mg/dL are considered elevated.",
		"hdl cholesterol":        "HDL is often called 'good cholesterol'. Higher values are generally considered protective.",
		"ldl cholesterol":        "LDL is often called 'bad cholesterol'. Elevated levels may contribute to cardiovascular risk factors.",
		"triglycerides":          "Triglycerides are a type of fat in the blood. Elevated levels are often related to diet and metabolism.",
		"fasting glucose":        "Fasting glucose reflects blood sugar after an overnight fast and is used to screen for metabolic conditions.",
		"hba1c":                  "HbA1c reflects average blood sugar over roughly three months.",
		"creatinine":             "Creatinine is a waste product filtered by the kidneys and is used to assess kidney function.",
		"tsh":                    "TSH regulates thyroid hormone production. Values outside the typical range may indicate thyroid over- or under-activity.",
		"vitamin d":              "Vitamin D supports bone health and immune function. Values below 30 ng/mL are considered insufficient.",
		"vitamin b12":            "Vitamin B12 supports nerve function and red blood cell formation.",
		"sodium":                 "Sodium is an electrolyte that helps regulate fluid balance and nerve function.",
		"potassium":              "Potassium is an electrolyte important for heart rhythm and muscle function.",
	}
}
