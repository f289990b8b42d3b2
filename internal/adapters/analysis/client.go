package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"cortex/internal/adapters/config"
	"cortex/internal/metrics"
	"cortex/pkg/errors"
	"cortex/pkg/logger"
	"cortex/pkg/retry"
)

// Client is the typed HTTP client for the external analysis backend.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	limiter      *rate.Limiter
	retryPolicy  retry.Policy
	healthPolicy retry.Policy
	log          *logger.Logger
}

// New creates an analysis backend client from config.
func New(cfg config.AnalysisConfig) *Client {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		limiter:    limiter,
		retryPolicy: retry.Policy{
			MaxAttempts:  cfg.MaxAttempts,
			InitialDelay: 500 * time.Millisecond,
			MaxDelay:     10 * time.Second,
			Multiplier:   2.0,
			Strategy:     retry.StrategyExponential,
			JitterPct:    0.2,
		},
		healthPolicy: retry.Policy{
			MaxAttempts:  cfg.HealthMaxAttempts,
			InitialDelay: cfg.HealthDelay,
			Strategy:     retry.StrategyLinear,
		},
		log: logger.Get().With("component", "analysis_client", "base_url", cfg.BaseURL),
	}
}

// AnalyzeData submits a request to POST /api/analyze with retries.
// On final failure it returns the fallback response together with the error,
// so callers decide between treating the failure as fatal or degrading.
func (c *Client) AnalyzeData(ctx context.Context, req *Request) (*Response, error) {
	kind := "analysis"
	if len(req.Data) > 0 && req.Data[0].Type != "" {
		kind = req.Data[0].Type
	}

	body, err := json.Marshal(req)
	if err != nil {
		return Fallback(), errors.Wrap(err, "marshal analysis request")
	}

	start := time.Now()
	var result *Response
	err = retry.Do(ctx, c.retryPolicy, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return errors.Wrap(err, "analysis rate limiter wait")
		}

		resp, err := c.post(ctx, "/api/analyze", body)
		if err != nil {
			return err
		}
		result = resp
		return nil
	})
	metrics.RecordAnalysisCall(kind, time.Since(start), err)

	if err != nil {
		c.log.Warn("Analysis backend call failed, using fallback",
			"kind", kind,
			"error", err)
		return Fallback(), errors.Wrapf(errors.ErrUnavailable, "analysis backend (%s): %v", kind, err)
	}

	return result, nil
}

func (c *Client) post(ctx context.Context, path string, body []byte) (*Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "create HTTP request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, errors.Wrap(err, "send analysis request")
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read analysis response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Wrapf(errors.ErrUnavailable, "analysis backend returned %d: %s",
			resp.StatusCode, string(respBody))
	}

	var out Response
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, errors.Wrap(err, "unmarshal analysis response")
	}
	return &out, nil
}

// healthResponse accepts both health payload variants the backend may serve.
type healthResponse struct {
	Status            string `json:"status"`
	ModelsInitialized bool   `json:"models_initialized"`
}

// Health performs a single readiness probe against GET /health.
func (c *Client) Health(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return errors.Wrap(err, "create health request")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return errors.Wrap(err, "send health request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return errors.Wrapf(errors.ErrBackendUnhealthy, "health endpoint returned %d", resp.StatusCode)
	}

	var health healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return errors.Wrap(err, "decode health response")
	}

	if health.Status != "healthy" && !health.ModelsInitialized {
		return errors.Wrapf(errors.ErrBackendUnhealthy, "backend not ready: status=%q models_initialized=%v",
			health.Status, health.ModelsInitialized)
	}
	return nil
}

// WaitReady probes GET /health with bounded retries until the backend
// reports healthy. Intended as a pre-flight check before first use.
func (c *Client) WaitReady(ctx context.Context) error {
	err := retry.Do(ctx, c.healthPolicy, c.Health)
	if err != nil {
		return errors.Wrap(err, "analysis backend readiness probe failed")
	}

	c.log.Info("Analysis backend is ready")
	return nil
}
