package analysis

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cortex/internal/adapters/config"
	"cortex/pkg/errors"
)

func testConfig(baseURL string) config.AnalysisConfig {
	return config.AnalysisConfig{
		BaseURL:           baseURL,
		RequestTimeout:    time.Second,
		MaxAttempts:       3,
		HealthMaxAttempts: 2,
		HealthDelay:       time.Millisecond,
	}
}

func TestAnalyzeData_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/analyze", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)

		var req Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Data, 1)
		assert.Equal(t, "analysis", req.Data[0].Type)

		_ = json.NewEncoder(w).Encode(Response{
			MarketAnalysis:  &MarketAnalysis{Trends: []string{"cloud adoption rising"}},
			Recommendations: []string{"expand into APAC"},
			ConfidenceScore: 0.87,
		})
	}))
	defer server.Close()

	client := New(testConfig(server.URL))
	resp, err := client.AnalyzeData(context.Background(), &Request{
		Data: []RequestItem{{Type: "analysis", Content: "assess market position"}},
	})

	require.NoError(t, err)
	require.NotNil(t, resp.MarketAnalysis)
	assert.Equal(t, []string{"cloud adoption rising"}, resp.MarketAnalysis.Trends)
	assert.Equal(t, 0.87, resp.ConfidenceScore)
}

func TestAnalyzeData_RetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(Response{ConfidenceScore: 0.5})
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	client := New(cfg)
	client.retryPolicy.InitialDelay = time.Millisecond

	resp, err := client.AnalyzeData(context.Background(), &Request{
		Data: []RequestItem{{Type: "insights"}},
	})

	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, 0.5, resp.ConfidenceScore)
}

func TestAnalyzeData_FallbackOnPersistentFailure(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	client := New(cfg)
	client.retryPolicy.InitialDelay = time.Millisecond

	resp, err := client.AnalyzeData(context.Background(), &Request{
		Data: []RequestItem{{Type: "workflow"}},
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrUnavailable))
	assert.Equal(t, int32(3), calls.Load())

	// Fallback payload is still returned so callers can degrade
	require.NotNil(t, resp)
	assert.Empty(t, resp.Recommendations)
	assert.Zero(t, resp.ConfidenceScore)
}

func TestAnalyzeData_IgnoresUnknownFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"confidence_score": 0.9, "extra_field": {"nested": true}}`))
	}))
	defer server.Close()

	client := New(testConfig(server.URL))
	resp, err := client.AnalyzeData(context.Background(), &Request{
		Data: []RequestItem{{Type: "metrics"}},
	})

	require.NoError(t, err)
	assert.Equal(t, 0.9, resp.ConfidenceScore)
	assert.Nil(t, resp.Risks)
}

func TestWaitReady_HealthyStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/health", r.URL.Path)
		_, _ = w.Write([]byte(`{"status": "healthy"}`))
	}))
	defer server.Close()

	client := New(testConfig(server.URL))
	require.NoError(t, client.WaitReady(context.Background()))
}

func TestWaitReady_ModelsInitializedVariant(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"models_initialized": true, "memory_usage": 0.4}`))
	}))
	defer server.Close()

	client := New(testConfig(server.URL))
	require.NoError(t, client.WaitReady(context.Background()))
}

func TestWaitReady_ExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"status": "starting"}`))
	}))
	defer server.Close()

	client := New(testConfig(server.URL))
	err := client.WaitReady(context.Background())

	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrBackendUnhealthy))
	assert.Equal(t, int32(2), calls.Load())
}
