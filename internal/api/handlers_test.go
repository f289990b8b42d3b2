package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cortex/internal/adapters/analysis"
	"cortex/internal/adapters/config"
	"cortex/internal/agent"
	"cortex/internal/analyzers"
	"cortex/internal/events"
	"cortex/internal/insight"
	"cortex/internal/workflow"
)

type stubBackend struct{}

func (s *stubBackend) AnalyzeData(ctx context.Context, req *analysis.Request) (*analysis.Response, error) {
	return &analysis.Response{
		MarketAnalysis: &analysis.MarketAnalysis{
			Trends:  []string{"cloud spending up"},
			Summary: "stable demand",
		},
		Recommendations: []string{"expand sales team"},
		ConfidenceScore: 0.8,
	}, nil
}

type stubLLM struct {
	response string
}

func (s *stubLLM) Name() string { return "stub" }

func (s *stubLLM) Complete(ctx context.Context, prompt string) (string, error) {
	return s.response, nil
}

func testAgentFactory() *agent.Factory {
	cfg := &config.Config{
		Business: config.BusinessConfig{
			Industry:    "technology",
			CompanySize: "enterprise",
		},
		Memory: config.MemoryConfig{
			MaxTurns:     16,
			MaxInsights:  16,
			MaxDecisions: 16,
		},
	}
	return agent.NewFactory(cfg, &stubBackend{}, nil)
}

func testOrchestrator() *workflow.Orchestrator {
	o := workflow.New(config.WorkflowConfig{
		MaxRetained:   8,
		ActionTimeout: time.Second,
	}, events.NewEmitter())
	workflow.RegisterDefaultHandlers(o, &stubBackend{}, nil)
	return o
}

func newTestHandlers() *Handlers {
	return NewHandlers(
		testAgentFactory(),
		testOrchestrator(),
		nil,
		analyzers.NewSentimentAnalyzer(&stubLLM{response: `{"score": 0.6, "magnitude": 0.8, "emotional_tone": "positive"}`}),
		nil,
	)
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestHandleChat(t *testing.T) {
	h := newTestHandlers()

	rec := postJSON(t, h.HandleChat, "/api/chat", chatRequest{
		SessionID: "s1",
		Message:   "How are our market prospects?",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp chatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "s1", resp.SessionID)
	require.NotNil(t, resp.Result)
	assert.NotEmpty(t, resp.Result.Response)
	assert.NotEmpty(t, resp.Result.Actions)
}

func TestHandleChat_BlankMessage(t *testing.T) {
	h := newTestHandlers()

	rec := postJSON(t, h.HandleChat, "/api/chat", chatRequest{Message: "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleChat_InvalidJSON(t *testing.T) {
	h := newTestHandlers()

	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	h.HandleChat(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleCreateWorkflow(t *testing.T) {
	h := newTestHandlers()

	rec := postJSON(t, h.HandleCreateWorkflow, "/api/workflows", createWorkflowRequest{
		Actions: []insight.Action{
			{ID: "a1", Type: insight.ActionTypeAutomation, Description: "sync inventory"},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var wf workflow.State
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &wf))
	assert.Equal(t, workflow.StatusCompleted, wf.Status)
	assert.Equal(t, float64(100), wf.Progress)
	require.Len(t, wf.Actions, 1)
	assert.Equal(t, workflow.ActionCompleted, wf.Actions[0].Status)
}

func TestHandleCreateWorkflow_EmptyActions(t *testing.T) {
	h := newTestHandlers()

	rec := postJSON(t, h.HandleCreateWorkflow, "/api/workflows", createWorkflowRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleGetWorkflow(t *testing.T) {
	h := newTestHandlers()

	created := postJSON(t, h.HandleCreateWorkflow, "/api/workflows", createWorkflowRequest{
		Actions: []insight.Action{
			{ID: "a1", Type: insight.ActionTypeAutomation, Description: "sync inventory"},
		},
	})
	require.Equal(t, http.StatusCreated, created.Code)

	var wf workflow.State
	require.NoError(t, json.Unmarshal(created.Body.Bytes(), &wf))

	req := httptest.NewRequest(http.MethodGet, "/api/workflows/"+wf.ID, nil)
	req.SetPathValue("id", wf.ID)
	rec := httptest.NewRecorder()
	h.HandleGetWorkflow(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var got workflow.State
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, wf.ID, got.ID)
}

func TestHandleGetWorkflow_NotFound(t *testing.T) {
	h := newTestHandlers()

	req := httptest.NewRequest(http.MethodGet, "/api/workflows/missing", nil)
	req.SetPathValue("id", "missing")
	rec := httptest.NewRecorder()
	h.HandleGetWorkflow(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleListWorkflows(t *testing.T) {
	h := newTestHandlers()

	for i := 0; i < 2; i++ {
		rec := postJSON(t, h.HandleCreateWorkflow, "/api/workflows", createWorkflowRequest{
			Actions: []insight.Action{
				{ID: "a1", Type: insight.ActionTypeAutomation, Description: "sync inventory"},
			},
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/workflows", nil)
	rec := httptest.NewRecorder()
	h.HandleListWorkflows(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Workflows []workflow.State `json:"workflows"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Workflows, 2)
}

func TestHandleSentimentAnalysis(t *testing.T) {
	h := newTestHandlers()

	rec := postJSON(t, h.HandleSentimentAnalysis, "/api/analysis/sentiment", sentimentRequest{
		Text: "Customers love the new release.",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var result analyzers.SentimentResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.InDelta(t, 0.6, result.Score, 1e-9)
	assert.Equal(t, "positive", result.EmotionalTone)
}

func TestHandleSentimentAnalysis_BlankText(t *testing.T) {
	h := newTestHandlers()

	rec := postJSON(t, h.HandleSentimentAnalysis, "/api/analysis/sentiment", sentimentRequest{Text: " "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleRiskAnalysis_NotConfigured(t *testing.T) {
	h := newTestHandlers()

	rec := postJSON(t, h.HandleRiskAnalysis, "/api/analysis/risks", riskRequest{Analysis: "expansion plan"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandleMarketPulse_NotConfigured(t *testing.T) {
	h := newTestHandlers()

	req := httptest.NewRequest(http.MethodGet, "/api/analysis/market", nil)
	rec := httptest.NewRecorder()
	h.HandleMarketPulse(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
