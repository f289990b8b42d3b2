package api

import (
	"encoding/json"
	"net/http"

	"cortex/internal/agent"
	"cortex/internal/analyzers"
	"cortex/internal/insight"
	"cortex/internal/workflow"
	"cortex/pkg/errors"
	"cortex/pkg/logger"
)

// Handlers holds the REST surface over the agent, orchestrator and analyzers.
// Any collaborator may be nil; its endpoints then answer 503.
type Handlers struct {
	agents       *agent.Factory
	orchestrator *workflow.Orchestrator
	risk         *analyzers.RiskAnalyzer
	sentiment    *analyzers.SentimentAnalyzer
	market       *analyzers.MarketPulseAnalyzer
	log          *logger.Logger
}

// NewHandlers wires the REST handlers.
func NewHandlers(
	agents *agent.Factory,
	orchestrator *workflow.Orchestrator,
	risk *analyzers.RiskAnalyzer,
	sentiment *analyzers.SentimentAnalyzer,
	market *analyzers.MarketPulseAnalyzer,
) *Handlers {
	return &Handlers{
		agents:       agents,
		orchestrator: orchestrator,
		risk:         risk,
		sentiment:    sentiment,
		market:       market,
		log:          logger.Get().With("component", "api"),
	}
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type chatResponse struct {
	SessionID string        `json:"session_id"`
	Result    *agent.Result `json:"result"`
}

// HandleChat runs one agent turn for the session.
func (h *Handlers) HandleChat(w http.ResponseWriter, r *http.Request) {
	if h.agents == nil {
		writeError(w, http.StatusServiceUnavailable, "agent is not configured")
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.SessionID == "" {
		req.SessionID = "default"
	}

	a := h.agents.ForSession(req.SessionID)
	result, err := a.AnalyzeInput(r.Context(), req.Message)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{SessionID: req.SessionID, Result: result})
}

type createWorkflowRequest struct {
	Actions []insight.Action `json:"actions"`
}

// HandleCreateWorkflow converts agent-level actions and executes them as a
// workflow. The response carries the terminal workflow state even when
// execution failed.
func (h *Handlers) HandleCreateWorkflow(w http.ResponseWriter, r *http.Request) {
	if h.orchestrator == nil {
		writeError(w, http.StatusServiceUnavailable, "orchestrator is not configured")
		return
	}

	var req createWorkflowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.Actions) == 0 {
		writeError(w, http.StatusBadRequest, "actions must not be empty")
		return
	}

	wf, err := h.orchestrator.CreateWorkflow(r.Context(), workflow.FromAgentActions(req.Actions))
	if err != nil {
		// The workflow state itself records the failure; surface both.
		h.log.Warn("Workflow execution failed", "workflow_id", wf.ID, "error", err)
	}
	writeJSON(w, http.StatusCreated, wf)
}

// HandleGetWorkflow returns one workflow by id.
func (h *Handlers) HandleGetWorkflow(w http.ResponseWriter, r *http.Request) {
	if h.orchestrator == nil {
		writeError(w, http.StatusServiceUnavailable, "orchestrator is not configured")
		return
	}

	wf, err := h.orchestrator.Get(r.PathValue("id"))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wf)
}

// HandleListWorkflows returns all retained workflows in creation order.
func (h *Handlers) HandleListWorkflows(w http.ResponseWriter, r *http.Request) {
	if h.orchestrator == nil {
		writeError(w, http.StatusServiceUnavailable, "orchestrator is not configured")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"workflows": h.orchestrator.List(),
	})
}

type riskRequest struct {
	Analysis       string                 `json:"analysis"`
	Context        map[string]interface{} `json:"context,omitempty"`
	HistoricalData []string               `json:"historical_data,omitempty"`
}

// HandleRiskAnalysis runs the risk analyzer over the supplied analysis text.
func (h *Handlers) HandleRiskAnalysis(w http.ResponseWriter, r *http.Request) {
	if h.risk == nil {
		writeError(w, http.StatusServiceUnavailable, "risk analyzer is not configured")
		return
	}

	var req riskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	assessment, err := h.risk.AnalyzeRisks(r.Context(), analyzers.RiskContext{
		Analysis:       req.Analysis,
		Context:        req.Context,
		HistoricalData: req.HistoricalData,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, assessment)
}

type sentimentRequest struct {
	Text string `json:"text"`
}

// HandleSentimentAnalysis scores the supplied text.
func (h *Handlers) HandleSentimentAnalysis(w http.ResponseWriter, r *http.Request) {
	if h.sentiment == nil {
		writeError(w, http.StatusServiceUnavailable, "sentiment analyzer is not configured")
		return
	}

	var req sentimentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := h.sentiment.AnalyzeSentiment(r.Context(), req.Text)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// HandleMarketPulse returns the current market insight across all sections.
func (h *Handlers) HandleMarketPulse(w http.ResponseWriter, r *http.Request) {
	if h.market == nil {
		writeError(w, http.StatusServiceUnavailable, "market analyzer is not configured")
		return
	}

	pulse, err := h.market.CurrentPulse(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pulse)
}

// writeDomainError maps domain errors to HTTP statuses without leaking
// internals in the 5xx message.
func (h *Handlers) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errors.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, errors.ErrWorkflowNotFound), errors.Is(err, errors.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, errors.ErrUnavailable), errors.Is(err, errors.ErrBackendUnhealthy):
		h.log.Error("Upstream dependency unavailable", "error", err)
		writeError(w, http.StatusBadGateway, "upstream dependency unavailable")
	case errors.Is(err, errors.ErrNoDataSource), errors.Is(err, errors.ErrConfiguration):
		h.log.Error("Configuration error", "error", err)
		writeError(w, http.StatusServiceUnavailable, "service not configured for this operation")
	default:
		h.log.Error("Request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
