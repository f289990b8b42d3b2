package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"cortex/pkg/logger"
)

// Checker probes one dependency.
type Checker interface {
	Health(ctx context.Context) error
}

// CheckerFunc adapts a plain function to Checker.
type CheckerFunc func(ctx context.Context) error

func (f CheckerFunc) Health(ctx context.Context) error { return f(ctx) }

type namedChecker struct {
	name    string
	checker Checker
}

// Handler provides health check endpoints
type Handler struct {
	log         *logger.Logger
	checkers    []namedChecker
	startTime   time.Time
	serviceName string
	version     string
}

// New creates a health check handler with no dependencies registered.
func New(serviceName, version string) *Handler {
	return &Handler{
		log:         logger.Get().With("component", "health"),
		startTime:   time.Now(),
		serviceName: serviceName,
		version:     version,
	}
}

// Register adds a named dependency probe. Probes run in registration order.
func (h *Handler) Register(name string, c Checker) {
	h.checkers = append(h.checkers, namedChecker{name: name, checker: c})
}

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status    string                     `json:"status"` // "healthy", "degraded", "unhealthy"
	Service   string                     `json:"service"`
	Version   string                     `json:"version"`
	Uptime    string                     `json:"uptime"`
	Timestamp string                     `json:"timestamp"`
	Checks    map[string]ComponentHealth `json:"checks"`
}

// ComponentHealth represents health of a single component
type ComponentHealth struct {
	Status       string `json:"status"`
	ResponseTime string `json:"response_time,omitempty"`
	Error        string `json:"error,omitempty"`
}

// HandleLiveness returns 200 OK if service is running
// Used by Kubernetes liveness probe
func (h *Handler) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status": "alive",
	})
}

// HandleReadiness checks if every dependency is reachable.
// Used by Kubernetes readiness probe
func (h *Handler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks, healthy := h.runChecks(ctx)

	status := h.buildStatus(checks)
	statusCode := http.StatusOK
	if healthy < len(checks) {
		status.Status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
		h.log.Warn("Readiness check failed", "checks", checks)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(status)
}

// HandleHealth returns detailed health status. Partial dependency failure is
// reported as degraded but still answers 200.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	checks, healthy := h.runChecks(ctx)

	status := h.buildStatus(checks)
	statusCode := http.StatusOK
	if len(checks) > 0 && healthy == 0 {
		status.Status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	} else if healthy < len(checks) {
		status.Status = "degraded"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(status)
}

func (h *Handler) runChecks(ctx context.Context) (map[string]ComponentHealth, int) {
	checks := make(map[string]ComponentHealth, len(h.checkers))
	healthy := 0
	for _, nc := range h.checkers {
		start := time.Now()
		err := nc.checker.Health(ctx)
		elapsed := time.Since(start)

		if err != nil {
			h.log.Error("Health check failed", "component", nc.name, "error", err, "elapsed", elapsed)
			checks[nc.name] = ComponentHealth{
				Status:       "unhealthy",
				ResponseTime: elapsed.String(),
				Error:        err.Error(),
			}
			continue
		}

		healthy++
		checks[nc.name] = ComponentHealth{
			Status:       "healthy",
			ResponseTime: elapsed.String(),
		}
	}
	return checks, healthy
}

func (h *Handler) buildStatus(checks map[string]ComponentHealth) HealthStatus {
	return HealthStatus{
		Status:    "healthy",
		Service:   h.serviceName,
		Version:   h.version,
		Uptime:    time.Since(h.startTime).String(),
		Timestamp: time.Now().Format(time.RFC3339),
		Checks:    checks,
	}
}
