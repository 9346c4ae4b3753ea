package handlers

import (
	"encoding/json"
	"net/http"

	"field-agent/internal/health"
	"field-agent/internal/services"
)

type HealthHandler struct {
	checker  *health.HealthChecker
	fetchers []func() services.FetchStatus
}

func NewHealthHandler(checker *health.HealthChecker, fetchers ...func() services.FetchStatus) *HealthHandler {
	return &HealthHandler{checker: checker, fetchers: fetchers}
}

// BasicHealth - liveness
func (h *HealthHandler) BasicHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// ReadinessHealth - store reachable
func (h *HealthHandler) ReadinessHealth(w http.ResponseWriter, r *http.Request) {
	status := h.checker.CheckBasic(r.Context())

	w.Header().Set("Content-Type", "application/json")
	if status.Status == "unhealthy" {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	json.NewEncoder(w).Encode(status)
}

// DetailedHealth adds the reference list fetcher states
func (h *HealthHandler) DetailedHealth(w http.ResponseWriter, r *http.Request) {
	fetchers := make([]services.FetchStatus, 0, len(h.fetchers))
	for _, status := range h.fetchers {
		fetchers = append(fetchers, status())
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(struct {
		health.HealthStatus
		Fetchers []services.FetchStatus `json:"fetchers"`
	}{h.checker.CheckBasic(r.Context()), fetchers})
}
