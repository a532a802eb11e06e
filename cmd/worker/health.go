package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/felixgeelhaar/allot/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/allot/pkg/observability"
)

type statsSource interface {
	GetStats() outbox.Stats
}

type healthChecker interface {
	Check(ctx context.Context) observability.OverallHealth
}

// relayStatus is the /healthz body.
type relayStatus struct {
	Status          string            `json:"status"`
	Running         bool              `json:"running"`
	Published       uint64            `json:"published"`
	Failed          uint64            `json:"failed"`
	Dead            uint64            `json:"dead"`
	ByEvent         map[string]uint64 `json:"by_event"`
	LagSeconds      float64           `json:"lag_seconds"`
	LastProcessedAt *time.Time        `json:"last_processed_at,omitempty"`
	LastErrorAt     *time.Time        `json:"last_error_at,omitempty"`
	LastError       string            `json:"last_error,omitempty"`
}

func newHealthRouter(stats statsSource, health healthChecker) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		s := stats.GetStats()
		writeJSON(w, http.StatusOK, relayStatus{
			Status:          "ok",
			Running:         s.IsRunning,
			Published:       s.PublishedCount,
			Failed:          s.FailedCount,
			Dead:            s.DeadCount,
			ByEvent:         s.PublishedByRoutingKey,
			LagSeconds:      s.LagSeconds,
			LastProcessedAt: s.LastProcessedAt,
			LastErrorAt:     s.LastErrorAt,
			LastError:       s.LastError,
		})
	}).Methods(http.MethodGet)

	r.HandleFunc("/readyz", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()
		report := health.Check(ctx)
		status := http.StatusOK
		if report.Status == observability.HealthStatusUnhealthy {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, report)
	}).Methods(http.MethodGet)

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
