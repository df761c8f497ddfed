package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Pinger checks reachability of the backing store (Postgres connection for
// the customer variant, Redis for the agreement variant).
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingFunc adapts a plain function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) PingContext(ctx context.Context) error { return f(ctx) }

type sweepStatus interface {
	SweepActive() bool
}

type HealthHandler struct {
	store  Pinger
	sweeps sweepStatus
}

func NewHealthHandler(store Pinger, sweeps sweepStatus) *HealthHandler {
	return &HealthHandler{store: store, sweeps: sweeps}
}

func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"sweep_active": h.sweeps.SweepActive(),
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	storeStatus := "ok"
	httpStatus := http.StatusOK

	if err := h.store.PingContext(r.Context()); err != nil {
		slog.Warn("readiness check failed: store unreachable", "error", err)
		storeStatus = "down"
		httpStatus = http.StatusServiceUnavailable
	}

	overallStatus := "ok"
	if httpStatus != http.StatusOK {
		overallStatus = "down"
	}

	RespondJSON(w, httpStatus, map[string]any{
		"status":       overallStatus,
		"sweep_active": h.sweeps.SweepActive(),
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
		"checks": map[string]string{
			"store": storeStatus,
		},
	})
}
