package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/voxic/multi-odl-demo/internal/logging"
	"github.com/voxic/multi-odl-demo/internal/profile"
)

type aggregator interface {
	Enqueue(customerID int64) bool
	StartSweep(ctx context.Context) bool
	Stats() profile.Stats
}

type profileStore interface {
	Get(ctx context.Context, customerID int64) (json.RawMessage, error)
	Count(ctx context.Context) (int64, error)
}

type customerCounter interface {
	CountCustomers(ctx context.Context) (int64, error)
}

// ProfileHandler is the management surface of the account/transaction
// variant: manual triggers, stored-profile inspection, and diagnostics.
type ProfileHandler struct {
	agg       aggregator
	profiles  profileStore
	customers customerCounter
}

func NewProfileHandler(agg aggregator, profiles profileStore, customers customerCounter) *ProfileHandler {
	return &ProfileHandler{agg: agg, profiles: profiles, customers: customers}
}

type aggregateRequest struct {
	CustomerID int64 `json:"customer_id"`
}

// Aggregate triggers a targeted rebuild when a customer id is given, or a
// full sweep otherwise. The response is a best-effort acknowledgment; builds
// complete asynchronously and failures surface in logs and /stats.
func (h *ProfileHandler) Aggregate(w http.ResponseWriter, r *http.Request) {
	var req aggregateRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			RespondAppError(w, ErrInvalidRequest, nil)
			return
		}
	}

	if req.CustomerID < 0 {
		RespondAppError(w, ErrInvalidCustomerID, nil)
		return
	}

	if req.CustomerID > 0 {
		queued := h.agg.Enqueue(req.CustomerID)
		RespondSuccess(w, http.StatusAccepted, map[string]any{
			"customer_id": req.CustomerID,
			"queued":      queued,
		})
		return
	}

	started := h.agg.StartSweep(context.WithoutCancel(r.Context()))
	RespondSuccess(w, http.StatusAccepted, map[string]any{
		"sweep_started": started,
	})
}

func (h *ProfileHandler) Stats(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	known, err := h.customers.CountCustomers(r.Context())
	if err != nil {
		log.Error("failed to count customers", "error", err)
		RespondAppError(w, ErrInternalError, nil)
		return
	}
	written, err := h.profiles.Count(r.Context())
	if err != nil {
		log.Error("failed to count profiles", "error", err)
		RespondAppError(w, ErrInternalError, nil)
		return
	}

	RespondSuccess(w, http.StatusOK, map[string]any{
		"known_customers":  known,
		"written_profiles": written,
		"builds":           h.agg.Stats(),
	})
}

func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	customerID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || customerID <= 0 {
		RespondAppError(w, ErrInvalidCustomerID, nil)
		return
	}

	stored, err := h.profiles.Get(r.Context(), customerID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, stored)
}

// Routes registers the management endpoints on mux.
func (h *ProfileHandler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /aggregate", h.Aggregate)
	mux.HandleFunc("GET /stats", h.Stats)
	mux.HandleFunc("GET /customers/{id}", h.GetProfile)
}
