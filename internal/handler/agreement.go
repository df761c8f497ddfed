package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/voxic/multi-odl-demo/internal/domain"
	"github.com/voxic/multi-odl-demo/internal/logging"
)

type agreementBuilder interface {
	Build(ctx context.Context, customerID int64) (*domain.AgreementProfile, error)
}

// AgreementHandler is the management surface of the agreement variant. The
// variant has no profile store of its own (output goes to a stream), so
// profile inspection builds on demand.
type AgreementHandler struct {
	agg     aggregator
	builder agreementBuilder
}

func NewAgreementHandler(agg aggregator, builder agreementBuilder) *AgreementHandler {
	return &AgreementHandler{agg: agg, builder: builder}
}

func (h *AgreementHandler) Aggregate(w http.ResponseWriter, r *http.Request) {
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

func (h *AgreementHandler) Stats(w http.ResponseWriter, r *http.Request) {
	RespondSuccess(w, http.StatusOK, map[string]any{
		"builds": h.agg.Stats(),
	})
}

func (h *AgreementHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	customerID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || customerID <= 0 {
		RespondAppError(w, ErrInvalidCustomerID, nil)
		return
	}

	built, err := h.builder.Build(r.Context(), customerID)
	if err != nil {
		logging.FromContext(r.Context()).Warn("on-demand profile build failed",
			"customer_id", customerID, "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, built)
}

func (h *AgreementHandler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /aggregate", h.Aggregate)
	mux.HandleFunc("GET /stats", h.Stats)
	mux.HandleFunc("GET /profile/{id}", h.GetProfile)
}
