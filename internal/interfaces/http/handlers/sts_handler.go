package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/zsx0855/cosco-comprehensive-query/internal/application/screening"
	"github.com/zsx0855/cosco-comprehensive-query/internal/infrastructure/monitoring/logging"
)

// STSService is the slice of the STS screening service the handler needs.
type STSService interface {
	Screen(ctx context.Context, req screening.STSRequest) (*screening.STSResult, error)
}

// STSHandler serves STS/bunkering counterparty screenings.
type STSHandler struct {
	service STSService
	logger  logging.Logger
}

func NewSTSHandler(service STSService, logger logging.Logger) *STSHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &STSHandler{service: service, logger: logger.Named("sts_handler")}
}

// Screen runs a multi-role counterparty screening.
// POST /api/v1/sts/screenings
func (h *STSHandler) Screen(w http.ResponseWriter, r *http.Request) {
	var req screening.STSRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, err)
		return
	}
	if req.EvaluatedAt.IsZero() {
		req.EvaluatedAt = time.Now().UTC()
	}

	result, err := h.service.Screen(r.Context(), req)
	if err != nil {
		h.logger.Warn("sts screening failed",
			logging.String("vessel_imo", req.VesselIMO),
			logging.Err(err),
		)
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
