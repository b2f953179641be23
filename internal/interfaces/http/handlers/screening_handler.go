package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zsx0855/cosco-comprehensive-query/internal/application/screening"
	"github.com/zsx0855/cosco-comprehensive-query/internal/infrastructure/monitoring/logging"
	"github.com/zsx0855/cosco-comprehensive-query/pkg/errors"
)

// ScreeningService is the slice of the screening application service the
// handler needs.
type ScreeningService interface {
	Screen(ctx context.Context, req screening.Request) (*screening.Result, error)
	Lookup(ctx context.Context, requestID string) (*screening.LogEntry, error)
}

// ScreeningHandler serves single-subject screening runs and lookups.
type ScreeningHandler struct {
	service ScreeningService
	logger  logging.Logger
}

func NewScreeningHandler(service ScreeningService, logger logging.Logger) *ScreeningHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &ScreeningHandler{service: service, logger: logger.Named("screening_handler")}
}

// Screen runs a screening synchronously and returns the full result.
// POST /api/v1/screenings
func (h *ScreeningHandler) Screen(w http.ResponseWriter, r *http.Request) {
	var req screening.Request
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, err)
		return
	}
	if req.EvaluatedAt.IsZero() {
		req.EvaluatedAt = time.Now().UTC()
	}

	result, err := h.service.Screen(r.Context(), req)
	if err != nil {
		h.logger.Warn("screening failed",
			logging.String("subject_id", req.SubjectID),
			logging.Err(err),
		)
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Lookup returns a persisted screening run by request id.
// GET /api/v1/screenings/{requestID}
func (h *ScreeningHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "requestID")

	entry, err := h.service.Lookup(r.Context(), requestID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	if entry == nil {
		writeAppError(w, errors.NotFound("screening "+requestID+" not found"))
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
