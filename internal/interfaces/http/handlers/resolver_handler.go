package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/zsx0855/cosco-comprehensive-query/internal/domain/risk"
	"github.com/zsx0855/cosco-comprehensive-query/internal/infrastructure/messaging/kafka"
	"github.com/zsx0855/cosco-comprehensive-query/internal/infrastructure/monitoring/logging"
	"github.com/zsx0855/cosco-comprehensive-query/pkg/errors"
)

// JobEnqueuer hands background jobs to the message queue.
type JobEnqueuer interface {
	EnqueueJob(ctx context.Context, job kafka.Job) error
}

// PartyScreener resolves one party name to a risk outcome.
type PartyScreener interface {
	ScreenParty(ctx context.Context, name string, evaluatedAt time.Time) (risk.Level, []risk.DetailRow, error)
}

// ResolverHandler exposes the bulk entity resolver: run enqueueing and
// ad hoc party lookups.
type ResolverHandler struct {
	enqueuer JobEnqueuer
	screener PartyScreener
	logger   logging.Logger
}

func NewResolverHandler(enqueuer JobEnqueuer, screener PartyScreener, logger logging.Logger) *ResolverHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &ResolverHandler{enqueuer: enqueuer, screener: screener, logger: logger.Named("resolver_handler")}
}

// EnqueueRunResponse acknowledges an accepted resolver run.
type EnqueueRunResponse struct {
	Status     string    `json:"status"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// EnqueueRun queues a full resolver rebuild for the background worker.
// Runs are serialized by a distributed lock on the worker side, so
// enqueueing twice is harmless.
// POST /api/v1/resolver/runs
func (h *ResolverHandler) EnqueueRun(w http.ResponseWriter, r *http.Request) {
	if h.enqueuer == nil {
		writeAppError(w, errors.New(errors.ErrCodeServiceUnavailable, "job queue is not configured"))
		return
	}

	job := kafka.Job{Type: kafka.JobTypeResolve, EnqueuedAt: time.Now().UTC()}
	if err := h.enqueuer.EnqueueJob(r.Context(), job); err != nil {
		h.logger.Error("resolver run enqueue failed", logging.Err(err))
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, EnqueueRunResponse{Status: "accepted", EnqueuedAt: job.EnqueuedAt})
}

// PartyRiskResponse is the outcome of an ad hoc party lookup.
type PartyRiskResponse struct {
	Name        string           `json:"name"`
	Level       risk.Level       `json:"risk_level"`
	Details     []risk.DetailRow `json:"tab,omitempty"`
	EvaluatedAt time.Time        `json:"evaluated_at"`
}

// PartyRisk resolves one party name against the current signal table.
// GET /api/v1/resolver/parties?name=...
func (h *ResolverHandler) PartyRisk(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeAppError(w, errors.Validation("name query parameter is required"))
		return
	}

	evaluatedAt := time.Now().UTC()
	level, details, err := h.screener.ScreenParty(r.Context(), name, evaluatedAt)
	if err != nil {
		h.logger.Warn("party lookup failed",
			logging.String("name", name),
			logging.Err(err),
		)
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PartyRiskResponse{
		Name:        name,
		Level:       level,
		Details:     details,
		EvaluatedAt: evaluatedAt,
	})
}
