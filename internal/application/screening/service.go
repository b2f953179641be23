package screening

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/zsx0855/cosco-comprehensive-query/internal/domain/risk"
	"github.com/zsx0855/cosco-comprehensive-query/internal/infrastructure/monitoring/logging"
	"github.com/zsx0855/cosco-comprehensive-query/pkg/errors"
)

// LogEntry is one persisted screening run, including verdict change tracking
// against the subject's previously stored verdict.
type LogEntry struct {
	ID               string         `json:"id"`
	RequestID        string         `json:"request_id"`
	SubjectID        string         `json:"subject_id"`
	Verdict          risk.Level     `json:"verdict"`
	Outcomes         []CheckOutcome `json:"outcomes"`
	EvaluatedAt      time.Time      `json:"evaluated_at"`
	PrevVerdict      *risk.Level    `json:"prev_verdict,omitempty"`
	VerdictChangedAt *time.Time     `json:"verdict_changed_at,omitempty"`
	ChangeReason     string         `json:"change_reason,omitempty"`
}

// LogRepository persists screening runs.
type LogRepository interface {
	Save(ctx context.Context, entry *LogEntry) error
	LatestVerdict(ctx context.Context, subjectID string) (risk.Level, bool, error)
	FindByRequestID(ctx context.Context, requestID string) (*LogEntry, error)
}

// CompletedEvent is published after every persisted screening run.
type CompletedEvent struct {
	RequestID   string     `json:"request_id"`
	SubjectID   string     `json:"subject_id"`
	Verdict     risk.Level `json:"verdict"`
	Changed     bool       `json:"verdict_changed"`
	EvaluatedAt time.Time  `json:"evaluated_at"`
}

// EventPublisher emits screening lifecycle events.
type EventPublisher interface {
	PublishScreeningCompleted(ctx context.Context, ev CompletedEvent) error
}

// Service runs screenings and persists their outcomes.
type Service struct {
	orchestrator *Orchestrator
	repo         LogRepository
	publisher    EventPublisher
	logger       logging.Logger
}

// NewService wires the screening service. repo is required; publisher may be
// nil when event emission is disabled.
func NewService(orchestrator *Orchestrator, repo LogRepository, publisher EventPublisher, logger logging.Logger) *Service {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Service{
		orchestrator: orchestrator,
		repo:         repo,
		publisher:    publisher,
		logger:       logger.Named("screening"),
	}
}

// Screen executes the request, records the outcome with verdict change
// tracking, and publishes the completion event.
func (s *Service) Screen(ctx context.Context, req Request) (*Result, error) {
	if req.RequestID == "" {
		req.RequestID = uuid.New().String()
	}

	result, err := s.orchestrator.Execute(ctx, req)
	if err != nil {
		return nil, err
	}

	entry := &LogEntry{
		ID:          uuid.New().String(),
		RequestID:   result.RequestID,
		SubjectID:   result.SubjectID,
		Verdict:     result.Verdict,
		Outcomes:    result.Outcomes,
		EvaluatedAt: result.EvaluatedAt,
	}

	changed := false
	prev, found, err := s.repo.LatestVerdict(ctx, result.SubjectID)
	if err != nil {
		s.logger.Warn("previous verdict lookup failed",
			logging.String("subject_id", result.SubjectID),
			logging.Err(err),
		)
	} else if found && prev != result.Verdict {
		changed = true
		changedAt := result.EvaluatedAt
		entry.PrevVerdict = &prev
		entry.VerdictChangedAt = &changedAt
		entry.ChangeReason = "screening verdict moved from " + prev.String() + " to " + result.Verdict.String()
	}

	if err := s.repo.Save(ctx, entry); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "save screening log")
	}

	if s.publisher != nil {
		ev := CompletedEvent{
			RequestID:   result.RequestID,
			SubjectID:   result.SubjectID,
			Verdict:     result.Verdict,
			Changed:     changed,
			EvaluatedAt: result.EvaluatedAt,
		}
		if err := s.publisher.PublishScreeningCompleted(ctx, ev); err != nil {
			// Event delivery is best effort; the persisted log is the record
			// of truth.
			s.logger.Warn("screening event publish failed",
				logging.String("request_id", result.RequestID),
				logging.Err(err),
			)
		}
	}

	return result, nil
}

// Lookup returns a persisted screening run by its request id.
func (s *Service) Lookup(ctx context.Context, requestID string) (*LogEntry, error) {
	if requestID == "" {
		return nil, errors.Validation("request_id is required")
	}
	return s.repo.FindByRequestID(ctx, requestID)
}
