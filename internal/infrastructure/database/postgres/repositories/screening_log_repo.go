package repositories

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/zsx0855/cosco-comprehensive-query/internal/application/screening"
	"github.com/zsx0855/cosco-comprehensive-query/internal/domain/risk"
	"github.com/zsx0855/cosco-comprehensive-query/internal/infrastructure/database/postgres"
	"github.com/zsx0855/cosco-comprehensive-query/internal/infrastructure/monitoring/logging"
	"github.com/zsx0855/cosco-comprehensive-query/pkg/errors"
)

type screeningLogRepo struct {
	conn     *postgres.Connection
	log      logging.Logger
	executor queryExecutor
}

// NewScreeningLogRepo builds the PostgreSQL screening log repository.
func NewScreeningLogRepo(conn *postgres.Connection, log logging.Logger) screening.LogRepository {
	return &screeningLogRepo{
		conn:     conn,
		log:      log,
		executor: conn.DB(),
	}
}

func (r *screeningLogRepo) Save(ctx context.Context, entry *screening.LogEntry) error {
	outcomesJSON, err := json.Marshal(entry.Outcomes)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode screening outcomes")
	}

	query := `
		INSERT INTO screening_log (
			id, request_id, subject_id, verdict, outcomes, evaluated_at,
			prev_verdict, verdict_changed_at, change_reason
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	var prevVerdict sql.NullString
	if entry.PrevVerdict != nil {
		prevVerdict = nullStr(entry.PrevVerdict.String())
	}
	var changedAt sql.NullTime
	if entry.VerdictChangedAt != nil {
		changedAt = sql.NullTime{Time: *entry.VerdictChangedAt, Valid: true}
	}

	_, err = r.executor.ExecContext(ctx, query,
		entry.ID, entry.RequestID, entry.SubjectID, entry.Verdict.String(),
		outcomesJSON, entry.EvaluatedAt,
		prevVerdict, changedAt, nullStr(entry.ChangeReason),
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to insert screening log entry")
	}
	return nil
}

func (r *screeningLogRepo) LatestVerdict(ctx context.Context, subjectID string) (risk.Level, bool, error) {
	query := `
		SELECT verdict FROM screening_log
		WHERE subject_id = $1
		ORDER BY evaluated_at DESC, id DESC
		LIMIT 1
	`
	var verdict string
	err := r.executor.QueryRowContext(ctx, query, subjectID).Scan(&verdict)
	if err == sql.ErrNoRows {
		return risk.Undetermined, false, nil
	}
	if err != nil {
		return risk.Undetermined, false, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to query latest verdict")
	}
	return risk.ParseLevel(verdict), true, nil
}

func (r *screeningLogRepo) FindByRequestID(ctx context.Context, requestID string) (*screening.LogEntry, error) {
	query := `
		SELECT id, request_id, subject_id, verdict, outcomes, evaluated_at,
		       prev_verdict, verdict_changed_at, change_reason
		FROM screening_log
		WHERE request_id = $1
	`
	row := r.executor.QueryRowContext(ctx, query, requestID)
	entry, err := scanLogEntry(row)
	if err == sql.ErrNoRows {
		return nil, errors.New(errors.ErrCodeScreeningNotFound, "screening record not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to query screening log entry")
	}
	return entry, nil
}

func scanLogEntry(s scanner) (*screening.LogEntry, error) {
	var (
		entry        screening.LogEntry
		verdict      string
		outcomesJSON []byte
		prevVerdict  sql.NullString
		changedAt    sql.NullTime
		changeReason sql.NullString
	)
	err := s.Scan(
		&entry.ID, &entry.RequestID, &entry.SubjectID, &verdict,
		&outcomesJSON, &entry.EvaluatedAt,
		&prevVerdict, &changedAt, &changeReason,
	)
	if err != nil {
		return nil, err
	}

	entry.Verdict = risk.ParseLevel(verdict)
	if len(outcomesJSON) > 0 {
		if err := json.Unmarshal(outcomesJSON, &entry.Outcomes); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode screening outcomes")
		}
	}
	if prevVerdict.Valid {
		level := risk.ParseLevel(prevVerdict.String)
		entry.PrevVerdict = &level
	}
	if changedAt.Valid {
		t := changedAt.Time.UTC()
		entry.VerdictChangedAt = &t
	}
	entry.ChangeReason = strOrEmpty(changeReason)
	entry.EvaluatedAt = entry.EvaluatedAt.UTC()
	return &entry, nil
}
