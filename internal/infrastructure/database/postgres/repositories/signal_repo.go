package repositories

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/zsx0855/cosco-comprehensive-query/internal/application/resolver"
	"github.com/zsx0855/cosco-comprehensive-query/internal/infrastructure/database/postgres"
	"github.com/zsx0855/cosco-comprehensive-query/internal/infrastructure/monitoring/logging"
	"github.com/zsx0855/cosco-comprehensive-query/pkg/errors"
)

// verdictInsertBatch bounds one multi-row verdict INSERT.
const verdictInsertBatch = 1000

type signalRepo struct {
	conn     *postgres.Connection
	log      logging.Logger
	executor queryExecutor
}

// NewSignalRepo builds the repository backing the bulk resolver: signal row
// reads and verdict writes.
func NewSignalRepo(conn *postgres.Connection, log logging.Logger) *signalRepo {
	return &signalRepo{
		conn:     conn,
		log:      log,
		executor: conn.DB(),
	}
}

const signalRowColumns = `
	entity_id, entity_dt, activestatus, entityname1, entityname4,
	country_nm1, country_nm2, datevalue1, sanctions_nm,
	description2_value_cn, description3_value_cn, start_time, end_time,
	is_san, is_sco, is_ool
`

func (r *signalRepo) FetchSignalRows(ctx context.Context) ([]resolver.SignalRow, error) {
	query := `SELECT ` + signalRowColumns + ` FROM risk_signal_rows`
	rows, err := r.executor.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to query signal rows")
	}
	defer rows.Close()
	return collectSignalRows(rows)
}

func (r *signalRepo) FetchSignalRowsByName(ctx context.Context, name string) ([]resolver.SignalRow, error) {
	query := `SELECT ` + signalRowColumns + `
		FROM risk_signal_rows
		WHERE entityname1 = $1 OR entityname4 = $1`
	rows, err := r.executor.QueryContext(ctx, query, name)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to query signal rows by name")
	}
	defer rows.Close()
	return collectSignalRows(rows)
}

func collectSignalRows(rows *sql.Rows) ([]resolver.SignalRow, error) {
	var out []resolver.SignalRow
	for rows.Next() {
		var (
			row resolver.SignalRow
			ns  [15]sql.NullString
		)
		if err := rows.Scan(
			&row.EntityID, &ns[0], &ns[1], &ns[2], &ns[3],
			&ns[4], &ns[5], &ns[6], &ns[7],
			&ns[8], &ns[9], &ns[10], &ns[11],
			&ns[12], &ns[13], &ns[14],
		); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan signal row")
		}
		row.EntityDate = strOrEmpty(ns[0])
		row.ActiveStatus = strOrEmpty(ns[1])
		row.NameCN = strOrEmpty(ns[2])
		row.NameEN = strOrEmpty(ns[3])
		row.RegisteredCountry = strOrEmpty(ns[4])
		row.DomicileCountry = strOrEmpty(ns[5])
		row.DateValue = strOrEmpty(ns[6])
		row.SanctionsName = strOrEmpty(ns[7])
		row.Description2 = strOrEmpty(ns[8])
		row.Description3 = strOrEmpty(ns[9])
		row.StartTime = strOrEmpty(ns[10])
		row.EndTime = strOrEmpty(ns[11])
		row.SanctionFlag = strOrEmpty(ns[12])
		row.OwnershipFlag = strOrEmpty(ns[13])
		row.OtherListFlag = strOrEmpty(ns[14])
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate signal rows")
	}
	return out, nil
}

// SaveVerdicts replaces the verdict table with the outcome of a bulk run.
// Inserts go out in bounded batches inside one transaction.
func (r *signalRepo) SaveVerdicts(ctx context.Context, verdicts []resolver.EntityVerdict) error {
	tx, err := r.conn.DB().BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to begin verdict transaction")
	}

	if _, err := tx.ExecContext(ctx, `TRUNCATE TABLE sanctions_risk_result`); err != nil {
		tx.Rollback()
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to truncate verdict table")
	}

	for start := 0; start < len(verdicts); start += verdictInsertBatch {
		end := start + verdictInsertBatch
		if end > len(verdicts) {
			end = len(verdicts)
		}
		if err := insertVerdictBatch(ctx, tx, verdicts[start:end]); err != nil {
			tx.Rollback()
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to commit verdicts")
	}

	r.log.Info("verdict table replaced", logging.Int("entities", len(verdicts)))
	return nil
}

func insertVerdictBatch(ctx context.Context, tx *sql.Tx, batch []resolver.EntityVerdict) error {
	const cols = 15
	query := `
		INSERT INTO sanctions_risk_result (
			entity_id, entity_dt, activestatus, entityname1, entityname4,
			country_nm1, country_nm2, datevalue1, sanctions_lev,
			sanctions_list, mid_sanctions_list, no_sanctions_list,
			unknown_risk_list, other_list, markers
		) VALUES `
	args := make([]interface{}, 0, len(batch)*cols)
	for i, v := range batch {
		if i > 0 {
			query += ", "
		}
		query += "(" + placeholders(i*cols+1, cols) + ")"

		high, _ := json.Marshal(v.High)
		medium, _ := json.Marshal(v.Medium)
		none, _ := json.Marshal(v.None)
		unknown, _ := json.Marshal(v.Undetermined)
		parties, _ := json.Marshal(v.AssociatedParties)
		markers, _ := json.Marshal(map[string]string{
			resolver.SignalSanctionsList: v.SanctionMarker,
			resolver.SignalOwnership:     v.OwnershipMarker,
			resolver.SignalOtherList:     v.OtherListMarker,
			resolver.SignalRecentEvent:   v.RecentMarker,
			resolver.SignalCountryMatch:  v.CountryMarker,
		})

		args = append(args,
			v.EntityID, nullStr(v.EntityDate), nullStr(v.ActiveStatus),
			nullStr(v.NameCN), nullStr(v.NameEN),
			nullStr(v.RegisteredCountry), nullStr(v.DomicileCountry),
			nullStr(v.DateValue), v.SanctionsLevel.Label(),
			high, medium, none, unknown, parties, markers,
		)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to insert verdict batch")
	}
	return nil
}
