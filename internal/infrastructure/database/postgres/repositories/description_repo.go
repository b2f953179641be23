package repositories

import (
	"context"

	"github.com/zsx0855/cosco-comprehensive-query/internal/application/resolver"
	"github.com/zsx0855/cosco-comprehensive-query/internal/domain/risk"
	"github.com/zsx0855/cosco-comprehensive-query/internal/infrastructure/database/postgres"
	"github.com/zsx0855/cosco-comprehensive-query/internal/infrastructure/monitoring/logging"
	"github.com/zsx0855/cosco-comprehensive-query/pkg/errors"
)

type descriptionRepo struct {
	conn     *postgres.Connection
	log      logging.Logger
	executor queryExecutor
}

// NewDescriptionRepo builds the risk description lookup repository.
func NewDescriptionRepo(conn *postgres.Connection, log logging.Logger) resolver.DescriptionSource {
	return &descriptionRepo{
		conn:     conn,
		log:      log,
		executor: conn.DB(),
	}
}

// LoadDescriptions reads the full description table into a snapshot keyed by
// (risk type, level).
func (r *descriptionRepo) LoadDescriptions(ctx context.Context) (resolver.DescriptionTable, error) {
	query := `
		SELECT risk_type, risk_desc, risk_level, risk_desc_info, info
		FROM sanctions_des_info
	`
	rows, err := r.executor.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to query sanction descriptions")
	}
	defer rows.Close()

	table := resolver.DescriptionTable{}
	for rows.Next() {
		var riskType, riskDesc, riskLevel, riskDescInfo, info string
		if err := rows.Scan(&riskType, &riskDesc, &riskLevel, &riskDescInfo, &info); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan sanction description")
		}
		table.Put(riskType, risk.ParseLevel(riskLevel), resolver.Description{
			RiskDesc:     riskDesc,
			RiskDescInfo: riskDescInfo,
			Info:         info,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate sanction descriptions")
	}

	r.log.Debug("loaded sanction descriptions", logging.Int("risk_types", len(table)))
	return table, nil
}
