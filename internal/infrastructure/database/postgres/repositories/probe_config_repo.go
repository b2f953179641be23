package repositories

import (
	"context"
	"database/sql"

	"github.com/zsx0855/cosco-comprehensive-query/internal/domain/probe"
	"github.com/zsx0855/cosco-comprehensive-query/internal/infrastructure/database/postgres"
	"github.com/zsx0855/cosco-comprehensive-query/internal/infrastructure/monitoring/logging"
	"github.com/zsx0855/cosco-comprehensive-query/pkg/errors"
)

type probeConfigRepo struct {
	conn     *postgres.Connection
	log      logging.Logger
	executor queryExecutor
}

// NewProbeConfigRepo builds the screening control table repository.
func NewProbeConfigRepo(conn *postgres.Connection, log logging.Logger) *probeConfigRepo {
	return &probeConfigRepo{
		conn:     conn,
		log:      log,
		executor: conn.DB(),
	}
}

const probeConfigColumns = `
	check_item_id, business_module, compliance_check_module,
	compliance_check_type, check_entity_cn, check_entity_en, entity_type,
	risk_desc, risk_type, used_flag, time_flag, time_period,
	area_flag, risk_flag, risk_flag_type
`

// ListEnabled returns every enabled check item, in id order.
func (r *probeConfigRepo) ListEnabled(ctx context.Context) ([]probe.Config, error) {
	query := `SELECT ` + probeConfigColumns + `
		FROM check_item_config
		WHERE used_flag = TRUE
		ORDER BY check_item_id`
	return r.list(ctx, query)
}

// ListAll returns the full control table, in id order.
func (r *probeConfigRepo) ListAll(ctx context.Context) ([]probe.Config, error) {
	query := `SELECT ` + probeConfigColumns + `
		FROM check_item_config
		ORDER BY check_item_id`
	return r.list(ctx, query)
}

func (r *probeConfigRepo) list(ctx context.Context, query string) ([]probe.Config, error) {
	rows, err := r.executor.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to query check item configs")
	}
	defer rows.Close()

	var out []probe.Config
	for rows.Next() {
		cfg, err := scanProbeConfig(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate check item configs")
	}
	return out, nil
}

func scanProbeConfig(s scanner) (probe.Config, error) {
	var (
		cfg        probe.Config
		timePeriod sql.NullInt64
		flagType   sql.NullString
	)
	err := s.Scan(
		&cfg.ID, &cfg.BusinessModule, &cfg.CheckModule,
		&cfg.CheckType, &cfg.EntityNameCN, &cfg.EntityNameEN, &cfg.EntityType,
		&cfg.RiskDesc, &cfg.RiskType, &cfg.Enabled, &cfg.TimeBound, &timePeriod,
		&cfg.AreaBound, &cfg.RiskFlag, &flagType,
	)
	if err != nil {
		return probe.Config{}, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan check item config")
	}
	if timePeriod.Valid {
		cfg.TimePeriodDays = int(timePeriod.Int64)
	}
	cfg.RiskFlagType = strOrEmpty(flagType)
	return cfg, nil
}
