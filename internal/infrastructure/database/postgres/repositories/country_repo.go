package repositories

import (
	"context"

	"github.com/zsx0855/cosco-comprehensive-query/internal/infrastructure/database/postgres"
	"github.com/zsx0855/cosco-comprehensive-query/internal/infrastructure/monitoring/logging"
	"github.com/zsx0855/cosco-comprehensive-query/pkg/errors"
)

type countryRepo struct {
	conn     *postgres.Connection
	log      logging.Logger
	executor queryExecutor
}

// NewCountryRepo builds the sanctioned-country reference repository. It
// serves both the country-match probes and the bulk resolver.
func NewCountryRepo(conn *postgres.Connection, log logging.Logger) *countryRepo {
	return &countryRepo{
		conn:     conn,
		log:      log,
		executor: conn.DB(),
	}
}

func (r *countryRepo) SanctionedCountries(ctx context.Context) ([]string, error) {
	query := `SELECT countryname FROM country_port ORDER BY countryname`
	rows, err := r.executor.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to query sanctioned countries")
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan sanctioned country")
		}
		out = append(out, name)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate sanctioned countries")
	}
	return out, nil
}
