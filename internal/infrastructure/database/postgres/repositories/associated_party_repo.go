package repositories

import (
	"context"
	"database/sql"
	"sort"

	"github.com/zsx0855/cosco-comprehensive-query/internal/application/resolver"
	"github.com/zsx0855/cosco-comprehensive-query/internal/infrastructure/database/postgres"
	"github.com/zsx0855/cosco-comprehensive-query/internal/infrastructure/monitoring/logging"
	"github.com/zsx0855/cosco-comprehensive-query/pkg/errors"
)

// partyLookupBatch bounds the id list of one relationship query.
const partyLookupBatch = 1000

type associatedPartyRepo struct {
	conn     *postgres.Connection
	log      logging.Logger
	executor queryExecutor
}

// NewAssociatedPartyRepo builds the relationship side-table repository.
func NewAssociatedPartyRepo(conn *postgres.Connection, log logging.Logger) resolver.PartySource {
	return &associatedPartyRepo{
		conn:     conn,
		log:      log,
		executor: conn.DB(),
	}
}

func (r *associatedPartyRepo) FetchAssociatedParties(ctx context.Context, entityIDs []string) (map[string][]resolver.AssociatedParty, error) {
	unique := map[string]struct{}{}
	for _, id := range entityIDs {
		if id != "" {
			unique[id] = struct{}{}
		}
	}
	ids := make([]string, 0, len(unique))
	for id := range unique {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := map[string][]resolver.AssociatedParty{}
	for start := 0; start < len(ids); start += partyLookupBatch {
		end := start + partyLookupBatch
		if end > len(ids) {
			end = len(ids)
		}
		if err := r.fetchBatch(ctx, ids[start:end], out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *associatedPartyRepo) fetchBatch(ctx context.Context, ids []string, out map[string][]resolver.AssociatedParty) error {
	query := `
		SELECT entity_id, party_id, party_name, party_level, source_type, relation
		FROM associated_party
		WHERE entity_id IN (` + placeholders(1, len(ids)) + `)
		  AND party_id IS NOT NULL
		ORDER BY entity_id, party_id
	`
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := r.executor.QueryContext(ctx, query, args...)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to query associated parties")
	}
	defer rows.Close()

	for rows.Next() {
		var entityID string
		var p resolver.AssociatedParty
		var name, level, sourceType, relation sql.NullString
		if err := rows.Scan(&entityID, &p.PartyID, &name, &level, &sourceType, &relation); err != nil {
			return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan associated party")
		}
		p.PartyName = strOrEmpty(name)
		p.PartyLevel = strOrEmpty(level)
		p.SourceType = strOrEmpty(sourceType)
		p.Relation = strOrEmpty(relation)
		out[entityID] = append(out[entityID], p)
	}
	if err := rows.Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate associated parties")
	}
	return nil
}
