package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kirillkom/fedramp-ai-catalog/internal/core/domain"
)

type CatalogRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewCatalogRepository(db *sql.DB) *CatalogRepository {
	return &CatalogRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// UpsertEntries writes entries keyed by external id in one transaction.
// Existing rows keep their created_at.
func (r *CatalogRepository) UpsertEntries(ctx context.Context, entries []domain.CatalogEntry) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin catalog upsert tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := r.now()
	for _, entry := range entries {
		subServices := entry.SubServices
		if subServices == nil {
			subServices = []string{}
		}
		subJSON, err := json.Marshal(subServices)
		if err != nil {
			return 0, fmt.Errorf("marshal sub services for %s: %w", entry.ExternalID, err)
		}

		_, err = tx.ExecContext(ctx, `
INSERT INTO catalog_entries (
	external_id, provider, offering, description, sub_services, status, impact_level, agencies, auth_date, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$10)
ON CONFLICT (external_id) DO UPDATE SET
	provider = EXCLUDED.provider,
	offering = EXCLUDED.offering,
	description = EXCLUDED.description,
	sub_services = EXCLUDED.sub_services,
	status = EXCLUDED.status,
	impact_level = EXCLUDED.impact_level,
	agencies = EXCLUDED.agencies,
	auth_date = EXCLUDED.auth_date,
	updated_at = EXCLUDED.updated_at
`,
			entry.ExternalID, entry.Provider, entry.Offering, entry.Description, subJSON,
			entry.Status, entry.ImpactLevel, entry.Agencies, entry.AuthDate, now,
		)
		if err != nil {
			return 0, fmt.Errorf("upsert catalog entry %s: %w", entry.ExternalID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit catalog upsert tx: %w", err)
	}
	return len(entries), nil
}

func (r *CatalogRepository) ListEntries(ctx context.Context) ([]domain.CatalogEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT external_id, provider, offering, description, sub_services, status, impact_level, agencies, auth_date, created_at, updated_at
FROM catalog_entries
ORDER BY external_id
`)
	if err != nil {
		return nil, fmt.Errorf("query catalog entries: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.CatalogEntry, 0)
	for rows.Next() {
		var entry domain.CatalogEntry
		var subRaw []byte
		if err := rows.Scan(
			&entry.ExternalID, &entry.Provider, &entry.Offering, &entry.Description, &subRaw,
			&entry.Status, &entry.ImpactLevel, &entry.Agencies, &entry.AuthDate, &entry.CreatedAt, &entry.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan catalog entry: %w", err)
		}
		if err := json.Unmarshal(subRaw, &entry.SubServices); err != nil {
			return nil, fmt.Errorf("unmarshal sub services for %s: %w", entry.ExternalID, err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate catalog entries: %w", err)
	}
	return entries, nil
}
