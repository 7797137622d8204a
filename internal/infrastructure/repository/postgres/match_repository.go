package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/kirillkom/fedramp-ai-catalog/internal/core/domain"
)

type MatchRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewMatchRepository(db *sql.DB) *MatchRepository {
	return &MatchRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// ReplaceMatches regenerates the match table in one transaction.
func (r *MatchRepository) ReplaceMatches(ctx context.Context, matches []domain.AgencyServiceMatch) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin match replace tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM agency_service_matches`); err != nil {
		return fmt.Errorf("delete matches: %w", err)
	}

	now := r.now()
	for _, m := range matches {
		_, err := tx.ExecContext(ctx, `
INSERT INTO agency_service_matches (agency_id, product_id, provider_name, product_name, confidence, match_reason, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
`, m.AgencyID, m.EntryID, m.Provider, m.EntryName, string(m.Confidence), m.Reason, now)
		if err != nil {
			return fmt.Errorf("insert match %d/%s: %w", m.AgencyID, m.EntryID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit match replace tx: %w", err)
	}
	return nil
}

// ListMatches orders high before medium before low, then by provider.
func (r *MatchRepository) ListMatches(ctx context.Context, filter domain.MatchFilter) ([]domain.AgencyServiceMatch, error) {
	clauses := make([]string, 0, 2)
	args := make([]any, 0, 2)
	if filter.AgencyID != 0 {
		args = append(args, filter.AgencyID)
		clauses = append(clauses, fmt.Sprintf("agency_id = $%d", len(args)))
	}
	if filter.Confidence != "" {
		args = append(args, string(filter.Confidence))
		clauses = append(clauses, fmt.Sprintf("confidence = $%d", len(args)))
	}

	query := `
SELECT id, agency_id, product_id, provider_name, product_name, confidence, match_reason, created_at
FROM agency_service_matches`
	if len(clauses) > 0 {
		query += `
WHERE ` + strings.Join(clauses, " AND ")
	}
	query += `
ORDER BY
	CASE confidence WHEN 'high' THEN 1 WHEN 'medium' THEN 2 WHEN 'low' THEN 3 END,
	provider_name, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query matches: %w", err)
	}
	defer rows.Close()

	out := make([]domain.AgencyServiceMatch, 0)
	for rows.Next() {
		var m domain.AgencyServiceMatch
		var confidence string
		if err := rows.Scan(&m.ID, &m.AgencyID, &m.EntryID, &m.Provider, &m.EntryName, &confidence, &m.Reason, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		m.Confidence = domain.Confidence(confidence)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate matches: %w", err)
	}
	return out, nil
}
