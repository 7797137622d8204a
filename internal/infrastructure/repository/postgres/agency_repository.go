package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/kirillkom/fedramp-ai-catalog/internal/core/domain"
)

type AgencyRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewAgencyRepository(db *sql.DB) *AgencyRepository {
	return &AgencyRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

const agencyColumns = `id, agency_name, agency_category, slug, has_staff_llm, llm_name, has_coding_assistant,
	scope, solution_type, non_public_allowed, other_ai_present, tool_name, tool_purpose, notes, sources, analyzed_at`

// ReplaceAgencies swaps the whole agency table. Matches cascade with the
// deleted rows.
func (r *AgencyRepository) ReplaceAgencies(ctx context.Context, records []domain.AgencyUsageRecord) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin agency replace tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM agency_ai_usage`); err != nil {
		return 0, fmt.Errorf("delete agencies: %w", err)
	}

	now := r.now()
	for _, rec := range records {
		_, err := tx.ExecContext(ctx, `
INSERT INTO agency_ai_usage (
	agency_name, agency_category, slug, has_staff_llm, llm_name, has_coding_assistant,
	scope, solution_type, non_public_allowed, other_ai_present, tool_name, tool_purpose, notes, sources, analyzed_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
`,
			rec.AgencyName, string(rec.Category), rec.Slug, rec.HasStaffLLM, rec.LLMName, rec.HasCodingAssistant,
			rec.Scope, rec.SolutionType, rec.NonPublicAllowed, rec.OtherAIPresent, rec.ToolName, rec.ToolPurpose,
			rec.Notes, rec.Sources, now,
		)
		if err != nil {
			return 0, fmt.Errorf("insert agency %q: %w", rec.AgencyName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit agency replace tx: %w", err)
	}
	return len(records), nil
}

func (r *AgencyRepository) ListAgencies(ctx context.Context, filter domain.AgencyFilter) ([]domain.AgencyUsageRecord, error) {
	clauses := make([]string, 0, 3)
	args := make([]any, 0, 3)
	if filter.Category != "" {
		args = append(args, string(filter.Category))
		clauses = append(clauses, fmt.Sprintf("agency_category = $%d", len(args)))
	}
	if filter.Slug != "" {
		args = append(args, filter.Slug)
		clauses = append(clauses, fmt.Sprintf("slug = $%d", len(args)))
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		args = append(args, "%"+strings.ToLower(q)+"%")
		n := len(args)
		clauses = append(clauses, fmt.Sprintf(
			"(LOWER(agency_name) LIKE $%[1]d OR LOWER(llm_name) LIKE $%[1]d OR LOWER(solution_type) LIKE $%[1]d OR LOWER(tool_name) LIKE $%[1]d OR LOWER(notes) LIKE $%[1]d)",
			n,
		))
	}

	query := `SELECT ` + agencyColumns + ` FROM agency_ai_usage`
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY agency_name, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query agencies: %w", err)
	}
	defer rows.Close()

	out := make([]domain.AgencyUsageRecord, 0)
	for rows.Next() {
		var rec domain.AgencyUsageRecord
		var category string
		if err := rows.Scan(
			&rec.ID, &rec.AgencyName, &category, &rec.Slug, &rec.HasStaffLLM, &rec.LLMName, &rec.HasCodingAssistant,
			&rec.Scope, &rec.SolutionType, &rec.NonPublicAllowed, &rec.OtherAIPresent, &rec.ToolName, &rec.ToolPurpose,
			&rec.Notes, &rec.Sources, &rec.AnalyzedAt,
		); err != nil {
			return nil, fmt.Errorf("scan agency: %w", err)
		}
		rec.Category = domain.AgencyCategory(category)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate agencies: %w", err)
	}
	return out, nil
}

// AgencyStats counts staff LLM records by self-reported posture.
func (r *AgencyRepository) AgencyStats(ctx context.Context) (domain.AgencyStats, error) {
	var stats domain.AgencyStats
	err := r.db.QueryRowContext(ctx, `
SELECT
	COUNT(DISTINCT id),
	COUNT(*) FILTER (WHERE has_staff_llm LIKE '%Yes%'),
	COUNT(*) FILTER (WHERE has_coding_assistant LIKE '%Yes%' OR has_coding_assistant LIKE '%Allowed%'),
	COUNT(*) FILTER (WHERE solution_type LIKE '%Custom%'),
	COUNT(*) FILTER (WHERE solution_type LIKE '%Commercial%' OR solution_type LIKE '%Azure%' OR solution_type LIKE '%AWS%'),
	(SELECT COUNT(*) FROM agency_service_matches),
	(SELECT COUNT(*) FROM agency_service_matches WHERE confidence = 'high')
FROM agency_ai_usage
WHERE agency_category = 'staff_llm'
`).Scan(
		&stats.TotalAgencies, &stats.AgenciesWithLLM, &stats.AgenciesWithCoding,
		&stats.AgenciesCustomSolution, &stats.AgenciesCommercialSolution,
		&stats.TotalMatches, &stats.HighConfidenceMatches,
	)
	if err != nil {
		return domain.AgencyStats{}, fmt.Errorf("query agency stats: %w", err)
	}
	return stats, nil
}
