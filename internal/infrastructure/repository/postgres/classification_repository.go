package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/kirillkom/fedramp-ai-catalog/internal/core/domain"
	"github.com/kirillkom/fedramp-ai-catalog/internal/core/ports"
)

type ClassificationRepository struct {
	db *sql.DB
}

func NewClassificationRepository(db *sql.DB) *ClassificationRepository {
	return &ClassificationRepository{db: db}
}

func (r *ClassificationRepository) ClearClassifications(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM service_classifications`); err != nil {
		return fmt.Errorf("clear classifications: %w", err)
	}
	return nil
}

// BeginSession opens the transaction a classification pass writes through.
// The transaction is detached from ctx cancellation: a cancelled pass still
// gets its final checkpoint.
func (r *ClassificationRepository) BeginSession(ctx context.Context) (ports.ClassificationSession, error) {
	session := &classificationSession{db: r.db, txCtx: context.WithoutCancel(ctx)}
	if err := session.begin(); err != nil {
		return nil, err
	}
	return session, nil
}

func (r *ClassificationRepository) ListClassifications(ctx context.Context, filter domain.ClassificationFilter) ([]domain.ServiceClassification, error) {
	clauses := []string{flagClause(filter.Flag)}
	args := make([]any, 0, 1)
	if provider := strings.TrimSpace(filter.Provider); provider != "" {
		args = append(args, provider)
		clauses = append(clauses, fmt.Sprintf("LOWER(provider_name) = LOWER($%d)", len(args)))
	}

	query := `
SELECT id, product_id, product_name, provider_name, service_name, has_ai, has_genai, has_llm,
	relevant_excerpt, fedramp_status, impact_level, agencies, auth_date, analyzed_at
FROM service_classifications
WHERE ` + strings.Join(clauses, " AND ") + `
ORDER BY provider_name, product_name, service_name`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query classifications: %w", err)
	}
	defer rows.Close()

	out := make([]domain.ServiceClassification, 0)
	for rows.Next() {
		var c domain.ServiceClassification
		if err := rows.Scan(
			&c.ID, &c.EntryID, &c.EntryName, &c.Provider, &c.ServiceName, &c.HasAI, &c.HasGenAI, &c.HasLLM,
			&c.RelevantExcerpt, &c.Status, &c.ImpactLevel, &c.Agencies, &c.AuthDate, &c.AnalyzedAt,
		); err != nil {
			return nil, fmt.Errorf("scan classification: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate classifications: %w", err)
	}
	return out, nil
}

func flagClause(flag domain.AIFlag) string {
	switch flag {
	case domain.FlagAI:
		return "has_ai"
	case domain.FlagGenAI:
		return "has_genai"
	case domain.FlagLLM:
		return "has_llm"
	default:
		return "(has_ai OR has_genai OR has_llm)"
	}
}

func (r *ClassificationRepository) ClassificationStats(ctx context.Context) (domain.ClassificationStats, error) {
	var stats domain.ClassificationStats
	err := r.db.QueryRowContext(ctx, `
SELECT
	COUNT(*),
	COUNT(*) FILTER (WHERE has_ai),
	COUNT(*) FILTER (WHERE has_genai),
	COUNT(*) FILTER (WHERE has_llm),
	COUNT(DISTINCT product_id),
	COUNT(DISTINCT provider_name)
FROM service_classifications
WHERE has_ai OR has_genai OR has_llm
`).Scan(
		&stats.TotalAIServices, &stats.CountAI, &stats.CountGenAI, &stats.CountLLM,
		&stats.ProductsWithAI, &stats.ProvidersWithAI,
	)
	if err != nil {
		return domain.ClassificationStats{}, fmt.Errorf("query classification stats: %w", err)
	}
	return stats, nil
}

func (r *ClassificationRepository) LastAnalysisRun(ctx context.Context, entryID string) (*domain.AnalysisRun, error) {
	var run domain.AnalysisRun
	err := r.db.QueryRowContext(ctx, `
SELECT id, pass_id, product_id, product_name, provider_name, ai_services_found, analyzed_at
FROM analysis_runs
WHERE product_id = $1
ORDER BY analyzed_at DESC, id DESC
LIMIT 1
`, entryID).Scan(
		&run.ID, &run.PassID, &run.EntryID, &run.EntryName, &run.Provider, &run.FindingsCount, &run.AnalyzedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "last analysis run", fmt.Errorf("no run for entry %s", entryID))
		}
		return nil, fmt.Errorf("scan analysis run: %w", err)
	}
	return &run, nil
}

func (r *ClassificationRepository) AnalysisRunStats(ctx context.Context) (domain.AnalysisRunStats, error) {
	var stats domain.AnalysisRunStats
	var lastRun sql.NullTime
	err := r.db.QueryRowContext(ctx, `
SELECT COUNT(DISTINCT product_id), MAX(analyzed_at), COALESCE(SUM(ai_services_found), 0)
FROM analysis_runs
`).Scan(&stats.ProductsAnalyzed, &lastRun, &stats.TotalServicesFound)
	if err != nil {
		return domain.AnalysisRunStats{}, fmt.Errorf("query analysis run stats: %w", err)
	}
	if lastRun.Valid {
		t := lastRun.Time.UTC()
		stats.LastRun = &t
	}
	return stats, nil
}

const entrySavepoint = "classification_entry"

// classificationSession keeps one open transaction. Each entry is written
// under a savepoint; Checkpoint commits and opens the next transaction.
type classificationSession struct {
	db    *sql.DB
	txCtx context.Context
	tx    *sql.Tx
}

func (s *classificationSession) begin() error {
	tx, err := s.db.BeginTx(s.txCtx, nil)
	if err != nil {
		return fmt.Errorf("begin classification tx: %w", err)
	}
	s.tx = tx
	return nil
}

func (s *classificationSession) SaveEntry(ctx context.Context, run domain.AnalysisRun, findings []domain.ServiceClassification) error {
	if s.tx == nil {
		return errors.New("classification session is closed")
	}
	if _, err := s.tx.ExecContext(ctx, "SAVEPOINT "+entrySavepoint); err != nil {
		return fmt.Errorf("open entry savepoint: %w", err)
	}

	if err := s.writeEntry(ctx, run, findings); err != nil {
		// the savepoint rollback runs detached so a cancelled pass cannot
		// leave the transaction in an aborted state
		if _, rbErr := s.tx.ExecContext(s.txCtx, "ROLLBACK TO SAVEPOINT "+entrySavepoint); rbErr != nil {
			return fmt.Errorf("rollback entry %s: %w (write error: %v)", run.EntryID, rbErr, err)
		}
		return domain.WrapError(domain.ErrEntryRejected, "save entry "+run.EntryID, err)
	}

	if _, err := s.tx.ExecContext(ctx, "RELEASE SAVEPOINT "+entrySavepoint); err != nil {
		return fmt.Errorf("release entry savepoint: %w", err)
	}
	return nil
}

func (s *classificationSession) writeEntry(ctx context.Context, run domain.AnalysisRun, findings []domain.ServiceClassification) error {
	_, err := s.tx.ExecContext(ctx, `
INSERT INTO analysis_runs (pass_id, product_id, product_name, provider_name, ai_services_found, analyzed_at)
VALUES ($1,$2,$3,$4,$5,$6)
`, run.PassID, run.EntryID, run.EntryName, run.Provider, run.FindingsCount, run.AnalyzedAt)
	if err != nil {
		return fmt.Errorf("insert analysis run: %w", err)
	}

	for _, f := range findings {
		_, err := s.tx.ExecContext(ctx, `
INSERT INTO service_classifications (
	product_id, product_name, provider_name, service_name, has_ai, has_genai, has_llm,
	relevant_excerpt, fedramp_status, impact_level, agencies, auth_date, analyzed_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
`,
			f.EntryID, f.EntryName, f.Provider, f.ServiceName, f.HasAI, f.HasGenAI, f.HasLLM,
			f.RelevantExcerpt, f.Status, f.ImpactLevel, f.Agencies, f.AuthDate, f.AnalyzedAt,
		)
		if err != nil {
			return fmt.Errorf("insert classification %q: %w", f.ServiceName, err)
		}
	}
	return nil
}

func (s *classificationSession) Checkpoint(ctx context.Context) error {
	if s.tx == nil {
		return errors.New("classification session is closed")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tx := s.tx
	s.tx = nil
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit classification checkpoint: %w", err)
	}
	return s.begin()
}

// Close discards anything written since the last checkpoint.
func (s *classificationSession) Close() error {
	if s.tx == nil {
		return nil
	}
	tx := s.tx
	s.tx = nil
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("rollback classification tx: %w", err)
	}
	return nil
}

var _ ports.ClassificationSession = (*classificationSession)(nil)
