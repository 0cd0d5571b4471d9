package repository

import (
	"context"

	"github.com/veridex-ai/veridex/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ValidationRepository is the validation aggregate: it owns the
// (insight_id, agent_id) uniqueness and the per-insight signal counts.
type ValidationRepository struct {
	db dbtx
}

func NewValidationRepository(pool *pgxpool.Pool) *ValidationRepository {
	return &ValidationRepository{db: pool}
}

func NewValidationRepositoryWithTx(tx pgx.Tx) *ValidationRepository {
	return &ValidationRepository{db: tx}
}

// Upsert records a validation; re-validating the same insight by the same
// agent overwrites the prior signal rather than appending.
func (r *ValidationRepository) Upsert(ctx context.Context, v *domain.Validation) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO validations (id, insight_id, agent_id, signal, context, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (insight_id, agent_id)
		 DO UPDATE SET signal = EXCLUDED.signal, context = EXCLUDED.context, created_at = EXCLUDED.created_at`,
		v.ID, v.InsightID, v.AgentID, v.Signal, nullableString(v.Context), v.CreatedAt,
	)
	return err
}

// Summary returns the signal counts for one insight. An insight with no
// validations yields the all-zero summary, never an error.
func (r *ValidationRepository) Summary(ctx context.Context, insightID string) (domain.ValidationSummary, error) {
	var s domain.ValidationSummary
	err := r.db.QueryRow(ctx,
		`SELECT
			count(*) FILTER (WHERE signal = $2),
			count(*) FILTER (WHERE signal = $3),
			count(*) FILTER (WHERE signal = $4)
		 FROM validations WHERE insight_id = $1`,
		insightID, domain.SignalConfirmed, domain.SignalContradicted, domain.SignalRefined,
	).Scan(&s.Confirmed, &s.Contradicted, &s.Refined)
	if err != nil {
		return domain.ValidationSummary{}, err
	}
	return s, nil
}

// SummaryByInsightIDs returns signal counts for a batch of insights in one
// query. Insights absent from the result map have no validations.
func (r *ValidationRepository) SummaryByInsightIDs(ctx context.Context, insightIDs []string) (map[string]domain.ValidationSummary, error) {
	summaries := make(map[string]domain.ValidationSummary, len(insightIDs))
	if len(insightIDs) == 0 {
		return summaries, nil
	}

	rows, err := r.db.Query(ctx,
		`SELECT insight_id,
			count(*) FILTER (WHERE signal = $2),
			count(*) FILTER (WHERE signal = $3),
			count(*) FILTER (WHERE signal = $4)
		 FROM validations
		 WHERE insight_id = ANY($1)
		 GROUP BY insight_id`,
		insightIDs, domain.SignalConfirmed, domain.SignalContradicted, domain.SignalRefined,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var s domain.ValidationSummary
		if err := rows.Scan(&id, &s.Confirmed, &s.Contradicted, &s.Refined); err != nil {
			return nil, err
		}
		summaries[id] = s
	}
	return summaries, rows.Err()
}

func (r *ValidationRepository) ListByInsight(ctx context.Context, insightID string) ([]*domain.Validation, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, insight_id, agent_id, signal, context, created_at
		 FROM validations WHERE insight_id = $1 ORDER BY created_at DESC`,
		insightID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var validations []*domain.Validation
	for rows.Next() {
		var v domain.Validation
		var context *string
		if err := rows.Scan(&v.ID, &v.InsightID, &v.AgentID, &v.Signal, &context, &v.CreatedAt); err != nil {
			return nil, err
		}
		if context != nil {
			v.Context = *context
		}
		validations = append(validations, &v)
	}
	return validations, rows.Err()
}
