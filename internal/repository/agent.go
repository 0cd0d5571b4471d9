package repository

import (
	"context"
	"errors"
	"time"

	"github.com/veridex-ai/veridex/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AgentRepository struct {
	db dbtx
}

func NewAgentRepository(pool *pgxpool.Pool) *AgentRepository {
	return &AgentRepository{db: pool}
}

func NewAgentRepositoryWithTx(tx pgx.Tx) *AgentRepository {
	return &AgentRepository{db: tx}
}

func (r *AgentRepository) Create(ctx context.Context, a *domain.Agent) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO agents (id, display_name, trust_score, created_at, last_active_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		a.ID, a.DisplayName, a.TrustScore, a.CreatedAt, a.LastActiveAt,
	)
	return err
}

func (r *AgentRepository) GetByID(ctx context.Context, id string) (*domain.Agent, error) {
	var a domain.Agent
	err := r.db.QueryRow(ctx,
		`SELECT id, display_name, trust_score, created_at, last_active_at
		 FROM agents WHERE id = $1`,
		id,
	).Scan(&a.ID, &a.DisplayName, &a.TrustScore, &a.CreatedAt, &a.LastActiveAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAgentNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *AgentRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.Agent, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.db.Query(ctx,
		`SELECT id, display_name, trust_score, created_at, last_active_at
		 FROM agents WHERE id = ANY($1)`,
		ids,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAgentRows(rows)
}

func (r *AgentRepository) List(ctx context.Context) ([]*domain.Agent, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, display_name, trust_score, created_at, last_active_at
		 FROM agents ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAgentRows(rows)
}

func (r *AgentRepository) UpdateTrustScore(ctx context.Context, id string, score float64) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE agents SET trust_score = $1 WHERE id = $2`,
		score, id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrAgentNotFound
	}
	return nil
}

func (r *AgentRepository) UpdateLastActive(ctx context.Context, id string, at time.Time) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE agents SET last_active_at = $1 WHERE id = $2`,
		at, id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrAgentNotFound
	}
	return nil
}

func scanAgentRows(rows pgx.Rows) ([]*domain.Agent, error) {
	var agents []*domain.Agent
	for rows.Next() {
		var a domain.Agent
		if err := rows.Scan(&a.ID, &a.DisplayName, &a.TrustScore, &a.CreatedAt, &a.LastActiveAt); err != nil {
			return nil, err
		}
		agents = append(agents, &a)
	}
	return agents, rows.Err()
}
