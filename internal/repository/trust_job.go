package repository

import (
	"context"
	"errors"
	"time"

	"github.com/veridex-ai/veridex/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrTrustJobNotFound = errors.New("trust job not found")

type TrustJobRepository struct {
	db dbtx
}

func NewTrustJobRepository(pool *pgxpool.Pool) *TrustJobRepository {
	return &TrustJobRepository{db: pool}
}

func NewTrustJobRepositoryWithTx(tx pgx.Tx) *TrustJobRepository {
	return &TrustJobRepository{db: tx}
}

func (r *TrustJobRepository) Create(ctx context.Context, job *domain.TrustJob) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO trust_jobs (id, agent_id, status, retries, error, created_at, processed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		job.ID, job.AgentID, job.Status, job.Retries, job.Error, job.CreatedAt, job.ProcessedAt,
	)
	return err
}

func (r *TrustJobRepository) GetPending(ctx context.Context, limit int) ([]*domain.TrustJob, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, agent_id, status, retries, error, created_at, processed_at
		 FROM trust_jobs
		 WHERE status = $1
		 ORDER BY created_at ASC
		 LIMIT $2`,
		domain.TrustJobStatusPending, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*domain.TrustJob
	for rows.Next() {
		var job domain.TrustJob
		var errMsg pgtype.Text
		if err := rows.Scan(&job.ID, &job.AgentID, &job.Status, &job.Retries, &errMsg, &job.CreatedAt, &job.ProcessedAt); err != nil {
			return nil, err
		}
		if errMsg.Valid {
			job.Error = errMsg.String
		}
		jobs = append(jobs, &job)
	}
	return jobs, rows.Err()
}

func (r *TrustJobRepository) UpdateStatus(ctx context.Context, jobID string, status domain.TrustJobStatus, errMsg string) error {
	now := time.Now().UTC()
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE trust_jobs SET status = $1, error = $2, processed_at = $3 WHERE id = $4`,
		status, errMsg, now, jobID,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrTrustJobNotFound
	}
	return nil
}

func (r *TrustJobRepository) IncrementRetries(ctx context.Context, jobID string) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE trust_jobs SET retries = retries + 1 WHERE id = $1`,
		jobID,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrTrustJobNotFound
	}
	return nil
}
