package jobs

import (
	"context"
	"fmt"
	"log"

	"github.com/veridex-ai/veridex/internal/domain"
)

const (
	// MaxRetries is the maximum number of retries for a failed job
	MaxRetries = 3

	// pendingJobBatchSize bounds how many jobs one poll claims
	pendingJobBatchSize = 50
)

// TrustJobRepository defines the interface for trust job persistence
type TrustJobRepository interface {
	GetPending(ctx context.Context, limit int) ([]*domain.TrustJob, error)
	UpdateStatus(ctx context.Context, jobID string, status domain.TrustJobStatus, errMsg string) error
	IncrementRetries(ctx context.Context, jobID string) error
}

// TrustUpdater defines the interface for recomputing agent trust
type TrustUpdater interface {
	UpdateAgentTrust(ctx context.Context, agentID string) (float64, error)
}

// TrustWorker drains queued trust recompute jobs, keeping agent trust
// snapshots current without recomputing on the search path.
type TrustWorker struct {
	repo  TrustJobRepository
	trust TrustUpdater
}

// NewTrustWorker creates a new TrustWorker instance
func NewTrustWorker(repo TrustJobRepository, trust TrustUpdater) *TrustWorker {
	return &TrustWorker{
		repo:  repo,
		trust: trust,
	}
}

// ProcessJobs implements the JobProcessor interface
func (w *TrustWorker) ProcessJobs(ctx context.Context) error {
	jobs, err := w.repo.GetPending(ctx, pendingJobBatchSize)
	if err != nil {
		return fmt.Errorf("failed to fetch pending jobs: %w", err)
	}

	if len(jobs) == 0 {
		return nil
	}

	log.Printf("Processing %d pending trust jobs", len(jobs))

	for _, job := range jobs {
		if err := w.processJob(ctx, job); err != nil {
			log.Printf("Error processing job %s: %v", job.ID, err)
		}
	}

	return nil
}

func (w *TrustWorker) processJob(ctx context.Context, job *domain.TrustJob) error {
	if err := w.repo.UpdateStatus(ctx, job.ID, domain.TrustJobStatusProcessing, ""); err != nil {
		return err
	}

	score, err := w.trust.UpdateAgentTrust(ctx, job.AgentID)
	if err != nil {
		if job.Retries+1 >= MaxRetries {
			return w.repo.UpdateStatus(ctx, job.ID, domain.TrustJobStatusFailed, err.Error())
		}
		if retryErr := w.repo.IncrementRetries(ctx, job.ID); retryErr != nil {
			return retryErr
		}
		return w.repo.UpdateStatus(ctx, job.ID, domain.TrustJobStatusPending, err.Error())
	}

	log.Printf("Trust recomputed for agent %s: %.3f", job.AgentID, score)
	return w.repo.UpdateStatus(ctx, job.ID, domain.TrustJobStatusCompleted, "")
}
