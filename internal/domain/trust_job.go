package domain

import (
	"fmt"
	"time"
)

// TrustJobStatus represents the status of a trust recompute job
type TrustJobStatus string

const (
	TrustJobStatusPending    TrustJobStatus = "pending"
	TrustJobStatusProcessing TrustJobStatus = "processing"
	TrustJobStatusCompleted  TrustJobStatus = "completed"
	TrustJobStatusFailed     TrustJobStatus = "failed"
)

// TrustJob represents a queued trust-score recompute for an agent.
// Validation writes enqueue one so the author's snapshot catches up
// without making recomputation a search side effect.
type TrustJob struct {
	ID          string
	AgentID     string
	Status      TrustJobStatus
	Retries     int32
	Error       string
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// NewTrustJob creates a new pending TrustJob instance
func NewTrustJob(id, agentID string, createdAt time.Time) *TrustJob {
	return &TrustJob{
		ID:        id,
		AgentID:   agentID,
		Status:    TrustJobStatusPending,
		CreatedAt: createdAt,
	}
}

// ValidateTrustJob validates a TrustJob instance
func ValidateTrustJob(j *TrustJob) error {
	if j == nil {
		return fmt.Errorf("trust job cannot be nil")
	}

	if j.ID == "" {
		return fmt.Errorf("trust job ID is required")
	}

	if j.AgentID == "" {
		return fmt.Errorf("trust job AgentID is required")
	}

	if !isValidTrustJobStatus(j.Status) {
		return fmt.Errorf("trust job Status is invalid: %s", j.Status)
	}

	if j.Retries < 0 {
		return fmt.Errorf("trust job Retries cannot be negative")
	}

	return nil
}

// isValidTrustJobStatus checks if a TrustJobStatus is valid
func isValidTrustJobStatus(s TrustJobStatus) bool {
	switch s {
	case TrustJobStatusPending, TrustJobStatusProcessing,
		TrustJobStatusCompleted, TrustJobStatusFailed:
		return true
	}
	return false
}
