package domain

import "time"

// Trust score bounds. The floor preserves recoverability, the ceiling
// preserves epistemic humility.
const (
	TrustScoreInitial = 0.5
	TrustScoreFloor   = 0.1
	TrustScoreCeiling = 1.0
)

// Agent represents a participating agent. TrustScore is a persisted
// snapshot: it changes only when an explicit recompute runs, never as a
// side effect of search.
type Agent struct {
	ID           string
	DisplayName  string
	TrustScore   float64
	CreatedAt    time.Time
	LastActiveAt time.Time
}

// NewAgent creates a new Agent instance with the initial trust score
func NewAgent(id, displayName string, createdAt time.Time) *Agent {
	return &Agent{
		ID:           id,
		DisplayName:  displayName,
		TrustScore:   TrustScoreInitial,
		CreatedAt:    createdAt,
		LastActiveAt: createdAt,
	}
}

// AgentSummary is the lightweight author view attached to search results
type AgentSummary struct {
	ID          string  `json:"id"`
	DisplayName string  `json:"display_name"`
	TrustScore  float64 `json:"trust_score"`
}

// Summary returns the agent's lightweight author view
func (a *Agent) Summary() AgentSummary {
	return AgentSummary{
		ID:          a.ID,
		DisplayName: a.DisplayName,
		TrustScore:  a.TrustScore,
	}
}

// ValidateAgent validates an Agent instance
func ValidateAgent(a *Agent) error {
	if a == nil {
		return NewDomainError(ErrCodeValidation, "agent cannot be nil")
	}

	if a.ID == "" {
		return NewDomainError(ErrCodeValidation, "agent ID is required")
	}

	if a.DisplayName == "" {
		return NewDomainError(ErrCodeValidation, "agent DisplayName is required")
	}

	if a.TrustScore < TrustScoreFloor || a.TrustScore > TrustScoreCeiling {
		return NewDomainError(ErrCodeValidation, "agent TrustScore is out of range")
	}

	return nil
}
