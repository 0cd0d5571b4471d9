package domain

import (
	"fmt"
	"time"
)

// ValidationSignal represents the verdict an agent records about an insight
type ValidationSignal string

const (
	SignalConfirmed    ValidationSignal = "confirmed"
	SignalContradicted ValidationSignal = "contradicted"
	SignalRefined      ValidationSignal = "refined"
)

// MaxValidationContextChars bounds the optional validation context
const MaxValidationContextChars = 500

// Validation records one agent's signal about another agent's insight.
// The (InsightID, AgentID) pair is unique; re-validating overwrites.
type Validation struct {
	ID        string
	InsightID string
	AgentID   string
	Signal    ValidationSignal
	Context   string
	CreatedAt time.Time
}

// ValidationSummary aggregates validation signals for one insight.
// The zero value is the valid summary for an unvalidated insight.
type ValidationSummary struct {
	Confirmed    int `json:"confirmed"`
	Contradicted int `json:"contradicted"`
	Refined      int `json:"refined"`
}

// Total returns the total number of recorded validations
func (s ValidationSummary) Total() int {
	return s.Confirmed + s.Contradicted + s.Refined
}

// NewValidation creates a new Validation instance
func NewValidation(id, insightID, agentID string, signal ValidationSignal, context string, createdAt time.Time) *Validation {
	return &Validation{
		ID:        id,
		InsightID: insightID,
		AgentID:   agentID,
		Signal:    signal,
		Context:   context,
		CreatedAt: createdAt,
	}
}

// ValidateValidation validates a Validation instance
func ValidateValidation(v *Validation) error {
	if v == nil {
		return NewDomainError(ErrCodeValidation, "validation cannot be nil")
	}

	if v.ID == "" {
		return NewDomainError(ErrCodeValidation, "validation ID is required")
	}

	if v.InsightID == "" {
		return NewDomainError(ErrCodeValidation, "validation InsightID is required")
	}

	if v.AgentID == "" {
		return NewDomainError(ErrCodeValidation, "validation AgentID is required")
	}

	if !isValidValidationSignal(v.Signal) {
		return ErrInvalidValidationSignal
	}

	if len(v.Context) > MaxValidationContextChars {
		return NewDomainError(ErrCodeValidation, fmt.Sprintf("validation Context exceeds %d characters", MaxValidationContextChars))
	}

	return nil
}

// isValidValidationSignal checks if a ValidationSignal is valid
func isValidValidationSignal(s ValidationSignal) bool {
	switch s {
	case SignalConfirmed, SignalContradicted, SignalRefined:
		return true
	}
	return false
}
