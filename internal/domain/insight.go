package domain

import (
	"fmt"
	"strings"
	"time"
)

// Field length bounds for insight submissions
const (
	MaxClaimChars         = 500
	MaxReasoningChars     = 2000
	MaxApplicabilityChars = 1000
	MaxLimitationsChars   = 1000
	MaxDomainTags         = 10
	MaxDomainTagChars     = 50
)

// Insight represents a short structured insight contributed by an agent
type Insight struct {
	ID            string
	AuthorID      string
	Claim         string
	Reasoning     string
	Applicability string
	Limitations   string
	Confidence    float64
	DomainTags    []string
	Embedding     []float32
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewInsight creates a new Insight instance
func NewInsight(
	id, authorID string,
	claim, reasoning, applicability, limitations string,
	confidence float64,
	domainTags []string,
	createdAt, updatedAt time.Time,
) *Insight {
	return &Insight{
		ID:            id,
		AuthorID:      authorID,
		Claim:         claim,
		Reasoning:     reasoning,
		Applicability: applicability,
		Limitations:   limitations,
		Confidence:    confidence,
		DomainTags:    NormalizeDomainTags(domainTags),
		CreatedAt:     createdAt,
		UpdatedAt:     updatedAt,
	}
}

// EmbeddingText returns the text the insight's embedding is derived from.
// Limitations are excluded: they encode negative applicability and would
// pollute similarity matching.
func (i *Insight) EmbeddingText() string {
	var parts []string

	if i.Claim != "" {
		parts = append(parts, i.Claim)
	}
	if i.Reasoning != "" {
		parts = append(parts, i.Reasoning)
	}
	if i.Applicability != "" {
		parts = append(parts, i.Applicability)
	}

	return strings.Join(parts, "\n\n")
}

// NormalizeDomainTags lowercases, trims, and deduplicates domain tags,
// preserving first-seen order.
func NormalizeDomainTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		clean := strings.ToLower(strings.TrimSpace(tag))
		if clean == "" {
			continue
		}
		if _, ok := seen[clean]; ok {
			continue
		}
		seen[clean] = struct{}{}
		out = append(out, clean)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// ValidateInsight validates an Insight instance
func ValidateInsight(i *Insight) error {
	if i == nil {
		return NewDomainError(ErrCodeValidation, "insight cannot be nil")
	}

	if i.ID == "" {
		return NewDomainError(ErrCodeValidation, "insight ID is required")
	}

	if i.AuthorID == "" {
		return NewDomainError(ErrCodeValidation, "insight AuthorID is required")
	}

	if strings.TrimSpace(i.Claim) == "" {
		return NewDomainError(ErrCodeValidation, "insight Claim is required")
	}

	if len(i.Claim) > MaxClaimChars {
		return NewDomainError(ErrCodeValidation, fmt.Sprintf("insight Claim exceeds %d characters", MaxClaimChars))
	}

	if len(i.Reasoning) > MaxReasoningChars {
		return NewDomainError(ErrCodeValidation, fmt.Sprintf("insight Reasoning exceeds %d characters", MaxReasoningChars))
	}

	if len(i.Applicability) > MaxApplicabilityChars {
		return NewDomainError(ErrCodeValidation, fmt.Sprintf("insight Applicability exceeds %d characters", MaxApplicabilityChars))
	}

	if len(i.Limitations) > MaxLimitationsChars {
		return NewDomainError(ErrCodeValidation, fmt.Sprintf("insight Limitations exceeds %d characters", MaxLimitationsChars))
	}

	if i.Confidence < 0 || i.Confidence > 1 {
		return ErrInvalidConfidence
	}

	if len(i.DomainTags) > MaxDomainTags {
		return NewDomainError(ErrCodeValidation, fmt.Sprintf("insight has more than %d domain tags", MaxDomainTags))
	}

	for _, tag := range i.DomainTags {
		if len(tag) > MaxDomainTagChars {
			return NewDomainError(ErrCodeValidation, fmt.Sprintf("domain tag %q exceeds %d characters", tag, MaxDomainTagChars))
		}
	}

	return nil
}
