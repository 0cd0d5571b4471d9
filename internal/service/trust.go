package service

import (
	"context"
	"fmt"

	"github.com/veridex-ai/veridex/internal/domain"
	"github.com/veridex-ai/veridex/internal/telemetry"
)

// Trust coefficients. Intentionally asymmetric: a contradiction costs more
// than a confirmation earns, because false corroboration is more damaging
// than conservative skepticism.
const (
	confirmedBoost      = 0.10
	contradictedPenalty = 0.15
	refinedBoost        = 0.05

	agentTrustStepUp   = 0.02
	agentTrustStepDown = 0.03
)

// InsightTrust is a computed trust score with its breakdown for auditability
type InsightTrust struct {
	Score       float64
	Base        float64
	Boost       float64
	Validations domain.ValidationSummary
}

// TrustInsightRepository defines the insight lookups the trust engine needs
type TrustInsightRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Insight, error)
	ListByAuthor(ctx context.Context, authorID string) ([]*domain.Insight, error)
}

// TrustValidationRepository defines the validation-aggregate lookups the
// trust engine needs. Per-insight lookups are batched by ids.
type TrustValidationRepository interface {
	Summary(ctx context.Context, insightID string) (domain.ValidationSummary, error)
	SummaryByInsightIDs(ctx context.Context, insightIDs []string) (map[string]domain.ValidationSummary, error)
}

// TrustAgentRepository defines the agent lookups and the snapshot write
type TrustAgentRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Agent, error)
	UpdateTrustScore(ctx context.Context, id string, score float64) error
}

// TrustConfig controls trust engine behavior. ExemptAgents is an explicitly
// injected allow-list of agent ids whose persisted snapshot is never
// recomputed.
type TrustConfig struct {
	ExemptAgents []string
}

// TrustService computes bounded reputation scores for insights and agents
// from validation history. Trust is surfaced as metadata alongside search
// results; it does not blend into result ordering.
type TrustService struct {
	insights    TrustInsightRepository
	validations TrustValidationRepository
	agents      TrustAgentRepository
	exempt      map[string]struct{}
}

// NewTrustService creates a new TrustService instance
func NewTrustService(
	insights TrustInsightRepository,
	validations TrustValidationRepository,
	agents TrustAgentRepository,
) *TrustService {
	return NewTrustServiceWithConfig(insights, validations, agents, TrustConfig{})
}

// NewTrustServiceWithConfig creates a new TrustService with explicit configuration
func NewTrustServiceWithConfig(
	insights TrustInsightRepository,
	validations TrustValidationRepository,
	agents TrustAgentRepository,
	cfg TrustConfig,
) *TrustService {
	exempt := make(map[string]struct{}, len(cfg.ExemptAgents))
	for _, id := range cfg.ExemptAgents {
		exempt[id] = struct{}{}
	}
	return &TrustService{
		insights:    insights,
		validations: validations,
		agents:      agents,
		exempt:      exempt,
	}
}

// ComputeInsightTrust computes the trust score for one insight:
// base = authorTrust x confidence, boost from validation counts, clamped to
// [0,1]. The breakdown is returned alongside the score.
func (s *TrustService) ComputeInsightTrust(ctx context.Context, insightID string) (*InsightTrust, error) {
	ctx, span := telemetry.StartSpan(ctx, "TrustService.ComputeInsightTrust", telemetry.SpanAttributes{
		InsightID: insightID,
		Operation: "trust_insight",
	})
	defer span.End()

	insight, err := s.insights.GetByID(ctx, insightID)
	if err != nil {
		return nil, err
	}

	author, err := s.agents.GetByID(ctx, insight.AuthorID)
	if err != nil {
		return nil, err
	}

	summary, err := s.validations.Summary(ctx, insightID)
	if err != nil {
		return nil, fmt.Errorf("failed to load validation summary: %w", err)
	}

	base := author.TrustScore * insight.Confidence
	boost := confirmedBoost*float64(summary.Confirmed) -
		contradictedPenalty*float64(summary.Contradicted) +
		refinedBoost*float64(summary.Refined)

	return &InsightTrust{
		Score:       clamp(base+boost, 0, 1),
		Base:        base,
		Boost:       boost,
		Validations: summary,
	}, nil
}

// ComputeAgentTrust computes an agent's trust score from the validation
// history of every insight it authored: start at 0.5, add 0.02 per insight
// with net positive confirmations, subtract 0.03 per net negative one, then
// clamp to [0.1, 1.0]. Refinements are neutral nuance, not a verdict.
func (s *TrustService) ComputeAgentTrust(ctx context.Context, agentID string) (float64, error) {
	ctx, span := telemetry.StartSpan(ctx, "TrustService.ComputeAgentTrust", telemetry.SpanAttributes{
		AgentID:   agentID,
		Operation: "trust_agent",
	})
	defer span.End()

	if _, err := s.agents.GetByID(ctx, agentID); err != nil {
		return 0, err
	}

	insights, err := s.insights.ListByAuthor(ctx, agentID)
	if err != nil {
		return 0, fmt.Errorf("failed to list insights: %w", err)
	}

	score := domain.TrustScoreInitial
	if len(insights) == 0 {
		return score, nil
	}

	ids := make([]string, 0, len(insights))
	for _, insight := range insights {
		ids = append(ids, insight.ID)
	}

	summaries, err := s.validations.SummaryByInsightIDs(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to load validation summaries: %w", err)
	}

	for _, id := range ids {
		summary := summaries[id]
		net := summary.Confirmed - summary.Contradicted
		switch {
		case net > 0:
			score += agentTrustStepUp
		case net < 0:
			score -= agentTrustStepDown
		}
	}

	return clamp(score, domain.TrustScoreFloor, domain.TrustScoreCeiling), nil
}

// UpdateAgentTrust recomputes an agent's trust score and persists it as the
// new snapshot. Exempt agents keep their current snapshot.
func (s *TrustService) UpdateAgentTrust(ctx context.Context, agentID string) (float64, error) {
	ctx, span := telemetry.StartSpan(ctx, "TrustService.UpdateAgentTrust", telemetry.SpanAttributes{
		AgentID:   agentID,
		Operation: "trust_update",
	})
	defer span.End()

	if _, ok := s.exempt[agentID]; ok {
		agent, err := s.agents.GetByID(ctx, agentID)
		if err != nil {
			return 0, err
		}
		return agent.TrustScore, nil
	}

	score, err := s.ComputeAgentTrust(ctx, agentID)
	if err != nil {
		return 0, err
	}

	if err := s.agents.UpdateTrustScore(ctx, agentID, score); err != nil {
		return 0, fmt.Errorf("failed to persist trust score: %w", err)
	}

	return score, nil
}

func clamp(value, lo, hi float64) float64 {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}
