package service

import (
	"context"
	"time"

	"github.com/veridex-ai/veridex/internal/domain"
	"github.com/veridex-ai/veridex/internal/telemetry"
)

// ValidationRepositoryInterface defines the repository interface for validations
type ValidationRepositoryInterface interface {
	Upsert(ctx context.Context, v *domain.Validation) error
	Summary(ctx context.Context, insightID string) (domain.ValidationSummary, error)
	ListByInsight(ctx context.Context, insightID string) ([]*domain.Validation, error)
}

// TrustJobRepositoryInterface defines the queue for trust recompute jobs
type TrustJobRepositoryInterface interface {
	Create(ctx context.Context, job *domain.TrustJob) error
}

// ValidationService handles validation signals recorded by agents about
// other agents' insights.
type ValidationService struct {
	insights    TrustInsightRepository
	validations ValidationRepositoryInterface
	trustJobs   TrustJobRepositoryInterface
	uuidGen     UUIDGenerator
}

// NewValidationService creates a new ValidationService instance
func NewValidationService(
	insights TrustInsightRepository,
	validations ValidationRepositoryInterface,
	trustJobs TrustJobRepositoryInterface,
) *ValidationService {
	return NewValidationServiceWithUUIDGen(insights, validations, trustJobs, &DefaultUUIDGenerator{})
}

// NewValidationServiceWithUUIDGen creates a new ValidationService with a
// custom UUID generator (for testing)
func NewValidationServiceWithUUIDGen(
	insights TrustInsightRepository,
	validations ValidationRepositoryInterface,
	trustJobs TrustJobRepositoryInterface,
	uuidGen UUIDGenerator,
) *ValidationService {
	return &ValidationService{
		insights:    insights,
		validations: validations,
		trustJobs:   trustJobs,
		uuidGen:     uuidGen,
	}
}

// ValidateInput represents the input for recording a validation
type ValidateInput struct {
	InsightID string
	AgentID   string
	Signal    domain.ValidationSignal
	Context   string
}

// Validate records an agent's signal about an insight. At most one
// validation per agent per insight: re-validating overwrites the prior
// signal. Self-validation is rejected before any write, leaving no partial
// state. A trust recompute job is enqueued for the insight's author.
func (s *ValidationService) Validate(ctx context.Context, input ValidateInput) (*domain.Validation, error) {
	ctx, span := telemetry.StartSpan(ctx, "ValidationService.Validate", telemetry.SpanAttributes{
		InsightID: input.InsightID,
		AgentID:   input.AgentID,
		Operation: "validate",
	})
	defer span.End()

	now := time.Now().UTC()
	validation := domain.NewValidation(
		s.uuidGen.NewString(),
		input.InsightID,
		input.AgentID,
		input.Signal,
		input.Context,
		now,
	)

	if err := domain.ValidateValidation(validation); err != nil {
		return nil, err
	}

	insight, err := s.insights.GetByID(ctx, input.InsightID)
	if err != nil {
		return nil, err
	}

	if insight.AuthorID == input.AgentID {
		return nil, domain.ErrSelfValidation
	}

	if err := s.validations.Upsert(ctx, validation); err != nil {
		return nil, err
	}

	job := domain.NewTrustJob(s.uuidGen.NewString(), insight.AuthorID, now)
	if err := s.trustJobs.Create(ctx, job); err != nil {
		return nil, err
	}

	return validation, nil
}

// Summary returns the validation summary for an insight. An insight with no
// validations yields the all-zero summary.
func (s *ValidationService) Summary(ctx context.Context, insightID string) (domain.ValidationSummary, error) {
	if _, err := s.insights.GetByID(ctx, insightID); err != nil {
		return domain.ValidationSummary{}, err
	}
	return s.validations.Summary(ctx, insightID)
}

// ListByInsight returns the individual validations recorded for an insight
func (s *ValidationService) ListByInsight(ctx context.Context, insightID string) ([]*domain.Validation, error) {
	if _, err := s.insights.GetByID(ctx, insightID); err != nil {
		return nil, err
	}
	return s.validations.ListByInsight(ctx, insightID)
}
