package service

import (
	"context"
	"time"

	"github.com/veridex-ai/veridex/internal/domain"
	"github.com/veridex-ai/veridex/internal/pagination"
	"github.com/veridex-ai/veridex/internal/telemetry"
	"github.com/google/uuid"
)

// DuplicateSimilarityThreshold is the cosine similarity above which a new
// insight is treated as a clone of an existing one and rejected.
// Near-duplicates add no retrieval value and fragment validation signal
// across clones, weakening the trust engine's inputs.
const DuplicateSimilarityThreshold = 0.95

// EmbeddingClientInterface defines the embedding gateway operations
type EmbeddingClientInterface interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
	GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}

// SimilarInsight is a findSimilar hit: an insight ID with its similarity
type SimilarInsight struct {
	ID         string
	Similarity float64
}

// InsightRepositoryInterface defines the repository interface for insight persistence
type InsightRepositoryInterface interface {
	Create(ctx context.Context, i *domain.Insight) error
	GetByID(ctx context.Context, id string) (*domain.Insight, error)
	Update(ctx context.Context, i *domain.Insight) error
	Delete(ctx context.Context, id string) error
	FindSimilar(ctx context.Context, embedding []float32, threshold float64, excludeID string) ([]*SimilarInsight, error)
	ListWithCursor(ctx context.Context, filter InsightListFilter, cursor *pagination.Cursor, limit int) (*InsightPageResult, error)
}

// InsightAgentRepository defines the agent lookups insight writes need
type InsightAgentRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Agent, error)
}

// InsightListFilter filters insight listings
type InsightListFilter struct {
	AuthorID  string
	DomainTag string
}

type InsightPageResult struct {
	Items      []*domain.Insight
	NextCursor string
	HasMore    bool
}

// UUIDGenerator defines interface for UUID generation (for testing)
type UUIDGenerator interface {
	NewString() string
}

// DefaultUUIDGenerator is the default UUID generator using google/uuid
type DefaultUUIDGenerator struct{}

// NewString generates a new UUID string
func (g *DefaultUUIDGenerator) NewString() string {
	return uuid.NewString()
}

// InsightService handles business logic for insight submissions, including
// the duplicate guard that rejects near-identical contributions.
type InsightService struct {
	repo      InsightRepositoryInterface
	agents    InsightAgentRepository
	embedding EmbeddingClientInterface
	uuidGen   UUIDGenerator
}

// NewInsightService creates a new InsightService instance
func NewInsightService(
	repo InsightRepositoryInterface,
	agents InsightAgentRepository,
	embedding EmbeddingClientInterface,
) *InsightService {
	return &InsightService{
		repo:      repo,
		agents:    agents,
		embedding: embedding,
		uuidGen:   &DefaultUUIDGenerator{},
	}
}

// NewInsightServiceWithUUIDGen creates a new InsightService with a custom
// UUID generator (for testing)
func NewInsightServiceWithUUIDGen(
	repo InsightRepositoryInterface,
	agents InsightAgentRepository,
	embedding EmbeddingClientInterface,
	uuidGen UUIDGenerator,
) *InsightService {
	return &InsightService{
		repo:      repo,
		agents:    agents,
		embedding: embedding,
		uuidGen:   uuidGen,
	}
}

// CreateInsightInput represents the input for creating an insight
type CreateInsightInput struct {
	AuthorID      string
	Claim         string
	Reasoning     string
	Applicability string
	Limitations   string
	Confidence    float64
	DomainTags    []string
}

// UpdateInsightInput represents the input for updating an insight. Nil
// pointer fields are left unchanged.
type UpdateInsightInput struct {
	InsightID     string
	AgentID       string
	Claim         *string
	Reasoning     *string
	Applicability *string
	Limitations   *string
	Confidence    *float64
	DomainTags    []string
}

// ListInsightsInput represents input for listing insights
type ListInsightsInput struct {
	AuthorID  string
	DomainTag string
	Cursor    string
	Limit     int
}

// Create creates a new insight. The embedding is computed synchronously
// because the duplicate guard needs it before the row exists; any stored
// insight with cosine similarity at or above the threshold rejects the
// write with a conflict naming the colliding insight.
func (s *InsightService) Create(ctx context.Context, input CreateInsightInput) (*domain.Insight, error) {
	ctx, span := telemetry.StartSpan(ctx, "InsightService.Create", telemetry.SpanAttributes{
		AgentID:   input.AuthorID,
		Operation: "create",
	})
	defer span.End()

	if _, err := s.agents.GetByID(ctx, input.AuthorID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	insight := domain.NewInsight(
		s.uuidGen.NewString(),
		input.AuthorID,
		input.Claim,
		input.Reasoning,
		input.Applicability,
		input.Limitations,
		input.Confidence,
		input.DomainTags,
		now, now,
	)

	if err := domain.ValidateInsight(insight); err != nil {
		return nil, err
	}

	embedding, err := s.embedding.GenerateEmbedding(ctx, insight.EmbeddingText())
	if err != nil {
		return nil, err
	}
	insight.Embedding = embedding

	if err := s.guardDuplicates(ctx, embedding, ""); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, insight); err != nil {
		return nil, err
	}

	return insight, nil
}

// Update applies an author-only update. The embedding is recomputed, and
// the duplicate guard re-run, only when claim, reasoning, or applicability
// changes; limitations and confidence edits never touch the embedding.
func (s *InsightService) Update(ctx context.Context, input UpdateInsightInput) (*domain.Insight, error) {
	ctx, span := telemetry.StartSpan(ctx, "InsightService.Update", telemetry.SpanAttributes{
		InsightID: input.InsightID,
		AgentID:   input.AgentID,
		Operation: "update",
	})
	defer span.End()

	insight, err := s.repo.GetByID(ctx, input.InsightID)
	if err != nil {
		return nil, err
	}

	if insight.AuthorID != input.AgentID {
		return nil, domain.ErrInsightNotOwned
	}

	embeddingAffected := false
	if input.Claim != nil && *input.Claim != insight.Claim {
		insight.Claim = *input.Claim
		embeddingAffected = true
	}
	if input.Reasoning != nil && *input.Reasoning != insight.Reasoning {
		insight.Reasoning = *input.Reasoning
		embeddingAffected = true
	}
	if input.Applicability != nil && *input.Applicability != insight.Applicability {
		insight.Applicability = *input.Applicability
		embeddingAffected = true
	}
	if input.Limitations != nil {
		insight.Limitations = *input.Limitations
	}
	if input.Confidence != nil {
		insight.Confidence = *input.Confidence
	}
	if input.DomainTags != nil {
		insight.DomainTags = domain.NormalizeDomainTags(input.DomainTags)
	}

	if err := domain.ValidateInsight(insight); err != nil {
		return nil, err
	}

	if embeddingAffected {
		embedding, err := s.embedding.GenerateEmbedding(ctx, insight.EmbeddingText())
		if err != nil {
			return nil, err
		}
		insight.Embedding = embedding

		if err := s.guardDuplicates(ctx, embedding, insight.ID); err != nil {
			return nil, err
		}
	}

	insight.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, insight); err != nil {
		return nil, err
	}

	return insight, nil
}

// Delete removes an insight. Only the author may delete it.
func (s *InsightService) Delete(ctx context.Context, insightID, agentID string) error {
	ctx, span := telemetry.StartSpan(ctx, "InsightService.Delete", telemetry.SpanAttributes{
		InsightID: insightID,
		AgentID:   agentID,
		Operation: "delete",
	})
	defer span.End()

	insight, err := s.repo.GetByID(ctx, insightID)
	if err != nil {
		return err
	}

	if insight.AuthorID != agentID {
		return domain.ErrInsightNotOwned
	}

	return s.repo.Delete(ctx, insightID)
}

// GetByID retrieves an insight by ID
func (s *InsightService) GetByID(ctx context.Context, id string) (*domain.Insight, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns a page of insights with keyset pagination
func (s *InsightService) List(ctx context.Context, input ListInsightsInput) (*InsightPageResult, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}

	var cursor *pagination.Cursor
	if input.Cursor != "" {
		decoded, err := pagination.DecodeCursor(input.Cursor)
		if err != nil {
			return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid cursor", err)
		}
		cursor = decoded
	}

	filter := InsightListFilter{
		AuthorID:  input.AuthorID,
		DomainTag: input.DomainTag,
	}
	return s.repo.ListWithCursor(ctx, filter, cursor, limit)
}

// guardDuplicates checks the candidate embedding against stored insights.
// The check-then-insert is not transactional: two concurrent near-identical
// submissions can both be admitted, an accepted gap for a low-write-volume
// workload.
func (s *InsightService) guardDuplicates(ctx context.Context, embedding []float32, excludeID string) error {
	similar, err := s.repo.FindSimilar(ctx, embedding, DuplicateSimilarityThreshold, excludeID)
	if err != nil {
		return err
	}
	if len(similar) > 0 {
		return domain.NewDuplicateError(similar[0].ID, similar[0].Similarity)
	}
	return nil
}
