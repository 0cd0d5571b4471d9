package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/veridex-ai/veridex/internal/domain"
	"github.com/veridex-ai/veridex/internal/pagination"
)

// MockInsightRepository is a mock implementation of InsightRepositoryInterface
// and the trust engine's insight lookups.
type MockInsightRepository struct {
	mock.Mock
}

func (m *MockInsightRepository) Create(ctx context.Context, i *domain.Insight) error {
	args := m.Called(ctx, i)
	return args.Error(0)
}

func (m *MockInsightRepository) GetByID(ctx context.Context, id string) (*domain.Insight, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Insight), args.Error(1)
}

func (m *MockInsightRepository) Update(ctx context.Context, i *domain.Insight) error {
	args := m.Called(ctx, i)
	return args.Error(0)
}

func (m *MockInsightRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockInsightRepository) FindSimilar(ctx context.Context, embedding []float32, threshold float64, excludeID string) ([]*SimilarInsight, error) {
	args := m.Called(ctx, embedding, threshold, excludeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*SimilarInsight), args.Error(1)
}

func (m *MockInsightRepository) ListWithCursor(ctx context.Context, filter InsightListFilter, cursor *pagination.Cursor, limit int) (*InsightPageResult, error) {
	args := m.Called(ctx, filter, cursor, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*InsightPageResult), args.Error(1)
}

func (m *MockInsightRepository) ListByAuthor(ctx context.Context, authorID string) ([]*domain.Insight, error) {
	args := m.Called(ctx, authorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Insight), args.Error(1)
}

// MockSearchRepository is a mock implementation of SearchRepositoryInterface
type MockSearchRepository struct {
	mock.Mock
}

func (m *MockSearchRepository) VectorSearch(ctx context.Context, embedding []float32, opts SearchOptions, limit int) ([]*SearchRow, error) {
	args := m.Called(ctx, embedding, opts, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*SearchRow), args.Error(1)
}

func (m *MockSearchRepository) LexicalSearch(ctx context.Context, query string, opts SearchOptions, limit int) ([]*SearchRow, error) {
	args := m.Called(ctx, query, opts, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*SearchRow), args.Error(1)
}

// MockValidationRepository is a mock implementation of the validation
// repository interfaces.
type MockValidationRepository struct {
	mock.Mock
}

func (m *MockValidationRepository) Upsert(ctx context.Context, v *domain.Validation) error {
	args := m.Called(ctx, v)
	return args.Error(0)
}

func (m *MockValidationRepository) Summary(ctx context.Context, insightID string) (domain.ValidationSummary, error) {
	args := m.Called(ctx, insightID)
	return args.Get(0).(domain.ValidationSummary), args.Error(1)
}

func (m *MockValidationRepository) SummaryByInsightIDs(ctx context.Context, insightIDs []string) (map[string]domain.ValidationSummary, error) {
	args := m.Called(ctx, insightIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.ValidationSummary), args.Error(1)
}

func (m *MockValidationRepository) ListByInsight(ctx context.Context, insightID string) ([]*domain.Validation, error) {
	args := m.Called(ctx, insightID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Validation), args.Error(1)
}

// MockAgentRepository is a mock implementation of AgentRepositoryInterface
// plus the trust snapshot write.
type MockAgentRepository struct {
	mock.Mock
}

func (m *MockAgentRepository) Create(ctx context.Context, a *domain.Agent) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockAgentRepository) GetByID(ctx context.Context, id string) (*domain.Agent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Agent), args.Error(1)
}

func (m *MockAgentRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.Agent, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Agent), args.Error(1)
}

func (m *MockAgentRepository) List(ctx context.Context) ([]*domain.Agent, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Agent), args.Error(1)
}

func (m *MockAgentRepository) UpdateLastActive(ctx context.Context, id string, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockAgentRepository) UpdateTrustScore(ctx context.Context, id string, score float64) error {
	args := m.Called(ctx, id, score)
	return args.Error(0)
}

// MockTrustJobRepository is a mock implementation of TrustJobRepositoryInterface
type MockTrustJobRepository struct {
	mock.Mock
}

func (m *MockTrustJobRepository) Create(ctx context.Context, job *domain.TrustJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

// MockEmbeddingClient is a mock implementation of EmbeddingClientInterface
type MockEmbeddingClient struct {
	mock.Mock
}

func (m *MockEmbeddingClient) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

func (m *MockEmbeddingClient) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	args := m.Called(ctx, texts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]float32), args.Error(1)
}

// fixedUUIDGenerator returns a configured sequence of ids
type fixedUUIDGenerator struct {
	ids  []string
	next int
}

func (g *fixedUUIDGenerator) NewString() string {
	if g.next >= len(g.ids) {
		return "uuid-overflow"
	}
	id := g.ids[g.next]
	g.next++
	return id
}
