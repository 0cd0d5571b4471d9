package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/veridex-ai/veridex/internal/domain"
	"github.com/veridex-ai/veridex/internal/telemetry"
	"golang.org/x/sync/errgroup"
)

// SearchMode selects the retrieval strategy
type SearchMode string

const (
	SearchModeVector  SearchMode = "vector"
	SearchModeLexical SearchMode = "lexical"
	SearchModeHybrid  SearchMode = "hybrid"
)

const (
	defaultMaxResults = 10
	minMaxResults     = 1
	maxMaxResults     = 20

	// expansionResultsPerLens caps each lens's vector search
	expansionResultsPerLens = 3

	// valueSignalStrongMatch thresholds, advisory only
	strongMatchMinResults = 3
	strongMatchRelevance  = 0.8
	strongMatchTopScore   = 0.9
)

// Trust levels attached to a search response. Advisory framing only:
// result text originates from untrusted third parties.
const (
	TrustLevelValidated  = "validated"
	TrustLevelUnverified = "unverified"
)

// ValueSignalStrongMatch is the coarse advisory quality signal
const ValueSignalStrongMatch = "strong_match"

// SearchOptions carries the filters forwarded to the insight store
type SearchOptions struct {
	DomainTags    []string
	MinConfidence float64
}

// SearchRow is a raw store hit: an insight with the method's ranking score.
// Vector scores are cosine similarities in [0,1]; lexical scores are
// relative ranks used only for ordering pre-fusion.
type SearchRow struct {
	Insight *domain.Insight
	Score   float64
}

// ScoredInsight is an insight joined with its relevance, its expansion lens
// (empty = found by the direct query), and trust metadata.
type ScoredInsight struct {
	Insight     *domain.Insight
	Relevance   float64
	Lens        Lens
	Validations domain.ValidationSummary
	Author      *domain.AgentSummary
}

// SearchInput represents input for the search operation
type SearchInput struct {
	Question      string
	Context       string
	DomainTags    []string
	MinConfidence float64
	MaxResults    int
	Mode          SearchMode
	Expand        bool
}

// ExpansionMeta records which lenses ran and the total row count across all
// method result lists before deduplication.
type ExpansionMeta struct {
	LensesUsed       []Lens
	TotalBeforeDedup int
}

// SearchOutput represents output from the search operation
type SearchOutput struct {
	Results        []*ScoredInsight
	RelatedDomains []string
	TotalMatches   int
	ValueSignal    string
	Expansions     *ExpansionMeta
	TrustLevel     string
}

// SearchRepositoryInterface defines the insight-store operations search needs
type SearchRepositoryInterface interface {
	VectorSearch(ctx context.Context, embedding []float32, opts SearchOptions, limit int) ([]*SearchRow, error)
	LexicalSearch(ctx context.Context, query string, opts SearchOptions, limit int) ([]*SearchRow, error)
}

// SearchValidationRepository defines the validation-aggregate lookups search needs
type SearchValidationRepository interface {
	SummaryByInsightIDs(ctx context.Context, insightIDs []string) (map[string]domain.ValidationSummary, error)
}

// SearchAgentRepository defines the author lookups search needs
type SearchAgentRepository interface {
	GetByIDs(ctx context.Context, ids []string) ([]*domain.Agent, error)
}

// SearchService is the retrieval orchestrator: it builds queries, fans out
// to the embedding client and the insight store, fuses vector/lexical
// rankings, merges lens expansions, and attaches trust metadata. All state
// is request-local; no mutable state is shared across concurrent searches.
type SearchService struct {
	repo        SearchRepositoryInterface
	validations SearchValidationRepository
	agents      SearchAgentRepository
	embedding   EmbeddingClientInterface
}

// NewSearchService creates a new SearchService instance
func NewSearchService(
	repo SearchRepositoryInterface,
	validations SearchValidationRepository,
	agents SearchAgentRepository,
	embedding EmbeddingClientInterface,
) *SearchService {
	return &SearchService{
		repo:        repo,
		validations: validations,
		agents:      agents,
		embedding:   embedding,
	}
}

func normalizeSearchMode(mode SearchMode) SearchMode {
	switch strings.ToLower(strings.TrimSpace(string(mode))) {
	case string(SearchModeLexical):
		return SearchModeLexical
	case string(SearchModeHybrid):
		return SearchModeHybrid
	default:
		return SearchModeVector
	}
}

// clampMaxResults clamps out-of-range limits rather than rejecting them
func clampMaxResults(limit int) int {
	if limit == 0 {
		return defaultMaxResults
	}
	if limit < minMaxResults {
		return minMaxResults
	}
	if limit > maxMaxResults {
		return maxMaxResults
	}
	return limit
}

// Search runs the full retrieval pipeline for one request
func (s *SearchService) Search(ctx context.Context, input SearchInput) (*SearchOutput, error) {
	ctx, span := telemetry.StartSpan(ctx, "SearchService.Search", telemetry.SpanAttributes{
		Operation: "search",
	})
	defer span.End()

	limit := clampMaxResults(input.MaxResults)
	mode := normalizeSearchMode(input.Mode)
	opts := SearchOptions{
		DomainTags:    domain.NormalizeDomainTags(input.DomainTags),
		MinConfidence: input.MinConfidence,
	}

	queryText := composeQueryText(input.Question, input.Context)

	totalBeforeDedup := 0
	var primary []*ScoredInsight

	switch mode {
	case SearchModeLexical:
		rows, err := s.repo.LexicalSearch(ctx, queryText, opts, limit)
		if err != nil {
			return nil, fmt.Errorf("lexical search failed: %w", err)
		}
		totalBeforeDedup += len(rows)
		primary = toScoredInsights(rows, "")

	case SearchModeHybrid:
		embedding, err := s.embedding.GenerateEmbedding(ctx, queryText)
		if err != nil {
			return nil, fmt.Errorf("failed to embed query: %w", err)
		}

		var vectorRows, lexicalRows []*SearchRow
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			vectorRows, err = s.repo.VectorSearch(gctx, embedding, opts, limit)
			return err
		})
		g.Go(func() error {
			var err error
			lexicalRows, err = s.repo.LexicalSearch(gctx, queryText, opts, limit)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, fmt.Errorf("hybrid search failed: %w", err)
		}

		totalBeforeDedup += len(vectorRows) + len(lexicalRows)
		fused := fuseReciprocalRank(vectorRows, lexicalRows)
		if len(fused) > limit {
			fused = fused[:limit]
		}
		primary = toScoredInsights(fused, "")

	default:
		embedding, err := s.embedding.GenerateEmbedding(ctx, queryText)
		if err != nil {
			return nil, fmt.Errorf("failed to embed query: %w", err)
		}
		rows, err := s.repo.VectorSearch(ctx, embedding, opts, limit)
		if err != nil {
			return nil, fmt.Errorf("vector search failed: %w", err)
		}
		totalBeforeDedup += len(rows)
		primary = toScoredInsights(rows, "")
	}

	merged := primary
	var expansions *ExpansionMeta
	if input.Expand {
		expanded, lenses, rowCount, err := s.expandSearch(ctx, input.Question, opts)
		if err != nil {
			return nil, err
		}
		totalBeforeDedup += rowCount
		merged = mergeExpansionResults(primary, expanded)
		expansions = &ExpansionMeta{
			LensesUsed:       lenses,
			TotalBeforeDedup: totalBeforeDedup,
		}
	}

	totalMatches := len(merged)
	if len(merged) > limit {
		merged = merged[:limit]
	}

	if err := s.attachMetadata(ctx, merged); err != nil {
		return nil, err
	}

	return &SearchOutput{
		Results:        merged,
		RelatedDomains: relatedDomains(merged),
		TotalMatches:   totalMatches,
		ValueSignal:    valueSignal(merged),
		Expansions:     expansions,
		TrustLevel:     trustLevel(merged),
	}, nil
}

// expandSearch runs the lens expansion: embeds all 4 phrasings in one batch
// call, then issues the per-lens vector searches concurrently. Any sub-call
// failure fails the whole request; failures are never silently swallowed.
func (s *SearchService) expandSearch(ctx context.Context, question string, opts SearchOptions) ([]*ScoredInsight, []Lens, int, error) {
	lensQueries := ExpandQuery(question)

	texts := make([]string, len(lensQueries))
	lenses := make([]Lens, len(lensQueries))
	for i, lq := range lensQueries {
		texts[i] = lq.Query
		lenses[i] = lq.Lens
	}

	embeddings, err := s.embedding.GenerateEmbeddings(ctx, texts)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("failed to embed expansions: %w", err)
	}
	if len(embeddings) != len(lensQueries) {
		return nil, nil, 0, fmt.Errorf("expected %d expansion embeddings, got %d", len(lensQueries), len(embeddings))
	}

	perLens := make([][]*SearchRow, len(lensQueries))
	g, gctx := errgroup.WithContext(ctx)
	for i := range lensQueries {
		g.Go(func() error {
			rows, err := s.repo.VectorSearch(gctx, embeddings[i], opts, expansionResultsPerLens)
			if err != nil {
				return fmt.Errorf("expansion search (%s) failed: %w", lensQueries[i].Lens, err)
			}
			perLens[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, 0, err
	}

	rowCount := 0
	var expanded []*ScoredInsight
	for i, rows := range perLens {
		rowCount += len(rows)
		expanded = append(expanded, toScoredInsights(rows, lenses[i])...)
	}

	return expanded, lenses, rowCount, nil
}

// attachMetadata joins author summaries and validation summaries onto the
// surviving results. Both lookups are batched: one call each per request.
// An insight with no validations gets the all-zero summary, never an
// omission.
func (s *SearchService) attachMetadata(ctx context.Context, results []*ScoredInsight) error {
	if len(results) == 0 {
		return nil
	}

	insightIDs := make([]string, 0, len(results))
	authorIDSet := make(map[string]struct{})
	var authorIDs []string
	for _, r := range results {
		insightIDs = append(insightIDs, r.Insight.ID)
		if _, ok := authorIDSet[r.Insight.AuthorID]; !ok {
			authorIDSet[r.Insight.AuthorID] = struct{}{}
			authorIDs = append(authorIDs, r.Insight.AuthorID)
		}
	}

	summaries, err := s.validations.SummaryByInsightIDs(ctx, insightIDs)
	if err != nil {
		return fmt.Errorf("failed to load validation summaries: %w", err)
	}

	authors, err := s.agents.GetByIDs(ctx, authorIDs)
	if err != nil {
		return fmt.Errorf("failed to load authors: %w", err)
	}
	authorsByID := make(map[string]*domain.Agent, len(authors))
	for _, a := range authors {
		authorsByID[a.ID] = a
	}

	for _, r := range results {
		r.Validations = summaries[r.Insight.ID]
		if author, ok := authorsByID[r.Insight.AuthorID]; ok {
			summary := author.Summary()
			r.Author = &summary
		}
	}
	return nil
}

func composeQueryText(question, context string) string {
	if context == "" {
		return question
	}
	return question + "\n\n" + context
}

func toScoredInsights(rows []*SearchRow, lens Lens) []*ScoredInsight {
	out := make([]*ScoredInsight, 0, len(rows))
	for _, row := range rows {
		if row == nil || row.Insight == nil {
			continue
		}
		out = append(out, &ScoredInsight{
			Insight:   row.Insight,
			Relevance: row.Score,
			Lens:      lens,
		})
	}
	return out
}

// valueSignal computes the advisory quality signal. It never affects ordering.
func valueSignal(results []*ScoredInsight) string {
	if len(results) == 0 {
		return ""
	}
	high := 0
	for _, r := range results {
		if r.Relevance > strongMatchRelevance {
			high++
		}
	}
	if high >= strongMatchMinResults || results[0].Relevance > strongMatchTopScore {
		return ValueSignalStrongMatch
	}
	return ""
}

func trustLevel(results []*ScoredInsight) string {
	for _, r := range results {
		if r.Validations.Total() > 0 {
			return TrustLevelValidated
		}
	}
	return TrustLevelUnverified
}
