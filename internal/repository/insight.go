package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/veridex-ai/veridex/internal/domain"
	"github.com/veridex-ai/veridex/internal/pagination"
	"github.com/veridex-ai/veridex/internal/service"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

const insightColumns = `id, author_id, claim, reasoning, applicability, limitations, confidence, domain_tags, created_at, updated_at`

// InsightRepository is the insight store: CRUD plus the vector, lexical,
// and similarity lookups the orchestrator and duplicate guard consume.
type InsightRepository struct {
	db dbtx
}

func NewInsightRepository(pool *pgxpool.Pool) *InsightRepository {
	return &InsightRepository{db: pool}
}

func NewInsightRepositoryWithTx(tx pgx.Tx) *InsightRepository {
	return &InsightRepository{db: tx}
}

func (r *InsightRepository) Create(ctx context.Context, i *domain.Insight) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO insights (id, author_id, claim, reasoning, applicability, limitations, confidence, domain_tags, embedding, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		i.ID, i.AuthorID, i.Claim,
		nullableString(i.Reasoning), nullableString(i.Applicability), nullableString(i.Limitations),
		i.Confidence, i.DomainTags, pgvector.NewVector(i.Embedding), i.CreatedAt, i.UpdatedAt,
	)
	return err
}

func (r *InsightRepository) GetByID(ctx context.Context, id string) (*domain.Insight, error) {
	var i domain.Insight
	var reasoning, applicability, limitations *string
	var embedding pgvector.Vector
	err := r.db.QueryRow(ctx,
		`SELECT `+insightColumns+`, embedding FROM insights WHERE id = $1`,
		id,
	).Scan(&i.ID, &i.AuthorID, &i.Claim, &reasoning, &applicability, &limitations,
		&i.Confidence, &i.DomainTags, &i.CreatedAt, &i.UpdatedAt, &embedding)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrInsightNotFound
		}
		return nil, err
	}
	applyNullableFields(&i, reasoning, applicability, limitations)
	i.Embedding = embedding.Slice()
	return &i, nil
}

func (r *InsightRepository) Update(ctx context.Context, i *domain.Insight) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE insights
		 SET claim = $1, reasoning = $2, applicability = $3, limitations = $4,
		     confidence = $5, domain_tags = $6, embedding = $7, updated_at = $8
		 WHERE id = $9`,
		i.Claim, nullableString(i.Reasoning), nullableString(i.Applicability), nullableString(i.Limitations),
		i.Confidence, i.DomainTags, pgvector.NewVector(i.Embedding), i.UpdatedAt, i.ID,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrInsightNotFound
	}
	return nil
}

func (r *InsightRepository) Delete(ctx context.Context, id string) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM insights WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrInsightNotFound
	}
	return nil
}

func (r *InsightRepository) ListByAuthor(ctx context.Context, authorID string) ([]*domain.Insight, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+insightColumns+` FROM insights WHERE author_id = $1 ORDER BY updated_at DESC`,
		authorID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanInsightRows(rows)
}

// VectorSearch returns insights ranked by cosine similarity to the query
// embedding. Similarities are in [0,1]. Domain tags OR-match; a
// non-positive MinConfidence means no floor.
func (r *InsightRepository) VectorSearch(ctx context.Context, embedding []float32, opts service.SearchOptions, limit int) ([]*service.SearchRow, error) {
	query := `SELECT ` + insightColumns + `, 1 - (embedding <=> $1) AS similarity
		 FROM insights`
	args := []any{pgvector.NewVector(embedding)}
	query, args = appendSearchFilters(query, args, opts, false)
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY embedding <=> $1 LIMIT $%d", len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSearchRows(rows)
}

// LexicalSearch returns insights ranked by full-text match. The rank score
// is relative, used only for ordering pre-fusion.
func (r *InsightRepository) LexicalSearch(ctx context.Context, queryText string, opts service.SearchOptions, limit int) ([]*service.SearchRow, error) {
	query := `SELECT ` + insightColumns + `, ts_rank(search_tsv, websearch_to_tsquery('english', $1)) AS rank
		 FROM insights
		 WHERE search_tsv @@ websearch_to_tsquery('english', $1)`
	args := []any{queryText}
	query, args = appendSearchFilters(query, args, opts, true)
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY rank DESC LIMIT $%d", len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSearchRows(rows)
}

// FindSimilar returns stored insights whose embedding has cosine similarity
// at or above the threshold, most similar first.
func (r *InsightRepository) FindSimilar(ctx context.Context, embedding []float32, threshold float64, excludeID string) ([]*service.SimilarInsight, error) {
	query := `SELECT id, 1 - (embedding <=> $1) AS similarity
		 FROM insights
		 WHERE 1 - (embedding <=> $1) >= $2`
	args := []any{pgvector.NewVector(embedding), threshold}
	if excludeID != "" {
		args = append(args, excludeID)
		query += fmt.Sprintf(" AND id <> $%d", len(args))
	}
	query += ` ORDER BY embedding <=> $1`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*service.SimilarInsight
	for rows.Next() {
		var s service.SimilarInsight
		if err := rows.Scan(&s.ID, &s.Similarity); err != nil {
			return nil, err
		}
		results = append(results, &s)
	}
	return results, rows.Err()
}

func (r *InsightRepository) ListWithCursor(ctx context.Context, filter service.InsightListFilter, cursor *pagination.Cursor, limit int) (*service.InsightPageResult, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT ` + insightColumns + ` FROM insights WHERE 1=1`
	var args []any

	if filter.AuthorID != "" {
		args = append(args, filter.AuthorID)
		query += fmt.Sprintf(" AND author_id = $%d", len(args))
	}
	if filter.DomainTag != "" {
		args = append(args, filter.DomainTag)
		query += fmt.Sprintf(" AND $%d = ANY(domain_tags)", len(args))
	}
	if cursor != nil {
		args = append(args, cursor.Timestamp, cursor.LastID)
		query += fmt.Sprintf(" AND (updated_at, id) < ($%d, $%d)", len(args)-1, len(args))
	}

	args = append(args, limit+1)
	query += fmt.Sprintf(" ORDER BY updated_at DESC, id DESC LIMIT $%d", len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items, err := scanInsightRows(rows)
	if err != nil {
		return nil, err
	}

	hasMore := len(items) > limit
	if hasMore {
		items = items[:limit]
	}

	var nextCursor string
	if hasMore && len(items) > 0 {
		last := items[len(items)-1]
		nextCursor = pagination.EncodeCursor(last.ID, last.UpdatedAt)
	}

	return &service.InsightPageResult{
		Items:      items,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

func appendSearchFilters(query string, args []any, opts service.SearchOptions, hasWhere bool) (string, []any) {
	joiner := " WHERE "
	if hasWhere {
		joiner = " AND "
	}
	if len(opts.DomainTags) > 0 {
		args = append(args, opts.DomainTags)
		query += fmt.Sprintf("%sdomain_tags && $%d", joiner, len(args))
		joiner = " AND "
	}
	if opts.MinConfidence > 0 {
		args = append(args, opts.MinConfidence)
		query += fmt.Sprintf("%sconfidence >= $%d", joiner, len(args))
	}
	return query, args
}

func scanInsightRows(rows pgx.Rows) ([]*domain.Insight, error) {
	var results []*domain.Insight
	for rows.Next() {
		var i domain.Insight
		var reasoning, applicability, limitations *string
		if err := rows.Scan(&i.ID, &i.AuthorID, &i.Claim, &reasoning, &applicability, &limitations,
			&i.Confidence, &i.DomainTags, &i.CreatedAt, &i.UpdatedAt); err != nil {
			return nil, err
		}
		applyNullableFields(&i, reasoning, applicability, limitations)
		results = append(results, &i)
	}
	return results, rows.Err()
}

func scanSearchRows(rows pgx.Rows) ([]*service.SearchRow, error) {
	var results []*service.SearchRow
	for rows.Next() {
		var i domain.Insight
		var reasoning, applicability, limitations *string
		var score float64
		if err := rows.Scan(&i.ID, &i.AuthorID, &i.Claim, &reasoning, &applicability, &limitations,
			&i.Confidence, &i.DomainTags, &i.CreatedAt, &i.UpdatedAt, &score); err != nil {
			return nil, err
		}
		applyNullableFields(&i, reasoning, applicability, limitations)
		results = append(results, &service.SearchRow{Insight: &i, Score: score})
	}
	return results, rows.Err()
}

func applyNullableFields(i *domain.Insight, reasoning, applicability, limitations *string) {
	if reasoning != nil {
		i.Reasoning = *reasoning
	}
	if applicability != nil {
		i.Applicability = *applicability
	}
	if limitations != nil {
		i.Limitations = *limitations
	}
}
