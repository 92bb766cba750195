package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloo-solutions/docindex/internal/service"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

const defaultProbeLimit = 20

// SearchRepository runs cosine-distance probes over chunk and title vectors.
// Every probe only sees published, non-deleted documents of one organization.
type SearchRepository struct {
	pool *pgxpool.Pool
}

func NewSearchRepository(pool *pgxpool.Pool) *SearchRepository {
	return &SearchRepository{pool: pool}
}

func (r *SearchRepository) SearchChunks(ctx context.Context, q service.VectorQuery) ([]service.ChunkMatch, error) {
	query, args := probeQuery(`
		SELECT c.id, c.document_id, d.title, d.updated_at, c.chunk_index, c.content,
		       COALESCE(c.heading, ''), COALESCE(c.heading_level, 0), COALESCE(c.header_breadcrumb, ''),
		       c.embedding <=> $1 AS distance
		FROM document_chunks c
		JOIN documents d ON d.id = c.document_id
		WHERE d.org_id = $2
		  AND d.published = TRUE
		  AND d.deleted_at IS NULL
		  AND c.embedding <=> $1 < $3`, "c.document_id", q)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []service.ChunkMatch
	for rows.Next() {
		var m service.ChunkMatch
		if err := rows.Scan(&m.ChunkID, &m.DocumentID, &m.DocumentTitle, &m.DocumentUpdatedAt, &m.ChunkIndex, &m.Content,
			&m.Heading, &m.HeadingLevel, &m.Breadcrumb, &m.Distance); err != nil {
			return nil, err
		}
		m.Similarity = 1 - m.Distance
		results = append(results, m)
	}
	return results, rows.Err()
}

func (r *SearchRepository) SearchTitles(ctx context.Context, q service.VectorQuery) ([]service.DocumentMatch, error) {
	query, args := probeQuery(`
		SELECT d.id, d.title, d.updated_at, t.embedding <=> $1 AS distance
		FROM document_title_embeddings t
		JOIN documents d ON d.id = t.document_id
		WHERE d.org_id = $2
		  AND d.published = TRUE
		  AND d.deleted_at IS NULL
		  AND t.embedding <=> $1 < $3`, "d.id", q)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []service.DocumentMatch
	for rows.Next() {
		var m service.DocumentMatch
		if err := rows.Scan(&m.DocumentID, &m.Title, &m.UpdatedAt, &m.Distance); err != nil {
			return nil, err
		}
		m.Similarity = 1 - m.Distance
		results = append(results, m)
	}
	return results, rows.Err()
}

// ContentCentroid returns the mean of a document's chunk embeddings, or nil
// when the document has no chunks.
func (r *SearchRepository) ContentCentroid(ctx context.Context, documentID string) ([]float32, error) {
	var vec pgvector.Vector
	err := r.pool.QueryRow(ctx,
		`SELECT AVG(embedding) FROM document_chunks WHERE document_id = $1 GROUP BY document_id`,
		documentID,
	).Scan(&vec)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return vec.Slice(), nil
}

// probeQuery appends the optional document filters, ordering and limit to
// base. base must use $1 for the vector, $2 for the org and $3 for the
// distance threshold.
func probeQuery(base, idColumn string, q service.VectorQuery) (string, []any) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultProbeLimit
	}

	query := base
	args := []any{pgvector.NewVector(q.Embedding), q.OrgID, q.MaxDistance}
	if q.DocumentID != "" {
		args = append(args, q.DocumentID)
		query += fmt.Sprintf(" AND %s = $%d", idColumn, len(args))
	}
	if q.ExcludeDocumentID != "" {
		args = append(args, q.ExcludeDocumentID)
		query += fmt.Sprintf(" AND %s <> $%d", idColumn, len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY distance ASC LIMIT $%d", len(args))
	return query, args
}
