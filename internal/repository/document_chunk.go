package repository

import (
	"context"
	"time"

	"github.com/cloo-solutions/docindex/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// DocumentChunkRepository handles persistence of chunk embeddings.
type DocumentChunkRepository struct {
	db dbtx
}

func NewDocumentChunkRepository(pool *pgxpool.Pool) *DocumentChunkRepository {
	return &DocumentChunkRepository{db: pool}
}

func NewDocumentChunkRepositoryWithTx(tx pgx.Tx) *DocumentChunkRepository {
	return &DocumentChunkRepository{db: tx}
}

// ReplaceChunks deletes existing chunks for a document and inserts new ones.
// Callers run it inside a transaction so readers never see a partial set.
func (r *DocumentChunkRepository) ReplaceChunks(ctx context.Context, documentID string, chunks []domain.DocumentChunk) error {
	_, err := r.db.Exec(ctx, `DELETE FROM document_chunks WHERE document_id = $1`, documentID)
	if err != nil {
		return err
	}

	for _, c := range chunks {
		createdAt := c.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		_, err := r.db.Exec(ctx,
			`INSERT INTO document_chunks
				(id, document_id, org_id, chunk_index, content, heading, heading_level, header_breadcrumb, section_key, embedding, created_at)
			 VALUES
				($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			c.ID,
			documentID,
			c.OrgID,
			c.ChunkIndex,
			c.Content,
			nullableString(c.Heading),
			nullableInt(c.HeadingLevel),
			nullableString(c.HeaderBreadcrumb),
			nullableString(c.SectionKey),
			pgvector.NewVector(c.Embedding),
			createdAt,
		)
		if err != nil {
			return err
		}
	}

	return nil
}

func (r *DocumentChunkRepository) CountByDocument(ctx context.Context, documentID string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM document_chunks WHERE document_id = $1`,
		documentID,
	).Scan(&n)
	return n, err
}

// ListByDocument returns the stored chunks of a document in index order,
// without their embeddings.
func (r *DocumentChunkRepository) ListByDocument(ctx context.Context, documentID string) ([]domain.DocumentChunk, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, document_id, org_id, chunk_index, content,
		        COALESCE(heading, ''), COALESCE(heading_level, 0), COALESCE(header_breadcrumb, ''), COALESCE(section_key, ''), created_at
		 FROM document_chunks
		 WHERE document_id = $1
		 ORDER BY chunk_index ASC`,
		documentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []domain.DocumentChunk
	for rows.Next() {
		var c domain.DocumentChunk
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.OrgID, &c.ChunkIndex, &c.Content,
			&c.Heading, &c.HeadingLevel, &c.HeaderBreadcrumb, &c.SectionKey, &c.CreatedAt); err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}
