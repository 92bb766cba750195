package repository

import (
	"context"
	"errors"

	"github.com/cloo-solutions/docindex/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// TitleEmbeddingRepository stores the one title vector kept per document.
type TitleEmbeddingRepository struct {
	db dbtx
}

func NewTitleEmbeddingRepository(pool *pgxpool.Pool) *TitleEmbeddingRepository {
	return &TitleEmbeddingRepository{db: pool}
}

func NewTitleEmbeddingRepositoryWithTx(tx pgx.Tx) *TitleEmbeddingRepository {
	return &TitleEmbeddingRepository{db: tx}
}

func (r *TitleEmbeddingRepository) Get(ctx context.Context, documentID string) (*domain.TitleEmbedding, error) {
	var te domain.TitleEmbedding
	var vec pgvector.Vector
	err := r.db.QueryRow(ctx,
		`SELECT document_id, org_id, title, embedding, updated_at
		 FROM document_title_embeddings WHERE document_id = $1`,
		documentID,
	).Scan(&te.DocumentID, &te.OrgID, &te.Title, &vec, &te.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTitleEmbeddingNotFound
		}
		return nil, err
	}
	te.Embedding = vec.Slice()
	return &te, nil
}

func (r *TitleEmbeddingRepository) Upsert(ctx context.Context, te *domain.TitleEmbedding) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO document_title_embeddings (document_id, org_id, title, embedding, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (document_id) DO UPDATE
		 SET org_id = EXCLUDED.org_id,
		     title = EXCLUDED.title,
		     embedding = EXCLUDED.embedding,
		     updated_at = EXCLUDED.updated_at`,
		te.DocumentID, te.OrgID, te.Title, pgvector.NewVector(te.Embedding), te.UpdatedAt,
	)
	return err
}

// Delete removes the title vector. Deleting a missing row is not an error.
func (r *TitleEmbeddingRepository) Delete(ctx context.Context, documentID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM document_title_embeddings WHERE document_id = $1`, documentID)
	return err
}
