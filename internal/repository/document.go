package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cloo-solutions/docindex/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const documentColumns = `id, org_id, title, status, published, section_hashes, last_indexed_content_hash,
	indexed_at, deleted_at, created_at, updated_at`

// DocumentRepository persists documents and their index bookkeeping.
type DocumentRepository struct {
	db dbtx
}

func NewDocumentRepository(pool *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{db: pool}
}

func NewDocumentRepositoryWithTx(tx pgx.Tx) *DocumentRepository {
	return &DocumentRepository{db: tx}
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	row := r.db.QueryRow(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id)
	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, err
	}
	return doc, nil
}

// Upsert inserts a document or updates title and visibility of an existing
// one owned by the same organization. A soft-deleted document is revived.
// Index bookkeeping (status, hashes) is left untouched on update.
func (r *DocumentRepository) Upsert(ctx context.Context, doc *domain.Document) (*domain.Document, error) {
	row := r.db.QueryRow(ctx,
		`INSERT INTO documents (id, org_id, title, status, published, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO UPDATE
		 SET title = EXCLUDED.title,
		     published = EXCLUDED.published,
		     deleted_at = NULL,
		     updated_at = EXCLUDED.updated_at
		 WHERE documents.org_id = EXCLUDED.org_id
		 RETURNING `+documentColumns,
		doc.ID, doc.OrgID, doc.Title, doc.Status, doc.Published, doc.CreatedAt, doc.UpdatedAt,
	)
	stored, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// the id exists under another organization
			return nil, domain.ErrDocumentAlreadyExists
		}
		return nil, err
	}
	return stored, nil
}

func (r *DocumentRepository) UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE documents SET status = $1 WHERE id = $2`,
		status, id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

// MarkIndexed records the section hashes and content hash of a successful
// run and moves the document to indexed. indexedAt also becomes the
// document's updated_at.
func (r *DocumentRepository) MarkIndexed(ctx context.Context, id string, hashes domain.SectionHashes, contentHash string, indexedAt time.Time) error {
	if hashes == nil {
		hashes = domain.SectionHashes{}
	}
	raw, err := json.Marshal(hashes)
	if err != nil {
		return fmt.Errorf("failed to encode section hashes: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx,
		`UPDATE documents
		 SET status = $1,
		     section_hashes = $2::jsonb,
		     last_indexed_content_hash = $3,
		     indexed_at = $4,
		     updated_at = $4
		 WHERE id = $5`,
		domain.DocumentStatusIndexed, string(raw), nullableString(contentHash), indexedAt, id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

// ResetIndexState forgets the recorded hashes so the next run rebuilds the
// whole document.
func (r *DocumentRepository) ResetIndexState(ctx context.Context, id string) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE documents
		 SET status = $1,
		     section_hashes = '{}'::jsonb,
		     last_indexed_content_hash = NULL
		 WHERE id = $2`,
		domain.DocumentStatusPending, id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

func (r *DocumentRepository) SoftDelete(ctx context.Context, id string, deletedAt time.Time) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE documents SET deleted_at = $1, updated_at = $1 WHERE id = $2 AND deleted_at IS NULL`,
		deletedAt, id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

// ListPendingIDs returns ids of live documents that are not indexed yet,
// oldest first. Used by the CLI to backfill jobs.
func (r *DocumentRepository) ListPendingIDs(ctx context.Context, orgID string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT id FROM documents WHERE deleted_at IS NULL AND status <> $1`
	args := []any{domain.DocumentStatusIndexed}
	if orgID != "" {
		query += " AND org_id = $2"
		args = append(args, orgID)
	}
	query += fmt.Sprintf(" ORDER BY created_at ASC LIMIT $%d", len(args)+1)
	args = append(args, limit)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanDocument(row pgx.Row) (*domain.Document, error) {
	var doc domain.Document
	var hashes []byte
	var contentHash pgtype.Text
	err := row.Scan(&doc.ID, &doc.OrgID, &doc.Title, &doc.Status, &doc.Published, &hashes, &contentHash,
		&doc.IndexedAt, &doc.DeletedAt, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(hashes) > 0 {
		if err := json.Unmarshal(hashes, &doc.SectionHashes); err != nil {
			return nil, fmt.Errorf("failed to decode section hashes: %w", err)
		}
	}
	if contentHash.Valid {
		doc.LastIndexedContentHash = contentHash.String
	}
	return &doc, nil
}
