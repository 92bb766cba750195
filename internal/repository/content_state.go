package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ContentStateRepository keeps the latest raw content state of each document
// in Postgres. It is the default content state store when S3 is not
// configured.
type ContentStateRepository struct {
	db dbtx
}

func NewContentStateRepository(pool *pgxpool.Pool) *ContentStateRepository {
	return &ContentStateRepository{db: pool}
}

func (r *ContentStateRepository) Load(ctx context.Context, documentID string) ([]byte, error) {
	var state []byte
	err := r.db.QueryRow(ctx,
		`SELECT state FROM document_content_states WHERE document_id = $1`,
		documentID,
	).Scan(&state)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return state, nil
}

func (r *ContentStateRepository) Save(ctx context.Context, documentID string, state []byte) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO document_content_states (document_id, state, updated_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (document_id) DO UPDATE
		 SET state = EXCLUDED.state, updated_at = EXCLUDED.updated_at`,
		documentID, state, time.Now().UTC(),
	)
	return err
}
