//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/cloo-solutions/docindex/internal/domain"
	"github.com/cloo-solutions/docindex/internal/testutil"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

const testDimensions = 1536

func setupPool(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()
	pc := testutil.NewPostgresContainer(ctx, t)
	t.Cleanup(func() { _ = pc.Terminate(context.Background()) })

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	t.Cleanup(pool.Close)
	return pool
}

// axis returns a unit vector along dimension i.
func axis(i int) []float32 {
	v := make([]float32, testDimensions)
	v[i] = 1
	return v
}

// blend returns a vector mostly along a with a smaller component along b.
func blend(a, b int, weight float32) []float32 {
	v := make([]float32, testDimensions)
	v[a] = 1
	v[b] = weight
	return v
}

func createDocument(ctx context.Context, t *testing.T, pool *pgxpool.Pool, id, orgID, title string, published bool) *domain.Document {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	doc, err := NewDocumentRepository(pool).Upsert(ctx, domain.NewDocument(id, orgID, title, published, now))
	require.NoError(t, err)
	return doc
}
