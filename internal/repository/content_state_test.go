//go:build integration

package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentStateRepository(t *testing.T) {
	ctx := context.Background()
	pool := setupPool(ctx, t)
	repo := NewContentStateRepository(pool)

	state, err := repo.Load(ctx, "doc-1")
	require.NoError(t, err)
	assert.Nil(t, state)

	require.NoError(t, repo.Save(ctx, "doc-1", []byte(`{"type":"doc"}`)))
	require.NoError(t, repo.Save(ctx, "doc-1", []byte(`{"type":"doc","content":[]}`)))

	state, err = repo.Load(ctx, "doc-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"doc","content":[]}`, string(state))
}
