//go:build integration

package storage

import (
	"context"
	"testing"

	"github.com/cloo-solutions/docindex/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotStore_RustFS(t *testing.T) {
	ctx := context.Background()
	rc := testutil.NewRustFSContainer(ctx, t)
	defer rc.Terminate(ctx)

	client, err := NewS3Client(ctx, S3ClientConfig{
		Endpoint:        rc.Endpoint(),
		Region:          "us-east-1",
		AccessKeyID:     "rustfsadmin",
		SecretAccessKey: "rustfsadmin",
		Bucket:          "docindex-states",
		UsePathStyle:    true,
	})
	require.NoError(t, err)
	require.NoError(t, client.EnsureBucket(ctx))

	store := NewSnapshotStore(client)

	state, err := store.Load(ctx, "doc-1")
	require.NoError(t, err)
	assert.Nil(t, state)

	require.NoError(t, store.Save(ctx, "doc-1", []byte(`{"type":"doc","content":[]}`)))
	state, err = store.Load(ctx, "doc-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"doc","content":[]}`, string(state))

	require.NoError(t, store.Delete(ctx, "doc-1"))
	state, err = store.Load(ctx, "doc-1")
	require.NoError(t, err)
	assert.Nil(t, state)
}
