package storage

import (
	"context"
	"errors"
)

const stateContentType = "application/json"

// SnapshotStore keeps document content states as objects keyed
// documents/<id>/state.json.
type SnapshotStore struct {
	client *S3Client
}

func NewSnapshotStore(client *S3Client) *SnapshotStore {
	return &SnapshotStore{client: client}
}

// StateKey returns the object key holding the state of documentID.
func StateKey(documentID string) string {
	return "documents/" + documentID + "/state.json"
}

// Load returns the stored state, or nil when the document has none.
func (s *SnapshotStore) Load(ctx context.Context, documentID string) ([]byte, error) {
	data, err := s.client.GetObject(ctx, StateKey(documentID))
	if errors.Is(err, ErrObjectNotFound) {
		return nil, nil
	}
	return data, err
}

func (s *SnapshotStore) Save(ctx context.Context, documentID string, state []byte) error {
	return s.client.PutObject(ctx, StateKey(documentID), stateContentType, state)
}

func (s *SnapshotStore) Delete(ctx context.Context, documentID string) error {
	return s.client.DeleteObject(ctx, StateKey(documentID))
}
