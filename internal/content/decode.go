package content

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Decode turns a stored content state into a document tree. An empty or
// null state decodes to an empty document.
func Decode(state []byte) (*Node, error) {
	trimmed := bytes.TrimSpace(state)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return EmptyDocument(), nil
	}

	var root Node
	if err := json.Unmarshal(trimmed, &root); err != nil {
		return nil, fmt.Errorf("failed to decode content state: %w", err)
	}
	if root.Type != TypeDoc {
		return nil, fmt.Errorf("content state root must be %q, got %q", TypeDoc, root.Type)
	}
	return &root, nil
}

// Encode serializes a document tree into a content state.
func Encode(doc *Node) ([]byte, error) {
	if doc == nil {
		doc = EmptyDocument()
	}
	return json.Marshal(doc)
}
