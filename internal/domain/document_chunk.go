package domain

import "time"

// DocumentChunk is a persisted chunk of a document together with its embedding.
// The full set for a document is always replaced, never patched.
type DocumentChunk struct {
	ID               string
	DocumentID       string
	OrgID            string
	ChunkIndex       int
	Content          string
	Heading          string
	HeadingLevel     int
	HeaderBreadcrumb string
	SectionKey       string
	Embedding        []float32
	CreatedAt        time.Time
}

// TitleEmbedding is the single title vector kept per document.
type TitleEmbedding struct {
	DocumentID string
	OrgID      string
	Title      string
	Embedding  []float32
	UpdatedAt  time.Time
}
