package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DocumentStatus represents the indexing state of a document
type DocumentStatus string

const (
	DocumentStatusPending  DocumentStatus = "pending"
	DocumentStatusIndexing DocumentStatus = "indexing"
	DocumentStatusIndexed  DocumentStatus = "indexed"
	DocumentStatusFailed   DocumentStatus = "failed"
)

// introKeyPrefix prefixes the key of a section that has no heading.
const introKeyPrefix = "__intro_"

// SectionHashes maps a section key to the content hash of that section.
type SectionHashes map[string]string

// IntroSectionKey returns the key for the n-th headingless section (0-based).
func IntroSectionKey(ordinal int) string {
	return introKeyPrefix + strconv.Itoa(ordinal)
}

// SectionKeyer assigns section keys in document order. A heading text seen
// for the n-th time (n >= 2) is keyed "<heading>#<n>", skipping suffixes
// already issued in the pass. Headings starting with the intro prefix or a
// backslash are escaped with a leading backslash so they never collide with
// intro keys.
type SectionKeyer struct {
	seen   map[string]int
	issued map[string]struct{}
	intro  int
}

// NewSectionKeyer returns a keyer for one document pass.
func NewSectionKeyer() *SectionKeyer {
	return &SectionKeyer{
		seen:   make(map[string]int),
		issued: make(map[string]struct{}),
	}
}

// Next returns the key for the next section. An empty heading yields the
// next intro key.
func (k *SectionKeyer) Next(heading string) string {
	if heading == "" {
		key := IntroSectionKey(k.intro)
		k.intro++
		k.issued[key] = struct{}{}
		return key
	}

	base := headingKey(heading)
	n := k.seen[base] + 1
	key := base
	if n > 1 {
		key = base + "#" + strconv.Itoa(n)
	}
	for {
		if _, taken := k.issued[key]; !taken {
			break
		}
		n++
		key = base + "#" + strconv.Itoa(n)
	}
	k.seen[base] = n
	k.issued[key] = struct{}{}
	return key
}

func headingKey(heading string) string {
	if strings.HasPrefix(heading, introKeyPrefix) || strings.HasPrefix(heading, `\`) {
		return `\` + heading
	}
	return heading
}

// Clone returns an independent copy of the hashes.
func (h SectionHashes) Clone() SectionHashes {
	if h == nil {
		return nil
	}
	out := make(SectionHashes, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}

// Document represents an indexable rich-text document
type Document struct {
	ID                     string
	OrgID                  string
	Title                  string
	Status                 DocumentStatus
	Published              bool
	SectionHashes          SectionHashes
	LastIndexedContentHash string
	IndexedAt              *time.Time
	DeletedAt              *time.Time
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// NewDocument creates a new Document in the pending state
func NewDocument(id, orgID, title string, published bool, createdAt time.Time) *Document {
	return &Document{
		ID:        id,
		OrgID:     orgID,
		Title:     title,
		Status:    DocumentStatusPending,
		Published: published,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

// IsDeleted reports whether the document has been soft-deleted
func (d *Document) IsDeleted() bool {
	return d.DeletedAt != nil
}

// ValidateDocument validates a Document instance
func ValidateDocument(d *Document) error {
	if d == nil {
		return fmt.Errorf("document cannot be nil")
	}

	if d.ID == "" {
		return fmt.Errorf("document ID is required")
	}

	if d.OrgID == "" {
		return fmt.Errorf("document OrgID is required")
	}

	if !IsValidDocumentStatus(d.Status) {
		return fmt.Errorf("document Status is invalid: %s", d.Status)
	}

	return nil
}

// IsValidDocumentStatus checks if a DocumentStatus is valid
func IsValidDocumentStatus(s DocumentStatus) bool {
	switch s {
	case DocumentStatusPending, DocumentStatusIndexing,
		DocumentStatusIndexed, DocumentStatusFailed:
		return true
	}
	return false
}
