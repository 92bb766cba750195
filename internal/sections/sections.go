// Package sections partitions documents into heading-delimited sections
// and detects which sections changed between index builds.
package sections

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/cloo-solutions/docindex/internal/content"
	"github.com/cloo-solutions/docindex/internal/domain"
)

// Section is a run of top-level nodes bounded by level-1/2 headings.
// StartNodeIndex and EndNodeIndex are inclusive positions in doc.Content.
type Section struct {
	Key            string
	Heading        string
	Level          int
	Nodes          []*content.Node
	Hash           string
	StartNodeIndex int
	EndNodeIndex   int
}

// ChangeSet is the result of diffing new sections against stored hashes.
type ChangeSet struct {
	Changed       []Section
	UnchangedKeys []string
	DeletedKeys   []string
	FullReindex   bool
}

// HasChanges reports whether an index build is required.
func (c ChangeSet) HasChanges() bool {
	return c.FullReindex || len(c.Changed) > 0
}

// HashContent returns the hex SHA-256 of text.
func HashContent(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Extract partitions doc into sections. A document without level-1/2
// headings is a single headingless section, or none when its plain text is
// blank.
func Extract(doc *content.Node) []Section {
	if doc == nil || len(doc.Content) == 0 {
		return nil
	}

	if !hasSectionHeading(doc.Content) {
		text := content.PlainText(doc)
		if strings.TrimSpace(text) == "" {
			return nil
		}
		return []Section{{
			Key:            domain.IntroSectionKey(0),
			Nodes:          doc.Content,
			Hash:           HashContent(text),
			StartNodeIndex: 0,
			EndNodeIndex:   len(doc.Content) - 1,
		}}
	}

	keys := domain.NewSectionKeyer()
	var out []Section
	var current *Section

	closeCurrent := func() {
		if current == nil {
			return
		}
		current.Hash = HashContent(content.PlainTextOf(current.Nodes))
		out = append(out, *current)
		current = nil
	}

	for i, node := range doc.Content {
		if node.IsSectionHeading() {
			closeCurrent()
			heading := strings.TrimSpace(content.PlainText(node))
			current = &Section{
				Key:            keys.Next(heading),
				Heading:        heading,
				Level:          node.HeadingLevel(),
				StartNodeIndex: i,
			}
		} else if current == nil {
			current = &Section{Key: keys.Next(""), StartNodeIndex: i}
		}
		current.Nodes = append(current.Nodes, node)
		current.EndNodeIndex = i
	}
	closeCurrent()

	return out
}

func hasSectionHeading(nodes []*content.Node) bool {
	for _, n := range nodes {
		if n.IsSectionHeading() {
			return true
		}
	}
	return false
}

// HashMap projects sections to their key-to-hash mapping.
func HashMap(secs []Section) domain.SectionHashes {
	hashes := make(domain.SectionHashes, len(secs))
	for _, s := range secs {
		hashes[s.Key] = s.Hash
	}
	return hashes
}

// FindChanged diffs secs against the previously stored hashes. Missing
// prior hashes, or any section present before and absent now, force a full
// reindex.
func FindChanged(old domain.SectionHashes, secs []Section) ChangeSet {
	if len(old) == 0 {
		return ChangeSet{Changed: secs, FullReindex: true}
	}

	var cs ChangeSet
	seen := make(map[string]struct{}, len(secs))
	for _, s := range secs {
		seen[s.Key] = struct{}{}
		if prev, ok := old[s.Key]; ok && prev == s.Hash {
			cs.UnchangedKeys = append(cs.UnchangedKeys, s.Key)
			continue
		}
		cs.Changed = append(cs.Changed, s)
	}

	for key := range old {
		if _, ok := seen[key]; !ok {
			cs.DeletedKeys = append(cs.DeletedKeys, key)
		}
	}
	if len(cs.DeletedKeys) > 0 {
		sort.Strings(cs.DeletedKeys)
		cs.FullReindex = true
	}
	return cs
}
