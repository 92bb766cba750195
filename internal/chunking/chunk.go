// Package chunking splits documents into text chunks sized for embedding.
package chunking

import (
	"strings"
	"unicode/utf8"

	"github.com/cloo-solutions/docindex/internal/domain"
)

// Kind discriminates the chunk variants. It is fixed when the chunk is
// built and never inferred from field presence.
type Kind string

const (
	KindParagraph Kind = "paragraph"
	KindWindowed  Kind = "windowed"
	KindPlain     Kind = "plain"
)

// HeadingTrail is the heading path active when a paragraph chunk was
// flushed, most distant ancestor first.
type HeadingTrail struct {
	Breadcrumb string
	Path       []string
	Levels     []int
}

// Chunk is one unit of text submitted to the embedding function.
type Chunk struct {
	Kind       Kind
	Index      int
	Content    string
	Heading    string
	Level      int
	SectionKey string
	// Trail is set only for KindParagraph chunks.
	Trail *HeadingTrail
}

// Breadcrumb returns the heading breadcrumb of a paragraph chunk, or the
// chunk heading for other kinds.
func (c Chunk) Breadcrumb() string {
	if c.Kind == KindParagraph && c.Trail != nil {
		return c.Trail.Breadcrumb
	}
	return c.Heading
}

// Config controls chunk sizes. All sizes are rune counts of plain text.
type Config struct {
	MaxChars int
	MinChars int
	Overlap  int
}

// DefaultConfig provides sane defaults for chunking.
func DefaultConfig() Config {
	return Config{
		MaxChars: 1500,
		MinChars: 50,
		Overlap:  200,
	}
}

func (c Config) normalized() Config {
	if c.MaxChars <= 0 {
		c.MaxChars = DefaultConfig().MaxChars
	}
	if c.MinChars < 0 {
		c.MinChars = 0
	}
	if c.Overlap < 0 {
		c.Overlap = 0
	}
	return c
}

// Strategy selects the structural chunker used for indexing.
type Strategy string

const (
	StrategyParagraph Strategy = "paragraph"
	StrategyWindowed  Strategy = "windowed"
)

// IsValidStrategy checks if a Strategy is known.
func IsValidStrategy(s Strategy) bool {
	switch s {
	case StrategyParagraph, StrategyWindowed:
		return true
	}
	return false
}

// ParseStrategy maps a configured name to a Strategy. An empty name selects
// StrategyParagraph.
func ParseStrategy(name string) (Strategy, error) {
	s := Strategy(strings.ToLower(strings.TrimSpace(name)))
	if s == "" {
		return StrategyParagraph, nil
	}
	if !IsValidStrategy(s) {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "unknown chunk strategy: "+name, domain.ErrInvalidChunkStrategy)
	}
	return s, nil
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

func strippedLen(s string) int {
	return runeLen(strings.TrimSpace(s))
}

func reindex(chunks []Chunk) []Chunk {
	for i := range chunks {
		chunks[i].Index = i
	}
	return chunks
}
