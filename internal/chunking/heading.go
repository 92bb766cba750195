package chunking

import (
	"fmt"
	"strings"

	"github.com/cloo-solutions/docindex/internal/content"
	"github.com/cloo-solutions/docindex/internal/domain"
)

type itemKind int

const (
	itemHeading itemKind = iota
	itemContent
)

type item struct {
	kind  itemKind
	text  string
	size  int
	level int
	plain string
}

type windowWalker struct {
	cfg        Config
	keys       *domain.SectionKeyer
	sectionKey string
	heading    string
	level      int
	lead       []item
	body       []item
	overlap    []item
	chunks     []Chunk
}

// HeadingAware splits doc into heading-delimited chunks of at most
// MaxChars, carrying up to Overlap characters of trailing blocks into the
// next chunk. A heading always starts a fresh chunk with no overlap.
func HeadingAware(doc *content.Node, cfg Config) ([]Chunk, error) {
	if err := content.DefaultSchema().Validate(doc); err != nil {
		return nil, fmt.Errorf("heading-aware chunking: %w", err)
	}

	w := &windowWalker{
		cfg:        cfg.normalized(),
		keys:       domain.NewSectionKeyer(),
		sectionKey: domain.IntroSectionKey(0),
	}
	for _, it := range extractItems(doc) {
		if it.kind == itemHeading {
			w.startHeading(it)
			continue
		}
		w.add(it)
	}
	w.flush()

	return reindex(w.chunks), nil
}

func extractItems(doc *content.Node) []item {
	items := make([]item, 0, len(doc.Content))
	for _, node := range doc.Content {
		var kind itemKind
		switch {
		case node.IsHeading():
			kind = itemHeading
		case node.IsContentBlock():
			kind = itemContent
		default:
			continue
		}
		markup := content.RenderMarkdown(node)
		plain := content.RenderPlain(node)
		if !markup.OK || !plain.OK {
			continue
		}
		stripped := strings.TrimSpace(plain.Text)
		if stripped == "" {
			continue
		}
		items = append(items, item{
			kind:  kind,
			text:  markup.Text,
			size:  runeLen(stripped),
			level: node.HeadingLevel(),
			plain: stripped,
		})
	}
	return items
}

func (w *windowWalker) startHeading(it item) {
	w.flush()
	w.overlap = nil
	w.lead = nil
	w.body = []item{it}
	w.heading = it.plain
	w.level = it.level
	if it.level == 1 || it.level == 2 {
		w.sectionKey = w.keys.Next(it.plain)
	}
}

func (w *windowWalker) add(it item) {
	combined := sizeOf(w.lead) + sizeOf(w.body) + it.size
	if combined > w.cfg.MaxChars && len(w.body) > 0 {
		w.flush()
		w.lead = w.overlap
		w.body = []item{it}
		return
	}
	w.body = append(w.body, it)
}

func (w *windowWalker) flush() {
	if len(w.body) == 0 {
		return
	}
	all := make([]item, 0, len(w.lead)+len(w.body))
	all = append(all, w.lead...)
	all = append(all, w.body...)
	w.lead = nil
	w.body = nil

	if sizeOf(all) >= w.cfg.MinChars {
		parts := make([]string, len(all))
		for i, it := range all {
			parts[i] = it.text
		}
		w.chunks = append(w.chunks, Chunk{
			Kind:       KindWindowed,
			Content:    strings.Join(parts, "\n\n"),
			Heading:    w.heading,
			Level:      w.level,
			SectionKey: w.sectionKey,
		})
	}

	w.overlap = overlapTail(all, w.cfg.Overlap)
}

// overlapTail returns the longest suffix of items whose combined size does
// not exceed limit.
func overlapTail(items []item, limit int) []item {
	total := 0
	start := len(items)
	for i := len(items) - 1; i >= 0; i-- {
		if total+items[i].size > limit {
			break
		}
		total += items[i].size
		start = i
	}
	if start == len(items) {
		return nil
	}
	return append([]item(nil), items[start:]...)
}

func sizeOf(items []item) int {
	total := 0
	for _, it := range items {
		total += it.size
	}
	return total
}
