package chunking

import (
	"fmt"
	"strings"

	"github.com/cloo-solutions/docindex/internal/content"
	"github.com/cloo-solutions/docindex/internal/domain"
)

type headingEntry struct {
	text  string
	level int
}

type paragraphWalker struct {
	cfg        Config
	keys       *domain.SectionKeyer
	sectionKey string
	stack      []headingEntry
	pending    []string
	pendingLen int
	chunks     []Chunk
}

// Paragraphs splits doc into paragraph-granular chunks prefixed with the
// active heading breadcrumb. Blocks of at least 2*MinChars become chunks of
// their own; smaller blocks are packed until they reach 3*MinChars. Packed
// runs shorter than MinChars are dropped.
func Paragraphs(doc *content.Node, cfg Config) ([]Chunk, error) {
	if err := content.DefaultSchema().Validate(doc); err != nil {
		return nil, fmt.Errorf("paragraph chunking: %w", err)
	}

	w := &paragraphWalker{
		cfg:        cfg.normalized(),
		keys:       domain.NewSectionKeyer(),
		sectionKey: domain.IntroSectionKey(0),
	}
	for _, node := range doc.Content {
		switch {
		case node.IsHeading():
			w.heading(node)
		case node.IsContentBlock():
			w.block(node)
		}
	}
	w.flush()

	return reindex(w.chunks), nil
}

func (w *paragraphWalker) heading(node *content.Node) {
	w.flush()

	level := node.HeadingLevel()
	text := strings.TrimSpace(content.PlainText(node))
	for len(w.stack) > 0 && w.stack[len(w.stack)-1].level >= level {
		w.stack = w.stack[:len(w.stack)-1]
	}
	w.stack = append(w.stack, headingEntry{text: text, level: level})

	if node.IsSectionHeading() {
		w.sectionKey = w.keys.Next(text)
	}
}

func (w *paragraphWalker) block(node *content.Node) {
	markup := content.RenderMarkdown(node)
	plain := content.RenderPlain(node)
	if !markup.OK || !plain.OK {
		return
	}
	size := strippedLen(plain.Text)
	if size == 0 {
		return
	}

	if size >= 2*w.cfg.MinChars {
		w.flush()
		w.pending = append(w.pending, markup.Text)
		w.pendingLen = size
		w.flush()
		return
	}

	w.pending = append(w.pending, markup.Text)
	w.pendingLen += size
	if w.pendingLen >= 3*w.cfg.MinChars {
		w.flush()
	}
}

func (w *paragraphWalker) flush() {
	if len(w.pending) == 0 {
		return
	}
	body := strings.Join(w.pending, "\n\n")
	size := w.pendingLen
	w.pending = nil
	w.pendingLen = 0
	if size < w.cfg.MinChars {
		return
	}

	trail := w.trail()
	text := body
	if trail.Breadcrumb != "" {
		text = trail.Breadcrumb + "\n\n" + body
	}

	chunk := Chunk{
		Kind:       KindParagraph,
		Content:    text,
		SectionKey: w.sectionKey,
		Trail:      trail,
	}
	if n := len(w.stack); n > 0 {
		chunk.Heading = w.stack[n-1].text
		chunk.Level = w.stack[n-1].level
	}
	w.chunks = append(w.chunks, chunk)
}

func (w *paragraphWalker) trail() *HeadingTrail {
	trail := &HeadingTrail{
		Path:   make([]string, 0, len(w.stack)),
		Levels: make([]int, 0, len(w.stack)),
	}
	for _, h := range w.stack {
		trail.Path = append(trail.Path, h.text)
		trail.Levels = append(trail.Levels, h.level)
	}
	trail.Breadcrumb = strings.Join(trail.Path, " > ")
	return trail
}
