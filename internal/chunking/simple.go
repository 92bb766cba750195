package chunking

import (
	"regexp"
	"strings"
	"unicode"
)

// minPlainChunk is the noise floor for plain chunks: fragments whose
// trimmed length is at or below it are discarded.
const minPlainChunk = 20

var blankLine = regexp.MustCompile(`\n[ \t\r]*\n`)

// Simple splits text on blank lines. Paragraphs within MaxChars pass through
// unchanged; longer ones are packed sentence by sentence up to MaxChars.
// Simple never fails and is the fallback when structural chunking cannot be
// used.
func Simple(text string, cfg Config) []Chunk {
	cfg = cfg.normalized()

	var pieces []string
	for _, para := range blankLine.Split(text, -1) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if runeLen(para) <= cfg.MaxChars {
			pieces = append(pieces, para)
			continue
		}
		pieces = append(pieces, packSentences(splitSentences(para), cfg.MaxChars)...)
	}

	chunks := make([]Chunk, 0, len(pieces))
	for _, piece := range pieces {
		if strippedLen(piece) <= minPlainChunk {
			continue
		}
		chunks = append(chunks, Chunk{Kind: KindPlain, Content: piece})
	}
	return reindex(chunks)
}

// splitSentences cuts after '.', '?' or '!' when followed by whitespace.
func splitSentences(text string) []string {
	runes := []rune(text)
	var sentences []string
	start := 0
	for i := 0; i < len(runes)-1; i++ {
		switch runes[i] {
		case '.', '?', '!':
			if unicode.IsSpace(runes[i+1]) {
				if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
					sentences = append(sentences, s)
				}
				start = i + 1
			}
		}
	}
	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

func packSentences(sentences []string, maxChars int) []string {
	var out []string
	var cur strings.Builder
	curLen := 0

	emit := func() {
		if curLen > 0 {
			out = append(out, cur.String())
		}
		cur.Reset()
		curLen = 0
	}

	for _, s := range sentences {
		size := runeLen(s)
		if size > maxChars {
			emit()
			out = append(out, windowText(s, maxChars)...)
			continue
		}
		if curLen > 0 && curLen+1+size > maxChars {
			emit()
		}
		if curLen > 0 {
			cur.WriteByte(' ')
			curLen++
		}
		cur.WriteString(s)
		curLen += size
	}
	emit()
	return out
}
