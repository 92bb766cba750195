package chunking

import (
	"strings"
	"unicode"
)

// windowText hard-splits text into pieces of at most maxChars runes,
// preferring to cut at whitespace in the back half of each window.
func windowText(text string, maxChars int) []string {
	clean := strings.TrimSpace(text)
	if clean == "" {
		return nil
	}
	runes := []rune(clean)
	if len(runes) <= maxChars {
		return []string{clean}
	}

	pieces := make([]string, 0, len(runes)/maxChars+1)
	start := 0
	for start < len(runes) {
		end := start + maxChars
		if end > len(runes) {
			end = len(runes)
		}

		if end < len(runes) {
			minCut := start + maxChars/2
			for i := end; i > minCut; i-- {
				if unicode.IsSpace(runes[i-1]) {
					end = i
					break
				}
			}
		}

		if piece := strings.TrimSpace(string(runes[start:end])); piece != "" {
			pieces = append(pieces, piece)
		}
		start = end
	}
	return pieces
}
