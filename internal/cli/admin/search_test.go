package admin

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cloo-solutions/docindex/internal/service"
)

func TestPrintMatches(t *testing.T) {
	var buf bytes.Buffer
	printMatches(&buf, []service.DocumentMatch{{
		DocumentID: "doc-1",
		Title:      "Runbook",
		MatchType:  service.MatchTypeTitle,
		Similarity: 0.91,
		ContentChunks: []service.ChunkMatch{
			{Breadcrumb: "# Runbook > ## Restart", Content: "Restart   the\nservice", Similarity: 0.8},
			{Heading: "Intro", Content: "Overview", Similarity: 0.5},
		},
	}})

	out := buf.String()
	assert.Contains(t, out, "1. Runbook [title_match] 0.910  (doc-1)")
	assert.Contains(t, out, "# Runbook > ## Restart: Restart the service")
	assert.Contains(t, out, "Intro: Overview")
}

func TestPrintMatches_Empty(t *testing.T) {
	var buf bytes.Buffer
	printMatches(&buf, nil)
	assert.Equal(t, "No results.\n", buf.String())
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "a b", snippet("a \n b", 10))
	assert.Equal(t, "héllo...", snippet("héllo world", 5))
}
