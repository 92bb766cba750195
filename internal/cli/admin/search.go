package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cloo-solutions/docindex/internal/config"
	"github.com/cloo-solutions/docindex/internal/logging"
	"github.com/cloo-solutions/docindex/internal/service"
)

// SearchCmd returns the search command
func SearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <org-id> <query>",
		Short: "Search the documents of an organization",
		Args:  cobra.MinimumNArgs(2),
		RunE:  runSearch,
	}

	cmd.Flags().String("mode", "hybrid", "Search mode: hybrid, content or title")
	cmd.Flags().String("strategy", "", "Hybrid strategy: title_first, content_first or both")
	cmd.Flags().IntP("limit", "n", 0, "Maximum number of documents")
	cmd.Flags().Float64("min-similarity", -1, "Drop hybrid chunks below this similarity (default DOCINDEX_SIMILARITY_FLOOR)")
	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")

	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	orgID := args[0]
	query := strings.Join(args[1:], " ")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	a, err := newApp(ctx, cfg, logging.Setup(cfg.Debug))
	if err != nil {
		return err
	}
	defer a.Close()

	mode, _ := cmd.Flags().GetString("mode")
	limit, _ := cmd.Flags().GetInt("limit")

	var matches []service.DocumentMatch
	switch mode {
	case "hybrid":
		strategy, _ := cmd.Flags().GetString("strategy")
		matches, err = a.search.HybridSearchDocuments(ctx, service.HybridSearchInput{
			OrgID:    orgID,
			Query:    query,
			Strategy: strategy,
			Limit:    limit,
		})
		if err == nil {
			floor, _ := cmd.Flags().GetFloat64("min-similarity")
			if floor < 0 {
				floor = cfg.SimilarityFloor
			}
			matches = service.ApplySimilarityFloor(matches, floor, limit)
		}
	case "content":
		matches, err = a.search.SearchDocuments(ctx, orgID, query, limit)
	case "title":
		matches, err = a.search.SearchDocumentsByTitle(ctx, orgID, query, limit)
	default:
		return fmt.Errorf("unknown mode %q (expected hybrid, content or title)", mode)
	}
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	output, _ := cmd.Flags().GetString("output")
	if output == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(matches)
	}
	printMatches(cmd.OutOrStdout(), matches)
	return nil
}

func printMatches(w io.Writer, matches []service.DocumentMatch) {
	if len(matches) == 0 {
		fmt.Fprintln(w, "No results.")
		return
	}
	for i, m := range matches {
		fmt.Fprintf(w, "%d. %s [%s] %.3f  (%s)\n", i+1, m.Title, m.MatchType, m.Similarity, m.DocumentID)
		for _, c := range m.ContentChunks {
			label := c.Breadcrumb
			if label == "" {
				label = c.Heading
			}
			fmt.Fprintf(w, "   - %.3f %s: %s\n", c.Similarity, label, snippet(c.Content, 120))
		}
	}
}

func snippet(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
