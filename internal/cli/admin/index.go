package admin

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/cloo-solutions/docindex/internal/config"
	"github.com/cloo-solutions/docindex/internal/content"
	"github.com/cloo-solutions/docindex/internal/domain"
	"github.com/cloo-solutions/docindex/internal/logging"
	"github.com/cloo-solutions/docindex/internal/service"
)

// PutCmd returns the put command
func PutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "put <org-id> <document-id>",
		Short: "Store a document and queue it for indexing",
		Long: `Store a document from a Markdown file or a JSON content state and queue it
for indexing. With --wait the queue is drained before the command returns.`,
		Args: cobra.ExactArgs(2),
		RunE: runPut,
	}

	cmd.Flags().String("title", "", "Document title")
	cmd.Flags().String("markdown", "", "Path to a Markdown file")
	cmd.Flags().String("content", "", "Path to a JSON content state")
	cmd.Flags().Bool("published", true, "Whether the document is visible to search")
	cmd.Flags().Bool("wait", false, "Index pending documents before returning")
	cmd.MarkFlagsMutuallyExclusive("markdown", "content")

	return cmd
}

func runPut(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	orgID, documentID := args[0], args[1]

	state, err := readState(cmd)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	a, err := newApp(ctx, cfg, logging.Setup(cfg.Debug))
	if err != nil {
		return err
	}
	defer a.Close()

	title, _ := cmd.Flags().GetString("title")
	published, _ := cmd.Flags().GetBool("published")
	doc, err := a.documents.Put(ctx, service.PutDocumentInput{
		ID:        documentID,
		OrgID:     orgID,
		Title:     title,
		Published: published,
		State:     state,
	})
	if err != nil {
		return fmt.Errorf("failed to store document: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Document stored: %s (%s)\n", doc.ID, doc.Status)

	if wait, _ := cmd.Flags().GetBool("wait"); wait {
		return drain(ctx, cmd, a)
	}
	return nil
}

func readState(cmd *cobra.Command) ([]byte, error) {
	if path, _ := cmd.Flags().GetString("content"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read content state: %w", err)
		}
		if _, err := content.Decode(data); err != nil {
			return nil, err
		}
		return data, nil
	}
	if path, _ := cmd.Flags().GetString("markdown"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read markdown: %w", err)
		}
		return content.Encode(content.FromMarkdown(data))
	}
	return nil, fmt.Errorf("one of --markdown or --content is required")
}

// BackfillCmd returns the backfill command
func BackfillCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Queue indexing jobs for documents that are not indexed",
		Args:  cobra.NoArgs,
		RunE:  runBackfill,
	}

	cmd.Flags().String("org", "", "Only documents of this organization")
	cmd.Flags().Int("limit", 100, "Maximum number of documents to queue")
	cmd.Flags().Bool("wait", false, "Index the queued documents before returning")

	return cmd
}

func runBackfill(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	a, err := newApp(ctx, cfg, logging.Setup(cfg.Debug))
	if err != nil {
		return err
	}
	defer a.Close()

	orgID, _ := cmd.Flags().GetString("org")
	limit, _ := cmd.Flags().GetInt("limit")
	ids, err := a.documentRepo.ListPendingIDs(ctx, orgID, limit)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	uuidGen := &service.DefaultUUIDGenerator{}
	for _, id := range ids {
		job := domain.NewIndexingJob(uuidGen.NewString(), id, time.Now().UTC())
		if err := a.jobRepo.Enqueue(ctx, job); err != nil {
			return fmt.Errorf("failed to queue %s: %w", id, err)
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Queued %d document(s)\n", len(ids))

	if wait, _ := cmd.Flags().GetBool("wait"); wait {
		return drain(ctx, cmd, a)
	}
	return nil
}

// drain runs the indexing worker until a batch claims nothing. Failed
// jobs are requeued at most MaxRetries times, so the loop ends.
func drain(ctx context.Context, cmd *cobra.Command, a *app) error {
	total := 0
	for {
		n, err := a.worker.ProcessBatch(ctx)
		if err != nil {
			return err
		}
		if n == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "Indexing queue drained (%d job(s) run)\n", total)
			return nil
		}
		total += n
	}
}
