package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/cloo-solutions/docindex/internal/domain"
	"github.com/cloo-solutions/docindex/internal/telemetry"
)

const (
	titleMaxDistance         = 0.7
	titleMatchCap            = 5
	documentChunkMaxDistance = 0.6
	documentChunkCap         = 3
	corpusChunkMaxDistance   = 0.5
	corpusFetchMultiplier    = 3
	chunksPerDocument        = 3
	relatedMaxDistance       = 0.5

	defaultSearchLimit = 10
	maxSearchLimit     = 50
	defaultFanout      = 4

	// DefaultSimilarityFloor is the chunk similarity below which callers
	// drop search hits.
	DefaultSimilarityFloor = 0.3
)

// SearchStrategy selects which vector probes a hybrid search runs.
type SearchStrategy string

const (
	SearchStrategyTitleFirst   SearchStrategy = "title_first"
	SearchStrategyContentFirst SearchStrategy = "content_first"
	SearchStrategyBoth         SearchStrategy = "both"
)

// ParseSearchStrategy validates a strategy name. Empty selects both.
func ParseSearchStrategy(name string) (SearchStrategy, error) {
	switch s := SearchStrategy(strings.ToLower(strings.TrimSpace(name))); s {
	case "":
		return SearchStrategyBoth, nil
	case SearchStrategyTitleFirst, SearchStrategyContentFirst, SearchStrategyBoth:
		return s, nil
	}
	return "", domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "unknown search strategy: "+name, domain.ErrInvalidSearchStrategy)
}

// MatchType tells how a document entered a result set.
type MatchType string

const (
	MatchTypeTitle   MatchType = "title_match"
	MatchTypeContent MatchType = "content_match"
)

// ChunkMatch is a stored chunk returned by a vector probe.
type ChunkMatch struct {
	ChunkID           string
	DocumentID        string
	DocumentTitle     string
	DocumentUpdatedAt time.Time
	ChunkIndex        int
	Content           string
	Heading           string
	HeadingLevel      int
	Breadcrumb        string
	Distance          float64
	Similarity        float64
}

// DocumentMatch is one ranked document in a search result.
type DocumentMatch struct {
	DocumentID    string
	Title         string
	MatchType     MatchType
	Distance      float64
	Similarity    float64
	UpdatedAt     time.Time
	ContentChunks []ChunkMatch
}

// VectorQuery is a nearest-neighbour probe restricted to one organization's
// published, non-deleted documents. Results are ordered by ascending
// distance and limited to distances below MaxDistance.
type VectorQuery struct {
	OrgID             string
	Embedding         []float32
	MaxDistance       float64
	Limit             int
	DocumentID        string
	ExcludeDocumentID string
}

// SearchRepositoryInterface defines the vector store probes used by search
type SearchRepositoryInterface interface {
	SearchChunks(ctx context.Context, q VectorQuery) ([]ChunkMatch, error)
	SearchTitles(ctx context.Context, q VectorQuery) ([]DocumentMatch, error)
	ContentCentroid(ctx context.Context, documentID string) ([]float32, error)
}

// HybridSearchInput represents input for HybridSearchDocuments
type HybridSearchInput struct {
	OrgID    string
	Query    string
	Strategy string
	Limit    int
}

// SearchService answers read-only retrieval queries. Every call either
// returns a full result or an error.
type SearchService struct {
	repo     SearchRepositoryInterface
	docs     DocumentRepositoryInterface
	titles   TitleEmbeddingRepositoryInterface
	embedder EmbeddingClient
	fanout   int
	logger   zerolog.Logger
}

// NewSearchService creates a new SearchService instance
func NewSearchService(
	repo SearchRepositoryInterface,
	docs DocumentRepositoryInterface,
	titles TitleEmbeddingRepositoryInterface,
	embedder EmbeddingClient,
	logger zerolog.Logger,
) *SearchService {
	return &SearchService{
		repo:     repo,
		docs:     docs,
		titles:   titles,
		embedder: embedder,
		fanout:   defaultFanout,
		logger:   logger.With().Str("component", "search").Logger(),
	}
}

// HybridSearchDocuments combines a title probe and a corpus content probe.
// Title matches come first in distance order, each with its closest chunks.
// Content-only matches fill the remaining slots; content hits on documents
// already matched by title are appended to their chunks. The result never
// exceeds the limit.
func (s *SearchService) HybridSearchDocuments(ctx context.Context, input HybridSearchInput) ([]DocumentMatch, error) {
	ctx, span := telemetry.StartSpan(ctx, "SearchService.HybridSearchDocuments", telemetry.SpanAttributes{
		OrgID:     input.OrgID,
		Operation: "hybrid_search",
	})
	defer span.End()

	strategy, err := ParseSearchStrategy(input.Strategy)
	if err != nil {
		return nil, err
	}
	query := strings.TrimSpace(input.Query)
	if query == "" {
		return []DocumentMatch{}, nil
	}
	limit := normalizeLimit(input.Limit)

	embedding, err := s.embedQuery(ctx, query)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	results := make([]DocumentMatch, 0, limit)
	if strategy != SearchStrategyContentFirst {
		titled, err := s.titleMatchesWithChunks(ctx, input.OrgID, embedding, limit)
		if err != nil {
			span.SetError(err)
			return nil, s.queryFailed("title search", err)
		}
		results = append(results, titled...)
	}

	if strategy != SearchStrategyTitleFirst && len(results) < limit {
		rows, err := s.repo.SearchChunks(ctx, VectorQuery{
			OrgID:       input.OrgID,
			Embedding:   embedding,
			MaxDistance: corpusChunkMaxDistance,
			Limit:       limit * corpusFetchMultiplier,
		})
		if err != nil {
			span.SetError(err)
			return nil, s.queryFailed("content search", err)
		}
		results = mergeContentMatches(results, groupByDocument(rows, chunksPerDocument), limit-len(results))
	}

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (s *SearchService) titleMatchesWithChunks(ctx context.Context, orgID string, embedding []float32, limit int) ([]DocumentMatch, error) {
	titles, err := s.repo.SearchTitles(ctx, VectorQuery{
		OrgID:       orgID,
		Embedding:   embedding,
		MaxDistance: titleMaxDistance,
		Limit:       min(limit, titleMatchCap),
	})
	if err != nil {
		return nil, err
	}

	chunkLimit := min(documentChunkCap, limit)
	chunkSets := make([][]ChunkMatch, len(titles))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.fanout)
	for i := range titles {
		documentID := titles[i].DocumentID
		g.Go(func() error {
			chunks, err := s.repo.SearchChunks(gctx, VectorQuery{
				OrgID:       orgID,
				Embedding:   embedding,
				MaxDistance: documentChunkMaxDistance,
				Limit:       chunkLimit,
				DocumentID:  documentID,
			})
			if err != nil {
				return err
			}
			chunkSets[i] = chunks
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i := range titles {
		titles[i].MatchType = MatchTypeTitle
		titles[i].ContentChunks = chunkSets[i]
	}
	return titles, nil
}

// groupByDocument groups distance-ordered chunk rows by document, keeping
// the first perDocument chunks of each. Documents keep the order of their
// closest chunk.
func groupByDocument(rows []ChunkMatch, perDocument int) []DocumentMatch {
	var groups []DocumentMatch
	index := make(map[string]int)
	for _, row := range rows {
		pos, ok := index[row.DocumentID]
		if !ok {
			index[row.DocumentID] = len(groups)
			groups = append(groups, DocumentMatch{
				DocumentID: row.DocumentID,
				Title:      row.DocumentTitle,
				MatchType:  MatchTypeContent,
				Distance:   row.Distance,
				Similarity: row.Similarity,
				UpdatedAt:  row.DocumentUpdatedAt,
			})
			pos = len(groups) - 1
		}
		if len(groups[pos].ContentChunks) < perDocument {
			groups[pos].ContentChunks = append(groups[pos].ContentChunks, row)
		}
	}
	return groups
}

// mergeContentMatches appends content hits to documents already present and
// adds at most budget new content-only documents.
func mergeContentMatches(results, groups []DocumentMatch, budget int) []DocumentMatch {
	index := make(map[string]int, len(results))
	for i, r := range results {
		index[r.DocumentID] = i
	}

	added := 0
	for _, g := range groups {
		if pos, ok := index[g.DocumentID]; ok {
			results[pos].ContentChunks = append(results[pos].ContentChunks, g.ContentChunks...)
			continue
		}
		if added >= budget {
			continue
		}
		index[g.DocumentID] = len(results)
		results = append(results, g)
		added++
	}
	return results
}

// SearchDocuments runs a corpus-wide content probe and groups the hits by
// document.
func (s *SearchService) SearchDocuments(ctx context.Context, orgID, query string, limit int) ([]DocumentMatch, error) {
	ctx, span := telemetry.StartSpan(ctx, "SearchService.SearchDocuments", telemetry.SpanAttributes{
		OrgID:     orgID,
		Operation: "content_search",
	})
	defer span.End()

	query = strings.TrimSpace(query)
	if query == "" {
		return []DocumentMatch{}, nil
	}
	limit = normalizeLimit(limit)

	embedding, err := s.embedQuery(ctx, query)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	rows, err := s.repo.SearchChunks(ctx, VectorQuery{
		OrgID:       orgID,
		Embedding:   embedding,
		MaxDistance: corpusChunkMaxDistance,
		Limit:       limit * corpusFetchMultiplier,
	})
	if err != nil {
		span.SetError(err)
		return nil, s.queryFailed("content search", err)
	}

	groups := groupByDocument(rows, chunksPerDocument)
	if len(groups) > limit {
		groups = groups[:limit]
	}
	return groups, nil
}

// SearchDocumentsByTitle probes title embeddings only.
func (s *SearchService) SearchDocumentsByTitle(ctx context.Context, orgID, query string, limit int) ([]DocumentMatch, error) {
	ctx, span := telemetry.StartSpan(ctx, "SearchService.SearchDocumentsByTitle", telemetry.SpanAttributes{
		OrgID:     orgID,
		Operation: "title_search",
	})
	defer span.End()

	query = strings.TrimSpace(query)
	if query == "" {
		return []DocumentMatch{}, nil
	}

	embedding, err := s.embedQuery(ctx, query)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	matches, err := s.repo.SearchTitles(ctx, VectorQuery{
		OrgID:       orgID,
		Embedding:   embedding,
		MaxDistance: titleMaxDistance,
		Limit:       normalizeLimit(limit),
	})
	if err != nil {
		span.SetError(err)
		return nil, s.queryFailed("title search", err)
	}
	for i := range matches {
		matches[i].MatchType = MatchTypeTitle
	}
	return matches, nil
}

// SearchInDocument probes the chunks of a single document.
func (s *SearchService) SearchInDocument(ctx context.Context, orgID, documentID, query string, limit int) ([]ChunkMatch, error) {
	ctx, span := telemetry.StartSpan(ctx, "SearchService.SearchInDocument", telemetry.SpanAttributes{
		OrgID:      orgID,
		DocumentID: documentID,
		Operation:  "document_search",
	})
	defer span.End()

	if _, err := s.visibleDocument(ctx, orgID, documentID); err != nil {
		return nil, err
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return []ChunkMatch{}, nil
	}

	embedding, err := s.embedQuery(ctx, query)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	chunks, err := s.repo.SearchChunks(ctx, VectorQuery{
		OrgID:       orgID,
		Embedding:   embedding,
		MaxDistance: documentChunkMaxDistance,
		Limit:       normalizeLimit(limit),
		DocumentID:  documentID,
	})
	if err != nil {
		span.SetError(err)
		return nil, s.queryFailed("document search", err)
	}
	return chunks, nil
}

// FindRelatedDocuments returns documents whose title embedding is close to
// the title embedding of documentID.
func (s *SearchService) FindRelatedDocuments(ctx context.Context, orgID, documentID string, limit int) ([]DocumentMatch, error) {
	ctx, span := telemetry.StartSpan(ctx, "SearchService.FindRelatedDocuments", telemetry.SpanAttributes{
		OrgID:      orgID,
		DocumentID: documentID,
		Operation:  "related_by_title",
	})
	defer span.End()

	if _, err := s.visibleDocument(ctx, orgID, documentID); err != nil {
		return nil, err
	}

	te, err := s.titles.Get(ctx, documentID)
	if errors.Is(err, domain.ErrTitleEmbeddingNotFound) {
		return []DocumentMatch{}, nil
	}
	if err != nil {
		span.SetError(err)
		return nil, s.queryFailed("related title lookup", err)
	}

	matches, err := s.repo.SearchTitles(ctx, VectorQuery{
		OrgID:             orgID,
		Embedding:         te.Embedding,
		MaxDistance:       relatedMaxDistance,
		Limit:             normalizeLimit(limit),
		ExcludeDocumentID: documentID,
	})
	if err != nil {
		span.SetError(err)
		return nil, s.queryFailed("related title search", err)
	}
	for i := range matches {
		matches[i].MatchType = MatchTypeTitle
	}
	return matches, nil
}

// FindRelatedDocumentsByContent returns documents with chunks close to the
// centroid of documentID's chunk embeddings.
func (s *SearchService) FindRelatedDocumentsByContent(ctx context.Context, orgID, documentID string, limit int) ([]DocumentMatch, error) {
	ctx, span := telemetry.StartSpan(ctx, "SearchService.FindRelatedDocumentsByContent", telemetry.SpanAttributes{
		OrgID:      orgID,
		DocumentID: documentID,
		Operation:  "related_by_content",
	})
	defer span.End()

	if _, err := s.visibleDocument(ctx, orgID, documentID); err != nil {
		return nil, err
	}

	centroid, err := s.repo.ContentCentroid(ctx, documentID)
	if err != nil {
		span.SetError(err)
		return nil, s.queryFailed("content centroid", err)
	}
	if len(centroid) == 0 {
		return []DocumentMatch{}, nil
	}

	limit = normalizeLimit(limit)
	rows, err := s.repo.SearchChunks(ctx, VectorQuery{
		OrgID:             orgID,
		Embedding:         centroid,
		MaxDistance:       relatedMaxDistance,
		Limit:             limit * corpusFetchMultiplier,
		ExcludeDocumentID: documentID,
	})
	if err != nil {
		span.SetError(err)
		return nil, s.queryFailed("related content search", err)
	}

	groups := groupByDocument(rows, chunksPerDocument)
	if len(groups) > limit {
		groups = groups[:limit]
	}
	return groups, nil
}

// ApplySimilarityFloor drops chunks with similarity below floor, then drops
// documents left without chunks and truncates to limit when limit > 0. The
// input is not modified.
func ApplySimilarityFloor(results []DocumentMatch, floor float64, limit int) []DocumentMatch {
	out := make([]DocumentMatch, 0, len(results))
	for _, r := range results {
		kept := make([]ChunkMatch, 0, len(r.ContentChunks))
		for _, c := range r.ContentChunks {
			if c.Similarity >= floor {
				kept = append(kept, c)
			}
		}
		if len(kept) == 0 {
			continue
		}
		r.ContentChunks = kept
		out = append(out, r)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

func (s *SearchService) visibleDocument(ctx context.Context, orgID, documentID string) (*domain.Document, error) {
	doc, err := s.docs.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.OrgID != orgID || doc.IsDeleted() {
		return nil, domain.ErrDocumentNotFound
	}
	return doc, nil
}

func (s *SearchService) embedQuery(ctx context.Context, query string) ([]float32, error) {
	embedding, err := s.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		return nil, s.queryFailed("query embedding", err)
	}
	return embedding, nil
}

func (s *SearchService) queryFailed(stage string, err error) error {
	s.logger.Error().Err(err).Str("stage", stage).Msg("search failed")
	return fmt.Errorf("%s failed: %w", stage, err)
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultSearchLimit
	}
	if limit > maxSearchLimit {
		return maxSearchLimit
	}
	return limit
}
