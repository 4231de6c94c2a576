package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/interestmap/engine/internal/models"
	"github.com/interestmap/engine/internal/observability"
	"github.com/interestmap/engine/internal/provider"
)

// Request limit bounds and default.
const (
	minLimit     = 1
	maxLimit     = 20
	defaultLimit = 12
)

// Final score composition: the reranker carries most of the weight, recency
// contributes up to 0.2 decaying linearly to zero over 90 days, and each
// provider gets a fixed small bonus as a diversity hint.
const (
	rerankWeight      = 0.7
	recencyMaxBoost   = 0.2
	recencyWindowDays = 90
)

var providerBonus = map[models.Provider]float64{
	models.ProviderYouTube:  0.05,
	models.ProviderTelegram: 0.05,
	models.ProviderArticles: 0.08,
}

const providerBonusDefault = 0.03

// Fallback reasons surfaced in the debug trace.
const (
	fallbackReasonNoDatabase    = "catalog_store_unavailable"
	fallbackReasonNoInterests   = "no_interests_selected"
	fallbackReasonIngestFailed  = "ingest_failed"
	fallbackReasonNoEmbeddings  = "embeddings_unavailable"
	fallbackReasonNoQueryVector = "no_query_vector"
)

// InterestsRepository resolves interest ids to their titles/synonyms/cluster.
type InterestsRepository interface {
	ListByIDs(ctx context.Context, ids []string) ([]models.Interest, error)
}

// GetContentRequest is the engine entry point's input.
type GetContentRequest struct {
	ProviderIDs []models.Provider `json:"provider_ids,omitempty"`
	InterestIDs []string          `json:"interest_ids"`
	Limit       int               `json:"limit,omitempty"`
	Locale      string            `json:"locale,omitempty"`
	Mode        string            `json:"mode,omitempty"`
}

// GetContentResponse is the engine entry point's output. Debug is always
// populated, full path or fallback, so callers can render degraded operation
// instead of an opaque failure.
type GetContentResponse struct {
	Items []models.ContentItem `json:"items"`
	Debug models.EngineDebug   `json:"debug"`
}

// Engine sequences the recommendation pipeline: provider fetch, catalog
// ingestion, embedding, semantic retrieval, LLM rerank, diversity selection.
// Whenever the catalog store or embeddings are unavailable it degrades to the
// legacy provider-merge path instead of failing.
type Engine struct {
	adapters        []provider.Adapter
	cache           *ContentCache
	catalog         *CatalogService
	interests       InterestsRepository
	embeddings      *EmbeddingStore
	retriever       *Retriever
	reranker        *Reranker
	metrics         observability.EngineMetrics
	logger          *slog.Logger
	fetchConcurrent int
	now             func() time.Time
}

// EngineParams configures Engine. Catalog and Interests may be nil (no
// durable store: every request takes the legacy fallback). Metrics may be
// nil. Now overrides the clock in tests.
type EngineParams struct {
	Adapters        []provider.Adapter
	Cache           *ContentCache
	Catalog         *CatalogService
	Interests       InterestsRepository
	Embeddings      *EmbeddingStore
	Retriever       *Retriever
	Reranker        *Reranker
	Metrics         observability.EngineMetrics
	Logger          *slog.Logger
	FetchConcurrent int
	Now             func() time.Time
}

// NewEngine creates an Engine.
func NewEngine(p EngineParams) *Engine {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	now := p.Now
	if now == nil {
		now = time.Now
	}

	concurrent := p.FetchConcurrent
	if concurrent <= 0 {
		concurrent = 3
	}

	return &Engine{
		adapters:        p.Adapters,
		cache:           p.Cache,
		catalog:         p.Catalog,
		interests:       p.Interests,
		embeddings:      p.Embeddings,
		retriever:       p.Retriever,
		reranker:        p.Reranker,
		metrics:         p.Metrics,
		logger:          logger,
		fetchConcurrent: concurrent,
		now:             now,
	}
}

// GetContent runs the pipeline and returns a ranked item list plus the debug
// trace. It does not return an error for degraded dependencies; the only
// errors are context cancellation during fetch.
func (e *Engine) GetContent(ctx context.Context, req GetContentRequest) (GetContentResponse, error) {
	started := e.now()

	req = normalizeRequest(req)
	debug := models.EngineDebug{}

	interests := e.resolveInterests(ctx, req.InterestIDs)

	items := e.fetchProviders(ctx, req, interests, &debug)

	// Entry guard: without a catalog store or any selected interests the
	// semantic stages have nothing to key against.
	if e.catalog == nil {
		return e.finishFallback(ctx, started, req.Limit, items, interests, fallbackReasonNoDatabase, debug), nil
	}

	if len(req.InterestIDs) == 0 {
		return e.finishFallback(ctx, started, req.Limit, items, interests, fallbackReasonNoInterests, debug), nil
	}

	ingest, err := e.catalog.Ingest(ctx, items)
	if err != nil {
		e.logger.Error("catalog ingestion failed, falling back", "error", err)

		return e.finishFallback(ctx, started, req.Limit, items, interests, fallbackReasonIngestFailed, debug), nil
	}

	debug.Ingest = &models.IngestDebug{Upserted: ingest.Upserted, Updated: ingest.Updated}

	if e.embeddings == nil || !e.embeddings.Enabled() {
		return e.finishFallback(ctx, started, req.Limit, items, interests, fallbackReasonNoEmbeddings, debug), nil
	}

	interestVecs := e.ensureInterestVectors(ctx, interests, &debug)
	contentVecs := e.ensureContentVectors(ctx, ingest.Rows, &debug)

	queryVec, err := e.retriever.QueryVector(ctx, interests, interestVecs)
	if err != nil {
		e.logger.Warn("query vector construction failed, falling back", "error", err)

		return e.finishFallback(ctx, started, req.Limit, items, interests, fallbackReasonNoQueryVector, debug), nil
	}

	retrievalStart := e.now()
	scored := e.retriever.Retrieve(queryVec, contentVecs, ingest.Rows, providerFilter(req.ProviderIDs), req.Limit)
	debug.Retrieval = &models.RetrievalDebug{
		Candidates: len(scored),
		DurationMS: e.now().Sub(retrievalStart).Milliseconds(),
	}

	ranked := e.rerankAndScore(ctx, interests, scored, &debug)

	selection := ApplyDiversity(ranked, req.Limit)
	debug.Diversity = &models.DiversityDebug{
		DroppedByProvider: selection.DroppedByProvider,
		DroppedByChannel:  selection.DroppedByChannel,
	}

	if e.metrics != nil {
		e.metrics.RecordRequest(ctx, observability.PathFull, e.now().Sub(started))
	}

	return GetContentResponse{Items: selection.Items, Debug: debug}, nil
}

// normalizeRequest dedups and sorts interest ids (cache-key stability
// regardless of caller ordering), clamps limit to [1, 20], and defaults mode.
func normalizeRequest(req GetContentRequest) GetContentRequest {
	seen := make(map[string]struct{}, len(req.InterestIDs))
	ids := make([]string, 0, len(req.InterestIDs))

	for _, id := range req.InterestIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}

		if _, ok := seen[id]; ok {
			continue
		}

		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	sort.Strings(ids)
	req.InterestIDs = ids

	if req.Limit == 0 {
		req.Limit = defaultLimit
	}

	if req.Limit < minLimit {
		req.Limit = minLimit
	} else if req.Limit > maxLimit {
		req.Limit = maxLimit
	}

	if req.Mode != "selected" {
		req.Mode = "all"
	}

	return req
}

// resolveInterests loads interest rows for the ids. Without a repository (or
// on lookup failure) it degrades to id-titled placeholders so provider
// queries still have something to search for.
func (e *Engine) resolveInterests(ctx context.Context, ids []string) []models.Interest {
	if len(ids) == 0 {
		return nil
	}

	if e.interests != nil {
		interests, err := e.interests.ListByIDs(ctx, ids)
		if err == nil && len(interests) > 0 {
			return interests
		}

		if err != nil {
			e.logger.Warn("interest lookup failed, using ids as titles", "error", err)
		}
	}

	placeholders := make([]models.Interest, len(ids))
	for i, id := range ids {
		placeholders[i] = models.Interest{ID: id, Title: id}
	}

	return placeholders
}

// fetchProviders runs one cache→fetch→store cycle per selected adapter, with
// bounded concurrency. Each cycle is self-contained: a provider's failure is
// recorded in the debug trace and contributes an empty item list, never an
// error for the request.
func (e *Engine) fetchProviders(
	ctx context.Context,
	req GetContentRequest,
	interests []models.Interest,
	debug *models.EngineDebug,
) []models.ContentItem {
	filter := providerFilter(req.ProviderIDs)

	providerReq := provider.Request{
		InterestIDs: req.InterestIDs,
		Interests:   interests,
		Locale:      req.Locale,
		Limit:       req.Limit,
		Mode:        req.Mode,
	}

	var (
		mu    sync.Mutex
		items []models.ContentItem
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(e.fetchConcurrent)

	for _, adapter := range e.adapters {
		if filter != nil && !filter[adapter.ID()] {
			continue
		}

		group.Go(func() error {
			fetched, pd := e.fetchOne(groupCtx, adapter, providerReq)

			mu.Lock()
			items = append(items, fetched...)
			debug.SetProvider(adapter.ID(), pd)
			mu.Unlock()

			return nil
		})
	}

	// Goroutines never return errors; Wait only synchronizes.
	_ = group.Wait()

	return items
}

// fetchOne serves one provider from cache when fresh, else fetches and
// refreshes the cache.
func (e *Engine) fetchOne(
	ctx context.Context, adapter provider.Adapter, req provider.Request,
) ([]models.ContentItem, models.ProviderDebug) {
	started := e.now()

	hashInput := any(req)
	if h, ok := adapter.(provider.HashInputter); ok {
		hashInput = h.HashInput(req)
	}

	hash, err := RequestHash(hashInput)
	if err != nil {
		// Hash input is engine-built data; failure here is a programming
		// error, but still degrade to a fetch rather than fail the provider.
		e.logger.Error("request hash failed", "provider", adapter.ID(), "error", err)
		hash = ""
	}

	if hash != "" {
		if cached, ok := e.cache.Lookup(ctx, adapter.ID(), hash, adapter.TTL()); ok {
			if e.metrics != nil {
				e.metrics.RecordProviderFetch(ctx, string(adapter.ID()), "cached")
			}

			return cached, models.ProviderDebug{
				Cached:     true,
				Count:      len(cached),
				DurationMS: e.now().Sub(started).Milliseconds(),
			}
		}
	}

	fetched, err := adapter.Fetch(ctx, req)
	if err != nil {
		e.logger.Warn("provider fetch failed", "provider", adapter.ID(), "error", err)

		if e.metrics != nil {
			e.metrics.RecordProviderFetch(ctx, string(adapter.ID()), "error")
		}

		return nil, models.ProviderDebug{
			Error:      err.Error(),
			DurationMS: e.now().Sub(started).Milliseconds(),
		}
	}

	if hash != "" && len(fetched) > 0 {
		e.cache.Store(ctx, adapter.ID(), hash, fetched)
	}

	if e.metrics != nil {
		e.metrics.RecordProviderFetch(ctx, string(adapter.ID()), "fetched")
	}

	return fetched, models.ProviderDebug{
		Count:      len(fetched),
		DurationMS: e.now().Sub(started).Milliseconds(),
	}
}

// ensureInterestVectors wraps the embedding store call; an API failure leaves
// the query-vector fallback to decide whether the request survives.
func (e *Engine) ensureInterestVectors(
	ctx context.Context, interests []models.Interest, debug *models.EngineDebug,
) map[string][]float32 {
	result, err := e.embeddings.EnsureInterestEmbeddings(ctx, interests)
	if err != nil {
		e.logger.Warn("interest embeddings unavailable", "error", err)

		return map[string][]float32{}
	}

	debug.Embed = &models.EmbeddingsDebug{InterestMisses: result.Missing, Model: result.Model}

	return result.Vectors
}

func (e *Engine) ensureContentVectors(
	ctx context.Context, rows []models.CatalogRow, debug *models.EngineDebug,
) map[string][]float32 {
	result, err := e.embeddings.EnsureContentEmbeddings(ctx, rows)
	if err != nil {
		e.logger.Warn("content embeddings unavailable", "error", err)

		return map[string][]float32{}
	}

	if debug.Embed == nil {
		debug.Embed = &models.EmbeddingsDebug{Model: result.Model}
	}

	debug.Embed.ContentMisses = result.Missing

	return result.Vectors
}

// rerankAndScore sends the retrieved candidates through the reranker, hard
// filters ad/off-topic items, and combines the final score.
func (e *Engine) rerankAndScore(
	ctx context.Context,
	interests []models.Interest,
	scored []ScoredRow,
	debug *models.EngineDebug,
) []models.ContentItem {
	titles := make([]string, 0, len(interests))
	for _, interest := range interests {
		titles = append(titles, interest.Title)
	}

	candidates := make([]RerankCandidate, len(scored))
	for i, sr := range scored {
		meta := sr.Row.DecodedMeta()
		candidates[i] = RerankCandidate{
			ID:           sr.Row.ItemID(),
			Title:        sr.Row.Title,
			Description:  derefOrEmpty(sr.Row.Description),
			ChannelTitle: meta.ChannelTitle,
			URL:          derefOrEmpty(sr.Row.URL),
		}
	}

	verdicts, rerankDebug := e.reranker.Rerank(ctx, titles, candidates)

	ranked := make([]models.ContentItem, 0, len(scored))

	for _, sr := range scored {
		itemID := sr.Row.ItemID()

		verdict, ok := verdicts[itemID]
		if !ok {
			continue
		}

		// Hard filter: flagged items never reach the output, whatever their score.
		if verdict.IsAd {
			rerankDebug.AdsFiltered++

			continue
		}

		if verdict.IsOfftopic {
			rerankDebug.OfftopicCount++

			continue
		}

		item := sr.Row.ToContentItem()

		score := rerankWeight*verdict.Score +
			e.recencyBoost(item.Meta.PublishedAt) +
			bonusFor(item.Provider)
		item.Score = &score

		if verdict.Reason != "" && verdict.Reason != "heuristic" {
			reason := verdict.Reason
			item.Why = &reason
		}

		ranked = append(ranked, item)
	}

	debug.LLM = &rerankDebug

	sort.SliceStable(ranked, func(i, j int) bool {
		return *ranked[i].Score > *ranked[j].Score
	})

	return ranked
}

// recencyBoost contributes up to recencyMaxBoost for content published right
// now, decaying linearly to zero at recencyWindowDays.
func (e *Engine) recencyBoost(publishedAt *time.Time) float64 {
	if publishedAt == nil {
		return 0
	}

	ageDays := e.now().Sub(*publishedAt).Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}

	if ageDays >= recencyWindowDays {
		return 0
	}

	return recencyMaxBoost * (1 - ageDays/recencyWindowDays)
}

func bonusFor(p models.Provider) float64 {
	if bonus, ok := providerBonus[p]; ok {
		return bonus
	}

	return providerBonusDefault
}

// finishFallback is the legacy merge path: provider results sorted by score
// when present (fetch order otherwise), interest titles hydrated by simple
// lookup, truncated to the request limit, and a fallback reason in the debug
// trace. No semantic or LLM stage runs.
func (e *Engine) finishFallback(
	ctx context.Context,
	started time.Time,
	limit int,
	items []models.ContentItem,
	interests []models.Interest,
	reason string,
	debug models.EngineDebug,
) GetContentResponse {
	debug.Fallback = &models.FallbackDebug{Reason: reason}

	titleByID := make(map[string]string, len(interests))
	for _, interest := range interests {
		titleByID[interest.ID] = interest.Title
	}

	for i := range items {
		if items[i].Why != nil {
			continue
		}

		titles := make([]string, 0, len(items[i].InterestIDs))

		for _, id := range items[i].InterestIDs {
			if title, ok := titleByID[id]; ok {
				titles = append(titles, title)
			}
		}

		if len(titles) > 0 {
			why := fmt.Sprintf("Matches your interests: %s", strings.Join(titles, ", "))
			items[i].Why = &why
		}
	}

	// Score-sorted when any scores exist, fetch order otherwise.
	sort.SliceStable(items, func(i, j int) bool {
		si, sj := items[i].Score, items[j].Score
		if si == nil || sj == nil {
			return sj == nil && si != nil
		}

		return *si > *sj
	})

	// The limit bounds both paths; the full path enforces it through the
	// diversity selector.
	if len(items) > limit {
		items = items[:limit]
	}

	if e.metrics != nil {
		e.metrics.RecordRequest(ctx, observability.PathFallback, e.now().Sub(started))
	}

	e.logger.Info("engine served legacy fallback", "reason", reason, "items", len(items))

	return GetContentResponse{Items: items, Debug: debug}
}

// providerFilter converts an optional provider allow-list into a set.
func providerFilter(ids []models.Provider) map[models.Provider]bool {
	if len(ids) == 0 {
		return nil
	}

	filter := make(map[models.Provider]bool, len(ids))
	for _, id := range ids {
		filter[id] = true
	}

	return filter
}
