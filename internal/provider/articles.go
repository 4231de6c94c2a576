package provider

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"github.com/interestmap/engine/internal/models"
)

const articlesPerQuery = 6

// ArticlesAdapter fetches articles from a configured feed endpoint that
// accepts `?q=<query>&limit=<n>` and returns a JSON article list. When no
// feed URL is configured it returns empty results.
type ArticlesAdapter struct {
	feedURL string
	client  *retryablehttp.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

var _ Adapter = (*ArticlesAdapter)(nil)

// NewArticlesAdapter creates the article adapter. feedURL may be empty
// (adapter disabled).
func NewArticlesAdapter(feedURL string, logger *slog.Logger) *ArticlesAdapter {
	if logger == nil {
		logger = slog.Default()
	}

	return &ArticlesAdapter{
		feedURL: strings.TrimSuffix(feedURL, "/"),
		client:  newRetryClient(),
		limiter: rate.NewLimiter(rate.Limit(5), 5),
		logger:  logger.With("provider", models.ProviderArticles),
	}
}

// ID implements Adapter.
func (a *ArticlesAdapter) ID() models.Provider { return models.ProviderArticles }

// TTL implements Adapter.
func (a *ArticlesAdapter) TTL() time.Duration { return DefaultTTL }

type articleFeedResponse struct {
	Articles []struct {
		ID          string `json:"id"`
		Title       string `json:"title"`
		Summary     string `json:"summary"`
		URL         string `json:"url"`
		Image       string `json:"image"`
		Source      string `json:"source"`
		Language    string `json:"language"`
		PublishedAt string `json:"published_at"`
	} `json:"articles"`
}

// Fetch queries the feed once per interest and normalizes the results.
func (a *ArticlesAdapter) Fetch(ctx context.Context, req Request) ([]models.ContentItem, error) {
	if a.feedURL == "" {
		a.logger.Debug("articles adapter disabled, no feed URL")

		return nil, nil
	}

	var items []models.ContentItem

	for _, interest := range req.Interests {
		params := url.Values{}
		params.Set("q", interest.Title)
		params.Set("limit", fmt.Sprint(articlesPerQuery))

		if req.Locale != "" {
			params.Set("lang", req.Locale)
		}

		var resp articleFeedResponse
		if err := getJSON(ctx, a.client, a.limiter, a.feedURL+"?"+params.Encode(), nil, &resp); err != nil {
			return nil, fmt.Errorf("article feed %q: %w", interest.Title, err)
		}

		for _, article := range resp.Articles {
			if article.ID == "" || article.Title == "" {
				continue
			}

			meta := models.ContentMeta{
				Source:   article.Source,
				Language: article.Language,
			}

			if publishedAt, err := time.Parse(time.RFC3339, article.PublishedAt); err == nil {
				meta.PublishedAt = &publishedAt
			}

			items = append(items, models.ContentItem{
				ID:          models.ComposeItemID(models.ProviderArticles, article.ID),
				Provider:    models.ProviderArticles,
				Type:        models.ContentTypeArticle,
				Title:       article.Title,
				Description: article.Summary,
				URL:         article.URL,
				Image:       article.Image,
				Meta:        meta,
				InterestIDs: []string{interest.ID},
			})
		}
	}

	a.logger.Debug("articles fetch complete", "items", len(items), "interests", len(req.Interests))

	return items, nil
}
