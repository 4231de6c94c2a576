package provider

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"github.com/interestmap/engine/internal/models"
)

const (
	youtubeSearchURL       = "https://www.googleapis.com/youtube/v3/search"
	youtubeResultsPerQuery = 5
)

// YouTubeAdapter fetches videos from the YouTube Data API, one search per
// interest. When no API key is configured it returns empty results.
type YouTubeAdapter struct {
	apiKey  string
	client  *retryablehttp.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

var _ Adapter = (*YouTubeAdapter)(nil)

// NewYouTubeAdapter creates the video adapter. apiKey may be empty (adapter
// disabled, fetches return nothing).
func NewYouTubeAdapter(apiKey string, logger *slog.Logger) *YouTubeAdapter {
	if logger == nil {
		logger = slog.Default()
	}

	return &YouTubeAdapter{
		apiKey:  apiKey,
		client:  newRetryClient(),
		limiter: rate.NewLimiter(rate.Limit(5), 5),
		logger:  logger.With("provider", models.ProviderYouTube),
	}
}

// ID implements Adapter.
func (a *YouTubeAdapter) ID() models.Provider { return models.ProviderYouTube }

// TTL implements Adapter.
func (a *YouTubeAdapter) TTL() time.Duration { return DefaultTTL }

type youtubeSearchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title        string `json:"title"`
			Description  string `json:"description"`
			ChannelTitle string `json:"channelTitle"`
			PublishedAt  string `json:"publishedAt"`
			Thumbnails   struct {
				High struct {
					URL string `json:"url"`
				} `json:"high"`
			} `json:"thumbnails"`
		} `json:"snippet"`
	} `json:"items"`
}

// Fetch searches YouTube once per interest and normalizes the results.
// A failing query fails the whole fetch; the engine isolates it per provider.
func (a *YouTubeAdapter) Fetch(ctx context.Context, req Request) ([]models.ContentItem, error) {
	if a.apiKey == "" {
		a.logger.Debug("youtube adapter disabled, no API key")

		return nil, nil
	}

	var items []models.ContentItem

	for _, interest := range req.Interests {
		params := url.Values{}
		params.Set("part", "snippet")
		params.Set("type", "video")
		params.Set("maxResults", fmt.Sprint(youtubeResultsPerQuery))
		params.Set("q", interest.Title)
		params.Set("key", a.apiKey)

		if req.Locale != "" {
			params.Set("relevanceLanguage", req.Locale)
		}

		var resp youtubeSearchResponse
		if err := getJSON(ctx, a.client, a.limiter, youtubeSearchURL+"?"+params.Encode(), nil, &resp); err != nil {
			return nil, fmt.Errorf("youtube search %q: %w", interest.Title, err)
		}

		for _, entry := range resp.Items {
			if entry.ID.VideoID == "" {
				continue
			}

			meta := models.ContentMeta{
				ChannelTitle: entry.Snippet.ChannelTitle,
				Source:       "youtube",
			}

			if publishedAt, err := time.Parse(time.RFC3339, entry.Snippet.PublishedAt); err == nil {
				meta.PublishedAt = &publishedAt
			}

			items = append(items, models.ContentItem{
				ID:          models.ComposeItemID(models.ProviderYouTube, entry.ID.VideoID),
				Provider:    models.ProviderYouTube,
				Type:        models.ContentTypeVideo,
				Title:       entry.Snippet.Title,
				Description: entry.Snippet.Description,
				URL:         "https://www.youtube.com/watch?v=" + entry.ID.VideoID,
				Image:       entry.Snippet.Thumbnails.High.URL,
				Meta:        meta,
				InterestIDs: []string{interest.ID},
			})
		}
	}

	a.logger.Debug("youtube fetch complete", "items", len(items), "interests", len(req.Interests))

	return items, nil
}
