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

// TelegramAdapter fetches channel recommendations from a configured channel
// directory endpoint (`?topic=<query>` returning a JSON channel list). When no
// directory URL is configured it returns empty results.
type TelegramAdapter struct {
	directoryURL string
	client       *retryablehttp.Client
	limiter      *rate.Limiter
	logger       *slog.Logger
}

var _ Adapter = (*TelegramAdapter)(nil)

// NewTelegramAdapter creates the channel adapter. directoryURL may be empty
// (adapter disabled).
func NewTelegramAdapter(directoryURL string, logger *slog.Logger) *TelegramAdapter {
	if logger == nil {
		logger = slog.Default()
	}

	return &TelegramAdapter{
		directoryURL: strings.TrimSuffix(directoryURL, "/"),
		client:       newRetryClient(),
		limiter:      rate.NewLimiter(rate.Limit(3), 3),
		logger:       logger.With("provider", models.ProviderTelegram),
	}
}

// ID implements Adapter.
func (a *TelegramAdapter) ID() models.Provider { return models.ProviderTelegram }

// TTL implements Adapter.
func (a *TelegramAdapter) TTL() time.Duration { return DefaultTTL }

type telegramDirectoryResponse struct {
	Channels []struct {
		Username    string `json:"username"`
		Title       string `json:"title"`
		Description string `json:"description"`
		Image       string `json:"image"`
		Language    string `json:"language"`
	} `json:"channels"`
}

// Fetch queries the directory once per interest and normalizes the results.
func (a *TelegramAdapter) Fetch(ctx context.Context, req Request) ([]models.ContentItem, error) {
	if a.directoryURL == "" {
		a.logger.Debug("telegram adapter disabled, no directory URL")

		return nil, nil
	}

	var items []models.ContentItem

	for _, interest := range req.Interests {
		params := url.Values{}
		params.Set("topic", interest.Title)

		var resp telegramDirectoryResponse
		if err := getJSON(ctx, a.client, a.limiter, a.directoryURL+"?"+params.Encode(), nil, &resp); err != nil {
			return nil, fmt.Errorf("telegram directory %q: %w", interest.Title, err)
		}

		for _, channel := range resp.Channels {
			if channel.Username == "" {
				continue
			}

			items = append(items, models.ContentItem{
				ID:          models.ComposeItemID(models.ProviderTelegram, channel.Username),
				Provider:    models.ProviderTelegram,
				Type:        models.ContentTypeChannel,
				Title:       channel.Title,
				Description: channel.Description,
				URL:         "https://t.me/" + channel.Username,
				Image:       channel.Image,
				Meta: models.ContentMeta{
					ChannelTitle: channel.Title,
					Language:     channel.Language,
					Source:       "telegram",
				},
				InterestIDs: []string{interest.ID},
			})
		}
	}

	a.logger.Debug("telegram fetch complete", "items", len(items), "interests", len(req.Interests))

	return items, nil
}
