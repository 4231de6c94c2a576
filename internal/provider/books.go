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

const (
	openLibrarySearchURL = "https://openlibrary.org/search.json"
	booksPerQuery        = 4
)

// BooksAdapter fetches books from the Open Library search API, one query per
// interest. No credentials required.
type BooksAdapter struct {
	client  *retryablehttp.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

var (
	_ Adapter      = (*BooksAdapter)(nil)
	_ HashInputter = (*BooksAdapter)(nil)
)

// NewBooksAdapter creates the book adapter.
func NewBooksAdapter(logger *slog.Logger) *BooksAdapter {
	if logger == nil {
		logger = slog.Default()
	}

	return &BooksAdapter{
		client:  newRetryClient(),
		limiter: rate.NewLimiter(rate.Limit(2), 2),
		logger:  logger.With("provider", models.ProviderBooks),
	}
}

// ID implements Adapter.
func (a *BooksAdapter) ID() models.Provider { return models.ProviderBooks }

// TTL implements Adapter.
func (a *BooksAdapter) TTL() time.Duration { return DefaultTTL }

// HashInput narrows the cache key to the fields the Open Library query
// actually depends on: interest titles and nothing else. Locale and mode
// changes must not bust the book cache.
func (a *BooksAdapter) HashInput(req Request) any {
	return map[string]any{"titles": interestTitles(req)}
}

type openLibraryResponse struct {
	Docs []struct {
		Key              string   `json:"key"`
		Title            string   `json:"title"`
		AuthorName       []string `json:"author_name"`
		FirstPublishYear int      `json:"first_publish_year"`
		CoverI           int64    `json:"cover_i"`
		Language         []string `json:"language"`
	} `json:"docs"`
}

// Fetch queries Open Library once per interest and normalizes the results.
func (a *BooksAdapter) Fetch(ctx context.Context, req Request) ([]models.ContentItem, error) {
	var items []models.ContentItem

	for _, interest := range req.Interests {
		params := url.Values{}
		params.Set("q", interest.Title)
		params.Set("limit", fmt.Sprint(booksPerQuery))
		params.Set("fields", "key,title,author_name,first_publish_year,cover_i,language")

		var resp openLibraryResponse
		if err := getJSON(ctx, a.client, a.limiter, openLibrarySearchURL+"?"+params.Encode(), nil, &resp); err != nil {
			return nil, fmt.Errorf("open library search %q: %w", interest.Title, err)
		}

		for _, doc := range resp.Docs {
			// Work keys look like "/works/OL12345W"; the trailing segment is the native id.
			nativeID := strings.TrimPrefix(doc.Key, "/works/")
			if nativeID == "" {
				continue
			}

			meta := models.ContentMeta{Source: "openlibrary"}

			if len(doc.AuthorName) > 0 {
				meta.ChannelTitle = doc.AuthorName[0]
			}

			if len(doc.Language) > 0 {
				meta.Language = doc.Language[0]
			}

			if doc.FirstPublishYear > 0 {
				meta.Extra = map[string]any{"first_publish_year": doc.FirstPublishYear}
			}

			var image string
			if doc.CoverI > 0 {
				image = fmt.Sprintf("https://covers.openlibrary.org/b/id/%d-M.jpg", doc.CoverI)
			}

			items = append(items, models.ContentItem{
				ID:          models.ComposeItemID(models.ProviderBooks, nativeID),
				Provider:    models.ProviderBooks,
				Type:        models.ContentTypeBook,
				Title:       doc.Title,
				Description: strings.Join(doc.AuthorName, ", "),
				URL:         "https://openlibrary.org" + doc.Key,
				Image:       image,
				Meta:        meta,
				InterestIDs: []string{interest.ID},
			})
		}
	}

	a.logger.Debug("books fetch complete", "items", len(items), "interests", len(req.Interests))

	return items, nil
}
