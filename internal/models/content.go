// Package models defines the data model shared by the engine's repositories and services.
package models

import (
	"strings"
	"time"
)

// Provider identifies an external content source adapter.
type Provider string

// Known providers. The set is closed: catalog rows and cache rows key on it.
const (
	ProviderYouTube  Provider = "youtube"
	ProviderBooks    Provider = "books"
	ProviderArticles Provider = "articles"
	ProviderTelegram Provider = "telegram"
	ProviderPrompts  Provider = "prompts"
)

// AllProviders lists every known provider in fetch order.
func AllProviders() []Provider {
	return []Provider{ProviderYouTube, ProviderBooks, ProviderArticles, ProviderTelegram, ProviderPrompts}
}

// Valid reports whether p is one of the known providers.
func (p Provider) Valid() bool {
	switch p {
	case ProviderYouTube, ProviderBooks, ProviderArticles, ProviderTelegram, ProviderPrompts:
		return true
	}

	return false
}

// ContentType is the kind of content an item represents. Mostly aligned with
// the provider that produced it, but independent (e.g. an article provider may
// surface a video).
type ContentType string

// Known content types.
const (
	ContentTypeVideo   ContentType = "video"
	ContentTypeBook    ContentType = "book"
	ContentTypeArticle ContentType = "article"
	ContentTypeChannel ContentType = "channel"
	ContentTypePrompt  ContentType = "prompt"
)

// ContentMeta holds provider-specific display fields. Extra carries
// passthrough fields not yet modeled as typed fields.
type ContentMeta struct {
	ChannelTitle string         `json:"channel_title,omitempty"`
	PublishedAt  *time.Time     `json:"published_at,omitempty"`
	Language     string         `json:"language,omitempty"`
	Source       string         `json:"source,omitempty"`
	Extra        map[string]any `json:"extra,omitempty"`
}

// ContentItem is a normalized recommendation candidate.
//
// ID is a composite of provider and the provider-native id ("youtube:abc123")
// and must be stable across repeated fetches of the same underlying source
// item; ingestion dedups on it.
type ContentItem struct {
	ID          string      `json:"id"`
	Provider    Provider    `json:"provider"`
	Type        ContentType `json:"type"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	URL         string      `json:"url,omitempty"`
	Image       string      `json:"image,omitempty"`
	Meta        ContentMeta `json:"meta"`
	InterestIDs []string    `json:"interest_ids,omitempty"`
	Why         *string     `json:"why,omitempty"`
	Score       *float64    `json:"score,omitempty"`
	CachedAt    *time.Time  `json:"cached_at,omitempty"`
}

// ProviderItemID returns the provider-native id: the composite ID with the
// provider prefix stripped when present, else the raw ID.
func (c *ContentItem) ProviderItemID() string {
	prefix := string(c.Provider) + ":"
	if rest, ok := strings.CutPrefix(c.ID, prefix); ok && rest != "" {
		return rest
	}

	return c.ID
}

// ComposeItemID builds the composite item id from a provider and its native id.
func ComposeItemID(provider Provider, nativeID string) string {
	return string(provider) + ":" + nativeID
}
