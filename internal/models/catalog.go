package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// CatalogRow is the durable record of an ingested content item, keyed by
// (provider, provider_item_id). The surrogate ID is the join key for the
// embeddings table. Rows are upsert-only; the engine never deletes them.
type CatalogRow struct {
	ID             uuid.UUID       `json:"id"`
	Provider       Provider        `json:"provider"`
	ProviderItemID string          `json:"provider_item_id"`
	Type           ContentType     `json:"type"`
	Title          string          `json:"title"`
	Description    *string         `json:"description,omitempty"`
	URL            *string         `json:"url,omitempty"`
	Image          *string         `json:"image,omitempty"`
	Meta           json.RawMessage `json:"meta,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// CatalogRowMeta is the decoded shape of CatalogRow.Meta: the item's original
// meta bag plus the interest ids the item was attributed to, so a row can be
// hydrated back into a ContentItem without re-fetching the source.
type CatalogRowMeta struct {
	ChannelTitle string         `json:"channel_title,omitempty"`
	PublishedAt  *time.Time     `json:"published_at,omitempty"`
	Language     string         `json:"language,omitempty"`
	Source       string         `json:"source,omitempty"`
	Extra        map[string]any `json:"extra,omitempty"`
	InterestIDs  []string       `json:"interest_ids,omitempty"`
}

// DecodedMeta parses the row's meta bag. A missing or malformed bag yields the
// zero value rather than an error; meta is advisory display data.
func (r *CatalogRow) DecodedMeta() CatalogRowMeta {
	var meta CatalogRowMeta
	if len(r.Meta) > 0 {
		_ = json.Unmarshal(r.Meta, &meta)
	}

	return meta
}

// ItemID returns the composite content item id for this row.
func (r *CatalogRow) ItemID() string {
	return ComposeItemID(r.Provider, r.ProviderItemID)
}

// ToContentItem hydrates the row back into a normalized content item.
func (r *CatalogRow) ToContentItem() ContentItem {
	meta := r.DecodedMeta()

	item := ContentItem{
		ID:       r.ItemID(),
		Provider: r.Provider,
		Type:     r.Type,
		Title:    r.Title,
		Meta: ContentMeta{
			ChannelTitle: meta.ChannelTitle,
			PublishedAt:  meta.PublishedAt,
			Language:     meta.Language,
			Source:       meta.Source,
			Extra:        meta.Extra,
		},
		InterestIDs: meta.InterestIDs,
	}

	if r.Description != nil {
		item.Description = *r.Description
	}

	if r.URL != nil {
		item.URL = *r.URL
	}

	if r.Image != nil {
		item.Image = *r.Image
	}

	return item
}
