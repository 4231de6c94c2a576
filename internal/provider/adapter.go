// Package provider contains the per-source content adapters: each one fetches
// from an external service (or static data) and returns normalized content
// items. Adapters fail independently; the engine records a failing provider's
// error and continues with the others.
package provider

import (
	"context"
	"time"

	"github.com/interestmap/engine/internal/models"
)

// Request describes one fetch against a provider. Interests carry the
// resolved titles/synonyms for the requested InterestIDs so adapters can
// build source queries without their own interest lookups.
type Request struct {
	InterestIDs []string          `json:"interest_ids"`
	Interests   []models.Interest `json:"-"`
	Locale      string            `json:"locale,omitempty"`
	Limit       int               `json:"limit,omitempty"`
	Mode        string            `json:"mode,omitempty"`
}

// Adapter is one content source. TTL is how long a cached fetch result for
// this provider stays fresh.
type Adapter interface {
	ID() models.Provider
	TTL() time.Duration
	Fetch(ctx context.Context, req Request) ([]models.ContentItem, error)
}

// HashInputter lets an adapter override what the cache key is derived from.
// Adapters whose source query depends on only a subset of the request fields
// implement it so irrelevant field changes don't bust the cache.
type HashInputter interface {
	HashInput(req Request) any
}

// DefaultTTL is the cache freshness window for static-ish sources.
const DefaultTTL = 12 * time.Hour

// interestTitles returns the titles of the request's resolved interests.
func interestTitles(req Request) []string {
	titles := make([]string, 0, len(req.Interests))
	for _, interest := range req.Interests {
		titles = append(titles, interest.Title)
	}

	return titles
}
