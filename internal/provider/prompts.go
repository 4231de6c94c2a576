package provider

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/interestmap/engine/internal/models"
)

// promptsTTL is long: templates only change on deploy.
const promptsTTL = 7 * 24 * time.Hour

// promptTemplate is one reflection/exploration prompt rendered per interest.
type promptTemplate struct {
	slug     string
	title    string
	template string
}

var defaultPromptTemplates = []promptTemplate{
	{
		slug:     "deep-dive",
		title:    "Deep dive: %s",
		template: "Pick one sub-area of %s you know least about and spend 25 minutes mapping what you'd need to learn.",
	},
	{
		slug:     "teach-it",
		title:    "Teach it: %s",
		template: "Explain the most interesting thing you know about %s as if to a curious friend. Write it down in five sentences.",
	},
	{
		slug:     "cross-link",
		title:    "Connect %s to another interest",
		template: "Find one surprising connection between %s and another interest on your map, and note what it suggests to explore next.",
	},
}

// PromptsAdapter renders static prompt templates per interest. No network,
// no credentials; it exists so every result list has at least one provider
// that cannot fail.
type PromptsAdapter struct {
	templates []promptTemplate
}

var (
	_ Adapter      = (*PromptsAdapter)(nil)
	_ HashInputter = (*PromptsAdapter)(nil)
)

// NewPromptsAdapter creates the prompt adapter with the built-in templates.
func NewPromptsAdapter() *PromptsAdapter {
	return &PromptsAdapter{templates: defaultPromptTemplates}
}

// ID implements Adapter.
func (a *PromptsAdapter) ID() models.Provider { return models.ProviderPrompts }

// TTL implements Adapter.
func (a *PromptsAdapter) TTL() time.Duration { return promptsTTL }

// HashInput narrows the cache key to the interest ids: rendered prompts do not
// depend on locale, limit, or mode.
func (a *PromptsAdapter) HashInput(req Request) any {
	return map[string]any{"interest_ids": req.InterestIDs}
}

// Fetch renders every template for every interest.
func (a *PromptsAdapter) Fetch(_ context.Context, req Request) ([]models.ContentItem, error) {
	var items []models.ContentItem

	for _, interest := range req.Interests {
		for _, tpl := range a.templates {
			// Native id must be stable across fetches for dedup: derive it
			// from the template slug and interest id, not from randomness.
			sum := sha256.Sum256([]byte(tpl.slug + ":" + interest.ID))
			nativeID := tpl.slug + "-" + hex.EncodeToString(sum[:6])

			items = append(items, models.ContentItem{
				ID:          models.ComposeItemID(models.ProviderPrompts, nativeID),
				Provider:    models.ProviderPrompts,
				Type:        models.ContentTypePrompt,
				Title:       fmt.Sprintf(tpl.title, interest.Title),
				Description: fmt.Sprintf(tpl.template, interest.Title),
				Meta: models.ContentMeta{
					Source: "prompts",
					Extra:  map[string]any{"template": tpl.slug},
				},
				InterestIDs: []string{interest.ID},
			})
		}
	}

	return items, nil
}
