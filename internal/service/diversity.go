package service

import "github.com/interestmap/engine/internal/models"

// Diversity run-length caps: at most 2 consecutive items per provider, and a
// channel title never repeats back-to-back.
const (
	maxProviderStreak = 2
	maxChannelStreak  = 1
)

// Selection is the diversity selector's output: the final ordered items and
// drop counts for the debug trace.
type Selection struct {
	Items             []models.ContentItem
	DroppedByProvider int
	DroppedByChannel  int
}

// ApplyDiversity greedily selects up to limit items from score-descending
// candidates while capping consecutive runs from the same provider and the
// same channel. A rejected candidate is skipped, not terminal: later
// candidates still get their chance. This is not a round-robin interleave:
// high-scoring same-provider items still cluster, just never more than 2 in a
// row, and a channel never repeats back-to-back.
func ApplyDiversity(candidates []models.ContentItem, limit int) Selection {
	selection := Selection{Items: make([]models.ContentItem, 0, limit)}

	var (
		lastProvider   models.Provider
		providerStreak int
		lastChannel    string
		channelStreak  int
	)

	for _, candidate := range candidates {
		if len(selection.Items) >= limit {
			break
		}

		if candidate.Provider == lastProvider && providerStreak >= maxProviderStreak {
			selection.DroppedByProvider++

			continue
		}

		channel := candidate.Meta.ChannelTitle
		if channel != "" && channel == lastChannel && channelStreak >= maxChannelStreak {
			selection.DroppedByChannel++

			continue
		}

		if candidate.Provider == lastProvider {
			providerStreak++
		} else {
			lastProvider = candidate.Provider
			providerStreak = 1
		}

		if channel != "" && channel == lastChannel {
			channelStreak++
		} else {
			lastChannel = channel
			channelStreak = 1
		}

		selection.Items = append(selection.Items, candidate)
	}

	return selection
}
