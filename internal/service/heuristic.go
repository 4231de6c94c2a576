package service

import (
	"strings"

	"github.com/interestmap/engine/internal/models"
)

// Heuristic scoring weights. Base plus the on-topic bonus reaches 0.7; an ad
// match pulls the score down without zeroing it.
const (
	heuristicBase         = 0.4
	heuristicOnTopicBonus = 0.3
	heuristicAdPenalty    = 0.2
)

// adKeywords are promotional phrases common in the product's source content
// (webinar/meetup/discount/coupon announcements).
var adKeywords = []string{
	"вебинар",
	"митап",
	"регистрация",
	"скидка",
	"купон",
	"приглашаем",
	"промокод",
}

// adDomains are link shorteners and promo landing hosts; a URL containing one
// is treated as advertising regardless of text.
var adDomains = []string{
	"bit.ly",
	"clck.ru",
	"taplink.cc",
	"tglink.io",
}

// HeuristicScore scores one candidate without an LLM: base 0.4, +0.3 when any
// interest title appears as a substring of title+description (case
// insensitive), -0.2 on an advertising match, clamped to [0,1]. Off-topic and
// ad candidates are flagged so the hard filter applies to heuristic batches
// the same way it applies to LLM ones.
func HeuristicScore(interestTitles []string, candidate RerankCandidate) models.RerankResult {
	text := strings.ToLower(candidate.Title + " " + candidate.Description)

	offtopic := true

	for _, title := range interestTitles {
		title = strings.ToLower(strings.TrimSpace(title))
		if title != "" && strings.Contains(text, title) {
			offtopic = false

			break
		}
	}

	isAd := matchesAdPattern(text, candidate.URL)

	score := heuristicBase
	if !offtopic {
		score += heuristicOnTopicBonus
	}

	if isAd {
		score -= heuristicAdPenalty
	}

	if score < 0 {
		score = 0
	} else if score > 1 {
		score = 1
	}

	return models.RerankResult{
		ID:         candidate.ID,
		Score:      score,
		IsAd:       isAd,
		IsOfftopic: offtopic,
		Reason:     "heuristic",
	}
}

func matchesAdPattern(lowerText, url string) bool {
	for _, keyword := range adKeywords {
		if strings.Contains(lowerText, keyword) {
			return true
		}
	}

	lowerURL := strings.ToLower(url)
	for _, domain := range adDomains {
		if strings.Contains(lowerURL, domain) {
			return true
		}
	}

	return false
}
