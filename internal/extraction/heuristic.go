package extraction

import (
	"context"
	"regexp"
	"strings"

	"github.com/abhinavmusrif/kinetic-os/internal/domain"
)

// heuristicConfidence is the confidence assigned to pattern-matched claims.
// Deliberately below the corroboration ceiling: a single regex hit is weak
// evidence.
const heuristicConfidence = 0.6

type preferencePattern struct {
	re       *regexp.Regexp
	verb     string
	polarity domain.Polarity
}

// Intervening adverbs ("really love") are skipped and a trailing "now"
// ("hate lo-fi music now") is kept out of the topic, so restatements of a
// preference land on the same subject as the original.
var preferencePatterns = []preferencePattern{
	{regexp.MustCompile(`(?i)\bi\s+(?:[a-z]+ly\s+)?love\s+([a-zA-Z0-9\- ]+?)\s*(?:\band\b|\bnow\b|[.,;!]|$)`), "likes", domain.PolarityPositive},
	{regexp.MustCompile(`(?i)\bi\s+(?:[a-z]+ly\s+)?like\s+([a-zA-Z0-9\- ]+?)\s*(?:\band\b|\bnow\b|[.,;!]|$)`), "likes", domain.PolarityPositive},
	{regexp.MustCompile(`(?i)\bi\s+(?:[a-z]+ly\s+)?prefer\s+([a-zA-Z0-9\- ]+?)\s*(?:\band\b|\bnow\b|[.,;!]|$)`), "likes", domain.PolarityPositive},
	{regexp.MustCompile(`(?i)\bi\s+(?:[a-z]+ly\s+)?dislike\s+([a-zA-Z0-9\- ]+?)\s*(?:\band\b|\bnow\b|[.,;!]|$)`), "dislikes", domain.PolarityNegative},
	{regexp.MustCompile(`(?i)\bi\s+(?:[a-z]+ly\s+)?hate\s+([a-zA-Z0-9\- ]+?)\s*(?:\band\b|\bnow\b|[.,;!]|$)`), "dislikes", domain.PolarityNegative},
}

// HeuristicExtractor mines candidate claims with deterministic pattern
// rules. It is the offline fallback for the replay miner: no network, no
// key, same output shape as the LLM-backed client.
type HeuristicExtractor struct{}

func NewHeuristicExtractor() *HeuristicExtractor {
	return &HeuristicExtractor{}
}

func (e *HeuristicExtractor) ExtractClaims(_ context.Context, text string) ([]domain.CandidateClaim, error) {
	var claims []domain.CandidateClaim
	seen := make(map[string]bool)

	for _, p := range preferencePatterns {
		m := p.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		topic := strings.TrimRight(strings.TrimSpace(m[1]), ".")
		if topic == "" {
			continue
		}
		subject := domain.NormalizeSubject(topic)
		if seen[subject+"/"+p.verb] {
			continue
		}
		seen[subject+"/"+p.verb] = true
		claims = append(claims, domain.CandidateClaim{
			Statement:  "User likely " + p.verb + " " + topic,
			Subject:    subject,
			Polarity:   p.polarity,
			Confidence: heuristicConfidence,
		})
	}

	return claims, nil
}
