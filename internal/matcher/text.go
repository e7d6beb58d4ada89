package matcher

import (
	"strings"

	"github.com/agnivade/levenshtein"

	"ar-reconciliation-service/internal/models"
)

// JaccardSimilarity computes token-set overlap between two strings.
// Tokens are lowercased and whitespace-split. Returns 0 when either
// side has no tokens.
func JaccardSimilarity(a, b string) float64 {
	tokensA := tokenize(a)
	tokensB := tokenize(b)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0
	}

	intersection := 0
	for token := range tokensA {
		if tokensB[token] {
			intersection++
		}
	}
	union := len(tokensA) + len(tokensB) - intersection

	return float64(intersection) / float64(union)
}

func tokenize(s string) map[string]bool {
	tokens := make(map[string]bool)
	for _, token := range strings.Fields(strings.ToLower(s)) {
		tokens[token] = true
	}
	return tokens
}

// LevenshteinRatio converts edit distance into a 0..1 similarity
func LevenshteinRatio(a, b string) float64 {
	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 0
	}

	distance := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(distance)/float64(maxLen)
}

// TextSimilarity blends token overlap with edit distance. Token overlap
// dominates so reordered words still score well, while the edit
// distance component rewards near-identical spellings.
func TextSimilarity(a, b string) float64 {
	a = strings.ToLower(models.CleanText(a))
	b = strings.ToLower(models.CleanText(b))
	if a == "" || b == "" {
		return 0
	}

	blended := 0.6*JaccardSimilarity(a, b) + 0.4*LevenshteinRatio(a, b)
	return clamp01(blended)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
