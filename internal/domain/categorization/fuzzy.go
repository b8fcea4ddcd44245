package categorization

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// minFuzzyScore is the lowest similarity accepted as a match for a typed label.
const minFuzzyScore = 80

// bestFuzzyMatch returns the index of the candidate most similar to query and
// its score, or -1 when no candidate reaches minFuzzyScore. Ties keep the earliest candidate.
func bestFuzzyMatch(query string, candidates []string) (int, int) {
	normalized := normalizeLabel(query)
	if normalized == "" {
		return -1, 0
	}

	bestIdx, bestScore := -1, 0
	for i, c := range candidates {
		score := fuzzyScore(normalized, normalizeLabel(c))
		if score > bestScore {
			bestIdx, bestScore = i, score
		}
	}
	if bestScore < minFuzzyScore {
		return -1, bestScore
	}
	return bestIdx, bestScore
}

func normalizeLabel(s string) string {
	return strings.Join(strings.Fields(strings.ToUpper(s)), " ")
}

// fuzzyScore calculates a similarity score between 0 and 100
// Uses a combination of containment checks, Levenshtein distance, and fuzzy ranking
func fuzzyScore(s1, s2 string) int {
	if s1 == s2 {
		return 100
	}

	// Typed prefixes such as "dining" for "Dining out" are the common case.
	if strings.Contains(s1, s2) {
		return 75 + (25 * len(s2) / len(s1))
	}
	if strings.Contains(s2, s1) {
		return 75 + (25 * len(s1) / len(s2))
	}

	distance := levenshteinDistance(s1, s2)
	maxLen := len([]rune(s1))
	if l := len([]rune(s2)); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 0
	}
	levenshteinScore := 100 * (maxLen - distance) / maxLen

	// Subsequence matching, e.g. "sbscrptns" against "subscriptions"
	rank := fuzzy.RankMatch(s1, s2)
	fuzzyLibScore := 0
	if rank >= 0 && rank < len(s2) {
		fuzzyLibScore = 60 - (rank * 40 / len(s2))
	}

	if levenshteinScore > fuzzyLibScore {
		return levenshteinScore
	}
	return fuzzyLibScore
}

// levenshteinDistance calculates the edit distance between two strings
func levenshteinDistance(s1, s2 string) int {
	r1 := []rune(s1)
	r2 := []rune(s2)
	if len(r1) == 0 {
		return len(r2)
	}
	if len(r2) == 0 {
		return len(r1)
	}

	prev := make([]int, len(r2)+1)
	curr := make([]int, len(r2)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(r1); i++ {
		curr[0] = i
		for j := 1; j <= len(r2); j++ {
			cost := 1
			if r1[i-1] == r2[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(r2)]
}
