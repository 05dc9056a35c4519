package algorithms

import (
	"strings"
)

// LevenshteinDistance computes the standard Levenshtein edit distance
// between two strings, operating on runes.
func LevenshteinDistance(s1, s2 string) int {
	r1 := []rune(s1)
	r2 := []rune(s2)
	len1 := len(r1)
	len2 := len(r2)

	if len1 == 0 {
		return len2
	}
	if len2 == 0 {
		return len1
	}

	// Single-column variant to avoid allocating the full matrix.
	column := make([]int, len1+1)
	for i := 1; i <= len1; i++ {
		column[i] = i
	}

	for x := 1; x <= len2; x++ {
		column[0] = x
		lastDiag := x - 1
		for y := 1; y <= len1; y++ {
			oldDiag := column[y]
			cost := 0
			if r1[y-1] != r2[x-1] {
				cost = 1
			}
			column[y] = min3(column[y]+1, column[y-1]+1, lastDiag+cost)
			lastDiag = oldDiag
		}
	}

	return column[len1]
}

// LevenshteinSimilarity converts edit distance into a symmetric
// similarity ratio in [0, 1]. Two empty strings are identical.
func LevenshteinSimilarity(s1, s2 string) float64 {
	maxLen := len([]rune(s1))
	if l2 := len([]rune(s2)); l2 > maxLen {
		maxLen = l2
	}
	if maxLen == 0 {
		return 1.0
	}

	distance := LevenshteinDistance(s1, s2)
	return 1.0 - float64(distance)/float64(maxLen)
}

// NormalizedSimilarity lowercases and trims both inputs before computing
// the Levenshtein ratio. This is the comparison used for display labels,
// where case and surrounding whitespace carry no meaning.
func NormalizedSimilarity(s1, s2 string) float64 {
	n1 := strings.ToLower(strings.TrimSpace(s1))
	n2 := strings.ToLower(strings.TrimSpace(s2))

	if n1 == n2 {
		return 1.0
	}

	return LevenshteinSimilarity(n1, n2)
}

func min3(a, b, c int) int {
	if a < b {
		if a < c {
			return a
		}
		return c
	}
	if b < c {
		return b
	}
	return c
}
