package algorithms

import (
	"strings"
	"sync"
)

// PrefixIndex buckets strings by a short normalized prefix so that batch
// pairwise comparisons only run expensive similarity math inside a
// bucket. Strings with unrelated prefixes are almost never duplicates of
// each other, so the index cheaply prunes the candidate space.
type PrefixIndex struct {
	index        map[string][]int
	prefixLength int
	minLength    int
	mu           sync.RWMutex
}

// NewPrefixIndex creates an index with the given prefix length. Strings
// shorter than the prefix are grouped into a single shared bucket so they
// still get compared against each other.
func NewPrefixIndex(prefixLength int) *PrefixIndex {
	if prefixLength <= 0 {
		prefixLength = 3
	}
	return &PrefixIndex{
		index:        make(map[string][]int),
		prefixLength: prefixLength,
		minLength:    prefixLength,
	}
}

// Add registers text under the caller-chosen numeric id.
func (pi *PrefixIndex) Add(id int, text string) {
	prefix := pi.prefixOf(text)

	pi.mu.Lock()
	pi.index[prefix] = append(pi.index[prefix], id)
	pi.mu.Unlock()
}

// Candidates returns the ids sharing a prefix bucket with text,
// excluding the given id itself.
func (pi *PrefixIndex) Candidates(id int, text string) []int {
	prefix := pi.prefixOf(text)

	pi.mu.RLock()
	defer pi.mu.RUnlock()

	bucket := pi.index[prefix]
	out := make([]int, 0, len(bucket))
	for _, other := range bucket {
		if other != id {
			out = append(out, other)
		}
	}
	return out
}

// Buckets returns every bucket of ids, for callers that walk all
// intra-bucket pairs (the deduplicator scan).
func (pi *PrefixIndex) Buckets() [][]int {
	pi.mu.RLock()
	defer pi.mu.RUnlock()

	out := make([][]int, 0, len(pi.index))
	for _, bucket := range pi.index {
		if len(bucket) > 1 {
			cp := make([]int, len(bucket))
			copy(cp, bucket)
			out = append(out, cp)
		}
	}
	return out
}

func (pi *PrefixIndex) prefixOf(text string) string {
	normalized := strings.ToLower(strings.TrimSpace(text))
	runes := []rune(normalized)
	if len(runes) < pi.minLength {
		return "" // shared bucket for short strings
	}
	return string(runes[:pi.prefixLength])
}
