package algorithms

import (
	"strings"
	"sync"

	"github.com/kljensen/snowball"
)

// EnglishStemmer reduces English words to their stems using the Snowball
// algorithm, with a small cache since the classifier stems the same
// keywords on every call.
type EnglishStemmer struct {
	cache map[string]string
	mu    sync.RWMutex
}

// NewEnglishStemmer creates a caching English stemmer.
func NewEnglishStemmer() *EnglishStemmer {
	return &EnglishStemmer{cache: make(map[string]string)}
}

// Stem returns the stemmed form of a word.
// Example: "graduation" -> "graduat", "certified" -> "certifi".
func (s *EnglishStemmer) Stem(word string) string {
	normalized := strings.ToLower(strings.TrimSpace(word))
	if normalized == "" {
		return ""
	}

	s.mu.RLock()
	if cached, ok := s.cache[normalized]; ok {
		s.mu.RUnlock()
		return cached
	}
	s.mu.RUnlock()

	stemmed, err := snowball.Stem(normalized, "english", true)
	if err != nil {
		// Fall back to the normalized word when stemming fails.
		stemmed = normalized
	}

	s.mu.Lock()
	s.cache[normalized] = stemmed
	s.mu.Unlock()

	return stemmed
}

// StemEqual reports whether two words share the same stem.
// Example: StemEqual("graduated", "graduation") == true.
func (s *EnglishStemmer) StemEqual(w1, w2 string) bool {
	if w1 == w2 {
		return true
	}
	stem1 := s.Stem(w1)
	if stem1 == "" {
		return false
	}
	return stem1 == s.Stem(w2)
}
