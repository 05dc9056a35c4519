package normalization

import (
	"regexp"
	"strings"

	"fieldcatalog/catalog"
)

var (
	nonKeyChars      = regexp.MustCompile(`[^a-z0-9_]`)
	repeatUnderscore = regexp.MustCompile(`_+`)
	nonWordChars     = regexp.MustCompile(`[^a-z0-9]+`)
)

// fillerPrefixes are wording noise that boards prepend without changing
// the field's meaning ("Legal First Name", "Your Email").
var fillerPrefixes = []string{
	"legal", "formal", "official", "full", "complete", "applicant", "your",
}

// fillerSuffixes are trailing annotations stripped before purpose
// scoring ("First Name (Required)").
var fillerSuffixes = []string{
	"required", "optional", "if applicable",
}

// NormalizeKey converts a raw field name into a canonical snake_case key:
// lowercase, whitespace and hyphens become underscores, anything outside
// [a-z0-9_] is dropped, repeated underscores collapse, leading/trailing
// underscores are trimmed. The operation is idempotent. A name that
// normalizes to the empty string is a validation error, never a silent
// fallback.
func NormalizeKey(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", catalog.NewValidationError("field name cannot be empty")
	}

	key := strings.ToLower(raw)
	key = strings.ReplaceAll(key, " ", "_")
	key = strings.ReplaceAll(key, "-", "_")
	key = nonKeyChars.ReplaceAllString(key, "")
	key = repeatUnderscore.ReplaceAllString(key, "_")
	key = strings.Trim(key, "_")

	if key == "" {
		return "", catalog.NewValidationError(
			"field name '" + raw + "' produces empty key after normalization")
	}

	return key, nil
}

// NormalizeName prepares a field name for purpose scoring: lowercase,
// punctuation replaced by spaces, filler prefixes and suffixes removed.
// "Your First Name (Required)" -> "first name".
func NormalizeName(raw string) string {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if normalized == "" {
		return ""
	}

	normalized = nonWordChars.ReplaceAllString(normalized, " ")
	words := strings.Fields(normalized)
	words = stripFillerPrefixes(words)
	words = stripFillerSuffixes(words)

	return strings.Join(words, " ")
}

// stripFillerPrefixes drops leading filler tokens until the first
// meaningful word. A lone "s" left behind by a possessive
// ("Applicant's" -> "applicant s") is dropped with its owner.
func stripFillerPrefixes(words []string) []string {
	for len(words) > 1 {
		stripped := false
		for _, prefix := range fillerPrefixes {
			if words[0] == prefix {
				words = words[1:]
				if len(words) > 1 && words[0] == "s" {
					words = words[1:]
				}
				stripped = true
				break
			}
		}
		if !stripped {
			break
		}
	}
	return words
}

func stripFillerSuffixes(words []string) []string {
	for len(words) > 1 {
		stripped := false
		for _, suffix := range fillerSuffixes {
			parts := strings.Fields(suffix)
			n := len(parts)
			if len(words) > n && equalTail(words, parts) {
				words = words[:len(words)-n]
				stripped = true
				break
			}
		}
		if !stripped {
			break
		}
	}
	return words
}

func equalTail(words, tail []string) bool {
	offset := len(words) - len(tail)
	for i, t := range tail {
		if words[offset+i] != t {
			return false
		}
	}
	return true
}
