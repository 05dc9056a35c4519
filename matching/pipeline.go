package matching

import (
	"fmt"
	"strings"

	"fieldcatalog/catalog"
	"fieldcatalog/normalization"
	"fieldcatalog/normalization/algorithms"
)

// Matching thresholds and stage confidences.
const (
	exactKeyConfidence   = 1.0
	aliasMatchConfidence = 0.95
	fuzzyMatchFloor      = 0.8
)

// Catalog is the queryable view of the canonical field catalog the
// pipeline matches against. The persistence layer implements it; the
// pipeline never writes.
type Catalog interface {
	// GetByKey returns the entry with the exact field key, or nil when
	// no such entry exists.
	GetByKey(key string) (*catalog.CanonicalField, error)

	// FindByCategoryAndType returns all entries in a category sharing
	// the given field type.
	FindByCategoryAndType(category string, fieldType catalog.FieldType) ([]*catalog.CanonicalField, error)

	// All returns every catalog entry.
	All() ([]*catalog.CanonicalField, error)
}

// Matcher runs the match decision pipeline: exact key, then alias, then
// purpose, then fuzzy similarity, each stage an early exit. Ambiguity
// between equally scored candidates is resolved by the deterministic
// tie-break policy, never by returning an error.
type Matcher struct {
	aliases  *AliasTable
	taxonomy *Taxonomy
}

// NewMatcher creates a pipeline over the given alias table and taxonomy.
func NewMatcher(aliases *AliasTable, taxonomy *Taxonomy) *Matcher {
	return &Matcher{aliases: aliases, taxonomy: taxonomy}
}

// NewDefaultMatcher creates a pipeline over the embedded reference data.
func NewDefaultMatcher() *Matcher {
	return NewMatcher(DefaultAliasTable(), DefaultTaxonomy())
}

// Match resolves one incoming descriptor against the catalog. A nil
// MatchedField with type "none" is a normal outcome, not an error; the
// caller is then expected to create a new entry from SuggestNewEntry.
// Entries of a different field type are never matched, regardless of how
// similar their wording is.
func (m *Matcher) Match(descriptor *catalog.IncomingFieldDescriptor, cat Catalog) (*catalog.MatchResult, error) {
	name := descriptorName(descriptor)
	key, err := normalization.NormalizeKey(name)
	if err != nil {
		return nil, err
	}

	// Stage 1: exact key.
	if field, err := m.lookupKey(cat, key, descriptor.Type); err != nil {
		return nil, err
	} else if field != nil {
		return &catalog.MatchResult{MatchedField: field, Confidence: exactKeyConfidence, MatchType: catalog.MatchExactKey}, nil
	}

	// Stage 2: alias table, then aliases recorded on the entries
	// themselves. Both resolve at the same confidence.
	if canonical, ok := m.aliases.Resolve(key); ok {
		for _, variant := range m.aliases.Variants(canonical) {
			field, err := m.lookupKey(cat, variant, descriptor.Type)
			if err != nil {
				return nil, err
			}
			if field != nil {
				return &catalog.MatchResult{MatchedField: field, Confidence: aliasMatchConfidence, MatchType: catalog.MatchAlias}, nil
			}
		}
	}
	if field, err := m.matchByStoredAlias(key, descriptor.Type, cat); err != nil {
		return nil, err
	} else if field != nil {
		return &catalog.MatchResult{MatchedField: field, Confidence: aliasMatchConfidence, MatchType: catalog.MatchAlias}, nil
	}

	// Stage 3: purpose classification, scoped to the purpose's category
	// and the descriptor's field type.
	if field, score, err := m.matchByPurpose(name, descriptor.Type, cat); err != nil {
		return nil, err
	} else if field != nil {
		return &catalog.MatchResult{MatchedField: field, Confidence: score, MatchType: catalog.MatchPurpose}, nil
	}

	// Stage 4: fuzzy similarity fallback over the whole catalog.
	if field, score, err := m.matchByFuzzy(key, descriptor, cat); err != nil {
		return nil, err
	} else if field != nil {
		return &catalog.MatchResult{MatchedField: field, Confidence: score, MatchType: catalog.MatchFuzzy}, nil
	}

	return &catalog.MatchResult{Confidence: 0.0, MatchType: catalog.MatchNone}, nil
}

// SuggestNewEntry proposes the field key and category for a descriptor
// that matched nothing. The key comes from the detected purpose when
// there is one, the normalized name otherwise; the category falls back
// from the purpose to a field-type heuristic.
func (m *Matcher) SuggestNewEntry(descriptor *catalog.IncomingFieldDescriptor) (*catalog.NewEntrySuggestion, error) {
	name := descriptorName(descriptor)
	key, err := normalization.NormalizeKey(name)
	if err != nil {
		return nil, err
	}

	suggestion := &catalog.NewEntrySuggestion{
		FieldKey: key,
		Category: categoryForType(descriptor.Type),
	}

	if purpose, ok := m.taxonomy.DetectPurpose(name, descriptor.Type); ok {
		suggestion.FieldKey = purpose.SuggestedKey()
		suggestion.Category = purpose.Category
	}

	return suggestion, nil
}

// lookupKey fetches a key from the catalog, rejecting entries whose
// field type conflicts with the descriptor's.
func (m *Matcher) lookupKey(cat Catalog, key string, fieldType catalog.FieldType) (*catalog.CanonicalField, error) {
	field, err := cat.GetByKey(key)
	if err != nil {
		return nil, fmt.Errorf("catalog lookup %q: %w", key, err)
	}
	if field == nil {
		return nil, nil
	}
	if fieldType != "" && field.FieldType != fieldType {
		return nil, nil
	}
	return field, nil
}

// matchByStoredAlias resolves the key against the alias sets saved on
// catalog entries by earlier imports and merges. Stored aliases are raw
// wordings, so each is normalized before comparison; entries sharing an
// alias fall back to the usual tie-break.
func (m *Matcher) matchByStoredAlias(key string, fieldType catalog.FieldType, cat Catalog) (*catalog.CanonicalField, error) {
	entries, err := cat.All()
	if err != nil {
		return nil, fmt.Errorf("catalog scan: %w", err)
	}

	var best *catalog.CanonicalField
	for _, candidate := range entries {
		if fieldType != "" && candidate.FieldType != fieldType {
			continue
		}
		for _, alias := range candidate.Aliases {
			aliasKey, err := normalization.NormalizeKey(alias)
			if err != nil || aliasKey != key {
				continue
			}
			if betterCandidate(aliasMatchConfidence, candidate, aliasMatchConfidence, best) {
				best = candidate
			}
			break
		}
	}
	return best, nil
}

func (m *Matcher) matchByPurpose(name string, fieldType catalog.FieldType, cat Catalog) (*catalog.CanonicalField, float64, error) {
	purpose, ok := m.taxonomy.DetectPurpose(name, fieldType)
	if !ok {
		return nil, 0, nil
	}

	candidates, err := cat.FindByCategoryAndType(purpose.Category, fieldType)
	if err != nil {
		return nil, 0, fmt.Errorf("catalog scan %q/%q: %w", purpose.Category, fieldType, err)
	}

	normalizedInput := normalization.NormalizeName(name)

	var best *catalog.CanonicalField
	bestScore := 0.0

	for _, candidate := range candidates {
		score := 0.0

		for _, keyword := range purpose.Keywords {
			if containsWord(candidate.FieldKey, keyword) {
				score += candidateKeyScore
			}
			if containsWord(normalization.NormalizeName(candidate.CanonicalName), keyword) {
				score += candidateNameScore
			}
		}

		if normalization.NormalizeName(candidate.FieldKey) == normalizedInput {
			score += candidateExactKey
		}

		if score > 1.0 {
			score = 1.0
		}
		if betterCandidate(score, candidate, bestScore, best) {
			bestScore = score
			best = candidate
		}
	}

	if best == nil || bestScore < purposeMatchFloor {
		return nil, 0, nil
	}
	return best, bestScore, nil
}

func (m *Matcher) matchByFuzzy(key string, descriptor *catalog.IncomingFieldDescriptor, cat Catalog) (*catalog.CanonicalField, float64, error) {
	entries, err := cat.All()
	if err != nil {
		return nil, 0, fmt.Errorf("catalog scan: %w", err)
	}

	label := descriptor.DisplayName()

	var best *catalog.CanonicalField
	bestScore := 0.0

	for _, candidate := range entries {
		if descriptor.Type != "" && candidate.FieldType != descriptor.Type {
			continue
		}

		similarity := algorithms.LevenshteinSimilarity(key, candidate.FieldKey)
		if labelSim := algorithms.NormalizedSimilarity(label, candidate.CanonicalName); labelSim > similarity {
			similarity = labelSim
		}

		if betterCandidate(similarity, candidate, bestScore, best) {
			bestScore = similarity
			best = candidate
		}
	}

	if best == nil || bestScore < fuzzyMatchFloor {
		return nil, 0, nil
	}
	return best, bestScore, nil
}

// betterCandidate implements the tie-break policy: a strictly higher
// score wins; on equal scores the more established entry (higher
// usage_count) wins; a remaining tie goes to the lexicographically
// smaller field key so repeated runs always pick the same winner.
func betterCandidate(score float64, candidate *catalog.CanonicalField, bestScore float64, best *catalog.CanonicalField) bool {
	if best == nil {
		return score > 0
	}
	if score != bestScore {
		return score > bestScore
	}
	if candidate.UsageCount != best.UsageCount {
		return candidate.UsageCount > best.UsageCount
	}
	return candidate.FieldKey < best.FieldKey
}

// categoryForType infers a category from the widget type when no purpose
// was detected.
func categoryForType(fieldType catalog.FieldType) string {
	switch fieldType {
	case catalog.FieldTypeCheckbox:
		return "Compliance & Declarations"
	case catalog.FieldTypeEmail, catalog.FieldTypeTel:
		return "Contact Information"
	case catalog.FieldTypeDate:
		return "Personal Information"
	default:
		return catalog.CategoryOther
	}
}

func descriptorName(descriptor *catalog.IncomingFieldDescriptor) string {
	if descriptor.Name != "" {
		return descriptor.Name
	}
	return descriptor.Label
}

// containsWord reports whether the keyword occurs as a substring of the
// text.
func containsWord(text, keyword string) bool {
	if text == "" || keyword == "" {
		return false
	}
	return strings.Contains(text, keyword)
}
