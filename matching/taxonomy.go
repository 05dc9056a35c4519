package matching

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"fieldcatalog/catalog"
	"fieldcatalog/normalization"
	"fieldcatalog/normalization/algorithms"
)

//go:embed data/purposes.yaml
var defaultPurposeData []byte

// Purpose scoring constants. A purpose needs at least one solid keyword
// hit to be detected at all.
const (
	keywordScore       = 10
	wholeWordBonus     = 5
	typeMatchBonus     = 20
	minPurposeScore    = 10
	purposeMatchFloor  = 0.5
	candidateKeyScore  = 0.3
	candidateNameScore = 0.2
	candidateExactKey  = 0.5
)

// Purpose describes one semantic field purpose: the trigger keywords,
// the widget and data types a field serving it is expected to have, and
// the catalog category its fields live in.
type Purpose struct {
	Key       string            `yaml:"-"`
	Keywords  []string          `yaml:"keywords"`
	FieldType catalog.FieldType `yaml:"field_type"`
	DataType  catalog.DataType  `yaml:"data_type"`
	Category  string            `yaml:"category"`
}

// SuggestedKey derives a catalog field key from the purpose key:
// "identification.first_name" -> "first_name".
func (p *Purpose) SuggestedKey() string {
	if idx := strings.LastIndex(p.Key, "."); idx >= 0 {
		return p.Key[idx+1:]
	}
	return p.Key
}

// Taxonomy is the closed set of purposes the classifier scores against.
// It is reference data loaded from YAML.
type Taxonomy struct {
	purposes map[string]*Purpose
	ordered  []string // sorted purpose keys, for deterministic ties
	stemmer  *algorithms.EnglishStemmer
}

// DefaultTaxonomy loads the purpose taxonomy embedded in the binary.
func DefaultTaxonomy() *Taxonomy {
	taxonomy, err := ParseTaxonomy(defaultPurposeData)
	if err != nil {
		panic(fmt.Sprintf("embedded purpose taxonomy invalid: %v", err))
	}
	return taxonomy
}

// LoadTaxonomy reads a purpose taxonomy from a YAML file on disk.
func LoadTaxonomy(path string) (*Taxonomy, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open purpose taxonomy: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read purpose taxonomy: %w", err)
	}

	return ParseTaxonomy(data)
}

// ParseTaxonomy parses and validates YAML purpose definitions.
func ParseTaxonomy(data []byte) (*Taxonomy, error) {
	raw := make(map[string]*Purpose)
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse purpose taxonomy: %w", err)
	}

	taxonomy := &Taxonomy{
		purposes: make(map[string]*Purpose, len(raw)),
		stemmer:  algorithms.NewEnglishStemmer(),
	}

	for key, purpose := range raw {
		if purpose == nil || len(purpose.Keywords) == 0 {
			return nil, fmt.Errorf("purpose %q has no keywords", key)
		}
		if !purpose.FieldType.Valid() {
			return nil, fmt.Errorf("purpose %q has unknown field type %q", key, purpose.FieldType)
		}
		if !purpose.DataType.Valid() {
			return nil, fmt.Errorf("purpose %q has unknown data type %q", key, purpose.DataType)
		}
		if !categoryIsStandard(purpose.Category) {
			return nil, fmt.Errorf("purpose %q has category %q outside the taxonomy", key, purpose.Category)
		}
		purpose.Key = key
		taxonomy.purposes[key] = purpose
		taxonomy.ordered = append(taxonomy.ordered, key)
	}
	sort.Strings(taxonomy.ordered)

	return taxonomy, nil
}

// Purpose returns the purpose registered under key.
func (t *Taxonomy) Purpose(key string) (*Purpose, bool) {
	p, ok := t.purposes[key]
	return p, ok
}

// Len returns the number of purposes in the taxonomy.
func (t *Taxonomy) Len() int {
	return len(t.purposes)
}

// DetectPurpose classifies a field by name and widget type. Every purpose
// is scored: +10 per keyword found in the normalized name, +5 when the
// keyword stands as a whole word (exact, prefix or suffix, including
// stem-equal tokens), +20 when the widget type matches the purpose. The
// best purpose is returned only when its score clears the minimum floor;
// score ties resolve to the lexicographically smaller purpose key.
func (t *Taxonomy) DetectPurpose(name string, fieldType catalog.FieldType) (*Purpose, bool) {
	normalized := normalization.NormalizeName(name)
	if normalized == "" {
		return nil, false
	}
	tokens := strings.Fields(normalized)

	var best *Purpose
	bestScore := 0

	for _, key := range t.ordered {
		purpose := t.purposes[key]
		score := t.scorePurpose(purpose, normalized, tokens, fieldType)
		if score > bestScore {
			bestScore = score
			best = purpose
		}
	}

	if best == nil || bestScore < minPurposeScore {
		return nil, false
	}
	return best, true
}

func (t *Taxonomy) scorePurpose(purpose *Purpose, normalized string, tokens []string, fieldType catalog.FieldType) int {
	score := 0

	for _, keyword := range purpose.Keywords {
		hit := strings.Contains(normalized, keyword)
		stemHit := false
		if !hit {
			for _, token := range tokens {
				if t.stemmer.StemEqual(token, keyword) {
					stemHit = true
					break
				}
			}
		}
		if !hit && !stemHit {
			continue
		}

		score += keywordScore
		if t.isWholeWord(normalized, tokens, keyword) || stemHit {
			score += wholeWordBonus
		}
	}

	// The type bonus amplifies keyword evidence, it is never evidence on
	// its own: a matching widget type with zero keyword hits stays at 0.
	if score > 0 && fieldType != "" && fieldType == purpose.FieldType {
		score += typeMatchBonus
	}

	return score
}

// isWholeWord reports whether the keyword stands alone at the start or
// end of the normalized name, or equals it entirely.
func (t *Taxonomy) isWholeWord(normalized string, tokens []string, keyword string) bool {
	if normalized == keyword {
		return true
	}
	if strings.HasPrefix(normalized, keyword+" ") || strings.HasSuffix(normalized, " "+keyword) {
		return true
	}
	// Stemmed token equality counts as a whole-word hit too:
	// "graduated" and "graduation" share a stem.
	for _, token := range tokens {
		if t.stemmer.StemEqual(token, keyword) {
			return true
		}
	}
	return false
}

func categoryIsStandard(category string) bool {
	for _, c := range catalog.StandardCategories {
		if c == category {
			return true
		}
	}
	return false
}
