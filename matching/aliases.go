package matching

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"fieldcatalog/normalization"
)

//go:embed data/aliases.yaml
var defaultAliasData []byte

// AliasTable is a static bidirectional mapping between canonical field
// keys and their known wording variants. It is reference data loaded
// from YAML, never derived at runtime.
type AliasTable struct {
	aliases   map[string][]string // canonical -> variants
	canonical map[string]string   // variant or canonical -> canonical
}

// DefaultAliasTable loads the alias table embedded in the binary.
func DefaultAliasTable() *AliasTable {
	table, err := ParseAliasTable(defaultAliasData)
	if err != nil {
		// The embedded table ships with the binary; failing to parse it
		// is a build defect, not a runtime condition.
		panic(fmt.Sprintf("embedded alias table invalid: %v", err))
	}
	return table
}

// LoadAliasTable reads an alias table from a YAML file on disk,
// typically a deployment override of the embedded defaults.
func LoadAliasTable(path string) (*AliasTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open alias table: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read alias table: %w", err)
	}

	return ParseAliasTable(data)
}

// ParseAliasTable parses YAML alias data and validates that every key is
// normalized and that no variant resolves to two different canonicals.
func ParseAliasTable(data []byte) (*AliasTable, error) {
	raw := make(map[string][]string)
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse alias table: %w", err)
	}

	table := &AliasTable{
		aliases:   make(map[string][]string, len(raw)),
		canonical: make(map[string]string),
	}

	// Deterministic iteration so duplicate-variant errors are stable.
	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		normalized, err := normalization.NormalizeKey(key)
		if err != nil || normalized != key {
			return nil, fmt.Errorf("alias table key %q is not a normalized field key", key)
		}

		table.canonical[key] = key
		for _, variant := range raw[key] {
			normalizedVariant, err := normalization.NormalizeKey(variant)
			if err != nil || normalizedVariant != variant {
				return nil, fmt.Errorf("alias %q of %q is not a normalized field key", variant, key)
			}
			if existing, ok := table.canonical[variant]; ok && existing != key {
				return nil, fmt.Errorf("alias %q maps to both %q and %q", variant, existing, key)
			}
			table.canonical[variant] = key
			table.aliases[key] = append(table.aliases[key], variant)
		}
	}

	return table, nil
}

// Resolve maps any alias or canonical key to its canonical key. The
// lookup is bidirectional: Resolve("zipcode") and Resolve("zip_code")
// both return "zip_code".
func (t *AliasTable) Resolve(key string) (string, bool) {
	canonical, ok := t.canonical[key]
	return canonical, ok
}

// Variants returns all known keys for the concept behind key: the
// canonical key plus every alias. Returns nil when key is unknown.
func (t *AliasTable) Variants(key string) []string {
	canonical, ok := t.canonical[key]
	if !ok {
		return nil
	}
	out := append([]string{canonical}, t.aliases[canonical]...)
	return out
}

// Len returns the number of canonical concepts in the table.
func (t *AliasTable) Len() int {
	return len(t.aliases)
}
