package catalog

import (
	"time"
)

// FieldType is the closed set of input widget types a catalog field can have.
type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeEmail    FieldType = "email"
	FieldTypeTel      FieldType = "tel"
	FieldTypeNumber   FieldType = "number"
	FieldTypeDate     FieldType = "date"
	FieldTypeSelect   FieldType = "select"
	FieldTypeRadio    FieldType = "radio"
	FieldTypeCheckbox FieldType = "checkbox"
	FieldTypeTextarea FieldType = "textarea"
	FieldTypeFile     FieldType = "file"
)

// AllFieldTypes lists every valid field type in declaration order.
var AllFieldTypes = []FieldType{
	FieldTypeText, FieldTypeEmail, FieldTypeTel, FieldTypeNumber,
	FieldTypeDate, FieldTypeSelect, FieldTypeRadio, FieldTypeCheckbox,
	FieldTypeTextarea, FieldTypeFile,
}

// Valid reports whether ft is a member of the closed field type set.
func (ft FieldType) Valid() bool {
	for _, t := range AllFieldTypes {
		if ft == t {
			return true
		}
	}
	return false
}

// HasOptions reports whether the field type carries an options list.
func (ft FieldType) HasOptions() bool {
	return ft == FieldTypeSelect || ft == FieldTypeRadio || ft == FieldTypeCheckbox
}

// DataType is the semantic value type stored behind a field.
type DataType string

const (
	DataTypeString  DataType = "string"
	DataTypeNumber  DataType = "number"
	DataTypeBoolean DataType = "boolean"
	DataTypeDate    DataType = "date"
)

// Valid reports whether dt is a member of the closed data type set.
func (dt DataType) Valid() bool {
	switch dt {
	case DataTypeString, DataTypeNumber, DataTypeBoolean, DataTypeDate:
		return true
	}
	return false
}

// StandardCategories is the closed category taxonomy. Unresolvable
// categories fall back to "Other".
var StandardCategories = []string{
	"Personal Information",
	"Contact Information",
	"Education",
	"Examination",
	"Professional Background",
	"Fee Waivers",
	"Compliance & Declarations",
	"Other",
}

// CategoryOther is the fallback category for anything unresolvable.
const CategoryOther = "Other"

// FieldOption is one (value, label) pair for select/radio/checkbox fields.
type FieldOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// CanonicalField is one entry of the shared field catalog. Every board's
// form field resolves to exactly one canonical field.
type CanonicalField struct {
	ID            int64         `json:"id"`
	FieldKey      string        `json:"field_key"` // unique, immutable
	CanonicalName string        `json:"canonical_name"`
	Description   string        `json:"description,omitempty"`
	FieldType     FieldType     `json:"field_type"` // immutable
	DataType      DataType      `json:"data_type"`
	Category      string        `json:"category"`
	Subcategory   string        `json:"subcategory,omitempty"`
	Aliases       []string      `json:"aliases,omitempty"`
	Options       []FieldOption `json:"options,omitempty"`
	Placeholder   string        `json:"placeholder,omitempty"`
	HelpText      string        `json:"help_text,omitempty"`
	UsageCount    int           `json:"usage_count"`
	FirstUsedBy   string        `json:"first_used_by,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// HasAlias reports whether the field already carries the given alias.
func (f *CanonicalField) HasAlias(alias string) bool {
	for _, a := range f.Aliases {
		if a == alias {
			return true
		}
	}
	return false
}

// IncomingFieldDescriptor is a transient field definition handed to the
// matching pipeline by an importer, extractor or the form builder. It
// carries no identity of its own.
type IncomingFieldDescriptor struct {
	Name        string        `json:"name"`
	Label       string        `json:"label,omitempty"`
	Type        FieldType     `json:"type"`
	Options     []FieldOption `json:"options,omitempty"`
	HelpText    string        `json:"help_text,omitempty"`
	Placeholder string        `json:"placeholder,omitempty"`
	Required    bool          `json:"required,omitempty"`
}

// DisplayName returns the label when present, the raw name otherwise.
func (d *IncomingFieldDescriptor) DisplayName() string {
	if d.Label != "" {
		return d.Label
	}
	return d.Name
}

// MatchType tags which pipeline stage produced a match.
type MatchType string

const (
	MatchExactKey MatchType = "exact_key"
	MatchAlias    MatchType = "alias_match"
	MatchPurpose  MatchType = "purpose_match"
	MatchFuzzy    MatchType = "fuzzy_match"
	MatchNone     MatchType = "none"
)

// MatchResult is the decision pipeline output for one descriptor.
type MatchResult struct {
	MatchedField *CanonicalField `json:"matched_field,omitempty"`
	Confidence   float64         `json:"confidence"`
	MatchType    MatchType       `json:"match_type"`
}

// Matched reports whether the pipeline resolved to an existing entry.
func (r *MatchResult) Matched() bool {
	return r.MatchType != MatchNone && r.MatchedField != nil
}

// NewEntrySuggestion is returned when no match cleared the thresholds and
// the caller is expected to create a new catalog entry.
type NewEntrySuggestion struct {
	FieldKey string `json:"field_key"`
	Category string `json:"category"`
}

// DuplicatePair is one flagged near-duplicate found by the deduplicator.
type DuplicatePair struct {
	Field      *CanonicalField `json:"field"`
	Duplicate  *CanonicalField `json:"duplicate"`
	Similarity float64         `json:"similarity"`
}
