package quality

import (
	"fieldcatalog/catalog"
	"fieldcatalog/normalization"
	"fieldcatalog/normalization/algorithms"
)

// categoryCoercionFloor is the similarity above which a free-form
// category is coerced to the nearest standard category instead of
// falling back to "Other".
const categoryCoercionFloor = 0.7

// ImmutableProperties are the catalog entry properties no board-level
// override may change.
var ImmutableProperties = []string{"field_key", "field_type", "id", "usage_count", "created_at"}

// FieldValidator enforces schema and immutability invariants before any
// catalog write. Failures carry the full violation list.
type FieldValidator struct{}

// NewFieldValidator creates a validator.
func NewFieldValidator() *FieldValidator {
	return &FieldValidator{}
}

// ValidateField checks a catalog entry before creation or update. The
// field key is normalized and the category coerced in place; everything
// else is validated without silent fixes. Returns a ValidationError with
// every violation found, or nil.
func (v *FieldValidator) ValidateField(field *catalog.CanonicalField) error {
	errs := &catalog.ValidationError{}

	if field.FieldKey == "" {
		errs.Addf("field_key is required")
	} else {
		normalized, err := normalization.NormalizeKey(field.FieldKey)
		if err != nil {
			errs.Addf("field_key %q fails normalization", field.FieldKey)
		} else {
			field.FieldKey = normalized
		}
	}

	if field.CanonicalName == "" {
		errs.Addf("canonical_name is required")
	}

	if !field.FieldType.Valid() {
		errs.Addf("invalid field type %q", field.FieldType)
	}

	if field.DataType == "" {
		field.DataType = catalog.DataTypeString
	} else if !field.DataType.Valid() {
		errs.Addf("invalid data type %q", field.DataType)
	}

	// Category fallback to "Other" is the one permitted coercion.
	field.Category = NormalizeCategory(field.Category)

	if len(field.Options) > 0 && !field.FieldType.HasOptions() {
		errs.Addf("field type %q does not carry options", field.FieldType)
	}

	if field.UsageCount < 0 {
		errs.Addf("usage_count cannot be negative")
	}

	if errs.HasViolations() {
		return errs
	}
	return nil
}

// ValidateOverrides rejects per-submission overrides that attempt to
// change an immutable property of the referenced catalog entry.
func (v *FieldValidator) ValidateOverrides(overrides map[string]interface{}) error {
	errs := &catalog.ValidationError{}

	for _, immutable := range ImmutableProperties {
		if _, ok := overrides[immutable]; ok {
			errs.Addf("cannot override immutable property %q", immutable)
		}
	}

	if errs.HasViolations() {
		return errs
	}
	return nil
}

// NormalizeCategory resolves a free-form category to the closed
// taxonomy. Exact members pass through; anything else is coerced to the
// most similar standard category when the similarity clears the floor,
// and falls back to "Other" otherwise.
func NormalizeCategory(raw string) string {
	if raw == "" {
		return catalog.CategoryOther
	}

	for _, standard := range catalog.StandardCategories {
		if raw == standard {
			return raw
		}
	}

	best := catalog.CategoryOther
	bestScore := 0.0
	for _, standard := range catalog.StandardCategories {
		score := algorithms.NormalizedSimilarity(raw, standard)
		if score > bestScore {
			bestScore = score
			best = standard
		}
	}

	if bestScore >= categoryCoercionFloor {
		return best
	}
	return catalog.CategoryOther
}
