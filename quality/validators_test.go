package quality

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldcatalog/catalog"
)

func validField() *catalog.CanonicalField {
	return &catalog.CanonicalField{
		FieldKey:      "first_name",
		CanonicalName: "First Name",
		FieldType:     catalog.FieldTypeText,
		DataType:      catalog.DataTypeString,
		Category:      "Personal Information",
	}
}

func TestValidateFieldOK(t *testing.T) {
	validator := NewFieldValidator()
	assert.NoError(t, validator.ValidateField(validField()))
}

func TestValidateFieldNormalizesKey(t *testing.T) {
	validator := NewFieldValidator()

	field := validField()
	field.FieldKey = "First Name"
	require.NoError(t, validator.ValidateField(field))
	assert.Equal(t, "first_name", field.FieldKey)
}

func TestValidateFieldDefaultsDataType(t *testing.T) {
	validator := NewFieldValidator()

	field := validField()
	field.DataType = ""
	require.NoError(t, validator.ValidateField(field))
	assert.Equal(t, catalog.DataTypeString, field.DataType)
}

// All violations are reported together, not just the first.
func TestValidateFieldCollectsViolations(t *testing.T) {
	validator := NewFieldValidator()

	field := &catalog.CanonicalField{
		FieldKey:      "",
		CanonicalName: "",
		FieldType:     "slider",
		DataType:      "blob",
		UsageCount:    -1,
	}

	err := validator.ValidateField(field)
	require.Error(t, err)

	var validationErr *catalog.ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Len(t, validationErr.Violations, 5)
}

func TestValidateFieldRejectsOptionsOnPlainTypes(t *testing.T) {
	validator := NewFieldValidator()

	field := validField()
	field.Options = []catalog.FieldOption{{Value: "a", Label: "A"}}
	assert.Error(t, validator.ValidateField(field), "text fields carry no options")

	field = validField()
	field.FieldType = catalog.FieldTypeSelect
	field.Options = []catalog.FieldOption{{Value: "a", Label: "A"}}
	assert.NoError(t, validator.ValidateField(field))
}

func TestValidateOverrides(t *testing.T) {
	validator := NewFieldValidator()

	assert.NoError(t, validator.ValidateOverrides(map[string]interface{}{
		"canonical_name": "Given Name",
		"category":       "Personal Information",
	}))

	for _, immutable := range ImmutableProperties {
		err := validator.ValidateOverrides(map[string]interface{}{immutable: "x"})
		assert.Error(t, err, "override of %q must be rejected", immutable)
	}

	// Counters and timestamps belong to the engine, not the boards.
	assert.Error(t, validator.ValidateOverrides(map[string]interface{}{"usage_count": 99}))
	assert.Error(t, validator.ValidateOverrides(map[string]interface{}{"created_at": "2020-01-01"}))
}

func TestNormalizeCategory(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"Personal Information", "Personal Information"},
		{"personal information", "Personal Information"}, // case slip coerced
		{"Contact Informations", "Contact Information"}, // near miss coerced
		{"Contact Info", catalog.CategoryOther},         // too far to coerce safely
		{"", catalog.CategoryOther},
		{"Quantum Chromodynamics", catalog.CategoryOther},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeCategory(tt.raw), "NormalizeCategory(%q)", tt.raw)
	}
}
