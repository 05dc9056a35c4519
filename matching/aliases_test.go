package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultAliasTable(t *testing.T) {
	table := DefaultAliasTable()
	require.NotNil(t, table)
	assert.Greater(t, table.Len(), 10)
}

func TestAliasTableResolve(t *testing.T) {
	table := DefaultAliasTable()

	tests := []struct {
		key  string
		want string
	}{
		{"zipcode", "zip_code"},
		{"postal_code", "zip_code"},
		{"zip_code", "zip_code"}, // canonical resolves to itself
		{"fname", "first_name"},
		{"surname", "last_name"},
		{"dob", "date_of_birth"},
		{"ssn", "social_security_number"},
	}

	for _, tt := range tests {
		got, ok := table.Resolve(tt.key)
		require.True(t, ok, "Resolve(%q) should succeed", tt.key)
		assert.Equal(t, tt.want, got, "Resolve(%q)", tt.key)
	}

	_, ok := table.Resolve("no_such_key")
	assert.False(t, ok)
}

func TestAliasTableVariants(t *testing.T) {
	table := DefaultAliasTable()

	variants := table.Variants("zipcode")
	require.NotNil(t, variants)
	assert.Equal(t, "zip_code", variants[0], "canonical key comes first")
	assert.Contains(t, variants, "postal_code")
	assert.Contains(t, variants, "postcode")
	assert.Contains(t, variants, "zip")

	assert.Nil(t, table.Variants("no_such_key"))
}

func TestParseAliasTableRejectsUnnormalizedKey(t *testing.T) {
	_, err := ParseAliasTable([]byte("First Name: [fname]\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a normalized field key")
}

func TestParseAliasTableRejectsUnnormalizedVariant(t *testing.T) {
	_, err := ParseAliasTable([]byte("first_name: [First-Name!]\n"))
	require.Error(t, err)
}

func TestParseAliasTableRejectsAmbiguousVariant(t *testing.T) {
	data := []byte("first_name: [name]\nlast_name: [name]\n")
	_, err := ParseAliasTable(data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "maps to both")
}
