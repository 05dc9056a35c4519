package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldcatalog/catalog"
)

func openTestStore(t *testing.T) *catalog.Store {
	t.Helper()
	store, err := catalog.OpenStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleForm() *ParsedForm {
	return &ParsedForm{Fields: []catalog.IncomingFieldDescriptor{
		{Name: "first_name", Label: "First Name", Type: catalog.FieldTypeText, Required: true},
		{Name: "email", Label: "Email Address", Type: catalog.FieldTypeEmail, Required: true},
		{Name: "favorite_quote", Label: "Favorite Quote", Type: catalog.FieldTypeTextarea},
	}}
}

func TestImportFormCreatesEntries(t *testing.T) {
	store := openTestStore(t)
	service := NewImportService(store)

	result, err := service.ImportForm("RN License", "Nursing Board", sampleForm())
	require.NoError(t, err)

	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 3, result.Created)
	assert.Equal(t, 0, result.Matched)
	assert.Empty(t, result.Errors)
	assert.NotZero(t, result.ApplicationTypeID)

	field, err := store.GetByKey("first_name")
	require.NoError(t, err)
	require.NotNil(t, field)
	assert.Equal(t, 1, field.UsageCount)
	assert.Equal(t, "RN License", field.FirstUsedBy)
	assert.Equal(t, "Personal Information", field.Category)
}

// Replaying the same file matches everything the first run created and
// never duplicates an entry.
func TestImportFormIdempotentReplay(t *testing.T) {
	store := openTestStore(t)
	service := NewImportService(store)

	first, err := service.ImportForm("RN License", "Nursing Board", sampleForm())
	require.NoError(t, err)
	require.Equal(t, 3, first.Created)

	countAfterFirst, err := store.Count()
	require.NoError(t, err)

	second, err := service.ImportForm("RN License (replay)", "Nursing Board", sampleForm())
	require.NoError(t, err)
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 3, second.Matched)

	countAfterSecond, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, countAfterFirst, countAfterSecond)

	field, err := store.GetByKey("first_name")
	require.NoError(t, err)
	assert.Equal(t, 2, field.UsageCount, "replay increments usage")
}

// A second board's different wording for the same concept matches the
// first board's entry; the wording is remembered as an alias.
func TestImportFormWordingVariantsConverge(t *testing.T) {
	store := openTestStore(t)
	service := NewImportService(store)

	_, err := service.ImportForm("RN License", "Nursing Board", sampleForm())
	require.NoError(t, err)

	variant := &ParsedForm{Fields: []catalog.IncomingFieldDescriptor{
		{Name: "Legal First Name", Label: "Legal First Name", Type: catalog.FieldTypeText},
	}}
	result, err := service.ImportForm("PT License", "Physical Therapy Board", variant)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Matched)
	assert.Equal(t, 0, result.Created)

	field, err := store.GetByKey("first_name")
	require.NoError(t, err)
	assert.Equal(t, 2, field.UsageCount)
	assert.True(t, field.HasAlias("Legal First Name"))

	// The recorded wording now resolves as an alias hit, not a purpose
	// match, on the next import.
	resolved, err := service.Preview(variant)
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	assert.Equal(t, catalog.MatchAlias, resolved[0].Result.MatchType)
	assert.Equal(t, 0.95, resolved[0].Result.Confidence)
}

func TestImportFormRequiresName(t *testing.T) {
	store := openTestStore(t)
	service := NewImportService(store)

	_, err := service.ImportForm("", "Board", sampleForm())
	assert.Error(t, err)
}

func TestPreviewWritesNothing(t *testing.T) {
	store := openTestStore(t)
	service := NewImportService(store)

	resolved, err := service.Preview(sampleForm())
	require.NoError(t, err)
	require.Len(t, resolved, 3)

	for _, entry := range resolved {
		assert.False(t, entry.Result.Matched())
		require.NotNil(t, entry.Suggestion)
	}

	count, err := store.Count()
	require.NoError(t, err)
	assert.Zero(t, count)
}
