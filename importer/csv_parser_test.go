package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldcatalog/catalog"
)

func TestParseCSVData(t *testing.T) {
	csv := "field_name,field_type,label,required,help_text,options\n" +
		"first_name,text,First Name,yes,Your legal first name,\n" +
		"state,select,State,true,,AL|Alabama;AK|Alaska\n" +
		"criminal_history,checkbox,Criminal History,,,\n"

	form, err := ParseCSVData([]byte(csv))
	require.NoError(t, err)
	require.Len(t, form.Fields, 3)
	assert.Empty(t, form.Warnings)

	first := form.Fields[0]
	assert.Equal(t, "first_name", first.Name)
	assert.Equal(t, catalog.FieldTypeText, first.Type)
	assert.Equal(t, "First Name", first.Label)
	assert.True(t, first.Required)
	assert.Equal(t, "Your legal first name", first.HelpText)

	state := form.Fields[1]
	assert.Equal(t, catalog.FieldTypeSelect, state.Type)
	require.Len(t, state.Options, 2)
	assert.Equal(t, catalog.FieldOption{Value: "AL", Label: "Alabama"}, state.Options[0])

	assert.False(t, form.Fields[2].Required)
}

func TestParseCSVDataHeaderVariants(t *testing.T) {
	csv := "Name,Type,Label\nemail,email,Email Address\n"

	form, err := ParseCSVData([]byte(csv))
	require.NoError(t, err)
	require.Len(t, form.Fields, 1)
	assert.Equal(t, catalog.FieldTypeEmail, form.Fields[0].Type)
}

func TestParseCSVDataMissingColumns(t *testing.T) {
	_, err := ParseCSVData([]byte("field_name,label\nfirst_name,First Name\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field_type")
}

// Bad rows produce warnings, not a failed import.
func TestParseCSVDataRowWarnings(t *testing.T) {
	csv := "field_name,field_type,label\n" +
		"first_name,text,First Name\n" +
		",text,No Name\n" +
		"weird_field,slider,Weird\n"

	form, err := ParseCSVData([]byte(csv))
	require.NoError(t, err)
	assert.Len(t, form.Fields, 1)
	assert.Len(t, form.Warnings, 2)
}

// "phone" appears as a type in older exports; it maps to tel.
func TestParseCSVDataPhoneType(t *testing.T) {
	form, err := ParseCSVData([]byte("field_name,field_type,label\nphone,phone,Phone\n"))
	require.NoError(t, err)
	require.Len(t, form.Fields, 1)
	assert.Equal(t, catalog.FieldTypeTel, form.Fields[0].Type)
}

// Non-UTF-8 exports from older spreadsheet tools decode as Windows-1252.
func TestParseCSVDataWindows1252(t *testing.T) {
	row := append([]byte("field_name,field_type,label\nresume,file,R"), 0xE9) // é in cp1252
	row = append(row, []byte("sum")...)
	row = append(row, 0xE9)
	row = append(row, '\n')

	form, err := ParseCSVData(row)
	require.NoError(t, err)
	require.Len(t, form.Fields, 1)
	assert.Equal(t, "Résumé", form.Fields[0].Label)
}

func TestParseCSVDataEmpty(t *testing.T) {
	_, err := ParseCSVData([]byte("field_name,field_type,label\n"))
	assert.Error(t, err)

	_, err = ParseCSVData([]byte(""))
	assert.Error(t, err)
}

func TestParseOptionsCell(t *testing.T) {
	options := parseOptionsCell("a|Alpha; b|Beta ;c")
	require.Len(t, options, 3)
	assert.Equal(t, catalog.FieldOption{Value: "a", Label: "Alpha"}, options[0])
	assert.Equal(t, catalog.FieldOption{Value: "b", Label: "Beta"}, options[1])
	assert.Equal(t, catalog.FieldOption{Value: "c", Label: "c"}, options[2])
}
