package extractors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldcatalog/catalog"
)

const sampleForm = `
<html><body>
<form method="post">
  <label for="fn">First Name *</label>
  <input type="text" id="fn" name="first_name" required>

  <label for="em">Email Address</label>
  <input type="email" id="em" name="email" placeholder="you@example.com">

  <label>Phone Number
    <input type="tel" name="phone">
  </label>

  <label for="st">State</label>
  <select id="st" name="state">
    <option value="">Choose...</option>
    <option value="AL">Alabama</option>
    <option value="AK">Alaska</option>
  </select>

  <label for="ch1">Criminal conviction</label>
  <input type="checkbox" id="ch1" name="criminal_history" value="conviction">
  <label for="ch2">Pending charges</label>
  <input type="checkbox" id="ch2" name="criminal_history" value="pending">

  <textarea name="explanation" aria-label="Explanation"></textarea>

  <input type="hidden" name="csrf_token" value="x">
  <input type="submit" value="Apply">
</form>
</body></html>`

func TestExtractFormFields(t *testing.T) {
	fields, err := ExtractFormFields(sampleForm)
	require.NoError(t, err)
	require.Len(t, fields, 6, "hidden and submit inputs are skipped")

	byName := make(map[string]catalog.IncomingFieldDescriptor)
	for _, f := range fields {
		byName[f.Name] = f
	}

	first := byName["first_name"]
	assert.Equal(t, catalog.FieldTypeText, first.Type)
	assert.Equal(t, "First Name", first.Label, "asterisk stripped")
	assert.True(t, first.Required)

	email := byName["email"]
	assert.Equal(t, catalog.FieldTypeEmail, email.Type)
	assert.Equal(t, "Email Address", email.Label)
	assert.Equal(t, "you@example.com", email.Placeholder)

	phone := byName["phone"]
	assert.Equal(t, catalog.FieldTypeTel, phone.Type)
	assert.Equal(t, "Phone Number", phone.Label, "wrapping label resolved")

	state := byName["state"]
	assert.Equal(t, catalog.FieldTypeSelect, state.Type)
	require.Len(t, state.Options, 2, "empty placeholder option skipped")
	assert.Equal(t, catalog.FieldOption{Value: "AL", Label: "Alabama"}, state.Options[0])

	criminal := byName["criminal_history"]
	assert.Equal(t, catalog.FieldTypeCheckbox, criminal.Type)
	require.Len(t, criminal.Options, 2, "checkbox group folded into one field")

	explanation := byName["explanation"]
	assert.Equal(t, catalog.FieldTypeTextarea, explanation.Type)
	assert.Equal(t, "Explanation", explanation.Label, "aria-label fallback")
}

func TestExtractFormFieldsSkipsNameless(t *testing.T) {
	_, err := ExtractFormFields(`<form><input type="text"></form>`)
	assert.Error(t, err, "no usable fields")
}

func TestExtractFormFieldsNoForm(t *testing.T) {
	_, err := ExtractFormFields(`<html><body><p>nothing here</p></body></html>`)
	assert.Error(t, err)
}
