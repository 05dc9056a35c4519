package importer

import (
	"encoding/csv"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"fieldcatalog/catalog"
)

// Required CSV columns. Header matching is case-insensitive and tolerant
// of surrounding whitespace.
var requiredColumns = []string{"field_name", "field_type", "label"}

// Optional CSV columns recognized by the parser.
var optionalColumns = []string{"required", "help_text", "category", "options", "placeholder"}

type csvColumnIndices struct {
	fieldName   int
	fieldType   int
	label       int
	required    int
	helpText    int
	category    int
	options     int
	placeholder int
}

// ParsedForm is the output of a form definition parse: the descriptors
// plus per-row problems that did not abort the parse.
type ParsedForm struct {
	Fields   []catalog.IncomingFieldDescriptor
	Warnings []string
}

// ParseCSVData parses a CSV form definition from raw bytes. Non-UTF-8
// input is retried as Windows-1252, which covers exports from older
// spreadsheet tools.
func ParseCSVData(data []byte) (*ParsedForm, error) {
	if !utf8.Valid(data) {
		decoder := charmap.Windows1252.NewDecoder()
		decoded, _, err := transform.Bytes(decoder, data)
		if err != nil {
			return nil, fmt.Errorf("decode csv as windows-1252: %w", err)
		}
		data = decoded
	}

	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("csv is too short, expected a header row and at least one data row")
	}

	indices, err := findCSVColumns(rows[0])
	if err != nil {
		return nil, err
	}

	form := &ParsedForm{}
	for rowIdx := 1; rowIdx < len(rows); rowIdx++ {
		row := rows[rowIdx]
		if isEmptyRow(row) {
			continue
		}

		descriptor, err := rowToDescriptor(row, indices)
		if err != nil {
			form.Warnings = append(form.Warnings, fmt.Sprintf("row %d: %v", rowIdx+1, err))
			continue
		}
		form.Fields = append(form.Fields, descriptor)
	}

	if len(form.Fields) == 0 {
		return nil, fmt.Errorf("csv contains no usable field rows")
	}
	return form, nil
}

func findCSVColumns(headers []string) (csvColumnIndices, error) {
	indices := csvColumnIndices{
		fieldName: -1, fieldType: -1, label: -1, required: -1,
		helpText: -1, category: -1, options: -1, placeholder: -1,
	}

	for i, header := range headers {
		switch strings.TrimSpace(strings.ToLower(header)) {
		case "field_name", "field name", "name":
			indices.fieldName = i
		case "field_type", "field type", "type":
			indices.fieldType = i
		case "label":
			indices.label = i
		case "required":
			indices.required = i
		case "help_text", "help text":
			indices.helpText = i
		case "category":
			indices.category = i
		case "options":
			indices.options = i
		case "placeholder":
			indices.placeholder = i
		}
	}

	var missing []string
	if indices.fieldName == -1 {
		missing = append(missing, "field_name")
	}
	if indices.fieldType == -1 {
		missing = append(missing, "field_type")
	}
	if indices.label == -1 {
		missing = append(missing, "label")
	}
	if len(missing) > 0 {
		return indices, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return indices, nil
}

func rowToDescriptor(row []string, indices csvColumnIndices) (catalog.IncomingFieldDescriptor, error) {
	descriptor := catalog.IncomingFieldDescriptor{
		Name:  cellAt(row, indices.fieldName),
		Label: cellAt(row, indices.label),
	}
	if descriptor.Name == "" {
		return descriptor, fmt.Errorf("field_name is empty")
	}

	rawType := strings.ToLower(cellAt(row, indices.fieldType))
	fieldType := catalog.FieldType(rawType)
	if rawType == "phone" {
		fieldType = catalog.FieldTypeTel
	}
	if !fieldType.Valid() {
		return descriptor, fmt.Errorf("unknown field_type %q", rawType)
	}
	descriptor.Type = fieldType

	descriptor.Required = parseBoolCell(cellAt(row, indices.required))
	descriptor.HelpText = cellAt(row, indices.helpText)
	descriptor.Placeholder = cellAt(row, indices.placeholder)

	if raw := cellAt(row, indices.options); raw != "" {
		descriptor.Options = parseOptionsCell(raw)
	}
	return descriptor, nil
}

// parseOptionsCell parses a semicolon-separated options cell. Each item
// is either "value" or "value|label".
func parseOptionsCell(raw string) []catalog.FieldOption {
	var options []catalog.FieldOption
	for _, item := range strings.Split(raw, ";") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		value, label, found := strings.Cut(item, "|")
		value = strings.TrimSpace(value)
		if !found {
			label = value
		}
		options = append(options, catalog.FieldOption{
			Value: value,
			Label: strings.TrimSpace(label),
		})
	}
	return options
}

func parseBoolCell(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "yes", "y", "1", "required":
		return true
	}
	return false
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
