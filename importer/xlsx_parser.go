package importer

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ParseXLSXFile parses a form definition workbook. The first sheet is
// expected to carry the same columns as the CSV format.
func ParseXLSXFile(filePath string) (*ParsedForm, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	return parseWorkbook(f)
}

// ParseXLSXData parses a form definition workbook from raw bytes, used
// by the upload endpoint.
func ParseXLSXData(data []byte) (*ParsedForm, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	return parseWorkbook(f)
}

func parseWorkbook(f *excelize.File) (*ParsedForm, error) {
	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheetName, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("sheet %q is too short, expected a header row and at least one data row", sheetName)
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
		return nil, fmt.Errorf("sheet %q contains no usable field rows", sheetName)
	}
	return form, nil
}
