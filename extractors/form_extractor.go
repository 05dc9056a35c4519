package extractors

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"fieldcatalog/catalog"
)

// ExtractFormFields pulls field descriptors out of an HTML document:
// every input, select and textarea inside (or outside) a form element,
// with its label resolved from <label for=...>, a wrapping label, a
// placeholder or an aria-label, in that order.
func ExtractFormFields(htmlContent string) ([]catalog.IncomingFieldDescriptor, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	labelsFor := collectLabels(doc)

	var descriptors []catalog.IncomingFieldDescriptor
	seen := make(map[string]bool)

	doc.Find("input, select, textarea").Each(func(_ int, sel *goquery.Selection) {
		descriptor, ok := extractControl(sel, labelsFor)
		if !ok {
			return
		}
		// Radio and checkbox groups repeat the same name per option;
		// keep the first control and fold the rest into its options.
		if seen[descriptor.Name] {
			appendGroupOption(descriptors, descriptor)
			return
		}
		seen[descriptor.Name] = true
		descriptors = append(descriptors, descriptor)
	})

	if len(descriptors) == 0 {
		return nil, fmt.Errorf("no form fields found in document")
	}
	return descriptors, nil
}

// collectLabels maps control ids to their <label for=...> text.
func collectLabels(doc *goquery.Document) map[string]string {
	labels := make(map[string]string)
	doc.Find("label[for]").Each(func(_ int, sel *goquery.Selection) {
		id, _ := sel.Attr("for")
		if id == "" {
			return
		}
		if text := cleanLabelText(sel.Text()); text != "" {
			labels[id] = text
		}
	})
	return labels
}

func extractControl(sel *goquery.Selection, labelsFor map[string]string) (catalog.IncomingFieldDescriptor, bool) {
	var descriptor catalog.IncomingFieldDescriptor

	name, _ := sel.Attr("name")
	name = strings.TrimSpace(name)
	if name == "" {
		return descriptor, false
	}

	fieldType, ok := controlType(sel)
	if !ok {
		return descriptor, false
	}

	descriptor.Name = name
	descriptor.Type = fieldType
	descriptor.Label = resolveLabel(sel, labelsFor)
	descriptor.Placeholder, _ = sel.Attr("placeholder")
	_, descriptor.Required = sel.Attr("required")

	switch fieldType {
	case catalog.FieldTypeSelect:
		sel.Find("option").Each(func(_ int, opt *goquery.Selection) {
			value, hasValue := opt.Attr("value")
			label := cleanLabelText(opt.Text())
			// An explicit value="" is a placeholder ("Choose..."), not a
			// real option.
			if hasValue && value == "" {
				return
			}
			if value == "" {
				value = label
			}
			if value == "" {
				return
			}
			descriptor.Options = append(descriptor.Options,
				catalog.FieldOption{Value: value, Label: label})
		})
	case catalog.FieldTypeRadio, catalog.FieldTypeCheckbox:
		if option, ok := controlOption(sel, labelsFor); ok {
			descriptor.Options = append(descriptor.Options, option)
		}
	}

	return descriptor, true
}

// controlType maps an element to a catalog field type. Buttons and
// hidden inputs carry no user data and are skipped.
func controlType(sel *goquery.Selection) (catalog.FieldType, bool) {
	switch goquery.NodeName(sel) {
	case "select":
		return catalog.FieldTypeSelect, true
	case "textarea":
		return catalog.FieldTypeTextarea, true
	}

	inputType, _ := sel.Attr("type")
	switch strings.ToLower(strings.TrimSpace(inputType)) {
	case "", "text":
		return catalog.FieldTypeText, true
	case "email":
		return catalog.FieldTypeEmail, true
	case "tel", "phone":
		return catalog.FieldTypeTel, true
	case "number":
		return catalog.FieldTypeNumber, true
	case "date":
		return catalog.FieldTypeDate, true
	case "radio":
		return catalog.FieldTypeRadio, true
	case "checkbox":
		return catalog.FieldTypeCheckbox, true
	case "file":
		return catalog.FieldTypeFile, true
	}
	return "", false
}

func resolveLabel(sel *goquery.Selection, labelsFor map[string]string) string {
	if id, ok := sel.Attr("id"); ok {
		if label, ok := labelsFor[id]; ok {
			return label
		}
	}

	// A control nested inside its label: take the label text minus the
	// control's own text (relevant for selects).
	if wrapper := sel.Closest("label"); wrapper.Length() > 0 {
		text := wrapper.Text()
		text = strings.Replace(text, sel.Text(), "", 1)
		if cleaned := cleanLabelText(text); cleaned != "" {
			return cleaned
		}
	}

	if placeholder, ok := sel.Attr("placeholder"); ok {
		if cleaned := cleanLabelText(placeholder); cleaned != "" {
			return cleaned
		}
	}

	if aria, ok := sel.Attr("aria-label"); ok {
		return cleanLabelText(aria)
	}
	return ""
}

// controlOption derives the (value, label) pair of one radio or
// checkbox control.
func controlOption(sel *goquery.Selection, labelsFor map[string]string) (catalog.FieldOption, bool) {
	value, _ := sel.Attr("value")
	label := resolveLabel(sel, labelsFor)
	if value == "" {
		value = label
	}
	if value == "" {
		return catalog.FieldOption{}, false
	}
	return catalog.FieldOption{Value: value, Label: label}, true
}

// appendGroupOption folds a repeated radio/checkbox control into the
// first descriptor carrying its name.
func appendGroupOption(descriptors []catalog.IncomingFieldDescriptor, repeated catalog.IncomingFieldDescriptor) {
	for i := range descriptors {
		if descriptors[i].Name != repeated.Name {
			continue
		}
		for _, option := range repeated.Options {
			exists := false
			for _, existing := range descriptors[i].Options {
				if existing.Value == option.Value {
					exists = true
					break
				}
			}
			if !exists {
				descriptors[i].Options = append(descriptors[i].Options, option)
			}
		}
		return
	}
}

func cleanLabelText(raw string) string {
	cleaned := strings.Join(strings.Fields(raw), " ")
	cleaned = strings.TrimSuffix(cleaned, "*")
	cleaned = strings.TrimSuffix(cleaned, ":")
	return strings.TrimSpace(cleaned)
}
