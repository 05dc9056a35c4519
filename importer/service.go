package importer

import (
	"fmt"
	"log"
	"time"

	"fieldcatalog/catalog"
	"fieldcatalog/matching"
	"fieldcatalog/quality"
)

// ImportService resolves parsed form definitions against the catalog:
// every field either matches an existing entry or creates a new one, and
// the form itself is stored as an application type referencing the
// resolved entries. Replaying the same file matches what the first run
// created, so imports are safe to repeat.
type ImportService struct {
	store     *catalog.Store
	matcher   *matching.Matcher
	validator *quality.FieldValidator
}

// NewImportService wires an import service over the given store using
// the default alias table and purpose taxonomy.
func NewImportService(store *catalog.Store) *ImportService {
	return &ImportService{
		store:     store,
		matcher:   matching.NewDefaultMatcher(),
		validator: quality.NewFieldValidator(),
	}
}

// NewImportServiceWithMatcher wires an import service with a custom
// matcher, used when alias or taxonomy data is loaded from disk.
func NewImportServiceWithMatcher(store *catalog.Store, matcher *matching.Matcher) *ImportService {
	return &ImportService{
		store:     store,
		matcher:   matcher,
		validator: quality.NewFieldValidator(),
	}
}

// ImportResult summarizes one form import.
type ImportResult struct {
	ApplicationTypeID int64         `json:"application_type_id"`
	Total             int           `json:"total"`
	Matched           int           `json:"matched"`
	Created           int           `json:"created"`
	Warnings          []string      `json:"warnings,omitempty"`
	Errors            []string      `json:"errors,omitempty"`
	Started           time.Time     `json:"started"`
	Completed         time.Time     `json:"completed"`
	Duration          time.Duration `json:"duration"`
}

// ResolvedField is one import row after resolution, used by the dry-run
// preview endpoint.
type ResolvedField struct {
	Descriptor catalog.IncomingFieldDescriptor `json:"descriptor"`
	Result     *catalog.MatchResult            `json:"result"`
	Suggestion *catalog.NewEntrySuggestion     `json:"suggestion,omitempty"`
}

// Preview resolves every descriptor without writing anything.
func (s *ImportService) Preview(form *ParsedForm) ([]ResolvedField, error) {
	resolved := make([]ResolvedField, 0, len(form.Fields))
	for i := range form.Fields {
		descriptor := &form.Fields[i]
		result, err := s.matcher.Match(descriptor, s.store)
		if err != nil {
			return nil, fmt.Errorf("match %q: %w", descriptor.Name, err)
		}

		entry := ResolvedField{Descriptor: *descriptor, Result: result}
		if !result.Matched() {
			suggestion, err := s.matcher.SuggestNewEntry(descriptor)
			if err != nil {
				return nil, fmt.Errorf("suggest key for %q: %w", descriptor.Name, err)
			}
			entry.Suggestion = suggestion
		}
		resolved = append(resolved, entry)
	}
	return resolved, nil
}

// ImportForm resolves and persists a parsed form under the given
// application type name.
func (s *ImportService) ImportForm(name, board string, form *ParsedForm) (*ImportResult, error) {
	if name == "" {
		return nil, fmt.Errorf("application type name is required")
	}

	result := &ImportResult{
		Total:    len(form.Fields),
		Warnings: form.Warnings,
		Started:  time.Now(),
	}

	appType := &catalog.ApplicationType{Name: name, Board: board}

	for i := range form.Fields {
		descriptor := &form.Fields[i]

		field, created, err := s.resolveField(descriptor, name)
		if err != nil {
			result.Errors = append(result.Errors,
				fmt.Sprintf("field %q: %v", descriptor.Name, err))
			continue
		}
		if created {
			result.Created++
		} else {
			result.Matched++
		}

		appType.Fields = append(appType.Fields, catalog.FormFieldRef{
			FieldID:      field.ID,
			DisplayOrder: i,
			DisplayName:  descriptor.DisplayName(),
			Required:     descriptor.Required,
			HelpText:     descriptor.HelpText,
			Placeholder:  descriptor.Placeholder,
		})
	}

	if len(appType.Fields) == 0 {
		return nil, fmt.Errorf("no fields could be resolved for %q", name)
	}

	if err := s.store.CreateApplicationType(appType); err != nil {
		return nil, fmt.Errorf("persist application type %q: %w", name, err)
	}
	result.ApplicationTypeID = appType.ID

	result.Completed = time.Now()
	result.Duration = result.Completed.Sub(result.Started)

	log.Printf("Import %q completed: %d fields, %d matched, %d created, %d errors",
		name, result.Total, result.Matched, result.Created, len(result.Errors))

	return result, nil
}

// resolveField matches one descriptor against the catalog, creating a
// new entry when nothing matches. Returns the resolved entry and whether
// it was created by this call.
func (s *ImportService) resolveField(descriptor *catalog.IncomingFieldDescriptor, formName string) (*catalog.CanonicalField, bool, error) {
	match, err := s.matcher.Match(descriptor, s.store)
	if err != nil {
		return nil, false, err
	}

	if match.Matched() {
		field := match.MatchedField
		if err := s.store.IncrementUsage(field.ID); err != nil {
			return nil, false, err
		}
		// Remember the board's wording so the next import of it is an
		// alias hit instead of a fuzzy one.
		if wording := descriptor.DisplayName(); wording != "" && wording != field.CanonicalName {
			if err := s.store.AddAlias(field.ID, wording); err != nil {
				return nil, false, err
			}
		}
		return field, false, nil
	}

	suggestion, err := s.matcher.SuggestNewEntry(descriptor)
	if err != nil {
		return nil, false, err
	}

	field := &catalog.CanonicalField{
		FieldKey:      suggestion.FieldKey,
		CanonicalName: descriptor.DisplayName(),
		FieldType:     descriptor.Type,
		DataType:      dataTypeFor(descriptor.Type),
		Category:      suggestion.Category,
		Options:       descriptor.Options,
		Placeholder:   descriptor.Placeholder,
		HelpText:      descriptor.HelpText,
		UsageCount:    1,
		FirstUsedBy:   formName,
	}
	if err := s.validator.ValidateField(field); err != nil {
		return nil, false, err
	}

	field, created, err := s.store.GetOrCreate(field)
	if err != nil {
		return nil, false, err
	}
	if !created {
		// Lost the insert race or replayed an import; the existing entry
		// is the match.
		if err := s.store.IncrementUsage(field.ID); err != nil {
			return nil, false, err
		}
	}
	return field, created, nil
}

func dataTypeFor(fieldType catalog.FieldType) catalog.DataType {
	switch fieldType {
	case catalog.FieldTypeNumber:
		return catalog.DataTypeNumber
	case catalog.FieldTypeDate:
		return catalog.DataTypeDate
	case catalog.FieldTypeCheckbox:
		return catalog.DataTypeBoolean
	default:
		return catalog.DataTypeString
	}
}
