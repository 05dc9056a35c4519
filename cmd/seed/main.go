// Command seed fills a catalog database with realistic fake data for
// load testing the matching and dedup endpoints.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/brianvoe/gofakeit/v6"

	"fieldcatalog/catalog"
	"fieldcatalog/importer"
)

// Core fields most license application forms share.
var coreFields = []catalog.IncomingFieldDescriptor{
	{Name: "first_name", Label: "First Name", Type: catalog.FieldTypeText, Required: true},
	{Name: "last_name", Label: "Last Name", Type: catalog.FieldTypeText, Required: true},
	{Name: "middle_name", Label: "Middle Name", Type: catalog.FieldTypeText},
	{Name: "date_of_birth", Label: "Date of Birth", Type: catalog.FieldTypeDate, Required: true},
	{Name: "email", Label: "Email Address", Type: catalog.FieldTypeEmail, Required: true},
	{Name: "phone", Label: "Phone Number", Type: catalog.FieldTypeTel},
	{Name: "address", Label: "Street Address", Type: catalog.FieldTypeText},
	{Name: "city", Label: "City", Type: catalog.FieldTypeText},
	{Name: "zip_code", Label: "ZIP Code", Type: catalog.FieldTypeText},
	{Name: "license_number", Label: "License Number", Type: catalog.FieldTypeText},
	{Name: "criminal_history", Label: "Do you have a criminal history?", Type: catalog.FieldTypeCheckbox},
}

// Wording variants boards use for the same core fields; imports of these
// exercise the alias and fuzzy stages.
var wordingVariants = map[string][]string{
	"first_name": {"Legal First Name", "Given Name", "Applicant First Name"},
	"last_name":  {"Surname", "Family Name", "Legal Last Name"},
	"email":      {"E-mail Address", "Your Email"},
	"phone":      {"Telephone", "Mobile Number", "Phone"},
	"zip_code":   {"Zip", "Postal Code"},
}

func main() {
	dbPath := flag.String("db", "fieldcatalog.db", "path to the catalog database")
	forms := flag.Int("forms", 25, "number of fake application forms to import")
	seed := flag.Int64("seed", 0, "randomness seed, 0 for reproducible output")
	flag.Parse()

	gofakeit.Seed(*seed)

	store, err := catalog.OpenStore(*dbPath)
	if err != nil {
		log.Fatalf("open catalog: %v", err)
	}
	defer store.Close()

	service := importer.NewImportService(store)

	for i := 0; i < *forms; i++ {
		form := fakeForm()
		name := fmt.Sprintf("%s License Application #%d", gofakeit.JobTitle(), i+1)
		board := gofakeit.Company() + " Board"

		result, err := service.ImportForm(name, board, form)
		if err != nil {
			log.Fatalf("import form %d: %v", i+1, err)
		}
		log.Printf("Form %d: %d fields, %d matched, %d created",
			i+1, result.Total, result.Matched, result.Created)
	}

	count, err := store.Count()
	if err != nil {
		log.Fatalf("count fields: %v", err)
	}
	log.Printf("Done: catalog now holds %d fields", count)
}

// fakeForm builds a plausible board form: a random subset of the core
// fields, some under variant wordings, plus a few board-specific extras.
func fakeForm() *importer.ParsedForm {
	form := &importer.ParsedForm{}

	for _, field := range coreFields {
		if gofakeit.Number(0, 9) < 2 { // boards skip some fields
			continue
		}

		descriptor := field
		if variants, ok := wordingVariants[field.Name]; ok && gofakeit.Bool() {
			descriptor.Label = variants[gofakeit.Number(0, len(variants)-1)]
			descriptor.Name = descriptor.Label
		}
		if gofakeit.Bool() {
			descriptor.HelpText = gofakeit.Sentence(8)
		}
		form.Fields = append(form.Fields, descriptor)
	}

	// A couple of fields unique to this board, forcing new entries.
	for i := 0; i < gofakeit.Number(1, 3); i++ {
		form.Fields = append(form.Fields, catalog.IncomingFieldDescriptor{
			Name:  fmt.Sprintf("%s %s", gofakeit.BuzzWord(), gofakeit.NounAbstract()),
			Label: gofakeit.Question(),
			Type:  catalog.FieldTypeText,
		})
	}

	return form
}
