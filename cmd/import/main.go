// Command import loads a form definition file (CSV or XLSX) into the
// catalog without going through the HTTP server.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"fieldcatalog/catalog"
	"fieldcatalog/importer"
)

func main() {
	dbPath := flag.String("db", "fieldcatalog.db", "path to the catalog database")
	name := flag.String("name", "", "application type name (required)")
	board := flag.String("board", "", "licensing board the form belongs to")
	dryRun := flag.Bool("dry-run", false, "resolve fields without writing anything")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <form-file.csv|.xlsx>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}
	filePath := flag.Arg(0)

	form, err := parseFile(filePath)
	if err != nil {
		log.Fatalf("parse %s: %v", filePath, err)
	}
	for _, warning := range form.Warnings {
		log.Printf("warning: %s", warning)
	}

	store, err := catalog.OpenStore(*dbPath)
	if err != nil {
		log.Fatalf("open catalog: %v", err)
	}
	defer store.Close()

	service := importer.NewImportService(store)

	if *dryRun {
		resolved, err := service.Preview(form)
		if err != nil {
			log.Fatalf("preview: %v", err)
		}
		for _, entry := range resolved {
			if entry.Result.Matched() {
				fmt.Printf("%-30s -> %s (%s, %.2f)\n",
					entry.Descriptor.Name, entry.Result.MatchedField.FieldKey,
					entry.Result.MatchType, entry.Result.Confidence)
			} else {
				fmt.Printf("%-30s -> NEW %s [%s]\n",
					entry.Descriptor.Name, entry.Suggestion.FieldKey, entry.Suggestion.Category)
			}
		}
		return
	}

	if *name == "" {
		log.Fatal("-name is required")
	}

	result, err := service.ImportForm(*name, *board, form)
	if err != nil {
		log.Fatalf("import: %v", err)
	}
	for _, importErr := range result.Errors {
		log.Printf("error: %s", importErr)
	}
	log.Printf("Done: %d fields, %d matched, %d created (application type %d)",
		result.Total, result.Matched, result.Created, result.ApplicationTypeID)
}

func parseFile(filePath string) (*importer.ParsedForm, error) {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".csv":
		data, err := os.ReadFile(filePath)
		if err != nil {
			return nil, err
		}
		return importer.ParseCSVData(data)
	case ".xlsx":
		return importer.ParseXLSXFile(filePath)
	}
	return nil, fmt.Errorf("unsupported file type, expected .csv or .xlsx")
}
