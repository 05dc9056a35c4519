// Command dedup scans the catalog for near-duplicate entries and
// optionally merges them. Without -apply it only reports what it would
// merge.
package main

import (
	"flag"
	"fmt"
	"log"

	"fieldcatalog/catalog"
	"fieldcatalog/matching"
)

func main() {
	dbPath := flag.String("db", "fieldcatalog.db", "path to the catalog database")
	threshold := flag.Float64("threshold", matching.DuplicateThreshold, "similarity threshold for flagging duplicates")
	apply := flag.Bool("apply", false, "merge the flagged pairs instead of only reporting them")
	fast := flag.Bool("fast", false, "use the prefix-bucketed scan for large catalogs")
	flag.Parse()

	store, err := catalog.OpenStore(*dbPath)
	if err != nil {
		log.Fatalf("open catalog: %v", err)
	}
	defer store.Close()

	fields, err := store.All()
	if err != nil {
		log.Fatalf("load catalog: %v", err)
	}
	log.Printf("Scanning %d catalog entries (threshold %.2f)", len(fields), *threshold)

	dedup := matching.NewDeduplicatorWithThreshold(*threshold)
	var pairs []catalog.DuplicatePair
	if *fast {
		pairs = dedup.FindDuplicatesFast(fields)
	} else {
		pairs = dedup.FindDuplicates(fields)
	}

	if len(pairs) == 0 {
		log.Println("No duplicates found")
		return
	}

	for _, pair := range pairs {
		fmt.Printf("%.3f  %s (id=%d, usage=%d)  <-  %s (id=%d, usage=%d)\n",
			pair.Similarity,
			pair.Field.FieldKey, pair.Field.ID, pair.Field.UsageCount,
			pair.Duplicate.FieldKey, pair.Duplicate.ID, pair.Duplicate.UsageCount)
	}
	log.Printf("Found %d duplicate pairs", len(pairs))

	if !*apply {
		log.Println("Dry run, pass -apply to merge")
		return
	}

	merged := 0
	for _, pair := range pairs {
		// Earlier merges may have already removed one side of the pair.
		primary, err := store.GetByID(pair.Field.ID)
		if err != nil {
			log.Fatalf("reload field %d: %v", pair.Field.ID, err)
		}
		duplicate, err := store.GetByID(pair.Duplicate.ID)
		if err != nil {
			log.Fatalf("reload field %d: %v", pair.Duplicate.ID, err)
		}
		if primary == nil || duplicate == nil {
			continue
		}

		if _, err := store.Merge(primary.ID, duplicate.ID); err != nil {
			log.Printf("merge %s into %s failed: %v", duplicate.FieldKey, primary.FieldKey, err)
			continue
		}
		merged++
		log.Printf("Merged %s into %s", duplicate.FieldKey, primary.FieldKey)
	}

	log.Printf("Merged %d/%d pairs", merged, len(pairs))
}
