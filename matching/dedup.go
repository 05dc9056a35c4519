package matching

import (
	"fieldcatalog/catalog"
	"fieldcatalog/normalization/algorithms"
)

// DuplicateThreshold is the label similarity above which two same-typed
// catalog entries are flagged as duplicates.
const DuplicateThreshold = 0.9

// Deduplicator finds near-duplicate catalog entries the import pipeline
// missed. It runs offline over the full catalog, not per import.
type Deduplicator struct {
	threshold float64
}

// NewDeduplicator creates a deduplicator at the standard threshold.
func NewDeduplicator() *Deduplicator {
	return &Deduplicator{threshold: DuplicateThreshold}
}

// NewDeduplicatorWithThreshold allows an administrative job to widen or
// narrow the scan. Out-of-range values fall back to the standard.
func NewDeduplicatorWithThreshold(threshold float64) *Deduplicator {
	if threshold <= 0 || threshold > 1 {
		threshold = DuplicateThreshold
	}
	return &Deduplicator{threshold: threshold}
}

// FindDuplicates scans every unordered pair of entries sharing a field
// type and flags pairs whose display labels are near-identical. Each
// returned pair is ordered primary-first per ChoosePrimary.
func (d *Deduplicator) FindDuplicates(entries []*catalog.CanonicalField) []catalog.DuplicatePair {
	var pairs []catalog.DuplicatePair

	for i, a := range entries {
		for _, b := range entries[i+1:] {
			if a.FieldType != b.FieldType {
				continue
			}

			similarity := algorithms.NormalizedSimilarity(a.CanonicalName, b.CanonicalName)
			if similarity < d.threshold {
				continue
			}

			primary, duplicate := ChoosePrimary(a, b)
			pairs = append(pairs, catalog.DuplicatePair{
				Field:      primary,
				Duplicate:  duplicate,
				Similarity: similarity,
			})
		}
	}

	return pairs
}

// FindDuplicatesFast prunes the pairwise scan with a prefix index over
// the labels. Near-identical labels almost always share a short prefix,
// so this trades a sliver of recall for a much smaller candidate space
// on large catalogs.
func (d *Deduplicator) FindDuplicatesFast(entries []*catalog.CanonicalField) []catalog.DuplicatePair {
	index := algorithms.NewPrefixIndex(3)
	for i, entry := range entries {
		index.Add(i, entry.CanonicalName)
	}

	var pairs []catalog.DuplicatePair
	for _, bucket := range index.Buckets() {
		for i, ai := range bucket {
			a := entries[ai]
			for _, bi := range bucket[i+1:] {
				b := entries[bi]
				if a.FieldType != b.FieldType {
					continue
				}

				similarity := algorithms.NormalizedSimilarity(a.CanonicalName, b.CanonicalName)
				if similarity < d.threshold {
					continue
				}

				primary, duplicate := ChoosePrimary(a, b)
				pairs = append(pairs, catalog.DuplicatePair{
					Field:      primary,
					Duplicate:  duplicate,
					Similarity: similarity,
				})
			}
		}
	}

	return pairs
}

// ChoosePrimary picks the surviving side of a merge: the entry with the
// higher usage count, then the earlier created, then the smaller id.
func ChoosePrimary(a, b *catalog.CanonicalField) (primary, duplicate *catalog.CanonicalField) {
	if a.UsageCount != b.UsageCount {
		if a.UsageCount > b.UsageCount {
			return a, b
		}
		return b, a
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		if a.CreatedAt.Before(b.CreatedAt) {
			return a, b
		}
		return b, a
	}
	if a.ID <= b.ID {
		return a, b
	}
	return b, a
}
