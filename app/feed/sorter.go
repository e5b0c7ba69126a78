package feed

import "slices"

// SortByLastUpdated returns a copy of records ordered most recent first.
// Records with equal timestamps keep their relative order.
func SortByLastUpdated(records []AppRecord) []AppRecord {
	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, func(a, b AppRecord) int {
		return b.LastUpdated.Compare(a.LastUpdated)
	})
	return sorted
}

// Limit truncates records to maxItems entries. Zero or less keeps them all.
func Limit(records []AppRecord, maxItems int) []AppRecord {
	if maxItems <= 0 || len(records) <= maxItems {
		return records
	}
	return records[:maxItems]
}
