package feed

import (
	"fmt"
	"log/slog"
	"strings"
)

type Filterer struct{}

func NewFilterer() *Filterer {
	return &Filterer{}
}

// Run returns the records that pass every filter, in their original order.
func (f *Filterer) Run(records []AppRecord, filters []ConfigFilter) []AppRecord {
	if len(filters) == 0 {
		return records
	}

	kept := make([]AppRecord, 0, len(records))
	for _, record := range records {
		if isFiltered, reason := f.applyFilters(record, filters); isFiltered {
			slog.Debug("Record filtered", "title", record.Title, "version", record.Version, "reason", reason)
			continue
		}
		kept = append(kept, record)
	}

	return kept
}

func (f *Filterer) applyFilters(record AppRecord, filters []ConfigFilter) (bool, string) {
	for _, filter := range filters {
		value := f.getFieldValue(record, filter.Field)

		for _, exclude := range filter.Excludes {
			if f.matchesFilter(value, exclude) {
				return true, fmt.Sprintf("Excluded by %s filter: contains '%s'", filter.Field, exclude)
			}
		}

		if len(filter.Includes) > 0 {
			matched := false
			for _, include := range filter.Includes {
				if f.matchesFilter(value, include) {
					matched = true
					break
				}
			}
			if !matched {
				return true, fmt.Sprintf("Excluded by %s filter: does not contain any of %v", filter.Field, filter.Includes)
			}
		}
	}

	return false, ""
}

func (f *Filterer) matchesFilter(value, pattern string) bool {
	return strings.Contains(strings.ToLower(value), strings.ToLower(pattern))
}

func (f *Filterer) getFieldValue(record AppRecord, field string) string {
	switch field {
	case "title":
		return record.Title
	case "publisher":
		return record.Publisher
	case "description":
		return record.Description
	case "changelog":
		return record.Changelog
	case "keywords":
		return strings.Join(record.Keywords, " ")
	case "framework":
		return strings.Join(record.Framework, " ")
	case "architecture":
		return strings.Join(record.Architecture, " ")
	default:
		return ""
	}
}
