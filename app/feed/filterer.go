package feed

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// filterFields maps the field names accepted in feed configs to item values.
var filterFields = map[string]func(Item) string{
	"title":       func(item Item) string { return item.Title },
	"description": func(item Item) string { return item.Description },
	"content":     func(item Item) string { return item.Content },
	"authors":     func(item Item) string { return strings.Join(item.Authors, " ") },
	"link":        func(item Item) string { return item.Link },
	"categories":  func(item Item) string { return strings.Join(item.Categories, " ") },
}

type Filterer struct{}

func NewFilterer() *Filterer {
	return &Filterer{}
}

// Run marks items matched by the feed filters. Filtered items are kept, not dropped.
func (f *Filterer) Run(items []Item, feedConfig *Config) []Item {
	if len(feedConfig.Filters) == 0 {
		return items
	}

	filtered := make([]Item, 0, len(items))
	for _, item := range items {
		item.IsFiltered, item.FilterReason = f.applyFilters(item, feedConfig.Filters)
		filtered = append(filtered, item)
	}

	return filtered
}

func (f *Filterer) applyFilters(item Item, filters []ConfigFilter) (bool, string) {
	for _, filter := range filters {
		value := f.getFieldValue(item, filter.Field)

		for _, exclude := range filter.Excludes {
			if f.matchesFilter(value, exclude) {
				return true, fmt.Sprintf("Excluded by %s filter: contains '%s'", filter.Field, exclude)
			}
		}

		if len(filter.Includes) == 0 {
			continue
		}

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

	return false, ""
}

func (f *Filterer) matchesFilter(value, pattern string) bool {
	fold := cases.Fold()
	return strings.Contains(fold.String(value), fold.String(pattern))
}

func (f *Filterer) getFieldValue(item Item, field string) string {
	if get, ok := filterFields[field]; ok {
		return get(item)
	}
	return ""
}
