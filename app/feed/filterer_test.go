package feed

import (
	"testing"
	"time"
)

func TestFilterer_NoFilters(t *testing.T) {
	filterer := NewFilterer()

	items := []Item{
		{Title: "Morning note", Description: "Coffee"},
		{Title: "Evening note", Description: "Tea"},
	}

	result := filterer.Run(items, &Config{})

	if len(result) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(result))
	}
	for i, item := range result {
		if item.IsFiltered {
			t.Errorf("Item %d should not be filtered when no filters are configured", i)
		}
		if item.FilterReason != "" {
			t.Errorf("Item %d should have empty filter reason, got: %s", i, item.FilterReason)
		}
	}
}

func TestFilterer_Rules(t *testing.T) {
	tests := []struct {
		name     string
		item     Item
		filter   ConfigFilter
		filtered bool
	}{
		{
			name:     "title include matches",
			item:     Item{Title: "IndieWeb Camp recap"},
			filter:   ConfigFilter{Field: "title", Includes: []string{"indieweb"}},
			filtered: false,
		},
		{
			name:     "title include misses",
			item:     Item{Title: "Lunch photo"},
			filter:   ConfigFilter{Field: "title", Includes: []string{"indieweb", "webmention"}},
			filtered: true,
		},
		{
			name:     "exclude wins over include",
			item:     Item{Title: "Sponsored IndieWeb post"},
			filter:   ConfigFilter{Field: "title", Includes: []string{"indieweb"}, Excludes: []string{"sponsored"}},
			filtered: true,
		},
		{
			name:     "content exclude",
			item:     Item{Content: "<p>Checked in at the gym</p>"},
			filter:   ConfigFilter{Field: "content", Excludes: []string{"checked in"}},
			filtered: true,
		},
		{
			name:     "authors joined",
			item:     Item{Authors: []string{"Jane Doe", "John Roe"}},
			filter:   ConfigFilter{Field: "authors", Includes: []string{"john"}},
			filtered: false,
		},
		{
			name:     "categories joined",
			item:     Item{Categories: []string{"photos", "travel"}},
			filter:   ConfigFilter{Field: "categories", Excludes: []string{"travel"}},
			filtered: true,
		},
		{
			name:     "link include",
			item:     Item{Link: "https://example.com/notes/1"},
			filter:   ConfigFilter{Field: "link", Includes: []string{"/notes/"}},
			filtered: false,
		},
		{
			name:     "unknown field never matches includes",
			item:     Item{Title: "Anything"},
			filter:   ConfigFilter{Field: "unknown", Includes: []string{"anything"}},
			filtered: true,
		},
		{
			name:     "case folded",
			item:     Item{Title: "ÉCOLE notes"},
			filter:   ConfigFilter{Field: "title", Includes: []string{"école"}},
			filtered: false,
		},
	}

	filterer := NewFilterer()
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := filterer.Run([]Item{test.item}, &Config{Filters: []ConfigFilter{test.filter}})
			if result[0].IsFiltered != test.filtered {
				t.Errorf("Expected filtered=%v, got %v (reason: %s)", test.filtered, result[0].IsFiltered, result[0].FilterReason)
			}
			if test.filtered && result[0].FilterReason == "" {
				t.Error("Expected filter reason for filtered item")
			}
		})
	}
}

func TestFilterer_PreservesItemData(t *testing.T) {
	filterer := NewFilterer()

	published := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	items := []Item{
		{
			GUID:        "https://example.com/a",
			Title:       "Title A",
			Link:        "https://example.com/a",
			Content:     "<p>Hello</p>",
			ImageURL:    "https://example.com/me.jpg",
			PublishedAt: published,
			Authors:     []string{"Jane"},
			Categories:  []string{"notes"},
			ContentHash: "hash123",
		},
	}

	result := filterer.Run(items, &Config{Filters: []ConfigFilter{{Field: "title", Includes: []string{"title"}}}})

	item := result[0]
	if item.IsFiltered {
		t.Errorf("Item should not be filtered")
	}
	if item.GUID != "https://example.com/a" || item.Link != "https://example.com/a" {
		t.Errorf("GUID/link not preserved: %s / %s", item.GUID, item.Link)
	}
	if item.ImageURL != "https://example.com/me.jpg" {
		t.Errorf("ImageURL not preserved, got '%s'", item.ImageURL)
	}
	if !item.PublishedAt.Equal(published) {
		t.Errorf("PublishedAt not preserved, got %v", item.PublishedAt)
	}
	if item.ContentHash != "hash123" {
		t.Errorf("ContentHash not preserved, got '%s'", item.ContentHash)
	}
}

func TestFilterer_MatchesFilter(t *testing.T) {
	filterer := NewFilterer()

	tests := []struct {
		value    string
		pattern  string
		expected bool
	}{
		{"Hello World", "hello", true},
		{"Hello World", "WORLD", true},
		{"Hello World", "xyz", false},
		{"", "test", false},
		{"test", "", true},
	}

	for _, test := range tests {
		result := filterer.matchesFilter(test.value, test.pattern)
		if result != test.expected {
			t.Errorf("matchesFilter('%s', '%s'): expected %v, got %v", test.value, test.pattern, test.expected, result)
		}
	}
}
