package feed

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/lysyi3m/hentry-comb/app/mf2"
)

type fakeResolver struct {
	author *mf2.Node
	calls  int
}

func (r *fakeResolver) Resolve(entry *mf2.Node, doc *mf2.Document, baseURL *url.URL) *mf2.Node {
	r.calls++
	return r.author
}

var fixedNow = time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

func newTestExtractor(resolver AuthorResolver) *Extractor {
	x := NewExtractor(resolver)
	x.location = time.UTC
	x.now = func() time.Time { return fixedNow }
	return x
}

func loadEntries(t *testing.T, doc *mf2.Document) []Entry {
	t.Helper()
	loader, _ := newTestLoader(doc)
	if err := loader.Load(context.Background(), "http://ex.com/"); err != nil {
		t.Fatal(err)
	}
	var entries []Entry
	for _, entry := range loader.Entries() {
		entries = append(entries, entry)
	}
	return entries
}

func singleEntry(t *testing.T, props map[string][]mf2.Value) Entry {
	t.Helper()
	return loadEntries(t, &mf2.Document{Items: []*mf2.Node{entryNode(props)}})[0]
}

func TestExtractor_TwoEntryDocument(t *testing.T) {
	entries := loadEntries(t, twoEntryDocument())
	x := newTestExtractor(nil)

	if id, ok := x.ID(entries[0]); !ok || id != "http://ex.com/a" {
		t.Errorf("Expected id 'http://ex.com/a', got '%s' (%v)", id, ok)
	}
	if id, ok := x.ID(entries[1]); !ok || id != hashID("Title B") {
		t.Errorf("Expected id to be hash of 'Title B', got '%s' (%v)", id, ok)
	}

	if date, ok := x.Date(entries[0]); !ok || date != "2020-01-01 00:00:00" {
		t.Errorf("Expected date '2020-01-01 00:00:00', got '%s' (%v)", date, ok)
	}
	if date, ok := x.Date(entries[1]); !ok || date != "2024-05-06 07:08:09" {
		t.Errorf("Expected date to fall back to now, got '%s' (%v)", date, ok)
	}

	if title, ok := x.Title(entries[1]); !ok || title != "Title B" {
		t.Errorf("Expected title 'Title B', got '%s' (%v)", title, ok)
	}
	if _, ok := x.Link(entries[1]); ok {
		t.Error("Expected no link for entry without url")
	}
}

func TestExtractor_IDHashesLongURL(t *testing.T) {
	longURL := "http://ex.com/" + strings.Repeat("a", 300)
	entry := singleEntry(t, map[string][]mf2.Value{"url": {strValue(longURL)}})

	id, ok := newTestExtractor(nil).ID(entry)
	if !ok {
		t.Fatal("Expected id")
	}
	if id != hashID(longURL) {
		t.Errorf("Expected hashed id, got '%s'", id)
	}
	if len(id) != 32 {
		t.Errorf("Expected 32 character id, got %d", len(id))
	}
}

func TestExtractor_IDWithoutURLOrName(t *testing.T) {
	entry := singleEntry(t, map[string][]mf2.Value{})

	id, ok := newTestExtractor(nil).ID(entry)
	if !ok || id != hashID("") {
		t.Errorf("Expected hash of empty name, got '%s' (%v)", id, ok)
	}
}

func TestExtractor_Content(t *testing.T) {
	x := newTestExtractor(nil)

	embedded := singleEntry(t, map[string][]mf2.Value{
		"content": {{Text: "Hello", HTML: "<p>Hello</p>", Embedded: true}},
	})
	if content, ok := x.Content(embedded); !ok || content != "<p>Hello</p>" {
		t.Errorf("Expected embedded html, got '%s' (%v)", content, ok)
	}

	plain := singleEntry(t, map[string][]mf2.Value{
		"content": {strValue("Hello")},
	})
	if _, ok := x.Content(plain); ok {
		t.Error("Expected no content for plain text value")
	}

	missing := singleEntry(t, map[string][]mf2.Value{})
	if _, ok := x.Content(missing); ok {
		t.Error("Expected no content when property is missing")
	}
}

func TestExtractor_Icon(t *testing.T) {
	jane := &mf2.Node{
		Type: []string{mf2.TypeCard},
		Properties: map[string][]mf2.Value{
			"name":  {strValue("Jane")},
			"photo": {strValue("http://ex.com/jane.jpg")},
		},
	}
	discovered := &mf2.Node{
		Type: []string{mf2.TypeCard},
		Properties: map[string][]mf2.Value{
			"photo": {strValue("http://ex.com/found.jpg")},
		},
	}

	t.Run("declared author with photo", func(t *testing.T) {
		resolver := &fakeResolver{author: discovered}
		entry := singleEntry(t, map[string][]mf2.Value{"author": {{Node: jane}}})

		icon, ok := newTestExtractor(resolver).Icon(entry)
		if !ok || icon != "http://ex.com/jane.jpg" {
			t.Errorf("Expected author photo, got '%s' (%v)", icon, ok)
		}
		if resolver.calls != 0 {
			t.Errorf("Expected resolver not to be consulted, got %d calls", resolver.calls)
		}
	})

	t.Run("declared author without photo does not fall back", func(t *testing.T) {
		resolver := &fakeResolver{author: discovered}
		noPhoto := &mf2.Node{Type: []string{mf2.TypeCard}, Properties: map[string][]mf2.Value{"name": {strValue("Jane")}}}
		entry := singleEntry(t, map[string][]mf2.Value{"author": {{Node: noPhoto}}})

		if icon, ok := newTestExtractor(resolver).Icon(entry); ok {
			t.Errorf("Expected no icon, got '%s'", icon)
		}
		if resolver.calls != 0 {
			t.Errorf("Expected resolver not to be consulted, got %d calls", resolver.calls)
		}
	})

	t.Run("declared author as plain text", func(t *testing.T) {
		entry := singleEntry(t, map[string][]mf2.Value{"author": {strValue("Jane")}})
		if icon, ok := newTestExtractor(&fakeResolver{author: discovered}).Icon(entry); ok {
			t.Errorf("Expected no icon, got '%s'", icon)
		}
	})

	t.Run("discovered author", func(t *testing.T) {
		resolver := &fakeResolver{author: discovered}
		entry := singleEntry(t, map[string][]mf2.Value{"name": {strValue("Note")}})

		icon, ok := newTestExtractor(resolver).Icon(entry)
		if !ok || icon != "http://ex.com/found.jpg" {
			t.Errorf("Expected discovered photo, got '%s' (%v)", icon, ok)
		}
		if resolver.calls != 1 {
			t.Errorf("Expected 1 resolver call, got %d", resolver.calls)
		}
	})

	t.Run("no author found", func(t *testing.T) {
		entry := singleEntry(t, map[string][]mf2.Value{"name": {strValue("Note")}})
		if _, ok := newTestExtractor(&fakeResolver{}).Icon(entry); ok {
			t.Error("Expected no icon")
		}
	})
}

func TestExtractor_Time(t *testing.T) {
	x := newTestExtractor(nil)

	tests := []struct {
		name      string
		published string
		expected  string
	}{
		{"rfc3339", "2020-01-01T00:00:00Z", "2020-01-01 00:00:00"},
		{"offset converted", "2020-01-01T02:30:00+02:00", "2020-01-01 00:30:00"},
		{"date only", "2021-03-04", "2021-03-04 00:00:00"},
		{"unparseable", "sometime last week", "2024-05-06 07:08:09"},
		{"blank", "  ", "2024-05-06 07:08:09"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			entry := singleEntry(t, map[string][]mf2.Value{"published": {strValue(test.published)}})
			date, ok := x.Date(entry)
			if !ok || date != test.expected {
				t.Errorf("Expected '%s', got '%s' (%v)", test.expected, date, ok)
			}
		})
	}
}

func TestExtractor_ZeroEntry(t *testing.T) {
	x := newTestExtractor(&fakeResolver{})
	var entry Entry

	if _, ok := x.ID(entry); ok {
		t.Error("Expected no id")
	}
	if _, ok := x.Title(entry); ok {
		t.Error("Expected no title")
	}
	if _, ok := x.Content(entry); ok {
		t.Error("Expected no content")
	}
	if _, ok := x.Icon(entry); ok {
		t.Error("Expected no icon")
	}
	if _, ok := x.Link(entry); ok {
		t.Error("Expected no link")
	}
	if _, ok := x.Date(entry); ok {
		t.Error("Expected no date")
	}
}
