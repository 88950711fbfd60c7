package feed

import (
	"net/url"

	"github.com/lysyi3m/hentry-comb/app/mf2"
)

// Cursor walks the entries of a Loader in document order.
//
// Before anything is loaded, and after Destroy, a cursor is empty: Valid is false and
// Rewind does nothing. Otherwise it sits on an entry index in [0, n) or past the end.
// Cursors come from Loader.Cursor; the zero Cursor is permanently empty.
type Cursor struct {
	loader *Loader
	pos    int
}

// Rewind moves back to the first entry.
func (c *Cursor) Rewind() {
	if c.loader == nil || c.loader.entries == nil {
		return
	}
	c.pos = 0
}

// Next advances by one entry. Past the last entry the cursor stays exhausted.
func (c *Cursor) Next() {
	if c.loader == nil || c.loader.entries == nil || c.pos >= len(c.loader.entries) {
		return
	}
	c.pos++
}

func (c *Cursor) Valid() bool {
	_, ok := c.Current()
	return ok
}

// Key returns the index of the current entry.
func (c *Cursor) Key() (int, bool) {
	if !c.Valid() {
		return 0, false
	}
	return c.pos, true
}

// Current returns a handle on the current entry.
func (c *Cursor) Current() (Entry, bool) {
	if c.loader == nil {
		return Entry{}, false
	}
	return c.loader.entryAt(c.pos)
}

// Entry is an immutable handle on one h-entry together with the document it came from.
// The zero Entry stands for "no entry"; every extractor accessor reports it as absent.
// An Entry taken from a Loader is also absent once that loader is destroyed or reloaded.
type Entry struct {
	index   int
	node    *mf2.Node
	doc     *mf2.Document
	baseURL *url.URL

	loader     *Loader
	generation uint64
}

func (e Entry) Index() int {
	return e.index
}

// Node returns nil for an absent entry.
func (e Entry) Node() *mf2.Node {
	if e.IsZero() {
		return nil
	}
	return e.node
}

func (e Entry) IsZero() bool {
	if e.node == nil {
		return true
	}
	return e.loader != nil && (e.loader.generation != e.generation || e.loader.entries == nil)
}
