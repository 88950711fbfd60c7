package feed

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"iter"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/lysyi3m/hentry-comb/app/mf2"
)

// Loader fetches one page, parses it and keeps its h-entry list for iteration.
// A Loader is not safe for concurrent use; load feeds in parallel with separate loaders.
type Loader struct {
	fetcher Fetcher
	parser  DocumentParser
	timeout time.Duration

	doc     *mf2.Document
	baseURL *url.URL
	entries []*mf2.Node // nil until a successful Load and after Destroy
	htmlURL string

	// generation changes on every Load and Destroy; entries handed out earlier go stale.
	generation uint64
}

func NewLoader(fetcher Fetcher, parser DocumentParser, timeout time.Duration) *Loader {
	return &Loader{
		fetcher: fetcher,
		parser:  parser,
		timeout: timeout,
	}
}

// Load fetches and parses rawURL. On failure the loader is left empty and the error
// wraps ErrConfig or ErrParse.
func (l *Loader) Load(ctx context.Context, rawURL string) error {
	l.reset()

	feedURL := html.UnescapeString(rawURL)
	if strings.TrimSpace(feedURL) == "" {
		return fmt.Errorf("%w: url is required", ErrConfig)
	}

	baseURL, err := url.Parse(feedURL)
	if err != nil {
		return fmt.Errorf("%w: invalid url %q: %w", ErrConfig, feedURL, err)
	}
	if (baseURL.Scheme != "http" && baseURL.Scheme != "https") || baseURL.Host == "" {
		return fmt.Errorf("%w: url %q must be absolute http or https", ErrConfig, feedURL)
	}

	fetchCtx := ctx
	if l.timeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	data, err := l.fetcher.Fetch(fetchCtx, feedURL)
	if err != nil {
		return fmt.Errorf("%w: failed to fetch %s: %w", ErrParse, feedURL, err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return fmt.Errorf("%w: empty document from %s", ErrParse, feedURL)
	}

	doc, err := l.parser.Parse(data, baseURL)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrParse, err)
	}
	if doc == nil {
		return fmt.Errorf("%w: no document from %s", ErrParse, feedURL)
	}

	entries := doc.FindByType(mf2.TypeEntry)
	if entries == nil {
		entries = []*mf2.Node{}
	}

	l.doc = doc
	l.baseURL = baseURL
	l.entries = entries
	l.htmlURL = feedURL

	slog.Debug("Document loaded", "url", feedURL, "entries", len(entries))

	return nil
}

// HTMLURL returns the decoded URL of the last successful Load.
func (l *Loader) HTMLURL() (string, bool) {
	if l.htmlURL == "" {
		return "", false
	}
	return l.htmlURL, true
}

// Document returns the parsed page, or nil when nothing is loaded.
func (l *Loader) Document() *mf2.Document {
	return l.doc
}

// Len returns the number of loaded entries.
func (l *Loader) Len() int {
	return len(l.entries)
}

// Destroy drops the loaded entries. Every cursor of this loader becomes invalid, and
// every Entry taken from it reads as absent.
func (l *Loader) Destroy() {
	l.entries = nil
	l.doc = nil
	l.generation++
}

// Cursor returns a new cursor positioned on the first entry.
func (l *Loader) Cursor() *Cursor {
	return &Cursor{loader: l}
}

// Entries yields the loaded entries in document order.
func (l *Loader) Entries() iter.Seq2[int, Entry] {
	return func(yield func(int, Entry) bool) {
		c := l.Cursor()
		for c.Rewind(); c.Valid(); c.Next() {
			entry, _ := c.Current()
			if !yield(entry.Index(), entry) {
				return
			}
		}
	}
}

func (l *Loader) reset() {
	l.Destroy()
	l.baseURL = nil
	l.htmlURL = ""
}

func (l *Loader) entryAt(i int) (Entry, bool) {
	if l.entries == nil || i < 0 || i >= len(l.entries) {
		return Entry{}, false
	}
	return Entry{
		index:      i,
		node:       l.entries[i],
		doc:        l.doc,
		baseURL:    l.baseURL,
		loader:     l,
		generation: l.generation,
	}, true
}
