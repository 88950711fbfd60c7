// Package authorship finds the author h-card of an entry following the IndieWeb
// authorship discovery algorithm.
package authorship

import (
	"net/url"
	"strings"

	"github.com/lysyi3m/hentry-comb/app/mf2"
)

type Resolver struct{}

func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve returns the author h-card of entry, looking at the entry itself, the page
// h-feed, rel=author links and finally page h-cards on the same host as baseURL.
// It returns nil when no author can be found. Inputs are never modified.
func (r *Resolver) Resolve(entry *mf2.Node, doc *mf2.Document, baseURL *url.URL) *mf2.Node {
	if entry == nil {
		return nil
	}

	cards := doc.FindByType(mf2.TypeCard)

	if author, ok := entry.First("author"); ok {
		if author.IsNode() {
			return author.Node
		}
		ref := author.String()
		if card := findByURL(cards, ref); card != nil {
			return card
		}
		if card := findByName(cards, ref); card != nil {
			return card
		}
		return nil
	}

	if feeds := doc.FindByType(mf2.TypeFeed); len(feeds) > 0 {
		if author, ok := feeds[0].First("author"); ok {
			if author.IsNode() {
				return author.Node
			}
			if card := findByURL(cards, author.String()); card != nil {
				return card
			}
		}
	}

	for _, rel := range doc.RelURLs("author") {
		if card := findByURL(cards, rel); card != nil {
			return card
		}
	}

	if baseURL != nil && baseURL.Hostname() != "" {
		for _, card := range cards {
			for _, u := range card.Strings("url") {
				if sameHost(u, baseURL.Hostname()) {
					return card
				}
			}
		}
	}

	return nil
}

func findByURL(cards []*mf2.Node, ref string) *mf2.Node {
	if ref == "" {
		return nil
	}
	for _, card := range cards {
		for _, u := range card.Strings("url") {
			if urlsMatch(u, ref) {
				return card
			}
		}
	}
	return nil
}

func findByName(cards []*mf2.Node, name string) *mf2.Node {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	for _, card := range cards {
		for _, n := range card.Strings("name") {
			if strings.TrimSpace(n) == name {
				return card
			}
		}
	}
	return nil
}

func urlsMatch(a, b string) bool {
	return strings.TrimSuffix(a, "/") == strings.TrimSuffix(b, "/")
}

func sameHost(raw, host string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Hostname(), host)
}
