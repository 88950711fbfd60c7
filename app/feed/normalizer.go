package feed

import (
	"cmp"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/lysyi3m/hentry-comb/app/mf2"
)

// Normalizer turns the entries of a loaded page into feed items.
type Normalizer struct {
	extractor *Extractor
}

func NewNormalizer(extractor *Extractor) *Normalizer {
	return &Normalizer{extractor: extractor}
}

func (n *Normalizer) Run(loader *Loader) (*Metadata, []Item) {
	metadata := n.metadata(loader)

	items := make([]Item, 0, loader.Len())
	for _, entry := range loader.Entries() {
		normalized := n.normalizeEntry(entry)
		normalized.ContentHash = n.generateContentHash(normalized)
		items = append(items, normalized)
	}

	return metadata, items
}

func (n *Normalizer) metadata(loader *Loader) *Metadata {
	htmlURL, _ := loader.HTMLURL()
	metadata := &Metadata{
		Title: htmlURL,
		Link:  htmlURL,
	}

	feeds := loader.Document().FindByType(mf2.TypeFeed)
	if len(feeds) == 0 {
		return metadata
	}
	hfeed := feeds[0]

	if name, ok := hfeed.FirstString("name"); ok {
		metadata.Title = cmp.Or(strings.TrimSpace(name), metadata.Title)
	}
	if summary, ok := hfeed.FirstString("summary"); ok {
		metadata.Description = strings.TrimSpace(summary)
	}

	if photo, ok := hfeed.FirstString("photo"); ok {
		metadata.ImageURL = photo
	} else if author, ok := hfeed.First("author"); ok && author.IsNode() {
		metadata.ImageURL, _ = author.Node.FirstString("photo")
	}

	return metadata
}

func (n *Normalizer) normalizeEntry(entry Entry) Item {
	x := n.extractor

	guid, _ := x.ID(entry)
	title, _ := x.Title(entry)
	link, _ := x.Link(entry)
	content, _ := x.Content(entry)
	icon, _ := x.Icon(entry)
	publishedAt, _ := x.Time(entry)

	normalized := Item{
		GUID:        guid,
		Title:       strings.TrimSpace(title),
		Link:        link,
		Content:     content,
		ImageURL:    icon,
		PublishedAt: publishedAt,
	}

	if summary, ok := entry.Node().FirstString("summary"); ok {
		normalized.Description = strings.TrimSpace(summary)
	}

	normalized.Authors = n.extractAuthors(entry.Node())
	normalized.Categories = entry.Node().Strings("category")

	return normalized
}

func (n *Normalizer) generateContentHash(item Item) string {
	content := fmt.Sprintf("%s|%s",
		item.Title,
		item.Link)

	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:])
}

func (n *Normalizer) extractAuthors(node *mf2.Node) []string {
	var authors []string

	if node == nil {
		return authors
	}

	for _, author := range node.Properties["author"] {
		name := strings.TrimSpace(author.String())
		if author.IsNode() {
			if cardName, ok := author.Node.FirstString("name"); ok && strings.TrimSpace(cardName) != "" {
				name = strings.TrimSpace(cardName)
			}
		}
		if name != "" {
			authors = append(authors, name)
		}
	}

	return authors
}
