package feed

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/go-shiori/go-readability"
	"github.com/lysyi3m/hentry-comb/app/mf2"
)

// ContentExtractor recovers the full content of an entry from its permalink page.
// The e-content of the page's own h-entry is preferred; readability covers pages
// that carry no usable markup.
type ContentExtractor struct {
	parser    DocumentParser
	extractor *Extractor
}

func NewContentExtractor(parser DocumentParser) *ContentExtractor {
	return &ContentExtractor{
		parser:    parser,
		extractor: NewExtractor(nil),
	}
}

func (e *ContentExtractor) Run(data []byte, pageURL string) (string, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return "", fmt.Errorf("HTML data is empty")
	}

	baseURL, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse page URL: %w", err)
	}

	if content, ok := e.fromEntry(data, baseURL); ok {
		slog.Debug("Content extracted from h-entry", "url", pageURL, "content_length", len(content))
		return content, nil
	}

	article, err := readability.FromReader(bytes.NewReader(data), baseURL)
	if err != nil {
		return "", fmt.Errorf("failed to extract content: %w", err)
	}

	if strings.TrimSpace(article.Content) == "" {
		return "", fmt.Errorf("no content extracted from HTML data")
	}

	slog.Debug("Content extracted with readability",
		"url", pageURL,
		"title", article.Title,
		"content_length", len(article.Content))

	return article.Content, nil
}

// fromEntry returns the e-content of the entry whose url is the page itself,
// or of the only entry on the page.
func (e *ContentExtractor) fromEntry(data []byte, baseURL *url.URL) (string, bool) {
	if e.parser == nil {
		return "", false
	}

	doc, err := e.parser.Parse(data, baseURL)
	if err != nil || doc == nil {
		return "", false
	}

	nodes := doc.FindByType(mf2.TypeEntry)
	var target *mf2.Node
	for _, node := range nodes {
		if link, ok := node.FirstString("url"); ok && strings.TrimSuffix(link, "/") == strings.TrimSuffix(baseURL.String(), "/") {
			target = node
			break
		}
	}
	if target == nil && len(nodes) == 1 {
		target = nodes[0]
	}
	if target == nil {
		return "", false
	}

	content, ok := e.extractor.Content(Entry{node: target, doc: doc, baseURL: baseURL})
	if !ok || strings.TrimSpace(content) == "" {
		return "", false
	}
	return content, true
}
