package feed

import (
	"bytes"
	"cmp"
	"encoding/xml"
	"fmt"
	"html"
	"mime"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/lysyi3m/hentry-comb/app/cfg"
	"github.com/lysyi3m/hentry-comb/app/database"
)

const defaultImageType = "image/jpeg"

// Generator renders stored feeds as RSS 2.0.
type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

func (g *Generator) Run(feed database.Feed, items []database.Item) (string, error) {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/" xmlns:atom="http://www.w3.org/2005/Atom">`)
	buf.WriteString("\n  <channel>\n")

	g.writeElement(&buf, "title", cmp.Or(feed.Title, feed.FeedURL), 4)
	g.writeElement(&buf, "link", cmp.Or(feed.Link, feed.FeedURL), 4)
	description := feed.Description
	if description == "" {
		description = fmt.Sprintf("Entries published at %s", feed.FeedURL)
	}
	g.writeElement(&buf, "description", description, 4)

	buf.WriteString(fmt.Sprintf("    <atom:link href=\"%s\" rel=\"self\" type=\"application/rss+xml\" />\n",
		html.EscapeString(g.selfLink(feed.Name))))

	lastBuildDate := time.Now()
	if len(items) > 0 {
		lastBuildDate = cmp.Or(items[0].PublishedAt, items[0].CreatedAt, lastBuildDate)
	} else if feed.LastFetchedAt != nil {
		lastBuildDate = *feed.LastFetchedAt
	}

	g.writeElement(&buf, "lastBuildDate", lastBuildDate.In(time.Local).Format(time.RFC1123Z), 4)
	g.writeElement(&buf, "generator", fmt.Sprintf("hentry-comb/%s", cfg.Get().Version), 4)

	if feed.ImageURL != "" {
		buf.WriteString("    <image>\n")
		g.writeElement(&buf, "url", feed.ImageURL, 6)
		g.writeElement(&buf, "title", cmp.Or(feed.Title, feed.FeedURL), 6)
		g.writeElement(&buf, "link", cmp.Or(feed.Link, feed.FeedURL), 6)
		buf.WriteString("    </image>\n")
	}

	for _, item := range items {
		g.writeItem(&buf, item)
	}

	buf.WriteString("  </channel>\n</rss>")

	return buf.String(), nil
}

func (g *Generator) selfLink(feedName string) string {
	if baseURL := strings.TrimSuffix(cfg.Get().BaseUrl, "/"); baseURL != "" {
		return fmt.Sprintf("%s/feeds/%s", baseURL, feedName)
	}
	return fmt.Sprintf("http://localhost:%s/feeds/%s", cfg.Get().Port, feedName)
}

func (g *Generator) writeItem(buf *bytes.Buffer, item database.Item) {
	buf.WriteString("    <item>\n")

	if item.GUID != "" {
		buf.WriteString(fmt.Sprintf("      <guid isPermaLink=\"%t\">", g.isURL(item.GUID)))
		xml.EscapeText(buf, []byte(item.GUID))
		buf.WriteString("</guid>\n")
	}

	if item.Title != "" {
		g.writeElement(buf, "title", item.Title, 6)
	}

	if item.Link != "" {
		g.writeElement(buf, "link", item.Link, 6)
	}

	g.writeElement(buf, "description", cmp.Or(item.Description, item.Title, "No description available"), 6)

	if item.Content != "" && item.Content != item.Description {
		buf.WriteString("      <content:encoded><![CDATA[")
		buf.WriteString(strings.ReplaceAll(item.Content, "]]>", "]]]]><![CDATA[>"))
		buf.WriteString("]]></content:encoded>\n")
	}

	g.writeElement(buf, "pubDate", item.PublishedAt.In(time.Local).Format(time.RFC1123Z), 6)

	if len(item.Authors) > 0 && item.Authors[0] != "" {
		g.writeElement(buf, "author", item.Authors[0], 6)
	}

	for _, category := range item.Categories {
		if category != "" {
			g.writeElement(buf, "category", category, 6)
		}
	}

	// The author photo travels as an enclosure; its size is unknown.
	if item.ImageURL != "" {
		buf.WriteString(fmt.Sprintf("      <enclosure url=\"%s\" length=\"0\" type=\"%s\" />\n",
			html.EscapeString(item.ImageURL),
			html.EscapeString(g.imageType(item.ImageURL))))
	}

	buf.WriteString("    </item>\n")
}

func (g *Generator) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	buf.WriteString(strings.Repeat(" ", indent))
	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}

func (g *Generator) isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func (g *Generator) imageType(imageURL string) string {
	u, err := url.Parse(imageURL)
	if err != nil {
		return defaultImageType
	}
	if t := mime.TypeByExtension(strings.ToLower(path.Ext(u.Path))); strings.HasPrefix(t, "image/") {
		return t
	}
	return defaultImageType
}
