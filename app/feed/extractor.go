package feed

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

const (
	// DateLayout is the format of Extractor.Date.
	DateLayout = "2006-01-02 15:04:05"

	maxIDLength = 255
)

// Extractor derives the normalized fields of an entry. Missing data is reported as
// ("", false); only ID and Date always produce a value for a real entry.
type Extractor struct {
	resolver AuthorResolver
	location *time.Location
	now      func() time.Time
}

func NewExtractor(resolver AuthorResolver) *Extractor {
	return &Extractor{
		resolver: resolver,
		location: time.Local,
		now:      time.Now,
	}
}

// ID is the entry url, hashed when longer than 255 bytes, or the hash of its name.
func (x *Extractor) ID(e Entry) (string, bool) {
	if e.IsZero() {
		return "", false
	}

	if id, ok := e.node.FirstString("url"); ok && id != "" {
		if len(id) > maxIDLength {
			id = hashID(id)
		}
		return id, true
	}

	name, _ := e.node.FirstString("name")
	return hashID(name), true
}

func (x *Extractor) Title(e Entry) (string, bool) {
	if e.IsZero() {
		return "", false
	}
	return e.node.FirstString("name")
}

// Content is the html form of the first e-content value.
func (x *Extractor) Content(e Entry) (string, bool) {
	if e.IsZero() {
		return "", false
	}

	v, ok := e.node.First("content")
	if !ok {
		return "", false
	}
	if v.Embedded {
		return v.HTML, true
	}
	if v.Node != nil && v.Node.HTML != "" {
		return v.Node.HTML, true
	}
	return "", false
}

// Icon is the photo of the entry author. When the entry declares an author, only that
// author is consulted, even if it has no photo; otherwise the author is discovered
// from the page.
func (x *Extractor) Icon(e Entry) (string, bool) {
	if e.IsZero() {
		return "", false
	}

	if e.node.HasProperty("author") {
		author, ok := e.node.First("author")
		if !ok || !author.IsNode() {
			return "", false
		}
		return author.Node.FirstString("photo")
	}

	if x.resolver == nil {
		return "", false
	}
	author := x.resolver.Resolve(e.node, e.doc, e.baseURL)
	if author == nil {
		return "", false
	}
	return author.FirstString("photo")
}

func (x *Extractor) Link(e Entry) (string, bool) {
	if e.IsZero() {
		return "", false
	}
	return e.node.FirstString("url")
}

// Time is the published time of the entry, or the current time when it has none.
func (x *Extractor) Time(e Entry) (time.Time, bool) {
	if e.IsZero() {
		return time.Time{}, false
	}

	if raw, ok := e.node.FirstString("published"); ok {
		if raw = strings.TrimSpace(raw); raw != "" {
			if t, err := dateparse.ParseIn(raw, x.location); err == nil && !t.IsZero() {
				return t.In(x.location), true
			}
		}
	}

	return x.now().In(x.location), true
}

// Date is Time formatted with DateLayout.
func (x *Extractor) Date(e Entry) (string, bool) {
	t, ok := x.Time(e)
	if !ok {
		return "", false
	}
	return t.Format(DateLayout), true
}

func hashID(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}
