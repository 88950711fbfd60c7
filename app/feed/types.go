package feed

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/lysyi3m/hentry-comb/app/mf2"
)

var (
	// ErrConfig is returned when a feed URL is missing or unusable.
	ErrConfig = errors.New("invalid feed configuration")
	// ErrParse is returned when a page cannot be fetched or parsed into a document.
	ErrParse = errors.New("error parsing feed")
)

// Collaborators

type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

type DocumentParser interface {
	Parse(markup []byte, baseURL *url.URL) (*mf2.Document, error)
}

type AuthorResolver interface {
	Resolve(entry *mf2.Node, doc *mf2.Document, baseURL *url.URL) *mf2.Node
}

// Feed processing types

type Metadata struct {
	Title       string
	Link        string
	Description string
	ImageURL    string
}

type Item struct {
	GUID        string
	Title       string
	Link        string
	Description string
	Content     string
	ImageURL    string    // entry icon (author photo)
	PublishedAt time.Time // falls back to the load time when the entry has no date
	Authors     []string
	Categories  []string

	ContentHash  string
	IsFiltered   bool
	FilterReason string
}

// Configuration types

type Config struct {
	Name     string         // Derived from filename (without .yml extension)
	URL      string         `yaml:"url"`
	Settings ConfigSettings `yaml:"settings"`
	Filters  []ConfigFilter `yaml:"filters"`
}

type ConfigSettings struct {
	Enabled         bool `yaml:"enabled"`
	RefreshInterval int  `yaml:"refresh_interval"` // seconds
	MaxItems        int  `yaml:"max_items"`
	Timeout         int  `yaml:"timeout"`         // seconds
	ExtractContent  bool `yaml:"extract_content"` // fill missing e-content from the permalink
}

type ConfigFilter struct {
	Field    string   `yaml:"field"`
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}
