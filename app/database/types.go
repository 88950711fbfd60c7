package database

import (
	"time"
)

// Content extraction states of an item.
const (
	ExtractionPending = "pending"
	ExtractionSuccess = "success"
	ExtractionFailed  = "failed"
	ExtractionSkipped = "skipped"
)

type Feed struct {
	ID            string // Database UUID
	Name          string // Configuration feed identifier derived from filename
	FeedURL       string // Page URL from configuration
	Link          string // Page URL as loaded
	Title         string // h-feed name, or the page URL
	Description   string // h-feed summary
	ImageURL      string // h-feed photo or its author photo
	LastFetchedAt *time.Time
	NextFetchAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Item struct {
	ID                      string
	FeedID                  string
	GUID                    string
	Link                    string
	Title                   string
	Description             string
	Content                 string
	ImageURL                string // author photo
	PublishedAt             time.Time
	Authors                 []string
	Categories              []string
	IsFiltered              bool
	FilterReason            string
	ContentHash             string
	CreatedAt               time.Time
	ContentExtractedAt      *time.Time
	ContentExtractionStatus string // pending, success, failed, skipped
	ContentExtractionError  string
}
