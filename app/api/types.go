package api

import (
	"time"

	"github.com/lysyi3m/hentry-comb/app/database"
	"github.com/lysyi3m/hentry-comb/app/feed"
	"github.com/lysyi3m/hentry-comb/app/tasks"
)

type GeneratorInterface interface {
	Run(feed database.Feed, items []database.Item) (string, error)
}

var _ GeneratorInterface = (*feed.Generator)(nil)

type Handler struct {
	feedRepo       database.FeedRepository
	itemRepo       database.ItemRepository
	generator      GeneratorInterface
	configCache    *feed.ConfigCache
	filterer       *feed.Filterer
	scheduler      tasks.TaskSchedulerInterface
	fetcher        feed.Fetcher
	parser         feed.DocumentParser
	extractor      *feed.Extractor
	previewTimeout time.Duration
}

// PreviewEntry is one h-entry of a previewed page, as the extractor sees it.
type PreviewEntry struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content,omitempty"`
	Icon    string `json:"icon,omitempty"`
	Link    string `json:"link,omitempty"`
	Date    string `json:"date"`
}
