package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/hentry-comb/app/database"
	"github.com/lysyi3m/hentry-comb/app/feed"
)

// ProcessFeedTask loads a page, normalizes its h-entries and stores the new ones.
type ProcessFeedTask struct {
	Task
	FeedConfig *feed.Config
	fetcher    feed.Fetcher
	parser     feed.DocumentParser
	normalizer *feed.Normalizer
	filterer   *feed.Filterer
	feedRepo   database.FeedRepository
	itemRepo   database.ItemRepository
}

func NewProcessFeedTask(feedName string, feedConfig *feed.Config, fetcher feed.Fetcher, parser feed.DocumentParser, normalizer *feed.Normalizer, filterer *feed.Filterer, feedRepo database.FeedRepository, itemRepo database.ItemRepository) *ProcessFeedTask {
	return &ProcessFeedTask{
		Task:       NewTask(TaskTypeProcessFeed, feedName),
		FeedConfig: feedConfig,
		fetcher:    fetcher,
		parser:     parser,
		normalizer: normalizer,
		filterer:   filterer,
		feedRepo:   feedRepo,
		itemRepo:   itemRepo,
	}
}

func (t *ProcessFeedTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if !t.FeedConfig.Settings.Enabled {
		slog.Debug("Feed disabled, skipping", "feed", t.FeedName)
		return nil
	}

	timeout := time.Duration(t.FeedConfig.Settings.Timeout) * time.Second
	loader := feed.NewLoader(t.fetcher, t.parser, timeout)
	defer loader.Destroy()

	if err := loader.Load(ctx, t.FeedConfig.URL); err != nil {
		return fmt.Errorf("failed to load feed: %w", err)
	}

	metadata, items := t.normalizer.Run(loader)

	if err := t.storeFeedMetadata(metadata); err != nil {
		return fmt.Errorf("failed to store feed metadata: %w", err)
	}

	duplicateCount := 0
	filteredCount := 0
	newCount := 0

	var nonDuplicateItems []feed.Item
	for _, item := range items {
		isDuplicate, _, err := t.itemRepo.CheckDuplicate(item.ContentHash, t.FeedName)
		if err != nil {
			return fmt.Errorf("failed to check for duplicates: %w", err)
		}

		if isDuplicate {
			duplicateCount++
		} else {
			nonDuplicateItems = append(nonDuplicateItems, item)
		}
	}

	if len(nonDuplicateItems) > 0 {
		filteredItems := t.filterer.Run(nonDuplicateItems, t.FeedConfig)

		for _, item := range filteredItems {
			if item.IsFiltered {
				filteredCount++
			} else {
				newCount++
			}
		}

		if err := t.storeFilteredItems(filteredItems); err != nil {
			return fmt.Errorf("failed to store items: %w", err)
		}
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"feed", t.FeedName,
		"duration", t.GetDuration(),
		"total", len(items),
		"duplicates", duplicateCount,
		"filtered", filteredCount,
		"new", newCount)

	return nil
}

func (t *ProcessFeedTask) storeFeedMetadata(metadata *feed.Metadata) error {
	nextFetch := time.Now().UTC().Add(time.Duration(t.FeedConfig.Settings.RefreshInterval) * time.Second)

	err := t.feedRepo.UpdateFeedMetadata(t.FeedName, metadata.Title, metadata.Link, metadata.Description, metadata.ImageURL, nextFetch)
	if err != nil {
		return fmt.Errorf("failed to update feed metadata and next fetch time: %w", err)
	}

	return nil
}

func (t *ProcessFeedTask) storeFilteredItems(items []feed.Item) error {
	for _, item := range items {
		dbItem := database.FeedItem{
			GUID:           item.GUID,
			Link:           item.Link,
			Title:          item.Title,
			Description:    item.Description,
			Content:        item.Content,
			ImageURL:       item.ImageURL,
			PublishedAt:    item.PublishedAt,
			Authors:        item.Authors,
			Categories:     item.Categories,
			IsFiltered:     item.IsFiltered,
			FilterReason:   item.FilterReason,
			ContentHash:    item.ContentHash,
			ExtractContent: t.FeedConfig.Settings.ExtractContent,
		}

		if err := t.itemRepo.UpsertItem(t.FeedName, dbItem); err != nil {
			return fmt.Errorf("failed to upsert item: %w", err)
		}
	}

	return nil
}
