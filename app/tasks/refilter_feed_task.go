package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/hentry-comb/app/database"
	"github.com/lysyi3m/hentry-comb/app/feed"
)

// RefilterFeedTask re-applies the current feed filters to every stored item.
type RefilterFeedTask struct {
	Task
	FeedConfig *feed.Config
	filterer   *feed.Filterer
	itemRepo   database.ItemRepository
}

func NewRefilterFeedTask(feedName string, feedConfig *feed.Config, filterer *feed.Filterer, itemRepo database.ItemRepository) *RefilterFeedTask {
	return &RefilterFeedTask{
		Task:       NewTask(TaskTypeRefilterFeed, feedName),
		FeedConfig: feedConfig,
		filterer:   filterer,
		itemRepo:   itemRepo,
	}
}

func (t *RefilterFeedTask) Execute(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	stored, err := t.itemRepo.GetAllItems(t.FeedName)
	if err != nil {
		return fmt.Errorf("failed to get feed items: %w", err)
	}

	candidates := make([]feed.Item, 0, len(stored))
	for _, record := range stored {
		candidates = append(candidates, storedItem(record))
	}

	var updated, failed int
	for i, item := range t.filterer.Run(candidates, t.FeedConfig) {
		record := stored[i]
		if record.IsFiltered == item.IsFiltered && record.FilterReason == item.FilterReason {
			continue
		}

		if err := t.itemRepo.UpdateItemFilterStatus(record.ID, item.IsFiltered, item.FilterReason); err != nil {
			slog.Error("Failed to update item filter status", "item_id", record.ID, "error", err)
			failed++
			continue
		}
		updated++
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"feed", t.FeedName,
		"duration", t.GetDuration(),
		"items", len(stored),
		"updated", updated,
		"errors", failed)

	return nil
}

// storedItem rebuilds the filterable fields of a stored item. Filter state starts clear
// so that removed rules un-filter items.
func storedItem(record database.Item) feed.Item {
	return feed.Item{
		GUID:        record.GUID,
		Title:       record.Title,
		Link:        record.Link,
		Description: record.Description,
		Content:     record.Content,
		ImageURL:    record.ImageURL,
		PublishedAt: record.PublishedAt,
		Authors:     record.Authors,
		Categories:  record.Categories,
		ContentHash: record.ContentHash,
	}
}
