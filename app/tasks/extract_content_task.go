package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/hentry-comb/app/database"
	"github.com/lysyi3m/hentry-comb/app/feed"
)

// ExtractContentTask fills in the content of stored entries that had no e-content
// by fetching their permalinks.
type ExtractContentTask struct {
	Task
	FeedConfig       *feed.Config
	fetcher          feed.Fetcher
	contentExtractor *feed.ContentExtractor
	itemRepo         database.ItemRepository
}

func NewExtractContentTask(feedName string, feedConfig *feed.Config, fetcher feed.Fetcher, contentExtractor *feed.ContentExtractor, itemRepo database.ItemRepository) *ExtractContentTask {
	return &ExtractContentTask{
		Task:             NewTask(TaskTypeExtractContent, feedName),
		FeedConfig:       feedConfig,
		fetcher:          fetcher,
		contentExtractor: contentExtractor,
		itemRepo:         itemRepo,
	}
}

func (t *ExtractContentTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if !t.FeedConfig.Settings.ExtractContent {
		slog.Debug("Content extraction disabled for feed", "feed", t.FeedName)
		return nil
	}

	items, err := t.itemRepo.GetItemsForExtraction(t.FeedName, t.FeedConfig.Settings.MaxItems)
	if err != nil {
		return fmt.Errorf("failed to get items for content extraction: %w", err)
	}

	if len(items) == 0 {
		slog.Debug("No items need content extraction", "feed", t.FeedName)
		return nil
	}

	successCount := 0
	errorCount := 0

	for _, item := range items {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := t.extractContentForItem(ctx, item); err != nil {
			slog.Warn("Failed to extract content for item", "item_id", item.ID, "url", item.Link, "error", err)
			errorCount++

			now := time.Now().UTC()
			if err := t.itemRepo.UpdateExtractionStatus(item.ID, database.ExtractionFailed, &now, err.Error()); err != nil {
				slog.Error("Failed to update content extraction status", "item_id", item.ID, "error", err)
			}
			continue
		}

		successCount++
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"feed", t.FeedName,
		"duration", t.GetDuration(),
		"success", successCount,
		"errors", errorCount)

	return nil
}

func (t *ExtractContentTask) extractContentForItem(ctx context.Context, item database.ItemForExtraction) error {
	if item.Link == "" {
		return fmt.Errorf("item has no link")
	}

	fetchCtx := ctx
	if t.FeedConfig.Settings.Timeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, time.Duration(t.FeedConfig.Settings.Timeout)*time.Second)
		defer cancel()
	}

	data, err := t.fetcher.Fetch(fetchCtx, item.Link)
	if err != nil {
		return fmt.Errorf("failed to fetch permalink: %w", err)
	}

	content, err := t.contentExtractor.Run(data, item.Link)
	if err != nil {
		return fmt.Errorf("failed to extract content: %w", err)
	}

	now := time.Now().UTC()
	if err := t.itemRepo.UpdateExtractedContentAndStatus(item.ID, content, database.ExtractionSuccess, &now, ""); err != nil {
		return fmt.Errorf("failed to update extracted content and status: %w", err)
	}

	slog.Debug("Content extracted", "item_id", item.ID, "url", item.Link, "content_length", len(content))
	return nil
}
