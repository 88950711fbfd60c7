package api

import (
	"context"
	"fmt"
	"time"

	"github.com/lysyi3m/hentry-comb/app/database"
	"github.com/lysyi3m/hentry-comb/app/tasks"
)

type MockFeedRepository struct {
	feeds map[string]*database.Feed
	err   error
}

func (m *MockFeedRepository) GetFeed(feedName string) (*database.Feed, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.feeds[feedName], nil
}

func (m *MockFeedRepository) GetFeeds() ([]database.Feed, error) {
	var feeds []database.Feed
	for _, feed := range m.feeds {
		feeds = append(feeds, *feed)
	}
	return feeds, nil
}

func (m *MockFeedRepository) GetFeedCount() (int, error) {
	return len(m.feeds), nil
}

func (m *MockFeedRepository) UpsertFeed(feedName, feedURL string) error {
	return nil
}

func (m *MockFeedRepository) UpdateFeedMetadata(feedName string, title string, link string, description string, imageURL string, nextFetch time.Time) error {
	return nil
}

type MockItemRepository struct {
	items []database.Item
}

func (m *MockItemRepository) GetVisibleItems(feedName string, limit int) ([]database.Item, error) {
	var items []database.Item
	for _, item := range m.items {
		if !item.IsFiltered && len(items) < limit {
			items = append(items, item)
		}
	}
	return items, nil
}

func (m *MockItemRepository) GetAllItems(feedName string) ([]database.Item, error) {
	return m.items, nil
}

func (m *MockItemRepository) GetItemCount(feedName string) (int, error) {
	return len(m.items), nil
}

func (m *MockItemRepository) GetItemStats(feedName string) (int, int, int, error) {
	visible, _ := m.GetVisibleItems(feedName, len(m.items))
	return len(m.items), len(visible), len(m.items) - len(visible), nil
}

func (m *MockItemRepository) UpsertItem(feedName string, item database.FeedItem) error {
	return nil
}

func (m *MockItemRepository) UpdateItemFilterStatus(itemID string, isFiltered bool, reason string) error {
	return nil
}

func (m *MockItemRepository) CheckDuplicate(contentHash, feedName string) (bool, *string, error) {
	return false, nil, nil
}

func (m *MockItemRepository) GetItemsForExtraction(feedName string, limit int) ([]database.ItemForExtraction, error) {
	return nil, nil
}

func (m *MockItemRepository) UpdateExtractionStatus(itemID string, status string, extractedAt *time.Time, errorMsg string) error {
	return nil
}

func (m *MockItemRepository) UpdateExtractedContentAndStatus(itemID string, content string, status string, extractedAt *time.Time, errorMsg string) error {
	return nil
}

// MockScheduler records enqueued tasks without running them
type MockScheduler struct {
	tasks []tasks.TaskInterface
	err   error
}

func (m *MockScheduler) Start() {}

func (m *MockScheduler) Stop() {}

func (m *MockScheduler) EnqueueTask(task tasks.TaskInterface) error {
	if m.err != nil {
		return m.err
	}
	m.tasks = append(m.tasks, task)
	return nil
}

type MockFetcher struct {
	pages map[string]string
}

func (m *MockFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	page, ok := m.pages[url]
	if !ok {
		return nil, fmt.Errorf("HTTP error: 404 Not Found")
	}
	return []byte(page), nil
}
