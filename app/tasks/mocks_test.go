package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lysyi3m/hentry-comb/app/database"
)

// MockFeedRepository keeps feeds in memory
type MockFeedRepository struct {
	mu    sync.Mutex
	feeds map[string]*database.Feed
	err   error
}

func NewMockFeedRepository() *MockFeedRepository {
	return &MockFeedRepository{feeds: make(map[string]*database.Feed)}
}

func (m *MockFeedRepository) GetFeed(feedName string) (*database.Feed, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	feed, ok := m.feeds[feedName]
	if !ok {
		return nil, nil
	}
	copied := *feed
	return &copied, nil
}

func (m *MockFeedRepository) GetFeeds() ([]database.Feed, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var feeds []database.Feed
	for _, feed := range m.feeds {
		feeds = append(feeds, *feed)
	}
	return feeds, nil
}

func (m *MockFeedRepository) GetFeedCount() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.feeds), nil
}

func (m *MockFeedRepository) UpsertFeed(feedName, feedURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if feed, ok := m.feeds[feedName]; ok {
		feed.FeedURL = feedURL
		return nil
	}
	m.feeds[feedName] = &database.Feed{ID: "feed-" + feedName, Name: feedName, FeedURL: feedURL}
	return nil
}

func (m *MockFeedRepository) UpdateFeedMetadata(feedName string, title string, link string, description string, imageURL string, nextFetch time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	feed, ok := m.feeds[feedName]
	if !ok {
		return fmt.Errorf("feed not found: %s", feedName)
	}
	now := time.Now().UTC()
	feed.Title = title
	feed.Link = link
	feed.Description = description
	feed.ImageURL = imageURL
	feed.LastFetchedAt = &now
	feed.NextFetchAt = &nextFetch
	return nil
}

// MockItemRepository keeps items in insertion order
type MockItemRepository struct {
	mu           sync.Mutex
	items        []database.Item
	upsertCount  int
	statusErrors map[string]string
}

func NewMockItemRepository() *MockItemRepository {
	return &MockItemRepository{statusErrors: make(map[string]string)}
}

func (m *MockItemRepository) GetVisibleItems(feedName string, limit int) ([]database.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []database.Item
	for _, item := range m.items {
		if item.FeedID == feedName && !item.IsFiltered && len(items) < limit {
			items = append(items, item)
		}
	}
	return items, nil
}

func (m *MockItemRepository) GetAllItems(feedName string) ([]database.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []database.Item
	for _, item := range m.items {
		if item.FeedID == feedName {
			items = append(items, item)
		}
	}
	return items, nil
}

func (m *MockItemRepository) GetItemCount(feedName string) (int, error) {
	items, _ := m.GetAllItems(feedName)
	return len(items), nil
}

func (m *MockItemRepository) GetItemStats(feedName string) (int, int, int, error) {
	items, _ := m.GetAllItems(feedName)
	visible := 0
	for _, item := range items {
		if !item.IsFiltered {
			visible++
		}
	}
	return len(items), visible, len(items) - visible, nil
}

func (m *MockItemRepository) UpsertItem(feedName string, item database.FeedItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upsertCount++

	status := database.ExtractionSkipped
	if item.ExtractContent && item.Content == "" && item.Link != "" {
		status = database.ExtractionPending
	}

	stored := database.Item{
		ID:                      fmt.Sprintf("item-%d", len(m.items)+1),
		FeedID:                  feedName,
		GUID:                    item.GUID,
		Link:                    item.Link,
		Title:                   item.Title,
		Description:             item.Description,
		Content:                 item.Content,
		ImageURL:                item.ImageURL,
		PublishedAt:             item.PublishedAt,
		Authors:                 item.Authors,
		Categories:              item.Categories,
		IsFiltered:              item.IsFiltered,
		FilterReason:            item.FilterReason,
		ContentHash:             item.ContentHash,
		ContentExtractionStatus: status,
	}

	for i, existing := range m.items {
		if existing.FeedID == feedName && existing.GUID == item.GUID {
			stored.ID = existing.ID
			m.items[i] = stored
			return nil
		}
	}
	m.items = append(m.items, stored)
	return nil
}

func (m *MockItemRepository) UpdateItemFilterStatus(itemID string, isFiltered bool, reason string) error {
	return m.update(itemID, func(item *database.Item) {
		item.IsFiltered = isFiltered
		item.FilterReason = reason
	})
}

func (m *MockItemRepository) CheckDuplicate(contentHash, feedName string) (bool, *string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range m.items {
		if item.FeedID == feedName && item.ContentHash == contentHash {
			id := item.ID
			return true, &id, nil
		}
	}
	return false, nil, nil
}

func (m *MockItemRepository) GetItemsForExtraction(feedName string, limit int) ([]database.ItemForExtraction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []database.ItemForExtraction
	for _, item := range m.items {
		if item.FeedID == feedName && item.ContentExtractionStatus == database.ExtractionPending && len(items) < limit {
			items = append(items, database.ItemForExtraction{ID: item.ID, Link: item.Link})
		}
	}
	return items, nil
}

func (m *MockItemRepository) UpdateExtractionStatus(itemID string, status string, extractedAt *time.Time, errorMsg string) error {
	return m.update(itemID, func(item *database.Item) {
		item.ContentExtractionStatus = status
		item.ContentExtractedAt = extractedAt
		item.ContentExtractionError = errorMsg
	})
}

func (m *MockItemRepository) UpdateExtractedContentAndStatus(itemID string, content string, status string, extractedAt *time.Time, errorMsg string) error {
	return m.update(itemID, func(item *database.Item) {
		item.Content = content
		item.ContentExtractionStatus = status
		item.ContentExtractedAt = extractedAt
		item.ContentExtractionError = errorMsg
	})
}

func (m *MockItemRepository) update(itemID string, fn func(item *database.Item)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if m.items[i].ID == itemID {
			fn(&m.items[i])
			return nil
		}
	}
	return fmt.Errorf("item not found: %s", itemID)
}

// MockFetcher serves fixed pages by URL
type MockFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	calls []string
}

func (m *MockFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, url)
	page, ok := m.pages[url]
	if !ok {
		return nil, fmt.Errorf("HTTP error: 404 Not Found")
	}
	return []byte(page), nil
}
