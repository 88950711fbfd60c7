package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var _ ItemRepository = (*ItemRepo)(nil)

type ItemRepo struct {
	db *DB
}

func NewItemRepository(db *DB) *ItemRepo {
	return &ItemRepo{db: db}
}

const itemColumns = `i.id, i.feed_id, i.guid, i.link, i.title, i.description, i.content, i.image_url,
	i.published_at, i.authors, i.categories, i.is_filtered, i.filter_reason, i.content_hash,
	i.created_at, i.content_extracted_at, i.content_extraction_status, i.content_extraction_error`

// CheckDuplicate reports whether the feed already stores an item with the given content hash.
func (r *ItemRepo) CheckDuplicate(contentHash, feedName string) (bool, *string, error) {
	var duplicateID string
	err := r.db.QueryRow(`
		SELECT i.id FROM items i
		JOIN feeds f ON f.id = i.feed_id
		WHERE f.name = ? AND i.content_hash = ?
		LIMIT 1
	`, feedName, contentHash).Scan(&duplicateID)

	if errors.Is(err, sql.ErrNoRows) {
		return false, nil, nil
	}
	if err != nil {
		return false, nil, fmt.Errorf("failed to check duplicate: %w", err)
	}

	return true, &duplicateID, nil
}

// UpsertItem stores an item keyed by feed and GUID. Content recovered by extraction is
// kept when the entry itself still has none.
func (r *ItemRepo) UpsertItem(feedName string, item FeedItem) error {
	authors, err := encodeList(item.Authors)
	if err != nil {
		return fmt.Errorf("failed to encode authors: %w", err)
	}
	categories, err := encodeList(item.Categories)
	if err != nil {
		return fmt.Errorf("failed to encode categories: %w", err)
	}

	status := ExtractionSkipped
	if item.ExtractContent && item.Content == "" && item.Link != "" {
		status = ExtractionPending
	}

	_, err = r.db.Exec(`
		INSERT INTO items (
			id, feed_id, guid, link, title, description, content, image_url,
			published_at, authors, categories, is_filtered, filter_reason, content_hash,
			created_at, content_extraction_status
		) VALUES (?, (SELECT id FROM feeds WHERE name = ?), ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (feed_id, guid) DO UPDATE SET
			link = excluded.link,
			title = excluded.title,
			description = excluded.description,
			content = CASE WHEN excluded.content != '' THEN excluded.content ELSE items.content END,
			image_url = excluded.image_url,
			published_at = excluded.published_at,
			authors = excluded.authors,
			categories = excluded.categories,
			is_filtered = excluded.is_filtered,
			filter_reason = excluded.filter_reason,
			content_hash = excluded.content_hash
	`, uuid.NewString(), feedName, item.GUID, item.Link, item.Title, item.Description, item.Content, item.ImageURL,
		item.PublishedAt.UTC(), authors, categories, item.IsFiltered, item.FilterReason, item.ContentHash,
		time.Now().UTC(), status)
	if err != nil {
		return fmt.Errorf("failed to upsert item: %w", err)
	}

	return nil
}

// GetVisibleItems returns the newest non-filtered items of a feed.
func (r *ItemRepo) GetVisibleItems(feedName string, limit int) ([]Item, error) {
	rows, err := r.db.Query(`
		SELECT `+itemColumns+`
		FROM items i
		JOIN feeds f ON f.id = i.feed_id
		WHERE f.name = ? AND i.is_filtered = 0
		ORDER BY i.published_at DESC
		LIMIT ?
	`, feedName, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get visible items: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

// GetAllItems returns all items for a feed (including filtered ones)
func (r *ItemRepo) GetAllItems(feedName string) ([]Item, error) {
	rows, err := r.db.Query(`
		SELECT `+itemColumns+`
		FROM items i
		JOIN feeds f ON f.id = i.feed_id
		WHERE f.name = ?
		ORDER BY i.published_at DESC
	`, feedName)
	if err != nil {
		return nil, fmt.Errorf("failed to get all items: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

func (r *ItemRepo) GetItemCount(feedName string) (int, error) {
	var count int
	err := r.db.QueryRow(`
		SELECT COUNT(*) FROM items i
		JOIN feeds f ON f.id = i.feed_id
		WHERE f.name = ?
	`, feedName).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get item count: %w", err)
	}
	return count, nil
}

// GetItemStats returns total, visible and filtered item counts for a feed.
func (r *ItemRepo) GetItemStats(feedName string) (int, int, int, error) {
	var total, visible, filtered int
	err := r.db.QueryRow(`
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN i.is_filtered = 0 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN i.is_filtered = 1 THEN 1 ELSE 0 END), 0)
		FROM items i
		JOIN feeds f ON f.id = i.feed_id
		WHERE f.name = ?
	`, feedName).Scan(&total, &visible, &filtered)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("failed to get item stats: %w", err)
	}

	return total, visible, filtered, nil
}

func (r *ItemRepo) UpdateItemFilterStatus(itemID string, isFiltered bool, filterReason string) error {
	_, err := r.db.Exec(`
		UPDATE items
		SET is_filtered = ?, filter_reason = ?
		WHERE id = ?
	`, isFiltered, filterReason, itemID)
	if err != nil {
		return fmt.Errorf("failed to update item filter status: %w", err)
	}

	return nil
}

// GetItemsForExtraction returns visible items still waiting for content extraction.
func (r *ItemRepo) GetItemsForExtraction(feedName string, limit int) ([]ItemForExtraction, error) {
	rows, err := r.db.Query(`
		SELECT i.id, i.link
		FROM items i
		JOIN feeds f ON f.id = i.feed_id
		WHERE f.name = ?
		  AND i.is_filtered = 0
		  AND i.content_extraction_status = ?
		  AND i.link != ''
		ORDER BY i.published_at DESC
		LIMIT ?
	`, feedName, ExtractionPending, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get items for extraction: %w", err)
	}
	defer rows.Close()

	var items []ItemForExtraction
	for rows.Next() {
		var item ItemForExtraction
		if err := rows.Scan(&item.ID, &item.Link); err != nil {
			return nil, fmt.Errorf("failed to scan item row: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating item rows: %w", err)
	}

	return items, nil
}

func (r *ItemRepo) UpdateExtractionStatus(itemID string, status string, extractedAt *time.Time, errorMsg string) error {
	_, err := r.db.Exec(`
		UPDATE items
		SET content_extraction_status = ?, content_extracted_at = ?, content_extraction_error = ?
		WHERE id = ?
	`, status, extractedAt, errorMsg, itemID)
	if err != nil {
		return fmt.Errorf("failed to update extraction status: %w", err)
	}

	return nil
}

func (r *ItemRepo) UpdateExtractedContentAndStatus(itemID string, content string, status string, extractedAt *time.Time, errorMsg string) error {
	_, err := r.db.Exec(`
		UPDATE items
		SET content = ?, content_extraction_status = ?, content_extracted_at = ?, content_extraction_error = ?
		WHERE id = ?
	`, content, status, extractedAt, errorMsg, itemID)
	if err != nil {
		return fmt.Errorf("failed to update extracted content: %w", err)
	}

	return nil
}

func scanItems(rows *sql.Rows) ([]Item, error) {
	var items []Item
	for rows.Next() {
		var item Item
		var authors, categories string
		err := rows.Scan(
			&item.ID, &item.FeedID, &item.GUID, &item.Link, &item.Title,
			&item.Description, &item.Content, &item.ImageURL, &item.PublishedAt,
			&authors, &categories, &item.IsFiltered, &item.FilterReason, &item.ContentHash,
			&item.CreatedAt, &item.ContentExtractedAt, &item.ContentExtractionStatus, &item.ContentExtractionError,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item row: %w", err)
		}

		if item.Authors, err = decodeList(authors); err != nil {
			return nil, fmt.Errorf("failed to decode authors: %w", err)
		}
		if item.Categories, err = decodeList(categories); err != nil {
			return nil, fmt.Errorf("failed to decode categories: %w", err)
		}

		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating item rows: %w", err)
	}

	return items, nil
}

func encodeList(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeList(data string) ([]string, error) {
	if data == "" {
		return nil, nil
	}
	var values []string
	if err := json.Unmarshal([]byte(data), &values); err != nil {
		return nil, err
	}
	return values, nil
}
