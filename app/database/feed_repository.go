package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var _ FeedRepository = (*FeedRepo)(nil)

type FeedRepo struct {
	db *DB
}

func NewFeedRepository(db *DB) *FeedRepo {
	return &FeedRepo{db: db}
}

const feedColumns = `id, name, feed_url, link, title, description, image_url,
	last_fetched_at, next_fetch_at, created_at, updated_at`

// UpsertFeed creates the feed or updates its URL. Changing the URL schedules an
// immediate refresh.
func (r *FeedRepo) UpsertFeed(feedName, feedURL string) error {
	now := time.Now().UTC()

	_, err := r.db.Exec(`
		INSERT INTO feeds (id, name, feed_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			feed_url = excluded.feed_url,
			next_fetch_at = CASE WHEN feeds.feed_url != excluded.feed_url THEN NULL ELSE feeds.next_fetch_at END,
			updated_at = excluded.updated_at
	`, uuid.NewString(), feedName, feedURL, now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert feed: %w", err)
	}

	return nil
}

// UpdateFeedMetadata stores what the last successful load found and when to load next.
func (r *FeedRepo) UpdateFeedMetadata(feedName string, title string, link string, description string, imageURL string, nextFetch time.Time) error {
	now := time.Now().UTC()

	result, err := r.db.Exec(`
		UPDATE feeds
		SET title = ?, link = ?, description = ?, image_url = ?,
			last_fetched_at = ?, next_fetch_at = ?, updated_at = ?
		WHERE name = ?
	`, title, link, description, imageURL, now, nextFetch.UTC(), now, feedName)
	if err != nil {
		return fmt.Errorf("failed to update feed metadata: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("feed not found: %s", feedName)
	}

	return nil
}

// GetFeed returns nil when the feed does not exist.
func (r *FeedRepo) GetFeed(feedName string) (*Feed, error) {
	row := r.db.QueryRow(`SELECT `+feedColumns+` FROM feeds WHERE name = ?`, feedName)

	feed, err := scanFeed(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get feed: %w", err)
	}

	return feed, nil
}

func (r *FeedRepo) GetFeeds() ([]Feed, error) {
	rows, err := r.db.Query(`SELECT ` + feedColumns + ` FROM feeds ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to get feeds: %w", err)
	}
	defer rows.Close()

	var feeds []Feed
	for rows.Next() {
		feed, err := scanFeed(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feed row: %w", err)
		}
		feeds = append(feeds, *feed)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feed rows: %w", err)
	}

	return feeds, nil
}

func (r *FeedRepo) GetFeedCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM feeds").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get feed count: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFeed(row rowScanner) (*Feed, error) {
	var feed Feed
	err := row.Scan(
		&feed.ID, &feed.Name, &feed.FeedURL, &feed.Link, &feed.Title, &feed.Description, &feed.ImageURL,
		&feed.LastFetchedAt, &feed.NextFetchAt, &feed.CreatedAt, &feed.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &feed, nil
}
