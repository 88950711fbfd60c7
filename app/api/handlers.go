package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/hentry-comb/app/database"
	"github.com/lysyi3m/hentry-comb/app/feed"
	"github.com/lysyi3m/hentry-comb/app/tasks"
)

func NewHandler(configCache *feed.ConfigCache, feedRepo database.FeedRepository,
	itemRepo database.ItemRepository, filterer *feed.Filterer,
	scheduler tasks.TaskSchedulerInterface, fetcher feed.Fetcher,
	parser feed.DocumentParser, extractor *feed.Extractor, previewTimeout time.Duration) *Handler {
	return &Handler{
		feedRepo:       feedRepo,
		itemRepo:       itemRepo,
		generator:      feed.NewGenerator(),
		configCache:    configCache,
		filterer:       filterer,
		scheduler:      scheduler,
		fetcher:        fetcher,
		parser:         parser,
		extractor:      extractor,
		previewTimeout: previewTimeout,
	}
}

// findFeed resolves a feed by name in both the config cache and the database. On
// failure it returns the HTTP status to answer with.
func (h *Handler) findFeed(name string) (*feed.Config, *database.Feed, int, error) {
	feedConfig, err := h.configCache.GetConfig(name)
	if err != nil {
		return nil, nil, http.StatusNotFound, err
	}

	dbFeed, err := h.feedRepo.GetFeed(name)
	if err != nil {
		slog.Error("Database error", "operation", "get_feed", "feed", name, "error", err)
		return nil, nil, http.StatusInternalServerError, errors.New("database error")
	}
	if dbFeed == nil {
		return nil, nil, http.StatusNotFound, fmt.Errorf("feed %q has not been synced yet", name)
	}

	return feedConfig, dbFeed, http.StatusOK, nil
}

func (h *Handler) GetFeed(c *gin.Context) {
	name := c.Param("name")

	feedConfig, dbFeed, status, err := h.findFeed(name)
	if err != nil {
		slog.Warn("Feed lookup failed", "feed", name, "status", status, "error", err)
		c.Status(status)
		return
	}

	items, err := h.itemRepo.GetVisibleItems(name, feedConfig.Settings.MaxItems)
	if err != nil {
		slog.Error("Database error", "operation", "get_items", "feed", name, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	rss, err := h.generator.Run(*dbFeed, items)
	if err != nil {
		slog.Error("RSS generation error", "feed", name, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Header("X-Feed-Items", strconv.Itoa(len(items)))
	c.Header("X-Feed-Name", name)
	c.Header("X-Last-Updated", dbFeed.UpdatedAt.Format(time.RFC3339))
	c.Data(http.StatusOK, "application/rss+xml; charset=utf-8", []byte(rss))
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if feedCount, err := h.feedRepo.GetFeedCount(); err == nil {
		health["feeds"] = feedCount
	}

	health["loaded_configurations"] = h.configCache.GetConfigCount()

	c.JSON(http.StatusOK, health)
}

func (h *Handler) APIListFeeds(c *gin.Context) {
	configs := h.configCache.GetConfigs()

	feeds := make([]map[string]interface{}, 0, len(configs))

	for _, feedConfig := range configs {
		feedInfo := map[string]interface{}{
			"name":             feedConfig.Name,
			"url":              feedConfig.URL,
			"title":            "",
			"enabled":          feedConfig.Settings.Enabled,
			"max_items":        feedConfig.Settings.MaxItems,
			"refresh_interval": (time.Duration(feedConfig.Settings.RefreshInterval) * time.Second).String(),
			"extract_content":  feedConfig.Settings.ExtractContent,
			"filters":          len(feedConfig.Filters),
		}

		if dbFeed, err := h.feedRepo.GetFeed(feedConfig.Name); err == nil && dbFeed != nil {
			feedInfo["title"] = dbFeed.Title
			feedInfo["last_fetched_at"] = dbFeed.LastFetchedAt
			feedInfo["next_fetch_at"] = dbFeed.NextFetchAt
			feedInfo["updated_at"] = dbFeed.UpdatedAt
		}

		if itemCount, err := h.itemRepo.GetItemCount(feedConfig.Name); err == nil {
			feedInfo["item_count"] = itemCount
		}

		feeds = append(feeds, feedInfo)
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"feeds": feeds,
		"total": len(feeds),
	})
}

func (h *Handler) APIGetFeedDetails(c *gin.Context) {
	name := c.Param("name")

	feedConfig, dbFeed, status, err := h.findFeed(name)
	if err != nil {
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	details := gin.H{
		"name":             name,
		"url":              feedConfig.URL,
		"title":            dbFeed.Title,
		"link":             dbFeed.Link,
		"image_url":        dbFeed.ImageURL,
		"enabled":          feedConfig.Settings.Enabled,
		"max_items":        feedConfig.Settings.MaxItems,
		"refresh_interval": (time.Duration(feedConfig.Settings.RefreshInterval) * time.Second).String(),
		"timeout":          (time.Duration(feedConfig.Settings.Timeout) * time.Second).String(),
		"extract_content":  feedConfig.Settings.ExtractContent,
		"filters":          feedConfig.Filters,
		"database": gin.H{
			"id":              dbFeed.ID,
			"last_fetched_at": dbFeed.LastFetchedAt,
			"next_fetch_at":   dbFeed.NextFetchAt,
			"created_at":      dbFeed.CreatedAt,
			"updated_at":      dbFeed.UpdatedAt,
		},
	}

	if total, visible, filtered, err := h.itemRepo.GetItemStats(name); err == nil {
		details["items"] = gin.H{"total": total, "visible": visible, "filtered": filtered}
	}

	c.JSON(http.StatusOK, details)
}

// APIRefilterFeed re-reads the feed config from disk and enqueues a sync followed by a
// refilter of the stored items.
func (h *Handler) APIRefilterFeed(c *gin.Context) {
	name := c.Param("name")

	if _, _, status, err := h.findFeed(name); err != nil {
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	feedConfig, err := h.configCache.LoadConfig(name)
	if err != nil {
		slog.Error("Error reloading configuration", "feed", name, "error", err)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Failed to reload configuration", "details": err.Error()})
		return
	}

	enqueued := []tasks.TaskInterface{
		tasks.NewSyncFeedConfigTask(name, feedConfig, h.feedRepo),
		tasks.NewRefilterFeedTask(name, feedConfig, h.filterer, h.itemRepo),
	}

	summary := make([]gin.H, 0, len(enqueued))
	for _, task := range enqueued {
		if err := h.scheduler.EnqueueTask(task); err != nil {
			slog.Error("Error enqueueing task", "type", task.GetType(), "feed", name, "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Failed to enqueue task", "details": err.Error()})
			return
		}
		summary = append(summary, gin.H{"id": task.GetID(), "type": task.GetType()})
	}

	c.JSON(http.StatusAccepted, gin.H{
		"feed":  gin.H{"name": name, "url": feedConfig.URL},
		"tasks": summary,
	})
}

// APIPreview loads an arbitrary page and returns its h-entries without storing anything.
func (h *Handler) APIPreview(c *gin.Context) {
	pageURL := c.Query("url")

	loader := feed.NewLoader(h.fetcher, h.parser, h.previewTimeout)
	defer loader.Destroy()

	if err := loader.Load(c.Request.Context(), pageURL); err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, feed.ErrConfig):
			status = http.StatusBadRequest
		case errors.Is(err, feed.ErrParse):
			status = http.StatusBadGateway
		}
		slog.Warn("Preview failed", "url", pageURL, "error", err)
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	entries := make([]PreviewEntry, 0, loader.Len())
	cursor := loader.Cursor()
	for cursor.Rewind(); cursor.Valid(); cursor.Next() {
		entry, _ := cursor.Current()

		var preview PreviewEntry
		preview.ID, _ = h.extractor.ID(entry)
		preview.Title, _ = h.extractor.Title(entry)
		preview.Content, _ = h.extractor.Content(entry)
		preview.Icon, _ = h.extractor.Icon(entry)
		preview.Link, _ = h.extractor.Link(entry)
		preview.Date, _ = h.extractor.Date(entry)

		entries = append(entries, preview)
	}

	htmlURL, _ := loader.HTMLURL()
	c.JSON(http.StatusOK, gin.H{
		"url":     htmlURL,
		"entries": entries,
		"total":   len(entries),
	})
}
