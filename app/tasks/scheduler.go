package tasks

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/lysyi3m/hentry-comb/app/database"
	"github.com/lysyi3m/hentry-comb/app/feed"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

const (
	queueSize   = 300
	taskTimeout = 5 * time.Minute
)

var (
	ErrQueueFull        = errors.New("task queue is full")
	ErrSchedulerStopped = errors.New("scheduler is stopped")
)

// Scheduler runs tasks on a single worker, so feeds are processed one at a time and in
// the order they were enqueued. Ticks do not queue a task for a feed that still has the
// same kind of task waiting.
type Scheduler struct {
	configCache      *feed.ConfigCache
	feedRepo         database.FeedRepository
	itemRepo         database.ItemRepository
	fetcher          feed.Fetcher
	parser           feed.DocumentParser
	normalizer       *feed.Normalizer
	filterer         *feed.Filterer
	contentExtractor *feed.ContentExtractor
	interval         time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	queue  chan TaskInterface

	mu      sync.Mutex
	waiting map[taskKey]int
}

type taskKey struct {
	taskType TaskType
	feedName string
}

func NewScheduler(configCache *feed.ConfigCache, feedRepo database.FeedRepository, itemRepo database.ItemRepository,
	fetcher feed.Fetcher, parser feed.DocumentParser, normalizer *feed.Normalizer, filterer *feed.Filterer,
	contentExtractor *feed.ContentExtractor, interval time.Duration) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		configCache:      configCache,
		feedRepo:         feedRepo,
		itemRepo:         itemRepo,
		fetcher:          fetcher,
		parser:           parser,
		normalizer:       normalizer,
		filterer:         filterer,
		contentExtractor: contentExtractor,
		interval:         interval,
		ctx:              ctx,
		cancel:           cancel,
		queue:            make(chan TaskInterface, queueSize),
		waiting:          make(map[taskKey]int),
	}
}

// Start launches the worker and the ticker. Every configured feed is synced and every
// enabled one fetched right away; later ticks only fetch feeds that are due.
func (s *Scheduler) Start() {
	s.wg.Add(2)
	go s.work()
	go func() {
		defer s.wg.Done()

		s.schedule(true)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.schedule(false)
			}
		}
	}()

	slog.Info("Scheduler started", "interval", s.interval, "feeds", s.configCache.GetConfigCount())
}

// Stop cancels the running task and waits for the worker to exit. Queued tasks are dropped.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	slog.Info("Scheduler stopped")
}

// EnqueueTask queues a task without blocking. It fails with ErrQueueFull or
// ErrSchedulerStopped.
func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	_, err := s.push(task, false)
	return err
}

// push queues a task. With skipWaiting set, a task whose type and feed match one still
// waiting in the queue is dropped and push reports false.
func (s *Scheduler) push(task TaskInterface, skipWaiting bool) (bool, error) {
	if s.ctx.Err() != nil {
		return false, ErrSchedulerStopped
	}

	key := taskKey{task.GetType(), task.GetFeedName()}

	s.mu.Lock()
	defer s.mu.Unlock()

	if skipWaiting && s.waiting[key] > 0 {
		return false, nil
	}

	select {
	case s.queue <- task:
		s.waiting[key]++
		return true, nil
	default:
		return false, ErrQueueFull
	}
}

func (s *Scheduler) schedule(startup bool) {
	for _, feedConfig := range s.configCache.GetConfigs() {
		if startup {
			s.enqueue(NewSyncFeedConfigTask(feedConfig.Name, feedConfig, s.feedRepo))
		}

		if !feedConfig.Settings.Enabled {
			continue
		}

		if startup || s.isDue(feedConfig.Name) {
			s.enqueue(NewProcessFeedTask(feedConfig.Name, feedConfig, s.fetcher, s.parser, s.normalizer, s.filterer, s.feedRepo, s.itemRepo))
		}

		if feedConfig.Settings.ExtractContent {
			s.enqueue(NewExtractContentTask(feedConfig.Name, feedConfig, s.fetcher, s.contentExtractor, s.itemRepo))
		}
	}
}

func (s *Scheduler) isDue(feedName string) bool {
	dbFeed, err := s.feedRepo.GetFeed(feedName)
	if err != nil {
		slog.Warn("Failed to get feed from database, skipping", "feed", feedName, "error", err)
		return false
	}
	if dbFeed == nil {
		slog.Warn("Feed not found in database, skipping", "feed", feedName)
		return false
	}

	if dbFeed.NextFetchAt != nil && dbFeed.NextFetchAt.After(time.Now().UTC()) {
		slog.Debug("Feed not due for refresh yet", "feed", feedName, "next_fetch_at", dbFeed.NextFetchAt)
		return false
	}
	return true
}

func (s *Scheduler) enqueue(task TaskInterface) {
	queued, err := s.push(task, true)
	if err != nil {
		slog.Warn("Failed to enqueue task", "type", task.GetType(), "feed", task.GetFeedName(), "error", err)
		return
	}
	if !queued {
		slog.Debug("Task already waiting, skipping", "type", task.GetType(), "feed", task.GetFeedName())
	}
}

func (s *Scheduler) work() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return
		case task := <-s.queue:
			s.mu.Lock()
			key := taskKey{task.GetType(), task.GetFeedName()}
			if s.waiting[key]--; s.waiting[key] <= 0 {
				delete(s.waiting, key)
			}
			s.mu.Unlock()

			s.run(task)
		}
	}
}

func (s *Scheduler) run(task TaskInterface) {
	task.Start()

	ctx, cancel := context.WithTimeout(s.ctx, taskTimeout)
	defer cancel()

	if err := task.Execute(ctx); err != nil {
		slog.Error("Task failed",
			"type", task.GetType(),
			"id", task.GetID(),
			"feed", task.GetFeedName(),
			"duration", task.GetDuration(),
			"error", err)
	}
}
