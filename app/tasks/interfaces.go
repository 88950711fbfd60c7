package tasks

// TaskSchedulerInterface is what the application and the API need from the scheduler.
//
//	scheduler := NewScheduler(configCache, feedRepo, itemRepo, fetcher, parser, normalizer, filterer, contentExtractor, interval)
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.EnqueueTask(NewRefilterFeedTask(...))
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}
