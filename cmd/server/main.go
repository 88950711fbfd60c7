package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysyi3m/hentry-comb/app/api"
	"github.com/lysyi3m/hentry-comb/app/authorship"
	"github.com/lysyi3m/hentry-comb/app/cfg"
	"github.com/lysyi3m/hentry-comb/app/database"
	"github.com/lysyi3m/hentry-comb/app/feed"
	"github.com/lysyi3m/hentry-comb/app/mf2"
	"github.com/lysyi3m/hentry-comb/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if appCfg == nil {
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting hentry-comb", "version", appCfg.Version, "port", appCfg.Port, "timezone", appCfg.Timezone)

	db, err := database.Open(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	configCache := feed.NewConfigCache(appCfg.FeedsDir)
	if err := configCache.Run(); err != nil {
		slog.Error("Failed to load feed configurations", "dir", appCfg.FeedsDir, "error", err)
		os.Exit(1)
	}
	slog.Info("Feed configurations loaded", "dir", appCfg.FeedsDir, "count", configCache.GetConfigCount())

	feedRepo := database.NewFeedRepository(db)
	itemRepo := database.NewItemRepository(db)

	fetchTimeout := time.Duration(appCfg.FetchTimeout) * time.Second
	httpClient := &http.Client{Timeout: fetchTimeout}
	fetcher := feed.NewHTTPFetcher(httpClient, appCfg.UserAgent, appCfg.FetchRate)

	parser := mf2.NewParser()
	extractor := feed.NewExtractor(authorship.NewResolver())
	normalizer := feed.NewNormalizer(extractor)
	filterer := feed.NewFilterer()
	contentExtractor := feed.NewContentExtractor(parser)

	scheduler := tasks.NewScheduler(configCache, feedRepo, itemRepo, fetcher, parser, normalizer, filterer,
		contentExtractor, time.Duration(appCfg.SchedulerInterval)*time.Second)
	scheduler.Start()

	handler := api.NewHandler(configCache, feedRepo, itemRepo, filterer, scheduler, fetcher, parser, extractor, fetchTimeout)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      api.NewServer(handler, appCfg.APIAccessKey),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second + fetchTimeout,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("HTTP server error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	scheduler.Stop()

	slog.Info("Shutdown complete")
}
