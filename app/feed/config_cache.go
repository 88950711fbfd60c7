package feed

import (
	"bytes"
	"cmp"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	configExt = ".yml"

	defaultRefreshInterval = 3600 // seconds
	defaultMaxItems        = 100
	defaultTimeout         = 30 // seconds
)

// ConfigCache holds one Config per *.yml file of the feeds directory, keyed by file name.
type ConfigCache struct {
	feedsDir string
	mu       sync.RWMutex
	configs  map[string]*Config
}

func NewConfigCache(feedsDir string) *ConfigCache {
	return &ConfigCache{
		feedsDir: feedsDir,
		configs:  make(map[string]*Config),
	}
}

// Run reads the whole feeds directory. The cache is replaced only when every file is
// valid, so a broken edit keeps the previous configs in place. A missing directory
// means no feeds.
func (cc *ConfigCache) Run() error {
	files, err := filepath.Glob(filepath.Join(cc.feedsDir, "*"+configExt))
	if err != nil {
		return fmt.Errorf("failed to list feed configs: %w", err)
	}

	loaded := make(map[string]*Config, len(files))
	for _, file := range files {
		feedConfig, err := cc.readConfig(strings.TrimSuffix(filepath.Base(file), configExt))
		if err != nil {
			return err
		}
		loaded[feedConfig.Name] = feedConfig

		slog.Debug("Configuration loaded",
			"feed", feedConfig.Name,
			"url", feedConfig.URL,
			"enabled", feedConfig.Settings.Enabled,
			"refresh_interval", feedConfig.Settings.RefreshInterval)
	}

	cc.mu.Lock()
	cc.configs = loaded
	cc.mu.Unlock()

	return nil
}

// LoadConfig re-reads a single feed config and updates the cache. A deleted file drops
// the feed from the cache.
func (cc *ConfigCache) LoadConfig(feedName string) (*Config, error) {
	feedConfig, err := cc.readConfig(feedName)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cc.mu.Lock()
			delete(cc.configs, feedName)
			cc.mu.Unlock()
		}
		return nil, err
	}

	cc.mu.Lock()
	cc.configs[feedName] = feedConfig
	cc.mu.Unlock()

	return feedConfig, nil
}

func (cc *ConfigCache) GetConfig(feedName string) (*Config, error) {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	if feedConfig, ok := cc.configs[feedName]; ok {
		return feedConfig, nil
	}
	return nil, fmt.Errorf("feed config %q not found", feedName)
}

// GetConfigs returns every config ordered by feed name.
func (cc *ConfigCache) GetConfigs() []*Config {
	cc.mu.RLock()
	configs := make([]*Config, 0, len(cc.configs))
	for _, feedConfig := range cc.configs {
		configs = append(configs, feedConfig)
	}
	cc.mu.RUnlock()

	slices.SortFunc(configs, func(a, b *Config) int {
		return cmp.Compare(a.Name, b.Name)
	})
	return configs
}

func (cc *ConfigCache) GetEnabledConfigs() []*Config {
	return slices.DeleteFunc(cc.GetConfigs(), func(feedConfig *Config) bool {
		return !feedConfig.Settings.Enabled
	})
}

func (cc *ConfigCache) GetConfigCount() int {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return len(cc.configs)
}

func (cc *ConfigCache) readConfig(feedName string) (*Config, error) {
	path := filepath.Join(cc.feedsDir, feedName+configExt)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	feedConfig, err := decodeConfig(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	feedConfig.Name = feedName

	if err := cc.validateConfig(feedConfig); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return feedConfig, nil
}

// decodeConfig rejects unknown keys so that a misspelled setting is an error, not a
// silently applied default.
func decodeConfig(data []byte) (*Config, error) {
	var feedConfig Config

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&feedConfig); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	settings := &feedConfig.Settings
	settings.RefreshInterval = cmp.Or(settings.RefreshInterval, defaultRefreshInterval)
	settings.MaxItems = cmp.Or(settings.MaxItems, defaultMaxItems)
	settings.Timeout = cmp.Or(settings.Timeout, defaultTimeout)

	return &feedConfig, nil
}

func (cc *ConfigCache) validateConfig(feedConfig *Config) error {
	switch {
	case feedConfig == nil:
		return fmt.Errorf("%w: config is nil", ErrConfig)
	case feedConfig.Name == "":
		return fmt.Errorf("%w: feed name is required", ErrConfig)
	case strings.TrimSpace(feedConfig.URL) == "":
		return fmt.Errorf("%w: url is required", ErrConfig)
	}

	s := feedConfig.Settings
	if s.RefreshInterval < 0 || s.MaxItems < 0 || s.Timeout < 0 {
		return fmt.Errorf("%w: refresh_interval, max_items and timeout must not be negative", ErrConfig)
	}

	for i, filter := range feedConfig.Filters {
		if _, ok := filterFields[filter.Field]; !ok {
			return fmt.Errorf("%w: filter %d: unknown field %q", ErrConfig, i, filter.Field)
		}
		if len(filter.Includes) == 0 && len(filter.Excludes) == 0 {
			return fmt.Errorf("%w: filter %d: needs includes or excludes", ErrConfig, i)
		}
	}

	return nil
}
