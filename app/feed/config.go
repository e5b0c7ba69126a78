package feed

import (
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

const (
	DefaultChannelTitle       = "Ubuntu Store App Feed"
	DefaultChannelLink        = "https://search.apps.ubuntu.com/"
	DefaultChannelDescription = "Recently updated apps in the Ubuntu store"
	DefaultChannelLanguage    = "en-us"
	DefaultChannelCopyright   = "Copyright Canonical Ltd."
)

var validFilterFields = map[string]bool{
	"title":        true,
	"publisher":    true,
	"description":  true,
	"changelog":    true,
	"keywords":     true,
	"framework":    true,
	"architecture": true,
}

// LoadConfig reads the YAML feed configuration at path. An empty path or a
// missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	var feedConfig Config

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			slog.Warn("Feed configuration not found, using defaults", "path", path)
		case err != nil:
			return nil, fmt.Errorf("failed to read file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &feedConfig); err != nil {
				return nil, fmt.Errorf("failed to parse YAML: %w", err)
			}
		}
	}

	setDefaults(&feedConfig)

	if err := validateConfig(&feedConfig); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	slog.Debug("Configuration loaded", "path", path, "title", feedConfig.Channel.Title, "filters", len(feedConfig.Filters), "max_items", feedConfig.Settings.MaxItems)

	return &feedConfig, nil
}

func setDefaults(feedConfig *Config) {
	ch := &feedConfig.Channel
	if ch.Title == "" {
		ch.Title = DefaultChannelTitle
	}
	if ch.Link == "" {
		ch.Link = DefaultChannelLink
	}
	if ch.Description == "" {
		ch.Description = DefaultChannelDescription
	}
	if ch.Language == "" {
		ch.Language = DefaultChannelLanguage
	}
	if ch.Copyright == "" {
		ch.Copyright = DefaultChannelCopyright
	}
}

func validateConfig(feedConfig *Config) error {
	if feedConfig == nil {
		return fmt.Errorf("feedConfig is nil")
	}

	if _, err := language.Parse(feedConfig.Channel.Language); err != nil {
		return fmt.Errorf("invalid channel language %q: %w", feedConfig.Channel.Language, err)
	}

	if feedConfig.Settings.MaxItems < 0 {
		return fmt.Errorf("max items must be non-negative")
	}

	for i, filter := range feedConfig.Filters {
		if !validFilterFields[filter.Field] {
			return fmt.Errorf("invalid filter field at index %d: %s", i, filter.Field)
		}
		if len(filter.Includes) == 0 && len(filter.Excludes) == 0 {
			return fmt.Errorf("filter at index %d must have at least one include or exclude rule", i)
		}
	}

	return nil
}
