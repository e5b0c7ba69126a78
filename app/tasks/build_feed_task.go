package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/lysyi3m/store-diff/app/feed"
	"github.com/lysyi3m/store-diff/app/store"
)

var _ TaskInterface = (*BuildFeedTask)(nil)

// BuildFeedTask lists the store, resolves every package and writes the feed.
// Any failure aborts the run and leaves the output file untouched.
type BuildFeedTask struct {
	Task
	FeedConfig *feed.Config
	OutputPath string
	client     *store.Client
	filterer   *feed.Filterer
	generator  *feed.Generator
	validator  *feed.Validator
}

func NewBuildFeedTask(feedConfig *feed.Config, outputPath string, client *store.Client, filterer *feed.Filterer, generator *feed.Generator, validator *feed.Validator) *BuildFeedTask {
	return &BuildFeedTask{
		Task:       NewTask(TaskTypeBuildFeed),
		FeedConfig: feedConfig,
		OutputPath: outputPath,
		client:     client,
		filterer:   filterer,
		generator:  generator,
		validator:  validator,
	}
}

func (t *BuildFeedTask) Execute(ctx context.Context) error {
	stubs, err := t.client.ListPackages(ctx)
	if err != nil {
		return fmt.Errorf("failed to list packages: %w", err)
	}

	slog.Info("Packages listed", "count", len(stubs))

	records, err := t.fetchRecords(ctx, stubs)
	if err != nil {
		return err
	}

	kept := t.filterer.Run(records, t.FeedConfig.Filters)
	sorted := feed.Limit(feed.SortByLastUpdated(kept), t.FeedConfig.Settings.MaxItems)

	rss, err := t.generator.Run(sorted)
	if err != nil {
		return fmt.Errorf("failed to generate feed: %w", err)
	}

	if err := t.validator.Run(rss, len(sorted)); err != nil {
		return fmt.Errorf("generated feed is invalid: %w", err)
	}

	if err := writeFile(t.OutputPath, []byte(rss)); err != nil {
		return fmt.Errorf("failed to write feed: %w", err)
	}

	slog.Info("Task completed",
		"type", string(t.GetType()),
		"id", t.GetID(),
		"duration", t.GetDuration(),
		"total", len(records),
		"filtered", len(records)-len(kept),
		"written", len(sorted),
		"output", t.OutputPath)

	return nil
}

func (t *BuildFeedTask) fetchRecords(ctx context.Context, stubs []store.PackageStub) ([]feed.AppRecord, error) {
	records := make([]feed.AppRecord, 0, len(stubs))

	for i, stub := range stubs {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		details, err := t.client.FetchDetails(ctx, stub.DetailURL)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch details for %s: %w", stub.Name, err)
		}

		records = append(records, newAppRecord(stub, details))

		slog.Debug("Package details fetched",
			"package", stub.Name,
			"version", details.Version,
			"progress", fmt.Sprintf("%d/%d", i+1, len(stubs)))
	}

	return records, nil
}

func newAppRecord(stub store.PackageStub, details *store.Details) feed.AppRecord {
	return feed.AppRecord{
		Title:                 stub.Title,
		Version:               details.Version,
		Publisher:             stub.Publisher,
		LastUpdated:           details.LastUpdated,
		Description:           details.Description,
		Changelog:             details.Changelog,
		IconURL:               details.IconURL,
		Price:                 details.Price,
		Architecture:          details.Architecture,
		Framework:             details.Framework,
		Keywords:              details.Keywords,
		WhitelistCountryCodes: details.WhitelistCountryCodes,
	}
}

// writeFile replaces path with data through a temporary file in the same
// directory, so readers never see a partial feed. A symlinked path is
// written through to its target, and an existing file keeps its mode.
func writeFile(path string, data []byte) error {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		path = resolved
	}

	mode := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".store-diff-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set file mode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}

	return nil
}
