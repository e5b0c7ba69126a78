package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/lysyi3m/store-diff/app/cfg"
	"github.com/lysyi3m/store-diff/app/feed"
	"github.com/lysyi3m/store-diff/app/store"
	"github.com/lysyi3m/store-diff/app/tasks"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stderr io.Writer) int {
	appCfg, err := cfg.Load(args, stderr)
	if errors.Is(err, cfg.ErrUsage) {
		return exitUsage
	}
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}
	if appCfg == nil {
		// Help was shown
		return exitOK
	}

	level := slog.LevelInfo
	if appCfg.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))

	slog.Info("Starting store diff", "version", appCfg.Version, "search_url", appCfg.SearchURL, "output", appCfg.OutputPath)

	feedConfig, err := feed.LoadConfig(appCfg.ConfigPath)
	if err != nil {
		slog.Error("Failed to load feed configuration", "path", appCfg.ConfigPath, "error", err)
		return exitFailure
	}

	client := store.NewClient(&http.Client{}, appCfg.SearchURL, appCfg.UserAgent, appCfg.Timeout, appCfg.MaxPages)

	task := tasks.NewBuildFeedTask(feedConfig, appCfg.OutputPath, client,
		feed.NewFilterer(), feed.NewGenerator(feedConfig.Channel), feed.NewValidator())

	if err := tasks.Run(ctx, task); err != nil {
		return exitFailure
	}

	return exitOK
}
