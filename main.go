package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"lmswatch/internal/auth"
	"lmswatch/internal/config"
	"lmswatch/internal/events"
	"lmswatch/internal/store"
	"lmswatch/internal/types"
	"lmswatch/internal/watch"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default: user config dir)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// First run - create default config
			cfg = config.Default()
			if saveErr := cfg.Save(); saveErr != nil {
				slog.Warn("Could not save default config", "error", saveErr)
			} else {
				path, _ := config.ConfigPath()
				slog.Info("Created default config", "path", path)
			}
		} else {
			slog.Error("Could not load config", "error", err)
			os.Exit(1)
		}
	}

	logger := newLogger(cfg.Logging.Level)
	logger.Info("lmswatch starting")

	cookies := auth.NewCookieStore(cfg.Browser.CookiePath)
	snapshots := store.New(cfg.Watch.CacheDir, logger)
	bus := events.NewBus()

	// The chat-notifier layer subscribes here in deployments; standalone,
	// new records land in the log.
	bus.OnThread(func(_ context.Context, forum types.Forum, thread types.Thread) error {
		logger.Info("New thread",
			"forum", forum.Name, "title", thread.Title,
			"author", thread.Author, "sent_at", thread.SentAt)
		return nil
	})
	bus.OnMessage(func(_ context.Context, conv types.Conversation, msg types.Message) error {
		logger.Info("New message",
			"conversation", conv.Name, "author", msg.Author,
			"sent_at", msg.SentAt)
		return nil
	})

	watcher := watch.New(cfg, cookies, snapshots, bus, logger)
	if err := watcher.Setup(); err != nil {
		logger.Error("Could not schedule watcher", "error", err)
		os.Exit(1)
	}
	watcher.Start()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("Shutting down")
	<-watcher.Stop().Done()
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
