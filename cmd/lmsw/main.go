// Command lmsw is a dev CLI for lmswatch maintenance and debugging tasks.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"lmswatch/internal/auth"
	"lmswatch/internal/config"
	"lmswatch/internal/events"
	"lmswatch/internal/session"
	"lmswatch/internal/store"
	"lmswatch/internal/types"
	"lmswatch/internal/watch"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "run":
		runOnce()
	case "login":
		runLogin()
	case "cookies":
		runCookies()
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: lmsw <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  run      Execute a single scrape run now, without the scheduler")
	fmt.Println("  login    Open a visible browser, log in, and save cookies")
	fmt.Println("  cookies  Summarize the stored cookie file")
}

func loadConfig() (*config.Config, *slog.Logger) {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not load config: %v\n", err)
		os.Exit(1)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	return cfg, logger
}

// runOnce executes one process cycle and prints what it finds.
func runOnce() {
	cfg, logger := loadConfig()

	cookies := auth.NewCookieStore(cfg.Browser.CookiePath)
	snapshots := store.New(cfg.Watch.CacheDir, logger)
	bus := events.NewBus()
	bus.OnThread(func(_ context.Context, forum types.Forum, thread types.Thread) error {
		fmt.Printf("new thread in %s: %q by %s (%s)\n",
			forum.Name, thread.Title, thread.Author, thread.SentAt.Format(time.RFC3339))
		return nil
	})
	bus.OnMessage(func(_ context.Context, conv types.Conversation, msg types.Message) error {
		fmt.Printf("new message in %s from %s (%s)\n",
			conv.Name, msg.Author, msg.SentAt.Format(time.RFC3339))
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	watcher := watch.New(cfg, cookies, snapshots, bus, logger)
	if err := watcher.Process(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "run failed: %v\n", err)
		os.Exit(1)
	}
}

// runLogin walks the full login flow in a visible browser so an operator
// can clear interactive challenges, then persists the cookie jar.
func runLogin() {
	cfg, logger := loadConfig()

	cookies := auth.NewCookieStore(cfg.Browser.CookiePath)
	sess := session.New(cookies, session.Options{
		Headless:   false,
		Settle:     time.Duration(cfg.Browser.SettleSeconds) * time.Second,
		NavTimeout: time.Duration(cfg.Browser.NavTimeoutSeconds) * time.Second,
	}, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	page, err := sess.Open(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not open browser: %v\n", err)
		os.Exit(1)
	}
	defer sess.Close()

	flow := auth.NewFlow(page, cookies, auth.Credentials{
		Email:    cfg.Identity.Email,
		Password: cfg.Identity.Password,
	}, cfg.Portal.Domain, logger)
	if err := flow.Login(); err != nil {
		fmt.Fprintf(os.Stderr, "login failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("logged in; cookies saved to %s\n", cfg.Browser.CookiePath)
}

func runCookies() {
	cfg, _ := loadConfig()

	stored := auth.NewCookieStore(cfg.Browser.CookiePath)
	cookies, err := stored.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not read cookies: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%d cookies in %s\n", len(cookies), cfg.Browser.CookiePath)
	for _, c := range cookies {
		expires := "session"
		if c.Expires > 0 {
			expires = time.Unix(int64(c.Expires), 0).Format(time.RFC3339)
		}
		fmt.Printf("  %s  domain=%s  expires=%s\n", c.Name, c.Domain, expires)
	}
}
