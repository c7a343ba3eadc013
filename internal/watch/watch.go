// Package watch owns the poll cadence and sequences one full run: open a
// session, log in, visit each monitored source, diff against the stored
// snapshots, and emit an event per new record in timestamp order.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"lmswatch/internal/auth"
	"lmswatch/internal/config"
	"lmswatch/internal/diff"
	"lmswatch/internal/events"
	"lmswatch/internal/extract"
	"lmswatch/internal/nav"
	"lmswatch/internal/session"
	"lmswatch/internal/store"
	"lmswatch/internal/types"
)

// runTimeout bounds a whole scheduled run.
const runTimeout = 30 * time.Minute

// page is the slice of session.Page behavior a run reads content through.
type page interface {
	Content() (string, error)
	HTML(sel string) (string, error)
	FetchDataURI(url string) (string, error)
}

// Watcher schedules and executes scrape runs.
type Watcher struct {
	cfg     *config.Config
	cookies *auth.CookieStore
	store   *store.Store
	bus     *events.Bus
	logger  *slog.Logger
	cron    *cron.Cron

	// running serializes runs: a tick that fires while a run is still in
	// flight is skipped, not queued.
	running sync.Mutex
}

// New creates a watcher.
func New(cfg *config.Config, cookies *auth.CookieStore, st *store.Store, bus *events.Bus, logger *slog.Logger) *Watcher {
	return &Watcher{
		cfg:     cfg,
		cookies: cookies,
		store:   st,
		bus:     bus,
		logger:  logger.With("component", "watch"),
	}
}

// Setup registers the recurring trigger from the configured cron
// expression. Call Start to begin ticking.
func (w *Watcher) Setup() error {
	loc, err := time.LoadLocation(w.cfg.Watch.Timezone)
	if err != nil {
		return fmt.Errorf("invalid timezone %s: %w", w.cfg.Watch.Timezone, err)
	}

	c := cron.New(cron.WithLocation(loc))
	if _, err := c.AddFunc(w.cfg.Watch.Schedule, w.tick); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", w.cfg.Watch.Schedule, err)
	}
	w.cron = c
	w.logger.Info("Scheduled watcher", "schedule", w.cfg.Watch.Schedule, "timezone", w.cfg.Watch.Timezone)
	return nil
}

// Start begins running scheduled ticks.
func (w *Watcher) Start() {
	w.cron.Start()
}

// Stop halts the scheduler; the returned context is done once any in-flight
// tick completes.
func (w *Watcher) Stop() context.Context {
	return w.cron.Stop()
}

func (w *Watcher) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	start := time.Now()
	w.logger.Info("Starting scheduled run")
	if err := w.Process(ctx); err != nil {
		w.logger.Error("Run failed", "error", err)
		return
	}
	w.logger.Info("Run completed", "duration", time.Since(start))
}

// Process executes one full run. On any component error the session still
// comes down; a failed run performs no partial retry — the next scheduled
// tick starts fresh.
func (w *Watcher) Process(ctx context.Context) error {
	if !w.running.TryLock() {
		w.logger.Warn("Previous run still in flight, skipping this tick")
		return nil
	}
	defer w.running.Unlock()

	sess := session.New(w.cookies, session.Options{
		Headless:      w.cfg.Browser.Headless,
		ScreenshotDir: w.cfg.Watch.ScreenshotDir,
		Settle:        time.Duration(w.cfg.Browser.SettleSeconds) * time.Second,
		NavTimeout:    time.Duration(w.cfg.Browser.NavTimeoutSeconds) * time.Second,
	}, w.logger)

	pg, err := sess.Open(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := w.run(ctx, pg); err != nil {
		sess.CaptureDiagnostic(err.Error())
		return err
	}
	return nil
}

func (w *Watcher) run(ctx context.Context, pg *session.Page) error {
	flow := auth.NewFlow(pg, w.cookies, auth.Credentials{
		Email:    w.cfg.Identity.Email,
		Password: w.cfg.Identity.Password,
	}, w.cfg.Portal.Domain, w.logger)
	if err := flow.Login(); err != nil {
		return err
	}

	navigator := nav.New(pg, w.cfg.Portal.Domain, w.logger)

	var pending []pendingEvent

	w.logger.Info("Checking for new threads")
	for _, forum := range w.cfg.Portal.Forums {
		found, err := w.checkForum(ctx, navigator, pg, forum)
		if skippable(err) {
			w.logger.Warn("Skipping forum for this run", "forum", forum.Name, "error", err)
			continue
		}
		if err != nil {
			return err
		}
		pending = append(pending, found...)
	}

	w.logger.Info("Checking for new messages")
	found, err := w.checkMessages(ctx, navigator, pg)
	if skippable(err) {
		w.logger.Warn("Skipping messages for this run", "error", err)
	} else if err != nil {
		return err
	} else {
		pending = append(pending, found...)
	}

	// Consumers observe chronological order even though sources were
	// visited in configuration order. A failed delivery aborts the rest of
	// the batch.
	orderEvents(pending)
	for _, ev := range pending {
		if err := ev.emit(ctx); err != nil {
			return err
		}
	}
	return nil
}

// skippable reports whether an error aborts only the source it came from.
func skippable(err error) bool {
	var regionErr *extract.RegionError
	return errors.As(err, &regionErr)
}

// pendingEvent is a new record waiting for emission once all sources have
// been visited.
type pendingEvent struct {
	sentAt time.Time
	emit   func(ctx context.Context) error
}

// orderEvents sorts pooled events by sentAt ascending, preserving source
// order among equal timestamps.
func orderEvents(pending []pendingEvent) {
	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].sentAt.Before(pending[j].sentAt)
	})
}

// checkForum diffs one forum's listing and pulls full content for each new
// thread. The snapshot is replaced with the full current listing, but only
// when something new was found.
func (w *Watcher) checkForum(ctx context.Context, navigator *nav.Navigator, pg page, forum types.Forum) ([]pendingEvent, error) {
	if err := navigator.Forums.Open(forum); err != nil {
		return nil, err
	}

	html, err := pg.Content()
	if err != nil {
		return nil, err
	}
	listing, err := extract.ForumThreads(html, time.Now())
	if err != nil {
		return nil, err
	}

	previous := w.store.ForumThreads(forum)
	fresh := diff.NewThreads(listing, previous)
	if len(fresh) == 0 {
		return nil, nil
	}
	w.logger.Info("New threads in forum", "forum", forum.Name, "count", len(fresh))

	if err := w.store.SaveForumThreads(forum, listing); err != nil {
		return nil, err
	}

	var pending []pendingEvent
	for _, partial := range fresh {
		if err := navigator.Forums.OpenThread(partial); err != nil {
			return nil, err
		}
		threadHTML, err := pg.Content()
		if err != nil {
			return nil, err
		}
		thread, err := extract.ThreadContent(threadHTML, partial.ID, time.Now(), pg.FetchDataURI)
		if err != nil {
			return nil, err
		}
		if err := w.store.SaveThreadContent(thread); err != nil {
			return nil, err
		}

		f, t := forum, thread
		pending = append(pending, pendingEvent{
			sentAt: thread.SentAt,
			emit: func(ctx context.Context) error {
				return w.bus.EmitThread(ctx, f, t)
			},
		})
	}
	return pending, nil
}

// checkMessages diffs the watched conversation. The drawer is backed out
// of and closed before emission so a later navigation starts from a known
// state.
func (w *Watcher) checkMessages(ctx context.Context, navigator *nav.Navigator, pg page) ([]pendingEvent, error) {
	ms := navigator.Messages
	if err := ms.OpenCategory(w.cfg.Portal.MessageCategory); err != nil {
		return nil, err
	}

	conversations, err := ms.Conversations()
	if err != nil {
		return nil, err
	}
	conv, ok := findConversation(conversations, w.cfg.Portal.Conversation)
	if !ok {
		return nil, fmt.Errorf("conversation %q not found in category %q",
			w.cfg.Portal.Conversation, w.cfg.Portal.MessageCategory)
	}

	if err := ms.OpenConversation(conv); err != nil {
		return nil, err
	}

	html, err := pg.HTML(nav.MessageDrawer)
	if err != nil {
		return nil, err
	}
	messages, err := extract.ConversationMessages(html, time.Now())
	if err != nil {
		return nil, err
	}

	if err := ms.CloseConversation(); err != nil {
		return nil, err
	}
	if err := ms.ClosePanel(); err != nil {
		return nil, err
	}

	previous := w.store.Messages(conv)
	fresh := diff.NewMessages(messages, previous)
	if len(fresh) == 0 {
		return nil, nil
	}
	w.logger.Info("New messages in conversation", "conversation", conv.Name, "count", len(fresh))

	if err := w.store.SaveMessages(conv, messages); err != nil {
		return nil, err
	}

	var pending []pendingEvent
	for _, msg := range fresh {
		c, m := conv, msg
		pending = append(pending, pendingEvent{
			sentAt: msg.SentAt,
			emit: func(ctx context.Context) error {
				return w.bus.EmitMessage(ctx, c, m)
			},
		})
	}
	return pending, nil
}

// findConversation matches by site id first, then by name substring, so
// operators can configure either.
func findConversation(conversations []types.Conversation, target string) (types.Conversation, bool) {
	for _, c := range conversations {
		if c.ID != "" && c.ID == target {
			return c, true
		}
	}
	for _, c := range conversations {
		if c.Name == target || containsFold(c.Name, target) {
			return c, true
		}
	}
	return types.Conversation{}, false
}

func containsFold(s, substr string) bool {
	return len(substr) > 0 && len(s) >= len(substr) &&
		strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
