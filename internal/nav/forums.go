package nav

import (
	"log/slog"

	"lmswatch/internal/types"
)

// Forums is the forum-side state machine: Closed -> ForumOpen(id). Forum
// pages are plain URLs, so every transition is a full-page navigation and
// the machine re-initializes per target.
type Forums struct {
	page   PageUI
	domain string
	logger *slog.Logger

	// onNavigate is invoked after every full-page navigation; it resets
	// the messages machine per the drawer-collapse contract.
	onNavigate func()

	current string // open forum id, "" when closed
}

func newForums(page PageUI, domain string, logger *slog.Logger, onNavigate func()) *Forums {
	return &Forums{
		page:       page,
		domain:     domain,
		logger:     logger,
		onNavigate: onNavigate,
	}
}

// Current returns the open forum's id, or "" when no forum is open.
func (f *Forums) Current() string { return f.current }

// Open navigates to a forum's listing page. Opening the already-open forum
// is a no-op.
func (f *Forums) Open(forum types.Forum) error {
	if f.current == forum.ID {
		return nil
	}

	f.logger.Info("Navigating to forum", "forum", forum.Name, "id", forum.ID)
	if err := f.page.Navigate(ForumURL(f.domain, forum.ID)); err != nil {
		f.current = ""
		f.onNavigate()
		return &Error{Target: "forum " + forum.ID, Err: err}
	}
	f.onNavigate()
	f.current = forum.ID
	return nil
}

// OpenThread navigates to a thread's discussion page. This leaves the forum
// listing, so the machine returns to Closed for listing purposes.
func (f *Forums) OpenThread(thread types.PartialThread) error {
	f.logger.Info("Opening thread", "title", thread.Title, "id", thread.ID)
	f.current = ""
	if err := f.page.Navigate(ThreadURL(f.domain, thread.ID)); err != nil {
		f.onNavigate()
		return &Error{Target: "thread " + thread.ID, Err: err}
	}
	f.onNavigate()
	// Thread pages load their reply tree late; give it longer than the
	// navigation settle.
	f.page.Settle(settleThread)
	return nil
}
