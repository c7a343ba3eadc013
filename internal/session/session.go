// Package session owns the browser process and the single page every other
// component drives. A Session is created and torn down once per scheduled
// run; authentication cookies are the only state that survives between runs.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"lmswatch/internal/auth"
	"lmswatch/internal/browser"
)

// Error indicates the browser or page could not be created, or teardown-time
// plumbing failed. Cookie problems are downgraded to "no cookies" rather
// than surfaced here.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("session %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Options configures a Session.
type Options struct {
	Headless bool
	// ScreenshotDir receives diagnostic captures; empty means the working
	// directory.
	ScreenshotDir string
	// Settle is the default delay applied after UI actions with no
	// reliable loaded-indicator.
	Settle time.Duration
	// NavTimeout bounds individual page navigations.
	NavTimeout time.Duration
}

// Session holds exclusive ownership of one browser process and one page.
type Session struct {
	cookies *auth.CookieStore
	opts    Options
	logger  *slog.Logger

	allocCancel   context.CancelFunc
	browserCancel context.CancelFunc
	page          *Page
}

// New creates a session. The browser is not launched until Open.
func New(cookies *auth.CookieStore, opts Options, logger *slog.Logger) *Session {
	if opts.Settle <= 0 {
		opts.Settle = 3 * time.Second
	}
	if opts.NavTimeout <= 0 {
		opts.NavTimeout = 30 * time.Second
	}
	return &Session{
		cookies: cookies,
		opts:    opts,
		logger:  logger.With("component", "session"),
	}
}

// Open launches the browser, opens a fresh page and loads any previously
// saved cookies into it. Corrupt cookie storage is treated as having no
// cookies.
func (s *Session) Open(ctx context.Context) (*Page, error) {
	if s.page != nil {
		return s.page, nil
	}

	s.logger.Info("Launching browser", "headless", s.opts.Headless)
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, browser.Options(s.opts.Headless)...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// Force the browser process to start now so launch failures surface
	// here instead of on the first navigation.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, &Error{Op: "open", Err: err}
	}

	s.allocCancel = allocCancel
	s.browserCancel = browserCancel
	s.page = &Page{
		ctx:        browserCtx,
		settle:     s.opts.Settle,
		navTimeout: s.opts.NavTimeout,
		logger:     s.logger,
	}

	s.loadCookies(s.page.setCookies)

	return s.page, nil
}

// loadCookies installs any previously saved cookies through set. Cookie
// problems never take the session down: the browser is already live at this
// point, so an error here would leak the process. A run without cookies just
// walks the full login flow.
func (s *Session) loadCookies(set func([]*network.Cookie) error) {
	cookies, err := s.cookies.Load()
	switch {
	case err == nil && len(cookies) > 0:
		if err := set(cookies); err != nil {
			s.logger.Warn("Could not install cookies, continuing without", "error", err)
			return
		}
		s.logger.Info("Loaded cookies into page", "count", len(cookies))
	case err != nil && !os.IsNotExist(err):
		s.logger.Warn("Cookie storage unreadable, continuing without cookies", "error", err)
	}
}

// Page returns the session's page, or nil when the session is not open.
func (s *Session) Page() *Page { return s.page }

// Close tears down the page and the browser process. Closing an
// already-closed session is a no-op.
func (s *Session) Close() {
	if s.page == nil {
		return
	}
	s.logger.Info("Closing browser")
	s.browserCancel()
	s.allocCancel()
	s.page = nil
	s.browserCancel = nil
	s.allocCancel = nil
}

// CaptureDiagnostic saves a screenshot of the current page tagged with
// label. Used for failure forensics; it logs instead of returning errors.
func (s *Session) CaptureDiagnostic(label string) {
	if s.page == nil {
		return
	}

	buf, err := s.page.screenshot()
	if err != nil {
		s.logger.Warn("Diagnostic screenshot failed", "label", label, "error", err)
		return
	}

	name := sanitizeLabel(label) + ".png"
	path := filepath.Join(s.opts.ScreenshotDir, name)
	if s.opts.ScreenshotDir != "" {
		if err := os.MkdirAll(s.opts.ScreenshotDir, 0o755); err != nil {
			s.logger.Warn("Diagnostic screenshot failed", "label", label, "error", err)
			return
		}
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		s.logger.Warn("Diagnostic screenshot failed", "label", label, "error", err)
		return
	}
	s.logger.Info("Saved diagnostic screenshot", "path", path)
}

// SaveCookies persists the page's current cookie jar to durable storage.
func (s *Session) SaveCookies() error {
	if s.page == nil {
		return &Error{Op: "save cookies", Err: fmt.Errorf("session not open")}
	}
	cookies, err := s.page.Cookies()
	if err != nil {
		return &Error{Op: "save cookies", Err: err}
	}
	return s.cookies.Save(cookies)
}

func sanitizeLabel(label string) string {
	label = strings.ReplaceAll(label, " ", "_")
	clean := make([]rune, 0, len(label))
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			clean = append(clean, r)
		}
	}
	if len(clean) == 0 {
		return "diagnostic"
	}
	const maxLen = 120
	if len(clean) > maxLen {
		clean = clean[:maxLen]
	}
	return string(clean)
}
