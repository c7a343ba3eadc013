// Package nav tracks where in the portal's UI the session currently is and
// performs the transitions between regions. Two independent state machines
// share one contract: opening the already-open target is a no-op, opening a
// different target backs out of the current one first, and every full-page
// navigation collapses the message drawer's transient state.
package nav

import (
	"fmt"
	"log/slog"
	"time"
)

// Error indicates a required UI element was missing or a navigation timed
// out while transitioning to Target. Transitions are not retried; selector
// drift is the expected long-term cause.
type Error struct {
	Target string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("navigate to %s: %v", e.Target, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Navigator bundles the forums and messages machines over one page and
// wires the reset contract between them: forum and thread navigations are
// full-page loads, which the site answers by collapsing the message drawer.
type Navigator struct {
	Forums   *Forums
	Messages *Messages
}

// PageUI is the union of page behavior the two machines need. The machines
// each hold the whole interface but use disjoint parts; tests fake it.
type PageUI interface {
	Navigate(url string) error
	URL() (string, error)
	Click(sel string) error
	ClickXPath(expr string) error
	Eval(js string, out any) error
	Settle(d time.Duration)
}

// New creates a navigator for the portal at domain.
func New(page PageUI, domain string, logger *slog.Logger) *Navigator {
	logger = logger.With("component", "nav")
	messages := newMessages(page, logger)
	forums := newForums(page, domain, logger, messages.Reset)
	return &Navigator{Forums: forums, Messages: messages}
}
