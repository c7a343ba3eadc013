package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"
)

// jsString embeds a Go string into generated JavaScript as a quoted literal.
func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

// Page wraps the session's single chromedp tab behind the primitives the
// navigation, auth and extraction layers need. Consumers declare their own
// subset of these methods as an interface so they can be faked in tests.
type Page struct {
	ctx        context.Context
	settle     time.Duration
	navTimeout time.Duration
	logger     *slog.Logger
}

// Navigate performs a full-page navigation and waits the settle interval.
// Callers that track transient UI state must treat this as a reset.
func (p *Page) Navigate(url string) error {
	ctx, cancel := context.WithTimeout(p.ctx, p.navTimeout)
	defer cancel()
	if err := chromedp.Run(ctx, chromedp.Navigate(url)); err != nil {
		return err
	}
	p.Settle(p.settle)
	return nil
}

// URL returns the page's current location.
func (p *Page) URL() (string, error) {
	var url string
	err := chromedp.Run(p.ctx, chromedp.Location(&url))
	return url, err
}

// Title returns the current document title.
func (p *Page) Title() (string, error) {
	var title string
	err := chromedp.Run(p.ctx, chromedp.Title(&title))
	return title, err
}

// Click clicks the first element matching the CSS selector.
func (p *Page) Click(sel string) error {
	ctx, cancel := context.WithTimeout(p.ctx, p.navTimeout)
	defer cancel()
	return chromedp.Run(ctx, chromedp.Click(sel, chromedp.ByQuery))
}

// ClickXPath clicks the last element matching the XPath expression. The
// message drawer renders some controls twice (once hidden); the visible one
// is the last match.
func (p *Page) ClickXPath(expr string) error {
	ctx, cancel := context.WithTimeout(p.ctx, p.navTimeout)
	defer cancel()
	var clicked bool
	js := `(function(expr) {
		const result = document.evaluate(expr, document, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null);
		if (result.snapshotLength === 0) return false;
		result.snapshotItem(result.snapshotLength - 1).click();
		return true;
	})(` + jsString(expr) + `)`
	if err := chromedp.Run(ctx, chromedp.Evaluate(js, &clicked)); err != nil {
		return err
	}
	if !clicked {
		return fmt.Errorf("no element matches %q", expr)
	}
	return nil
}

// Type focuses the element matching the selector and types text into it.
func (p *Page) Type(sel, text string) error {
	ctx, cancel := context.WithTimeout(p.ctx, p.navTimeout)
	defer cancel()
	return chromedp.Run(ctx,
		chromedp.Click(sel, chromedp.ByQuery),
		chromedp.SendKeys(sel, text, chromedp.ByQuery),
	)
}

// Settle blocks for the given duration, or until the page context is done.
// Used after UI actions the site exposes no loaded-indicator for.
func (p *Page) Settle(d time.Duration) {
	select {
	case <-time.After(d):
	case <-p.ctx.Done():
	}
}

// WaitVisible waits until the selector matches a visible element, bounded
// by timeout.
func (p *Page) WaitVisible(sel string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(p.ctx, timeout)
	defer cancel()
	return chromedp.Run(ctx, chromedp.WaitVisible(sel, chromedp.ByQuery))
}

// Visible reports whether the selector matches an element that currently
// takes part in layout.
func (p *Page) Visible(sel string) (bool, error) {
	var visible bool
	js := `(function(sel) {
		const el = document.querySelector(sel);
		return el !== null && el.offsetParent !== null;
	})(` + jsString(sel) + `)`
	err := chromedp.Run(p.ctx, chromedp.Evaluate(js, &visible))
	return visible, err
}

// Eval evaluates a JavaScript expression in the page and unmarshals the
// result into out. Pass nil to discard the result.
func (p *Page) Eval(js string, out any) error {
	ctx, cancel := context.WithTimeout(p.ctx, p.navTimeout)
	defer cancel()
	if out == nil {
		return chromedp.Run(ctx, chromedp.Evaluate(js, nil))
	}
	return chromedp.Run(ctx, chromedp.Evaluate(js, out))
}

// HTML returns the outer HTML of the first element matching the selector.
func (p *Page) HTML(sel string) (string, error) {
	ctx, cancel := context.WithTimeout(p.ctx, p.navTimeout)
	defer cancel()
	var html string
	err := chromedp.Run(ctx, chromedp.OuterHTML(sel, &html, chromedp.ByQuery))
	return html, err
}

// Content returns the full document HTML.
func (p *Page) Content() (string, error) {
	return p.HTML("html")
}

// FetchDataURI downloads a resource from inside the page and returns it as
// a data: URI. Running the fetch in-page reuses the session's cookies,
// which protected LMS images require.
func (p *Page) FetchDataURI(url string) (string, error) {
	js := `(async function(url) {
		const response = await fetch(url);
		const blob = await response.blob();
		return await new Promise(resolve => {
			const reader = new FileReader();
			reader.onloadend = () => resolve(reader.result);
			reader.readAsDataURL(blob);
		});
	})(` + jsString(url) + `)`

	ctx, cancel := context.WithTimeout(p.ctx, p.navTimeout)
	defer cancel()
	var dataURI string
	err := chromedp.Run(ctx, chromedp.Evaluate(js, &dataURI,
		func(ep *runtime.EvaluateParams) *runtime.EvaluateParams {
			return ep.WithAwaitPromise(true)
		}))
	if err != nil {
		return "", err
	}
	return dataURI, nil
}

// Cookies returns all cookies known to the browser.
func (p *Page) Cookies() ([]*network.Cookie, error) {
	var cookies []*network.Cookie
	err := chromedp.Run(p.ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		cookies, err = storage.GetCookies().Do(ctx)
		return err
	}))
	return cookies, err
}

// setCookies installs saved cookies into the browser before navigation.
func (p *Page) setCookies(cookies []*network.Cookie) error {
	return chromedp.Run(p.ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		for _, c := range cookies {
			err := network.SetCookie(c.Name, c.Value).
				WithDomain(c.Domain).
				WithPath(c.Path).
				WithSecure(c.Secure).
				WithHTTPOnly(c.HTTPOnly).
				WithSameSite(c.SameSite).
				Do(ctx)
			if err != nil {
				return err
			}
		}
		return nil
	}))
}

func (p *Page) screenshot() ([]byte, error) {
	ctx, cancel := context.WithTimeout(p.ctx, p.navTimeout)
	defer cancel()
	var buf []byte
	err := chromedp.Run(ctx, chromedp.CaptureScreenshot(&buf))
	return buf, err
}
