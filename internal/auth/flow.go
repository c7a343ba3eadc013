package auth

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
)

// LoginError indicates the login flow completed without reaching an
// authenticated portal page. It is not retried within a run.
type LoginError struct {
	Stage string
	Err   error
}

func (e *LoginError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("login failed at %s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("login failed at %s", e.Stage)
}

func (e *LoginError) Unwrap() error { return e.Err }

// Credentials are the identity-provider credentials the flow submits when
// the portal redirects to it.
type Credentials struct {
	Email    string
	Password string
}

// UI is the slice of page behavior the login flow drives.
type UI interface {
	Navigate(url string) error
	URL() (string, error)
	Title() (string, error)
	Click(sel string) error
	Type(sel, text string) error
	Settle(d time.Duration)
	Cookies() ([]*network.Cookie, error)
}

// Identity-provider login page controls. These are the provider's stable
// element ids, not the portal's.
const (
	selEmailField    = "#i0116"
	selPasswordField = "#i0118"
	selSubmitButton  = "#idSIButton9"
	selStaySignedIn  = "#KmsiCheckboxField"
)

// The portal's single sign-on entry point on its login page.
const selSSOButton = "#button1"

// identityTitleFragment appears in the identity provider's login page
// title; it is how the flow detects the redirect.
const identityTitleFragment = "Sign in"

// Flow logs into the portal, delegating to the identity provider when
// redirected. Login success is memoized for the lifetime of the Flow, which
// matches one run; a new run builds a new Flow.
type Flow struct {
	page   UI
	store  *CookieStore
	creds  Credentials
	domain string
	logger *slog.Logger

	loggedIn bool
}

// NewFlow creates a login flow for the portal at domain.
func NewFlow(page UI, store *CookieStore, creds Credentials, domain string, logger *slog.Logger) *Flow {
	return &Flow{
		page:   page,
		store:  store,
		creds:  creds,
		domain: domain,
		logger: logger.With("component", "auth"),
	}
}

// onCoursePage reports whether the portal currently shows an authenticated
// page.
func (f *Flow) onCoursePage() (bool, error) {
	url, err := f.page.URL()
	if err != nil {
		return false, err
	}
	return strings.Contains(url, f.domain+"/course") ||
		strings.Contains(url, f.domain+"/mod"), nil
}

// Login ensures the session is authenticated. Returns immediately when a
// previous call already succeeded this run. This is the only path that may
// submit credentials; password entry is never retried.
func (f *Flow) Login() error {
	if f.loggedIn {
		return nil
	}

	if ok, err := f.onCoursePage(); err != nil {
		return &LoginError{Stage: "portal check", Err: err}
	} else if ok {
		f.loggedIn = true
		return nil
	}

	f.logger.Info("Navigating to portal login page")
	if err := f.page.Navigate(fmt.Sprintf("https://%s/go", f.domain)); err != nil {
		return &LoginError{Stage: "portal login page", Err: err}
	}

	// Cookies from a previous run may carry the session straight through.
	if ok, err := f.onCoursePage(); err != nil {
		return &LoginError{Stage: "portal check", Err: err}
	} else if ok {
		f.logger.Info("Existing cookies still valid, skipping login")
		f.loggedIn = true
		return nil
	}

	f.logger.Info("Clicking single sign-on entry point")
	if err := f.page.Click(selSSOButton); err != nil {
		return &LoginError{Stage: "sso button", Err: err}
	}
	f.page.Settle(5 * time.Second)

	onIdp, err := f.onIdentityPage()
	if err != nil {
		return &LoginError{Stage: "identity check", Err: err}
	}
	if onIdp {
		if err := f.identityLogin(); err != nil {
			return err
		}
	}

	if ok, err := f.onCoursePage(); err != nil {
		return &LoginError{Stage: "portal verify", Err: err}
	} else if !ok {
		return &LoginError{Stage: "portal verify"}
	}
	f.logger.Info("Logged into the portal")
	f.loggedIn = true

	// Persist the jar so subsequent runs can skip the full flow while the
	// cookies remain valid.
	cookies, err := f.page.Cookies()
	if err != nil {
		f.logger.Warn("Could not read cookies after login", "error", err)
		return nil
	}
	if err := f.store.Save(cookies); err != nil {
		f.logger.Warn("Could not save cookies", "error", err)
		return nil
	}
	f.logger.Info("Saved cookies", "path", f.store.Path(), "count", len(cookies))
	return nil
}

// onIdentityPage detects the identity provider's login page by title.
func (f *Flow) onIdentityPage() (bool, error) {
	title, err := f.page.Title()
	if err != nil {
		return false, err
	}
	return strings.Contains(title, identityTitleFragment), nil
}

// identityLogin walks the identity provider's three-step form: email,
// password, "stay signed in".
func (f *Flow) identityLogin() error {
	f.logger.Info("Redirected to identity provider, submitting credentials")

	if err := f.page.Type(selEmailField, f.creds.Email); err != nil {
		return &LoginError{Stage: "identity email", Err: err}
	}
	if err := f.page.Click(selSubmitButton); err != nil {
		return &LoginError{Stage: "identity email submit", Err: err}
	}
	f.page.Settle(3 * time.Second)

	if err := f.page.Type(selPasswordField, f.creds.Password); err != nil {
		return &LoginError{Stage: "identity password", Err: err}
	}
	if err := f.page.Click(selSubmitButton); err != nil {
		return &LoginError{Stage: "identity password submit", Err: err}
	}
	f.page.Settle(3 * time.Second)

	if err := f.page.Click(selStaySignedIn); err != nil {
		return &LoginError{Stage: "identity stay signed in", Err: err}
	}
	if err := f.page.Click(selSubmitButton); err != nil {
		return &LoginError{Stage: "identity confirm", Err: err}
	}
	f.page.Settle(3 * time.Second)

	f.logger.Info("Identity provider flow complete")
	return nil
}
