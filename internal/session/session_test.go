package session

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chromedp/cdproto/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lmswatch/internal/auth"
)

func TestSanitizeLabel(t *testing.T) {
	tests := []struct {
		name  string
		label string
		want  string
	}{
		{"plain", "login-failed", "login-failed"},
		{"spaces become underscores", "navigate to forum 1920", "navigate_to_forum_1920"},
		{"punctuation stripped", `login failed at portal verify: net::ERR_TIMED_OUT`, "login_failed_at_portal_verify_netERR_TIMED_OUT"},
		{"nothing usable", "???///", "diagnostic"},
		{"empty", "", "diagnostic"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, sanitizeLabel(tc.label))
		})
	}
}

func TestSanitizeLabelCapsLength(t *testing.T) {
	long := strings.Repeat("a", 500)
	got := sanitizeLabel(long)
	assert.Len(t, got, 120)
}

func TestCloseIdempotent(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := New(nil, Options{}, logger)
	s.Close()
	s.Close()
	assert.Nil(t, s.Page())
}

func newTestCookieStore(t *testing.T) *auth.CookieStore {
	t.Helper()
	return auth.NewCookieStore(filepath.Join(t.TempDir(), "cookies.json"))
}

// A cookie the browser rejects must not take the session down: by the time
// cookies are installed the browser is already live, and an error escaping
// here would leave the process running with no owner to close it.
func TestLoadCookiesInjectionFailureIsNotFatal(t *testing.T) {
	store := newTestCookieStore(t)
	require.NoError(t, store.Save([]*network.Cookie{
		{Name: "MoodleSession", Domain: "lms.example.edu", Value: "abc"},
	}))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := New(store, Options{}, logger)

	var attempted bool
	s.loadCookies(func([]*network.Cookie) error {
		attempted = true
		return errors.New("invalid cookie fields")
	})
	assert.True(t, attempted)
}

func TestLoadCookiesInstallsSavedJar(t *testing.T) {
	store := newTestCookieStore(t)
	require.NoError(t, store.Save([]*network.Cookie{
		{Name: "MoodleSession", Domain: "lms.example.edu", Value: "abc"},
	}))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := New(store, Options{}, logger)

	var installed []*network.Cookie
	s.loadCookies(func(cookies []*network.Cookie) error {
		installed = cookies
		return nil
	})
	require.Len(t, installed, 1)
	assert.Equal(t, "MoodleSession", installed[0].Name)
}

func TestLoadCookiesSkipsUnreadableStorage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cookies.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := New(auth.NewCookieStore(path), Options{}, logger)

	var attempted bool
	s.loadCookies(func([]*network.Cookie) error {
		attempted = true
		return nil
	})
	assert.False(t, attempted)
}

func TestOptionDefaults(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := New(nil, Options{}, logger)
	assert.Greater(t, int64(s.opts.Settle), int64(0))
	assert.Greater(t, int64(s.opts.NavTimeout), int64(0))
}
