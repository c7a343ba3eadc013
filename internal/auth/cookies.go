package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chromedp/cdproto/network"
)

// CookieStore persists the authentication cookie jar between runs. The file
// is a plain JSON array of cookie objects so the external notifier layer can
// read and reuse the session.
type CookieStore struct {
	path string
}

// NewCookieStore creates a cookie store at the given path
func NewCookieStore(path string) *CookieStore {
	return &CookieStore{path: path}
}

// Path returns the backing file's location.
func (cs *CookieStore) Path() string { return cs.path }

// Save persists cookies to disk
func (cs *CookieStore) Save(cookies []*network.Cookie) error {
	dir := filepath.Dir(cs.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cookies, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(cs.path, data, 0o600)
}

// Load retrieves cookies from disk. A missing file returns os.ErrNotExist;
// unreadable JSON returns an error the caller may downgrade to "no cookies".
func (cs *CookieStore) Load() ([]*network.Cookie, error) {
	data, err := os.ReadFile(cs.path)
	if err != nil {
		return nil, err
	}

	var cookies []*network.Cookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		return nil, fmt.Errorf("parse %s: %w", cs.path, err)
	}

	return cookies, nil
}

// Clear removes stored cookies
func (cs *CookieStore) Clear() error {
	err := os.Remove(cs.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
