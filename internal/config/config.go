package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"lmswatch/internal/types"
)

// Config holds all application configuration
type Config struct {
	Version  int            `toml:"version"`
	Portal   PortalConfig   `toml:"portal"`
	Identity IdentityConfig `toml:"identity"`
	Watch    WatchConfig    `toml:"watch"`
	Browser  BrowserConfig  `toml:"browser"`
	Logging  LoggingConfig  `toml:"logging"`
}

// PortalConfig describes the LMS being watched.
type PortalConfig struct {
	// Domain is the LMS host, e.g. "uponline.education".
	Domain string `toml:"domain"`
	// Forums are the discussion forums to poll, in poll order.
	Forums []types.Forum `toml:"forums"`
	// MessageCategory is the display name of the message-drawer category
	// holding the watched conversation.
	MessageCategory string `toml:"message_category"`
	// Conversation matches the watched conversation by name substring.
	Conversation string `toml:"conversation"`
}

// IdentityConfig carries the identity-provider credentials the login flow
// submits when the portal redirects to it.
type IdentityConfig struct {
	Domain   string `toml:"domain"`
	Email    string `toml:"email"`
	Password string `toml:"password"`
}

type WatchConfig struct {
	// Schedule is a five-field cron expression for poll cadence.
	Schedule string `toml:"schedule"`
	Timezone string `toml:"timezone"`
	// CacheDir is where per-source snapshot files live.
	CacheDir string `toml:"cache_dir"`
	// ScreenshotDir receives diagnostic screenshots from failed runs.
	ScreenshotDir string `toml:"screenshot_dir"`
}

type BrowserConfig struct {
	Headless bool `toml:"headless"`
	// CookiePath is the authentication cookie file.
	CookiePath string `toml:"cookie_path"`
	// SettleSeconds is the fixed wait applied after UI actions that have
	// no reliable loaded-indicator to wait on.
	SettleSeconds int `toml:"settle_seconds"`
	// NavTimeoutSeconds bounds individual page navigations.
	NavTimeoutSeconds int `toml:"nav_timeout_seconds"`
}

type LoggingConfig struct {
	Level string `toml:"level"`
}

// Default returns a Config with sensible defaults
func Default() *Config {
	return &Config{
		Version: 1,
		Portal: PortalConfig{
			Domain: "uponline.education",
			Forums: []types.Forum{
				{Module: "Integrated Studio I", Name: "DSD Noticeboard", ID: "1920"},
				{Module: "Integrated Studio I", Name: "Discussion Forum", ID: "1921"},
				{Module: "Integrated Studio I", Name: "Activities", ID: "1925"},
			},
			MessageCategory: "Group Messages",
			Conversation:    "Software",
		},
		Identity: IdentityConfig{
			Domain: "microsoftonline.com",
		},
		Watch: WatchConfig{
			// Every 20 minutes, working hours, Monday to Saturday.
			Schedule: "0,20,40 8-22 * * 1-6",
			Timezone: "Pacific/Auckland",
			CacheDir: "cache",
		},
		Browser: BrowserConfig{
			Headless:          true,
			CookiePath:        "cookies.json",
			SettleSeconds:     3,
			NavTimeoutSeconds: 30,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// ConfigDir returns the platform-appropriate config directory
func ConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "lmswatch"), nil
}

// ConfigPath returns the full path to the config file
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads config from the given path, falling back to the default
// location when path is empty.
func Load(path string) (*Config, error) {
	if path == "" {
		var err error
		path, err = ConfigPath()
		if err != nil {
			return nil, err
		}
	}

	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes config to the default location
func (c *Config) Save() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	path, err := ConfigPath()
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(c)
}
