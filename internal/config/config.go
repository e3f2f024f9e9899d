package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/cookiesnap/internal/browser"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "cookiesnap"

	// DefaultBrowser is the browser kind used when none is configured.
	DefaultBrowser = string(browser.KindChrome)

	// DefaultWaitTime is the settle interval after the first navigation.
	// Most consent banners and tracking scripts appear within a few seconds.
	DefaultWaitTime = 5 * time.Second

	// MinWaitTime is the smallest accepted settle interval.
	MinWaitTime = time.Second

	// DefaultDynamicSettle is the second, fixed settle interval that lets
	// scripts loaded after consent set their cookies.
	DefaultDynamicSettle = 3 * time.Second

	// DefaultConsentTimeout bounds the search for each consent selector.
	DefaultConsentTimeout = 5 * time.Second

	// DefaultTorStartupTimeout bounds the embedded Tor bootstrap.
	DefaultTorStartupTimeout = 3 * time.Minute

	// DefaultProxyCheckTimeout bounds probing a target through the proxy.
	DefaultProxyCheckTimeout = 30 * time.Second
)

// Config holds every option of a collection run. It is filled from defaults,
// then the YAML file, then CLI flags, and passed down explicitly.
type Config struct {
	// Browser is the browser kind ("chrome", "chromium", "edge", "brave").
	Browser string

	// BrowserBin overrides the browser executable. Empty means auto-detect.
	BrowserBin string

	// Headless runs the browser without a window.
	Headless bool

	// NoSandbox disables the Chromium sandbox, needed when running as root
	// inside containers.
	NoSandbox bool

	// WaitTime is the settle interval after the initial navigation.
	WaitTime time.Duration

	// DynamicSettle is the settle interval after consent handling.
	DynamicSettle time.Duration

	// ConsentTimeout bounds the wait for each consent selector.
	ConsentTimeout time.Duration

	// SaveCookies persists each successful target's cookies.
	SaveCookies bool

	// Targets are the raw targets to visit, in order.
	Targets []string

	// DBDir is the directory holding the SQLite database.
	// Defaults to the XDG data directory (~/.local/share/cookiesnap on Linux).
	DBDir string

	// ProxyAddress routes the browser through an existing SOCKS5 proxy ("host:port").
	ProxyAddress string

	// UseTor starts an embedded Tor daemon and routes the browser through it.
	UseTor bool

	// TorStartupTimeout bounds the embedded Tor bootstrap.
	TorStartupTimeout time.Duration

	// Verbose enables debug logging.
	Verbose bool

	// LogJSON selects JSON log output.
	LogJSON bool

	// ConfigFilePath is an explicit configuration file. When empty,
	// .cookiesnap is searched in the current and home directories.
	ConfigFilePath string

	// JSONReport selects the JSON run report. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport selects the Markdown run report.
	MarkdownReport bool

	// ReportFile writes the report to a file instead of stdout.
	ReportFile string
}

// NewConfig returns a Config populated with defaults.
func NewConfig() *Config {
	return &Config{
		Browser:           DefaultBrowser,
		Headless:          true,
		WaitTime:          DefaultWaitTime,
		DynamicSettle:     DefaultDynamicSettle,
		ConsentTimeout:    DefaultConsentTimeout,
		SaveCookies:       true,
		DBDir:             XDGDataDir(),
		TorStartupTimeout: DefaultTorStartupTimeout,
	}
}

// XDGDataDir returns the XDG data directory for cookiesnap.
// On Linux: ~/.local/share/cookiesnap
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for cookiesnap.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks a collection run configuration and returns the first
// problem found as one of the sentinel errors.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}

	if _, err := browser.ParseKind(c.Browser); err != nil {
		return fmt.Errorf("%w: %q", ErrUnsupportedBrowser, c.Browser)
	}

	if c.WaitTime < MinWaitTime {
		return ErrInvalidWaitTime
	}

	if c.DynamicSettle < 0 {
		return ErrInvalidDynamicSettle
	}

	if c.ConsentTimeout <= 0 {
		return ErrInvalidConsentTimeout
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if c.UseTor && c.ProxyAddress != "" {
		return ErrConflictingProxy
	}

	if c.UseTor && c.TorStartupTimeout <= 0 {
		return ErrInvalidTorStartupTimeout
	}

	if c.DBDir == "" && c.SaveCookies {
		return ErrNoDBDir
	}

	return nil
}
