package config

import "errors"

// Configuration errors returned by Config.Validate and the loader.
// They are all detected before any browser is launched.
var (
	// ErrNoTarget is returned when neither arguments nor the config file name a target.
	ErrNoTarget = errors.New("no target specified: pass URLs as arguments or list them under targets in the config file")

	// ErrUnsupportedBrowser is returned for browser kinds without a driver binding.
	ErrUnsupportedBrowser = errors.New("unsupported browser: use chrome, chromium, edge or brave")

	// ErrInvalidWaitTime is returned when the settle interval is below one second.
	ErrInvalidWaitTime = errors.New("invalid wait time: must be at least 1 second")

	// ErrInvalidDynamicSettle is returned for a negative post-consent settle interval.
	ErrInvalidDynamicSettle = errors.New("invalid dynamic settle time: must be non-negative")

	// ErrInvalidConsentTimeout is returned when the consent timeout is not positive.
	ErrInvalidConsentTimeout = errors.New("invalid consent timeout: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown are set.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrConflictingProxy is returned when both --proxy and --tor are set.
	ErrConflictingProxy = errors.New("conflicting proxy settings: --proxy and --tor cannot be used together")

	// ErrInvalidTorStartupTimeout is returned when --tor is used with a non-positive timeout.
	ErrInvalidTorStartupTimeout = errors.New("invalid Tor startup timeout: must be positive")

	// ErrNoDBDir is returned when cookies should be saved but no database directory is set.
	ErrNoDBDir = errors.New("no database directory configured")

	// ErrConfigNotFound is returned when the configuration file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")
)
