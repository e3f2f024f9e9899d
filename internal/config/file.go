package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// TargetEntry is a named target in the configuration file.
type TargetEntry struct {
	// Name is a short alias usable on the command line instead of the URL.
	Name string `yaml:"name,omitempty"`

	// URL is the page to visit. A missing scheme defaults to https.
	URL string `yaml:"url"`

	// Description is free text shown in listings.
	Description string `yaml:"description,omitempty"`
}

// File is the structure of the .cookiesnap configuration file.
// Pointer fields distinguish "not set" from the zero value so that only the
// settings present in the file override the defaults.
type File struct {
	Browser              string        `yaml:"browser,omitempty"`
	BrowserBin           string        `yaml:"browserBin,omitempty"`
	WaitTimeSeconds      *int          `yaml:"waitTimeSeconds,omitempty"`
	DynamicSettleSeconds *int          `yaml:"dynamicSettleSeconds,omitempty"`
	SaveCookies          *bool         `yaml:"saveCookies,omitempty"`
	Headless             *bool         `yaml:"headless,omitempty"`
	DBDir                string        `yaml:"dbDir,omitempty"`
	Proxy                string        `yaml:"proxy,omitempty"`
	Targets              []TargetEntry `yaml:"targets,omitempty"`
}

func (f *File) validate() error {
	if f.WaitTimeSeconds != nil && *f.WaitTimeSeconds < 1 {
		return ErrInvalidWaitTime
	}
	if f.DynamicSettleSeconds != nil && *f.DynamicSettleSeconds < 0 {
		return ErrInvalidDynamicSettle
	}

	names := make(map[string]struct{}, len(f.Targets))
	for i, t := range f.Targets {
		if strings.TrimSpace(t.URL) == "" {
			return fmt.Errorf("target #%d has no url", i+1)
		}
		if t.Name == "" {
			continue
		}
		if _, dup := names[t.Name]; dup {
			return errors.New("duplicate target name: " + t.Name)
		}
		names[t.Name] = struct{}{}
	}
	return nil
}

// Apply copies the settings present in the file onto cfg.
// CLI flags are applied afterwards and win.
func (f *File) Apply(cfg *Config) {
	if f.Browser != "" {
		cfg.Browser = f.Browser
	}
	if f.BrowserBin != "" {
		cfg.BrowserBin = f.BrowserBin
	}
	if f.WaitTimeSeconds != nil {
		cfg.WaitTime = time.Duration(*f.WaitTimeSeconds) * time.Second
	}
	if f.DynamicSettleSeconds != nil {
		cfg.DynamicSettle = time.Duration(*f.DynamicSettleSeconds) * time.Second
	}
	if f.SaveCookies != nil {
		cfg.SaveCookies = *f.SaveCookies
	}
	if f.Headless != nil {
		cfg.Headless = *f.Headless
	}
	if f.DBDir != "" {
		cfg.DBDir = f.DBDir
	}
	if f.Proxy != "" {
		cfg.ProxyAddress = f.Proxy
	}
	if len(f.Targets) > 0 {
		cfg.Targets = f.TargetURLs()
	}
}

// TargetURLs returns the URLs of all configured targets in file order.
func (f *File) TargetURLs() []string {
	urls := make([]string, 0, len(f.Targets))
	for _, t := range f.Targets {
		urls = append(urls, t.URL)
	}
	return urls
}

// Resolve maps a command line argument to a URL. Arguments that match a
// target name are replaced by its URL; anything else is returned unchanged.
func (f *File) Resolve(arg string) string {
	if f == nil {
		return arg
	}
	for _, t := range f.Targets {
		if t.Name != "" && t.Name == arg {
			return t.URL
		}
	}
	return arg
}
