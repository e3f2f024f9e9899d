package model

import (
	"fmt"
	"net/url"
	"strings"
)

// schemePrefixes are the schemes a target may already carry.
var schemePrefixes = []string{"http://", "https://"}

// defaultScheme is prepended to targets that have no scheme.
const defaultScheme = "https://"

// NormalizeTarget turns user input into the URL used as the result and
// storage key for a target.
//
// It trims whitespace and prepends "https://" when no http(s) scheme is
// present; the rest of the URL is kept as typed. Hosts ending in .onion must
// be valid v3 onion addresses.
func NormalizeTarget(raw string) (string, error) {
	target := strings.TrimSpace(raw)
	if target == "" {
		return "", ErrEmptyTarget
	}

	if !hasScheme(target) {
		target = defaultScheme + target
	}

	u, err := url.Parse(target)
	if err != nil || u.Hostname() == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidTarget, raw)
	}

	host := strings.ToLower(u.Hostname())
	if strings.HasSuffix(host, OnionSuffix) {
		if err := ValidateOnionHost(host); err != nil {
			return "", fmt.Errorf("%w: %s: %w", ErrInvalidOnionTarget, host, err)
		}
	}

	return target, nil
}

// IsOnionTarget reports whether a normalized target points at a hidden service.
func IsOnionTarget(target string) bool {
	u, err := url.Parse(target)
	if err != nil {
		return false
	}
	return strings.HasSuffix(strings.ToLower(u.Hostname()), OnionSuffix)
}

func hasScheme(target string) bool {
	lower := strings.ToLower(target)
	for _, prefix := range schemePrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}
