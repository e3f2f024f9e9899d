package model

import (
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
)

// SameSite is the cookie SameSite attribute.
// The zero value means the attribute was not set by the site.
type SameSite string

const (
	// SameSiteUnset means the site did not send a SameSite attribute.
	SameSiteUnset SameSite = ""
	// SameSiteStrict is SameSite=Strict.
	SameSiteStrict SameSite = "Strict"
	// SameSiteLax is SameSite=Lax.
	SameSiteLax SameSite = "Lax"
	// SameSiteNone is SameSite=None.
	SameSiteNone SameSite = "None"
)

// ParseSameSite converts a raw attribute value into a SameSite.
// Matching is case-insensitive; unknown values map to SameSiteUnset.
func ParseSameSite(s string) SameSite {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "strict":
		return SameSiteStrict
	case "lax":
		return SameSiteLax
	case "none", "no_restriction":
		return SameSiteNone
	default:
		return SameSiteUnset
	}
}

// String returns the attribute value, or "unset".
func (s SameSite) String() string {
	if s == SameSiteUnset {
		return "unset"
	}
	return string(s)
}

// Cookie is one session artifact extracted from a browser session.
// Within a site a cookie is identified by (Name, Domain, Path).
type Cookie struct {
	// Name is the cookie name.
	Name string `json:"name"`

	// Value is the raw cookie value. It is never logged in clear text.
	Value string `json:"value"`

	// Domain is the cookie domain as reported by the browser,
	// including a leading dot for domain cookies.
	Domain string `json:"domain"`

	// Path is the cookie path. Defaults to "/" when empty.
	Path string `json:"path"`

	// Secure restricts the cookie to HTTPS.
	Secure bool `json:"secure"`

	// HTTPOnly hides the cookie from JavaScript.
	HTTPOnly bool `json:"httpOnly"` //nolint:tagliatelle // browser wire format

	// SameSite is the SameSite attribute; omitted from JSON when unset.
	SameSite SameSite `json:"sameSite,omitempty"` //nolint:tagliatelle // browser wire format

	// Expiry is the absolute expiry in seconds since the Unix epoch.
	// Nil means a session-lifetime cookie.
	Expiry *int64 `json:"expiry,omitempty"`
}

// Key returns the identity of the cookie within a site.
func (c Cookie) Key() string {
	return c.Name + "\x00" + c.Domain + "\x00" + c.Path
}

// IsSession reports whether the cookie lives only for the browser session.
func (c Cookie) IsSession() bool {
	return c.Expiry == nil
}

// ExpiresAt returns the expiry as a time.Time, or false for session cookies.
func (c Cookie) ExpiresAt() (time.Time, bool) {
	if c.Expiry == nil {
		return time.Time{}, false
	}
	return time.Unix(*c.Expiry, 0).UTC(), true
}

// IsExpired reports whether the cookie expiry is strictly before now.
// Session cookies never expire by this definition.
func (c Cookie) IsExpired(now time.Time) bool {
	t, ok := c.ExpiresAt()
	return ok && t.Before(now)
}

// RegistrableDomain returns the eTLD+1 of the cookie domain
// (e.g. ".accounts.google.com" -> "google.com").
// It falls back to the bare domain when the public suffix list has no answer.
func (c Cookie) RegistrableDomain() string {
	host := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(c.Domain), "."))
	if host == "" {
		return ""
	}
	etld1, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return etld1
}

// IsThirdParty reports whether the cookie belongs to a different registrable
// domain than the target URL it was collected from.
func (c Cookie) IsThirdParty(targetURL string) bool {
	u, err := url.Parse(targetURL)
	if err != nil || u.Hostname() == "" {
		return false
	}
	targetDomain := Cookie{Domain: u.Hostname()}.RegistrableDomain()
	cookieDomain := c.RegistrableDomain()
	if cookieDomain == "" {
		return false
	}
	return cookieDomain != targetDomain
}

// String returns a short, value-free description for logs and errors.
func (c Cookie) String() string {
	return fmt.Sprintf("%s (domain=%s path=%s)", c.Name, c.Domain, c.Path)
}

// ExpiryFromFloat converts a fractional epoch timestamp, as reported by the
// DevTools protocol, into whole seconds. Non-positive, NaN and infinite values
// yield nil, which is how drivers mark session cookies.
func ExpiryFromFloat(f float64) *int64 {
	if f <= 0 || math.IsNaN(f) || math.IsInf(f, 0) || f >= math.MaxInt64 {
		return nil
	}
	sec := int64(f)
	return &sec
}

// Int64Ptr returns a pointer to v. Convenient for building cookies with an expiry.
func Int64Ptr(v int64) *int64 {
	return &v
}

// cookieJSON mirrors Cookie but accepts a fractional expiry on decode.
type cookieJSON struct {
	Name     string       `json:"name"`
	Value    string       `json:"value"`
	Domain   string       `json:"domain"`
	Path     string       `json:"path"`
	Secure   bool         `json:"secure"`
	HTTPOnly bool         `json:"httpOnly"`           //nolint:tagliatelle // browser wire format
	SameSite string       `json:"sameSite,omitempty"` //nolint:tagliatelle // browser wire format
	Expiry   *json.Number `json:"expiry,omitempty"`
}

// UnmarshalJSON decodes the browser wire shape. A fractional expiry is
// truncated to whole seconds; an unparsable expiry is treated as absent.
func (c *Cookie) UnmarshalJSON(data []byte) error {
	var raw cookieJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*c = Cookie{
		Name:     raw.Name,
		Value:    raw.Value,
		Domain:   raw.Domain,
		Path:     raw.Path,
		Secure:   raw.Secure,
		HTTPOnly: raw.HTTPOnly,
		SameSite: ParseSameSite(raw.SameSite),
	}
	if c.Path == "" {
		c.Path = "/"
	}

	if raw.Expiry != nil {
		if sec, err := raw.Expiry.Int64(); err == nil {
			if sec > 0 {
				c.Expiry = &sec
			}
		} else if f, err := raw.Expiry.Float64(); err == nil {
			c.Expiry = ExpiryFromFloat(f)
		}
	}

	return nil
}

// DecodeCookies parses a JSON cookie payload. Both a bare array and an
// object of the form {"cookies": [...]} are accepted.
func DecodeCookies(data []byte) ([]Cookie, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil, ErrEmptyCookiePayload
	}

	if strings.HasPrefix(trimmed, "{") {
		var wrapped struct {
			Cookies []Cookie `json:"cookies"`
		}
		if err := json.Unmarshal([]byte(trimmed), &wrapped); err != nil {
			return nil, fmt.Errorf("failed to parse cookie payload: %w", err)
		}
		return wrapped.Cookies, nil
	}

	var cookies []Cookie
	if err := json.Unmarshal([]byte(trimmed), &cookies); err != nil {
		return nil, fmt.Errorf("failed to parse cookie payload: %w", err)
	}
	return cookies, nil
}

// CountSharedIdentities returns how many cookies repeat the (name, domain,
// path) identity of an earlier cookie in the slice. Browsers report such
// cookies for partitioned storage; they are kept, not merged.
func CountSharedIdentities(cookies []Cookie) int {
	seen := make(map[string]struct{}, len(cookies))
	n := 0
	for _, c := range cookies {
		key := c.Key()
		if _, ok := seen[key]; ok {
			n++
			continue
		}
		seen[key] = struct{}{}
	}
	return n
}
