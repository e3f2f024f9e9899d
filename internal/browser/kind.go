package browser

import (
	"errors"
	"strings"
)

// Kind identifies a browser family.
type Kind string

// Browser kinds. Only Chromium-based kinds can be driven over the DevTools
// protocol; KindFirefox is recognised so that it can be rejected clearly.
const (
	KindChrome   Kind = "chrome"
	KindChromium Kind = "chromium"
	KindEdge     Kind = "edge"
	KindBrave    Kind = "brave"
	KindFirefox  Kind = "firefox"
)

// ErrUnsupportedBrowser is returned by ParseKind for kinds without a driver binding.
var ErrUnsupportedBrowser = errors.New("unsupported browser")

// SupportedKinds lists the kinds a Launcher can start.
func SupportedKinds() []Kind {
	return []Kind{KindChrome, KindChromium, KindEdge, KindBrave}
}

// ParseKind parses a browser name case-insensitively.
// "google-chrome" and "msedge" are accepted as aliases.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "chrome", "google-chrome":
		return KindChrome, nil
	case "chromium":
		return KindChromium, nil
	case "edge", "msedge":
		return KindEdge, nil
	case "brave":
		return KindBrave, nil
	default:
		return "", ErrUnsupportedBrowser
	}
}
