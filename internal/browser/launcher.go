package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	applog "github.com/nao1215/cookiesnap/internal/log"
)

// ErrBrowserNotFound is returned when no executable for the kind was found
// and none was configured.
var ErrBrowserNotFound = errors.New("browser executable not found")

// windowSize matches a common desktop viewport so that responsive sites
// render their desktop consent banners.
const windowSize = "1920,1080"

// knownPaths are well-known install locations per kind and OS.
var knownPaths = map[Kind]map[string][]string{
	KindEdge: {
		"linux":   {"/usr/bin/microsoft-edge", "/usr/bin/microsoft-edge-stable"},
		"darwin":  {"/Applications/Microsoft Edge.app/Contents/MacOS/Microsoft Edge"},
		"windows": {`C:\Program Files (x86)\Microsoft\Edge\Application\msedge.exe`, `C:\Program Files\Microsoft\Edge\Application\msedge.exe`},
	},
	KindBrave: {
		"linux":   {"/usr/bin/brave-browser", "/usr/bin/brave", "/snap/bin/brave"},
		"darwin":  {"/Applications/Brave Browser.app/Contents/MacOS/Brave Browser"},
		"windows": {`C:\Program Files\BraveSoftware\Brave-Browser\Application\brave.exe`},
	},
	KindChromium: {
		"linux":  {"/usr/bin/chromium", "/usr/bin/chromium-browser", "/snap/bin/chromium"},
		"darwin": {"/Applications/Chromium.app/Contents/MacOS/Chromium"},
	},
}

// Launcher starts browser processes and opens Sessions on them.
type Launcher struct {
	kind      Kind
	bin       string
	headless  bool
	noSandbox bool
	proxy     string
	logger    *slog.Logger
	lookPath  func() (string, bool)

	// profileRoot holds the per-session user data directories.
	// Empty means the OS temp directory.
	profileRoot string
}

// Option configures a Launcher.
type Option func(*Launcher)

// WithHeadless toggles headless mode. Launchers are headless by default.
func WithHeadless(headless bool) Option {
	return func(l *Launcher) {
		l.headless = headless
	}
}

// WithBin sets the browser executable, skipping auto-detection.
func WithBin(path string) Option {
	return func(l *Launcher) {
		l.bin = path
	}
}

// WithProxy routes all browser traffic through proxyURL (e.g. "socks5://127.0.0.1:9050").
func WithProxy(proxyURL string) Option {
	return func(l *Launcher) {
		l.proxy = proxyURL
	}
}

// WithNoSandbox disables the Chromium sandbox.
func WithNoSandbox(noSandbox bool) Option {
	return func(l *Launcher) {
		l.noSandbox = noSandbox
	}
}

// WithLogger sets the logger for launch diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Launcher) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLauncher returns a Launcher for kind.
func NewLauncher(kind Kind, opts ...Option) *Launcher {
	l := &Launcher{
		kind:     kind,
		headless: true,
		logger:   applog.Discard(),
		lookPath: launcher.LookPath,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Kind returns the browser kind the Launcher starts.
func (l *Launcher) Kind() Kind {
	return l.kind
}

// resolveBin picks the executable: explicit path, then known install
// locations, then rod's lookup for Chrome and Chromium.
func (l *Launcher) resolveBin() (string, error) {
	if l.bin != "" {
		return l.bin, nil
	}

	for _, p := range knownPaths[l.kind][runtime.GOOS] {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	if l.kind == KindChrome || l.kind == KindChromium {
		if p, ok := l.lookPath(); ok {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrBrowserNotFound, l.kind)
}

// NewSession launches a fresh browser process with an empty profile and
// opens a blank page on it.
func (l *Launcher) NewSession(ctx context.Context) (Session, error) {
	bin, err := l.resolveBin()
	if err != nil {
		return nil, err
	}

	profile, err := os.MkdirTemp(l.profileRoot, "cookiesnap-profile-")
	if err != nil {
		return nil, fmt.Errorf("failed to create browser profile: %w", err)
	}

	ln := launcher.New().
		Context(ctx).
		UserDataDir(profile).
		Bin(bin).
		Headless(l.headless).
		NoSandbox(l.noSandbox).
		Set("window-size", windowSize)
	if l.proxy != "" {
		ln = ln.Proxy(l.proxy)
	}

	l.logger.Debug("launching browser", "kind", string(l.kind), "bin", bin, "headless", l.headless, "proxy", l.proxy != "")

	controlURL, err := ln.Launch()
	if err != nil {
		// Cleanup waits for the process to exit, which never started.
		ln.Kill()
		if rmErr := os.RemoveAll(profile); rmErr != nil {
			l.logger.Debug("failed to remove browser profile", "dir", profile, "error", rmErr)
		}
		return nil, fmt.Errorf("failed to launch %s: %w", l.kind, err)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		ln.Kill()
		ln.Cleanup()
		return nil, fmt.Errorf("failed to connect to %s: %w", l.kind, err)
	}

	page, err := b.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = b.Close() //nolint:errcheck // best effort
		ln.Kill()
		ln.Cleanup()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	return &rodSession{
		launcher: ln,
		browser:  b,
		page:     page,
		logger:   l.logger,
	}, nil
}
