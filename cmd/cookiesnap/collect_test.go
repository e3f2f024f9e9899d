package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/cookiesnap/internal/config"
	applog "github.com/nao1215/cookiesnap/internal/log"
	"github.com/nao1215/cookiesnap/internal/model"
	"github.com/nao1215/cookiesnap/internal/orchestrator"
	"github.com/nao1215/cookiesnap/internal/report"
	"github.com/nao1215/cookiesnap/internal/tor"
)

// parseCollect returns the collect command with args parsed, as cobra
// would before calling RunE.
func parseCollect(t *testing.T, args ...string) (*cobra.Command, []string) {
	t.Helper()

	root := NewRootCmd()
	cmd, rest, err := root.Find(append([]string{"collect"}, args...))
	if err != nil {
		t.Fatalf("failed to find collect command: %v", err)
	}
	if err := cmd.ParseFlags(rest); err != nil {
		t.Fatalf("failed to parse flags: %v", err)
	}
	return cmd, cmd.Flags().Args()
}

// writeConfig writes a config file into a temporary directory.
func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "cookiesnap.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

// TestNewCollectCmd tests the collect command flags.
func TestNewCollectCmd(t *testing.T) {
	t.Parallel()

	cmd := NewCollectCmd()

	if cmd.Use != "collect [targets...]" {
		t.Errorf("expected use 'collect [targets...]', got %q", cmd.Use)
	}

	shorthands := map[string]string{
		"browser": "b",
		"wait":    "w",
		"config":  "c",
		"output":  "o",
	}
	for name, short := range shorthands {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			t.Errorf("expected %s flag", name)
			continue
		}
		if flag.Shorthand != short {
			t.Errorf("expected %s shorthand %q, got %q", name, short, flag.Shorthand)
		}
	}

	for _, name := range []string{"no-save", "headful", "no-sandbox", "proxy", "tor", "tor-timeout", "json", "markdown", "browser-bin"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("expected %s flag", name)
		}
	}

	if def := cmd.Flags().Lookup("wait").DefValue; def != "5" {
		t.Errorf("expected wait default 5, got %s", def)
	}
}

// TestBuildCollectConfig tests how flags, arguments and the config file
// combine into a run configuration.
func TestBuildCollectConfig(t *testing.T) {
	t.Parallel()

	t.Run("arguments become targets", func(t *testing.T) {
		t.Parallel()
		path := writeConfig(t, "browser: brave\n")
		cmd, args := parseCollect(t, "-c", path, "example.com", "https://example.org")

		cfg, err := buildCollectConfig(cmd, args)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(cfg.Targets) != 2 || cfg.Targets[0] != "example.com" || cfg.Targets[1] != "https://example.org" {
			t.Errorf("unexpected targets: %v", cfg.Targets)
		}
		if !cfg.SaveCookies || !cfg.Headless {
			t.Error("expected saving and headless by default")
		}
		if cfg.WaitTime != config.DefaultWaitTime {
			t.Errorf("expected default wait time, got %v", cfg.WaitTime)
		}
	})

	t.Run("config file supplies settings and targets", func(t *testing.T) {
		t.Parallel()
		path := writeConfig(t, `browser: edge
waitTimeSeconds: 9
saveCookies: false
headless: false
targets:
  - name: shop
    url: shop.example.com
  - url: https://news.example.org
`)
		cmd, args := parseCollect(t, "--config", path)

		cfg, err := buildCollectConfig(cmd, args)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Browser != "edge" {
			t.Errorf("expected browser edge, got %q", cfg.Browser)
		}
		if cfg.WaitTime != 9*time.Second {
			t.Errorf("expected 9s wait, got %v", cfg.WaitTime)
		}
		if cfg.SaveCookies || cfg.Headless {
			t.Error("expected file to disable saving and headless")
		}
		if len(cfg.Targets) != 2 || cfg.Targets[0] != "shop.example.com" {
			t.Errorf("unexpected targets: %v", cfg.Targets)
		}
	})

	t.Run("flags override the config file", func(t *testing.T) {
		t.Parallel()
		path := writeConfig(t, "browser: edge\nwaitTimeSeconds: 9\n")
		cmd, args := parseCollect(t, "-c", path, "-b", "chromium", "-w", "2", "--no-save", "--headful", "example.com")

		cfg, err := buildCollectConfig(cmd, args)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Browser != "chromium" {
			t.Errorf("expected browser chromium, got %q", cfg.Browser)
		}
		if cfg.WaitTime != 2*time.Second {
			t.Errorf("expected 2s wait, got %v", cfg.WaitTime)
		}
		if cfg.SaveCookies {
			t.Error("expected --no-save to disable saving")
		}
		if cfg.Headless {
			t.Error("expected --headful to disable headless")
		}
	})

	t.Run("unset flags keep file values", func(t *testing.T) {
		t.Parallel()
		path := writeConfig(t, "browser: brave\nproxy: 127.0.0.1:9150\ndbDir: /var/lib/cookies\n")
		cmd, args := parseCollect(t, "-c", path, "example.com")

		cfg, err := buildCollectConfig(cmd, args)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Browser != "brave" {
			t.Errorf("expected browser brave, got %q", cfg.Browser)
		}
		if cfg.ProxyAddress != "127.0.0.1:9150" {
			t.Errorf("expected proxy from file, got %q", cfg.ProxyAddress)
		}
		if cfg.DBDir != "/var/lib/cookies" {
			t.Errorf("expected db dir from file, got %q", cfg.DBDir)
		}
	})

	t.Run("db-dir flag overrides file", func(t *testing.T) {
		t.Parallel()
		path := writeConfig(t, "dbDir: /var/lib/cookies\n")
		cmd, args := parseCollect(t, "-c", path, "--db-dir", "/tmp/other", "example.com")

		cfg, err := buildCollectConfig(cmd, args)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.DBDir != "/tmp/other" {
			t.Errorf("expected /tmp/other, got %q", cfg.DBDir)
		}
	})

	t.Run("target names resolve to urls", func(t *testing.T) {
		t.Parallel()
		path := writeConfig(t, "targets:\n  - name: shop\n    url: https://shop.example.com\n")
		cmd, args := parseCollect(t, "-c", path, "shop", "other.example")

		cfg, err := buildCollectConfig(cmd, args)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Targets[0] != "https://shop.example.com" || cfg.Targets[1] != "other.example" {
			t.Errorf("unexpected targets: %v", cfg.Targets)
		}
	})

	t.Run("missing explicit config file is an error", func(t *testing.T) {
		t.Parallel()
		cmd, args := parseCollect(t, "-c", filepath.Join(t.TempDir(), "missing.yaml"), "example.com")

		_, err := buildCollectConfig(cmd, args)
		if !errors.Is(err, config.ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("invalid config file is an error", func(t *testing.T) {
		t.Parallel()
		path := writeConfig(t, "waitTimeSeconds: 0\n")
		cmd, args := parseCollect(t, "-c", path, "example.com")

		_, err := buildCollectConfig(cmd, args)
		if !errors.Is(err, config.ErrInvalidWaitTime) {
			t.Errorf("expected ErrInvalidWaitTime, got %v", err)
		}
	})
}

// TestRunCollectCmdValidation tests that configuration errors are reported
// before any browser is launched.
func TestRunCollectCmdValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
		want error
	}{
		{
			name: "wait below one second",
			args: []string{"-w", "0", "example.com"},
			want: config.ErrInvalidWaitTime,
		},
		{
			name: "unsupported browser",
			args: []string{"-b", "firefox", "example.com"},
			want: config.ErrUnsupportedBrowser,
		},
		{
			name: "json and markdown together",
			args: []string{"--json", "--markdown", "example.com"},
			want: config.ErrConflictingReportFormats,
		},
		{
			name: "proxy and tor together",
			args: []string{"--proxy", "127.0.0.1:9050", "--tor", "example.com"},
			want: config.ErrConflictingProxy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := writeConfig(t, "saveCookies: false\n")
			root := NewRootCmd()
			root.SetOut(&bytes.Buffer{})
			root.SetErr(&bytes.Buffer{})
			root.SetArgs(append([]string{"collect", "-c", path}, tt.args...))

			err := root.Execute()
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if !strings.HasPrefix(err.Error(), "configuration error:") {
				t.Errorf("expected configuration error prefix, got %q", err.Error())
			}
		})
	}
}

// TestSetupRouting tests proxy verification before the browser starts.
func TestSetupRouting(t *testing.T) {
	t.Parallel()

	t.Run("direct connection needs no proxy", func(t *testing.T) {
		t.Parallel()
		cfg := config.NewConfig()

		proxyURL, stop, err := setupRouting(context.Background(), cfg, applog.Discard(), &bytes.Buffer{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer stop()
		if proxyURL != "" {
			t.Errorf("expected no proxy, got %q", proxyURL)
		}
	})

	t.Run("invalid proxy address", func(t *testing.T) {
		t.Parallel()
		cfg := config.NewConfig()
		cfg.ProxyAddress = "not-an-address"

		_, _, err := setupRouting(context.Background(), cfg, applog.Discard(), &bytes.Buffer{})
		if err == nil || !strings.HasPrefix(err.Error(), "configuration error:") {
			t.Errorf("expected configuration error, got %v", err)
		}
	})

	t.Run("unreachable proxy fails the check", func(t *testing.T) {
		t.Parallel()
		cfg := config.NewConfig()
		cfg.ProxyAddress = "127.0.0.1:1"

		_, _, err := setupRouting(context.Background(), cfg, applog.Discard(), &bytes.Buffer{})
		if !errors.Is(err, tor.ErrProxyCannotConnect) {
			t.Fatalf("expected ErrProxyCannotConnect, got %v", err)
		}
	})
}

// TestCollectRoutingFailure tests that a proxy that cannot be reached fails
// the run as a setup error while every target still appears in the report.
func TestCollectRoutingFailure(t *testing.T) {
	t.Parallel()

	t.Run("every target is reported as failed", func(t *testing.T) {
		t.Parallel()
		path := writeConfig(t, "saveCookies: false\n")

		out, err := runCLI(t, "", "collect", "-c", path, "--proxy", "127.0.0.1:1", "example.com", "https://example.org")
		var setupErr *orchestrator.SetupError
		if !errors.As(err, &setupErr) {
			t.Fatalf("expected SetupError, got %v", err)
		}
		if !errors.Is(err, tor.ErrProxyCannotConnect) {
			t.Errorf("expected the proxy error to be wrapped, got %v", err)
		}
		for _, target := range []string{"[-] https://example.com", "[-] https://example.org", "proxy check failed"} {
			if !strings.Contains(out, target) {
				t.Errorf("expected report to contain %q, got %q", target, out)
			}
		}
	})

	t.Run("invalid proxy address is a configuration error", func(t *testing.T) {
		t.Parallel()
		path := writeConfig(t, "saveCookies: false\n")

		out, err := runCLI(t, "", "collect", "-c", path, "--proxy", "not-an-address", "example.com")
		if !errors.Is(err, tor.ErrInvalidProxyAddress) {
			t.Fatalf("expected ErrInvalidProxyAddress, got %v", err)
		}
		if !strings.HasPrefix(err.Error(), "configuration error:") {
			t.Errorf("expected configuration error prefix, got %q", err.Error())
		}
		if out != "" {
			t.Errorf("expected no report, got %q", out)
		}
	})
}

// TestProgressPrinter tests the progress line format.
func TestProgressPrinter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	p := progressPrinter(&buf)
	p.OnProgress(5, "Starting https://example.com")
	p.OnProgress(100, orchestrator.CompletedMessage)

	want := "[  5%] Starting https://example.com\n[100%] Collection completed\n"
	if buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}
}

// TestOutputRunReport tests report selection and file output.
func TestOutputRunReport(t *testing.T) {
	t.Parallel()

	newResult := func() *model.RunResult {
		r := model.NewRunResult("run-1")
		r.Record(model.NewSuccessResult("https://example.com", []model.Cookie{
			{Name: "sid", Value: "secret", Domain: "example.com", Path: "/"},
		}))
		r.State = model.RunStateCompleted
		return r
	}

	t.Run("text report to stdout", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		if err := outputRunReport(&buf, config.NewConfig(), newResult()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "COOKIESNAP COLLECTION REPORT") {
			t.Errorf("expected text report, got %q", buf.String())
		}
		if strings.Contains(buf.String(), "secret") {
			t.Error("text report must not contain cookie values")
		}
	})

	t.Run("json report to file", func(t *testing.T) {
		t.Parallel()
		cfg := config.NewConfig()
		cfg.JSONReport = true
		cfg.ReportFile = filepath.Join(t.TempDir(), "reports", "run.json")

		var stdout bytes.Buffer
		if err := outputRunReport(&stdout, cfg, newResult()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if stdout.Len() != 0 {
			t.Error("expected nothing on stdout")
		}

		data, err := os.ReadFile(cfg.ReportFile)
		if err != nil {
			t.Fatalf("failed to read report: %v", err)
		}
		if !strings.Contains(string(data), `"run_id": "run-1"`) {
			t.Errorf("expected JSON report, got %s", data)
		}

		info, err := os.Stat(cfg.ReportFile)
		if err != nil {
			t.Fatalf("failed to stat report: %v", err)
		}
		if runtime.GOOS != "windows" && info.Mode().Perm() != 0600 {
			t.Errorf("expected permissions 0600, got %o", info.Mode().Perm())
		}
	})

	t.Run("writer selection", func(t *testing.T) {
		t.Parallel()
		cfg := config.NewConfig()
		if _, ok := runWriter(&bytes.Buffer{}, cfg).(*report.SimpleWriter); !ok {
			t.Error("expected SimpleWriter by default")
		}
		cfg.MarkdownReport = true
		if _, ok := runWriter(&bytes.Buffer{}, cfg).(*report.MarkdownWriter); !ok {
			t.Error("expected MarkdownWriter")
		}
		cfg.MarkdownReport = false
		cfg.JSONReport = true
		if _, ok := runWriter(&bytes.Buffer{}, cfg).(*report.JSONWriter); !ok {
			t.Error("expected JSONWriter")
		}
	})
}
