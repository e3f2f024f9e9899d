package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/cookiesnap/internal/browser"
	"github.com/nao1215/cookiesnap/internal/collector"
	"github.com/nao1215/cookiesnap/internal/config"
	"github.com/nao1215/cookiesnap/internal/consent"
	"github.com/nao1215/cookiesnap/internal/database"
	"github.com/nao1215/cookiesnap/internal/model"
	"github.com/nao1215/cookiesnap/internal/orchestrator"
	"github.com/nao1215/cookiesnap/internal/report"
	"github.com/nao1215/cookiesnap/internal/tor"
)

// errAllTargetsFailed is returned when a run collected nothing.
var errAllTargetsFailed = errors.New("no cookies collected: all targets failed")

// NewCollectCmd creates the collect command.
func NewCollectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collect [targets...]",
		Short: "Visit websites and collect the cookies they set",
		Long: `Collect opens one browser session and visits every target in order.
On each page it waits for scripts to run, tries to accept a cookie consent
banner, waits again, and reads the cookie jar. A target that fails does not
stop the run. Cookies of successful targets are saved to the database
unless --no-save is given.

Targets without a scheme are visited over https. Targets may also be names
from the targets list of the configuration file.

Examples:
  # Collect cookies from two sites
  cookiesnap collect example.com https://example.org

  # Use the targets from .cookiesnap, waiting 10 seconds per page
  cookiesnap collect -w 10

  # Collect through a local SOCKS5 proxy and print a JSON report
  cookiesnap collect --proxy 127.0.0.1:9050 --json example.com

  # Collect from an onion service through an embedded Tor daemon
  cookiesnap collect --tor <56-character-address>.onion`,
		Args: cobra.ArbitraryArgs,
		RunE: runCollectCmd,
	}

	cmd.Flags().StringP("browser", "b", config.DefaultBrowser,
		"Browser to drive (chrome, chromium, edge, brave)")
	cmd.Flags().String("browser-bin", "",
		"Path to the browser binary (default: search the usual install locations)")
	cmd.Flags().IntP("wait", "w", int(config.DefaultWaitTime/time.Second),
		"Seconds to wait after each page load (at least 1)")
	cmd.Flags().Bool("no-save", false,
		"Do not store collected cookies in the database")
	cmd.Flags().Bool("headful", false,
		"Show the browser window")
	cmd.Flags().Bool("no-sandbox", false,
		"Disable the browser sandbox (needed when running as root in containers)")

	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .cookiesnap in current or home directory)")

	cmd.Flags().String("proxy", "",
		"Route the browser through a SOCKS5 proxy at host:port")
	cmd.Flags().Bool("tor", false,
		"Start an embedded Tor daemon and route the browser through it")
	cmd.Flags().Duration("tor-timeout", config.DefaultTorStartupTimeout,
		"Timeout for embedded Tor startup")

	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	return cmd
}

// runCollectCmd executes the collect command.
func runCollectCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildCollectConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := newLogger(cmd)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return runCollect(ctx, cmd, cfg, logger)
}

// buildCollectConfig creates a Config from the config file and flags.
// Flags override file values; positional arguments replace file targets.
func buildCollectConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	cfg.ConfigFilePath, err = flags.GetString("config")
	if err != nil {
		return nil, err
	}

	var file *config.File
	if path := config.FindConfigFile(cfg.ConfigFilePath); path != "" {
		file, err = config.LoadConfigFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
		file.Apply(cfg)
	} else if cfg.ConfigFilePath != "" {
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	if flags.Changed("browser") {
		if cfg.Browser, err = flags.GetString("browser"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("browser-bin") {
		if cfg.BrowserBin, err = flags.GetString("browser-bin"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("wait") {
		seconds, err := flags.GetInt("wait")
		if err != nil {
			return nil, err
		}
		cfg.WaitTime = time.Duration(seconds) * time.Second
	}
	if noSave, _ := flags.GetBool("no-save"); noSave {
		cfg.SaveCookies = false
	}
	if headful, _ := flags.GetBool("headful"); headful {
		cfg.Headless = false
	}
	if cfg.NoSandbox, err = flags.GetBool("no-sandbox"); err != nil {
		return nil, err
	}
	if flags.Changed("proxy") {
		if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
			return nil, err
		}
	}
	if cfg.UseTor, err = flags.GetBool("tor"); err != nil {
		return nil, err
	}
	if cfg.TorStartupTimeout, err = flags.GetDuration("tor-timeout"); err != nil {
		return nil, err
	}
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if flags.Changed("db-dir") {
		cfg.DBDir = dbDir(cmd)
	}
	cfg.Verbose = getBoolFlag(cmd, "verbose")
	cfg.LogJSON = getBoolFlag(cmd, "log-json")

	if len(args) > 0 {
		cfg.Targets = make([]string, 0, len(args))
		for _, arg := range args {
			cfg.Targets = append(cfg.Targets, file.Resolve(arg))
		}
	}

	return cfg, nil
}

// runCollect wires the browser, routing and store, then runs the
// orchestrator and writes the report.
func runCollect(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) error {
	errOut := cmd.ErrOrStderr()

	kind, err := browser.ParseKind(cfg.Browser)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if cfg.ProxyAddress != "" {
		if _, err := tor.NewClient(cfg.ProxyAddress, config.DefaultProxyCheckTimeout); err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}
	}

	factory := &routedLauncher{
		cfg:    cfg,
		kind:   kind,
		logger: logger,
		errOut: errOut,
	}
	defer factory.release()

	c := collector.New(
		collector.WithLogger(logger),
		collector.WithDynamicSettle(cfg.DynamicSettle),
		collector.WithDismisser(consent.New(
			consent.WithTimeout(cfg.ConsentTimeout),
			consent.WithLogger(logger),
		)),
	)

	opts := []orchestrator.Option{
		orchestrator.WithLogger(logger),
		orchestrator.WithCollector(c.Collect),
		orchestrator.WithBrowserName(string(kind)),
	}
	if cfg.SaveCookies {
		db, err := database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open cookie database: %w", err)
		}
		defer db.Close()
		logger.Info("database opened", "path", db.Path())
		opts = append(opts, orchestrator.WithPersister(db))
	}

	o := orchestrator.New(factory, opts...)
	result, runErr := o.Run(ctx, cfg.Targets, orchestrator.RunConfig{
		WaitTime:    cfg.WaitTime,
		SaveCookies: cfg.SaveCookies,
	}, progressPrinter(errOut))

	if result != nil {
		if err := outputRunReport(cmd.OutOrStdout(), cfg, result); err != nil {
			logger.Error("report failed", "error", err)
		}
	}

	if runErr != nil {
		return runErr
	}
	if result.SuccessCount() == 0 && len(result.Targets) > 0 {
		return errAllTargetsFailed
	}
	return nil
}

// progressPrinter prints overall progress lines to w.
func progressPrinter(w io.Writer) orchestrator.ProgressListener {
	return orchestrator.ProgressFunc(func(percent float64, message string) {
		fmt.Fprintf(w, "[%3.0f%%] %s\n", percent, message)
	})
}

// routedLauncher is the session factory of a collect run. It sets up proxy
// or Tor routing before launching the browser, so a routing failure is a
// session setup failure of the run.
type routedLauncher struct {
	cfg    *config.Config
	kind   browser.Kind
	logger *slog.Logger
	errOut io.Writer
	stop   func()
}

// NewSession prepares routing and launches the browser through it.
func (r *routedLauncher) NewSession(ctx context.Context) (browser.Session, error) {
	proxyURL, stop, err := setupRouting(ctx, r.cfg, r.logger, r.errOut)
	if err != nil {
		return nil, err
	}
	r.stop = stop

	launcher := browser.NewLauncher(r.kind,
		browser.WithHeadless(r.cfg.Headless),
		browser.WithBin(r.cfg.BrowserBin),
		browser.WithProxy(proxyURL),
		browser.WithNoSandbox(r.cfg.NoSandbox),
		browser.WithLogger(r.logger),
	)
	return launcher.NewSession(ctx)
}

// release stops whatever routing NewSession started.
func (r *routedLauncher) release() {
	if r.stop != nil {
		r.stop()
		r.stop = nil
	}
}

// setupRouting verifies the configured proxy or starts embedded Tor. It
// returns the proxy URL for the browser ("" for a direct connection) and a
// function that releases what was started.
func setupRouting(ctx context.Context, cfg *config.Config, logger *slog.Logger, errOut io.Writer) (string, func(), error) {
	noop := func() {}

	switch {
	case cfg.ProxyAddress != "":
		client, err := tor.NewClient(cfg.ProxyAddress, config.DefaultProxyCheckTimeout)
		if err != nil {
			return "", noop, fmt.Errorf("configuration error: %w", err)
		}
		if status := client.CheckConnection(ctx); status != tor.ProxyStatusOK {
			return "", noop, fmt.Errorf("proxy check failed at %s: %w", cfg.ProxyAddress, status.Error())
		}
		logger.Info("proxy connection verified", "address", cfg.ProxyAddress)
		probeFirstTarget(ctx, client, cfg.Targets, logger, errOut)
		return client.ProxyURL(), noop, nil

	case cfg.UseTor:
		client, embedded, err := startEmbeddedTor(ctx, cfg, logger, errOut)
		if err != nil {
			return "", noop, err
		}
		stop := func() {
			logger.Info("stopping embedded Tor daemon...")
			if err := embedded.Stop(); err != nil {
				logger.Error("failed to stop embedded Tor", "error", err)
			}
		}
		probeFirstTarget(ctx, client, cfg.Targets, logger, errOut)
		return client.ProxyURL(), stop, nil

	default:
		return "", noop, nil
	}
}

// probeFirstTarget checks that the first valid target is reachable through
// the proxy. A failure is only a warning; the run reports per-target errors.
func probeFirstTarget(ctx context.Context, client *tor.Client, targets []string, logger *slog.Logger, errOut io.Writer) {
	for _, raw := range targets {
		target, err := model.NormalizeTarget(raw)
		if err != nil {
			continue
		}
		if err := client.Probe(ctx, target); err != nil {
			logger.Warn("target not reachable through proxy", "target", target, "error", err)
			fmt.Fprintf(errOut, "Warning: %s is not reachable through the proxy: %v\n", target, err)
		}
		return
	}
}

// startEmbeddedTor starts an embedded Tor daemon using tornago and verifies
// its SOCKS port.
func startEmbeddedTor(ctx context.Context, cfg *config.Config, logger *slog.Logger, errOut io.Writer) (*tor.Client, *tor.EmbeddedTor, error) {
	fmt.Fprintln(errOut, "Starting embedded Tor daemon...")
	fmt.Fprintf(errOut, "This may take 1-3 minutes while Tor bootstraps and connects to the network.\n\n")

	embeddedTor := tor.NewEmbeddedTor(
		tor.WithStartupTimeout(cfg.TorStartupTimeout),
	)

	if err := embeddedTor.Start(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to start embedded Tor: %w", err)
	}

	logger.Info("embedded Tor daemon started",
		"socksAddr", embeddedTor.SocksAddr(),
		"controlAddr", embeddedTor.ControlAddr(),
	)
	fmt.Fprintf(errOut, "Embedded Tor daemon started. SOCKS proxy: %s\n\n", embeddedTor.SocksAddr())

	client, err := embeddedTor.NewClient(config.DefaultProxyCheckTimeout)
	if err != nil {
		_ = embeddedTor.Stop() //nolint:errcheck // best effort cleanup
		return nil, nil, fmt.Errorf("failed to create Tor client: %w", err)
	}

	if status := client.CheckConnection(ctx); status != tor.ProxyStatusOK {
		_ = embeddedTor.Stop() //nolint:errcheck // best effort cleanup
		return nil, nil, fmt.Errorf("embedded Tor proxy check failed: %w", status.Error())
	}

	return client, embeddedTor, nil
}

// outputRunReport writes the run report in the requested format to the
// report file, or to stdout.
func outputRunReport(stdout io.Writer, cfg *config.Config, result *model.RunResult) error {
	output := stdout
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		// Reports may contain cookie values.
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	}

	_, err := runWriter(output, cfg).WriteRun(result)
	return err
}

// runWriter picks the report writer for the configured format.
func runWriter(w io.Writer, cfg *config.Config) report.RunWriter {
	switch {
	case cfg.JSONReport:
		return report.NewJSONWriter(w, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(w)
	default:
		return report.NewSimpleWriter(w, report.WithVerbose(cfg.Verbose))
	}
}
