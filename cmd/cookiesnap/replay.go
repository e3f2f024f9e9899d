package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/cookiesnap/internal/browser"
	"github.com/nao1215/cookiesnap/internal/collector"
	"github.com/nao1215/cookiesnap/internal/config"
	"github.com/nao1215/cookiesnap/internal/database"
	"github.com/nao1215/cookiesnap/internal/tor"
)

// NewReplayCmd creates the replay command.
func NewReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <url>",
		Short: "Open a site in a fresh browser with its stored cookies",
		Long: `Replay starts a new browser session, loads the cookies stored for the site,
and reloads the page so the site sees them. The browser window stays open
until Enter is pressed or the command is interrupted.

Examples:
  cookiesnap replay example.com
  cookiesnap replay -b brave https://example.com`,
		Args: cobra.ExactArgs(1),
		RunE: runReplayCmd,
	}

	cmd.Flags().StringP("browser", "b", config.DefaultBrowser,
		"Browser to drive (chrome, chromium, edge, brave)")
	cmd.Flags().String("browser-bin", "", "Path to the browser binary")
	cmd.Flags().Bool("headless", false, "Run the browser without a window")
	cmd.Flags().Bool("no-sandbox", false, "Disable the browser sandbox")
	cmd.Flags().String("proxy", "", "Route the browser through a SOCKS5 proxy at host:port")

	return cmd
}

// runReplayCmd executes the replay command.
func runReplayCmd(cmd *cobra.Command, args []string) error {
	target, err := resolveURL(cmd, args[0])
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	browserName, _ := flags.GetString("browser")
	kind, err := browser.ParseKind(browserName)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	bin, _ := flags.GetString("browser-bin")
	headless, _ := flags.GetBool("headless")
	noSandbox, _ := flags.GetBool("no-sandbox")
	proxy, _ := flags.GetString("proxy")

	db, err := openStore(cmd, false)
	if err != nil {
		return err
	}
	defer db.Close()

	cookies, err := db.Load(cmd.Context(), target)
	if err != nil {
		if errors.Is(err, database.ErrSiteNotFound) {
			return err
		}
		return fmt.Errorf("failed to load cookies: %w", err)
	}

	logger := newLogger(cmd)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	proxyURL := ""
	if proxy != "" {
		client, err := tor.NewClient(proxy, config.DefaultProxyCheckTimeout)
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}
		proxyURL = client.ProxyURL()
	}
	launcher := browser.NewLauncher(kind,
		browser.WithHeadless(headless),
		browser.WithBin(bin),
		browser.WithProxy(proxyURL),
		browser.WithNoSandbox(noSandbox),
		browser.WithLogger(logger),
	)

	session, err := launcher.NewSession(ctx)
	if err != nil {
		return fmt.Errorf("failed to set up browser session: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			logger.Warn("failed to close browser session", "error", err)
		}
	}()

	res, err := collector.New(collector.WithLogger(logger)).Replay(ctx, session, target, cookies)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Replayed %d cookie(s) into %s", res.Added, target)
	if res.Failed > 0 {
		fmt.Fprintf(out, " (%d rejected by the browser)", res.Failed)
	}
	fmt.Fprintln(out)

	if headless {
		return nil
	}

	fmt.Fprintln(out, "Press Enter to close the browser.")
	waitForEnter(ctx, cmd)
	return nil
}

// waitForEnter blocks until a line is read from stdin or ctx is done.
func waitForEnter(ctx context.Context, cmd *cobra.Command) {
	done := make(chan struct{})
	go func() {
		_, _ = bufio.NewReader(cmd.InOrStdin()).ReadString('\n') //nolint:errcheck // any input or EOF ends the wait
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
	}
}
