package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/cookiesnap/internal/config"
	"github.com/nao1215/cookiesnap/internal/database"
	applog "github.com/nao1215/cookiesnap/internal/log"
	"github.com/nao1215/cookiesnap/internal/model"
)

// NewRootCmd creates the root command for cookiesnap.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cookiesnap",
		Short: "Collect, store and replay website cookies",
		Long: `cookiesnap visits websites in a real browser, dismisses cookie consent
banners, and records the cookies each site sets. Cookies are stored per site
in a local SQLite database so they can be listed, exported, imported, pruned,
or replayed into a new browser session.

Collection can be routed through a SOCKS5 proxy or an embedded Tor daemon,
which also allows collecting from .onion sites.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON")
	cmd.PersistentFlags().String("db-dir", "", "Cookie database directory (default: $XDG_DATA_HOME/cookiesnap)")

	cmd.AddCommand(NewCollectCmd())
	cmd.AddCommand(NewSitesCmd())
	cmd.AddCommand(NewExportCmd())
	cmd.AddCommand(NewImportCmd())
	cmd.AddCommand(NewReplayCmd())
	cmd.AddCommand(NewPruneCmd())
	cmd.AddCommand(NewRemoveCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// getBoolFlag reads a bool flag from the command or the root's persistent flags.
func getBoolFlag(cmd *cobra.Command, name string) bool {
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		v, err = cmd.Root().PersistentFlags().GetBool(name)
		if err != nil {
			return false
		}
	}
	return v
}

// newLogger builds the logger for a command from --verbose and --log-json.
// Logs go to stderr so reports on stdout stay machine readable.
func newLogger(cmd *cobra.Command) *slog.Logger {
	return applog.New(cmd.ErrOrStderr(), getBoolFlag(cmd, "verbose"), getBoolFlag(cmd, "log-json"))
}

// dbDir returns --db-dir, or the XDG data directory.
func dbDir(cmd *cobra.Command) string {
	dir, err := cmd.Flags().GetString("db-dir")
	if err != nil || dir == "" {
		return config.XDGDataDir()
	}
	return dir
}

// openStore opens the cookie database. With create false a missing database
// yields database.ErrDatabaseNotFound.
func openStore(cmd *cobra.Command, create bool) (*database.CookieDB, error) {
	opts := database.DefaultOptions()
	opts.CreateIfNotExists = create
	db, err := database.Open(dbDir(cmd), opts)
	if err != nil {
		if errors.Is(err, database.ErrDatabaseNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to open cookie database: %w", err)
	}
	return db, nil
}

// resolveTarget maps a target name from the config file to its URL.
// Arguments that are not names are returned unchanged.
func resolveTarget(cmd *cobra.Command, arg string) string {
	path := ""
	if f := cmd.Flags().Lookup("config"); f != nil {
		path = f.Value.String()
	}
	found := config.FindConfigFile(path)
	if found == "" {
		return arg
	}
	file, err := config.LoadConfigFile(found)
	if err != nil {
		return arg
	}
	return file.Resolve(arg)
}

// resolveURL resolves a target name and normalizes the result to the URL
// sites are stored under.
func resolveURL(cmd *cobra.Command, arg string) (string, error) {
	return model.NormalizeTarget(resolveTarget(cmd, arg))
}
