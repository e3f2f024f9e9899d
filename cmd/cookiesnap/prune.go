package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/cookiesnap/internal/database"
)

// errNothingToPrune is returned when prune is called without a mode.
var errNothingToPrune = errors.New("nothing to prune: use --expired and/or --keep <url>")

// NewPruneCmd creates the prune command.
func NewPruneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete expired cookies or all sites but one",
		Long: `Prune cleans up the cookie database.

--expired deletes every cookie whose expiry is in the past. Session cookies
and the sites themselves are kept.

--keep deletes every site except the given one, together with their cookies.
When the kept site is not stored, every site is deleted.

Examples:
  cookiesnap prune --expired
  cookiesnap prune --keep example.com`,
		Args: cobra.NoArgs,
		RunE: runPruneCmd,
	}

	cmd.Flags().Bool("expired", false, "Delete expired cookies")
	cmd.Flags().String("keep", "", "Delete every site except this URL")

	return cmd
}

// runPruneCmd executes the prune command.
func runPruneCmd(cmd *cobra.Command, _ []string) error {
	expired, _ := cmd.Flags().GetBool("expired")
	keep, _ := cmd.Flags().GetString("keep")
	if !expired && keep == "" {
		return errNothingToPrune
	}

	var target string
	if keep != "" {
		var err error
		if target, err = resolveURL(cmd, keep); err != nil {
			return err
		}
	}

	db, err := openStore(cmd, false)
	if err != nil {
		return err
	}
	defer db.Close()

	out := cmd.OutOrStdout()
	if target != "" {
		if _, err := db.GetSite(cmd.Context(), target); errors.Is(err, database.ErrSiteNotFound) {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s is not stored; every site will be deleted\n", target)
		}
		n, err := db.RetainOnly(cmd.Context(), target)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Removed %d site(s), kept %s\n", n, target)
	}

	if expired {
		n, err := db.PurgeExpired(cmd.Context(), time.Now())
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Deleted %d expired cookie(s)\n", n)
	}

	return nil
}
