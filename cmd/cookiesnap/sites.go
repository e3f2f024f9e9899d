package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/cookiesnap/internal/config"
	"github.com/nao1215/cookiesnap/internal/database"
	"github.com/nao1215/cookiesnap/internal/model"
	"github.com/nao1215/cookiesnap/internal/report"
)

// NewSitesCmd creates the sites command.
func NewSitesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sites",
		Short: "List sites stored in the cookie database",
		Long: `List every site in the cookie database with its cookie count,
the number of expired and third-party cookies, and when it was last saved.
Cookie values are never printed.

Examples:
  cookiesnap sites
  cookiesnap sites --cookies
  cookiesnap sites --json`,
		Args: cobra.NoArgs,
		RunE: runSitesCmd,
	}

	cmd.Flags().Bool("cookies", false, "List the cookies of each site")
	cmd.Flags().BoolP("json", "j", false, "Output JSON (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false, "Output Markdown (mutually exclusive with --json)")

	return cmd
}

// runSitesCmd executes the sites command.
func runSitesCmd(cmd *cobra.Command, _ []string) error {
	showCookies, _ := cmd.Flags().GetBool("cookies")
	jsonOut, _ := cmd.Flags().GetBool("json")
	markdownOut, _ := cmd.Flags().GetBool("markdown")
	if jsonOut && markdownOut {
		return config.ErrConflictingReportFormats
	}

	sites := []model.Site{}
	db, err := openStore(cmd, false)
	switch {
	case errors.Is(err, database.ErrDatabaseNotFound):
		// Nothing collected yet; print an empty listing.
	case err != nil:
		return err
	default:
		defer db.Close()
		sites, err = db.ListSites(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list sites: %w", err)
		}
	}

	var w report.SitesWriter
	out := cmd.OutOrStdout()
	switch {
	case jsonOut:
		w = report.NewJSONWriter(out, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	case markdownOut:
		w = report.NewMarkdownWriter(out, report.WithMarkdownCookies(showCookies))
	default:
		w = report.NewSimpleWriter(out, report.WithShowCookies(showCookies))
	}

	_, err = w.WriteSites(sites)
	return err
}
