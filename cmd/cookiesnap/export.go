package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/cookiesnap/internal/database"
	"github.com/nao1215/cookiesnap/internal/model"
)

// NewExportCmd creates the export command.
func NewExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <url>",
		Short: "Export the stored cookies of a site as JSON",
		Long: `Export writes the cookie set stored for a site as a JSON array in the
browser cookie shape (name, value, domain, path, secure, httpOnly, sameSite,
expiry). The output can be read back with the import command.

The output contains cookie values. Files written with -o are created with
mode 0600.

Examples:
  cookiesnap export example.com
  cookiesnap export https://example.com -o cookies.json`,
		Args: cobra.ExactArgs(1),
		RunE: runExportCmd,
	}

	cmd.Flags().StringP("output", "o", "", "Write JSON to the specified file path")

	return cmd
}

// runExportCmd executes the export command.
func runExportCmd(cmd *cobra.Command, args []string) error {
	target, err := resolveURL(cmd, args[0])
	if err != nil {
		return err
	}

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

	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		return writeCookiesJSON(cmd.OutOrStdout(), cookies)
	}

	if dir := filepath.Dir(output); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	if err := writeCookiesJSON(f, cookies); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d cookie(s) to %s\n", len(cookies), output)
	return nil
}

// writeCookiesJSON writes cookies as an indented JSON array.
func writeCookiesJSON(w io.Writer, cookies []model.Cookie) error {
	if cookies == nil {
		cookies = []model.Cookie{}
	}
	data, err := json.MarshalIndent(cookies, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cookies: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write cookies: %w", err)
	}
	return nil
}
