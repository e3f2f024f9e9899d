package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/cookiesnap/internal/model"
)

// NewImportCmd creates the import command.
func NewImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <url> <file>",
		Short: "Store cookies for a site from a JSON file",
		Long: `Import reads cookies in the browser cookie shape and stores them as the
cookie set of the given site, replacing any cookies stored before.
The file may hold a JSON array or an object with a "cookies" array.
Use "-" to read from standard input.

Examples:
  cookiesnap import example.com cookies.json
  cookiesnap export example.com | cookiesnap import example.org -`,
		Args: cobra.ExactArgs(2),
		RunE: runImportCmd,
	}

	return cmd
}

// runImportCmd executes the import command.
func runImportCmd(cmd *cobra.Command, args []string) error {
	target, err := resolveURL(cmd, args[0])
	if err != nil {
		return err
	}

	data, err := readInput(cmd, args[1])
	if err != nil {
		return err
	}

	cookies, err := model.DecodeCookies(data)
	if err != nil {
		return err
	}

	db, err := openStore(cmd, true)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Save(cmd.Context(), target, cookies); err != nil {
		return err
	}

	newLogger(cmd).Info("cookies imported", "target", target, "cookie_count", len(cookies))
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Imported %d cookie(s) for %s\n", len(cookies), target)
	if n := model.CountSharedIdentities(cookies); n > 0 {
		fmt.Fprintf(out, "%d cookie(s) share a name, domain and path with an earlier cookie; all were stored\n", n)
	}
	return nil
}

// readInput reads a file, or standard input when path is "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("failed to read standard input: %w", err)
		}
		return data, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // path is given by the user
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}
