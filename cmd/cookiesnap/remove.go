package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/cookiesnap/internal/database"
)

// NewRemoveCmd creates the remove command.
func NewRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <url>",
		Short: "Delete a site and its cookies from the database",
		Args:  cobra.ExactArgs(1),
		RunE:  runRemoveCmd,
	}
}

// runRemoveCmd executes the remove command.
func runRemoveCmd(cmd *cobra.Command, args []string) error {
	target, err := resolveURL(cmd, args[0])
	if err != nil {
		return err
	}

	db, err := openStore(cmd, false)
	if err != nil {
		return err
	}
	defer db.Close()

	removed, err := db.RemoveSite(cmd.Context(), target)
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("%w: %s", database.ErrSiteNotFound, target)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", target)
	return nil
}
