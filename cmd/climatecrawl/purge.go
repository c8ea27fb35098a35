package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewPurgeCmd creates the purge command.
func NewPurgeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete stored weather records",
		Long: `Purge deletes stored weather records. Without --station every station is
purged; with --station only the given stations are. The download history is
kept.

The next download of a purged station starts again from the epoch.

Examples:
  # Delete everything after a confirmation prompt
  climatecrawl purge

  # Delete one station without asking
  climatecrawl purge -s 3698 --yes`,
		Args: cobra.NoArgs,
		RunE: runPurgeCmd,
	}

	cmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")

	return cmd
}

// runPurgeCmd executes the purge command.
func runPurgeCmd(cmd *cobra.Command, _ []string) error {
	yes, err := cmd.Flags().GetBool("yes")
	if err != nil {
		return err
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	all := !cmd.Flags().Changed("station")
	if !yes {
		ok, err := newPrompter(cmd.InOrStdin(), a.out).confirm(purgeQuestion(a, all))
		if err != nil {
			return err
		}
		if !ok {
			return errAborted
		}
	}

	n, err := a.purge(cmd.Context(), all)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Deleted %d records.\n", n)
	return nil
}

// purgeQuestion describes what a purge is about to delete.
func purgeQuestion(a *app, all bool) string {
	if all {
		return "Delete all stored weather records?"
	}
	names := make([]string, 0, len(a.cfg.StationIDs))
	for _, st := range a.stations() {
		names = append(names, st.String())
	}
	return "Delete the stored weather records of " + strings.Join(names, ", ") + "?"
}
