package main

import (
	"github.com/spf13/cobra"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past downloads",
		Long: `History lists past downloads, newest first: when they ran, how many months
were fetched, how many records were new and why the download stopped.

Without --station the downloads of every station are listed.`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", 20, "Number of downloads to show (0 shows all)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	stationID := 0
	if cmd.Flags().Changed("station") {
		stationID = a.station().ID
	}
	return a.history(cmd.Context(), stationID, limit)
}
