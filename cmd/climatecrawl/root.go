package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/climatecrawl/internal/config"
)

// NewRootCmd creates the root command for climatecrawl.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "climatecrawl",
		Short: "Download and plot historical daily temperatures",
		Long: `climatecrawl downloads historical daily temperature records (max, min and
mean) of weather stations from the climate data site and stores them in a
local SQLite database.

Downloads are incremental: every run walks the month pages backward from
today and stops at the newest day already stored.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	flags := cmd.PersistentFlags()
	flags.BoolP("verbose", "v", false, "Enable verbose logging")
	flags.Bool("log-json", false, "Write logs to stderr as JSON")
	flags.StringP("config", "c", "",
		"Configuration file path (default: .climatecrawl in current or home directory)")
	flags.String("db-dir", "",
		"Directory of the SQLite database (default: XDG data directory)")
	flags.String("base-url", config.DefaultBaseURL,
		"Daily data page of the climate site")
	flags.IntSliceP("station", "s", []int{27174},
		"Station ID; repeat or separate with commas for several stations")
	flags.BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	flags.BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	flags.StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	// Add subcommands
	cmd.AddCommand(NewDownloadCmd())
	cmd.AddCommand(NewBoxPlotCmd())
	cmd.AddCommand(NewLinePlotCmd())
	cmd.AddCommand(NewShowCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewPurgeCmd())
	cmd.AddCommand(NewScheduleCmd())
	cmd.AddCommand(NewMenuCmd())
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
