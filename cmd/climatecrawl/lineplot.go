package main

import (
	"github.com/spf13/cobra"
)

// NewLinePlotCmd creates the lineplot command.
func NewLinePlotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lineplot YEAR MONTH",
		Short: "Show the daily mean temperatures of one month",
		Long: `Lineplot shows the stored daily mean temperature of every day of a month.
Days without a mean temperature are listed as "M".

Examples:
  climatecrawl lineplot 2023 5
  climatecrawl lineplot 2023 5 --markdown`,
		Args: cobra.ExactArgs(2),
		RunE: runLinePlotCmd,
	}
}

// runLinePlotCmd executes the lineplot command.
func runLinePlotCmd(cmd *cobra.Command, args []string) error {
	year, err := parseIntArg("YEAR", args[0])
	if err != nil {
		return err
	}
	month, err := parseIntArg("MONTH", args[1])
	if err != nil {
		return err
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.linePlot(cmd.Context(), year, month)
}
