package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewBoxPlotCmd creates the boxplot command.
func NewBoxPlotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "boxplot FROM_YEAR TO_YEAR",
		Short: "Show the distribution of daily mean temperatures per month",
		Long: `Boxplot groups the stored daily mean temperatures of the years FROM_YEAR to
TO_YEAR (inclusive) by calendar month and shows minimum, quartiles, median
and maximum of every month. Days without a mean temperature are skipped.

With --markdown the report contains a mermaid chart of the quartiles.

Examples:
  climatecrawl boxplot 1990 2020
  climatecrawl boxplot 2023 2023 --markdown -o reports/2023.md`,
		Args: cobra.ExactArgs(2),
		RunE: runBoxPlotCmd,
	}
}

// runBoxPlotCmd executes the boxplot command.
func runBoxPlotCmd(cmd *cobra.Command, args []string) error {
	from, err := parseIntArg("FROM_YEAR", args[0])
	if err != nil {
		return err
	}
	to, err := parseIntArg("TO_YEAR", args[1])
	if err != nil {
		return err
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.boxPlot(cmd.Context(), from, to)
}

// parseIntArg parses a positional integer argument.
func parseIntArg(name, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number, got %q", name, value)
	}
	return n, nil
}
