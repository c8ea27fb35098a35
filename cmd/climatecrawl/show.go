package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/climatecrawl/internal/model"
)

// NewShowCmd creates the show command.
func NewShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show stored daily records and a summary",
		Long: `Show prints the stored records of the first selected station together with
counts of missing readings and the warmest and coldest day.

Examples:
  climatecrawl show
  climatecrawl show --from 2023-01-01 --to 2023-01-31
  climatecrawl show --json --limit 0 -o winnipeg.json`,
		Args: cobra.NoArgs,
		RunE: runShowCmd,
	}

	cmd.Flags().String("from", "", "First date to show (YYYY-MM-DD)")
	cmd.Flags().String("to", "", "Last date to show (YYYY-MM-DD, default: today)")
	cmd.Flags().IntP("limit", "n", 31, "Show only the newest n records in tables (0 shows all)")

	return cmd
}

// runShowCmd executes the show command.
func runShowCmd(cmd *cobra.Command, _ []string) error {
	from, err := dateFlag(cmd, "from")
	if err != nil {
		return err
	}
	to, err := dateFlag(cmd, "to")
	if err != nil {
		return err
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return fmt.Errorf("--to %s is before --from %s", model.FormatISODate(to), model.FormatISODate(from))
	}

	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.show(cmd.Context(), from, to, limit)
}

// dateFlag parses an optional YYYY-MM-DD flag; unset yields the zero time.
func dateFlag(cmd *cobra.Command, name string) (time.Time, error) {
	value, err := cmd.Flags().GetString(name)
	if err != nil || value == "" {
		return time.Time{}, err
	}
	d, err := model.ParseISODate(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s: %w", name, err)
	}
	return d, nil
}
