package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// menuItem is one entry of the interactive menu.
type menuItem struct {
	label  string
	action func(ctx context.Context, m *menu) error
}

// menu is the interactive front end. Every action reuses the app methods
// behind the regular commands.
type menu struct {
	app    *app
	prompt *prompter
	out    io.Writer
	items  []menuItem
}

var (
	titleColor = color.New(color.FgCyan, color.Bold)
	errorColor = color.New(color.FgRed)
)

// NewMenuCmd creates the menu command.
func NewMenuCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "menu",
		Short: "Interactive menu",
		Long: `Menu offers the main actions in a loop: download the latest data, box plot,
line plot, purge and quit. An action that fails prints its error and the menu
continues.`,
		Args: cobra.NoArgs,
		RunE: runMenuCmd,
	}
}

// runMenuCmd executes the menu command.
func runMenuCmd(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	return newMenu(a, newPrompter(cmd.InOrStdin(), a.out)).run(cmd.Context())
}

// newMenu creates the menu with its fixed entries.
func newMenu(a *app, p *prompter) *menu {
	return &menu{
		app:    a,
		prompt: p,
		out:    a.out,
		items: []menuItem{
			{label: "Download latest data", action: menuDownload},
			{label: "Box plot", action: menuBoxPlot},
			{label: "Line plot", action: menuLinePlot},
			{label: "Purge data", action: menuPurge},
			{label: "Quit", action: nil},
		},
	}
}

// run shows the menu until the user quits or the input ends.
func (m *menu) run(ctx context.Context) error {
	for {
		m.show()

		choice, err := m.prompt.askInt("Select an option: ")
		if errors.Is(err, errNoInput) {
			return nil
		}
		if err != nil {
			return err
		}

		if choice < 1 || choice > len(m.items) {
			errorColor.Fprintf(m.out, "Invalid option %d.\n", choice)
			continue
		}

		item := m.items[choice-1]
		if item.action == nil {
			fmt.Fprintln(m.out, "Bye.")
			return nil
		}

		if err := m.runAction(ctx, item); err != nil {
			if errors.Is(err, errNoInput) {
				return nil
			}
			errorColor.Fprintf(m.out, "Error: %v\n", err)
		}
	}
}

// runAction runs one action. Ctrl+C cancels the action, not the menu.
func (m *menu) runAction(ctx context.Context, item menuItem) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return item.action(ctx, m)
}

// show prints the menu entries.
func (m *menu) show() {
	fmt.Fprintln(m.out)
	titleColor.Fprintf(m.out, "climatecrawl - %s\n", m.app.station())
	for i, item := range m.items {
		fmt.Fprintf(m.out, "  %d) %s\n", i+1, item.label)
	}
}

func menuDownload(ctx context.Context, m *menu) error {
	_, err := m.app.download(ctx)
	return err
}

func menuBoxPlot(ctx context.Context, m *menu) error {
	from, err := m.prompt.askInt("From year: ")
	if err != nil {
		return err
	}
	to, err := m.prompt.askInt("To year: ")
	if err != nil {
		return err
	}
	return m.app.boxPlot(ctx, from, to)
}

func menuLinePlot(ctx context.Context, m *menu) error {
	year, err := m.prompt.askInt("Year: ")
	if err != nil {
		return err
	}
	month, err := m.prompt.askInt("Month (1-12): ")
	if err != nil {
		return err
	}
	return m.app.linePlot(ctx, year, month)
}

func menuPurge(ctx context.Context, m *menu) error {
	ok, err := m.prompt.confirm("Delete all stored weather records?")
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(m.out, "Purge cancelled.")
		return nil
	}
	n, err := m.app.purge(ctx, true)
	if err != nil {
		return err
	}
	fmt.Fprintf(m.out, "Deleted %d records.\n", n)
	return nil
}
