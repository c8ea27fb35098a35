package main

import (
	"testing"

	"github.com/spf13/cobra"
)

// TestNewRootCmd tests the root command creation.
func TestNewRootCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "climatecrawl" {
			t.Errorf("expected use 'climatecrawl', got %q", cmd.Use)
		}
	})

	t.Run("has descriptions", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" || cmd.Long == "" {
			t.Error("expected non-empty short and long description")
		}
	})

	t.Run("has version", func(t *testing.T) {
		t.Parallel()
		if cmd.Version == "" {
			t.Error("expected non-empty version")
		}
	})

	t.Run("has persistent flags", func(t *testing.T) {
		t.Parallel()
		tests := []struct {
			name      string
			shorthand string
			defValue  string
		}{
			{name: "verbose", shorthand: "v", defValue: "false"},
			{name: "log-json", shorthand: "", defValue: "false"},
			{name: "config", shorthand: "c", defValue: ""},
			{name: "db-dir", shorthand: "", defValue: ""},
			{name: "station", shorthand: "s", defValue: "[27174]"},
			{name: "json", shorthand: "j", defValue: "false"},
			{name: "markdown", shorthand: "m", defValue: "false"},
			{name: "output", shorthand: "o", defValue: ""},
		}
		for _, tt := range tests {
			flag := cmd.PersistentFlags().Lookup(tt.name)
			if flag == nil {
				t.Errorf("expected %s flag", tt.name)
				continue
			}
			if flag.Shorthand != tt.shorthand {
				t.Errorf("%s: expected shorthand %q, got %q", tt.name, tt.shorthand, flag.Shorthand)
			}
			if flag.DefValue != tt.defValue {
				t.Errorf("%s: expected default %q, got %q", tt.name, tt.defValue, flag.DefValue)
			}
		}
	})

	t.Run("has subcommands", func(t *testing.T) {
		t.Parallel()
		want := []string{"download", "boxplot", "lineplot", "show", "history", "purge", "schedule", "menu", "init", "version"}
		for _, name := range want {
			sub, _, err := cmd.Find([]string{name})
			if err != nil || sub == cmd {
				t.Errorf("expected %s subcommand", name)
			}
		}
	})
}

// TestDownloadFlags tests the flags shared by download and schedule.
func TestDownloadFlags(t *testing.T) {
	t.Parallel()

	for _, cmd := range []*cobra.Command{NewDownloadCmd(), NewScheduleCmd()} {
		for _, name := range []string{"concurrency", "timeout", "delay", "epoch", "empty-months"} {
			if cmd.Flags().Lookup(name) == nil {
				t.Errorf("%s: expected %s flag", cmd.Name(), name)
			}
		}
	}

	schedule := NewScheduleCmd()
	if flag := schedule.Flags().Lookup("cron"); flag == nil || flag.DefValue != "@daily" {
		t.Error("expected cron flag with default @daily")
	}
}

// TestParseIntArg tests positional number parsing.
func TestParseIntArg(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		value   string
		want    int
		wantErr bool
	}{
		{name: "year", value: "2023", want: 2023},
		{name: "negative", value: "-1", want: -1},
		{name: "text", value: "abc", wantErr: true},
		{name: "empty", value: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := parseIntArg("YEAR", tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseIntArg(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseIntArg(%q) = %d, want %d", tt.value, got, tt.want)
			}
		})
	}
}
