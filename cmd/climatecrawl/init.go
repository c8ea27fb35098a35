package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/climatecrawl/internal/config"
)

//go:embed templates/climatecrawl.yaml
var configTemplate embed.FS

// configFileName is the default configuration file name.
const configFileName = config.DefaultConfigFile

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new climatecrawl configuration file",
		Long: `Initialize creates a new .climatecrawl configuration file in the current directory.

The generated file includes:
- The default Winnipeg station with its name and location
- Commented examples for additional stations
- Documentation of the environment variables

Examples:
  # Create .climatecrawl in current directory
  climatecrawl init

  # Create config file at a specific path
  climatecrawl init -o myconfig.yaml

  # Force overwrite existing file
  climatecrawl init -f`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	// Local flags shadow the persistent --output of the root command.
	cmd.Flags().StringP("output", "o", configFileName,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := configTemplate.ReadFile("templates/climatecrawl.yaml")
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created configuration file: %s\n", outputPath)
	fmt.Fprintln(out, "\nEdit this file to configure station settings such as:")
	fmt.Fprintln(out, "  - Station names and locations")
	fmt.Fprintln(out, "  - Request headers and cookies")
	fmt.Fprintln(out, "  - The oldest date to download")

	return nil
}
