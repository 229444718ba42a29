// =============================================================================
// Frame to Scene Exporter - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands (like 'export', 'validate') are
// attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (sceneexport)
//   ├── exportCmd (sceneexport export)
//   ├── validateCmd (sceneexport validate)
//   └── versionCmd (sceneexport version)
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gransim/sceneexport/internal/config"
)

// =============================================================================
// GLOBAL FLAGS
// =============================================================================

// cfgFile holds the path to the configuration file.
// This can be overridden using the --config flag.
var cfgFile string

// verbose enables verbose logging when set to true.
var verbose bool

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "sceneexport",
	Short: "Frame to Scene Exporter - Convert simulation frame CSVs to renderer scene files",
	Long: `Frame to Scene Exporter converts per-frame particle-position CSV files
from a granular dynamics simulation into static scene description XML files
consumable by a physically-based renderer.

Each frame CSV (one row per simulated body) becomes one scene file with a
fixed camera and point light followed by one sphere per body, positioned
using the body's coordinates copied verbatim from the CSV.

Example Usage:
  sceneexport export frames/               # Convert every frame in frames/
  sceneexport export frames/ --watch       # Keep converting as frames arrive
  sceneexport export frames/ --report      # Also write an XLSX run report
  sceneexport validate frames/             # Check frames without writing`,

	Run: func(cmd *cobra.Command, args []string) {
		// If no subcommand is provided, print the help message.
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

// init sets up the persistent flags shared by all subcommands.
func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the configuration file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}

// loadConfig loads the exporter configuration. A --config value the user
// set explicitly must exist; the implicit default config.yaml may be
// absent, in which case the built-in defaults apply and the exporter runs
// bare, the way the original render setup did.
func loadConfig() (*config.Config, error) {
	if rootCmd.PersistentFlags().Changed("config") {
		return config.Load(cfgFile)
	}
	return config.LoadOrDefault(cfgFile)
}
