// =============================================================================
// Frame to Scene Exporter - Validate Command
// =============================================================================
//
// This file defines the 'validate' command, which checks the configuration
// and probes the frame files in a directory without writing any scene
// output. Useful before kicking off an export of a large simulation run.
//
// COMMAND USAGE:
//   sceneexport validate <dir>
//
// =============================================================================

package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gransim/sceneexport/internal/config"
	"github.com/gransim/sceneexport/internal/frame"
	"github.com/gransim/sceneexport/pkg/utils"
)

// validateCmd represents the 'validate' command.
var validateCmd = &cobra.Command{
	Use:   "validate <dir>",
	Short: "Check configuration and frame files without writing scene output",
	Long: `The validate command loads the configuration, then streams through every
frame CSV in the directory checking that each data row carries at least the
three position fields. Nothing is written.`,

	Args: cobra.ExactArgs(1),

	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate(args[0])
	},
}

// init registers the validate command with the root command.
func init() {
	rootCmd.AddCommand(validateCmd)
}

// runValidate probes every frame file in the directory.
func runValidate(frameDir string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	frames, err := utils.DiscoverFrames(frameDir)
	if err != nil {
		return err
	}

	if len(frames) == 0 {
		fmt.Println("No frame CSV files found.")
		return nil
	}

	var badFrames int
	for _, framePath := range frames {
		bodies, err := probeFrame(framePath, cfg.CSV)
		if err != nil {
			badFrames++
			fmt.Printf("  ERR %s: %v\n", filepath.Base(framePath), err)
			continue
		}
		fmt.Printf("  ok  %s: %d bodies\n", filepath.Base(framePath), bodies)
	}

	fmt.Printf("\n%d frame(s), %d invalid\n", len(frames), badFrames)

	if badFrames > 0 {
		return fmt.Errorf("%d invalid frame(s)", badFrames)
	}
	return nil
}

// probeFrame streams through one frame file and counts its bodies.
// Streaming keeps validation cheap even for frames with millions of rows.
func probeFrame(framePath string, settings config.CSVSettings) (int, error) {
	p, err := frame.NewStreamingParser(framePath, settings)
	if err != nil {
		return 0, err
	}
	defer p.Close()

	bodies := 0
	for p.Next() {
		bodies++
	}
	if err := p.Err(); err != nil {
		return bodies, err
	}
	return bodies, nil
}
