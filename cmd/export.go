// =============================================================================
// Frame to Scene Exporter - Export Command
// =============================================================================
//
// This file defines the 'export' command, which converts every frame CSV
// in a directory to a scene file. It orchestrates the whole run.
//
// COMMAND USAGE:
//   sceneexport export <dir> [flags]
//
// FLAGS:
//   --dry-run   : Parse and generate without writing scene files
//   --watch     : Keep running and export frames as they appear
//   --report    : Write an XLSX run report next to the scene files
//   --settle    : Quiet period before a watched frame counts as complete
//
// EXPORT RUN:
//   1. Load configuration
//   2. Discover frame CSV files in the directory (dotfiles excluded)
//   3. Export each frame concurrently, bounded by max_concurrency
//   4. Print a per-frame line and a run summary
//   5. Write the error log and the optional XLSX report
//   6. With --watch, keep monitoring the directory for new frames
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/gransim/sceneexport/internal/config"
	"github.com/gransim/sceneexport/internal/exporter"
	"github.com/gransim/sceneexport/internal/report"
	"github.com/gransim/sceneexport/internal/watcher"
	"github.com/gransim/sceneexport/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// dryRun parses and generates without writing scene files.
var dryRun bool

// watchMode keeps the exporter running after the initial pass.
var watchMode bool

// withReport writes an XLSX run report for the initial pass.
var withReport bool

// settle is the quiet period before a watched frame counts as complete.
var settle time.Duration

// =============================================================================
// EXPORT COMMAND DEFINITION
// =============================================================================

// exportCmd represents the 'export' command.
var exportCmd = &cobra.Command{
	Use:   "export <dir>",
	Short: "Convert frame CSV files in a directory to scene files",
	Long: `The export command scans a directory for frame CSV files and converts
each one to a scene description XML file with the same base name.

Frames are exported concurrently. Each frame is independent, and unless
continue_on_error is disabled, a malformed frame does not stop the run.

With --watch the exporter keeps running after the initial pass and converts
new frame files as the simulation writes them out.`,

	Args: cobra.ExactArgs(1),

	// RunE is like Run but returns an error, letting Cobra handle the
	// nonzero exit for us.
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExport(args[0])
	},
}

// =============================================================================
// INITIALIZATION
// =============================================================================

// init registers the export command with the root command and sets up flags.
func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().BoolVar(
		&dryRun,
		"dry-run",
		false,
		"Parse and generate without writing scene files",
	)

	exportCmd.Flags().BoolVar(
		&watchMode,
		"watch",
		false,
		"Keep running and export new frames as they appear",
	)

	exportCmd.Flags().BoolVar(
		&withReport,
		"report",
		false,
		"Write an XLSX run report for the initial pass",
	)

	exportCmd.Flags().DurationVar(
		&settle,
		"settle",
		watcher.DefaultSettle,
		"Quiet period before a watched frame counts as complete",
	)
}

// =============================================================================
// MAIN EXPORT FUNCTION
// =============================================================================

// runExport orchestrates an export run over one frame directory.
func runExport(frameDir string) error {
	startTime := time.Now()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := exporter.NewLogger(verbose)

	info, err := os.Stat(frameDir)
	if err != nil {
		return fmt.Errorf("frame directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("not a directory: %s", frameDir)
	}

	frames, err := utils.DiscoverFrames(frameDir)
	if err != nil {
		return err
	}

	if len(frames) == 0 && !watchMode {
		fmt.Println("No frame CSV files found.")
		return nil
	}

	runID := uuid.New().String()
	logger.Debug("Run %s: %d frame(s) in %s", runID, len(frames), frameDir)

	results := exportFrames(frames, cfg, logger)

	var successCount, errorCount int
	var failures []string

	for _, result := range results {
		if result.Success {
			successCount++
			fmt.Printf("  ok  %s -> %s (%d spheres)\n",
				filepath.Base(result.FrameFile), filepath.Base(result.SceneFile), result.Stats.Bodies)
		} else {
			errorCount++
			failures = append(failures, fmt.Sprintf("%s: %v", filepath.Base(result.FrameFile), result.Error))
			fmt.Printf("  ERR %s: %v\n", filepath.Base(result.FrameFile), result.Error)
		}
	}

	elapsed := time.Since(startTime)
	fmt.Println("\n=== Export Complete ===")
	fmt.Printf("Frames:       %d\n", len(frames))
	fmt.Printf("Succeeded:    %d\n", successCount)
	fmt.Printf("Failed:       %d\n", errorCount)
	fmt.Printf("Time elapsed: %s\n", elapsed)

	// Log, report, and error-log paths all resolve against the same
	// directory the scene files go to.
	reportDir := cfg.Output.Dir
	if reportDir == "" {
		reportDir = frameDir
	}

	if errorCount > 0 && !dryRun {
		logPath, logErr := utils.WriteErrorLog(reportDir, runID, failures)
		if logErr != nil {
			logger.Warn("Could not write error log: %v", logErr)
		} else {
			fmt.Printf("Error log:    %s\n", logPath)
		}
	}

	if withReport && !dryRun {
		reportPath := filepath.Join(reportDir, cfg.Report.File)
		if repErr := report.Write(reportPath, runID, results, elapsed); repErr != nil {
			logger.Warn("Could not write run report: %v", repErr)
		} else {
			fmt.Printf("Run report:   %s\n", reportPath)
		}
	}

	if errorCount > 0 && !cfg.Processing.ContinueOnError {
		return fmt.Errorf("%d frame(s) failed", errorCount)
	}

	if watchMode {
		return runWatch(frameDir, cfg, logger)
	}

	return nil
}

// exportFrames runs the per-frame pipelines concurrently, bounded by the
// configured concurrency, and returns the results in completion order.
func exportFrames(frames []string, cfg *config.Config, logger exporter.Logger) []exporter.Result {
	var wg sync.WaitGroup

	// The semaphore bounds how many frames are in flight at once.
	sem := make(chan struct{}, cfg.Processing.MaxConcurrency)
	resultCh := make(chan exporter.Result, len(frames))

	for _, framePath := range frames {
		wg.Add(1)

		go func(framePath string) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			exp := exporter.New(framePath, cfg, exporter.Options{
				DryRun: dryRun,
				Logger: logger,
			})
			resultCh <- exp.Run()
		}(framePath)
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	results := make([]exporter.Result, 0, len(frames))
	for result := range resultCh {
		results = append(results, result)
	}
	return results
}

// runWatch monitors the frame directory and exports frames as they settle,
// until interrupted.
func runWatch(frameDir string, cfg *config.Config, logger exporter.Logger) error {
	w, err := watcher.New(frameDir, settle, func(framePath string) {
		exp := exporter.New(framePath, cfg, exporter.Options{
			DryRun: dryRun,
			Logger: logger,
		})
		result := exp.Run()
		if !result.Success {
			logger.Error("Failed to export %s: %v", filepath.Base(framePath), result.Error)
		}
	}, logger)
	if err != nil {
		return err
	}

	go w.Run()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	w.Stop()
	fmt.Println("\nWatch stopped.")
	return nil
}
