// =============================================================================
// Frame to Scene Exporter - Export Pipeline
// =============================================================================
//
// This module contains the core export logic. It orchestrates the pipeline
// for a single frame, from CSV parsing to the scene file on disk.
//
// EXPORT PIPELINE:
//   1. Parse the frame CSV file
//   2. Compute frame statistics (body count, bounds, mean speed)
//   3. Generate the scene XML document
//   4. Write the scene file (same base name, .xml extension)
//   5. Optionally archive the processed frame CSV
//
// CONCURRENCY:
//   Each frame is processed in its own goroutine by the export command.
//   An Exporter touches only its own frame and the shared read-only
//   configuration, so any number of them may run concurrently.
//
// =============================================================================

package exporter

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gransim/sceneexport/internal/config"
	"github.com/gransim/sceneexport/internal/frame"
	"github.com/gransim/sceneexport/internal/scene"
	"github.com/gransim/sceneexport/pkg/utils"
)

// =============================================================================
// RESULT STRUCTURES
// =============================================================================

// Result represents the outcome of exporting a single frame.
type Result struct {
	// FrameFile is the path to the frame CSV that was processed.
	FrameFile string

	// SceneFile is the path to the generated scene file.
	// Empty if the export failed or ran dry.
	SceneFile string

	// Success indicates whether the export succeeded.
	Success bool

	// Error contains the failure, nil on success.
	Error error

	// Stats contains per-frame statistics.
	Stats ExportStats
}

// ExportStats contains statistics about one exported frame. Bounds and
// mean speed are best-effort: coordinates are kept verbatim for the scene
// file and only parsed here for reporting, so a frame with non-numeric
// positions simply has no bounds.
type ExportStats struct {
	// Bodies is the number of body rows in the frame.
	Bodies int

	// MinX..MaxZ is the bounding box of the parseable positions.
	// Only meaningful when HasBounds is true.
	MinX, MinY, MinZ float64
	MaxX, MaxY, MaxZ float64
	HasBounds        bool

	// MeanSpeed is the mean velocity magnitude over bodies that carried
	// one. Only meaningful when HasSpeed is true.
	MeanSpeed float64
	HasSpeed  bool

	// Duration is the time taken to export the frame.
	Duration time.Duration
}

// =============================================================================
// EXPORTER STRUCTURE
// =============================================================================

// Exporter handles the export of a single frame CSV to a scene file.
type Exporter struct {
	framePath string
	cfg       *config.Config
	logger    Logger
	dryRun    bool
}

// Options modifies how an Exporter runs.
type Options struct {
	// DryRun parses and generates but writes nothing.
	DryRun bool

	// Logger receives pipeline log output. Defaults to the stderr logger.
	Logger Logger
}

// New creates an Exporter for one frame file.
//
// PARAMETERS:
//   - framePath: The path to the frame CSV file.
//   - cfg: The exporter configuration.
//   - opts: Run options.
func New(framePath string, cfg *config.Config, opts Options) *Exporter {
	logger := opts.Logger
	if logger == nil {
		logger = NewLogger(false)
	}
	return &Exporter{
		framePath: framePath,
		cfg:       cfg,
		logger:    logger,
		dryRun:    opts.DryRun,
	}
}

// =============================================================================
// MAIN PIPELINE
// =============================================================================

// Run executes the export pipeline for the frame.
//
// RETURNS:
//   - A Result struct containing the outcome.
func (e *Exporter) Run() Result {
	startTime := time.Now()
	result := Result{
		FrameFile: e.framePath,
	}

	e.logger.Debug("Parsing frame: %s", e.framePath)

	f, err := frame.Parse(e.framePath, e.cfg.CSV)
	if err != nil {
		result.Error = fmt.Errorf("failed to parse frame: %w", err)
		return result
	}

	result.Stats = computeStats(f)
	e.logger.Debug("Parsed %d bodies from %s", f.BodyCount(), filepath.Base(e.framePath))

	doc, err := scene.Generate(f, e.cfg.Scene)
	if err != nil {
		result.Error = fmt.Errorf("failed to generate scene: %w", err)
		return result
	}

	if e.dryRun {
		e.logger.Info("Dry run: would write %s (%d spheres)",
			utils.ScenePath(e.framePath, e.cfg.Output.Dir), f.BodyCount())
		result.Success = true
		result.Stats.Duration = time.Since(startTime)
		return result
	}

	scenePath, err := e.writeScene(doc)
	if err != nil {
		result.Error = err
		return result
	}
	result.SceneFile = scenePath
	e.logger.Info("Wrote %s (%d spheres)", scenePath, f.BodyCount())

	if e.cfg.Output.ArchiveDir != "" {
		if _, err := utils.ArchiveFile(e.framePath, e.cfg.Output.ArchiveDir); err != nil {
			// Archival failure does not invalidate the scene file.
			e.logger.Warn("Failed to archive %s: %v", e.framePath, err)
		}
	}

	result.Success = true
	result.Stats.Duration = time.Since(startTime)
	return result
}

// writeScene writes the scene document to its output path.
func (e *Exporter) writeScene(doc []byte) (string, error) {
	if err := utils.EnsureDir(e.cfg.Output.Dir); err != nil {
		return "", err
	}

	scenePath := utils.ScenePath(e.framePath, e.cfg.Output.Dir)

	if !e.cfg.Output.Overwrite {
		if _, err := os.Stat(scenePath); err == nil {
			return "", fmt.Errorf("scene file already exists: %s", scenePath)
		}
	}

	if err := os.WriteFile(scenePath, doc, 0o644); err != nil {
		return "", fmt.Errorf("failed to write scene file: %w", err)
	}
	return scenePath, nil
}

// =============================================================================
// STATISTICS
// =============================================================================

// computeStats derives the reporting statistics for a frame.
func computeStats(f *frame.Frame) ExportStats {
	stats := ExportStats{Bodies: f.BodyCount()}

	var speedSum float64
	var speedCount int

	for _, body := range f.Bodies {
		x, errX := strconv.ParseFloat(strings.TrimSpace(body.X), 64)
		y, errY := strconv.ParseFloat(strings.TrimSpace(body.Y), 64)
		z, errZ := strconv.ParseFloat(strings.TrimSpace(body.Z), 64)
		if errX == nil && errY == nil && errZ == nil {
			if !stats.HasBounds {
				stats.MinX, stats.MaxX = x, x
				stats.MinY, stats.MaxY = y, y
				stats.MinZ, stats.MaxZ = z, z
				stats.HasBounds = true
			} else {
				stats.MinX = min(stats.MinX, x)
				stats.MaxX = max(stats.MaxX, x)
				stats.MinY = min(stats.MinY, y)
				stats.MaxY = max(stats.MaxY, y)
				stats.MinZ = min(stats.MinZ, z)
				stats.MaxZ = max(stats.MaxZ, z)
			}
		}

		if body.HasSpeed {
			speedSum += body.Speed
			speedCount++
		}
	}

	if speedCount > 0 {
		stats.MeanSpeed = speedSum / float64(speedCount)
		stats.HasSpeed = true
	}

	return stats
}
