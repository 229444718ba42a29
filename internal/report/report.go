// =============================================================================
// Frame to Scene Exporter - Run Report Module
// =============================================================================
//
// This module writes the optional XLSX run report. The workbook has two
// sheets:
//
//   Frames  - one row per frame: file names, body count, bounding box,
//             mean speed, status, and export duration
//   Summary - run ID, totals, and elapsed time
//
// The report is the operator-facing record of a batch export; simulation
// runs produce thousands of frames and the spreadsheet is how dropped or
// empty frames get spotted.
//
// =============================================================================

package report

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/gransim/sceneexport/internal/exporter"
)

// Sheet names in the generated workbook.
const (
	framesSheet  = "Frames"
	summarySheet = "Summary"
)

// frameHeader is the header row of the Frames sheet.
var frameHeader = []interface{}{
	"Frame File", "Scene File", "Bodies",
	"Min X", "Min Y", "Min Z", "Max X", "Max Y", "Max Z",
	"Mean Speed", "Status", "Duration (ms)",
}

// Write creates the run report workbook.
//
// PARAMETERS:
//   - path: The workbook path to write.
//   - runID: The run identifier.
//   - results: The per-frame export results, in completion order.
//   - elapsed: The total wall time of the run.
//
// RETURNS:
//   - An error if the workbook cannot be built or saved.
func Write(path, runID string, results []exporter.Result, elapsed time.Duration) error {
	wb := excelize.NewFile()
	defer wb.Close()

	if err := buildFramesSheet(wb, results); err != nil {
		return err
	}
	if err := buildSummarySheet(wb, runID, results, elapsed); err != nil {
		return err
	}

	// Drop the default sheet so the workbook opens on Frames.
	index, err := wb.GetSheetIndex(framesSheet)
	if err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}
	wb.SetActiveSheet(index)
	if err := wb.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}

	if err := wb.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

// buildFramesSheet fills the per-frame sheet.
func buildFramesSheet(wb *excelize.File, results []exporter.Result) error {
	if _, err := wb.NewSheet(framesSheet); err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}

	if err := wb.SetSheetRow(framesSheet, "A1", &frameHeader); err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}

	for i, result := range results {
		row := frameRow(result)
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to build report: %w", err)
		}
		if err := wb.SetSheetRow(framesSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to build report: %w", err)
		}
	}

	return nil
}

// frameRow converts one export result to a sheet row. Unavailable bounds
// and speeds are left as empty cells rather than misleading zeros.
func frameRow(result exporter.Result) []interface{} {
	stats := result.Stats

	status := "ok"
	if !result.Success {
		status = fmt.Sprintf("error: %v", result.Error)
	}

	sceneFile := ""
	if result.SceneFile != "" {
		sceneFile = filepath.Base(result.SceneFile)
	}

	var minX, minY, minZ, maxX, maxY, maxZ interface{}
	if stats.HasBounds {
		minX, minY, minZ = stats.MinX, stats.MinY, stats.MinZ
		maxX, maxY, maxZ = stats.MaxX, stats.MaxY, stats.MaxZ
	}

	var meanSpeed interface{}
	if stats.HasSpeed {
		meanSpeed = stats.MeanSpeed
	}

	return []interface{}{
		filepath.Base(result.FrameFile),
		sceneFile,
		stats.Bodies,
		minX, minY, minZ, maxX, maxY, maxZ,
		meanSpeed,
		status,
		result.Stats.Duration.Milliseconds(),
	}
}

// buildSummarySheet fills the run summary sheet.
func buildSummarySheet(wb *excelize.File, runID string, results []exporter.Result, elapsed time.Duration) error {
	if _, err := wb.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}

	var succeeded, failed, bodies int
	for _, result := range results {
		if result.Success {
			succeeded++
		} else {
			failed++
		}
		bodies += result.Stats.Bodies
	}

	rows := [][]interface{}{
		{"Run ID", runID},
		{"Generated", time.Now().Format(time.RFC3339)},
		{"Frames", len(results)},
		{"Succeeded", succeeded},
		{"Failed", failed},
		{"Total Bodies", bodies},
		{"Elapsed", elapsed.String()},
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("failed to build report: %w", err)
		}
		if err := wb.SetSheetRow(summarySheet, cell, &row); err != nil {
			return fmt.Errorf("failed to build report: %w", err)
		}
	}

	return nil
}
