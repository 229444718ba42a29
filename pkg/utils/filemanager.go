// =============================================================================
// Frame to Scene Exporter - File Manager Utility
// =============================================================================
//
// This module provides file management utilities for the exporter:
//   - Frame file discovery and filtering
//   - Scene file naming
//   - Frame archival (moving processed files)
//   - Error log generation
//   - Directory management
//
// DISCOVERY RULES:
//   - Only regular files directly inside the frame directory are considered
//   - Hidden dotfiles are always excluded
//   - Only .csv files are eligible; in particular the .xml scene files a
//     previous export left next to the frames are never picked up again
//
// =============================================================================

package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// =============================================================================
// FRAME DISCOVERY
// =============================================================================

// DiscoverFrames lists the frame CSV files in a directory, sorted by name.
// Frame files are named after the timestep, so name order is time order.
//
// PARAMETERS:
//   - dir: The path to the frame directory.
//
// RETURNS:
//   - A sorted slice of absolute-ish paths (dir joined with the name).
//   - An error if the directory cannot be read.
func DiscoverFrames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read frame directory: %w", err)
	}

	var frames []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if IsHidden(name) {
			continue
		}
		if !strings.EqualFold(filepath.Ext(name), ".csv") {
			continue
		}
		frames = append(frames, filepath.Join(dir, name))
	}

	sort.Strings(frames)
	return frames, nil
}

// IsHidden reports whether a file name is a hidden dotfile.
func IsHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// SceneFileName returns the scene file name for a frame file: the same
// base name with the extension replaced by .xml.
func SceneFileName(framePath string) string {
	base := filepath.Base(framePath)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".xml"
}

// ScenePath returns the output path for a frame's scene file. With an
// empty output directory the scene is written next to the frame, the
// historical behavior.
func ScenePath(framePath, outputDir string) string {
	if outputDir == "" {
		outputDir = filepath.Dir(framePath)
	}
	return filepath.Join(outputDir, SceneFileName(framePath))
}

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDir creates a directory (and parents) if it does not exist.
func EnsureDir(dir string) error {
	if dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// =============================================================================
// ARCHIVAL
// =============================================================================

// ArchiveFile moves a processed frame file into the archive directory.
//
// PARAMETERS:
//   - src: The path to the processed frame file.
//   - archiveDir: The archive directory; created if absent.
//
// RETURNS:
//   - The path the file was moved to.
//   - An error if the file cannot be moved.
//
// A plain rename is attempted first; when the archive lives on another
// filesystem the rename fails and the file is copied then removed.
func ArchiveFile(src, archiveDir string) (string, error) {
	if err := EnsureDir(archiveDir); err != nil {
		return "", err
	}

	dst := filepath.Join(archiveDir, filepath.Base(src))
	if err := os.Rename(src, dst); err == nil {
		return dst, nil
	}

	if err := copyFile(src, dst); err != nil {
		return "", fmt.Errorf("failed to archive %s: %w", src, err)
	}
	if err := os.Remove(src); err != nil {
		return "", fmt.Errorf("failed to remove %s after archiving: %w", src, err)
	}
	return dst, nil
}

// copyFile copies src to dst, preserving nothing but the bytes.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}

// =============================================================================
// ERROR LOG
// =============================================================================

// WriteErrorLog writes the per-frame failure messages of a run to a log
// file in the given directory.
//
// PARAMETERS:
//   - dir: The directory to write the log into; created if absent.
//   - runID: The run identifier, part of the log file name.
//   - messages: One message per failed frame.
//
// RETURNS:
//   - The path to the log file.
//   - An error if the log cannot be written.
func WriteErrorLog(dir, runID string, messages []string) (string, error) {
	if err := EnsureDir(dir); err != nil {
		return "", err
	}

	logPath := filepath.Join(dir, fmt.Sprintf("export_errors_%s.log", runID))

	var b strings.Builder
	fmt.Fprintf(&b, "Export run %s at %s\n", runID, time.Now().Format(time.RFC3339))
	fmt.Fprintf(&b, "%d frame(s) failed:\n\n", len(messages))
	for _, msg := range messages {
		b.WriteString(msg)
		b.WriteByte('\n')
	}

	if err := os.WriteFile(logPath, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("failed to write error log: %w", err)
	}
	return logPath, nil
}
