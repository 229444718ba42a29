// =============================================================================
// Frame to Scene Exporter - Main Entry Point
// =============================================================================
//
// This is the main entry point for the frame-to-scene exporter CLI. It
// initializes the Cobra CLI framework and delegates command execution to
// the cmd package.
//
// USAGE:
//   sceneexport export <dir>    - Convert all frame CSV files in a directory
//   sceneexport validate <dir>  - Check config and frame files without writing
//   sceneexport version         - Display the application version
//
// ARCHITECTURE:
//   This application follows a modular design where:
//   - cmd/           : Contains all CLI command definitions (Cobra)
//   - internal/      : Contains core business logic (not for external import)
//   - pkg/           : Contains shared utilities
//
// =============================================================================

package main

import (
	"github.com/gransim/sceneexport/cmd"
)

// main is the entry point of the application.
// It simply calls the Execute function from the cmd package, which
// initializes and runs the Cobra CLI.
func main() {
	cmd.Execute()
}
