package exporter

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gransim/sceneexport/internal/config"
)

const frameHeader = "x,y,z,vx,vy,vz,absv,nTouched\n"

func writeFrameFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunWritesSceneNextToFrame(t *testing.T) {
	dir := t.TempDir()
	framePath := writeFrameFile(t, dir, "T0001.csv",
		frameHeader+
			"1.5,2.5,3.5,0,0,0,0,0\n"+
			"-4,-5,-6,0,0,0,0,0\n")

	exp := New(framePath, config.Default(), Options{})
	result := exp.Run()

	require.NoError(t, result.Error)
	assert.True(t, result.Success)
	assert.Equal(t, filepath.Join(dir, "T0001.xml"), result.SceneFile)
	assert.Equal(t, 2, result.Stats.Bodies)

	data, err := os.ReadFile(result.SceneFile)
	require.NoError(t, err)

	out := string(data)
	assert.Equal(t, 2, strings.Count(out, `<shape type="sphere">`))
	assert.Contains(t, out, `<translate x="1.5" y="2.5" z="3.5"/>`)
	assert.Contains(t, out, `<translate x="-4" y="-5" z="-6"/>`)
}

func TestRunSphereCountMatchesRowCount(t *testing.T) {
	dir := t.TempDir()

	var b strings.Builder
	b.WriteString(frameHeader)
	for i := 0; i < 25; i++ {
		b.WriteString("1,2,3,0,0,0,0,0\n")
	}
	framePath := writeFrameFile(t, dir, "T0002.csv", b.String())

	exp := New(framePath, config.Default(), Options{})
	result := exp.Run()

	require.NoError(t, result.Error)
	data, err := os.ReadFile(result.SceneFile)
	require.NoError(t, err)
	assert.Equal(t, 25, strings.Count(string(data), `<shape type="sphere">`))
}

func TestRunOutputDir(t *testing.T) {
	dir := t.TempDir()
	framePath := writeFrameFile(t, dir, "T0003.csv", frameHeader+"1,2,3,0,0,0,0,0\n")

	cfg := config.Default()
	cfg.Output.Dir = filepath.Join(dir, "scenes")

	exp := New(framePath, cfg, Options{})
	result := exp.Run()

	require.NoError(t, result.Error)
	assert.Equal(t, filepath.Join(dir, "scenes", "T0003.xml"), result.SceneFile)
	assert.FileExists(t, result.SceneFile)
}

func TestRunDryRunWritesNothing(t *testing.T) {
	dir := t.TempDir()
	framePath := writeFrameFile(t, dir, "T0004.csv", frameHeader+"1,2,3,0,0,0,0,0\n")

	exp := New(framePath, config.Default(), Options{DryRun: true})
	result := exp.Run()

	require.NoError(t, result.Error)
	assert.True(t, result.Success)
	assert.Empty(t, result.SceneFile)
	assert.NoFileExists(t, filepath.Join(dir, "T0004.xml"))
}

func TestRunMalformedFrameFails(t *testing.T) {
	dir := t.TempDir()
	framePath := writeFrameFile(t, dir, "T0005.csv", frameHeader+"1,2\n")

	exp := New(framePath, config.Default(), Options{})
	result := exp.Run()

	assert.False(t, result.Success)
	require.Error(t, result.Error)
	assert.Contains(t, result.Error.Error(), "failed to parse frame")
	assert.NoFileExists(t, filepath.Join(dir, "T0005.xml"))
}

func TestRunNoOverwrite(t *testing.T) {
	dir := t.TempDir()
	framePath := writeFrameFile(t, dir, "T0006.csv", frameHeader+"1,2,3,0,0,0,0,0\n")
	scenePath := filepath.Join(dir, "T0006.xml")
	require.NoError(t, os.WriteFile(scenePath, []byte("old"), 0o644))

	cfg := config.Default()
	cfg.Output.Overwrite = false

	exp := New(framePath, cfg, Options{})
	result := exp.Run()

	assert.False(t, result.Success)
	require.Error(t, result.Error)
	assert.Contains(t, result.Error.Error(), "already exists")

	// The stale file is untouched.
	data, err := os.ReadFile(scenePath)
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))
}

func TestRunArchivesFrame(t *testing.T) {
	dir := t.TempDir()
	framePath := writeFrameFile(t, dir, "T0007.csv", frameHeader+"1,2,3,0,0,0,0,0\n")

	cfg := config.Default()
	cfg.Output.ArchiveDir = filepath.Join(dir, "done")

	exp := New(framePath, cfg, Options{})
	result := exp.Run()

	require.NoError(t, result.Error)
	assert.NoFileExists(t, framePath)
	assert.FileExists(t, filepath.Join(dir, "done", "T0007.csv"))
	assert.FileExists(t, filepath.Join(dir, "T0007.xml"))
}

func TestComputeStatsBoundsAndSpeed(t *testing.T) {
	dir := t.TempDir()
	framePath := writeFrameFile(t, dir, "T0008.csv",
		frameHeader+
			"-1,0,5,0,0,0,2,0\n"+
			"3,-2,1,0,0,0,4,0\n")

	exp := New(framePath, config.Default(), Options{DryRun: true})
	result := exp.Run()
	require.NoError(t, result.Error)

	stats := result.Stats
	require.True(t, stats.HasBounds)
	assert.Equal(t, -1.0, stats.MinX)
	assert.Equal(t, 3.0, stats.MaxX)
	assert.Equal(t, -2.0, stats.MinY)
	assert.Equal(t, 0.0, stats.MaxY)
	assert.Equal(t, 1.0, stats.MinZ)
	assert.Equal(t, 5.0, stats.MaxZ)

	require.True(t, stats.HasSpeed)
	assert.InDelta(t, 3.0, stats.MeanSpeed, 1e-12)
}

func TestComputeStatsNonNumericPositions(t *testing.T) {
	dir := t.TempDir()
	framePath := writeFrameFile(t, dir, "T0009.csv",
		frameHeader+"a,b,c\n")

	exp := New(framePath, config.Default(), Options{DryRun: true})
	result := exp.Run()
	require.NoError(t, result.Error)

	assert.False(t, result.Stats.HasBounds)
	assert.False(t, result.Stats.HasSpeed)
	assert.Equal(t, 1, result.Stats.Bodies)
}
