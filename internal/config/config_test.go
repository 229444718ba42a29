package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultMatchesHistoricalSetup(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "0.6.0", cfg.Scene.Version)
	assert.Equal(t, "perspective", cfg.Scene.Camera.Type)
	assert.Equal(t, "3, 0, 0", cfg.Scene.Camera.Origin)
	assert.Equal(t, "0, 0, 0", cfg.Scene.Camera.Target)
	assert.Equal(t, "0, 0, 1", cfg.Scene.Camera.Up)
	assert.Equal(t, 39.0, cfg.Scene.Camera.FOV)
	assert.Equal(t, "smaller", cfg.Scene.Camera.FOVAxis)
	assert.Equal(t, "ldsampler", cfg.Scene.Sampler.Type)
	assert.Equal(t, 64, cfg.Scene.Sampler.SampleCount)
	assert.Equal(t, 1024, cfg.Scene.Film.Width)
	assert.Equal(t, 1024, cfg.Scene.Film.Height)
	assert.Equal(t, "gaussian", cfg.Scene.Film.Filter)
	assert.Equal(t, 10.0, cfg.Scene.Emitter.Intensity)
	assert.Equal(t, 1.0, cfg.Scene.Emitter.Z)
	assert.Equal(t, 25984.0, cfg.Scene.Sphere.Radius)
	assert.Equal(t, "plastic", cfg.Scene.Sphere.BSDF)
	assert.Equal(t, "#7A5230", cfg.Scene.Sphere.Reflectance)
	assert.False(t, cfg.Scene.Sphere.TintBySpeed)
	assert.Equal(t, ",", cfg.CSV.Delimiter)
	assert.Equal(t, 1, cfg.CSV.HeaderRows)
	assert.True(t, cfg.Output.Overwrite)
	assert.Equal(t, 4, cfg.Processing.MaxConcurrency)
	assert.True(t, cfg.Processing.ContinueOnError)

	require.NoError(t, cfg.Validate())
}

func TestLoadPartialOverrideKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `
scene:
  film:
    width: 1920
    height: 1080
  sphere:
    radius: 100
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	// Overridden.
	assert.Equal(t, 1920, cfg.Scene.Film.Width)
	assert.Equal(t, 1080, cfg.Scene.Film.Height)
	assert.Equal(t, 100.0, cfg.Scene.Sphere.Radius)

	// Untouched settings keep their defaults, including true booleans.
	assert.Equal(t, "ldrfilm", cfg.Scene.Film.Type)
	assert.Equal(t, 64, cfg.Scene.Sampler.SampleCount)
	assert.Equal(t, "#7A5230", cfg.Scene.Sphere.Reflectance)
	assert.True(t, cfg.Output.Overwrite)
	assert.True(t, cfg.Processing.ContinueOnError)
}

func TestLoadExplicitFalseBoolean(t *testing.T) {
	path := writeConfig(t, `
processing:
  continue_on_error: false
output:
  overwrite: false
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.False(t, cfg.Processing.ContinueOnError)
	assert.False(t, cfg.Output.Overwrite)
}

func TestLoadMissingFileIsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadOrDefaultMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadMalformedYAMLIsError(t *testing.T) {
	path := writeConfig(t, "scene: [not a mapping")
	_, err := Load(path)
	require.Error(t, err)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero film width", func(c *Config) { c.Scene.Film.Width = 0 }},
		{"negative film height", func(c *Config) { c.Scene.Film.Height = -1 }},
		{"zero sample count", func(c *Config) { c.Scene.Sampler.SampleCount = 0 }},
		{"fov too large", func(c *Config) { c.Scene.Camera.FOV = 180 }},
		{"zero radius", func(c *Config) { c.Scene.Sphere.Radius = 0 }},
		{"bad reflectance", func(c *Config) { c.Scene.Sphere.Reflectance = "brown" }},
		{"bad tint color", func(c *Config) {
			c.Scene.Sphere.TintBySpeed = true
			c.Scene.Sphere.TintSlow = "#XYZ"
		}},
		{"multi-char delimiter", func(c *Config) { c.CSV.Delimiter = ",," }},
		{"negative header rows", func(c *Config) { c.CSV.HeaderRows = -1 }},
		{"zero concurrency", func(c *Config) { c.Processing.MaxConcurrency = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadValidatesConfig(t *testing.T) {
	path := writeConfig(t, `
scene:
  sphere:
    radius: -5
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "radius")
}
