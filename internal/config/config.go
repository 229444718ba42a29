// =============================================================================
// Frame to Scene Exporter - Configuration Module
// =============================================================================
//
// This module is responsible for loading and managing the exporter
// configuration. A single YAML file controls the scene preamble (camera,
// sampler, film, emitter), the sphere appearance, CSV parsing, output
// placement, and processing behavior.
//
// CONFIGURATION STRATEGY:
//   The exporter must run with no configuration file at all: every setting
//   has a default matching the historical render setup (1024x1024 ldrfilm,
//   fov 39, 64-sample ldsampler, radius 25984 plastic spheres). A YAML file
//   only overrides the settings it names; everything else keeps its default.
//
// =============================================================================

package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// TOP-LEVEL CONFIGURATION STRUCTURE
// =============================================================================

// Config holds the full exporter configuration.
type Config struct {
	// Scene contains the scene description settings (camera, film, spheres).
	Scene SceneSettings `yaml:"scene"`

	// CSV contains settings for parsing the input frame files.
	CSV CSVSettings `yaml:"csv"`

	// Output contains settings controlling where scene files are written.
	Output OutputSettings `yaml:"output"`

	// Processing contains settings controlling the export run itself.
	Processing ProcessingSettings `yaml:"processing"`

	// Report contains settings for the optional XLSX run report.
	Report ReportSettings `yaml:"report"`
}

// =============================================================================
// SCENE SETTINGS
// =============================================================================

// SceneSettings describes the fixed portion of every generated scene file.
// One sensor, one point emitter, and the sphere prototype; the per-frame
// part is the sphere translations, which come from the CSV rows.
type SceneSettings struct {
	// Version is the scene format version written to the root element.
	// Default: "0.6.0"
	Version string `yaml:"version"`

	// Camera describes the perspective sensor.
	Camera CameraSettings `yaml:"camera"`

	// Sampler describes the sample generator block inside the sensor.
	Sampler SamplerSettings `yaml:"sampler"`

	// Film describes the output film block inside the sensor.
	Film FilmSettings `yaml:"film"`

	// Emitter describes the single point light.
	Emitter EmitterSettings `yaml:"emitter"`

	// Sphere describes the sphere prototype instantiated per body.
	Sphere SphereSettings `yaml:"sphere"`
}

// CameraSettings describes the perspective sensor.
type CameraSettings struct {
	// Type is the sensor type. Default: "perspective"
	Type string `yaml:"type"`

	// Origin, Target, and Up define the lookAt transform. Each is a
	// comma-separated coordinate triple written verbatim into the scene.
	// Defaults: "3, 0, 0", "0, 0, 0", "0, 0, 1"
	Origin string `yaml:"origin"`
	Target string `yaml:"target"`
	Up     string `yaml:"up"`

	// FOV is the field of view in degrees. Default: 39
	FOV float64 `yaml:"fov"`

	// FOVAxis selects which film axis the FOV applies to.
	// Default: "smaller"
	FOVAxis string `yaml:"fov_axis"`
}

// SamplerSettings describes the sample generator.
type SamplerSettings struct {
	// Type is the sampler plugin name. Default: "ldsampler"
	Type string `yaml:"type"`

	// SampleCount is the number of samples per pixel. Default: 64
	SampleCount int `yaml:"sample_count"`
}

// FilmSettings describes the output film.
type FilmSettings struct {
	// Type is the film plugin name. Default: "ldrfilm"
	Type string `yaml:"type"`

	// Width and Height are the image dimensions in pixels.
	// Default: 1024 x 1024
	Width  int `yaml:"width"`
	Height int `yaml:"height"`

	// Filter is the reconstruction filter type. Default: "gaussian"
	Filter string `yaml:"filter"`
}

// EmitterSettings describes the point light.
type EmitterSettings struct {
	// Intensity is the emitter spectrum intensity. Default: 10
	Intensity float64 `yaml:"intensity"`

	// X, Y, Z is the emitter position. Default: (0, 0, 1)
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

// SphereSettings describes the sphere prototype written once per body.
type SphereSettings struct {
	// Radius is the sphere radius in simulation units.
	// Default: 25984 (the historical granular body radius in microns)
	Radius float64 `yaml:"radius"`

	// BSDF is the material plugin name. Default: "plastic"
	BSDF string `yaml:"bsdf"`

	// Reflectance is the sRGB diffuse reflectance as a hex color.
	// Default: "#7A5230"
	Reflectance string `yaml:"reflectance"`

	// TintBySpeed enables per-body reflectance interpolated between
	// TintSlow and TintFast by normalized body speed (|v| taken from the
	// absv column). When disabled every sphere uses Reflectance.
	// Default: false
	TintBySpeed bool `yaml:"tint_by_speed"`

	// TintSlow and TintFast are the ramp endpoints as hex colors.
	// Defaults: "#1A3A6E" (slow) and "#C03020" (fast)
	TintSlow string `yaml:"tint_slow"`
	TintFast string `yaml:"tint_fast"`
}

// =============================================================================
// CSV SETTINGS
// =============================================================================

// CSVSettings contains settings for parsing frame CSV files.
type CSVSettings struct {
	// Delimiter is the character separating fields. Default: ","
	Delimiter string `yaml:"delimiter"`

	// HeaderRows is the number of header rows to skip before the body
	// data begins. The historical files carry a single
	// "x,y,z,vx,vy,vz,absv,nTouched" header. Default: 1
	HeaderRows int `yaml:"header_rows"`
}

// =============================================================================
// OUTPUT SETTINGS
// =============================================================================

// OutputSettings controls where generated scene files are placed.
type OutputSettings struct {
	// Dir is the directory for generated scene files. When empty, each
	// scene file is written next to its frame file, which is the
	// historical behavior. Default: ""
	Dir string `yaml:"dir"`

	// ArchiveDir, when set, is where frame CSVs are moved after a
	// successful export. When empty no archival happens. Default: ""
	ArchiveDir string `yaml:"archive_dir"`

	// Overwrite determines whether an existing scene file is replaced.
	// When false an existing output file is an error for that frame.
	// Default: true
	Overwrite bool `yaml:"overwrite"`
}

// =============================================================================
// PROCESSING SETTINGS
// =============================================================================

// ProcessingSettings controls the export run.
type ProcessingSettings struct {
	// MaxConcurrency is the maximum number of frames exported at once.
	// Set to 1 for sequential processing. Default: 4
	MaxConcurrency int `yaml:"max_concurrency"`

	// ContinueOnError determines whether a failing frame aborts the run.
	// Default: true
	ContinueOnError bool `yaml:"continue_on_error"`
}

// =============================================================================
// REPORT SETTINGS
// =============================================================================

// ReportSettings controls the optional XLSX run report.
type ReportSettings struct {
	// File is the workbook file name, created in the output directory
	// (or next to the frames when no output directory is set).
	// Default: "export_report.xlsx"
	File string `yaml:"file"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns a Config populated with the historical render settings.
func Default() *Config {
	return &Config{
		Scene: SceneSettings{
			Version: "0.6.0",
			Camera: CameraSettings{
				Type:    "perspective",
				Origin:  "3, 0, 0",
				Target:  "0, 0, 0",
				Up:      "0, 0, 1",
				FOV:     39,
				FOVAxis: "smaller",
			},
			Sampler: SamplerSettings{
				Type:        "ldsampler",
				SampleCount: 64,
			},
			Film: FilmSettings{
				Type:   "ldrfilm",
				Width:  1024,
				Height: 1024,
				Filter: "gaussian",
			},
			Emitter: EmitterSettings{
				Intensity: 10,
				X:         0,
				Y:         0,
				Z:         1,
			},
			Sphere: SphereSettings{
				Radius:      25984,
				BSDF:        "plastic",
				Reflectance: "#7A5230",
				TintBySpeed: false,
				TintSlow:    "#1A3A6E",
				TintFast:    "#C03020",
			},
		},
		CSV: CSVSettings{
			Delimiter:  ",",
			HeaderRows: 1,
		},
		Output: OutputSettings{
			Dir:        "",
			ArchiveDir: "",
			Overwrite:  true,
		},
		Processing: ProcessingSettings{
			MaxConcurrency:  4,
			ContinueOnError: true,
		},
		Report: ReportSettings{
			File: "export_report.xlsx",
		},
	}
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// Load reads a YAML configuration file on top of the defaults.
//
// PARAMETERS:
//   - path: The path to the configuration file.
//
// RETURNS:
//   - A pointer to the Config struct.
//   - An error if the file cannot be read, parsed, or validated.
//
// Unmarshaling happens over a Default() config, so settings absent from
// the file keep their default values, including boolean settings whose
// default is true.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault loads the configuration file if it exists; a missing file
// yields the defaults. Used for the implicit config.yaml lookup so the
// exporter runs bare, the way the original render script did.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(path)
}

// =============================================================================
// VALIDATION
// =============================================================================

// hexColorRe matches a #RRGGBB hex color.
var hexColorRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Validate checks the configuration for values the scene writer cannot
// represent. It returns the first problem found.
func (c *Config) Validate() error {
	if c.Scene.Film.Width <= 0 || c.Scene.Film.Height <= 0 {
		return fmt.Errorf("film dimensions must be positive, got %dx%d",
			c.Scene.Film.Width, c.Scene.Film.Height)
	}
	if c.Scene.Sampler.SampleCount <= 0 {
		return fmt.Errorf("sample_count must be positive, got %d", c.Scene.Sampler.SampleCount)
	}
	if c.Scene.Camera.FOV <= 0 || c.Scene.Camera.FOV >= 180 {
		return fmt.Errorf("fov must be in (0, 180), got %g", c.Scene.Camera.FOV)
	}
	if c.Scene.Sphere.Radius <= 0 {
		return fmt.Errorf("sphere radius must be positive, got %g", c.Scene.Sphere.Radius)
	}
	if !hexColorRe.MatchString(c.Scene.Sphere.Reflectance) {
		return fmt.Errorf("sphere reflectance must be a #RRGGBB color, got %q", c.Scene.Sphere.Reflectance)
	}
	if c.Scene.Sphere.TintBySpeed {
		if !hexColorRe.MatchString(c.Scene.Sphere.TintSlow) {
			return fmt.Errorf("tint_slow must be a #RRGGBB color, got %q", c.Scene.Sphere.TintSlow)
		}
		if !hexColorRe.MatchString(c.Scene.Sphere.TintFast) {
			return fmt.Errorf("tint_fast must be a #RRGGBB color, got %q", c.Scene.Sphere.TintFast)
		}
	}
	if len(c.CSV.Delimiter) != 1 {
		return fmt.Errorf("csv delimiter must be a single character, got %q", c.CSV.Delimiter)
	}
	if c.CSV.HeaderRows < 0 {
		return fmt.Errorf("header_rows must not be negative, got %d", c.CSV.HeaderRows)
	}
	if c.Processing.MaxConcurrency < 1 {
		return fmt.Errorf("max_concurrency must be at least 1, got %d", c.Processing.MaxConcurrency)
	}
	return nil
}
