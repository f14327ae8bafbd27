// Package config loads the service configuration.
//
// Settings come from a YAML file (missing file = defaults) and are then
// overridden by environment variables:
//
//	PICKPLACE_MCP_CONFIG     path of the YAML file
//	PICKPLACE_MCP_LOG_LEVEL  debug, info, warn or error
//	PICKPLACE_MCP_MODELS     path of the model store
//
// # Testing
//
// Tests use testify's require for preconditions and assert for checks.
// Packages written for matching use testify; the image-processing packages
// keep plain testing.
package config

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/ironsheep/pickplace-mcp/internal/detection"
	"github.com/ironsheep/pickplace-mcp/internal/matching"
	"github.com/ironsheep/pickplace-mcp/internal/placement"
)

// Environment variables read by Load.
const (
	EnvConfig   = "PICKPLACE_MCP_CONFIG"
	EnvLogLevel = "PICKPLACE_MCP_LOG_LEVEL"
	EnvModels   = "PICKPLACE_MCP_MODELS"
)

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("invalid configuration")

// Config is the service configuration.
type Config struct {
	// LogLevel is debug, info, warn or error.
	LogLevel string `yaml:"log_level"`

	// ModelsFile is the JSON model store.
	ModelsFile string `yaml:"models_file"`

	// ImageDir resolves relative image paths given to tools.
	ImageDir string `yaml:"image_dir"`

	// OCRLanguage is the tesseract language used to read part labels.
	OCRLanguage string `yaml:"ocr_language"`

	Match     MatchConfig       `yaml:"match"`
	Segment   detection.Options `yaml:"segment"`
	Placement placement.Options `yaml:"placement"`
}

// MatchConfig holds the default matching parameters.
type MatchConfig struct {
	Threshold        float64 `yaml:"threshold"`
	OverlapThreshold float64 `yaml:"overlap_threshold"`
	WeakThreshold    float64 `yaml:"weak_threshold"`
	BinarizeLevel    int     `yaml:"binarize_level"`
	DetectionOrder   string  `yaml:"detection_order"`

	// Workers bounds concurrent candidate scoring; 0 uses every CPU.
	Workers int `yaml:"workers"`
}

// Default returns the built-in configuration.
func Default() *Config {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return &Config{
		LogLevel:    "info",
		ModelsFile:  filepath.Join(dir, "pickplace-mcp", "model_info.json"),
		OCRLanguage: "eng",
		Match: MatchConfig{
			Threshold:        matching.DefaultThreshold,
			OverlapThreshold: matching.DefaultOverlapThreshold,
			WeakThreshold:    matching.DefaultWeakThreshold,
			BinarizeLevel:    128,
			DetectionOrder:   string(matching.DefaultOrder),
		},
		Segment: detection.DefaultOptions(),
		Placement: placement.Options{
			BoxSize:   placement.DefaultBoxSize,
			AngleStep: placement.DefaultAngleStep,
		},
	}
}

// Load reads the YAML file at path on top of the defaults and applies the
// environment overrides. An empty path uses PICKPLACE_MCP_CONFIG; if that is
// unset too, or the file does not exist, only defaults and environment apply.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv(EnvConfig)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, errors.Wrap(err, "failed to read config")
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, errors.Wrapf(err, "failed to parse config %s", path)
			}
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvModels); v != "" {
		c.ModelsFile = v
	}
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	m := c.Match
	switch {
	case m.Threshold <= 0 || m.Threshold > 1:
		return errors.Wrapf(ErrInvalid, "match.threshold %.3f outside (0, 1]", m.Threshold)
	case m.OverlapThreshold <= 0 || m.OverlapThreshold > 1:
		return errors.Wrapf(ErrInvalid, "match.overlap_threshold %.3f outside (0, 1]", m.OverlapThreshold)
	case m.WeakThreshold <= 0 || m.WeakThreshold > 1:
		return errors.Wrapf(ErrInvalid, "match.weak_threshold %.3f outside (0, 1]", m.WeakThreshold)
	case m.BinarizeLevel < 1 || m.BinarizeLevel > 255:
		return errors.Wrapf(ErrInvalid, "match.binarize_level %d outside [1, 255]", m.BinarizeLevel)
	case m.Workers < 0:
		return errors.Wrapf(ErrInvalid, "match.workers %d is negative", m.Workers)
	case c.Placement.BoxSize < 2:
		return errors.Wrapf(ErrInvalid, "placement.box_size %d is below 2", c.Placement.BoxSize)
	case c.Placement.AngleStep <= 0 || c.Placement.AngleStep >= 360:
		return errors.Wrapf(ErrInvalid, "placement.angle_step %d outside (0, 360)", c.Placement.AngleStep)
	case c.ModelsFile == "":
		return errors.Wrap(ErrInvalid, "models_file is required")
	}
	if _, err := matching.ParseDetectionOrder(m.DetectionOrder); err != nil {
		return errors.Wrapf(ErrInvalid, "match.detection_order: %v", err)
	}
	return nil
}

// MatchParams converts the match section into pipeline parameters.
func (c *Config) MatchParams() matching.Params {
	order, err := matching.ParseDetectionOrder(c.Match.DetectionOrder)
	if err != nil {
		order = matching.DefaultOrder
	}
	return matching.Params{
		Threshold:        c.Match.Threshold,
		OverlapThreshold: c.Match.OverlapThreshold,
		WeakThreshold:    c.Match.WeakThreshold,
		Order:            order,
		BoxSize:          c.Placement.BoxSize,
		BinarizeLevel:    uint8(c.Match.BinarizeLevel),
	}
}

// MatcherConfig converts the settings that are fixed for the process.
func (c *Config) MatcherConfig() matching.Config {
	return matching.Config{
		Segment:   c.Segment,
		AngleStep: c.Placement.AngleStep,
		Perturb:   c.Placement.Perturb,
		Workers:   c.Match.Workers,
	}
}
