// Package config provides configuration loading and management for eddy.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Data preprocessing parameters
	Data struct {
		// Unit is the velocity unit of the input map, "m/s" or "km/s"
		Unit string `yaml:"unit"`

		// FOV clips the map to a square field of view in arcseconds
		FOV float64 `yaml:"fov"`

		// Downsample keeps every Nth pixel along both axes
		Downsample int `yaml:"downsample"`

		// UncertaintyFrac is the fractional uncertainty assumed when no
		// uncertainty map is provided
		UncertaintyFrac float64 `yaml:"uncertaintyFrac"`
	} `yaml:"data"`

	// Sampling parameters
	Sampling struct {
		// NumWorkers specifies how many CPU cores to use for parallel
		// posterior evaluation
		NumWorkers int `yaml:"numWorkers"`

		// Walkers is the ensemble size, zero meaning twice the number of
		// free parameters
		Walkers int `yaml:"walkers"`

		// BurnIn is the number of discarded steps per iteration
		BurnIn int `yaml:"burnIn"`

		// Steps is the number of retained steps per iteration
		Steps int `yaml:"steps"`

		// Scatter sets the spread of the initial walker ball
		Scatter float64 `yaml:"scatter"`

		// Iterations repeats the mask rebuild and sampling cycle
		Iterations int `yaml:"iterations"`

		// Optimize runs a Nelder-Mead refinement before sampling
		Optimize bool `yaml:"optimize"`

		// Seed fixes the random state of the fit
		Seed uint64 `yaml:"seed"`

		// Returns lists the quantities attached to the fit result
		Returns []string `yaml:"returns"`
	} `yaml:"sampling"`

	// Emission surface parameters
	Surface struct {
		// Iterations is the fixed point iteration count for flared
		// surfaces
		Iterations int `yaml:"iterations"`

		// ShadowedExtend scales the disk frame grid of the shadowed
		// surface solver beyond the field of view
		ShadowedExtend float64 `yaml:"shadowedExtend"`

		// ShadowedOversample multiplies the pixel count of the shadowed
		// surface grid
		ShadowedOversample float64 `yaml:"shadowedOversample"`

		// ShadowedMethod selects the resampling method, "nearest" or
		// "invdist"
		ShadowedMethod string `yaml:"shadowedMethod"`
	} `yaml:"surface"`

	// Output parameters
	Output struct {
		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Set default data parameters
	cfg.Data.Unit = "m/s"
	cfg.Data.UncertaintyFrac = 0.1

	// Set default sampling parameters
	cfg.Sampling.NumWorkers = runtime.NumCPU()
	cfg.Sampling.BurnIn = 300
	cfg.Sampling.Steps = 100
	cfg.Sampling.Scatter = 1e-3
	cfg.Sampling.Iterations = 1
	cfg.Sampling.Optimize = true
	cfg.Sampling.Returns = []string{"percentiles"}

	// Set default surface parameters
	cfg.Surface.Iterations = 5
	cfg.Surface.ShadowedExtend = 1.5
	cfg.Surface.ShadowedOversample = 2.0
	cfg.Surface.ShadowedMethod = "nearest"

	// Set default output parameters
	cfg.Output.Verbose = true

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	// Marshal config to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
