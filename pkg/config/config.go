// Package config provides configuration loading and management for gastruloid.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"gastruloid/internal/models"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Processing parameters
	Processing struct {
		// MinFileSize is the size in bytes a file must exceed to count as image data
		MinFileSize int64 `yaml:"minFileSize"`

		// MinBlobSize is the default smallest segmented region kept, in pixels.
		// Profiles may override it.
		MinBlobSize int `yaml:"minBlobSize"`

		// ClosingRadius is the radius of the disk used to merge nearby regions
		ClosingRadius int `yaml:"closingRadius"`

		// Workers is the number of sets processed concurrently. 1 keeps the run sequential.
		Workers int `yaml:"workers"`
	} `yaml:"processing"`

	// Output parameters
	Output struct {
		// ResultsRoot is the local directory holding one results directory per run
		ResultsRoot string `yaml:"resultsRoot"`

		// S3Bucket, when set, sends results to this bucket instead of ResultsRoot.
		// ResultsRoot is then used as the key prefix.
		S3Bucket string `yaml:"s3Bucket"`

		// S3Region overrides AWS_DEFAULT_REGION for the results bucket
		S3Region string `yaml:"s3Region"`

		// SaveIntermediaryResults writes an aligned-channel montage per set
		SaveIntermediaryResults bool `yaml:"saveIntermediaryResults"`

		// IntermediaryDir is where the montages are written
		IntermediaryDir string `yaml:"intermediaryDir"`

		// MetricsFile, when set, receives the run metrics in Prometheus text format
		MetricsFile string `yaml:"metricsFile"`
	} `yaml:"output"`

	// Profile storage
	Profiles struct {
		// Dir holds one YAML file per profile when no Mongo URI is configured
		Dir string `yaml:"dir"`

		MongoURI        string `yaml:"mongoURI"`
		MongoDatabase   string `yaml:"mongoDatabase"`
		MongoCollection string `yaml:"mongoCollection"`
	} `yaml:"profiles"`

	// Logging parameters
	Logging struct {
		// Level is one of debug, info, warn, error
		Level string `yaml:"level"`

		// JSON switches from the console writer to JSON lines
		JSON bool `yaml:"json"`
	} `yaml:"logging"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Processing.MinFileSize = 5000
	cfg.Processing.MinBlobSize = models.DefaultMinBlobSize
	cfg.Processing.ClosingRadius = 25
	cfg.Processing.Workers = 1

	cfg.Output.ResultsRoot = "results"
	cfg.Output.SaveIntermediaryResults = false
	cfg.Output.IntermediaryDir = "intermediary_results"

	cfg.Profiles.Dir = "profiles"
	cfg.Profiles.MongoDatabase = "gastruloid"
	cfg.Profiles.MongoCollection = "profiles"

	cfg.Logging.Level = "info"

	return cfg
}

// Validate rejects values the pipeline cannot run with
func (c *Config) Validate() error {
	if c.Processing.MinFileSize < 0 {
		return &models.ConfigurationError{Field: "processing.minFileSize", Reason: "must not be negative"}
	}
	if c.Processing.MinBlobSize <= 0 {
		return &models.ConfigurationError{Field: "processing.minBlobSize", Reason: "must be positive"}
	}
	if c.Processing.ClosingRadius <= 0 {
		return &models.ConfigurationError{Field: "processing.closingRadius", Reason: "must be positive"}
	}
	if c.Processing.Workers <= 0 {
		return &models.ConfigurationError{Field: "processing.workers", Reason: "must be positive"}
	}
	if c.Output.S3Bucket == "" && c.Output.ResultsRoot == "" {
		return &models.ConfigurationError{Field: "output.resultsRoot", Reason: "is required"}
	}
	return nil
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, errors.Wrap(err, "error reading config file")
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "error parsing config file")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, "error creating config directory")
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "error marshaling config")
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return errors.Wrap(err, "error writing config file")
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
