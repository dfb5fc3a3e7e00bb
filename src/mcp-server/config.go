// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// configFormat represents supported configuration file formats.
type configFormat int

const (
	// configFormatJSON represents JSON configuration format (.json)
	configFormatJSON configFormat = iota
	// configFormatYAML represents YAML configuration format (.yaml, .yml)
	configFormatYAML
)

// Config represents the MCP server configuration structure.
// It contains default settings for verification operations, the CRL cache
// location, trust anchors, and the verification engine selection.
//
// The configuration can be loaded from a JSON or YAML file specified by the
// MCP_X509_TRUST_CONFIG_FILE environment variable, with defaults applied for
// any missing values. Supported file extensions: .json, .yaml, .yml
type Config struct {
	// Defaults: Default settings for verification operations
	Defaults struct {
		// TimeoutSeconds: Default timeout in seconds for CRL downloads and remote fetches
		TimeoutSeconds int `json:"timeoutSeconds" yaml:"timeoutSeconds"`
		// CheckAllCRLs: Check every certificate in the chain against its CRL by default
		CheckAllCRLs bool `json:"checkAllCRLs" yaml:"checkAllCRLs"`
		// Purpose: Default purpose for certificate verification
		Purpose string `json:"purpose" yaml:"purpose"`
	} `json:"defaults" yaml:"defaults"`

	// Cache: CRL cache settings
	Cache struct {
		// Dir: CRL cache directory (empty means a per-user temp directory)
		Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`
	} `json:"cache" yaml:"cache"`

	// Anchors: Trust anchor locations for verification
	Anchors struct {
		// Files: Trust anchor certificate files
		Files []string `json:"files,omitempty" yaml:"files,omitempty"`
		// Dirs: Trust anchor directories
		Dirs []string `json:"dirs,omitempty" yaml:"dirs,omitempty"`
	} `json:"anchors" yaml:"anchors"`

	// Engine: Verification engine selection
	Engine struct {
		// Type: Engine type, "native" or "openssl"
		Type string `json:"type" yaml:"type"`
		// OpenSSLBinary: Path to the openssl binary (openssl engine only)
		OpenSSLBinary string `json:"opensslBinary,omitempty" yaml:"opensslBinary,omitempty"`
	} `json:"engine" yaml:"engine"`
}

// detectConfigFormat determines the configuration file format based on file extension.
// It supports .json, .yaml, and .yml extensions for flexible configuration management.
//
// Parameters:
//   - configPath: Path to the configuration file
//
// Returns:
//   - configFormat: The detected format (configFormatJSON or configFormatYAML)
//
// The function uses case-insensitive extension matching for cross-platform compatibility.
func detectConfigFormat(configPath string) configFormat {
	ext := strings.ToLower(filepath.Ext(configPath))
	switch ext {
	case ".yaml", ".yml":
		return configFormatYAML
	default:
		return configFormatJSON
	}
}

// unmarshalConfig unmarshals configuration data based on the specified format.
// It supports both JSON and YAML formats for configuration flexibility.
//
// Parameters:
//   - data: Raw configuration file contents
//   - config: Pointer to Config struct to populate
//   - format: The configuration format (configFormatJSON or configFormatYAML)
//
// Returns:
//   - error: Any parsing error encountered during unmarshaling
func unmarshalConfig(data []byte, config *Config, format configFormat) error {
	switch format {
	case configFormatYAML:
		if err := yaml.Unmarshal(data, config); err != nil {
			return fmt.Errorf("failed to parse YAML config file: %w", err)
		}
	default:
		if err := json.Unmarshal(data, config); err != nil {
			return fmt.Errorf("failed to parse JSON config file: %w", err)
		}
	}
	return nil
}

// loadConfig loads MCP server configuration from a JSON or YAML file or applies defaults.
//
// Parameters:
//   - configPath: Path to the configuration file (optional, can be empty)
//     Supported formats: .json, .yaml, .yml
//
// Returns:
//   - A pointer to the loaded Config struct with defaults applied
//   - An error if the configuration file cannot be read or parsed
//
// Configuration Priority:
//  1. Default values are set
//  2. MCP_X509_TRUST_CONFIG_FILE environment variable is checked if configPath is empty
//  3. Config file values override defaults (if file exists and is valid)
//
// The file format is automatically detected based on the file extension
// (.json, .yaml, or .yml).
func loadConfig(configPath string) (*Config, error) {
	config := &Config{}

	// Set defaults
	config.Defaults.TimeoutSeconds = 30
	config.Defaults.Purpose = "any"
	config.Engine.Type = "native"

	// Check environment variable for config file path if not provided
	if configPath == "" {
		configPath = os.Getenv("MCP_X509_TRUST_CONFIG_FILE")
	}

	// Try to load from file if path is provided
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		// Detect format and unmarshal accordingly
		format := detectConfigFormat(configPath)
		if err := unmarshalConfig(data, config, format); err != nil {
			return nil, err
		}

		// Validate and set defaults for invalid values
		if config.Defaults.TimeoutSeconds <= 0 {
			config.Defaults.TimeoutSeconds = 30
		}
		if config.Defaults.Purpose == "" {
			config.Defaults.Purpose = "any"
		}
		if config.Engine.Type == "" {
			config.Engine.Type = "native"
		}
	}

	return config, nil
}
