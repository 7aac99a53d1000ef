package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings holds persistent CLI defaults loaded from a config file.
type Settings struct {
	OutputDir string `yaml:"output_dir"`
	Engine    string `yaml:"engine"`    // container engine binary: docker (default) or podman
	ImageTag  string `yaml:"image_tag"` // tag for the extraction image

	OpenSearch OpenSearchSettings `yaml:"opensearch,omitempty"`
	Extract    ExtractSettings    `yaml:"extract,omitempty"`
}

// OpenSearchSettings holds cluster connection parameters for native extraction.
type OpenSearchSettings struct {
	Addresses []string `yaml:"addresses,omitempty"`
	Username  string   `yaml:"username,omitempty"`
	Password  string   `yaml:"password,omitempty"`
}

// ExtractSettings tunes the native scroll extraction.
type ExtractSettings struct {
	Index           string        `yaml:"index,omitempty"`
	BatchSize       int           `yaml:"batch_size,omitempty"`
	ScrollKeepAlive time.Duration `yaml:"scroll_keep_alive,omitempty"`
	// MaxFileSize caps a partition file before rotation. The conservative
	// default suits smoke runs; production extractions typically set 500MiB.
	MaxFileSize int64 `yaml:"max_file_size,omitempty"`
}

// LoadSettings reads a YAML config file into Settings.
// If the file does not exist, it returns zero-value Settings and nil error.
func LoadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Settings{}, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	return &s, nil
}
