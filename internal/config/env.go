package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Defaults used when neither environment nor settings file say otherwise.
const (
	DefaultOutputDir = "/tmp/vdb_dataset"
	DefaultImageTag  = "osextract-logstash"
	DefaultEngine    = "docker"

	DefaultIndex           = "tickets"
	DefaultBatchSize       = 1000
	DefaultScrollKeepAlive = 5 * time.Minute
	DefaultAddress         = "http://localhost:9200"
	DefaultMaxFileSize     = int64(10 * 1024)
)

// EnvOverrides maps process environment variables onto configuration.
// OUTPUT_DIR is the historical override honored by the extraction pipeline;
// the OPENSEARCH_* variables follow the usual client conventions.
type EnvOverrides struct {
	OutputDir string   `env:"OUTPUT_DIR"`
	Addresses []string `env:"OPENSEARCH_ADDRESSES"`
	Username  string   `env:"OPENSEARCH_USERNAME"`
	Password  string   `env:"OPENSEARCH_PASSWORD"`
}

// ParseEnv reads overrides from the process environment.
func ParseEnv() (*EnvOverrides, error) {
	var o EnvOverrides
	if err := env.Parse(&o); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return &o, nil
}

// ResolveOutputDir picks the output directory with env > settings > default
// precedence. The override value is used exactly as given, with no
// trimming or normalization.
func ResolveOutputDir(envDir, settingsDir string) string {
	if envDir != "" {
		return envDir
	}
	if settingsDir != "" {
		return settingsDir
	}
	return DefaultOutputDir
}

// ResolveAddresses picks OpenSearch addresses with the same precedence.
func ResolveAddresses(envAddrs, settingsAddrs []string) []string {
	if len(envAddrs) > 0 {
		return envAddrs
	}
	if len(settingsAddrs) > 0 {
		return settingsAddrs
	}
	return []string{DefaultAddress}
}
