package config

import (
	"fmt"
	"os"

	"dario.cat/mergo"
	yaml "gopkg.in/yaml.v2"
)

// DefaultConfig holds the fallback values merged into any loaded configuration.
var DefaultConfig = Config{
	Port:         9090,
	ConfigDir:    "/config",
	PollInterval: 10,
	LogLevel:     "info",
	LogFormat:    "text",
}

type Config struct {
	// Port is the integration API listen port, overridable with
	// UC_INTEGRATION_HTTP_PORT.
	Port int `yaml:"port"`
	// ConfigDir is where pairing state is persisted (the /config volume
	// when running in Docker).
	ConfigDir string `yaml:"configDir"`
	// PollInterval is the Plex session poll interval in seconds.
	PollInterval int    `yaml:"pollInterval"`
	LogLevel     string `yaml:"logLevel"`
	LogFormat    string `yaml:"logFormat"`
}

type PlexServerConfig struct {
	BaseURL  string `yaml:"baseUrl"`
	Token    string `yaml:"token"`
	Insecure bool   `yaml:"insecure"`
}

// LoadConfig reads the YAML config at path and merges it over DefaultConfig.
// A missing file is not an error, the defaults are returned as is.
func LoadConfig(path string) (*Config, error) {
	config := Config{}

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		} else if err := yaml.Unmarshal(b, &config); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := mergo.Merge(&config, DefaultConfig); err != nil {
		return nil, err
	}

	return &config, nil
}
