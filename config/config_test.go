package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	config, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig: %s", err)
	}

	if config.Port != 9090 {
		t.Errorf("Port = %d, want 9090", config.Port)
	}
	if config.PollInterval != 10 {
		t.Errorf("PollInterval = %d, want 10", config.PollInterval)
	}
	if config.LogLevel != "info" {
		t.Errorf("LogLevel = %s, want info", config.LogLevel)
	}
}

func TestLoadConfigMergesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	contents := "port: 8000\nlogLevel: debug\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %s", err)
	}

	if config.Port != 8000 {
		t.Errorf("Port = %d, want 8000", config.Port)
	}
	if config.LogLevel != "debug" {
		t.Errorf("LogLevel = %s, want debug", config.LogLevel)
	}
	// unset values fall back to the defaults
	if config.ConfigDir != "/config" {
		t.Errorf("ConfigDir = %s, want /config", config.ConfigDir)
	}
	if config.PollInterval != 10 {
		t.Errorf("PollInterval = %d, want 10", config.PollInterval)
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("port: [not a number"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadConfig(path); err == nil {
		t.Error("expected a parse error")
	}
}
