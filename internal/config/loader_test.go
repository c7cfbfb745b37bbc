package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

// isolate points every search path at an empty directory.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	chdir(t, dir)
	return dir
}

func TestLoadWithNoConfigFile(t *testing.T) {
	isolate(t)

	cfg, err := NewLoaderWith(viper.New()).Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.LogLevel != infoLevel {
		t.Errorf("Expected default log level '%s', got %s", infoLevel, cfg.LogLevel)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", cfg.Server.Port)
	}
}

func TestLoadFromSearchPath(t *testing.T) {
	dir := isolate(t)
	content := "log_level: debug\nstore:\n  path: /tmp/cards.yaml\n"
	if err := os.WriteFile(filepath.Join(dir, "cardpanda.yaml"), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	loader := NewLoaderWith(viper.New())
	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("Expected log level debug, got %s", cfg.LogLevel)
	}
	if cfg.Store.Path != "/tmp/cards.yaml" {
		t.Errorf("Expected store path /tmp/cards.yaml, got %s", cfg.Store.Path)
	}
	if filepath.Base(loader.GetConfigFileUsed()) != "cardpanda.yaml" {
		t.Errorf("Unexpected config file used: %s", loader.GetConfigFileUsed())
	}
}

func TestLoadWithValidYAMLFile(t *testing.T) {
	isolate(t)
	configFile := filepath.Join(t.TempDir(), "custom.yaml")
	yamlContent := `
log_level: warn
verbose: true
render:
  format: json
  disabled_encoders: [qr-encoder, aztec-encoder]
server:
  host: 0.0.0.0
  port: 9090
  max_body_kb: 8
export:
  page_size: Letter
`
	if err := os.WriteFile(configFile, []byte(yamlContent), 0o600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := NewLoaderWith(viper.New()).LoadWithFile(configFile)
	if err != nil {
		t.Fatalf("LoadWithFile() unexpected error: %v", err)
	}
	if cfg.LogLevel != "warn" || !cfg.Verbose {
		t.Errorf("Unexpected global settings: %+v", cfg)
	}
	if cfg.Render.Format != "json" {
		t.Errorf("Expected render format json, got %s", cfg.Render.Format)
	}
	if len(cfg.Render.DisabledEncoders) != 2 {
		t.Errorf("Expected 2 disabled encoders, got %v", cfg.Render.DisabledEncoders)
	}
	if cfg.Server.Host != "0.0.0.0" || cfg.Server.Port != 9090 || cfg.Server.MaxBodyKB != 8 {
		t.Errorf("Unexpected server settings: %+v", cfg.Server)
	}
	if cfg.Server.TimeoutSec != 30 {
		t.Errorf("Expected default timeout 30, got %d", cfg.Server.TimeoutSec)
	}
	if cfg.Export.PageSize != "Letter" {
		t.Errorf("Expected page size Letter, got %s", cfg.Export.PageSize)
	}
}

func TestLoadWithInvalidYAMLFile(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(configFile, []byte("server: [port"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewLoaderWith(viper.New()).LoadWithFile(configFile); err == nil {
		t.Error("Expected error for invalid YAML")
	}
}

func TestLoadWithNonExistentFile(t *testing.T) {
	if _, err := NewLoaderWith(viper.New()).LoadWithFile("/does/not/exist.yaml"); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestLoadWithValidationFailure(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "invalid.yaml")
	if err := os.WriteFile(configFile, []byte("server:\n  port: 0\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := NewLoaderWith(viper.New()).LoadWithFile(configFile); err == nil {
		t.Error("Expected validation error")
	}

	cfg, err := NewLoaderWith(viper.New()).LoadWithFileWithoutValidation(configFile)
	if err != nil {
		t.Fatalf("LoadWithFileWithoutValidation() unexpected error: %v", err)
	}
	if cfg.Server.Port != 0 {
		t.Errorf("Expected port 0, got %d", cfg.Server.Port)
	}
}

func TestEnvironmentVariableOverride(t *testing.T) {
	isolate(t)
	t.Setenv("CARDPANDA_LOG_LEVEL", "error")
	t.Setenv("CARDPANDA_SERVER_PORT", "9999")
	t.Setenv("CARDPANDA_STORE_PATH", "/env/cards.yaml")
	t.Setenv("CARDPANDA_EXPORT_PAGE_SIZE", "A6")

	cfg, err := NewLoaderWith(viper.New()).Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.LogLevel != "error" {
		t.Errorf("Expected log level error, got %s", cfg.LogLevel)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("Expected port 9999, got %d", cfg.Server.Port)
	}
	if cfg.Store.Path != "/env/cards.yaml" {
		t.Errorf("Expected store path from env, got %s", cfg.Store.Path)
	}
	if cfg.Export.PageSize != "A6" {
		t.Errorf("Expected page size A6, got %s", cfg.Export.PageSize)
	}
}

func TestGetSetConfigValues(t *testing.T) {
	loader := NewLoaderWith(viper.New())
	loader.Set("render.format", "json")
	if got := loader.GetString("render.format"); got != "json" {
		t.Errorf("GetString() = %s, want json", got)
	}
	if loader.Get("render.format") != "json" {
		t.Error("Get() did not return the set value")
	}
	if loader.GetViper() == nil {
		t.Error("GetViper() returned nil")
	}
}

func TestGenerateDefaultConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := GenerateDefaultConfigFile(path); err != nil {
		t.Fatalf("GenerateDefaultConfigFile() error: %v", err)
	}

	cfg, err := NewLoaderWith(viper.New()).LoadWithFile(path)
	if err != nil {
		t.Fatalf("Generated file did not load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Expected port 8080 in generated file, got %d", cfg.Server.Port)
	}
}

func TestGetConfigSearchPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	paths := GetConfigSearchPaths()
	if paths[0] != "." {
		t.Errorf("First search path should be '.', got %s", paths[0])
	}
	want := map[string]bool{"/xdg/cardpanda": false, "/etc/cardpanda": false}
	for _, p := range paths {
		if _, ok := want[p]; ok {
			want[p] = true
		}
	}
	for p, found := range want {
		if !found {
			t.Errorf("Missing search path %s", p)
		}
	}
}
