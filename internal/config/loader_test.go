package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// newTestLoader returns a loader that reads env from vars and never touches
// the real search paths
func newTestLoader(vars map[string]string) *Loader {
	l := NewLoader()
	l.configPaths = nil
	l.getenv = func(key string) string { return vars[key] }
	l.warn = func(string, ...interface{}) {}
	return l
}

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write test config file: %v", err)
	}
	return path
}

func TestNewLoader(t *testing.T) {
	loader := NewLoader()
	if loader == nil {
		t.Fatal("NewLoader returned nil")
	}
	if len(loader.configPaths) != 3 {
		t.Errorf("Expected 3 config paths, got %d", len(loader.configPaths))
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	loader := newTestLoader(nil)

	// Test loading with no config files (should use defaults)
	cfg, err := loader.LoadConfig("")
	if err != nil {
		t.Fatalf("Failed to load default config: %v", err)
	}

	if cfg.Hash.LowCount != 3 {
		t.Errorf("Expected default lowcount 3, got %d", cfg.Hash.LowCount)
	}
	if cfg.Output.DefaultFormat != "text" {
		t.Errorf("Expected default output format text, got %s", cfg.Output.DefaultFormat)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	configPath := writeConfig(t, "test-config.yaml", `version: "1.0"
hash:
  lowcount: 5
  sampling: all
graph:
  unit: hour
  tick: "*"
  wide: true
template:
  similarity: 0.6
output:
  default_format: "json"
  verbose: true
watch:
  debounce: 2s
`)

	loader := newTestLoader(nil)
	cfg, err := loader.LoadConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config from file: %v", err)
	}

	if cfg.Hash.LowCount != 5 {
		t.Errorf("Expected lowcount 5, got %d", cfg.Hash.LowCount)
	}
	if cfg.Hash.Sampling != "all" {
		t.Errorf("Expected sampling all, got %s", cfg.Hash.Sampling)
	}
	if cfg.Graph.Unit != "hour" || cfg.Graph.Tick != "*" || !cfg.Graph.Wide {
		t.Errorf("Unexpected graph config: %+v", cfg.Graph)
	}
	if cfg.Graph.Width != 60 {
		t.Errorf("Expected width to keep its default, got %d", cfg.Graph.Width)
	}
	if cfg.Template.Similarity != 0.6 {
		t.Errorf("Expected similarity 0.6, got %v", cfg.Template.Similarity)
	}
	if cfg.Template.Depth != 4 {
		t.Errorf("Expected depth to keep its default, got %d", cfg.Template.Depth)
	}
	if cfg.Output.DefaultFormat != "json" {
		t.Errorf("Expected output format json, got %s", cfg.Output.DefaultFormat)
	}
	if !cfg.Output.Verbose {
		t.Errorf("Expected verbose to be true")
	}
	if cfg.Watch.Debounce != 2*time.Second {
		t.Errorf("Expected debounce 2s, got %v", cfg.Watch.Debounce)
	}
}

func TestLoadConfigSearchPathPriority(t *testing.T) {
	low := writeConfig(t, "system.yaml", "hash:\n  lowcount: 7\ngraph:\n  unit: day\n")
	high := writeConfig(t, "project.yaml", "graph:\n  unit: hour\n")

	loader := newTestLoader(nil)
	loader.configPaths = []string{high, low}

	cfg, err := loader.LoadConfig("")
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Graph.Unit != "hour" {
		t.Errorf("Expected the first search path to win, got unit %s", cfg.Graph.Unit)
	}
	if cfg.Hash.LowCount != 7 {
		t.Errorf("Expected lowcount from the lower priority file, got %d", cfg.Hash.LowCount)
	}
}

func TestLoadConfigBrokenSearchPathWarns(t *testing.T) {
	broken := writeConfig(t, "broken.yaml", "graph: [unit\n")

	var warnings []string
	loader := newTestLoader(nil)
	loader.configPaths = []string{broken}
	loader.WithWarnings(func(format string, args ...interface{}) {
		warnings = append(warnings, format)
	})

	if _, err := loader.LoadConfig(""); err != nil {
		t.Fatalf("A broken search path file should only warn: %v", err)
	}
	if len(warnings) != 1 {
		t.Errorf("Expected 1 warning, got %d", len(warnings))
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	configPath := writeConfig(t, "invalid-config.yaml", `version: "1.0"
graph:
  unit: "hour
  tick: "#"
`)

	loader := newTestLoader(nil)
	_, err := loader.LoadConfig(configPath)
	if err == nil {
		t.Error("Expected error loading invalid YAML config, but got none")
	}
}

func TestLoadConfigInvalidValues(t *testing.T) {
	configPath := writeConfig(t, "bad-values.yaml", "graph:\n  unit: fortnight\n")

	loader := newTestLoader(nil)
	_, err := loader.LoadConfig(configPath)
	if err == nil {
		t.Fatal("Expected validation error, but got none")
	}
	if !strings.Contains(err.Error(), "configuration validation failed") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	loader := newTestLoader(map[string]string{
		"GLANCELOG_HASH_LOWCOUNT":         "8",
		"GLANCELOG_GRAPH_UNIT":            "day",
		"GLANCELOG_GRAPH_WIDE":            "true",
		"GLANCELOG_TEMPLATE_SIMILARITY":   "0.7",
		"GLANCELOG_FILTERS_DIRECTORY":     "/srv/filters",
		"GLANCELOG_OUTPUT_VERBOSE":        "true",
		"GLANCELOG_OUTPUT_DEFAULT_FORMAT": "csv",
		"GLANCELOG_WATCH_DEBOUNCE":        "1s",
	})
	cfg := DefaultConfig()

	err := loader.applyEnvOverrides(cfg)
	if err != nil {
		t.Fatalf("Failed to apply env overrides: %v", err)
	}

	if cfg.Hash.LowCount != 8 {
		t.Errorf("Expected lowcount 8, got %d", cfg.Hash.LowCount)
	}
	if cfg.Graph.Unit != "day" || !cfg.Graph.Wide {
		t.Errorf("Unexpected graph config: %+v", cfg.Graph)
	}
	if cfg.Template.Similarity != 0.7 {
		t.Errorf("Expected similarity 0.7, got %v", cfg.Template.Similarity)
	}
	if cfg.Filters.Directory != "/srv/filters" {
		t.Errorf("Expected filter directory /srv/filters, got %s", cfg.Filters.Directory)
	}
	if !cfg.Output.Verbose {
		t.Errorf("Expected verbose to be true")
	}
	if cfg.Output.DefaultFormat != "csv" {
		t.Errorf("Expected output format csv, got %s", cfg.Output.DefaultFormat)
	}
	if cfg.Watch.Debounce != time.Second {
		t.Errorf("Expected debounce 1s, got %v", cfg.Watch.Debounce)
	}
}

func TestEnvOverridesBeatFiles(t *testing.T) {
	configPath := writeConfig(t, "config.yaml", "graph:\n  unit: hour\n")

	loader := newTestLoader(map[string]string{"GLANCELOG_GRAPH_UNIT": "second"})
	cfg, err := loader.LoadConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Graph.Unit != "second" {
		t.Errorf("Expected env to win, got unit %s", cfg.Graph.Unit)
	}
}

func TestApplyEnvOverridesInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		envVar string
		value  string
	}{
		{"invalid int", "GLANCELOG_HASH_LOWCOUNT", "not-a-number"},
		{"invalid bool", "GLANCELOG_OUTPUT_VERBOSE", "not-a-bool"},
		{"invalid float", "GLANCELOG_TEMPLATE_SIMILARITY", "high"},
		{"invalid duration", "GLANCELOG_WATCH_DEBOUNCE", "not-a-duration"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := newTestLoader(map[string]string{tt.envVar: tt.value})
			cfg := DefaultConfig()

			err := loader.applyEnvOverrides(cfg)
			if err == nil {
				t.Error("Expected error for invalid env var value, but got none")
			} else if !strings.Contains(err.Error(), tt.envVar) {
				t.Errorf("Expected error to name %s, got %v", tt.envVar, err)
			}
		})
	}
}

func TestParseDuration(t *testing.T) {
	var duration time.Duration

	err := parseDuration("30s", &duration)
	if err != nil {
		t.Errorf("Failed to parse duration: %v", err)
	}
	if duration != 30*time.Second {
		t.Errorf("Expected 30s, got %v", duration)
	}

	err = parseDuration("invalid", &duration)
	if err == nil {
		t.Error("Expected error for invalid duration, but got none")
	}
}

func TestParseInt(t *testing.T) {
	var value int

	err := parseInt("42", &value)
	if err != nil {
		t.Errorf("Failed to parse int: %v", err)
	}
	if value != 42 {
		t.Errorf("Expected 42, got %d", value)
	}

	err = parseInt("not-a-number", &value)
	if err == nil {
		t.Error("Expected error for invalid int, but got none")
	}
}

func TestParseFloat(t *testing.T) {
	var value float64

	if err := parseFloat("0.25", &value); err != nil {
		t.Errorf("Failed to parse float: %v", err)
	}
	if value != 0.25 {
		t.Errorf("Expected 0.25, got %v", value)
	}

	if err := parseFloat("quarter", &value); err == nil {
		t.Error("Expected error for invalid float, but got none")
	}
}

func TestParseBool(t *testing.T) {
	var value bool

	err := parseBool("true", &value)
	if err != nil {
		t.Errorf("Failed to parse bool: %v", err)
	}
	if !value {
		t.Errorf("Expected true, got %v", value)
	}

	err = parseBool("false", &value)
	if err != nil {
		t.Errorf("Failed to parse bool: %v", err)
	}
	if value {
		t.Errorf("Expected false, got %v", value)
	}

	err = parseBool("not-a-bool", &value)
	if err == nil {
		t.Error("Expected error for invalid bool, but got none")
	}
}

func TestFindConfigFile(t *testing.T) {
	// Test when no config file exists
	if path, found := FindConfigFile(); found && path == "./.glancelog.yaml" {
		t.Fatal("Unexpected project config file in the package directory")
	}

	// Create a temporary config file in current directory
	tempConfigPath := "./.glancelog.yaml"
	err := os.WriteFile(tempConfigPath, []byte("version: 1.0"), 0o600)
	if err != nil {
		t.Fatalf("Failed to create temp config file: %v", err)
	}
	defer func() { _ = os.Remove(tempConfigPath) }()

	configPath, found := FindConfigFile()
	if !found {
		t.Error("Expected config file to be found, but none was found")
	}
	if configPath != tempConfigPath {
		t.Errorf("Expected config path %s, got %s", tempConfigPath, configPath)
	}
}

func TestFileExists(t *testing.T) {
	// Test with non-existent file
	if fileExists("/path/that/does/not/exist") {
		t.Error("Expected file to not exist, but fileExists returned true")
	}

	tempFile := filepath.Join(t.TempDir(), "test-file")
	err := os.WriteFile(tempFile, []byte("test"), 0o600)
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}

	if !fileExists(tempFile) {
		t.Error("Expected file to exist, but fileExists returned false")
	}
}

func TestValidateConfigPath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid yaml file",
			path:    "config.yaml",
			wantErr: false,
		},
		{
			name:    "valid yml file",
			path:    "config.yml",
			wantErr: false,
		},
		{
			name:    "path traversal attempt",
			path:    "../../../etc/passwd",
			wantErr: true,
			errMsg:  "path traversal not allowed",
		},
		{
			name:    "non-yaml file",
			path:    "config.txt",
			wantErr: true,
			errMsg:  "config file must have .yaml or .yml extension",
		},
		{
			name:    "system file access",
			path:    "/etc/passwd.yaml",
			wantErr: true,
			errMsg:  "access to system files not allowed",
		},
		{
			name:    "proc filesystem access",
			path:    "/proc/version.yaml",
			wantErr: true,
			errMsg:  "access to system files not allowed",
		},
		{
			name:    "relative path with valid extension",
			path:    "./configs/app.yaml",
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateConfigPath(tt.path)
			if tt.wantErr {
				if err == nil {
					t.Error("Expected error but got none")
				} else if tt.errMsg != "" && !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("Expected error message to contain '%s', got '%s'", tt.errMsg, err.Error())
				}
			} else {
				if err != nil {
					t.Errorf("Unexpected error: %v", err)
				}
			}
		})
	}
}
