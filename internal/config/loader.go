package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yildizm/glancelog/internal/analyzer"
)

// ConfigPaths defines the config file search paths in priority order
var ConfigPaths = []string{
	"./.glancelog.yaml",               // Project-specific config (highest priority)
	"~/.config/glancelog/config.yaml", // User config
	"/etc/glancelog/config.yaml",      // System config (lowest priority)
}

// Loader handles configuration loading with priority merging
type Loader struct {
	configPaths []string
	getenv      func(string) string
	warn        func(format string, args ...interface{})
}

// NewLoader creates a new config loader
func NewLoader() *Loader {
	return &Loader{
		configPaths: ConfigPaths,
		getenv:      os.Getenv,
		warn: func(format string, args ...interface{}) {
			fmt.Fprintf(os.Stderr, "Warning: "+format+"\n", args...)
		},
	}
}

// WithWarnings routes non-fatal load problems to fn instead of stderr
func (l *Loader) WithWarnings(fn func(format string, args ...interface{})) *Loader {
	l.warn = fn
	return l
}

// LoadConfig loads configuration from multiple sources with priority order:
// 1. Command line flags (handled by caller)
// 2. Environment variables
// 3. ./.glancelog.yaml
// 4. ~/.config/glancelog/config.yaml
// 5. /etc/glancelog/config.yaml
// 6. Built-in defaults
func (l *Loader) LoadConfig(customPath string) (*Config, error) {
	// Start with defaults
	config := DefaultConfig()

	// If custom path is provided, use only that path
	if customPath != "" {
		if err := validateConfigPath(customPath); err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		if err := l.loadFromFile(config, customPath); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", customPath, err)
		}
	} else {
		// Load from lowest to highest priority so later files win
		for i := len(l.configPaths) - 1; i >= 0; i-- {
			expandedPath := expandPath(l.configPaths[i])
			if fileExists(expandedPath) {
				if err := l.loadFromFile(config, expandedPath); err != nil {
					l.warn("failed to load config from %s: %v", expandedPath, err)
				}
			}
		}
	}

	if err := l.applyEnvOverrides(config); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// loadFromFile loads configuration from a YAML file and merges it with existing config
func (l *Loader) loadFromFile(config *Config, path string) error {
	// #nosec G304 - path is validated by validateConfigPath() before reaching here
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	var fileConfig Config
	if err := yaml.Unmarshal(data, &fileConfig); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	mergeConfigs(config, &fileConfig)

	return nil
}

// applyEnvOverrides applies GLANCELOG_* environment variables to the config
func (l *Loader) applyEnvOverrides(config *Config) error {
	envMappings := map[string]func(string) error{
		// Filters
		"GLANCELOG_FILTERS_DIRECTORY": func(v string) error { config.Filters.Directory = v; return nil },
		"GLANCELOG_FILTERS_DISABLED":  func(v string) error { return parseBool(v, &config.Filters.Disabled) },

		// Hash
		"GLANCELOG_HASH_LOWCOUNT": func(v string) error { return parseInt(v, &config.Hash.LowCount) },
		"GLANCELOG_HASH_SAMPLING": func(v string) error { config.Hash.Sampling = v; return nil },

		// Graph
		"GLANCELOG_GRAPH_UNIT":  func(v string) error { config.Graph.Unit = v; return nil },
		"GLANCELOG_GRAPH_TICK":  func(v string) error { config.Graph.Tick = v; return nil },
		"GLANCELOG_GRAPH_WIDE":  func(v string) error { return parseBool(v, &config.Graph.Wide) },
		"GLANCELOG_GRAPH_WIDTH": func(v string) error { return parseInt(v, &config.Graph.Width) },

		// Template
		"GLANCELOG_TEMPLATE_DEPTH":        func(v string) error { return parseInt(v, &config.Template.Depth) },
		"GLANCELOG_TEMPLATE_SIMILARITY":   func(v string) error { return parseFloat(v, &config.Template.Similarity) },
		"GLANCELOG_TEMPLATE_MAX_CHILDREN": func(v string) error { return parseInt(v, &config.Template.MaxChildren) },
		"GLANCELOG_TEMPLATE_MAX_CLUSTERS": func(v string) error { return parseInt(v, &config.Template.MaxClusters) },

		// Input
		"GLANCELOG_INPUT_FORMAT":    func(v string) error { config.Input.Format = v; return nil },
		"GLANCELOG_INPUT_MAX_LINES": func(v string) error { return parseInt(v, &config.Input.MaxLines) },

		// Output
		"GLANCELOG_OUTPUT_DEFAULT_FORMAT":   func(v string) error { config.Output.DefaultFormat = v; return nil },
		"GLANCELOG_OUTPUT_COLOR_MODE":       func(v string) error { config.Output.ColorMode = v; return nil },
		"GLANCELOG_OUTPUT_VERBOSE":          func(v string) error { return parseBool(v, &config.Output.Verbose) },
		"GLANCELOG_OUTPUT_TIMESTAMP_FORMAT": func(v string) error { config.Output.TimestampFormat = v; return nil },

		// Watch
		"GLANCELOG_WATCH_MODE":     func(v string) error { config.Watch.Mode = v; return nil },
		"GLANCELOG_WATCH_DEBOUNCE": func(v string) error { return parseDuration(v, &config.Watch.Debounce) },
	}

	for envVar, setter := range envMappings {
		if value := l.getenv(envVar); value != "" {
			if err := setter(value); err != nil {
				return fmt.Errorf("invalid value for %s: %w", envVar, err)
			}
		}
	}

	return nil
}

// GetConfigPaths returns the list of configuration file paths that will be searched
func GetConfigPaths() []string {
	paths := make([]string, 0, len(ConfigPaths))
	for _, path := range ConfigPaths {
		paths = append(paths, expandPath(path))
	}
	return paths
}

// FindConfigFile finds the first existing config file in the search paths
func FindConfigFile() (string, bool) {
	for _, path := range ConfigPaths {
		expandedPath := expandPath(path)
		if fileExists(expandedPath) {
			return expandedPath, true
		}
	}
	return "", false
}

// Helper functions

// validateConfigPath validates that a config path is safe to read
func validateConfigPath(path string) error {
	// Clean the path to resolve any ".." components
	cleanPath := filepath.Clean(path)

	// Check for path traversal attempts
	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("path traversal not allowed")
	}

	// Ensure it's a YAML file
	ext := strings.ToLower(filepath.Ext(cleanPath))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("config file must have .yaml or .yml extension")
	}

	// Convert to absolute path for additional validation
	absPath, err := filepath.Abs(cleanPath)
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	// Basic sanity check - ensure it's not in sensitive system directories
	if strings.HasPrefix(absPath, "/etc/passwd") ||
		strings.HasPrefix(absPath, "/etc/shadow") ||
		strings.HasPrefix(absPath, "/proc/") ||
		strings.HasPrefix(absPath, "/sys/") {
		return fmt.Errorf("access to system files not allowed")
	}

	return nil
}

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

// fileExists checks if a file exists
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// mergeConfigs merges source config into destination config
// Only non-zero values from source overwrite destination
func mergeConfigs(dst, src *Config) {
	if src.Version != "" {
		dst.Version = src.Version
	}

	mergeFilterConfig(&dst.Filters, &src.Filters)
	mergeHashConfig(&dst.Hash, &src.Hash)
	mergeGraphConfig(&dst.Graph, &src.Graph)
	mergeTemplateConfig(&dst.Template, &src.Template)
	mergeInputConfig(&dst.Input, &src.Input)
	mergeOutputConfig(&dst.Output, &src.Output)
	mergeWatchConfig(&dst.Watch, &src.Watch)
}

// mergeFilterConfig merges filter configuration
func mergeFilterConfig(dst, src *FilterConfig) {
	if src.Directory != "" {
		dst.Directory = src.Directory
	}
	mergeIfSet(&dst.Disabled, src.Disabled)
}

// mergeHashConfig merges pattern mode configuration
func mergeHashConfig(dst, src *HashConfig) {
	if src.LowCount != 0 {
		dst.LowCount = src.LowCount
	}
	if src.Sampling != "" {
		dst.Sampling = src.Sampling
	}
}

// mergeGraphConfig merges graph configuration
func mergeGraphConfig(dst, src *GraphConfig) {
	if src.Unit != "" {
		dst.Unit = src.Unit
	}
	if src.Tick != "" {
		dst.Tick = src.Tick
	}
	if src.Width != 0 {
		dst.Width = src.Width
	}
	mergeIfSet(&dst.Wide, src.Wide)
}

// mergeTemplateConfig merges template miner configuration
func mergeTemplateConfig(dst, src *analyzer.TemplateConfig) {
	if src.Depth != 0 {
		dst.Depth = src.Depth
	}
	if src.Similarity != 0 {
		dst.Similarity = src.Similarity
	}
	if src.MaxChildren != 0 {
		dst.MaxChildren = src.MaxChildren
	}
	if src.MaxClusters != 0 {
		dst.MaxClusters = src.MaxClusters
	}
}

// mergeInputConfig merges input configuration
func mergeInputConfig(dst, src *InputConfig) {
	if src.Format != "" {
		dst.Format = src.Format
	}
	if src.MaxLines != 0 {
		dst.MaxLines = src.MaxLines
	}
}

// mergeOutputConfig merges output configuration
func mergeOutputConfig(dst, src *OutputConfig) {
	if src.DefaultFormat != "" {
		dst.DefaultFormat = src.DefaultFormat
	}
	if src.ColorMode != "" {
		dst.ColorMode = src.ColorMode
	}
	if src.TimestampFormat != "" {
		dst.TimestampFormat = src.TimestampFormat
	}
	mergeIfSet(&dst.Verbose, src.Verbose)
}

// mergeWatchConfig merges watch configuration
func mergeWatchConfig(dst, src *WatchConfig) {
	if src.Mode != "" {
		dst.Mode = src.Mode
	}
	if src.Debounce != 0 {
		dst.Debounce = src.Debounce
	}
}

// mergeIfSet turns a boolean on when the file sets it. Every boolean
// defaults to false, so a file can only enable them; env overrides can do both.
func mergeIfSet(dst *bool, src bool) {
	if src {
		*dst = true
	}
}

// Type conversion helpers

func parseInt(s string, dst *int) error {
	val, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*dst = val
	return nil
}

func parseBool(s string, dst *bool) error {
	val, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	*dst = val
	return nil
}

func parseFloat(s string, dst *float64) error {
	val, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*dst = val
	return nil
}

func parseDuration(s string, dst *time.Duration) error {
	val, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*dst = val
	return nil
}
