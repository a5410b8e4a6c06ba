package config

import (
	"fmt"
	"time"

	"github.com/yildizm/glancelog/internal/analyzer"
	"github.com/yildizm/glancelog/internal/common"
)

// Config holds the complete application configuration
type Config struct {
	Version  string                  `yaml:"version" json:"version"`
	Filters  FilterConfig            `yaml:"filters" json:"filters"`
	Hash     HashConfig              `yaml:"hash" json:"hash"`
	Graph    GraphConfig             `yaml:"graph" json:"graph"`
	Template analyzer.TemplateConfig `yaml:"template" json:"template"`
	Input    InputConfig             `yaml:"input" json:"input"`
	Output   OutputConfig            `yaml:"output" json:"output"`
	Watch    WatchConfig             `yaml:"watch" json:"watch"`
}

// FilterConfig configures where stopword filters come from
type FilterConfig struct {
	Directory string `yaml:"directory" json:"directory"` // searched before every other location
	Disabled  bool   `yaml:"disabled" json:"disabled"`   // same as --nofilter
}

// HashConfig configures the pattern modes
type HashConfig struct {
	LowCount int    `yaml:"lowcount" json:"lowcount"` // sample threshold
	Sampling string `yaml:"sampling" json:"sampling"` // threshold|none|all
}

// GraphConfig configures time bucket graphs
type GraphConfig struct {
	Unit  string `yaml:"unit" json:"unit"` // second|minute|hour|day|month|year
	Tick  string `yaml:"tick" json:"tick"`
	Wide  bool   `yaml:"wide" json:"wide"`
	Width int    `yaml:"width" json:"width"`
}

// InputConfig configures parsing
type InputConfig struct {
	Format   string `yaml:"format" json:"format"`       // auto or a dialect name
	MaxLines int    `yaml:"max_lines" json:"max_lines"` // 0 reads everything
}

// OutputConfig configures output formatting and display
type OutputConfig struct {
	DefaultFormat   string `yaml:"default_format" json:"default_format"`     // text|json|markdown|csv|msgpack
	ColorMode       string `yaml:"color_mode" json:"color_mode"`             // auto|always|never
	Verbose         bool   `yaml:"verbose" json:"verbose"`                   // default verbosity
	TimestampFormat string `yaml:"timestamp_format" json:"timestamp_format"` // time format string
}

// WatchConfig configures the watch command
type WatchConfig struct {
	Mode     string        `yaml:"mode" json:"mode"`         // hash|graph
	Debounce time.Duration `yaml:"debounce" json:"debounce"` // quiet period before re-running
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Version: "1.0",
		Filters: FilterConfig{
			Directory: "",
			Disabled:  false,
		},
		Hash: HashConfig{
			LowCount: analyzer.DefaultThreshold,
			Sampling: "threshold",
		},
		Graph: GraphConfig{
			Unit:  string(analyzer.UnitMinute),
			Tick:  analyzer.DefaultTick,
			Wide:  false,
			Width: analyzer.DefaultWidth,
		},
		Template: analyzer.DefaultTemplateConfig(),
		Input: InputConfig{
			Format:   "auto",
			MaxLines: 0,
		},
		Output: OutputConfig{
			DefaultFormat:   "text",
			ColorMode:       "auto",
			Verbose:         false,
			TimestampFormat: "2006-01-02T15:04:05",
		},
		Watch: WatchConfig{
			Mode:     "hash",
			Debounce: 500 * time.Millisecond,
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.validateHashConfig(); err != nil {
		return err
	}
	if err := c.validateGraphConfig(); err != nil {
		return err
	}
	if err := c.validateTemplateConfig(); err != nil {
		return err
	}
	if err := c.validateInputConfig(); err != nil {
		return err
	}
	if err := c.validateOutputConfig(); err != nil {
		return err
	}
	return c.validateWatchConfig()
}

// validateHashConfig validates pattern mode configuration
func (c *Config) validateHashConfig() error {
	if c.Hash.LowCount < 1 {
		return fmt.Errorf("hash.lowcount must be greater than 0")
	}
	if _, err := analyzer.ParseSampling(c.Hash.Sampling); err != nil {
		return fmt.Errorf("invalid hash.sampling: %s (must be one of: threshold, none, all)", c.Hash.Sampling)
	}
	return nil
}

// validateGraphConfig validates graph configuration
func (c *Config) validateGraphConfig() error {
	if _, err := analyzer.ParseUnit(c.Graph.Unit); err != nil {
		return fmt.Errorf("invalid graph.unit: %s (must be one of: second, minute, hour, day, month, year)", c.Graph.Unit)
	}
	if c.Graph.Width < 1 {
		return fmt.Errorf("graph.width must be greater than 0")
	}
	if c.Graph.Tick == "" {
		return fmt.Errorf("graph.tick must not be empty")
	}
	return nil
}

// validateTemplateConfig validates template miner configuration
func (c *Config) validateTemplateConfig() error {
	if c.Template.Depth < 3 {
		return fmt.Errorf("template.depth must be at least 3")
	}
	if c.Template.Similarity <= 0 || c.Template.Similarity > 1 {
		return fmt.Errorf("template.similarity must be in (0, 1]")
	}
	if c.Template.MaxChildren < 1 {
		return fmt.Errorf("template.max_children must be greater than 0")
	}
	if c.Template.MaxClusters < 0 {
		return fmt.Errorf("template.max_clusters must be non-negative")
	}
	return nil
}

// validateInputConfig validates input configuration
func (c *Config) validateInputConfig() error {
	if c.Input.Format != "" && c.Input.Format != "auto" {
		if _, err := common.ParseFormat(c.Input.Format); err != nil {
			return fmt.Errorf("invalid input.format: %w", err)
		}
	}
	if c.Input.MaxLines < 0 {
		return fmt.Errorf("input.max_lines must be non-negative")
	}
	return nil
}

// validateOutputConfig validates output-related configuration
func (c *Config) validateOutputConfig() error {
	if c.Output.DefaultFormat != "" {
		validFormats := map[string]bool{
			"json":     true,
			"text":     true,
			"markdown": true,
			"csv":      true,
			"msgpack":  true,
		}
		if !validFormats[c.Output.DefaultFormat] {
			return fmt.Errorf("invalid output format: %s (must be one of: text, json, markdown, csv, msgpack)", c.Output.DefaultFormat)
		}
	}
	if c.Output.ColorMode != "" {
		validColorModes := map[string]bool{
			"auto":   true,
			"always": true,
			"never":  true,
		}
		if !validColorModes[c.Output.ColorMode] {
			return fmt.Errorf("invalid color mode: %s (must be one of: auto, always, never)", c.Output.ColorMode)
		}
	}
	return nil
}

// validateWatchConfig validates watch configuration
func (c *Config) validateWatchConfig() error {
	if c.Watch.Mode != "" && c.Watch.Mode != "hash" && c.Watch.Mode != "graph" {
		return fmt.Errorf("invalid watch.mode: %s (must be hash or graph)", c.Watch.Mode)
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must be non-negative")
	}
	return nil
}
