package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"sliderlabel/pkg/anneal"
)

// Config holds the application configuration.
type Config struct {
	Label  LabelConfig  `yaml:"label"`
	Anneal AnnealConfig `yaml:"anneal"`
	Log    LogConfig    `yaml:"log"`
	DB     DBConfig     `yaml:"db"`
	Server ServerConfig `yaml:"server"`
	Output OutputConfig `yaml:"output"`
}

// LabelConfig holds the geometry shared by every label.
type LabelConfig struct {
	Width  int `yaml:"width"`  // slide band width and label width
	Height int `yaml:"height"` // label height
}

// AnnealConfig holds the annealing tuning.
type AnnealConfig struct {
	Seed             uint64   `yaml:"seed"`               // 0 picks a random seed per run
	SmallInstanceMax int      `yaml:"small_instance_max"` // up to this many points use the small preset
	HugeInstanceMin  int      `yaml:"huge_instance_min"`  // from this many points use the huge preset (0 disables)
	OverlapFraction  string   `yaml:"overlap_fraction"`   // strategy for the large and huge presets
	MaxIterations    int      `yaml:"max_iterations"`     // 0 means unlimited
	MaxRuntime       Duration `yaml:"max_runtime"`        // 0 means unlimited
}

// LogConfig holds logging settings.
type LogConfig struct {
	Server LogSettings `yaml:"server"`
	Runs   LogSettings `yaml:"runs"`
	Trace  bool        `yaml:"trace"` // log every annealing move at DEBUG
}

// LogSettings holds settings for a specific logger.
type LogSettings struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level"`
}

// DBConfig holds database settings.
type DBConfig struct {
	Path      string   `yaml:"path"`
	Retention Duration `yaml:"retention"` // runs older than this are pruned at startup, 0 keeps all
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address string `yaml:"address"`
}

// OutputConfig holds settings for written results.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Label: LabelConfig{
			Width:  60,
			Height: 14,
		},
		Anneal: AnnealConfig{
			Seed:             0,
			SmallInstanceMax: 100,
			HugeInstanceMin:  10000,
			OverlapFraction:  "ratio",
			MaxIterations:    0,
			MaxRuntime:       Duration(2 * time.Minute),
		},
		Log: LogConfig{
			Server: LogSettings{
				Path:  "./logs/server.log",
				Level: "INFO",
			},
			Runs: LogSettings{
				Path:  "./logs/runs.log",
				Level: "INFO",
			},
		},
		DB: DBConfig{
			Path:      "./data/sliderlabel.db",
			Retention: Duration(30 * Day),
		},
		Server: ServerConfig{
			Address: "localhost:1921",
		},
		Output: OutputConfig{
			Dir: "./out",
		},
	}
}

// Validate checks values the annealer cannot work with.
func (c *Config) Validate() error {
	if c.Label.Width <= 0 || c.Label.Height <= 0 {
		return fmt.Errorf("invalid label size %dx%d: width and height must be positive", c.Label.Width, c.Label.Height)
	}
	if _, err := anneal.OverlapFractionByName(c.Anneal.OverlapFraction); err != nil {
		return fmt.Errorf("invalid overlap_fraction: %w", err)
	}
	if c.Anneal.SmallInstanceMax < 0 || c.Anneal.HugeInstanceMin < 0 || c.Anneal.MaxIterations < 0 {
		return fmt.Errorf("anneal thresholds and limits must not be negative")
	}
	return nil
}

// Load loads the configuration from the given path.
// If the file does not exist, it creates it with default values.
// If the file exists, it merges defaults with existing values but does NOT save back to disk.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if err := Save(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to save config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to the path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# SliderLabel Configuration
# ------------------------
# Label width doubles as the slide band width: a label may start anywhere
# from one width left of its point up to the point itself.
# Supported Units:
#   Duration: ns, us (or µs), ms, s, m, h, d (day), w (week)

`)
	data = append(header, data...)

	reFraction := regexp.MustCompile(`(?m)^(\s+)overlap_fraction:`)
	data = reFraction.ReplaceAll(data, []byte("${1}# Options: fixed, ratio, truncated-ratio\n${1}overlap_fraction:"))

	reSeed := regexp.MustCompile(`(?m)^(\s+)seed:`)
	data = reSeed.ReplaceAll(data, []byte("${1}# 0 draws a fresh seed for every run\n${1}seed:"))

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateDefault creates a default config file at the given path.
// Returns nil if the file already exists.
func GenerateDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return Save(path, DefaultConfig())
}
