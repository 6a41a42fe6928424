package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Unscheduled-job eligibility policies. "today" checks the picker's weekday
// rule against the current date when a job has no start time; "any" skips the
// weekday check entirely for unscheduled jobs.
const (
	UnscheduledToday = "today"
	UnscheduledAny   = "any"
)

// Config models dispatch.yml.
type Config struct {
	Timezone string `yaml:"timezone"` // IANA name; empty means local
	Picker   struct {
		UnscheduledPolicy string `yaml:"unscheduled_policy"`
	} `yaml:"picker"`
	Activity struct {
		MaxEntries int `yaml:"max_entries"`
	} `yaml:"activity"`
	Geocode struct {
		APIKey   string `yaml:"api_key"`
		Fallback struct {
			Enabled bool    `yaml:"enabled"`
			Lat     float64 `yaml:"lat"`
			Lng     float64 `yaml:"lng"`
		} `yaml:"fallback"`
	} `yaml:"geocode"`
	Server struct {
		Addr     string `yaml:"addr"`
		BasePath string `yaml:"base_path"`
	} `yaml:"server"`
	Sweep struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"sweep"`
}

// Load reads and validates config from the workspace, falling back to
// defaults when dispatch.yml does not exist.
func Load(workspace string) (*Config, error) {
	cfg, err := LoadOptional(workspace)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return Default(), nil
	}
	return cfg, nil
}

// LoadOptional returns nil,nil if the config file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	data, err := os.ReadFile(Path(workspace))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "dispatch.yml")
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	switch c.Picker.UnscheduledPolicy {
	case UnscheduledToday, UnscheduledAny:
	default:
		return fmt.Errorf("config.picker.unscheduled_policy must be %q or %q", UnscheduledToday, UnscheduledAny)
	}
	if c.Activity.MaxEntries <= 0 {
		return fmt.Errorf("config.activity.max_entries must be positive")
	}
	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			return fmt.Errorf("config.timezone: %w", err)
		}
	}
	fb := c.Geocode.Fallback
	if fb.Enabled {
		if fb.Lat < -90 || fb.Lat > 90 {
			return fmt.Errorf("config.geocode.fallback.lat out of range")
		}
		if fb.Lng < -180 || fb.Lng > 180 {
			return fmt.Errorf("config.geocode.fallback.lng out of range")
		}
	}
	return nil
}

// Location resolves the configured timezone, falling back to local time.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Default returns the default Config struct.
func Default() *Config {
	var cfg Config
	_ = yaml.Unmarshal([]byte(defaultTemplate), &cfg)
	return &cfg
}

// GenerateDefault returns default config YAML.
func GenerateDefault() string {
	return defaultTemplate
}

const defaultTemplate = `timezone: ""

picker:
  # Eligibility for unscheduled jobs checks against today's weekday ("today")
  # or skips the weekday check ("any").
  unscheduled_policy: today

activity:
  max_entries: 200

geocode:
  api_key: ""
  fallback:
    enabled: true
    lat: 34.0522
    lng: -118.2437

server:
  addr: 127.0.0.1:8080
  base_path: /v1

sweep:
  enabled: true
`
