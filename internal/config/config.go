package config

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"

	"github.com/moorline-data/siteplan/internal/units"
)

// DefaultConfigPath is the path to the canonical defaults file.
// This is the single source of truth for all default configuration values.
const DefaultConfigPath = "config/siteplan.defaults.json"

// Config holds the application configuration. All fields are pointers so
// a partial JSON file only overrides what it names; the Get* methods
// supply defaults for everything else.
type Config struct {
	// Storage
	DBPath     *string `json:"db_path,omitempty"`
	PackingDir *string `json:"packing_dir,omitempty"`

	// Server
	Listen *string `json:"listen,omitempty"`
	Units  *string `json:"units,omitempty"`

	// Selection defaults
	JitterRadius   *float64 `json:"jitter_radius,omitempty"`
	GroupNeighbors *bool    `json:"group_neighbors,omitempty"`
	RandomSeed     *int64   `json:"random_seed,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt64(v int64) *int64       { return &v }

// EmptyConfig returns a Config with all fields set to nil.
// Use LoadConfig to load actual values from a file.
func EmptyConfig() *Config {
	return &Config{}
}

// DefaultConfig returns a Config with every field populated with its
// default value.
func DefaultConfig() *Config {
	return &Config{
		DBPath:         ptrString("siteplan.db"),
		PackingDir:     ptrString("packings"),
		Listen:         ptrString(":8080"),
		Units:          ptrString(units.Meters),
		JitterRadius:   ptrFloat64(0),
		GroupNeighbors: ptrBool(false),
		RandomSeed:     ptrInt64(0),
	}
}

// LoadConfig loads a Config from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
// Fields omitted from the JSON file retain their default values, so
// partial configs are safe.
func LoadConfig(path string) (*Config, error) {
	// Validate the config file path.
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse JSON into empty config. The Get* methods provide fallback
	// defaults for any fields not specified in the JSON.
	cfg := EmptyConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *Config {
	// Try paths from current dir up to repo root
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *Config) Validate() error {
	if c.JitterRadius != nil && *c.JitterRadius < 0 {
		return fmt.Errorf("jitter_radius must be non-negative, got %f", *c.JitterRadius)
	}

	if c.Units != nil && !units.IsValid(*c.Units) {
		return fmt.Errorf("invalid units %q, must be one of: %s", *c.Units, units.GetValidUnitsString())
	}

	if c.Listen != nil && *c.Listen != "" {
		if _, _, err := net.SplitHostPort(*c.Listen); err != nil {
			return fmt.Errorf("invalid listen address %q: %w", *c.Listen, err)
		}
	}

	if c.DBPath != nil && *c.DBPath == "" {
		return fmt.Errorf("db_path must not be empty when set")
	}

	return nil
}

// GetDBPath returns the db_path value or the default.
func (c *Config) GetDBPath() string {
	if c.DBPath == nil || *c.DBPath == "" {
		return "siteplan.db" // default
	}
	return *c.DBPath
}

// GetPackingDir returns the packing_dir value or the default.
func (c *Config) GetPackingDir() string {
	if c.PackingDir == nil || *c.PackingDir == "" {
		return "packings" // default
	}
	return *c.PackingDir
}

// GetListen returns the listen value or the default.
func (c *Config) GetListen() string {
	if c.Listen == nil || *c.Listen == "" {
		return ":8080" // default
	}
	return *c.Listen
}

// GetUnits returns the units value or the default.
func (c *Config) GetUnits() string {
	if c.Units == nil || *c.Units == "" {
		return units.Meters // default
	}
	return *c.Units
}

// GetJitterRadius returns the jitter_radius value or the default.
func (c *Config) GetJitterRadius() float64 {
	if c.JitterRadius == nil {
		return 0 // default: no jitter
	}
	return *c.JitterRadius
}

// GetGroupNeighbors returns the group_neighbors value or the default.
func (c *Config) GetGroupNeighbors() bool {
	if c.GroupNeighbors == nil {
		return false // default: single nearest site per target
	}
	return *c.GroupNeighbors
}

// GetRandomSeed returns the random_seed value or the default.
// Zero means seed from the clock at startup.
func (c *Config) GetRandomSeed() int64 {
	if c.RandomSeed == nil {
		return 0
	}
	return *c.RandomSeed
}
