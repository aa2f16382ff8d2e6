// Package config holds the scan configuration shared by the CLI and the
// web dashboard.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// AllowedThreads are the concurrency caps a run may use.
var AllowedThreads = []int{20, 50, 100}

// Config holds all configuration options for a bigbrother run. It is
// treated as immutable once a scan starts: the runner copies what it
// needs, so editing the config mid-run never affects the in-flight scan.
type Config struct {
	// Target configuration
	TargetsFile string `yaml:"targets_file"`

	// Wordlist selection: an explicit file wins over the level.
	WordlistFile  string `yaml:"wordlist_file,omitempty"`
	WordlistDir   string `yaml:"wordlist_dir"`
	WordlistLevel string `yaml:"wordlist_level"`

	// Performance
	Threads int `yaml:"threads"`

	// Resolver is an optional DNS server address. Empty means the
	// system resolver.
	Resolver string `yaml:"resolver,omitempty"`

	// Output configuration
	OutputCSV     string `yaml:"output_csv"`
	UniqueIPsFile string `yaml:"unique_ips_file"`
	OutputDir     string `yaml:"output_dir"`

	// Storage
	EnableSQLite bool `yaml:"enable_sqlite"`

	// Debug
	Debug bool `yaml:"debug,omitempty"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	// Default results directory: ~/bigbrother
	homeDir, err := os.UserHomeDir()
	outputDir := filepath.Join(homeDir, "bigbrother")
	if err != nil {
		outputDir = "./bigbrother"
	}

	return &Config{
		TargetsFile:   "resources/targets.txt",
		WordlistDir:   "resources/wordlists",
		WordlistLevel: "medium",
		Threads:       50,
		OutputCSV:     "output.csv",
		UniqueIPsFile: "unique_ips.txt",
		OutputDir:     outputDir,
		EnableSQLite:  true,
	}
}

// Validate checks the configuration before a run starts.
func (c *Config) Validate() error {
	ok := false
	for _, t := range AllowedThreads {
		if c.Threads == t {
			ok = true
			break
		}
	}
	if !ok {
		return fmt.Errorf("threads must be one of %v, got %d", AllowedThreads, c.Threads)
	}
	if c.TargetsFile == "" {
		return fmt.Errorf("targets file not configured")
	}
	return nil
}

// DefaultPath returns the conventional config file location,
// ~/.bigbrother/config.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".bigbrother", "config.yaml")
}

// Load reads a YAML config file over the defaults. A missing file is not
// an error; flags layer on top of whatever Load returns.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration as YAML, creating the directory if
// needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
