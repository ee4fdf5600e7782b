// internal/config/config.go
//
// This package handles configuration and the .dutyroster directory structure.
// Every machine the tool runs on gets a .dutyroster/ folder created in the
// working directory.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DataDir is the name of the directory we create next to the binary
	DataDir = ".dutyroster"

	defaultFreshnessMinutes = 5
	defaultMinSicilLength   = 5
	defaultAdminPhone       = "905383819261"
)

const defaultConfigYAML = `# dutyroster configuration
version: 1

directory:
  # CSV export URL of the personnel sheet. Leave empty to run from the
  # local mirror only.
  feed_url: ""
  # How long a fetched directory snapshot stays fresh, in minutes.
  freshness_minutes: 5
  # Lookups fire automatically once this many characters are typed.
  min_sicil_length: 5

share:
  # Coordinator number for the direct share action, digits only.
  admin_phone: "905383819261"
`

// DirectoryConfig controls the personnel feed client.
type DirectoryConfig struct {
	FeedURL          string `yaml:"feed_url"`
	FreshnessMinutes int    `yaml:"freshness_minutes"`
	MinSicilLength   int    `yaml:"min_sicil_length"`
}

// ShareConfig controls the share actions.
type ShareConfig struct {
	AdminPhone string `yaml:"admin_phone"`
}

// FileConfig models .dutyroster/config.yaml.
type FileConfig struct {
	Version   int             `yaml:"version"`
	Directory DirectoryConfig `yaml:"directory"`
	Share     ShareConfig     `yaml:"share"`
}

// Config holds the runtime configuration for dutyroster.
type Config struct {
	// BaseDir is the directory where the user ran `dutyroster` from
	BaseDir string

	// DataRoot is BaseDir/.dutyroster
	DataRoot string

	File FileConfig
}

// InitDataDir creates the .dutyroster directory structure in the given base
// directory. This is called when the TUI starts up.
//
// Structure created:
// .dutyroster/
// ├── logs/      <- journey log and data-layer log
// ├── exports/   <- written workbook artifacts
// └── state/     <- session snapshot between runs
func InitDataDir(baseDir string) error {
	dataRoot := filepath.Join(baseDir, DataDir)

	dirs := []string{
		filepath.Join(dataRoot, "logs"),
		filepath.Join(dataRoot, "exports"),
		filepath.Join(dataRoot, "state"),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	return ensureConfigFile(filepath.Join(dataRoot, "config.yaml"))
}

// NewConfig creates a new Config instance populated from .dutyroster/config.yaml,
// with environment overrides applied on top:
//
//	DUTYROSTER_FEED_URL
//	DUTYROSTER_FRESHNESS_MINUTES
//	DUTYROSTER_ADMIN_PHONE
func NewConfig(baseDir string) (*Config, error) {
	cfg := &Config{
		BaseDir:  baseDir,
		DataRoot: filepath.Join(baseDir, DataDir),
		File:     defaultFileConfig(),
	}

	if err := cfg.loadFileConfig(); err != nil {
		return nil, err
	}
	cfg.applyEnv()

	if err := cfg.File.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// DatabasePath returns the location of the SQLite file.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataRoot, "dutyroster.db")
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.DataRoot, "logs")
}

// ExportsDir returns the directory workbook files are written to
func (c *Config) ExportsDir() string {
	return filepath.Join(c.DataRoot, "exports")
}

// SessionPath returns the location of the session snapshot file.
func (c *Config) SessionPath() string {
	return filepath.Join(c.DataRoot, "state", "session.json")
}

// ConfigPath returns the on-disk location for the config file.
func (c *Config) ConfigPath() string {
	return filepath.Join(c.DataRoot, "config.yaml")
}

// FeedURL returns the configured personnel feed URL, empty when offline.
func (c *Config) FeedURL() string {
	return c.File.Directory.FeedURL
}

// Freshness returns the directory snapshot freshness window.
func (c *Config) Freshness() time.Duration {
	return time.Duration(c.File.Directory.FreshnessMinutes) * time.Minute
}

// MinSicilLength returns the auto-lookup threshold.
func (c *Config) MinSicilLength() int {
	return c.File.Directory.MinSicilLength
}

// AdminPhone returns the coordinator number for direct sharing.
func (c *Config) AdminPhone() string {
	return c.File.Share.AdminPhone
}

func (c *Config) loadFileConfig() error {
	path := c.ConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var parsed FileConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	c.File = parsed
	return nil
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv("DUTYROSTER_FEED_URL")); v != "" {
		c.File.Directory.FeedURL = v
	}
	if v := strings.TrimSpace(os.Getenv("DUTYROSTER_FRESHNESS_MINUTES")); v != "" {
		if minutes, err := strconv.Atoi(v); err == nil && minutes > 0 {
			c.File.Directory.FreshnessMinutes = minutes
		}
	}
	if v := strings.TrimSpace(os.Getenv("DUTYROSTER_ADMIN_PHONE")); v != "" {
		c.File.Share.AdminPhone = v
	}
}

func defaultFileConfig() FileConfig {
	return FileConfig{
		Version: 1,
		Directory: DirectoryConfig{
			FreshnessMinutes: defaultFreshnessMinutes,
			MinSicilLength:   defaultMinSicilLength,
		},
		Share: ShareConfig{
			AdminPhone: defaultAdminPhone,
		},
	}
}

func (fc *FileConfig) applyDefaults() {
	if fc.Version == 0 {
		fc.Version = 1
	}
	if fc.Directory.FreshnessMinutes == 0 {
		fc.Directory.FreshnessMinutes = defaultFreshnessMinutes
	}
	if fc.Directory.MinSicilLength == 0 {
		fc.Directory.MinSicilLength = defaultMinSicilLength
	}
	if strings.TrimSpace(fc.Share.AdminPhone) == "" {
		fc.Share.AdminPhone = defaultAdminPhone
	}
	fc.Directory.FeedURL = strings.TrimSpace(fc.Directory.FeedURL)
	fc.Share.AdminPhone = strings.TrimSpace(fc.Share.AdminPhone)
}

func (fc FileConfig) validate() error {
	if fc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	if fc.Directory.FreshnessMinutes < 1 {
		return fmt.Errorf("directory.freshness_minutes must be >= 1")
	}
	if fc.Directory.MinSicilLength < 1 {
		return fmt.Errorf("directory.min_sicil_length must be >= 1")
	}
	return nil
}

func ensureConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0644)
}
