// filepath: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"mediashelf/internal/shared"

	"github.com/BurntSushi/toml"
)

// Config holds the application's configuration.
type Config struct {
	Library  LibraryConfig  `toml:"library" mapstructure:"library"`
	Database DatabaseConfig `toml:"database" mapstructure:"database"`
	Logging  LoggingConfig  `toml:"logging" mapstructure:"logging"`
	Media    MediaConfig    `toml:"media" mapstructure:"media"`

	ShortVideoMaxBytes int64 `toml:"-" mapstructure:"-"` // Runtime computed value
}

// LibraryConfig describes the media library on disk and how it is listed.
type LibraryConfig struct {
	Root              string `toml:"root" mapstructure:"root"`
	ThumbnailDir      string `toml:"thumbnail_dir" mapstructure:"thumbnail_dir"`
	PageSize          int    `toml:"page_size" mapstructure:"page_size"`
	DiscardDuplicates bool   `toml:"discard_duplicates" mapstructure:"discard_duplicates"`
	RescanInterval    string `toml:"rescan_interval" mapstructure:"rescan_interval"`          // e.g. "1d", "0" disables
	ShortVideoMaxSize string `toml:"short_video_max_size" mapstructure:"short_video_max_size"` // e.g. "5MB"
}

// DatabaseConfig holds the database configuration.
type DatabaseConfig struct {
	Path string `toml:"path" mapstructure:"path"`
}

// LoggingConfig holds the logging configuration.
type LoggingConfig struct {
	Level        string         `toml:"level" mapstructure:"level"`
	File         string         `toml:"file" mapstructure:"file"`
	AuditEnabled bool           `toml:"audit_enabled" mapstructure:"audit_enabled"`
	Rotation     RotationConfig `toml:"rotation" mapstructure:"rotation"`
}

// RotationConfig controls the rotation of the log file, when one is configured.
type RotationConfig struct {
	MaxSizeMB  int  `toml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int  `toml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int  `toml:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool `toml:"compress" mapstructure:"compress"`
}

// MediaConfig holds media processing settings.
type MediaConfig struct {
	FFmpegPath     string `toml:"ffmpeg_path" mapstructure:"ffmpeg_path"`
	ThumbnailWidth int    `toml:"thumbnail_width" mapstructure:"thumbnail_width"`
}

// Default returns a configuration with every value set to its default.
func Default() *Config {
	return &Config{
		Library: LibraryConfig{
			Root:              "library",
			ThumbnailDir:      "thumbnail",
			PageSize:          48,
			RescanInterval:    "0",
			ShortVideoMaxSize: "5MB",
		},
		Database: DatabaseConfig{
			Path: "mediashelf.db",
		},
		Logging: LoggingConfig{
			Level: "info",
			Rotation: RotationConfig{
				MaxSizeMB:  100,
				MaxBackups: 3,
				MaxAgeDays: 28,
			},
		},
		Media: MediaConfig{
			ThumbnailWidth: 300,
		},
	}
}

// LoadConfig loads the configuration from a TOML file on top of the defaults.
func LoadConfig(path string) (*Config, error) {
	config := Default()
	if _, err := toml.DecodeFile(path, config); err != nil {
		return nil, err
	}
	return config, nil
}

// SaveConfig writes the configuration to a TOML file.
func SaveConfig(path string, cfg *Config) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrorCreateFile, err)
	}
	defer f.Close()
	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrorEncodeFile, err)
	}
	return nil
}

// ParseAndValidate processes configuration strings into runtime values.
// It sets defaults if values are missing and parses human-readable sizes.
func (c *Config) ParseAndValidate() error {
	defaults := Default()

	if strings.TrimSpace(c.Library.Root) == "" {
		return fmt.Errorf("library.root must not be empty")
	}
	if c.Library.ThumbnailDir == "" {
		c.Library.ThumbnailDir = defaults.Library.ThumbnailDir
	}
	if filepath.IsAbs(c.Library.ThumbnailDir) || strings.Contains(c.Library.ThumbnailDir, "..") {
		return fmt.Errorf("invalid thumbnail_dir: must be a directory name inside the library root")
	}
	if c.Library.PageSize == 0 {
		c.Library.PageSize = defaults.Library.PageSize
	}
	if c.Library.PageSize < 0 {
		return fmt.Errorf("invalid page_size: %d", c.Library.PageSize)
	}
	if c.Library.RescanInterval == "" {
		c.Library.RescanInterval = defaults.Library.RescanInterval
	}
	if _, err := shared.ParseDuration(c.Library.RescanInterval); err != nil {
		return fmt.Errorf("invalid rescan_interval: %w", err)
	}
	if c.Library.ShortVideoMaxSize == "" {
		c.Library.ShortVideoMaxSize = defaults.Library.ShortVideoMaxSize
	}
	sizeBytes, err := shared.ParseSize(c.Library.ShortVideoMaxSize)
	if err != nil {
		return fmt.Errorf("invalid short_video_max_size: %w", err)
	}
	c.ShortVideoMaxBytes = sizeBytes

	if c.Database.Path == "" {
		c.Database.Path = defaults.Database.Path
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaults.Logging.Level
	}
	if c.Media.ThumbnailWidth <= 0 {
		c.Media.ThumbnailWidth = defaults.Media.ThumbnailWidth
	}

	return nil
}
