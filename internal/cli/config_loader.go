package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"mediashelf/internal/config"
	"mediashelf/internal/logging"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	envPrefix         = "MEDIASHELF"
	defaultConfigPath = "config.toml"
)

// flagKeys maps persistent flags onto configuration keys.
var flagKeys = map[string]string{
	"log-level":     "logging.level",
	"library-root":  "library.root",
	"db-path":       "database.path",
	"audit-enabled": "logging.audit_enabled",
}

// loadConfig builds the configuration from defaults, the TOML file, the
// environment and the command line, in increasing precedence.
func (options *GlobalOptions) loadConfig(cmd *cobra.Command) error {
	path := options.CfgFilePath
	if envPath := os.Getenv(envPrefix + "_CONFIG_PATH"); envPath != "" && !cmd.Flags().Changed("config_path") {
		path = envPath
	}
	loadDotEnv(path)

	v, err := newViper(cmd.Flags())
	if err != nil {
		return err
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load configuration from %s: %w", path, err)
		}
		if path != defaultConfigPath {
			return fmt.Errorf("configuration file %s: %w", path, err)
		}
	}

	conf := &config.Config{}
	if err := v.Unmarshal(conf); err != nil {
		return fmt.Errorf("failed to decode configuration: %w", err)
	}
	if err := conf.ParseAndValidate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logging.Init(conf.Logging)
	logging.Log.Debugf("Configuration loaded (file: %s)", v.ConfigFileUsed())

	options.CfgFilePath = path
	options.Conf = conf
	return nil
}

// newViper returns a viper instance with every configuration key defaulted,
// bound to MEDIASHELF_* environment variables and to the given flags.
func newViper(flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigType("toml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unmarshal only sees environment values for keys viper already knows.
	d := config.Default()
	v.SetDefault("library.root", d.Library.Root)
	v.SetDefault("library.thumbnail_dir", d.Library.ThumbnailDir)
	v.SetDefault("library.page_size", d.Library.PageSize)
	v.SetDefault("library.discard_duplicates", d.Library.DiscardDuplicates)
	v.SetDefault("library.rescan_interval", d.Library.RescanInterval)
	v.SetDefault("library.short_video_max_size", d.Library.ShortVideoMaxSize)
	v.SetDefault("database.path", d.Database.Path)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("logging.audit_enabled", d.Logging.AuditEnabled)
	v.SetDefault("logging.rotation.max_size_mb", d.Logging.Rotation.MaxSizeMB)
	v.SetDefault("logging.rotation.max_backups", d.Logging.Rotation.MaxBackups)
	v.SetDefault("logging.rotation.max_age_days", d.Logging.Rotation.MaxAgeDays)
	v.SetDefault("logging.rotation.compress", d.Logging.Rotation.Compress)
	v.SetDefault("media.ffmpeg_path", d.Media.FFmpegPath)
	v.SetDefault("media.thumbnail_width", d.Media.ThumbnailWidth)

	for flag, key := range flagKeys {
		f := flags.Lookup(flag)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return nil, fmt.Errorf("failed to bind flag %s: %w", flag, err)
		}
	}
	return v, nil
}

// loadDotEnv loads .env files from the working directory and from the
// directory of the config file. Missing files are ignored and variables
// already set in the environment win.
func loadDotEnv(configPath string) {
	envFiles := []string{".env", ".env.local"}
	dirs := []string{"."}
	if dir := filepath.Dir(configPath); dir != "." {
		dirs = append(dirs, dir)
	}
	for _, dir := range dirs {
		for _, envFile := range envFiles {
			_ = godotenv.Load(filepath.Join(dir, envFile))
		}
	}
}
