// internal/logging/logging.go
package logging

import (
	"io"
	"os"
	"strings"

	"mediashelf/internal/config"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log is the process wide logger. It is usable before Init with logrus defaults.
var Log = logrus.New()

// Init configures the global logger from the logging section of the config.
func Init(cfg config.LoggingConfig) {
	Log = NewLogger(cfg)
}

// NewLogger builds a JSON logger writing to stderr and, when a file is
// configured, to a rotating log file. Stdout is left to command output.
func NewLogger(cfg config.LoggingConfig) *logrus.Logger {
	var log = logrus.New()

	log.SetFormatter(&logrus.JSONFormatter{})

	var out io.Writer = os.Stderr
	if cfg.File != "" {
		out = io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.Rotation.MaxSizeMB,
			MaxBackups: cfg.Rotation.MaxBackups,
			MaxAge:     cfg.Rotation.MaxAgeDays,
			Compress:   cfg.Rotation.Compress,
		})
	}
	log.SetOutput(out)
	log.SetLevel(ParseLevel(cfg.Level))
	return log
}

// ParseLevel maps a config level name to a logrus level, defaulting to info.
func ParseLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "trace":
		return logrus.TraceLevel
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}
