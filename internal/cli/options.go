package cli

import (
	"log/slog"
	"strings"

	"github.com/aretw0/apc/internal/config"
)

// Options carries the flags shared by every command.
type Options struct {
	// Dir is the project directory; relative store paths resolve against it.
	Dir string
	// ConfigPath defaults to <Dir>/.apc/config.yaml.
	ConfigPath string
	// Overrides are --set key=value pairs applied after the file.
	Overrides []string
	Debug     bool
}

// LoadConfig reads the configuration file and applies the overrides.
func (o Options) LoadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.configPath())
	if err != nil {
		return nil, err
	}
	overrides, err := config.ParseOverrides(o.Overrides)
	if err != nil {
		return nil, err
	}
	if err := config.Apply(cfg, overrides); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (o Options) configPath() string {
	if o.ConfigPath != "" {
		return o.ConfigPath
	}
	return joinDir(o.Dir, config.DefaultPath)
}

// Logger returns a stderr logger at the configured level, or debug with --debug.
func (o Options) Logger(cfg *config.Config) *slog.Logger {
	if o.Debug {
		return createLogger(slog.LevelDebug)
	}
	return createLogger(parseLevel(cfg.LogLevel))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
