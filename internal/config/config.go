// Package config loads the apc configuration file.
//
// A missing file is not an error: every field has a default, and the file
// only needs the keys it changes. Values can then be overridden with
// dotted keys (cooldowns.micro=5) as given to --set.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/aretw0/apc/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where the CLI looks for the configuration file.
var DefaultPath = filepath.Join(".apc", "config.yaml")

// Store drivers.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverRedis  = "redis"
	DriverSQLite = "sqlite"
)

// Config is the full configuration file.
type Config struct {
	LogLevel                 string             `yaml:"log_level" mapstructure:"log_level"`
	Cooldowns                Cooldowns          `yaml:"cooldowns" mapstructure:"cooldowns"`
	Preferences              domain.Preferences `yaml:"preferences" mapstructure:"preferences"`
	ResetIterationsOnSession bool               `yaml:"reset_iterations_on_session" mapstructure:"reset_iterations_on_session"`
	Patterns                 Patterns           `yaml:"patterns" mapstructure:"patterns"`
	Prompts                  map[string]string  `yaml:"prompts" mapstructure:"prompts"`
	Store                    Store              `yaml:"store" mapstructure:"store"`
	Locker                   Locker             `yaml:"locker" mapstructure:"locker"`
	Server                   Server             `yaml:"server" mapstructure:"server"`
}

// Cooldowns are the checkpoint windows, in steps.
type Cooldowns struct {
	Micro int `yaml:"micro" mapstructure:"micro"`
	Nudge int `yaml:"nudge" mapstructure:"nudge"`
}

// Patterns are appended to the detector's built-in sets.
type Patterns struct {
	Rethink   []string `yaml:"rethink" mapstructure:"rethink"`
	Iteration []string `yaml:"iteration" mapstructure:"iteration"`
}

// Store selects where session contexts live.
type Store struct {
	Driver string `yaml:"driver" mapstructure:"driver"`
	// Path is the directory (file) or database file (sqlite).
	Path  string `yaml:"path" mapstructure:"path"`
	Redis Redis  `yaml:"redis" mapstructure:"redis"`
	// EncryptionKey is a base64 AES-256 key sealing free-text fields at rest.
	// EnvEncryptionKey takes precedence.
	EncryptionKey string `yaml:"encryption_key" mapstructure:"encryption_key"`
	// Redact lists regular expressions masked out of free-text fields before saving.
	Redact []string `yaml:"redact" mapstructure:"redact"`
}

// EnvEncryptionKey overrides store.encryption_key.
const EnvEncryptionKey = "APC_ENCRYPTION_KEY"

// Key returns the decoded encryption key, or nil when encryption is off.
func (s Store) Key() ([]byte, error) {
	encoded := s.EncryptionKey
	if env := os.Getenv(EnvEncryptionKey); env != "" {
		encoded = env
	}
	if encoded == "" {
		return nil, nil
	}
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode encryption key: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption key must be 32 bytes, got %d", len(key))
	}
	return key, nil
}

// Redis holds the connection settings for the redis driver.
type Redis struct {
	Addr     string        `yaml:"addr" mapstructure:"addr"`
	Password string        `yaml:"password" mapstructure:"password"`
	DB       int           `yaml:"db" mapstructure:"db"`
	Prefix   string        `yaml:"prefix" mapstructure:"prefix"`
	TTL      time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// Locker enables cross-process session locks.
type Locker struct {
	Redis bool          `yaml:"redis" mapstructure:"redis"`
	TTL   time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// Server configures apc serve.
type Server struct {
	Addr    string `yaml:"addr" mapstructure:"addr"`
	Metrics bool   `yaml:"metrics" mapstructure:"metrics"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Cooldowns: Cooldowns{
			Micro: domain.DefaultMicroCooldown,
			Nudge: domain.DefaultNudgeCooldown,
		},
		Preferences:              domain.DefaultPreferences(),
		ResetIterationsOnSession: true,
		Store: Store{
			Driver: DriverFile,
			Redis:  Redis{Addr: "localhost:6379"},
		},
		Server: Server{Addr: ":8080", Metrics: true},
	}
}

// Load reads path on top of the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports every invalid value at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Cooldowns.Micro < 0 || c.Cooldowns.Nudge < 0 {
		errs = append(errs, fmt.Errorf("cooldowns must not be negative"))
	}
	switch c.Preferences.NudgeSensitivity {
	case domain.SensitivityLow, domain.SensitivityNormal, domain.SensitivityHigh:
	default:
		errs = append(errs, fmt.Errorf("unknown nudge_sensitivity %q", c.Preferences.NudgeSensitivity))
	}
	switch c.Preferences.DefaultDesignMode {
	case domain.DesignFull, domain.DesignSpeed:
	default:
		errs = append(errs, fmt.Errorf("unknown default_design_mode %q", c.Preferences.DefaultDesignMode))
	}
	switch c.Store.Driver {
	case DriverMemory, DriverFile, DriverRedis, DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("unknown store driver %q", c.Store.Driver))
	}
	if _, err := c.Store.Key(); err != nil {
		errs = append(errs, err)
	}
	for _, p := range c.Store.Redact {
		if _, err := regexp.Compile(p); err != nil {
			errs = append(errs, fmt.Errorf("invalid redact pattern %q: %w", p, err))
		}
	}
	return errors.Join(errs...)
}

// ParseOverrides turns key=value pairs into a nested map keyed by the dotted path.
func ParseOverrides(pairs []string) (map[string]any, error) {
	out := make(map[string]any)
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid override %q: expected key=value", pair)
		}

		parts := strings.Split(key, ".")
		node := out
		for _, p := range parts[:len(parts)-1] {
			next, ok := node[p].(map[string]any)
			if !ok {
				next = make(map[string]any)
				node[p] = next
			}
			node = next
		}
		node[parts[len(parts)-1]] = value
	}
	return out, nil
}

// Apply decodes overrides into cfg. Values are weakly typed, so "5" sets an int
// and "a,b" sets a two-element list.
func Apply(cfg *Config, overrides map[string]any) error {
	if len(overrides) == 0 {
		return nil
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           cfg,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(overrides); err != nil {
		return fmt.Errorf("apply overrides: %w", err)
	}
	return cfg.Validate()
}
