// Package config loads the configuration of the saint server.
//
// Values are merged from defaults, a YAML file, SAINT_ environment
// variables and command line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix prefixes the environment variables read by Load.
// SAINT_SERVER_ADDR sets server.addr.
const EnvPrefix = "SAINT_"

// Config holds the server configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Admin    AdminConfig    `koanf:"admin"`
	Log      LogConfig      `koanf:"log"`
	FM       FMConfig       `koanf:"fm"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr string `koanf:"addr"`
	// SessionSecret authenticates the session cookies. A random secret
	// is used when empty, so sessions do not survive a restart.
	SessionSecret string `koanf:"session_secret"`
}

// DatabaseConfig configures the database connection.
type DatabaseConfig struct {
	// Dialect is the database/sql driver name: sqlite, mysql or postgres.
	Dialect   string        `koanf:"dialect"`
	DSN       string        `koanf:"dsn"`
	SlowQuery time.Duration `koanf:"slow_query"`
}

// AdminConfig configures the controllers.
type AdminConfig struct {
	ItemsPerPage int `koanf:"items_per_page"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// FMConfig configures the file manager.
type FMConfig struct {
	Prefix string       `koanf:"prefix"`
	Roots  []RootConfig `koanf:"roots"`
}

// RootConfig declares a file manager root.
type RootConfig struct {
	Path          string `koanf:"path"`
	Label         string `koanf:"label"`
	EditMaxSize   int64  `koanf:"edit_max_size"`
	UploadMaxSize int64  `koanf:"upload_max_size"`
}

var defaults = map[string]any{
	"server.addr":          ":8080",
	"database.dialect":     "sqlite",
	"database.dsn":         "file:saint.db?cache=shared&_pragma=foreign_keys(1)",
	"database.slow_query":  "200ms",
	"admin.items_per_page": 10,
	"log.level":            "info",
	"log.format":           "text",
	"fm.prefix":            "/fm",
}

// flagKeys maps command line flags to configuration keys.
var flagKeys = map[string]string{
	"addr":      "server.addr",
	"dialect":   "database.dialect",
	"dsn":       "database.dsn",
	"log-level": "log.level",
}

// Load reads the configuration. The file at path is optional; flags
// override the other sources only when they were set explicitly.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}
	// SAINT_ADMIN_ITEMS_PER_PAGE -> admin.items_per_page
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".", 1)
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every invalid value of the configuration.
func (c *Config) Validate() error {
	var errs []error
	switch c.Database.Dialect {
	case "sqlite", "mysql", "postgres":
	default:
		errs = append(errs, fmt.Errorf("config: unknown database dialect %q", c.Database.Dialect))
	}
	if c.Database.DSN == "" {
		errs = append(errs, errors.New("config: database.dsn is required"))
	}
	if c.Admin.ItemsPerPage <= 0 {
		errs = append(errs, fmt.Errorf("config: admin.items_per_page should be positive, got %d", c.Admin.ItemsPerPage))
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("config: unknown log format %q", c.Log.Format))
	}
	for i, r := range c.FM.Roots {
		if r.Path == "" {
			errs = append(errs, fmt.Errorf("config: fm.roots[%d].path is required", i))
		}
	}
	return errors.Join(errs...)
}

// ParseLevel parses a log level name such as "debug" or "warn".
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return l, fmt.Errorf("config: unknown log level %q", s)
	}
	return l, nil
}
