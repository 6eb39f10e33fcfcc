// Package config loads rapport settings from defaults, an optional YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/aretw0/rapport/internal/runtime"
	"github.com/aretw0/rapport/pkg/adapters/process"
)

// EnvPrefix prefixes every environment override. Nested keys use "__":
// RAPPORT_STORE__REDIS__ADDR sets store.redis.addr.
const EnvPrefix = "RAPPORT_"

// DefaultFile is read when no explicit path is given and it exists.
const DefaultFile = "rapport.yaml"

type Config struct {
	Graph    GraphConfig      `koanf:"graph"`
	Catalog  CatalogConfig    `koanf:"catalog"`
	Store    StoreConfig      `koanf:"store"`
	Server   ServerConfig     `koanf:"server"`
	Log      LogConfig        `koanf:"log"`
	Session  SessionConfig    `koanf:"session"`
	Commands CommandsConfig   `koanf:"commands"`
	Messages runtime.Messages `koanf:"messages"`
}

type GraphConfig struct {
	Source string `koanf:"source"` // yaml, loam
	Path   string `koanf:"path"`
	Entry  string `koanf:"entry"`
	Home   string `koanf:"home"`
}

type CatalogConfig struct {
	Path string `koanf:"path"`
}

type StoreConfig struct {
	Driver string       `koanf:"driver"` // memory, file, redis, sqlite
	Path   string       `koanf:"path"`
	Redis  RedisConfig  `koanf:"redis"`
	SQLite SQLiteConfig `koanf:"sqlite"`
	Retry  RetryConfig  `koanf:"retry"`

	// EncryptionKey is a base64 AES-256 key; empty disables encryption at rest.
	EncryptionKey string   `koanf:"encryption_key"`
	FallbackKeys  []string `koanf:"fallback_keys"`

	FlushInterval time.Duration `koanf:"flush_interval"`
}

type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
	Prefix   string `koanf:"prefix"`
	// Lock serialises users across replicas with a redis lock.
	Lock bool `koanf:"lock"`
}

type SQLiteConfig struct {
	Path string `koanf:"path"`
}

type RetryConfig struct {
	Attempts   int           `koanf:"attempts"`
	Backoff    time.Duration `koanf:"backoff"`
	MaxBackoff time.Duration `koanf:"max_backoff"`
}

// CommandsConfig allow-lists external programs that action nodes can run.
type CommandsConfig struct {
	Timeout   time.Duration           `koanf:"timeout"`
	Dir       string                  `koanf:"dir"`
	Processes []process.ProcessConfig `koanf:"processes"`
}

type ServerConfig struct {
	Addr         string `koanf:"addr"`
	MaxInputSize int    `koanf:"max_input_size"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // text, json
}

type SessionConfig struct {
	ActivityLimit int           `koanf:"activity_limit"`
	LockTTL       time.Duration `koanf:"lock_ttl"`
	// Redact lists field-name patterns masked when sessions are shown to operators.
	Redact []string `koanf:"redact"`
}

var defaults = map[string]any{
	"graph.source":            "yaml",
	"graph.path":              "graph.yaml",
	"store.driver":            "file",
	"store.path":              ".rapport/sessions",
	"store.redis.addr":        "localhost:6379",
	"store.redis.prefix":      "rapport:session:",
	"store.sqlite.path":       ".rapport/sessions.db",
	"store.retry.attempts":    3,
	"store.retry.backoff":     "50ms",
	"store.retry.max_backoff": "1s",
	"store.flush_interval":    "5s",
	"server.addr":             ":8080",
	"server.max_input_size":   4096,
	"log.level":               "info",
	"log.format":              "text",
	"session.activity_limit":  100,
	"session.lock_ttl":        "30s",
	"session.redact":          []string{"phone", "email"},
	"commands.timeout":        "10s",
}

// Load reads path (or DefaultFile when path is empty and the file exists), then applies
// RAPPORT_ environment overrides and fills unset keys with defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	target := path
	if target == "" {
		target = DefaultFile
	}
	if err := k.Load(file.Provider(target), yaml.Parser()); err != nil {
		if path != "" || !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load config %s: %w", target, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	for key, val := range defaults {
		if !k.Exists(key) {
			if err := k.Set(key, val); err != nil {
				return nil, fmt.Errorf("default %s: %w", key, err)
			}
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects unknown drivers and sources.
func (c *Config) Validate() error {
	switch c.Graph.Source {
	case "yaml", "loam":
	default:
		return fmt.Errorf("graph.source: unknown source %q", c.Graph.Source)
	}
	switch c.Store.Driver {
	case "memory", "file", "redis", "sqlite":
	default:
		return fmt.Errorf("store.driver: unknown driver %q", c.Store.Driver)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format: unknown format %q", c.Log.Format)
	}
	if c.Store.Retry.Attempts < 1 {
		return fmt.Errorf("store.retry.attempts: must be at least 1")
	}
	return nil
}
