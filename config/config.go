// Package config loads relay configuration from a YAML file.
//
// The file lives at $RELAY_CONFIG or ~/.relay/config.yaml. A missing file is
// not an error: defaults apply. Secret properties come from the environment
// first and the file's properties section second.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fwojciec/relay"
	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendFile   = "file"
)

// Config is the root of the YAML document.
type Config struct {
	LogLevel   string            `yaml:"log_level"`
	Gemini     Gemini            `yaml:"gemini"`
	Store      Store             `yaml:"store"`
	SQLite     SQLite            `yaml:"sqlite"`
	Redis      Redis             `yaml:"redis"`
	File       File              `yaml:"file"`
	Server     Server            `yaml:"server"`
	Properties map[string]string `yaml:"properties,omitempty"`
}

// Gemini configures the completion endpoint. Generation parameters are fixed
// and not configurable.
type Gemini struct {
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url,omitempty"`
}

// Store selects the backend holding the prompt and the exchange log.
type Store struct {
	Backend string `yaml:"backend"`
}

// SQLite configures the workbook backend.
type SQLite struct {
	Path        string `yaml:"path"`
	PromptSheet string `yaml:"prompt_sheet"`
	PromptCell  string `yaml:"prompt_cell"`
	LogSheet    string `yaml:"log_sheet"`
}

// Redis configures the Redis backend.
type Redis struct {
	Addr       string `yaml:"addr"`
	Password   string `yaml:"password,omitempty"`
	DB         int    `yaml:"db"`
	PromptKey  string `yaml:"prompt_key"`
	LogKey     string `yaml:"log_key"`
	SecretsKey string `yaml:"secrets_key"`
}

// File configures the file backend.
type File struct {
	PromptPath string `yaml:"prompt_path"`
	LogPath    string `yaml:"log_path"`
}

// Server configures the HTTP entry point.
type Server struct {
	Addr string `yaml:"addr"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	dir := filepath.Join(userHomeDir(), ".relay")
	return Config{
		LogLevel: "info",
		Gemini:   Gemini{Model: "gemini-2.5-flash-lite"},
		Store:    Store{Backend: BackendSQLite},
		SQLite: SQLite{
			Path:        filepath.Join(dir, "relay.db"),
			PromptSheet: relay.DefaultPromptSheet,
			PromptCell:  relay.DefaultPromptCell,
			LogSheet:    relay.DefaultLogSheet,
		},
		Redis: Redis{
			Addr:       "localhost:6379",
			PromptKey:  "relay:prompt",
			LogKey:     "relay:log",
			SecretsKey: "relay:secrets",
		},
		File: File{
			PromptPath: filepath.Join(dir, "prompt.md"),
			LogPath:    filepath.Join(dir, "exchanges.jsonl"),
		},
		Server: Server{Addr: ":8080"},
	}
}

// Path resolves the configuration file path: override, then $RELAY_CONFIG,
// then ~/.relay/config.yaml.
func Path(override string) string {
	if override != "" {
		return expandPath(override)
	}
	if custom := os.Getenv("RELAY_CONFIG"); custom != "" {
		return expandPath(custom)
	}
	return filepath.Join(userHomeDir(), ".relay", "config.yaml")
}

// Load reads and validates the file at path. Fields absent from the file
// keep their default values.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg = hydrateDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks enumerated fields.
func (c Config) Validate() error {
	switch c.Store.Backend {
	case BackendSQLite, BackendRedis, BackendFile:
	default:
		return fmt.Errorf("store.backend %q must be one of sqlite, redis, file: %w", c.Store.Backend, relay.ErrInvalidConfig)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level %q must be one of debug, info, warn, error: %w", c.LogLevel, relay.ErrInvalidConfig)
	}
	return nil
}

// Marshal renders c as YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// hydrateDefaults restores defaults for fields explicitly set to empty.
func hydrateDefaults(cfg Config) Config {
	def := Default()
	if cfg.LogLevel == "" {
		cfg.LogLevel = def.LogLevel
	}
	if cfg.Gemini.Model == "" {
		cfg.Gemini.Model = def.Gemini.Model
	}
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = def.Store.Backend
	}
	if cfg.SQLite.Path == "" {
		cfg.SQLite.Path = def.SQLite.Path
	}
	if cfg.SQLite.PromptSheet == "" {
		cfg.SQLite.PromptSheet = def.SQLite.PromptSheet
	}
	if cfg.SQLite.PromptCell == "" {
		cfg.SQLite.PromptCell = def.SQLite.PromptCell
	}
	if cfg.SQLite.LogSheet == "" {
		cfg.SQLite.LogSheet = def.SQLite.LogSheet
	}
	if cfg.File.PromptPath == "" {
		cfg.File.PromptPath = def.File.PromptPath
	}
	if cfg.File.LogPath == "" {
		cfg.File.LogPath = def.File.LogPath
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = def.Server.Addr
	}
	cfg.SQLite.Path = expandPath(cfg.SQLite.Path)
	cfg.File.PromptPath = expandPath(cfg.File.PromptPath)
	cfg.File.LogPath = expandPath(cfg.File.LogPath)
	return cfg
}

func expandPath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(userHomeDir(), path[2:])
	}
	return filepath.Clean(path)
}

func userHomeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}
