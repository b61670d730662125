package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Config represents runtime configuration for the service. It is resolved
// once at startup and passed to constructors; nothing reads the process
// environment after Load returns.
type Config struct {
	Server    ServerConfig    `json:"server"`
	Anthropic AnthropicConfig `json:"anthropic"`
	Database  DatabaseConfig  `json:"database"`
	Flags     FlagsConfig     `json:"flags"`
	History   HistoryConfig   `json:"history"`
}

type ServerConfig struct {
	Address string `json:"address"`
}

type AnthropicConfig struct {
	APIKey  string `json:"api_key"`
	Model   string `json:"model"`
	BaseURL string `json:"base_url"`
}

// DatabaseConfig selects the optional history store. An empty Type disables
// persistence entirely.
type DatabaseConfig struct {
	Type     string `json:"type"`
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	Params   string `json:"params"`
}

// FlagsConfig points at the optional feature-flag service. An empty
// RedisAddr means every flag evaluates to disabled.
type FlagsConfig struct {
	RedisAddr string `json:"redis_addr"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	DB        int    `json:"db"`
}

type HistoryConfig struct {
	Limit int `json:"limit"`
}

const (
	DefaultAddress      = ":8090"
	DefaultModel        = "claude-sonnet-4-20250514"
	DefaultHistoryLimit = 50
)

// Load reads configuration from the provided path (defaults to config.json).
// A missing default file is not an error: environment overrides are applied
// either way, so the service can run from ANTHROPIC_API_KEY alone.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if path == "" {
		path = "config.json"
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	cfg := &Config{}
	file, err := os.Open(absPath)
	switch {
	case err == nil:
		defer file.Close()
		if err := json.NewDecoder(file).Decode(cfg); err != nil {
			return nil, fmt.Errorf("decode config: %w", err)
		}
	case os.IsNotExist(err) && !explicit:
		// run on defaults and environment alone
	default:
		return nil, fmt.Errorf("open config %s: %w", absPath, err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if cfg.usesSQLite() && cfg.Database.DSN != "" && cfg.Database.DSN != ":memory:" && !filepath.IsAbs(cfg.Database.DSN) {
		cfg.Database.DSN = filepath.Join(filepath.Dir(absPath), cfg.Database.DSN)
	}

	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		c.Anthropic.APIKey = v
	}
	if v := os.Getenv("FLAGS_REDIS_ADDR"); v != "" {
		c.Flags.RedisAddr = v
	}
	if v := os.Getenv("DOCVALIDATOR_ADDR"); v != "" {
		c.Server.Address = v
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = DefaultAddress
	}
	if c.Anthropic.Model == "" {
		c.Anthropic.Model = DefaultModel
	}
	if c.History.Limit <= 0 {
		c.History.Limit = DefaultHistoryLimit
	}
}

func (c *Config) usesSQLite() bool {
	t := strings.ToLower(c.Database.Type)
	return t == "sqlite" || t == "sqlite3"
}
