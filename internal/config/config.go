// Package config loads canopy.yaml and applies environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/canopy/internal/logging"
	"github.com/aretw0/canopy/internal/sanitize"
	"github.com/aretw0/canopy/pkg/adapters/llm"
	"github.com/aretw0/canopy/pkg/adapters/process"
	"github.com/aretw0/canopy/pkg/persistence/middleware"
)

// DefaultPath is where the CLI looks for the configuration file.
const DefaultPath = "canopy.yaml"

// Environment variables that override the file.
const (
	EnvRedisAddr = "CANOPY_REDIS_ADDR"
	EnvLogLevel  = "CANOPY_LOG_LEVEL"
	EnvModel     = "CANOPY_MODEL"
	EnvBaseURL   = "OPENAI_BASE_URL"
	// EnvEncryptionKey holds a base64 AES-256 key for sealing stored snapshots.
	EnvEncryptionKey = "CANOPY_ENCRYPTION_KEY"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreFile   = "file"
)

// Duration is a time.Duration written as a string ("30s", "2m") in YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Config is the full canopy configuration.
type Config struct {
	LogLevel  string          `yaml:"log_level"`
	Store     StoreConfig     `yaml:"store"`
	Generator GeneratorConfig `yaml:"generator"`
	Limits    LimitsConfig    `yaml:"limits"`
	Actions   ActionsConfig   `yaml:"actions"`
	HTTP      HTTPConfig      `yaml:"http"`
	MCP       MCPConfig       `yaml:"mcp"`

	// Tools and data sources run as local processes.
	process.File `yaml:",inline"`
}

type StoreConfig struct {
	Backend string      `yaml:"backend"`
	Path    string      `yaml:"path"`
	Redis   RedisConfig `yaml:"redis"`

	// EncryptionKey enables sealing when set. FallbackKeys open older snapshots.
	EncryptionKey string   `yaml:"encryption_key"`
	FallbackKeys  []string `yaml:"fallback_keys"`
	// Redact lists patterns of context keys masked before persisting.
	Redact []string `yaml:"redact"`
}

type RedisConfig struct {
	Addr     string   `yaml:"addr"`
	Password string   `yaml:"password"`
	DB       int      `yaml:"db"`
	Prefix   string   `yaml:"prefix"`
	TTL      Duration `yaml:"ttl"`
}

type GeneratorConfig struct {
	APIKey      string   `yaml:"api_key"`
	BaseURL     string   `yaml:"base_url"`
	Model       string   `yaml:"model"`
	Timeout     Duration `yaml:"timeout"`
	Temperature float32  `yaml:"temperature"`
}

type LimitsConfig struct {
	MaxNodes      int `yaml:"max_nodes"`
	MaxTableRows  int `yaml:"max_table_rows"`
	MaxChanges    int `yaml:"max_changes"`
	MaxPromptSize int `yaml:"max_prompt_size"`
}

type ActionsConfig struct {
	Timeout Duration `yaml:"timeout"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
	// Origins allowed to open the websocket stream.
	Origins []string `yaml:"origins"`
}

type MCPConfig struct {
	Transport string `yaml:"transport"`
	Port      int    `yaml:"port"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Store: StoreConfig{
			Backend: StoreMemory,
			Path:    ".canopy/sessions",
			Redis: RedisConfig{
				Prefix: "canopy",
				TTL:    Duration(24 * time.Hour),
			},
		},
		Generator: GeneratorConfig{
			Model:   llm.DefaultModel,
			Timeout: Duration(60 * time.Second),
		},
		Limits: LimitsConfig{
			MaxNodes:      15,
			MaxTableRows:  8,
			MaxChanges:    500,
			MaxPromptSize: sanitize.DefaultMaxPromptSize,
		},
		Actions: ActionsConfig{Timeout: Duration(30 * time.Second)},
		HTTP:    HTTPConfig{Addr: ":8080"},
		MCP:     MCPConfig{Transport: "stdio", Port: 8080},
	}
}

// Load reads path over the defaults and then applies environment overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse %s: %w", path, err)
			}
		}
	}
	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}
	cfg.Store.Backend = strings.ToLower(strings.TrimSpace(cfg.Store.Backend))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(llm.EnvAPIKey); ok && v != "" {
		c.Generator.APIKey = v
	}
	if v, ok := lookup(EnvBaseURL); ok && v != "" {
		c.Generator.BaseURL = v
	}
	if v, ok := lookup(EnvModel); ok && v != "" {
		c.Generator.Model = v
	}
	if v, ok := lookup(EnvRedisAddr); ok && v != "" {
		c.Store.Redis.Addr = v
		c.Store.Backend = StoreRedis
	}
	if v, ok := lookup(EnvEncryptionKey); ok && v != "" {
		c.Store.EncryptionKey = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.LogLevel = v
	}
	if v, ok := lookup(sanitize.EnvMaxPromptSize); ok && v != "" {
		size, err := strconv.Atoi(v)
		if err != nil || size <= 0 {
			return fmt.Errorf("%s must be a positive integer, got %q", sanitize.EnvMaxPromptSize, v)
		}
		c.Limits.MaxPromptSize = size
	}
	return nil
}

// Validate reports the first inconsistent setting.
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.Store.Backend {
	case StoreMemory, StoreFile:
	case StoreRedis:
		if c.Store.Redis.Addr == "" {
			return errors.New("store.redis.addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if _, err := c.StoreMiddleware(); err != nil {
		return err
	}
	switch c.MCP.Transport {
	case "stdio", "sse":
	default:
		return fmt.Errorf("unknown mcp transport %q", c.MCP.Transport)
	}
	if c.Limits.MaxNodes <= 0 || c.Limits.MaxChanges <= 0 {
		return errors.New("limits.max_nodes and limits.max_changes must be positive")
	}
	if c.Actions.Timeout <= 0 || c.Generator.Timeout <= 0 {
		return errors.New("timeouts must be positive")
	}
	return nil
}

// LLM returns the generator adapter configuration.
func (c *Config) LLM() llm.Config {
	return llm.Config{
		APIKey:      c.Generator.APIKey,
		BaseURL:     c.Generator.BaseURL,
		Model:       c.Generator.Model,
		Timeout:     time.Duration(c.Generator.Timeout),
		Temperature: c.Generator.Temperature,
	}
}

// StoreMiddleware builds the snapshot protections in the order they apply:
// redaction first, then sealing.
func (c *Config) StoreMiddleware() ([]middleware.Middleware, error) {
	var mws []middleware.Middleware
	if len(c.Store.Redact) > 0 {
		mw, err := middleware.NewRedaction(c.Store.Redact...)
		if err != nil {
			return nil, fmt.Errorf("store.redact: %w", err)
		}
		mws = append(mws, mw)
	}
	if c.Store.EncryptionKey == "" {
		if len(c.Store.FallbackKeys) > 0 {
			return nil, errors.New("store.fallback_keys requires store.encryption_key")
		}
		return mws, nil
	}
	active, err := middleware.ParseKey(c.Store.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("store.encryption_key: %w", err)
	}
	enc := middleware.EncryptionConfig{ActiveKey: active}
	for i, k := range c.Store.FallbackKeys {
		key, err := middleware.ParseKey(k)
		if err != nil {
			return nil, fmt.Errorf("store.fallback_keys[%d]: %w", i, err)
		}
		enc.FallbackKeys = append(enc.FallbackKeys, key)
	}
	mw, err := middleware.NewEncryption(enc)
	if err != nil {
		return nil, err
	}
	return append(mws, mw), nil
}
