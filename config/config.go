// Package config loads promptchain settings from defaults, an optional YAML
// file and PROMPTCHAIN_* environment variables, in that order of precedence.
//
// Nested keys are separated by a double underscore in the environment:
//
//	PROMPTCHAIN_PROVIDER__MODEL=claude-haiku-4-5
//	PROMPTCHAIN_MEMORY__STORE=sqlite
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/randalmurphal/promptchain/provider"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "PROMPTCHAIN_"

// DefaultFile is read when Load is given no path and the file exists.
const DefaultFile = "promptchain.yaml"

// Memory store kinds.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config is the full application configuration.
type Config struct {
	Provider   provider.Config  `koanf:"provider"`
	Prompts    PromptsConfig    `koanf:"prompts"`
	Memory     MemoryConfig     `koanf:"memory"`
	Embeddings EmbeddingsConfig `koanf:"embeddings"`
	Agent      AgentConfig      `koanf:"agent"`
	Parallel   ParallelConfig   `koanf:"parallel"`
	Telemetry  TelemetryConfig  `koanf:"telemetry"`
	Log        LogConfig        `koanf:"log"`
}

// PromptsConfig locates the prompt library.
type PromptsConfig struct {
	Dir   string `koanf:"dir"`
	Watch bool   `koanf:"watch"`
}

// MemoryConfig selects the conversation store.
type MemoryConfig struct {
	Store string `koanf:"store"`
	Path  string `koanf:"path"`

	// KeepTurns switches chat to summary memory when > 0.
	KeepTurns int `koanf:"keep_turns"`

	// WindowTokens trims plain history to this many tokens when > 0.
	WindowTokens int `koanf:"window_tokens"`
}

// EmbeddingsConfig points at an OpenAI-compatible embeddings endpoint.
type EmbeddingsConfig struct {
	URL     string        `koanf:"url"`
	Model   string        `koanf:"model"`
	APIKey  string        `koanf:"api_key"`
	Timeout time.Duration `koanf:"timeout"`
}

// AgentConfig bounds the tool-use loop.
type AgentConfig struct {
	MaxTurns int `koanf:"max_turns"`
	// MaxToolOutputTokens caps each tool result; 0 disables the cap.
	MaxToolOutputTokens int `koanf:"max_tool_output_tokens"`
}

// ParallelConfig sizes the worker pool used by parallel pipelines.
type ParallelConfig struct {
	PoolSize int `koanf:"pool_size"`
}

// TelemetryConfig controls tracing.
type TelemetryConfig struct {
	Enabled     bool   `koanf:"enabled"`
	ServiceName string `koanf:"service_name"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level string `koanf:"level"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	pc := provider.DefaultConfig()
	pc.Provider = "anthropic"
	pc.Model = "claude-sonnet-4-5"
	return Config{
		Provider: pc,
		Prompts:  PromptsConfig{Dir: "prompts"},
		Memory:   MemoryConfig{Store: StoreMemory, Path: "promptchain.db"},
		Agent:    AgentConfig{MaxTurns: 10, MaxToolOutputTokens: 2000},
		Telemetry: TelemetryConfig{
			ServiceName: "promptchain",
		},
		Log: LogConfig{Level: "info"},
	}
}

// LoadDotEnv loads variables from .env files into the process environment
// without overriding ones already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load builds a Config from defaults, the YAML file at path and the
// environment. An empty path reads DefaultFile if it exists; an explicit path
// must exist.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	} else if explicit {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := c.Provider.Validate(); err != nil {
		return fmt.Errorf("provider: %w", err)
	}
	switch c.Memory.Store {
	case StoreMemory:
	case StoreSQLite:
		if c.Memory.Path == "" {
			return fmt.Errorf("memory: path is required for the sqlite store")
		}
	default:
		return fmt.Errorf("memory: unknown store %q", c.Memory.Store)
	}
	if c.Memory.KeepTurns < 0 || c.Memory.WindowTokens < 0 {
		return fmt.Errorf("memory: keep_turns and window_tokens must be >= 0")
	}
	if c.Agent.MaxTurns < 0 || c.Agent.MaxToolOutputTokens < 0 {
		return fmt.Errorf("agent: max_turns and max_tool_output_tokens must be >= 0")
	}
	if c.Parallel.PoolSize < 0 {
		return fmt.Errorf("parallel: pool_size must be >= 0")
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	return nil
}

// ParseLevel maps a level name to a slog.Level. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown level %q", s)
}
