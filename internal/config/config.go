// Package config handles loading and validating the polyglot configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config is the root configuration for polyglot.
type Config struct {
	Server     ServerConfig     `mapstructure:"server" yaml:"server"`
	Transports TransportsConfig `mapstructure:"transports" yaml:"transports"`
	Engine     EngineConfig     `mapstructure:"engine" yaml:"engine"`
	Chat       ChatConfig       `mapstructure:"chat" yaml:"chat"`
	Store      StoreConfig      `mapstructure:"store" yaml:"store"`
	Logging    LoggingConfig    `mapstructure:"logging" yaml:"logging"`
}

// ServerConfig holds the health check server settings.
type ServerConfig struct {
	HealthPort int `mapstructure:"health_port" yaml:"health_port"`
}

// TransportsConfig holds the configuration for each transport layer.
type TransportsConfig struct {
	HTTP HTTPConfig `mapstructure:"http" yaml:"http"`
	GRPC GRPCConfig `mapstructure:"grpc" yaml:"grpc"`
}

// HTTPConfig configures the HTTP/JSON API.
type HTTPConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	Port    int  `mapstructure:"port" yaml:"port"`
}

// GRPCConfig configures the gRPC health endpoint.
type GRPCConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	Port    int  `mapstructure:"port" yaml:"port"`
}

// EngineConfig selects and configures the AI capability host.
type EngineConfig struct {
	Backend string       `mapstructure:"backend" yaml:"backend"` // "ollama" or "openai"
	Ollama  OllamaConfig `mapstructure:"ollama" yaml:"ollama"`
	OpenAI  OpenAIConfig `mapstructure:"openai" yaml:"openai"`
}

// OllamaConfig holds self-hosted Ollama settings.
type OllamaConfig struct {
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"` // base URL, e.g. http://localhost:11434
	Model    string `mapstructure:"model" yaml:"model"`       // e.g. "llama3.2:3b"

	// Pull allows downloading Model when the server does not have it yet.
	Pull bool `mapstructure:"pull" yaml:"pull"`

	// Languages are the ISO-639-1 codes the detector and translator accept.
	Languages []string `mapstructure:"languages" yaml:"languages"`
}

// OpenAIConfig holds settings for an OpenAI-compatible Chat Completions API.
type OpenAIConfig struct {
	APIKey    string   `mapstructure:"api_key" yaml:"api_key"`
	BaseURL   string   `mapstructure:"base_url" yaml:"base_url"`
	Model     string   `mapstructure:"model" yaml:"model"`
	Languages []string `mapstructure:"languages" yaml:"languages"`
}

// ChatConfig tunes message orchestration.
type ChatConfig struct {
	// SummarizeThreshold is the text length above which summarization is offered.
	SummarizeThreshold int `mapstructure:"summarize_threshold" yaml:"summarize_threshold"`

	// MinConfidence rejects detections scoring below it.
	MinConfidence float64 `mapstructure:"min_confidence" yaml:"min_confidence"`

	// Languages are the translation targets offered to the user.
	Languages []string `mapstructure:"languages" yaml:"languages"`

	Summary SummaryConfig `mapstructure:"summary" yaml:"summary"`
}

// SummaryConfig holds the summarizer options used for per-message summaries.
type SummaryConfig struct {
	Type    string `mapstructure:"type" yaml:"type"`     // key-points, tldr, teaser, headline
	Format  string `mapstructure:"format" yaml:"format"` // markdown, plain-text
	Length  string `mapstructure:"length" yaml:"length"` // short, medium, long
	Context string `mapstructure:"context" yaml:"context"`
}

// StoreConfig selects where messages are kept.
type StoreConfig struct {
	Backend string       `mapstructure:"backend" yaml:"backend"` // "memory", "redis", "sqlite"
	Redis   RedisConfig  `mapstructure:"redis" yaml:"redis"`
	SQLite  SQLiteConfig `mapstructure:"sqlite" yaml:"sqlite"`
}

// RedisConfig holds redis store settings.
type RedisConfig struct {
	Addr      string `mapstructure:"addr" yaml:"addr"`
	Password  string `mapstructure:"password" yaml:"password"`
	DB        int    `mapstructure:"db" yaml:"db"`
	KeyPrefix string `mapstructure:"key_prefix" yaml:"key_prefix"`
}

// SQLiteConfig holds sqlite store settings.
type SQLiteConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`   // debug, info, warn, error
	Format string `mapstructure:"format" yaml:"format"` // json, text
	Output string `mapstructure:"output" yaml:"output"` // stdout, stderr, or a file path
}

// Load reads the configuration from file, environment variables, and defaults.
// If configFile is non-empty it is used directly; otherwise the standard
// search order applies: ./polyglot.yaml, ./configs/polyglot.yaml, /etc/polyglot/polyglot.yaml.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("polyglot")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/polyglot")
	}

	// Environment variables: POLYGLOT_ENGINE_BACKEND, POLYGLOT_STORE_REDIS_ADDR, etc.
	v.SetEnvPrefix("POLYGLOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The config file is optional; env vars and defaults are sufficient.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		slog.Debug("no config file found, using defaults and environment variables")
	} else {
		slog.Debug("loaded config file", "path", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	// Resolve env var references in sensitive fields (e.g., "${OPENAI_API_KEY}").
	cfg.Engine.OpenAI.APIKey = resolveEnvRef(cfg.Engine.OpenAI.APIKey)
	cfg.Store.Redis.Password = resolveEnvRef(cfg.Store.Redis.Password)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.health_port", 8081)
	v.SetDefault("transports.http.enabled", true)
	v.SetDefault("transports.http.port", 8080)
	v.SetDefault("transports.grpc.enabled", false)
	v.SetDefault("transports.grpc.port", 50051)
	v.SetDefault("engine.backend", "ollama")
	v.SetDefault("engine.ollama.endpoint", "http://localhost:11434")
	v.SetDefault("engine.ollama.model", "llama3.2:3b")
	v.SetDefault("engine.ollama.pull", true)
	v.SetDefault("engine.ollama.languages", DefaultEngineLanguages)
	v.SetDefault("engine.openai.api_key", "${OPENAI_API_KEY}")
	v.SetDefault("engine.openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("engine.openai.model", "gpt-4o-mini")
	v.SetDefault("engine.openai.languages", DefaultEngineLanguages)
	v.SetDefault("chat.summarize_threshold", 150)
	v.SetDefault("chat.min_confidence", 0.5)
	v.SetDefault("chat.languages", []string{"en", "pt", "es", "ru", "tr", "fr"})
	v.SetDefault("chat.summary.type", "key-points")
	v.SetDefault("chat.summary.format", "markdown")
	v.SetDefault("chat.summary.length", "medium")
	v.SetDefault("chat.summary.context", "This is a chat message")
	v.SetDefault("store.backend", "memory")
	v.SetDefault("store.redis.addr", "localhost:6379")
	v.SetDefault("store.redis.db", 0)
	v.SetDefault("store.redis.key_prefix", "polyglot")
	v.SetDefault("store.sqlite.path", "polyglot.db")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", "stderr")
}

// DefaultEngineLanguages are the languages the LLM hosts accept for detection
// results and translation pairs unless configured otherwise.
var DefaultEngineLanguages = []string{
	"en", "pt", "es", "ru", "tr", "fr", "de", "it", "nl", "pl",
	"ja", "ko", "zh", "ar", "hi", "uk", "sv", "cs",
}

// Validate rejects settings the rest of the program cannot act on.
func (c *Config) Validate() error {
	switch c.Engine.Backend {
	case "ollama", "openai":
	default:
		return fmt.Errorf("unknown engine backend %q (want ollama or openai)", c.Engine.Backend)
	}
	switch c.Store.Backend {
	case "memory", "redis", "sqlite":
	default:
		return fmt.Errorf("unknown store backend %q (want memory, redis or sqlite)", c.Store.Backend)
	}
	if c.Chat.MinConfidence < 0 || c.Chat.MinConfidence > 1 {
		return fmt.Errorf("chat.min_confidence must be within [0,1], got %v", c.Chat.MinConfidence)
	}
	if c.Chat.SummarizeThreshold < 0 {
		return fmt.Errorf("chat.summarize_threshold must not be negative, got %d", c.Chat.SummarizeThreshold)
	}
	return nil
}

// resolveEnvRef replaces "${VAR_NAME}" patterns with the corresponding env var value.
// An unset variable resolves to the empty string.
func resolveEnvRef(val string) string {
	if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
		return os.Getenv(val[2 : len(val)-1])
	}
	return val
}
