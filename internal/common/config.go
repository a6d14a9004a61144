package common

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix for environment overrides, e.g. DOCROUTER_LLM__MODEL.
const EnvPrefix = "DOCROUTER_"

// Config holds all application configuration
type Config struct {
	LLM       LLMConfig       `koanf:"llm"`
	Store     StoreConfig     `koanf:"store"`
	Server    ServerConfig    `koanf:"server"`
	Extract   ExtractConfig   `koanf:"extract"`
	Routing   RoutingConfig   `koanf:"routing"`
	Log       LogConfig       `koanf:"log"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
}

// LLMConfig holds generator-related configuration
type LLMConfig struct {
	Provider string        `koanf:"provider"` // openai | gemini
	Model    string        `koanf:"model"`
	APIKey   string        `koanf:"api_key"`
	BaseURL  string        `koanf:"base_url"`
	Timeout  time.Duration `koanf:"timeout"`
}

// StoreConfig selects the interaction log backend
type StoreConfig struct {
	Driver string `koanf:"driver"` // memory | sqlite
	DSN    string `koanf:"dsn"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr string `koanf:"grpc_addr"`
	HTTPAddr string `koanf:"http_addr"`
	// DocumentRoot is the only directory whose documents network callers may reference
	// by path. Empty disables document paths over the network.
	DocumentRoot string `koanf:"document_root"`
}

// ExtractConfig holds document-text configuration
type ExtractConfig struct {
	Pdftotext          string `koanf:"pdftotext"`
	MaxDocumentChars   int    `koanf:"max_document_chars"`
	MaxClassifierChars int    `koanf:"max_classifier_chars"`
}

// RoutingConfig holds dispatch policy overrides
type RoutingConfig struct {
	// TextEmailIntents lists the intents that send plain-text input to the email handler.
	TextEmailIntents []string `koanf:"text_email_intents"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json | text
}

// TelemetryConfig holds tracing configuration
type TelemetryConfig struct {
	Tracing     bool   `koanf:"tracing"`
	ServiceName string `koanf:"service_name"`
}

var defaults = map[string]any{
	"llm.provider":                 "gemini",
	"llm.timeout":                  "45s",
	"store.driver":                 "memory",
	"store.dsn":                    "file:docrouter?mode=memory&cache=shared",
	"server.grpc_addr":             ":8080",
	"server.http_addr":             ":8081",
	"extract.pdftotext":            "pdftotext",
	"extract.max_document_chars":   4000,
	"extract.max_classifier_chars": 1000,
	"routing.text_email_intents":   []string{"RFQ", "Complaint", "General Inquiry"},
	"log.level":                    "info",
	"log.format":                   "text",
	"telemetry.service_name":       "docrouter",
}

// LoadConfig loads configuration from .env, an optional YAML file, and DOCROUTER_* environment variables.
// A missing .env or YAML file is not an error.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, WrapError(err, "load .env")
	}

	k := koanf.New(".")
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, WrapError(err, "load config file")
		}
	}

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envKeyValue), nil); err != nil {
		return nil, WrapError(err, "load environment")
	}

	for key, value := range defaults {
		if !k.Exists(key) {
			if err := k.Set(key, value); err != nil {
				return nil, WrapError(err, "set default "+key)
			}
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, WrapError(err, "unmarshal config")
	}
	cfg.applyProviderEnv()
	return &cfg, nil
}

// envKeyValue maps DOCROUTER_LLM__API_KEY to llm.api_key and splits list values.
func envKeyValue(key, value string) (string, interface{}) {
	k := strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(key, EnvPrefix)), "__", ".")
	if k == "routing.text_email_intents" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return k, out
	}
	return k, value
}

// applyProviderEnv falls back to the provider's conventional variables.
func (c *Config) applyProviderEnv() {
	switch c.LLM.Provider {
	case "openai":
		if c.LLM.APIKey == "" {
			c.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		}
		if c.LLM.Model == "" {
			c.LLM.Model = getEnv("OPENAI_MODEL", "gpt-4o-mini")
		}
	case "gemini":
		if c.LLM.APIKey == "" {
			c.LLM.APIKey = os.Getenv("GOOGLE_API_KEY")
		}
		if c.LLM.Model == "" {
			c.LLM.Model = getEnv("GEMINI_MODEL", "gemini-1.5-flash")
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "openai", "gemini":
	default:
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("unknown llm.provider %q", c.LLM.Provider), ErrInvalidInput)
	}
	if c.LLM.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "llm.api_key is required", ErrInvalidInput)
	}
	switch c.Store.Driver {
	case "memory":
	case "sqlite":
		if c.Store.DSN == "" {
			return NewAppError("CONFIG_ERROR", "store.dsn is required for sqlite", ErrInvalidInput)
		}
	default:
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("unknown store.driver %q", c.Store.Driver), ErrInvalidInput)
	}
	if root := c.Server.DocumentRoot; root != "" {
		if st, err := os.Stat(root); err != nil || !st.IsDir() {
			return NewAppError("CONFIG_ERROR", fmt.Sprintf("server.document_root %q is not a directory", root), ErrInvalidInput)
		}
	}
	if c.Extract.MaxDocumentChars <= 0 || c.Extract.MaxClassifierChars <= 0 {
		return NewAppError("CONFIG_ERROR", "extract limits must be positive", ErrInvalidInput)
	}
	return nil
}
