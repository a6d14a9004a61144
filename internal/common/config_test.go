package common

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "g-key")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, "g-key", cfg.LLM.APIKey)
	assert.Equal(t, 45*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, 4000, cfg.Extract.MaxDocumentChars)
	assert.Equal(t, 1000, cfg.Extract.MaxClassifierChars)
	assert.Equal(t, []string{"RFQ", "Complaint", "General Inquiry"}, cfg.Routing.TextEmailIntents)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "docrouter.yaml")
	yml := []byte(`
llm:
  provider: openai
  model: gpt-test
  api_key: from-file
store:
  driver: sqlite
routing:
  text_email_intents: [RFQ]
`)
	require.NoError(t, os.WriteFile(path, yml, 0o600))

	t.Setenv("DOCROUTER_LLM__API_KEY", "from-env")
	t.Setenv("DOCROUTER_SERVER__GRPC_ADDR", ":9999")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-test", cfg.LLM.Model)
	assert.Equal(t, "from-env", cfg.LLM.APIKey)
	assert.Equal(t, ":9999", cfg.Server.GRPCAddr)
	assert.Equal(t, []string{"RFQ"}, cfg.Routing.TextEmailIntents)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigEnvList(t *testing.T) {
	t.Setenv("DOCROUTER_ROUTING__TEXT_EMAIL_INTENTS", "Complaint, RFQ,")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, []string{"Complaint", "RFQ"}, cfg.Routing.TextEmailIntents)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			LLM:     LLMConfig{Provider: "openai", APIKey: "k"},
			Store:   StoreConfig{Driver: "memory"},
			Extract: ExtractConfig{MaxDocumentChars: 10, MaxClassifierChars: 10},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown provider", func(c *Config) { c.LLM.Provider = "llama" }},
		{"missing key", func(c *Config) { c.LLM.APIKey = "" }},
		{"unknown driver", func(c *Config) { c.Store.Driver = "redis" }},
		{"sqlite without dsn", func(c *Config) { c.Store.Driver = "sqlite" }},
		{"zero limits", func(c *Config) { c.Extract.MaxDocumentChars = 0 }},
		{"missing document root", func(c *Config) { c.Server.DocumentRoot = "/nonexistent/docrouter-docs" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			var appErr *AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, "CONFIG_ERROR", appErr.Code)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}

	require.NoError(t, base().Validate())

	withRoot := base()
	withRoot.Server.DocumentRoot = t.TempDir()
	require.NoError(t, withRoot.Validate())
}
