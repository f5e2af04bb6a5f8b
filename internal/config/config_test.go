package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "polyglot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "{}\n"))
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Server.HealthPort)
	assert.True(t, cfg.Transports.HTTP.Enabled)
	assert.Equal(t, 8080, cfg.Transports.HTTP.Port)
	assert.False(t, cfg.Transports.GRPC.Enabled)
	assert.Equal(t, "ollama", cfg.Engine.Backend)
	assert.Equal(t, "http://localhost:11434", cfg.Engine.Ollama.Endpoint)
	assert.True(t, cfg.Engine.Ollama.Pull)
	assert.Equal(t, 150, cfg.Chat.SummarizeThreshold)
	assert.Equal(t, 0.5, cfg.Chat.MinConfidence)
	assert.Equal(t, []string{"en", "pt", "es", "ru", "tr", "fr"}, cfg.Chat.Languages)
	assert.Equal(t, "key-points", cfg.Chat.Summary.Type)
	assert.Equal(t, "This is a chat message", cfg.Chat.Summary.Context)
	assert.Equal(t, "memory", cfg.Store.Backend)
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	t.Setenv("POLYGLOT_STORE_BACKEND", "redis")
	t.Setenv("TEST_POLYGLOT_KEY", "sk-test")

	path := writeConfig(t, `
engine:
  backend: openai
  openai:
    api_key: "${TEST_POLYGLOT_KEY}"
    model: gpt-4o
chat:
  min_confidence: 0.7
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.Engine.Backend)
	assert.Equal(t, "sk-test", cfg.Engine.OpenAI.APIKey)
	assert.Equal(t, "gpt-4o", cfg.Engine.OpenAI.Model)
	assert.Equal(t, 0.7, cfg.Chat.MinConfidence)
	assert.Equal(t, "redis", cfg.Store.Backend)
}

func TestLoad_RejectsUnknownBackend(t *testing.T) {
	_, err := Load(writeConfig(t, "engine:\n  backend: chrome\n"))
	assert.ErrorContains(t, err, "unknown engine backend")
}

func TestValidate(t *testing.T) {
	base := Config{
		Engine: EngineConfig{Backend: "ollama"},
		Store:  StoreConfig{Backend: "memory"},
		Chat:   ChatConfig{MinConfidence: 0.5},
	}
	require.NoError(t, base.Validate())

	bad := base
	bad.Chat.MinConfidence = 1.5
	assert.Error(t, bad.Validate())

	bad = base
	bad.Store.Backend = "postgres"
	assert.Error(t, bad.Validate())

	bad = base
	bad.Chat.SummarizeThreshold = -1
	assert.Error(t, bad.Validate())
}

func TestResolveEnvRef(t *testing.T) {
	t.Setenv("POLYGLOT_TEST_SECRET", "s3cret")

	assert.Equal(t, "s3cret", resolveEnvRef("${POLYGLOT_TEST_SECRET}"))
	assert.Equal(t, "", resolveEnvRef("${POLYGLOT_TEST_UNSET}"))
	assert.Equal(t, "literal", resolveEnvRef("literal"))
}
