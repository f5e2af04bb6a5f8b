package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/nadzzz/polyglot/internal/apperr"
	"github.com/nadzzz/polyglot/internal/config"
	"github.com/nadzzz/polyglot/internal/engine"
	"github.com/nadzzz/polyglot/internal/engine/enginetest"
)

func execute(t *testing.T, host *enginetest.Host, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("POLYGLOT_LOGGING_OUTPUT", "stderr")
	t.Setenv("POLYGLOT_LOGGING_LEVEL", "error")

	a := &app{
		version: "1.2.3",
		newHost: func(*config.Config) (engine.Host, error) { return host, nil },
	}
	root := newRootCommand(a)

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, enginetest.New(), "", "version")
	require.NoError(t, err)
	assert.Equal(t, "polyglot 1.2.3\n", out)
}

func TestDetect(t *testing.T) {
	host := enginetest.New()
	host.Detections = []engine.LanguageGuess{{Language: "fr", Confidence: 0.95}}

	out, err := execute(t, host, "", "detect", "Bonjour tout le monde")
	require.NoError(t, err)
	assert.Equal(t, "fr\n", out)
	assert.True(t, host.Closed())
}

func TestDetect_Stdin(t *testing.T) {
	out, err := execute(t, enginetest.New(), "Hello there\n", "detect", "-")
	require.NoError(t, err)
	assert.Equal(t, "en\n", out)
}

func TestDetect_LowConfidence(t *testing.T) {
	host := enginetest.New()
	host.Detections = []engine.LanguageGuess{{Language: "en", Confidence: 0.1}}

	_, err := execute(t, host, "", "detect", "hmm")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindLowConfidence))
}

func TestDetect_EmptyText(t *testing.T) {
	host := enginetest.New()
	_, err := execute(t, host, "   ", "detect", "-")
	assert.EqualError(t, err, "text is required")
	assert.Zero(t, host.DetectCalls.Load())
}

func TestTranslate(t *testing.T) {
	host := enginetest.New()
	out, err := execute(t, host, "", "translate", "Hello", "--to", "fr")
	require.NoError(t, err)
	assert.Equal(t, "[fr] Hello\n", out)
	// The source language was detected first.
	assert.EqualValues(t, 1, host.DetectCalls.Load())

	host = enginetest.New()
	out, err = execute(t, host, "", "translate", "Hola", "--to", "en", "--from", "es")
	require.NoError(t, err)
	assert.Equal(t, "[en] Hola\n", out)
	assert.Zero(t, host.DetectCalls.Load())
}

func TestTranslate_RequiresTarget(t *testing.T) {
	_, err := execute(t, enginetest.New(), "", "translate", "Hello")
	assert.ErrorContains(t, err, `required flag(s) "to" not set`)
}

func TestSummarize(t *testing.T) {
	host := enginetest.New()
	out, err := execute(t, host, "", "summarize", "Some long text", "--type", "tldr", "--length", "short", "--context", "A note")
	require.NoError(t, err)
	assert.Equal(t, "- Some long text\n", out)

	opts := host.SummarizerOptions()
	require.Len(t, opts, 1)
	assert.Equal(t, engine.SummaryTLDR, opts[0].Type)
	assert.Equal(t, engine.LengthShort, opts[0].Length)
	assert.Equal(t, engine.FormatMarkdown, opts[0].Format)
	assert.Equal(t, "A note", opts[0].SharedContext)
}

func TestSummarize_Stream(t *testing.T) {
	host := enginetest.New()
	host.Segments = []string{"- A", "- A\n- B"}

	out, err := execute(t, host, "", "summarize", "--stream", "text")
	require.NoError(t, err)
	assert.Equal(t, "- A\n- B\n", out)
}

func TestSummarize_Unavailable(t *testing.T) {
	host := enginetest.New()
	host.NoSummarizer = true

	_, err := execute(t, host, "", "summarize", "text")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindUnavailable))
	assert.EqualError(t, err, "Summarization API is not available")
}

func TestCapabilities(t *testing.T) {
	host := enginetest.New()
	host.NoTranslator = true

	out, err := execute(t, host, "", "capabilities")
	require.NoError(t, err)
	assert.Contains(t, out, "engine: fake")
	assert.Contains(t, out, "detection      available")
	assert.Contains(t, out, "translation    unavailable")
	assert.Contains(t, out, "summarization  available")
	assert.Contains(t, out, "  pt  Portuguese")
}

func TestConfig(t *testing.T) {
	t.Setenv("POLYGLOT_ENGINE_OPENAI_API_KEY", "sk-secret")

	out, err := execute(t, enginetest.New(), "", "config")
	require.NoError(t, err)
	assert.NotContains(t, out, "sk-secret")

	var cfg config.Config
	require.NoError(t, yaml.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, "ollama", cfg.Engine.Backend)
	assert.Equal(t, "********", cfg.Engine.OpenAI.APIKey)
	assert.Equal(t, 8080, cfg.Transports.HTTP.Port)
	assert.Equal(t, 150, cfg.Chat.SummarizeThreshold)
	assert.Equal(t, "memory", cfg.Store.Backend)
}

func TestConfig_InvalidBackend(t *testing.T) {
	t.Setenv("POLYGLOT_STORE_BACKEND", "postgres")

	_, err := execute(t, enginetest.New(), "", "config")
	assert.ErrorContains(t, err, `unknown store backend "postgres"`)
}

func TestOpenSession_Memory(t *testing.T) {
	a := &app{
		cfg: &config.Config{
			Store: config.StoreConfig{Backend: "memory"},
			Chat:  config.ChatConfig{MinConfidence: 0.5},
		},
		newHost: func(*config.Config) (engine.Host, error) { return enginetest.New(), nil },
	}
	ctx := context.Background()

	s, err := a.openSession(ctx)
	require.NoError(t, err)
	defer s.Close()

	m, err := s.chat.Submit(ctx, "Hello")
	require.NoError(t, err)
	views, err := s.chat.Messages(ctx)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, m.ID, views[0].ID)
}

func TestOpenStore_Unknown(t *testing.T) {
	_, err := openStore(context.Background(), config.StoreConfig{Backend: "etcd"})
	assert.ErrorContains(t, err, `unknown store backend "etcd"`)
}

func TestReadText(t *testing.T) {
	text, err := readText(strings.NewReader("line one\nline two\n"), "-")
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two", text)

	text, err = readText(nil, "inline")
	require.NoError(t, err)
	assert.Equal(t, "inline", text)
}

func TestServe_NoTransports(t *testing.T) {
	t.Setenv("POLYGLOT_TRANSPORTS_HTTP_ENABLED", "false")
	t.Setenv("POLYGLOT_TRANSPORTS_GRPC_ENABLED", "false")

	host := enginetest.New()
	_, err := execute(t, host, "", "serve")
	assert.EqualError(t, err, "no transports enabled; enable at least one in config")
	assert.True(t, host.Closed())
}
