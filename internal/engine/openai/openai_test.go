package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadzzz/polyglot/internal/config"
	"github.com/nadzzz/polyglot/internal/engine"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Host {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(config.OpenAIConfig{
		APIKey:    "sk-test",
		BaseURL:   srv.URL,
		Model:     "gpt-4o-mini",
		Languages: []string{"en", "fr"},
	})
}

func reply(w http.ResponseWriter, content string) {
	_ = json.NewEncoder(w).Encode(map[string]any{
		"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": content}}},
	})
}

func TestAvailability_RequiresAPIKey(t *testing.T) {
	ctx := context.Background()

	h := New(config.OpenAIConfig{})
	avail, err := h.Summarizer().Availability(ctx)
	require.NoError(t, err)
	assert.Equal(t, engine.AvailabilityNo, avail)

	h = New(config.OpenAIConfig{APIKey: "sk-test", Languages: []string{"en", "fr"}})
	avail, err = h.LanguageDetector().Availability(ctx)
	require.NoError(t, err)
	assert.Equal(t, engine.AvailabilityReadily, avail)

	avail, err = h.LanguageDetector().LanguageAvailability(ctx, "fr-CA")
	require.NoError(t, err)
	assert.Equal(t, engine.AvailabilityReadily, avail)

	avail, err = h.Translator().PairAvailability(ctx, "en", "ru")
	require.NoError(t, err)
	assert.Equal(t, engine.AvailabilityNo, avail)
}

func TestDetect_SendsJSONModeAndAuth(t *testing.T) {
	h := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		assert.Equal(t, "gpt-4o-mini", req.Model)
		if assert.NotNil(t, req.ResponseFormat) {
			assert.Equal(t, "json_object", req.ResponseFormat.Type)
		}
		reply(w, `{"languages":[{"language":"en","confidence":0.99}]}`)
	})

	d, err := h.LanguageDetector().Create(context.Background(), engine.DetectorOptions{})
	require.NoError(t, err)
	require.NoError(t, d.Ready(context.Background()))

	got, err := d.Detect(context.Background(), "Hello there")
	require.NoError(t, err)
	assert.Equal(t, []engine.LanguageGuess{{Language: "en", Confidence: 0.99}}, got)
}

func TestTranslate(t *testing.T) {
	h := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		assert.Contains(t, req.Messages[0].Content, "English (en) to French (fr)")
		assert.Equal(t, "Good morning", req.Messages[1].Content)
		reply(w, " Bonjour \n")
	})

	tr, err := h.Translator().Create(context.Background(), engine.TranslatorOptions{SourceLanguage: "en", TargetLanguage: "fr"})
	require.NoError(t, err)
	got, err := tr.Translate(context.Background(), "Good morning")
	require.NoError(t, err)
	assert.Equal(t, "Bonjour", got)
}

func TestSummarize_ErrorStatus(t *testing.T) {
	h := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	})

	s, err := h.Summarizer().Create(context.Background(), engine.SummarizerOptions{})
	require.NoError(t, err)
	_, err = s.Summarize(context.Background(), "text", "")
	assert.ErrorContains(t, err, fmt.Sprintf("status %d", http.StatusTooManyRequests))
	assert.ErrorContains(t, err, "rate limited")
}

func TestSummarize_NoChoices(t *testing.T) {
	h := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	})

	s, err := h.Summarizer().Create(context.Background(), engine.SummarizerOptions{})
	require.NoError(t, err)
	_, err = s.Summarize(context.Background(), "text", "")
	assert.ErrorContains(t, err, "no choices")
}

func TestSummarizeStreaming_ServerSentEvents(t *testing.T) {
	h := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		assert.True(t, req.Stream)

		w.Header().Set("Content-Type", "text/event-stream")
		var sb strings.Builder
		for _, piece := range []string{"- A", "\n- B", ""} {
			chunk, _ := json.Marshal(map[string]any{
				"choices": []map[string]any{{"delta": map[string]string{"content": piece}}},
			})
			fmt.Fprintf(&sb, "data: %s\n\n", chunk)
		}
		sb.WriteString(": keep-alive\n\n")
		sb.WriteString("data: [DONE]\n\n")
		_, _ = w.Write([]byte(sb.String()))
	})

	s, err := h.Summarizer().Create(context.Background(), engine.SummarizerOptions{})
	require.NoError(t, err)

	var segments []string
	for seg, err := range s.SummarizeStreaming(context.Background(), "text", "") {
		require.NoError(t, err)
		segments = append(segments, seg)
	}
	assert.Equal(t, []string{"- A", "- A\n- B"}, segments)
}
