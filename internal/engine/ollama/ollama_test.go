package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadzzz/polyglot/internal/config"
	"github.com/nadzzz/polyglot/internal/engine"
)

// fakeOllama is a minimal stand-in for the Ollama HTTP API.
type fakeOllama struct {
	installed atomic.Bool
	pulls     atomic.Int32
	pullFail  bool

	mu       sync.Mutex
	requests []chatRequest
}

func (f *fakeOllama) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/tags", func(w http.ResponseWriter, r *http.Request) {
		var models []map[string]string
		if f.installed.Load() {
			models = append(models, map[string]string{"name": "llama3.2:3b", "model": "llama3.2:3b"})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"models": models})
	})

	mux.HandleFunc("POST /api/pull", func(w http.ResponseWriter, r *http.Request) {
		f.pulls.Add(1)
		enc := json.NewEncoder(w)
		_ = enc.Encode(pullStatus{Status: "pulling manifest"})
		if f.pullFail {
			_ = enc.Encode(pullStatus{Error: "registry unreachable"})
			return
		}
		_ = enc.Encode(pullStatus{Status: "pulling abc", Digest: "sha256:abc", Total: 100, Completed: 40})
		_ = enc.Encode(pullStatus{Status: "pulling abc", Digest: "sha256:abc", Total: 100, Completed: 100})
		f.installed.Store(true)
		_ = enc.Encode(pullStatus{Status: "success"})
	})

	mux.HandleFunc("POST /api/chat", func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.requests = append(f.requests, req)
		f.mu.Unlock()

		system := req.Messages[0].Content
		switch {
		case strings.Contains(system, "language identification"):
			_ = json.NewEncoder(w).Encode(chatResponse{
				Message: chatMessage{Role: "assistant", Content: `{"languages":[{"language":"fr","confidence":0.93}]}`},
				Done:    true,
			})
		case strings.Contains(system, "translation engine"):
			_ = json.NewEncoder(w).Encode(chatResponse{
				Message: chatMessage{Role: "assistant", Content: "\"Hello everyone\"\n"},
				Done:    true,
			})
		case req.Stream:
			enc := json.NewEncoder(w)
			for _, piece := range []string{"- Point", " one\n", "- Point two"} {
				_ = enc.Encode(chatResponse{Message: chatMessage{Role: "assistant", Content: piece}})
			}
			_ = enc.Encode(chatResponse{Done: true})
		default:
			_ = json.NewEncoder(w).Encode(chatResponse{
				Message: chatMessage{Role: "assistant", Content: "- Point one\n- Point two\n"},
				Done:    true,
			})
		}
	})
	return mux
}

func newTestHost(t *testing.T, fake *fakeOllama, pull bool) *Host {
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	h := New(config.OllamaConfig{
		Endpoint:  srv.URL + "/",
		Model:     "llama3.2:3b",
		Pull:      pull,
		Languages: []string{"en", "fr", "es"},
	})
	t.Cleanup(func() { _ = h.Close() })
	return h
}

func TestAvailability(t *testing.T) {
	ctx := context.Background()

	fake := &fakeOllama{}
	h := newTestHost(t, fake, true)
	avail, err := h.Summarizer().Availability(ctx)
	require.NoError(t, err)
	assert.Equal(t, engine.AvailabilityAfterDownload, avail)

	noPull := newTestHost(t, &fakeOllama{}, false)
	avail, err = noPull.Summarizer().Availability(ctx)
	require.NoError(t, err)
	assert.Equal(t, engine.AvailabilityNo, avail)

	fake.installed.Store(true)
	avail, err = h.LanguageDetector().Availability(ctx)
	require.NoError(t, err)
	assert.Equal(t, engine.AvailabilityReadily, avail)
}

func TestAvailability_ServerDown(t *testing.T) {
	h := New(config.OllamaConfig{Endpoint: "http://127.0.0.1:1", Model: "llama3.2:3b"})

	avail, err := h.LanguageDetector().Availability(context.Background())
	assert.Error(t, err)
	assert.Equal(t, engine.AvailabilityNo, avail)
}

func TestLanguageAndPairAvailability(t *testing.T) {
	ctx := context.Background()
	fake := &fakeOllama{}
	fake.installed.Store(true)
	h := newTestHost(t, fake, true)

	avail, err := h.LanguageDetector().LanguageAvailability(ctx, "fr")
	require.NoError(t, err)
	assert.Equal(t, engine.AvailabilityReadily, avail)

	avail, err = h.LanguageDetector().LanguageAvailability(ctx, "ja")
	require.NoError(t, err)
	assert.Equal(t, engine.AvailabilityNo, avail)

	avail, err = h.Translator().PairAvailability(ctx, "fr", "en")
	require.NoError(t, err)
	assert.Equal(t, engine.AvailabilityReadily, avail)

	avail, err = h.Translator().PairAvailability(ctx, "fr", "ja")
	require.NoError(t, err)
	assert.Equal(t, engine.AvailabilityNo, avail)
}

func TestCreate_PullsModelAndReportsProgress(t *testing.T) {
	ctx := context.Background()
	fake := &fakeOllama{}
	h := newTestHost(t, fake, true)

	var mu sync.Mutex
	var progress []engine.DownloadProgress
	monitor := engine.MonitorFunc(func(c engine.Capability, p engine.DownloadProgress) {
		assert.Equal(t, engine.Detection, c)
		mu.Lock()
		progress = append(progress, p)
		mu.Unlock()
	})

	d, err := h.LanguageDetector().Create(ctx, engine.DetectorOptions{Monitor: monitor})
	require.NoError(t, err)

	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, d.Ready(waitCtx))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []engine.DownloadProgress{{Loaded: 40, Total: 100}, {Loaded: 100, Total: 100}}, progress)
	assert.True(t, fake.installed.Load())
	assert.Equal(t, int32(1), fake.pulls.Load())
}

func TestCreate_PullFailureSurfacesFromReady(t *testing.T) {
	fake := &fakeOllama{pullFail: true}
	h := newTestHost(t, fake, true)

	s, err := h.Summarizer().Create(context.Background(), engine.SummarizerOptions{})
	require.NoError(t, err)

	waitCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = s.Ready(waitCtx)
	assert.ErrorContains(t, err, "registry unreachable")
}

func TestCreate_ReadilyDoesNotPull(t *testing.T) {
	fake := &fakeOllama{}
	fake.installed.Store(true)
	h := newTestHost(t, fake, true)

	tr, err := h.Translator().Create(context.Background(), engine.TranslatorOptions{SourceLanguage: "fr", TargetLanguage: "en"})
	require.NoError(t, err)
	require.NoError(t, tr.Ready(context.Background()))
	assert.Equal(t, int32(0), fake.pulls.Load())
}

func TestDetectTranslateSummarize(t *testing.T) {
	ctx := context.Background()
	fake := &fakeOllama{}
	fake.installed.Store(true)
	h := newTestHost(t, fake, true)

	d, err := h.LanguageDetector().Create(ctx, engine.DetectorOptions{})
	require.NoError(t, err)
	detections, err := d.Detect(ctx, "Bonjour tout le monde")
	require.NoError(t, err)
	assert.Equal(t, []engine.LanguageGuess{{Language: "fr", Confidence: 0.93}}, detections)

	tr, err := h.Translator().Create(ctx, engine.TranslatorOptions{SourceLanguage: "fr", TargetLanguage: "en"})
	require.NoError(t, err)
	translated, err := tr.Translate(ctx, "Bonjour tout le monde")
	require.NoError(t, err)
	assert.Equal(t, "Hello everyone", translated)

	s, err := h.Summarizer().Create(ctx, engine.SummarizerOptions{Type: engine.SummaryKeyPoints, Format: engine.FormatMarkdown})
	require.NoError(t, err)
	summary, err := s.Summarize(ctx, "long text", "This is a chat message")
	require.NoError(t, err)
	assert.Equal(t, "- Point one\n- Point two", summary)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	require.Len(t, fake.requests, 3)
	assert.Equal(t, "json", fake.requests[0].Format)
	assert.Equal(t, "llama3.2:3b", fake.requests[0].Model)
	assert.Contains(t, fake.requests[1].Messages[0].Content, "French (fr)")
}

func TestSummarizeStreaming_CumulativeSegments(t *testing.T) {
	ctx := context.Background()
	fake := &fakeOllama{}
	fake.installed.Store(true)
	h := newTestHost(t, fake, true)

	s, err := h.Summarizer().Create(ctx, engine.SummarizerOptions{})
	require.NoError(t, err)

	var segments []string
	for seg, err := range s.SummarizeStreaming(ctx, "long text", "") {
		require.NoError(t, err)
		segments = append(segments, seg)
	}
	assert.Equal(t, []string{"- Point", "- Point one\n", "- Point one\n- Point two"}, segments)
}

func TestChat_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model crashed", http.StatusInternalServerError)
	}))
	defer srv.Close()

	h := New(config.OllamaConfig{Endpoint: srv.URL, Model: "llama3.2:3b"})
	_, err := h.chat(context.Background(), "system", "user", false)
	assert.ErrorContains(t, err, fmt.Sprintf("status %d", http.StatusInternalServerError))
	assert.ErrorContains(t, err, "model crashed")
}

func TestSameModel(t *testing.T) {
	assert.True(t, sameModel("llama3", "llama3:latest"))
	assert.True(t, sameModel("llama3.2:3b", "llama3.2:3b"))
	assert.False(t, sameModel("llama3.2:1b", "llama3.2:3b"))
	assert.False(t, sameModel("", "llama3"))
}
