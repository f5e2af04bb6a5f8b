// Package openai implements engine.Host using an OpenAI-compatible Chat
// Completions API.
//
// Hosted models need no download, so every capability is "readily" available
// as soon as an API key is configured and "no" without one.
package openai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"net/http"
	"strings"

	"github.com/nadzzz/polyglot/internal/config"
	"github.com/nadzzz/polyglot/internal/engine"
	"github.com/nadzzz/polyglot/internal/engine/prompt"
	"github.com/nadzzz/polyglot/internal/languages"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Host uses the Chat Completions API for every capability.
type Host struct {
	apiKey  string
	baseURL string
	model   string
	langs   languages.Set
	client  *http.Client
	logger  *slog.Logger
}

// New creates an OpenAI host from config.
func New(cfg config.OpenAIConfig) *Host {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	langs := cfg.Languages
	if len(langs) == 0 {
		langs = config.DefaultEngineLanguages
	}
	return &Host{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		model:   model,
		langs:   languages.NewSet(langs),
		client:  &http.Client{},
		logger:  slog.With("component", "openai"),
	}
}

// Name returns the backend identifier.
func (h *Host) Name() string { return "openai" }

// LanguageDetector returns the detection factory.
func (h *Host) LanguageDetector() engine.DetectorFactory { return detectorFactory{h} }

// Translator returns the translation factory.
func (h *Host) Translator() engine.TranslatorFactory { return translatorFactory{h} }

// Summarizer returns the summarization factory.
func (h *Host) Summarizer() engine.SummarizerFactory { return summarizerFactory{h} }

// Close is a no-op for the OpenAI host.
func (h *Host) Close() error { return nil }

func (h *Host) availability() engine.Availability {
	if h.apiKey == "" {
		return engine.AvailabilityNo
	}
	return engine.AvailabilityReadily
}

func (h *Host) languageAvailability(lang string) engine.Availability {
	if !h.langs.Has(lang) {
		return engine.AvailabilityNo
	}
	return h.availability()
}

type detectorFactory struct{ h *Host }

func (f detectorFactory) Availability(context.Context) (engine.Availability, error) {
	return f.h.availability(), nil
}

func (f detectorFactory) LanguageAvailability(_ context.Context, lang string) (engine.Availability, error) {
	return f.h.languageAvailability(lang), nil
}

func (f detectorFactory) Create(context.Context, engine.DetectorOptions) (engine.Detector, error) {
	return handle{h: f.h}, nil
}

type translatorFactory struct{ h *Host }

func (f translatorFactory) PairAvailability(_ context.Context, source, target string) (engine.Availability, error) {
	if f.h.languageAvailability(source) == engine.AvailabilityNo {
		return engine.AvailabilityNo, nil
	}
	return f.h.languageAvailability(target), nil
}

func (f translatorFactory) Create(_ context.Context, opts engine.TranslatorOptions) (engine.Translator, error) {
	return handle{h: f.h, source: opts.SourceLanguage, target: opts.TargetLanguage}, nil
}

type summarizerFactory struct{ h *Host }

func (f summarizerFactory) Availability(context.Context) (engine.Availability, error) {
	return f.h.availability(), nil
}

func (f summarizerFactory) Create(_ context.Context, opts engine.SummarizerOptions) (engine.Summarizer, error) {
	return handle{h: f.h, summary: opts}, nil
}

// handle serves every capability; hosted models are always ready.
type handle struct {
	h       *Host
	source  string
	target  string
	summary engine.SummarizerOptions
}

func (handle) Ready(context.Context) error { return nil }
func (handle) Close() error                { return nil }

func (c handle) Detect(ctx context.Context, text string) ([]engine.LanguageGuess, error) {
	content, err := c.h.complete(ctx, prompt.Detection(), text, true)
	if err != nil {
		return nil, err
	}
	return prompt.ParseDetections(content)
}

func (c handle) Translate(ctx context.Context, text string) (string, error) {
	content, err := c.h.complete(ctx, prompt.Translation(c.source, c.target), text, false)
	if err != nil {
		return "", err
	}
	return prompt.CleanOutput(content), nil
}

func (c handle) Summarize(ctx context.Context, text, callContext string) (string, error) {
	content, err := c.h.complete(ctx, prompt.Summary(c.summary, callContext), text, false)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(content), nil
}

func (c handle) SummarizeStreaming(ctx context.Context, text, callContext string) iter.Seq2[string, error] {
	return c.h.completeStream(ctx, prompt.Summary(c.summary, callContext), text)
}

// --- Internal types and helpers ---

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
	Temperature    float64         `json:"temperature"`
	Stream         bool            `json:"stream,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type chatChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
}

func (h *Host) newRequest(ctx context.Context, system, user string, jsonFormat, stream bool) (*http.Request, error) {
	reqBody := chatRequest{
		Model: h.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: 0.2,
		Stream:      stream,
	}
	if jsonFormat {
		reqBody.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshalling chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating chat request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+h.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if stream {
		req.Header.Set("Accept", "text/event-stream")
	}
	return req, nil
}

// complete sends one chat turn and returns the first choice's content.
func (h *Host) complete(ctx context.Context, system, user string, jsonFormat bool) (string, error) {
	req, err := h.newRequest(ctx, system, user, jsonFormat, false)
	if err != nil {
		return "", err
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("chat failed (status %d): %s", resp.StatusCode, respBody)
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("decoding chat response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned from chat API")
	}

	content := chatResp.Choices[0].Message.Content
	h.logger.Debug("chat complete", "model", h.model, "content_length", len(content))
	return content, nil
}

// completeStream reads a server-sent event stream of deltas and yields the
// accumulated content after each one.
func (h *Host) completeStream(ctx context.Context, system, user string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		req, err := h.newRequest(ctx, system, user, false, true)
		if err != nil {
			yield("", err)
			return
		}

		resp, err := h.client.Do(req)
		if err != nil {
			yield("", fmt.Errorf("chat request: %w", err))
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
			yield("", fmt.Errorf("chat failed (status %d): %s", resp.StatusCode, respBody))
			return
		}

		var acc strings.Builder
		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			data, ok := strings.CutPrefix(line, "data:")
			if !ok {
				continue
			}
			data = strings.TrimSpace(data)
			if data == "[DONE]" {
				return
			}

			var chunk chatChunk
			if err := json.Unmarshal([]byte(data), &chunk); err != nil {
				yield("", fmt.Errorf("decoding chat chunk: %w", err))
				return
			}
			if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
				continue
			}
			acc.WriteString(chunk.Choices[0].Delta.Content)
			if !yield(acc.String(), nil) {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			yield("", fmt.Errorf("reading chat stream: %w", err))
		}
	}
}
