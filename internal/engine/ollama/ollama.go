// Package ollama implements engine.Host on top of a self-hosted Ollama server.
//
// All three capabilities are served by one chat model. When the server does
// not have the model yet and pulling is allowed, capabilities report
// "after-download": creating a handle starts (or joins) a model pull whose
// progress is forwarded to the caller's Monitor, and Ready blocks until the
// pull completes.
package ollama

import (
	"context"
	"iter"
	"log/slog"
	"net/http"
	"strings"

	"github.com/nadzzz/polyglot/internal/config"
	"github.com/nadzzz/polyglot/internal/engine"
	"github.com/nadzzz/polyglot/internal/engine/prompt"
	"github.com/nadzzz/polyglot/internal/languages"
)

// Host serves detection, translation, and summarization from an Ollama model.
type Host struct {
	endpoint string
	model    string
	pull     bool
	langs    languages.Set
	client   *http.Client
	puller   *puller
	logger   *slog.Logger
}

// New creates an Ollama host from config.
func New(cfg config.OllamaConfig) *Host {
	model := cfg.Model
	if model == "" {
		model = "llama3.2:3b"
	}
	langs := cfg.Languages
	if len(langs) == 0 {
		langs = config.DefaultEngineLanguages
	}
	h := &Host{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		model:    model,
		pull:     cfg.Pull,
		langs:    languages.NewSet(langs),
		client:   &http.Client{},
		logger:   slog.With("component", "ollama"),
	}
	h.puller = newPuller(h)
	return h
}

// Name returns the backend identifier.
func (h *Host) Name() string { return "ollama" }

// LanguageDetector returns the detection factory.
func (h *Host) LanguageDetector() engine.DetectorFactory { return detectorFactory{h} }

// Translator returns the translation factory.
func (h *Host) Translator() engine.TranslatorFactory { return translatorFactory{h} }

// Summarizer returns the summarization factory.
func (h *Host) Summarizer() engine.SummarizerFactory { return summarizerFactory{h} }

// Close cancels any model pull in progress.
func (h *Host) Close() error {
	h.puller.close()
	return nil
}

// availability reports the model's readiness, shared by all capabilities.
func (h *Host) availability(ctx context.Context) (engine.Availability, error) {
	present, err := h.hasModel(ctx)
	if err != nil {
		return engine.AvailabilityNo, err
	}
	switch {
	case present:
		return engine.AvailabilityReadily, nil
	case h.pull:
		return engine.AvailabilityAfterDownload, nil
	default:
		return engine.AvailabilityNo, nil
	}
}

// prepare starts a pull when the model is missing and returns what Ready waits on.
func (h *Host) prepare(ctx context.Context, c engine.Capability, m engine.Monitor) (*pullJob, error) {
	avail, err := h.availability(ctx)
	if err != nil {
		return nil, err
	}
	if avail != engine.AvailabilityAfterDownload {
		return nil, nil
	}
	return h.puller.start(c, m), nil
}

// --- detection ---

type detectorFactory struct{ h *Host }

func (f detectorFactory) Availability(ctx context.Context) (engine.Availability, error) {
	return f.h.availability(ctx)
}

func (f detectorFactory) LanguageAvailability(ctx context.Context, lang string) (engine.Availability, error) {
	if !f.h.langs.Has(lang) {
		return engine.AvailabilityNo, nil
	}
	return f.h.availability(ctx)
}

func (f detectorFactory) Create(ctx context.Context, opts engine.DetectorOptions) (engine.Detector, error) {
	job, err := f.h.prepare(ctx, engine.Detection, opts.Monitor)
	if err != nil {
		return nil, err
	}
	return &detector{h: f.h, job: job}, nil
}

type detector struct {
	h   *Host
	job *pullJob
}

func (d *detector) Ready(ctx context.Context) error { return d.job.wait(ctx) }

func (d *detector) Detect(ctx context.Context, text string) ([]engine.LanguageGuess, error) {
	content, err := d.h.chat(ctx, prompt.Detection(), text, true)
	if err != nil {
		return nil, err
	}
	return prompt.ParseDetections(content)
}

func (d *detector) Close() error { return nil }

// --- translation ---

type translatorFactory struct{ h *Host }

func (f translatorFactory) PairAvailability(ctx context.Context, source, target string) (engine.Availability, error) {
	if !f.h.langs.Has(source) || !f.h.langs.Has(target) {
		return engine.AvailabilityNo, nil
	}
	return f.h.availability(ctx)
}

func (f translatorFactory) Create(ctx context.Context, opts engine.TranslatorOptions) (engine.Translator, error) {
	job, err := f.h.prepare(ctx, engine.Translation, opts.Monitor)
	if err != nil {
		return nil, err
	}
	return &translator{h: f.h, job: job, source: opts.SourceLanguage, target: opts.TargetLanguage}, nil
}

type translator struct {
	h      *Host
	job    *pullJob
	source string
	target string
}

func (t *translator) Ready(ctx context.Context) error { return t.job.wait(ctx) }

func (t *translator) Translate(ctx context.Context, text string) (string, error) {
	content, err := t.h.chat(ctx, prompt.Translation(t.source, t.target), text, false)
	if err != nil {
		return "", err
	}
	return prompt.CleanOutput(content), nil
}

func (t *translator) Close() error { return nil }

// --- summarization ---

type summarizerFactory struct{ h *Host }

func (f summarizerFactory) Availability(ctx context.Context) (engine.Availability, error) {
	return f.h.availability(ctx)
}

func (f summarizerFactory) Create(ctx context.Context, opts engine.SummarizerOptions) (engine.Summarizer, error) {
	job, err := f.h.prepare(ctx, engine.Summarization, opts.Monitor)
	if err != nil {
		return nil, err
	}
	return &summarizer{h: f.h, job: job, opts: opts}, nil
}

type summarizer struct {
	h    *Host
	job  *pullJob
	opts engine.SummarizerOptions
}

func (s *summarizer) Ready(ctx context.Context) error { return s.job.wait(ctx) }

func (s *summarizer) Summarize(ctx context.Context, text, callContext string) (string, error) {
	content, err := s.h.chat(ctx, prompt.Summary(s.opts, callContext), text, false)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(content), nil
}

func (s *summarizer) SummarizeStreaming(ctx context.Context, text, callContext string) iter.Seq2[string, error] {
	return s.h.chatStream(ctx, prompt.Summary(s.opts, callContext), text)
}

func (s *summarizer) Close() error { return nil }
