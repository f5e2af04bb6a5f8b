// Package gateway wraps the engine host's three capabilities behind one call
// sequence: availability check, readiness query, handle creation with an
// optional download wait, the primary operation, and result validation.
//
// Every failure is returned as an *apperr.Error and logged.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"

	"github.com/nadzzz/polyglot/internal/apperr"
	"github.com/nadzzz/polyglot/internal/engine"
	"github.com/nadzzz/polyglot/internal/languages"
	"github.com/nadzzz/polyglot/internal/markdown"
)

// DefaultMinConfidence is the lowest detector confidence accepted.
const DefaultMinConfidence = 0.5

// SummaryOptions select the kind of summary produced.
type SummaryOptions struct {
	Type   engine.SummaryType
	Format engine.SummaryFormat
	Length engine.SummaryLength

	// Context is background for the summarizer, e.g. "This is a chat message".
	Context string
}

// DefaultSummaryOptions returns medium-length markdown key points.
func DefaultSummaryOptions() SummaryOptions {
	return SummaryOptions{
		Type:   engine.SummaryKeyPoints,
		Format: engine.FormatMarkdown,
		Length: engine.LengthMedium,
	}
}

func (o SummaryOptions) withDefaults() SummaryOptions {
	d := DefaultSummaryOptions()
	if o.Type == "" {
		o.Type = d.Type
	}
	if o.Format == "" {
		o.Format = d.Format
	}
	if o.Length == "" {
		o.Length = d.Length
	}
	return o
}

// Gateway runs capability calls against a host.
type Gateway struct {
	host          engine.Host
	caps          engine.Set
	monitor       engine.Monitor
	minConfidence float64
	cleaner       *markdown.Renderer
	logger        *slog.Logger
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithMonitor sets the observer for model download progress.
func WithMonitor(m engine.Monitor) Option {
	return func(g *Gateway) { g.monitor = m }
}

// WithMinConfidence sets the lowest detector confidence accepted.
func WithMinConfidence(v float64) Option {
	return func(g *Gateway) { g.minConfidence = v }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Gateway) { g.logger = l }
}

// New creates a Gateway. The host's capabilities are negotiated once, here.
func New(host engine.Host, opts ...Option) *Gateway {
	g := &Gateway{
		host:          host,
		caps:          engine.Negotiate(host),
		minConfidence: DefaultMinConfidence,
		cleaner:       markdown.New(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = slog.With("component", "gateway")
	}
	if g.monitor == nil {
		g.monitor = engine.LogMonitor(g.logger)
	}
	return g
}

// Capabilities returns the negotiated capability set.
func (g *Gateway) Capabilities() engine.Set {
	return g.caps
}

// monitorFor attaches the progress observer only when a download is expected.
func (g *Gateway) monitorFor(avail engine.Availability) engine.Monitor {
	if avail == engine.AvailabilityAfterDownload {
		return g.monitor
	}
	return nil
}

// DetectLanguage returns the ISO-639-1 code of text's language.
func (g *Gateway) DetectLanguage(ctx context.Context, text string) (string, error) {
	lang, err := g.detect(ctx, text)
	if err != nil {
		g.logger.Error("language detection error", "error", err)
		return "", err
	}
	return lang, nil
}

func (g *Gateway) detect(ctx context.Context, text string) (string, error) {
	if !g.caps.Has(engine.Detection) {
		return "", apperr.New(apperr.KindUnavailable, "Language detection API is not available")
	}
	factory := g.host.LanguageDetector()

	avail, err := factory.Availability(ctx)
	if err != nil {
		return "", apperr.Engine(fmt.Errorf("detector availability: %w", err))
	}
	if avail == engine.AvailabilityNo {
		return "", apperr.New(apperr.KindUnsupported, "Language detector is not usable on this device")
	}

	detector, err := factory.Create(ctx, engine.DetectorOptions{Monitor: g.monitorFor(avail)})
	if err != nil {
		return "", apperr.Engine(fmt.Errorf("creating detector: %w", err))
	}
	defer detector.Close()

	if err := detector.Ready(ctx); err != nil {
		return "", apperr.Engine(fmt.Errorf("detector not ready: %w", err))
	}

	results, err := detector.Detect(ctx, text)
	if err != nil {
		return "", apperr.Engine(fmt.Errorf("detecting language: %w", err))
	}
	if len(results) == 0 || results[0].Language == "" {
		return "", apperr.New(apperr.KindEmptyResult, "Could not detect language")
	}

	top := results[0]
	if top.Confidence < g.minConfidence {
		return "", apperr.New(apperr.KindLowConfidence, "Language detection confidence too low")
	}

	lang, err := languages.Normalize(top.Language)
	if err != nil {
		return "", apperr.Wrap(apperr.KindUnsupported, err, fmt.Sprintf("Language %s is not supported", top.Language))
	}
	langAvail, err := factory.LanguageAvailability(ctx, lang)
	if err != nil {
		return "", apperr.Engine(fmt.Errorf("language availability: %w", err))
	}
	if langAvail != engine.AvailabilityReadily {
		return "", apperr.Newf(apperr.KindUnsupported, "Language %s is not supported", lang)
	}

	g.logger.Debug("language detected", "language", lang, "confidence", top.Confidence)
	return lang, nil
}

// Translate translates text into target. An empty source is detected first.
func (g *Gateway) Translate(ctx context.Context, text, target, source string) (string, error) {
	out, err := g.translate(ctx, text, target, source)
	if err != nil {
		g.logger.Error("translation error", "error", err, "source", source, "target", target)
		return "", err
	}
	return out, nil
}

func (g *Gateway) translate(ctx context.Context, text, target, source string) (string, error) {
	if !g.caps.Has(engine.Translation) {
		return "", apperr.New(apperr.KindUnavailable, "Translation API is not available")
	}

	tgt, err := languages.Normalize(target)
	if err != nil {
		return "", apperr.Wrap(apperr.KindInvalidInput, err, fmt.Sprintf("Language %s is not supported", target))
	}

	var src string
	if source == "" {
		if src, err = g.detect(ctx, text); err != nil {
			return "", err
		}
	} else if src, err = languages.Normalize(source); err != nil {
		return "", apperr.Wrap(apperr.KindInvalidInput, err, fmt.Sprintf("Language %s is not supported", source))
	}

	factory := g.host.Translator()
	avail, err := factory.PairAvailability(ctx, src, tgt)
	if err != nil {
		return "", apperr.Engine(fmt.Errorf("translator availability: %w", err))
	}
	if avail == engine.AvailabilityNo {
		return "", apperr.Newf(apperr.KindUnsupported, "Translation from %s to %s is not supported", src, tgt)
	}

	translator, err := factory.Create(ctx, engine.TranslatorOptions{
		SourceLanguage: src,
		TargetLanguage: tgt,
		Monitor:        g.monitorFor(avail),
	})
	if err != nil {
		return "", apperr.Engine(fmt.Errorf("creating translator: %w", err))
	}
	defer translator.Close()

	if err := translator.Ready(ctx); err != nil {
		return "", apperr.Engine(fmt.Errorf("translator not ready: %w", err))
	}

	out, err := translator.Translate(ctx, text)
	if err != nil {
		return "", apperr.Engine(fmt.Errorf("translating: %w", err))
	}
	if out == "" {
		return "", apperr.New(apperr.KindEmptyResult, "Translation failed")
	}
	return out, nil
}

// Summarize returns a summary of text. HTML tags in text are removed first.
func (g *Gateway) Summarize(ctx context.Context, text string, opts SummaryOptions) (string, error) {
	summarizer, clean, err := g.summarizer(ctx, text, opts)
	if err != nil {
		g.logger.Error("summarization error", "error", err)
		return "", err
	}
	defer summarizer.Close()

	out, err := summarizer.Summarize(ctx, clean, opts.Context)
	if err != nil {
		err = apperr.Engine(fmt.Errorf("summarizing: %w", err))
		g.logger.Error("summarization error", "error", err)
		return "", err
	}
	if out == "" {
		err = apperr.New(apperr.KindEmptyResult, "Failed to generate summary")
		g.logger.Error("summarization error", "error", err)
		return "", err
	}
	return out, nil
}

// SummarizeStreaming starts a streaming summary. Setup failures are returned
// immediately. The sequence yields fragments: each is the text the engine
// produced since the previous one, so concatenating them gives the summary.
// The sequence can be ranged over once.
func (g *Gateway) SummarizeStreaming(ctx context.Context, text string, opts SummaryOptions) (iter.Seq2[string, error], error) {
	summarizer, clean, err := g.summarizer(ctx, text, opts)
	if err != nil {
		g.logger.Error("summarization error", "error", err)
		return nil, err
	}
	return g.fragments(summarizer, summarizer.SummarizeStreaming(ctx, clean, opts.Context)), nil
}

// ErrConsumed is yielded when a streaming summary is ranged over a second time.
var ErrConsumed = errors.New("summary stream already consumed")

func (g *Gateway) fragments(summarizer engine.Summarizer, segments iter.Seq2[string, error]) iter.Seq2[string, error] {
	used := false
	return func(yield func(string, error) bool) {
		if used {
			yield("", ErrConsumed)
			return
		}
		used = true
		defer summarizer.Close()

		var previous string
		for segment, err := range segments {
			if err != nil {
				err = apperr.Engine(fmt.Errorf("summarizing: %w", err))
				g.logger.Error("summarization error", "error", err)
				yield("", err)
				return
			}
			fragment := diff(previous, segment)
			previous = segment
			if fragment == "" {
				continue
			}
			if !yield(fragment, nil) {
				return
			}
		}
		if previous == "" {
			err := apperr.New(apperr.KindEmptyResult, "Failed to generate summary")
			g.logger.Error("summarization error", "error", err)
			yield("", err)
		}
	}
}

// diff returns what segment adds to previous. A segment that does not extend
// previous is emitted whole.
func diff(previous, segment string) string {
	if len(segment) >= len(previous) && segment[:len(previous)] == previous {
		return segment[len(previous):]
	}
	return segment
}

// summarizer runs steps 1 to 4 of the call sequence and returns a ready handle
// together with the cleaned input.
func (g *Gateway) summarizer(ctx context.Context, text string, opts SummaryOptions) (engine.Summarizer, string, error) {
	if !g.caps.Has(engine.Summarization) {
		return nil, "", apperr.New(apperr.KindUnavailable, "Summarization API is not available")
	}
	factory := g.host.Summarizer()

	avail, err := factory.Availability(ctx)
	if err != nil {
		return nil, "", apperr.Engine(fmt.Errorf("summarizer availability: %w", err))
	}
	if avail == engine.AvailabilityNo {
		return nil, "", apperr.New(apperr.KindUnsupported, "Summarization is not available on this device")
	}

	opts = opts.withDefaults()
	summarizer, err := factory.Create(ctx, engine.SummarizerOptions{
		Type:          opts.Type,
		Format:        opts.Format,
		Length:        opts.Length,
		SharedContext: opts.Context,
		Monitor:       g.monitorFor(avail),
	})
	if err != nil {
		return nil, "", apperr.Engine(fmt.Errorf("creating summarizer: %w", err))
	}
	if err := summarizer.Ready(ctx); err != nil {
		summarizer.Close()
		return nil, "", apperr.Engine(fmt.Errorf("summarizer not ready: %w", err))
	}
	return summarizer, g.cleaner.StripTags(text), nil
}
