// Package enginetest provides a scriptable in-memory engine.Host for tests.
package enginetest

import (
	"context"
	"fmt"
	"iter"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nadzzz/polyglot/internal/engine"
)

// Host is a fake engine. Zero values mean "works": every capability is
// present and readily available, detection answers English with high
// confidence, and translations and summaries are derived from the input.
// Configure fields before first use.
type Host struct {
	// Missing capabilities. A missing capability's factory accessor returns nil.
	NoDetector   bool
	NoTranslator bool
	NoSummarizer bool

	// Per-capability readiness. Empty means readily.
	DetectorAvailability   engine.Availability
	TranslatorAvailability engine.Availability
	SummarizerAvailability engine.Availability

	// AvailabilityErr is returned by every availability query.
	AvailabilityErr error

	// Unsupported languages are reported as "no" by LanguageAvailability and
	// PairAvailability.
	Unsupported []string

	// Detections is returned by Detect. Nil means a single confident "en".
	Detections []engine.LanguageGuess
	DetectErr  error

	// Translation is returned by Translate. Empty means "[target] text".
	Translation  string
	TranslateErr error

	// Summary is returned by Summarize. Empty means "- " + text.
	Summary      string
	SummaryErr   error
	EmptySummary bool

	// Segments are the cumulative segments yielded by SummarizeStreaming.
	// Nil means a single segment equal to the Summarize result.
	Segments  []string
	StreamErr error

	// Progress is reported to the handle's Monitor on Create when the
	// capability needs a download.
	Progress []engine.DownloadProgress
	ReadyErr error

	// Delay and Gate hold every primary operation. Gate blocks until it is
	// closed or receives a value.
	Delay time.Duration
	Gate  chan struct{}

	DetectCalls    atomic.Int32
	TranslateCalls atomic.Int32
	SummarizeCalls atomic.Int32
	CreateCalls    atomic.Int32

	mu             sync.Mutex
	translatorOpts []engine.TranslatorOptions
	summarizerOpts []engine.SummarizerOptions
	summarized     []Call
	closed         bool
}

// Call records the inputs of one Summarize or SummarizeStreaming call.
type Call struct {
	Text    string
	Context string
}

// New returns a Host with defaults.
func New() *Host { return &Host{} }

// Name returns "fake".
func (h *Host) Name() string { return "fake" }

// LanguageDetector returns the detector factory, or nil when NoDetector is set.
func (h *Host) LanguageDetector() engine.DetectorFactory {
	if h.NoDetector {
		return nil
	}
	return detectorFactory{h}
}

// Translator returns the translator factory, or nil when NoTranslator is set.
func (h *Host) Translator() engine.TranslatorFactory {
	if h.NoTranslator {
		return nil
	}
	return translatorFactory{h}
}

// Summarizer returns the summarizer factory, or nil when NoSummarizer is set.
func (h *Host) Summarizer() engine.SummarizerFactory {
	if h.NoSummarizer {
		return nil
	}
	return summarizerFactory{h}
}

// Close marks the host closed.
func (h *Host) Close() error {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()
	return nil
}

// Closed reports whether Close was called.
func (h *Host) Closed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

// TranslatorOptions returns the options of every translator created so far.
func (h *Host) TranslatorOptions() []engine.TranslatorOptions {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]engine.TranslatorOptions(nil), h.translatorOpts...)
}

// SummarizerOptions returns the options of every summarizer created so far.
func (h *Host) SummarizerOptions() []engine.SummarizerOptions {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]engine.SummarizerOptions(nil), h.summarizerOpts...)
}

// SummarizeInputs returns the text and context of every summarize call so far.
func (h *Host) SummarizeInputs() []Call {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Call(nil), h.summarized...)
}

func orReadily(a engine.Availability) engine.Availability {
	if a == "" {
		return engine.AvailabilityReadily
	}
	return a
}

func (h *Host) unsupported(lang string) bool {
	for _, u := range h.Unsupported {
		if u == lang {
			return true
		}
	}
	return false
}

// prepare reports scripted progress when the capability needs a download.
func (h *Host) prepare(c engine.Capability, avail engine.Availability, m engine.Monitor) {
	h.CreateCalls.Add(1)
	if avail != engine.AvailabilityAfterDownload {
		return
	}
	for _, p := range h.Progress {
		engine.Notify(m, c, p)
	}
}

// hold applies Delay and Gate.
func (h *Host) hold(ctx context.Context) error {
	if h.Delay > 0 {
		t := time.NewTimer(h.Delay)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if h.Gate != nil {
		select {
		case <-h.Gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

type detectorFactory struct{ h *Host }

func (f detectorFactory) Availability(context.Context) (engine.Availability, error) {
	return orReadily(f.h.DetectorAvailability), f.h.AvailabilityErr
}

func (f detectorFactory) LanguageAvailability(_ context.Context, lang string) (engine.Availability, error) {
	if f.h.AvailabilityErr != nil {
		return engine.AvailabilityNo, f.h.AvailabilityErr
	}
	if f.h.unsupported(lang) {
		return engine.AvailabilityNo, nil
	}
	return engine.AvailabilityReadily, nil
}

func (f detectorFactory) Create(_ context.Context, opts engine.DetectorOptions) (engine.Detector, error) {
	f.h.prepare(engine.Detection, orReadily(f.h.DetectorAvailability), opts.Monitor)
	return detector{f.h}, nil
}

type detector struct{ h *Host }

func (d detector) Ready(context.Context) error { return d.h.ReadyErr }
func (d detector) Close() error                { return nil }

func (d detector) Detect(ctx context.Context, text string) ([]engine.LanguageGuess, error) {
	d.h.DetectCalls.Add(1)
	if err := d.h.hold(ctx); err != nil {
		return nil, err
	}
	if d.h.DetectErr != nil {
		return nil, d.h.DetectErr
	}
	if d.h.Detections == nil {
		return []engine.LanguageGuess{{Language: "en", Confidence: 0.99}}, nil
	}
	return append([]engine.LanguageGuess(nil), d.h.Detections...), nil
}

type translatorFactory struct{ h *Host }

func (f translatorFactory) PairAvailability(_ context.Context, source, target string) (engine.Availability, error) {
	if f.h.AvailabilityErr != nil {
		return engine.AvailabilityNo, f.h.AvailabilityErr
	}
	if f.h.unsupported(source) || f.h.unsupported(target) {
		return engine.AvailabilityNo, nil
	}
	return orReadily(f.h.TranslatorAvailability), nil
}

func (f translatorFactory) Create(_ context.Context, opts engine.TranslatorOptions) (engine.Translator, error) {
	f.h.mu.Lock()
	f.h.translatorOpts = append(f.h.translatorOpts, opts)
	f.h.mu.Unlock()
	f.h.prepare(engine.Translation, orReadily(f.h.TranslatorAvailability), opts.Monitor)
	return translator{h: f.h, target: opts.TargetLanguage}, nil
}

type translator struct {
	h      *Host
	target string
}

func (t translator) Ready(context.Context) error { return t.h.ReadyErr }
func (t translator) Close() error                { return nil }

func (t translator) Translate(ctx context.Context, text string) (string, error) {
	t.h.TranslateCalls.Add(1)
	if err := t.h.hold(ctx); err != nil {
		return "", err
	}
	if t.h.TranslateErr != nil {
		return "", t.h.TranslateErr
	}
	if t.h.Translation != "" {
		return t.h.Translation, nil
	}
	return fmt.Sprintf("[%s] %s", t.target, text), nil
}

type summarizerFactory struct{ h *Host }

func (f summarizerFactory) Availability(context.Context) (engine.Availability, error) {
	return orReadily(f.h.SummarizerAvailability), f.h.AvailabilityErr
}

func (f summarizerFactory) Create(_ context.Context, opts engine.SummarizerOptions) (engine.Summarizer, error) {
	f.h.mu.Lock()
	f.h.summarizerOpts = append(f.h.summarizerOpts, opts)
	f.h.mu.Unlock()
	f.h.prepare(engine.Summarization, orReadily(f.h.SummarizerAvailability), opts.Monitor)
	return summarizer{f.h}, nil
}

type summarizer struct{ h *Host }

func (s summarizer) Ready(context.Context) error { return s.h.ReadyErr }
func (s summarizer) Close() error                { return nil }

func (s summarizer) record(text, callContext string) {
	s.h.SummarizeCalls.Add(1)
	s.h.mu.Lock()
	s.h.summarized = append(s.h.summarized, Call{Text: text, Context: callContext})
	s.h.mu.Unlock()
}

func (s summarizer) result(text string) string {
	switch {
	case s.h.EmptySummary:
		return ""
	case s.h.Summary != "":
		return s.h.Summary
	default:
		return "- " + text
	}
}

func (s summarizer) Summarize(ctx context.Context, text, callContext string) (string, error) {
	s.record(text, callContext)
	if err := s.h.hold(ctx); err != nil {
		return "", err
	}
	if s.h.SummaryErr != nil {
		return "", s.h.SummaryErr
	}
	return s.result(text), nil
}

func (s summarizer) SummarizeStreaming(ctx context.Context, text, callContext string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		s.record(text, callContext)
		if err := s.h.hold(ctx); err != nil {
			yield("", err)
			return
		}
		segments := s.h.Segments
		if segments == nil {
			if r := s.result(text); r != "" {
				segments = []string{r}
			}
		}
		for _, seg := range segments {
			if !yield(seg, nil) {
				return
			}
		}
		if s.h.StreamErr != nil {
			yield("", s.h.StreamErr)
		}
	}
}
