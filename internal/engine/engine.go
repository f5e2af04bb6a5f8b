// Package engine defines the contract polyglot expects from an AI capability host.
//
// A host exposes up to three capabilities (language detection, translation,
// summarization). Each capability is reached through a factory that reports
// readiness, creates a handle with capability-specific options, and lets the
// caller wait until the handle's model assets are in place. polyglot ships
// two hosts: Ollama (self-hosted, models may need a one-time download) and
// OpenAI-compatible chat endpoints (always ready once configured).
package engine

import (
	"context"
	"iter"
)

// Availability is a capability's readiness on this host.
type Availability string

const (
	// AvailabilityNo means the capability cannot be used.
	AvailabilityNo Availability = "no"

	// AvailabilityReadily means the model assets are present and usable now.
	AvailabilityReadily Availability = "readily"

	// AvailabilityAfterDownload means the capability works once a one-time
	// model download completes.
	AvailabilityAfterDownload Availability = "after-download"
)

// LanguageGuess is one candidate language for a text.
type LanguageGuess struct {
	// Language is the ISO-639-1 code (e.g., "en", "fr").
	Language string `json:"language"`

	// Confidence is the detector's certainty in [0,1].
	Confidence float64 `json:"confidence"`
}

// DetectorOptions configure a language detector handle.
type DetectorOptions struct {
	Monitor Monitor
}

// DetectorFactory creates language detectors.
type DetectorFactory interface {
	// Availability reports whether detection can run on this host.
	Availability(ctx context.Context) (Availability, error)

	// LanguageAvailability reports whether lang is supported for further use.
	LanguageAvailability(ctx context.Context, lang string) (Availability, error)

	// Create returns a detector. When model assets must be downloaded, progress
	// is reported to opts.Monitor and Ready blocks until they are in place.
	Create(ctx context.Context, opts DetectorOptions) (Detector, error)
}

// Detector identifies the language of text.
type Detector interface {
	Ready(ctx context.Context) error

	// Detect returns guesses ordered by decreasing confidence.
	Detect(ctx context.Context, text string) ([]LanguageGuess, error)

	Close() error
}

// TranslatorOptions configure a translator handle for one language pair.
type TranslatorOptions struct {
	SourceLanguage string
	TargetLanguage string
	Monitor        Monitor
}

// TranslatorFactory creates translators.
type TranslatorFactory interface {
	// PairAvailability reports whether source -> target translation is supported.
	PairAvailability(ctx context.Context, source, target string) (Availability, error)

	Create(ctx context.Context, opts TranslatorOptions) (Translator, error)
}

// Translator translates text between the pair it was created for.
type Translator interface {
	Ready(ctx context.Context) error
	Translate(ctx context.Context, text string) (string, error)
	Close() error
}

// SummaryType selects what kind of summary is produced.
type SummaryType string

const (
	SummaryKeyPoints SummaryType = "key-points"
	SummaryTLDR      SummaryType = "tldr"
	SummaryTeaser    SummaryType = "teaser"
	SummaryHeadline  SummaryType = "headline"
)

// SummaryFormat selects the output markup.
type SummaryFormat string

const (
	FormatMarkdown  SummaryFormat = "markdown"
	FormatPlainText SummaryFormat = "plain-text"
)

// SummaryLength selects the output size.
type SummaryLength string

const (
	LengthShort  SummaryLength = "short"
	LengthMedium SummaryLength = "medium"
	LengthLong   SummaryLength = "long"
)

// SummarizerOptions configure a summarizer handle.
type SummarizerOptions struct {
	Type   SummaryType
	Format SummaryFormat
	Length SummaryLength

	// SharedContext is background applied to every text this handle summarizes.
	SharedContext string

	Monitor Monitor
}

// SummarizerFactory creates summarizers.
type SummarizerFactory interface {
	Availability(ctx context.Context) (Availability, error)
	Create(ctx context.Context, opts SummarizerOptions) (Summarizer, error)
}

// Summarizer summarizes text.
type Summarizer interface {
	Ready(ctx context.Context) error

	// Summarize returns the full summary. context is per-call background.
	Summarize(ctx context.Context, text, context string) (string, error)

	// SummarizeStreaming yields cumulative segments: each value is the whole
	// summary produced so far. The sequence ends after the final segment or
	// the first error.
	SummarizeStreaming(ctx context.Context, text, context string) iter.Seq2[string, error]

	Close() error
}

// Host is an AI capability provider. A factory accessor returns nil when the
// host does not offer that capability at all.
type Host interface {
	// Name returns the backend identifier (e.g., "ollama", "openai").
	Name() string

	LanguageDetector() DetectorFactory
	Translator() TranslatorFactory
	Summarizer() SummarizerFactory

	// Close releases any resources held by the host.
	Close() error
}
