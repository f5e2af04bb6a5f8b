// Package message defines the core data types of a polyglot chat session.
package message

import (
	"time"
	"unicode/utf8"

	"github.com/nadzzz/polyglot/internal/languages"
)

// DefaultSummarizeThreshold is the text length (in characters) above which
// summarization is offered.
const DefaultSummarizeThreshold = 150

// Message is a submitted chat message. It is immutable once created.
type Message struct {
	// ID is the creation timestamp in Unix milliseconds, unique within a session.
	ID int64 `json:"id"`

	// Text is the message as submitted.
	Text string `json:"text"`

	// Language is the ISO-639-1 code detected at creation (e.g., "en", "fr").
	// It is never re-detected.
	Language string `json:"language"`

	// ShowSummarize is true when the text is longer than the summarize threshold.
	ShowSummarize bool `json:"show_summarize"`

	// CreatedAt is when the message was accepted.
	CreatedAt time.Time `json:"created_at"`
}

// New builds a Message. threshold <= 0 selects DefaultSummarizeThreshold.
func New(id int64, text, language string, threshold int, now time.Time) Message {
	if threshold <= 0 {
		threshold = DefaultSummarizeThreshold
	}
	return Message{
		ID:            id,
		Text:          text,
		Language:      language,
		ShowSummarize: utf8.RuneCountInString(text) > threshold,
		CreatedAt:     now,
	}
}

// CanSummarize reports whether the summarize action is offered for m:
// the text is long enough and it was detected as English.
func (m Message) CanSummarize() bool {
	return m.ShowSummarize && m.Language == languages.English
}

// Enrichment is the transient per-message display state produced by user
// actions. It lives beside the stored Message, never inside it.
type Enrichment struct {
	// Summary is the latest summary (markdown key points by default).
	Summary string `json:"summary,omitempty"`

	// SummaryHTML is Summary rendered to sanitized HTML. Filled by transports that need it.
	SummaryHTML string `json:"summary_html,omitempty"`

	// Translation is the latest translation.
	Translation string `json:"translation,omitempty"`

	// TargetLanguage is the language Translation is in.
	TargetLanguage string `json:"target_language,omitempty"`

	// Loading is true while a summarize or translate request is in flight.
	Loading bool `json:"loading"`

	// Error is the display string of the last failed action, cleared when a new one starts.
	Error string `json:"error,omitempty"`
}

// View is a message together with what the presentation needs to render it.
type View struct {
	Message
	CanSummarize bool       `json:"can_summarize"`
	Enrichment   Enrichment `json:"enrichment"`
}

// IDGenerator hands out timestamp IDs that are strictly increasing even when
// two messages are created within the same millisecond. Not safe for
// concurrent use; callers serialize access.
type IDGenerator struct {
	last int64
}

// Next returns the ID for a message created at now.
func (g *IDGenerator) Next(now time.Time) int64 {
	id := now.UnixMilli()
	if id <= g.last {
		id = g.last + 1
	}
	g.last = id
	return id
}

// Reset makes the generator continue after last, e.g. after loading a persisted session.
func (g *IDGenerator) Reset(last int64) {
	g.last = last
}
