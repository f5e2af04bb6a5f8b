// Package chat implements the message orchestration behind every polyglot
// surface.
//
// The Controller owns the message list (through a store.Store), the active
// error shown next to the input, and each message's enrichment (summary,
// translation, loading flag). Presentations call it in response to user
// actions and render what it returns.
package chat

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/nadzzz/polyglot/internal/apperr"
	"github.com/nadzzz/polyglot/internal/engine"
	"github.com/nadzzz/polyglot/internal/gateway"
	"github.com/nadzzz/polyglot/internal/languages"
	"github.com/nadzzz/polyglot/internal/message"
	"github.com/nadzzz/polyglot/internal/store"
)

// Fallback display strings for failures that carry no message of their own.
const (
	SubmitFailed    = "Failed to process message. Make sure the AI engine is reachable."
	SummarizeFailed = "Failed to summarize text"
	TranslateFailed = "Failed to translate text"
)

// DefaultSummaryContext is the background passed to the summarizer.
const DefaultSummaryContext = "This is a chat message"

// Gateway is the capability gateway the controller calls.
type Gateway interface {
	DetectLanguage(ctx context.Context, text string) (string, error)
	Translate(ctx context.Context, text, target, source string) (string, error)
	Summarize(ctx context.Context, text string, opts gateway.SummaryOptions) (string, error)
	SummarizeStreaming(ctx context.Context, text string, opts gateway.SummaryOptions) (iter.Seq2[string, error], error)
	Capabilities() engine.Set
}

type action uint8

const (
	actionSummarize action = iota + 1
	actionTranslate
)

// enrichment is a message's display state plus which actions are in flight.
type enrichment struct {
	view        message.Enrichment
	summarizing bool
	translating bool
}

func (e *enrichment) busy(a action) bool {
	if a == actionSummarize {
		return e.summarizing
	}
	return e.translating
}

func (e *enrichment) set(a action, on bool) {
	if a == actionSummarize {
		e.summarizing = on
	} else {
		e.translating = on
	}
	e.view.Loading = e.summarizing || e.translating
}

// Controller orchestrates submit, clear, summarize, and translate.
// Safe for concurrent use.
type Controller struct {
	gw        Gateway
	store     store.Store
	threshold int
	summary   gateway.SummaryOptions
	langs     []languages.Language
	logger    *slog.Logger
	now       func() time.Time

	// submitMu serializes id assignment and append so ids follow insertion order.
	submitMu sync.Mutex
	ids      message.IDGenerator

	mu        sync.Mutex
	activeErr string
	enrich    map[int64]*enrichment
}

// Option configures a Controller.
type Option func(*Controller)

// WithSummarizeThreshold sets the text length above which summarization is offered.
func WithSummarizeThreshold(n int) Option {
	return func(c *Controller) { c.threshold = n }
}

// WithSummaryOptions sets the options used for per-message summaries.
func WithSummaryOptions(o gateway.SummaryOptions) Option {
	return func(c *Controller) { c.summary = o }
}

// WithLanguages sets the translation targets offered to the user.
func WithLanguages(codes []string) Option {
	return func(c *Controller) { c.langs = languages.List(codes) }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// NewController creates a Controller over gw and st.
func NewController(gw Gateway, st store.Store, opts ...Option) *Controller {
	summary := gateway.DefaultSummaryOptions()
	summary.Context = DefaultSummaryContext

	c := &Controller{
		gw:        gw,
		store:     st,
		threshold: message.DefaultSummarizeThreshold,
		summary:   summary,
		langs:     languages.List(nil),
		now:       time.Now,
		enrich:    make(map[int64]*enrichment),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.With("component", "chat")
	}
	return c
}

// Resume continues id generation after the messages already in the store.
func (c *Controller) Resume(ctx context.Context) error {
	last, err := store.LastID(ctx, c.store)
	if err != nil {
		return err
	}
	c.submitMu.Lock()
	c.ids.Reset(last)
	c.submitMu.Unlock()
	return nil
}

// Submit detects text's language and appends it as a new message. On any
// failure nothing is appended and the active error is set.
func (c *Controller) Submit(ctx context.Context, text string) (message.Message, error) {
	if strings.TrimSpace(text) == "" {
		return message.Message{}, apperr.New(apperr.KindInvalidInput, "message text is required")
	}
	c.setActiveError("")

	lang, err := c.gw.DetectLanguage(ctx, text)
	if err != nil {
		return message.Message{}, c.submitFailed(err)
	}

	c.submitMu.Lock()
	defer c.submitMu.Unlock()

	now := c.now()
	m := message.New(c.ids.Next(now), text, lang, c.threshold, now)
	if err := c.store.Append(ctx, m); err != nil {
		return message.Message{}, c.submitFailed(err)
	}

	c.logger.Info("message submitted", "id", m.ID, "language", m.Language, "show_summarize", m.ShowSummarize)
	return m, nil
}

func (c *Controller) submitFailed(err error) error {
	c.setActiveError(apperr.Display(err, SubmitFailed))
	c.logger.Error("error processing message", "error", err)
	return err
}

// Clear removes every message, the active error, and all enrichments.
// Clearing an empty chat is a no-op.
func (c *Controller) Clear(ctx context.Context) error {
	if err := c.store.Clear(ctx); err != nil {
		return err
	}
	c.mu.Lock()
	c.activeErr = ""
	c.enrich = make(map[int64]*enrichment)
	c.mu.Unlock()
	return nil
}

// ActiveError returns the display string of the last failed submission, or "".
func (c *Controller) ActiveError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeErr
}

func (c *Controller) setActiveError(s string) {
	c.mu.Lock()
	c.activeErr = s
	c.mu.Unlock()
}

// Messages returns every message in insertion order with its enrichment.
func (c *Controller) Messages(ctx context.Context) ([]message.View, error) {
	msgs, err := c.store.List(ctx)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	views := make([]message.View, 0, len(msgs))
	for _, m := range msgs {
		views = append(views, c.viewLocked(m))
	}
	return views, nil
}

// Message returns one message with its enrichment.
func (c *Controller) Message(ctx context.Context, id int64) (message.View, error) {
	m, err := c.lookup(ctx, id)
	if err != nil {
		return message.View{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked(m), nil
}

func (c *Controller) viewLocked(m message.Message) message.View {
	v := message.View{Message: m, CanSummarize: m.CanSummarize()}
	if e, ok := c.enrich[m.ID]; ok {
		v.Enrichment = e.view
	}
	return v
}

// Languages returns the translation targets offered to the user.
func (c *Controller) Languages() []languages.Language {
	return c.langs
}

// Capabilities returns what the engine host negotiated at startup.
func (c *Controller) Capabilities() engine.Set {
	return c.gw.Capabilities()
}

func (c *Controller) lookup(ctx context.Context, id int64) (message.Message, error) {
	m, err := c.store.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return message.Message{}, apperr.Wrap(apperr.KindNotFound, err, "Message not found")
	}
	return m, err
}

// begin marks a in flight for id and clears the previous error.
func (c *Controller) begin(id int64, a action) (*enrichment, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.enrich[id]
	if !ok {
		e = &enrichment{}
		c.enrich[id] = e
	}
	if e.busy(a) {
		return nil, apperr.New(apperr.KindBusy, "Request already in progress")
	}
	e.set(a, true)
	e.view.Error = ""
	return e, nil
}

// finish applies the outcome and clears the loading flag. Outcomes for
// enrichments discarded by Clear are dropped and reported as not found.
func (c *Controller) finish(id int64, e *enrichment, a action, apply func(*message.Enrichment)) (message.Enrichment, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	apply(&e.view)
	e.set(a, false)
	if c.enrich[id] != e {
		return message.Enrichment{}, apperr.New(apperr.KindNotFound, "Message not found")
	}
	return e.view, nil
}

// update applies a partial result while the action is still in flight.
func (c *Controller) update(e *enrichment, apply func(*message.Enrichment)) {
	c.mu.Lock()
	apply(&e.view)
	c.mu.Unlock()
}

func (c *Controller) summarizable(ctx context.Context, id int64) (message.Message, error) {
	m, err := c.lookup(ctx, id)
	if err != nil {
		return m, err
	}
	if !m.CanSummarize() {
		return m, apperr.New(apperr.KindUnsupported, "Summarization is only offered for long English messages")
	}
	return m, nil
}

// Summarize summarizes message id and stores the result on its enrichment.
func (c *Controller) Summarize(ctx context.Context, id int64) (message.Enrichment, error) {
	m, err := c.summarizable(ctx, id)
	if err != nil {
		return message.Enrichment{}, err
	}
	e, err := c.begin(id, actionSummarize)
	if err != nil {
		return message.Enrichment{}, err
	}

	summary, err := c.gw.Summarize(ctx, m.Text, c.summary)
	if err != nil {
		c.logger.Error("error summarizing text", "id", id, "error", err)
	}
	out, dropped := c.finish(id, e, actionSummarize, func(v *message.Enrichment) {
		if err != nil {
			v.Error = apperr.Display(err, SummarizeFailed)
			return
		}
		v.Summary = summary
	})
	if dropped != nil {
		return out, dropped
	}
	return out, err
}

// SummarizeStream starts a streaming summary of message id. The returned
// sequence yields summary fragments and must be ranged over exactly once:
// the loading flag is cleared when ranging ends.
func (c *Controller) SummarizeStream(ctx context.Context, id int64) (iter.Seq2[string, error], error) {
	m, err := c.summarizable(ctx, id)
	if err != nil {
		return nil, err
	}
	e, err := c.begin(id, actionSummarize)
	if err != nil {
		return nil, err
	}

	fragments, err := c.gw.SummarizeStreaming(ctx, m.Text, c.summary)
	if err != nil {
		c.logger.Error("error summarizing text", "id", id, "error", err)
		c.finish(id, e, actionSummarize, func(v *message.Enrichment) {
			v.Error = apperr.Display(err, SummarizeFailed)
		})
		return nil, err
	}

	used := false
	return func(yield func(string, error) bool) {
		if used {
			yield("", gateway.ErrConsumed)
			return
		}
		used = true

		var summary strings.Builder
		var streamErr error
		defer func() {
			c.finish(id, e, actionSummarize, func(v *message.Enrichment) {
				if streamErr != nil {
					v.Error = apperr.Display(streamErr, SummarizeFailed)
				}
			})
		}()

		c.update(e, func(v *message.Enrichment) { v.Summary = "" })
		for fragment, err := range fragments {
			if err != nil {
				streamErr = err
				c.logger.Error("error summarizing text", "id", id, "error", err)
				yield("", err)
				return
			}
			summary.WriteString(fragment)
			c.update(e, func(v *message.Enrichment) { v.Summary = summary.String() })
			if !yield(fragment, nil) {
				return
			}
		}
	}, nil
}

// Translate translates message id into target and stores the result on its
// enrichment. A target equal to the message's language is rejected without
// calling the gateway.
func (c *Controller) Translate(ctx context.Context, id int64, target string) (message.Enrichment, error) {
	m, err := c.lookup(ctx, id)
	if err != nil {
		return message.Enrichment{}, err
	}
	tgt, err := languages.Normalize(target)
	if err != nil {
		return message.Enrichment{}, apperr.Wrap(apperr.KindInvalidInput, err, "Language "+target+" is not supported")
	}

	if tgt == m.Language {
		err := apperr.New(apperr.KindSameLanguage, "Text is already in the selected language")
		c.mu.Lock()
		e, ok := c.enrich[id]
		if !ok {
			e = &enrichment{}
			c.enrich[id] = e
		}
		e.view.Error = err.Message
		out := e.view
		c.mu.Unlock()
		return out, err
	}

	e, err := c.begin(id, actionTranslate)
	if err != nil {
		return message.Enrichment{}, err
	}

	translation, err := c.gw.Translate(ctx, m.Text, tgt, m.Language)
	if err != nil {
		c.logger.Error("error translating text", "id", id, "target", tgt, "error", err)
	}
	out, dropped := c.finish(id, e, actionTranslate, func(v *message.Enrichment) {
		if err != nil {
			v.Error = apperr.Display(err, TranslateFailed)
			return
		}
		v.Translation = translation
		v.TargetLanguage = tgt
	})
	if dropped != nil {
		return out, dropped
	}
	return out, err
}
