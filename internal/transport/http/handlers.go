package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/nadzzz/polyglot/internal/apperr"
	"github.com/nadzzz/polyglot/internal/engine"
	"github.com/nadzzz/polyglot/internal/languages"
	"github.com/nadzzz/polyglot/internal/message"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

type submitRequest struct {
	Text string `json:"text" validate:"required"`
}

type translateRequest struct {
	TargetLanguage string `json:"target_language" validate:"required,bcp47_language_tag"`
}

type messagesResponse struct {
	Messages []message.View `json:"messages"`

	// Error is the display string of the last failed submission.
	Error string `json:"error,omitempty"`
}

type capabilitiesResponse struct {
	Detection     bool `json:"detection"`
	Translation   bool `json:"translation"`
	Summarization bool `json:"summarization"`
}

type errorBody struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

// handleListMessages returns the chat.
//
// @Summary     List messages
// @Description Returns every message in insertion order with its summary/translation state and the active submit error.
// @Tags        messages
// @Produce     json
// @Success     200  {object}  messagesResponse
// @Router      /messages [get]
func (t *Transport) handleListMessages(w http.ResponseWriter, r *http.Request) {
	views, err := t.chat.Messages(r.Context())
	if err != nil {
		t.writeError(w, err)
		return
	}
	for i := range views {
		t.renderSummary(&views[i].Enrichment)
	}
	writeJSON(w, http.StatusOK, messagesResponse{Messages: views, Error: t.chat.ActiveError()})
}

// handleSubmit detects the language of a new message and appends it.
//
// @Summary     Submit a message
// @Description The message language is detected once; nothing is stored when detection fails.
// @Tags        messages
// @Accept      json
// @Produce     json
// @Param       message  body      submitRequest  true  "Message text"
// @Success     201  {object}  message.View
// @Failure     400  {object}  errorResponse  "Missing text"
// @Failure     422  {object}  errorResponse  "Low confidence or unsupported language"
// @Failure     502  {object}  errorResponse  "Engine failure"
// @Failure     503  {object}  errorResponse  "Detection unavailable"
// @Router      /messages [post]
func (t *Transport) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if !t.decode(w, r, &req) {
		return
	}
	m, err := t.chat.Submit(r.Context(), req.Text)
	if err != nil {
		t.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, message.View{Message: m, CanSummarize: m.CanSummarize()})
}

// handleClear removes every message.
//
// @Summary     Clear the chat
// @Description Removes every message, summary, translation, and the active error.
// @Tags        messages
// @Success     204
// @Router      /messages [delete]
func (t *Transport) handleClear(w http.ResponseWriter, r *http.Request) {
	if err := t.chat.Clear(r.Context()); err != nil {
		t.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleGetMessage returns one message.
//
// @Summary     Get a message
// @Tags        messages
// @Produce     json
// @Param       id   path      int  true  "Message id"
// @Success     200  {object}  message.View
// @Failure     404  {object}  errorResponse
// @Router      /messages/{id} [get]
func (t *Transport) handleGetMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := t.pathID(w, r)
	if !ok {
		return
	}
	v, err := t.chat.Message(r.Context(), id)
	if err != nil {
		t.writeError(w, err)
		return
	}
	t.renderSummary(&v.Enrichment)
	writeJSON(w, http.StatusOK, v)
}

// handleSummarize summarizes a long English message.
//
// @Summary     Summarize a message
// @Description Produces medium-length markdown key points. Only offered for English messages longer than the summarize threshold.
// @Tags        enrichment
// @Produce     json
// @Param       id   path      int  true  "Message id"
// @Success     200  {object}  message.Enrichment
// @Failure     404  {object}  errorResponse
// @Failure     409  {object}  errorResponse  "Summary already in progress"
// @Failure     422  {object}  errorResponse  "Summarization not offered for this message"
// @Failure     502  {object}  errorResponse  "Engine failure"
// @Router      /messages/{id}/summarize [post]
func (t *Transport) handleSummarize(w http.ResponseWriter, r *http.Request) {
	id, ok := t.pathID(w, r)
	if !ok {
		return
	}
	e, err := t.chat.Summarize(r.Context(), id)
	if err != nil {
		t.writeError(w, err)
		return
	}
	t.renderSummary(&e)
	writeJSON(w, http.StatusOK, e)
}

// handleTranslate translates a message.
//
// @Summary     Translate a message
// @Description Translates from the message's detected language. Translating into that same language is rejected.
// @Tags        enrichment
// @Accept      json
// @Produce     json
// @Param       id       path      int               true  "Message id"
// @Param       request  body      translateRequest  true  "Target language (ISO-639-1)"
// @Success     200  {object}  message.Enrichment
// @Failure     400  {object}  errorResponse  "Invalid or same target language"
// @Failure     404  {object}  errorResponse
// @Failure     422  {object}  errorResponse  "Language pair not supported"
// @Failure     502  {object}  errorResponse  "Engine failure"
// @Router      /messages/{id}/translate [post]
func (t *Transport) handleTranslate(w http.ResponseWriter, r *http.Request) {
	id, ok := t.pathID(w, r)
	if !ok {
		return
	}
	var req translateRequest
	if !t.decode(w, r, &req) {
		return
	}
	e, err := t.chat.Translate(r.Context(), id, req.TargetLanguage)
	if err != nil {
		t.writeError(w, err)
		return
	}
	t.renderSummary(&e)
	writeJSON(w, http.StatusOK, e)
}

// handleCapabilities reports what the engine negotiated at startup.
//
// @Summary     Engine capabilities
// @Tags        meta
// @Produce     json
// @Success     200  {object}  capabilitiesResponse
// @Router      /capabilities [get]
func (t *Transport) handleCapabilities(w http.ResponseWriter, r *http.Request) {
	caps := t.chat.Capabilities()
	writeJSON(w, http.StatusOK, capabilitiesResponse{
		Detection:     caps.Has(engine.Detection),
		Translation:   caps.Has(engine.Translation),
		Summarization: caps.Has(engine.Summarization),
	})
}

// handleLanguages lists the translation targets.
//
// @Summary     Translation targets
// @Tags        meta
// @Produce     json
// @Success     200  {array}  languages.Language
// @Router      /languages [get]
func (t *Transport) handleLanguages(w http.ResponseWriter, r *http.Request) {
	langs := t.chat.Languages()
	if langs == nil {
		langs = []languages.Language{}
	}
	writeJSON(w, http.StatusOK, langs)
}

// renderSummary fills SummaryHTML from the markdown summary.
func (t *Transport) renderSummary(e *message.Enrichment) {
	if e.Summary == "" {
		return
	}
	out, err := t.renderer.ToHTMLSanitized(e.Summary)
	if err != nil {
		t.logger.Warn("rendering summary failed", "error", err)
		return
	}
	e.SummaryHTML = out
}

func (t *Transport) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		t.writeError(w, apperr.Newf(apperr.KindInvalidInput, "invalid message id %q", r.PathValue("id")))
		return 0, false
	}
	return id, true
}

// decode reads and validates a JSON body into dst. It writes the error
// response itself and reports whether the handler should continue.
func (t *Transport) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		t.writeError(w, apperr.Wrap(apperr.KindInvalidInput, err, "invalid json: "+err.Error()))
		return false
	}
	if err := t.validateStruct(dst); err != nil {
		t.writeError(w, err)
		return false
	}
	return true
}

func (t *Transport) writeError(w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)
	status := apperr.HTTPStatus(kind)
	msg := apperr.Display(err, "internal error")
	if kind == "" {
		kind = "internal"
		msg = "internal error"
		t.logger.Error("request failed", "error", err)
	}
	writeJSON(w, status, errorResponse{Error: errorBody{Type: string(kind), Message: msg}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

var errStreamUnsupported = errors.New("streaming unsupported")
