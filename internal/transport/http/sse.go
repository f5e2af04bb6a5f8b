package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/nadzzz/polyglot/internal/apperr"
	"github.com/nadzzz/polyglot/internal/message"
)

// SSEContentType is the content type for streamed summaries.
const SSEContentType = "text/event-stream"

type streamDone struct {
	Summary     string `json:"summary"`
	SummaryHTML string `json:"summary_html,omitempty"`
}

// handleSummarizeStream streams a summary as Server-Sent Events.
//
// @Summary     Stream a summary
// @Description Streams summary fragments as they are generated. Events: "fragment" (data: JSON string, the new text),
// @Description "done" (data: the whole summary) and "error" (data: error body). Setup failures are plain JSON errors.
// @Tags        enrichment
// @Produce     text/event-stream
// @Param       id   path      int  true  "Message id"
// @Success     200  {string}  string  "event stream"
// @Failure     404  {object}  errorResponse
// @Failure     409  {object}  errorResponse  "Summary already in progress"
// @Failure     422  {object}  errorResponse  "Summarization not offered for this message"
// @Router      /messages/{id}/summarize/stream [get]
func (t *Transport) handleSummarizeStream(w http.ResponseWriter, r *http.Request) {
	id, ok := t.pathID(w, r)
	if !ok {
		return
	}

	rc := http.NewResponseController(w)
	fragments, err := t.chat.SummarizeStream(r.Context(), id)
	if err != nil {
		t.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", SSEContentType)
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	var summary string
	for fragment, err := range fragments {
		if err != nil {
			body := errorBody{Type: string(apperr.KindOf(err)), Message: apperr.Display(err, "Failed to summarize text")}
			t.sendEvent(w, rc, "error", body)
			return
		}
		summary += fragment
		if !t.sendEvent(w, rc, "fragment", fragment) {
			return
		}
	}

	e := message.Enrichment{Summary: summary}
	t.renderSummary(&e)
	t.sendEvent(w, rc, "done", streamDone{Summary: e.Summary, SummaryHTML: e.SummaryHTML})
}

// sendEvent writes one event and flushes it. It reports false once the
// client is gone.
func (t *Transport) sendEvent(w http.ResponseWriter, rc *http.ResponseController, event string, data any) bool {
	payload, err := json.Marshal(data)
	if err != nil {
		t.logger.Error("encoding event", "event", event, "error", err)
		return false
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		t.logger.Debug("client went away during stream", "error", err)
		return false
	}
	if err := rc.Flush(); err != nil {
		t.logger.Warn("flushing event stream", "error", fmt.Errorf("%w: %v", errStreamUnsupported, err))
		return false
	}
	return true
}
