// Package http implements the HTTP/JSON transport for polyglot.
//
// This transport exposes the chat as a REST API: submit and list messages,
// summarize or translate one of them, and stream a summary as Server-Sent
// Events. Swagger UI documents every route.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/nadzzz/polyglot/internal/markdown"
	"github.com/nadzzz/polyglot/internal/transport"

	// Registers the OpenAPI document served under /swagger/.
	_ "github.com/nadzzz/polyglot/docs"

	httpSwagger "github.com/swaggo/http-swagger/v2"
)

// Transport implements transport.Transport over HTTP.
type Transport struct {
	port     int
	chat     transport.Chat
	validate *validator.Validate
	renderer *markdown.Renderer
	logger   *slog.Logger
	server   *http.Server
}

// New creates a new HTTP transport on the given port.
func New(port int, chat transport.Chat) *Transport {
	t := &Transport{
		port:     port,
		chat:     chat,
		validate: newValidator(),
		renderer: markdown.New(),
		logger:   slog.With("component", "http"),
	}
	t.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           t.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return t
}

// Name returns the transport identifier.
func (t *Transport) Name() string { return "http" }

// Handler returns the API routes.
func (t *Transport) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /messages", t.handleListMessages)
	mux.HandleFunc("POST /messages", t.handleSubmit)
	mux.HandleFunc("DELETE /messages", t.handleClear)
	mux.HandleFunc("GET /messages/{id}", t.handleGetMessage)
	mux.HandleFunc("POST /messages/{id}/summarize", t.handleSummarize)
	mux.HandleFunc("GET /messages/{id}/summarize/stream", t.handleSummarizeStream)
	mux.HandleFunc("POST /messages/{id}/translate", t.handleTranslate)
	mux.HandleFunc("GET /capabilities", t.handleCapabilities)
	mux.HandleFunc("GET /languages", t.handleLanguages)

	// Swagger UI, serving the generated OpenAPI docs.
	mux.Handle("GET /swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	return mux
}

// Listen starts the HTTP server. It blocks until the context is cancelled
// or Close is called.
func (t *Transport) Listen(ctx context.Context) error {
	t.logger.Info("http transport listening", "port", t.port)

	go func() {
		<-ctx.Done()
		t.logger.Info("http transport shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = t.server.Shutdown(shutdownCtx)
	}()

	if err := t.server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("http listen: %w", err)
	}
	return nil
}

// Close gracefully shuts down the HTTP server.
func (t *Transport) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return t.server.Shutdown(ctx)
}
