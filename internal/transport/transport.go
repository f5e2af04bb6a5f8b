// Package transport defines the interface for pluggable polyglot transports.
//
// Each transport (HTTP, gRPC) exposes the chat controller over its own
// protocol. The daemon starts every enabled transport and stops them together;
// it doesn't care how requests arrive, only that transports honor this contract.
package transport

import (
	"context"
	"iter"

	"github.com/nadzzz/polyglot/internal/engine"
	"github.com/nadzzz/polyglot/internal/languages"
	"github.com/nadzzz/polyglot/internal/message"
)

// Chat is the message orchestration a transport serves. *chat.Controller
// implements it.
type Chat interface {
	Submit(ctx context.Context, text string) (message.Message, error)
	Clear(ctx context.Context) error
	Messages(ctx context.Context) ([]message.View, error)
	Message(ctx context.Context, id int64) (message.View, error)
	ActiveError() string
	Summarize(ctx context.Context, id int64) (message.Enrichment, error)
	SummarizeStream(ctx context.Context, id int64) (iter.Seq2[string, error], error)
	Translate(ctx context.Context, id int64, target string) (message.Enrichment, error)
	Languages() []languages.Language
	Capabilities() engine.Set
}

// Transport is the interface that every transport adapter must implement.
type Transport interface {
	// Name returns the transport identifier (e.g., "http", "grpc").
	Name() string

	// Listen starts serving. It blocks until the context is cancelled.
	Listen(ctx context.Context) error

	// Close gracefully shuts down the transport, draining in-flight work.
	Close() error
}
