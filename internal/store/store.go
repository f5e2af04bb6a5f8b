// Package store keeps the ordered list of submitted messages.
//
// The list is append-only except for Clear. Backends: an in-memory list
// (default), Redis, and SQLite.
package store

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/nadzzz/polyglot/internal/message"
)

// ErrNotFound is returned by Get when no message has the requested id.
var ErrNotFound = errors.New("message not found")

// Store is an ordered message list.
type Store interface {
	// Append adds m after every message already stored.
	Append(ctx context.Context, m message.Message) error

	// List returns all messages in insertion order.
	List(ctx context.Context) ([]message.Message, error)

	// Get returns the message with the given id, or ErrNotFound.
	Get(ctx context.Context, id int64) (message.Message, error)

	// Clear removes every message. Clearing an empty store is a no-op.
	Clear(ctx context.Context) error

	Close() error
}

// Memory is a Store held in process memory. Safe for concurrent use.
type Memory struct {
	mu       sync.RWMutex
	messages []message.Message
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

func (s *Memory) Append(_ context.Context, m message.Message) error {
	s.mu.Lock()
	s.messages = append(s.messages, m)
	s.mu.Unlock()
	return nil
}

func (s *Memory) List(context.Context) ([]message.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.messages), nil
}

func (s *Memory) Get(_ context.Context, id int64) (message.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.messages {
		if m.ID == id {
			return m, nil
		}
	}
	return message.Message{}, ErrNotFound
}

func (s *Memory) Clear(context.Context) error {
	s.mu.Lock()
	s.messages = nil
	s.mu.Unlock()
	return nil
}

func (s *Memory) Close() error { return nil }

// LastID returns the highest message id in st, or 0 when it is empty.
// Used to continue id generation after reopening a persistent store.
func LastID(ctx context.Context, st Store) (int64, error) {
	msgs, err := st.List(ctx)
	if err != nil {
		return 0, err
	}
	var last int64
	for _, m := range msgs {
		last = max(last, m.ID)
	}
	return last, nil
}
