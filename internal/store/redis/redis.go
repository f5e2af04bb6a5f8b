// Package redis stores messages in Redis.
//
// Two keys per session: "<prefix>:messages:ids" is a list of ids in insertion
// order and "<prefix>:messages" is a hash of id -> JSON-encoded message.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/nadzzz/polyglot/internal/config"
	"github.com/nadzzz/polyglot/internal/message"
	"github.com/nadzzz/polyglot/internal/store"
)

// Store is a Redis-backed store.Store.
type Store struct {
	client  *redis.Client
	idsKey  string
	dataKey string
}

// New connects to Redis and verifies the connection.
func New(ctx context.Context, cfg config.RedisConfig) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", cfg.Addr, err)
	}
	return NewWithClient(client, cfg.KeyPrefix), nil
}

// NewWithClient wraps an existing client. The store owns client from now on.
func NewWithClient(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = "polyglot"
	}
	return &Store{
		client:  client,
		idsKey:  prefix + ":messages:ids",
		dataKey: prefix + ":messages",
	}
}

func (s *Store) Append(ctx context.Context, m message.Message) error {
	payload, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding message: %w", err)
	}
	id := strconv.FormatInt(m.ID, 10)

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.dataKey, id, payload)
		pipe.RPush(ctx, s.idsKey, id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]message.Message, error) {
	ids, err := s.client.LRange(ctx, s.idsKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list message ids: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	values, err := s.client.HMGet(ctx, s.dataKey, ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}

	msgs := make([]message.Message, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("message %s missing from %s", ids[i], s.dataKey)
		}
		var m message.Message
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			return nil, fmt.Errorf("decoding message %s: %w", ids[i], err)
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

func (s *Store) Get(ctx context.Context, id int64) (message.Message, error) {
	raw, err := s.client.HGet(ctx, s.dataKey, strconv.FormatInt(id, 10)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return message.Message{}, store.ErrNotFound
		}
		return message.Message{}, fmt.Errorf("failed to get message: %w", err)
	}
	var m message.Message
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return message.Message{}, fmt.Errorf("decoding message %d: %w", id, err)
	}
	return m, nil
}

func (s *Store) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.idsKey, s.dataKey).Err(); err != nil {
		return fmt.Errorf("failed to clear messages: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

var _ store.Store = (*Store)(nil)
