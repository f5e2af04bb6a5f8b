// Package sqlite stores messages in a SQLite database through gorm.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/nadzzz/polyglot/internal/message"
	"github.com/nadzzz/polyglot/internal/store"
)

// MessageModel is the messages table row. Seq records insertion order.
type MessageModel struct {
	Seq           uint   `gorm:"primaryKey;autoIncrement"`
	MessageID     int64  `gorm:"uniqueIndex;not null"`
	Text          string `gorm:"type:text;not null"`
	Language      string `gorm:"size:16;not null"`
	ShowSummarize bool
	CreatedAt     time.Time
}

// TableName pins the table name.
func (MessageModel) TableName() string {
	return "messages"
}

func toModel(m message.Message) *MessageModel {
	return &MessageModel{
		MessageID:     m.ID,
		Text:          m.Text,
		Language:      m.Language,
		ShowSummarize: m.ShowSummarize,
		CreatedAt:     m.CreatedAt,
	}
}

func (r *MessageModel) toMessage() message.Message {
	return message.Message{
		ID:            r.MessageID,
		Text:          r.Text,
		Language:      r.Language,
		ShowSummarize: r.ShowSummarize,
		CreatedAt:     r.CreatedAt,
	}
}

// Store is a gorm-backed store.Store.
type Store struct {
	db *gorm.DB
}

// Open opens (creating if needed) the database at path and migrates the schema.
// ":memory:" gives a private in-memory database.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database %s: %w", path, err)
	}
	if path == ":memory:" {
		// Every pooled connection would otherwise get its own empty database.
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.SetMaxOpenConns(1)
		}
	}
	if err := db.AutoMigrate(&MessageModel{}); err != nil {
		return nil, fmt.Errorf("migrating messages table: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Append(ctx context.Context, m message.Message) error {
	if err := s.db.WithContext(ctx).Create(toModel(m)).Error; err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]message.Message, error) {
	var rows []MessageModel
	if err := s.db.WithContext(ctx).Order("seq ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	msgs := make([]message.Message, 0, len(rows))
	for i := range rows {
		msgs = append(msgs, rows[i].toMessage())
	}
	return msgs, nil
}

func (s *Store) Get(ctx context.Context, id int64) (message.Message, error) {
	var row MessageModel
	err := s.db.WithContext(ctx).Where("message_id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return message.Message{}, store.ErrNotFound
		}
		return message.Message{}, fmt.Errorf("failed to get message: %w", err)
	}
	return row.toMessage(), nil
}

func (s *Store) Clear(ctx context.Context) error {
	err := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&MessageModel{}).Error
	if err != nil {
		return fmt.Errorf("failed to clear messages: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

var _ store.Store = (*Store)(nil)
