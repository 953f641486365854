package database

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var ErrNotFound = errors.New("not found")

type Database interface {
	GetDB() *sql.DB

	Exec(query string, args ...any) (sql.Result, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
	Close() error
	ExecWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error)

	GetUser(userID int64) (*User, error)
	SaveUser(user User) error

	// Message storage for chat transcripts
	SaveMessage(ctx context.Context, msg Message) error
	UpdateMessageText(ctx context.Context, chatID int64, messageID int, text string) error
	GetMessagesFrom(ctx context.Context, chatID int64, fromMessageID int, limit int) ([]Message, error)
	PurgeOldMessages(retentionDays int) error
	PurgeOldTasks(retentionDays int) error

	// Personal lists
	AddListItem(ctx context.Context, item ListItem) (int, error)
	ListItems(ctx context.Context, userID int64) ([]ListItem, error)
	RemoveListItem(ctx context.Context, userID int64, position int) (*ListItem, error)

	SetLastFMUser(ctx context.Context, userID int64, username string) error
	GetLastFMUser(ctx context.Context, userID int64) (string, error)

	// Preset system instruction overrides
	SavePrompt(ctx context.Context, preset, instruction string) error
	LoadPrompts(ctx context.Context) (map[string]string, error)
}

type User struct {
	ID        int64     `json:"id"`
	PublicID  string    `json:"public_id"`
	FirstName string    `json:"first_name"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u User) Equal(user User) bool {
	return u.FirstName == user.FirstName && u.Username == user.Username && user.PublicID != ""
}

type Message struct {
	ChatID    int64
	MessageID int
	UserID    int64
	Author    string
	Text      string
	CreatedAt time.Time
}

type ListItem struct {
	ID        int64
	UserID    int64
	Text      string
	Link      string
	CreatedAt time.Time
}
