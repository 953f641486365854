package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mosS-Green/plugins/internal/logger"
)

type sqliteDB struct {
	db     *sql.DB
	logger logger.Logger
}

func NewSQLiteDB(dsn string, log logger.Logger) (Database, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	log.WithFields(logger.Fields{
		"DSN": dsn,
	}).Debug("Database opened")

	// single writer; also keeps ":memory:" databases on one connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.WithFields(logger.Fields{
		"DSN": dsn,
	}).Debug("Database alive")

	if err := RunMigrations(db); err != nil {
		return nil, err
	}

	return &sqliteDB{db: db, logger: log}, nil
}

func (s *sqliteDB) Exec(query string, args ...any) (sql.Result, error) {
	return s.db.Exec(query, args...)
}

func (s *sqliteDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, query, args...)
}

func (s *sqliteDB) Query(query string, args ...any) (*sql.Rows, error) {
	return s.db.Query(query, args...)
}

func (s *sqliteDB) QueryRow(query string, args ...any) *sql.Row {
	return s.db.QueryRow(query, args...)
}

func (s *sqliteDB) Close() error {
	return s.db.Close()
}

func (s *sqliteDB) GetDB() *sql.DB {
	return s.db
}

func (s *sqliteDB) ExecWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	var res sql.Result
	var err error
	for i := range 3 {
		res, err = s.ExecContext(ctx, query, args...)
		if err == nil || !strings.Contains(err.Error(), "database is locked") {
			return res, err
		}
		s.logger.WithFields(logger.Fields{
			"attempt": i + 1,
			"query":   query,
			"error":   err.Error(),
		}).Warn("Database locked, retrying...")
		time.Sleep(100 * time.Millisecond * time.Duration(i+1))
	}
	return res, err
}

func (s *sqliteDB) SaveMessage(ctx context.Context, msg Message) error {
	_, err := s.ExecWithRetry(ctx, `
		INSERT INTO messages (chat_id, message_id, user_id, author, text)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(chat_id, message_id) DO UPDATE SET
			author = excluded.author,
			text = excluded.text
	`, msg.ChatID, msg.MessageID, msg.UserID, msg.Author, msg.Text)
	return err
}

func (s *sqliteDB) UpdateMessageText(ctx context.Context, chatID int64, messageID int, text string) error {
	_, err := s.ExecWithRetry(ctx,
		"UPDATE messages SET text = ? WHERE chat_id = ? AND message_id = ?",
		text, chatID, messageID)
	return err
}

// GetMessagesFrom returns stored messages of a chat starting at fromMessageID,
// oldest first. A non-positive limit means no limit.
func (s *sqliteDB) GetMessagesFrom(ctx context.Context, chatID int64, fromMessageID int, limit int) ([]Message, error) {
	query := `
		SELECT chat_id, message_id, user_id, author, text, created_at
		FROM messages
		WHERE chat_id = ? AND message_id >= ?
		ORDER BY message_id ASC`
	args := []any{chatID, fromMessageID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	s.logger.WithFields(logger.Fields{
		"chat_id": chatID,
		"from":    fromMessageID,
		"limit":   limit,
	}).Trace("Querying messages")

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ChatID, &m.MessageID, &m.UserID, &m.Author, &m.Text, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return messages, nil
}

func (s *sqliteDB) PurgeOldMessages(retentionDays int) error {
	_, err := s.db.Exec("DELETE FROM messages WHERE created_at < datetime('now', ?)", fmt.Sprintf("-%d days", retentionDays))
	return err
}

func (s *sqliteDB) PurgeOldTasks(retentionDays int) error {
	_, err := s.db.Exec(
		"DELETE FROM tasks WHERE status IN ('complete', 'failed') AND created_at < datetime('now', ?)",
		fmt.Sprintf("-%d days", retentionDays),
	)
	return err
}

func (s *sqliteDB) AddListItem(ctx context.Context, item ListItem) (int, error) {
	if _, err := s.ExecWithRetry(ctx,
		"INSERT INTO list_items (user_id, text, link) VALUES (?, ?, ?)",
		item.UserID, item.Text, item.Link,
	); err != nil {
		return 0, err
	}

	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM list_items WHERE user_id = ?", item.UserID).Scan(&count)
	return count, err
}

func (s *sqliteDB) ListItems(ctx context.Context, userID int64) ([]ListItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, text, link, created_at
		FROM list_items
		WHERE user_id = ?
		ORDER BY id ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query list: %w", err)
	}
	defer rows.Close()

	var items []ListItem
	for rows.Next() {
		var item ListItem
		if err := rows.Scan(&item.ID, &item.UserID, &item.Text, &item.Link, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan list item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// RemoveListItem deletes the item at a 1-based position of the user's list.
func (s *sqliteDB) RemoveListItem(ctx context.Context, userID int64, position int) (*ListItem, error) {
	if position < 1 {
		return nil, fmt.Errorf("%w: position %d", ErrNotFound, position)
	}

	item := &ListItem{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, text, link, created_at
		FROM list_items
		WHERE user_id = ?
		ORDER BY id ASC
		LIMIT 1 OFFSET ?
	`, userID, position-1).Scan(&item.ID, &item.UserID, &item.Text, &item.Link, &item.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: position %d", ErrNotFound, position)
	}
	if err != nil {
		return nil, err
	}

	if _, err := s.ExecWithRetry(ctx, "DELETE FROM list_items WHERE id = ?", item.ID); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *sqliteDB) SetLastFMUser(ctx context.Context, userID int64, username string) error {
	_, err := s.ExecWithRetry(ctx, `
		INSERT INTO lastfm_users (user_id, username)
		VALUES (?, ?)
		ON CONFLICT(user_id) DO UPDATE SET username = excluded.username, updated_at = CURRENT_TIMESTAMP
	`, userID, username)
	return err
}

func (s *sqliteDB) GetLastFMUser(ctx context.Context, userID int64) (string, error) {
	var username string
	err := s.db.QueryRowContext(ctx, "SELECT username FROM lastfm_users WHERE user_id = ?", userID).Scan(&username)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: lastfm user %d", ErrNotFound, userID)
	}
	return username, err
}

func (s *sqliteDB) SavePrompt(ctx context.Context, preset, instruction string) error {
	_, err := s.ExecWithRetry(ctx, `
		INSERT INTO prompts (preset, instruction)
		VALUES (?, ?)
		ON CONFLICT(preset) DO UPDATE SET instruction = excluded.instruction, updated_at = CURRENT_TIMESTAMP
	`, preset, instruction)
	return err
}

func (s *sqliteDB) LoadPrompts(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT preset, instruction FROM prompts")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	prompts := make(map[string]string)
	for rows.Next() {
		var preset, instruction string
		if err := rows.Scan(&preset, &instruction); err != nil {
			return nil, err
		}
		prompts[preset] = instruction
	}
	return prompts, rows.Err()
}
