package database

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// publicIDLength is the length of the short id shown to users instead of
// their Telegram id.
const publicIDLength = 4

// GetUser returns sql.ErrNoRows when the user was never stored.
func (s *sqliteDB) GetUser(userID int64) (*User, error) {
	var user User
	err := s.db.QueryRow(
		"SELECT id, public_id, first_name, username, created_at, updated_at FROM users WHERE id = ?",
		userID,
	).Scan(&user.ID, &user.PublicID, &user.FirstName, &user.Username, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// SaveUser upserts the profile. An existing public id is never replaced.
func (s *sqliteDB) SaveUser(user User) error {
	publicID, err := newPublicID()
	if err != nil {
		return fmt.Errorf("generate public id: %w", err)
	}
	if user.PublicID != "" {
		publicID = user.PublicID
	}

	_, err = s.ExecWithRetry(context.Background(), `
		INSERT INTO users (id, public_id, first_name, username)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			first_name = excluded.first_name,
			username = excluded.username,
			updated_at = CURRENT_TIMESTAMP`,
		user.ID, publicID, user.FirstName, user.Username)
	return err
}

func newPublicID() (string, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", err
	}
	id := strconv.FormatUint(binary.BigEndian.Uint64(buf[:]), 36)
	if len(id) < publicIDLength {
		id = strings.Repeat("0", publicIDLength-len(id)) + id
	}
	return id[:publicIDLength], nil
}
