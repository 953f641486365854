package cache

import (
	"time"

	"github.com/mosS-Green/plugins/internal/database"
)

// DBCache persists entries in the cache table so they survive restarts.
type DBCache struct {
	db database.Database
}

func NewDBCache(db database.Database) *DBCache {
	return &DBCache{db: db}
}

func (c *DBCache) Get(key string) ([]byte, bool) {
	var data []byte
	var expiresAt time.Time

	err := c.db.QueryRow(`
        SELECT data, expires_at
        FROM cache
        WHERE key = ?
    `, key).Scan(&data, &expiresAt)
	if err != nil {
		return nil, false
	}

	if time.Now().After(expiresAt) {
		_ = c.Delete(key)
		return nil, false
	}

	return data, true
}

func (c *DBCache) Set(key string, data []byte, ttl time.Duration) error {
	_, err := c.db.Exec(`
        INSERT OR REPLACE INTO cache (key, data, expires_at)
        VALUES (?, ?, ?)
    `, key, data, time.Now().Add(ttl).UTC())
	return err
}

func (c *DBCache) Delete(key string) error {
	_, err := c.db.Exec("DELETE FROM cache WHERE key = ?", key)
	return err
}

func (c *DBCache) Clear() error {
	_, err := c.db.Exec("DELETE FROM cache")
	return err
}

// PurgeExpired drops expired rows.
func (c *DBCache) PurgeExpired() (int64, error) {
	res, err := c.db.Exec("DELETE FROM cache WHERE expires_at < ?", time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
