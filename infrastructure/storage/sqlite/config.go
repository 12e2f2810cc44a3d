// Package sqlite provides a SQLite-backed report store.
package sqlite

import (
	"database/sql"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
)

// Config says which database holds run reports.
type Config struct {
	// Path is a file path, ":memory:" or a complete "file:" DSN, which is
	// used as given.
	Path string

	// BusyTimeout is how long a write waits on a locked database.
	BusyTimeout time.Duration

	// Migrate creates the reports table on open.
	Migrate bool
}

// Option configures SQLite storage.
type Option func(*Config)

// WithDSN sets the database path or DSN. Empty keeps the current one.
func WithDSN(dsn string) Option {
	return func(c *Config) {
		if dsn != "" {
			c.Path = dsn
		}
	}
}

// DefaultConfig keeps reports in droid.db in the working directory.
func DefaultConfig() Config {
	return Config{
		Path:        "droid.db",
		BusyTimeout: 5 * time.Second,
		Migrate:     true,
	}
}

// dsn builds the go-sqlite3 data source name. Journal mode and busy
// timeout go in the DSN so every pooled connection gets them.
func (c Config) dsn() string {
	if c.Path == ":memory:" || strings.HasPrefix(c.Path, "file:") {
		return c.Path
	}
	q := url.Values{}
	q.Set("mode", "rwc")
	q.Set("_journal_mode", "WAL")
	if c.BusyTimeout > 0 {
		q.Set("_busy_timeout", strconv.FormatInt(c.BusyTimeout.Milliseconds(), 10))
	}
	return "file:" + c.Path + "?" + q.Encode()
}

var (
	ErrConnectionFailed = errors.New("sqlite: connection failed")
	ErrMigrationFailed  = errors.New("sqlite: migration failed")
)

// openDB opens the database with a single connection: sqlite has one
// writer, and ":memory:" is private to its connection.
func openDB(cfg Config) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", cfg.dsn())
	if err != nil {
		return nil, errors.Join(ErrConnectionFailed, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Join(ErrConnectionFailed, err)
	}
	return db, nil
}

// isUniqueViolation reports whether err is a primary key or unique
// constraint failure.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
