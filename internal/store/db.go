package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

// DB wraps a pooled sql.DB. The pool is opened once at startup and shared
// by every request; it is closed only on shutdown.
type DB struct {
	Client *sql.DB
	driver string
}

// Open connects to the database named by url. A postgres:// or
// postgresql:// URL selects the pgx driver; anything else is treated as a
// SQLite path (optionally prefixed with sqlite://).
func Open(url string) (*DB, error) {
	driver, dsn := resolve(url)

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	if driver == "sqlite3" {
		// SQLite allows a single writer; keeping one connection avoids
		// SQLITE_BUSY churn and makes :memory: databases coherent.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(time.Hour)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &DB{Client: db, driver: driver}, nil
}

func resolve(url string) (driver, dsn string) {
	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return "pgx", url
	case strings.HasPrefix(url, "sqlite://"):
		return "sqlite3", strings.TrimPrefix(url, "sqlite://") + "?_journal_mode=WAL&_busy_timeout=5000"
	default:
		return "sqlite3", url + "?_journal_mode=WAL&_busy_timeout=5000"
	}
}

func migrate(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		full_name     TEXT NOT NULL,
		email         TEXT UNIQUE NOT NULL,
		phone         TEXT NOT NULL DEFAULT '',
		year          TEXT NOT NULL DEFAULT '',
		branch        TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		created_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS items (
		id          TEXT PRIMARY KEY,
		status      TEXT NOT NULL CHECK (status IN ('lost', 'found')),
		name        TEXT NOT NULL,
		email       TEXT NOT NULL,
		contact_no  TEXT NOT NULL DEFAULT '',
		item_type   TEXT NOT NULL,
		location    TEXT NOT NULL DEFAULT '',
		date        TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		images      TEXT NOT NULL DEFAULT '[]',
		created_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_items_dedup
		ON items (name, email, item_type, description, status);
	CREATE INDEX IF NOT EXISTS idx_items_match ON items (item_type, description);

	CREATE TABLE IF NOT EXISTS contact_messages (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		email       TEXT NOT NULL,
		phone       TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		created_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	`
	// One statement per Exec: pgx's extended protocol rejects batches.
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Rebind rewrites ? placeholders to the $n form when the pgx driver is in
// use. Queries in the repository are written once with ? and rebound here.
func (d *DB) Rebind(query string) string {
	if d.driver != "pgx" {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// Close closes the underlying pool.
func (d *DB) Close() error {
	if d == nil || d.Client == nil {
		return nil
	}
	return d.Client.Close()
}
