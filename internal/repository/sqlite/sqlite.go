// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// WHY modernc.org/sqlite?
// It is a pure Go translation of SQLite: no CGo, no C compiler, cross-compiles
// like any other Go package. The dashboard only stores small per-guild
// documents and sessions, so an embedded database is all it needs.
//
// The pattern is always:
//  1. sql.Open(driverName, dataSourceName) → creates a pool
//  2. db.QueryContext / db.ExecContext     → runs queries
//  3. rows.Scan(&field1, &field2)          → reads results into Go variables
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

const maxOpenConns = 8

// DB wraps a sql.DB connection pool and implements every repository interface.
type DB struct {
	conn *sql.DB
	now  func() time.Time
}

// New creates a new SQLite database connection and runs migrations.
//
// dbPath examples:
//   - "data/dashboard.db"  → file-based database (persistent)
//   - ":memory:"           → in-memory database (tests)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Every connection to ":memory:" is a brand new, empty database.
	// Pin the pool to one connection so all queries see the same data.
	// SQLite has one writer at a time; a small pool keeps waiting writers in
	// database/sql instead of spinning in the busy handler.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	} else {
		conn.SetMaxOpenConns(maxOpenConns)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	db := &DB{conn: conn, now: utcNow}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// dsn appends the connection settings to dbPath.
//
// PRAGMAs are per connection, so they go in the DSN: the driver runs them on
// every connection the pool opens, not just the first one.
//   - busy_timeout: a writer waits up to 5s for the lock instead of failing with SQLITE_BUSY
//   - foreign_keys: enforce REFERENCES on every connection
//   - journal_mode=WAL: readers proceed while a write is in progress
//   - _txlock=immediate: BEGIN takes the write lock up front, so a
//     read-then-write transaction waits its turn instead of failing on upgrade
func dsn(dbPath string) string {
	q := url.Values{}
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "journal_mode(WAL)")
	q.Set("_txlock", "immediate")
	return dbPath + "?" + q.Encode()
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping verifies the database answers a trivial query.
// The health endpoint uses it to report healthy/unhealthy.
func (db *DB) Ping(ctx context.Context) error {
	var one int
	if err := db.conn.QueryRowContext(ctx, `SELECT 1`).Scan(&one); err != nil {
		return fmt.Errorf("sqlite: ping: %w", err)
	}
	return nil
}

// migrate runs all database migrations.
//
// CREATE TABLE IF NOT EXISTS is safe to run on every start.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id           TEXT PRIMARY KEY,
			discord_id   TEXT NOT NULL UNIQUE,
			username     TEXT NOT NULL,
			email        TEXT NOT NULL DEFAULT '',
			avatar_url   TEXT NOT NULL DEFAULT '',
			created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	// display_name arrived after the first release of the users table.
	if err := db.addColumnIfNotExists("users", "display_name", "TEXT NOT NULL DEFAULT ''"); err != nil {
		return fmt.Errorf("adding display_name to users: %w", err)
	}

	// guilds holds the JSON-encoded membership snapshot taken at login.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			id           TEXT PRIMARY KEY,
			user_id      TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			discord_id   TEXT NOT NULL,
			display_name TEXT NOT NULL DEFAULT '',
			email        TEXT NOT NULL DEFAULT '',
			avatar_url   TEXT NOT NULL DEFAULT '',
			is_admin     INTEGER NOT NULL DEFAULT 0,
			guilds       TEXT NOT NULL DEFAULT '[]',
			expires_at   DATETIME NOT NULL,
			created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at);
	`)
	if err != nil {
		return fmt.Errorf("creating sessions table: %w", err)
	}

	for _, table := range settingsTables {
		_, err = db.conn.Exec(fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				guild_id   TEXT PRIMARY KEY,
				settings   TEXT NOT NULL DEFAULT '{}',
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL
			);
		`, table))
		if err != nil {
			return fmt.Errorf("creating %s table: %w", table, err)
		}
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS shop_items (
			id          TEXT PRIMARY KEY,
			guild_id    TEXT NOT NULL,
			name        TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			price       INTEGER NOT NULL DEFAULT 0,
			role_id     TEXT NOT NULL DEFAULT '',
			stock       INTEGER NOT NULL DEFAULT -1,
			enabled     INTEGER NOT NULL DEFAULT 1,
			created_at  DATETIME NOT NULL,
			updated_at  DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_shop_items_guild_id ON shop_items(guild_id);
	`)
	if err != nil {
		return fmt.Errorf("creating shop_items table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS ticket_panels (
			panel_id     TEXT PRIMARY KEY,
			guild_id     TEXT NOT NULL,
			channel_id   TEXT NOT NULL,
			title        TEXT NOT NULL,
			description  TEXT NOT NULL DEFAULT '',
			button_label TEXT NOT NULL DEFAULT '',
			is_active    INTEGER NOT NULL DEFAULT 1,
			created_at   DATETIME NOT NULL,
			updated_at   DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_ticket_panels_guild_id ON ticket_panels(guild_id);
	`)
	if err != nil {
		return fmt.Errorf("creating ticket_panels table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS user_xp (
			guild_id   TEXT NOT NULL,
			user_id    TEXT NOT NULL,
			xp         INTEGER NOT NULL DEFAULT 0,
			level      INTEGER NOT NULL DEFAULT 0,
			updated_at DATETIME NOT NULL,
			PRIMARY KEY (guild_id, user_id)
		);
	`)
	if err != nil {
		return fmt.Errorf("creating user_xp table: %w", err)
	}

	return nil
}

// addColumnIfNotExists adds a column to a table only if it doesn't already exist.
// Makes ALTER TABLE migrations idempotent.
func (db *DB) addColumnIfNotExists(table, column, definition string) error {
	var count int
	err := db.conn.QueryRow(
		`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`,
		table, column,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("checking column %s.%s: %w", table, column, err)
	}
	if count > 0 {
		return nil
	}
	_, err = db.conn.Exec(fmt.Sprintf(
		`ALTER TABLE %s ADD COLUMN %s %s`, table, column, definition,
	))
	return err
}

// Timestamps are written as text by the driver, so they are kept in UTC to
// make the text order match the time order in range predicates.
func utcNow() time.Time {
	return time.Now().UTC()
}

// checkAffected turns a zero-row UPDATE/DELETE into the caller's not-found error.
func checkAffected(result sql.Result, notFound error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
