package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/guild-dashboard/internal/apperror"
	"github.com/sakif/guild-dashboard/internal/model"
	"github.com/sakif/guild-dashboard/internal/repository"
)

var _ repository.SessionRepository = (*DB)(nil)

// CreateSession stores a new session. sess.ID must already be set.
func (db *DB) CreateSession(ctx context.Context, sess *model.Session) error {
	if sess.ID == "" {
		return fmt.Errorf("sqlite: session id must be set before insert")
	}
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = db.now()
	}
	guilds := sess.Guilds
	if guilds == nil {
		guilds = []model.GuildMembership{}
	}
	raw, err := json.Marshal(guilds)
	if err != nil {
		return fmt.Errorf("sqlite: encoding session guilds: %w", err)
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, discord_id, display_name, email, avatar_url, is_admin, guilds, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.ID,
		sess.UserID,
		sess.DiscordID,
		sess.DisplayName,
		sess.Email,
		sess.AvatarURL,
		boolToInt(sess.IsAdmin),
		string(raw),
		sess.ExpiresAt.UTC(),
		sess.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating session for user %s: %w", sess.UserID, err)
	}
	return nil
}

// GetSession loads a session by id. Expiry is the caller's concern.
func (db *DB) GetSession(ctx context.Context, id string) (*model.Session, error) {
	var (
		s   model.Session
		raw string
	)
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, user_id, discord_id, display_name, email, avatar_url, is_admin, guilds, expires_at, created_at
		 FROM sessions WHERE id = ?`,
		id,
	).Scan(
		&s.ID,
		&s.UserID,
		&s.DiscordID,
		&s.DisplayName,
		&s.Email,
		&s.AvatarURL,
		&s.IsAdmin,
		&raw,
		&s.ExpiresAt,
		&s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("session", id)
		}
		return nil, fmt.Errorf("sqlite: getting session %s: %w", id, err)
	}

	if err := json.Unmarshal([]byte(raw), &s.Guilds); err != nil {
		return nil, fmt.Errorf("sqlite: decoding guilds of session %s: %w", id, err)
	}
	return &s, nil
}

// DeleteSession removes a session. Deleting a missing session is not an error:
// logout must be idempotent.
func (db *DB) DeleteSession(ctx context.Context, id string) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("sqlite: deleting session %s: %w", id, err)
	}
	return nil
}

// DeleteExpiredSessions removes every session whose expiry is at or before now.
func (db *DB) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("sqlite: purging expired sessions: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	return n, nil
}
