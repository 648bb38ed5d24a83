package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/xid"

	"github.com/sakif/guild-dashboard/internal/model"
	"github.com/sakif/guild-dashboard/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

// Upsert inserts or updates a user based on their Discord ID.
//
// An existing account keeps its internal ID and CreatedAt; only the profile
// fields are refreshed, since users change names and avatars on Discord.
// After the call user holds the stored ID and timestamps.
func (db *DB) Upsert(ctx context.Context, user *model.User) error {
	var existing model.User
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, created_at FROM users WHERE discord_id = ?`, user.DiscordID,
	).Scan(&existing.ID, &existing.CreatedAt)

	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("sqlite: looking up user by discord_id %s: %w", user.DiscordID, err)
	}

	now := db.now()

	if existing.ID != "" {
		user.ID = existing.ID
		user.CreatedAt = existing.CreatedAt
		user.UpdatedAt = now
		_, err = db.conn.ExecContext(ctx,
			`UPDATE users SET username = ?, display_name = ?, email = ?, avatar_url = ?, updated_at = ?
			 WHERE id = ?`,
			user.Username,
			user.DisplayName,
			user.Email,
			user.AvatarURL,
			user.UpdatedAt,
			user.ID,
		)
		if err != nil {
			return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
		}
		return nil
	}

	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO users (id, discord_id, username, display_name, email, avatar_url, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.DiscordID,
		user.Username,
		user.DisplayName,
		user.Email,
		user.AvatarURL,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting user (discordID=%s): %w", user.DiscordID, err)
	}

	return nil
}
