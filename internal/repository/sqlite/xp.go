package sqlite

import (
	"context"
	"fmt"

	"github.com/sakif/guild-dashboard/internal/model"
	"github.com/sakif/guild-dashboard/internal/repository"
)

var _ repository.XPRepository = (*DB)(nil)

// SetXP writes a member's XP total, replacing any previous value.
func (db *DB) SetXP(ctx context.Context, entry *model.UserXP) error {
	entry.UpdatedAt = db.now()
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO user_xp (guild_id, user_id, xp, level, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(guild_id, user_id) DO UPDATE SET
		   xp = excluded.xp, level = excluded.level, updated_at = excluded.updated_at`,
		entry.GuildID, entry.UserID, entry.XP, entry.Level, entry.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: setting xp for %s in guild %s: %w", entry.UserID, entry.GuildID, err)
	}
	return nil
}

// ListXP returns the guild's XP rows, highest first.
func (db *DB) ListXP(ctx context.Context, guildID string, opts repository.ListOptions) ([]model.UserXP, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT guild_id, user_id, xp, level, updated_at FROM user_xp
		 WHERE guild_id = ?
		 ORDER BY xp DESC, user_id ASC
		 LIMIT ? OFFSET ?`,
		guildID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing xp for guild %s: %w", guildID, err)
	}
	defer rows.Close()

	out := make([]model.UserXP, 0, limit)
	for rows.Next() {
		var e model.UserXP
		if err := rows.Scan(&e.GuildID, &e.UserID, &e.XP, &e.Level, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning xp row: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating xp rows: %w", err)
	}
	return out, nil
}

// ResetGuild deletes every XP row of the guild and reports how many were removed.
func (db *DB) ResetGuild(ctx context.Context, guildID string) (int64, error) {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM user_xp WHERE guild_id = ?`, guildID)
	if err != nil {
		return 0, fmt.Errorf("sqlite: resetting xp for guild %s: %w", guildID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	return n, nil
}

// ResetUser deletes one member's XP row in one guild.
func (db *DB) ResetUser(ctx context.Context, guildID, userID string) (int64, error) {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM user_xp WHERE guild_id = ? AND user_id = ?`, guildID, userID)
	if err != nil {
		return 0, fmt.Errorf("sqlite: resetting xp for %s in guild %s: %w", userID, guildID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	return n, nil
}
