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

var _ repository.SettingsRepository = (*DB)(nil)

// settingsTables maps each settings kind to its table. Table names are never
// taken from user input; an unknown kind is rejected before any SQL is built.
var settingsTables = map[model.SettingsKind]string{
	model.SettingsEconomy: "economy_settings",
	model.SettingsXP:      "xp_settings",
}

func settingsTable(kind model.SettingsKind) (string, error) {
	table, ok := settingsTables[kind]
	if !ok {
		return "", fmt.Errorf("sqlite: unknown settings kind %q", kind)
	}
	return table, nil
}

// UpsertSettings merges patch into the guild's settings document.
//
// MERGE RULES:
//   - keys in patch overwrite the stored value
//   - a key whose patch value is nil (JSON null) is removed
//   - keys absent from patch are kept
//
// On first write the row is inserted with created_at = updated_at = now.
// Later writes keep created_at and move updated_at strictly forward, even if
// the wall clock has not advanced since the previous write.
//
// The read-merge-write runs in one transaction. Two dashboards saving at once
// still race at "last write wins" granularity per key.
func (db *DB) UpsertSettings(ctx context.Context, kind model.SettingsKind, guildID string, patch map[string]any) (*model.GuildSettings, error) {
	table, err := settingsTable(kind)
	if err != nil {
		return nil, err
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: beginning %s upsert: %w", table, err)
	}
	defer tx.Rollback()

	existing, err := scanSettings(tx.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT guild_id, settings, created_at, updated_at FROM %s WHERE guild_id = ?`, table),
		guildID,
	))
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sqlite: reading %s for guild %s: %w", table, guildID, err)
	}

	now := db.now()
	var out *model.GuildSettings

	if existing != nil {
		if !now.After(existing.UpdatedAt) {
			now = existing.UpdatedAt.Add(time.Microsecond)
		}
		out = existing
		out.Settings = mergeSettings(existing.Settings, patch)
		out.UpdatedAt = now

		raw, err := json.Marshal(out.Settings)
		if err != nil {
			return nil, fmt.Errorf("sqlite: encoding %s: %w", table, err)
		}
		_, err = tx.ExecContext(ctx,
			fmt.Sprintf(`UPDATE %s SET settings = ?, updated_at = ? WHERE guild_id = ?`, table),
			string(raw), out.UpdatedAt, guildID,
		)
		if err != nil {
			return nil, fmt.Errorf("sqlite: updating %s for guild %s: %w", table, guildID, err)
		}
	} else {
		out = &model.GuildSettings{
			GuildID:   guildID,
			Settings:  mergeSettings(nil, patch),
			CreatedAt: now,
			UpdatedAt: now,
		}
		raw, err := json.Marshal(out.Settings)
		if err != nil {
			return nil, fmt.Errorf("sqlite: encoding %s: %w", table, err)
		}
		_, err = tx.ExecContext(ctx,
			fmt.Sprintf(`INSERT INTO %s (guild_id, settings, created_at, updated_at) VALUES (?, ?, ?, ?)`, table),
			guildID, string(raw), out.CreatedAt, out.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("sqlite: inserting %s for guild %s: %w", table, guildID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqlite: committing %s upsert: %w", table, err)
	}

	out.Kind = kind
	return out, nil
}

// GetSettings returns the guild's settings document, or NotFound if the guild
// has never saved any.
func (db *DB) GetSettings(ctx context.Context, kind model.SettingsKind, guildID string) (*model.GuildSettings, error) {
	table, err := settingsTable(kind)
	if err != nil {
		return nil, err
	}

	s, err := scanSettings(db.conn.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT guild_id, settings, created_at, updated_at FROM %s WHERE guild_id = ?`, table),
		guildID,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound(string(kind)+" settings", guildID)
		}
		return nil, fmt.Errorf("sqlite: reading %s for guild %s: %w", table, guildID, err)
	}
	s.Kind = kind
	return s, nil
}

func scanSettings(row *sql.Row) (*model.GuildSettings, error) {
	var (
		s   model.GuildSettings
		raw string
	)
	if err := row.Scan(&s.GuildID, &raw, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	s.Settings = map[string]any{}
	if err := json.Unmarshal([]byte(raw), &s.Settings); err != nil {
		return nil, fmt.Errorf("decoding settings document: %w", err)
	}
	return &s, nil
}

func mergeSettings(base, patch map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(patch))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range patch {
		if v == nil {
			delete(out, k)
			continue
		}
		out[k] = v
	}
	return out
}
