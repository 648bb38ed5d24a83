package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/xid"

	"github.com/sakif/guild-dashboard/internal/apperror"
	"github.com/sakif/guild-dashboard/internal/model"
	"github.com/sakif/guild-dashboard/internal/repository"
)

var _ repository.ShopRepository = (*DB)(nil)

const shopItemColumns = `id, guild_id, name, description, price, role_id, stock, enabled, created_at, updated_at`

// CreateItem inserts a new shop item. ID and timestamps are assigned here and
// written back into item.
func (db *DB) CreateItem(ctx context.Context, item *model.ShopItem) error {
	item.ID = xid.New().String()
	now := db.now()
	item.CreatedAt = now
	item.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO shop_items (`+shopItemColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID,
		item.GuildID,
		item.Name,
		item.Description,
		item.Price,
		item.RoleID,
		item.Stock,
		boolToInt(item.Enabled),
		item.CreatedAt,
		item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating shop item in guild %s: %w", item.GuildID, err)
	}
	return nil
}

// ListItems returns the guild's items, oldest first.
func (db *DB) ListItems(ctx context.Context, guildID string) ([]model.ShopItem, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+shopItemColumns+` FROM shop_items WHERE guild_id = ? ORDER BY created_at ASC, id ASC`,
		guildID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing shop items for guild %s: %w", guildID, err)
	}
	defer rows.Close()

	items := []model.ShopItem{}
	for rows.Next() {
		item, err := scanShopItem(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning shop item row: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating shop items: %w", err)
	}
	return items, nil
}

// UpdateItem applies a partial update keyed by (guildID, id) and returns the
// stored row. Zero matched rows is NotFound, never a silent success.
func (db *DB) UpdateItem(ctx context.Context, guildID, id string, patch model.ShopItemPatch) (*model.ShopItem, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: beginning shop item update: %w", err)
	}
	defer tx.Rollback()

	item, err := scanShopItem(tx.QueryRowContext(ctx,
		`SELECT `+shopItemColumns+` FROM shop_items WHERE guild_id = ? AND id = ?`,
		guildID, id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("shop item", id)
		}
		return nil, fmt.Errorf("sqlite: loading shop item %s: %w", id, err)
	}

	patch.Apply(item)
	now := db.now()
	if !now.After(item.UpdatedAt) {
		now = item.UpdatedAt.Add(1)
	}
	item.UpdatedAt = now

	result, err := tx.ExecContext(ctx,
		`UPDATE shop_items
		 SET name = ?, description = ?, price = ?, role_id = ?, stock = ?, enabled = ?, updated_at = ?
		 WHERE guild_id = ? AND id = ?`,
		item.Name,
		item.Description,
		item.Price,
		item.RoleID,
		item.Stock,
		boolToInt(item.Enabled),
		item.UpdatedAt,
		guildID,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: updating shop item %s: %w", id, err)
	}
	if err := checkAffected(result, apperror.NotFound("shop item", id)); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqlite: committing shop item update: %w", err)
	}
	return item, nil
}

// DeleteItem removes an item keyed by (guildID, id).
func (db *DB) DeleteItem(ctx context.Context, guildID, id string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM shop_items WHERE guild_id = ? AND id = ?`,
		guildID, id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting shop item %s: %w", id, err)
	}
	return checkAffected(result, apperror.NotFound("shop item", id))
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanShopItem(row rowScanner) (*model.ShopItem, error) {
	var item model.ShopItem
	if err := row.Scan(
		&item.ID,
		&item.GuildID,
		&item.Name,
		&item.Description,
		&item.Price,
		&item.RoleID,
		&item.Stock,
		&item.Enabled,
		&item.CreatedAt,
		&item.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &item, nil
}
