package sqlite

import (
	"context"
	"fmt"
	"strconv"

	"github.com/sakif/guild-dashboard/internal/apperror"
	"github.com/sakif/guild-dashboard/internal/model"
	"github.com/sakif/guild-dashboard/internal/repository"
)

var _ repository.TicketRepository = (*DB)(nil)

// CreatePanel inserts a ticket panel. The panel id is "panel-<unix millis>" of
// the creation time. Two panels created in the same millisecond collide on the
// primary key and the second insert is reported as a conflict.
func (db *DB) CreatePanel(ctx context.Context, panel *model.TicketPanel) error {
	now := db.now()
	panel.PanelID = "panel-" + strconv.FormatInt(now.UnixMilli(), 10)
	panel.CreatedAt = now
	panel.UpdatedAt = now

	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO ticket_panels (panel_id, guild_id, channel_id, title, description, button_label, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(panel_id) DO NOTHING`,
		panel.PanelID,
		panel.GuildID,
		panel.ChannelID,
		panel.Title,
		panel.Description,
		panel.ButtonLabel,
		boolToInt(panel.IsActive),
		panel.CreatedAt,
		panel.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating ticket panel in guild %s: %w", panel.GuildID, err)
	}
	return checkAffected(result, apperror.Conflict("ticket panel", panel.PanelID))
}

// ListPanels returns the guild's panels, newest first.
func (db *DB) ListPanels(ctx context.Context, guildID string) ([]model.TicketPanel, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT panel_id, guild_id, channel_id, title, description, button_label, is_active, created_at, updated_at
		 FROM ticket_panels WHERE guild_id = ? ORDER BY created_at DESC`,
		guildID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing ticket panels for guild %s: %w", guildID, err)
	}
	defer rows.Close()

	panels := []model.TicketPanel{}
	for rows.Next() {
		var p model.TicketPanel
		if err := rows.Scan(
			&p.PanelID, &p.GuildID, &p.ChannelID, &p.Title, &p.Description,
			&p.ButtonLabel, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning ticket panel row: %w", err)
		}
		panels = append(panels, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating ticket panels: %w", err)
	}
	return panels, nil
}
