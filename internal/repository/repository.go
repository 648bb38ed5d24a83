// Package repository declares the storage interfaces the services depend on.
// internal/repository/sqlite is the production implementation.
//
// Every guild-scoped method takes the guild id and uses it in the WHERE clause,
// so a caller can never touch another guild's rows by guessing an item id.
package repository

import (
	"context"
	"time"

	"github.com/sakif/guild-dashboard/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

// UserRepository stores dashboard accounts.
type UserRepository interface {
	Upsert(ctx context.Context, user *model.User) error
}

// SessionRepository stores login sessions.
type SessionRepository interface {
	CreateSession(ctx context.Context, sess *model.Session) error
	GetSession(ctx context.Context, id string) (*model.Session, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// SettingsRepository stores the per-guild economy and XP settings documents.
type SettingsRepository interface {
	// UpsertSettings merges patch into the (kind, guildID) document, creating
	// it on first write. It returns the stored row.
	UpsertSettings(ctx context.Context, kind model.SettingsKind, guildID string, patch map[string]any) (*model.GuildSettings, error)
	GetSettings(ctx context.Context, kind model.SettingsKind, guildID string) (*model.GuildSettings, error)
}

// ShopRepository stores economy shop items.
type ShopRepository interface {
	CreateItem(ctx context.Context, item *model.ShopItem) error
	ListItems(ctx context.Context, guildID string) ([]model.ShopItem, error)
	UpdateItem(ctx context.Context, guildID, id string, patch model.ShopItemPatch) (*model.ShopItem, error)
	DeleteItem(ctx context.Context, guildID, id string) error
}

// TicketRepository stores ticket panels.
type TicketRepository interface {
	CreatePanel(ctx context.Context, panel *model.TicketPanel) error
	ListPanels(ctx context.Context, guildID string) ([]model.TicketPanel, error)
}

// XPRepository stores per-member XP totals.
type XPRepository interface {
	SetXP(ctx context.Context, entry *model.UserXP) error
	ListXP(ctx context.Context, guildID string, opts ListOptions) ([]model.UserXP, error)
	ResetGuild(ctx context.Context, guildID string) (int64, error)
	ResetUser(ctx context.Context, guildID, userID string) (int64, error)
}

// HealthChecker reports whether the store is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}
