package model

import "time"

// SettingsKind selects which per-guild settings document is addressed.
type SettingsKind string

const (
	SettingsEconomy SettingsKind = "economy"
	SettingsXP      SettingsKind = "xp"
)

// GuildSettings is a per-guild configuration document.
//
// There is at most one row per (kind, guild). The first write creates it,
// later writes merge into Settings and bump UpdatedAt. CreatedAt never changes.
type GuildSettings struct {
	GuildID   string         `json:"guildId"`
	Kind      SettingsKind   `json:"-"`
	Settings  map[string]any `json:"settings"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}
