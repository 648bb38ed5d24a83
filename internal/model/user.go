package model

import "time"

// User is a dashboard account keyed by the Discord user id.
//
// We keep our own internal string ID (xid) so that sessions and audit fields
// do not depend on Discord's snowflake numbering.
type User struct {
	ID          string    `json:"id"          db:"id"`
	DiscordID   string    `json:"discordId"   db:"discord_id"`
	Username    string    `json:"username"    db:"username"`
	DisplayName string    `json:"displayName" db:"display_name"`
	Email       string    `json:"email"       db:"email"`      // empty when the email scope was not granted
	AvatarURL   string    `json:"avatarUrl"   db:"avatar_url"`
	CreatedAt   time.Time `json:"createdAt"   db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt"   db:"updated_at"`
}
