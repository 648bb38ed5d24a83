// Package model defines the data structures used throughout the dashboard.
package model

import "time"

// GuildMembership is one entry of the Discord "/users/@me/guilds" list as it was
// observed at login time. Permissions holds the raw Discord permission bitfield.
type GuildMembership struct {
	GuildID     string `json:"guildId"`
	Name        string `json:"name"`
	Icon        string `json:"icon,omitempty"`
	Owner       bool   `json:"owner"`
	Permissions int64  `json:"permissions"`
}

// Session is an authenticated identity resolved from the session cookie.
//
// A session is a snapshot: the guild list is what Discord reported at login.
// It lives until ExpiresAt or until the user logs out, whichever comes first.
type Session struct {
	ID          string            `json:"-"`
	UserID      string            `json:"userId"`
	DiscordID   string            `json:"discordId"`
	DisplayName string            `json:"displayName"`
	Email       string            `json:"email"`
	AvatarURL   string            `json:"avatarUrl"`
	IsAdmin     bool              `json:"isAdmin"`
	Guilds      []GuildMembership `json:"guilds"`
	ExpiresAt   time.Time         `json:"expiresAt"`
	CreatedAt   time.Time         `json:"createdAt"`
}

// Expired reports whether the session is no longer valid at the given instant.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Membership returns the membership record for guildID, if the session has one.
func (s *Session) Membership(guildID string) (GuildMembership, bool) {
	for _, g := range s.Guilds {
		if g.GuildID == guildID {
			return g, true
		}
	}
	return GuildMembership{}, false
}
