package model

import "time"

// UserXP is one member's experience total in one guild.
type UserXP struct {
	GuildID   string    `json:"guildId"`
	UserID    string    `json:"userId"`
	XP        int64     `json:"xp"`
	Level     int       `json:"level"`
	UpdatedAt time.Time `json:"updatedAt"`
}
