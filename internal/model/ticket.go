package model

import "time"

// TicketPanel is a message with an "open ticket" button the bot posts in a channel.
// PanelID is derived from the creation timestamp.
type TicketPanel struct {
	PanelID     string    `json:"panelId"`
	GuildID     string    `json:"guildId"`
	ChannelID   string    `json:"channelId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ButtonLabel string    `json:"buttonLabel"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
