package service

import (
	"github.com/bwmarrin/discordgo"

	"github.com/sakif/guild-dashboard/internal/apperror"
	"github.com/sakif/guild-dashboard/internal/model"
)

// manageBits are the Discord permission bits that grant dashboard admin rights.
const manageBits = discordgo.PermissionAdministrator | discordgo.PermissionManageServer

// IsGuildAdmin reports whether sess may change guildID's settings.
//
// True only when the session is globally privileged, or its membership for
// exactly guildID is the owner or carries ADMINISTRATOR or MANAGE_GUILD.
// It reads the session every time; nothing is cached between requests.
func IsGuildAdmin(guildID string, sess *model.Session) bool {
	if sess == nil || guildID == "" {
		return false
	}
	if sess.IsAdmin {
		return true
	}
	m, ok := sess.Membership(guildID)
	if !ok {
		return false
	}
	return m.Owner || m.Permissions&int64(manageBits) != 0
}

// AuthorizeGuild is IsGuildAdmin as an error: Unauthorized without a session,
// Forbidden when the session lacks admin rights for guildID.
func AuthorizeGuild(guildID string, sess *model.Session) error {
	if sess == nil {
		return apperror.Unauthorized("valid authentication required")
	}
	if !IsGuildAdmin(guildID, sess) {
		return apperror.Forbidden("you do not have permission to manage this guild")
	}
	return nil
}

// ManageableGuilds lists the session's memberships that pass IsGuildAdmin.
// A global admin still only sees the guilds they belong to.
func ManageableGuilds(sess *model.Session) []model.GuildMembership {
	out := []model.GuildMembership{}
	if sess == nil {
		return out
	}
	for _, g := range sess.Guilds {
		if IsGuildAdmin(g.GuildID, sess) {
			out = append(out, g)
		}
	}
	return out
}
