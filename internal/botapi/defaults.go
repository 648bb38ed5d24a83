package botapi

import "github.com/sakif/guild-dashboard/internal/model"

// Static defaults served when the bot service cannot answer.
//
// Each function returns a fresh value so callers may modify it. Every list
// is an empty, non-nil slice and every nested object is populated.

func DefaultStatus() model.BotStatus {
	return model.BotStatus{
		Online:  false,
		Version: "unknown",
		Source:  model.SourceFallback,
	}
}

func DefaultEconomy(guildID string) model.EconomyOverview {
	return model.EconomyOverview{
		GuildID:     guildID,
		Currency:    model.Currency{Name: "Coins", Symbol: "🪙"},
		TopBalances: []model.Balance{},
		Source:      model.SourceFallback,
	}
}

func DefaultMembers(guildID string) model.MemberList {
	return model.MemberList{
		GuildID: guildID,
		Members: []model.Member{},
		Source:  model.SourceFallback,
	}
}

func DefaultXP(guildID string) model.XPLeaderboard {
	return model.XPLeaderboard{
		GuildID:     guildID,
		Leaderboard: []model.XPEntry{},
		Source:      model.SourceFallback,
	}
}

func DefaultModeration(guildID string) model.ModerationStats {
	return model.ModerationStats{
		GuildID:       guildID,
		Stats:         model.ModerationCounts{},
		RecentActions: []model.ModAction{},
		Source:        model.SourceFallback,
	}
}

func DefaultLogs(guildID string, limit, offset int) model.LogPage {
	return model.LogPage{
		GuildID: guildID,
		Logs:    []model.LogEntry{},
		Limit:   limit,
		Offset:  offset,
		Source:  model.SourceFallback,
	}
}

func DefaultGiveaways(guildID string) model.GiveawayList {
	return model.GiveawayList{
		GuildID: guildID,
		Active:  []model.Giveaway{},
		Ended:   []model.Giveaway{},
		Source:  model.SourceFallback,
	}
}
