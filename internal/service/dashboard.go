package service

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/sakif/guild-dashboard/internal/botapi"
	"github.com/sakif/guild-dashboard/internal/model"
)

const (
	DefaultLogLimit = 50
	MaxLogLimit     = 100
)

// BotFetcher is the part of botapi.Client the dashboard reads use.
type BotFetcher interface {
	Fetch(ctx context.Context, path string, query url.Values, out any) bool
}

// LogQuery filters the guild log. Type "" means every type.
type LogQuery struct {
	Type   string
	Limit  int
	Offset int
}

// Normalize clamps Limit to 1..MaxLogLimit (0 means DefaultLogLimit) and
// Offset to 0 or more.
func (q LogQuery) Normalize() LogQuery {
	switch {
	case q.Limit <= 0:
		q.Limit = DefaultLogLimit
	case q.Limit > MaxLogLimit:
		q.Limit = MaxLogLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	return q
}

// DashboardService serves the read-only pages from the bot service.
//
// Every method returns a fully populated value: live data when the bot answered,
// otherwise the static default for that page. Upstream failures are logged at
// debug level and never returned.
type DashboardService struct {
	bot    BotFetcher
	logger *slog.Logger
}

func NewDashboardService(bot BotFetcher, logger *slog.Logger) *DashboardService {
	return &DashboardService{bot: bot, logger: logger}
}

func (s *DashboardService) fallback(resource, guildID string) {
	s.logger.Debug("serving fallback",
		slog.String("resource", resource),
		slog.String("guildID", guildID),
	)
}

func (s *DashboardService) Status(ctx context.Context) model.BotStatus {
	var out model.BotStatus
	if !s.bot.Fetch(ctx, botapi.StatusPath, nil, &out) {
		s.fallback("status", "")
		return botapi.DefaultStatus()
	}
	out.Source = model.SourceLive
	return out
}

func (s *DashboardService) Economy(ctx context.Context, guildID string) model.EconomyOverview {
	var out model.EconomyOverview
	if !s.bot.Fetch(ctx, botapi.GuildPath(guildID, botapi.ResourceEconomy), nil, &out) {
		s.fallback(botapi.ResourceEconomy, guildID)
		return botapi.DefaultEconomy(guildID)
	}
	out.GuildID = guildID
	out.Source = model.SourceLive
	if out.TopBalances == nil {
		out.TopBalances = []model.Balance{}
	}
	return out
}

func (s *DashboardService) Members(ctx context.Context, guildID string) model.MemberList {
	var out model.MemberList
	if !s.bot.Fetch(ctx, botapi.GuildPath(guildID, botapi.ResourceMembers), nil, &out) {
		s.fallback(botapi.ResourceMembers, guildID)
		return botapi.DefaultMembers(guildID)
	}
	out.GuildID = guildID
	out.Source = model.SourceLive
	if out.Members == nil {
		out.Members = []model.Member{}
	}
	for i := range out.Members {
		if out.Members[i].Roles == nil {
			out.Members[i].Roles = []string{}
		}
	}
	return out
}

func (s *DashboardService) XP(ctx context.Context, guildID string) model.XPLeaderboard {
	var out model.XPLeaderboard
	if !s.bot.Fetch(ctx, botapi.GuildPath(guildID, botapi.ResourceXP), nil, &out) {
		s.fallback(botapi.ResourceXP, guildID)
		return botapi.DefaultXP(guildID)
	}
	out.GuildID = guildID
	out.Source = model.SourceLive
	if out.Leaderboard == nil {
		out.Leaderboard = []model.XPEntry{}
	}
	return out
}

func (s *DashboardService) Moderation(ctx context.Context, guildID string) model.ModerationStats {
	var out model.ModerationStats
	if !s.bot.Fetch(ctx, botapi.GuildPath(guildID, botapi.ResourceModeration), nil, &out) {
		s.fallback(botapi.ResourceModeration, guildID)
		return botapi.DefaultModeration(guildID)
	}
	out.GuildID = guildID
	out.Source = model.SourceLive
	if out.RecentActions == nil {
		out.RecentActions = []model.ModAction{}
	}
	return out
}

// Logs forwards the filter to the bot service. The echoed Limit and Offset are
// always the normalized values, live or fallback.
func (s *DashboardService) Logs(ctx context.Context, guildID string, q LogQuery) model.LogPage {
	q = q.Normalize()

	query := url.Values{}
	if q.Type != "" {
		query.Set("type", q.Type)
	}
	query.Set("limit", strconv.Itoa(q.Limit))
	query.Set("offset", strconv.Itoa(q.Offset))

	var out model.LogPage
	if !s.bot.Fetch(ctx, botapi.GuildPath(guildID, botapi.ResourceLogs), query, &out) {
		s.fallback(botapi.ResourceLogs, guildID)
		return botapi.DefaultLogs(guildID, q.Limit, q.Offset)
	}
	out.GuildID = guildID
	out.Source = model.SourceLive
	out.Limit = q.Limit
	out.Offset = q.Offset
	if out.Logs == nil {
		out.Logs = []model.LogEntry{}
	}
	if len(out.Logs) > q.Limit {
		out.Logs = out.Logs[:q.Limit]
	}
	return out
}

func (s *DashboardService) Giveaways(ctx context.Context, guildID string) model.GiveawayList {
	var out model.GiveawayList
	if !s.bot.Fetch(ctx, botapi.GuildPath(guildID, botapi.ResourceGiveaways), nil, &out) {
		s.fallback(botapi.ResourceGiveaways, guildID)
		return botapi.DefaultGiveaways(guildID)
	}
	out.GuildID = guildID
	out.Source = model.SourceLive
	if out.Active == nil {
		out.Active = []model.Giveaway{}
	}
	if out.Ended == nil {
		out.Ended = []model.Giveaway{}
	}
	return out
}
