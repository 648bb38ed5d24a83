package model

// Payloads served by the read endpoints.
//
// Each one is either decoded from the bot service or taken from the static
// defaults in the botapi package. Source says which ("live" or "fallback").
// Slices are always non-nil so the dashboard never sees null where it expects a list.

const (
	SourceLive     = "live"
	SourceFallback = "fallback"
)

// BotStatus describes the bot process itself.
type BotStatus struct {
	Online    bool   `json:"online"`
	Guilds    int    `json:"guilds"`
	Users     int    `json:"users"`
	UptimeSec int64  `json:"uptime"`
	LatencyMS int    `json:"latency"`
	Version   string `json:"version"`
	Source    string `json:"source"`
}

// Currency is the guild's economy currency.
type Currency struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

// Balance is one member's wallet in the economy overview.
type Balance struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Balance  int64  `json:"balance"`
}

// EconomyOverview is the economy dashboard page.
type EconomyOverview struct {
	GuildID     string    `json:"guildId"`
	Currency    Currency  `json:"currency"`
	TotalCoins  int64     `json:"totalCoins"`
	ActiveUsers int       `json:"activeUsers"`
	TopBalances []Balance `json:"topBalances"`
	Source      string    `json:"source"`
}

// Member is one guild member as the bot sees them.
type Member struct {
	ID          string   `json:"id"`
	Username    string   `json:"username"`
	DisplayName string   `json:"displayName"`
	AvatarURL   string   `json:"avatarUrl"`
	Roles       []string `json:"roles"`
	JoinedAt    string   `json:"joinedAt"`
}

// MemberList is the members page.
type MemberList struct {
	GuildID string   `json:"guildId"`
	Total   int      `json:"total"`
	Online  int      `json:"online"`
	Members []Member `json:"members"`
	Source  string   `json:"source"`
}

// XPEntry is one row of the leaderboard.
type XPEntry struct {
	Rank     int    `json:"rank"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
	XP       int64  `json:"xp"`
	Level    int    `json:"level"`
}

// XPLeaderboard is the XP page.
type XPLeaderboard struct {
	GuildID     string    `json:"guildId"`
	TotalUsers  int       `json:"totalUsers"`
	Leaderboard []XPEntry `json:"leaderboard"`
	Source      string    `json:"source"`
}

// ModerationCounts aggregates moderation actions.
type ModerationCounts struct {
	Warnings int `json:"warnings"`
	Kicks    int `json:"kicks"`
	Bans     int `json:"bans"`
	Timeouts int `json:"timeouts"`
}

// ModAction is a single moderation event.
type ModAction struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	UserID      string `json:"userId"`
	ModeratorID string `json:"moderatorId"`
	Reason      string `json:"reason"`
	CreatedAt   string `json:"createdAt"`
}

// ModerationStats is the moderation page.
type ModerationStats struct {
	GuildID       string           `json:"guildId"`
	Stats         ModerationCounts `json:"stats"`
	RecentActions []ModAction      `json:"recentActions"`
	Source        string           `json:"source"`
}

// LogEntry is one audit log line.
type LogEntry struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Message   string `json:"message"`
	UserID    string `json:"userId"`
	CreatedAt string `json:"createdAt"`
}

// LogPage is a filtered, paginated slice of the guild log.
type LogPage struct {
	GuildID string     `json:"guildId"`
	Logs    []LogEntry `json:"logs"`
	Total   int        `json:"total"`
	Limit   int        `json:"limit"`
	Offset  int        `json:"offset"`
	Source  string     `json:"source"`
}

// Giveaway is a running or finished giveaway.
type Giveaway struct {
	ID        string `json:"id"`
	Prize     string `json:"prize"`
	ChannelID string `json:"channelId"`
	HostID    string `json:"hostId"`
	Winners   int    `json:"winners"`
	Entries   int    `json:"entries"`
	EndsAt    string `json:"endsAt"`
}

// GiveawayList is the giveaways page.
type GiveawayList struct {
	GuildID string     `json:"guildId"`
	Active  []Giveaway `json:"active"`
	Ended   []Giveaway `json:"ended"`
	Source  string     `json:"source"`
}
