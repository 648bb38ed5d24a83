package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/sakif/guild-dashboard/internal/service"
)

// DashboardHandler serves the read-only pages backed by the bot service.
//
// None of these endpoints can fail because of the bot: when it is down or
// slow, the service hands back the static default and the page still renders.
// The route group in server.go requires a session before any of them run.
type DashboardHandler struct {
	dash   *service.DashboardService
	logger *slog.Logger
}

func NewDashboardHandler(dash *service.DashboardService, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{dash: dash, logger: logger}
}

// HandleBotStatus → GET /api/bot/status
func (h *DashboardHandler) HandleBotStatus(w http.ResponseWriter, r *http.Request) {
	writeCachedJSON(w, cacheShort, h.dash.Status(r.Context()))
}

// HandleGuilds lists the guilds the caller may manage.
//
// HTTP: GET /api/guilds
func (h *DashboardHandler) HandleGuilds(w http.ResponseWriter, r *http.Request) {
	writeCachedJSON(w, cacheLong, map[string]any{
		"guilds": service.ManageableGuilds(sessionFrom(r)),
	})
}

// HandleEconomy → GET /api/guilds/{guildId}/economy
func (h *DashboardHandler) HandleEconomy(w http.ResponseWriter, r *http.Request) {
	writeCachedJSON(w, cacheLong, h.dash.Economy(r.Context(), guildID(r)))
}

// HandleXP → GET /api/guilds/{guildId}/xp
func (h *DashboardHandler) HandleXP(w http.ResponseWriter, r *http.Request) {
	writeCachedJSON(w, cacheLong, h.dash.XP(r.Context(), guildID(r)))
}

// HandleMembers → GET /api/guilds/{guildId}/members
func (h *DashboardHandler) HandleMembers(w http.ResponseWriter, r *http.Request) {
	writeCachedJSON(w, cacheLong, h.dash.Members(r.Context(), guildID(r)))
}

// HandleModeration → GET /api/guilds/{guildId}/moderation
func (h *DashboardHandler) HandleModeration(w http.ResponseWriter, r *http.Request) {
	writeCachedJSON(w, cacheShort, h.dash.Moderation(r.Context(), guildID(r)))
}

// HandleGiveaways → GET /api/guilds/{guildId}/giveaways
func (h *DashboardHandler) HandleGiveaways(w http.ResponseWriter, r *http.Request) {
	writeCachedJSON(w, cacheShort, h.dash.Giveaways(r.Context(), guildID(r)))
}

// HandleLogs returns a page of the guild log.
//
// HTTP: GET /api/guilds/{guildId}/logs?type=ban&limit=50&offset=0
//
// Unparseable limit/offset values fall back to the defaults rather than
// failing the page.
func (h *DashboardHandler) HandleLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := service.LogQuery{
		Type:   strings.TrimSpace(q.Get("type")),
		Limit:  queryInt(q.Get("limit")),
		Offset: queryInt(q.Get("offset")),
	}
	writeCachedJSON(w, cacheShort, h.dash.Logs(r.Context(), guildID(r), query))
}

func queryInt(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
