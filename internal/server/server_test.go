package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/guild-dashboard/internal/auth"
	"github.com/sakif/guild-dashboard/internal/config"
	"github.com/sakif/guild-dashboard/internal/model"
	"github.com/sakif/guild-dashboard/internal/repository"
)

var repositoryAll = repository.ListOptions{Limit: 100}

const (
	adminGuild  = "42"
	memberGuild = "43"
)

type testEnv struct {
	t      *testing.T
	srv    *Server
	ts     *httptest.Server
	admin  string // session token: admin of guild 42, plain member of 43
	global string // session token: globally privileged, no memberships
}

// newTestEnv starts the full router on an in-memory database. botURL may be
// "" to run without a bot service.
func newTestEnv(t *testing.T, botURL string, botTimeout time.Duration) *testEnv {
	t.Helper()

	cfg := &config.Config{
		Server:   config.ServerConfig{Port: 0, Env: "test", AllowedOrigins: []string{"https://dash.example.com"}},
		Database: config.DatabaseConfig{Path: ":memory:"},
		Session:  config.SessionConfig{Secret: "test-secret-at-least-16-chars!!", TTL: time.Hour, URL: "https://dash.example.com"},
		Discord:  config.DiscordConfig{AdminIDs: []string{"999"}},
		Bot:      config.BotConfig{BaseURL: botURL, Token: "bot-token", Timeout: botTimeout},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	srv, err := New(cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { srv.Close() })

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	env := &testEnv{t: t, srv: srv, ts: ts}
	env.admin = env.login(&auth.DiscordIdentity{
		ID:       "100",
		Username: "mod",
		Guilds: []model.GuildMembership{
			{GuildID: adminGuild, Name: "Admin Guild", Permissions: 0x20}, // MANAGE_GUILD
			{GuildID: memberGuild, Name: "Member Guild", Permissions: 0x400},
		},
	})
	env.global = env.login(&auth.DiscordIdentity{ID: "999", Username: "owner"})
	return env
}

func (e *testEnv) login(identity *auth.DiscordIdentity) string {
	e.t.Helper()
	_, token, err := e.srv.sessions.Login(context.Background(), identity)
	require.NoError(e.t, err)
	return token
}

// do sends a request; token "" means anonymous.
func (e *testEnv) do(method, path, token, body string) *http.Response {
	e.t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, e.ts.URL+path, r)
	require.NoError(e.t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: token})
	}
	resp, err := e.ts.Client().Do(req)
	require.NoError(e.t, err)
	e.t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func (e *testEnv) shopCount(guildID string) int {
	e.t.Helper()
	items, err := e.srv.db.ListItems(context.Background(), guildID)
	require.NoError(e.t, err)
	return len(items)
}

func TestRoutes_RequireSession(t *testing.T) {
	env := newTestEnv(t, "", time.Second)

	routes := []struct{ method, path, body string }{
		{http.MethodGet, "/api/bot/status", ""},
		{http.MethodGet, "/api/guilds", ""},
		{http.MethodGet, "/api/guilds/42/economy", ""},
		{http.MethodGet, "/api/guilds/42/logs", ""},
		{http.MethodGet, "/api/guilds/42/economy/settings", ""},
		{http.MethodPut, "/api/guilds/42/economy/settings", `{"enabled":true}`},
		{http.MethodPost, "/api/guilds/42/economy/shop", `{"name":"VIP","price":1}`},
		{http.MethodPatch, "/api/guilds/42/economy/shop/x", `{"price":1}`},
		{http.MethodDelete, "/api/guilds/42/economy/shop/x", ""},
		{http.MethodPut, "/api/guilds/42/xp/settings", `{"enabled":true}`},
		{http.MethodPost, "/api/guilds/42/xp/reset", `{"resetAll":true}`},
		{http.MethodPost, "/api/guilds/42/tickets/panels", `{"channelId":"1"}`},
	}

	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			for _, token := range []string{"", "garbage.token.value"} {
				resp := env.do(rt.method, rt.path, token, rt.body)
				assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			}
		})
	}

	assert.Equal(t, 0, env.shopCount("42"))
	_, err := env.srv.db.GetSettings(context.Background(), model.SettingsEconomy, "42")
	assert.Error(t, err, "no settings row may exist after rejected writes")
}

func TestMutations_ForbiddenWithoutGuildAdmin(t *testing.T) {
	env := newTestEnv(t, "", time.Second)

	require.NoError(t, env.srv.db.SetXP(context.Background(), &model.UserXP{GuildID: memberGuild, UserID: "1", XP: 10}))

	cases := []struct{ method, path, body string }{
		{http.MethodPut, "/api/guilds/43/economy/settings", `{"enabled":true}`},
		{http.MethodPost, "/api/guilds/43/economy/shop", `{"name":"VIP","price":1}`},
		{http.MethodPut, "/api/guilds/43/xp/settings", `{"enabled":true}`},
		{http.MethodPost, "/api/guilds/43/xp/reset", `{"resetAll":true}`},
		{http.MethodPost, "/api/guilds/43/tickets/panels", `{"channelId":"1"}`},
		// No membership at all.
		{http.MethodPost, "/api/guilds/77/xp/reset", `{"resetAll":true}`},
	}
	for _, c := range cases {
		resp := env.do(c.method, c.path, env.admin, c.body)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode, "%s %s", c.method, c.path)
	}

	assert.Equal(t, 0, env.shopCount(memberGuild))
	rows, err := env.srv.db.ListXP(context.Background(), memberGuild, repositoryAll)
	require.NoError(t, err)
	assert.Len(t, rows, 1, "forbidden reset must delete nothing")
	panels, err := env.srv.db.ListPanels(context.Background(), memberGuild)
	require.NoError(t, err)
	assert.Empty(t, panels)
}

func TestSettings_UpsertKeepsCreatedAt(t *testing.T) {
	env := newTestEnv(t, "", time.Second)

	first := decode[model.GuildSettings](t, env.do(http.MethodPut, "/api/guilds/42/economy/settings", env.admin, `{"currencyName":"Gems","dailyReward":100}`))
	resp := env.do(http.MethodPut, "/api/guilds/42/economy/settings", env.admin, `{"currencyName":"Gems","dailyReward":100}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	second := decode[model.GuildSettings](t, resp)

	assert.Equal(t, "42", second.GuildID)
	assert.Equal(t, "Gems", second.Settings["currencyName"])
	assert.Equal(t, float64(100), second.Settings["dailyReward"])
	assert.True(t, first.CreatedAt.Equal(second.CreatedAt))
	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))

	resp = env.do(http.MethodGet, "/api/guilds/42/economy/settings", env.admin, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "private, no-cache", resp.Header.Get("Cache-Control"))
	stored := decode[model.GuildSettings](t, resp)
	assert.Equal(t, "Gems", stored.Settings["currencyName"])

	// Reads need a session, not admin rights.
	resp = env.do(http.MethodGet, "/api/guilds/43/economy/settings", env.admin, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "never saved")
	resp = env.do(http.MethodGet, "/api/guilds/42/xp/settings", env.admin, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "economy save must not create xp settings")

	resp = env.do(http.MethodPut, "/api/guilds/42/xp/settings", env.admin, `{"xpPerMessage":5}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = env.do(http.MethodGet, "/api/guilds/42/xp/settings", env.admin, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(5), decode[model.GuildSettings](t, resp).Settings["xpPerMessage"])

	resp = env.do(http.MethodPut, "/api/guilds/42/xp/settings", env.admin, `{"xpPerMessage":"lots"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = env.do(http.MethodPut, "/api/guilds/42/xp/settings", env.admin, `{"colour":"red"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestShop_Lifecycle(t *testing.T) {
	env := newTestEnv(t, "", time.Second)

	resp := env.do(http.MethodPost, "/api/guilds/42/economy/shop", env.admin, `{"name":"VIP","price":500,"roleId":"7"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	item := decode[model.ShopItem](t, resp)
	require.NotEmpty(t, item.ID)

	resp = env.do(http.MethodPatch, "/api/guilds/42/economy/shop/"+item.ID, env.admin, `{"price":750}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(750), decode[model.ShopItem](t, resp).Price)

	resp = env.do(http.MethodPatch, "/api/guilds/42/economy/shop/"+item.ID, env.admin, `{"guildId":"43"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "unknown patch keys are rejected")

	resp = env.do(http.MethodGet, "/api/guilds/42/economy/shop", env.admin, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "private, max-age=30", resp.Header.Get("Cache-Control"))
	list := decode[struct {
		Items []model.ShopItem `json:"items"`
	}](t, resp)
	assert.Len(t, list.Items, 1)

	resp = env.do(http.MethodDelete, "/api/guilds/42/economy/shop/"+item.ID, env.admin, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(http.MethodDelete, "/api/guilds/42/economy/shop/"+item.ID, env.admin, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = env.do(http.MethodPatch, "/api/guilds/42/economy/shop/missing", env.admin, `{"price":1}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestShop_CrossGuildItemIsNotFound(t *testing.T) {
	env := newTestEnv(t, "", time.Second)

	// The global admin creates an item in guild 43.
	resp := env.do(http.MethodPost, "/api/guilds/43/economy/shop", env.global, `{"name":"Badge","price":1}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	item := decode[model.ShopItem](t, resp)

	// Admin of 42 addresses it through their own guild.
	resp = env.do(http.MethodDelete, "/api/guilds/42/economy/shop/"+item.ID, env.admin, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, 1, env.shopCount("43"))
}

func TestXPReset(t *testing.T) {
	env := newTestEnv(t, "", time.Second)
	ctx := context.Background()
	for _, row := range []model.UserXP{
		{GuildID: "42", UserID: "1", XP: 100},
		{GuildID: "42", UserID: "2", XP: 50},
		{GuildID: "7", UserID: "1", XP: 5},
	} {
		require.NoError(t, env.srv.db.SetXP(ctx, &row))
	}

	resp := env.do(http.MethodPost, "/api/guilds/42/xp/reset", env.admin, `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	rows, err := env.srv.db.ListXP(ctx, "42", repositoryAll)
	require.NoError(t, err)
	assert.Len(t, rows, 2, "a bad request deletes nothing")

	resp = env.do(http.MethodPost, "/api/guilds/42/xp/reset", env.admin, `{"userId":"2"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "XP reset for user 2", decode[map[string]any](t, resp)["message"])

	resp = env.do(http.MethodPost, "/api/guilds/42/xp/reset", env.admin, `{"resetAll":true}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string]any](t, resp)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "All XP reset successfully", body["message"])

	rows, err = env.srv.db.ListXP(ctx, "42", repositoryAll)
	require.NoError(t, err)
	assert.Empty(t, rows)
	rows, err = env.srv.db.ListXP(ctx, "7", repositoryAll)
	require.NoError(t, err)
	assert.Len(t, rows, 1, "other guilds are untouched")
}

func TestTicketPanels(t *testing.T) {
	env := newTestEnv(t, "", time.Second)

	resp := env.do(http.MethodPost, "/api/guilds/42/tickets/panels", env.admin, `{"channelId":"555"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	panel := decode[model.TicketPanel](t, resp)
	assert.True(t, strings.HasPrefix(panel.PanelID, "panel-"))
	assert.Equal(t, "Support Tickets", panel.Title)
	assert.True(t, panel.IsActive)

	resp = env.do(http.MethodPost, "/api/guilds/42/tickets/panels", env.admin, `{"title":"Help"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(http.MethodGet, "/api/guilds/42/tickets/panels", env.admin, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[struct {
		Panels []model.TicketPanel `json:"panels"`
	}](t, resp)
	assert.Len(t, list.Panels, 1)
}

func TestReads_FallbackWhenBotHangs(t *testing.T) {
	release := make(chan struct{})
	bot := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer bot.Close()
	defer close(release)

	env := newTestEnv(t, bot.URL, 150*time.Millisecond)

	paths := map[string]string{
		"/api/bot/status":           "private, max-age=10",
		"/api/guilds/42/economy":    "private, max-age=30",
		"/api/guilds/42/xp":         "private, max-age=30",
		"/api/guilds/42/members":    "private, max-age=30",
		"/api/guilds/42/moderation": "private, max-age=10",
		"/api/guilds/42/logs":       "private, max-age=10",
		"/api/guilds/42/giveaways":  "private, max-age=10",
	}
	for path, cache := range paths {
		start := time.Now()
		resp := env.do(http.MethodGet, path, env.admin, "")
		elapsed := time.Since(start)

		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Equal(t, cache, resp.Header.Get("Cache-Control"), path)
		assert.Less(t, elapsed, 2*time.Second, path)
		assert.Equal(t, model.SourceFallback, decode[map[string]any](t, resp)["source"], path)
	}
}

func TestReads_LiveData(t *testing.T) {
	var gotQuery string
	bot := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer bot-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/guilds/42/members":
			_, _ = io.WriteString(w, `{"total":2,"online":1,"members":[{"id":"1","username":"a"}]}`)
		case "/guilds/42/logs":
			gotQuery = r.URL.RawQuery
			_, _ = io.WriteString(w, `{"total":0,"logs":[]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer bot.Close()

	env := newTestEnv(t, bot.URL, time.Second)

	resp := env.do(http.MethodGet, "/api/guilds/42/members", env.admin, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	members := decode[model.MemberList](t, resp)
	assert.Equal(t, model.SourceLive, members.Source)
	assert.Equal(t, 2, members.Total)

	resp = env.do(http.MethodGet, "/api/guilds/42/logs?type=ban&limit=500&offset=5", env.admin, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	logs := decode[model.LogPage](t, resp)
	assert.Equal(t, 100, logs.Limit)
	assert.Equal(t, 5, logs.Offset)
	assert.Equal(t, "limit=100&offset=5&type=ban", gotQuery)

	// An upstream 404 is just another failure.
	resp = env.do(http.MethodGet, "/api/guilds/42/giveaways", env.admin, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, model.SourceFallback, decode[model.GiveawayList](t, resp).Source)
}

func TestSessionEndpointAndLogout(t *testing.T) {
	env := newTestEnv(t, "", time.Second)

	resp := env.do(http.MethodGet, "/api/auth/session", env.admin, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "no-cache, no-store, must-revalidate", resp.Header.Get("Cache-Control"))
	assert.Equal(t, true, decode[map[string]any](t, resp)["authenticated"])

	resp = env.do(http.MethodPost, "/api/auth/logout", env.admin, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(http.MethodGet, "/api/auth/session", env.admin, "")
	assert.Equal(t, false, decode[map[string]any](t, resp)["authenticated"])
	resp = env.do(http.MethodGet, "/api/guilds", env.admin, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "a revoked session stops working at once")
}

func TestGuildsList(t *testing.T) {
	env := newTestEnv(t, "", time.Second)

	resp := env.do(http.MethodGet, "/api/guilds", env.admin, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[struct {
		Guilds []model.GuildMembership `json:"guilds"`
	}](t, resp)
	require.Len(t, body.Guilds, 1)
	assert.Equal(t, adminGuild, body.Guilds[0].GuildID)
}

func TestGuildsList_BearerToken(t *testing.T) {
	env := newTestEnv(t, "", time.Second)

	req, err := http.NewRequest(http.MethodGet, env.ts.URL+"/api/guilds", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+env.admin)
	resp, err := env.ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHealthAndHeaders(t *testing.T) {
	env := newTestEnv(t, "", time.Second)

	resp := env.do(http.MethodGet, "/api/health/db", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))

	resp = env.do(http.MethodPost, "/api/health/db", "", "")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	resp = env.do(http.MethodGet, "/api/nope", "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSessionsDisabledWithoutSecret(t *testing.T) {
	cfg := &config.Config{
		Database: config.DatabaseConfig{Path: ":memory:"},
		Discord:  config.DiscordConfig{ClientID: "id", ClientSecret: "secret"},
	}
	srv, err := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	defer srv.Close()

	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/auth/discord/login", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	rr = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/guilds", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}
