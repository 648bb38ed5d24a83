package service

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"net/url"
	"os"
	"time"

	"github.com/sakif/guild-dashboard/internal/apperror"
	"github.com/sakif/guild-dashboard/internal/model"
	"github.com/sakif/guild-dashboard/internal/repository"
)

// =========================================================================
// FAKES
// =========================================================================
//
// In-memory implementations of the repository interfaces. Each one counts
// the writes it received so tests can assert that a rejected request never
// reached the store.

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

type fakeUserRepo struct {
	byDiscordID map[string]*model.User
	nextID      int
	upsertErr   error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byDiscordID: make(map[string]*model.User)}
}

func (f *fakeUserRepo) Upsert(_ context.Context, user *model.User) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	if existing, ok := f.byDiscordID[user.DiscordID]; ok {
		user.ID = existing.ID
		user.CreatedAt = existing.CreatedAt
	} else {
		f.nextID++
		user.ID = fmt.Sprintf("user-%d", f.nextID)
		user.CreatedAt = time.Now()
	}
	user.UpdatedAt = time.Now()
	stored := *user
	f.byDiscordID[user.DiscordID] = &stored
	return nil
}

type fakeSessionRepo struct {
	sessions map[string]*model.Session
	getErr   error
	deleted  []string
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]*model.Session)}
}

func (f *fakeSessionRepo) CreateSession(_ context.Context, sess *model.Session) error {
	stored := *sess
	f.sessions[sess.ID] = &stored
	return nil
}

func (f *fakeSessionRepo) GetSession(_ context.Context, id string) (*model.Session, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	s, ok := f.sessions[id]
	if !ok {
		return nil, apperror.NotFound("session", id)
	}
	out := *s
	return &out, nil
}

func (f *fakeSessionRepo) DeleteSession(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	delete(f.sessions, id)
	return nil
}

func (f *fakeSessionRepo) DeleteExpiredSessions(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for id, s := range f.sessions {
		if s.Expired(now) {
			delete(f.sessions, id)
			n++
		}
	}
	return n, nil
}

type fakeSettingsRepo struct {
	docs   map[string]*model.GuildSettings
	writes int
}

func newFakeSettingsRepo() *fakeSettingsRepo {
	return &fakeSettingsRepo{docs: make(map[string]*model.GuildSettings)}
}

func (f *fakeSettingsRepo) UpsertSettings(_ context.Context, kind model.SettingsKind, guildID string, patch map[string]any) (*model.GuildSettings, error) {
	f.writes++
	key := string(kind) + "/" + guildID
	now := time.Now()
	doc, ok := f.docs[key]
	if !ok {
		doc = &model.GuildSettings{GuildID: guildID, Kind: kind, Settings: map[string]any{}, CreatedAt: now}
		f.docs[key] = doc
	}
	for k, v := range patch {
		if v == nil {
			delete(doc.Settings, k)
			continue
		}
		doc.Settings[k] = v
	}
	doc.UpdatedAt = now
	out := *doc
	out.Settings = maps.Clone(doc.Settings)
	return &out, nil
}

func (f *fakeSettingsRepo) GetSettings(_ context.Context, kind model.SettingsKind, guildID string) (*model.GuildSettings, error) {
	doc, ok := f.docs[string(kind)+"/"+guildID]
	if !ok {
		return nil, apperror.NotFound(string(kind)+" settings", guildID)
	}
	out := *doc
	return &out, nil
}

type fakeShopRepo struct {
	items  map[string]*model.ShopItem
	nextID int
	writes int
}

func newFakeShopRepo() *fakeShopRepo {
	return &fakeShopRepo{items: make(map[string]*model.ShopItem)}
}

func (f *fakeShopRepo) CreateItem(_ context.Context, item *model.ShopItem) error {
	f.writes++
	f.nextID++
	item.ID = fmt.Sprintf("item-%d", f.nextID)
	item.CreatedAt = time.Now()
	item.UpdatedAt = item.CreatedAt
	stored := *item
	f.items[item.ID] = &stored
	return nil
}

func (f *fakeShopRepo) ListItems(_ context.Context, guildID string) ([]model.ShopItem, error) {
	out := []model.ShopItem{}
	for _, item := range f.items {
		if item.GuildID == guildID {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (f *fakeShopRepo) UpdateItem(_ context.Context, guildID, id string, patch model.ShopItemPatch) (*model.ShopItem, error) {
	f.writes++
	item, ok := f.items[id]
	if !ok || item.GuildID != guildID {
		return nil, apperror.NotFound("shop item", id)
	}
	patch.Apply(item)
	item.UpdatedAt = time.Now()
	out := *item
	return &out, nil
}

func (f *fakeShopRepo) DeleteItem(_ context.Context, guildID, id string) error {
	f.writes++
	item, ok := f.items[id]
	if !ok || item.GuildID != guildID {
		return apperror.NotFound("shop item", id)
	}
	delete(f.items, id)
	return nil
}

type fakeTicketRepo struct {
	panels []model.TicketPanel
	writes int
}

func (f *fakeTicketRepo) CreatePanel(_ context.Context, panel *model.TicketPanel) error {
	f.writes++
	panel.PanelID = fmt.Sprintf("panel-%d", f.writes)
	panel.CreatedAt = time.Now()
	panel.UpdatedAt = panel.CreatedAt
	f.panels = append(f.panels, *panel)
	return nil
}

func (f *fakeTicketRepo) ListPanels(_ context.Context, guildID string) ([]model.TicketPanel, error) {
	out := []model.TicketPanel{}
	for _, p := range f.panels {
		if p.GuildID == guildID {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeXPRepo struct {
	rows   []model.UserXP
	writes int
}

func (f *fakeXPRepo) SetXP(_ context.Context, entry *model.UserXP) error {
	f.rows = append(f.rows, *entry)
	return nil
}

func (f *fakeXPRepo) ListXP(_ context.Context, guildID string, _ repository.ListOptions) ([]model.UserXP, error) {
	out := []model.UserXP{}
	for _, r := range f.rows {
		if r.GuildID == guildID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeXPRepo) ResetGuild(_ context.Context, guildID string) (int64, error) {
	f.writes++
	return f.remove(func(r model.UserXP) bool { return r.GuildID == guildID }), nil
}

func (f *fakeXPRepo) ResetUser(_ context.Context, guildID, userID string) (int64, error) {
	f.writes++
	return f.remove(func(r model.UserXP) bool { return r.GuildID == guildID && r.UserID == userID }), nil
}

func (f *fakeXPRepo) remove(match func(model.UserXP) bool) int64 {
	var n int64
	kept := f.rows[:0]
	for _, r := range f.rows {
		if match(r) {
			n++
			continue
		}
		kept = append(kept, r)
	}
	f.rows = kept
	return n
}

// fakeBot answers Fetch from a canned function and records the requests.
type fakeBot struct {
	respond func(path string, query url.Values, out any) bool
	paths   []string
	queries []url.Values
}

func (f *fakeBot) Fetch(_ context.Context, path string, query url.Values, out any) bool {
	f.paths = append(f.paths, path)
	f.queries = append(f.queries, query)
	if f.respond == nil {
		return false
	}
	return f.respond(path, query, out)
}

// =========================================================================
// SESSIONS
// =========================================================================

const testGuild = "42"

func memberSession(guildID string, perms int64) *model.Session {
	return &model.Session{
		ID:        "sess-member",
		DiscordID: "100",
		Guilds:    []model.GuildMembership{{GuildID: guildID, Name: "Test", Permissions: perms}},
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func adminSession(guildID string) *model.Session {
	s := memberSession(guildID, 0x8) // ADMINISTRATOR
	s.ID = "sess-admin"
	return s
}
