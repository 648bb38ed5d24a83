package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/guild-dashboard/internal/model"
	"github.com/sakif/guild-dashboard/internal/service"
)

// EconomyHandler manages a guild's economy settings and shop.
//
// Writes go through the services, which check guild admin rights before the
// store is touched. The handler only parses and renders.
type EconomyHandler struct {
	settings *service.SettingsService
	shop     *service.ShopService
	logger   *slog.Logger
}

func NewEconomyHandler(settings *service.SettingsService, shop *service.ShopService, logger *slog.Logger) *EconomyHandler {
	return &EconomyHandler{settings: settings, shop: shop, logger: logger}
}

// HandleGetSettings → GET /api/guilds/{guildId}/economy/settings
//
// 404 until the guild saves its first economy setting.
func (h *EconomyHandler) HandleGetSettings(w http.ResponseWriter, r *http.Request) {
	getSettings(w, r, h.settings, model.SettingsEconomy)
}

// HandleUpdateSettings merges the body into the economy settings.
//
// HTTP: PUT /api/guilds/{guildId}/economy/settings
// REQUEST BODY: {"currencyName": "Gems", "dailyReward": 100}
func (h *EconomyHandler) HandleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	updateSettings(w, r, h.settings, model.SettingsEconomy)
}

// HandleListItems → GET /api/guilds/{guildId}/economy/shop
func (h *EconomyHandler) HandleListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.shop.List(r.Context(), guildID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeCachedJSON(w, cacheLong, map[string]any{"items": items})
}

// HandleCreateItem adds a shop item.
//
// HTTP: POST /api/guilds/{guildId}/economy/shop
// REQUEST BODY: {"name": "VIP", "price": 500, "roleId": "123", "stock": 10}
func (h *EconomyHandler) HandleCreateItem(w http.ResponseWriter, r *http.Request) {
	var in service.NewShopItem
	if err := decodeJSON(w, r, &in, true); err != nil {
		writeError(w, err)
		return
	}

	item, err := h.shop.Create(r.Context(), sessionFrom(r), guildID(r), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// HandleUpdateItem applies a partial update to one item.
//
// HTTP: PATCH /api/guilds/{guildId}/economy/shop/{itemId}
//
// Only name, description, price, roleId, stock and enabled are accepted;
// any other key is a 400.
func (h *EconomyHandler) HandleUpdateItem(w http.ResponseWriter, r *http.Request) {
	var patch model.ShopItemPatch
	if err := decodeJSON(w, r, &patch, true); err != nil {
		writeError(w, err)
		return
	}

	item, err := h.shop.Update(r.Context(), sessionFrom(r), guildID(r), chi.URLParam(r, "itemId"), patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// HandleDeleteItem → DELETE /api/guilds/{guildId}/economy/shop/{itemId}
func (h *EconomyHandler) HandleDeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := h.shop.Delete(r.Context(), sessionFrom(r), guildID(r), chi.URLParam(r, "itemId")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Item deleted"})
}

// getSettings and updateSettings are shared by the economy and XP settings endpoints.
func getSettings(w http.ResponseWriter, r *http.Request, svc *service.SettingsService, kind model.SettingsKind) {
	settings, err := svc.Get(r.Context(), kind, guildID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeCachedJSON(w, cacheRevalidate, settings)
}

func updateSettings(w http.ResponseWriter, r *http.Request, svc *service.SettingsService, kind model.SettingsKind) {
	var patch map[string]any
	if err := decodeJSON(w, r, &patch, false); err != nil {
		writeError(w, err)
		return
	}

	settings, err := svc.Update(r.Context(), sessionFrom(r), kind, guildID(r), patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}
