package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/guild-dashboard/internal/model"
	"github.com/sakif/guild-dashboard/internal/service"
)

type XPHandler struct {
	settings *service.SettingsService
	xp       *service.XPService
	logger   *slog.Logger
}

func NewXPHandler(settings *service.SettingsService, xp *service.XPService, logger *slog.Logger) *XPHandler {
	return &XPHandler{settings: settings, xp: xp, logger: logger}
}

// HandleGetSettings → GET /api/guilds/{guildId}/xp/settings
func (h *XPHandler) HandleGetSettings(w http.ResponseWriter, r *http.Request) {
	getSettings(w, r, h.settings, model.SettingsXP)
}

// HandleUpdateSettings → PUT /api/guilds/{guildId}/xp/settings
func (h *XPHandler) HandleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	updateSettings(w, r, h.settings, model.SettingsXP)
}

// HandleReset deletes XP for one member or the whole guild.
//
// HTTP: POST /api/guilds/{guildId}/xp/reset
// REQUEST BODY: {"userId": "123"} or {"resetAll": true}
func (h *XPHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	var req service.ResetXPRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.xp.Reset(r.Context(), sessionFrom(r), guildID(r), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
