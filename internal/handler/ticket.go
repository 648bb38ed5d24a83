package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/guild-dashboard/internal/service"
)

type TicketHandler struct {
	tickets *service.TicketService
	logger  *slog.Logger
}

func NewTicketHandler(tickets *service.TicketService, logger *slog.Logger) *TicketHandler {
	return &TicketHandler{tickets: tickets, logger: logger}
}

// HandleListPanels → GET /api/guilds/{guildId}/tickets/panels
func (h *TicketHandler) HandleListPanels(w http.ResponseWriter, r *http.Request) {
	panels, err := h.tickets.List(r.Context(), guildID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeCachedJSON(w, cacheLong, map[string]any{"panels": panels})
}

// HandleCreatePanel creates a ticket panel.
//
// HTTP: POST /api/guilds/{guildId}/tickets/panels
// REQUEST BODY: {"channelId": "123", "title": "Support", "description": "..."}
func (h *TicketHandler) HandleCreatePanel(w http.ResponseWriter, r *http.Request) {
	var in service.NewTicketPanel
	if err := decodeJSON(w, r, &in, true); err != nil {
		writeError(w, err)
		return
	}

	panel, err := h.tickets.Create(r.Context(), sessionFrom(r), guildID(r), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, panel)
}
