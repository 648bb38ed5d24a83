package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/guild-dashboard/internal/apperror"
	"github.com/sakif/guild-dashboard/internal/model"
	"github.com/sakif/guild-dashboard/internal/repository"
)

const (
	DefaultPanelTitle       = "Support Tickets"
	DefaultPanelButtonLabel = "Create Ticket"
	MaxPanelTitleLength     = 256
)

// NewTicketPanel is the body of a panel create request.
type NewTicketPanel struct {
	ChannelID   string `json:"channelId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ButtonLabel string `json:"buttonLabel"`
}

type TicketService struct {
	repo   repository.TicketRepository
	logger *slog.Logger
}

func NewTicketService(repo repository.TicketRepository, logger *slog.Logger) *TicketService {
	return &TicketService{repo: repo, logger: logger}
}

func (s *TicketService) List(ctx context.Context, guildID string) ([]model.TicketPanel, error) {
	panels, err := s.repo.ListPanels(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("listing ticket panels: %w", err)
	}
	return panels, nil
}

// Create stores a new, active panel for guildID.
func (s *TicketService) Create(ctx context.Context, sess *model.Session, guildID string, in NewTicketPanel) (*model.TicketPanel, error) {
	if err := AuthorizeGuild(guildID, sess); err != nil {
		return nil, err
	}

	panel := &model.TicketPanel{
		GuildID:     guildID,
		ChannelID:   strings.TrimSpace(in.ChannelID),
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		ButtonLabel: strings.TrimSpace(in.ButtonLabel),
		IsActive:    true,
	}
	if panel.ChannelID == "" {
		return nil, apperror.ValidationFailed("channelId", "channelId is required")
	}
	if panel.Title == "" {
		panel.Title = DefaultPanelTitle
	}
	if len(panel.Title) > MaxPanelTitleLength {
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("title must be %d characters or less", MaxPanelTitleLength))
	}
	if panel.ButtonLabel == "" {
		panel.ButtonLabel = DefaultPanelButtonLabel
	}

	if err := s.repo.CreatePanel(ctx, panel); err != nil {
		return nil, fmt.Errorf("creating ticket panel: %w", err)
	}

	s.logger.Info("ticket panel created",
		slog.String("guildID", guildID),
		slog.String("panelID", panel.PanelID),
		slog.String("by", sess.DiscordID),
	)
	return panel, nil
}
