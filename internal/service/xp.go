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

// ResetXPRequest is the body of an XP reset. Exactly one mode applies:
// ResetAll wins when both are set.
type ResetXPRequest struct {
	UserID   string `json:"userId"`
	ResetAll bool   `json:"resetAll"`
}

// ResetResult is returned to the dashboard after a reset.
type ResetResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Deleted int64  `json:"deleted"`
}

type XPService struct {
	repo   repository.XPRepository
	logger *slog.Logger
}

func NewXPService(repo repository.XPRepository, logger *slog.Logger) *XPService {
	return &XPService{repo: repo, logger: logger}
}

// Reset deletes XP rows of guildID: every row with ResetAll, otherwise the
// single member named by UserID. A request naming neither is rejected and
// deletes nothing.
func (s *XPService) Reset(ctx context.Context, sess *model.Session, guildID string, req ResetXPRequest) (*ResetResult, error) {
	if err := AuthorizeGuild(guildID, sess); err != nil {
		return nil, err
	}

	userID := strings.TrimSpace(req.UserID)
	if !req.ResetAll && userID == "" {
		return nil, apperror.ValidationFailed("userId", "userId or resetAll is required")
	}

	if req.ResetAll {
		n, err := s.repo.ResetGuild(ctx, guildID)
		if err != nil {
			return nil, fmt.Errorf("resetting xp for guild %s: %w", guildID, err)
		}
		s.logger.Info("xp reset",
			slog.String("guildID", guildID),
			slog.String("scope", "all"),
			slog.Int64("deleted", n),
			slog.String("by", sess.DiscordID),
		)
		return &ResetResult{Success: true, Message: "All XP reset successfully", Deleted: n}, nil
	}

	n, err := s.repo.ResetUser(ctx, guildID, userID)
	if err != nil {
		return nil, fmt.Errorf("resetting xp for user %s: %w", userID, err)
	}
	s.logger.Info("xp reset",
		slog.String("guildID", guildID),
		slog.String("userID", userID),
		slog.Int64("deleted", n),
		slog.String("by", sess.DiscordID),
	)
	return &ResetResult{Success: true, Message: "XP reset for user " + userID, Deleted: n}, nil
}
