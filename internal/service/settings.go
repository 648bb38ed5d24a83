package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/sakif/guild-dashboard/internal/apperror"
	"github.com/sakif/guild-dashboard/internal/model"
	"github.com/sakif/guild-dashboard/internal/repository"
)

// fieldCheck validates one settings value. It returns "" when v is acceptable,
// otherwise a short description of what was expected.
type fieldCheck func(v any) string

// Allowed keys per settings document. A key outside these maps is rejected,
// so a typo in the dashboard cannot silently create a setting the bot ignores.
var settingsFields = map[model.SettingsKind]map[string]fieldCheck{
	model.SettingsEconomy: {
		"currencyName":    checkString(32),
		"currencySymbol":  checkString(16),
		"dailyReward":     checkCount,
		"weeklyReward":    checkCount,
		"workMin":         checkCount,
		"workMax":         checkCount,
		"workCooldown":    checkCount,
		"startingBalance": checkCount,
		"maxBalance":      checkCount,
		"enabled":         checkBool,
	},
	model.SettingsXP: {
		"xpPerMessage":     checkCount,
		"xpMultiplier":     checkPositive,
		"cooldownSeconds":  checkCount,
		"levelUpMessage":   checkString(500),
		"levelUpChannelId": checkString(32),
		"noXpRoles":        checkStringList,
		"noXpChannels":     checkStringList,
		"roleRewards":      checkList,
		"stackRewards":     checkBool,
		"enabled":          checkBool,
	},
}

// SettingsService applies partial updates to the economy and XP settings documents.
type SettingsService struct {
	repo   repository.SettingsRepository
	logger *slog.Logger
}

func NewSettingsService(repo repository.SettingsRepository, logger *slog.Logger) *SettingsService {
	return &SettingsService{repo: repo, logger: logger}
}

// Update merges patch into guildID's document of the given kind.
//
// The caller must be a guild admin. Every key must be allow-listed for kind and
// its value must pass the key's check; a null value removes the key.
// The first update for a guild creates the document.
func (s *SettingsService) Update(ctx context.Context, sess *model.Session, kind model.SettingsKind, guildID string, patch map[string]any) (*model.GuildSettings, error) {
	if err := AuthorizeGuild(guildID, sess); err != nil {
		return nil, err
	}
	if err := validateSettingsPatch(kind, patch); err != nil {
		return nil, err
	}

	settings, err := s.repo.UpsertSettings(ctx, kind, guildID, patch)
	if err != nil {
		s.logger.Error("failed to update settings",
			slog.String("kind", string(kind)),
			slog.String("guildID", guildID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating %s settings: %w", kind, err)
	}

	s.logger.Info("settings updated",
		slog.String("kind", string(kind)),
		slog.String("guildID", guildID),
		slog.String("by", sess.DiscordID),
		slog.Int("keys", len(patch)),
	)
	return settings, nil
}

// Get returns the stored settings document, or NotFound if the guild never
// saved one.
func (s *SettingsService) Get(ctx context.Context, kind model.SettingsKind, guildID string) (*model.GuildSettings, error) {
	settings, err := s.repo.GetSettings(ctx, kind, guildID)
	if err != nil {
		return nil, fmt.Errorf("getting %s settings: %w", kind, err)
	}
	return settings, nil
}

func validateSettingsPatch(kind model.SettingsKind, patch map[string]any) error {
	fields, ok := settingsFields[kind]
	if !ok {
		return apperror.ValidationFailed("kind", fmt.Sprintf("unknown settings kind %q", kind))
	}
	if len(patch) == 0 {
		return apperror.ValidationFailed("settings", "at least one setting is required")
	}

	// Sorted so the reported key is deterministic.
	keys := make([]string, 0, len(patch))
	for k := range patch {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		check, ok := fields[key]
		if !ok {
			return apperror.ValidationFailed(key, fmt.Sprintf("unknown %s setting %q", kind, key))
		}
		v := patch[key]
		if v == nil {
			continue
		}
		if msg := check(v); msg != "" {
			return apperror.ValidationFailed(key, fmt.Sprintf("%s must be %s", key, msg))
		}
	}
	return nil
}

// Values arrive from encoding/json, so numbers are float64 and lists are []any.

func checkString(max int) fieldCheck {
	return func(v any) string {
		s, ok := v.(string)
		if !ok || len(s) > max {
			return fmt.Sprintf("a string of at most %d characters", max)
		}
		return ""
	}
}

func checkCount(v any) string {
	n, ok := v.(float64)
	if !ok || n < 0 || n != math.Trunc(n) {
		return "a non-negative whole number"
	}
	return ""
}

func checkPositive(v any) string {
	n, ok := v.(float64)
	if !ok || n <= 0 || math.IsInf(n, 0) {
		return "a positive number"
	}
	return ""
}

func checkBool(v any) string {
	if _, ok := v.(bool); !ok {
		return "true or false"
	}
	return ""
}

func checkList(v any) string {
	if _, ok := v.([]any); !ok {
		return "a list"
	}
	return ""
}

func checkStringList(v any) string {
	list, ok := v.([]any)
	if !ok {
		return "a list of ids"
	}
	for _, item := range list {
		s, ok := item.(string)
		if !ok || strings.TrimSpace(s) == "" {
			return "a list of ids"
		}
	}
	return ""
}
