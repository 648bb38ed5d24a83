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
	MaxItemNameLength        = 100
	MaxItemDescriptionLength = 500
)

// NewShopItem is the body of a create request. Nil Stock means unlimited,
// nil Enabled means enabled.
type NewShopItem struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
	RoleID      string `json:"roleId"`
	Stock       *int64 `json:"stock"`
	Enabled     *bool  `json:"enabled"`
}

// ShopService manages a guild's economy shop.
type ShopService struct {
	repo   repository.ShopRepository
	logger *slog.Logger
}

func NewShopService(repo repository.ShopRepository, logger *slog.Logger) *ShopService {
	return &ShopService{repo: repo, logger: logger}
}

// List returns the guild's items. Listing needs a session but not admin rights.
func (s *ShopService) List(ctx context.Context, guildID string) ([]model.ShopItem, error) {
	items, err := s.repo.ListItems(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("listing shop items: %w", err)
	}
	return items, nil
}

// Create validates in and stores it as a new item of guildID.
func (s *ShopService) Create(ctx context.Context, sess *model.Session, guildID string, in NewShopItem) (*model.ShopItem, error) {
	if err := AuthorizeGuild(guildID, sess); err != nil {
		return nil, err
	}

	item := &model.ShopItem{
		GuildID:     guildID,
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Price:       in.Price,
		RoleID:      strings.TrimSpace(in.RoleID),
		Stock:       model.UnlimitedStock,
		Enabled:     true,
	}
	if in.Stock != nil {
		item.Stock = *in.Stock
	}
	if in.Enabled != nil {
		item.Enabled = *in.Enabled
	}
	if err := validateShopItem(item); err != nil {
		return nil, err
	}

	if err := s.repo.CreateItem(ctx, item); err != nil {
		s.logger.Error("failed to create shop item",
			slog.String("guildID", guildID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating shop item: %w", err)
	}

	s.logger.Info("shop item created",
		slog.String("guildID", guildID),
		slog.String("itemID", item.ID),
		slog.String("by", sess.DiscordID),
	)
	return item, nil
}

// Update applies patch to item id of guildID. An item that does not exist
// in this guild is NotFound.
func (s *ShopService) Update(ctx context.Context, sess *model.Session, guildID, id string, patch model.ShopItemPatch) (*model.ShopItem, error) {
	if err := AuthorizeGuild(guildID, sess); err != nil {
		return nil, err
	}
	if patch.Empty() {
		return nil, apperror.ValidationFailed("body", "at least one field is required")
	}

	// Validate the patched result against the same rules as create, on a
	// scratch copy with placeholders for the fields the patch leaves alone.
	candidate := model.ShopItem{Name: "x", Stock: model.UnlimitedStock}
	if patch.Name != nil {
		trimmed := strings.TrimSpace(*patch.Name)
		patch.Name = &trimmed
	}
	patch.Apply(&candidate)
	if err := validateShopItem(&candidate); err != nil {
		return nil, err
	}

	item, err := s.repo.UpdateItem(ctx, guildID, id, patch)
	if err != nil {
		return nil, fmt.Errorf("updating shop item %s: %w", id, err)
	}

	s.logger.Info("shop item updated",
		slog.String("guildID", guildID),
		slog.String("itemID", id),
		slog.String("by", sess.DiscordID),
	)
	return item, nil
}

// Delete removes item id from guildID.
func (s *ShopService) Delete(ctx context.Context, sess *model.Session, guildID, id string) error {
	if err := AuthorizeGuild(guildID, sess); err != nil {
		return err
	}
	if err := s.repo.DeleteItem(ctx, guildID, id); err != nil {
		return fmt.Errorf("deleting shop item %s: %w", id, err)
	}

	s.logger.Info("shop item deleted",
		slog.String("guildID", guildID),
		slog.String("itemID", id),
		slog.String("by", sess.DiscordID),
	)
	return nil
}

func validateShopItem(item *model.ShopItem) error {
	if item.Name == "" {
		return apperror.ValidationFailed("name", "item name is required")
	}
	if len(item.Name) > MaxItemNameLength {
		return apperror.ValidationFailed("name",
			fmt.Sprintf("item name must be %d characters or less", MaxItemNameLength))
	}
	if len(item.Description) > MaxItemDescriptionLength {
		return apperror.ValidationFailed("description",
			fmt.Sprintf("description must be %d characters or less", MaxItemDescriptionLength))
	}
	if item.Price < 0 {
		return apperror.ValidationFailed("price", "price must not be negative")
	}
	if item.Stock < model.UnlimitedStock {
		return apperror.ValidationFailed("stock", "stock must be -1 (unlimited) or more")
	}
	return nil
}
