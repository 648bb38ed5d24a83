package model

import "time"

// UnlimitedStock marks a shop item that never runs out.
const UnlimitedStock int64 = -1

// ShopItem is an item members can buy with the guild's economy currency.
type ShopItem struct {
	ID          string    `json:"id"`
	GuildID     string    `json:"guildId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       int64     `json:"price"`
	RoleID      string    `json:"roleId,omitempty"` // role granted on purchase
	Stock       int64     `json:"stock"`
	Enabled     bool      `json:"enabled"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ShopItemPatch is a partial update. Nil fields are left untouched.
type ShopItemPatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Price       *int64  `json:"price,omitempty"`
	RoleID      *string `json:"roleId,omitempty"`
	Stock       *int64  `json:"stock,omitempty"`
	Enabled     *bool   `json:"enabled,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p ShopItemPatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.Price == nil &&
		p.RoleID == nil && p.Stock == nil && p.Enabled == nil
}

// Apply copies the non-nil fields of p onto item.
func (p ShopItemPatch) Apply(item *ShopItem) {
	if p.Name != nil {
		item.Name = *p.Name
	}
	if p.Description != nil {
		item.Description = *p.Description
	}
	if p.Price != nil {
		item.Price = *p.Price
	}
	if p.RoleID != nil {
		item.RoleID = *p.RoleID
	}
	if p.Stock != nil {
		item.Stock = *p.Stock
	}
	if p.Enabled != nil {
		item.Enabled = *p.Enabled
	}
}
