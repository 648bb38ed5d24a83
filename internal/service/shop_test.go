package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sakif/guild-dashboard/internal/apperror"
	"github.com/sakif/guild-dashboard/internal/model"
)

func ptr[T any](v T) *T { return &v }

func TestShopCreate_Defaults(t *testing.T) {
	repo := newFakeShopRepo()
	svc := NewShopService(repo, testLogger())

	item, err := svc.Create(context.Background(), adminSession(testGuild), testGuild, NewShopItem{
		Name:  "  VIP Role  ",
		Price: 500,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if item.ID == "" || item.GuildID != testGuild {
		t.Errorf("item = %+v, want id and guild set", item)
	}
	if item.Name != "VIP Role" {
		t.Errorf("Name = %q, want trimmed", item.Name)
	}
	if item.Stock != model.UnlimitedStock || !item.Enabled {
		t.Errorf("Stock=%d Enabled=%v, want unlimited and enabled", item.Stock, item.Enabled)
	}
}

func TestShopCreate_Validation(t *testing.T) {
	tests := []struct {
		name  string
		in    NewShopItem
		field string
	}{
		{name: "missing name", in: NewShopItem{Price: 1}, field: "name"},
		{name: "blank name", in: NewShopItem{Name: "   ", Price: 1}, field: "name"},
		{name: "long name", in: NewShopItem{Name: strings.Repeat("a", MaxItemNameLength+1)}, field: "name"},
		{name: "negative price", in: NewShopItem{Name: "x", Price: -1}, field: "price"},
		{name: "bad stock", in: NewShopItem{Name: "x", Stock: ptr(int64(-2))}, field: "stock"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeShopRepo()
			svc := NewShopService(repo, testLogger())

			_, err := svc.Create(context.Background(), adminSession(testGuild), testGuild, tt.in)

			var appErr *apperror.AppError
			if !errors.As(err, &appErr) || appErr.Field != tt.field {
				t.Fatalf("err = %v, want validation error on %q", err, tt.field)
			}
			if repo.writes != 0 {
				t.Errorf("store received %d writes, want 0", repo.writes)
			}
		})
	}
}

func TestShopMutations_RequireAdmin(t *testing.T) {
	repo := newFakeShopRepo()
	svc := NewShopService(repo, testLogger())
	member := memberSession(testGuild, 0)

	if _, err := svc.Create(context.Background(), member, testGuild, NewShopItem{Name: "x"}); !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("Create: err = %v, want ErrForbidden", err)
	}
	if _, err := svc.Update(context.Background(), nil, testGuild, "item-1", model.ShopItemPatch{Price: ptr(int64(1))}); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("Update: err = %v, want ErrUnauthorized", err)
	}
	if err := svc.Delete(context.Background(), member, testGuild, "item-1"); !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("Delete: err = %v, want ErrForbidden", err)
	}
	if repo.writes != 0 {
		t.Errorf("store received %d writes, want 0", repo.writes)
	}
}

func TestShopUpdate(t *testing.T) {
	repo := newFakeShopRepo()
	svc := NewShopService(repo, testLogger())
	admin := adminSession(testGuild)

	item, err := svc.Create(context.Background(), admin, testGuild, NewShopItem{Name: "Badge", Price: 10})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := svc.Update(context.Background(), admin, testGuild, item.ID, model.ShopItemPatch{
		Price:   ptr(int64(25)),
		Enabled: ptr(false),
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got.Price != 25 || got.Enabled || got.Name != "Badge" {
		t.Errorf("Update() = %+v, want price 25, disabled, name kept", got)
	}

	if _, err := svc.Update(context.Background(), admin, testGuild, item.ID, model.ShopItemPatch{}); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("empty patch: err = %v, want ErrValidation", err)
	}
	if _, err := svc.Update(context.Background(), admin, testGuild, item.ID, model.ShopItemPatch{Name: ptr(" ")}); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("blank name: err = %v, want ErrValidation", err)
	}
	if _, err := svc.Update(context.Background(), admin, testGuild, "missing", model.ShopItemPatch{Price: ptr(int64(1))}); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("missing item: err = %v, want ErrNotFound", err)
	}
}

func TestShopDelete(t *testing.T) {
	repo := newFakeShopRepo()
	svc := NewShopService(repo, testLogger())
	admin := adminSession(testGuild)

	item, err := svc.Create(context.Background(), admin, testGuild, NewShopItem{Name: "Badge"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := svc.Delete(context.Background(), admin, testGuild, item.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := svc.Delete(context.Background(), admin, testGuild, item.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("second Delete(): err = %v, want ErrNotFound", err)
	}

	items, err := svc.List(context.Background(), testGuild)
	if err != nil || len(items) != 0 {
		t.Errorf("List() = %v, %v; want empty", items, err)
	}
}

func TestShopDelete_OtherGuildsItemIsNotFound(t *testing.T) {
	repo := newFakeShopRepo()
	svc := NewShopService(repo, testLogger())

	item, err := svc.Create(context.Background(), adminSession("7"), "7", NewShopItem{Name: "Badge"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Admin of guild 42 guessing an item id of guild 7.
	if err := svc.Delete(context.Background(), adminSession(testGuild), testGuild, item.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if _, ok := repo.items[item.ID]; !ok {
		t.Error("item of the other guild must survive")
	}
}
