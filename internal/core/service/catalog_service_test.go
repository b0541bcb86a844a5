package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/inventory-system/internal/core/domain"
	"github.com/99minutos/inventory-system/internal/core/ports"
)

func TestCategoryService_DeleteGuard(t *testing.T) {
	cats := newStubCategoryRepo()
	store := newStubStore()
	svc := NewCategoryService(cats, stubItemRepo{store}, zerolog.Nop())
	ctx := context.Background()

	c, err := svc.Create(ctx, ports.CreateCategoryInput{Name: "  Dairy  "})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if c.Name != "Dairy" {
		t.Fatalf("expected trimmed name, got %q", c.Name)
	}

	itemID := store.seed(domain.Item{Name: "Milk", CategoryID: c.ID, Unit: "l"})

	if err := svc.Delete(ctx, c.ID); !errors.Is(err, domain.ErrCategoryInUse) {
		t.Fatalf("expected ErrCategoryInUse, got %v", err)
	}
	if _, ok := cats.cats[c.ID]; !ok {
		t.Fatalf("category removed despite referencing item")
	}

	delete(store.items, itemID)
	if err := svc.Delete(ctx, c.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if err := svc.Delete(ctx, c.ID); !errors.Is(err, domain.ErrCategoryNotFound) {
		t.Fatalf("expected ErrCategoryNotFound, got %v", err)
	}
}

func TestCategoryService_Validation(t *testing.T) {
	svc := NewCategoryService(newStubCategoryRepo(), stubItemRepo{newStubStore()}, zerolog.Nop())
	ctx := context.Background()

	_, err := svc.Create(ctx, ports.CreateCategoryInput{Name: " ", Description: strings.Repeat("x", 501)})
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(verr.Fields) != 2 {
		t.Fatalf("expected name and description errors, got %v", verr.Fields)
	}

	long := strings.Repeat("n", 201)
	if _, err := svc.Update(ctx, "c1", ports.CategoryUpdate{Name: &long}); !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError on update, got %v", err)
	}
}

func TestItemService_CreateRequiresCategory(t *testing.T) {
	cats := newStubCategoryRepo()
	svc := NewItemService(stubItemRepo{newStubStore()}, cats, zerolog.Nop())
	ctx := context.Background()

	_, err := svc.Create(ctx, ports.CreateItemInput{Name: "Milk", CategoryID: "nope", Unit: "l"})
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := verr.Fields["categoryId"]; !ok {
		t.Fatalf("expected categoryId error, got %v", verr.Fields)
	}

	c, _ := cats.Create(ctx, &domain.Category{Name: "Dairy"})
	it, err := svc.Create(ctx, ports.CreateItemInput{Name: "Milk", CategoryID: c.ID, Unit: "l", Quantity: 4, MinQuantity: 5})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if it.CreatedAt.IsZero() || !it.CreatedAt.Equal(it.UpdatedAt) {
		t.Errorf("expected timestamps set, got %v / %v", it.CreatedAt, it.UpdatedAt)
	}
}

func TestItemService_CreateRejectsNegatives(t *testing.T) {
	cats := newStubCategoryRepo()
	c, _ := cats.Create(context.Background(), &domain.Category{Name: "Dairy"})
	svc := NewItemService(stubItemRepo{newStubStore()}, cats, zerolog.Nop())

	_, err := svc.Create(context.Background(), ports.CreateItemInput{
		Name: "Milk", CategoryID: c.ID, Unit: "l", Quantity: -1, MinQuantity: -1, MaxQuantity: ptrFloat(-3),
	})
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	for _, f := range []string{"quantity", "minQuantity", "maxQuantity"} {
		if _, ok := verr.Fields[f]; !ok {
			t.Errorf("missing %s error in %v", f, verr.Fields)
		}
	}
}

func TestItemService_UpdateDirectQuantity(t *testing.T) {
	store := newStubStore()
	id := store.seed(domain.Item{Name: "Milk", Unit: "l", Quantity: 3})
	svc := NewItemService(stubItemRepo{store}, newStubCategoryRepo(), zerolog.Nop())

	updated, err := svc.Update(context.Background(), id, ports.ItemUpdate{Quantity: ptrFloat(9), Name: ptrString(" Whole milk ")})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if updated.Quantity != 9 || updated.Name != "Whole milk" {
		t.Fatalf("unexpected item after update: %+v", updated)
	}
	if len(store.movements) != 0 {
		t.Fatalf("direct edit must not write the ledger")
	}

	if _, err := svc.Update(context.Background(), "missing", ports.ItemUpdate{Quantity: ptrFloat(1)}); !errors.Is(err, domain.ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
}

func TestItemService_LowStockAndReorder(t *testing.T) {
	store := newStubStore()
	store.seed(domain.Item{Name: "Butter", Quantity: 2, MinQuantity: 5})
	store.seed(domain.Item{Name: "Cheese", Quantity: 5, MinQuantity: 5})
	store.seed(domain.Item{Name: "Yogurt", Quantity: 8, MinQuantity: 5})
	svc := NewItemService(stubItemRepo{store}, newStubCategoryRepo(), zerolog.Nop())
	ctx := context.Background()

	low, err := svc.List(ctx, ports.ItemFilter{LowStock: true})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(low) != 2 || low[0].Name != "Butter" || low[1].Name != "Cheese" {
		t.Fatalf("unexpected low-stock set: %v", names(low))
	}

	lines, err := svc.ReorderList(ctx, ports.ItemFilter{})
	if err != nil {
		t.Fatalf("ReorderList returned error: %v", err)
	}
	want := map[string]float64{"Butter": 4, "Cheese": 1}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d", len(want), len(lines))
	}
	for _, l := range lines {
		if l.Suggested != want[l.Item.Name] {
			t.Errorf("%s: suggested %v, want %v", l.Item.Name, l.Suggested, want[l.Item.Name])
		}
	}
}

func TestDashboardService_Summary(t *testing.T) {
	store := newStubStore()
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	day := 24 * time.Hour
	at := func(d time.Duration) *time.Time { v := now.Add(d); return &v }

	store.seed(domain.Item{Name: "A", Quantity: 1, MinQuantity: 2, ExpiryDate: at(6 * day)})
	store.seed(domain.Item{Name: "B", Quantity: 9, MinQuantity: 2, ExpiryDate: at(8 * day)})
	store.seed(domain.Item{Name: "C", Quantity: 2, MinQuantity: 2, ExpiryDate: at(-day)})
	for i, d := range []time.Duration{1, 2, 3, 4, 5} {
		store.seed(domain.Item{Name: "E" + string(rune('0'+i)), Quantity: 10, ExpiryDate: at(d * day)})
	}

	svc := &dashboardService{items: stubItemRepo{store}, now: func() time.Time { return now }}
	sum, err := svc.Summary(context.Background())
	if err != nil {
		t.Fatalf("Summary returned error: %v", err)
	}

	if sum.TotalItems != 8 {
		t.Errorf("TotalItems = %d, want 8", sum.TotalItems)
	}
	if sum.LowStockCount != 2 {
		t.Errorf("LowStockCount = %d, want 2", sum.LowStockCount)
	}
	if sum.ExpiringSoonCount != 6 {
		t.Errorf("ExpiringSoonCount = %d, want 6", sum.ExpiringSoonCount)
	}
	if len(sum.ExpiringSoon) != 5 {
		t.Fatalf("expected 5 listed, got %d", len(sum.ExpiringSoon))
	}
	if sum.ExpiringSoon[0].Name != "E0" {
		t.Errorf("expected soonest first, got %s", sum.ExpiringSoon[0].Name)
	}
}

func TestSeeder_Idempotent(t *testing.T) {
	users := newStubUserRepo()
	cats := newStubCategoryRepo()
	auth := newAuthSvc(users)
	seeder := NewSeeder(auth, users, cats, zerolog.Nop())
	ctx := context.Background()

	first, err := seeder.Seed(ctx)
	if err != nil {
		t.Fatalf("Seed returned error: %v", err)
	}
	if !first.AdminCreated || first.Categories != 5 {
		t.Fatalf("unexpected first result: %+v", first)
	}

	second, err := seeder.Seed(ctx)
	if err != nil {
		t.Fatalf("second Seed returned error: %v", err)
	}
	if second.AdminCreated {
		t.Fatalf("admin created twice")
	}
	if len(users.users) != 1 || len(cats.cats) != 5 {
		t.Fatalf("expected 1 user and 5 categories, got %d and %d", len(users.users), len(cats.cats))
	}

	_, u, err := auth.Login(ctx, SeedAdminEmail, SeedAdminPassword)
	if err != nil {
		t.Fatalf("seeded admin cannot log in: %v", err)
	}
	if !u.IsAdmin() {
		t.Fatalf("seeded account is not admin")
	}
}

func names(items []*domain.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Name
	}
	return out
}
