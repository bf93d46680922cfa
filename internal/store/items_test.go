package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nejcz/zaloga/internal/db"
)

func TestCreateItemAssignsSequentialNumbers(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, err := CreateUser(ctx, database, "alice", "alice@example.com", "hash", "")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	first, err := CreateItem(ctx, database, user.ID, "Laptop", 3, 999.99, "Dell XPS 15", "electronics")
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	if first.Number != 1 {
		t.Errorf("expected first item number 1, got %d", first.Number)
	}
	if first.Name != "Laptop" {
		t.Errorf("expected name 'Laptop', got %q", first.Name)
	}

	second, err := CreateItem(ctx, database, user.ID, "Mouse", 10, 19.99, "", "")
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	if second.Number != 2 {
		t.Errorf("expected second item number 2, got %d", second.Number)
	}
}

func TestItemNumbersAreScopedPerOwner(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	alice, _ := CreateUser(ctx, database, "alice", "alice@example.com", "hash", "")
	bob, _ := CreateUser(ctx, database, "bob", "bob@example.com", "hash", "")

	CreateItem(ctx, database, alice.ID, "Laptop", 1, 100, "", "")
	CreateItem(ctx, database, alice.ID, "Mouse", 1, 10, "", "")
	item, err := CreateItem(ctx, database, bob.ID, "Keyboard", 1, 50, "", "")
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	if item.Number != 1 {
		t.Errorf("expected bob's first item to be number 1, got %d", item.Number)
	}

	got, err := GetItem(ctx, database, bob.ID, 2)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if got != nil {
		t.Error("expected bob to have no item number 2")
	}
}

func TestSellItemDecrementsStock(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, database, "alice", "alice@example.com", "hash", "")
	item, _ := CreateItem(ctx, database, user.ID, "Laptop", 5, 100, "", "electronics")

	saleDate := time.Date(2026, 3, 15, 12, 0, 0, 0, time.Local)
	sold, err := SellItem(ctx, database, user.ID, item.Number, 2, 120, saleDate)
	if err != nil {
		t.Fatalf("SellItem: %v", err)
	}
	if sold.QuantitySold != 2 {
		t.Errorf("expected quantity sold 2, got %d", sold.QuantitySold)
	}
	// The snapshot records the stock level before the sale.
	if sold.Quantity != 5 {
		t.Errorf("expected snapshot quantity 5, got %d", sold.Quantity)
	}
	if sold.SalePrice != 120 {
		t.Errorf("expected sale price 120, got %v", sold.SalePrice)
	}

	remaining, _ := GetItem(ctx, database, user.ID, item.Number)
	if remaining == nil {
		t.Fatal("expected item to remain in inventory")
	}
	if remaining.Quantity != 3 {
		t.Errorf("expected remaining quantity 3, got %d", remaining.Quantity)
	}
}

func TestSellItemFullQuantityDeletesItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, database, "alice", "alice@example.com", "hash", "")
	item, _ := CreateItem(ctx, database, user.ID, "Laptop", 2, 100, "", "")

	_, err := SellItem(ctx, database, user.ID, item.Number, 2, 120, time.Now())
	if err != nil {
		t.Fatalf("SellItem: %v", err)
	}

	got, _ := GetItem(ctx, database, user.ID, item.Number)
	if got != nil {
		t.Error("expected sold-out item to be removed from inventory")
	}

	sales, _ := ListSoldItems(ctx, database, user.ID)
	if len(sales) != 1 {
		t.Errorf("expected 1 sold item record, got %d", len(sales))
	}
}

func TestSellItemInsufficientStock(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, database, "alice", "alice@example.com", "hash", "")
	item, _ := CreateItem(ctx, database, user.ID, "Laptop", 2, 100, "", "")

	_, err := SellItem(ctx, database, user.ID, item.Number, 3, 120, time.Now())
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	// The failed sale must leave no trace.
	got, _ := GetItem(ctx, database, user.ID, item.Number)
	if got == nil || got.Quantity != 2 {
		t.Error("expected inventory unchanged after rejected sale")
	}
	sales, _ := ListSoldItems(ctx, database, user.ID)
	if len(sales) != 0 {
		t.Errorf("expected no sold item records, got %d", len(sales))
	}
}

func TestSellItemRejectsNonPositiveQuantity(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, database, "alice", "alice@example.com", "hash", "")
	item, _ := CreateItem(ctx, database, user.ID, "Laptop", 5, 100, "", "")

	for _, qty := range []int{0, -3} {
		if _, err := SellItem(ctx, database, user.ID, item.Number, qty, 120, time.Now()); err == nil {
			t.Errorf("expected error selling quantity %d", qty)
		}
	}

	// A negative sale must not inflate stock, and no ledger rows may appear.
	got, _ := GetItem(ctx, database, user.ID, item.Number)
	if got == nil || got.Quantity != 5 {
		t.Error("expected inventory unchanged after rejected sales")
	}
	sales, _ := ListSoldItems(ctx, database, user.ID)
	if len(sales) != 0 {
		t.Errorf("expected no sold item records, got %d", len(sales))
	}
}

func TestSellMissingItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, database, "alice", "alice@example.com", "hash", "")

	sold, err := SellItem(ctx, database, user.ID, 42, 1, 10, time.Now())
	if err != nil {
		t.Fatalf("SellItem: %v", err)
	}
	if sold != nil {
		t.Error("expected nil sold item for a missing inventory item")
	}
}

func TestUpdateItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, database, "alice", "alice@example.com", "hash", "")
	item, _ := CreateItem(ctx, database, user.ID, "Laptop", 5, 100, "", "")

	item.Name = "Gaming Laptop"
	item.Quantity = 7
	item.Price = 150
	if err := UpdateItem(ctx, database, item); err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}

	got, _ := GetItem(ctx, database, user.ID, item.Number)
	if got.Name != "Gaming Laptop" || got.Quantity != 7 || got.Price != 150 {
		t.Errorf("unexpected item after update: %+v", got)
	}
}

func TestRenumberItemsClosesGaps(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, database, "alice", "alice@example.com", "hash", "")
	for _, name := range []string{"A", "B", "C", "D"} {
		if _, err := CreateItem(ctx, database, user.ID, name, 1, 10, "", ""); err != nil {
			t.Fatalf("CreateItem %s: %v", name, err)
		}
	}

	// Remove B and D to leave gaps at 2 and 4.
	DeleteItem(ctx, database, user.ID, 2)
	DeleteItem(ctx, database, user.ID, 4)

	if err := RenumberItems(ctx, database, user.ID); err != nil {
		t.Fatalf("RenumberItems: %v", err)
	}

	items, err := ListItems(ctx, database, user.ID)
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	// Relative order is preserved: A then C, renumbered 1 and 2.
	if items[0].Number != 1 || items[0].Name != "A" {
		t.Errorf("expected item 1 to be A, got %d/%q", items[0].Number, items[0].Name)
	}
	if items[1].Number != 2 || items[1].Name != "C" {
		t.Errorf("expected item 2 to be C, got %d/%q", items[1].Number, items[1].Name)
	}
}

func TestCreateItemAfterRenumberContinuesSequence(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, database, "alice", "alice@example.com", "hash", "")
	CreateItem(ctx, database, user.ID, "A", 1, 10, "", "")
	CreateItem(ctx, database, user.ID, "B", 1, 10, "", "")
	DeleteItem(ctx, database, user.ID, 1)
	RenumberItems(ctx, database, user.ID)

	item, err := CreateItem(ctx, database, user.ID, "C", 1, 10, "", "")
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	if item.Number != 2 {
		t.Errorf("expected new item number 2, got %d", item.Number)
	}
}
