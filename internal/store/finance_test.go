package store

import (
	"context"
	"testing"
	"time"

	"github.com/nejcz/zaloga/internal/db"
)

func TestRevenueAggregation(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, database, "alice", "alice@example.com", "hash", "")
	CreateItem(ctx, database, user.ID, "Laptop", 10, 100, "", "")
	CreateItem(ctx, database, user.ID, "Mouse", 20, 10, "", "")

	SellItem(ctx, database, user.ID, 1, 2, 120, time.Now())
	SellItem(ctx, database, user.ID, 2, 5, 12, time.Now())

	total, err := TotalRevenue(ctx, database, user.ID)
	if err != nil {
		t.Fatalf("TotalRevenue: %v", err)
	}
	if total != 2*120+5*12 {
		t.Errorf("expected total revenue 300, got %v", total)
	}

	// 8 laptops at 100 plus 15 mice at 10 remain.
	potential, err := PotentialRevenue(ctx, database, user.ID)
	if err != nil {
		t.Fatalf("PotentialRevenue: %v", err)
	}
	if potential != 8*100+15*10 {
		t.Errorf("expected potential revenue 950, got %v", potential)
	}
}

func TestRevenueEmptyLedger(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, database, "alice", "alice@example.com", "hash", "")

	total, err := TotalRevenue(ctx, database, user.ID)
	if err != nil {
		t.Fatalf("TotalRevenue: %v", err)
	}
	if total != 0 {
		t.Errorf("expected zero revenue, got %v", total)
	}
}

func TestDailySalesSeries(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, database, "alice", "alice@example.com", "hash", "")
	CreateItem(ctx, database, user.ID, "Laptop", 20, 100, "", "")

	now := time.Now()
	SellItem(ctx, database, user.ID, 1, 1, 100, now)
	SellItem(ctx, database, user.ID, 1, 2, 90, now)
	SellItem(ctx, database, user.ID, 1, 1, 80, now.AddDate(0, 0, -2))
	// Outside the window, must not appear.
	SellItem(ctx, database, user.ID, 1, 5, 70, now.AddDate(0, 0, -30))

	series, err := DailySalesSeries(ctx, database, user.ID, 7)
	if err != nil {
		t.Fatalf("DailySalesSeries: %v", err)
	}
	if len(series) != 7 {
		t.Fatalf("expected 7 buckets, got %d", len(series))
	}

	today := series[6]
	if today.Date != now.Format("2006-01-02") {
		t.Errorf("expected last bucket to be today, got %s", today.Date)
	}
	if today.ItemsSold != 3 || today.Revenue != 100+2*90 {
		t.Errorf("unexpected today bucket: %+v", today)
	}

	twoDaysAgo := series[4]
	if twoDaysAgo.ItemsSold != 1 || twoDaysAgo.Revenue != 80 {
		t.Errorf("unexpected bucket two days ago: %+v", twoDaysAgo)
	}

	var totalItems int
	for _, bucket := range series {
		totalItems += bucket.ItemsSold
	}
	if totalItems != 4 {
		t.Errorf("expected 4 items across the window, got %d", totalItems)
	}
}

func TestSoldItemsInRange(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, database, "alice", "alice@example.com", "hash", "")
	CreateItem(ctx, database, user.ID, "Laptop", 20, 100, "", "")

	jan := time.Date(2026, 1, 15, 10, 0, 0, 0, time.Local)
	feb := time.Date(2026, 2, 15, 10, 0, 0, 0, time.Local)
	mar := time.Date(2026, 3, 1, 0, 0, 0, 0, time.Local)
	SellItem(ctx, database, user.ID, 1, 1, 100, jan)
	SellItem(ctx, database, user.ID, 1, 1, 100, feb)
	SellItem(ctx, database, user.ID, 1, 1, 100, mar)

	// End bound is exclusive: the March 1 sale falls outside.
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.Local)
	sales, err := ListSoldItemsInRange(ctx, database, user.ID, start, mar)
	if err != nil {
		t.Fatalf("ListSoldItemsInRange: %v", err)
	}
	if len(sales) != 2 {
		t.Errorf("expected 2 sales in range, got %d", len(sales))
	}
}
