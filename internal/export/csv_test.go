package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/nejcz/zaloga/internal/model"
)

func TestFilename(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	got := Filename("alice", start, end)
	want := "finances_export_alice_20260101_to_20260201.csv"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestCSVSectionsAndTotals(t *testing.T) {
	saleDate := time.Date(2026, 1, 15, 14, 30, 0, 0, time.UTC)
	report := &Report{
		Username:  "alice",
		Expenses:  50,
		StartDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		SoldItems: []model.SoldItem{
			{Name: "Laptop", Category: "electronics", QuantitySold: 2, SalePrice: 120, SaleDate: saleDate},
			{Name: "Mouse", QuantitySold: 5, SalePrice: 12, SaleDate: saleDate},
		},
		Inventory: []model.Item{
			{Number: 1, Name: "Laptop", Category: "electronics", Quantity: 8, Price: 100},
		},
	}

	data, err := CSV(report)
	if err != nil {
		t.Fatalf("CSV: %v", err)
	}
	text := string(data)

	for _, want := range []string{
		"EXPORTED FINANCES DATA",
		"SOLD ITEMS",
		"CURRENT INVENTORY",
		"Date Range:,2026-01-01 to 2026-02-01",
		"User:,alice",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("expected output to contain %q", want)
		}
	}

	// 2x120 + 5x12 = 300 revenue, 250 profit after 50 expenses.
	if !strings.Contains(text, "Total Revenue:,$300.00") {
		t.Error("expected total revenue line")
	}
	if !strings.Contains(text, "Total Expenses:,$50.00") {
		t.Error("expected total expenses line")
	}
	if !strings.Contains(text, "Net Profit:,$250.00") {
		t.Error("expected net profit line")
	}
	if !strings.Contains(text, "Total Inventory Value:,$800.00") {
		t.Error("expected inventory valuation line")
	}

	// The output must stay machine-readable.
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	if _, err := reader.ReadAll(); err != nil {
		t.Fatalf("output is not parseable csv: %v", err)
	}
}

func TestCSVEmptyReport(t *testing.T) {
	report := &Report{
		Username:  "alice",
		StartDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}

	data, err := CSV(report)
	if err != nil {
		t.Fatalf("CSV: %v", err)
	}
	if !strings.Contains(string(data), "Total Revenue:,$0.00") {
		t.Error("expected zero revenue line for an empty report")
	}
}
