// Package export renders financial reports. Reports are rebuilt from live
// data on every request, including downloads of past exports; only the export
// metadata is persisted.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/nejcz/zaloga/internal/model"
)

// Report holds everything a finances CSV is rendered from.
type Report struct {
	Username  string
	Expenses  float64
	StartDate time.Time
	EndDate   time.Time
	SoldItems []model.SoldItem
	Inventory []model.Item
}

// Filename builds the attachment name for a finances export.
func Filename(username string, start, end time.Time) string {
	return fmt.Sprintf("finances_export_%s_%s_to_%s.csv",
		username, start.Format("20060102"), end.Format("20060102"))
}

// CSV renders the report: a header block, the sold items in range with a
// revenue/expenses/profit summary, and the current inventory with its
// valuation.
func CSV(r *Report) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	write := func(record ...string) {
		// Errors surface from w.Error after Flush.
		_ = w.Write(record)
	}

	write("EXPORTED FINANCES DATA")
	write("Export Date:", time.Now().Format("2006-01-02 15:04:05"))
	write("Date Range:", fmt.Sprintf("%s to %s",
		r.StartDate.Format("2006-01-02"), r.EndDate.Format("2006-01-02")))
	write("User:", r.Username)
	write()

	write("SOLD ITEMS")
	write("Sale Date", "Item Name", "Category", "Quantity Sold", "Sale Price", "Total Revenue")

	var totalRevenue float64
	for _, item := range r.SoldItems {
		itemRevenue := item.SalePrice * float64(item.QuantitySold)
		totalRevenue += itemRevenue
		write(
			item.SaleDate.Format("2006-01-02 15:04:05"),
			item.Name,
			item.Category,
			fmt.Sprintf("%d", item.QuantitySold),
			fmt.Sprintf("$%.2f", item.SalePrice),
			fmt.Sprintf("$%.2f", itemRevenue),
		)
	}

	write()
	write("Total Revenue:", fmt.Sprintf("$%.2f", totalRevenue))
	write("Total Expenses:", fmt.Sprintf("$%.2f", r.Expenses))
	write("Net Profit:", fmt.Sprintf("$%.2f", totalRevenue-r.Expenses))
	write()

	write("CURRENT INVENTORY")
	write("Item ID", "Name", "Category", "Quantity", "Price", "Total Value")

	var totalValue float64
	for _, item := range r.Inventory {
		itemValue := item.Price * float64(item.Quantity)
		totalValue += itemValue
		write(
			fmt.Sprintf("%d", item.Number),
			item.Name,
			item.Category,
			fmt.Sprintf("%d", item.Quantity),
			fmt.Sprintf("$%.2f", item.Price),
			fmt.Sprintf("$%.2f", itemValue),
		)
	}

	write()
	write("Total Inventory Value:", fmt.Sprintf("$%.2f", totalValue))

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("writing csv: %w", err)
	}
	return buf.Bytes(), nil
}
