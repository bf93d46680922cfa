package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// DailySales is one calendar-day bucket of an owner's sales.
type DailySales struct {
	Date      string  `json:"date"`
	Revenue   float64 `json:"revenue"`
	ItemsSold int     `json:"items_sold"`
}

// TotalRevenue returns the sum of sale_price x quantity_sold over all of an
// owner's sales.
func TotalRevenue(ctx context.Context, db *sql.DB, userID int64) (float64, error) {
	var total sql.NullFloat64
	err := db.QueryRowContext(ctx,
		`SELECT SUM(sale_price * quantity_sold) FROM sold_items WHERE user_id = ?`,
		userID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("computing total revenue: %w", err)
	}
	return total.Float64, nil
}

// PotentialRevenue returns the sum of price x quantity over an owner's
// current inventory.
func PotentialRevenue(ctx context.Context, db *sql.DB, userID int64) (float64, error) {
	var total sql.NullFloat64
	err := db.QueryRowContext(ctx,
		`SELECT SUM(price * quantity) FROM inventory WHERE user_id = ?`,
		userID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("computing potential revenue: %w", err)
	}
	return total.Float64, nil
}

// DailySalesSeries returns one bucket per calendar day for the N days ending
// today, oldest first and zero-filled. Bucketing happens in Go so it does not
// depend on the driver's timestamp text format.
func DailySalesSeries(ctx context.Context, db *sql.DB, userID int64, days int) ([]DailySales, error) {
	today := time.Now()
	start := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location()).
		AddDate(0, 0, -(days - 1))

	rows, err := db.QueryContext(ctx,
		`SELECT sale_price, quantity_sold, sale_date FROM sold_items
		 WHERE user_id = ? AND sale_date >= ?`,
		userID, start,
	)
	if err != nil {
		return nil, fmt.Errorf("querying daily sales: %w", err)
	}
	defer rows.Close()

	buckets := make(map[string]*DailySales, days)
	series := make([]DailySales, 0, days)
	for i := range days {
		day := start.AddDate(0, 0, i).Format("2006-01-02")
		series = append(series, DailySales{Date: day})
		buckets[day] = &series[i]
	}

	for rows.Next() {
		var price float64
		var sold int
		var saleDate time.Time
		if err := rows.Scan(&price, &sold, &saleDate); err != nil {
			return nil, fmt.Errorf("scanning daily sale: %w", err)
		}
		day := saleDate.In(today.Location()).Format("2006-01-02")
		if b, ok := buckets[day]; ok {
			b.Revenue += price * float64(sold)
			b.ItemsSold += sold
		}
	}
	return series, rows.Err()
}
