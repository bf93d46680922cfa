package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/nejcz/zaloga/internal/model"
)

const soldColumns = `id, user_id, original_item_number, name, quantity, price,
	description, category, added_date, quantity_sold, sale_price, sale_date`

func scanSoldItem(row interface{ Scan(...any) error }) (*model.SoldItem, error) {
	s := &model.SoldItem{}
	var original sql.NullInt64
	var description, category sql.NullString
	var added sql.NullTime
	err := row.Scan(&s.ID, &s.UserID, &original, &s.Name, &s.Quantity, &s.Price,
		&description, &category, &added, &s.QuantitySold, &s.SalePrice, &s.SaleDate)
	if err != nil {
		return nil, err
	}
	s.OriginalNumber = original.Int64
	s.Description = description.String
	s.Category = category.String
	if added.Valid {
		t := added.Time
		s.AddedDate = &t
	}
	return s, nil
}

func collectSoldItems(rows *sql.Rows) ([]model.SoldItem, error) {
	defer rows.Close()

	var items []model.SoldItem
	for rows.Next() {
		s, err := scanSoldItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning sold item: %w", err)
		}
		items = append(items, *s)
	}
	return items, rows.Err()
}

// ListSoldItems returns all of an owner's sales, oldest first.
func ListSoldItems(ctx context.Context, db *sql.DB, userID int64) ([]model.SoldItem, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+soldColumns+` FROM sold_items WHERE user_id = ? ORDER BY sale_date, id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing sold items: %w", err)
	}
	return collectSoldItems(rows)
}

// ListSoldItemsInRange returns an owner's sales with sale_date in
// [start, end), oldest first.
func ListSoldItemsInRange(ctx context.Context, db *sql.DB, userID int64, start, end time.Time) ([]model.SoldItem, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+soldColumns+` FROM sold_items
		 WHERE user_id = ? AND sale_date >= ? AND sale_date < ?
		 ORDER BY sale_date, id`,
		userID, start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("listing sold items in range: %w", err)
	}
	return collectSoldItems(rows)
}

// RecentSoldItems returns an owner's most recent sales.
func RecentSoldItems(ctx context.Context, db *sql.DB, userID int64, limit int) ([]model.SoldItem, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+soldColumns+` FROM sold_items WHERE user_id = ? ORDER BY sale_date DESC, id DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing recent sold items: %w", err)
	}
	return collectSoldItems(rows)
}
