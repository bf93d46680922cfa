package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nejcz/zaloga/internal/model"
)

// ErrInsufficientStock is returned when a sale asks for more units than the
// item currently holds. The rejection leaves no state change behind.
var ErrInsufficientStock = errors.New("insufficient quantity in inventory")

const itemColumns = `id, user_id, item_number, name, quantity, price, description, category, added_date`

func scanItem(row interface{ Scan(...any) error }) (*model.Item, error) {
	item := &model.Item{}
	var description, category sql.NullString
	err := row.Scan(&item.ID, &item.UserID, &item.Number, &item.Name, &item.Quantity,
		&item.Price, &description, &category, &item.AddedDate)
	if err != nil {
		return nil, err
	}
	item.Description = description.String
	item.Category = category.String
	return item, nil
}

// CreateItem creates an item with the owner's next sequential number
// (max existing + 1, or 1 for an empty catalog). The read-then-insert pair is
// racy under concurrent creates for one owner; the UNIQUE(user_id,
// item_number) constraint makes the losing insert fail so it can be retried.
func CreateItem(ctx context.Context, db *sql.DB, userID int64, name string, quantity int, price float64, description, category string) (*model.Item, error) {
	var next int64
	err := db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(item_number), 0) + 1 FROM inventory WHERE user_id = ?`,
		userID,
	).Scan(&next)
	if err != nil {
		return nil, fmt.Errorf("computing next item number: %w", err)
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO inventory (user_id, item_number, name, quantity, price, description, category, added_date)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		userID, next, name, quantity, price, nullable(description), nullable(category), time.Now(),
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting item id: %w", err)
	}

	item, err := scanItem(db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM inventory WHERE id = ?`, id,
	))
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// GetItem returns an owner's item by its per-owner number.
func GetItem(ctx context.Context, db *sql.DB, userID, number int64) (*model.Item, error) {
	item, err := scanItem(db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM inventory WHERE user_id = ? AND item_number = ?`,
		userID, number,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// ListItems returns an owner's catalog ordered by item number.
func ListItems(ctx context.Context, db *sql.DB, userID int64) ([]model.Item, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM inventory WHERE user_id = ? ORDER BY item_number`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// RecentItems returns an owner's most recently added items.
func RecentItems(ctx context.Context, db *sql.DB, userID int64, limit int) ([]model.Item, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM inventory WHERE user_id = ? ORDER BY added_date DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing recent items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// UpdateItem replaces an item's mutable fields.
func UpdateItem(ctx context.Context, db *sql.DB, item *model.Item) error {
	_, err := db.ExecContext(ctx,
		`UPDATE inventory SET name = ?, quantity = ?, price = ?, description = ?, category = ?
		 WHERE user_id = ? AND item_number = ?`,
		item.Name, item.Quantity, item.Price, nullable(item.Description), nullable(item.Category),
		item.UserID, item.Number,
	)
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}
	return nil
}

// DeleteItem removes an owner's item by number.
func DeleteItem(ctx context.Context, db *sql.DB, userID, number int64) error {
	_, err := db.ExecContext(ctx,
		`DELETE FROM inventory WHERE user_id = ? AND item_number = ?`,
		userID, number,
	)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	return nil
}

// SellItem records a sale in one transaction: inserts a SoldItem snapshot
// carrying the pre-decrement stock level, decrements the item's quantity, and
// deletes the item when the quantity reaches exactly zero.
//
// Returns (nil, nil) when the item does not exist for this owner and
// ErrInsufficientStock when quantitySold exceeds the current stock.
// quantitySold must be positive; the ledger never moves stock upward.
func SellItem(ctx context.Context, db *sql.DB, userID, number int64, quantitySold int, salePrice float64, saleDate time.Time) (*model.SoldItem, error) {
	if quantitySold <= 0 {
		return nil, fmt.Errorf("quantity sold must be positive, got %d", quantitySold)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	item, err := scanItem(tx.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM inventory WHERE user_id = ? AND item_number = ?`,
		userID, number,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}

	if quantitySold > item.Quantity {
		return nil, ErrInsufficientStock
	}

	// The snapshot keeps the stock level as it was at the moment of sale;
	// quantity_sold carries the delta.
	added := item.AddedDate
	sold := &model.SoldItem{
		UserID:         userID,
		OriginalNumber: item.Number,
		Name:           item.Name,
		Quantity:       item.Quantity,
		Price:          item.Price,
		Description:    item.Description,
		Category:       item.Category,
		AddedDate:      &added,
		QuantitySold:   quantitySold,
		SalePrice:      salePrice,
		SaleDate:       saleDate,
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO sold_items (user_id, original_item_number, name, quantity, price,
		     description, category, added_date, quantity_sold, sale_price, sale_date)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sold.UserID, sold.OriginalNumber, sold.Name, sold.Quantity, sold.Price,
		nullable(sold.Description), nullable(sold.Category), added,
		sold.QuantitySold, sold.SalePrice, sold.SaleDate,
	)
	if err != nil {
		return nil, fmt.Errorf("recording sale: %w", err)
	}
	sold.ID, err = result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting sold item id: %w", err)
	}

	remaining := item.Quantity - quantitySold
	if remaining == 0 {
		_, err = tx.ExecContext(ctx,
			`DELETE FROM inventory WHERE id = ?`, item.ID,
		)
	} else {
		_, err = tx.ExecContext(ctx,
			`UPDATE inventory SET quantity = ? WHERE id = ?`, remaining, item.ID,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("consuming inventory: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing sale: %w", err)
	}

	slog.Info("item sold", "user_id", userID, "item_number", number,
		"quantity_sold", quantitySold, "remaining", remaining)
	return sold, nil
}

// RenumberItems reassigns 1..N to an owner's items ordered by their current
// number, closing gaps left by deletions. Numbers move through a negative
// range first so the UNIQUE(user_id, item_number) constraint never trips
// mid-assignment.
func RenumberItems(ctx context.Context, db *sql.DB, userID int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		`SELECT id FROM inventory WHERE user_id = ? ORDER BY item_number`, userID,
	)
	if err != nil {
		return fmt.Errorf("listing items for renumbering: %w", err)
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("scanning item id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("listing items for renumbering: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE inventory SET item_number = -item_number WHERE user_id = ?`, userID,
	); err != nil {
		return fmt.Errorf("staging renumbering: %w", err)
	}

	for i, id := range ids {
		if _, err := tx.ExecContext(ctx,
			`UPDATE inventory SET item_number = ? WHERE id = ?`, i+1, id,
		); err != nil {
			return fmt.Errorf("renumbering item %d: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing renumbering: %w", err)
	}
	return nil
}

// nullable maps an empty string to NULL for optional text columns.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
