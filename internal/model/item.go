package model

import "time"

// Item is one row of an owner's catalog. Number is sequential per owner and
// only unique within (owner, number); two owners can both have an item 1.
type Item struct {
	ID          int64     `json:"-"`
	UserID      int64     `json:"-"`
	Number      int64     `json:"itemId"`
	Name        string    `json:"name"`
	Quantity    int       `json:"quantity"`
	Price       float64   `json:"price"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category,omitempty"`
	AddedDate   time.Time `json:"addedDate"`
}

// SoldItem is an immutable snapshot taken at sale time. It copies the item by
// value, so deleting the source item later does not touch sales history.
//
// Quantity is the stock level at the moment of sale, recorded before the
// decrement — not the amount sold. QuantitySold carries the delta. Kept this
// way for wire compatibility with existing consumers.
type SoldItem struct {
	ID             int64      `json:"soldItemId"`
	UserID         int64      `json:"-"`
	OriginalNumber int64      `json:"originalItemId"`
	Name           string     `json:"name"`
	Quantity       int        `json:"quantity"`
	Price          float64    `json:"price"`
	Description    string     `json:"description,omitempty"`
	Category       string     `json:"category,omitempty"`
	AddedDate      *time.Time `json:"addedDate,omitempty"`
	QuantitySold   int        `json:"quantitySold"`
	SalePrice      float64    `json:"salePrice"`
	SaleDate       time.Time  `json:"saleDate"`
}
