package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/nejcz/zaloga/internal/model"
	"github.com/nejcz/zaloga/internal/store"
)

// InventoryHandler handles the per-owner item catalog. Every endpoint checks
// the capability against the requester and then operates on the resolved
// effective owner, in that order.
type InventoryHandler struct {
	DB *sql.DB
}

// saleDateFormats are the accepted sale_date layouts, most specific first.
var saleDateFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseSaleDate(s string) (time.Time, bool) {
	for _, layout := range saleDateFormats {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Current handles GET /inventory/current.
func (h *InventoryHandler) Current(w http.ResponseWriter, r *http.Request) {
	actor := resolveActor(w, r, h.DB)
	if actor == nil {
		return
	}
	if !actor.Has(model.CapViewInventory) {
		jsonError(w, http.StatusForbidden, "You don't have permission to view inventory")
		return
	}

	items, err := store.ListItems(r.Context(), h.DB, actor.OwnerID)
	if err != nil {
		jsonErrorDetails(w, http.StatusInternalServerError, "Failed to get inventory", err)
		return
	}
	if items == nil {
		items = []model.Item{}
	}

	jsonResponse(w, http.StatusOK, map[string]any{"current_inventory": items})
}

// Sold handles GET /inventory/sold.
func (h *InventoryHandler) Sold(w http.ResponseWriter, r *http.Request) {
	actor := resolveActor(w, r, h.DB)
	if actor == nil {
		return
	}
	if !actor.Has(model.CapSeeFinances) {
		jsonError(w, http.StatusForbidden, "You don't have permission to view sold items")
		return
	}

	items, err := store.ListSoldItems(r.Context(), h.DB, actor.OwnerID)
	if err != nil {
		jsonErrorDetails(w, http.StatusInternalServerError, "Failed to get sold items", err)
		return
	}
	if items == nil {
		items = []model.SoldItem{}
	}

	jsonResponse(w, http.StatusOK, map[string]any{"sold_items": items})
}

type createItemRequest struct {
	Name        string   `json:"name"`
	Quantity    *int     `json:"quantity"`
	Price       *float64 `json:"price"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
}

func (req *createItemRequest) validate() map[string]string {
	problems := map[string]string{}
	if req.Name == "" || len(req.Name) > 200 {
		problems["name"] = "Name must be between 1 and 200 characters"
	}
	if req.Quantity == nil || *req.Quantity < 0 {
		problems["quantity"] = "Quantity must be a non-negative integer"
	}
	if req.Price == nil || *req.Price < 0 {
		problems["price"] = "Price must be non-negative"
	}
	if len(req.Description) > 1000 {
		problems["description"] = "Description cannot exceed 1000 characters"
	}
	if len(req.Category) > 100 {
		problems["category"] = "Category cannot exceed 100 characters"
	}
	if len(problems) == 0 {
		return nil
	}
	return problems
}

// CreateItem handles POST /inventory/create_item. The new item takes the
// owner's next sequential number.
func (h *InventoryHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	actor := resolveActor(w, r, h.DB)
	if actor == nil {
		return
	}
	if !actor.Has(model.CapAddItems) {
		jsonError(w, http.StatusForbidden, "You don't have permission to add items")
		return
	}

	var req createItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if problems := req.validate(); problems != nil {
		jsonResponse(w, http.StatusBadRequest, map[string]any{
			"error": "Validation failed", "details": problems,
		})
		return
	}

	item, err := store.CreateItem(r.Context(), h.DB, actor.OwnerID,
		req.Name, *req.Quantity, *req.Price, req.Description, req.Category)
	if err != nil {
		// Constraint violations land here, including a lost next-number race.
		jsonErrorDetails(w, http.StatusUnprocessableEntity, "Failed to create item", err)
		return
	}

	jsonResponse(w, http.StatusCreated, map[string]any{
		"message": "Item created successfully",
		"item":    item,
	})
}

type sellItemRequest struct {
	QuantitySold *int     `json:"quantity_sold"`
	SalePrice    *float64 `json:"sale_price"`
	SaleDate     string   `json:"sale_date"`
}

// SellItem handles POST /inventory/sell_item/{id}.
func (h *InventoryHandler) SellItem(w http.ResponseWriter, r *http.Request) {
	actor := resolveActor(w, r, h.DB)
	if actor == nil {
		return
	}
	if !actor.Has(model.CapEditInventory) {
		jsonError(w, http.StatusForbidden, "You don't have permission to sell items")
		return
	}

	number, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := store.GetItem(r.Context(), h.DB, actor.OwnerID, number)
	if err != nil {
		jsonErrorDetails(w, http.StatusInternalServerError, "Failed to sell item", err)
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "Item not found")
		return
	}

	var req sellItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var missing []string
	if req.QuantitySold == nil || *req.QuantitySold == 0 {
		missing = append(missing, "quantity_sold")
	}
	if req.SalePrice == nil {
		missing = append(missing, "sale_price")
	}
	if req.SaleDate == "" {
		missing = append(missing, "sale_date")
	}
	if len(missing) > 0 {
		jsonResponse(w, http.StatusBadRequest, map[string]any{
			"error": "Missing required fields", "details": missing,
		})
		return
	}
	if *req.QuantitySold < 0 {
		jsonError(w, http.StatusBadRequest, "Quantity sold must be a positive integer")
		return
	}

	saleDate, ok := parseSaleDate(req.SaleDate)
	if !ok {
		jsonError(w, http.StatusBadRequest, "Invalid sale_date format")
		return
	}

	sold, err := store.SellItem(r.Context(), h.DB, actor.OwnerID, number, *req.QuantitySold, *req.SalePrice, saleDate)
	if errors.Is(err, store.ErrInsufficientStock) {
		jsonError(w, http.StatusBadRequest, "Insufficient quantity in inventory")
		return
	}
	if err != nil {
		jsonErrorDetails(w, http.StatusInternalServerError, "Failed to sell item", err)
		return
	}
	if sold == nil {
		// Deleted between the lookup and the transaction.
		jsonError(w, http.StatusNotFound, "Item not found")
		return
	}

	jsonResponse(w, http.StatusCreated, map[string]any{
		"message":   "Item sold successfully",
		"sold_item": sold,
	})
}

type updateItemRequest struct {
	Name        *string  `json:"name"`
	Quantity    *int     `json:"quantity"`
	Price       *float64 `json:"price"`
	Description *string  `json:"description"`
	Category    *string  `json:"category"`
}

// UpdateItem handles PATCH /inventory/update_item/{id}. Absent fields keep
// their current values; an update to quantity zero deletes the item.
func (h *InventoryHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	actor := resolveActor(w, r, h.DB)
	if actor == nil {
		return
	}
	if !actor.Has(model.CapEditInventory) {
		jsonError(w, http.StatusForbidden, "You don't have permission to edit items")
		return
	}

	number, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := store.GetItem(r.Context(), h.DB, actor.OwnerID, number)
	if err != nil {
		jsonErrorDetails(w, http.StatusInternalServerError, "Failed to update item", err)
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "Item not found")
		return
	}

	var req updateItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name != nil {
		item.Name = *req.Name
	}
	if req.Quantity != nil {
		item.Quantity = *req.Quantity
	}
	if req.Price != nil {
		item.Price = *req.Price
	}
	if req.Description != nil {
		item.Description = *req.Description
	}
	if req.Category != nil {
		item.Category = *req.Category
	}
	if item.Name == "" || item.Quantity < 0 || item.Price < 0 {
		jsonError(w, http.StatusBadRequest, "Validation failed")
		return
	}

	if item.Quantity == 0 {
		err = store.DeleteItem(r.Context(), h.DB, actor.OwnerID, number)
	} else {
		err = store.UpdateItem(r.Context(), h.DB, item)
	}
	if err != nil {
		jsonErrorDetails(w, http.StatusInternalServerError, "Failed to update item", err)
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"message": "Item updated successfully",
		"item":    item,
	})
}

// DeleteItem handles DELETE /inventory/delete_item/{id}.
func (h *InventoryHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	actor := resolveActor(w, r, h.DB)
	if actor == nil {
		return
	}
	if !actor.Has(model.CapRemoveItems) {
		jsonError(w, http.StatusForbidden, "You don't have permission to delete items")
		return
	}

	number, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := store.GetItem(r.Context(), h.DB, actor.OwnerID, number)
	if err != nil {
		jsonErrorDetails(w, http.StatusInternalServerError, "Failed to delete item", err)
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "Item not found")
		return
	}

	if err := store.DeleteItem(r.Context(), h.DB, actor.OwnerID, number); err != nil {
		jsonErrorDetails(w, http.StatusInternalServerError, "Failed to delete item", err)
		return
	}

	slog.Info("item deleted", "owner_id", actor.OwnerID, "item_number", number)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "Item deleted successfully"})
}

// Renumber handles POST /inventory/renumber: closes numbering gaps in the
// effective owner's catalog, preserving relative order.
func (h *InventoryHandler) Renumber(w http.ResponseWriter, r *http.Request) {
	actor := resolveActor(w, r, h.DB)
	if actor == nil {
		return
	}
	if !actor.Has(model.CapEditInventory) {
		jsonError(w, http.StatusForbidden, "You don't have permission to edit items")
		return
	}

	if err := store.RenumberItems(r.Context(), h.DB, actor.OwnerID); err != nil {
		jsonErrorDetails(w, http.StatusInternalServerError, "Failed to renumber items", err)
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "Items renumbered successfully"})
}
