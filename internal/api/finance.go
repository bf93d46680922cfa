package api

import (
	"database/sql"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/nejcz/zaloga/internal/export"
	"github.com/nejcz/zaloga/internal/model"
	"github.com/nejcz/zaloga/internal/perm"
	"github.com/nejcz/zaloga/internal/store"
)

// FinanceHandler serves revenue summaries, the dashboard, and CSV exports.
type FinanceHandler struct {
	DB *sql.DB
}

// ownerExpenses returns the expenses figure of the actor's effective owner.
func ownerExpenses(r *http.Request, db *sql.DB, actor *perm.Actor) (float64, error) {
	if actor.OwnerID == actor.User.ID {
		return actor.User.Expenses, nil
	}
	owner, err := store.GetUser(r.Context(), db, actor.OwnerID)
	if err != nil {
		return 0, err
	}
	if owner == nil {
		return 0, nil
	}
	return owner.Expenses, nil
}

// Finances handles GET /finances. The days query parameter selects the daily
// sales window: a number of days, or "year" for 365. Defaults to 7.
func (h *FinanceHandler) Finances(w http.ResponseWriter, r *http.Request) {
	actor := resolveActor(w, r, h.DB)
	if actor == nil {
		return
	}
	if !actor.Has(model.CapSeeFinances) {
		jsonError(w, http.StatusForbidden, "You don't have permission to view finances")
		return
	}

	days := 7
	switch q := r.URL.Query().Get("days"); q {
	case "", "7":
	case "year":
		days = 365
	default:
		n, err := strconv.Atoi(q)
		if err != nil || n < 1 || n > 3650 {
			jsonError(w, http.StatusBadRequest, "Invalid days parameter")
			return
		}
		days = n
	}

	ctx := r.Context()
	totalRevenue, err := store.TotalRevenue(ctx, h.DB, actor.OwnerID)
	if err != nil {
		jsonErrorDetails(w, http.StatusInternalServerError, "Failed to get finances", err)
		return
	}
	potentialRevenue, err := store.PotentialRevenue(ctx, h.DB, actor.OwnerID)
	if err != nil {
		jsonErrorDetails(w, http.StatusInternalServerError, "Failed to get finances", err)
		return
	}
	dailySales, err := store.DailySalesSeries(ctx, h.DB, actor.OwnerID, days)
	if err != nil {
		jsonErrorDetails(w, http.StatusInternalServerError, "Failed to get finances", err)
		return
	}
	expenses, err := ownerExpenses(r, h.DB, actor)
	if err != nil {
		jsonErrorDetails(w, http.StatusInternalServerError, "Failed to get finances", err)
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"totalRevenue":     totalRevenue,
		"potentialRevenue": potentialRevenue,
		"expenses":         expenses,
		"dailySales":       dailySales,
	})
}

type updateExpensesRequest struct {
	Expenses *float64 `json:"expenses"`
}

// UpdateExpenses handles PATCH /finances/expenses. Expenses always belong to
// the requester's own account, never the effective owner's, so any signed-in
// account may set its own figure.
func (h *FinanceHandler) UpdateExpenses(w http.ResponseWriter, r *http.Request) {
	actor := resolveActor(w, r, h.DB)
	if actor == nil {
		return
	}

	var req updateExpensesRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Expenses == nil {
		jsonError(w, http.StatusBadRequest, "Expenses value is required")
		return
	}
	if *req.Expenses < 0 {
		jsonError(w, http.StatusBadRequest, "Expenses cannot be negative")
		return
	}

	if err := store.UpdateUserExpenses(r.Context(), h.DB, actor.User.ID, *req.Expenses); err != nil {
		jsonErrorDetails(w, http.StatusInternalServerError, "Failed to update expenses", err)
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"message":  "Expenses updated successfully",
		"expenses": *req.Expenses,
	})
}

// Dashboard handles GET /dashboard: a small overview any signed-in account
// can load, built from the effective owner's data.
func (h *FinanceHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	actor := resolveActor(w, r, h.DB)
	if actor == nil {
		return
	}

	ctx := r.Context()
	recentInventory, err := store.RecentItems(ctx, h.DB, actor.OwnerID, 5)
	if err != nil {
		jsonErrorDetails(w, http.StatusInternalServerError, "Failed to get dashboard data", err)
		return
	}
	recentSold, err := store.RecentSoldItems(ctx, h.DB, actor.OwnerID, 5)
	if err != nil {
		jsonErrorDetails(w, http.StatusInternalServerError, "Failed to get dashboard data", err)
		return
	}
	totalRevenue, err := store.TotalRevenue(ctx, h.DB, actor.OwnerID)
	if err != nil {
		jsonErrorDetails(w, http.StatusInternalServerError, "Failed to get dashboard data", err)
		return
	}
	expenses, err := ownerExpenses(r, h.DB, actor)
	if err != nil {
		jsonErrorDetails(w, http.StatusInternalServerError, "Failed to get dashboard data", err)
		return
	}

	if recentInventory == nil {
		recentInventory = []model.Item{}
	}
	if recentSold == nil {
		recentSold = []model.SoldItem{}
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"recentInventory": recentInventory,
		"recentSold":      recentSold,
		"totalRevenue":    totalRevenue,
		"expenses":        expenses,
		"profit":          totalRevenue - expenses,
	})
}

type exportRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

func parseExportRange(req exportRequest) (start, end time.Time, err error) {
	if req.StartDate == "" || req.EndDate == "" {
		return start, end, fmt.Errorf("start_date and end_date are required")
	}
	start, ok := parseSaleDate(req.StartDate)
	if !ok {
		return start, end, fmt.Errorf("invalid start_date format")
	}
	end, ok = parseSaleDate(req.EndDate)
	if !ok {
		return start, end, fmt.Errorf("invalid end_date format")
	}
	if !start.Before(end) {
		return start, end, fmt.Errorf("start_date must be before end_date")
	}
	return start, end, nil
}

// buildReport assembles the CSV source data for a user and date range. Sales
// are selected over [start, end).
func (h *FinanceHandler) buildReport(r *http.Request, user *model.User, start, end time.Time) (*export.Report, error) {
	sold, err := store.ListSoldItemsInRange(r.Context(), h.DB, user.ID, start, end)
	if err != nil {
		return nil, err
	}
	inventory, err := store.ListItems(r.Context(), h.DB, user.ID)
	if err != nil {
		return nil, err
	}
	return &export.Report{
		Username:  user.Username,
		Expenses:  user.Expenses,
		StartDate: start,
		EndDate:   end,
		SoldItems: sold,
		Inventory: inventory,
	}, nil
}

func serveCSV(w http.ResponseWriter, filename string, data []byte) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// Export handles POST /finances/export. Employees have no finances of their
// own to export; everyone else exports their own data.
func (h *FinanceHandler) Export(w http.ResponseWriter, r *http.Request) {
	actor := resolveActor(w, r, h.DB)
	if actor == nil {
		return
	}
	if !actor.Is(model.RoleDefault, model.RoleManager, model.RoleAdmin) {
		jsonError(w, http.StatusForbidden, "Employees cannot export finances")
		return
	}

	var req exportRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	start, end, err := parseExportRange(req)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := h.buildReport(r, actor.User, start, end)
	if err != nil {
		jsonErrorDetails(w, http.StatusInternalServerError, "Failed to export finances", err)
		return
	}
	data, err := export.CSV(report)
	if err != nil {
		jsonErrorDetails(w, http.StatusInternalServerError, "Failed to export finances", err)
		return
	}

	filename := export.Filename(actor.User.Username, start, end)
	if _, err := store.CreateExport(r.Context(), h.DB, actor.User.ID, filename,
		start, end, model.ExportKindFinances, len(data)); err != nil {
		jsonErrorDetails(w, http.StatusInternalServerError, "Failed to export finances", err)
		return
	}

	serveCSV(w, filename, data)
}

// ListExports handles GET /finances/exports.
func (h *FinanceHandler) ListExports(w http.ResponseWriter, r *http.Request) {
	actor := resolveActor(w, r, h.DB)
	if actor == nil {
		return
	}
	if !actor.Is(model.RoleDefault, model.RoleManager, model.RoleAdmin) {
		jsonError(w, http.StatusForbidden, "Employees cannot export finances")
		return
	}

	exports, err := store.ListExports(r.Context(), h.DB, actor.User.ID)
	if err != nil {
		jsonErrorDetails(w, http.StatusInternalServerError, "Failed to get exports", err)
		return
	}
	if exports == nil {
		exports = []model.Export{}
	}

	jsonResponse(w, http.StatusOK, map[string]any{"exports": exports})
}

// DownloadExport handles GET /finances/export/{id}/download. The document is
// regenerated from the record's date range, so it reflects current data.
func (h *FinanceHandler) DownloadExport(w http.ResponseWriter, r *http.Request) {
	actor := resolveActor(w, r, h.DB)
	if actor == nil {
		return
	}
	if !actor.Is(model.RoleDefault, model.RoleManager, model.RoleAdmin) {
		jsonError(w, http.StatusForbidden, "Employees cannot export finances")
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid export id")
		return
	}

	record, err := store.GetExportForUser(r.Context(), h.DB, id, actor.User.ID)
	if err != nil {
		jsonErrorDetails(w, http.StatusInternalServerError, "Failed to download export", err)
		return
	}
	if record == nil {
		jsonError(w, http.StatusNotFound, "Export not found")
		return
	}

	report, err := h.buildReport(r, actor.User, record.StartDate, record.EndDate)
	if err != nil {
		jsonErrorDetails(w, http.StatusInternalServerError, "Failed to download export", err)
		return
	}
	data, err := export.CSV(report)
	if err != nil {
		jsonErrorDetails(w, http.StatusInternalServerError, "Failed to download export", err)
		return
	}

	serveCSV(w, record.Filename, data)
}
