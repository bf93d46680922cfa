package api

import (
	"database/sql"
	"net/http"

	"github.com/nejcz/zaloga/internal/config"
	outbound "github.com/nejcz/zaloga/internal/mail"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, cfg *config.Config, sender outbound.Sender) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{
		DB:          db,
		JWTSecret:   cfg.Auth.JWTSecret,
		TokenTTL:    cfg.Auth.TokenTTL,
		Mail:        sender,
		FrontendURL: cfg.Frontend.URL,
	}
	managerHandler := &ManagerHandler{DB: db, Mail: sender, FrontendURL: cfg.Frontend.URL}
	adminHandler := &AdminHandler{DB: db}
	inventoryHandler := &InventoryHandler{DB: db}
	financeHandler := &FinanceHandler{DB: db}

	authMW := AuthMiddleware(cfg.Auth.JWTSecret)
	protected := func(h http.HandlerFunc) http.Handler {
		return authMW(h)
	}

	mux.HandleFunc("GET /{$}", home)

	// Public: account bootstrap and mailed links.
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/auth/forgot-password", authHandler.ForgotPassword)
	mux.HandleFunc("POST /api/auth/reset-password", authHandler.ResetPassword)
	mux.HandleFunc("GET /api/accept-invitation/{token}", managerHandler.AcceptInvitation)
	mux.HandleFunc("GET /api/decline-invitation/{token}", managerHandler.DeclineInvitation)

	// Account self-service.
	mux.Handle("POST /api/auth/logout", protected(authHandler.Logout))
	mux.Handle("GET /api/auth/me", protected(authHandler.Me))
	mux.Handle("POST /api/request-manager", protected(authHandler.RequestManager))

	// Inventory. Role checks happen per handler through capability checks.
	mux.Handle("GET /api/inventory/current", protected(inventoryHandler.Current))
	mux.Handle("GET /api/inventory/sold", protected(inventoryHandler.Sold))
	mux.Handle("POST /api/inventory/create_item", protected(inventoryHandler.CreateItem))
	mux.Handle("POST /api/inventory/sell_item/{id}", protected(inventoryHandler.SellItem))
	mux.Handle("PATCH /api/inventory/update_item/{id}", protected(inventoryHandler.UpdateItem))
	mux.Handle("DELETE /api/inventory/delete_item/{id}", protected(inventoryHandler.DeleteItem))
	mux.Handle("POST /api/inventory/renumber", protected(inventoryHandler.Renumber))

	// Finances and exports.
	mux.Handle("GET /api/finances", protected(financeHandler.Finances))
	mux.Handle("PATCH /api/finances/expenses", protected(financeHandler.UpdateExpenses))
	mux.Handle("GET /api/dashboard", protected(financeHandler.Dashboard))
	mux.Handle("POST /api/finances/export", protected(financeHandler.Export))
	mux.Handle("GET /api/finances/exports", protected(financeHandler.ListExports))
	mux.Handle("GET /api/finances/export/{id}/download", protected(financeHandler.DownloadExport))

	// Manager.
	mux.Handle("GET /api/manager/employees", protected(managerHandler.ListEmployees))
	mux.Handle("POST /api/manager/employees", protected(managerHandler.AddEmployee))
	mux.Handle("PATCH /api/manager/employees/{id}", protected(managerHandler.UpdateEmployee))
	mux.Handle("DELETE /api/manager/employees/{id}", protected(managerHandler.RemoveEmployee))
	mux.Handle("POST /api/manager/invite-employee", protected(managerHandler.InviteEmployee))
	mux.Handle("GET /api/manager/invitations", protected(managerHandler.ListInvitations))
	mux.Handle("DELETE /api/manager/invitations/{id}", protected(managerHandler.DeleteInvitation))

	// Admin.
	mux.Handle("GET /api/admin/users", protected(adminHandler.ListUsers))
	mux.Handle("GET /api/admin/users/{id}", protected(adminHandler.GetUser))
	mux.Handle("PATCH /api/admin/users/{id}", protected(adminHandler.UpdateUser))
	mux.Handle("DELETE /api/admin/users/{id}", protected(adminHandler.DeleteUser))

	return mux
}

func home(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]string{
		"message": "Inventory Management System API is running.",
	})
}
