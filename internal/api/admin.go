package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"

	"golang.org/x/crypto/bcrypt"

	"github.com/nejcz/zaloga/internal/model"
	"github.com/nejcz/zaloga/internal/store"
)

// AdminHandler handles administrative user management.
type AdminHandler struct {
	DB *sql.DB
}

// requireAdmin resolves the actor and enforces the admin role.
func (h *AdminHandler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	actor := resolveActor(w, r, h.DB)
	if actor == nil {
		return false
	}
	if !actor.Is(model.RoleAdmin) {
		jsonError(w, http.StatusForbidden, "Admin access required")
		return false
	}
	return true
}

// ListUsers handles GET /admin/users with an optional ?q= substring filter.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	users, err := store.ListUsers(r.Context(), h.DB, r.URL.Query().Get("q"))
	if err != nil {
		jsonErrorDetails(w, http.StatusInternalServerError, "Failed to list users", err)
		return
	}
	if users == nil {
		users = []model.User{}
	}

	jsonResponse(w, http.StatusOK, map[string]any{"users": users})
}

// GetUser handles GET /admin/users/{id}.
func (h *AdminHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	user, err := store.GetUser(r.Context(), h.DB, id)
	if err != nil {
		jsonErrorDetails(w, http.StatusInternalServerError, "internal error", err)
		return
	}
	if user == nil {
		jsonError(w, http.StatusNotFound, "User not found")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{"user": user})
}

type adminUserUpdateRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	Role     *string `json:"role"`
	Password *string `json:"password"`
}

// UpdateUser handles PATCH /admin/users/{id}: partial update of profile
// fields, role, and password.
func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	user, err := store.GetUser(r.Context(), h.DB, id)
	if err != nil {
		jsonErrorDetails(w, http.StatusInternalServerError, "internal error", err)
		return
	}
	if user == nil {
		jsonError(w, http.StatusNotFound, "User not found")
		return
	}

	var req adminUserUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Username != nil {
		user.Username = *req.Username
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if req.Role != nil {
		if !model.ValidRole(*req.Role) {
			jsonError(w, http.StatusBadRequest, "invalid role")
			return
		}
		user.Role = *req.Role
	}

	var passwordHash string
	if req.Password != nil && *req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			jsonErrorDetails(w, http.StatusInternalServerError, "Failed to update user", err)
			return
		}
		passwordHash = string(hash)
	}

	if err := store.UpdateUser(r.Context(), h.DB, user.ID, user.Username, user.Email, user.Phone, user.Role, passwordHash); err != nil {
		jsonErrorDetails(w, http.StatusInternalServerError, "Failed to update user", err)
		return
	}

	slog.Info("admin updated user", "user_id", user.ID)
	jsonResponse(w, http.StatusOK, map[string]any{"message": "User updated", "user": user})
}

// DeleteUser handles DELETE /admin/users/{id}: removes the user and every
// dependent row in one transaction. Admins cannot delete themselves.
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	actor := resolveActor(w, r, h.DB)
	if actor == nil {
		return
	}
	if !actor.Is(model.RoleAdmin) {
		jsonError(w, http.StatusForbidden, "Admin access required")
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	if id == actor.User.ID {
		jsonError(w, http.StatusBadRequest, "You cannot delete your own account")
		return
	}

	user, err := store.GetUser(r.Context(), h.DB, id)
	if err != nil {
		jsonErrorDetails(w, http.StatusInternalServerError, "internal error", err)
		return
	}
	if user == nil {
		jsonError(w, http.StatusNotFound, "User not found")
		return
	}

	if err := store.DeleteUserCascade(r.Context(), h.DB, id); err != nil {
		jsonErrorDetails(w, http.StatusInternalServerError, "Failed to delete user", err)
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "User and all associated data deleted"})
}
