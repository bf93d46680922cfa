package api

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/nejcz/zaloga/internal/mail"
	"github.com/nejcz/zaloga/internal/model"
	"github.com/nejcz/zaloga/internal/store"
)

// ManagerHandler handles the manager's employee roster and the invitation
// lifecycle, including the public accept/decline links.
type ManagerHandler struct {
	DB          *sql.DB
	Mail        mail.Sender
	FrontendURL string
}

// frontendBase normalizes the configured frontend URL for building links.
func (h *ManagerHandler) frontendBase() string {
	base := h.FrontendURL
	if !strings.HasPrefix(base, "http") {
		base = "https://" + base
	}
	return strings.TrimSuffix(base, "/")
}

// ListEmployees handles GET /manager/employees.
func (h *ManagerHandler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	actor := resolveActor(w, r, h.DB)
	if actor == nil {
		return
	}
	if !actor.Is(model.RoleManager, model.RoleAdmin) {
		jsonError(w, http.StatusForbidden, "Manager or admin access required")
		return
	}

	grants, err := store.ListGrantsByManager(r.Context(), h.DB, actor.User.ID)
	if err != nil {
		jsonErrorDetails(w, http.StatusInternalServerError, "internal error", err)
		return
	}

	employees := make([]model.User, 0, len(grants))
	for _, g := range grants {
		employee, err := store.GetUser(r.Context(), h.DB, g.EmployeeID)
		if err != nil {
			jsonErrorDetails(w, http.StatusInternalServerError, "internal error", err)
			return
		}
		if employee != nil {
			employees = append(employees, *employee)
		}
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"employees":   employees,
		"permissions": grants,
	})
}

type addEmployeeRequest struct {
	Email string `json:"email"`
}

// AddEmployee handles POST /manager/employees: directly grants an existing
// account, promoting it from default to employee if needed.
func (h *ManagerHandler) AddEmployee(w http.ResponseWriter, r *http.Request) {
	actor := resolveActor(w, r, h.DB)
	if actor == nil {
		return
	}
	if !actor.Is(model.RoleManager, model.RoleAdmin) {
		jsonError(w, http.StatusForbidden, "Manager or admin access required")
		return
	}

	var req addEmployeeRequest
	if err := decodeJSON(r, &req); err != nil || req.Email == "" {
		jsonError(w, http.StatusBadRequest, "Email required")
		return
	}

	employee, err := store.GetUserByEmail(r.Context(), h.DB, req.Email)
	if err != nil {
		jsonErrorDetails(w, http.StatusInternalServerError, "internal error", err)
		return
	}
	if employee == nil {
		jsonError(w, http.StatusNotFound, "No user with that email")
		return
	}
	if employee.Role != model.RoleEmployee && employee.Role != model.RoleDefault {
		jsonError(w, http.StatusBadRequest, "User is not an employee or default")
		return
	}

	if employee.Role == model.RoleDefault {
		if err := store.UpdateUserRole(r.Context(), h.DB, employee.ID, model.RoleEmployee); err != nil {
			jsonErrorDetails(w, http.StatusInternalServerError, "internal error", err)
			return
		}
		employee.Role = model.RoleEmployee
	}

	grant, err := store.GetGrant(r.Context(), h.DB, actor.User.ID, employee.ID)
	if err != nil {
		jsonErrorDetails(w, http.StatusInternalServerError, "internal error", err)
		return
	}
	if grant == nil {
		grant, err = store.CreateGrant(r.Context(), h.DB, actor.User.ID, employee.ID)
		if err != nil {
			jsonErrorDetails(w, http.StatusInternalServerError, "internal error", err)
			return
		}
	}

	slog.Info("employee added", "manager", actor.User.Username, "employee", employee.Username)
	jsonResponse(w, http.StatusCreated, map[string]any{
		"message":    "Employee added",
		"employee":   employee,
		"permission": grant,
	})
}

type grantUpdateRequest struct {
	CanViewInventory *bool `json:"can_view_inventory"`
	CanEditInventory *bool `json:"can_edit_inventory"`
	CanSeeFinances   *bool `json:"can_see_finances"`
	CanAddItems      *bool `json:"can_add_items"`
	CanRemoveItems   *bool `json:"can_remove_items"`
}

// UpdateEmployee handles PATCH /manager/employees/{id}: partial update of the
// grant's capability flags.
func (h *ManagerHandler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	actor := resolveActor(w, r, h.DB)
	if actor == nil {
		return
	}
	if !actor.Is(model.RoleManager, model.RoleAdmin) {
		jsonError(w, http.StatusForbidden, "Manager or admin access required")
		return
	}

	employeeID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid employee id")
		return
	}

	grant, err := store.GetGrant(r.Context(), h.DB, actor.User.ID, employeeID)
	if err != nil {
		jsonErrorDetails(w, http.StatusInternalServerError, "internal error", err)
		return
	}
	if grant == nil {
		jsonError(w, http.StatusNotFound, "No such employee for this manager")
		return
	}

	var req grantUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CanViewInventory != nil {
		grant.CanViewInventory = *req.CanViewInventory
	}
	if req.CanEditInventory != nil {
		grant.CanEditInventory = *req.CanEditInventory
	}
	if req.CanSeeFinances != nil {
		grant.CanSeeFinances = *req.CanSeeFinances
	}
	if req.CanAddItems != nil {
		grant.CanAddItems = *req.CanAddItems
	}
	if req.CanRemoveItems != nil {
		grant.CanRemoveItems = *req.CanRemoveItems
	}

	if err := store.UpdateGrant(r.Context(), h.DB, grant); err != nil {
		jsonErrorDetails(w, http.StatusInternalServerError, "internal error", err)
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"message":    "Permissions updated",
		"permission": grant,
	})
}

// RemoveEmployee handles DELETE /manager/employees/{id}: revokes the grant.
// The employee's role is reconciled lazily, not here.
func (h *ManagerHandler) RemoveEmployee(w http.ResponseWriter, r *http.Request) {
	actor := resolveActor(w, r, h.DB)
	if actor == nil {
		return
	}
	if !actor.Is(model.RoleManager, model.RoleAdmin) {
		jsonError(w, http.StatusForbidden, "Manager or admin access required")
		return
	}

	employeeID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid employee id")
		return
	}

	grant, err := store.GetGrant(r.Context(), h.DB, actor.User.ID, employeeID)
	if err != nil {
		jsonErrorDetails(w, http.StatusInternalServerError, "internal error", err)
		return
	}
	if grant == nil {
		jsonError(w, http.StatusNotFound, "No such employee for this manager")
		return
	}

	if err := store.DeleteGrant(r.Context(), h.DB, grant.ID); err != nil {
		jsonErrorDetails(w, http.StatusInternalServerError, "internal error", err)
		return
	}

	slog.Info("employee removed", "manager", actor.User.Username, "employee_id", employeeID)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "Employee removed"})
}

// ListInvitations handles GET /manager/invitations.
func (h *ManagerHandler) ListInvitations(w http.ResponseWriter, r *http.Request) {
	actor := resolveActor(w, r, h.DB)
	if actor == nil {
		return
	}
	if !actor.Is(model.RoleManager) {
		jsonError(w, http.StatusForbidden, "Unauthorized")
		return
	}

	invitations, err := store.ListInvitationsByManager(r.Context(), h.DB, actor.User.ID)
	if err != nil {
		jsonErrorDetails(w, http.StatusInternalServerError, "internal error", err)
		return
	}
	if invitations == nil {
		invitations = []model.Invitation{}
	}

	jsonResponse(w, http.StatusOK, map[string]any{"invitations": invitations})
}

// DeleteInvitation handles DELETE /manager/invitations/{id}.
func (h *ManagerHandler) DeleteInvitation(w http.ResponseWriter, r *http.Request) {
	actor := resolveActor(w, r, h.DB)
	if actor == nil {
		return
	}
	if !actor.Is(model.RoleManager) {
		jsonError(w, http.StatusForbidden, "Unauthorized")
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid invitation id")
		return
	}

	inv, err := store.GetInvitationForManager(r.Context(), h.DB, id, actor.User.ID)
	if err != nil {
		jsonErrorDetails(w, http.StatusInternalServerError, "internal error", err)
		return
	}
	if inv == nil {
		jsonError(w, http.StatusNotFound, "Invitation not found")
		return
	}

	if err := store.DeleteInvitation(r.Context(), h.DB, inv.ID); err != nil {
		jsonErrorDetails(w, http.StatusInternalServerError, "internal error", err)
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "Invitation deleted"})
}

type inviteRequest struct {
	Email string `json:"email"`
}

// InviteEmployee handles POST /manager/invite-employee: persists the
// invitation, then emails accept/decline links. A failed send fails the whole
// request so the issuer knows the invitee was never notified.
func (h *ManagerHandler) InviteEmployee(w http.ResponseWriter, r *http.Request) {
	actor := resolveActor(w, r, h.DB)
	if actor == nil {
		return
	}
	if !actor.Is(model.RoleManager) {
		jsonError(w, http.StatusForbidden, "Unauthorized")
		return
	}

	var req inviteRequest
	if err := decodeJSON(r, &req); err != nil || req.Email == "" {
		jsonError(w, http.StatusBadRequest, "Email required")
		return
	}

	token := uuid.NewString()
	if _, err := store.CreateInvitation(r.Context(), h.DB, req.Email, actor.User.ID, token); err != nil {
		jsonErrorDetails(w, http.StatusInternalServerError, "Failed to create invitation", err)
		return
	}

	base := h.frontendBase()
	// The /api/ prefix routes the links to the backend behind the frontend's
	// reverse proxy.
	acceptURL := fmt.Sprintf("%s/api/accept-invitation/%s", base, token)
	declineURL := fmt.Sprintf("%s/api/decline-invitation/%s", base, token)

	body := fmt.Sprintf("Hello,\n\nYou have been invited by %s (%s) to join their team as an employee.\n"+
		"Accept: %s\nDecline: %s\n\n"+
		"If you don't have an account yet, please register first, then click the link again.",
		actor.User.Username, actor.User.Email, acceptURL, declineURL)

	if err := h.Mail.Send(r.Context(), req.Email, "Invitation to join as employee", body); err != nil {
		slog.Error("sending invitation email", "manager", actor.User.Username, "err", err)
		jsonError(w, http.StatusInternalServerError, "Failed to send invitation email")
		return
	}

	slog.Info("invitation sent", "manager", actor.User.Username, "email", req.Email)
	jsonResponse(w, http.StatusCreated, map[string]string{"message": "Invitation sent"})
}

// AcceptInvitation handles GET /accept-invitation/{token}. Unauthenticated:
// the token in the link is the credential. Revisiting an accepted link is an
// idempotent success.
func (h *ManagerHandler) AcceptInvitation(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	base := h.frontendBase()

	result, err := store.AcceptInvitation(r.Context(), h.DB, token)
	if err != nil {
		jsonErrorDetails(w, http.StatusInternalServerError, "Failed to accept invitation", err)
		return
	}

	switch result {
	case store.AcceptOK, store.AcceptAlreadyAccepted:
		http.Redirect(w, r, base+"/?invite=accepted", http.StatusFound)
	default:
		http.Redirect(w, r, base+"/?invite=error", http.StatusFound)
	}
}

// DeclineInvitation handles GET /decline-invitation/{token}. Deletes the
// invitation so the token cannot be reused; falls back to marking it
// not-accepted if deletion fails.
func (h *ManagerHandler) DeclineInvitation(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	base := h.frontendBase()

	inv, err := store.GetInvitationByToken(r.Context(), h.DB, token)
	if err != nil {
		jsonErrorDetails(w, http.StatusInternalServerError, "Failed to decline invitation", err)
		return
	}
	if inv == nil {
		http.Redirect(w, r, base+"/?invite=error", http.StatusFound)
		return
	}

	if err := store.DeleteInvitation(r.Context(), h.DB, inv.ID); err != nil {
		slog.Error("deleting declined invitation", "invitation_id", inv.ID, "err", err)
		if err := store.MarkInvitationNotAccepted(r.Context(), h.DB, inv.ID); err != nil {
			jsonErrorDetails(w, http.StatusInternalServerError, "Failed to decline invitation", err)
			return
		}
	}

	http.Redirect(w, r, base+"/?invite=declined", http.StatusFound)
}
