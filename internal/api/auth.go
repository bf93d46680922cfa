package api

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"net/mail"
	"regexp"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/nejcz/zaloga/internal/auth"
	"github.com/nejcz/zaloga/internal/model"
	outbound "github.com/nejcz/zaloga/internal/mail"
	"github.com/nejcz/zaloga/internal/store"
)

// resetTokenTTL is how long a password-reset link stays valid.
const resetTokenTTL = time.Hour

// AuthHandler handles registration, login, and account self-service.
type AuthHandler struct {
	DB          *sql.DB
	JWTSecret   string
	TokenTTL    time.Duration
	Mail        outbound.Sender
	FrontendURL string
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	phonePattern    = regexp.MustCompile(`^\+?[0-9\s\-()]+$`)
)

// validate checks the registration fields, returning per-field messages.
func (req *registerRequest) validate() map[string]string {
	problems := map[string]string{}
	if len(req.Username) < 3 || len(req.Username) > 50 || !usernamePattern.MatchString(req.Username) {
		problems["username"] = "Username must be 3-50 characters of letters, numbers, underscores, and hyphens"
	}
	if len(req.Password) < 8 || len(req.Password) > 128 {
		problems["password"] = "Password must be at least 8 characters long"
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		problems["email"] = "Invalid email address"
	}
	if req.Phone != "" && !phonePattern.MatchString(req.Phone) {
		problems["phone"] = "Invalid phone number format"
	}
	if len(problems) == 0 {
		return nil
	}
	return problems
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
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

	// Distinct duplicate messages so the frontend can highlight the field.
	if existing, err := store.GetUserByUsername(r.Context(), h.DB, req.Username); err != nil {
		jsonErrorDetails(w, http.StatusInternalServerError, "Failed to create user", err)
		return
	} else if existing != nil {
		jsonError(w, http.StatusBadRequest, "Username already exists")
		return
	}
	if existing, err := store.GetUserByEmail(r.Context(), h.DB, req.Email); err != nil {
		jsonErrorDetails(w, http.StatusInternalServerError, "Failed to create user", err)
		return
	} else if existing != nil {
		jsonError(w, http.StatusBadRequest, "Email already exists")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		jsonErrorDetails(w, http.StatusInternalServerError, "Failed to create user", err)
		return
	}

	user, err := store.CreateUser(r.Context(), h.DB, req.Username, req.Email, string(hash), req.Phone)
	if err != nil {
		jsonErrorDetails(w, http.StatusInternalServerError, "Failed to create user", err)
		return
	}

	token, err := auth.GenerateToken(h.JWTSecret, h.TokenTTL, user.ID, user.Username)
	if err != nil {
		jsonErrorDetails(w, http.StatusInternalServerError, "failed to generate token", err)
		return
	}

	slog.Info("user registered", "user", user.Username)
	jsonResponse(w, http.StatusCreated, map[string]any{
		"message":      "User registered successfully",
		"user":         user,
		"access_token": token,
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		jsonError(w, http.StatusBadRequest, "username and password required")
		return
	}

	user, err := store.GetUserByUsername(r.Context(), h.DB, req.Username)
	if err != nil {
		jsonErrorDetails(w, http.StatusInternalServerError, "internal error", err)
		return
	}
	if user == nil {
		jsonError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		slog.Warn("login failed", "username", req.Username, "remote", r.RemoteAddr)
		jsonError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	token, err := auth.GenerateToken(h.JWTSecret, h.TokenTTL, user.ID, user.Username)
	if err != nil {
		jsonErrorDetails(w, http.StatusInternalServerError, "failed to generate token", err)
		return
	}

	slog.Info("user logged in", "user", user.Username, "role", user.Role)
	jsonResponse(w, http.StatusOK, map[string]any{
		"message":      "Login successful",
		"user":         user,
		"access_token": token,
	})
}

// Logout handles POST /auth/logout. Tokens are discarded client-side.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]string{"message": "Logout successful"})
}

type meResponse struct {
	*model.User
	Permissions *model.Grant `json:"permissions,omitempty"`
	ManagerID   int64        `json:"manager_id,omitempty"`
	ManagerName string       `json:"manager_name,omitempty"`
}

// Me handles GET /auth/me. Reconciles a stale default role to employee when a
// grant exists, and includes grant and manager info for employees.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	actor := resolveActor(w, r, h.DB)
	if actor == nil {
		return
	}
	user := actor.User

	if user.Role == model.RoleDefault {
		grant, err := store.GetGrantForEmployee(r.Context(), h.DB, user.ID)
		if err != nil {
			jsonErrorDetails(w, http.StatusInternalServerError, "internal error", err)
			return
		}
		if grant != nil {
			if err := store.UpdateUserRole(r.Context(), h.DB, user.ID, model.RoleEmployee); err != nil {
				jsonErrorDetails(w, http.StatusInternalServerError, "internal error", err)
				return
			}
			user.Role = model.RoleEmployee
			actor.Grant = grant
			slog.Info("reconciled stale default role to employee", "user", user.Username)
		}
	}

	resp := meResponse{User: user}
	if user.Role == model.RoleEmployee && actor.Grant != nil {
		resp.Permissions = actor.Grant
		resp.ManagerID = actor.Grant.ManagerID
		if manager, err := store.GetUser(r.Context(), h.DB, actor.Grant.ManagerID); err == nil && manager != nil {
			resp.ManagerName = manager.Username
		}
	}

	jsonResponse(w, http.StatusOK, map[string]any{"user": resp})
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// ForgotPassword handles POST /auth/forgot-password. The response is
// identical whether or not the email matches an account, so the endpoint
// cannot be used to enumerate users. Mail failures are logged, never
// reported to the caller.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		jsonResponse(w, http.StatusBadRequest, map[string]any{
			"error": "Validation failed", "details": map[string]string{"email": "Invalid email format"},
		})
		return
	}

	user, err := store.GetUserByEmail(r.Context(), h.DB, req.Email)
	if err != nil {
		jsonErrorDetails(w, http.StatusInternalServerError, "internal error", err)
		return
	}

	if user != nil {
		token := uuid.NewString()
		if err := store.CreatePasswordResetToken(r.Context(), h.DB, user.ID, token, time.Now().Add(resetTokenTTL)); err != nil {
			jsonErrorDetails(w, http.StatusInternalServerError, "internal error", err)
			return
		}

		resetURL := fmt.Sprintf("%s/reset-password?token=%s", h.FrontendURL, token)
		body := fmt.Sprintf("Hello %s,\n\nTo reset your password, click the link below:\n%s\n\n"+
			"If you did not request this, ignore this email.\n\nThis link expires in 1 hour.",
			user.Username, resetURL)
		if err := h.Mail.Send(r.Context(), user.Email, "Password Reset Request", body); err != nil {
			slog.Error("sending password reset email", "user", user.Username, "err", err)
		}
	}

	jsonResponse(w, http.StatusOK, map[string]string{
		"message": "If an account exists with this email, a password reset link has been sent.",
	})
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// ResetPassword handles POST /auth/reset-password.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Token == "" || req.Password == "" {
		jsonError(w, http.StatusBadRequest, "Token and password required")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		jsonErrorDetails(w, http.StatusInternalServerError, "internal error", err)
		return
	}

	ok, err := store.ResetPassword(r.Context(), h.DB, req.Token, string(hash))
	if err != nil {
		jsonErrorDetails(w, http.StatusInternalServerError, "internal error", err)
		return
	}
	if !ok {
		jsonError(w, http.StatusBadRequest, "Invalid or expired token")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "Password reset successful"})
}

// RequestManager handles POST /request-manager: default-role self-promotion.
func (h *AuthHandler) RequestManager(w http.ResponseWriter, r *http.Request) {
	actor := resolveActor(w, r, h.DB)
	if actor == nil {
		return
	}
	if actor.Role() != model.RoleDefault {
		jsonError(w, http.StatusBadRequest, "Only default users can become managers")
		return
	}

	if err := store.UpdateUserRole(r.Context(), h.DB, actor.User.ID, model.RoleManager); err != nil {
		jsonErrorDetails(w, http.StatusInternalServerError, "internal error", err)
		return
	}
	actor.User.Role = model.RoleManager

	slog.Info("user promoted to manager", "user", actor.User.Username)
	jsonResponse(w, http.StatusOK, map[string]any{
		"message": "You are now a manager",
		"user":    actor.User,
	})
}
