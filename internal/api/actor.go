package api

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/nejcz/zaloga/internal/perm"
)

// resolveActor resolves the authenticated request identity into an Actor.
// Writes the error response and returns nil when resolution fails, so
// handlers can bail with a bare return.
func resolveActor(w http.ResponseWriter, r *http.Request, db *sql.DB) *perm.Actor {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return nil
	}

	actor, err := perm.Resolve(r.Context(), db, claims.UserID)
	if errors.Is(err, perm.ErrNotFound) {
		jsonError(w, http.StatusNotFound, "User not found")
		return nil
	}
	if err != nil {
		jsonErrorDetails(w, http.StatusInternalServerError, "internal error", err)
		return nil
	}
	return actor
}
