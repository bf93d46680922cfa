// Package perm resolves what a requesting account may do and whose data it
// acts on. Every data-access handler resolves an Actor first, checks the
// required capability against the requester, and then runs all queries
// against the resolved owner id. The order matters: the capability belongs to
// the requester, the data belongs to the effective owner.
package perm

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"

	"github.com/nejcz/zaloga/internal/model"
	"github.com/nejcz/zaloga/internal/store"
)

// ErrNotFound is returned when the requesting account does not exist.
var ErrNotFound = errors.New("account not found")

// Actor is a resolved request identity: the account, its role, its grant
// (employees only), and the id of the account whose data it operates on.
type Actor struct {
	User  *model.User
	Grant *model.Grant

	// OwnerID is the effective data owner: the manager's id for a granted
	// employee, the actor's own id for everyone else. An employee whose grant
	// was revoked degrades to acting as their own owner and sees an empty
	// personal catalog instead of an error.
	OwnerID int64
}

// Resolve loads the account and, for employees, the authoritative grant.
func Resolve(ctx context.Context, db *sql.DB, userID int64) (*Actor, error) {
	user, err := store.GetUser(ctx, db, userID)
	if err != nil {
		return nil, fmt.Errorf("resolving actor: %w", err)
	}
	if user == nil {
		return nil, ErrNotFound
	}

	actor := &Actor{User: user, OwnerID: user.ID}
	if user.Role == model.RoleEmployee {
		grant, err := store.GetGrantForEmployee(ctx, db, user.ID)
		if err != nil {
			return nil, fmt.Errorf("resolving grant: %w", err)
		}
		actor.Grant = grant
		if grant != nil {
			actor.OwnerID = grant.ManagerID
		}
	}
	return actor, nil
}

// Role returns the actor's role.
func (a *Actor) Role() string {
	return a.User.Role
}

// Has reports whether the actor holds a capability. Managers and admins hold
// every capability; employees hold exactly their grant's flags; default
// accounts hold none. Absence of a capability is a normal outcome, never an
// error.
func (a *Actor) Has(capability string) bool {
	switch a.User.Role {
	case model.RoleManager, model.RoleAdmin:
		return true
	case model.RoleEmployee:
		return a.Grant.Allows(capability)
	}
	return false
}

// Is reports whether the actor's role is one of the given roles.
func (a *Actor) Is(roles ...string) bool {
	return slices.Contains(roles, a.User.Role)
}
