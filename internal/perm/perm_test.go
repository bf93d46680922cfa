package perm

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nejcz/zaloga/internal/db"
	"github.com/nejcz/zaloga/internal/model"
	"github.com/nejcz/zaloga/internal/store"
)

func createUser(t *testing.T, database *sql.DB, username, role string) *model.User {
	t.Helper()
	ctx := context.Background()
	u, err := store.CreateUser(ctx, database, username, username+"@example.com", "hash", "")
	require.NoError(t, err)
	if role != model.RoleDefault {
		require.NoError(t, store.UpdateUserRole(ctx, database, u.ID, role))
		u.Role = role
	}
	return u
}

func TestResolveUnknownAccount(t *testing.T) {
	database := db.NewTestDB(t)

	_, err := Resolve(context.Background(), database, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolveNonEmployeeOwnsSelf(t *testing.T) {
	database := db.NewTestDB(t)

	for _, role := range []string{model.RoleDefault, model.RoleManager, model.RoleAdmin} {
		u := createUser(t, database, "user-"+role, role)
		actor, err := Resolve(context.Background(), database, u.ID)
		require.NoError(t, err)
		assert.Equal(t, u.ID, actor.OwnerID, "role %s should own itself", role)
		assert.Nil(t, actor.Grant)
	}
}

func TestResolveEmployeeWithGrant(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	manager := createUser(t, database, "manager", model.RoleManager)
	employee := createUser(t, database, "employee", model.RoleEmployee)
	grant, err := store.CreateGrant(ctx, database, manager.ID, employee.ID)
	require.NoError(t, err)

	actor, err := Resolve(ctx, database, employee.ID)
	require.NoError(t, err)
	assert.Equal(t, manager.ID, actor.OwnerID)
	require.NotNil(t, actor.Grant)
	assert.Equal(t, grant.ID, actor.Grant.ID)
}

func TestResolveOrphanedEmployee(t *testing.T) {
	database := db.NewTestDB(t)

	// Employee role but no grant: acts as its own owner.
	employee := createUser(t, database, "orphan", model.RoleEmployee)
	actor, err := Resolve(context.Background(), database, employee.ID)
	require.NoError(t, err)
	assert.Equal(t, employee.ID, actor.OwnerID)
	assert.Nil(t, actor.Grant)
	assert.False(t, actor.Has(model.CapViewInventory))
}

func TestHasMatchesGrantFlags(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	manager := createUser(t, database, "manager", model.RoleManager)
	employee := createUser(t, database, "employee", model.RoleEmployee)
	grant, err := store.CreateGrant(ctx, database, manager.ID, employee.ID)
	require.NoError(t, err)

	grant.CanEditInventory = true
	grant.CanAddItems = true
	require.NoError(t, store.UpdateGrant(ctx, database, grant))

	actor, err := Resolve(ctx, database, employee.ID)
	require.NoError(t, err)

	assert.True(t, actor.Has(model.CapViewInventory)) // default flag
	assert.True(t, actor.Has(model.CapEditInventory))
	assert.True(t, actor.Has(model.CapAddItems))
	assert.False(t, actor.Has(model.CapSeeFinances))
	assert.False(t, actor.Has(model.CapRemoveItems))
}

func TestManagerAndAdminHoldEverything(t *testing.T) {
	database := db.NewTestDB(t)

	caps := []string{
		model.CapViewInventory, model.CapEditInventory,
		model.CapSeeFinances, model.CapAddItems, model.CapRemoveItems,
	}
	for _, role := range []string{model.RoleManager, model.RoleAdmin} {
		u := createUser(t, database, "boss-"+role, role)
		actor, err := Resolve(context.Background(), database, u.ID)
		require.NoError(t, err)
		for _, c := range caps {
			assert.True(t, actor.Has(c), "%s should hold %s", role, c)
		}
	}
}

func TestDefaultHoldsNothing(t *testing.T) {
	database := db.NewTestDB(t)

	u := createUser(t, database, "plain", model.RoleDefault)
	actor, err := Resolve(context.Background(), database, u.ID)
	require.NoError(t, err)
	assert.False(t, actor.Has(model.CapViewInventory))
	assert.False(t, actor.Has(model.CapSeeFinances))
}

func TestIs(t *testing.T) {
	database := db.NewTestDB(t)

	u := createUser(t, database, "manager", model.RoleManager)
	actor, err := Resolve(context.Background(), database, u.ID)
	require.NoError(t, err)
	assert.True(t, actor.Is(model.RoleManager, model.RoleAdmin))
	assert.False(t, actor.Is(model.RoleAdmin))
}
