package store

import (
	"context"
	"testing"

	"github.com/nejcz/zaloga/internal/db"
	"github.com/nejcz/zaloga/internal/model"
)

func TestCreateGrantDefaults(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	manager, _ := CreateUser(ctx, database, "manager", "manager@example.com", "hash", "")
	employee, _ := CreateUser(ctx, database, "employee", "employee@example.com", "hash", "")

	grant, err := CreateGrant(ctx, database, manager.ID, employee.ID)
	if err != nil {
		t.Fatalf("CreateGrant: %v", err)
	}

	// New grants start view-only.
	if !grant.CanViewInventory {
		t.Error("expected new grant to allow viewing inventory")
	}
	if grant.CanEditInventory || grant.CanSeeFinances || grant.CanAddItems || grant.CanRemoveItems {
		t.Errorf("expected all other flags off, got %+v", grant)
	}
}

func TestGetGrantForEmployeeFirstMatchWins(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	m1, _ := CreateUser(ctx, database, "manager1", "m1@example.com", "hash", "")
	m2, _ := CreateUser(ctx, database, "manager2", "m2@example.com", "hash", "")
	employee, _ := CreateUser(ctx, database, "employee", "employee@example.com", "hash", "")

	CreateGrant(ctx, database, m1.ID, employee.ID)
	CreateGrant(ctx, database, m2.ID, employee.ID)

	grant, err := GetGrantForEmployee(ctx, database, employee.ID)
	if err != nil {
		t.Fatalf("GetGrantForEmployee: %v", err)
	}
	if grant == nil || grant.ManagerID != m1.ID {
		t.Error("expected the oldest grant to be authoritative")
	}
}

func TestUpdateGrantFlags(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	manager, _ := CreateUser(ctx, database, "manager", "manager@example.com", "hash", "")
	employee, _ := CreateUser(ctx, database, "employee", "employee@example.com", "hash", "")
	grant, _ := CreateGrant(ctx, database, manager.ID, employee.ID)

	grant.CanSeeFinances = true
	grant.CanAddItems = true
	grant.CanViewInventory = false
	if err := UpdateGrant(ctx, database, grant); err != nil {
		t.Fatalf("UpdateGrant: %v", err)
	}

	got, _ := GetGrant(ctx, database, manager.ID, employee.ID)
	if !got.CanSeeFinances || !got.CanAddItems || got.CanViewInventory {
		t.Errorf("unexpected flags after update: %+v", got)
	}
}

func TestGrantAllows(t *testing.T) {
	var g *model.Grant
	if g.Allows(model.CapViewInventory) {
		t.Error("expected nil grant to allow nothing")
	}

	g = &model.Grant{CanViewInventory: true, CanSeeFinances: true}
	if !g.Allows(model.CapViewInventory) || !g.Allows(model.CapSeeFinances) {
		t.Error("expected enabled capabilities to be allowed")
	}
	if g.Allows(model.CapEditInventory) || g.Allows(model.CapAddItems) || g.Allows(model.CapRemoveItems) {
		t.Error("expected disabled capabilities to be denied")
	}
	if g.Allows("not_a_capability") {
		t.Error("expected unknown capability to be denied")
	}
}

func TestDeleteGrant(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	manager, _ := CreateUser(ctx, database, "manager", "manager@example.com", "hash", "")
	employee, _ := CreateUser(ctx, database, "employee", "employee@example.com", "hash", "")
	grant, _ := CreateGrant(ctx, database, manager.ID, employee.ID)

	if err := DeleteGrant(ctx, database, grant.ID); err != nil {
		t.Fatalf("DeleteGrant: %v", err)
	}
	if got, _ := GetGrantForEmployee(ctx, database, employee.ID); got != nil {
		t.Error("expected grant to be gone")
	}
}
