package store

import (
	"context"
	"testing"

	"github.com/nejcz/zaloga/internal/db"
	"github.com/nejcz/zaloga/internal/model"
)

func TestAcceptInvitationPromotesAndGrants(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	manager, _ := CreateUser(ctx, database, "manager", "manager@example.com", "hash", "")
	UpdateUserRole(ctx, database, manager.ID, model.RoleManager)
	invitee, _ := CreateUser(ctx, database, "invitee", "invitee@example.com", "hash", "")

	CreateInvitation(ctx, database, "invitee@example.com", manager.ID, "tok-1")

	result, err := AcceptInvitation(ctx, database, "tok-1")
	if err != nil {
		t.Fatalf("AcceptInvitation: %v", err)
	}
	if result != AcceptOK {
		t.Fatalf("expected AcceptOK, got %v", result)
	}

	got, _ := GetUser(ctx, database, invitee.ID)
	if got.Role != model.RoleEmployee {
		t.Errorf("expected invitee promoted to 'employee', got %q", got.Role)
	}

	grant, _ := GetGrant(ctx, database, manager.ID, invitee.ID)
	if grant == nil {
		t.Fatal("expected a grant to be created")
	}
	if !grant.CanViewInventory || grant.CanSeeFinances {
		t.Errorf("expected view-only grant, got %+v", grant)
	}

	inv, _ := GetInvitationByToken(ctx, database, "tok-1")
	if inv == nil || !inv.Accepted {
		t.Error("expected invitation marked accepted")
	}
}

func TestAcceptInvitationIsIdempotent(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	manager, _ := CreateUser(ctx, database, "manager", "manager@example.com", "hash", "")
	CreateUser(ctx, database, "invitee", "invitee@example.com", "hash", "")
	CreateInvitation(ctx, database, "invitee@example.com", manager.ID, "tok-1")

	if result, _ := AcceptInvitation(ctx, database, "tok-1"); result != AcceptOK {
		t.Fatalf("expected first accept to succeed, got %v", result)
	}
	if result, _ := AcceptInvitation(ctx, database, "tok-1"); result != AcceptAlreadyAccepted {
		t.Errorf("expected second accept to report AcceptAlreadyAccepted, got %v", result)
	}
}

func TestAcceptInvitationUnknownToken(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	result, err := AcceptInvitation(ctx, database, "no-such-token")
	if err != nil {
		t.Fatalf("AcceptInvitation: %v", err)
	}
	if result != AcceptInvalidToken {
		t.Errorf("expected AcceptInvalidToken, got %v", result)
	}
}

func TestAcceptInvitationNoAccount(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	manager, _ := CreateUser(ctx, database, "manager", "manager@example.com", "hash", "")
	CreateInvitation(ctx, database, "stranger@example.com", manager.ID, "tok-1")

	result, err := AcceptInvitation(ctx, database, "tok-1")
	if err != nil {
		t.Fatalf("AcceptInvitation: %v", err)
	}
	if result != AcceptNoAccount {
		t.Errorf("expected AcceptNoAccount, got %v", result)
	}

	// Unconsumed: the invitee can register and revisit the link.
	inv, _ := GetInvitationByToken(ctx, database, "tok-1")
	if inv == nil || inv.Accepted {
		t.Error("expected invitation to remain pending")
	}
}

func TestAcceptInvitationKeepsElevatedRole(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	manager, _ := CreateUser(ctx, database, "manager", "manager@example.com", "hash", "")
	other, _ := CreateUser(ctx, database, "other", "other@example.com", "hash", "")
	UpdateUserRole(ctx, database, other.ID, model.RoleManager)
	CreateInvitation(ctx, database, "other@example.com", manager.ID, "tok-1")

	if result, _ := AcceptInvitation(ctx, database, "tok-1"); result != AcceptOK {
		t.Fatal("expected accept to succeed")
	}

	got, _ := GetUser(ctx, database, other.ID)
	if got.Role != model.RoleManager {
		t.Errorf("expected manager role untouched, got %q", got.Role)
	}
}

func TestGetInvitationForManagerScoping(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	m1, _ := CreateUser(ctx, database, "manager1", "m1@example.com", "hash", "")
	m2, _ := CreateUser(ctx, database, "manager2", "m2@example.com", "hash", "")
	inv, _ := CreateInvitation(ctx, database, "invitee@example.com", m1.ID, "tok-1")

	if got, _ := GetInvitationForManager(ctx, database, inv.ID, m2.ID); got != nil {
		t.Error("expected another manager's lookup to miss")
	}
	if got, _ := GetInvitationForManager(ctx, database, inv.ID, m1.ID); got == nil {
		t.Error("expected the issuing manager's lookup to hit")
	}
}
