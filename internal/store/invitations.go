package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/nejcz/zaloga/internal/model"
)

const invitationColumns = `id, email, manager_id, token, accepted, created_at`

func scanInvitation(row interface{ Scan(...any) error }) (*model.Invitation, error) {
	inv := &model.Invitation{}
	err := row.Scan(&inv.ID, &inv.Email, &inv.ManagerID, &inv.Token, &inv.Accepted, &inv.CreatedAt)
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// CreateInvitation persists a pending invitation.
func CreateInvitation(ctx context.Context, db *sql.DB, email string, managerID int64, token string) (*model.Invitation, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO invitations (email, manager_id, token) VALUES (?, ?, ?)`,
		email, managerID, token,
	)
	if err != nil {
		return nil, fmt.Errorf("creating invitation: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting invitation id: %w", err)
	}

	inv, err := scanInvitation(db.QueryRowContext(ctx,
		`SELECT `+invitationColumns+` FROM invitations WHERE id = ?`, id,
	))
	if err != nil {
		return nil, fmt.Errorf("getting invitation: %w", err)
	}
	return inv, nil
}

// GetInvitationForManager returns an invitation by id, scoped to its issuing
// manager. Returns nil when the id exists but belongs to someone else.
func GetInvitationForManager(ctx context.Context, db *sql.DB, id, managerID int64) (*model.Invitation, error) {
	inv, err := scanInvitation(db.QueryRowContext(ctx,
		`SELECT `+invitationColumns+` FROM invitations WHERE id = ? AND manager_id = ?`,
		id, managerID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting invitation: %w", err)
	}
	return inv, nil
}

// GetInvitationByToken returns an invitation by token regardless of state.
func GetInvitationByToken(ctx context.Context, db *sql.DB, token string) (*model.Invitation, error) {
	inv, err := scanInvitation(db.QueryRowContext(ctx,
		`SELECT `+invitationColumns+` FROM invitations WHERE token = ?`, token,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting invitation by token: %w", err)
	}
	return inv, nil
}

// ListInvitationsByManager returns all invitations issued by a manager.
func ListInvitationsByManager(ctx context.Context, db *sql.DB, managerID int64) ([]model.Invitation, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+invitationColumns+` FROM invitations WHERE manager_id = ? ORDER BY id`,
		managerID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing invitations: %w", err)
	}
	defer rows.Close()

	var invitations []model.Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning invitation: %w", err)
		}
		invitations = append(invitations, *inv)
	}
	return invitations, rows.Err()
}

// DeleteInvitation removes an invitation outright so its token cannot be
// reused.
func DeleteInvitation(ctx context.Context, db *sql.DB, id int64) error {
	_, err := db.ExecContext(ctx, `DELETE FROM invitations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting invitation: %w", err)
	}
	return nil
}

// MarkInvitationNotAccepted is the fallback when declining an invitation
// cannot delete the row.
func MarkInvitationNotAccepted(ctx context.Context, db *sql.DB, id int64) error {
	_, err := db.ExecContext(ctx, `UPDATE invitations SET accepted = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("marking invitation not accepted: %w", err)
	}
	return nil
}

// AcceptResult classifies the outcome of an invitation acceptance.
type AcceptResult int

const (
	// AcceptOK: the invitation was consumed and the grant is in place.
	AcceptOK AcceptResult = iota
	// AcceptAlreadyAccepted: the token was consumed earlier; treated as an
	// idempotent success.
	AcceptAlreadyAccepted
	// AcceptInvalidToken: no invitation carries this token.
	AcceptInvalidToken
	// AcceptNoAccount: no account matches the invited email; the invitee must
	// register first and revisit the link.
	AcceptNoAccount
)

// AcceptInvitation consumes an invitation token: promotes the matching
// account from default to employee, creates the grant if absent, and marks
// the invitation accepted. The whole flow is one transaction.
func AcceptInvitation(ctx context.Context, db *sql.DB, token string) (AcceptResult, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return AcceptInvalidToken, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	inv := &model.Invitation{}
	err = tx.QueryRowContext(ctx,
		`SELECT id, email, manager_id, accepted FROM invitations WHERE token = ?`, token,
	).Scan(&inv.ID, &inv.Email, &inv.ManagerID, &inv.Accepted)
	if err == sql.ErrNoRows {
		return AcceptInvalidToken, nil
	}
	if err != nil {
		return AcceptInvalidToken, fmt.Errorf("getting invitation: %w", err)
	}
	if inv.Accepted {
		return AcceptAlreadyAccepted, nil
	}

	// Email matching is case-insensitive (NOCASE column collation).
	var userID int64
	var role string
	err = tx.QueryRowContext(ctx,
		`SELECT id, role FROM users WHERE email = ?`, inv.Email,
	).Scan(&userID, &role)
	if err == sql.ErrNoRows {
		return AcceptNoAccount, nil
	}
	if err != nil {
		return AcceptInvalidToken, fmt.Errorf("matching invited account: %w", err)
	}

	if role == model.RoleDefault {
		if _, err := tx.ExecContext(ctx,
			`UPDATE users SET role = ? WHERE id = ?`, model.RoleEmployee, userID,
		); err != nil {
			return AcceptInvalidToken, fmt.Errorf("promoting invited account: %w", err)
		}
	}

	var existing int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM grants WHERE manager_id = ? AND employee_id = ?`,
		inv.ManagerID, userID,
	).Scan(&existing)
	if err != nil {
		return AcceptInvalidToken, fmt.Errorf("checking existing grant: %w", err)
	}
	if existing == 0 {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO grants (manager_id, employee_id) VALUES (?, ?)`,
			inv.ManagerID, userID,
		); err != nil {
			return AcceptInvalidToken, fmt.Errorf("creating grant: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE invitations SET accepted = 1 WHERE id = ?`, inv.ID,
	); err != nil {
		return AcceptInvalidToken, fmt.Errorf("marking invitation accepted: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return AcceptInvalidToken, fmt.Errorf("committing invitation acceptance: %w", err)
	}

	slog.Info("invitation accepted", "invitation_id", inv.ID, "manager_id", inv.ManagerID, "employee_id", userID)
	return AcceptOK, nil
}
