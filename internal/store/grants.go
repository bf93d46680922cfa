package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nejcz/zaloga/internal/model"
)

const grantColumns = `id, manager_id, employee_id, can_view_inventory, can_edit_inventory,
	can_see_finances, can_add_items, can_remove_items`

func scanGrant(row interface{ Scan(...any) error }) (*model.Grant, error) {
	g := &model.Grant{}
	err := row.Scan(&g.ID, &g.ManagerID, &g.EmployeeID,
		&g.CanViewInventory, &g.CanEditInventory, &g.CanSeeFinances,
		&g.CanAddItems, &g.CanRemoveItems)
	if err != nil {
		return nil, err
	}
	return g, nil
}

// CreateGrant creates a grant with the default capability flags
// (view-inventory only).
func CreateGrant(ctx context.Context, db *sql.DB, managerID, employeeID int64) (*model.Grant, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO grants (manager_id, employee_id) VALUES (?, ?)`,
		managerID, employeeID,
	)
	if err != nil {
		return nil, fmt.Errorf("creating grant: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting grant id: %w", err)
	}

	g, err := scanGrant(db.QueryRowContext(ctx,
		`SELECT `+grantColumns+` FROM grants WHERE id = ?`, id,
	))
	if err != nil {
		return nil, fmt.Errorf("getting grant: %w", err)
	}
	return g, nil
}

// GetGrantForEmployee returns the employee's grant, or nil if none exists.
// Only the first grant counts; by convention there is at most one per
// employee.
func GetGrantForEmployee(ctx context.Context, db *sql.DB, employeeID int64) (*model.Grant, error) {
	g, err := scanGrant(db.QueryRowContext(ctx,
		`SELECT `+grantColumns+` FROM grants WHERE employee_id = ? ORDER BY id LIMIT 1`,
		employeeID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting grant for employee: %w", err)
	}
	return g, nil
}

// GetGrant returns the grant for a (manager, employee) pair, or nil.
func GetGrant(ctx context.Context, db *sql.DB, managerID, employeeID int64) (*model.Grant, error) {
	g, err := scanGrant(db.QueryRowContext(ctx,
		`SELECT `+grantColumns+` FROM grants WHERE manager_id = ? AND employee_id = ? ORDER BY id LIMIT 1`,
		managerID, employeeID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting grant: %w", err)
	}
	return g, nil
}

// ListGrantsByManager returns all grants issued by a manager.
func ListGrantsByManager(ctx context.Context, db *sql.DB, managerID int64) ([]model.Grant, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+grantColumns+` FROM grants WHERE manager_id = ? ORDER BY id`,
		managerID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing grants: %w", err)
	}
	defer rows.Close()

	var grants []model.Grant
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning grant: %w", err)
		}
		grants = append(grants, *g)
	}
	return grants, rows.Err()
}

// UpdateGrant replaces all capability flags on a grant.
func UpdateGrant(ctx context.Context, db *sql.DB, g *model.Grant) error {
	_, err := db.ExecContext(ctx,
		`UPDATE grants SET can_view_inventory = ?, can_edit_inventory = ?,
		     can_see_finances = ?, can_add_items = ?, can_remove_items = ?
		 WHERE id = ?`,
		g.CanViewInventory, g.CanEditInventory, g.CanSeeFinances,
		g.CanAddItems, g.CanRemoveItems, g.ID,
	)
	if err != nil {
		return fmt.Errorf("updating grant: %w", err)
	}
	return nil
}

// DeleteGrant removes a grant. The employee keeps their role until the next
// lazy reconciliation.
func DeleteGrant(ctx context.Context, db *sql.DB, id int64) error {
	_, err := db.ExecContext(ctx, `DELETE FROM grants WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting grant: %w", err)
	}
	return nil
}
