package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/nejcz/zaloga/internal/model"
)

const userColumns = `id, username, email, password_hash, phone, role, expenses, created_at`

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	u := &model.User{}
	var phone sql.NullString
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &phone, &u.Role, &u.Expenses, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	u.Phone = phone.String
	return u, nil
}

// CreateUser creates a new user with the default role.
func CreateUser(ctx context.Context, db *sql.DB, username, email, passwordHash, phone string) (*model.User, error) {
	var p any
	if phone != "" {
		p = phone
	}
	result, err := db.ExecContext(ctx,
		`INSERT INTO users (username, email, password_hash, phone) VALUES (?, ?, ?, ?)`,
		username, email, passwordHash, p,
	)
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting user id: %w", err)
	}

	return GetUser(ctx, db, id)
}

// GetUser returns a user by ID.
func GetUser(ctx context.Context, db *sql.DB, id int64) (*model.User, error) {
	u, err := scanUser(db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}

// GetUserByUsername returns a user by username.
func GetUserByUsername(ctx context.Context, db *sql.DB, username string) (*model.User, error) {
	u, err := scanUser(db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by username: %w", err)
	}
	return u, nil
}

// GetUserByEmail returns a user by email. Matching is case-insensitive
// (the email column is COLLATE NOCASE).
func GetUserByEmail(ctx context.Context, db *sql.DB, email string) (*model.User, error) {
	u, err := scanUser(db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by email: %w", err)
	}
	return u, nil
}

// ListUsers returns all users, optionally filtered by a case-insensitive
// username/email substring.
func ListUsers(ctx context.Context, db *sql.DB, q string) ([]model.User, error) {
	var rows *sql.Rows
	var err error

	if q != "" {
		like := "%" + q + "%"
		rows, err = db.QueryContext(ctx,
			`SELECT `+userColumns+` FROM users
			 WHERE username LIKE ? COLLATE NOCASE OR email LIKE ? COLLATE NOCASE
			 ORDER BY id`, like, like,
		)
	} else {
		rows, err = db.QueryContext(ctx,
			`SELECT `+userColumns+` FROM users ORDER BY id`,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// UpdateUser updates a user's profile fields and role, and the password hash
// when passwordHash is non-empty, in one transaction: either every field
// applies or none do.
func UpdateUser(ctx context.Context, db *sql.DB, id int64, username, email, phone, role, passwordHash string) error {
	var p any
	if phone != "" {
		p = phone
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET username = ?, email = ?, phone = ?, role = ? WHERE id = ?`,
		username, email, p, role, id,
	); err != nil {
		return fmt.Errorf("updating user: %w", err)
	}

	if passwordHash != "" {
		if _, err := tx.ExecContext(ctx,
			`UPDATE users SET password_hash = ? WHERE id = ?`, passwordHash, id,
		); err != nil {
			return fmt.Errorf("updating user password: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing user update: %w", err)
	}
	return nil
}

// UpdateUserRole updates only a user's role.
func UpdateUserRole(ctx context.Context, db *sql.DB, id int64, role string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE users SET role = ? WHERE id = ?`, role, id,
	)
	if err != nil {
		return fmt.Errorf("updating user role: %w", err)
	}
	return nil
}

// UpdateUserExpenses sets a user's cumulative expenses.
func UpdateUserExpenses(ctx context.Context, db *sql.DB, id int64, expenses float64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE users SET expenses = ? WHERE id = ?`, expenses, id,
	)
	if err != nil {
		return fmt.Errorf("updating user expenses: %w", err)
	}
	return nil
}

// DeleteUserCascade deletes a user and every dependent row in one
// transaction. Deleting a manager first demotes their granted employees back
// to the default role.
func DeleteUserCascade(ctx context.Context, db *sql.DB, id int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var role string
	err = tx.QueryRowContext(ctx, `SELECT role FROM users WHERE id = ?`, id).Scan(&role)
	if err == sql.ErrNoRows {
		return fmt.Errorf("user not found")
	}
	if err != nil {
		return fmt.Errorf("getting user role: %w", err)
	}

	if role == model.RoleManager {
		// Employees of a removed manager fall back to default.
		_, err = tx.ExecContext(ctx,
			`UPDATE users SET role = ? WHERE role = ? AND id IN
			     (SELECT employee_id FROM grants WHERE manager_id = ?)`,
			model.RoleDefault, model.RoleEmployee, id,
		)
		if err != nil {
			return fmt.Errorf("demoting employees: %w", err)
		}
	}

	steps := []struct {
		desc  string
		query string
	}{
		{"deleting grants", `DELETE FROM grants WHERE manager_id = ? OR employee_id = ?`},
		{"deleting invitations", `DELETE FROM invitations WHERE manager_id = ?`},
		{"deleting inventory", `DELETE FROM inventory WHERE user_id = ?`},
		{"deleting sold items", `DELETE FROM sold_items WHERE user_id = ?`},
		{"deleting exports", `DELETE FROM exports WHERE user_id = ?`},
		{"deleting reset tokens", `DELETE FROM password_reset_tokens WHERE user_id = ?`},
	}
	for _, s := range steps {
		args := []any{id}
		if s.desc == "deleting grants" {
			args = []any{id, id}
		}
		if _, err := tx.ExecContext(ctx, s.query, args...); err != nil {
			return fmt.Errorf("%s: %w", s.desc, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing user deletion: %w", err)
	}

	slog.Info("user deleted with dependent rows", "user_id", id, "role", role)
	return nil
}
