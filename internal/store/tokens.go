package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// CreatePasswordResetToken persists a single-use reset token for a user.
func CreatePasswordResetToken(ctx context.Context, db *sql.DB, userID int64, token string, expiresAt time.Time) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO password_reset_tokens (user_id, token, expires_at) VALUES (?, ?, ?)`,
		userID, token, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("creating password reset token: %w", err)
	}

	// Opportunistically clean up expired tokens.
	_, _ = db.ExecContext(ctx,
		`DELETE FROM password_reset_tokens WHERE expires_at < ? AND used = 0`, time.Now(),
	)

	return nil
}

// ResetPassword consumes a reset token and sets the new password hash in one
// transaction. Returns false when the token is unknown, already used, or
// expired; nothing changes in that case.
func ResetPassword(ctx context.Context, db *sql.DB, token, passwordHash string) (bool, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var id, userID int64
	var expiresAt time.Time
	err = tx.QueryRowContext(ctx,
		`SELECT id, user_id, expires_at FROM password_reset_tokens WHERE token = ? AND used = 0`,
		token,
	).Scan(&id, &userID, &expiresAt)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("getting password reset token: %w", err)
	}
	if time.Now().After(expiresAt) {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET password_hash = ? WHERE id = ?`, passwordHash, userID,
	); err != nil {
		return false, fmt.Errorf("updating password: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE password_reset_tokens SET used = 1 WHERE id = ?`, id,
	); err != nil {
		return false, fmt.Errorf("marking token used: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing password reset: %w", err)
	}
	return true, nil
}
