package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/nejcz/zaloga/internal/model"
)

const exportColumns = `id, user_id, filename, start_date, end_date, export_type, file_size, created_at`

func scanExport(row interface{ Scan(...any) error }) (*model.Export, error) {
	e := &model.Export{}
	err := row.Scan(&e.ID, &e.UserID, &e.Filename, &e.StartDate, &e.EndDate,
		&e.Kind, &e.FileSize, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// CreateExport records the metadata of a generated report. The document
// itself is not stored; downloads regenerate it from the date range.
func CreateExport(ctx context.Context, db *sql.DB, userID int64, filename string, start, end time.Time, kind string, fileSize int) (*model.Export, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO exports (user_id, filename, start_date, end_date, export_type, file_size)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		userID, filename, start, end, kind, fileSize,
	)
	if err != nil {
		return nil, fmt.Errorf("creating export record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting export id: %w", err)
	}

	e, err := scanExport(db.QueryRowContext(ctx,
		`SELECT `+exportColumns+` FROM exports WHERE id = ?`, id,
	))
	if err != nil {
		return nil, fmt.Errorf("getting export record: %w", err)
	}
	return e, nil
}

// GetExportForUser returns an export record by id, scoped to its owner.
func GetExportForUser(ctx context.Context, db *sql.DB, id, userID int64) (*model.Export, error) {
	e, err := scanExport(db.QueryRowContext(ctx,
		`SELECT `+exportColumns+` FROM exports WHERE id = ? AND user_id = ?`,
		id, userID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting export record: %w", err)
	}
	return e, nil
}

// ListExports returns a user's export history, newest first.
func ListExports(ctx context.Context, db *sql.DB, userID int64) ([]model.Export, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+exportColumns+` FROM exports WHERE user_id = ? ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing exports: %w", err)
	}
	defer rows.Close()

	var exports []model.Export
	for rows.Next() {
		e, err := scanExport(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning export record: %w", err)
		}
		exports = append(exports, *e)
	}
	return exports, rows.Err()
}
