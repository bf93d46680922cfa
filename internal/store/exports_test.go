package store

import (
	"context"
	"testing"
	"time"

	"github.com/nejcz/zaloga/internal/db"
	"github.com/nejcz/zaloga/internal/model"
)

func TestCreateAndListExports(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, database, "alice", "alice@example.com", "hash", "")

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	record, err := CreateExport(ctx, database, user.ID, "report-jan.csv", start, end, model.ExportKindFinances, 512)
	if err != nil {
		t.Fatalf("CreateExport: %v", err)
	}
	if record.Filename != "report-jan.csv" || record.FileSize != 512 {
		t.Errorf("unexpected export record: %+v", record)
	}
	CreateExport(ctx, database, user.ID, "report-feb.csv", end, end.AddDate(0, 1, 0), model.ExportKindFinances, 256)

	exports, err := ListExports(ctx, database, user.ID)
	if err != nil {
		t.Fatalf("ListExports: %v", err)
	}
	if len(exports) != 2 {
		t.Fatalf("expected 2 export records, got %d", len(exports))
	}
	// Newest first.
	if exports[0].Filename != "report-feb.csv" {
		t.Errorf("expected newest export first, got %q", exports[0].Filename)
	}
}

func TestGetExportForUserScoping(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	alice, _ := CreateUser(ctx, database, "alice", "alice@example.com", "hash", "")
	bob, _ := CreateUser(ctx, database, "bob", "bob@example.com", "hash", "")

	record, _ := CreateExport(ctx, database, alice.ID, "report.csv",
		time.Now().AddDate(0, -1, 0), time.Now(), model.ExportKindFinances, 100)

	if got, _ := GetExportForUser(ctx, database, record.ID, bob.ID); got != nil {
		t.Error("expected another user's lookup to miss")
	}
	if got, _ := GetExportForUser(ctx, database, record.ID, alice.ID); got == nil {
		t.Error("expected the owner's lookup to hit")
	}
}
