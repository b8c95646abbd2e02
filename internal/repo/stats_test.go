package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-coach-sim/internal/domain"
)

func newTestDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()
	// Unique DB per test to avoid schema leaking across tests.
	dsn := fmt.Sprintf("file:repo_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func seedSession(t *testing.T, db *gorm.DB, id, userID string, updated time.Time) {
	t.Helper()
	s := &domain.CoachingSession{
		ID:          id,
		UserID:      userID,
		PersonaID:   "rahul-mumbai-it",
		CompletedAt: updated,
		CreatedAt:   updated,
		UpdatedAt:   updated,
	}
	if err := db.Create(s).Error; err != nil {
		t.Fatalf("seed %s: %v", id, err)
	}
}

func TestSessionsStats_CountError_NoTable(t *testing.T) {
	db := newTestDB(t /* no migrations */)
	_, _, err := SessionsStats(context.Background(), db, "u1")
	if err == nil {
		t.Fatalf("expected error due to missing coaching_sessions table")
	}
}

func TestSessionsStats_ZeroRows(t *testing.T) {
	db := newTestDB(t, &domain.CoachingSession{})
	count, maxAt, err := SessionsStats(context.Background(), db, "u1")
	if err != nil {
		t.Fatalf("SessionsStats error: %v", err)
	}
	if count != 0 || maxAt != nil {
		t.Fatalf("expected (0, nil), got (%d, %v)", count, maxAt)
	}
}

func TestSessionsStats_Success_FilterAndMax(t *testing.T) {
	db := newTestDB(t, &domain.CoachingSession{})

	t1 := time.Date(2025, 1, 2, 15, 0, 0, 0, time.UTC)
	t2 := time.Date(2025, 3, 4, 10, 30, 0, 0, time.UTC) // max for u1
	t3 := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)   // other user

	seedSession(t, db, "s1", "u1", t1)
	seedSession(t, db, "s2", "u1", t2)
	seedSession(t, db, "s3", "u2", t3)

	count, maxAt, err := SessionsStats(context.Background(), db, "u1")
	if err != nil {
		t.Fatalf("SessionsStats error: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected count 2, got %d", count)
	}
	if maxAt == nil || !maxAt.Equal(t2) {
		t.Fatalf("expected maxUpdatedAt %v, got %v", t2, maxAt)
	}
}

// Force the second query (SELECT updated_at ...) to fail by renaming the column.
func TestSessionsStats_SelectLatest_ErrorPath(t *testing.T) {
	db := newTestDB(t, &domain.CoachingSession{})
	seedSession(t, db, "sx", "uerr", time.Now().UTC())

	if err := db.Exec(`ALTER TABLE coaching_sessions RENAME COLUMN updated_at TO updated_at_old`).Error; err != nil {
		t.Fatalf("rename column: %v", err)
	}

	_, _, err := SessionsStats(context.Background(), db, "uerr")
	if err == nil {
		t.Fatalf("expected error from latest-updated select after column rename")
	}
}
