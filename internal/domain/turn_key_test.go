package domain

import (
	"testing"
	"time"
)

func TestTurnKey_ScopedUniqueness(t *testing.T) {
	db := newDomainDB(t)
	if err := db.AutoMigrate(&TurnKey{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	if !db.Migrator().HasIndex(&TurnKey{}, "ux_turn_keys_scope") {
		t.Fatalf("expected unique index ux_turn_keys_scope")
	}

	exp := time.Now().UTC().Add(time.Hour)
	mk := func(id, user, session, msg string) *TurnKey {
		return &TurnKey{ID: id, UserID: user, SessionID: session, Key: "turn-1", MessageID: msg, Status: 200, ExpiresAt: exp}
	}

	if err := db.Create(mk("a", "u1", "s1", "m1")).Error; err != nil {
		t.Fatalf("insert: %v", err)
	}
	var got TurnKey
	if err := db.First(&got, "id = ?", "a").Error; err != nil || got.MessageID != "m1" || got.CreatedAt.IsZero() {
		t.Fatalf("readback: err=%v got=%+v", err, got)
	}

	if err := db.Create(mk("b", "u1", "s1", "m2")).Error; err == nil {
		t.Fatalf("same key twice in one session must violate the unique index")
	}
	if err := db.Create(mk("c", "u1", "s2", "m3")).Error; err != nil {
		t.Fatalf("same key in another session: %v", err)
	}
	if err := db.Create(mk("d", "u2", "s1", "m4")).Error; err != nil {
		t.Fatalf("same key for another user: %v", err)
	}
}

func TestTurnKey_Live(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	k := TurnKey{ExpiresAt: now.Add(time.Minute)}
	if !k.Live(now) || k.Live(now.Add(time.Minute)) || k.Live(now.Add(time.Hour)) {
		t.Fatalf("Live boundaries wrong")
	}
}
