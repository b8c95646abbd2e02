package repo

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-coach-sim/internal/domain"
)

func newSessionRepoDB(t *testing.T) *gorm.DB {
	t.Helper()
	return newTestDB(t, &domain.CoachingSession{}, &domain.CompetencyScore{})
}

func fullScores(overall int) map[string]int {
	return map[string]int{
		domain.CompetencyActiveListening:      60,
		domain.CompetencyPowerfulQuestioning:  70,
		domain.CompetencyRapportBuilding:      50,
		domain.CompetencyGoalSetting:          40,
		domain.CompetencyBreakthroughCreation: 30,
		domain.CompetencyOverall:              overall,
	}
}

func TestSaveSession_WritesSessionAndSixScores(t *testing.T) {
	db := newSessionRepoDB(t)
	ctx := context.Background()
	done := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	msgs := []domain.Message{
		{ID: "w", Role: domain.RoleClient, Content: "Hi coach", Timestamp: done},
		{ID: "c1", Role: domain.RoleCoach, Content: "What do you really want?", Timestamp: done},
	}
	rec, err := SaveSession(ctx, db, SaveInput{
		UserID:      "u1",
		PersonaID:   "rahul-mumbai-it",
		SessionRef:  "1717243200000",
		Messages:    msgs,
		Report:      json.RawMessage(`{"session_id":"1717243200000"}`),
		Scores:      fullScores(55),
		CompletedAt: done,
	})
	if err != nil {
		t.Fatalf("SaveSession: %v", err)
	}
	if rec.ID == "" || rec.SessionDuration != 2 || rec.OverallScore != 55 || !rec.CompletedAt.Equal(done) {
		t.Fatalf("unexpected record: %+v", rec)
	}

	got, err := GetSessionRecord(ctx, db, rec.ID, "u1")
	if err != nil {
		t.Fatalf("GetSessionRecord: %v", err)
	}
	if len(got.Messages) != 2 || got.Messages[1].Content != "What do you really want?" {
		t.Fatalf("messages not round-tripped: %+v", got.Messages)
	}
	if string(got.EvaluationReport) != `{"session_id":"1717243200000"}` {
		t.Fatalf("report not round-tripped: %s", got.EvaluationReport)
	}

	scores, err := ListUserScores(ctx, db, "u1")
	if err != nil {
		t.Fatalf("ListUserScores: %v", err)
	}
	if len(scores) != len(domain.Competencies) {
		t.Fatalf("expected %d score rows, got %d", len(domain.Competencies), len(scores))
	}
	byName := map[string]int{}
	for _, s := range scores {
		if s.SessionID != rec.ID || s.PersonaID != "rahul-mumbai-it" {
			t.Fatalf("score row not linked to session: %+v", s)
		}
		byName[s.CompetencyName] = s.Score
	}
	if byName[domain.CompetencyPowerfulQuestioning] != 70 || byName[domain.CompetencyOverall] != 55 {
		t.Fatalf("unexpected scores: %v", byName)
	}
}

func TestSaveSession_DefaultsUserAndMissingScores(t *testing.T) {
	db := newSessionRepoDB(t)
	ctx := context.Background()

	rec, err := SaveSession(ctx, db, SaveInput{PersonaID: "priya-delhi-startup", UserID: "  "})
	if err != nil {
		t.Fatalf("SaveSession: %v", err)
	}
	if rec.UserID != DefaultUserID {
		t.Fatalf("expected user %q, got %q", DefaultUserID, rec.UserID)
	}
	if rec.CompletedAt.IsZero() {
		t.Fatalf("expected CompletedAt to default to now")
	}
	scores, err := ListUserScores(ctx, db, DefaultUserID)
	if err != nil || len(scores) != 6 {
		t.Fatalf("expected 6 zero-score rows, got n=%d err=%v", len(scores), err)
	}
}

func TestSaveSession_RollsBackOnScoreFailure(t *testing.T) {
	db := newSessionRepoDB(t)
	ctx := context.Background()

	// 150 violates the score check constraint, so the whole save must fail.
	_, err := SaveSession(ctx, db, SaveInput{UserID: "u1", PersonaID: "p", Scores: fullScores(150)})
	if err == nil {
		t.Fatalf("expected constraint error")
	}
	var count int64
	if err := db.Model(&domain.CoachingSession{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected session insert to be rolled back, found %d rows", count)
	}
}

func TestSaveSession_Error_NoTable(t *testing.T) {
	db := newTestDB(t /* no migrations */)
	if _, err := SaveSession(context.Background(), db, SaveInput{UserID: "u1"}); err == nil {
		t.Fatalf("expected error when tables are missing")
	}
}

func TestListUserSessions_OrderLimitAndFilter(t *testing.T) {
	db := newSessionRepoDB(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 12; i++ {
		if _, err := SaveSession(ctx, db, SaveInput{
			UserID:      "u1",
			PersonaID:   "rahul-mumbai-it",
			SessionRef:  string(rune('a' + i)),
			Scores:      fullScores(i),
			CompletedAt: base.Add(time.Duration(i) * time.Hour),
		}); err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
	}
	if _, err := SaveSession(ctx, db, SaveInput{UserID: "u2", PersonaID: "x", CompletedAt: base.Add(100 * time.Hour)}); err != nil {
		t.Fatalf("seed other user: %v", err)
	}

	got, err := ListUserSessions(ctx, db, "u1", 0)
	if err != nil {
		t.Fatalf("ListUserSessions: %v", err)
	}
	if len(got) != DefaultSessionLimit {
		t.Fatalf("expected default limit %d, got %d", DefaultSessionLimit, len(got))
	}
	if got[0].OverallScore != 11 || got[9].OverallScore != 2 {
		t.Fatalf("expected completed_at desc, got first=%d last=%d", got[0].OverallScore, got[9].OverallScore)
	}

	got, err = ListUserSessions(ctx, db, "u1", 3)
	if err != nil || len(got) != 3 {
		t.Fatalf("expected 3 rows, got %d err=%v", len(got), err)
	}
}

func TestListPersonaSessions_Filter(t *testing.T) {
	db := newSessionRepoDB(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	seed := []struct {
		persona string
		at      time.Duration
	}{
		{"rahul-mumbai-it", 1 * time.Hour},
		{"priya-delhi-startup", 2 * time.Hour},
		{"rahul-mumbai-it", 3 * time.Hour},
	}
	for _, s := range seed {
		if _, err := SaveSession(ctx, db, SaveInput{UserID: "u1", PersonaID: s.persona, CompletedAt: base.Add(s.at)}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	got, err := ListPersonaSessions(ctx, db, "u1", "rahul-mumbai-it")
	if err != nil {
		t.Fatalf("ListPersonaSessions: %v", err)
	}
	if len(got) != 2 || !got[0].CompletedAt.Equal(base.Add(3*time.Hour)) {
		t.Fatalf("unexpected rows: %+v", got)
	}

	scores, err := ListPersonaScores(ctx, db, "u1", "priya-delhi-startup")
	if err != nil || len(scores) != 6 {
		t.Fatalf("expected 6 persona score rows, got %d err=%v", len(scores), err)
	}
}

func TestGetSessionRecord_NotFoundAndWrongOwner(t *testing.T) {
	db := newSessionRepoDB(t)
	ctx := context.Background()

	rec, err := SaveSession(ctx, db, SaveInput{UserID: "u1", PersonaID: "p"})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := GetSessionRecord(ctx, db, rec.ID, "u2"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for other owner, got %v", err)
	}
	if _, err := GetSessionRecord(ctx, db, "missing", "u1"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for missing id, got %v", err)
	}
}
