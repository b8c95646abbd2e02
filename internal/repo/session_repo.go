// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for saved
// coaching sessions.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only
// persistence and query composition. Aggregation over the returned rows
// happens in the service layer.
//
// Error semantics:
//   - When a session is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
//
// Functions:
//
//   - SaveSession(ctx, db, in) -> *domain.CoachingSession, error
//     Inserts the session row and its six competency rows in one transaction.
//
//   - ListUserSessions(ctx, db, userID, limit) -> []domain.CoachingSession, error
//     Most recently completed first; limit defaults to DefaultSessionLimit.
//
//   - ListPersonaSessions(ctx, db, userID, personaID) -> []domain.CoachingSession, error
//     All of a user's sessions with one persona, most recent first.
//
//   - GetSessionRecord(ctx, db, id, userID) -> *domain.CoachingSession, error
//     Fetches one saved session, or ErrNotFound.
package repo

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-coach-sim/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// DefaultUserID owns sessions saved without a user.
const DefaultUserID = "anonymous"

// DefaultSessionLimit bounds ListUserSessions when no limit is given.
const DefaultSessionLimit = 10

// SaveInput is a finished session ready to be stored.
type SaveInput struct {
	UserID     string
	PersonaID  string
	SessionRef string
	Messages   []domain.Message
	Report     json.RawMessage
	// Scores holds one value per name in domain.Competencies. Missing
	// competencies are stored as 0.
	Scores      map[string]int
	CompletedAt time.Time
}

// SaveSession inserts the session row and one CompetencyScore row per
// competency. Either every row is written or none is.
func SaveSession(ctx context.Context, db *gorm.DB, in SaveInput) (*domain.CoachingSession, error) {
	userID := strings.TrimSpace(in.UserID)
	if userID == "" {
		userID = DefaultUserID
	}
	completed := in.CompletedAt.UTC()
	if in.CompletedAt.IsZero() {
		completed = time.Now().UTC()
	}

	s := &domain.CoachingSession{
		ID:               uuid.NewString(),
		SessionRef:       in.SessionRef,
		UserID:           userID,
		PersonaID:        in.PersonaID,
		Messages:         in.Messages,
		EvaluationReport: in.Report,
		SessionDuration:  len(in.Messages),
		OverallScore:     in.Scores[domain.CompetencyOverall],
		CompletedAt:      completed,
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(s).Error; err != nil {
			return err
		}
		rows := make([]domain.CompetencyScore, 0, len(domain.Competencies))
		for _, name := range domain.Competencies {
			rows = append(rows, domain.CompetencyScore{
				ID:             uuid.NewString(),
				UserID:         userID,
				SessionID:      s.ID,
				PersonaID:      in.PersonaID,
				CompetencyName: name,
				Score:          in.Scores[name],
				CreatedAt:      completed,
			})
		}
		return tx.Omit("Session").Create(&rows).Error
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// ListUserSessions returns userID's saved sessions, most recently completed
// first. A non-positive limit uses DefaultSessionLimit.
func ListUserSessions(ctx context.Context, db *gorm.DB, userID string, limit int) ([]domain.CoachingSession, error) {
	if limit <= 0 {
		limit = DefaultSessionLimit
	}
	var out []domain.CoachingSession
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("completed_at desc").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// ListPersonaSessions returns every session userID held with personaID,
// most recently completed first.
func ListPersonaSessions(ctx context.Context, db *gorm.DB, userID, personaID string) ([]domain.CoachingSession, error) {
	var out []domain.CoachingSession
	err := db.WithContext(ctx).
		Where("user_id = ? AND persona_id = ?", userID, personaID).
		Order("completed_at desc").
		Find(&out).Error
	return out, err
}

// GetSessionRecord fetches a saved session by its ID and owner. If the
// record does not exist, it returns ErrNotFound.
func GetSessionRecord(ctx context.Context, db *gorm.DB, id, userID string) (*domain.CoachingSession, error) {
	var s domain.CoachingSession
	err := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}
