package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-coach-sim/internal/domain"
)

// ErrDuplicate means the (user, session, key) triple is already recorded.
var ErrDuplicate = errors.New("duplicate")

// FindTurnKey returns the live record for key in a session, or ErrNotFound
// when it is missing or expired at now.
func FindTurnKey(ctx context.Context, db *gorm.DB, userID, sessionID, key string, now time.Time) (*domain.TurnKey, error) {
	if strings.TrimSpace(sessionID) == "" || key == "" {
		return nil, ErrNotFound
	}
	var rec domain.TurnKey
	err := db.WithContext(ctx).
		Where("user_id = ? AND session_id = ? AND key = ? AND expires_at > ?", userID, sessionID, key, now).
		Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// RecordTurnKey stores which client message answered a keyed turn. The first
// writer wins: a second record for the same key returns ErrDuplicate and
// leaves the original untouched.
func RecordTurnKey(ctx context.Context, db *gorm.DB, userID, sessionID, key, messageID string, status int, ttl time.Duration) (*domain.TurnKey, error) {
	now := time.Now().UTC()
	rec := &domain.TurnKey{
		ID:        uuid.NewString(),
		UserID:    userID,
		SessionID: sessionID,
		Key:       key,
		MessageID: messageID,
		Status:    status,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	res := db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(rec)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrDuplicate
	}
	return rec, nil
}

// PurgeTurnKeys deletes records that expired before now and reports how many
// were removed.
func PurgeTurnKeys(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&domain.TurnKey{})
	return res.RowsAffected, res.Error
}
