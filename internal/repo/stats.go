package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-coach-sim/internal/domain"
)

// SessionsStats returns how many sessions the user has saved and when the
// newest one was last written, for ETag stamps. latest is nil when count is
// zero.
func SessionsStats(ctx context.Context, db *gorm.DB, userID string) (count int64, latest *time.Time, err error) {
	owned := func() *gorm.DB {
		return db.WithContext(ctx).Model(&domain.CoachingSession{}).Where("user_id = ?", userID)
	}
	if err := owned().Count(&count).Error; err != nil || count == 0 {
		return 0, nil, err
	}

	// MAX(updated_at) comes back as TEXT from SQLite; order instead.
	var newest domain.CoachingSession
	if err := owned().Select("updated_at").Order("updated_at DESC").Take(&newest).Error; err != nil {
		return 0, nil, err
	}
	return count, &newest.UpdatedAt, nil
}
