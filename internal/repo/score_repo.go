package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-coach-sim/internal/domain"
)

// ListUserScores returns every competency score of userID in the order the
// sessions were completed (oldest first).
func ListUserScores(ctx context.Context, db *gorm.DB, userID string) ([]domain.CompetencyScore, error) {
	var out []domain.CompetencyScore
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at asc").
		Find(&out).Error
	return out, err
}

// ListPersonaScores is ListUserScores restricted to one persona.
func ListPersonaScores(ctx context.Context, db *gorm.DB, userID, personaID string) ([]domain.CompetencyScore, error) {
	var out []domain.CompetencyScore
	err := db.WithContext(ctx).
		Where("user_id = ? AND persona_id = ?", userID, personaID).
		Order("created_at asc").
		Find(&out).Error
	return out, err
}
