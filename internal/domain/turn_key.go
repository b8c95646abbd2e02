package domain

import "time"

// TurnKey remembers which client reply a coaching turn produced under an
// Idempotency-Key. Keys are scoped to (user, session): the same key in
// another session is a different turn.
type TurnKey struct {
	ID        string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	UserID    string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_turn_keys_scope,priority:1"`
	SessionID string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_turn_keys_scope,priority:2"`
	Key       string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_turn_keys_scope,priority:3"`
	MessageID string    `gorm:"type:TEXT NOT NULL"` // the client reply
	Status    int       `gorm:"type:INTEGER NOT NULL"`
	CreatedAt time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	ExpiresAt time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

func (TurnKey) TableName() string { return "turn_keys" }

// Live reports whether the key can still be replayed at now.
func (k TurnKey) Live(now time.Time) bool { return now.Before(k.ExpiresAt) }
