// Package domain defines the transcript types shared across the coaching
// engine and the GORM persistence models for finished sessions, competency
// scores, and client-scoped key-value state.
package domain

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// Role identifies the speaker of a transcript message.
type Role string

const (
	RoleCoach  Role = "coach"
	RoleClient Role = "client"
)

// Message is a single turn in a coaching conversation. Messages are created
// once and never edited; slice order is conversational order.
//
// EmotionalTone and Technique are optional annotations. The evaluator does
// not read them.
type Message struct {
	ID            string    `json:"id"`
	Role          Role      `json:"role"`
	Content       string    `json:"content"`
	Timestamp     time.Time `json:"timestamp"`
	EmotionalTone string    `json:"emotional_tone,omitempty"`
	Technique     string    `json:"technique,omitempty"`
}

// IsCoach reports whether m was written by the coach.
func (m Message) IsCoach() bool { return m.Role == RoleCoach }

// IsClient reports whether m was written by the simulated client.
func (m Message) IsClient() bool { return m.Role == RoleClient }

// CoachingSession is a finished session as stored for the dashboard.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - SessionRef: the in-memory session id the record was produced from.
//   - UserID: owner; indexed together with CompletedAt for listing.
//   - PersonaID: the simulated client.
//   - Messages: full transcript, JSON encoded.
//   - EvaluationReport: the evaluation report, JSON encoded as produced.
//   - SessionDuration: number of transcript messages.
//   - OverallScore: overall effectiveness, denormalized for sorting.
//   - CompletedAt: when the session ended.
type CoachingSession struct {
	ID               string          `json:"id"                gorm:"type:char(36);primaryKey"`
	SessionRef       string          `json:"session_ref"       gorm:"type:varchar(32);index"`
	UserID           string          `json:"user_id"           gorm:"type:varchar(64);not null;index:idx_user_sessions,priority:1"`
	PersonaID        string          `json:"persona_id"        gorm:"type:varchar(64);not null;index"`
	Messages         []Message       `json:"messages"          gorm:"type:text;serializer:json"`
	EvaluationReport json.RawMessage `json:"evaluation_report" gorm:"type:text;serializer:json"`
	SessionDuration  int             `json:"session_duration"  gorm:"not null;default:0"`
	OverallScore     int             `json:"overall_score"     gorm:"not null;default:0"`
	CompletedAt      time.Time       `json:"completed_at"      gorm:"index:idx_user_sessions,priority:2"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	DeletedAt        gorm.DeletedAt  `json:"-"                 gorm:"index"`
}

// TableName returns the database table name for CoachingSession.
func (CoachingSession) TableName() string { return "coaching_sessions" }

// Competency names as stored in user_progress.
const (
	CompetencyActiveListening      = "activeListening"
	CompetencyPowerfulQuestioning  = "powerfulQuestioning"
	CompetencyRapportBuilding      = "rapportBuilding"
	CompetencyGoalSetting          = "goalSetting"
	CompetencyBreakthroughCreation = "breakthroughCreation"
	CompetencyOverall              = "overallEffectiveness"
)

// Competencies lists the stored competency names in report order.
var Competencies = []string{
	CompetencyActiveListening,
	CompetencyPowerfulQuestioning,
	CompetencyRapportBuilding,
	CompetencyGoalSetting,
	CompetencyBreakthroughCreation,
	CompetencyOverall,
}

// CompetencyScore is one per-competency score of a saved session. Every
// saved session owns exactly len(Competencies) rows, cascade-deleted with it.
type CompetencyScore struct {
	ID             string    `json:"id"              gorm:"type:char(36);primaryKey"`
	UserID         string    `json:"user_id"         gorm:"type:varchar(64);not null;index:idx_user_progress,priority:1"`
	SessionID      string    `json:"session_id"      gorm:"type:char(36);not null;index"`
	PersonaID      string    `json:"persona_id"      gorm:"type:varchar(64);not null;index"`
	CompetencyName string    `json:"competency_name" gorm:"type:varchar(32);not null;check:competency_name IN ('activeListening','powerfulQuestioning','rapportBuilding','goalSetting','breakthroughCreation','overallEffectiveness')"`
	Score          int       `json:"score"           gorm:"not null;check:score BETWEEN 0 AND 100"`
	CreatedAt      time.Time `json:"created_at"      gorm:"index:idx_user_progress,priority:2"`

	Session CoachingSession `json:"-" gorm:"foreignKey:SessionID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for CompetencyScore.
func (CompetencyScore) TableName() string { return "user_progress" }

// KVEntry backs the key-value store. Namespace scopes keys per user.
type KVEntry struct {
	Namespace string    `gorm:"type:varchar(64);primaryKey"`
	Key       string    `gorm:"type:varchar(128);primaryKey"`
	Value     []byte    `gorm:"type:blob;not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the database table name for KVEntry.
func (KVEntry) TableName() string { return "kv_entries" }
