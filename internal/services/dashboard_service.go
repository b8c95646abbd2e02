// Package services – DashboardService
//
// This file implements the DashboardService, which reads saved sessions and
// competency scores back for the progress dashboard and aggregates them:
// overall user statistics, per-persona statistics and the progress between
// the two most recent sessions.
//
// Every read failure is wrapped in ErrConnection so handlers can answer with
// a single retryable "connection error".
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-coach-sim/internal/domain"
	"github.com/tbourn/go-coach-sim/internal/evaluation"
)

// NoneYet names the strongest and weakest area before any session is saved.
const NoneYet = "None yet"

// DashboardRepo defines the repository contract required by DashboardService.
type DashboardRepo interface {
	// ListUserSessions returns the user's sessions, most recent first.
	ListUserSessions(ctx context.Context, db *gorm.DB, userID string, limit int) ([]domain.CoachingSession, error)

	// GetSessionRecord returns one saved session owned by userID, or
	// gorm.ErrRecordNotFound.
	GetSessionRecord(ctx context.Context, db *gorm.DB, id, userID string) (*domain.CoachingSession, error)

	// ListPersonaSessions returns the user's sessions with one persona, most recent first.
	ListPersonaSessions(ctx context.Context, db *gorm.DB, userID, personaID string) ([]domain.CoachingSession, error)

	// ListUserScores returns the user's competency scores, oldest first.
	ListUserScores(ctx context.Context, db *gorm.DB, userID string) ([]domain.CompetencyScore, error)

	// ListPersonaScores returns the user's scores with one persona, oldest first.
	ListPersonaScores(ctx context.Context, db *gorm.DB, userID, personaID string) ([]domain.CompetencyScore, error)

	// SessionsStats returns the session count and latest update for ETags.
	SessionsStats(ctx context.Context, db *gorm.DB, userID string) (int64, *time.Time, error)

	// Ping checks connectivity.
	Ping(ctx context.Context, db *gorm.DB) error
}

// UserStats aggregates every saved score of a user.
type UserStats struct {
	TotalSessions int            `json:"total_sessions"`
	AverageScores map[string]int `json:"average_scores"`
	StrongestArea string         `json:"strongest_area"`
	WeakestArea   string         `json:"weakest_area"`
	RecentTrend   int            `json:"recent_trend"`
}

// PersonaStats aggregates a user's sessions with one persona.
type PersonaStats struct {
	PersonaID          string             `json:"persona_id"`
	TotalSessions      int                `json:"total_sessions"`
	AverageScore       int                `json:"average_score"`
	CompetencyAverages map[string]float64 `json:"competency_averages"`
}

// DashboardService provides the read side of saved sessions.
type DashboardService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the repository used by this service.
	Repo DashboardRepo
	// Limit is the default page for Sessions; <= 0 uses the repository default.
	Limit int
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(db *gorm.DB, r DashboardRepo) *DashboardService {
	return &DashboardService{DB: db, Repo: r}
}

func connErr(err error) error {
	return fmt.Errorf("%w: %v", ErrConnection, err)
}

// Sessions returns up to limit of the user's most recent saved sessions.
// A non-positive limit falls back to s.Limit.
func (s *DashboardService) Sessions(ctx context.Context, userID string, limit int) ([]domain.CoachingSession, error) {
	ctx, span := startSpan(ctx, "DashboardService", "Sessions", userID, "")
	defer span.End()

	if limit <= 0 {
		limit = s.Limit
	}
	out, err := s.Repo.ListUserSessions(ctx, s.DB, userID, limit)
	if err != nil {
		return nil, connErr(err)
	}
	return out, nil
}

// Session returns one saved session with its transcript and report. An id
// the user does not own reads as ErrSessionNotFound.
func (s *DashboardService) Session(ctx context.Context, userID, id string) (*domain.CoachingSession, error) {
	ctx, span := startSpan(ctx, "DashboardService", "Session", userID, id)
	defer span.End()

	rec, err := s.Repo.GetSessionRecord(ctx, s.DB, id, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, connErr(err)
	}
	return rec, nil
}

// Stamp returns the number of saved sessions and the latest update time,
// for conditional responses.
func (s *DashboardService) Stamp(ctx context.Context, userID string) (int64, *time.Time, error) {
	count, at, err := s.Repo.SessionsStats(ctx, s.DB, userID)
	if err != nil {
		return 0, nil, connErr(err)
	}
	return count, at, nil
}

// Stats aggregates the user's competency scores. Six rows make a session;
// the trend is the last overall score minus the first.
func (s *DashboardService) Stats(ctx context.Context, userID string) (UserStats, error) {
	ctx, span := startSpan(ctx, "DashboardService", "Stats", userID, "")
	defer span.End()

	rows, err := s.Repo.ListUserScores(ctx, s.DB, userID)
	if err != nil {
		return UserStats{}, connErr(err)
	}
	return AggregateUserStats(rows), nil
}

// AggregateUserStats computes UserStats from score rows ordered oldest first.
func AggregateUserStats(rows []domain.CompetencyScore) UserStats {
	out := UserStats{
		TotalSessions: len(rows) / len(domain.Competencies),
		AverageScores: map[string]int{},
		StrongestArea: NoneYet,
		WeakestArea:   NoneYet,
	}
	if len(rows) == 0 {
		return out
	}

	sums := map[string]int{}
	counts := map[string]int{}
	var overall []int
	for _, r := range rows {
		sums[r.CompetencyName] += r.Score
		counts[r.CompetencyName]++
		if r.CompetencyName == domain.CompetencyOverall {
			overall = append(overall, r.Score)
		}
	}

	best, worst := math.Inf(-1), math.Inf(1)
	for _, name := range domain.Competencies {
		n := counts[name]
		if n == 0 {
			continue
		}
		avg := float64(sums[name]) / float64(n)
		out.AverageScores[name] = int(math.Round(avg))
		// Ties go to the later competency.
		if avg >= best {
			best, out.StrongestArea = avg, name
		}
		if avg <= worst {
			worst, out.WeakestArea = avg, name
		}
	}
	if len(overall) > 1 {
		out.RecentTrend = overall[len(overall)-1] - overall[0]
	}
	return out
}

// PersonaStats aggregates the user's sessions with personaID. Zero scores
// do not count toward the competency averages.
func (s *DashboardService) PersonaStats(ctx context.Context, userID, personaID string) (PersonaStats, error) {
	ctx, span := startSpan(ctx, "DashboardService", "PersonaStats", userID, "")
	defer span.End()

	sessions, err := s.Repo.ListPersonaSessions(ctx, s.DB, userID, personaID)
	if err != nil {
		return PersonaStats{}, connErr(err)
	}
	out := PersonaStats{PersonaID: personaID, TotalSessions: len(sessions), CompetencyAverages: map[string]float64{}}
	if len(sessions) == 0 {
		return out, nil
	}
	total := 0
	for _, sess := range sessions {
		total += sess.OverallScore
	}
	out.AverageScore = int(math.Round(float64(total) / float64(len(sessions))))

	rows, err := s.Repo.ListPersonaScores(ctx, s.DB, userID, personaID)
	if err != nil {
		return PersonaStats{}, connErr(err)
	}
	sums := map[string]int{}
	counts := map[string]int{}
	for _, r := range rows {
		if r.CompetencyName == domain.CompetencyOverall || r.Score == 0 {
			continue
		}
		sums[r.CompetencyName] += r.Score
		counts[r.CompetencyName]++
	}
	for name, n := range counts {
		out.CompetencyAverages[name] = float64(sums[name]) / float64(n)
	}
	return out, nil
}

// Progress compares the two most recent saved reports, either with one
// persona or, when personaID is empty, across the latest sessions. The
// boolean is false when fewer than two reports exist. Reports that cannot
// be decoded are skipped.
func (s *DashboardService) Progress(ctx context.Context, userID, personaID string) (evaluation.ProgressReport, bool, error) {
	ctx, span := startSpan(ctx, "DashboardService", "Progress", userID, "")
	defer span.End()

	var (
		sessions []domain.CoachingSession
		err      error
	)
	if personaID != "" {
		sessions, err = s.Repo.ListPersonaSessions(ctx, s.DB, userID, personaID)
	} else {
		sessions, err = s.Repo.ListUserSessions(ctx, s.DB, userID, s.Limit)
	}
	if err != nil {
		return evaluation.ProgressReport{}, false, connErr(err)
	}

	// Sessions arrive newest first; Progress wants oldest first.
	history := make([]evaluation.Report, 0, len(sessions))
	for i := len(sessions) - 1; i >= 0; i-- {
		var r evaluation.Report
		if err := json.Unmarshal(sessions[i].EvaluationReport, &r); err != nil {
			log.Warn().Err(err).Str("record_id", sessions[i].ID).Msg("skipping undecodable evaluation report")
			continue
		}
		history = append(history, r)
	}
	pr, ok := evaluation.Progress(history)
	return pr, ok, nil
}

// Ping checks the database connection.
func (s *DashboardService) Ping(ctx context.Context) error {
	if s.DB == nil {
		return connErr(errors.New("no database configured"))
	}
	if err := s.Repo.Ping(ctx, s.DB); err != nil {
		return connErr(err)
	}
	return nil
}
