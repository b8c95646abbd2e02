// Package services – SessionService
//
// This file implements SessionService, the application-level component that
// owns the lifecycle of a coaching session: it opens the session with the
// persona's welcome line, validates and records coach messages, asks the
// persona engine for the client's reply, evaluates the transcript while the
// session runs and when it ends, and saves the finished session for the
// dashboard.
//
// Session state lives in the user's memory.Manager (handed out by a
// memory.Pool). Saving at session end is best-effort: a failed save is
// logged and reported as saved=false, never as an error.
//
// Observability: all public methods are OpenTelemetry-instrumented; spans
// include session, persona and user identifiers.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-coach-sim/internal/domain"
	"github.com/tbourn/go-coach-sim/internal/engine"
	"github.com/tbourn/go-coach-sim/internal/evaluation"
	"github.com/tbourn/go-coach-sim/internal/memory"
	"github.com/tbourn/go-coach-sim/internal/observability"
	"github.com/tbourn/go-coach-sim/internal/persona"
	"github.com/tbourn/go-coach-sim/internal/repo"
	"github.com/tbourn/go-coach-sim/internal/summary"

	// OpenTelemetry
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultMaxMessages caps a session transcript, welcome line included.
	DefaultMaxMessages = 16
	// DefaultIdempotencyTTL is how long a recorded turn can be replayed.
	DefaultIdempotencyTTL = 24 * time.Hour
)

// Responder produces the simulated client's reply and records the exchange
// in the persona's memory. *engine.Engine implements it.
type Responder interface {
	Respond(ctx context.Context, mem *memory.Manager, personaID, coachMessage, sessionID string) (engine.Reply, error)
}

// Turn is one coach message and the client's answer. ClientMessage is nil
// when generation failed.
type Turn struct {
	CoachMessage  domain.Message  `json:"coach_message"`
	ClientMessage *domain.Message `json:"client_message,omitempty"`
	MessageCount  int             `json:"message_count"`
}

// EndResult is the evaluation of an ended session. Saved reports whether
// the session reached the database; RecordID is its row id when it did.
type EndResult struct {
	evaluation.Analysis
	Saved    bool   `json:"saved"`
	RecordID string `json:"record_id,omitempty"`
}

// SessionService coordinates coaching sessions.
type SessionService struct {
	// DB stores finished sessions and idempotency records; nil disables both.
	DB        *gorm.DB
	Catalog   *persona.Catalog
	Engine    Responder
	Memory    *memory.Pool
	Evaluator *evaluation.Evaluator
	Metrics   *observability.CoachMetrics

	// Optional guards
	MaxMessages     int
	MaxMessageRunes int
	IdempotencyTTL  time.Duration

	Now func() time.Time
}

func (s *SessionService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *SessionService) maxMessages() int {
	if s.MaxMessages > 0 {
		return s.MaxMessages
	}
	return DefaultMaxMessages
}

func (s *SessionService) evaluator() *evaluation.Evaluator {
	if s.Evaluator != nil {
		return s.Evaluator
	}
	return evaluation.New()
}

func (s *SessionService) persona(personaID string) (persona.Profile, error) {
	p, err := s.Catalog.Get(personaID)
	if errors.Is(err, persona.ErrUnknownPersona) {
		return persona.Profile{}, ErrPersonaNotFound
	}
	return p, err
}

// session leases the user's manager and reads sessionID from it. release is
// always non-nil and must be called, also on error.
func (s *SessionService) session(ctx context.Context, userID, sessionID string) (*memory.Manager, memory.Session, func(), error) {
	mgr, release := s.Memory.For(ctx, userID)
	sess, err := mgr.Session(sessionID)
	if err != nil {
		return nil, memory.Session{}, release, ErrSessionNotFound
	}
	return mgr, sess, release, nil
}

func startSpan(ctx context.Context, name, op, userID, sessionID string) (context.Context, trace.Span) {
	return observability.Tracer("services/"+name).Start(ctx, op,
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("session.id", sessionID),
		),
	)
}

// Start opens a session with personaID. The persona's welcome line is the
// first transcript message, so a new session has a message count of 1. The
// welcome line is not added to the persona's conversation memory.
func (s *SessionService) Start(ctx context.Context, userID, personaID string) (memory.Session, domain.Message, error) {
	ctx, span := startSpan(ctx, "SessionService", "Start", userID, "")
	defer span.End()
	span.SetAttributes(attribute.String("persona.id", personaID))

	p, err := s.persona(personaID)
	if err != nil {
		return memory.Session{}, domain.Message{}, err
	}
	mgr, release := s.Memory.For(ctx, userID)
	defer release()
	sess := mgr.CreateSession(ctx, personaID)
	welcome := domain.Message{
		ID:        sess.ID + "_welcome",
		Role:      domain.RoleClient,
		Content:   persona.WelcomeMessage(p),
		Timestamp: s.now(),
	}
	sess, err = mgr.RecordTurn(ctx, sess.ID, welcome)
	if err != nil {
		return memory.Session{}, domain.Message{}, err
	}
	s.Metrics.SessionStarted()
	log.Info().Str("user_id", userID).Str("persona_id", personaID).Str("session_id", sess.ID).Msg("session started")
	return sess, welcome, nil
}

// Get returns the session transcript.
func (s *SessionService) Get(ctx context.Context, userID, sessionID string) (memory.Session, error) {
	ctx, span := startSpan(ctx, "SessionService", "Get", userID, sessionID)
	defer span.End()

	_, sess, release, err := s.session(ctx, userID, sessionID)
	defer release()
	return sess, err
}

// Post records a coach message and the client's reply. When generation
// fails the coach message stays recorded and the returned error wraps
// ErrGeneration. A second Post on the session while one is waiting for its
// reply fails with ErrTurnPending.
func (s *SessionService) Post(ctx context.Context, userID, sessionID, content string) (Turn, error) {
	ctx, span := startSpan(ctx, "SessionService", "Post", userID, sessionID)
	defer span.End()

	// Normalize & validate
	content = strings.TrimSpace(content)
	if content == "" {
		return Turn{}, ErrEmptyMessage
	}
	if s.MaxMessageRunes > 0 && utf8.RuneCountInString(content) > s.MaxMessageRunes {
		return Turn{}, ErrTooLong
	}

	mgr, sess, release, err := s.session(ctx, userID, sessionID)
	defer release()
	if err != nil {
		return Turn{}, err
	}
	if sess.Ended() {
		return Turn{}, ErrSessionEnded
	}
	if sess.MessageCount() >= s.maxMessages() {
		return Turn{}, ErrSessionFull
	}
	span.SetAttributes(attribute.String("persona.id", sess.PersonaID))

	// One turn at a time per session keeps the transcript strictly
	// alternating coach, client.
	done, ok := mgr.BeginTurn(sessionID)
	if !ok {
		return Turn{}, ErrTurnPending
	}
	defer done()

	coach := domain.Message{ID: uuid.NewString(), Role: domain.RoleCoach, Content: content, Timestamp: s.now()}
	sess, err = mgr.RecordTurn(ctx, sessionID, coach)
	if err != nil {
		return Turn{}, ErrSessionEnded
	}
	turn := Turn{CoachMessage: coach, MessageCount: sess.MessageCount()}

	reply, err := s.Engine.Respond(ctx, mgr, sess.PersonaID, content, sessionID)
	s.Metrics.Turn(reply.Repaired, reply.FellBack, err)
	if err != nil {
		span.RecordError(err)
		log.Error().Err(err).Str("user_id", userID).Str("session_id", sessionID).Str("persona_id", sess.PersonaID).Msg("client reply generation failed")
		return turn, fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	client := domain.Message{ID: uuid.NewString(), Role: domain.RoleClient, Content: reply.Text, Timestamp: s.now()}
	sess, err = mgr.RecordTurn(ctx, sessionID, client)
	if err != nil {
		return turn, err
	}
	turn.ClientMessage = &client
	turn.MessageCount = sess.MessageCount()
	return turn, nil
}

// Replay rebuilds the turn whose client reply has id clientMessageID.
func (s *SessionService) Replay(ctx context.Context, userID, sessionID, clientMessageID string) (Turn, error) {
	ctx, span := startSpan(ctx, "SessionService", "Replay", userID, sessionID)
	defer span.End()

	_, sess, release, err := s.session(ctx, userID, sessionID)
	defer release()
	if err != nil {
		return Turn{}, err
	}
	for i, m := range sess.Messages {
		if m.ID != clientMessageID || !m.IsClient() {
			continue
		}
		client := m
		turn := Turn{ClientMessage: &client, MessageCount: sess.MessageCount()}
		for j := i - 1; j >= 0; j-- {
			if sess.Messages[j].IsCoach() {
				turn.CoachMessage = sess.Messages[j]
				break
			}
		}
		return turn, nil
	}
	return Turn{}, ErrMessageNotFound
}

// Lookup returns the turn recorded under an idempotency key, if any.
func (s *SessionService) Lookup(ctx context.Context, userID, sessionID, key string) (Turn, bool) {
	if s.DB == nil || key == "" {
		return Turn{}, false
	}
	rec, err := repo.FindTurnKey(ctx, s.DB, userID, sessionID, key, s.now())
	if err != nil {
		return Turn{}, false
	}
	turn, err := s.Replay(ctx, userID, sessionID, rec.MessageID)
	if err != nil {
		return Turn{}, false
	}
	return turn, true
}

// Remember records turn under an idempotency key. Failures are logged.
func (s *SessionService) Remember(ctx context.Context, userID, sessionID, key string, turn Turn, status int) {
	if s.DB == nil || key == "" || turn.ClientMessage == nil {
		return
	}
	ttl := s.IdempotencyTTL
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	if _, err := repo.RecordTurnKey(ctx, s.DB, userID, sessionID, key, turn.ClientMessage.ID, status, ttl); err != nil && !errors.Is(err, repo.ErrDuplicate) {
		log.Warn().Err(err).Str("user_id", userID).Str("session_id", sessionID).Msg("idempotency record not stored")
	}
}

// Live evaluates the transcript so far.
func (s *SessionService) Live(ctx context.Context, userID, sessionID string) (evaluation.LiveEvaluation, error) {
	ctx, span := startSpan(ctx, "SessionService", "Live", userID, sessionID)
	defer span.End()

	_, sess, release, err := s.session(ctx, userID, sessionID)
	defer release()
	if err != nil {
		return evaluation.LiveEvaluation{}, err
	}
	return evaluation.Live(sess.Messages), nil
}

// Summary describes the client's situation as it emerged in the session.
func (s *SessionService) Summary(ctx context.Context, userID, sessionID string) (string, error) {
	ctx, span := startSpan(ctx, "SessionService", "Summary", userID, sessionID)
	defer span.End()

	_, sess, release, err := s.session(ctx, userID, sessionID)
	defer release()
	if err != nil {
		return "", err
	}
	p, err := s.persona(sess.PersonaID)
	if err != nil {
		return "", err
	}
	return summary.Generate(sess.Messages, p, len(sess.Messages)/2), nil
}

// End closes the session, evaluates it and saves it for the dashboard.
func (s *SessionService) End(ctx context.Context, userID, sessionID string) (EndResult, error) {
	ctx, span := startSpan(ctx, "SessionService", "End", userID, sessionID)
	defer span.End()

	mgr, sess, release, err := s.session(ctx, userID, sessionID)
	defer release()
	if err != nil {
		return EndResult{}, err
	}
	p, err := s.persona(sess.PersonaID)
	if err != nil {
		return EndResult{}, err
	}
	if sess, err = mgr.EndSession(ctx, sessionID); err != nil {
		if errors.Is(err, memory.ErrSessionEnded) {
			return EndResult{}, ErrSessionEnded
		}
		return EndResult{}, ErrSessionNotFound
	}

	analysis := s.evaluator().Analyze(evaluation.Transcript{
		SessionID: sess.ID,
		PersonaID: sess.PersonaID,
		Messages:  sess.Messages,
	}, p)
	res := EndResult{Analysis: analysis}
	overall := analysis.Report.CoachPerformance.OverallEffectiveness.Score
	s.Metrics.SessionEnded(overall)
	span.SetAttributes(attribute.Int("report.overall", overall))

	if s.DB != nil {
		rec, err := s.save(ctx, userID, sess, analysis.Report)
		if err != nil {
			log.Error().Err(err).Str("user_id", userID).Str("session_id", sessionID).Msg("session save failed")
		} else {
			res.Saved, res.RecordID = true, rec.ID
		}
	}
	return res, nil
}

func (s *SessionService) save(ctx context.Context, userID string, sess memory.Session, r evaluation.Report) (*domain.CoachingSession, error) {
	raw, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	completed := s.now()
	if sess.EndTime != nil {
		completed = *sess.EndTime
	}
	return repo.SaveSession(ctx, s.DB, repo.SaveInput{
		UserID:      userID,
		PersonaID:   sess.PersonaID,
		SessionRef:  sess.ID,
		Messages:    sess.Messages,
		Report:      raw,
		Scores:      CompetencyScores(r),
		CompletedAt: completed,
	})
}

// CompetencyScores maps a report to the stored competency names.
func CompetencyScores(r evaluation.Report) map[string]int {
	cp := r.CoachPerformance
	return map[string]int{
		domain.CompetencyActiveListening:      cp.ActiveListening.Score,
		domain.CompetencyPowerfulQuestioning:  cp.PowerfulQuestioning.Score,
		domain.CompetencyRapportBuilding:      cp.RapportBuilding.Score,
		domain.CompetencyGoalSetting:          cp.GoalSetting.Score,
		domain.CompetencyBreakthroughCreation: cp.BreakthroughCreation.Score,
		domain.CompetencyOverall:              cp.OverallEffectiveness.Score,
	}
}

// History returns the user's sessions with personaID, newest first.
func (s *SessionService) History(ctx context.Context, userID, personaID string) ([]memory.Session, error) {
	ctx, span := startSpan(ctx, "SessionService", "History", userID, "")
	defer span.End()

	if _, err := s.persona(personaID); err != nil {
		return nil, err
	}
	mgr, release := s.Memory.For(ctx, userID)
	defer release()
	return mgr.SessionHistory(personaID), nil
}
