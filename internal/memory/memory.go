// Package memory keeps the per-persona conversational memory and the
// in-flight coaching sessions of one user.
//
// A Manager owns two maps (persona id → PersonaMemory, session id → Session)
// and persists both as a single JSON document under one key of a kv.Store
// after every mutation. Persistence is best-effort: write failures are
// logged and never returned, and a missing or corrupt document loads as
// empty state.
//
// Invariants:
//   - ConversationHistory holds at most MaxHistory messages (oldest evicted).
//   - EmotionalJourney holds at most MaxJourney entries (oldest evicted).
//   - A session's EndTime is set at most once.
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-coach-sim/internal/domain"
	"github.com/tbourn/go-coach-sim/internal/kv"
)

const (
	// StorageKey is the kv key holding the serialized state.
	StorageKey = "coaching_app_memory"

	MaxHistory = 50
	MaxJourney = 20

	// DefaultContextSummary seeds a fresh PersonaMemory.
	DefaultContextSummary = "New coaching relationship beginning."

	neutral = "neutral"
)

var (
	// ErrSessionNotFound is returned for unknown session ids.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionEnded is returned by EndSession when the session already ended.
	ErrSessionEnded = errors.New("session already ended")
)

// EmotionEntry is one step of a persona's emotional journey.
type EmotionEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Emotion   string    `json:"emotion"`
	Trigger   string    `json:"trigger"`
}

// KeyMemory is a notable fact the coach recorded about the client.
type KeyMemory struct {
	Timestamp  time.Time `json:"timestamp"`
	Content    string    `json:"content"`
	Importance string    `json:"importance"`
}

// Progress accumulates coaching outcomes. All lists are append-only.
type Progress struct {
	InsightsGained  []string `json:"insights_gained"`
	BehaviorChanges []string `json:"behavior_changes"`
	GoalsSet        []string `json:"goals_set"`
	GoalsAchieved   []string `json:"goals_achieved"`
}

// PersonaMemory is everything remembered about one simulated client.
type PersonaMemory struct {
	PersonaID           string           `json:"persona_id"`
	ConversationHistory []domain.Message `json:"conversation_history"`
	EmotionalJourney    []EmotionEntry   `json:"emotional_journey"`
	KeyMemories         []KeyMemory      `json:"key_memories"`
	CoachingProgress    Progress         `json:"coaching_progress"`
	ContextSummary      string           `json:"context_summary"`
}

// EmotionalState is the persona's emotional snapshot for one session.
type EmotionalState struct {
	Initial     string   `json:"initial"`
	Current     string   `json:"current"`
	Progression []string `json:"progression"`
}

// Session is one coaching session. Messages is the session transcript,
// including the client's welcome line.
type Session struct {
	ID             string           `json:"id"`
	PersonaID      string           `json:"persona_id"`
	StartTime      time.Time        `json:"start_time"`
	EndTime        *time.Time       `json:"end_time,omitempty"`
	Messages       []domain.Message `json:"messages"`
	Goals          []string         `json:"session_goals"`
	Insights       []string         `json:"key_insights"`
	Breakthroughs  []string         `json:"breakthrough_moments"`
	EmotionalState EmotionalState   `json:"persona_emotional_state"`
}

// Ended reports whether EndSession has been called.
func (s Session) Ended() bool { return s.EndTime != nil }

// MessageCount is the number of transcript messages.
func (s Session) MessageCount() int { return len(s.Messages) }

type snapshot struct {
	Memories map[string]*PersonaMemory `json:"memories"`
	Sessions map[string]*Session       `json:"sessions"`
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithKey overrides StorageKey.
func WithKey(key string) Option {
	return func(m *Manager) {
		if key != "" {
			m.key = key
		}
	}
}

// Manager is safe for concurrent use.
type Manager struct {
	mu       sync.Mutex
	store    kv.Store
	key      string
	now      func() time.Time
	memories map[string]*PersonaMemory
	sessions map[string]*Session
	lastID   int64
	pending  map[string]struct{}
}

// NewManager returns an empty Manager over store. Call Load to rehydrate.
func NewManager(store kv.Store, opts ...Option) *Manager {
	m := &Manager{
		store:    store,
		key:      StorageKey,
		now:      time.Now,
		memories: make(map[string]*PersonaMemory),
		sessions: make(map[string]*Session),
		pending:  make(map[string]struct{}),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Load replaces in-memory state with the stored document. A missing document
// is not an error. A corrupt document resets state to empty and returns the
// decode error so the caller can log it.
func (m *Manager) Load(ctx context.Context) error {
	raw, err := m.store.Get(ctx, m.key)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.memories = make(map[string]*PersonaMemory)
	m.sessions = make(map[string]*Session)
	m.lastID = 0
	if errors.Is(err, kv.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load memory: %w", err)
	}
	var snap snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return fmt.Errorf("decode memory: %w", err)
	}
	for id, mem := range snap.Memories {
		if mem != nil {
			mem.PersonaID = id
			m.memories[id] = mem
		}
	}
	for id, s := range snap.Sessions {
		if s == nil {
			continue
		}
		s.ID = id
		m.sessions[id] = s
		if n, err := strconv.ParseInt(id, 10, 64); err == nil && n > m.lastID {
			m.lastID = n
		}
	}
	return nil
}

// persist writes the full state. Callers hold m.mu.
func (m *Manager) persist(ctx context.Context) {
	raw, err := json.Marshal(snapshot{Memories: m.memories, Sessions: m.sessions})
	if err != nil {
		log.Error().Err(err).Msg("memory: encode state")
		return
	}
	if err := m.store.Set(ctx, m.key, raw); err != nil {
		log.Warn().Err(err).Str("key", m.key).Msg("memory: persist state")
	}
}

func (m *Manager) memoryLocked(ctx context.Context, personaID string) *PersonaMemory {
	mem, ok := m.memories[personaID]
	if !ok {
		mem = &PersonaMemory{
			PersonaID:      personaID,
			ContextSummary: DefaultContextSummary,
		}
		m.memories[personaID] = mem
		m.persist(ctx)
	}
	return mem
}

// Memory returns a copy of the persona's memory, creating an empty one on
// first access.
func (m *Manager) Memory(ctx context.Context, personaID string) PersonaMemory {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneMemory(m.memoryLocked(ctx, personaID))
}

// AppendMessage adds msg to the persona's history and evicts the oldest
// entries beyond MaxHistory.
func (m *Manager) AppendMessage(ctx context.Context, personaID string, msg domain.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mem := m.memoryLocked(ctx, personaID)
	mem.ConversationHistory = append(mem.ConversationHistory, msg)
	if n := len(mem.ConversationHistory); n > MaxHistory {
		mem.ConversationHistory = append([]domain.Message(nil), mem.ConversationHistory[n-MaxHistory:]...)
	}
	m.persist(ctx)
}

type cue struct {
	keywords []string
	emotion  string
	trigger  string
}

// emotionCues are checked in order; the first matching set wins per message.
var emotionCues = []cue{
	{[]string{"frustrated", "angry"}, "frustrated", "work situation"},
	{[]string{"excited", "hopeful"}, "hopeful", "breakthrough moment"},
	{[]string{"confused", "unclear"}, "confused", "complex situation"},
	{[]string{"motivated", "ready"}, "motivated", "action planning"},
}

// DetectCue returns the first emotional cue found in msgs, scanning in order.
func DetectCue(msgs []domain.Message) (emotion, trigger string, ok bool) {
	for _, msg := range msgs {
		content := strings.ToLower(msg.Content)
		for _, c := range emotionCues {
			for _, k := range c.keywords {
				if strings.Contains(content, k) {
					return c.emotion, c.trigger, true
				}
			}
		}
	}
	return "", "", false
}

// UpdateEmotionalState derives at most one journey entry from the last four
// history messages and regenerates the context summary. It does nothing when
// sessionID is unknown.
func (m *Manager) UpdateEmotionalState(ctx context.Context, personaID, sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return
	}
	mem := m.memoryLocked(ctx, personaID)

	recent := mem.ConversationHistory
	if len(recent) > 4 {
		recent = recent[len(recent)-4:]
	}
	if emotion, trigger, found := DetectCue(recent); found {
		mem.EmotionalJourney = append(mem.EmotionalJourney, EmotionEntry{
			Timestamp: m.now().UTC(),
			Emotion:   emotion,
			Trigger:   trigger,
		})
		if n := len(mem.EmotionalJourney); n > MaxJourney {
			mem.EmotionalJourney = append([]EmotionEntry(nil), mem.EmotionalJourney[n-MaxJourney:]...)
		}
		s.EmotionalState.Current = emotion
		s.EmotionalState.Progression = append(s.EmotionalState.Progression, emotion)
	}
	mem.ContextSummary = Summarize(*mem)
	m.persist(ctx)
}

// Summarize renders the context summary for mem.
func Summarize(mem PersonaMemory) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d messages exchanged. ", len(mem.ConversationHistory))

	journey := mem.EmotionalJourney
	if len(journey) > 3 {
		journey = journey[len(journey)-3:]
	}
	if len(journey) > 0 {
		names := make([]string, len(journey))
		for i, e := range journey {
			names[i] = e.Emotion
		}
		fmt.Fprintf(&b, "Recent emotional progression: %s. ", strings.Join(names, " → "))
	}
	if n := len(mem.CoachingProgress.InsightsGained); n > 0 {
		fmt.Fprintf(&b, "%d insights gained. ", n)
	}
	b.WriteString("Coaching relationship developing.")
	return b.String()
}

// CreateSession starts a session for personaID. The id is the creation time
// in Unix milliseconds, bumped when needed to stay unique within m.
func (m *Manager) CreateSession(ctx context.Context, personaID string) Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now().UTC()
	id := now.UnixMilli()
	if id <= m.lastID {
		id = m.lastID + 1
	}
	m.lastID = id
	s := &Session{
		ID:        strconv.FormatInt(id, 10),
		PersonaID: personaID,
		StartTime: now,
		EmotionalState: EmotionalState{
			Initial:     neutral,
			Current:     neutral,
			Progression: []string{},
		},
	}
	m.sessions[s.ID] = s
	m.persist(ctx)
	return cloneSession(s)
}

// RecordTurn appends msgs to the session transcript.
func (m *Manager) RecordTurn(ctx context.Context, sessionID string, msgs ...domain.Message) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	if s.Ended() {
		return cloneSession(s), ErrSessionEnded
	}
	s.Messages = append(s.Messages, msgs...)
	m.persist(ctx)
	return cloneSession(s), nil
}

// BeginTurn marks a turn as pending on sessionID. It reports false while
// another turn on the same session is pending. Otherwise the caller must call
// done when the turn is complete.
func (m *Manager) BeginTurn(sessionID string) (done func(), ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, busy := m.pending[sessionID]; busy {
		return nil, false
	}
	m.pending[sessionID] = struct{}{}
	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.pending, sessionID)
			m.mu.Unlock()
		})
	}, true
}

// EndSession stamps EndTime. Ending an ended session returns it unchanged
// together with ErrSessionEnded.
func (m *Manager) EndSession(ctx context.Context, sessionID string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	if s.Ended() {
		return cloneSession(s), ErrSessionEnded
	}
	end := m.now().UTC()
	s.EndTime = &end
	m.persist(ctx)
	return cloneSession(s), nil
}

// Session returns a copy of the session with the given id.
func (m *Manager) Session(sessionID string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	return cloneSession(s), nil
}

// SessionHistory returns the persona's sessions, newest first.
func (m *Manager) SessionHistory(personaID string) []Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Session
	for _, s := range m.sessions {
		if s.PersonaID == personaID {
			out = append(out, cloneSession(s))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].StartTime.After(out[j].StartTime)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// AddKeyInsight records an insight and a matching high-importance key memory.
func (m *Manager) AddKeyInsight(ctx context.Context, personaID, insight string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mem := m.memoryLocked(ctx, personaID)
	mem.CoachingProgress.InsightsGained = append(mem.CoachingProgress.InsightsGained, insight)
	mem.KeyMemories = append(mem.KeyMemories, KeyMemory{
		Timestamp:  m.now().UTC(),
		Content:    insight,
		Importance: "high",
	})
	m.persist(ctx)
}

// SetGoal records a goal for the persona.
func (m *Manager) SetGoal(ctx context.Context, personaID, goal string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mem := m.memoryLocked(ctx, personaID)
	mem.CoachingProgress.GoalsSet = append(mem.CoachingProgress.GoalsSet, goal)
	m.persist(ctx)
}

// Clear forgets one persona (its memory and its sessions) or, when
// personaID is empty, everything.
func (m *Manager) Clear(ctx context.Context, personaID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if personaID == "" {
		m.memories = make(map[string]*PersonaMemory)
		m.sessions = make(map[string]*Session)
	} else {
		delete(m.memories, personaID)
		for id, s := range m.sessions {
			if s.PersonaID == personaID {
				delete(m.sessions, id)
			}
		}
	}
	m.persist(ctx)
}

func cloneMemory(mem *PersonaMemory) PersonaMemory {
	out := *mem
	out.ConversationHistory = append([]domain.Message(nil), mem.ConversationHistory...)
	out.EmotionalJourney = append([]EmotionEntry(nil), mem.EmotionalJourney...)
	out.KeyMemories = append([]KeyMemory(nil), mem.KeyMemories...)
	out.CoachingProgress = Progress{
		InsightsGained:  append([]string(nil), mem.CoachingProgress.InsightsGained...),
		BehaviorChanges: append([]string(nil), mem.CoachingProgress.BehaviorChanges...),
		GoalsSet:        append([]string(nil), mem.CoachingProgress.GoalsSet...),
		GoalsAchieved:   append([]string(nil), mem.CoachingProgress.GoalsAchieved...),
	}
	return out
}

func cloneSession(s *Session) Session {
	out := *s
	if s.EndTime != nil {
		end := *s.EndTime
		out.EndTime = &end
	}
	out.Messages = append([]domain.Message(nil), s.Messages...)
	out.Goals = append([]string(nil), s.Goals...)
	out.Insights = append([]string(nil), s.Insights...)
	out.Breakthroughs = append([]string(nil), s.Breakthroughs...)
	out.EmotionalState.Progression = append([]string{}, s.EmotionalState.Progression...)
	return out
}
