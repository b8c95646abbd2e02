// Package engine voices a persona: it builds the prompt from the persona and
// its memory, asks the LLM for the client's reply, keeps that reply in
// character and records the exchange in memory.
package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/tbourn/go-coach-sim/internal/consistency"
	"github.com/tbourn/go-coach-sim/internal/domain"
	"github.com/tbourn/go-coach-sim/internal/llm"
	"github.com/tbourn/go-coach-sim/internal/memory"
	"github.com/tbourn/go-coach-sim/internal/observability"
	"github.com/tbourn/go-coach-sim/internal/persona"
)

// DefaultHistoryTurns is how many remembered messages are replayed to the
// model as chat turns.
const DefaultHistoryTurns = 8

// Engine generates persona replies. Catalog and LLM are required.
type Engine struct {
	Catalog *persona.Catalog
	LLM     llm.Client
	// Tokens trims replayed history to MaxPromptTokens; nil disables trimming.
	Tokens          *llm.TokenCounter
	MaxPromptTokens int
	HistoryTurns    int
	// Fallback answers with a canned in-character line when the LLM fails.
	Fallback bool
	Pick     Picker
	Now      func() time.Time
}

// Reply is one generated client message.
type Reply struct {
	Text     string
	Raw      string // model output before repair and validation
	Repaired bool   // role drift was replaced by a template
	FellBack bool   // the LLM failed and a canned line was used
	Issues   []consistency.Issue
}

func (e *Engine) pick(n int) int {
	if e.Pick != nil {
		return e.Pick(n)
	}
	return rand.IntN(n)
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// GenerateResponse returns the persona's reply to coachMessage.
func (e *Engine) GenerateResponse(ctx context.Context, mem *memory.Manager, personaID, coachMessage, sessionID string) (string, error) {
	r, err := e.Respond(ctx, mem, personaID, coachMessage, sessionID)
	return r.Text, err
}

// Respond is GenerateResponse with details about how the reply was made.
// On failure nothing is written to memory.
func (e *Engine) Respond(ctx context.Context, mem *memory.Manager, personaID, coachMessage, sessionID string) (Reply, error) {
	ctx, span := observability.Tracer("engine").Start(ctx, "Engine.Respond")
	defer span.End()
	span.SetAttributes(attribute.String("persona.id", personaID), attribute.String("session.id", sessionID))

	p, err := e.Catalog.Get(personaID)
	if err != nil {
		return Reply{}, err
	}
	state := mem.Memory(ctx, personaID)
	system := BuildSystemPrompt(p, BuildContext(state, coachMessage))

	raw, err := e.LLM.Complete(ctx, llm.Request{System: system, Messages: e.turns(system, state, coachMessage)})
	r := Reply{Raw: raw}
	switch {
	case err == nil:
		r.Text, r.Repaired = RepairRoleDrift(p, coachMessage, raw, e.pick)
		if r.Repaired {
			log.Warn().Str("persona_id", personaID).Str("session_id", sessionID).Msg("engine: repaired out-of-character reply")
		}
	case e.Fallback && !errors.Is(err, context.Canceled):
		log.Warn().Err(err).Str("persona_id", personaID).Str("session_id", sessionID).Msg("engine: generation failed, using fallback reply")
		r.Text, r.FellBack = FallbackReply(p, e.pick), true
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		return Reply{}, fmt.Errorf("engine: generate reply for %s: %w", personaID, err)
	}

	r.Issues = consistency.Check(p, r.Text, state)
	r.Text = consistency.Validate(p, r.Text, state)

	now := e.now()
	stamp := strconv.FormatInt(now.UnixMilli(), 10)
	mem.AppendMessage(ctx, personaID, domain.Message{ID: stamp + "_coach", Role: domain.RoleCoach, Content: coachMessage, Timestamp: now})
	mem.AppendMessage(ctx, personaID, domain.Message{ID: stamp + "_client", Role: domain.RoleClient, Content: r.Text, Timestamp: now})
	mem.UpdateEmotionalState(ctx, personaID, sessionID)

	span.SetAttributes(attribute.Bool("reply.repaired", r.Repaired), attribute.Bool("reply.fallback", r.FellBack))
	return r, nil
}

// turns maps remembered messages to chat turns (coach as user, client as
// assistant) and appends the new coach message.
func (e *Engine) turns(system string, state memory.PersonaMemory, coachMessage string) []llm.Message {
	n := e.HistoryTurns
	if n <= 0 {
		n = DefaultHistoryTurns
	}
	hist := state.ConversationHistory
	if len(hist) > n {
		hist = hist[len(hist)-n:]
	}
	out := make([]llm.Message, 0, len(hist)+1)
	for _, m := range hist {
		role := llm.RoleAssistant
		if m.IsCoach() {
			role = llm.RoleUser
		}
		out = append(out, llm.Message{Role: role, Content: m.Content})
	}
	if e.Tokens != nil && e.MaxPromptTokens > 0 {
		budget := e.MaxPromptTokens - e.Tokens.Count(coachMessage)
		out = e.Tokens.FitHistory(system, out, budget)
	}
	return append(out, llm.Message{Role: llm.RoleUser, Content: coachMessage})
}
