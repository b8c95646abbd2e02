// Package services – MemoryService
//
// This file implements the MemoryService, which exposes a user's persona
// memory: reading it, recording key insights and goals, and forgetting one
// persona or everything. Persistence is handled by the memory.Manager the
// pool hands out, which writes through to the user's kv store.
package services

import (
	"context"
	"strings"

	"github.com/tbourn/go-coach-sim/internal/memory"
	"github.com/tbourn/go-coach-sim/internal/persona"
)

// MemoryService implements the use-cases around persona memory.
type MemoryService struct {
	Catalog *persona.Catalog
	Memory  *memory.Pool
}

func (s *MemoryService) check(personaID string) error {
	if !s.Catalog.Has(personaID) {
		return ErrPersonaNotFound
	}
	return nil
}

// Get returns what the user's sessions taught the persona so far.
func (s *MemoryService) Get(ctx context.Context, userID, personaID string) (memory.PersonaMemory, error) {
	ctx, span := startSpan(ctx, "MemoryService", "Get", userID, "")
	defer span.End()

	if err := s.check(personaID); err != nil {
		return memory.PersonaMemory{}, err
	}
	mgr, release := s.Memory.For(ctx, userID)
	defer release()
	return mgr.Memory(ctx, personaID), nil
}

// AddInsight records a key insight about the persona.
func (s *MemoryService) AddInsight(ctx context.Context, userID, personaID, insight string) error {
	ctx, span := startSpan(ctx, "MemoryService", "AddInsight", userID, "")
	defer span.End()

	if err := s.check(personaID); err != nil {
		return err
	}
	insight = strings.TrimSpace(insight)
	if insight == "" {
		return ErrEmptyText
	}
	mgr, release := s.Memory.For(ctx, userID)
	defer release()
	mgr.AddKeyInsight(ctx, personaID, insight)
	return nil
}

// SetGoal records a coaching goal for the persona.
func (s *MemoryService) SetGoal(ctx context.Context, userID, personaID, goal string) error {
	ctx, span := startSpan(ctx, "MemoryService", "SetGoal", userID, "")
	defer span.End()

	if err := s.check(personaID); err != nil {
		return err
	}
	goal = strings.TrimSpace(goal)
	if goal == "" {
		return ErrEmptyText
	}
	mgr, release := s.Memory.For(ctx, userID)
	defer release()
	mgr.SetGoal(ctx, personaID, goal)
	return nil
}

// Clear forgets personaID (its memory and its sessions) or, when personaID
// is empty, everything the user's memory holds.
func (s *MemoryService) Clear(ctx context.Context, userID, personaID string) error {
	ctx, span := startSpan(ctx, "MemoryService", "Clear", userID, "")
	defer span.End()

	if personaID != "" {
		if err := s.check(personaID); err != nil {
			return err
		}
	}
	mgr, release := s.Memory.For(ctx, userID)
	defer release()
	mgr.Clear(ctx, personaID)
	return nil
}
