package consistency

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tbourn/go-coach-sim/internal/domain"
	"github.com/tbourn/go-coach-sim/internal/memory"
	"github.com/tbourn/go-coach-sim/internal/persona"
)

func profile(style persona.Style, emotion persona.Emotion) persona.Profile {
	return persona.Profile{
		ID:   "t",
		Name: "Test Person",
		City: "Mumbai",
		PersonalityTraits: persona.PersonalityTraits{
			CommunicationStyle: style,
			EmotionalState:     emotion,
		},
	}
}

func TestDirectStyle_RemovesHedging(t *testing.T) {
	p := profile(persona.StyleDirect, persona.EmotionMotivated)
	in := "I think maybe I'm ready, perhaps tomorrow."
	require.Equal(t, []Issue{IssueStyle}, Check(p, in, memory.PersonaMemory{}))
	out := Validate(p, in, memory.PersonaMemory{})
	require.Equal(t, "I believe I'm ready, definitely tomorrow.", out)
	require.NotContains(t, out, "perhaps")
	require.NotContains(t, out, "I think maybe")
}

func TestDirectStyle_CapitalizedHedgeFlaggedButKept(t *testing.T) {
	p := profile(persona.StyleDirect, persona.EmotionMotivated)
	in := "Perhaps I'm ready to start."
	require.Equal(t, []Issue{IssueStyle}, Check(p, in, memory.PersonaMemory{}))
	require.Equal(t, in, Validate(p, in, memory.PersonaMemory{}))
}

func TestIndirectStyle(t *testing.T) {
	p := profile(persona.StyleIndirect, persona.EmotionMotivated)
	out := Validate(p, "I will definitely do it, I'm ready.", memory.PersonaMemory{})
	require.Equal(t, "I think I might perhaps do it, I'm ready.", out)

	// Hedged replies already match.
	require.Empty(t, Check(p, "It seems I'm ready.", memory.PersonaMemory{}))
}

func TestEmotionalStyle_AppendsOnlyWhenMissing(t *testing.T) {
	p := profile(persona.StyleEmotional, persona.EmotionMotivated)
	out := Validate(p, "I'm ready to start.", memory.PersonaMemory{})
	require.Equal(t, "I'm ready to start. I really feel this is important to me.", out)
	require.Empty(t, Check(p, "I feel ready.", memory.PersonaMemory{}))
}

func TestAnalyticalStyle(t *testing.T) {
	p := profile(persona.StyleAnalytical, persona.EmotionMotivated)
	out := Validate(p, "I feel ready, emotionally.", memory.PersonaMemory{})
	require.Equal(t, "I think ready, logically.", out)
}

func TestEmotionalStateCorrections(t *testing.T) {
	cases := []struct {
		emotion persona.Emotion
		in      string
		want    string
	}{
		{persona.EmotionAnxious, "Data matters.", "Data matters. But what if this doesn't work?"},
		{persona.EmotionAnxious, "Is that the data?", "Is that the data?"},
		{persona.EmotionFrustrated, "The data is clear. It is late.", "The data is clear! It is late."},
		{persona.EmotionHopeful, "The data is clear.", "The data is clear. I'm feeling optimistic about this."},
		{persona.EmotionConfused, "The data is clear.", "The data is clear."}, // no correction defined
	}
	for _, c := range cases {
		p := profile(persona.StyleAnalytical, c.emotion)
		require.Equal(t, c.want, Validate(p, c.in, memory.PersonaMemory{}), c.emotion)
	}
}

func TestAnxious_LongReplyCountsAsAnxious(t *testing.T) {
	p := profile(persona.StyleAnalytical, persona.EmotionAnxious)
	long := "Because " + strings.Repeat("x", 120)
	require.Empty(t, Check(p, long, memory.PersonaMemory{}))
}

func TestConfused_MultipleQuestions(t *testing.T) {
	p := profile(persona.StyleAnalytical, persona.EmotionConfused)
	require.Empty(t, Check(p, "Because why? And how?", memory.PersonaMemory{}))
	require.Equal(t, []Issue{IssueEmotion}, Check(p, "Because why?", memory.PersonaMemory{}))
}

func TestHistoryContradiction_DetectedWithoutCorrection(t *testing.T) {
	p := profile(persona.StyleAnalytical, persona.EmotionMotivated)
	mem := memory.PersonaMemory{ConversationHistory: []domain.Message{
		{Role: domain.RoleCoach, Content: "I always ask"},
		{Role: domain.RoleClient, Content: "I always work late because of data."},
	}}
	in := "I never work late because I'm ready."
	require.Equal(t, []Issue{IssueContradiction}, Check(p, in, mem))
	require.Equal(t, in, Validate(p, in, mem))

	coachOnly := memory.PersonaMemory{ConversationHistory: mem.ConversationHistory[:1]}
	require.Empty(t, Check(p, in, coachOnly))
}

func TestCulturalReferences(t *testing.T) {
	p := profile(persona.StyleAnalytical, persona.EmotionMotivated)
	in := "I'm ready because the downtown subway costs dollars."
	require.Equal(t, []Issue{IssueCulture}, Check(p, in, memory.PersonaMemory{}))
	require.Equal(t, "I'm ready because the city center metro costs rupees.", Validate(p, in, memory.PersonaMemory{}))

	// Detected, but no substitution exists for it.
	th := "I'm ready because thanksgiving."
	require.Equal(t, []Issue{IssueCulture}, Check(p, th, memory.PersonaMemory{}))
	require.Equal(t, th, Validate(p, th, memory.PersonaMemory{}))
}

func TestCorrectionsApplyInDetectionOrder(t *testing.T) {
	p := profile(persona.StyleDirect, persona.EmotionHopeful)
	in := "perhaps the downtown office."
	require.Equal(t, []Issue{IssueStyle, IssueEmotion, IssueCulture}, Check(p, in, memory.PersonaMemory{}))
	require.Equal(t, "definitely the city center office. I'm feeling optimistic about this.", Validate(p, in, memory.PersonaMemory{}))
}

func TestCleanReplyUnchanged(t *testing.T) {
	p := profile(persona.StyleDirect, persona.EmotionMotivated)
	in := "I'm ready to act on this."
	require.Empty(t, Check(p, in, memory.PersonaMemory{}))
	require.Equal(t, in, Validate(p, in, memory.PersonaMemory{}))
}
