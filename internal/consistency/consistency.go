// Package consistency nudges a generated client reply toward the persona's
// declared communication style, emotional state and cultural setting.
//
// It is cosmetic post-processing: four keyword checks run against the reply
// and each failed check applies a fixed substitution or append. Output can be
// awkward; no grammatical guarantees are made. All functions are pure.
package consistency

import (
	"strings"
	"unicode/utf8"

	"github.com/tbourn/go-coach-sim/internal/memory"
	"github.com/tbourn/go-coach-sim/internal/persona"
)

// Issue names a failed check, in detection order.
type Issue string

const (
	IssueStyle         Issue = "communication_style"
	IssueEmotion       Issue = "emotional_state"
	IssueContradiction Issue = "history_contradiction"
	IssueCulture       Issue = "cultural_context"
)

var (
	vaguePhrases      = []string{"maybe", "perhaps", "i think", "sort of", "kind of"}
	hedgingPhrases    = []string{"i think", "perhaps", "maybe", "it seems", "i believe"}
	emotionalWords    = []string{"feel", "frustrated", "excited", "worried", "happy", "sad", "angry"}
	analyticalPhrases = []string{"because", "therefore", "analysis", "data", "evidence", "logic"}

	anxiousWords    = []string{"worried", "nervous", "scared", "uncertain", "what if"}
	frustratedWords = []string{"frustrated", "annoyed", "fed up", "tired of", "enough"}
	hopefulWords    = []string{"hope", "excited", "looking forward", "optimistic", "positive"}
	confusedWords   = []string{"confused", "unclear", "don't understand", "not sure"}
	motivatedWords  = []string{"ready", "let's do", "motivated", "determined", "will do"}

	foreignReferences = []string{"downtown", "subway", "dollars", "thanksgiving"}
)

// replacement is a case-sensitive, replace-all substitution. Detection is
// case-insensitive, so a reply can fail a check and still come back
// unchanged: a direct-style "Perhaps we start" is flagged but only the
// lowercase "perhaps" is rewritten.
type replacement struct{ old, new string }

var styleFixes = map[persona.Style][]replacement{
	persona.StyleDirect:     {{"I think maybe", "I believe"}, {"perhaps", "definitely"}},
	persona.StyleIndirect:   {{"I will", "I think I might"}, {"definitely", "perhaps"}},
	persona.StyleAnalytical: {{"I feel", "I think"}, {"emotionally", "logically"}},
}

var cultureFixes = []replacement{
	{"downtown", "city center"},
	{"subway", "metro"},
	{"dollars", "rupees"},
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func matchesStyle(lower string, style persona.Style) bool {
	switch style {
	case persona.StyleDirect:
		return !containsAny(lower, vaguePhrases)
	case persona.StyleIndirect:
		return containsAny(lower, hedgingPhrases)
	case persona.StyleEmotional:
		return containsAny(lower, emotionalWords)
	case persona.StyleAnalytical:
		return containsAny(lower, analyticalPhrases)
	}
	return true
}

func matchesEmotion(lower string, e persona.Emotion) bool {
	switch e {
	case persona.EmotionAnxious:
		return containsAny(lower, anxiousWords) || strings.Contains(lower, "?") || utf8.RuneCountInString(lower) > 100
	case persona.EmotionFrustrated:
		return containsAny(lower, frustratedWords) || strings.Contains(lower, "!")
	case persona.EmotionHopeful:
		return containsAny(lower, hopefulWords)
	case persona.EmotionConfused:
		return containsAny(lower, confusedWords) || strings.Count(lower, "?") > 1
	case persona.EmotionMotivated:
		return containsAny(lower, motivatedWords)
	}
	return true
}

func contradictsHistory(lower string, mem memory.PersonaMemory) bool {
	if !strings.Contains(lower, "i never") {
		return false
	}
	for _, m := range mem.ConversationHistory {
		if m.IsClient() && strings.Contains(strings.ToLower(m.Content), "i always") {
			return true
		}
	}
	return false
}

// Check returns the failed checks for response, in detection order.
func Check(p persona.Profile, response string, mem memory.PersonaMemory) []Issue {
	lower := strings.ToLower(response)
	var issues []Issue
	if !matchesStyle(lower, p.PersonalityTraits.CommunicationStyle) {
		issues = append(issues, IssueStyle)
	}
	if !matchesEmotion(lower, p.PersonalityTraits.EmotionalState) {
		issues = append(issues, IssueEmotion)
	}
	if contradictsHistory(lower, mem) {
		issues = append(issues, IssueContradiction)
	}
	if containsAny(lower, foreignReferences) {
		issues = append(issues, IssueCulture)
	}
	return issues
}

// Validate applies the correction for every failed check and returns the
// adjusted reply. A contradiction is detected but has no correction.
// Substitutions match case-sensitively, so a flagged phrase in a different
// case than the substitution table is left in place.
func Validate(p persona.Profile, response string, mem memory.PersonaMemory) string {
	out := response
	for _, issue := range Check(p, response, mem) {
		switch issue {
		case IssueStyle:
			out = fixStyle(out, p.PersonalityTraits.CommunicationStyle)
		case IssueEmotion:
			out = fixEmotion(out, p.PersonalityTraits.EmotionalState)
		case IssueCulture:
			out = apply(out, cultureFixes)
		}
	}
	return out
}

func apply(s string, fixes []replacement) string {
	for _, f := range fixes {
		s = strings.ReplaceAll(s, f.old, f.new)
	}
	return s
}

func fixStyle(s string, style persona.Style) string {
	if style == persona.StyleEmotional {
		if !containsAny(strings.ToLower(s), emotionalWords) {
			return s + " I really feel this is important to me."
		}
		return s
	}
	return apply(s, styleFixes[style])
}

func fixEmotion(s string, e persona.Emotion) string {
	switch e {
	case persona.EmotionAnxious:
		if !strings.Contains(s, "?") {
			return s + " But what if this doesn't work?"
		}
	case persona.EmotionFrustrated:
		if !strings.Contains(s, "!") {
			return strings.Replace(s, ".", "!", 1)
		}
	case persona.EmotionHopeful:
		return s + " I'm feeling optimistic about this."
	}
	return s
}
