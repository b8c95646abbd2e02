// Package summary writes a short narrative of the client's situation from
// what they have said so far in a session.
package summary

import (
	"fmt"
	"strings"

	"github.com/tbourn/go-coach-sim/internal/domain"
	"github.com/tbourn/go-coach-sim/internal/persona"
)

type theme struct {
	keywords []string
	text     string
}

// issue is a topic with optional refinements; the first matching refinement
// replaces the generic text.
type issue struct {
	keywords []string
	refine   []theme
	text     string
}

var issues = []issue{
	{
		keywords: []string{"work", "job", "career", "office", "professional", "manager", "team"},
		refine: []theme{
			{[]string{"promotion", "growth", "stuck", "stagnant"}, "career advancement and growth concerns"},
			{[]string{"workload", "hours", "overtime", "busy"}, "work-life balance and workload management"},
		},
		text: "professional challenges and workplace dynamics",
	},
	{
		keywords: []string{"family", "marriage", "parents", "relationship", "partner", "spouse"},
		refine: []theme{
			{[]string{"expectations", "pressure", "traditional"}, "family expectations and cultural pressures"},
			{[]string{"communication", "conflict", "understand"}, "relationship communication and interpersonal conflicts"},
		},
		text: "family dynamics and personal relationships",
	},
	{
		keywords: []string{"money", "financial", "salary", "rent", "expenses", "budget"},
		text:     "financial planning and economic pressures",
	},
	{
		keywords: []string{"future", "direction", "goals", "purpose", "confused", "lost"},
		text:     "life direction and personal goal clarity",
	},
}

var emotionalStates = []theme{
	{[]string{"overwhelmed", "stressed", "exhausted", "burnout"}, "feeling overwhelmed and stressed"},
	{[]string{"confused", "lost", "uncertain", "unsure"}, "experiencing confusion and uncertainty"},
	{[]string{"frustrated", "stuck", "trapped"}, "feeling frustrated and stuck"},
	{[]string{"anxious", "worried", "concerned"}, "experiencing anxiety and worry"},
	{[]string{"hopeful", "optimistic", "ready"}, "showing readiness for change and growth"},
}

var situations = []theme{
	{[]string{"transition", "change", "new", "different"}, "navigating significant life transitions"},
	{[]string{"decision", "choose", "options"}, "facing important decisions"},
	{[]string{"time", "balance", "manage"}, "struggling with time management and priorities"},
}

const maxIssues = 3

// Generate summarises the client's situation. The first client message is
// the scripted welcome and is ignored; with nothing else said the summary
// says the session has just begun.
func Generate(msgs []domain.Message, p persona.Profile, exchanges int) string {
	var said []string
	seenWelcome := false
	for _, m := range msgs {
		if !m.IsClient() {
			continue
		}
		if !seenWelcome {
			seenWelcome = true
			continue
		}
		said = append(said, m.Content)
	}
	if len(said) == 0 {
		return fmt.Sprintf("%s has just begun the coaching session and is preparing to share their situation. "+
			"They appear ready to discuss their challenges and seek guidance on their current circumstances.", p.Name)
	}

	content := strings.ToLower(strings.Join(said, " "))
	found := Issues(content, p)
	state := firstMatch(content, emotionalStates, "seeking clarity and direction")
	situation := firstMatch(content, situations, fmt.Sprintf("working as a %s in %s", p.Occupation, p.City))

	var b strings.Builder
	fmt.Fprintf(&b, "%s (%d, %s) is currently %s while %s. ", p.Name, p.Age, p.Occupation, state, situation)
	switch {
	case len(found) >= 2:
		fmt.Fprintf(&b, "The primary concerns emerging from our %d exchanges center around %s and %s. ", exchanges, found[0], found[1])
		if len(found) >= 3 {
			fmt.Fprintf(&b, "Additionally, %s is contributing to their overall stress. ", found[2])
		}
	case len(found) == 1:
		fmt.Fprintf(&b, "The main issue that has emerged is %s. ", found[0])
	}
	fmt.Fprintf(&b, "%s appears motivated to address these challenges and is actively seeking guidance to move forward constructively.", p.Name)
	return b.String()
}

// Issues returns up to three issues raised in lowercase content, falling
// back to the persona's first two core problems.
func Issues(content string, p persona.Profile) []string {
	var out []string
	for _, is := range issues {
		if !containsAny(content, is.keywords) {
			continue
		}
		out = append(out, firstMatch(content, is.refine, is.text))
	}
	if len(out) == 0 {
		out = append(out, p.CoreProblems[:min(2, len(p.CoreProblems))]...)
	}
	if len(out) > maxIssues {
		out = out[:maxIssues]
	}
	return out
}

func firstMatch(content string, themes []theme, fallback string) string {
	for _, t := range themes {
		if containsAny(content, t.keywords) {
			return t.text
		}
	}
	return fallback
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
