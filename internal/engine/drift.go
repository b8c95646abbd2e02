package engine

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tbourn/go-coach-sim/internal/persona"
)

// Picker returns an index in [0, n).
type Picker func(n int) int

// driftPatterns match replies in which the model talks like a coach or an
// assistant instead of the client.
var driftPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)i'?m\s+(?:your\s+)?(?:ai\s+)?coach`),
	regexp.MustCompile(`(?i)how\s+can\s+i\s+help\s+(?:you)?`),
	regexp.MustCompile(`(?i)how\s+can\s+i\s+assist\s+(?:you)?`),
	regexp.MustCompile(`(?i)i'?m\s+here\s+to\s+(?:help|support|assist)\s+you`),
	regexp.MustCompile(`(?i)what\s+can\s+i\s+do\s+for\s+you`),
	regexp.MustCompile(`(?i)i\s+don'?t\s+have\s+feelings?`),
	regexp.MustCompile(`(?i)as\s+(?:an\s+)?ai\s+(?:coach|assistant)`),
	regexp.MustCompile(`(?i)let\s+me\s+help\s+you`),
	regexp.MustCompile(`(?i)i'?m\s+designed\s+to`),
	regexp.MustCompile(`(?i)my\s+role\s+is\s+to\s+(?:help|support|guide)`),
}

// IsRoleDrift reports whether reply breaks character.
func IsRoleDrift(reply string) bool {
	for _, re := range driftPatterns {
		if re.MatchString(reply) {
			return true
		}
	}
	return false
}

// DriftEmotions are the feelings a repaired reply may voice.
var DriftEmotions = []string{"confused", "stressed", "overwhelmed", "uncertain", "struggling"}

// RepairRoleDrift replaces an out-of-character reply with an in-character
// template chosen from the coach's message. Replies that stay in character
// are returned unchanged with repaired=false.
func RepairRoleDrift(p persona.Profile, coachMessage, reply string, pick Picker) (text string, repaired bool) {
	if !IsRoleDrift(reply) {
		return reply, false
	}
	emotion := DriftEmotions[pick(len(DriftEmotions))]
	problem := p.PrimaryProblem()
	lower := strings.ToLower(coachMessage)

	switch {
	case strings.Contains(lower, "how are you") || strings.Contains(lower, "how do you feel"):
		return fmt.Sprintf("I'm feeling really %s lately. I've been dealing with %s and it's been really hard to manage.", emotion, problem), true
	case strings.Contains(lower, "tell me about") || strings.Contains(lower, "what's going on"):
		return fmt.Sprintf("Well, I'm %s and I'm really struggling with %s. %s I'm not sure how to handle this anymore.", p.Name, problem, p.CurrentSituation), true
	case strings.Contains(lower, "who") && strings.Contains(lower, "coach"):
		return fmt.Sprintf("You are! I'm %s, I came here because I need help with my problems. I'm really %s about everything that's happening.", p.Name, emotion), true
	}
	return fmt.Sprintf("I'm %s and I'm really %s right now. I'm dealing with %s and I don't know what to do. Can you help me figure out how to handle this?", p.Name, emotion, problem), true
}

var fallbackReplies = map[persona.Emotion][]string{
	persona.EmotionAnxious: {
		"I'm not sure about this... what if it doesn't work out?",
		"This makes me nervous. Can you explain more?",
		"I keep worrying about what could go wrong.",
	},
	persona.EmotionFrustrated: {
		"I've tried so many things already, I don't know if this will be different.",
		"It's just so overwhelming, you know?",
		"Sometimes I feel like nothing I do makes a difference.",
	},
	persona.EmotionHopeful: {
		"That sounds interesting. Maybe there's something here I can work with.",
		"I'm willing to try, but I need to understand how this applies to my situation.",
		"This gives me some hope, but I'm still not sure how to move forward.",
	},
	persona.EmotionConfused: {
		"I'm not sure I understand what you mean. Can you break it down?",
		"This is all quite confusing for me right now.",
		"I need some clarity on how this relates to my problems.",
	},
	persona.EmotionMotivated: {
		"Okay, I'm ready to take action. What do you suggest?",
		"This makes sense. Let me think about how I can apply this.",
		"I'm feeling more confident about tackling this now.",
	},
}

// FallbackReply is a canned in-character line for the persona's emotional
// state, used when generation fails. Unknown states use the confused lines.
func FallbackReply(p persona.Profile, pick Picker) string {
	lines, ok := fallbackReplies[p.PersonalityTraits.EmotionalState]
	if !ok {
		lines = fallbackReplies[persona.EmotionConfused]
	}
	return fmt.Sprintf("%s [%s - %s]", lines[pick(len(lines))], p.Name, p.City)
}
