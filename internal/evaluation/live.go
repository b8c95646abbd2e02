package evaluation

import (
	"regexp"
	"strings"

	"github.com/tbourn/go-coach-sim/internal/domain"
)

// Breakthrough is a detected client breakthrough.
type Breakthrough struct {
	Type      string `json:"type"`
	Intensity string `json:"intensity"`
}

// LiveEvaluation is the in-session view recomputed after each turn.
type LiveEvaluation struct {
	Score             int             `json:"score"`
	Suggestions       []string        `json:"suggestions"`
	NextQuestion      string          `json:"next_question"`
	BreakthroughAlert string          `json:"breakthrough_alert,omitempty"`
	SixNeeds          map[string]bool `json:"six_needs"`
}

var qualityPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)what do you (really )?want|what would success look like|what's your (ultimate )?goal`),
	regexp.MustCompile(`(?i)what's great about|what's working|what are you proud of|what strengths`),
	regexp.MustCompile(`(?i)what would happen if|what's stopping you|what needs to change`),
	regexp.MustCompile(`(?i)what else could this mean|how else could you|what if this was|what's another way`),
	regexp.MustCompile(`(?i)what are you going to do|what's your next step|how will you|when will you start`),
}

var acknowledgments = []string{
	"i hear", "it sounds like", "what i understand", "so you're saying",
	"let me reflect", "i sense that", "what i'm hearing",
}

var rapportIndicators = []string{
	"i understand", "that makes sense", "i can see", "i appreciate",
	"that's completely normal", "many people feel", "you're not alone",
}

var breakthroughPatterns = []struct {
	re *regexp.Regexp
	Breakthrough
}{
	{regexp.MustCompile(`(?i)I never thought of it that way`), Breakthrough{"reframe", "major"}},
	{regexp.MustCompile(`(?i)that makes so much sense`), Breakthrough{"insight", "moderate"}},
	{regexp.MustCompile(`(?i)I'm ready to`), Breakthrough{"commitment", "major"}},
	{regexp.MustCompile(`(?i)I see now`), Breakthrough{"insight", "moderate"}},
}

// DetectBreakthrough reports the first breakthrough pattern text matches.
func DetectBreakthrough(text string) (Breakthrough, bool) {
	for _, p := range breakthroughPatterns {
		if p.re.MatchString(text) {
			return p.Breakthrough, true
		}
	}
	return Breakthrough{}, false
}

var liveNeeds = []need{
	{"certainty", []string{"security", "stability", "control", "certainty", "predictable"}},
	{"variety", []string{"change", "variety", "adventure", "different", "new experience"}},
	{"significance", []string{"important", "special", "unique", "recognition", "achievement"}},
	{"love_connection", []string{"love", "connection", "relationship", "belonging", "together"}},
	{"growth", []string{"growth", "learning", "development", "improve", "expand"}},
	{"contribution", []string{"contribute", "help others", "give back", "make a difference", "serve"}},
}

// SixNeeds reports which of the six human needs appear anywhere in msgs.
func SixNeeds(msgs []domain.Message) map[string]bool {
	all := strings.ToLower(joinContent(msgs))
	out := make(map[string]bool, len(liveNeeds))
	for _, n := range liveNeeds {
		out[n.name] = containsAny(all, n.phrases)
	}
	return out
}

func joinContent(msgs []domain.Message) string {
	parts := make([]string, len(msgs))
	for i, m := range msgs {
		parts[i] = m.Content
	}
	return strings.Join(parts, " ")
}

// Live evaluates an in-progress session.
func Live(msgs []domain.Message) LiveEvaluation {
	tr := split(msgs)
	ev := LiveEvaluation{
		Score:        liveScore(msgs, tr),
		Suggestions:  []string{},
		NextQuestion: nextQuestion(tr),
		SixNeeds:     SixNeeds(msgs),
	}
	if n := len(tr.client); n > 0 {
		ev.Suggestions = suggestions(tr.client[n-1])
	}
	if b, ok := recentBreakthrough(msgs); ok {
		ev.BreakthroughAlert = "BREAKTHROUGH DETECTED: Client showed " + b.Intensity + " " + b.Type + " breakthrough"
	}
	return ev
}

func liveScore(msgs []domain.Message, tr transcript) int {
	if len(msgs) < 2 {
		return 0
	}
	return round((questionQuality(msgs) + listeningScore(tr.coach) + rapportScore(tr.coach)) / 3)
}

// questionQuality awards 20 points per questioning coach message matching a
// quality pattern and 5 for any other, averaged over every '?' asked.
func questionQuality(msgs []domain.Message) float64 {
	var points, questions float64
	for _, m := range msgs {
		n := strings.Count(m.Content, "?")
		if !m.IsCoach() || n == 0 {
			continue
		}
		questions += float64(n)
		points += 5
		for _, re := range qualityPatterns {
			if re.MatchString(m.Content) {
				points += 15
				break
			}
		}
	}
	if questions == 0 {
		return 0
	}
	return clamp(points / questions * 5)
}

func listeningScore(coach []string) float64 {
	if len(coach) < 2 {
		return 0
	}
	n := 0
	for _, c := range coach {
		if containsAny(c, acknowledgments) {
			n++
		}
	}
	return clamp(float64(n) / float64(len(coach)) * 100)
}

func rapportScore(coach []string) float64 {
	if len(coach) == 0 {
		return 0
	}
	n := 0
	for _, c := range coach {
		for _, ind := range rapportIndicators {
			if strings.Contains(c, ind) {
				n++
			}
		}
	}
	return clamp(float64(n) / float64(len(coach)) * 50)
}

var suggestionRules = []struct {
	words []string
	text  string
}{
	{[]string{"stressed", "anxious", "overwhelmed"}, "State Management Opportunity: Help them shift their emotional state with empowering questions"},
	{[]string{"can't", "impossible", "never"}, `Limiting Belief Detected: Challenge this belief with "What if that weren't true?" or "What would have to happen for this to be possible?"`},
	{[]string{"problem", "issue", "difficulty"}, `Reframe Opportunity: Shift from problem to outcome - ask "What do you want instead?"`},
	{[]string{"family", "parents", "society"}, "Cultural Sensitivity: Acknowledge family pressures while empowering personal choice"},
	{[]string{"confused", "don't know", "unsure"}, `Clarity Needed: Use chunking questions - "What specifically do you mean by...?"`},
}

func suggestions(lastClient string) []string {
	out := []string{}
	for _, r := range suggestionRules {
		if containsAny(lastClient, r.words) {
			out = append(out, r.text)
		}
	}
	return out
}

const openingQuestion = "What's the most important thing you'd like to focus on in your life right now?"

var contextualQuestions = []struct {
	words    []string
	question string
}{
	{[]string{"goal", "want"}, "What would achieving this goal give you that's even more important?"},
	{[]string{"problem", "challenge"}, "What's great about this challenge that you might not have considered?"},
	{[]string{"stuck", "confused"}, "If you knew you couldn't fail, what would you do right now?"},
	{[]string{"family", "pressure"}, "What would honoring both your family's values and your own dreams look like?"},
}

var defaultQuestions = []string{
	"What do you really want here?",
	"What would have to happen for you to feel totally fulfilled?",
	"What's one decision you could make right now that would change everything?",
	"What are you most grateful for in this situation?",
	"What action could you take today that would move you closer to your dreams?",
}

// nextQuestion suggests the coach's next question from the latest client
// message. Without a contextual match it rotates through the defaults by
// coach message count.
func nextQuestion(tr transcript) string {
	if len(tr.client) == 0 {
		return openingQuestion
	}
	last := tr.client[len(tr.client)-1]
	for _, q := range contextualQuestions {
		if containsAny(last, q.words) {
			return q.question
		}
	}
	return defaultQuestions[len(tr.coach)%len(defaultQuestions)]
}

func recentBreakthrough(msgs []domain.Message) (Breakthrough, bool) {
	var clients []string
	for _, m := range msgs {
		if m.IsClient() {
			clients = append(clients, m.Content)
		}
	}
	if len(clients) > 2 {
		clients = clients[len(clients)-2:]
	}
	for _, c := range clients {
		if b, ok := DetectBreakthrough(c); ok {
			return b, true
		}
	}
	return Breakthrough{}, false
}
