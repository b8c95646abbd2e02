package evaluation

import (
	"math"
	"strings"

	"github.com/tbourn/go-coach-sim/internal/domain"
	"github.com/tbourn/go-coach-sim/internal/persona"
)

// Metric names one sub-score of the post-session evaluation.
type Metric string

// Growth-methodology metrics.
const (
	MetricStateManagement    Metric = "state_management"
	MetricPowerfulQuestions  Metric = "powerful_questions"
	MetricBreakthroughs      Metric = "breakthrough_moments"
	MetricOutcomeOrientation Metric = "outcome_orientation"
	MetricBeliefWork         Metric = "belief_work"
	MetricEnergyAndRapport   Metric = "energy_and_rapport"
)

// ICF core-competency metrics.
const (
	MetricActiveListening Metric = "active_listening"
	MetricQuestioning     Metric = "questioning"
	MetricRapport         Metric = "rapport"
	MetricGoalSetting     Metric = "goal_setting"
	MetricAwareness       Metric = "awareness"
	MetricClientGrowth    Metric = "client_growth"
	MetricPresence        Metric = "presence"
)

// MetricCultural scores sensitivity to the persona's city.
const MetricCultural Metric = "cultural_sensitivity"

// Rule awards Weight points for each message of Speaker that contains any
// of Phrases (lowercase substring match).
//
//   - Negate awards the weight when none of the phrases is present.
//   - City restricts the rule to personas located in that city.
//   - SkipFirst ignores the first message of the speaker.
//   - Paired applies to coach rules only: the phrase test runs on the client
//     message at the same position as the coach message.
type Rule struct {
	Metric    Metric
	Speaker   domain.Role
	Phrases   []string
	Weight    float64
	Negate    bool
	City      string
	SkipFirst bool
	Paired    bool
}

// Divisor selects what a metric's raw points are divided by.
type Divisor int

const (
	// PerCoachMessage divides by the number of coach messages.
	PerCoachMessage Divisor = iota
	// PerQuestion divides by the number of '?' in coach messages.
	PerQuestion
	// Absolute uses raw points as they are.
	Absolute
)

// Norm turns raw points into a 0–100 score: min(100, points/divisor*Scale).
// A zero divisor yields 0. RequireQuestion yields 0 when the coach asked
// no question at all.
type Norm struct {
	Divisor         Divisor
	Scale           float64
	RequireQuestion bool
}

var norms = map[Metric]Norm{
	MetricStateManagement:    {Divisor: PerCoachMessage, Scale: 10},
	MetricPowerfulQuestions:  {Divisor: PerQuestion, Scale: 100},
	MetricBreakthroughs:      {Divisor: Absolute, Scale: 25},
	MetricOutcomeOrientation: {Divisor: PerCoachMessage, Scale: 5},
	MetricBeliefWork:         {Divisor: PerCoachMessage, Scale: 5},
	MetricEnergyAndRapport:   {Divisor: PerCoachMessage, Scale: 10},
	MetricActiveListening:    {Divisor: PerCoachMessage, Scale: 5},
	MetricQuestioning:        {Divisor: PerCoachMessage, Scale: 5, RequireQuestion: true},
	MetricRapport:            {Divisor: PerCoachMessage, Scale: 3},
	MetricGoalSetting:        {Divisor: PerCoachMessage, Scale: 2},
	MetricAwareness:          {Divisor: PerCoachMessage, Scale: 2},
	MetricPresence:           {Divisor: PerCoachMessage, Scale: 8},
	MetricCultural:           {Divisor: Absolute, Scale: 1},
}

var (
	coach  = domain.RoleCoach
	client = domain.RoleClient
)

// Rules is the scoring table for every phrase-driven metric. Client growth
// compares first and last client messages and is computed separately.
var Rules = []Rule{
	{Metric: MetricStateManagement, Speaker: coach, Weight: 15, Phrases: []string{"feel", "emotion", "energy", "excited", "confident"}},
	{Metric: MetricStateManagement, Speaker: coach, Weight: 10, Phrases: []string{"breathe", "posture", "body", "physical"}},
	{Metric: MetricStateManagement, Speaker: coach, Weight: 20, Paired: true, Phrases: []string{"excited", "motivated", "confident", "empowered", "hopeful"}},

	{Metric: MetricPowerfulQuestions, Speaker: coach, Weight: 2, Phrases: []string{
		"what would happen if", "what's possible", "what do you really want", "what's stopping you",
		"what would it mean", "how would you feel if", "what needs to change",
		"what would you do if you knew you couldn't fail",
	}},
	{Metric: MetricPowerfulQuestions, Speaker: coach, Weight: 1, Phrases: []string{
		"what do you want", "what's your goal", "what outcome", "what result", "what does success look like",
	}},
	{Metric: MetricPowerfulQuestions, Speaker: coach, Weight: 1, Phrases: []string{
		"what resources do you have", "what's worked before", "what are you good at", "what's your strength",
	}},

	{Metric: MetricBreakthroughs, Speaker: client, Weight: 1, Phrases: []string{
		"i never thought", "i realize", "aha", "now i see", "that makes sense", "i understand now",
		"wow", "that's it", "i get it",
	}},
	{Metric: MetricBreakthroughs, Speaker: client, Weight: 1, Phrases: []string{
		"i feel different", "i'm excited", "i'm motivated", "i feel lighter", "i feel empowered",
	}},

	{Metric: MetricOutcomeOrientation, Speaker: coach, Weight: 20, Phrases: []string{
		"what do you want", "what's your goal", "what outcome", "what result", "what does success",
		"what would achievement", "what's your vision",
	}},
	{Metric: MetricOutcomeOrientation, Speaker: coach, Weight: 15, Phrases: []string{
		"what will you do", "what's your next step", "what action", "how will you", "when will you",
	}},

	{Metric: MetricBeliefWork, Speaker: coach, Weight: 25, Phrases: []string{
		"what if that's not true", "is that always the case", "what evidence", "what assumptions",
		"what beliefs", "what's another way to look at this", "what if you're wrong about",
	}},
	{Metric: MetricBeliefWork, Speaker: coach, Weight: 20, Phrases: []string{
		"another perspective", "different way to see", "opportunity", "learning experience", "what if this is actually",
	}},

	{Metric: MetricEnergyAndRapport, Speaker: coach, Weight: 15, Phrases: []string{"amazing", "fantastic", "incredible", "powerful", "outstanding"}},
	{Metric: MetricEnergyAndRapport, Speaker: coach, Weight: 10, Phrases: []string{"you can", "you're capable", "you have what it takes", "you've got this"}},

	{Metric: MetricActiveListening, Speaker: coach, Weight: 20, SkipFirst: true, Phrases: []string{"what i hear you saying", "it sounds like", "if i understand correctly"}},
	{Metric: MetricActiveListening, Speaker: coach, Weight: 15, SkipFirst: true, Phrases: []string{"i understand", "that makes sense", "i can see why"}},
	{Metric: MetricActiveListening, Speaker: coach, Weight: 15, SkipFirst: true, Phrases: []string{"you sound", "you seem", "you feel"}},

	{Metric: MetricQuestioning, Speaker: coach, Weight: 10, Phrases: []string{"what", "how"}},
	{Metric: MetricQuestioning, Speaker: coach, Weight: 15, Phrases: []string{"tell me more", "help me understand"}},

	{Metric: MetricRapport, Speaker: coach, Weight: 20, Phrases: []string{"i understand", "that makes sense", "i can see why", "i hear you"}},
	{Metric: MetricRapport, Speaker: coach, Weight: 15, Phrases: []string{"you mentioned", "you said", "what i'm hearing"}},

	{Metric: MetricGoalSetting, Speaker: coach, Weight: 25, Phrases: []string{"what do you want", "what's your goal", "what would success", "what outcome"}},
	{Metric: MetricGoalSetting, Speaker: coach, Weight: 20, Phrases: []string{"what will you do", "what's your next step", "how will you", "when will you"}},

	{Metric: MetricAwareness, Speaker: coach, Weight: 25, Phrases: []string{"what do you notice", "what patterns", "what's the connection", "what does this tell you"}},
	{Metric: MetricAwareness, Speaker: client, Weight: 15, Phrases: []string{"i realize", "i see", "i notice", "i understand", "that makes me think"}},

	{Metric: MetricPresence, Speaker: coach, Weight: 20, Phrases: []string{"right now", "in this moment", "what's happening for you", "what are you experiencing"}},
	{Metric: MetricPresence, Speaker: coach, Weight: 5, Negate: true, Phrases: []string{"should", "must", "have to", "wrong", "bad"}},

	{Metric: MetricCultural, Speaker: coach, Weight: 10, City: "Mumbai", Phrases: []string{"family pressure"}},
	{Metric: MetricCultural, Speaker: coach, Weight: 10, City: "Delhi", Phrases: []string{"status"}},
	{Metric: MetricCultural, Speaker: coach, Weight: 10, City: "Bangalore", Phrases: []string{"work pressure"}},
	{Metric: MetricCultural, Speaker: coach, Weight: 5, Negate: true, Phrases: []string{"just leave", "ignore family", "western approach"}},
}

// transcript is the lowercased, speaker-split view the rules run against.
type transcript struct {
	all       []string
	coach     []string
	client    []string
	questions int
}

func split(msgs []domain.Message) transcript {
	var t transcript
	for _, m := range msgs {
		lower := strings.ToLower(m.Content)
		t.all = append(t.all, lower)
		switch m.Role {
		case domain.RoleCoach:
			t.coach = append(t.coach, lower)
			t.questions += strings.Count(m.Content, "?")
		case domain.RoleClient:
			t.client = append(t.client, lower)
		}
	}
	return t
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

// points sums the weights rules award over t.
func points(rules []Rule, t transcript, city string) float64 {
	var total float64
	for _, r := range rules {
		if r.City != "" && r.City != city {
			continue
		}
		msgs := t.coach
		if r.Speaker == domain.RoleClient {
			msgs = t.client
		}
		for i, text := range msgs {
			if r.SkipFirst && i == 0 {
				continue
			}
			if r.Paired {
				if i >= len(t.client) {
					continue
				}
				text = t.client[i]
			}
			if containsAny(text, r.Phrases) != r.Negate {
				total += r.Weight
			}
		}
	}
	return total
}

func normalize(raw float64, n Norm, t transcript) float64 {
	if n.RequireQuestion && t.questions == 0 {
		return 0
	}
	var v float64
	switch n.Divisor {
	case PerCoachMessage:
		if len(t.coach) == 0 {
			return 0
		}
		v = raw / float64(len(t.coach)) * n.Scale
	case PerQuestion:
		if t.questions == 0 {
			return 0
		}
		v = raw / float64(t.questions) * n.Scale
	default:
		v = raw * n.Scale
	}
	return clamp(v)
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}

// scoreAll evaluates every rule-driven metric plus client growth.
func scoreAll(rules []Rule, t transcript, p persona.Profile) map[Metric]float64 {
	byMetric := make(map[Metric][]Rule)
	for _, r := range rules {
		byMetric[r.Metric] = append(byMetric[r.Metric], r)
	}
	out := make(map[Metric]float64, len(norms)+1)
	for m, n := range norms {
		out[m] = normalize(points(byMetric[m], t, p.City), n, t)
	}
	out[MetricClientGrowth] = clientGrowth(t.client)
	return out
}

var (
	growthPositive = []string{"confident", "ready", "excited", "clear", "motivated", "empowered"}
	growthNegative = []string{"confused", "stuck", "overwhelmed", "frustrated", "lost"}
)

// clientGrowth compares the first and last client messages: 50 when the
// client moved from negative to positive language, 30 when they merely end
// positive.
func clientGrowth(clients []string) float64 {
	if len(clients) <= 1 {
		return 0
	}
	first, last := clients[0], clients[len(clients)-1]
	switch {
	case containsAny(last, growthPositive) && containsAny(first, growthNegative):
		return 50
	case containsAny(last, growthPositive):
		return 30
	}
	return 0
}

// SessionLengthMultiplier dampens scores of short sessions by the number of
// coach messages: 0 → 0, 1 → 0.1, 2 → 0.3, 3 → 0.5, 4–5 → 0.7, 6–7 → 0.9,
// 8 or more → 1.
func SessionLengthMultiplier(coachMessages int) float64 {
	switch {
	case coachMessages <= 0:
		return 0
	case coachMessages == 1:
		return 0.1
	case coachMessages == 2:
		return 0.3
	case coachMessages == 3:
		return 0.5
	case coachMessages < 6:
		return 0.7
	case coachMessages < 8:
		return 0.9
	}
	return 1
}

type need struct {
	name    string
	phrases []string
}

// reportNeeds are detected in coach messages for the session summary.
var reportNeeds = []need{
	{"Certainty", []string{"plan", "structure", "security", "stability", "consistent"}},
	{"Variety", []string{"options", "different", "change", "variety", "new"}},
	{"Significance", []string{"important", "special", "unique", "valuable", "matter"}},
	{"Love/Connection", []string{"connect", "relationship", "support", "understand", "care"}},
	{"Growth", []string{"grow", "learn", "develop", "improve", "better"}},
	{"Contribution", []string{"help", "serve", "contribute", "impact", "difference"}},
}

func needsAddressed(coachTexts []string) []string {
	all := strings.Join(coachTexts, " ")
	out := []string{}
	for _, n := range reportNeeds {
		if containsAny(all, n.phrases) {
			out = append(out, n.name)
		}
	}
	return out
}
