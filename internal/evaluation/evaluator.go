// Package evaluation scores coaching transcripts.
//
// Evaluate produces the post-session report: thirteen phrase-driven
// sub-scores, dampened by session length, rolled up into five reported
// competencies and an overall score with fixed feedback texts. Live gives
// the lighter in-session view. Everything here is deterministic: the same
// transcript and persona always yield the same report.
package evaluation

import (
	"fmt"
	"math"
	"strings"

	"github.com/tbourn/go-coach-sim/internal/domain"
	"github.com/tbourn/go-coach-sim/internal/persona"
)

// Transcript is the input to Evaluate.
type Transcript struct {
	SessionID string           `json:"session_id"`
	PersonaID string           `json:"persona_id"`
	Messages  []domain.Message `json:"messages"`
}

// Competency is one reported competency.
type Competency struct {
	Score    int      `json:"score"`
	Feedback string   `json:"feedback"`
	Examples []string `json:"examples"`
}

// Overall is the session-wide score.
type Overall struct {
	Score           int      `json:"score"`
	Feedback        string   `json:"feedback"`
	Recommendations []string `json:"recommendations"`
}

// Performance groups the reported competencies.
type Performance struct {
	ActiveListening      Competency `json:"active_listening"`
	PowerfulQuestioning  Competency `json:"powerful_questioning"`
	RapportBuilding      Competency `json:"rapport_building"`
	GoalSetting          Competency `json:"goal_setting"`
	BreakthroughCreation Competency `json:"breakthrough_creation"`
	OverallEffectiveness Overall    `json:"overall_effectiveness"`
}

// GrowthMetrics are the growth-methodology sub-scores, already dampened.
type GrowthMetrics struct {
	StateManagement     float64 `json:"state_management"`
	PowerfulQuestions   float64 `json:"powerful_questions"`
	BreakthroughMoments float64 `json:"breakthrough_moments"`
	OutcomeOrientation  float64 `json:"outcome_orientation"`
	BeliefWork          float64 `json:"belief_work"`
	EnergyAndRapport    float64 `json:"energy_and_rapport"`
}

func (g GrowthMetrics) average() float64 {
	return (g.StateManagement + g.PowerfulQuestions + g.BreakthroughMoments +
		g.OutcomeOrientation + g.BeliefWork + g.EnergyAndRapport) / 6
}

// ICFMetrics are the core-competency sub-scores, already dampened.
type ICFMetrics struct {
	ActiveListening float64 `json:"active_listening"`
	Questioning     float64 `json:"questioning"`
	Rapport         float64 `json:"rapport"`
	GoalSetting     float64 `json:"goal_setting"`
	Awareness       float64 `json:"awareness"`
	ClientGrowth    float64 `json:"client_growth"`
	Presence        float64 `json:"presence"`
}

func (m ICFMetrics) average() float64 {
	return (m.ActiveListening + m.Questioning + m.Rapport + m.GoalSetting +
		m.Awareness + m.ClientGrowth + m.Presence) / 7
}

// Breakdown exposes the sub-scores behind a report.
type Breakdown struct {
	Multiplier          float64       `json:"multiplier"`
	CoachMessages       int           `json:"coach_messages"`
	Growth              GrowthMetrics `json:"growth"`
	ICF                 ICFMetrics    `json:"icf"`
	CulturalSensitivity float64       `json:"cultural_sensitivity"`
}

// Highlights quotes notable moments of the transcript.
type Highlights struct {
	BestQuestion      string `json:"best_question"`
	BreakthroughQuote string `json:"breakthrough_quote"`
	KeyLearning       string `json:"key_learning"`
}

// Report is the post-session evaluation.
type Report struct {
	SessionID                  string      `json:"session_id"`
	PersonaID                  string      `json:"persona_id"`
	CoachPerformance           Performance `json:"coach_performance"`
	SessionSummary             string      `json:"session_summary"`
	ClientProgression          string      `json:"client_progression"`
	NeedsAddressed             []string    `json:"needs_addressed"`
	AreasForImprovement        []string    `json:"areas_for_improvement"`
	Strengths                  []string    `json:"strengths"`
	NextSessionRecommendations []string    `json:"next_session_recommendations"`
	StyleFeedback              string      `json:"style_feedback"`
	Highlights                 Highlights  `json:"highlights"`
	Metrics                    Breakdown   `json:"metrics"`
}

// Evaluator scores transcripts. The zero value is ready to use.
type Evaluator struct {
	// Rules overrides the phrase table; nil means Rules.
	Rules []Rule
	// Multiplier maps the number of coach messages to a dampening factor;
	// nil means SessionLengthMultiplier.
	Multiplier func(coachMessages int) float64
}

// New returns an Evaluator using the default tables.
func New() *Evaluator {
	return &Evaluator{Rules: Rules, Multiplier: SessionLengthMultiplier}
}

// Evaluate scores t for persona p.
func (e *Evaluator) Evaluate(t Transcript, p persona.Profile) Report {
	rules, mult := e.Rules, e.Multiplier
	if rules == nil {
		rules = Rules
	}
	if mult == nil {
		mult = SessionLengthMultiplier
	}

	tr := split(t.Messages)
	raw := scoreAll(rules, tr, p)
	m := mult(len(tr.coach))
	d := func(metric Metric) float64 { return raw[metric] * m }

	b := Breakdown{
		Multiplier:    m,
		CoachMessages: len(tr.coach),
		Growth: GrowthMetrics{
			StateManagement:     d(MetricStateManagement),
			PowerfulQuestions:   d(MetricPowerfulQuestions),
			BreakthroughMoments: d(MetricBreakthroughs),
			OutcomeOrientation:  d(MetricOutcomeOrientation),
			BeliefWork:          d(MetricBeliefWork),
			EnergyAndRapport:    d(MetricEnergyAndRapport),
		},
		ICF: ICFMetrics{
			ActiveListening: d(MetricActiveListening),
			Questioning:     d(MetricQuestioning),
			Rapport:         d(MetricRapport),
			GoalSetting:     d(MetricGoalSetting),
			Awareness:       d(MetricAwareness),
			ClientGrowth:    d(MetricClientGrowth),
			Presence:        d(MetricPresence),
		},
		CulturalSensitivity: d(MetricCultural),
	}

	g, icf := b.Growth, b.ICF
	al := round(icf.ActiveListening)
	pq := round((g.PowerfulQuestions + icf.Questioning) / 2)
	rapport := round(icf.Rapport)
	goal := round(icf.GoalSetting)
	bt := round(g.BreakthroughMoments)
	overall := round(g.average()*0.5 + icf.average()*0.4 + b.CulturalSensitivity*0.1)

	needs := needsAddressed(tr.coach)

	return Report{
		SessionID: t.SessionID,
		PersonaID: t.PersonaID,
		CoachPerformance: Performance{
			ActiveListening:      Competency{Score: al, Feedback: listeningFeedback(al), Examples: []string{exampleListening}},
			PowerfulQuestioning:  Competency{Score: pq, Feedback: questioningFeedback(pq), Examples: []string{exampleQuestioning}},
			RapportBuilding:      Competency{Score: rapport, Feedback: rapportFeedback(rapport), Examples: []string{exampleRapport}},
			GoalSetting:          Competency{Score: goal, Feedback: goalFeedback(goal), Examples: []string{exampleGoal}},
			BreakthroughCreation: Competency{Score: bt, Feedback: breakthroughFeedback(bt), Examples: []string{exampleBreakthrough}},
			OverallEffectiveness: Overall{
				Score:           overall,
				Feedback:        overallFeedback(overall),
				Recommendations: recommendations(g, icf),
			},
		},
		SessionSummary:             sessionSummary(len(t.Messages), needs, bt),
		ClientProgression:          progression(tr.client),
		NeedsAddressed:             needs,
		AreasForImprovement:        improvementAreas(g, icf),
		Strengths:                  strengths(g, icf),
		NextSessionRecommendations: nextSession(p.ID, needs, g),
		StyleFeedback:              styleFeedback(overall),
		Highlights:                 highlights(t.Messages),
		Metrics:                    b,
	}
}

func round(v float64) int { return int(math.Round(v)) }

func sessionSummary(messages int, needs []string, breakthrough int) string {
	var length string
	switch {
	case messages <= 3:
		length = "brief conversation"
	case messages <= 6:
		length = "short session"
	case messages <= 10:
		length = "standard session"
	default:
		length = "extended session"
	}
	addressed := "no specific"
	if len(needs) > 0 {
		addressed = strings.Join(needs, ", ")
	}
	return fmt.Sprintf("This %s (%d exchanges) addressed %s needs and achieved %d%% breakthrough effectiveness.",
		length, messages/2, addressed, breakthrough)
}

var progressionWords = []string{"excited", "hopeful", "confident", "ready", "motivated"}

func progression(clients []string) string {
	half := len(clients) / 2
	count := func(msgs []string) int {
		n := 0
		for _, m := range msgs {
			if containsAny(m, progressionWords) {
				n++
			}
		}
		return n
	}
	if count(clients[half:]) > count(clients[:half]) {
		return "Client showed positive emotional progression, moving from uncertainty to greater clarity and motivation."
	}
	return "Client maintained steady engagement throughout the session with moderate emotional shifts."
}

var (
	bestQuestionPhrases = []string{"what do you", "how would you", "what would happen"}
	insightPhrases      = []string{"i realize", "i see", "that makes sense", "i understand"}
	learningPhrases     = []string{"learned", "helpful", "insight", "clearer"}
)

func highlights(msgs []domain.Message) Highlights {
	h := Highlights{
		BestQuestion:      "Ask more powerful questions!",
		BreakthroughQuote: "Client showed engagement throughout the session",
		KeyLearning:       "Continue building coaching skills",
	}
	var firstQuestion string
	var best, quote, learning bool
	for _, m := range msgs {
		lower := strings.ToLower(m.Content)
		switch m.Role {
		case domain.RoleCoach:
			if !strings.Contains(m.Content, "?") {
				continue
			}
			if firstQuestion == "" {
				firstQuestion = m.Content
			}
			if !best && containsAny(lower, bestQuestionPhrases) {
				h.BestQuestion, best = m.Content, true
			}
		case domain.RoleClient:
			if !quote && containsAny(lower, insightPhrases) {
				h.BreakthroughQuote, quote = m.Content, true
			}
			if !learning && containsAny(lower, learningPhrases) {
				h.KeyLearning, learning = m.Content, true
			}
		}
	}
	if !best && firstQuestion != "" {
		h.BestQuestion = firstQuestion
	}
	return h
}
