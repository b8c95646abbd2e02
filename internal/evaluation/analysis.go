package evaluation

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/tbourn/go-coach-sim/internal/domain"
	"github.com/tbourn/go-coach-sim/internal/persona"
)

// SessionMetrics are descriptive statistics of a transcript.
type SessionMetrics struct {
	TotalMessages            int     `json:"total_messages"`
	CoachToClientRatio       float64 `json:"coach_to_client_ratio"`
	AverageMessageLength     float64 `json:"average_message_length"`
	QuestionToStatementRatio float64 `json:"question_to_statement_ratio"`
	BreakthroughMoments      int     `json:"breakthrough_moments"`
	EmotionalProgression     float64 `json:"emotional_progression"`
}

// CulturalContext reports which culturally relevant themes came up.
type CulturalContext struct {
	FamilyPressureAddressed       bool     `json:"family_pressure_addressed"`
	WorkLifeBalanceDiscussed      bool     `json:"work_life_balance_discussed"`
	FinancialConcernsAcknowledged bool     `json:"financial_concerns_acknowledged"`
	SensitivityScore              int      `json:"sensitivity_score"`
	Recommendations               []string `json:"recommendations"`
}

// ImprovementPlan lists follow-up work for the coach.
type ImprovementPlan struct {
	ImmediateActions       []string `json:"immediate_actions"`
	SkillDevelopmentAreas  []string `json:"skill_development_areas"`
	TechniquesToPractice   []string `json:"techniques_to_practice"`
	NextSessionPreparation []string `json:"next_session_preparation"`
}

// Analysis is the full post-session analysis.
type Analysis struct {
	Report   Report          `json:"report"`
	Metrics  SessionMetrics  `json:"session_metrics"`
	Cultural CulturalContext `json:"cultural_context"`
	Plan     ImprovementPlan `json:"improvement_plan"`
}

// Analyze evaluates t and adds session metrics, cultural context and an
// improvement plan.
func (e *Evaluator) Analyze(t Transcript, p persona.Profile) Analysis {
	r := e.Evaluate(t, p)
	return Analysis{
		Report:   r,
		Metrics:  Metrics(t.Messages),
		Cultural: Cultural(t.Messages),
		Plan:     Plan(r, p),
	}
}

var (
	progressNegative = []string{"stuck", "confused", "overwhelmed", "anxious", "frustrated", "hopeless"}
	progressPositive = []string{"clear", "confident", "excited", "motivated", "ready", "understand"}
)

// Metrics computes SessionMetrics for msgs.
func Metrics(msgs []domain.Message) SessionMetrics {
	var coachN, clientN, runes, questions, statements, breakthroughs int
	var clients []string
	for _, m := range msgs {
		runes += utf8.RuneCountInString(m.Content)
		switch m.Role {
		case domain.RoleCoach:
			coachN++
			q := strings.Count(m.Content, "?")
			questions += q
			if q == 0 {
				statements++
			}
		case domain.RoleClient:
			clientN++
			clients = append(clients, strings.ToLower(m.Content))
			if _, ok := DetectBreakthrough(m.Content); ok {
				breakthroughs++
			}
		}
	}

	sm := SessionMetrics{
		TotalMessages:            len(msgs),
		QuestionToStatementRatio: float64(questions),
		BreakthroughMoments:      breakthroughs,
		EmotionalProgression:     emotionalProgression(clients),
	}
	if clientN > 0 {
		sm.CoachToClientRatio = float64(coachN) / float64(clientN)
	}
	if len(msgs) > 0 {
		sm.AverageMessageLength = float64(runes) / float64(len(msgs))
	}
	if statements > 0 {
		sm.QuestionToStatementRatio = float64(questions) / float64(statements)
	}
	return sm
}

func emotionalProgression(clients []string) float64 {
	if len(clients) < 2 {
		return 0
	}
	sentiment := func(s string) float64 {
		var v float64
		for _, w := range progressNegative {
			if strings.Contains(s, w) {
				v -= 10
			}
		}
		for _, w := range progressPositive {
			if strings.Contains(s, w) {
				v += 10
			}
		}
		return v
	}
	return clamp(50 + sentiment(clients[len(clients)-1]) - sentiment(clients[0]))
}

var (
	familyTheme    = regexp.MustCompile(`family|parents|marriage|tradition|society|cultural`)
	workLifeTheme  = regexp.MustCompile(`work.life|balance|overtime|stress|career`)
	financialTheme = regexp.MustCompile(`money|salary|financial|income|expense|saving`)

	culturalIndicators = []string{
		"understand the family pressure", "cultural expectations", "honoring your values",
		"balancing tradition and personal goals", "respecting your background",
	}
)

// Cultural analyses the cultural themes of msgs.
func Cultural(msgs []domain.Message) CulturalContext {
	all := strings.ToLower(joinContent(msgs))
	cc := CulturalContext{
		FamilyPressureAddressed:       familyTheme.MatchString(all),
		WorkLifeBalanceDiscussed:      workLifeTheme.MatchString(all),
		FinancialConcernsAcknowledged: financialTheme.MatchString(all),
		Recommendations:               []string{},
	}
	score := 0
	for _, m := range msgs {
		if !m.IsCoach() {
			continue
		}
		lower := strings.ToLower(m.Content)
		for _, ind := range culturalIndicators {
			if strings.Contains(lower, ind) {
				score += 20
			}
		}
	}
	cc.SensitivityScore = min(100, score)

	if !cc.FamilyPressureAddressed {
		cc.Recommendations = append(cc.Recommendations, "Address family and cultural pressures more directly in future sessions")
	}
	if !cc.WorkLifeBalanceDiscussed {
		cc.Recommendations = append(cc.Recommendations, "Explore work-life balance challenges specific to Indian work culture")
	}
	if !cc.FinancialConcernsAcknowledged {
		cc.Recommendations = append(cc.Recommendations, "Acknowledge financial planning concerns common to Indian metro professionals")
	}
	if cc.SensitivityScore < 60 {
		cc.Recommendations = append(cc.Recommendations, "Increase cultural sensitivity by acknowledging traditional values while empowering personal choice")
	}
	return cc
}

// Plan derives an improvement plan from a report and the persona coached.
func Plan(r Report, p persona.Profile) ImprovementPlan {
	plan := ImprovementPlan{
		ImmediateActions:       []string{},
		SkillDevelopmentAreas:  []string{},
		TechniquesToPractice:   []string{},
		NextSessionPreparation: []string{},
	}
	cp := r.CoachPerformance
	if cp.ActiveListening.Score < 70 {
		plan.ImmediateActions = append(plan.ImmediateActions, `Practice more acknowledgment phrases: "What I hear you saying is..."`)
		plan.SkillDevelopmentAreas = append(plan.SkillDevelopmentAreas, "Active Listening in Text-Based Coaching")
	}
	if cp.PowerfulQuestioning.Score < 70 {
		plan.ImmediateActions = append(plan.ImmediateActions, `Use quality questions: "What do you really want?"`)
		plan.TechniquesToPractice = append(plan.TechniquesToPractice, "Outcome-focused questioning")
	}
	if cp.BreakthroughCreation.Score < 50 {
		plan.SkillDevelopmentAreas = append(plan.SkillDevelopmentAreas, "Creating breakthrough moments through reframing")
		plan.TechniquesToPractice = append(plan.TechniquesToPractice, "Belief challenging and perspective shifting")
	}
	if p.PersonalityTraits.EmotionalState == persona.EmotionAnxious {
		plan.NextSessionPreparation = append(plan.NextSessionPreparation, "Focus on state management techniques for anxiety")
		plan.TechniquesToPractice = append(plan.TechniquesToPractice, "State change through empowering questions")
	}
	for _, problem := range p.CoreProblems {
		lower := strings.ToLower(problem)
		if strings.Contains(lower, "family") || strings.Contains(lower, "pressure") {
			plan.NextSessionPreparation = append(plan.NextSessionPreparation, "Prepare culturally sensitive approaches to family pressure")
			plan.ImmediateActions = append(plan.ImmediateActions, "Research family dynamics in Indian metro professional context")
			break
		}
	}
	plan.TechniquesToPractice = append(plan.TechniquesToPractice,
		"RPM Method (Results, Purpose, Massive Action)",
		"Six Human Needs assessment",
	)
	return plan
}

// Improvement holds per-competency score deltas between two sessions.
type Improvement struct {
	ActiveListening      int `json:"active_listening"`
	PowerfulQuestioning  int `json:"powerful_questioning"`
	RapportBuilding      int `json:"rapport_building"`
	BreakthroughCreation int `json:"breakthrough_creation"`
}

// ProgressReport compares the latest session with the one before it.
type ProgressReport struct {
	Improvement      Improvement `json:"improvement"`
	OverallTrend     int         `json:"overall_trend"`
	SessionsAnalyzed int         `json:"sessions_analyzed"`
}

// Progress compares the last two reports of history, oldest first. It
// reports false when fewer than two reports exist.
func Progress(history []Report) (ProgressReport, bool) {
	if len(history) < 2 {
		return ProgressReport{}, false
	}
	prev := history[len(history)-2].CoachPerformance
	last := history[len(history)-1].CoachPerformance
	return ProgressReport{
		Improvement: Improvement{
			ActiveListening:      last.ActiveListening.Score - prev.ActiveListening.Score,
			PowerfulQuestioning:  last.PowerfulQuestioning.Score - prev.PowerfulQuestioning.Score,
			RapportBuilding:      last.RapportBuilding.Score - prev.RapportBuilding.Score,
			BreakthroughCreation: last.BreakthroughCreation.Score - prev.BreakthroughCreation.Score,
		},
		OverallTrend:     last.OverallEffectiveness.Score - prev.OverallEffectiveness.Score,
		SessionsAnalyzed: len(history),
	}, true
}

// Average returns the mean overall score of reports, rounded.
func Average(reports []Report) int {
	if len(reports) == 0 {
		return 0
	}
	var sum float64
	for _, r := range reports {
		sum += float64(r.CoachPerformance.OverallEffectiveness.Score)
	}
	return int(math.Round(sum / float64(len(reports))))
}
