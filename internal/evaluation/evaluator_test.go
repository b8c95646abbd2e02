package evaluation

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tbourn/go-coach-sim/internal/domain"
	"github.com/tbourn/go-coach-sim/internal/persona"
)

var rahul = persona.Profile{ID: "rahul-mumbai-it", Name: "Rahul Sharma", City: "Mumbai"}

func coachMsg(s string) domain.Message  { return domain.Message{Role: domain.RoleCoach, Content: s} }
func clientMsg(s string) domain.Message { return domain.Message{Role: domain.RoleClient, Content: s} }

// exchange interleaves n coach and n client messages, client first.
func exchange(n int, coach, client string) []domain.Message {
	var out []domain.Message
	for i := 0; i < n; i++ {
		out = append(out, clientMsg(client), coachMsg(coach))
	}
	return out
}

func TestSessionLengthMultiplier(t *testing.T) {
	want := map[int]float64{0: 0, 1: 0.1, 2: 0.3, 3: 0.5, 4: 0.7, 5: 0.7, 6: 0.9, 7: 0.9, 8: 1, 30: 1}
	for n, m := range want {
		require.Equal(t, m, SessionLengthMultiplier(n), "coach messages %d", n)
	}
}

func TestEvaluate_NoCoachMessagesScoresZero(t *testing.T) {
	tr := Transcript{SessionID: "s1", PersonaID: rahul.ID, Messages: []domain.Message{
		clientMsg("Aha, I realize I'm stuck"),
	}}
	r := New().Evaluate(tr, rahul)

	cp := r.CoachPerformance
	for _, c := range []Competency{cp.ActiveListening, cp.PowerfulQuestioning, cp.RapportBuilding, cp.GoalSetting, cp.BreakthroughCreation} {
		require.Zero(t, c.Score)
		require.Len(t, c.Examples, 1)
	}
	require.Zero(t, cp.OverallEffectiveness.Score)
	require.Zero(t, r.Metrics.Growth.BreakthroughMoments)
	require.Equal(t, "This brief conversation (0 exchanges) addressed no specific needs and achieved 0% breakthrough effectiveness.", r.SessionSummary)
	require.Equal(t, []string{"Good foundation in coaching basics"}, r.Strengths)
	require.Len(t, cp.OverallEffectiveness.Recommendations, 3)
	require.Equal(t, []string{
		"Focus on addressing Rahul's need for financial certainty and career security",
		"Work on identifying and challenging limiting beliefs in the next session",
	}, r.NextSessionRecommendations)
	require.Equal(t, "This session shows you're learning the fundamentals. Focus on studying proven coaching techniques and practicing active listening to improve your effectiveness.", r.StyleFeedback)
}

func TestEvaluate_FullLengthSessionIsUndampened(t *testing.T) {
	tr := Transcript{Messages: exchange(8, "What do you really want?", "I'm not sure")}
	r := New().Evaluate(tr, rahul)

	require.Equal(t, 1.0, r.Metrics.Multiplier)
	require.Equal(t, 8, r.Metrics.CoachMessages)
	require.InDelta(t, 100, r.Metrics.Growth.PowerfulQuestions, 1e-9)
	require.InDelta(t, 50, r.Metrics.ICF.Questioning, 1e-9)
	require.Equal(t, 75, r.CoachPerformance.PowerfulQuestioning.Score)
	require.Equal(t, "Good questioning with some powerful moments. Aim for more outcome-focused and empowering questions.",
		r.CoachPerformance.PowerfulQuestioning.Feedback)
	require.Equal(t, "This extended session (8 exchanges) addressed no specific needs and achieved 0% breakthrough effectiveness.", r.SessionSummary)
}

func TestEvaluate_PowerfulQuestionRaisesScore(t *testing.T) {
	plain := New().Evaluate(Transcript{Messages: exchange(8, "How are things?", "Fine")}, rahul)
	powerful := New().Evaluate(Transcript{Messages: exchange(8, "What do you really want?", "Fine")}, rahul)

	require.Equal(t, 25, plain.CoachPerformance.PowerfulQuestioning.Score)
	require.Greater(t, powerful.CoachPerformance.PowerfulQuestioning.Score, plain.CoachPerformance.PowerfulQuestioning.Score)
}

func TestEvaluate_ShortSessionIsDampened(t *testing.T) {
	r := New().Evaluate(Transcript{Messages: exchange(1, "What do you really want?", "Fine")}, rahul)
	require.Equal(t, 0.1, r.Metrics.Multiplier)
	require.InDelta(t, 10, r.Metrics.Growth.PowerfulQuestions, 1e-9)
	require.Equal(t, 8, r.CoachPerformance.PowerfulQuestioning.Score)
}

func TestEvaluate_Deterministic(t *testing.T) {
	msgs := append(exchange(5, "It sounds like you care. What would happen if you tried?", "I realize I'm excited"),
		coachMsg("What's your next step?"))
	tr := Transcript{SessionID: "s", PersonaID: rahul.ID, Messages: msgs}
	e := New()
	require.Equal(t, e.Evaluate(tr, rahul), e.Evaluate(tr, rahul))
}

func TestEvaluate_ActiveListeningSkipsFirstCoachMessage(t *testing.T) {
	first := New().Evaluate(Transcript{Messages: []domain.Message{
		coachMsg("It sounds like you're tired."), coachMsg("Okay."),
	}}, rahul)
	require.Zero(t, first.Metrics.ICF.ActiveListening)

	second := New().Evaluate(Transcript{Messages: []domain.Message{
		coachMsg("Okay."), coachMsg("It sounds like you're tired."),
	}}, rahul)
	// 20 points over 2 messages, scaled by 5 and dampened by 0.3.
	require.InDelta(t, 15, second.Metrics.ICF.ActiveListening, 1e-9)
}

func TestEvaluate_StateManagementPairsClientReplies(t *testing.T) {
	r := New().Evaluate(Transcript{Messages: []domain.Message{
		coachMsg("How do you feel?"), clientMsg("I'm excited"),
	}}, rahul)
	require.InDelta(t, 10, r.Metrics.Growth.StateManagement, 1e-9)
}

func TestEvaluate_CulturalSensitivityByCity(t *testing.T) {
	msgs := []domain.Message{coachMsg("I hear the family pressure."), coachMsg("Just leave them.")}
	mumbai := New().Evaluate(Transcript{Messages: msgs}, rahul)
	require.InDelta(t, 4.5, mumbai.Metrics.CulturalSensitivity, 1e-9)

	delhi := New().Evaluate(Transcript{Messages: msgs}, persona.Profile{ID: "x", City: "Delhi"})
	require.InDelta(t, 1.5, delhi.Metrics.CulturalSensitivity, 1e-9)
}

func TestEvaluate_ClientGrowth(t *testing.T) {
	msgs := exchange(8, "Okay.", "Hmm")
	msgs[0] = clientMsg("I'm stuck")
	msgs[len(msgs)-2] = clientMsg("I'm ready now")
	r := New().Evaluate(Transcript{Messages: msgs}, rahul)
	require.InDelta(t, 50, r.Metrics.ICF.ClientGrowth, 1e-9)

	msgs[0] = clientMsg("Hello")
	r = New().Evaluate(Transcript{Messages: msgs}, rahul)
	require.InDelta(t, 30, r.Metrics.ICF.ClientGrowth, 1e-9)
}

func TestEvaluate_ProgressionAndNeeds(t *testing.T) {
	msgs := []domain.Message{
		clientMsg("I'm stuck"), coachMsg("Let's plan this."),
		clientMsg("I'm not sure"), coachMsg("What would help you grow?"),
		clientMsg("I'm excited"), coachMsg("Good."),
		clientMsg("I'm ready"), coachMsg("Great."),
	}
	r := New().Evaluate(Transcript{Messages: msgs}, rahul)
	require.Equal(t, "Client showed positive emotional progression, moving from uncertainty to greater clarity and motivation.", r.ClientProgression)
	require.Equal(t, []string{"Certainty", "Growth", "Contribution"}, r.NeedsAddressed)
	require.Contains(t, r.SessionSummary, "addressed Certainty, Growth, Contribution needs")
	require.NotContains(t, r.NextSessionRecommendations, "Focus on addressing Rahul's need for financial certainty and career security")

	flat := New().Evaluate(Transcript{Messages: exchange(2, "Okay.", "I'm ready")}, rahul)
	require.Equal(t, "Client maintained steady engagement throughout the session with moderate emotional shifts.", flat.ClientProgression)
}

func TestHighlights(t *testing.T) {
	h := highlights([]domain.Message{
		coachMsg("Welcome."),
		clientMsg("I'm stuck."),
		coachMsg("Why is that?"),
		clientMsg("I realize it's fear."),
		coachMsg("What do you notice?"),
		clientMsg("This was helpful."),
	})
	require.Equal(t, "What do you notice?", h.BestQuestion)
	require.Equal(t, "I realize it's fear.", h.BreakthroughQuote)
	require.Equal(t, "This was helpful.", h.KeyLearning)

	require.Equal(t, "Why?", highlights([]domain.Message{coachMsg("Why?")}).BestQuestion)

	empty := highlights(nil)
	require.Equal(t, "Ask more powerful questions!", empty.BestQuestion)
	require.Equal(t, "Client showed engagement throughout the session", empty.BreakthroughQuote)
	require.Equal(t, "Continue building coaching skills", empty.KeyLearning)
}

func TestFeedbackBands(t *testing.T) {
	require.Equal(t, "Excellent active listening! You consistently acknowledged and reflected what the client shared.", listeningFeedback(85))
	require.Equal(t, "Moderate listening skills. Focus more on acknowledging what the client says before asking new questions.", listeningFeedback(50))
	require.Equal(t, "Focus on building stronger rapport through validation and acknowledgment.", rapportFeedback(69))
	require.Equal(t, "Some good insights generated. Focus on creating more 'aha' moments.", breakthroughFeedback(74))
	require.Equal(t, "Solid coaching foundation with opportunities for growth. Focus on more powerful questioning and creating breakthrough moments for your clients.", overallFeedback(55))
}

func TestZeroValueEvaluatorUsesDefaults(t *testing.T) {
	tr := Transcript{Messages: exchange(3, "What's your goal?", "To be clear")}
	var zero Evaluator
	require.Equal(t, New().Evaluate(tr, rahul), zero.Evaluate(tr, rahul))
}
