package evaluation

import "slices"

const (
	exampleListening    = "Look for more 'What I hear you saying...' statements"
	exampleQuestioning  = "Try: 'What would happen if you knew you couldn't fail?'"
	exampleRapport      = "Use more validation: 'That makes complete sense given your situation'"
	exampleGoal         = "Ask: 'What does success look like specifically?'"
	exampleBreakthrough = "Client showed insight when they said: 'I never thought of it that way'"
)

// band picks the text of the first threshold score reaches; fallback otherwise.
type band struct {
	min  int
	text string
}

func pick(score int, bands []band, fallback string) string {
	for _, b := range bands {
		if score >= b.min {
			return b.text
		}
	}
	return fallback
}

func listeningFeedback(s int) string {
	return pick(s, []band{
		{85, "Excellent active listening! You consistently acknowledged and reflected what the client shared."},
		{70, "Good listening skills shown, with room to improve on paraphrasing and emotional reflection."},
		{50, "Moderate listening skills. Focus more on acknowledging what the client says before asking new questions."},
	}, "Needs improvement in active listening. Practice paraphrasing and reflecting emotions before moving forward.")
}

func questioningFeedback(s int) string {
	return pick(s, []band{
		{85, "Outstanding questioning! You used powerful questions that created genuine insights and breakthroughs."},
		{70, "Good questioning with some powerful moments. Aim for more outcome-focused and empowering questions."},
		{50, "Decent questioning but could be more powerful. Focus on 'what' and 'how' rather than 'why' questions."},
	}, "Questions need more power and focus. Study advanced questioning techniques for better results.")
}

func rapportFeedback(s int) string {
	return pick(s, []band{
		{85, "Excellent rapport building! The client felt understood and supported throughout."},
		{70, "Good rapport established. Continue building trust and understanding."},
	}, "Focus on building stronger rapport through validation and acknowledgment.")
}

func goalFeedback(s int) string {
	return pick(s, []band{
		{85, "Outstanding goal-setting approach! Clear outcomes and action steps identified."},
		{70, "Good goal orientation. Continue focusing on specific, measurable outcomes."},
	}, "Improve goal-setting by being more specific about desired outcomes and next steps.")
}

func breakthroughFeedback(s int) string {
	return pick(s, []band{
		{75, "Amazing! You created breakthrough moments that shifted the client's perspective."},
		{50, "Some good insights generated. Focus on creating more 'aha' moments."},
	}, "Work on creating breakthrough moments through powerful questions and reframing.")
}

func overallFeedback(s int) string {
	return pick(s, []band{
		{85, "Outstanding coaching session! You demonstrated mastery of breakthrough coaching methodology and professional standards. Your client experienced genuine insights and emotional shifts."},
		{70, "Strong coaching performance! You showed good understanding of powerful coaching techniques with room to enhance breakthrough creation and outcome focus."},
		{55, "Solid coaching foundation with opportunities for growth. Focus on more powerful questioning and creating breakthrough moments for your clients."},
	}, "This session shows you're learning, but there's significant room for improvement. Study advanced coaching methodology and practice the fundamentals of powerful coaching.")
}

func styleFeedback(s int) string {
	return pick(s, []band{
		{85, "Excellent coaching session. You created genuine insights and helped your client see new possibilities. Your questioning and rapport-building were particularly effective."},
		{70, "Strong coaching performance. You demonstrated solid skills and created some powerful moments. Focus on asking more outcome-focused questions to elevate your impact."},
		{55, "Good foundation in coaching basics. You showed good instincts with room to improve. Work on creating more breakthrough moments through powerful questioning."},
	}, "This session shows you're learning the fundamentals. Focus on studying proven coaching techniques and practicing active listening to improve your effectiveness.")
}

func recommendations(g GrowthMetrics, icf ICFMetrics) []string {
	out := []string{}
	if g.PowerfulQuestions < 70 {
		out = append(out, "Study advanced questioning patterns - focus on outcome and empowerment questions")
	}
	if g.BreakthroughMoments < 50 {
		out = append(out, "Practice creating 'aha' moments through powerful reframes and perspective shifts")
	}
	if icf.ActiveListening < 70 {
		out = append(out, "Improve active listening by paraphrasing and reflecting emotions before asking new questions")
	}
	return out
}

func improvementAreas(g GrowthMetrics, icf ICFMetrics) []string {
	out := []string{}
	if g.StateManagement < 60 {
		out = append(out, "State management and emotional awareness")
	}
	if g.PowerfulQuestions < 70 {
		out = append(out, "Powerful questioning techniques")
	}
	if g.BreakthroughMoments < 50 {
		out = append(out, "Creating breakthrough moments")
	}
	if icf.ActiveListening < 70 {
		out = append(out, "Active listening and reflection")
	}
	if icf.GoalSetting < 60 {
		out = append(out, "Goal setting and outcome focus")
	}
	return out
}

func strengths(g GrowthMetrics, icf ICFMetrics) []string {
	var out []string
	if g.EnergyAndRapport >= 80 {
		out = append(out, "High energy and excellent rapport building")
	}
	if g.OutcomeOrientation >= 75 {
		out = append(out, "Strong outcome and results orientation")
	}
	if g.BreakthroughMoments >= 75 {
		out = append(out, "Excellent at creating breakthrough moments")
	}
	if icf.ActiveListening >= 80 {
		out = append(out, "Outstanding active listening skills")
	}
	if g.PowerfulQuestions >= 80 {
		out = append(out, "Masterful powerful questioning")
	}
	if len(out) == 0 {
		return []string{"Good foundation in coaching basics"}
	}
	return out
}

// personaNeeds lists persona-specific follow-ups, emitted when the named
// need was not addressed.
var personaNeeds = []struct {
	personaID, need, text string
}{
	{"rahul-mumbai-it", "Certainty", "Focus on addressing Rahul's need for financial certainty and career security"},
	{"priya-delhi-startup", "Significance", "Explore Priya's need for significance and recognition in her entrepreneurial journey"},
	{"arjun-bangalore-pm", "Growth", "Address Arjun's growth needs and confidence building in his career progression"},
}

func nextSession(personaID string, needs []string, g GrowthMetrics) []string {
	out := []string{}
	for _, pn := range personaNeeds {
		if pn.personaID == personaID && !slices.Contains(needs, pn.need) {
			out = append(out, pn.text)
		}
	}
	if g.BeliefWork < 60 {
		out = append(out, "Work on identifying and challenging limiting beliefs in the next session")
	}
	return out
}
