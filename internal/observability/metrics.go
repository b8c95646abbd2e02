package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Turn and LLM outcomes used as label values.
const (
	OutcomeOK       = "ok"
	OutcomeError    = "error"
	OutcomeFallback = "fallback"
	OutcomeRepaired = "repaired"
)

// CoachMetrics holds the coaching-domain Prometheus collectors.
type CoachMetrics struct {
	SessionsStarted prometheus.Counter
	SessionsEnded   prometheus.Counter
	Turns           *prometheus.CounterVec
	DriftRepairs    prometheus.Counter
	LLMRequests     *prometheus.CounterVec
	OverallScore    prometheus.Histogram
}

// NewCoachMetrics builds the collectors and registers them with reg. A nil
// reg leaves them unregistered, which tests use to avoid global state.
func NewCoachMetrics(reg prometheus.Registerer) *CoachMetrics {
	m := &CoachMetrics{
		SessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coach_sessions_started_total",
			Help: "Coaching sessions started.",
		}),
		SessionsEnded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coach_sessions_ended_total",
			Help: "Coaching sessions ended and evaluated.",
		}),
		Turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coach_turns_total",
			Help: "Coaching turns by outcome.",
		}, []string{"outcome"}),
		DriftRepairs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coach_role_drift_repairs_total",
			Help: "Client replies replaced because the model broke character.",
		}),
		LLMRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coach_llm_requests_total",
			Help: "Text generation requests by outcome.",
		}, []string{"outcome"}),
		OverallScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "coach_session_overall_score",
			Help:    "Overall effectiveness score of ended sessions.",
			Buckets: prometheus.LinearBuckets(10, 10, 10),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.SessionsStarted, m.SessionsEnded, m.Turns, m.DriftRepairs, m.LLMRequests, m.OverallScore)
	}
	return m
}

// SessionStarted counts a started session.
func (m *CoachMetrics) SessionStarted() {
	if m == nil {
		return
	}
	m.SessionsStarted.Inc()
}

// SessionEnded counts an ended session and observes its overall score.
func (m *CoachMetrics) SessionEnded(overall int) {
	if m == nil {
		return
	}
	m.SessionsEnded.Inc()
	m.OverallScore.Observe(float64(overall))
}

// Turn counts a coaching turn. repaired and fellBack describe how the reply
// was produced; err is the generation error, if any.
func (m *CoachMetrics) Turn(repaired, fellBack bool, err error) {
	if m == nil {
		return
	}
	switch {
	case err != nil:
		m.Turns.WithLabelValues(OutcomeError).Inc()
		m.LLMRequests.WithLabelValues(OutcomeError).Inc()
	case fellBack:
		m.Turns.WithLabelValues(OutcomeFallback).Inc()
		m.LLMRequests.WithLabelValues(OutcomeError).Inc()
	case repaired:
		m.Turns.WithLabelValues(OutcomeRepaired).Inc()
		m.LLMRequests.WithLabelValues(OutcomeOK).Inc()
		m.DriftRepairs.Inc()
	default:
		m.Turns.WithLabelValues(OutcomeOK).Inc()
		m.LLMRequests.WithLabelValues(OutcomeOK).Inc()
	}
}
