package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// LandingMetrics exposes counters/histograms for the landing page flows.
type LandingMetrics struct {
	actionsTotal      *prometheus.CounterVec
	actionLatency     *prometheus.HistogramVec
	tourEvents        *prometheus.CounterVec
	tourSteps         *prometheus.CounterVec
	chatMessages      *prometheus.CounterVec
	funnelTransitions *prometheus.CounterVec
	validationErrors  *prometheus.CounterVec
	notifications     *prometheus.CounterVec
	persistTotal      *prometheus.CounterVec
	sessionsActive    prometheus.Gauge
	sessionsClosed    *prometheus.CounterVec
}

func NewLandingMetrics(reg prometheus.Registerer) *LandingMetrics {
	m := &LandingMetrics{
		actionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chispart",
			Subsystem: "landing",
			Name:      "actions_total",
			Help:      "Page actions dispatched, by action and outcome",
		}, []string{"action", "status"}),
		actionLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "chispart",
			Subsystem: "landing",
			Name:      "action_latency_seconds",
			Help:      "Time spent handling a page action",
			Buckets:   prometheus.DefBuckets,
		}, []string{"action"}),
		tourEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chispart",
			Subsystem: "tour",
			Name:      "events_total",
			Help:      "Tour lifecycle events (start, end, finish)",
		}, []string{"event"}),
		tourSteps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chispart",
			Subsystem: "tour",
			Name:      "steps_shown_total",
			Help:      "Tour steps shown, by step index",
		}, []string{"step"}),
		chatMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chispart",
			Subsystem: "demo_chat",
			Name:      "messages_total",
			Help:      "Demo chat transcript entries, by sender and matched rule",
		}, []string{"sender", "rule"}),
		funnelTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chispart",
			Subsystem: "funnel",
			Name:      "transitions_total",
			Help:      "Funnel stage transitions",
		}, []string{"stage"}),
		validationErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chispart",
			Subsystem: "funnel",
			Name:      "validation_failures_total",
			Help:      "Rejected funnel submissions, by reason",
		}, []string{"reason"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chispart",
			Subsystem: "landing",
			Name:      "notifications_total",
			Help:      "Toast notifications shown, by severity",
		}, []string{"severity"}),
		persistTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chispart",
			Subsystem: "funnel",
			Name:      "subscription_writes_total",
			Help:      "Subscription record writes, by outcome",
		}, []string{"status"}),
		sessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "chispart",
			Subsystem: "landing",
			Name:      "sessions_active",
			Help:      "Visitor sessions currently held in memory",
		}),
		sessionsClosed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chispart",
			Subsystem: "landing",
			Name:      "sessions_closed_total",
			Help:      "Visitor sessions closed, by reason",
		}, []string{"reason"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		m.actionsTotal, m.actionLatency, m.tourEvents, m.tourSteps, m.chatMessages,
		m.funnelTransitions, m.validationErrors, m.notifications, m.persistTotal,
		m.sessionsActive, m.sessionsClosed,
	)
	return m
}

func (m *LandingMetrics) ObserveAction(action, status string, seconds float64) {
	if m == nil {
		return
	}
	m.actionsTotal.WithLabelValues(action, status).Inc()
	m.actionLatency.WithLabelValues(action).Observe(seconds)
}

func (m *LandingMetrics) ObserveTourEvent(event string) {
	if m == nil {
		return
	}
	m.tourEvents.WithLabelValues(event).Inc()
}

func (m *LandingMetrics) ObserveTourStep(step int) {
	if m == nil {
		return
	}
	m.tourSteps.WithLabelValues(strconv.Itoa(step)).Inc()
}

func (m *LandingMetrics) ObserveChatMessage(sender, rule string) {
	if m == nil {
		return
	}
	m.chatMessages.WithLabelValues(sender, rule).Inc()
}

func (m *LandingMetrics) ObserveFunnelTransition(stage string) {
	if m == nil {
		return
	}
	m.funnelTransitions.WithLabelValues(stage).Inc()
}

func (m *LandingMetrics) ObserveValidationFailure(reason string) {
	if m == nil {
		return
	}
	m.validationErrors.WithLabelValues(reason).Inc()
}

func (m *LandingMetrics) ObserveNotification(severity string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(severity).Inc()
}

func (m *LandingMetrics) ObservePersist(success bool) {
	if m == nil {
		return
	}
	status := "ok"
	if !success {
		status = "error"
	}
	m.persistTotal.WithLabelValues(status).Inc()
}

// SessionOpened implements session.Observer.
func (m *LandingMetrics) SessionOpened() {
	if m == nil {
		return
	}
	m.sessionsActive.Inc()
}

// SessionClosed implements session.Observer.
func (m *LandingMetrics) SessionClosed(reason string) {
	if m == nil {
		return
	}
	m.sessionsActive.Dec()
	m.sessionsClosed.WithLabelValues(reason).Inc()
}
