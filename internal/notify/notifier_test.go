package notify

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/chispart-landing/internal/observability/metrics"
	"github.com/wolfman30/chispart-landing/internal/page"
	"github.com/wolfman30/chispart-landing/internal/schedule"
	"github.com/wolfman30/chispart-landing/internal/session"
	"github.com/wolfman30/chispart-landing/pkg/logging"
)

func newTestSession(t *testing.T) (*session.Session, *schedule.ManualClock) {
	t.Helper()
	clock := schedule.NewManualClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	return session.New("visitor-1", page.New(), clock, logging.Discard()), clock
}

func newTestNotifier() *Notifier {
	return NewNotifier(Options{
		Random:  func() float64 { return 0.5 },
		Metrics: metrics.NewLandingMetrics(prometheus.NewRegistry()),
		Logger:  logging.Discard(),
	})
}

func toasts(s *session.Session) []*page.Element {
	return s.Page.QueryAll(".notification")
}

func TestNotifyShowsColouredToast(t *testing.T) {
	s, _ := newTestSession(t)
	n := newTestNotifier()

	s.Do(func(s *session.Session) { n.Notify(s, "Plan Starter seleccionado.", Success) })

	got := toasts(s)
	require.Len(t, got, 1)
	assert.Equal(t, "Plan Starter seleccionado.", got[0].Text)
	assert.Equal(t, "#10b981", got[0].Style("background"))
	assert.Equal(t, "success", got[0].Attr("data-severity"))
}

func TestNotifyUnknownSeverityFallsBackToInfo(t *testing.T) {
	s, _ := newTestSession(t)
	n := newTestNotifier()

	s.Do(func(s *session.Session) { n.Notify(s, "hola", Severity("shout")) })

	require.Len(t, toasts(s), 1)
	assert.Equal(t, "#3b82f6", toasts(s)[0].Style("background"))
}

func TestNotifyKeepsSingleToast(t *testing.T) {
	s, clock := newTestSession(t)
	n := newTestNotifier()

	s.Do(func(s *session.Session) { n.Notify(s, "first", Info) })
	clock.Advance(3 * time.Second)
	s.Do(func(s *session.Session) { n.Notify(s, "second", Error) })

	got := toasts(s)
	require.Len(t, got, 1)
	assert.Equal(t, "second", got[0].Text)

	// The first toast's timers were cancelled, so the second one survives
	// past the first one's deadline.
	clock.Advance(2500 * time.Millisecond)
	require.Len(t, toasts(s), 1)
	assert.Equal(t, "slideInRight 0.3s ease-out", toasts(s)[0].Style("animation"))
}

func TestNotifyDismissesAfterLifetime(t *testing.T) {
	s, clock := newTestSession(t)
	n := newTestNotifier()

	s.Do(func(s *session.Session) { n.Notify(s, "bye", Warning) })

	clock.Advance(4999 * time.Millisecond)
	require.Len(t, toasts(s), 1)

	clock.Advance(time.Millisecond)
	require.Len(t, toasts(s), 1)
	assert.Equal(t, "slideOutRight 0.3s ease-out", toasts(s)[0].Style("animation"))

	clock.Advance(300 * time.Millisecond)
	assert.Empty(t, toasts(s))
	assert.Nil(t, s.Toast.Element())
	assert.Equal(t, 0, s.PendingTasks())
}

func TestNotifyReplacedDuringFadeOut(t *testing.T) {
	s, clock := newTestSession(t)
	n := newTestNotifier()

	s.Do(func(s *session.Session) { n.Notify(s, "first", Info) })
	clock.Advance(5100 * time.Millisecond)
	s.Do(func(s *session.Session) { n.Notify(s, "second", Info) })
	clock.Advance(250 * time.Millisecond)

	got := toasts(s)
	require.Len(t, got, 1)
	assert.Equal(t, "second", got[0].Text)
}

func TestConfettiParticlesComeAndGo(t *testing.T) {
	s, clock := newTestSession(t)
	n := newTestNotifier()

	s.Do(func(s *session.Session) { n.Confetti(s) })
	assert.Empty(t, s.Page.QueryAll(".confetti"), "particles are staggered")

	clock.Advance(0)
	assert.Len(t, s.Page.QueryAll(".confetti"), 1)

	clock.Advance(49 * 30 * time.Millisecond)
	particles := s.Page.QueryAll(".confetti")
	require.Len(t, particles, ConfettiCount)
	p := particles[0]
	assert.Equal(t, ConfettiColors[2], p.Style("background"))
	assert.Equal(t, "50%", p.Style("left"))
	assert.Equal(t, "rotate(180deg)", p.Style("transform"))
	assert.Equal(t, "confettiFall 3s linear forwards", p.Style("animation"))

	clock.Advance(4000*time.Millisecond - 49*30*time.Millisecond)
	assert.Len(t, s.Page.QueryAll(".confetti"), ConfettiCount-1)

	clock.Advance(49 * 30 * time.Millisecond)
	assert.Empty(t, s.Page.QueryAll(".confetti"))
	assert.Equal(t, 0, s.PendingTasks())
}

func TestConfettiCancelledOnClose(t *testing.T) {
	s, clock := newTestSession(t)
	n := newTestNotifier()

	s.Do(func(s *session.Session) { n.Confetti(s) })
	s.Close()
	clock.Advance(5 * time.Second)
	assert.Empty(t, s.Page.QueryAll(".confetti"))
}
