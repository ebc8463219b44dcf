package tour

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

const landingHTML = `<body>
<section id="home">home</section>
<section id="features">features</section>
<section id="pricing">pricing</section>
<section id="demo">demo</section>
<section id="register" class="hidden">register</section>
</body>`

func newTestTour(t *testing.T, html string) (*Controller, *session.Session, *schedule.ManualClock) {
	t.Helper()
	doc, err := page.ParseString(html)
	require.NoError(t, err)
	clock := schedule.NewManualClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	s := session.New("visitor-1", doc, clock, logging.Discard())
	c := NewController(0, metrics.NewLandingMetrics(prometheus.NewRegistry()), logging.Discard())
	return c, s, clock
}

func one(t *testing.T, s *session.Session, selector string) *page.Element {
	t.Helper()
	els := s.Page.QueryAll(selector)
	require.Len(t, els, 1, selector)
	return els[0]
}

func buttonActions(t *testing.T, s *session.Session) []string {
	t.Helper()
	var out []string
	for _, b := range s.Page.QueryAll("button") {
		out = append(out, b.Attr("data-action")+":"+b.Attr("data-step")+":"+b.Text)
	}
	return out
}

func TestStartShowsOverlayAndFirstStep(t *testing.T) {
	c, s, clock := newTestTour(t, landingHTML)

	s.Do(c.Start)
	assert.True(t, s.State.TourActive)
	assert.Equal(t, 0, s.State.TourStep)
	one(t, s, ".tour-overlay")
	assert.Empty(t, s.Page.QueryAll(".tour-tooltip"), "tooltip waits for the scroll to settle")

	clock.Advance(500 * time.Millisecond)
	tip := one(t, s, ".tour-tooltip")
	assert.Equal(t, "center", tip.Attr("data-position"))
	assert.Equal(t, "¡Bienvenido a Chispart AI! 🎉", one(t, s, ".tour-title").Text)
	assert.Equal(t, "Paso 1 de 5", one(t, s, ".tour-counter").Text)
	assert.Equal(t, []string{"showTourStep:1:Siguiente →", "finishTour::✕"}, buttonActions(t, s))
	one(t, s, ".tour-highlight")
}

func TestStartWhileActiveIsNoop(t *testing.T) {
	c, s, clock := newTestTour(t, landingHTML)

	s.Do(c.Start)
	clock.Advance(time.Second)
	s.Do(func(s *session.Session) { c.ShowStep(s, 2) })
	clock.Advance(time.Second)

	s.Do(c.Start)
	clock.Advance(time.Second)
	assert.Equal(t, 2, s.State.TourStep)
	one(t, s, ".tour-overlay")
	one(t, s, ".tour-tooltip")
}

func TestMiddleStepButtons(t *testing.T) {
	c, s, clock := newTestTour(t, landingHTML)

	s.Do(c.Start)
	s.Do(func(s *session.Session) { c.ShowStep(s, 2) })
	clock.Advance(500 * time.Millisecond)

	assert.Equal(t, "Planes Flexibles 💎", one(t, s, ".tour-title").Text)
	assert.Equal(t, "Paso 3 de 5", one(t, s, ".tour-counter").Text)
	assert.Equal(t, []string{
		"showTourStep:1:← Anterior",
		"showTourStep:3:Siguiente →",
		"finishTour::✕",
	}, buttonActions(t, s))
}

func TestLastStepOffersFinish(t *testing.T) {
	c, s, clock := newTestTour(t, landingHTML)

	s.Do(c.Start)
	s.Do(func(s *session.Session) { c.ShowStep(s, 4) })
	clock.Advance(500 * time.Millisecond)

	assert.Equal(t, "Paso 5 de 5", one(t, s, ".tour-counter").Text)
	assert.Equal(t, []string{
		"showTourStep:3:← Anterior",
		"finishTour::¡Finalizar! ✨",
		"finishTour::✕",
	}, buttonActions(t, s))
}

func TestRapidNavigationDrawsOnlyLatestStep(t *testing.T) {
	c, s, clock := newTestTour(t, landingHTML)

	s.Do(c.Start)
	s.Do(func(s *session.Session) { c.ShowStep(s, 1) })
	clock.Advance(200 * time.Millisecond)
	s.Do(func(s *session.Session) { c.ShowStep(s, 2) })
	clock.Advance(time.Second)

	one(t, s, ".tour-tooltip")
	one(t, s, ".tour-highlight")
	assert.Equal(t, "Paso 3 de 5", one(t, s, ".tour-counter").Text)
}

func TestHighlightPadsTargetRect(t *testing.T) {
	c, s, clock := newTestTour(t, landingHTML)
	s.Page.SetRect("features", page.Rect{Top: 100, Left: 50, Width: 800, Height: 400.5})

	s.Do(c.Start)
	s.Do(func(s *session.Session) { c.ShowStep(s, 1) })
	clock.Advance(500 * time.Millisecond)

	h := one(t, s, ".tour-highlight")
	assert.Equal(t, "90px", h.Style("top"))
	assert.Equal(t, "40px", h.Style("left"))
	assert.Equal(t, "820px", h.Style("width"))
	assert.Equal(t, "420.5px", h.Style("height"))
}

func TestShowStepScrollsTargetToCenter(t *testing.T) {
	c, s, _ := newTestTour(t, landingHTML)
	sink := &patchSink{}
	s.Attach(sink)
	s.Do(func(s *session.Session) { c.ShowStep(s, 1) })
	require.NotEmpty(t, sink.patches)
	assert.Contains(t, sink.patches, page.Patch{Op: page.OpScroll, Target: "features", Value: "center"})
}

type patchSink struct {
	patches []page.Patch
}

func (p *patchSink) Push(patches []page.Patch) error {
	p.patches = append(p.patches, patches...)
	return nil
}

func TestShowStepOutOfRangeEndsTour(t *testing.T) {
	for _, idx := range []int{-1, 5, 99} {
		c, s, clock := newTestTour(t, landingHTML)
		s.Do(c.Start)
		clock.Advance(time.Second)

		s.Do(func(s *session.Session) { c.ShowStep(s, idx) })
		assert.False(t, s.State.TourActive, "index %d", idx)
		assert.Equal(t, 0, s.State.TourStep)
		assert.Empty(t, s.Page.QueryAll(".tour-overlay"))
		assert.Empty(t, s.Page.QueryAll(".tour-tooltip"))
		assert.Empty(t, s.Page.QueryAll(".tour-highlight"))
	}
}

func TestMissingTargetSkipsDrawing(t *testing.T) {
	c, s, clock := newTestTour(t, `<body><section id="home">home</section></body>`)

	s.Do(c.Start)
	s.Do(func(s *session.Session) { c.ShowStep(s, 2) })
	clock.Advance(time.Second)

	assert.True(t, s.State.TourActive)
	assert.Equal(t, 2, s.State.TourStep)
	assert.Empty(t, s.Page.QueryAll(".tour-tooltip"))
	assert.Equal(t, 0, s.PendingTasks())
}

func TestEndCancelsPendingSettle(t *testing.T) {
	c, s, clock := newTestTour(t, landingHTML)

	s.Do(c.Start)
	s.Do(c.End)
	clock.Advance(time.Second)

	assert.False(t, s.State.TourActive)
	assert.Empty(t, s.Page.QueryAll(".tour-tooltip"))
	assert.Empty(t, s.Page.QueryAll(".tour-highlight"))
	assert.Empty(t, s.Page.QueryAll(".tour-overlay"))
	assert.Equal(t, 0, s.PendingTasks())
}

func TestEndTwiceIsHarmless(t *testing.T) {
	c, s, clock := newTestTour(t, landingHTML)

	s.Do(c.Start)
	clock.Advance(time.Second)
	s.Do(c.End)
	s.Do(c.End)

	assert.False(t, s.State.TourActive)
	assert.Empty(t, s.Page.QueryAll(".tour-overlay"))
	one(t, s, "#home")
}

func TestFinishFromLastStep(t *testing.T) {
	c, s, clock := newTestTour(t, landingHTML)

	s.Do(c.Start)
	s.Do(func(s *session.Session) { c.ShowStep(s, c.Len()-1) })
	clock.Advance(time.Second)
	s.Do(c.Finish)

	assert.False(t, s.State.TourActive)
	assert.Empty(t, s.Page.QueryAll(".tour-tooltip"))
}

func TestCloseCancelsPendingSettle(t *testing.T) {
	c, s, clock := newTestTour(t, landingHTML)

	s.Do(c.Start)
	s.Close()
	clock.Advance(time.Second)
	assert.Empty(t, s.Page.QueryAll(".tour-tooltip"))
}
