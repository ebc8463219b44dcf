package landing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/chispart-landing/internal/funnel"
	"github.com/wolfman30/chispart-landing/internal/page"
	"github.com/wolfman30/chispart-landing/internal/session"
)

func dispatch(t *testing.T, f *fixture, s *session.Session, a Action) error {
	t.Helper()
	var err error
	s.Do(func(s *session.Session) { err = f.handler.dispatcher.Dispatch(s, a) })
	return err
}

func TestDispatchLayoutStoresRects(t *testing.T) {
	f := newFixture(t)
	s, err := f.registry.GetOrCreate(pageID, visitorID)
	require.NoError(t, err)

	rect := page.Rect{Top: 120, Left: 0, Width: 1100, Height: 600}
	require.NoError(t, dispatch(t, f, s, Action{Action: ActionLayout, Rects: map[string]page.Rect{
		"features": rect,
		"missing":  {Top: 1},
	}}))
	assert.Equal(t, rect, s.Page.ByID("features").Rect)
}

func TestDispatchDemoEnterOnlySubmitsOnEnter(t *testing.T) {
	f := newFixture(t)
	s, err := f.registry.GetOrCreate(pageID, visitorID)
	require.NoError(t, err)

	require.NoError(t, dispatch(t, f, s, Action{Action: ActionHandleDemoEnter, Key: "a", Value: "hola"}))
	assert.Len(t, s.Snapshot().DemoMessages, 1)
	assert.Equal(t, "hola", s.Page.ByID("demoInput").Value)

	require.NoError(t, dispatch(t, f, s, Action{Action: ActionHandleDemoEnter, Key: "Enter", Value: "hola"}))
	msgs := s.Snapshot().DemoMessages
	require.Len(t, msgs, 2)
	assert.Equal(t, "hola", msgs[1].Text)
	assert.Empty(t, s.Page.ByID("demoInput").Value)

	f.clock.Advance(2 * time.Second)
	assert.Len(t, s.Snapshot().DemoMessages, 3)
}

func TestDispatchTourNavigation(t *testing.T) {
	f := newFixture(t)
	s, err := f.registry.GetOrCreate(pageID, visitorID)
	require.NoError(t, err)

	require.NoError(t, dispatch(t, f, s, Action{Action: ActionStartTour}))
	step := 3
	require.NoError(t, dispatch(t, f, s, Action{Action: ActionShowTourStep, Step: &step}))
	assert.Equal(t, 3, s.Snapshot().TourStep)

	require.NoError(t, dispatch(t, f, s, Action{Action: ActionEndTour}))
	assert.False(t, s.Snapshot().TourActive)
	assert.Empty(t, s.Page.QueryAll(".tour-overlay"))
}

func TestDispatchRegistrationWithoutPlan(t *testing.T) {
	f := newFixture(t)
	s, err := f.registry.GetOrCreate(pageID, visitorID)
	require.NoError(t, err)

	err = dispatch(t, f, s, Action{Action: ActionHandleRegistration, Fields: map[string]string{
		"firstName": "Ana", "lastName": "García", "email": "ana@empresa.com", "company": "Empresa SA",
		"phone": "5512345678", "country": "MX", "industry": "retail", "employees": "1-10",
	}})
	assert.ErrorIs(t, err, funnel.ErrNoPlan)
	assert.Equal(t, "ana@empresa.com", s.Page.ByID("email").Value, "typed values are kept")
}

func TestDispatchUnknownAction(t *testing.T) {
	f := newFixture(t)
	s, err := f.registry.GetOrCreate(pageID, visitorID)
	require.NoError(t, err)

	assert.ErrorIs(t, dispatch(t, f, s, Action{Action: "unload"}), ErrUnknownAction, "unload is handled by the transport")
	assert.ErrorIs(t, dispatch(t, f, s, Action{Action: ActionSelectPaymentMethod}), ErrBadAction)
}
