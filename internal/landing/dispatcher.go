// Package landing is the page controller: it maps browser events to the tour,
// demo chat and funnel controllers and streams the resulting page changes
// back over a websocket.
package landing

import (
	"errors"
	"fmt"

	"github.com/wolfman30/chispart-landing/internal/demochat"
	"github.com/wolfman30/chispart-landing/internal/funnel"
	"github.com/wolfman30/chispart-landing/internal/page"
	"github.com/wolfman30/chispart-landing/internal/session"
	"github.com/wolfman30/chispart-landing/internal/tour"
)

// Action names the browser may send.
const (
	ActionStartTour           = "startTour"
	ActionEndTour             = tour.ActionEnd
	ActionFinishTour          = tour.ActionFinish
	ActionShowTourStep        = tour.ActionShowStep
	ActionSendDemoMessage     = "sendDemoMessage"
	ActionHandleDemoEnter     = "handleDemoEnter"
	ActionSelectPlan          = "selectPlan"
	ActionHandleRegistration  = "handleRegistration"
	ActionSelectPaymentMethod = "selectPaymentMethod"
	ActionProcessPayment      = "processPayment"
	ActionLayout              = "layout"
	ActionUnload              = "unload"
	ActionPing                = "ping"
)

var (
	ErrUnknownAction = errors.New("landing: unknown action")
	ErrBadAction     = errors.New("landing: malformed action")
)

// Action is one browser event.
type Action struct {
	Action string `json:"action"`
	// Page is the page-load id; the HTTP fallback needs it, the websocket
	// takes it from the URL.
	Page string `json:"page,omitempty"`
	// showTourStep
	Step *int `json:"step,omitempty"`
	// handleDemoEnter; Value carries the chat input as typed.
	Key   string `json:"key,omitempty"`
	Value string `json:"value,omitempty"`
	// selectPlan
	Plan  string         `json:"plan,omitempty"`
	Price *session.Price `json:"price,omitempty"`
	// handleRegistration
	Fields map[string]string `json:"fields,omitempty"`
	// selectPaymentMethod; Source is the id of the clicked element.
	Method string `json:"method,omitempty"`
	Source string `json:"source,omitempty"`
	// layout
	Rects map[string]page.Rect `json:"rects,omitempty"`
}

// Dispatcher routes actions to the controllers.
type Dispatcher struct {
	tour   *tour.Controller
	chat   *demochat.Engine
	funnel *funnel.Controller
}

func NewDispatcher(t *tour.Controller, chat *demochat.Engine, f *funnel.Controller) *Dispatcher {
	return &Dispatcher{tour: t, chat: chat, funnel: f}
}

// Dispatch applies a to s. It must run with the session locked. Validation
// failures come back as *funnel.ValidationError after the visitor has already
// been notified on the page.
func (d *Dispatcher) Dispatch(s *session.Session, a Action) error {
	switch a.Action {
	case ActionStartTour:
		d.tour.Start(s)
	case ActionEndTour:
		d.tour.End(s)
	case ActionFinishTour:
		d.tour.Finish(s)
	case ActionShowTourStep:
		if a.Step == nil {
			return fmt.Errorf("%w: %s needs step", ErrBadAction, a.Action)
		}
		d.tour.ShowStep(s, *a.Step)
	case ActionSendDemoMessage:
		syncInput(s, a)
		d.chat.SubmitFromInput(s)
	case ActionHandleDemoEnter:
		syncInput(s, a)
		d.chat.HandleKey(s, a.Key)
	case ActionSelectPlan:
		if a.Plan == "" || a.Price == nil {
			return fmt.Errorf("%w: %s needs plan and price", ErrBadAction, a.Action)
		}
		d.funnel.SelectPlan(s, a.Plan, *a.Price)
	case ActionHandleRegistration:
		for _, id := range funnel.FieldIDs {
			if v, ok := a.Fields[id]; ok {
				s.Page.SyncValue(s.Page.ByID(id), v)
			}
		}
		return d.funnel.SubmitRegistration(s)
	case ActionSelectPaymentMethod:
		if a.Method == "" {
			return fmt.Errorf("%w: %s needs method", ErrBadAction, a.Action)
		}
		d.funnel.SelectPaymentMethod(s, a.Method, s.Page.ByID(a.Source))
	case ActionProcessPayment:
		return d.funnel.ProcessPayment(s)
	case ActionLayout:
		for id, r := range a.Rects {
			s.Page.SetRect(id, r)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, a.Action)
	}
	return nil
}

func syncInput(s *session.Session, a Action) {
	if a.Value == "" {
		return
	}
	s.Page.SyncValue(s.Page.ByID("demoInput"), a.Value)
}
