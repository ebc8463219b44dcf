// Package tour drives the guided product tour: a dimming overlay, a highlight
// box around the current section and a tooltip with navigation buttons.
package tour

import (
	"fmt"
	"strconv"
	"time"

	"github.com/wolfman30/chispart-landing/internal/observability/metrics"
	"github.com/wolfman30/chispart-landing/internal/page"
	"github.com/wolfman30/chispart-landing/internal/session"
	"github.com/wolfman30/chispart-landing/pkg/logging"
)

// Step is one stop of the tour.
type Step struct {
	Target   string
	Title    string
	Body     string
	Position string
}

// Steps is the fixed tour script.
var Steps = []Step{
	{
		Target:   "#home",
		Title:    "¡Bienvenido a Chispart AI! 🎉",
		Body:     "Descubre cómo nuestra plataforma de IA multiagente puede transformar tu negocio. Te guiaremos paso a paso.",
		Position: "center",
	},
	{
		Target:   "#features",
		Title:    "Características Poderosas 🚀",
		Body:     "Explora nuestras funcionalidades: agentes inteligentes, automatización total, análisis avanzado y más.",
		Position: "top",
	},
	{
		Target:   "#pricing",
		Title:    "Planes Flexibles 💎",
		Body:     "Elige el plan perfecto para tu negocio. Desde startups hasta empresas, tenemos opciones para todos.",
		Position: "top",
	},
	{
		Target:   "#demo",
		Title:    "Prueba Nuestro Demo 🤖",
		Body:     "Interactúa con nuestro asistente de IA. Haz preguntas y descubre cómo puede ayudarte.",
		Position: "top",
	},
	{
		Target:   "#register",
		Title:    "Comienza Ahora 🎯",
		Body:     "Cuando estés listo, completa el registro y únete a miles de empresas que ya usan Chispart AI.",
		Position: "top",
	},
}

const (
	highlightPadding = 10
	// Action names the tooltip buttons dispatch back to the server.
	ActionShowStep = "showTourStep"
	ActionEnd      = "endTour"
	ActionFinish   = "finishTour"
)

// Controller runs the tour for any session. Methods must be called with the
// session locked.
type Controller struct {
	steps   []Step
	settle  time.Duration
	metrics *metrics.LandingMetrics
	logger  *logging.Logger
}

// NewController builds a controller. settle is the wait between scrolling to a
// step's target and drawing the highlight, 500ms when zero.
func NewController(settle time.Duration, m *metrics.LandingMetrics, logger *logging.Logger) *Controller {
	if settle <= 0 {
		settle = 500 * time.Millisecond
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Controller{
		steps:   Steps,
		settle:  settle,
		metrics: m,
		logger:  logger,
	}
}

// Len returns the number of steps.
func (c *Controller) Len() int {
	return len(c.steps)
}

// Start opens the tour on the first step. It does nothing while a tour is running.
func (c *Controller) Start(s *session.Session) {
	if s.State.TourActive {
		return
	}
	s.State.TourActive = true
	s.State.TourStep = 0
	s.Overlay.Set(s.Page, nil, overlay())
	c.metrics.ObserveTourEvent("start")
	s.Logger.Info("tour: started")
	c.ShowStep(s, 0)
}

// ShowStep moves to step index. An index outside the script ends the tour.
// When the step's target is missing from the page nothing is drawn.
func (c *Controller) ShowStep(s *session.Session, index int) {
	if index < 0 || index >= len(c.steps) {
		c.End(s)
		return
	}
	s.State.TourStep = index
	step := c.steps[index]

	s.Tooltip.Clear(s.Page)
	s.TourSettle.Cancel()
	s.TourSettle = nil

	target := s.Page.Query(step.Target)
	if target == nil {
		s.Logger.Debug("tour: step target missing", "step", index, "target", step.Target)
		return
	}
	c.metrics.ObserveTourStep(index)
	s.Page.ScrollIntoView(target, "center")

	s.TourSettle = s.After(c.settle, func(s *session.Session) {
		s.TourSettle = nil
		s.Highlight.Set(s.Page, nil, highlight(target.Rect))
		s.Tooltip.Set(s.Page, nil, c.tooltip(step, index))
	})
}

// End closes the tour and tears down every widget it drew. Calling it when no
// tour is running is harmless.
func (c *Controller) End(s *session.Session) {
	c.end(s, "end")
}

// Finish closes the tour from its own controls. Reaching the last step counts
// as a completed tour.
func (c *Controller) Finish(s *session.Session) {
	event := "end"
	if s.State.TourActive && s.State.TourStep == len(c.steps)-1 {
		event = "finish"
	}
	c.end(s, event)
}

func (c *Controller) end(s *session.Session, event string) {
	wasActive := s.State.TourActive
	s.State.TourActive = false
	s.State.TourStep = 0

	s.TourSettle.Cancel()
	s.TourSettle = nil
	s.Overlay.Clear(s.Page)
	s.Tooltip.Clear(s.Page)
	s.Highlight.Clear(s.Page)

	if wasActive {
		c.metrics.ObserveTourEvent(event)
		s.Logger.Info("tour: closed", "event", event)
	}
}

func overlay() *page.Element {
	return page.NewElement("div").
		WithClass("tour-overlay").
		WithStyle("position", "fixed").
		WithStyle("top", "0").
		WithStyle("left", "0").
		WithStyle("width", "100%").
		WithStyle("height", "100%").
		WithStyle("background", "rgba(0, 0, 0, 0.7)").
		WithStyle("z-index", "9998").
		WithStyle("backdrop-filter", "blur(3px)")
}

func highlight(r page.Rect) *page.Element {
	box := r.Pad(highlightPadding)
	return page.NewElement("div").
		WithClass("tour-highlight").
		WithStyle("position", "fixed").
		WithStyle("top", px(box.Top)).
		WithStyle("left", px(box.Left)).
		WithStyle("width", px(box.Width)).
		WithStyle("height", px(box.Height)).
		WithStyle("border", "3px solid #f472b6").
		WithStyle("border-radius", "12px").
		WithStyle("z-index", "9999").
		WithStyle("pointer-events", "none").
		WithStyle("box-shadow", "0 0 0 9999px rgba(0, 0, 0, 0.5)").
		WithStyle("animation", "pulse 2s infinite")
}

func (c *Controller) tooltip(step Step, index int) *page.Element {
	buttons := page.NewElement("div").WithClass("tour-buttons")
	if index > 0 {
		buttons.WithChildren(button("tour-prev", "← Anterior", ActionShowStep).
			WithAttr("data-step", strconv.Itoa(index-1)))
	}
	if index < len(c.steps)-1 {
		buttons.WithChildren(button("tour-next", "Siguiente →", ActionShowStep).
			WithAttr("data-step", strconv.Itoa(index+1)))
	} else {
		buttons.WithChildren(button("tour-finish", "¡Finalizar! ✨", ActionFinish))
	}
	buttons.WithChildren(button("tour-close", "✕", ActionFinish))

	return page.NewElement("div").
		WithClass("tour-tooltip").
		WithAttr("data-position", step.Position).
		WithStyle("position", "fixed").
		WithStyle("top", "50%").
		WithStyle("left", "50%").
		WithStyle("transform", "translate(-50%, -50%)").
		WithStyle("max-width", "500px").
		WithStyle("z-index", "10000").
		WithStyle("animation", "fadeInScale 0.3s ease-out").
		WithChildren(
			page.NewElement("div").WithClass("tour-title").WithText(step.Title),
			page.NewElement("div").WithClass("tour-body").WithText(step.Body),
			page.NewElement("div").WithClass("tour-footer").WithChildren(
				page.NewElement("div").WithClass("tour-counter").
					WithText(fmt.Sprintf("Paso %d de %d", index+1, len(c.steps))),
				buttons,
			),
		)
}

func button(class, label, action string) *page.Element {
	return page.NewElement("button").
		WithClass(class).
		WithAttr("type", "button").
		WithAttr("data-action", action).
		WithText(label)
}

func px(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "px"
}
