// Package notify renders transient toast notifications and the confetti effect.
package notify

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/wolfman30/chispart-landing/internal/observability/metrics"
	"github.com/wolfman30/chispart-landing/internal/page"
	"github.com/wolfman30/chispart-landing/internal/session"
	"github.com/wolfman30/chispart-landing/pkg/logging"
)

// Severity selects the toast colour.
type Severity string

const (
	Success Severity = "success"
	Error   Severity = "error"
	Info    Severity = "info"
	Warning Severity = "warning"
)

var severityColors = map[Severity]string{
	Success: "#10b981",
	Error:   "#ef4444",
	Info:    "#3b82f6",
	Warning: "#f59e0b",
}

// Normalize maps unknown severities to Info.
func Normalize(sev Severity) Severity {
	if _, ok := severityColors[sev]; ok {
		return sev
	}
	return Info
}

// Color returns the background colour for sev.
func Color(sev Severity) string {
	return severityColors[Normalize(sev)]
}

const (
	ConfettiCount    = 50
	confettiStagger  = 30 * time.Millisecond
	confettiLifetime = 4000 * time.Millisecond
)

// ConfettiColors is the particle palette.
var ConfettiColors = []string{"#f472b6", "#67e8f9", "#a3e635", "#fbbf24", "#c084fc"}

// Options tunes the notifier. Zero durations fall back to the page defaults.
type Options struct {
	Lifetime time.Duration
	FadeOut  time.Duration
	// Random returns a value in [0, 1). Defaults to math/rand/v2.
	Random  func() float64
	Metrics *metrics.LandingMetrics
	Logger  *logging.Logger
}

// Notifier shows toasts and confetti on a session's page. It is shared by all
// sessions; every method must be called with the session locked (inside Do or
// an After callback).
type Notifier struct {
	lifetime time.Duration
	fadeOut  time.Duration
	random   func() float64
	metrics  *metrics.LandingMetrics
	logger   *logging.Logger
}

// NewNotifier builds a notifier.
func NewNotifier(opts Options) *Notifier {
	if opts.Lifetime <= 0 {
		opts.Lifetime = 5000 * time.Millisecond
	}
	if opts.FadeOut <= 0 {
		opts.FadeOut = 300 * time.Millisecond
	}
	if opts.Random == nil {
		opts.Random = rand.Float64
	}
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}
	return &Notifier{
		lifetime: opts.Lifetime,
		fadeOut:  opts.FadeOut,
		random:   opts.Random,
		metrics:  opts.Metrics,
		logger:   opts.Logger,
	}
}

// Notify replaces the session's toast with message. The toast slides out after
// the configured lifetime and is removed once the fade-out has played.
// Replacing a toast cancels the previous one's timers.
func (n *Notifier) Notify(s *session.Session, message string, sev Severity) {
	sev = Normalize(sev)
	el := page.NewElement("div").
		WithClass("notification").
		WithAttr("role", "status").
		WithAttr("data-severity", string(sev)).
		WithStyle("position", "fixed").
		WithStyle("top", "20px").
		WithStyle("right", "20px").
		WithStyle("background", Color(sev)).
		WithStyle("color", "white").
		WithStyle("padding", "15px 25px").
		WithStyle("border-radius", "12px").
		WithStyle("box-shadow", "0 10px 30px rgba(0, 0, 0, 0.3)").
		WithStyle("z-index", "10001").
		WithStyle("animation", "slideInRight 0.3s ease-out").
		WithStyle("max-width", "400px").
		WithStyle("font-weight", "600").
		WithText(message)

	s.Toast.Set(s.Page, nil, el)

	fade := s.After(n.lifetime, func(s *session.Session) {
		if !s.Toast.Holds(el) {
			return
		}
		s.Page.SetStyle(el, "animation", "slideOutRight 0.3s ease-out")
		remove := s.After(n.fadeOut, func(s *session.Session) {
			if s.Toast.Holds(el) {
				s.Toast.Clear(s.Page)
			}
		})
		s.Toast.OnRelease(func() { remove.Cancel() })
	})
	s.Toast.OnRelease(func() { fade.Cancel() })

	n.metrics.ObserveNotification(string(sev))
	n.logger.Debug("notify: toast shown", "session_id", s.ID, "severity", string(sev))
}

// Confetti drops ConfettiCount particles, one every 30ms, each removed 4s
// after it appears.
func (n *Notifier) Confetti(s *session.Session) {
	for i := 0; i < ConfettiCount; i++ {
		s.After(time.Duration(i)*confettiStagger, func(s *session.Session) {
			p := n.particle()
			s.Page.Append(nil, p)
			s.After(confettiLifetime, func(s *session.Session) {
				s.Page.Remove(p)
			})
		})
	}
}

func (n *Notifier) particle() *page.Element {
	color := ConfettiColors[int(n.random()*float64(len(ConfettiColors)))%len(ConfettiColors)]
	return page.NewElement("div").
		WithClass("confetti").
		WithStyle("position", "fixed").
		WithStyle("width", "10px").
		WithStyle("height", "10px").
		WithStyle("background", color).
		WithStyle("top", "-10px").
		WithStyle("left", fmt.Sprintf("%g%%", n.random()*100)).
		WithStyle("opacity", "1").
		WithStyle("transform", fmt.Sprintf("rotate(%gdeg)", n.random()*360)).
		WithStyle("z-index", "10000").
		WithStyle("pointer-events", "none").
		WithStyle("animation", fmt.Sprintf("confettiFall %gs linear forwards", 2+n.random()*2))
}
