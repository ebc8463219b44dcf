package bootstrap

import (
	appconfig "github.com/wolfman30/chispart-landing/internal/config"
	"github.com/wolfman30/chispart-landing/internal/demochat"
	"github.com/wolfman30/chispart-landing/internal/funnel"
	"github.com/wolfman30/chispart-landing/internal/landing"
	"github.com/wolfman30/chispart-landing/internal/notify"
	"github.com/wolfman30/chispart-landing/internal/observability/metrics"
	"github.com/wolfman30/chispart-landing/internal/schedule"
	"github.com/wolfman30/chispart-landing/internal/session"
	"github.com/wolfman30/chispart-landing/internal/storage"
	"github.com/wolfman30/chispart-landing/internal/tour"
	"github.com/wolfman30/chispart-landing/pkg/logging"
)

// LandingDeps are the collaborators BuildLanding wires together.
type LandingDeps struct {
	Store      storage.KV
	Transcript demochat.TranscriptStore
	Metrics    *metrics.LandingMetrics
	Clock      schedule.Clock
	Logger     *logging.Logger
}

// Landing is the wired page runtime.
type Landing struct {
	Registry *session.Registry
	Handler  *landing.Handler
}

// BuildLanding builds the controllers from cfg's timings and returns the
// session registry with the HTTP handler in front of it.
func BuildLanding(cfg *appconfig.Config, deps LandingDeps) *Landing {
	if cfg == nil {
		cfg = &appconfig.Config{}
	}
	if deps.Logger == nil {
		deps.Logger = logging.Default()
	}
	if deps.Clock == nil {
		deps.Clock = schedule.Real()
	}

	notifier := notify.NewNotifier(notify.Options{
		Lifetime: cfg.NotificationTTL,
		FadeOut:  cfg.NotificationFadeOut,
		Metrics:  deps.Metrics,
		Logger:   deps.Logger,
	})
	chat := demochat.NewEngine(demochat.Options{
		DelayMin:   cfg.TypingDelayMin,
		DelayMax:   cfg.TypingDelayMax,
		Transcript: deps.Transcript,
		Metrics:    deps.Metrics,
	})
	fn := funnel.NewController(funnel.Options{
		Notifier:   notifier,
		Store:      deps.Store,
		Processing: cfg.PaymentProcessingDelay,
		Metrics:    deps.Metrics,
	})
	tr := tour.NewController(cfg.TourSettleDelay, deps.Metrics, deps.Logger)

	registry := session.NewRegistry(
		landing.NewSessionFactory(chat, deps.Clock, deps.Logger),
		cfg.SessionIdleTTL,
		deps.Clock,
		deps.Metrics,
		deps.Logger,
	)
	handler := landing.NewHandler(landing.Options{
		Registry:       registry,
		Dispatcher:     landing.NewDispatcher(tr, chat, fn),
		Funnel:         fn,
		Transcript:     deps.Transcript,
		Metrics:        deps.Metrics,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Logger:         deps.Logger,
	})
	return &Landing{Registry: registry, Handler: handler}
}
