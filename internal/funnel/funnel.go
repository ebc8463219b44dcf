// Package funnel walks a visitor from plan selection through registration to
// the mocked payment and the stored subscription record.
package funnel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/chispart-landing/internal/notify"
	"github.com/wolfman30/chispart-landing/internal/observability/metrics"
	"github.com/wolfman30/chispart-landing/internal/page"
	"github.com/wolfman30/chispart-landing/internal/session"
	"github.com/wolfman30/chispart-landing/internal/storage"
)

// SubscriptionKey is the storage key of the subscription record.
const SubscriptionKey = "chispart_subscription"

// DateLayout renders the subscription date as an ISO-8601 UTC timestamp with milliseconds.
const DateLayout = "2006-01-02T15:04:05.000Z"

const persistTimeout = 5 * time.Second

// Sections hidden once a plan is picked.
var browseSections = []string{"home", "features", "pricing", "demo"}

// Subscription is the record stored after a successful payment.
type Subscription struct {
	Plan  string         `json:"plan"`
	Price *session.Price `json:"price"`
	Date  string         `json:"date"`
}

// Options configures a Controller.
type Options struct {
	Notifier *notify.Notifier
	Store    storage.KV
	// Processing is how long the mocked charge takes, 3s when zero.
	Processing time.Duration
	Metrics    *metrics.LandingMetrics
}

// Controller runs the signup funnel for any session. Methods must be called
// with the session locked.
type Controller struct {
	notifier   *notify.Notifier
	store      storage.KV
	processing time.Duration
	metrics    *metrics.LandingMetrics
}

func NewController(opts Options) *Controller {
	if opts.Processing <= 0 {
		opts.Processing = 3 * time.Second
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.NewNotifier(notify.Options{Metrics: opts.Metrics})
	}
	if opts.Store == nil {
		opts.Store = storage.NewMemoryStore()
	}
	return &Controller{
		notifier:   opts.Notifier,
		store:      opts.Store,
		processing: opts.Processing,
		metrics:    opts.Metrics,
	}
}

// SelectPlan records the plan and moves the visitor to the registration form.
// Picking another plan later overwrites the choice.
func (c *Controller) SelectPlan(s *session.Session, name string, price session.Price) {
	s.State.SelectedPlan = name
	s.State.SelectedPrice = &price
	c.advance(s, session.StagePlanSelected)

	for _, id := range browseSections {
		s.Page.Hide(s.Page.ByID(id))
	}
	register := s.Page.ByID("register")
	s.Page.Show(register)
	s.Page.ScrollIntoView(register, "start")

	c.notifier.Notify(s, fmt.Sprintf("Plan %s seleccionado. Completa tu registro para continuar.", name), notify.Success)
}

// SubmitRegistration validates the form and, when it passes, opens the
// payment section. A rejected form shows one error notification and returns
// a *ValidationError; the session is left untouched.
func (c *Controller) SubmitRegistration(s *session.Session) error {
	reg := ReadRegistration(s.Page)
	if err := reg.Validate(); err != nil {
		return c.reject(s, err)
	}
	if s.State.SelectedPlan == "" {
		return c.reject(s, invalid("no_plan", "Por favor selecciona un plan para continuar.", ErrNoPlan))
	}

	s.Logger.Info("funnel: registration received",
		"first_name", reg.FirstName,
		"last_name", reg.LastName,
		"email", reg.Email,
		"company", reg.Company,
		"phone", reg.Phone,
		"country", reg.Country,
		"industry", reg.Industry,
		"employees", reg.Employees,
		"message", reg.Message,
		"plan", s.State.SelectedPlan,
	)
	c.advance(s, session.StageRegistered)

	s.Page.Hide(s.Page.ByID("register"))
	payment := s.Page.ByID("payment")
	s.Page.Show(payment)
	s.Page.SetText(s.Page.ByID("selectedPlanName"), strings.ToUpper(s.State.SelectedPlan))
	if s.State.SelectedPrice != nil {
		s.Page.SetText(s.Page.ByID("selectedPlanPrice"), s.State.SelectedPrice.String())
	}
	s.Page.ScrollIntoView(payment, "start")

	c.notifier.Notify(s, "Registro completado. Selecciona tu método de pago.", notify.Success)
	return nil
}

// SelectPaymentMethod records method and marks the payment option containing
// source as the selected one.
func (c *Controller) SelectPaymentMethod(s *session.Session, method string, source *page.Element) {
	s.State.SelectedPaymentMethod = method
	if s.State.Stage != session.StageProcessing && s.State.Stage != session.StagePaid {
		c.advance(s, session.StagePaymentMethodChosen)
	}

	for _, el := range s.Page.QueryAll(".payment-method") {
		s.Page.RemoveClass(el, "selected")
	}
	if option := source.Closest(".payment-method"); option != nil {
		s.Page.AddClass(option, "selected")
	}
	s.Page.Show(s.Page.ByID("paymentDetails"))

	c.notifier.Notify(s, fmt.Sprintf("Método de pago %s seleccionado.", method), notify.Success)
}

// ProcessPayment starts the mocked charge. Without a payment method it shows
// an error and returns a *ValidationError wrapping ErrNoPaymentMethod. A
// charge already in flight makes it a no-op.
func (c *Controller) ProcessPayment(s *session.Session) error {
	if s.State.SelectedPaymentMethod == "" {
		return c.reject(s, invalid("no_payment_method", "Por favor selecciona un método de pago.", ErrNoPaymentMethod))
	}
	if s.Payment != nil {
		return nil
	}

	s.Page.Hide(s.Page.ByID("paymentDetails"))
	s.Page.Show(s.Page.ByID("paymentProcessing"))
	c.advance(s, session.StageProcessing)
	s.Logger.Info("funnel: payment processing", "plan", s.State.SelectedPlan, "method", s.State.SelectedPaymentMethod)

	s.Payment = s.After(c.processing, c.completePayment)
	return nil
}

func (c *Controller) completePayment(s *session.Session) {
	s.Payment = nil
	s.Page.Hide(s.Page.ByID("paymentProcessing"))
	success := s.Page.ByID("paymentSuccess")
	s.Page.Show(success)
	s.Page.ScrollIntoView(success, "start")
	c.notifier.Confetti(s)

	record := Subscription{
		Plan:  s.State.SelectedPlan,
		Price: s.State.SelectedPrice,
		Date:  s.Now().UTC().Format(DateLayout),
	}
	visitorID, logger := s.VisitorID, s.Logger
	s.Background(func() {
		if err := c.persist(visitorID, record); err != nil {
			c.metrics.ObservePersist(false)
			logger.Error("funnel: failed to store subscription", "error", err)
			return
		}
		c.metrics.ObservePersist(true)
	})
	c.advance(s, session.StagePaid)
	s.Logger.Info("funnel: payment completed", "plan", record.Plan, "date", record.Date)
}

func (c *Controller) persist(visitorID string, record Subscription) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("funnel: marshal subscription: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := c.store.Put(ctx, visitorID, SubscriptionKey, data); err != nil {
		return fmt.Errorf("funnel: store subscription: %w", err)
	}
	return nil
}

// LoadSubscription reads a visitor's stored subscription record.
func (c *Controller) LoadSubscription(ctx context.Context, visitorID string) (Subscription, error) {
	var record Subscription
	data, err := c.store.Get(ctx, visitorID, SubscriptionKey)
	if err != nil {
		return record, err
	}
	if err := json.Unmarshal(data, &record); err != nil {
		return record, fmt.Errorf("funnel: decode subscription: %w", err)
	}
	return record, nil
}

func (c *Controller) reject(s *session.Session, err error) error {
	var verr *ValidationError
	if errors.As(err, &verr) {
		c.notifier.Notify(s, verr.Message, notify.Error)
		c.metrics.ObserveValidationFailure(verr.Reason)
	}
	s.Logger.Debug("funnel: submission rejected", "error", err)
	return err
}

func (c *Controller) advance(s *session.Session, stage session.Stage) {
	if s.State.Stage == stage {
		return
	}
	s.State.Stage = stage
	c.metrics.ObserveFunnelTransition(string(stage))
}
