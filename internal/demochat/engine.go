// Package demochat answers the landing page's demo chat with canned replies
// chosen by keyword.
package demochat

import (
	"context"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/wolfman30/chispart-landing/internal/observability/metrics"
	"github.com/wolfman30/chispart-landing/internal/page"
	"github.com/wolfman30/chispart-landing/internal/session"
)

const (
	chatSelector  = "#demoChat"
	inputSelector = "#demoInput"

	userLabel = "Tú"
	botLabel  = "Asistente Chispart AI"

	transcriptTimeout = 2 * time.Second
)

// Options configures an Engine.
type Options struct {
	// The bot reply lands after a uniformly random delay in [DelayMin, DelayMax).
	DelayMin time.Duration
	DelayMax time.Duration
	// Random returns a value in [0, 1). Defaults to math/rand/v2.
	Random     func() float64
	Transcript TranscriptStore
	Metrics    *metrics.LandingMetrics
}

// Engine runs the demo chat for any session. Methods must be called with the
// session locked.
type Engine struct {
	delayMin   time.Duration
	delayMax   time.Duration
	random     func() float64
	transcript TranscriptStore
	metrics    *metrics.LandingMetrics
}

func NewEngine(opts Options) *Engine {
	if opts.DelayMin <= 0 {
		opts.DelayMin = time.Second
	}
	if opts.DelayMax < opts.DelayMin {
		opts.DelayMax = 2 * opts.DelayMin
	}
	if opts.Random == nil {
		opts.Random = rand.Float64
	}
	return &Engine{
		delayMin:   opts.DelayMin,
		delayMax:   opts.DelayMax,
		random:     opts.Random,
		transcript: opts.Transcript,
		metrics:    opts.Metrics,
	}
}

// Seed records the greeting that the chat markup already shows, once.
func (e *Engine) Seed(s *session.Session) {
	if len(s.State.DemoMessages) > 0 || s.Page.Query(chatSelector) == nil {
		return
	}
	s.State.AppendMessage(session.ChatMessage{Text: Greeting, Sender: session.SenderBot, At: s.Now()})
}

// Submit posts raw as a visitor message and schedules the bot reply.
// Blank messages are ignored.
func (e *Engine) Submit(s *session.Session, raw string) {
	msg := strings.TrimSpace(raw)
	if msg == "" {
		return
	}
	e.post(s, msg, session.SenderUser, "")

	delay := e.typingDelay()
	s.After(delay, func(s *session.Session) {
		rule := FallbackRule
		reply := Fallback
		if r, ok := MatchRule(msg); ok {
			rule, reply = r.Name, r.Response
		}
		e.post(s, reply, session.SenderBot, rule)
	})
	s.Logger.Debug("demochat: reply scheduled", "delay_ms", delay.Milliseconds())
}

// SubmitFromInput sends the chat input's current value and clears it.
func (e *Engine) SubmitFromInput(s *session.Session) {
	input := s.Page.Query(inputSelector)
	if input == nil || s.Page.Query(chatSelector) == nil {
		return
	}
	msg := strings.TrimSpace(input.Value)
	if msg == "" {
		return
	}
	s.Page.SetValue(input, "")
	e.Submit(s, msg)
}

// HandleKey submits the input when key is Enter.
func (e *Engine) HandleKey(s *session.Session, key string) {
	if key == "Enter" {
		e.SubmitFromInput(s)
	}
}

func (e *Engine) typingDelay() time.Duration {
	span := e.delayMax - e.delayMin
	if span <= 0 {
		return e.delayMin
	}
	return e.delayMin + time.Duration(e.random()*float64(span))
}

func (e *Engine) post(s *session.Session, text string, sender session.Sender, rule string) {
	now := s.Now()
	s.State.AppendMessage(session.ChatMessage{Text: text, Sender: sender, At: now})

	if chat := s.Page.Query(chatSelector); chat != nil {
		label := userLabel
		if sender == session.SenderBot {
			label = botLabel
		}
		s.Page.Append(chat, page.NewElement("div").
			WithClass("chat-message", string(sender)).
			WithChildren(
				page.NewElement("strong").WithText(label),
				page.NewElement("p").WithText(text),
			))
	}

	metricRule := rule
	if metricRule == "" {
		metricRule = "none"
	}
	e.metrics.ObserveChatMessage(string(sender), metricRule)

	if e.transcript == nil {
		return
	}
	visitorID, logger := s.VisitorID, s.Logger
	entry := TranscriptEntry{
		Sender:    sender,
		Text:      text,
		Rule:      rule,
		Timestamp: now.UTC(),
	}
	s.Background(func() {
		ctx, cancel := context.WithTimeout(context.Background(), transcriptTimeout)
		defer cancel()
		if err := e.transcript.Append(ctx, visitorID, entry); err != nil {
			logger.Warn("demochat: transcript append failed", "error", err)
		}
	})
}
