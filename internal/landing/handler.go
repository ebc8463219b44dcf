package landing

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/wolfman30/chispart-landing/internal/demochat"
	"github.com/wolfman30/chispart-landing/internal/funnel"
	"github.com/wolfman30/chispart-landing/internal/http/middleware"
	"github.com/wolfman30/chispart-landing/internal/observability/metrics"
	"github.com/wolfman30/chispart-landing/internal/page"
	"github.com/wolfman30/chispart-landing/internal/session"
	"github.com/wolfman30/chispart-landing/internal/storage"
	"github.com/wolfman30/chispart-landing/pkg/logging"
)

const (
	writeWait      = 10 * time.Second
	readWait       = 60 * time.Second
	maxMessageSize = 64 << 10
	historyLimit   = 100
)

// Envelope is what the server sends over the websocket.
type Envelope struct {
	Type    string       `json:"type"` // "reset", "patches", "error", "pong"
	Node    *page.Node   `json:"node,omitempty"`
	Patches []page.Patch `json:"patches,omitempty"`
	Text    string       `json:"text,omitempty"`
}

// View is the full page plus state, returned to clients without a websocket.
type View struct {
	Node  *page.Node    `json:"node"`
	State session.State `json:"state"`
}

// HistoryMessage is one demo chat line in history responses.
type HistoryMessage struct {
	Sender    session.Sender `json:"sender"`
	Text      string         `json:"text"`
	Rule      string         `json:"rule,omitempty"`
	Timestamp string         `json:"timestamp"`
}

// Options configures a Handler.
type Options struct {
	Registry   *session.Registry
	Dispatcher *Dispatcher
	Funnel     *funnel.Controller
	Transcript demochat.TranscriptStore
	Metrics    *metrics.LandingMetrics
	// AllowedOrigins gates cross-origin websocket upgrades; "*" allows any.
	AllowedOrigins []string
	Logger         *logging.Logger
}

// Handler serves the landing page, its websocket channel and the HTTP fallback.
type Handler struct {
	registry   *session.Registry
	dispatcher *Dispatcher
	funnel     *funnel.Controller
	transcript demochat.TranscriptStore
	metrics    *metrics.LandingMetrics
	logger     *logging.Logger
	upgrader   websocket.Upgrader
	origins    map[string]bool
	now        func() time.Time
}

func NewHandler(opts Options) *Handler {
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}
	h := &Handler{
		registry:   opts.Registry,
		dispatcher: opts.Dispatcher,
		funnel:     opts.Funnel,
		transcript: opts.Transcript,
		metrics:    opts.Metrics,
		logger:     opts.Logger,
		origins:    make(map[string]bool),
		now:        time.Now,
	}
	for _, o := range opts.AllowedOrigins {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			h.origins[o] = true
		}
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || h.origins["*"] || h.origins[origin] {
		return true
	}
	u, err := url.Parse(origin)
	return err == nil && strings.EqualFold(u.Host, r.Host)
}

// HandleIndex serves the landing page.
func (h *Handler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(indexHTML)
}

// HandleClientJS serves the landing client script.
func (h *Handler) HandleClientJS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/javascript")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(landingJS)
}

// wsSink writes patches to one websocket. Writes are serialized; gorilla
// connections allow a single concurrent writer.
type wsSink struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (k *wsSink) Push(patches []page.Patch) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.writeLocked(Envelope{Type: "patches", Patches: patches})
}

func (k *wsSink) send(env Envelope) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.writeLocked(env)
}

func (k *wsSink) writeLocked(env Envelope) error {
	if err := k.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return k.conn.WriteJSON(env)
}

// attach routes s's patches to the sink and sends the full page first. The
// sink stays locked until the reset is written so no patch can overtake it.
func (k *wsSink) attach(s *session.Session) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	node := s.Attach(k)
	return k.writeLocked(Envelope{Type: "reset", Node: node})
}

// parsePageID validates the page-load id a client generated on load.
func parsePageID(raw string) (string, bool) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", false
	}
	return id.String(), true
}

// session resolves the page-load session for a request, writing the error
// response itself when it cannot.
func (h *Handler) session(w http.ResponseWriter, r *http.Request, rawPage string) (s *session.Session, pageID, visitorID string, ok bool) {
	visitorID, ok = middleware.VisitorFromContext(r.Context())
	if !ok {
		http.Error(w, "visitor required", http.StatusBadRequest)
		return nil, "", "", false
	}
	pageID, ok = parsePageID(rawPage)
	if !ok {
		http.Error(w, "page id required", http.StatusBadRequest)
		return nil, "", "", false
	}
	s, err := h.registry.GetOrCreate(pageID, visitorID)
	switch {
	case errors.Is(err, session.ErrForeignSession):
		http.Error(w, "page belongs to another visitor", http.StatusForbidden)
		return nil, "", "", false
	case err != nil:
		h.logger.Error("landing: session unavailable", "error", err, "page_id", pageID, "visitor_id", visitorID)
		http.Error(w, "session unavailable", http.StatusInternalServerError)
		return nil, "", "", false
	}
	return s, pageID, visitorID, true
}

// HandleWebSocket upgrades to a websocket and runs one page load over it. The
// page id comes from the page query parameter.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	s, pageID, visitorID, ok := h.session(w, r, r.URL.Query().Get("page"))
	if !ok {
		return
	}
	var err error

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("landing: websocket upgrade failed", "error", err, "page_id", pageID)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxMessageSize)

	sink := &wsSink{conn: conn}
	if err := sink.attach(s); err != nil {
		h.logger.Debug("landing: reset not delivered", "error", err, "page_id", pageID)
		return
	}
	defer func() { s.Detach(sink) }()

	h.logger.Info("landing: connection opened", "page_id", pageID, "visitor_id", visitorID)

	for {
		_ = conn.SetReadDeadline(time.Now().Add(readWait))
		var a Action
		if err := conn.ReadJSON(&a); err != nil {
			var syntax *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &syntax) || errors.As(err, &typeErr) {
				_ = sink.send(Envelope{Type: "error", Text: "invalid message"})
				continue
			}
			h.logger.Debug("landing: connection closed", "page_id", pageID, "error", err)
			return
		}

		switch a.Action {
		case ActionPing:
			s.Touch()
			_ = sink.send(Envelope{Type: "pong"})
			continue
		case ActionUnload:
			h.registry.Remove(pageID, visitorID, "unload")
			h.metrics.ObserveAction(a.Action, "ok", 0)
			return
		}

		// The session may have been swept while the socket sat idle.
		if s.Closed() {
			s.Detach(sink)
			if s, err = h.registry.GetOrCreate(pageID, visitorID); err != nil {
				h.logger.Error("landing: session unavailable", "error", err, "page_id", pageID)
				return
			}
			if err := sink.attach(s); err != nil {
				return
			}
		}

		if err := h.dispatch(s, a); err != nil && !isValidation(err) {
			_ = sink.send(Envelope{Type: "error", Text: err.Error()})
		}
	}
}

func (h *Handler) dispatch(s *session.Session, a Action) error {
	start := h.now()
	var err error
	s.Do(func(s *session.Session) {
		err = h.dispatcher.Dispatch(s, a)
	})
	status := "ok"
	switch {
	case err == nil:
	case isValidation(err):
		status = "invalid"
	default:
		status = "error"
		s.Logger.Warn("landing: action rejected", "action", a.Action, "error", err)
	}
	h.metrics.ObserveAction(a.Action, status, h.now().Sub(start).Seconds())
	return err
}

func isValidation(err error) bool {
	var verr *funnel.ValidationError
	return errors.As(err, &verr)
}

// HandleAction is the HTTP fallback for clients without a websocket. The body
// carries the page id. It responds with the whole page so the client can
// re-render.
func (h *Handler) HandleAction(w http.ResponseWriter, r *http.Request) {
	visitorID, ok := middleware.VisitorFromContext(r.Context())
	if !ok {
		http.Error(w, "visitor required", http.StatusBadRequest)
		return
	}

	var a Action
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxMessageSize)).Decode(&a); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if a.Action == ActionUnload {
		pageID, ok := parsePageID(a.Page)
		if !ok {
			http.Error(w, "page id required", http.StatusBadRequest)
			return
		}
		h.registry.Remove(pageID, visitorID, "unload")
		h.metrics.ObserveAction(a.Action, "ok", 0)
		w.WriteHeader(http.StatusNoContent)
		return
	}

	s, _, _, ok := h.session(w, r, a.Page)
	if !ok {
		return
	}

	status := http.StatusOK
	if a.Action == ActionPing {
		s.Touch()
	} else if err := h.dispatch(s, a); err != nil {
		switch {
		case isValidation(err):
			status = http.StatusUnprocessableEntity
		case errors.Is(err, ErrUnknownAction), errors.Is(err, ErrBadAction):
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		default:
			http.Error(w, "action failed", http.StatusInternalServerError)
			return
		}
	}

	node, state := s.Render()
	writeJSON(w, status, View{Node: node, State: state})
}

// HandlePage returns the current page and state of the page load named by
// the page query parameter.
func (h *Handler) HandlePage(w http.ResponseWriter, r *http.Request) {
	s, _, _, ok := h.session(w, r, r.URL.Query().Get("page"))
	if !ok {
		return
	}
	node, state := s.Render()
	writeJSON(w, http.StatusOK, View{Node: node, State: state})
}

// HandleHistory returns the visitor's demo chat transcript, from the
// transcript store when one is configured and otherwise from the live page
// load named by the page query parameter.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	visitorID, ok := middleware.VisitorFromContext(r.Context())
	if !ok {
		http.Error(w, "visitor required", http.StatusBadRequest)
		return
	}

	history := []HistoryMessage{}
	if h.transcript != nil {
		entries, err := h.transcript.List(r.Context(), visitorID, historyLimit)
		if err != nil {
			h.logger.Error("landing: failed to load history", "error", err, "visitor_id", visitorID)
			http.Error(w, "failed to load history", http.StatusInternalServerError)
			return
		}
		for _, e := range entries {
			history = append(history, HistoryMessage{
				Sender:    e.Sender,
				Text:      e.Text,
				Rule:      e.Rule,
				Timestamp: e.Timestamp.Format(time.RFC3339),
			})
		}
	} else if pageID, ok := parsePageID(r.URL.Query().Get("page")); ok {
		if s := h.registry.Get(pageID); s != nil && s.VisitorID == visitorID {
		for _, m := range s.Snapshot().DemoMessages {
			history = append(history, HistoryMessage{
				Sender:    m.Sender,
				Text:      m.Text,
					Timestamp: m.At.UTC().Format(time.RFC3339),
				})
			}
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"messages": history})
}

// HandleSubscription returns the visitor's stored subscription record.
func (h *Handler) HandleSubscription(w http.ResponseWriter, r *http.Request) {
	visitorID, ok := middleware.VisitorFromContext(r.Context())
	if !ok {
		http.Error(w, "visitor required", http.StatusBadRequest)
		return
	}
	record, err := h.funnel.LoadSubscription(r.Context(), visitorID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		http.Error(w, "no subscription", http.StatusNotFound)
		return
	case err != nil:
		h.logger.Error("landing: failed to load subscription", "error", err, "visitor_id", visitorID)
		http.Error(w, "failed to load subscription", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
