package cycles

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/wolfman30/chispart-landing/pkg/logging"
)

// Options configures a Handler.
type Options struct {
	Repo Repository
	// Responder answers user prompts; without one, messages get a 500.
	Responder Responder
	Agents    map[string]Agent
	Logger    *logging.Logger
}

// Handler serves the development cycle API.
type Handler struct {
	repo      Repository
	responder Responder
	agents    map[string]Agent
	logger    *logging.Logger
	now       func() time.Time
}

// NewHandler creates a cycles handler.
func NewHandler(opts Options) *Handler {
	if opts.Repo == nil {
		opts.Repo = NewInMemoryRepository()
	}
	if opts.Agents == nil {
		opts.Agents = DefaultAgents()
	}
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}
	return &Handler{
		repo:      opts.Repo,
		responder: opts.Responder,
		agents:    opts.Agents,
		logger:    opts.Logger,
		now:       time.Now,
	}
}

// Routes mounts the cycle endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.ListCycles)
	r.Post("/", h.CreateCycle)
	r.Get("/{cycleID}", h.GetCycle)
	r.Post("/{cycleID}/messages", h.AddMessage)
	r.Post("/{cycleID}/github", h.LinkGitHub)
}

// ListCycles handles GET /cycles.
func (h *Handler) ListCycles(w http.ResponseWriter, r *http.Request) {
	cycles, err := h.repo.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list cycles", "error", err)
		http.Error(w, "failed to list cycles", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, cycles)
}

// CreateCycle handles POST /cycles. The lead agent joins every new cycle and
// answers the initial prompt when one is given.
func (h *Handler) CreateCycle(w http.ResponseWriter, r *http.Request) {
	var req CreateCycleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	c := &Cycle{
		ID:           uuid.NewString(),
		Title:        req.Title,
		Messages:     []Message{},
		ActiveAgents: []Agent{},
		CreatedAt:    unixSeconds(h.now()),
	}
	lead, hasLead := h.agents[LeadAgentID]
	if hasLead {
		c.ActiveAgents = append(c.ActiveAgents, lead)
	}

	if req.InitialPrompt != "" {
		c.Messages = append(c.Messages, h.message("user", req.InitialPrompt))
		if h.responder != nil && hasLead {
			reply, err := h.responder.Respond(r.Context(), lead, AddMessageRequest{Prompt: req.InitialPrompt}.prompt(lead))
			if err != nil {
				h.logger.Error("initial prompt failed", "error", err, "cycle_id", c.ID)
				http.Error(w, "agent failed to respond", http.StatusBadGateway)
				return
			}
			c.Messages = append(c.Messages, h.message(lead.ID, reply))
		}
	}

	if err := h.repo.Create(r.Context(), c); err != nil {
		h.logger.Error("failed to create cycle", "error", err)
		http.Error(w, "failed to create cycle", http.StatusInternalServerError)
		return
	}
	h.logger.Info("cycle created", "cycle_id", c.ID, "title", c.Title)
	writeJSON(w, http.StatusOK, c)
}

// GetCycle handles GET /cycles/{cycleID}.
func (h *Handler) GetCycle(w http.ResponseWriter, r *http.Request) {
	c, err := h.repo.Get(r.Context(), chi.URLParam(r, "cycleID"))
	if err != nil {
		h.writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// AddMessage handles POST /cycles/{cycleID}/messages. The user's message is
// kept even when no agent can answer it.
func (h *Handler) AddMessage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "cycleID")
	var req AddMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	c, err := h.repo.AppendMessages(r.Context(), id, h.message("user", req.Prompt))
	if err != nil {
		h.writeRepoError(w, err)
		return
	}
	if len(c.ActiveAgents) == 0 {
		http.Error(w, ErrNoActiveAgents.Error(), http.StatusInternalServerError)
		return
	}
	if h.responder == nil {
		http.Error(w, ErrNoResponder.Error(), http.StatusInternalServerError)
		return
	}

	agent := c.ActiveAgents[0]
	reply, err := h.responder.Respond(r.Context(), agent, req.prompt(agent))
	if err != nil {
		h.logger.Error("agent failed to respond", "error", err, "cycle_id", id, "agent", agent.ID)
		http.Error(w, "agent failed to respond", http.StatusBadGateway)
		return
	}
	msg := h.message(agent.ID, reply)
	if _, err := h.repo.AppendMessages(r.Context(), id, msg); err != nil {
		h.writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

// LinkGitHub handles POST /cycles/{cycleID}/github.
func (h *Handler) LinkGitHub(w http.ResponseWriter, r *http.Request) {
	var link GitHubLink
	if err := json.NewDecoder(r.Body).Decode(&link); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	c, err := h.repo.SetGitHubLink(r.Context(), chi.URLParam(r, "cycleID"), link)
	if err != nil {
		h.writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "cycle": c})
}

// ListAgents handles GET /agents.
func (h *Handler) ListAgents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sortedAgents(h.agents))
}

// ListModels handles GET /models.
func (h *Handler) ListModels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ModelCatalog)
}

func (h *Handler) message(sender, text string) Message {
	return Message{Sender: sender, Text: text, Timestamp: unixSeconds(h.now())}
}

func (h *Handler) writeRepoError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrCycleNotFound) {
		http.Error(w, "Development cycle not found", http.StatusNotFound)
		return
	}
	h.logger.Error("cycle repository failed", "error", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
