package cycles

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/chispart-landing/internal/demochat"
	"github.com/wolfman30/chispart-landing/pkg/logging"
)

type failingResponder struct{}

func (failingResponder) Respond(context.Context, Agent, Prompt) (string, error) {
	return "", errors.New("provider down")
}

type recordingResponder struct {
	got []Prompt
}

func (r *recordingResponder) Respond(_ context.Context, agent Agent, p Prompt) (string, error) {
	r.got = append(r.got, p)
	return agent.Name + ": " + p.Text, nil
}

func newTestServer(t *testing.T, responder Responder) (http.Handler, *InMemoryRepository) {
	t.Helper()
	repo := NewInMemoryRepository()
	h := NewHandler(Options{Repo: repo, Responder: responder, Logger: logging.Discard()})
	h.now = func() time.Time { return time.Unix(1767268800, 500_000_000) }

	r := chi.NewRouter()
	r.Route("/cycles", h.Routes)
	r.Get("/agents", h.ListAgents)
	r.Get("/models", h.ListModels)
	return r, repo
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return v
}

func TestCreateCycle_WithInitialPrompt(t *testing.T) {
	srv, _ := newTestServer(t, CannedResponder{})

	w := do(t, srv, http.MethodPost, "/cycles", `{"title":"Feature X Backend","initial_prompt":"cual es el precio"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	c := decode[Cycle](t, w)

	if c.ID == "" || c.Title != "Feature X Backend" {
		t.Fatalf("unexpected cycle %+v", c)
	}
	if len(c.ActiveAgents) != 1 || c.ActiveAgents[0].ID != LeadAgentID {
		t.Fatalf("expected the lead agent to join, got %+v", c.ActiveAgents)
	}
	if len(c.Messages) != 2 {
		t.Fatalf("expected prompt and reply, got %d messages", len(c.Messages))
	}
	if c.Messages[0].Sender != "user" || c.Messages[1].Sender != LeadAgentID {
		t.Errorf("unexpected senders %q, %q", c.Messages[0].Sender, c.Messages[1].Sender)
	}
	if c.Messages[1].Text != demochat.Match("cual es el precio") {
		t.Errorf("unexpected reply %q", c.Messages[1].Text)
	}
	if c.CreatedAt != 1767268800.5 {
		t.Errorf("expected created_at in unix seconds, got %v", c.CreatedAt)
	}
}

func TestCreateCycle_InvalidRequest(t *testing.T) {
	srv, repo := newTestServer(t, nil)

	for _, body := range []string{`{`, `{"title":"  "}`} {
		w := do(t, srv, http.MethodPost, "/cycles", body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("body %s: expected status 400, got %d", body, w.Code)
		}
	}
	cycles, _ := repo.List(context.Background())
	if len(cycles) != 0 {
		t.Fatalf("expected nothing stored, got %d", len(cycles))
	}
}

func TestListAndGetCycles(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	first := decode[Cycle](t, do(t, srv, http.MethodPost, "/cycles", `{"title":"one"}`))
	do(t, srv, http.MethodPost, "/cycles", `{"title":"two"}`)

	list := decode[[]Cycle](t, do(t, srv, http.MethodGet, "/cycles", ""))
	if len(list) != 2 || list[0].Title != "one" || list[1].Title != "two" {
		t.Fatalf("expected cycles in creation order, got %+v", list)
	}

	w := do(t, srv, http.MethodGet, "/cycles/"+first.ID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if got := decode[Cycle](t, w); got.ID != first.ID || len(got.Messages) != 0 {
		t.Errorf("unexpected cycle %+v", got)
	}

	if w := do(t, srv, http.MethodGet, "/cycles/missing", ""); w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
}

func TestAddMessage(t *testing.T) {
	responder := &recordingResponder{}
	srv, _ := newTestServer(t, responder)
	c := decode[Cycle](t, do(t, srv, http.MethodPost, "/cycles", `{"title":"chat"}`))

	w := do(t, srv, http.MethodPost, "/cycles/"+c.ID+"/messages", `{"prompt":"deploy it","model_type":"custom/model","temperature":0.2}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	msg := decode[Message](t, w)
	if msg.Sender != LeadAgentID || msg.Text != "Blackbox: deploy it" {
		t.Errorf("unexpected reply %+v", msg)
	}

	if len(responder.got) != 1 {
		t.Fatalf("expected one prompt, got %d", len(responder.got))
	}
	p := responder.got[0]
	if p.Model != "custom/model" || p.MaxTokens != DefaultMaxTokens || p.Temperature != 0.2 {
		t.Errorf("unexpected prompt settings %+v", p)
	}

	stored := decode[Cycle](t, do(t, srv, http.MethodGet, "/cycles/"+c.ID, ""))
	if len(stored.Messages) != 2 {
		t.Fatalf("expected prompt and reply stored, got %d", len(stored.Messages))
	}
}

func TestAddMessage_Failures(t *testing.T) {
	srv, repo := newTestServer(t, nil)
	c := decode[Cycle](t, do(t, srv, http.MethodPost, "/cycles", `{"title":"quiet"}`))

	if w := do(t, srv, http.MethodPost, "/cycles/missing/messages", `{"prompt":"hi"}`); w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
	if w := do(t, srv, http.MethodPost, "/cycles/"+c.ID+"/messages", `{"prompt":""}`); w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}

	w := do(t, srv, http.MethodPost, "/cycles/"+c.ID+"/messages", `{"prompt":"hi"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500 without a responder, got %d", w.Code)
	}
	stored, _ := repo.Get(context.Background(), c.ID)
	if len(stored.Messages) != 1 || stored.Messages[0].Text != "hi" {
		t.Errorf("expected the user message to be kept, got %+v", stored.Messages)
	}

	noAgents := &Cycle{ID: "solo", Title: "solo"}
	_ = repo.Create(context.Background(), noAgents)
	w = do(t, srv, http.MethodPost, "/cycles/solo/messages", `{"prompt":"hi"}`)
	if w.Code != http.StatusInternalServerError || !strings.Contains(w.Body.String(), "no active agents") {
		t.Errorf("expected no active agents error, got %d %s", w.Code, w.Body.String())
	}
}

func TestAddMessage_ResponderError(t *testing.T) {
	srv, _ := newTestServer(t, failingResponder{})
	c := decode[Cycle](t, do(t, srv, http.MethodPost, "/cycles", `{"title":"down"}`))

	if w := do(t, srv, http.MethodPost, "/cycles/"+c.ID+"/messages", `{"prompt":"hi"}`); w.Code != http.StatusBadGateway {
		t.Errorf("expected status 502, got %d", w.Code)
	}
}

func TestLinkGitHub(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	c := decode[Cycle](t, do(t, srv, http.MethodPost, "/cycles", `{"title":"linked"}`))

	w := do(t, srv, http.MethodPost, "/cycles/"+c.ID+"/github", `{"pr_url":"https://github.com/chispart/app/pull/7","branch_name":"feature/x"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	resp := decode[struct {
		Status string `json:"status"`
		Cycle  Cycle  `json:"cycle"`
	}](t, w)
	if resp.Status != "success" || resp.Cycle.GitHubLink == nil || resp.Cycle.GitHubLink.BranchName != "feature/x" {
		t.Fatalf("unexpected response %+v", resp)
	}

	if w := do(t, srv, http.MethodPost, "/cycles/missing/github", `{}`); w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
}

func TestAgentsAndModels(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	agents := decode[[]Agent](t, do(t, srv, http.MethodGet, "/agents", ""))
	if len(agents) != 3 || agents[0].ID != "blackbox" || agents[2].ID != "jules" {
		t.Fatalf("unexpected agents %+v", agents)
	}

	models := decode[map[string][]string](t, do(t, srv, http.MethodGet, "/models", ""))
	for _, kind := range []string{"Video", "Image", "Text"} {
		if len(models[kind]) == 0 {
			t.Errorf("expected %s models", kind)
		}
	}
}

func TestRepositoryReturnsCopies(t *testing.T) {
	repo := NewInMemoryRepository()
	_ = repo.Create(context.Background(), &Cycle{ID: "c1", Title: "t"})

	got, _ := repo.Get(context.Background(), "c1")
	got.Messages = append(got.Messages, Message{Text: "local"})

	again, _ := repo.Get(context.Background(), "c1")
	if len(again.Messages) != 0 {
		t.Fatalf("caller mutation leaked into the repository")
	}
}
