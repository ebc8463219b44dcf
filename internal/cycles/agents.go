package cycles

import (
	"context"
	"sort"

	"github.com/wolfman30/chispart-landing/internal/demochat"
)

// LeadAgentID is the agent every new cycle starts with.
const LeadAgentID = "blackbox"

// DefaultAgents returns the platform's agents keyed by id.
func DefaultAgents() map[string]Agent {
	return map[string]Agent{
		"blackbox": {ID: "blackbox", Name: "Blackbox", Role: "Full Stack + Cloud Engineer", Model: "blackboxai/meta-llama/llama-3.1-8b-instruct"},
		"gemini":   {ID: "gemini", Name: "Gemini", Role: "Senior QA Engineer", Model: "gemini/gemini-1.5-pro-latest"},
		"jules":    {ID: "jules", Name: "Jules", Role: "Code Reviewer", Model: "anthropic/claude-3-sonnet-20240229"},
	}
}

// ModelCatalog lists the models offered per media type.
var ModelCatalog = map[string][]string{
	"Video": {
		"blackboxai/google/veo-3",
		"blackboxai/google/veo-3-fast",
	},
	"Image": {
		"blackboxai/black-forest-labs/flux-1.1-pro-ultra",
		"blackboxai/black-forest-labs/flux-schnell",
		"blackboxai/bytedance/hyper-flux-8step",
		"blackboxai/stability-ai/stable-diffusion",
		"blackboxai/prompthero/openjourney",
	},
	"Text": {
		"blackboxai/google/gemma-2-9b-it:free",
		"blackboxai/mistralai/mistral-7b-instruct:free",
		"blackboxai/meta-llama/llama-3.1-8b-instruct",
	},
}

func sortedAgents(agents map[string]Agent) []Agent {
	out := make([]Agent, 0, len(agents))
	for _, a := range agents {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Responder produces an agent's reply to a prompt.
type Responder interface {
	Respond(ctx context.Context, agent Agent, p Prompt) (string, error)
}

// CannedResponder answers from the demo chat's keyword rules, so cycles work
// without a model provider.
type CannedResponder struct{}

func (CannedResponder) Respond(_ context.Context, _ Agent, p Prompt) (string, error) {
	return demochat.Match(p.Text), nil
}
