// Package cycles keeps multi-agent development cycles: chat threads between a
// visitor and the platform's agents, optionally linked to a GitHub issue or PR.
package cycles

import (
	"strings"
	"time"
)

// Agent is an AI agent that can take part in a cycle.
type Agent struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Role  string `json:"role"`
	Model string `json:"model,omitempty"`
}

// GitHubLink ties a cycle to an issue, a pull request or a branch.
type GitHubLink struct {
	IssueURL   string `json:"issue_url,omitempty"`
	PRURL      string `json:"pr_url,omitempty"`
	BranchName string `json:"branch_name,omitempty"`
}

// Message is one line of a cycle's thread. Sender is "user" or an agent id.
type Message struct {
	Sender    string  `json:"sender"`
	Text      string  `json:"text"`
	Timestamp float64 `json:"timestamp"`
}

// Cycle is one workspace of a development cycle.
type Cycle struct {
	ID           string      `json:"id"`
	Title        string      `json:"title"`
	Messages     []Message   `json:"messages"`
	ActiveAgents []Agent     `json:"active_agents"`
	GitHubLink   *GitHubLink `json:"github_link"`
	CreatedAt    float64     `json:"created_at"`
}

func (c *Cycle) clone() *Cycle {
	out := *c
	out.Messages = append([]Message(nil), c.Messages...)
	out.ActiveAgents = append([]Agent(nil), c.ActiveAgents...)
	if c.GitHubLink != nil {
		link := *c.GitHubLink
		out.GitHubLink = &link
	}
	return &out
}

// CreateCycleRequest is the body of POST /cycles.
type CreateCycleRequest struct {
	Title         string `json:"title"`
	InitialPrompt string `json:"initial_prompt,omitempty"`
}

// Validate checks the request.
func (r CreateCycleRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return ErrTitleRequired
	}
	return nil
}

// AddMessageRequest is the body of POST /cycles/{id}/messages.
type AddMessageRequest struct {
	Prompt      string   `json:"prompt"`
	ModelType   string   `json:"model_type,omitempty"`
	MaxTokens   *int     `json:"max_tokens,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
}

// Validate checks the request.
func (r AddMessageRequest) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return ErrPromptRequired
	}
	return nil
}

// Default generation settings applied when a request leaves them out.
const (
	DefaultMaxTokens   = 2048
	DefaultTemperature = 0.7
)

// Prompt is what a Responder is asked to answer.
type Prompt struct {
	Text        string
	Model       string
	MaxTokens   int
	Temperature float64
}

func (r AddMessageRequest) prompt(agent Agent) Prompt {
	p := Prompt{
		Text:        r.Prompt,
		Model:       agent.Model,
		MaxTokens:   DefaultMaxTokens,
		Temperature: DefaultTemperature,
	}
	if r.ModelType != "" {
		p.Model = r.ModelType
	}
	if r.MaxTokens != nil {
		p.MaxTokens = *r.MaxTokens
	}
	if r.Temperature != nil {
		p.Temperature = *r.Temperature
	}
	return p
}

func unixSeconds(t time.Time) float64 {
	return float64(t.Unix()) + float64(t.Nanosecond())/float64(time.Second)
}
