package cycles

import "errors"

var (
	// ErrCycleNotFound is returned when no cycle has the requested id.
	ErrCycleNotFound = errors.New("cycles: cycle not found")

	// ErrTitleRequired is returned when a cycle is created without a title.
	ErrTitleRequired = errors.New("cycles: title is required")

	// ErrPromptRequired is returned when a message has no prompt.
	ErrPromptRequired = errors.New("cycles: prompt is required")

	// ErrNoActiveAgents is returned when a cycle has nobody to answer.
	ErrNoActiveAgents = errors.New("cycles: no active agents in cycle")

	// ErrNoResponder is returned when no responder is configured.
	ErrNoResponder = errors.New("cycles: responder not configured")
)
