package bootstrap

import (
	"github.com/wolfman30/chispart-landing/internal/cycles"
	"github.com/wolfman30/chispart-landing/pkg/logging"
)

// BuildCycles wires the development cycle API. Agents answer from the canned
// rule table until a model provider is configured.
func BuildCycles(logger *logging.Logger) *cycles.Handler {
	return cycles.NewHandler(cycles.Options{
		Repo:      cycles.NewInMemoryRepository(),
		Responder: cycles.CannedResponder{},
		Logger:    logger,
	})
}
