// Package llm adapts language-model providers to ports.ModelClient.
package llm

import (
	"context"
	"strings"

	"ResearchAssistant/internal/ports"
)

// Router picks a provider per model name: "claude" models go to Anthropic,
// everything else to the Gradient endpoint.
type Router struct {
	anthropic ports.ModelClient
	gradient  ports.ModelClient
}

var _ ports.ModelClient = (*Router)(nil)

// NewRouter combines the two providers.
func NewRouter(anthropic, gradient ports.ModelClient) *Router {
	return &Router{anthropic: anthropic, gradient: gradient}
}

func (r *Router) pick(model string) ports.ModelClient {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(model)), "claude") {
		return r.anthropic
	}
	return r.gradient
}

// Ready delegates to the provider serving model.
func (r *Router) Ready(model string) error {
	return r.pick(model).Ready(model)
}

// Complete delegates to the provider serving model.
func (r *Router) Complete(ctx context.Context, model, prompt string) (string, error) {
	return r.pick(model).Complete(ctx, model, prompt)
}
