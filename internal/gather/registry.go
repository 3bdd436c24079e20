// Package gather assembles per-ticker research documents from pluggable
// best-effort sources.
package gather

import (
	"context"
	"fmt"
	"sort"

	"ResearchAssistant/internal/domain"
)

// Gatherer captures a single research source (news, reddit, etc.).
type Gatherer interface {
	Name() string
	Gather(ctx context.Context, ticker domain.Ticker) (domain.ResearchSection, error)
}

// Registry keeps a mapping from source names to their implementations.
type Registry struct {
	gatherers map[string]Gatherer
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{gatherers: map[string]Gatherer{}}
}

// Register adds or replaces a gatherer implementation.
func (r *Registry) Register(g Gatherer) {
	if r.gatherers == nil {
		r.gatherers = map[string]Gatherer{}
	}
	r.gatherers[g.Name()] = g
}

// Resolve returns a gatherer by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Gatherer, error) {
	if g, ok := r.gatherers[name]; ok {
		return g, nil
	}
	return nil, fmt.Errorf("gatherer %s is not registered", name)
}

// Names lists registered gatherers alphabetically.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.gatherers))
	for name := range r.gatherers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
