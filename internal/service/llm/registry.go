package llm

import (
	"fmt"
	"sync"
)

// Registry holds the configured providers and resolves models to them.
type Registry struct {
	providers map[string]Provider
	mu        sync.RWMutex
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
	}
}

// Register adds a provider. Later registrations replace earlier ones with
// the same name.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.providers[p.Name()] = p
}

// Get returns the provider with the given name, nil if absent.
func (r *Registry) Get(name string) Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.providers[name]
}

// ForModel resolves a model string (optionally provider-qualified) to a
// registered provider and the bare model name.
func (r *Registry) ForModel(modelStr string) (Provider, string, error) {
	info, err := ParseModel(modelStr)
	if err != nil {
		return nil, "", err
	}

	provider := r.Get(info.Provider)
	if provider == nil {
		return nil, "", fmt.Errorf("no provider registered for %q (model %s)", info.Provider, modelStr)
	}

	if !provider.SupportsModel(info.Model) {
		return nil, "", fmt.Errorf("model %q is not supported by provider %q", info.Model, info.Provider)
	}

	return provider, info.Model, nil
}

// Names returns the registered provider names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}
