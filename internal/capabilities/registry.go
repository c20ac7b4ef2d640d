// Package capabilities serves the model-capability registry: which models
// exist per provider, what surfaces they support, and their limits. The
// registry is loaded once from embedded YAML at startup.
package capabilities

import (
	"embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed config/*.yaml
var configFiles embed.FS

var providerFiles = []string{"anthropic", "openai", "lorem"}

// Registry holds model capabilities across all providers.
type Registry struct {
	providers map[string]*ProviderCapabilities
	order     []string
	mu        sync.RWMutex
}

// NewRegistry loads the embedded YAML files into a registry.
func NewRegistry() (*Registry, error) {
	r := &Registry{
		providers: make(map[string]*ProviderCapabilities),
	}

	for _, provider := range providerFiles {
		if err := r.loadProviderFile(provider); err != nil {
			return nil, fmt.Errorf("failed to load %s capabilities: %w", provider, err)
		}
	}

	return r, nil
}

func (r *Registry) loadProviderFile(provider string) error {
	filename := fmt.Sprintf("config/%s.yaml", provider)
	data, err := configFiles.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filename, err)
	}

	var providerCaps ProviderCapabilities
	if err := yaml.Unmarshal(data, &providerCaps); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", filename, err)
	}

	r.mu.Lock()
	r.providers[provider] = &providerCaps
	r.order = append(r.order, provider)
	r.mu.Unlock()

	return nil
}

// GetModelCapabilities returns capabilities for one model.
func (r *Registry) GetModelCapabilities(provider, model string) (*ModelCapabilities, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	providerCaps, ok := r.providers[provider]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}

	for i := range providerCaps.Models {
		if providerCaps.Models[i].ID == model {
			return &providerCaps.Models[i], nil
		}
	}

	return nil, fmt.Errorf("unknown model %s for provider %s", model, provider)
}

// ListProviderModels returns all models for a provider in YAML order.
func (r *Registry) ListProviderModels(provider string) ([]ModelCapabilities, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	providerCaps, ok := r.providers[provider]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}

	return providerCaps.Models, nil
}

// All returns every provider's capabilities in load order, for the
// capabilities endpoint.
func (r *Registry) All() []ProviderCapabilities {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ProviderCapabilities, 0, len(r.order))
	for _, provider := range r.order {
		out = append(out, *r.providers[provider])
	}
	return out
}
