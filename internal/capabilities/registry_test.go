package capabilities

import "testing"

func TestNewRegistryLoadsEmbeddedConfig(t *testing.T) {
	r, err := NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry() error: %v", err)
	}

	all := r.All()
	if len(all) != 3 {
		t.Fatalf("providers = %d, want 3", len(all))
	}
	if all[0].Provider != "anthropic" || all[1].Provider != "openai" || all[2].Provider != "lorem" {
		t.Errorf("provider order = %v", []string{all[0].Provider, all[1].Provider, all[2].Provider})
	}
}

func TestGetModelCapabilities(t *testing.T) {
	r, err := NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry() error: %v", err)
	}

	caps, err := r.GetModelCapabilities("openai", "gpt-image-1")
	if err != nil {
		t.Fatalf("GetModelCapabilities() error: %v", err)
	}
	if caps.Kind != KindImage {
		t.Errorf("kind = %q, want %q", caps.Kind, KindImage)
	}
	if caps.MaxImageInputs != 14 {
		t.Errorf("max image inputs = %d, want 14", caps.MaxImageInputs)
	}

	if _, err := r.GetModelCapabilities("openai", "nope"); err == nil {
		t.Errorf("expected error for unknown model")
	}
	if _, err := r.GetModelCapabilities("nope", "gpt-image-1"); err == nil {
		t.Errorf("expected error for unknown provider")
	}
}

func TestModelOrderPreserved(t *testing.T) {
	r, err := NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry() error: %v", err)
	}

	models, err := r.ListProviderModels("anthropic")
	if err != nil {
		t.Fatalf("ListProviderModels() error: %v", err)
	}
	if len(models) == 0 {
		t.Fatal("no anthropic models loaded")
	}
	if models[0].ID != "claude-sonnet-4-20250514" {
		t.Errorf("first model = %q, want the YAML-order first entry", models[0].ID)
	}
}
