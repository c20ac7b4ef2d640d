package capabilities

import "gopkg.in/yaml.v3"

// ModelKind classifies what a model is used for.
type ModelKind string

const (
	KindChat  ModelKind = "chat"
	KindImage ModelKind = "image"
	KindVoice ModelKind = "voice"
)

// ModelCapabilities is the metadata for one model: what surfaces it can
// serve and its limits. Served to clients so the model picker and mode
// buttons can enable themselves without hardcoding model names.
type ModelCapabilities struct {
	// Model identifier (set during YAML unmarshaling)
	ID string `yaml:"-" json:"id"`

	DisplayName string    `yaml:"display_name" json:"display_name"`
	Description string    `yaml:"description" json:"description"`
	Kind        ModelKind `yaml:"kind" json:"kind"`

	SupportsStreaming bool `yaml:"supports_streaming" json:"supports_streaming"`
	SupportsVision    bool `yaml:"supports_vision" json:"supports_vision"`

	// MaxImageInputs is how many base images an edit/analysis call may
	// reference; zero for models that take no image input.
	MaxImageInputs int `yaml:"max_image_inputs" json:"max_image_inputs"`

	ContextWindow int `yaml:"context_window" json:"context_window"`
	MaxOutput     int `yaml:"max_output" json:"max_output"`
}

// ProviderCapabilities is every model one provider serves, in the order the
// YAML file lists them.
type ProviderCapabilities struct {
	Provider string              `yaml:"provider" json:"provider"`
	Models   []ModelCapabilities `yaml:"-" json:"models"`
}

// UnmarshalYAML preserves the model order from the YAML file, which a plain
// map decode would lose.
func (p *ProviderCapabilities) UnmarshalYAML(node *yaml.Node) error {
	for i := 0; i < len(node.Content); i += 2 {
		if node.Content[i].Value == "provider" {
			p.Provider = node.Content[i+1].Value
			break
		}
	}

	type modelsOnly struct {
		Models map[string]ModelCapabilities `yaml:"models"`
	}
	var m modelsOnly
	if err := node.Decode(&m); err != nil {
		return err
	}

	for i := 0; i < len(node.Content); i += 2 {
		if node.Content[i].Value != "models" {
			continue
		}
		modelsNode := node.Content[i+1]
		// Content alternates key, value, key, value.
		for j := 0; j < len(modelsNode.Content); j += 2 {
			modelID := modelsNode.Content[j].Value
			if model, ok := m.Models[modelID]; ok {
				model.ID = modelID
				p.Models = append(p.Models, model)
			}
		}
		break
	}

	return nil
}
