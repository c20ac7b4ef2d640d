package llm

import (
	"testing"
)

func TestParseModel(t *testing.T) {
	tests := []struct {
		name         string
		modelStr     string
		wantProvider string
		wantModel    string
		wantErr      bool
	}{
		{
			name:         "claude-haiku with version",
			modelStr:     "claude-haiku-4-5",
			wantProvider: "anthropic",
			wantModel:    "claude-haiku-4-5",
			wantErr:      false,
		},
		{
			name:         "claude-sonnet with full version",
			modelStr:     "claude-sonnet-4-5-20251001",
			wantProvider: "anthropic",
			wantModel:    "claude-sonnet-4-5-20251001",
			wantErr:      false,
		},
		{
			name:         "gpt model",
			modelStr:     "gpt-5-mini",
			wantProvider: "openai",
			wantModel:    "gpt-5-mini",
			wantErr:      false,
		},
		{
			name:         "explicit provider path",
			modelStr:     "openai/gpt-5-mini",
			wantProvider: "openai",
			wantModel:    "gpt-5-mini",
			wantErr:      false,
		},
		{
			name:         "lorem-fast model",
			modelStr:     "lorem-fast",
			wantProvider: "lorem",
			wantModel:    "lorem-fast",
			wantErr:      false,
		},
		{
			name:     "empty string",
			modelStr: "",
			wantErr:  true,
		},
		{
			name:     "unknown prefix",
			modelStr: "mistral-large",
			wantErr:  true,
		},
		{
			name:     "empty provider segment",
			modelStr: "/gpt-5-mini",
			wantErr:  true,
		},
		{
			name:     "empty model segment",
			modelStr: "openai/",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := ParseModel(tt.modelStr)

			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseModel(%q) expected error, got nil", tt.modelStr)
				}
				return
			}

			if err != nil {
				t.Fatalf("ParseModel(%q) unexpected error: %v", tt.modelStr, err)
			}

			if info.Provider != tt.wantProvider {
				t.Errorf("ParseModel(%q) provider = %q, want %q", tt.modelStr, info.Provider, tt.wantProvider)
			}

			if info.Model != tt.wantModel {
				t.Errorf("ParseModel(%q) model = %q, want %q", tt.modelStr, info.Model, tt.wantModel)
			}
		})
	}
}
