package chat

import (
	"strings"
	"testing"

	"arcai/internal/domain/models"
)

func TestDetectCodeLanguage(t *testing.T) {
	tests := []struct {
		name   string
		prompt string
		want   string
	}{
		{name: "explicit python", prompt: "binary search in python", want: "python"},
		{name: "golang alias", prompt: "a worker pool in golang", want: "go"},
		{name: "bare go keyword", prompt: "write go code for a tcp echo server", want: "go"},
		{name: "typescript", prompt: "a typescript debounce helper", want: "typescript"},
		{name: "punctuation stripped", prompt: "quicksort (rust)", want: "rust"},
		{name: "no language named", prompt: "a function that reverses a string", want: "javascript"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := detectCodeLanguage(tt.prompt); got != tt.want {
				t.Errorf("detectCodeLanguage(%q) = %q, want %q", tt.prompt, got, tt.want)
			}
		})
	}
}

func TestCodeLabel(t *testing.T) {
	tests := []struct {
		name   string
		prompt string
		want   string
	}{
		{name: "short prompt kept", prompt: "binary search", want: "binary search"},
		{name: "empty prompt gets default", prompt: "", want: "Code"},
		{name: "whitespace only gets default", prompt: "   ", want: "Code"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := codeLabel(tt.prompt); got != tt.want {
				t.Errorf("codeLabel(%q) = %q, want %q", tt.prompt, got, tt.want)
			}
		})
	}

	t.Run("long prompt truncated", func(t *testing.T) {
		long := strings.Repeat("word ", 20)
		got := codeLabel(long)
		if len([]rune(got)) > 45 {
			t.Errorf("codeLabel length = %d runes, want at most 45", len([]rune(got)))
		}
		if !strings.HasSuffix(got, "...") {
			t.Errorf("codeLabel(%q) = %q, want ... suffix", long, got)
		}
	})
}

func TestFormatSources(t *testing.T) {
	sources := []models.SearchResult{
		{Title: "Go release notes", URL: "https://go.dev/doc", Snippet: "What changed."},
		{Title: "Blog post", URL: "https://example.com/post"},
	}

	got := formatSources(sources)

	if !strings.Contains(got, "1. Go release notes") {
		t.Errorf("formatted sources missing first entry: %q", got)
	}
	if !strings.Contains(got, "2. Blog post") {
		t.Errorf("formatted sources missing second entry: %q", got)
	}
	if !strings.Contains(got, "What changed.") {
		t.Errorf("formatted sources missing snippet: %q", got)
	}
}

func TestTitleFromContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "plain question", content: "how do tides work?", want: "how do tides work?"},
		{name: "prefix stripped", content: "code/ binary search in go", want: "binary search in go"},
		{name: "search prefix stripped", content: "search/ latest go release", want: "latest go release"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := titleFromContent(tt.content); got != tt.want {
				t.Errorf("titleFromContent(%q) = %q, want %q", tt.content, got, tt.want)
			}
		})
	}

	t.Run("long content truncated", func(t *testing.T) {
		long := strings.Repeat("tide ", 30)
		got := titleFromContent(long)
		if len([]rune(got)) > titleMaxRunes+3 {
			t.Errorf("title length = %d runes, want at most %d", len([]rune(got)), titleMaxRunes+3)
		}
	})
}
