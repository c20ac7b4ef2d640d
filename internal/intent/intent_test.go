package intent

import (
	"testing"
)

func TestHasImagePrefix(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{name: "image slash prefix", input: "image/ a red fox", want: true},
		{name: "draw prefix", input: "draw/ a castle", want: true},
		{name: "create prefix", input: "create/ logo sketch", want: true},
		{name: "slash image prefix", input: "/image sunset over hills", want: true},
		{name: "slash draw prefix", input: "/draw something", want: true},
		{name: "slash create prefix", input: "/create anything", want: true},
		{name: "uppercase prefix", input: "IMAGE/ a red fox", want: true},
		{name: "mixed case prefix", input: "Draw/ a castle", want: true},
		{name: "leading whitespace", input: "   image/ fox", want: true},
		{name: "prefix mid-string", input: "please image/ this", want: false},
		{name: "plain text", input: "tell me about foxes", want: false},
		{name: "empty", input: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasImagePrefix(tt.input); got != tt.want {
				t.Errorf("HasImagePrefix(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestClassifyPrefixOrder(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantMode   string
		wantPrompt string
		wantForced bool
	}{
		{name: "image", input: "image/ a red fox", wantMode: ModeImage, wantPrompt: "a red fox", wantForced: true},
		{name: "code", input: "code/ binary search in go", wantMode: ModeCode, wantPrompt: "binary search in go", wantForced: true},
		{name: "canvas write", input: "write/ an essay on tides", wantMode: ModeCanvas, wantPrompt: "an essay on tides", wantForced: true},
		{name: "canvas slash", input: "/canvas cover letter", wantMode: ModeCanvas, wantPrompt: "cover letter", wantForced: true},
		{name: "search", input: "search/ latest go release", wantMode: ModeSearch, wantPrompt: "latest go release", wantForced: true},
		{name: "plain text", input: "how are tides caused?", wantMode: ModeText, wantPrompt: "how are tides caused?", wantForced: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.input, Surface{})
			if got.Mode != tt.wantMode {
				t.Errorf("Classify(%q) mode = %v, want %v", tt.input, got.Mode, tt.wantMode)
			}
			if got.Prompt != tt.wantPrompt {
				t.Errorf("Classify(%q) prompt = %q, want %q", tt.input, got.Prompt, tt.wantPrompt)
			}
			if got.Forced != tt.wantForced {
				t.Errorf("Classify(%q) forced = %v, want %v", tt.input, got.Forced, tt.wantForced)
			}
		})
	}
}

func TestExtractPrefixPrompt(t *testing.T) {
	tests := []struct {
		name  string
		input string
		mode  string
		want  string
	}{
		{name: "strips image prefix", input: "image/ a red fox", mode: ModeImage, want: "a red fox"},
		{name: "strips slash form", input: "/image a red fox", mode: ModeImage, want: "a red fox"},
		{name: "strips exactly one token", input: "image/ image/ twice", mode: ModeImage, want: "image/ twice"},
		{name: "bare image prefix falls back to default", input: "image/", mode: ModeImage, want: DefaultImagePrompt},
		{name: "bare code prefix keeps literal text", input: "code/", mode: ModeCode, want: "code/"},
		{name: "no prefix returns trimmed input", input: "  just text  ", mode: ModeImage, want: "just text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractPrefixPrompt(tt.input, tt.mode); got != tt.want {
				t.Errorf("ExtractPrefixPrompt(%q, %q) = %q, want %q", tt.input, tt.mode, got, tt.want)
			}
		})
	}
}

func TestIsConversationalMessage(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{name: "multi-punctuation reaction", input: "cool!!", want: true},
		{name: "greeting", input: "hey", want: true},
		{name: "yes answer", input: "yes", want: true},
		{name: "thanks with punctuation", input: "thanks!", want: true},
		{name: "short exclamation", input: "that is wild!", want: true},
		{name: "two words", input: "sounds good", want: true},
		{name: "action word despite being short", input: "add a dark mode toggle to the button", want: false},
		{name: "rewrite instruction", input: "rewrite the intro paragraph", want: false},
		{name: "long instruction without keyword", input: "please walk me through how the tides work in detail", want: false},
		{name: "keyword inside another word does not count", input: "what is your address", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsConversationalMessage(tt.input); got != tt.want {
				t.Errorf("IsConversationalMessage(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestClassifyCanvasEdit(t *testing.T) {
	openSurface := Surface{CanvasOpen: true, CanvasMode: "writing"}

	tests := []struct {
		name     string
		input    string
		surface  Surface
		wantMode string
	}{
		{name: "edit keyword with open canvas", input: "change the heading to sentence case", surface: openSurface, wantMode: ModeCanvasEdit},
		{name: "conversational remark with open canvas", input: "cool!!", surface: openSurface, wantMode: ModeText},
		{name: "edit keyword without open canvas", input: "change the heading", surface: Surface{}, wantMode: ModeText},
		{name: "explicit prefix wins over edit heuristic", input: "search/ change management", surface: openSurface, wantMode: ModeSearch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.input, tt.surface)
			if got.Mode != tt.wantMode {
				t.Errorf("Classify(%q) mode = %v, want %v", tt.input, got.Mode, tt.wantMode)
			}
		})
	}
}

func TestToggleInput(t *testing.T) {
	tests := []struct {
		name  string
		mode  string
		input string
		want  string
	}{
		{name: "bare prefix clears", mode: ModeCode, input: "code/", want: ""},
		{name: "bare prefix with whitespace clears", mode: ModeCode, input: "  code/  ", want: ""},
		{name: "typed content preserved", mode: ModeCode, input: "code/ quicksort", want: "code/ quicksort"},
		{name: "bare image prefix clears", mode: ModeImage, input: "image/", want: ""},
		{name: "unrelated input untouched", mode: ModeImage, input: "hello there", want: "hello there"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToggleInput(tt.mode, tt.input); got != tt.want {
				t.Errorf("ToggleInput(%q, %q) = %q, want %q", tt.mode, tt.input, got, tt.want)
			}
		})
	}
}
