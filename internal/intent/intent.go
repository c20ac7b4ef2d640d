// Package intent classifies free-text chat input into a response mode and
// normalizes the prompt sent to the model. All functions are pure so the
// routing rules can be tested without any transport or store in the loop.
package intent

import (
	"regexp"
	"strings"
)

// Response modes. CanvasEdit is only ever produced by the secondary
// heuristic when a surface is already open; it never comes from a prefix.
const (
	ModeText       = "text"
	ModeImage      = "image"
	ModeCode       = "code"
	ModeCanvas     = "canvas"
	ModeSearch     = "search"
	ModeCanvasEdit = "canvas_edit"
)

// DefaultImagePrompt is substituted when an image prefix is submitted with
// nothing after it.
const DefaultImagePrompt = "a beautiful image"

// Prefix tokens per mode, in match order. Both "image/" and "/image"
// spellings are accepted; matching is case-insensitive and anchored to the
// start of the trimmed input.
var (
	imagePrefixes  = []string{"image/", "draw/", "create/", "/image", "/draw", "/create"}
	codePrefixes   = []string{"code/", "/code"}
	canvasPrefixes = []string{"write/", "canvas/", "/write", "/canvas"}
	searchPrefixes = []string{"search/", "/search"}
)

// Action keywords for the canvas-edit heuristic. A message containing any
// of these while a surface is open is treated as an edit of that surface.
var editKeywords = []string{
	"rewrite", "format", "add", "change", "fix", "update", "remove",
	"delete", "replace", "improve", "shorten", "expand", "translate",
	"refactor", "rename", "make it", "make the",
}

// Greetings and reactions that should never be treated as an edit of the
// open surface, no matter what the canvas state is.
var conversationalPhrases = map[string]bool{
	"hi": true, "hey": true, "hello": true, "yo": true, "sup": true,
	"thanks": true, "thank you": true, "thx": true, "ty": true,
	"ok": true, "okay": true, "k": true, "kk": true,
	"yes": true, "no": true, "yep": true, "yeah": true, "nope": true, "nah": true,
	"sure": true, "cool": true, "nice": true, "great": true, "awesome": true,
	"wow": true, "lol": true, "haha": true, "lmao": true, "hmm": true,
	"good": true, "perfect": true, "love it": true, "looks good": true,
}

var multiPunctuation = regexp.MustCompile(`[!?]{2,}$`)

// Classification is the Router's output: the resolved mode, the normalized
// prompt, and whether the mode must be forced on the backend (an explicit
// prefix always forces; heuristics never do).
type Classification struct {
	Mode   string
	Prompt string
	Forced bool
}

// Surface describes the state of the auxiliary canvas at classification
// time. The canvas-edit heuristic only applies when a surface is open.
type Surface struct {
	CanvasOpen bool
	CanvasMode string // "code" or "writing" when open
}

// Classify resolves the response mode for one submission. Explicit prefixes
// win in registration order (image, code, canvas, search); the canvas-edit
// heuristic runs only when no prefix matched and a surface is open.
//
// Classify is called again at send time so keystroke-time display state and
// submit-time behavior cannot drift apart.
func Classify(input string, surface Surface) Classification {
	switch {
	case HasImagePrefix(input):
		return Classification{Mode: ModeImage, Prompt: ExtractPrefixPrompt(input, ModeImage), Forced: true}
	case HasCodePrefix(input):
		return Classification{Mode: ModeCode, Prompt: ExtractPrefixPrompt(input, ModeCode), Forced: true}
	case HasCanvasPrefix(input):
		return Classification{Mode: ModeCanvas, Prompt: ExtractPrefixPrompt(input, ModeCanvas), Forced: true}
	case HasSearchPrefix(input):
		return Classification{Mode: ModeSearch, Prompt: ExtractPrefixPrompt(input, ModeSearch), Forced: true}
	}

	if surface.CanvasOpen && IsCanvasEditRequest(input) {
		return Classification{Mode: ModeCanvasEdit, Prompt: strings.TrimSpace(input)}
	}

	return Classification{Mode: ModeText, Prompt: strings.TrimSpace(input)}
}

// HasImagePrefix reports whether the input starts with an image-request
// prefix (image/, draw/, create/, or their /-prefixed forms).
func HasImagePrefix(input string) bool {
	return matchPrefix(input, imagePrefixes) != ""
}

// HasCodePrefix reports whether the input starts with a code-request prefix.
func HasCodePrefix(input string) bool {
	return matchPrefix(input, codePrefixes) != ""
}

// HasCanvasPrefix reports whether the input starts with a writing-canvas
// prefix (write/, /write, /canvas).
func HasCanvasPrefix(input string) bool {
	return matchPrefix(input, canvasPrefixes) != ""
}

// HasSearchPrefix reports whether the input starts with a search prefix.
func HasSearchPrefix(input string) bool {
	return matchPrefix(input, searchPrefixes) != ""
}

// ExtractPrefixPrompt strips the recognized prefix token from the front of
// the message and returns the remainder as the effective prompt. If
// stripping leaves nothing, the mode default is substituted: a stock prompt
// for image mode, the literal input for everything else.
func ExtractPrefixPrompt(input, mode string) string {
	trimmed := strings.TrimSpace(input)
	prefix := matchPrefix(trimmed, prefixesFor(mode))
	if prefix == "" {
		return trimmed
	}

	rest := strings.TrimSpace(trimmed[len(prefix):])
	if rest != "" {
		return rest
	}

	if mode == ModeImage {
		return DefaultImagePrompt
	}
	return trimmed
}

// IsCanvasEditRequest reports whether a message without an explicit prefix
// should be treated as an edit of the open surface: it must contain an
// action keyword and must not read as casual conversation.
func IsCanvasEditRequest(input string) bool {
	return containsEditKeyword(input) && !IsConversationalMessage(input)
}

// IsConversationalMessage reports whether the input is a casual remark
// (greeting, short exclamation, yes/no answer, multi-punctuation reaction)
// rather than an instruction. An action keyword defeats the check
// regardless of length, so "add a dark mode toggle" is never conversational.
func IsConversationalMessage(input string) bool {
	s := strings.ToLower(strings.TrimSpace(input))
	if s == "" {
		return true
	}

	if containsEditKeyword(s) {
		return false
	}

	stripped := strings.TrimRight(s, "!?.,~ ")
	if conversationalPhrases[stripped] {
		return true
	}

	if multiPunctuation.MatchString(s) {
		return true
	}

	words := strings.Fields(s)
	if len(words) <= 2 {
		return true
	}
	if len(words) <= 4 && strings.ContainsAny(s, "!?") {
		return true
	}

	return false
}

// ToggleInput implements the mode-button toggle policy: deactivating a mode
// clears the input only when it is nothing but the bare prefix token;
// typed content after the prefix is kept.
func ToggleInput(mode, input string) string {
	trimmed := strings.TrimSpace(input)
	prefix := matchPrefix(trimmed, prefixesFor(mode))
	if prefix == "" {
		return input
	}

	rest := strings.TrimSpace(trimmed[len(prefix):])
	if rest == "" {
		return ""
	}
	return input
}

// PrefixToken returns the canonical prefix token for a mode, used when a
// mode button is toggled on and the token must be inserted into the input.
func PrefixToken(mode string) string {
	prefixes := prefixesFor(mode)
	if len(prefixes) == 0 {
		return ""
	}
	return prefixes[0]
}

func prefixesFor(mode string) []string {
	switch mode {
	case ModeImage:
		return imagePrefixes
	case ModeCode:
		return codePrefixes
	case ModeCanvas:
		return canvasPrefixes
	case ModeSearch:
		return searchPrefixes
	default:
		return nil
	}
}

// matchPrefix returns the prefix token that matches the start of the
// trimmed input, or "" if none does. First registered token wins.
func matchPrefix(input string, prefixes []string) string {
	trimmed := strings.ToLower(strings.TrimSpace(input))
	for _, p := range prefixes {
		if strings.HasPrefix(trimmed, p) {
			return p
		}
	}
	return ""
}

func containsEditKeyword(input string) bool {
	s := strings.ToLower(input)
	for _, kw := range editKeywords {
		if containsWord(s, kw) {
			return true
		}
	}
	return false
}

// containsWord matches kw on word boundaries so "add" does not fire on
// "address" or "madden".
func containsWord(s, kw string) bool {
	idx := 0
	for {
		i := strings.Index(s[idx:], kw)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(kw)
		beforeOK := start == 0 || !isWordChar(s[start-1])
		afterOK := end == len(s) || !isWordChar(s[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '_'
}
