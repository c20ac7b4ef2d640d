package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"arcai/internal/domain/models"
	"arcai/internal/intent"
)

const (
	basePrompt = "You are Arc, a helpful, concise AI assistant."

	codePrompt = "You are Arc, an expert programmer. Respond with a single complete code solution for the request. Output only code, no surrounding prose or markdown fences."

	canvasPrompt = "You are Arc, a skilled writer. Produce the requested document as clean markdown. Output only the document, no commentary."

	canvasEditPrompt = "You are Arc, a skilled writer. The user is editing the document below. Apply the requested change and return the complete updated document, nothing else."

	searchPrompt = "You are Arc, a research assistant. Answer the question using the web results below. Cite sources inline as [1], [2] matching the numbered list."
)

// buildSystemPrompt composes the system prompt for a mode: the mode base,
// the open canvas content for edits, numbered web sources for search, and
// the user's saved profile instructions.
func (s *Service) buildSystemPrompt(ctx context.Context, userID string, session *models.Session, mode string, sources []models.SearchResult) (string, error) {
	var sb strings.Builder

	switch mode {
	case intent.ModeCode:
		sb.WriteString(codePrompt)
	case intent.ModeCanvas:
		sb.WriteString(canvasPrompt)
	case intent.ModeCanvasEdit:
		sb.WriteString(canvasEditPrompt)
		if session.CanvasContent != nil && *session.CanvasContent != "" {
			sb.WriteString("\n\nCurrent document:\n")
			sb.WriteString(*session.CanvasContent)
		}
	case intent.ModeSearch:
		sb.WriteString(searchPrompt)
		sb.WriteString("\n\n")
		sb.WriteString(formatSources(sources))
	default:
		sb.WriteString(basePrompt)
	}

	instructions, err := s.profileInstructions(ctx, userID)
	if err != nil {
		return "", err
	}
	if instructions != "" {
		sb.WriteString("\n\nUser instructions:\n")
		sb.WriteString(instructions)
	}

	return sb.String(), nil
}

// profileInstructions returns the user's saved custom instructions, empty
// when none are set.
func (s *Service) profileInstructions(ctx context.Context, userID string) (string, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return "", nil
	}

	prefs, err := s.prefs.GetByUserID(ctx, uid)
	if err != nil {
		return "", err
	}
	if prefs == nil {
		return "", nil
	}

	profile, err := prefs.GetProfile()
	if err != nil || profile.Instructions == nil {
		return "", nil
	}

	return *profile.Instructions, nil
}

// formatSources renders search results as a numbered reference list.
func formatSources(sources []models.SearchResult) string {
	var sb strings.Builder
	for i, src := range sources {
		fmt.Fprintf(&sb, "%d. %s — %s\n", i+1, src.Title, src.URL)
		if src.Snippet != "" {
			sb.WriteString(src.Snippet)
			sb.WriteString("\n")
		}
	}
	return strings.TrimSpace(sb.String())
}

// languageKeywords maps prompt words to canonical language identifiers.
var languageKeywords = map[string]string{
	"python":     "python",
	"py":         "python",
	"go":         "go",
	"golang":     "go",
	"javascript": "javascript",
	"js":         "javascript",
	"node":       "javascript",
	"typescript": "typescript",
	"ts":         "typescript",
	"rust":       "rust",
	"java":       "java",
	"kotlin":     "kotlin",
	"swift":      "swift",
	"ruby":       "ruby",
	"c":          "c",
	"cpp":        "cpp",
	"c++":        "cpp",
	"csharp":     "csharp",
	"c#":         "csharp",
	"php":        "php",
	"sql":        "sql",
	"html":       "html",
	"css":        "css",
	"bash":       "bash",
	"shell":      "bash",
}

// detectCodeLanguage picks the target language from the prompt text,
// defaulting to javascript when nothing is named.
func detectCodeLanguage(prompt string) string {
	for _, word := range strings.Fields(strings.ToLower(prompt)) {
		word = strings.Trim(word, ".,!?;:()\"'")
		if lang, ok := languageKeywords[word]; ok {
			return lang
		}
	}
	return "javascript"
}

// codeLabel derives a short display label for a code block from the prompt.
func codeLabel(prompt string) string {
	label := strings.TrimSpace(prompt)
	if label == "" {
		return "Code"
	}

	runes := []rune(label)
	if len(runes) > 40 {
		label = strings.TrimSpace(string(runes[:40])) + "..."
	}
	return label
}
