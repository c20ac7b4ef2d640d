package lorem

import (
	"context"
	"fmt"
	"strings"
	"time"

	loremgen "github.com/bozaro/golorem"

	"arcai/internal/service/llm"
)

// Provider is a mock LLM provider that generates lorem ipsum text.
// Used for testing and development without requiring real API keys.
type Provider struct {
	generator *loremgen.Lorem
}

// NewProvider creates a new lorem ipsum provider.
func NewProvider() *Provider {
	return &Provider{
		generator: loremgen.New(),
	}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "lorem"
}

// SupportsModel returns true if the model name starts with "lorem-".
// Example models: "lorem-fast", "lorem-slow", "lorem-medium"
func (p *Provider) SupportsModel(model string) bool {
	return strings.HasPrefix(model, "lorem-")
}

// Generate produces a complete lorem ipsum response after a short delay,
// simulating a blocking API call.
func (p *Provider) Generate(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	if !p.SupportsModel(req.Model) {
		return nil, fmt.Errorf("model '%s' is not supported by lorem provider", req.Model)
	}

	select {
	case <-time.After(2 * time.Second):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	targetWords := req.GetMaxTokens(200)
	if targetWords > 200 {
		targetWords = 200
	}
	text := p.generateTextWords(targetWords)

	return &llm.Response{
		Content:      text,
		Model:        req.Model,
		InputTokens:  p.estimateTokens(req.Messages),
		OutputTokens: len(strings.Fields(text)),
		StopReason:   "end_turn",
	}, nil
}

// Stream produces a streaming lorem ipsum response.
// Speed varies based on model name (lorem-slow, lorem-fast, lorem-medium).
func (p *Provider) Stream(ctx context.Context, req *llm.Request) (<-chan llm.StreamEvent, error) {
	if !p.SupportsModel(req.Model) {
		return nil, fmt.Errorf("model '%s' is not supported by lorem provider", req.Model)
	}

	targetWords := req.GetMaxTokens(200)
	if targetWords > 200 {
		targetWords = 200
	}

	eventChan := make(chan llm.StreamEvent, 10)

	go func() {
		defer close(eventChan)

		text := p.generateTextWords(targetWords)
		words := strings.Fields(text)
		delay := getStreamDelay(req.Model)

		for _, word := range words {
			select {
			case <-ctx.Done():
				eventChan <- llm.StreamEvent{Error: ctx.Err()}
				return
			default:
			}

			delta := word + " "
			eventChan <- llm.StreamEvent{Delta: &delta}

			time.Sleep(delay)
		}

		eventChan <- llm.StreamEvent{
			Metadata: &llm.StreamMetadata{
				Model:        req.Model,
				InputTokens:  p.estimateTokens(req.Messages),
				OutputTokens: len(words),
				StopReason:   "end_turn",
			},
		}
	}()

	return eventChan, nil
}

// getStreamDelay returns the delay between words based on the model name.
// - lorem-slow: 2 words/second
// - lorem-fast: 30 words/second
// - default: 10 words/second
func getStreamDelay(model string) time.Duration {
	if strings.Contains(model, "slow") {
		return 500 * time.Millisecond
	}
	if strings.Contains(model, "fast") {
		return 33 * time.Millisecond
	}
	return 100 * time.Millisecond
}

// generateTextWords generates lorem ipsum text with approximately targetWords words.
func (p *Provider) generateTextWords(targetWords int) string {
	var sb strings.Builder
	wordCount := 0

	for wordCount < targetWords {
		sentence := p.generator.Sentence(5, 15)
		sb.WriteString(sentence)
		sb.WriteString(" ")

		wordCount += len(strings.Fields(sentence))

		// Paragraph break every ~50 words
		if wordCount%50 == 0 {
			sb.WriteString("\n\n")
		}
	}

	return strings.TrimSpace(sb.String())
}

// estimateTokens estimates the token count for a list of messages.
// Uses word count as a rough approximation.
func (p *Provider) estimateTokens(messages []llm.ChatMessage) int {
	totalWords := 0
	for _, msg := range messages {
		totalWords += len(strings.Fields(msg.Content))
	}
	return totalWords
}
