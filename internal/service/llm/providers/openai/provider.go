package openai

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"arcai/internal/service/llm"
)

// Provider implements the llm.Provider interface for OpenAI models.
type Provider struct {
	client *openai.Client
}

// NewProvider creates a new OpenAI provider with the given API key.
func NewProvider(apiKey string) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}

	client := openai.NewClient(option.WithAPIKey(apiKey))

	return &Provider{
		client: &client,
	}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "openai"
}

// SupportsModel returns true if this provider supports the given model.
func (p *Provider) SupportsModel(model string) bool {
	return strings.HasPrefix(model, "gpt-") ||
		strings.HasPrefix(model, "o1-") ||
		strings.HasPrefix(model, "o3-")
}

// Generate produces a complete chat completion.
func (p *Provider) Generate(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	params, err := p.buildParams(req)
	if err != nil {
		return nil, err
	}

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai request failed: %w", err)
	}

	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("no response choices returned")
	}

	choice := completion.Choices[0]
	return &llm.Response{
		Content:      choice.Message.Content,
		Model:        completion.Model,
		InputTokens:  int(completion.Usage.PromptTokens),
		OutputTokens: int(completion.Usage.CompletionTokens),
		StopReason:   string(choice.FinishReason),
	}, nil
}

// Stream produces a streaming chat completion.
func (p *Provider) Stream(ctx context.Context, req *llm.Request) (<-chan llm.StreamEvent, error) {
	params, err := p.buildParams(req)
	if err != nil {
		return nil, err
	}

	eventChan := make(chan llm.StreamEvent, 10)

	go func() {
		defer close(eventChan)

		stream := p.client.Chat.Completions.NewStreaming(ctx, params)
		acc := openai.ChatCompletionAccumulator{}

		for stream.Next() {
			chunk := stream.Current()
			acc.AddChunk(chunk)

			if len(chunk.Choices) == 0 {
				continue
			}

			delta := chunk.Choices[0].Delta.Content
			if delta == "" {
				continue
			}

			text := delta
			select {
			case <-ctx.Done():
				eventChan <- llm.StreamEvent{Error: ctx.Err()}
				return
			case eventChan <- llm.StreamEvent{Delta: &text}:
			}
		}

		if err := stream.Err(); err != nil {
			eventChan <- llm.StreamEvent{
				Error: fmt.Errorf("openai streaming error: %w", err),
			}
			return
		}

		metadata := &llm.StreamMetadata{
			Model:        acc.Model,
			InputTokens:  int(acc.Usage.PromptTokens),
			OutputTokens: int(acc.Usage.CompletionTokens),
		}
		if len(acc.Choices) > 0 {
			metadata.StopReason = string(acc.Choices[0].FinishReason)
		}

		eventChan <- llm.StreamEvent{Metadata: metadata}
	}()

	return eventChan, nil
}

// buildParams converts a provider-agnostic request to OpenAI parameters.
// Image attachments are not supported on this path; analysis requests are
// routed to a vision-capable Claude model instead.
func (p *Provider) buildParams(req *llm.Request) (openai.ChatCompletionNewParams, error) {
	if !p.SupportsModel(req.Model) {
		return openai.ChatCompletionNewParams{}, fmt.Errorf("model '%s' is not supported by OpenAI provider", req.Model)
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)

	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}

	for _, msg := range req.Messages {
		if len(msg.Images) > 0 {
			return openai.ChatCompletionNewParams{}, fmt.Errorf("image attachments are not supported by OpenAI provider")
		}

		switch msg.Role {
		case "user":
			messages = append(messages, openai.UserMessage(msg.Content))
		case "assistant":
			messages = append(messages, openai.AssistantMessage(msg.Content))
		default:
			return openai.ChatCompletionNewParams{}, fmt.Errorf("unsupported message role: %s", msg.Role)
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(req.Model),
		Messages: messages,
	}

	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}

	return params, nil
}
