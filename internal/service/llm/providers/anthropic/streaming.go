package anthropic

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"

	"arcai/internal/service/llm"
)

// Stream produces a streaming response from Claude.
// Returns a channel that emits StreamEvent as deltas arrive from the API.
func (p *Provider) Stream(ctx context.Context, req *llm.Request) (<-chan llm.StreamEvent, error) {
	if !p.SupportsModel(req.Model) {
		return nil, fmt.Errorf("model '%s' is not supported by Anthropic provider", req.Model)
	}

	apiParams, err := buildParams(req)
	if err != nil {
		return nil, err
	}

	// Buffered to prevent blocking the SDK iterator
	eventChan := make(chan llm.StreamEvent, 10)

	go func() {
		defer close(eventChan)

		stream := p.client.Messages.NewStreaming(ctx, apiParams)

		// Accumulator for final message metadata
		message := anthropic.Message{}

		for stream.Next() {
			event := stream.Current()

			if err := message.Accumulate(event); err != nil {
				eventChan <- llm.StreamEvent{
					Error: fmt.Errorf("failed to accumulate message: %w", err),
				}
				return
			}

			var streamEvent llm.StreamEvent
			switch e := event.AsAny().(type) {
			case anthropic.ContentBlockDeltaEvent:
				if e.Delta.Type == "text_delta" {
					text := e.Delta.Text
					streamEvent = llm.StreamEvent{Delta: &text}
				}
			default:
				// Message lifecycle events carry no delta text
			}

			if streamEvent.Delta == nil {
				continue
			}

			select {
			case <-ctx.Done():
				eventChan <- llm.StreamEvent{Error: ctx.Err()}
				return
			case eventChan <- streamEvent:
			}
		}

		if err := stream.Err(); err != nil {
			eventChan <- llm.StreamEvent{
				Error: fmt.Errorf("anthropic streaming error: %w", err),
			}
			return
		}

		eventChan <- llm.StreamEvent{
			Metadata: &llm.StreamMetadata{
				Model:        string(message.Model),
				InputTokens:  int(message.Usage.InputTokens),
				OutputTokens: int(message.Usage.OutputTokens),
				StopReason:   string(message.StopReason),
			},
		}
	}()

	return eventChan, nil
}
