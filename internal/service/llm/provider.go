package llm

import "context"

// ChatMessage is one conversation turn sent to a provider.
type ChatMessage struct {
	Role    string // "user" or "assistant"
	Content string
	Images  []ImageAttachment
}

// ImageAttachment is an inline image passed alongside a message, used for
// image analysis. Not every provider supports attachments; callers route
// attachment requests to a vision-capable model.
type ImageAttachment struct {
	MediaType  string // "image/png", "image/jpeg", ...
	Base64Data string
}

// Request is a provider-agnostic generation request.
type Request struct {
	Model       string
	System      string
	Messages    []ChatMessage
	MaxTokens   int
	Temperature *float64
}

// GetMaxTokens returns the configured token cap or the given default.
func (r *Request) GetMaxTokens(def int) int {
	if r.MaxTokens > 0 {
		return r.MaxTokens
	}
	return def
}

// Response is a complete (non-streaming) generation result.
type Response struct {
	Content      string
	Model        string
	InputTokens  int
	OutputTokens int
	StopReason   string
}

// StreamMetadata is the final event of a stream, carrying usage totals.
type StreamMetadata struct {
	Model        string
	InputTokens  int
	OutputTokens int
	StopReason   string
}

// StreamEvent is one item on a provider stream channel. Exactly one field
// is set: Delta for incremental text, Metadata for the terminal event,
// Error if the stream failed.
type StreamEvent struct {
	Delta    *string
	Metadata *StreamMetadata
	Error    error
}

// Provider is a text-generation backend.
type Provider interface {
	// Name returns the provider name
	Name() string

	// SupportsModel returns true if this provider serves the given model
	SupportsModel(model string) bool

	// Generate produces a complete response
	Generate(ctx context.Context, req *Request) (*Response, error)

	// Stream produces a channel of incremental events; the channel closes
	// after the metadata or error event
	Stream(ctx context.Context, req *Request) (<-chan StreamEvent, error)
}
