// Package llm defines the backend client contract the execution engine is
// built against. The engine is agnostic to which vendor implements it as
// long as both synchronous and streaming modes exist.
package llm

import "context"

// Message represents a conversation message
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request contains all parameters for a model call.
type Request struct {
	System      string         `json:"system,omitempty"`
	Messages    []Message      `json:"messages"`
	MaxTokens   int            `json:"max_tokens,omitempty"`
	Temperature float64        `json:"temperature,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// Response is the model's complete answer.
type Response struct {
	Text  string     `json:"text"`
	Usage TokenUsage `json:"usage"`
}

// TokenUsage tracks token consumption
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Add accumulates usage from another call into u.
func (u *TokenUsage) Add(other TokenUsage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
}

// StreamDelta represents a streamed content fragment. A delta carrying Err
// terminates the stream; Final marks normal completion and may carry Usage.
type StreamDelta struct {
	Delta string
	Final bool
	Usage TokenUsage
	Err   error
}

// SyncClient is the minimal backend surface: one model call, full response.
type SyncClient interface {
	// CreateSync sends a request to the given model and waits for the
	// complete response.
	CreateSync(ctx context.Context, model string, req Request) (*Response, error)
}

// Client is a backend supporting both synchronous and streaming calls.
//
// CreateStream returns a channel of deltas that is closed after a Final or
// Err delta. Implementations must honor ctx cancellation by terminating the
// stream with ctx.Err().
type Client interface {
	SyncClient
	CreateStream(ctx context.Context, model string, req Request) (<-chan StreamDelta, error)
}
