package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// MockBehavior scripts how the mock backend answers calls for one model.
type MockBehavior struct {
	Chunks    []string      // streamed fragments, in order
	Text      string        // sync response text (defaults to joined Chunks)
	Err       error         // fail the call outright
	FailAfter int           // emit this many chunks, then fail with Err (stream only)
	Latency   time.Duration // delay before the first fragment / sync return
	Usage     TokenUsage
}

func (b MockBehavior) text() string {
	if b.Text != "" {
		return b.Text
	}
	return strings.Join(b.Chunks, "")
}

// MockClient implements Client for testing. Behaviors are scripted per
// model id; unknown models answer with a canned response.
type MockClient struct {
	mu          sync.Mutex
	behaviors   map[string]MockBehavior
	syncCalls   map[string]int
	streamCalls map[string]int
}

var _ Client = (*MockClient)(nil)

// NewMockClient creates an empty mock backend.
func NewMockClient() *MockClient {
	return &MockClient{
		behaviors:   make(map[string]MockBehavior),
		syncCalls:   make(map[string]int),
		streamCalls: make(map[string]int),
	}
}

// Script sets the behavior for a model id.
func (m *MockClient) Script(model string, behavior MockBehavior) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.behaviors[model] = behavior
}

// SyncCalls returns how many CreateSync calls the model received.
func (m *MockClient) SyncCalls(model string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.syncCalls[model]
}

// StreamCalls returns how many CreateStream calls the model received.
func (m *MockClient) StreamCalls(model string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.streamCalls[model]
}

func (m *MockClient) behavior(model string) MockBehavior {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.behaviors[model]; ok {
		return b
	}
	return MockBehavior{
		Chunks: []string{"mock response from ", model},
		Usage:  TokenUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}
}

// CreateSync returns the scripted full response.
func (m *MockClient) CreateSync(ctx context.Context, model string, req Request) (*Response, error) {
	m.mu.Lock()
	m.syncCalls[model]++
	m.mu.Unlock()

	b := m.behavior(model)
	if b.Latency > 0 {
		select {
		case <-time.After(b.Latency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if b.Err != nil {
		return nil, fmt.Errorf("mock %s: %w", model, b.Err)
	}
	return &Response{Text: b.text(), Usage: b.Usage}, nil
}

// CreateStream streams the scripted fragments.
func (m *MockClient) CreateStream(ctx context.Context, model string, req Request) (<-chan StreamDelta, error) {
	m.mu.Lock()
	m.streamCalls[model]++
	m.mu.Unlock()

	b := m.behavior(model)
	ch := make(chan StreamDelta, len(b.Chunks)+2)

	go func() {
		defer close(ch)

		if b.Latency > 0 {
			select {
			case <-time.After(b.Latency):
			case <-ctx.Done():
				ch <- StreamDelta{Err: ctx.Err()}
				return
			}
		}
		if b.Err != nil && b.FailAfter == 0 {
			ch <- StreamDelta{Err: fmt.Errorf("mock %s: %w", model, b.Err)}
			return
		}

		for i, chunk := range b.Chunks {
			select {
			case <-ctx.Done():
				ch <- StreamDelta{Err: ctx.Err()}
				return
			default:
			}
			if b.Err != nil && i == b.FailAfter {
				ch <- StreamDelta{Err: fmt.Errorf("mock %s: %w", model, b.Err)}
				return
			}
			ch <- StreamDelta{Delta: chunk}
		}
		ch <- StreamDelta{Final: true, Usage: b.Usage}
	}()

	return ch, nil
}
