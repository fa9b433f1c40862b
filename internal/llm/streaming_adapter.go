package llm

import "context"

// streamingAdapter wraps a backend that lacks native streaming support and
// synthesizes CreateStream by invoking CreateSync.
type streamingAdapter struct {
	base SyncClient
}

var _ Client = (*streamingAdapter)(nil)

// EnsureStreaming guarantees the returned client implements Client by
// wrapping sync-only implementations with a fallback adapter.
func EnsureStreaming(client SyncClient) Client {
	if client == nil {
		return nil
	}
	if full, ok := client.(Client); ok {
		return full
	}
	return &streamingAdapter{base: client}
}

func (a *streamingAdapter) CreateSync(ctx context.Context, model string, req Request) (*Response, error) {
	return a.base.CreateSync(ctx, model, req)
}

func (a *streamingAdapter) CreateStream(ctx context.Context, model string, req Request) (<-chan StreamDelta, error) {
	ch := make(chan StreamDelta, 2)
	go func() {
		defer close(ch)
		resp, err := a.base.CreateSync(ctx, model, req)
		if err != nil {
			ch <- StreamDelta{Err: err}
			return
		}
		if resp.Text != "" {
			ch <- StreamDelta{Delta: resp.Text}
		}
		ch <- StreamDelta{Final: true, Usage: resp.Usage}
	}()
	return ch, nil
}
