package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type syncOnlyClient struct {
	text  string
	err   error
	calls int
}

func (c *syncOnlyClient) CreateSync(ctx context.Context, model string, req Request) (*Response, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return &Response{Text: c.text, Usage: TokenUsage{TotalTokens: 3}}, nil
}

func collect(t *testing.T, ch <-chan StreamDelta) (text string, final bool, err error) {
	t.Helper()
	for delta := range ch {
		if delta.Err != nil {
			return text, final, delta.Err
		}
		if delta.Final {
			final = true
			continue
		}
		text += delta.Delta
	}
	return text, final, nil
}

func TestEnsureStreamingPassesThroughFullClients(t *testing.T) {
	mock := NewMockClient()
	require.Equal(t, Client(mock), EnsureStreaming(mock))
	require.Nil(t, EnsureStreaming(nil))
}

func TestEnsureStreamingSynthesizesStream(t *testing.T) {
	base := &syncOnlyClient{text: "hello world"}
	client := EnsureStreaming(base)

	ch, err := client.CreateStream(context.Background(), "m", Request{})
	require.NoError(t, err)

	text, final, streamErr := collect(t, ch)
	require.NoError(t, streamErr)
	require.True(t, final)
	require.Equal(t, "hello world", text)
	require.Equal(t, 1, base.calls)
}

func TestEnsureStreamingPropagatesError(t *testing.T) {
	boom := errors.New("backend down")
	client := EnsureStreaming(&syncOnlyClient{err: boom})

	ch, err := client.CreateStream(context.Background(), "m", Request{})
	require.NoError(t, err)

	_, _, streamErr := collect(t, ch)
	require.ErrorIs(t, streamErr, boom)
}

func TestMockClientStreamScript(t *testing.T) {
	mock := NewMockClient()
	mock.Script("fast-1", MockBehavior{Chunks: []string{"a", "b", "c"}, Usage: TokenUsage{TotalTokens: 9}})

	ch, err := mock.CreateStream(context.Background(), "fast-1", Request{})
	require.NoError(t, err)

	text, final, streamErr := collect(t, ch)
	require.NoError(t, streamErr)
	require.True(t, final)
	require.Equal(t, "abc", text)
	require.Equal(t, 1, mock.StreamCalls("fast-1"))
}

func TestMockClientFailAfter(t *testing.T) {
	mock := NewMockClient()
	mock.Script("fast-1", MockBehavior{
		Chunks:    []string{"partial ", "output ", "never"},
		Err:       errors.New("mid-stream failure"),
		FailAfter: 2,
	})

	ch, err := mock.CreateStream(context.Background(), "fast-1", Request{})
	require.NoError(t, err)

	text, final, streamErr := collect(t, ch)
	require.Error(t, streamErr)
	require.False(t, final)
	require.Equal(t, "partial output ", text)
}
