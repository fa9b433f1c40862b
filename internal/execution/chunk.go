// Package execution runs routing decisions against LLM backends using one
// of four concurrency strategies and emits an ordered stream of chunks.
package execution

import (
	"time"

	"swarm/internal/llm"
	"swarm/internal/routing"
)

// ChunkType enumerates the closed set of chunk variants.
type ChunkType string

const (
	ChunkText             ChunkType = "text"
	ChunkStatus           ChunkType = "status"
	ChunkEnhancementStart ChunkType = "enhancement_start"
	ChunkError            ChunkType = "error"
	ChunkDone             ChunkType = "done"
)

// ChunkMeta carries the per-variant payload. Fields are only meaningful for
// the variants that set them.
type ChunkMeta struct {
	TTFTMs      int64          `json:"ttft_ms,omitempty"`      // status: time to first token
	Fallback    bool           `json:"fallback,omitempty"`     // status: primary failed, switching models
	Enhanced    bool           `json:"enhanced,omitempty"`     // text: part of an enhancement
	Winner      string         `json:"winner,omitempty"`       // status: model selected by parallel race
	Reason      string         `json:"reason,omitempty"`       // status: selection reasoning
	Usage       llm.TokenUsage `json:"usage,omitempty"`        // done: accumulated token usage
	LatencyMs   int64          `json:"latency_ms,omitempty"`   // done: total wall time
	WasEnhanced bool           `json:"was_enhanced,omitempty"` // done: an enhancement was emitted
}

// Chunk is one element of the finite, non-restartable output sequence of a
// strategy. Within a strategy the emission order is fixed:
// status -> text* -> [enhancement_start -> text*] -> done|error.
type Chunk struct {
	Type        ChunkType        `json:"type"`
	Content     string           `json:"content,omitempty"`
	Model       string           `json:"model,omitempty"`
	Strategy    routing.Strategy `json:"strategy"`
	TimestampMs int64            `json:"timestamp_ms"`
	Meta        ChunkMeta        `json:"meta,omitempty"`
}

func newChunk(chunkType ChunkType, content, model string, strategy routing.Strategy) Chunk {
	return Chunk{
		Type:        chunkType,
		Content:     content,
		Model:       model,
		Strategy:    strategy,
		TimestampMs: time.Now().UnixMilli(),
	}
}
