package execution

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	swarmerrors "swarm/internal/errors"
	"swarm/internal/llm"
	"swarm/internal/logging"
	"swarm/internal/routing"
)

const chunkBuffer = 32

// Request is the generation payload the engine executes.
type Request struct {
	Prompt      string
	System      string
	Context     string // build context assembled by the caller
	MaxTokens   int
	Temperature float64
}

func (r Request) llmRequest() llm.Request {
	var messages []llm.Message
	if r.Context != "" {
		messages = append(messages, llm.Message{Role: "user", Content: r.Context})
	}
	messages = append(messages, llm.Message{Role: "user", Content: r.Prompt})
	return llm.Request{
		System:      r.System,
		Messages:    messages,
		MaxTokens:   r.MaxTokens,
		Temperature: r.Temperature,
	}
}

// Engine executes routing decisions against the backend. Every backend leg
// runs under a context derived from the request context, so abandoning the
// chunk stream tears down outstanding calls.
type Engine struct {
	backend llm.Client
	logger  logging.Logger
	health  *swarmerrors.HealthTracker
	metrics *Metrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger logging.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithHealthTracker feeds call outcomes into the tracker the router reads.
func WithHealthTracker(health *swarmerrors.HealthTracker) Option {
	return func(e *Engine) { e.health = health }
}

// WithMetrics instruments executions.
func WithMetrics(metrics *Metrics) Option {
	return func(e *Engine) { e.metrics = metrics }
}

// NewEngine creates an engine over the backend client. Sync-only backends
// are adapted to the streaming interface.
func NewEngine(backend llm.SyncClient, opts ...Option) *Engine {
	e := &Engine{
		backend: llm.EnsureStreaming(backend),
		logger:  logging.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs the decision's strategy and returns the chunk stream. The
// sequence terminates with a done chunk, or an error chunk on terminal
// failure, and is never restarted.
func (e *Engine) Execute(ctx context.Context, req Request, decision routing.Decision) <-chan Chunk {
	out := make(chan Chunk, chunkBuffer)
	go func() {
		defer close(out)
		start := time.Now()
		switch decision.Strategy {
		case routing.StrategySpeculative:
			e.runSpeculative(ctx, out, req, decision, start)
		case routing.StrategyParallel:
			e.runParallel(ctx, out, req, decision, start)
		case routing.StrategyEnsemble:
			e.runEnsemble(ctx, out, req, decision, start)
		default:
			e.runSingle(ctx, out, req, decision, start, true)
		}
	}()
	return out
}

// emit delivers a chunk unless the consumer is gone. The buffered fast path
// keeps terminal chunks deliverable even after the request context ends.
func emit(ctx context.Context, out chan<- Chunk, chunk Chunk) bool {
	select {
	case out <- chunk:
		return true
	default:
	}
	select {
	case out <- chunk:
		return true
	case <-ctx.Done():
		return false
	}
}

type streamOutcome struct {
	text  string
	usage llm.TokenUsage
	ttft  time.Duration
	err   error
}

// streamModel consumes one model's stream, invoking onFirst on the first
// content fragment and onDelta for every fragment.
func (e *Engine) streamModel(
	ctx context.Context,
	model string,
	req llm.Request,
	start time.Time,
	onFirst func(ttft time.Duration) bool,
	onDelta func(delta string) bool,
) streamOutcome {
	stream, err := e.backend.CreateStream(ctx, model, req)
	if err != nil {
		e.recordOutcome(model, err)
		return streamOutcome{err: err}
	}

	var builder strings.Builder
	var outcome streamOutcome
	first := true
	for delta := range stream {
		if delta.Err != nil {
			outcome.err = delta.Err
			break
		}
		if delta.Final {
			outcome.usage = delta.Usage
			continue
		}
		if first {
			first = false
			outcome.ttft = time.Since(start)
			e.observeTTFT(model, outcome.ttft)
			if onFirst != nil && !onFirst(outcome.ttft) {
				outcome.err = ctx.Err()
				break
			}
		}
		builder.WriteString(delta.Delta)
		if onDelta != nil && !onDelta(delta.Delta) {
			outcome.err = ctx.Err()
			break
		}
	}
	outcome.text = builder.String()
	if outcome.err == nil && strings.TrimSpace(outcome.text) == "" && first {
		// A stream that ended without any content is treated as a failure so
		// fallback and substitution paths can engage.
		outcome.err = fmt.Errorf("model %s returned no content", model)
	}
	e.recordOutcome(model, outcome.err)
	return outcome
}

// runSingle streams the primary model directly, falling back once when
// configured and allowed.
func (e *Engine) runSingle(ctx context.Context, out chan<- Chunk, req Request, decision routing.Decision, start time.Time, allowFallback bool) {
	legCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	lreq := req.llmRequest()
	outcome := e.streamModel(legCtx, decision.PrimaryModel, lreq, start,
		func(ttft time.Duration) bool {
			chunk := newChunk(ChunkStatus, fmt.Sprintf("first token from %s after %dms", decision.PrimaryModel, ttft.Milliseconds()), decision.PrimaryModel, decision.Strategy)
			chunk.Meta.TTFTMs = ttft.Milliseconds()
			return emit(ctx, out, chunk)
		},
		func(delta string) bool {
			return emit(ctx, out, newChunk(ChunkText, delta, decision.PrimaryModel, decision.Strategy))
		},
	)
	if outcome.err == nil {
		e.finish(ctx, out, decision.PrimaryModel, decision.Strategy, outcome.usage, start, false)
		return
	}
	cancel()

	if !allowFallback || decision.FallbackModel == "" {
		e.fail(ctx, out, decision.PrimaryModel, decision.Strategy, outcome.err)
		return
	}

	e.logger.Warn("primary %s failed (%v); falling back to %s", decision.PrimaryModel, outcome.err, decision.FallbackModel)
	status := newChunk(ChunkStatus, fmt.Sprintf("primary model failed; retrying with fallback %s", decision.FallbackModel), decision.FallbackModel, decision.Strategy)
	status.Meta.Fallback = true
	if !emit(ctx, out, status) {
		return
	}

	fallback := e.streamModel(ctx, decision.FallbackModel, lreq, time.Now(), nil,
		func(delta string) bool {
			return emit(ctx, out, newChunk(ChunkText, delta, decision.FallbackModel, decision.Strategy))
		},
	)
	if fallback.err != nil {
		e.fail(ctx, out, decision.FallbackModel, decision.Strategy, fallback.err)
		return
	}
	e.finish(ctx, out, decision.FallbackModel, decision.Strategy, fallback.usage, start, false)
}

type syncResult struct {
	resp *llm.Response
	err  error
}

// runSpeculative streams the fast model while the smart model collects its
// full response in the background, then decides whether to append it.
func (e *Engine) runSpeculative(ctx context.Context, out chan<- Chunk, req Request, decision routing.Decision, start time.Time) {
	legCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	lreq := req.llmRequest()
	smartCh := make(chan syncResult, 1)
	go func() {
		resp, err := e.backend.CreateSync(legCtx, decision.ParallelModel, lreq)
		e.recordOutcome(decision.ParallelModel, err)
		smartCh <- syncResult{resp: resp, err: err}
	}()

	fast := e.streamModel(legCtx, decision.PrimaryModel, lreq, start,
		func(ttft time.Duration) bool {
			chunk := newChunk(ChunkStatus, fmt.Sprintf("first token from %s after %dms", decision.PrimaryModel, ttft.Milliseconds()), decision.PrimaryModel, decision.Strategy)
			chunk.Meta.TTFTMs = ttft.Milliseconds()
			return emit(ctx, out, chunk)
		},
		func(delta string) bool {
			return emit(ctx, out, newChunk(ChunkText, delta, decision.PrimaryModel, decision.Strategy))
		},
	)

	smart := <-smartCh

	if fast.err != nil {
		// Fall back to the smart model's full result as the primary output.
		if smart.err != nil {
			e.fail(ctx, out, decision.PrimaryModel, decision.Strategy,
				fmt.Errorf("fast model failed (%v) and validator failed (%v)", fast.err, smart.err))
			return
		}
		status := newChunk(ChunkStatus, fmt.Sprintf("fast model failed; using %s result", decision.ParallelModel), decision.ParallelModel, decision.Strategy)
		status.Meta.Fallback = true
		if !emit(ctx, out, status) {
			return
		}
		if !emit(ctx, out, newChunk(ChunkText, smart.resp.Text, decision.ParallelModel, decision.Strategy)) {
			return
		}
		e.finish(ctx, out, decision.ParallelModel, decision.Strategy, smart.resp.Usage, start, false)
		return
	}

	usage := fast.usage
	if smart.err != nil {
		e.logger.Warn("validator %s unavailable: %v", decision.ParallelModel, smart.err)
		status := newChunk(ChunkStatus, fmt.Sprintf("validation skipped: %s unavailable", decision.ParallelModel), decision.ParallelModel, decision.Strategy)
		if !emit(ctx, out, status) {
			return
		}
		e.finish(ctx, out, decision.PrimaryModel, decision.Strategy, usage, start, false)
		return
	}

	usage.Add(smart.resp.Usage)
	if shouldEnhance(fast.text, smart.resp.Text, req) {
		e.metrics.observeEnhancement()
		if !emit(ctx, out, newChunk(ChunkEnhancementStart, fmt.Sprintf("appending %s enhancement", decision.ParallelModel), decision.ParallelModel, decision.Strategy)) {
			return
		}
		enhancement := newChunk(ChunkText, smart.resp.Text, decision.ParallelModel, decision.Strategy)
		enhancement.Meta.Enhanced = true
		if !emit(ctx, out, enhancement) {
			return
		}
		e.finish(ctx, out, decision.ParallelModel, decision.Strategy, usage, start, true)
		return
	}

	if !emit(ctx, out, newChunk(ChunkStatus, fmt.Sprintf("validation passed by %s", decision.ParallelModel), decision.ParallelModel, decision.Strategy)) {
		return
	}
	e.finish(ctx, out, decision.PrimaryModel, decision.Strategy, usage, start, false)
}

// runParallel issues both models' full requests concurrently and emits the
// better answer. A failed leg degrades to the survivor; both legs failing
// (or both returning nothing) is terminal.
func (e *Engine) runParallel(ctx context.Context, out chan<- Chunk, req Request, decision routing.Decision, start time.Time) {
	legCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	lreq := req.llmRequest()
	var primary, secondary syncResult
	var g errgroup.Group
	g.Go(func() error {
		primary.resp, primary.err = e.backend.CreateSync(legCtx, decision.PrimaryModel, lreq)
		e.recordOutcome(decision.PrimaryModel, primary.err)
		return nil
	})
	g.Go(func() error {
		secondary.resp, secondary.err = e.backend.CreateSync(legCtx, decision.ParallelModel, lreq)
		e.recordOutcome(decision.ParallelModel, secondary.err)
		return nil
	})
	_ = g.Wait()

	if primary.err != nil && secondary.err != nil {
		e.fail(ctx, out, decision.PrimaryModel, decision.Strategy,
			fmt.Errorf("both models failed: %v; %v", primary.err, secondary.err))
		return
	}

	primaryRace := raceResult{Model: decision.PrimaryModel}
	if primary.err == nil {
		primaryRace.Text = primary.resp.Text
	}
	secondaryRace := raceResult{Model: decision.ParallelModel}
	if secondary.err == nil {
		secondaryRace.Text = secondary.resp.Text
	}

	winner, reason, err := selectBestResponse(primaryRace, secondaryRace)
	if err != nil {
		e.fail(ctx, out, decision.PrimaryModel, decision.Strategy, err)
		return
	}

	status := newChunk(ChunkStatus, fmt.Sprintf("selected %s: %s", winner.Model, reason), winner.Model, decision.Strategy)
	status.Meta.Winner = winner.Model
	status.Meta.Reason = reason
	if !emit(ctx, out, status) {
		return
	}
	if !emit(ctx, out, newChunk(ChunkText, winner.Text, winner.Model, decision.Strategy)) {
		return
	}

	var usage llm.TokenUsage
	if primary.err == nil {
		usage.Add(primary.resp.Usage)
	}
	if secondary.err == nil {
		usage.Add(secondary.resp.Usage)
	}
	e.finish(ctx, out, winner.Model, decision.Strategy, usage, start, false)
}

// runEnsemble executes the strongest model as a single run. The parallel
// model is surfaced as a reserved secondary perspective but not yet
// consulted for content.
func (e *Engine) runEnsemble(ctx context.Context, out chan<- Chunk, req Request, decision routing.Decision, start time.Time) {
	content := fmt.Sprintf("ensemble on %s", decision.PrimaryModel)
	if decision.ParallelModel != "" {
		content = fmt.Sprintf("%s (secondary perspective %s reserved)", content, decision.ParallelModel)
	}
	if !emit(ctx, out, newChunk(ChunkStatus, content, decision.PrimaryModel, decision.Strategy)) {
		return
	}
	// The fallback model is a single-strategy mechanism only.
	e.runSingle(ctx, out, req, decision, start, false)
}

func (e *Engine) finish(ctx context.Context, out chan<- Chunk, model string, strategy routing.Strategy, usage llm.TokenUsage, start time.Time, enhanced bool) {
	e.metrics.observeOutcome(string(strategy), "ok")
	done := newChunk(ChunkDone, "", model, strategy)
	done.Meta.Usage = usage
	done.Meta.LatencyMs = time.Since(start).Milliseconds()
	done.Meta.WasEnhanced = enhanced
	emit(ctx, out, done)
}

func (e *Engine) fail(ctx context.Context, out chan<- Chunk, model string, strategy routing.Strategy, err error) {
	e.metrics.observeOutcome(string(strategy), "error")
	e.logger.Error("strategy %s on %s failed: %v", strategy, model, err)
	chunk := newChunk(ChunkError, err.Error(), model, strategy)
	if swarmerrors.IsTransient(err) {
		chunk.Meta.Reason = "transient"
	} else {
		chunk.Meta.Reason = "permanent"
	}
	emit(ctx, out, chunk)
}

func (e *Engine) recordOutcome(model string, err error) {
	if e.health == nil {
		return
	}
	if err != nil {
		e.health.RecordFailure(model, err)
		return
	}
	e.health.RecordSuccess(model)
}

func (e *Engine) observeTTFT(model string, ttft time.Duration) {
	e.metrics.observeTTFT(model, ttft.Seconds())
}
