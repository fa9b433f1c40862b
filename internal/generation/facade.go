// Package generation is the top-level entry point for model output. It
// composes the classifier, the router, and the execution engine behind one
// call, in collect-all and streaming flavors.
package generation

import (
	"context"
	"fmt"
	"strings"

	"swarm/internal/execution"
	"swarm/internal/llm"
	"swarm/internal/logging"
	"swarm/internal/routing"
)

// Request is a generation call. Zero values defer to the preset (when set)
// or the backend defaults.
type Request struct {
	Prompt          string
	Context         string
	System          string
	MaxTokens       int
	Temperature     float64
	Preset          Preset             // optional, pins the routing verdict
	ForceComplexity routing.Complexity // optional classifier override
	ForceModel      string             // optional model pin
}

// Result is the collected outcome of a one-shot generation.
type Result struct {
	Content     string
	Model       string
	Strategy    routing.Strategy
	Usage       llm.TokenUsage
	LatencyMs   int64
	WasEnhanced bool
}

// Facade wires classification, routing, and execution together. Construct
// one per build session and pass it to whatever needs model output.
type Facade struct {
	classifier *routing.Classifier
	router     *routing.Router
	engine     *execution.Engine
	logger     logging.Logger
	budgets    map[Preset]Budget // config overrides of preset budgets
}

// FacadeOption configures a Facade.
type FacadeOption func(*Facade)

// WithBudgets overrides preset budgets, typically from the config file.
func WithBudgets(budgets map[Preset]Budget) FacadeOption {
	return func(f *Facade) {
		for preset, budget := range budgets {
			f.budgets[preset] = budget
		}
	}
}

// NewFacade assembles the pipeline. The logger may be nil.
func NewFacade(classifier *routing.Classifier, router *routing.Router, engine *execution.Engine, logger logging.Logger, opts ...FacadeOption) *Facade {
	f := &Facade{
		classifier: classifier,
		router:     router,
		engine:     engine,
		logger:     logging.OrNop(logger),
		budgets:    make(map[Preset]Budget),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// applyBudget fills unset token and temperature settings from the preset,
// preferring configured overrides over built-in defaults.
func (f *Facade) applyBudget(req Request) Request {
	budget, ok := f.budgets[req.Preset]
	if !ok {
		if budget, ok = req.Preset.defaultBudget(); !ok {
			return req
		}
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = budget.MaxTokens
	}
	if req.Temperature == 0 {
		req.Temperature = budget.Temperature
	}
	return req
}

// Decide runs classification and routing without executing, for callers
// that want to inspect or log the plan.
func (f *Facade) Decide(req Request) (routing.TaskAnalysis, routing.Decision) {
	analysis := f.classifier.Analyze(routing.TaskRequest{
		Prompt:          req.Prompt,
		Context:         req.Context,
		ForceComplexity: req.ForceComplexity,
		ForceModel:      req.ForceModel,
	})
	if req.Preset != "" {
		analysis = req.Preset.apply(analysis)
	}
	return analysis, f.router.Route(analysis)
}

// GenerateStream classifies, routes, and executes the request, returning
// the live chunk stream.
func (f *Facade) GenerateStream(ctx context.Context, req Request) <-chan execution.Chunk {
	if req.Preset != "" {
		req = f.applyBudget(req)
	}
	analysis, decision := f.Decide(req)
	f.logger.Info("generate %s/%s strategy=%s primary=%s",
		analysis.Type, analysis.Complexity, decision.Strategy, decision.PrimaryModel)

	return f.engine.Execute(ctx, execution.Request{
		Prompt:      req.Prompt,
		System:      req.System,
		Context:     req.Context,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}, decision)
}

// Generate runs the request to completion and collects the full text. A
// terminal error chunk becomes the returned error.
func (f *Facade) Generate(ctx context.Context, req Request) (*Result, error) {
	var content strings.Builder
	result := &Result{}

	for chunk := range f.GenerateStream(ctx, req) {
		switch chunk.Type {
		case execution.ChunkText:
			content.WriteString(chunk.Content)
		case execution.ChunkDone:
			result.Model = chunk.Model
			result.Strategy = chunk.Strategy
			result.Usage = chunk.Meta.Usage
			result.LatencyMs = chunk.Meta.LatencyMs
			result.WasEnhanced = chunk.Meta.WasEnhanced
		case execution.ChunkError:
			return nil, fmt.Errorf("generation failed on %s: %s", chunk.Model, chunk.Content)
		}
	}

	result.Content = content.String()
	return result, nil
}
