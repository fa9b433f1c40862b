package generation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"swarm/internal/execution"
	"swarm/internal/llm"
	"swarm/internal/routing"
)

func testModels() []routing.ModelProfile {
	return []routing.ModelProfile{
		{ID: "fast-1", Provider: "acme", Tier: routing.TierSmall, CostPer1KInput: 0.1, CostPer1KOutput: 0.2},
		{ID: "balanced-1", Provider: "acme", Tier: routing.TierDefault, CostPer1KInput: 1, CostPer1KOutput: 2},
		{ID: "strong-1", Provider: "acme", Tier: routing.TierStrong, CostPer1KInput: 5, CostPer1KOutput: 10},
	}
}

func newTestFacade(t *testing.T, backend *llm.MockClient) *Facade {
	t.Helper()
	router := routing.NewRouter(testModels(), nil, nil)
	engine := execution.NewEngine(backend)
	return NewFacade(routing.NewClassifier(), router, engine, nil)
}

func TestGenerateCollectsText(t *testing.T) {
	backend := llm.NewMockClient()
	backend.Script("fast-1", llm.MockBehavior{
		Chunks: []string{"renamed ", "the ", "variable"},
		Usage:  llm.TokenUsage{PromptTokens: 20, CompletionTokens: 6, TotalTokens: 26},
	})
	facade := newTestFacade(t, backend)

	result, err := facade.Generate(context.Background(), Request{Prompt: "rename x to y"})
	require.NoError(t, err)
	require.Equal(t, "renamed the variable", result.Content)
	require.Equal(t, routing.StrategySingle, result.Strategy)
	require.Equal(t, "fast-1", result.Model)
	require.Equal(t, 26, result.Usage.TotalTokens)
	require.False(t, result.WasEnhanced)
}

func TestGenerateSurfacesTerminalError(t *testing.T) {
	backend := llm.NewMockClient()
	backend.Script("fast-1", llm.MockBehavior{Err: errors.New("boom")})
	backend.Script("balanced-1", llm.MockBehavior{Err: errors.New("also down")})
	facade := newTestFacade(t, backend)

	result, err := facade.Generate(context.Background(), Request{Prompt: "rename x to y"})
	require.Error(t, err)
	require.Nil(t, result)
	require.Contains(t, err.Error(), "also down")
}

func TestGenerateStreamYieldsChunks(t *testing.T) {
	backend := llm.NewMockClient()
	backend.Script("fast-1", llm.MockBehavior{Chunks: []string{"ok"}})
	facade := newTestFacade(t, backend)

	var types []execution.ChunkType
	for chunk := range facade.GenerateStream(context.Background(), Request{Prompt: "rename x to y"}) {
		types = append(types, chunk.Type)
	}
	require.Equal(t, []execution.ChunkType{execution.ChunkStatus, execution.ChunkText, execution.ChunkDone}, types)
}

func TestDecideRoutesByClassification(t *testing.T) {
	facade := newTestFacade(t, llm.NewMockClient())

	analysis, decision := facade.Decide(Request{
		Prompt: "design the architecture for the new event pipeline, evaluate the trade-offs",
	})
	require.Equal(t, routing.TaskArchitecture, analysis.Type)
	require.Equal(t, routing.StrategyEnsemble, decision.Strategy)
	require.Equal(t, "strong-1", decision.PrimaryModel)
}

func TestDecideHonorsForceModel(t *testing.T) {
	facade := newTestFacade(t, llm.NewMockClient())

	_, decision := facade.Decide(Request{Prompt: "rename x to y", ForceModel: "balanced-1"})
	require.Equal(t, "balanced-1", decision.PrimaryModel)
}

func TestPresetCriticalDecisionForcesEnsemble(t *testing.T) {
	facade := newTestFacade(t, llm.NewMockClient())

	analysis, decision := facade.Decide(Request{Prompt: "rename x to y", Preset: PresetCriticalDecision})
	require.True(t, analysis.Critical)
	require.Equal(t, routing.StrategyEnsemble, decision.Strategy)
	require.Equal(t, "strong-1", decision.PrimaryModel)
}

func TestPresetQuickCheckForcesSingle(t *testing.T) {
	facade := newTestFacade(t, llm.NewMockClient())

	// A prompt that would otherwise classify as architecture work.
	_, decision := facade.Decide(Request{
		Prompt: "design the architecture for the new event pipeline",
		Preset: PresetQuickCheck,
	})
	require.Equal(t, routing.StrategySingle, decision.Strategy)
	require.Equal(t, "fast-1", decision.PrimaryModel)
}

func TestPresetFeatureBuildForcesSpeculative(t *testing.T) {
	backend := llm.NewMockClient()
	backend.Script("fast-1", llm.MockBehavior{Chunks: []string{"feature code"}})
	backend.Script("strong-1", llm.MockBehavior{Text: "feature code"})
	facade := newTestFacade(t, backend)

	_, decision := facade.Decide(Request{Prompt: "add pagination to the list endpoint", Preset: PresetFeatureBuild})
	require.Equal(t, routing.StrategySpeculative, decision.Strategy)

	result, err := facade.Generate(context.Background(), Request{
		Prompt: "add pagination to the list endpoint",
		Preset: PresetFeatureBuild,
	})
	require.NoError(t, err)
	require.Equal(t, "feature code", result.Content)
}

func TestPresetFillsBudgetWithoutOverridingCaller(t *testing.T) {
	facade := newTestFacade(t, llm.NewMockClient())

	req := Request{Prompt: "p", Preset: PresetQuickCheck}
	filled := facade.applyBudget(req)
	require.Equal(t, 2048, filled.MaxTokens)
	require.InDelta(t, 0.2, filled.Temperature, 1e-9)

	req.MaxTokens = 100
	req.Temperature = 0.9
	filled = facade.applyBudget(req)
	require.Equal(t, 100, filled.MaxTokens)
	require.InDelta(t, 0.9, filled.Temperature, 1e-9)
}

func TestConfiguredBudgetOverridesPresetDefault(t *testing.T) {
	router := routing.NewRouter(testModels(), nil, nil)
	engine := execution.NewEngine(llm.NewMockClient())
	facade := NewFacade(routing.NewClassifier(), router, engine, nil,
		WithBudgets(map[Preset]Budget{
			PresetQuickCheck: {MaxTokens: 512, Temperature: 0.05},
		}))

	filled := facade.applyBudget(Request{Prompt: "p", Preset: PresetQuickCheck})
	require.Equal(t, 512, filled.MaxTokens)
	require.InDelta(t, 0.05, filled.Temperature, 1e-9)

	// Presets without an override keep their defaults.
	filled = facade.applyBudget(Request{Prompt: "p", Preset: PresetFeatureBuild})
	require.Equal(t, 16384, filled.MaxTokens)
}

func TestPresetKnown(t *testing.T) {
	require.True(t, PresetFeatureBuild.Known())
	require.False(t, Preset("warp speed").Known())
}
