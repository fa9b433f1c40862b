package routing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAnalyzeTrivialEdit(t *testing.T) {
	c := NewClassifier()
	analysis := c.Analyze(TaskRequest{Prompt: "Fix the typo in the welcome banner"})
	require.Equal(t, TaskTrivialEdit, analysis.Type)
	require.Equal(t, ComplexityTrivial, analysis.Complexity)
	require.False(t, analysis.Critical)
}

func TestAnalyzeTrivialWinsOverDebugWording(t *testing.T) {
	c := NewClassifier()

	// "fix" and "error" read like debugging, but the typo marker makes
	// this a trivial edit and keeps it on the cheap single-model path.
	analysis := c.Analyze(TaskRequest{Prompt: "Fix the typo in the error banner"})
	require.Equal(t, TaskTrivialEdit, analysis.Type)
	require.Equal(t, ComplexityTrivial, analysis.Complexity)

	decision := NewRouter(testModels(), nil, nil).Route(analysis)
	require.Equal(t, StrategySingle, decision.Strategy)
	require.Equal(t, "fast-1", decision.PrimaryModel)
}

func TestAnalyzeArchitecture(t *testing.T) {
	c := NewClassifier()
	analysis := c.Analyze(TaskRequest{Prompt: "Propose the data model and API design for the ordering system"})
	require.Equal(t, TaskArchitecture, analysis.Type)
	require.Equal(t, ComplexityComplex, analysis.Complexity)
	require.True(t, analysis.Critical)
}

func TestAnalyzeDebugging(t *testing.T) {
	c := NewClassifier()
	analysis := c.Analyze(TaskRequest{Prompt: "The checkout page crashes with an undefined error when the cart is empty, please fix it"})
	require.Equal(t, TaskDebugging, analysis.Type)
}

func TestAnalyzeCodeReview(t *testing.T) {
	c := NewClassifier()
	analysis := c.Analyze(TaskRequest{Prompt: "Review this reducer and tell me the pros and cons of the two approaches"})
	require.Equal(t, TaskCodeReview, analysis.Type)
	require.Equal(t, ComplexityModerate, analysis.Complexity)
}

func TestAnalyzeDesignHeavy(t *testing.T) {
	c := NewClassifier()
	analysis := c.Analyze(TaskRequest{Prompt: "Build a responsive hero section with a gradient theme and subtle animation"})
	require.True(t, analysis.DesignHeavy)
}

func TestAnalyzeCriticalMarkers(t *testing.T) {
	c := NewClassifier()
	analysis := c.Analyze(TaskRequest{Prompt: "Wire up the payment provider webhook for production"})
	require.True(t, analysis.Critical)
}

func TestForceComplexityWins(t *testing.T) {
	c := NewClassifier()
	analysis := c.Analyze(TaskRequest{
		Prompt:          "Fix the typo in the banner",
		ForceComplexity: ComplexityComplex,
	})
	require.Equal(t, ComplexityComplex, analysis.Complexity)
}

func TestAnalyzeIsDeterministicAndCached(t *testing.T) {
	c := NewClassifier()
	req := TaskRequest{Prompt: "Build the settings page with form validation"}
	first := c.Analyze(req)
	second := c.Analyze(req)
	require.Equal(t, first, second)
}

func TestForceModelCarriedThrough(t *testing.T) {
	c := NewClassifier()
	analysis := c.Analyze(TaskRequest{Prompt: "anything", ForceModel: "strong-1"})
	require.Equal(t, "strong-1", analysis.ForceModel)
}
