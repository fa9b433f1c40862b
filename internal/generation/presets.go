package generation

import "swarm/internal/routing"

// Preset pins the routing verdict for a common call site. Presets pre-fill
// the classifier's analysis rather than bypassing the router, so model
// selection and health-aware tier walking still apply.
type Preset string

const (
	// PresetCriticalDecision runs the ensemble strategy at low temperature
	// for choices that are expensive to reverse.
	PresetCriticalDecision Preset = "critical_decision"
	// PresetFeatureBuild runs the speculative strategy with a generous
	// token budget for mainline feature work.
	PresetFeatureBuild Preset = "feature_build"
	// PresetQuickCheck runs the single strategy with a small budget for
	// cheap lookups and sanity checks.
	PresetQuickCheck Preset = "quick_check"
)

// Budget is the token and temperature pair a preset pre-fills.
type Budget struct {
	MaxTokens   int
	Temperature float64
}

type presetSettings struct {
	taskType   routing.TaskType
	complexity routing.Complexity
	critical   bool
	budget     Budget
}

var presets = map[Preset]presetSettings{
	PresetCriticalDecision: {
		taskType:   routing.TaskArchitecture,
		complexity: routing.ComplexityComplex,
		critical:   true,
		budget:     Budget{MaxTokens: 8192, Temperature: 0.1},
	},
	PresetFeatureBuild: {
		taskType:   routing.TaskFeatureBuild,
		complexity: routing.ComplexityModerate,
		budget:     Budget{MaxTokens: 16384, Temperature: 0.7},
	},
	PresetQuickCheck: {
		taskType:   routing.TaskTrivialEdit,
		complexity: routing.ComplexitySimple,
		budget:     Budget{MaxTokens: 2048, Temperature: 0.2},
	},
}

// Known reports whether the preset name is recognized.
func (p Preset) Known() bool {
	_, ok := presets[p]
	return ok
}

// apply overwrites the analysis fields a preset pins, leaving the rest of
// the classifier's verdict intact.
func (p Preset) apply(analysis routing.TaskAnalysis) routing.TaskAnalysis {
	settings, ok := presets[p]
	if !ok {
		return analysis
	}
	analysis.Type = settings.taskType
	analysis.Complexity = settings.complexity
	analysis.Critical = settings.critical
	analysis.DesignHeavy = false
	analysis.Reason = "preset " + string(p)
	return analysis
}

// defaultBudget returns the preset's built-in budget.
func (p Preset) defaultBudget() (Budget, bool) {
	settings, ok := presets[p]
	return settings.budget, ok
}
