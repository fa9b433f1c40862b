// Package routing classifies generation requests and maps them to an
// execution strategy and concrete models.
package routing

// TaskType classifies what kind of work a generation request asks for.
type TaskType string

const (
	TaskTrivialEdit  TaskType = "trivial_edit"
	TaskFeatureBuild TaskType = "feature_build"
	TaskDebugging    TaskType = "debugging"
	TaskCodeReview   TaskType = "code_review"
	TaskArchitecture TaskType = "architecture_decision"
)

// Complexity is the estimated effort tier of a request.
type Complexity string

const (
	ComplexityTrivial  Complexity = "trivial"
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
)

// TaskRequest carries the signals the classifier reads. Force fields pin
// parts of the outcome and skip the corresponding heuristics.
type TaskRequest struct {
	Prompt          string
	Context         string     // build context the caller already assembled
	ForceComplexity Complexity // optional override
	ForceModel      string     // optional override, honored by the router
}

// TaskAnalysis is the classifier's verdict.
type TaskAnalysis struct {
	Type        TaskType
	Complexity  Complexity
	DesignHeavy bool
	Critical    bool // mistakes are costly or hard to reverse
	Tokens      int  // estimated prompt+context tokens
	Reason      string
	ForceModel  string
}

// Strategy is the chosen execution shape for a generation request.
type Strategy string

const (
	// StrategySingle streams one model directly, with optional fallback.
	StrategySingle Strategy = "single"
	// StrategySpeculative streams a fast model while a smart validator
	// collects its full response in the background.
	StrategySpeculative Strategy = "speculative"
	// StrategyParallel races two models and picks the better answer.
	StrategyParallel Strategy = "parallel"
	// StrategyEnsemble runs the strongest model; the secondary perspective
	// is surfaced but not yet merged.
	StrategyEnsemble Strategy = "ensemble"
)

// Decision is the routing outcome the execution engine acts on.
type Decision struct {
	Strategy      Strategy
	PrimaryModel  string
	ParallelModel string // used by speculative/parallel/ensemble
	FallbackModel string // used only by the single strategy on primary failure
	Reasoning     string
}
