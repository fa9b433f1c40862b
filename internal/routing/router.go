package routing

import (
	"fmt"
	"sync"

	"swarm/internal/logging"
)

// ModelTier classifies a model by capability/cost tradeoff.
type ModelTier string

const (
	TierSmall   ModelTier = "small"   // fast/cheap model for simple tasks
	TierDefault ModelTier = "default" // standard model for most tasks
	TierStrong  ModelTier = "strong"  // most capable model for complex tasks
)

// ModelProfile describes a single model available for routing.
type ModelProfile struct {
	ID              string    `json:"id" mapstructure:"id"`
	Provider        string    `json:"provider" mapstructure:"provider"`
	Tier            ModelTier `json:"tier" mapstructure:"tier"`
	CostPer1KInput  float64   `json:"cost_per_1k_input" mapstructure:"cost_per_1k_input"`
	CostPer1KOutput float64   `json:"cost_per_1k_output" mapstructure:"cost_per_1k_output"`
	AvgLatencyMs    float64   `json:"avg_latency_ms" mapstructure:"avg_latency_ms"`
}

func (p ModelProfile) cost() float64 {
	return p.CostPer1KInput + p.CostPer1KOutput
}

// HealthChecker reports whether a model backend should receive traffic.
type HealthChecker interface {
	Healthy(model string) bool
}

type alwaysHealthy struct{}

func (alwaysHealthy) Healthy(string) bool { return true }

// Router maps a task analysis to a routing decision via a deterministic
// rule table: trivial or simple work goes to a fast model directly,
// moderate work streams fast with a smart validator behind it, design-heavy
// or review work races two models, and critical or architecture-level work
// runs the strongest model.
type Router struct {
	mu     sync.RWMutex
	models []ModelProfile
	health HealthChecker
	logger logging.Logger
}

// NewRouter creates a Router over the given model profiles. A nil health
// checker treats every backend as healthy.
func NewRouter(models []ModelProfile, health HealthChecker, logger logging.Logger) *Router {
	if health == nil {
		health = alwaysHealthy{}
	}
	copied := make([]ModelProfile, len(models))
	copy(copied, models)
	return &Router{
		models: copied,
		health: health,
		logger: logging.OrNop(logger),
	}
}

// RegisterModel adds or updates a model profile. A profile with the same ID
// is replaced; otherwise it is appended.
func (r *Router) RegisterModel(profile ModelProfile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, m := range r.models {
		if m.ID == profile.ID {
			r.models[i] = profile
			return
		}
	}
	r.models = append(r.models, profile)
}

// Route maps the analysis to a strategy and concrete models.
func (r *Router) Route(analysis TaskAnalysis) Decision {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fast := r.pick(TierSmall)
	balanced := r.pick(TierDefault)
	strong := r.pick(TierStrong)

	var decision Decision
	switch {
	case analysis.Critical || analysis.Type == TaskArchitecture || analysis.Complexity == ComplexityComplex:
		decision = Decision{
			Strategy:      StrategyEnsemble,
			PrimaryModel:  strong,
			ParallelModel: balanced,
			Reasoning:     "critical or architecture-level work runs the strongest model",
		}
	case analysis.DesignHeavy || analysis.Type == TaskCodeReview:
		decision = Decision{
			Strategy:      StrategyParallel,
			PrimaryModel:  balanced,
			ParallelModel: strong,
			Reasoning:     "ambiguous or review work races two models",
		}
	case analysis.Complexity == ComplexityModerate:
		decision = Decision{
			Strategy:      StrategySpeculative,
			PrimaryModel:  fast,
			ParallelModel: strong,
			FallbackModel: balanced,
			Reasoning:     "moderate work streams the fast model with a smart validator behind it",
		}
	default:
		decision = Decision{
			Strategy:      StrategySingle,
			PrimaryModel:  fast,
			FallbackModel: balanced,
			Reasoning:     "trivial or simple work goes straight to the fast model",
		}
	}

	if analysis.ForceModel != "" {
		decision.PrimaryModel = analysis.ForceModel
		decision.Reasoning = fmt.Sprintf("caller pinned model %s; %s", analysis.ForceModel, decision.Reasoning)
	}
	decision.Reasoning = fmt.Sprintf("%s (%s)", decision.Reasoning, analysis.Reason)

	r.logger.Debug("routed %s/%s -> %s primary=%s parallel=%s fallback=%s",
		analysis.Type, analysis.Complexity, decision.Strategy,
		decision.PrimaryModel, decision.ParallelModel, decision.FallbackModel)
	return decision
}

// pick selects the cheapest healthy model of the tier; when the whole tier
// is unhealthy or missing it walks up to stronger tiers, then down.
func (r *Router) pick(tier ModelTier) string {
	order := map[ModelTier][]ModelTier{
		TierSmall:   {TierSmall, TierDefault, TierStrong},
		TierDefault: {TierDefault, TierStrong, TierSmall},
		TierStrong:  {TierStrong, TierDefault, TierSmall},
	}[tier]

	for _, candidateTier := range order {
		if id := r.cheapestHealthy(candidateTier); id != "" {
			return id
		}
	}
	// Last resort: first model regardless of health.
	if len(r.models) > 0 {
		return r.models[0].ID
	}
	return ""
}

func (r *Router) cheapestHealthy(tier ModelTier) string {
	best := ""
	bestCost := 0.0
	for _, m := range r.models {
		if m.Tier != tier || !r.health.Healthy(m.ID) {
			continue
		}
		if best == "" || m.cost() < bestCost {
			best = m.ID
			bestCost = m.cost()
		}
	}
	return best
}
