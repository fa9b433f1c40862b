package errors

import (
	"sync"
	"time"

	"swarm/internal/logging"
)

// HealthState represents the availability of a model backend.
type HealthState int

const (
	// StateHealthy - normal operation, routing allowed
	StateHealthy HealthState = iota
	// StateUnhealthy - failing, routing should avoid this backend
	StateUnhealthy
	// StateProbing - recovery window elapsed, one request may test it
	StateProbing
)

func (s HealthState) String() string {
	switch s {
	case StateHealthy:
		return "healthy"
	case StateUnhealthy:
		return "unhealthy"
	case StateProbing:
		return "probing"
	default:
		return "unknown"
	}
}

// HealthConfig configures failure tolerance per backend.
type HealthConfig struct {
	FailureThreshold int                                        // consecutive failures before a backend is marked unhealthy
	SuccessThreshold int                                        // consecutive successes while probing to mark healthy again
	RecoveryTimeout  time.Duration                              // time to wait before probing an unhealthy backend
	OnStateChange    func(model string, from, to HealthState)   // optional callback
}

// DefaultHealthConfig returns sensible defaults.
func DefaultHealthConfig() HealthConfig {
	return HealthConfig{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		RecoveryTimeout:  30 * time.Second,
	}
}

type backendHealth struct {
	state        HealthState
	failureCount int
	successCount int
	lastFailure  time.Time
}

// HealthTracker tracks per-model backend health from observed call outcomes.
// The router consults it to keep routing decisions away from failing models.
type HealthTracker struct {
	config HealthConfig
	logger logging.Logger

	mu       sync.RWMutex
	backends map[string]*backendHealth
}

// NewHealthTracker creates a tracker with the given config.
func NewHealthTracker(config HealthConfig, logger logging.Logger) *HealthTracker {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = DefaultHealthConfig().FailureThreshold
	}
	if config.SuccessThreshold <= 0 {
		config.SuccessThreshold = DefaultHealthConfig().SuccessThreshold
	}
	if config.RecoveryTimeout <= 0 {
		config.RecoveryTimeout = DefaultHealthConfig().RecoveryTimeout
	}
	return &HealthTracker{
		config:   config,
		logger:   logging.OrNop(logger),
		backends: make(map[string]*backendHealth),
	}
}

// RecordSuccess notes a successful call against model.
func (t *HealthTracker) RecordSuccess(model string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	b := t.backend(model)
	b.failureCount = 0
	switch b.state {
	case StateProbing:
		b.successCount++
		if b.successCount >= t.config.SuccessThreshold {
			t.transition(model, b, StateHealthy)
		}
	case StateUnhealthy:
		// Success outside a probe window still counts as recovery evidence.
		t.transition(model, b, StateHealthy)
	}
}

// RecordFailure notes a failed call against model. Permanent request errors
// are not held against the backend.
func (t *HealthTracker) RecordFailure(model string, err error) {
	if IsPermanent(err) {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	b := t.backend(model)
	b.successCount = 0
	b.failureCount++
	b.lastFailure = time.Now()
	if b.state == StateProbing || b.failureCount >= t.config.FailureThreshold {
		t.transition(model, b, StateUnhealthy)
	}
}

// Healthy reports whether model should receive traffic. An unhealthy backend
// becomes probing (and routable) once the recovery timeout elapses.
func (t *HealthTracker) Healthy(model string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	b, ok := t.backends[model]
	if !ok {
		return true
	}
	if b.state == StateUnhealthy && time.Since(b.lastFailure) >= t.config.RecoveryTimeout {
		t.transition(model, b, StateProbing)
	}
	return b.state != StateUnhealthy
}

// State returns the current state for model (healthy when never seen).
func (t *HealthTracker) State(model string) HealthState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if b, ok := t.backends[model]; ok {
		return b.state
	}
	return StateHealthy
}

func (t *HealthTracker) backend(model string) *backendHealth {
	b, ok := t.backends[model]
	if !ok {
		b = &backendHealth{state: StateHealthy}
		t.backends[model] = b
	}
	return b
}

// transition must be called with t.mu held.
func (t *HealthTracker) transition(model string, b *backendHealth, to HealthState) {
	from := b.state
	if from == to {
		return
	}
	b.state = to
	b.failureCount = 0
	b.successCount = 0
	t.logger.Warn("backend %s health: %s -> %s", model, from, to)
	if t.config.OnStateChange != nil {
		t.config.OnStateChange(model, from, to)
	}
}
