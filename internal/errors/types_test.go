package errors

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"marked transient", NewTransientError(errors.New("x"), "busy"), true},
		{"marked permanent", NewPermanentError(errors.New("x"), "bad key"), false},
		{"rate limit status", fmt.Errorf("API error 429: slow down"), true},
		{"server error status", fmt.Errorf("upstream status 503"), true},
		{"bad request status", fmt.Errorf("API error 400: malformed"), false},
		{"connection refused", errors.New("dial tcp: connection refused"), true},
		{"deadline", errors.New("context deadline exceeded"), true},
		{"plain", errors.New("something odd"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestIsPermanent(t *testing.T) {
	require.True(t, IsPermanent(errors.New("model not found")))
	require.True(t, IsPermanent(fmt.Errorf("API error 401: unauthorized")))
	require.False(t, IsPermanent(NewTransientError(errors.New("x"), "")))
	require.False(t, IsPermanent(nil))
}

func TestClassifyDefaultsToPermanent(t *testing.T) {
	require.Equal(t, ErrorTypePermanent, Classify(errors.New("mystery")))
	require.Equal(t, ErrorTypeTransient, Classify(errors.New("connection reset")))
}

func TestUnwrap(t *testing.T) {
	inner := errors.New("inner")
	require.ErrorIs(t, NewTransientError(inner, "outer"), inner)
	require.ErrorIs(t, NewPermanentError(inner, "outer"), inner)
}

func TestHealthTrackerOpensAfterThreshold(t *testing.T) {
	tracker := NewHealthTracker(HealthConfig{FailureThreshold: 3, SuccessThreshold: 1, RecoveryTimeout: time.Hour}, nil)
	boom := errors.New("connection refused")

	require.True(t, tracker.Healthy("fast-1"))
	tracker.RecordFailure("fast-1", boom)
	tracker.RecordFailure("fast-1", boom)
	require.True(t, tracker.Healthy("fast-1"))
	tracker.RecordFailure("fast-1", boom)
	require.False(t, tracker.Healthy("fast-1"))
	require.Equal(t, StateUnhealthy, tracker.State("fast-1"))

	// Other models are unaffected.
	require.True(t, tracker.Healthy("smart-1"))
}

func TestHealthTrackerIgnoresPermanentErrors(t *testing.T) {
	tracker := NewHealthTracker(HealthConfig{FailureThreshold: 1}, nil)
	tracker.RecordFailure("fast-1", NewPermanentError(errors.New("bad request"), ""))
	require.True(t, tracker.Healthy("fast-1"))
}

func TestHealthTrackerProbesAfterRecoveryTimeout(t *testing.T) {
	var changes []HealthState
	cfg := HealthConfig{
		FailureThreshold: 1,
		SuccessThreshold: 1,
		RecoveryTimeout:  10 * time.Millisecond,
		OnStateChange:    func(_ string, _, to HealthState) { changes = append(changes, to) },
	}
	tracker := NewHealthTracker(cfg, nil)

	tracker.RecordFailure("fast-1", errors.New("timeout"))
	require.False(t, tracker.Healthy("fast-1"))

	time.Sleep(20 * time.Millisecond)
	require.True(t, tracker.Healthy("fast-1"))
	require.Equal(t, StateProbing, tracker.State("fast-1"))

	tracker.RecordSuccess("fast-1")
	require.Equal(t, StateHealthy, tracker.State("fast-1"))
	require.Equal(t, []HealthState{StateUnhealthy, StateProbing, StateHealthy}, changes)
}

func TestHealthTrackerProbeFailureReopens(t *testing.T) {
	tracker := NewHealthTracker(HealthConfig{FailureThreshold: 5, SuccessThreshold: 2, RecoveryTimeout: time.Millisecond}, nil)
	for i := 0; i < 5; i++ {
		tracker.RecordFailure("m", errors.New("timeout"))
	}
	time.Sleep(5 * time.Millisecond)
	require.True(t, tracker.Healthy("m")) // probing
	tracker.RecordFailure("m", errors.New("timeout"))
	require.False(t, tracker.Healthy("m"))
}
