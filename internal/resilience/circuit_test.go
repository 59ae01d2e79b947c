package resilience

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 2, ResetTimeout: time.Minute})

	boom := func(ctx context.Context) error { return eris.New("boom") }

	require.Error(t, cb.Execute(context.Background(), boom))
	assert.Equal(t, CircuitClosed, cb.State())

	require.Error(t, cb.Execute(context.Background(), boom))
	assert.Equal(t, CircuitOpen, cb.State())

	err := cb.Execute(context.Background(), func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestCircuitBreaker_HalfOpenAfterResetTimeout(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: 10 * time.Second})

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cb.nowFunc = func() time.Time { return now }

	require.Error(t, cb.Execute(context.Background(), func(ctx context.Context) error {
		return eris.New("boom")
	}))
	assert.Equal(t, CircuitOpen, cb.State())

	now = now.Add(11 * time.Second)
	assert.Equal(t, CircuitHalfOpen, cb.State())

	// Successful probe closes the circuit.
	require.NoError(t, cb.Execute(context.Background(), func(ctx context.Context) error { return nil }))
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestCircuitBreaker_FailedProbeReopens(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: 10 * time.Second})

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cb.nowFunc = func() time.Time { return now }

	_ = cb.Execute(context.Background(), func(ctx context.Context) error { return eris.New("boom") })
	now = now.Add(11 * time.Second)

	_ = cb.Execute(context.Background(), func(ctx context.Context) error { return eris.New("still down") })
	assert.Equal(t, CircuitOpen, cb.State())
}

func TestCircuitBreaker_ShouldTripFilter(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		ResetTimeout:     time.Minute,
		ShouldTrip:       IsTransient,
	})

	// Terminal errors don't trip the breaker.
	_ = cb.Execute(context.Background(), func(ctx context.Context) error {
		return eris.New("400 bad request")
	})
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestCircuitBreaker_Reset(t *testing.T) {
	var transitions []CircuitState
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		ResetTimeout:     time.Minute,
		OnStateChange:    func(from, to CircuitState) { transitions = append(transitions, to) },
	})

	_ = cb.Execute(context.Background(), func(ctx context.Context) error { return eris.New("boom") })
	cb.Reset()

	assert.Equal(t, CircuitClosed, cb.State())
	assert.Equal(t, []CircuitState{CircuitOpen, CircuitClosed}, transitions)
}

func TestExecuteVal_PreservesValue(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{})
	val, err := ExecuteVal(context.Background(), cb, func(ctx context.Context) (string, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", val)
}

func TestServiceBreakers_PerService(t *testing.T) {
	sb := NewServiceBreakers(CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: time.Minute})

	_ = sb.Get("apollo").Execute(context.Background(), func(ctx context.Context) error {
		return eris.New("boom")
	})

	states := sb.States()
	assert.Equal(t, CircuitOpen, states["apollo"])
	assert.Equal(t, CircuitClosed, sb.Get("explorium").State())
}
