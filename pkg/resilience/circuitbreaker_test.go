package resilience

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inbox-agent/backend/pkg/logger"
)

func newTestBreaker(retryTimeout time.Duration) *CircuitBreaker {
	log := logger.New(logger.Config{Level: "error", Output: io.Discard})
	return NewCircuitBreaker(CircuitBreakerConfig{
		Name:             "test",
		FailureThreshold: 3,
		SuccessThreshold: 2,
		RetryTimeout:     retryTimeout,
	}, log)
}

func TestBreakerOpensAfterThreshold(t *testing.T) {
	cb := newTestBreaker(time.Hour)
	boom := errors.New("boom")

	for i := 0; i < 3; i++ {
		err := cb.Execute(func() error { return boom })
		require.ErrorIs(t, err, boom)
	}
	assert.Equal(t, StateOpen, cb.State())

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestBreakerRecoversThroughHalfOpen(t *testing.T) {
	cb := newTestBreaker(time.Nanosecond)
	boom := errors.New("boom")

	for i := 0; i < 3; i++ {
		_ = cb.Execute(func() error { return boom })
	}
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(time.Millisecond)

	require.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, StateHalfOpen, cb.State())
	require.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, StateClosed, cb.State())
}

func TestBreakerReopensOnFailedProbe(t *testing.T) {
	cb := newTestBreaker(time.Nanosecond)
	boom := errors.New("boom")

	for i := 0; i < 3; i++ {
		_ = cb.Execute(func() error { return boom })
	}
	time.Sleep(time.Millisecond)

	err := cb.Execute(func() error { return boom })
	require.ErrorIs(t, err, boom)
	assert.Equal(t, StateOpen, cb.State())
}

func TestBreakerClosedResetsFailureCountOnSuccess(t *testing.T) {
	cb := newTestBreaker(time.Hour)
	boom := errors.New("boom")

	_ = cb.Execute(func() error { return boom })
	_ = cb.Execute(func() error { return boom })
	require.NoError(t, cb.Execute(func() error { return nil }))

	// The streak was broken, so two more failures do not open the circuit.
	_ = cb.Execute(func() error { return boom })
	_ = cb.Execute(func() error { return boom })
	assert.Equal(t, StateClosed, cb.State())
}
