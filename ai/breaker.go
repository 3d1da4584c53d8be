package ai

import (
	"context"

	"inbox-agent/backend/pkg/logger"
	"inbox-agent/backend/pkg/resilience"
)

// BreakerGateway decorates a Gateway with a circuit breaker so a dead
// upstream fails fast instead of burning the per-user rate budget on
// timeouts.
type BreakerGateway struct {
	inner   Gateway
	breaker *resilience.CircuitBreaker
}

func NewBreakerGateway(inner Gateway, log *logger.Logger) *BreakerGateway {
	return &BreakerGateway{
		inner:   inner,
		breaker: resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig("model-gateway"), log),
	}
}

// State exposes the circuit state for health reporting.
func (g *BreakerGateway) State() resilience.CircuitBreakerState {
	return g.breaker.State()
}

func (g *BreakerGateway) Complete(ctx context.Context, prompt string, opts CompletionOptions) (*CompletionResult, error) {
	var result *CompletionResult
	err := g.breaker.Execute(func() error {
		var callErr error
		result, callErr = g.inner.Complete(ctx, prompt, opts)
		return callErr
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (g *BreakerGateway) Embed(ctx context.Context, text string) ([]float64, error) {
	var vector []float64
	err := g.breaker.Execute(func() error {
		var callErr error
		vector, callErr = g.inner.Embed(ctx, text)
		return callErr
	})
	if err != nil {
		return nil, err
	}
	return vector, nil
}
