package telemetry

import (
	"context"

	"github.com/KOMKZ/go-dbtelemetry/breaker"
	"github.com/KOMKZ/go-dbtelemetry/logger"
	"go.uber.org/zap"
)

// CircuitBreakerClient decorates a Client so repeated delivery failures
// suppress further attempts. ExportEvent never returns an error: telemetry
// failures must never surface into query execution.
type CircuitBreakerClient struct {
	delegate Client
	breaker  *breaker.Breaker
	logger   *logger.CtxZapLogger
}

// NewCircuitBreakerClient wraps delegate with the given breaker
func NewCircuitBreakerClient(delegate Client, br *breaker.Breaker) *CircuitBreakerClient {
	return &CircuitBreakerClient{
		delegate: delegate,
		breaker:  br,
		logger:   logger.GetLogger("telemetry"),
	}
}

// ExportEvent exports through the breaker; every error, classified or
// not, stops here
func (c *CircuitBreakerClient) ExportEvent(ctx context.Context, event *Event) error {
	err := c.breaker.Attempt(ctx, func() error {
		return c.delegate.ExportEvent(ctx, event)
	})
	if err != nil {
		c.logger.DebugCtx(ctx, "telemetry export suppressed", zap.Error(err))
		if c.breaker.CurrentState() == breaker.StateOpen {
			c.logger.WarnCtx(ctx, "⛔ telemetry circuit breaker is open, events are being dropped")
		}
	}
	return nil
}

// Close closes the delegate. This is the one operation allowed to
// propagate a failure: it runs at connection teardown, not in the hot path.
func (c *CircuitBreakerClient) Close() error {
	return c.delegate.Close()
}

// BreakerState returns the breaker's current state (diagnostics)
func (c *CircuitBreakerClient) BreakerState() breaker.State {
	return c.breaker.CurrentState()
}

// BreakerMetrics returns the breaker's counters (diagnostics)
func (c *CircuitBreakerClient) BreakerMetrics() breaker.MetricsSnapshot {
	return c.breaker.Metrics()
}

var _ Client = (*CircuitBreakerClient)(nil)

// breakerPushClient gates the transport push through its own breaker so
// an unhealthy collector stops batch sends before they reach the network.
// The breaker is dedicated to the push path; it only ever sees collector
// outcomes, never enqueue outcomes.
type breakerPushClient struct {
	delegate PushClient
	breaker  *breaker.Breaker
}

func newBreakerPushClient(delegate PushClient, br *breaker.Breaker) *breakerPushClient {
	return &breakerPushClient{delegate: delegate, breaker: br}
}

func (p *breakerPushClient) PushEvent(ctx context.Context, req *Request) error {
	return p.breaker.Attempt(ctx, func() error {
		return p.delegate.PushEvent(ctx, req)
	})
}
