package breaker

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OTelMetrics records breaker activity through an OpenTelemetry Meter
type OTelMetrics struct {
	successesTotal   metric.Int64Counter
	failuresTotal    metric.Int64Counter
	rejectionsTotal  metric.Int64Counter
	transitionsTotal metric.Int64Counter
	stateGauge       metric.Int64ObservableGauge

	stateMu        sync.RWMutex
	stateCallbacks map[string]func() State
}

// NewOTelMetrics registers the breaker instruments with the given meter
func NewOTelMetrics(meter metric.Meter) (*OTelMetrics, error) {
	m := &OTelMetrics{
		stateCallbacks: make(map[string]func() State),
	}

	var err error
	m.successesTotal, err = meter.Int64Counter(
		"breaker_successes_total",
		metric.WithDescription("Total number of successful calls"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	m.failuresTotal, err = meter.Int64Counter(
		"breaker_failures_total",
		metric.WithDescription("Total number of failed calls"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	m.rejectionsTotal, err = meter.Int64Counter(
		"breaker_rejections_total",
		metric.WithDescription("Total number of rejected calls (circuit open)"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	m.transitionsTotal, err = meter.Int64Counter(
		"breaker_state_transitions_total",
		metric.WithDescription("Total number of state transitions"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return nil, err
	}

	m.stateGauge, err = meter.Int64ObservableGauge(
		"breaker_state",
		metric.WithDescription("Current circuit breaker state (0=closed, 1=open, 2=half-open)"),
		metric.WithInt64Callback(m.collectState),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// collectState is the observable gauge callback
func (m *OTelMetrics) collectState(_ context.Context, observer metric.Int64Observer) error {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()

	for name, callback := range m.stateCallbacks {
		observer.Observe(int64(callback()),
			metric.WithAttributes(attribute.String("breaker", name)),
		)
	}
	return nil
}

// bindState registers a breaker's state callback for the gauge
func (m *OTelMetrics) bindState(name string, callback func() State) {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	m.stateCallbacks[name] = callback
}

func (m *OTelMetrics) recordSuccess(ctx context.Context, name string) {
	m.successesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("breaker", name)))
}

func (m *OTelMetrics) recordFailure(ctx context.Context, name string) {
	m.failuresTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("breaker", name)))
}

func (m *OTelMetrics) recordRejection(ctx context.Context, name string) {
	m.rejectionsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("breaker", name)))
}

func (m *OTelMetrics) recordTransition(ctx context.Context, name string, to State) {
	m.transitionsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("breaker", name),
		attribute.String("to_state", to.String()),
	))
}
