// Package breaker provides a count-based sliding window circuit breaker.
//
// Design:
//   - Independent package, depends only on logger
//   - Outcome classification is pluggable (failure / ignored buckets)
//   - State transitions are observable via listeners, never control flow
//   - Optional: a disabled config means callers should not wrap at all
package breaker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/KOMKZ/go-dbtelemetry/logger"
	"go.uber.org/zap"
)

// ErrOpen is returned by Attempt when the breaker rejects the call
var ErrOpen = errors.New("circuit breaker is open")

// State circuit breaker state
type State int

const (
	// StateClosed closed (normal operation)
	StateClosed State = iota

	// StateOpen open (calls rejected)
	StateOpen

	// StateHalfOpen half-open (probing for recovery)
	StateHalfOpen
)

// String returns the state name
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// StateChangeListener observes state transitions (logging/metrics only)
type StateChangeListener func(from, to State)

// MetricsSnapshot read-only view of breaker counters
type MetricsSnapshot struct {
	Succeeded     int64
	Failed        int64
	Rejected      int64
	RecordedCalls int
	FailureRate   float64
}

// Breaker count-based sliding window circuit breaker
type Breaker struct {
	name       string
	config     Config
	classifier Classifier
	logger     *logger.CtxZapLogger
	metrics    *OTelMetrics

	mu             sync.Mutex
	state          State
	lastTransition time.Time
	window         *outcomeWindow

	// half-open probe accounting
	probesAdmitted int
	probesResolved int
	probesFailed   int

	// lifetime totals
	succeeded int64
	failed    int64
	rejected  int64

	listeners []StateChangeListener
}

// Option configures a Breaker
type Option func(*Breaker)

// WithLogger sets the logger
func WithLogger(log *logger.CtxZapLogger) Option {
	return func(b *Breaker) { b.logger = log }
}

// WithClassifier sets the outcome classifier
func WithClassifier(c Classifier) Option {
	return func(b *Breaker) { b.classifier = c }
}

// WithMetrics attaches an OTel metrics recorder
func WithMetrics(m *OTelMetrics) Option {
	return func(b *Breaker) { b.metrics = m }
}

// WithStateChangeListener registers a transition listener at construction
func WithStateChangeListener(l StateChangeListener) Option {
	return func(b *Breaker) { b.listeners = append(b.listeners, l) }
}

// New creates a breaker instance
func New(name string, config Config, opts ...Option) (*Breaker, error) {
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	b := &Breaker{
		name:           name,
		config:         config,
		classifier:     DefaultClassifier(),
		logger:         logger.GetLogger("breaker"),
		state:          StateClosed,
		lastTransition: time.Now(),
		window:         newOutcomeWindow(config.WindowSize),
	}
	for _, opt := range opts {
		opt(b)
	}

	if b.metrics != nil {
		b.metrics.bindState(name, b.CurrentState)
	}
	return b, nil
}

// OnStateChange registers a transition listener
func (b *Breaker) OnStateChange(l StateChangeListener) {
	b.mu.Lock()
	b.listeners = append(b.listeners, l)
	b.mu.Unlock()
}

// Attempt executes op under breaker protection.
// Returns ErrOpen without invoking op when the breaker rejects the call.
// Classified-ignored errors propagate without touching the window.
func (b *Breaker) Attempt(ctx context.Context, op func() error) error {
	transition, admitted := b.admit()
	b.notify(ctx, transition)

	if !admitted {
		if b.metrics != nil {
			b.metrics.recordRejection(ctx, b.name)
		}
		b.logger.DebugCtx(ctx, "⛔ [Breaker] call rejected",
			zap.String("name", b.name),
			zap.String("state", b.CurrentState().String()))
		return ErrOpen
	}

	err := op()

	switch b.classifier.Classify(err) {
	case ClassSuccess:
		transition = b.record(false)
		if b.metrics != nil {
			b.metrics.recordSuccess(ctx, b.name)
		}
	case ClassFailure:
		transition = b.record(true)
		if b.metrics != nil {
			b.metrics.recordFailure(ctx, b.name)
		}
	case ClassIgnored:
		// Neither success nor failure; propagate untouched.
		// The probe slot must be handed back or half-open can run out of
		// slots with none of them ever resolving.
		b.releaseProbe()
		transition = noTransition
	}
	b.notify(ctx, transition)

	return err
}

// CurrentState returns the current state (read-only, side-effect free)
func (b *Breaker) CurrentState() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Metrics returns a snapshot of the breaker counters
func (b *Breaker) Metrics() MetricsSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return MetricsSnapshot{
		Succeeded:     b.succeeded,
		Failed:        b.failed,
		Rejected:      b.rejected,
		RecordedCalls: b.window.recorded(),
		FailureRate:   b.window.failureRate(),
	}
}

// stateTransition describes one observed transition
type stateTransition struct {
	happened bool
	from, to State
}

var noTransition = stateTransition{}

// admit decides whether the call may proceed, moving OPEN to HALF_OPEN
// once the wait duration has elapsed
func (b *Breaker) admit() (stateTransition, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return noTransition, true

	case StateOpen:
		if time.Since(b.lastTransition) < b.config.WaitDuration {
			b.rejected++
			return noTransition, false
		}
		t := b.transitionTo(StateHalfOpen)
		b.probesAdmitted = 1
		return t, true

	case StateHalfOpen:
		if b.probesAdmitted < b.config.HalfOpenCalls {
			b.probesAdmitted++
			return noTransition, true
		}
		b.rejected++
		return noTransition, false

	default:
		b.rejected++
		return noTransition, false
	}
}

// record stores a call outcome and applies state transitions
func (b *Breaker) record(failure bool) stateTransition {
	b.mu.Lock()
	defer b.mu.Unlock()

	if failure {
		b.failed++
	} else {
		b.succeeded++
	}

	switch b.state {
	case StateClosed:
		b.window.record(failure)
		if b.window.recorded() >= b.config.MinimumCalls &&
			b.window.failureRate() >= b.config.FailureRateThreshold {
			return b.transitionTo(StateOpen)
		}

	case StateHalfOpen:
		b.probesResolved++
		if failure {
			b.probesFailed++
		}
		// Evaluate the failure rate once all permitted probes have resolved
		if b.probesResolved >= b.config.HalfOpenCalls {
			rate := float64(b.probesFailed) / float64(b.probesResolved) * 100
			if rate >= b.config.FailureRateThreshold {
				return b.transitionTo(StateOpen)
			}
			b.window.reset()
			return b.transitionTo(StateClosed)
		}
	}

	return noTransition
}

// releaseProbe returns a half-open probe slot whose call resolved to
// neither success nor failure
func (b *Breaker) releaseProbe() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateHalfOpen && b.probesAdmitted > 0 {
		b.probesAdmitted--
	}
}

// transitionTo switches state (caller holds the lock)
func (b *Breaker) transitionTo(newState State) stateTransition {
	t := stateTransition{happened: true, from: b.state, to: newState}
	b.state = newState
	b.lastTransition = time.Now()
	if newState == StateHalfOpen || newState == StateOpen {
		b.probesAdmitted = 0
		b.probesResolved = 0
		b.probesFailed = 0
	}
	return t
}

// notify fires transition listeners outside the lock
func (b *Breaker) notify(ctx context.Context, t stateTransition) {
	if !t.happened {
		return
	}

	b.logger.InfoCtx(ctx, "🎯 [Breaker] state changed",
		zap.String("name", b.name),
		zap.String("from", t.from.String()),
		zap.String("to", t.to.String()))

	if b.metrics != nil {
		b.metrics.recordTransition(ctx, b.name, t.to)
	}

	b.mu.Lock()
	listeners := make([]StateChangeListener, len(b.listeners))
	copy(listeners, b.listeners)
	b.mu.Unlock()

	for _, l := range listeners {
		l(t.from, t.to)
	}
}
