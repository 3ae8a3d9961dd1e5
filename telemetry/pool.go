package telemetry

import (
	"github.com/KOMKZ/go-dbtelemetry/logger"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

// Pool fixed-size worker pool shared by all telemetry clients.
// Bounded concurrency is the pipeline's backpressure valve: once the pool
// is saturated, flush submissions queue instead of spawning unbounded
// concurrent network calls.
type Pool struct {
	inner  *ants.Pool
	logger *logger.CtxZapLogger
}

// NewPool creates a worker pool of the given size
func NewPool(size int) (*Pool, error) {
	inner, err := ants.NewPool(size)
	if err != nil {
		return nil, err
	}
	return &Pool{
		inner:  inner,
		logger: logger.GetLogger("telemetry"),
	}, nil
}

// Submit schedules a task on the pool. Telemetry is best-effort: a
// submission failure (pool released) is logged and the task dropped.
func (p *Pool) Submit(task func()) {
	if err := p.inner.Submit(task); err != nil {
		p.logger.Debug("dropping telemetry task, pool unavailable", zap.Error(err))
	}
}

// Running returns the number of currently running workers
func (p *Pool) Running() int {
	return p.inner.Running()
}

// Release shuts the pool down
func (p *Pool) Release() {
	p.inner.Release()
}
