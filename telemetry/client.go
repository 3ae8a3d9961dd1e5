package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/KOMKZ/go-dbtelemetry/logger"
)

// Client narrow capability interface implemented by the real client, the
// circuit-breaker decorator and the no-op client, so callers never branch
type Client interface {
	// ExportEvent enqueues one event. O(1), never blocks on network I/O.
	// The returned error reports programmer mistakes (nil event, closed
	// client) only; delivery failures are handled asynchronously.
	ExportEvent(ctx context.Context, event *Event) error

	// Close flushes what is queued and releases the client
	Close() error
}

// TelemetryClient owns one connection's outbound event queue and flushes
// it through the shared worker pool
type TelemetryClient struct {
	conn       ConnectionContext
	pool       *Pool
	pushClient PushClient
	logger     *logger.CtxZapLogger

	batchSize     int
	flushInterval time.Duration

	mu     sync.Mutex
	queue  []*Event
	closed bool

	stopFlusher chan struct{}
	flusherDone chan struct{}
}

// NewTelemetryClient creates a client for one connection, bound to the
// shared pool. Flush policy (batch size, periodic interval) is resolved
// from the connection's properties.
func NewTelemetryClient(conn ConnectionContext, pool *Pool, pushClient PushClient) *TelemetryClient {
	batchSize, flushInterval := batchConfigFromContext(conn)

	c := &TelemetryClient{
		conn:          conn,
		pool:          pool,
		pushClient:    pushClient,
		logger:        logger.GetLogger("telemetry"),
		batchSize:     batchSize,
		flushInterval: flushInterval,
		queue:         make([]*Event, 0, batchSize),
	}

	if flushInterval > 0 {
		c.stopFlusher = make(chan struct{})
		c.flusherDone = make(chan struct{})
		go c.flushLoop()
	}

	return c
}

// ExportEvent enqueues an event; flushes when the batch threshold is reached
func (c *TelemetryClient) ExportEvent(ctx context.Context, event *Event) error {
	if event == nil {
		return ErrNilEvent
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClientClosed
	}
	c.queue = append(c.queue, event)
	pending := len(c.queue)
	c.mu.Unlock()

	if pending >= c.batchSize {
		c.Flush(ctx)
	}
	return nil
}

// Flush drains the queue and submits a push task to the shared pool.
// A no-op when the queue is empty.
func (c *TelemetryClient) Flush(ctx context.Context) {
	batch := c.drain()
	if len(batch) == 0 {
		return
	}

	task := newPushTask(batch, c.pushClient, c.logger)
	c.pool.Submit(task.Run)
}

// drain swaps the queue out atomically so concurrent producers never
// observe a partially drained queue and two flushes never double-send
func (c *TelemetryClient) drain() []*Event {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.queue) == 0 {
		return nil
	}
	batch := c.queue
	c.queue = make([]*Event, 0, c.batchSize)
	return batch
}

// Close stops the periodic flusher and pushes whatever is still queued.
// The final push runs synchronously: connection teardown is off the hot
// path and the pool may already be saturated or released.
func (c *TelemetryClient) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	if c.stopFlusher != nil {
		close(c.stopFlusher)
		<-c.flusherDone
	}

	if batch := c.drain(); len(batch) > 0 {
		newPushTask(batch, c.pushClient, c.logger).Run()
	}
	return nil
}

// flushLoop periodically flushes until the client closes
func (c *TelemetryClient) flushLoop() {
	defer close(c.flusherDone)

	ticker := time.NewTicker(c.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.Flush(context.Background())
		case <-c.stopFlusher:
			return
		}
	}
}

// pending returns the queued event count (diagnostics and tests)
func (c *TelemetryClient) pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

var _ Client = (*TelemetryClient)(nil)
