package telemetry

import (
	"fmt"
	"sync"

	"github.com/KOMKZ/go-dbtelemetry/breaker"
	"github.com/KOMKZ/go-dbtelemetry/logger"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

// defaultPoolSize size of the shared worker pool
const defaultPoolSize = 10

// PushClientProvider builds the transport collaborator for a connection.
// creds is nil for unauthenticated clients.
type PushClientProvider func(conn ConnectionContext, creds *Credentials) PushClient

// Factory process-wide authority over telemetry-client lifecycle.
// Explicitly constructed so tests get isolated instances; one shared
// fixed-size worker pool for all clients.
type Factory struct {
	mu            sync.Mutex
	clients       map[string]Client // keyed by connection id, authenticated
	noauthClients map[string]Client // keyed by connection id, unauthenticated

	pool           *Pool
	provider       PushClientProvider
	resolver       CredentialsResolver
	breakerMetrics *breaker.OTelMetrics
	logger         *logger.CtxZapLogger
}

// FactoryOption configures a Factory
type FactoryOption func(*factoryOptions)

type factoryOptions struct {
	poolSize       int
	resolver       CredentialsResolver
	breakerMetrics *breaker.OTelMetrics
}

// WithPoolSize overrides the shared worker pool size
func WithPoolSize(size int) FactoryOption {
	return func(o *factoryOptions) { o.poolSize = size }
}

// WithCredentialsResolver sets the authentication collaborator.
// Without one every connection lands in the unauthenticated map.
func WithCredentialsResolver(r CredentialsResolver) FactoryOption {
	return func(o *factoryOptions) { o.resolver = r }
}

// WithBreakerMetrics attaches an OTel recorder to every breaker the
// factory creates
func WithBreakerMetrics(m *breaker.OTelMetrics) FactoryOption {
	return func(o *factoryOptions) { o.breakerMetrics = m }
}

// NewFactory creates a factory with its shared worker pool
func NewFactory(provider PushClientProvider, opts ...FactoryOption) (*Factory, error) {
	if provider == nil {
		return nil, fmt.Errorf("telemetry: push client provider is required")
	}

	options := &factoryOptions{poolSize: defaultPoolSize}
	for _, opt := range opts {
		opt(options)
	}

	pool, err := NewPool(options.poolSize)
	if err != nil {
		return nil, fmt.Errorf("telemetry: create worker pool: %w", err)
	}

	return &Factory{
		clients:        make(map[string]Client),
		noauthClients:  make(map[string]Client),
		pool:           pool,
		provider:       provider,
		resolver:       options.resolver,
		breakerMetrics: options.breakerMetrics,
		logger:         logger.GetLogger("telemetry"),
	}, nil
}

// GetClient returns the telemetry client for a connection, creating and
// memoizing it on first request. Telemetry-disallowed connections get the
// shared no-op client and no registry entry.
func (f *Factory) GetClient(conn ConnectionContext) Client {
	if conn == nil || !conn.TelemetryAllowed() {
		return NoopClient()
	}

	creds, err := f.resolveCredentials(conn)
	if err == nil {
		return f.getOrCreate(f.clients, conn, creds)
	}

	// Connection setup failed: still collect limited unauthenticated telemetry
	f.logger.Debug("credentials unavailable, using unauthenticated telemetry client",
		zap.String("connection_id", conn.ConnectionID()),
		zap.Error(err))
	return f.getOrCreate(f.noauthClients, conn, nil)
}

// resolveCredentials asks the collaborator for delivery credentials
func (f *Factory) resolveCredentials(conn ConnectionContext) (*Credentials, error) {
	if f.resolver == nil {
		return nil, fmt.Errorf("telemetry: no credentials resolver configured")
	}
	return f.resolver.Resolve(conn)
}

// getOrCreate memoizes one client per connection id per map (thread-safe)
func (f *Factory) getOrCreate(clients map[string]Client, conn ConnectionContext, creds *Credentials) Client {
	id := conn.ConnectionID()

	f.mu.Lock()
	defer f.mu.Unlock()

	if client, exists := clients[id]; exists {
		return client
	}

	client := f.newClient(conn, creds)
	clients[id] = client
	return client
}

// newClient builds the per-connection client, breaker-wrapped when the
// connection's breaker config is enabled.
// The export and push paths each get their own breaker: an enqueue success
// must never dilute the window that collector failures count against.
func (f *Factory) newClient(conn ConnectionContext, creds *Credentials) Client {
	pushClient := f.provider(conn, creds)

	cfg := BreakerConfigFromContext(conn)
	if !cfg.Enabled {
		return NewTelemetryClient(conn, f.pool, pushClient)
	}

	pushBreaker, err := breaker.New("telemetry:push:"+conn.HostURL(), cfg,
		breaker.WithClassifier(newExportClassifier()),
		breaker.WithMetrics(f.breakerMetrics),
	)
	if err != nil {
		f.logger.Warn("invalid breaker config, using undecorated telemetry client",
			zap.String("connection_id", conn.ConnectionID()),
			zap.Error(err))
		return NewTelemetryClient(conn, f.pool, pushClient)
	}
	exportBreaker, err := breaker.New("telemetry:export:"+conn.HostURL(), cfg,
		breaker.WithClassifier(newExportClassifier()),
		breaker.WithMetrics(f.breakerMetrics),
	)
	if err != nil {
		f.logger.Warn("invalid breaker config, using undecorated telemetry client",
			zap.String("connection_id", conn.ConnectionID()),
			zap.Error(err))
		return NewTelemetryClient(conn, f.pool, pushClient)
	}

	base := NewTelemetryClient(conn, f.pool, newBreakerPushClient(pushClient, pushBreaker))
	return NewCircuitBreakerClient(base, exportBreaker)
}

// newExportClassifier failure buckets for telemetry delivery:
// transport/availability and server-side errors plus pool exhaustion count
// against the breaker; programmer errors are ignored
func newExportClassifier() breaker.Classifier {
	return breaker.NewClassifier(
		[]breaker.Matcher{
			breaker.MatchTransport(),
			breaker.MatchHTTPServerError(),
			breaker.MatchErrors(ants.ErrPoolOverload),
		},
		[]breaker.Matcher{
			breaker.MatchErrors(ErrNilEvent, ErrClientClosed),
		},
	)
}

// CloseClient removes and closes both entries for a connection.
// Idempotent; a close failure on one entry never prevents closing the
// other and never propagates.
func (f *Factory) CloseClient(conn ConnectionContext) {
	if conn == nil {
		return
	}
	id := conn.ConnectionID()

	f.mu.Lock()
	client := f.clients[id]
	delete(f.clients, id)
	noauthClient := f.noauthClients[id]
	delete(f.noauthClients, id)
	f.mu.Unlock()

	f.closeQuietly(client, "telemetry client")
	f.closeQuietly(noauthClient, "unauthenticated telemetry client")
}

// Reset closes every live client and clears both maps (test/teardown hook)
func (f *Factory) Reset() {
	f.mu.Lock()
	clients := f.clients
	noauthClients := f.noauthClients
	f.clients = make(map[string]Client)
	f.noauthClients = make(map[string]Client)
	f.mu.Unlock()

	for _, client := range clients {
		f.closeQuietly(client, "telemetry client")
	}
	for _, client := range noauthClients {
		f.closeQuietly(client, "unauthenticated telemetry client")
	}
}

// Close resets the factory and releases the shared worker pool
func (f *Factory) Close() {
	f.Reset()
	f.pool.Release()
}

// closeQuietly closes one client, logging instead of propagating
func (f *Factory) closeQuietly(client Client, clientType string) {
	if client == nil {
		return
	}
	if err := client.Close(); err != nil {
		f.logger.Debug("caught error while closing "+clientType, zap.Error(err))
	}
}

var (
	defaultFactory   *Factory
	defaultFactoryMu sync.RWMutex
)

// SetDefault installs the process-wide factory used by Default()
func SetDefault(f *Factory) {
	defaultFactoryMu.Lock()
	defaultFactory = f
	defaultFactoryMu.Unlock()
}

// Default returns the process-wide factory, or nil when none is installed
func Default() *Factory {
	defaultFactoryMu.RLock()
	defer defaultFactoryMu.RUnlock()
	return defaultFactory
}
