package telemetry

import (
	"context"

	"github.com/google/uuid"
)

// ConnectionContext exposes what the pipeline needs to know about one
// driver connection. Implemented by the surrounding driver; ConnContext
// below is a ready-made implementation.
type ConnectionContext interface {
	// ConnectionID stable identifier for this connection
	ConnectionID() string

	// HostURL collector endpoint host for this connection
	HostURL() string

	// TelemetryAllowed whether telemetry may be collected at all
	TelemetryAllowed() bool

	// Property returns a raw connection property value
	Property(key string) (string, bool)
}

// Credentials delivery credentials resolved for a connection
type Credentials struct {
	Host  string
	Token string
}

// CredentialsResolver resolves authentication config for a connection.
// A resolution failure routes the connection to the unauthenticated
// client map so setup failures still get diagnostic telemetry.
type CredentialsResolver interface {
	Resolve(conn ConnectionContext) (*Credentials, error)
}

// PushClient transmits one serialized batch to the collector.
// The implementation owns transport concerns including low-level retries;
// the pipeline never retries a push.
type PushClient interface {
	PushEvent(ctx context.Context, req *Request) error
}

// ConnContext plain ConnectionContext implementation
type ConnContext struct {
	ID             string
	Host           string
	AllowTelemetry bool
	Properties     map[string]string
}

// NewConnContext creates a connection context with a generated identifier
// and telemetry allowed
func NewConnContext(host string, properties map[string]string) *ConnContext {
	return &ConnContext{
		ID:             uuid.NewString(),
		Host:           host,
		AllowTelemetry: true,
		Properties:     properties,
	}
}

func (c *ConnContext) ConnectionID() string { return c.ID }

func (c *ConnContext) HostURL() string { return c.Host }

func (c *ConnContext) TelemetryAllowed() bool { return c.AllowTelemetry }

func (c *ConnContext) Property(key string) (string, bool) {
	v, ok := c.Properties[key]
	return v, ok
}
