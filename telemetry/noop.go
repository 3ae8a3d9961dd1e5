package telemetry

import "context"

// noopClient stateless sink used when telemetry is disabled or disallowed
// for a connection: structurally present, functionally absent
type noopClient struct{}

var sharedNoopClient = &noopClient{}

// NoopClient returns the shared no-op client instance
func NoopClient() Client {
	return sharedNoopClient
}

func (*noopClient) ExportEvent(context.Context, *Event) error { return nil }

func (*noopClient) Close() error { return nil }
