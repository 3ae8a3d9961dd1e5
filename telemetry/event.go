// Package telemetry implements the driver's telemetry export pipeline:
// per-connection clients batch operational events and deliver them to a
// remote collector asynchronously, best-effort, without ever surfacing a
// failure into the caller's query path.
package telemetry

import (
	"encoding/json"
	"errors"
)

var (
	// ErrNilEvent reported when a nil event is exported (programmer error,
	// never counted against the circuit breaker)
	ErrNilEvent = errors.New("telemetry: nil event")

	// ErrClientClosed reported when exporting through a closed client
	ErrClientClosed = errors.New("telemetry: client is closed")
)

// Event one operational occurrence produced by driver internals.
// Immutable once enqueued. Absent fields are omitted from the
// serialized form (non-null-only policy).
type Event struct {
	Kind            string         `json:"kind,omitempty"`
	TimestampMillis int64          `json:"timestampMillis,omitempty"`
	ConnectionID    string         `json:"connectionId,omitempty"`
	SessionID       string         `json:"sessionId,omitempty"`
	StatementID     string         `json:"statementId,omitempty"`
	ErrorName       string         `json:"errorName,omitempty"`
	LatencyMillis   int64          `json:"latencyMillis,omitempty"`
	Payload         map[string]any `json:"payload,omitempty"`
}

// serialize renders the event as a single JSON string
func (e *Event) serialize() (string, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Request the batch artifact sent to the collector: an upload timestamp
// plus the serialized payloads that survived serialization
type Request struct {
	UploadTimeMillis int64    `json:"uploadTimeMillis"`
	ProtoLogs        []string `json:"protoLogs"`
}
