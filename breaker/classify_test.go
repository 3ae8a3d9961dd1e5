package breaker

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

type statusError struct {
	code int
}

func (e *statusError) Error() string   { return fmt.Sprintf("status %d", e.code) }
func (e *statusError) StatusCode() int { return e.code }

// TestMatchTransport connection-level failures are recognized even when wrapped
func TestMatchTransport(t *testing.T) {
	m := MatchTransport()

	cases := []struct {
		name  string
		err   error
		match bool
	}{
		{"connection refused", syscall.ECONNREFUSED, true},
		{"connection reset", syscall.ECONNRESET, true},
		{"timed out", syscall.ETIMEDOUT, true},
		{"broken pipe", syscall.EPIPE, true},
		{"host unreachable", syscall.EHOSTUNREACH, true},
		{"deadline exceeded", context.DeadlineExceeded, true},
		{"wrapped refused", fmt.Errorf("push: %w", syscall.ECONNREFUSED), true},
		{"dns failure", &net.DNSError{Err: "no such host", Name: "collector"}, true},
		{"op error", &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}, true},
		{"plain error", errors.New("boom"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.match, m(tc.err))
		})
	}
}

// TestMatchHTTPServerError 5xx counts, 4xx does not
func TestMatchHTTPServerError(t *testing.T) {
	m := MatchHTTPServerError()

	assert.True(t, m(&statusError{code: 500}))
	assert.True(t, m(&statusError{code: 503}))
	assert.False(t, m(&statusError{code: 404}))
	assert.False(t, m(&statusError{code: 429}))
	assert.False(t, m(errors.New("no status")))

	t.Run("wrapped status error", func(t *testing.T) {
		err := fmt.Errorf("push: %w", &statusError{code: 502})
		assert.True(t, m(err))
	})
}

// TestClassifier bucket resolution order and the escaped-error default
func TestClassifier(t *testing.T) {
	errIgnored := errors.New("ignored")

	c := NewClassifier(
		[]Matcher{MatchTransport()},
		[]Matcher{MatchErrors(errIgnored)},
	)

	t.Run("nil is success", func(t *testing.T) {
		assert.Equal(t, ClassSuccess, c.Classify(nil))
	})

	t.Run("failure matcher", func(t *testing.T) {
		assert.Equal(t, ClassFailure, c.Classify(syscall.ECONNRESET))
	})

	t.Run("ignored matcher", func(t *testing.T) {
		assert.Equal(t, ClassIgnored, c.Classify(errIgnored))
	})

	t.Run("ignored wins over failure", func(t *testing.T) {
		both := NewClassifier(
			[]Matcher{MatchErrors(errIgnored)},
			[]Matcher{MatchErrors(errIgnored)},
		)
		assert.Equal(t, ClassIgnored, both.Classify(errIgnored))
	})

	t.Run("unmatched error defaults to failure", func(t *testing.T) {
		assert.Equal(t, ClassFailure, c.Classify(errors.New("unexpected")))
	})
}

// TestDefaultClassifier transport and 5xx are failures, nothing is ignored
func TestDefaultClassifier(t *testing.T) {
	c := DefaultClassifier()

	assert.Equal(t, ClassSuccess, c.Classify(nil))
	assert.Equal(t, ClassFailure, c.Classify(syscall.ECONNREFUSED))
	assert.Equal(t, ClassFailure, c.Classify(&statusError{code: 500}))
	assert.Equal(t, ClassFailure, c.Classify(errors.New("anything else")))
}
