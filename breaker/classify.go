package breaker

import (
	"context"
	"errors"
	"net"
	"syscall"
)

// Classification outcome bucket for one call
type Classification int

const (
	// ClassSuccess the call completed normally
	ClassSuccess Classification = iota

	// ClassFailure counts against the failure rate threshold
	ClassFailure

	// ClassIgnored counts as neither success nor failure
	ClassIgnored
)

// Classifier buckets a call result for the breaker
type Classifier interface {
	Classify(err error) Classification
}

// Matcher reports whether an error belongs to a bucket
type Matcher func(error) bool

// HTTPStatusError errors from the transport collaborator may expose a status code
type HTTPStatusError interface {
	error
	StatusCode() int
}

// MatchErrors matches any of the targets via errors.Is
func MatchErrors(targets ...error) Matcher {
	return func(err error) bool {
		for _, target := range targets {
			if errors.Is(err, target) {
				return true
			}
		}
		return false
	}
}

// MatchTransport matches transport/availability failures:
// network errors, refused/reset/timed-out connections, DNS failures,
// and context deadline expiry
func MatchTransport() Matcher {
	return func(err error) bool {
		if errors.Is(err, context.DeadlineExceeded) {
			return true
		}

		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) {
			return true
		}

		var netErr net.Error
		if errors.As(err, &netErr) {
			return true
		}

		return errors.Is(err, syscall.ECONNREFUSED) ||
			errors.Is(err, syscall.ECONNRESET) ||
			errors.Is(err, syscall.ETIMEDOUT) ||
			errors.Is(err, syscall.EPIPE) ||
			errors.Is(err, syscall.EHOSTUNREACH)
	}
}

// MatchHTTPServerError matches server-side HTTP errors (status >= 500)
func MatchHTTPServerError() Matcher {
	return func(err error) bool {
		var httpErr HTTPStatusError
		if errors.As(err, &httpErr) {
			return httpErr.StatusCode() >= 500
		}
		return false
	}
}

// classifier list-based classifier
// Any unmatched non-nil error defaults to failure: the operation escaped
type classifier struct {
	failure []Matcher
	ignored []Matcher
}

// NewClassifier creates a classifier from failure and ignored matcher lists
// Ignored wins over failure when both match
func NewClassifier(failure, ignored []Matcher) Classifier {
	return &classifier{failure: failure, ignored: ignored}
}

// DefaultClassifier counts transport and server-side errors as failures
// and everything else that escaped as failure too; nothing is ignored
func DefaultClassifier() Classifier {
	return NewClassifier([]Matcher{MatchTransport(), MatchHTTPServerError()}, nil)
}

func (c *classifier) Classify(err error) Classification {
	if err == nil {
		return ClassSuccess
	}

	for _, m := range c.ignored {
		if m(err) {
			return ClassIgnored
		}
	}
	for _, m := range c.failure {
		if m(err) {
			return ClassFailure
		}
	}

	return ClassFailure
}
