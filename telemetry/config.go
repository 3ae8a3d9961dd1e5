package telemetry

import (
	"strconv"
	"time"

	"github.com/KOMKZ/go-dbtelemetry/breaker"
	"github.com/spf13/viper"
)

// Connection property keys understood by the pipeline
const (
	PropBreakerEnabled       = "telemetry.circuit.breaker.enabled"
	PropBreakerFailureRate   = "telemetry.circuit.breaker.failure.rate"
	PropBreakerMinCalls      = "telemetry.circuit.breaker.min.calls"
	PropBreakerWindowSize    = "telemetry.circuit.breaker.window.size"
	PropBreakerWaitDuration  = "telemetry.circuit.breaker.wait.duration" // seconds
	PropBreakerHalfOpenCalls = "telemetry.circuit.breaker.half.open.calls"

	PropBatchSize           = "telemetry.batch.size"
	PropFlushIntervalMillis = "telemetry.flush.interval.millis"
)

// Defaults applied when a property is unset or unparsable
const (
	defaultBatchSize     = 200
	defaultFlushInterval = 60 * time.Second
)

// BreakerConfigFromContext maps connection properties onto a breaker
// configuration. Unset or unparsable values fall back to the documented
// defaults: enabled=true, failure rate 50%, minimum calls 10, window 20,
// wait duration 60s, half-open calls 5.
func BreakerConfigFromContext(conn ConnectionContext) breaker.Config {
	defaults := breaker.DefaultConfig()

	v := viper.New()
	v.SetDefault(PropBreakerEnabled, defaults.Enabled)
	v.SetDefault(PropBreakerFailureRate, defaults.FailureRateThreshold)
	v.SetDefault(PropBreakerMinCalls, defaults.MinimumCalls)
	v.SetDefault(PropBreakerWindowSize, defaults.WindowSize)
	v.SetDefault(PropBreakerWaitDuration, int(defaults.WaitDuration/time.Second))
	v.SetDefault(PropBreakerHalfOpenCalls, defaults.HalfOpenCalls)

	setBoolProperty(v, conn, PropBreakerEnabled)
	setFloatProperty(v, conn, PropBreakerFailureRate)
	setIntProperty(v, conn, PropBreakerMinCalls)
	setIntProperty(v, conn, PropBreakerWindowSize)
	setIntProperty(v, conn, PropBreakerWaitDuration)
	setIntProperty(v, conn, PropBreakerHalfOpenCalls)

	return breaker.Config{
		Enabled:              v.GetBool(PropBreakerEnabled),
		FailureRateThreshold: v.GetFloat64(PropBreakerFailureRate),
		MinimumCalls:         v.GetInt(PropBreakerMinCalls),
		WindowSize:           v.GetInt(PropBreakerWindowSize),
		WaitDuration:         time.Duration(v.GetInt(PropBreakerWaitDuration)) * time.Second,
		HalfOpenCalls:        v.GetInt(PropBreakerHalfOpenCalls),
	}
}

// batchConfigFromContext resolves the flush policy for a connection:
// batch-size threshold plus an optional periodic interval (0 disables)
func batchConfigFromContext(conn ConnectionContext) (batchSize int, flushInterval time.Duration) {
	v := viper.New()
	v.SetDefault(PropBatchSize, defaultBatchSize)
	v.SetDefault(PropFlushIntervalMillis, int(defaultFlushInterval/time.Millisecond))

	setIntProperty(v, conn, PropBatchSize)
	setIntProperty(v, conn, PropFlushIntervalMillis)

	batchSize = v.GetInt(PropBatchSize)
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	flushInterval = time.Duration(v.GetInt(PropFlushIntervalMillis)) * time.Millisecond
	if flushInterval < 0 {
		flushInterval = 0
	}
	return batchSize, flushInterval
}

// setIntProperty overlays a connection property when it parses as an integer
func setIntProperty(v *viper.Viper, conn ConnectionContext, key string) {
	raw, ok := conn.Property(key)
	if !ok {
		return
	}
	if n, err := strconv.Atoi(raw); err == nil {
		v.Set(key, n)
	}
}

// setFloatProperty overlays a connection property when it parses as a float
func setFloatProperty(v *viper.Viper, conn ConnectionContext, key string) {
	raw, ok := conn.Property(key)
	if !ok {
		return
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		v.Set(key, f)
	}
}

// setBoolProperty overlays a connection property when it parses as a bool
func setBoolProperty(v *viper.Viper, conn ConnectionContext, key string) {
	raw, ok := conn.Property(key)
	if !ok {
		return
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		v.Set(key, b)
	}
}
