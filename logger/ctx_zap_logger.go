package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// CtxZapLogger context-aware zap logger wrapper
// The module is bound at creation time; callers only pass ctx
// Obtain instances through GetLogger() or Manager.GetLogger()
type CtxZapLogger struct {
	base   *zap.Logger
	module string
	config *ManagerConfig
}

// InfoCtx logs at Info level (trace id extracted automatically)
func (l *CtxZapLogger) InfoCtx(ctx context.Context, msg string, fields ...zap.Field) {
	l.base.Info(msg, l.enrichFields(ctx, fields)...)
}

// Info logs at Info level without a context
func (l *CtxZapLogger) Info(msg string, fields ...zap.Field) {
	l.InfoCtx(context.Background(), msg, fields...)
}

// DebugCtx logs at Debug level (trace id extracted automatically)
func (l *CtxZapLogger) DebugCtx(ctx context.Context, msg string, fields ...zap.Field) {
	l.base.Debug(msg, l.enrichFields(ctx, fields)...)
}

// Debug logs at Debug level without a context
func (l *CtxZapLogger) Debug(msg string, fields ...zap.Field) {
	l.DebugCtx(context.Background(), msg, fields...)
}

// WarnCtx logs at Warn level (trace id extracted automatically)
func (l *CtxZapLogger) WarnCtx(ctx context.Context, msg string, fields ...zap.Field) {
	l.base.Warn(msg, l.enrichFields(ctx, fields)...)
}

// Warn logs at Warn level without a context
func (l *CtxZapLogger) Warn(msg string, fields ...zap.Field) {
	l.WarnCtx(context.Background(), msg, fields...)
}

// ErrorCtx logs at Error level (trace id extracted automatically)
func (l *CtxZapLogger) ErrorCtx(ctx context.Context, msg string, fields ...zap.Field) {
	l.base.Error(msg, l.enrichFields(ctx, fields)...)
}

// Error logs at Error level without a context
func (l *CtxZapLogger) Error(msg string, fields ...zap.Field) {
	l.ErrorCtx(context.Background(), msg, fields...)
}

// With returns a new logger with preset fields (chainable)
func (l *CtxZapLogger) With(fields ...zap.Field) *CtxZapLogger {
	return &CtxZapLogger{
		base:   l.base.With(fields...),
		module: l.module,
		config: l.config,
	}
}

// GetZapLogger returns the underlying *zap.Logger (for third-party integration)
func (l *CtxZapLogger) GetZapLogger() *zap.Logger {
	return l.base
}

// enrichFields adds app_name and trace id automatically
// The module field is already added by Manager.GetLogger()
func (l *CtxZapLogger) enrichFields(ctx context.Context, fields []zap.Field) []zap.Field {
	enriched := make([]zap.Field, 0, len(fields)+2)

	if l.config != nil && l.config.AppName != "" {
		enriched = append(enriched, zap.String("app_name", l.config.AppName))
	}

	if l.config != nil && l.config.EnableTraceID {
		if traceID := extractTraceIDFromContext(ctx, l.config); traceID != "" {
			fieldName := l.config.TraceIDFieldName
			if fieldName == "" {
				fieldName = "trace_id"
			}
			enriched = append(enriched, zap.String(fieldName, traceID))
		}
	}

	return append(enriched, fields...)
}

// extractTraceIDFromContext extracts the trace id from the context
// Priority: OpenTelemetry span context > configured context key
func extractTraceIDFromContext(ctx context.Context, cfg *ManagerConfig) string {
	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		return span.SpanContext().TraceID().String()
	}

	key := "trace_id"
	if cfg != nil && cfg.TraceIDKey != "" {
		key = cfg.TraceIDKey
	}
	if val := ctx.Value(key); val != nil {
		if traceID, ok := val.(string); ok {
			return traceID
		}
	}

	return ""
}
