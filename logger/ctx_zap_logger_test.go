package logger

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newFileManager(t *testing.T, logDir string) *Manager {
	return NewManager(ManagerConfig{
		BaseLogDir:       logDir,
		Level:            "debug",
		Encoding:         "json",
		EnableConsole:    false,
		EnableFile:       true,
		EnableTraceID:    true,
		TraceIDKey:       "trace_id",
		TraceIDFieldName: "trace_id",
		MaxSize:          10,
	})
}

// TestCtxZapLogger_AllMethods every level with and without context
func TestCtxZapLogger_AllMethods(t *testing.T) {
	logDir := t.TempDir()
	manager := newFileManager(t, logDir)

	log := manager.GetLogger("test")
	ctx := context.WithValue(context.Background(), "trace_id", "trace-123")

	log.DebugCtx(ctx, "debug with ctx", zap.Int("count", 10))
	log.Debug("debug without ctx")
	log.InfoCtx(ctx, "info with ctx", zap.String("key", "value"))
	log.Info("info without ctx")
	log.WarnCtx(ctx, "warn with ctx", zap.Bool("flag", true))
	log.Warn("warn without ctx")
	log.ErrorCtx(ctx, "error with ctx")
	log.Error("error without ctx")
	manager.CloseAll()

	content, err := os.ReadFile(filepath.Join(logDir, "test", "test.log"))
	assert.NoError(t, err)
	out := string(content)

	assert.Contains(t, out, "debug with ctx")
	assert.Contains(t, out, "info without ctx")
	assert.Contains(t, out, "warn with ctx")
	assert.Contains(t, out, "error without ctx")
	assert.Contains(t, out, `"trace_id":"trace-123"`)
	assert.Contains(t, out, `"count":10`)
}

// TestCtxZapLogger_With preset fields appear on every line
func TestCtxZapLogger_With(t *testing.T) {
	logDir := t.TempDir()
	manager := newFileManager(t, logDir)

	log := manager.GetLogger("conn").With(zap.String("connection_id", "c-42"))
	log.Info("first")
	log.Info("second")
	manager.CloseAll()

	content, err := os.ReadFile(filepath.Join(logDir, "conn", "conn.log"))
	assert.NoError(t, err)
	out := string(content)

	assert.Contains(t, out, "first")
	assert.Contains(t, out, "second")
	assert.Equal(t, 2, strings.Count(out, `"connection_id":"c-42"`))
}

// TestCtxZapLogger_AppName injected into every record when configured
func TestCtxZapLogger_AppName(t *testing.T) {
	logDir := t.TempDir()
	manager := NewManager(ManagerConfig{
		BaseLogDir:    logDir,
		Level:         "debug",
		Encoding:      "json",
		EnableConsole: false,
		EnableFile:    true,
		AppName:       "dbtelemetry",
		MaxSize:       10,
	})

	manager.GetLogger("app").Info("hello")
	manager.CloseAll()

	content, err := os.ReadFile(filepath.Join(logDir, "app", "app.log"))
	assert.NoError(t, err)
	assert.Contains(t, string(content), `"app_name":"dbtelemetry"`)
}
