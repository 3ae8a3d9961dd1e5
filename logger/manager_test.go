package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// TestNewManager creates an independent Manager instance
func TestNewManager(t *testing.T) {
	tmpDir := t.TempDir()
	logDir := filepath.Join(tmpDir, "test")

	cfg := ManagerConfig{
		BaseLogDir: logDir,
		Level:      "info",
		Encoding:   "json",
	}

	manager := NewManager(cfg)
	assert.NotNil(t, manager)
	assert.Equal(t, logDir, manager.baseConfig.BaseLogDir)
	assert.Equal(t, "info", manager.baseConfig.Level)
	assert.NotNil(t, manager.loggers)
}

// TestManager_GetLogger same module returns the same instance
func TestManager_GetLogger(t *testing.T) {
	manager := NewManager(ManagerConfig{
		BaseLogDir:    t.TempDir(),
		EnableConsole: false,
		EnableFile:    false,
	})

	a := manager.GetLogger("breaker")
	b := manager.GetLogger("breaker")
	c := manager.GetLogger("telemetry")

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
}

// TestManager_FileOutput log lines land in the per-module file
func TestManager_FileOutput(t *testing.T) {
	logDir := t.TempDir()

	manager := NewManager(ManagerConfig{
		BaseLogDir:    logDir,
		Level:         "debug",
		Encoding:      "json",
		EnableConsole: false,
		EnableFile:    true,
		MaxSize:       10,
	})

	log := manager.GetLogger("telemetry")
	log.Info("batch pushed", zap.Int("size", 3))
	manager.CloseAll()

	path := filepath.Join(logDir, "telemetry", "telemetry.log")
	assert.FileExists(t, path)

	content, err := os.ReadFile(path)
	assert.NoError(t, err)
	assert.Contains(t, string(content), "batch pushed")
	assert.Contains(t, string(content), `"module":"telemetry"`)
	assert.Contains(t, string(content), `"size":3`)
}

// TestParseLevel level string mapping with info fallback
func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("info"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("warn"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("nonsense"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel(""))
}

// TestDefaultManagerConfig zero fields are filled, set fields kept
func TestDefaultManagerConfig(t *testing.T) {
	cfg := ManagerConfig{Level: "error"}
	cfg.ApplyDefaults()

	assert.Equal(t, "error", cfg.Level)
	assert.Equal(t, "logs", cfg.BaseLogDir)
	assert.Equal(t, "json", cfg.Encoding)
	assert.Equal(t, 100, cfg.MaxSize)
	assert.Equal(t, 3, cfg.MaxBackups)
	assert.Equal(t, 28, cfg.MaxAge)
	assert.Equal(t, "trace_id", cfg.TraceIDKey)
	assert.Equal(t, "trace_id", cfg.TraceIDFieldName)
}
