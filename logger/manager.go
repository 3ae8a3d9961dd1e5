package logger

import (
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Manager logger manager (manages one logger instance per module)
type Manager struct {
	baseConfig ManagerConfig
	loggers    map[string]*CtxZapLogger
	writers    map[string]*lumberjack.Logger // module name -> file writer (for closing)
	mu         sync.RWMutex
}

var (
	globalManager *Manager
	managerOnce   sync.Once
)

// NewManager creates an independent Manager instance
// Zero-valued fields in cfg are filled with defaults
func NewManager(cfg ManagerConfig) *Manager {
	cfg.ApplyDefaults()
	return &Manager{
		baseConfig: cfg,
		loggers:    make(map[string]*CtxZapLogger),
		writers:    make(map[string]*lumberjack.Logger),
	}
}

// InitManager initializes the global logger manager (only once)
func InitManager(cfg ManagerConfig) {
	managerOnce.Do(func() {
		globalManager = NewManager(cfg)
	})
}

// GetLogger returns the CtxZapLogger for a module (thread-safe, created on demand)
// The returned logger already carries the module field
func (m *Manager) GetLogger(moduleName string) *CtxZapLogger {
	m.mu.RLock()
	if l, exists := m.loggers[moduleName]; exists {
		m.mu.RUnlock()
		return l
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double check to avoid concurrent creation
	if l, exists := m.loggers[moduleName]; exists {
		return l
	}

	zapLogger := m.createLogger(moduleName)
	ctxLogger := &CtxZapLogger{
		base:   zapLogger.With(zap.String("module", moduleName)).WithOptions(zap.AddCallerSkip(1)),
		module: moduleName,
		config: &m.baseConfig,
	}
	m.loggers[moduleName] = ctxLogger
	return ctxLogger
}

// createLogger creates the underlying zap.Logger for a module
func (m *Manager) createLogger(moduleName string) *zap.Logger {
	encoder := createEncoder(m.baseConfig)
	level := ParseLevel(m.baseConfig.Level)

	var cores []zapcore.Core

	if m.baseConfig.EnableConsole {
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), level))
	}

	if m.baseConfig.EnableFile {
		path := filepath.Join(m.baseConfig.BaseLogDir, moduleName, moduleName+".log")
		writer, lumber := createFileWriter(path, m.baseConfig)
		m.writers[moduleName] = lumber
		cores = append(cores, zapcore.NewCore(encoder, writer, level))
	}

	var opts []zap.Option
	if m.baseConfig.EnableCaller {
		opts = append(opts, zap.AddCaller())
	}

	return zap.New(zapcore.NewTee(cores...), opts...)
}

// CloseAll closes all loggers (called at process exit)
// Flushes buffers and closes all file handles
func (m *Manager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, l := range m.loggers {
		_ = l.base.Sync()
	}
	for _, w := range m.writers {
		_ = w.Close()
	}

	m.loggers = make(map[string]*CtxZapLogger)
	m.writers = make(map[string]*lumberjack.Logger)
}

// ParseLevel parses a level string into a zapcore.Level (default info)
func ParseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// createEncoder creates the encoder
func createEncoder(cfg ManagerConfig) zapcore.Encoder {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		MessageKey:     "msg",
		CallerKey:      "caller",
		StacktraceKey:  "stack",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	if cfg.Encoding == "console" {
		return zapcore.NewConsoleEncoder(encoderConfig)
	}
	return zapcore.NewJSONEncoder(encoderConfig)
}

// createFileWriter creates a rotating file writer
func createFileWriter(filename string, cfg ManagerConfig) (zapcore.WriteSyncer, *lumberjack.Logger) {
	_ = os.MkdirAll(filepath.Dir(filename), 0755)

	lumber := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
		LocalTime:  true,
	}
	return zapcore.AddSync(lumber), lumber
}

// GetLogger returns the CtxZapLogger for a module from the global manager
// Initializes the global manager with defaults if needed
func GetLogger(moduleName string) *CtxZapLogger {
	if globalManager == nil {
		InitManager(DefaultManagerConfig())
	}
	return globalManager.GetLogger(moduleName)
}

// CloseAll closes all loggers of the global manager
func CloseAll() {
	if globalManager == nil {
		return
	}
	globalManager.CloseAll()
}
