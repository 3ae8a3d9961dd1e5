package logger

// ManagerConfig global manager configuration (shared by all modules)
type ManagerConfig struct {
	BaseLogDir    string `mapstructure:"base_log_dir"` // Log root directory (default logs/)
	Level         string `mapstructure:"level"`
	AppName       string `mapstructure:"app_name"` // Application name (injected into all logs)
	Encoding      string `mapstructure:"encoding"` // json or console
	EnableFile    bool   `mapstructure:"enable_file"`
	EnableConsole bool   `mapstructure:"enable_console"`

	// File rotation configuration
	MaxSize    int  `mapstructure:"max_size"`    // Maximum size of a single file (MB)
	MaxBackups int  `mapstructure:"max_backups"` // Number of old files to keep
	MaxAge     int  `mapstructure:"max_age"`     // Retention days
	Compress   bool `mapstructure:"compress"`

	EnableCaller bool `mapstructure:"enable_caller"`

	// Trace ID configuration
	EnableTraceID    bool   `mapstructure:"enable_trace_id"`
	TraceIDKey       string `mapstructure:"trace_id_key"`        // key in context (default "trace_id")
	TraceIDFieldName string `mapstructure:"trace_id_field_name"` // log field name (default "trace_id")
}

// DefaultManagerConfig returns the default manager configuration
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		BaseLogDir:       "logs",
		Level:            "info",
		Encoding:         "json",
		EnableConsole:    true,
		EnableFile:       false,
		MaxSize:          100,
		MaxBackups:       3,
		MaxAge:           28,
		Compress:         true,
		EnableCaller:     true,
		EnableTraceID:    true,
		TraceIDKey:       "trace_id",
		TraceIDFieldName: "trace_id",
	}
}

// ApplyDefaults fills zero-valued fields with default values (in-place)
// For handling missing or zero-valued fields in configuration files
func (c *ManagerConfig) ApplyDefaults() {
	defaults := DefaultManagerConfig()

	if c.BaseLogDir == "" {
		c.BaseLogDir = defaults.BaseLogDir
	}
	if c.Level == "" {
		c.Level = defaults.Level
	}
	if c.Encoding == "" {
		c.Encoding = defaults.Encoding
	}
	if c.MaxSize == 0 {
		c.MaxSize = defaults.MaxSize
	}
	if c.MaxBackups == 0 {
		c.MaxBackups = defaults.MaxBackups
	}
	if c.MaxAge == 0 {
		c.MaxAge = defaults.MaxAge
	}
	if c.TraceIDKey == "" {
		c.TraceIDKey = defaults.TraceIDKey
	}
	if c.TraceIDFieldName == "" {
		c.TraceIDFieldName = defaults.TraceIDFieldName
	}
}
