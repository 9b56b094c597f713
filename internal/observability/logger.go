package observability

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel represents logging levels
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) zapLevel() zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// ParseLevel maps a LOG_LEVEL value to a LogLevel, defaulting to info
func ParseLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Logger provides structured logging with context
type Logger struct {
	z *zap.Logger
}

// contextKey for logger context
type contextKey string

const (
	loggerKey    contextKey = "logger"
	requestIDKey contextKey = "request_id"
	connIDKey    contextKey = "connection_id"
)

var (
	defaultLogger *Logger
	once          sync.Once
)

// NewLogger creates a JSON logger writing to stdout
func NewLogger(service, environment string, minLevel LogLevel) *Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.MessageKey = "message"
	encCfg.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encCfg),
		zapcore.Lock(os.Stdout),
		minLevel.zapLevel(),
	)
	return NewLoggerWithCore(service, environment, core)
}

// NewLoggerWithCore builds a Logger on top of an existing zap core
func NewLoggerWithCore(service, environment string, core zapcore.Core) *Logger {
	fields := []zap.Field{zap.String("service", service)}
	if environment != "" {
		fields = append(fields, zap.String("environment", environment))
	}
	return &Logger{z: zap.New(core).With(fields...)}
}

// GetLogger returns the default logger, creating it if necessary
func GetLogger() *Logger {
	once.Do(func() {
		service := os.Getenv("SERVICE_NAME")
		if service == "" {
			service = "ws-listener"
		}
		defaultLogger = NewLogger(service, os.Getenv("ENVIRONMENT"), ParseLevel(os.Getenv("LOG_LEVEL")))
	})
	return defaultLogger
}

// WithContext adds logger to context
func WithContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext retrieves logger from context
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerKey).(*Logger); ok {
		return l
	}
	return GetLogger()
}

// WithRequestID adds request ID to context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// WithConnectionID adds connection ID to context
func WithConnectionID(ctx context.Context, connID string) context.Context {
	return context.WithValue(ctx, connIDKey, connID)
}

// ConnectionIDFromContext returns the connection ID stored by WithConnectionID
func ConnectionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(connIDKey).(string)
	return id
}

// Sync flushes buffered entries
func (l *Logger) Sync() error {
	return l.z.Sync()
}

func (l *Logger) log(ctx context.Context, level LogLevel, msg string, fields map[string]interface{}, err error) {
	ce := l.z.Check(level.zapLevel(), msg)
	if ce == nil {
		return
	}

	zf := toZapFields(fields)
	if reqID, ok := ctx.Value(requestIDKey).(string); ok {
		zf = append(zf, zap.String("request_id", reqID))
	}
	if connID, ok := ctx.Value(connIDKey).(string); ok {
		zf = append(zf, zap.String("connection_id", connID))
	}
	if err != nil {
		zf = append(zf, zap.Error(err))
		if level == LevelError {
			zf = append(zf, zap.StackSkip("stack", 2))
		}
	}

	ce.Write(zf...)
}

func toZapFields(fields map[string]interface{}) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	zf := make([]zap.Field, 0, len(keys))
	for _, k := range keys {
		zf = append(zf, zap.Any(k, fields[k]))
	}
	return zf
}

// Debug logs a debug message
func (l *Logger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {
	var f map[string]interface{}
	if len(fields) > 0 {
		f = fields[0]
	}
	l.log(ctx, LevelDebug, msg, f, nil)
}

// Info logs an info message
func (l *Logger) Info(ctx context.Context, msg string, fields ...map[string]interface{}) {
	var f map[string]interface{}
	if len(fields) > 0 {
		f = fields[0]
	}
	l.log(ctx, LevelInfo, msg, f, nil)
}

// Warn logs a warning message
func (l *Logger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {
	var f map[string]interface{}
	if len(fields) > 0 {
		f = fields[0]
	}
	l.log(ctx, LevelWarn, msg, f, nil)
}

// Error logs an error message
func (l *Logger) Error(ctx context.Context, msg string, err error, fields ...map[string]interface{}) {
	var f map[string]interface{}
	if len(fields) > 0 {
		f = fields[0]
	}
	l.log(ctx, LevelError, msg, f, err)
}

// WithDuration logs with duration tracking
func (l *Logger) WithDuration(ctx context.Context, operation string, start time.Time, err error) {
	fields := map[string]interface{}{
		"operation":   operation,
		"duration_ms": time.Since(start).Milliseconds(),
	}

	if err != nil {
		l.Error(ctx, fmt.Sprintf("%s failed", operation), err, fields)
	} else {
		l.Debug(ctx, fmt.Sprintf("%s completed", operation), fields)
	}
}

// Timer returns a function to log duration
func (l *Logger) Timer(ctx context.Context, operation string) func(error) {
	start := time.Now()
	return func(err error) {
		l.WithDuration(ctx, operation, start, err)
	}
}
