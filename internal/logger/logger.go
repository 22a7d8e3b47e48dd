package logger

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Revetex/tradeguard/internal/trace"
)

// Config selects level ("debug", "info", "warn", "error") and
// format ("json" or "console").
type Config struct {
	Level  string
	Format string
}

var global atomic.Pointer[zap.SugaredLogger]

func init() {
	global.Store(zap.NewNop().Sugar())
}

// Init builds the process logger. Until it is called every log call is a no-op.
func Init(cfg Config) error {
	lvl, err := parseLevel(cfg.Level)
	if err != nil {
		return err
	}

	zc := zap.NewProductionConfig()
	if strings.EqualFold(cfg.Format, "console") || strings.EqualFold(cfg.Format, "text") {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(lvl)
	zc.EncoderConfig.TimeKey = "time"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zc.OutputPaths = []string{"stderr"}

	l, err := zc.Build(zap.AddCallerSkip(2))
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	global.Store(l.Sugar())
	return nil
}

// Use installs l as the process logger. Tests use it with zaptest/observer.
func Use(l *zap.Logger) {
	global.Store(l.WithOptions(zap.AddCallerSkip(2)).Sugar())
}

// Sync flushes buffered entries.
func Sync() error {
	return global.Load().Sync()
}

func parseLevel(s string) (zapcore.Level, error) {
	if s == "" {
		return zapcore.InfoLevel, nil
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(s))); err != nil {
		return lvl, fmt.Errorf("unknown log level %q", s)
	}
	return lvl, nil
}

func Debug(ctx context.Context, msg string, kv ...any) { log(ctx, zapcore.DebugLevel, msg, kv) }
func Info(ctx context.Context, msg string, kv ...any)  { log(ctx, zapcore.InfoLevel, msg, kv) }
func Warn(ctx context.Context, msg string, kv ...any)  { log(ctx, zapcore.WarnLevel, msg, kv) }
func Error(ctx context.Context, msg string, kv ...any) { log(ctx, zapcore.ErrorLevel, msg, kv) }

// ErrorWithErr logs err and marks the active span as failed.
func ErrorWithErr(ctx context.Context, msg string, err error, kv ...any) {
	trace.Fail(ctx, err)
	log(ctx, zapcore.ErrorLevel, msg, append([]any{"error", err}, kv...))
}

func log(ctx context.Context, lvl zapcore.Level, msg string, kv []any) {
	if ctx != nil {
		if traceID, spanID, ok := trace.IDs(ctx); ok {
			kv = append([]any{"trace_id", traceID, "span_id", spanID}, kv...)
		}
	}
	global.Load().Logw(lvl, msg, kv...)
}
