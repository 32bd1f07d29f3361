package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var InfoLogger *zap.Logger

var (
	serviceName = "default"
)

func SetServiceName(newName string) string {
	oldName := serviceName
	serviceName = newName

	return oldName
}

// Init собирает production-логгер с нужным уровнем и ставит его глобально.
func Init(level string) (*zap.Logger, error) {
	lvl := zapcore.InfoLevel
	if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil && level != "" {
		return nil, fmt.Errorf("parse log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}

	InfoLogger = l.With(zap.String("service", serviceName))
	return InfoLogger, nil
}

// L глобальный логгер; Nop, если Init не вызывали.
func L() *zap.Logger {
	if InfoLogger == nil {
		return zap.NewNop()
	}
	return InfoLogger
}

// Error printf-обёртка для мест без своего логгера (pkg/db, pkg/tracing).
func Error(format string, args ...interface{}) {
	L().Error(fmt.Sprintf(format, args...))
}
