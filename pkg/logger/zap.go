package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type zapLogger struct {
	log *zap.SugaredLogger
}

// NewZapLogger создаёт production-логгер zap с заданным уровнем.
func NewZapLogger(level string) (Logger, error) {
	lvl := zapcore.InfoLevel
	if level != "" {
		parsed, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("parse zap level: %w", err)
		}
		lvl = parsed
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	log, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, fmt.Errorf("build zap logger: %w", err)
	}

	return &zapLogger{log: log.Sugar()}, nil
}

func (l *zapLogger) Debugf(format string, args ...any) {
	l.log.Debugf(format, args...)
}

func (l *zapLogger) Infof(format string, args ...any) {
	l.log.Infof(format, args...)
}

func (l *zapLogger) Warnf(format string, args ...any) {
	l.log.Warnf(format, args...)
}

func (l *zapLogger) Errorf(err error, format string, args ...any) {
	l.log.Errorw(fmt.Sprintf(format, args...), "error", err)
}
