package logger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const maxLoggedSQL = 1000

// GormLogger routes GORM statement logs to zap, tagged with the request id.
type GormLogger struct {
	log   *zap.Logger
	slow  time.Duration
	level gormlogger.LogLevel
}

// NewGormLoggerWithConfig maps the service log level onto GORM's levels.
// Statements slower than slowQuerySeconds are reported as warnings; zero
// disables the check.
func NewGormLoggerWithConfig(zapLogger *zap.Logger, slowQuerySeconds float64, logLevel string) *GormLogger {
	return &GormLogger{
		log:   zapLogger.Named("gorm"),
		slow:  time.Duration(slowQuerySeconds * float64(time.Second)),
		level: gormLevel(logLevel),
	}
}

func gormLevel(s string) gormlogger.LogLevel {
	switch strings.ToLower(s) {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info", "debug":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}

// LogMode implements gormlogger.Interface
func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	cp := *l
	cp.level = level
	return &cp
}

// Info implements gormlogger.Interface
func (l *GormLogger) Info(ctx context.Context, msg string, data ...any) {
	l.printf(ctx, gormlogger.Info, zapcore.InfoLevel, msg, data)
}

// Warn implements gormlogger.Interface
func (l *GormLogger) Warn(ctx context.Context, msg string, data ...any) {
	l.printf(ctx, gormlogger.Warn, zapcore.WarnLevel, msg, data)
}

// Error implements gormlogger.Interface
func (l *GormLogger) Error(ctx context.Context, msg string, data ...any) {
	l.printf(ctx, gormlogger.Error, zapcore.ErrorLevel, msg, data)
}

func (l *GormLogger) printf(ctx context.Context, need gormlogger.LogLevel, lvl zapcore.Level, msg string, data []any) {
	if l.level < need {
		return
	}
	WithContext(ctx, l.log).Log(lvl, fmt.Sprintf(msg, data...))
}

// Trace logs one executed statement. Missing rows are expected for user
// lookups and are not errors; a canceled or expired request context is a
// warning since the caller already gave up.
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()
	fields := []zap.Field{
		zap.Int64("rows", rows),
		zap.Duration("elapsed", elapsed),
	}
	if len(sql) > maxLoggedSQL {
		fields = append(fields, zap.String("sql", sql[:maxLoggedSQL]+"..."), zap.Bool("sql_truncated", true))
	} else {
		fields = append(fields, zap.String("sql", sql))
	}

	log := WithContext(ctx, l.log)

	switch {
	case err != nil && errors.Is(err, gorm.ErrRecordNotFound):
	case err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)):
		if l.level >= gormlogger.Warn {
			log.Warn("gorm query canceled", append(fields, zap.Error(err))...)
		}
		return
	case err != nil:
		log.Error("gorm query error", append(fields, zap.Error(err))...)
		return
	}

	if l.slow > 0 && elapsed > l.slow && l.level >= gormlogger.Warn {
		log.Warn("gorm slow query", append(fields, zap.Duration("threshold", l.slow))...)
		return
	}

	if l.level >= gormlogger.Info {
		log.Debug("gorm query", fields...)
	}
}
