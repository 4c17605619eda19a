// Package xgorm routes gorm's statement log into xlog.
package xgorm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"trademan/pkg/xlog"

	gl "gorm.io/gorm/logger"
)

var ErrRecordNotFound = gl.ErrRecordNotFound

const (
	Silent = gl.Silent
	Error  = gl.Error
	Warn   = gl.Warn
	Info   = gl.Info
)

type LogLevel = gl.LogLevel

type Config = gl.Config

// Interface logger interface
type Interface = gl.Interface

var zapLogger = xlog.GetLogger().With("module", "gorm")

func New(config Config) Interface {
	return &logger{Config: config}
}

type logger struct {
	Config
}

// LogMode log mode
func (l *logger) LogMode(level LogLevel) Interface {
	newlogger := *l
	newlogger.LogLevel = level
	return &newlogger
}

func (l logger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= Info {
		zapLogger.Infof("%s "+msg, append([]interface{}{xlog.FileWithLineNum()}, data...)...)
	}
}

func (l logger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= Warn {
		zapLogger.Warningf("%s "+msg, append([]interface{}{xlog.FileWithLineNum()}, data...)...)
	}
}

func (l logger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= Error {
		zapLogger.Errorf("%s "+msg, append([]interface{}{xlog.FileWithLineNum()}, data...)...)
	}
}

// Trace print sql message
func (l logger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.LogLevel <= Silent {
		return
	}

	elapsed := float64(time.Since(begin).Nanoseconds()) / 1e6
	switch {
	case err != nil && l.LogLevel >= Error && (!errors.Is(err, ErrRecordNotFound) || !l.IgnoreRecordNotFoundError):
		sql, rows := fc()
		zapLogger.Errorf("%s %s [%.3fms] [rows:%s] %s", xlog.FileWithLineNum(), err, elapsed, fmtRows(rows), sql)
	case l.SlowThreshold != 0 && time.Since(begin) > l.SlowThreshold && l.LogLevel >= Warn:
		sql, rows := fc()
		zapLogger.Warningf("%s SLOW SQL >= %v [%.3fms] [rows:%s] %s", xlog.FileWithLineNum(), l.SlowThreshold, elapsed, fmtRows(rows), sql)
	case l.LogLevel == Info:
		sql, rows := fc()
		zapLogger.Debugf("%s [%.3fms] [rows:%s] %s", xlog.FileWithLineNum(), elapsed, fmtRows(rows), sql)
	}
}

func fmtRows(rows int64) string {
	if rows == -1 {
		return "-"
	}
	return fmt.Sprint(rows)
}
