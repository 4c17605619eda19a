// Package xlog is the process-wide leveled logger. Messages are written by zap to a
// rotating json file and mirrored to a colored console line.
package xlog

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

const (
	TRACE = iota
	DEBUG
	INFO
	WARNING
	ERROR
	FATAL
)

var levelNames = []string{
	"TRACE",
	"DEBUG",
	"INFO",
	"WARNING",
	"ERROR",
	"FATAL",
}

// Logger filters by level and forwards to the shared zap instance. Children created with
// With share the level of their parent.
type Logger struct {
	level  *atomic.Int32
	fields []zap.Field
}

var (
	_logger *Logger
	once    sync.Once
)

// GetLogger returns the process logger, its level read from XLOG_LVL on first use.
func GetLogger() *Logger {
	once.Do(func() {
		lvl := strings.ToUpper(os.Getenv("XLOG_LVL"))
		_logger = &Logger{level: new(atomic.Int32)}
		_logger.level.Store(int32(ParseLevel(lvl)))
	})
	return _logger
}

// ParseLevel accepts the short and long level names, defaulting to INFO.
func ParseLevel(lvl string) int {
	switch strings.ToUpper(lvl) {
	case "T", "TRC", "TRACE":
		return TRACE
	case "D", "DBG", "DEBUG":
		return DEBUG
	case "W", "WRN", "WARN", "WARNING":
		return WARNING
	case "E", "ERR", "ERROR":
		return ERROR
	case "F", "FTL", "FATAL":
		return FATAL
	}
	return INFO
}

// With returns a child logger that attaches key=value to every entry.
func (s *Logger) With(key string, value interface{}) *Logger {
	fields := make([]zap.Field, 0, len(s.fields)+1)
	fields = append(fields, s.fields...)
	fields = append(fields, zap.Any(key, value))
	return &Logger{level: s.level, fields: fields}
}

func (s *Logger) SetLevel(level string) {
	n := ParseLevel(level)
	s.level.Store(int32(n))
	s.Infof("set xlog level to %s", levelNames[n])
}

func (s *Logger) GetLevel() int {
	return int(s.level.Load())
}

func (s *Logger) enabled(lvl int) bool {
	return lvl >= int(s.level.Load())
}

func (s *Logger) entry(tag, msg string) (string, []zap.Field) {
	fields := make([]zap.Field, 0, len(s.fields)+1)
	fields = append(fields, FileField())
	fields = append(fields, s.fields...)
	return "[" + tag + "] " + msg, fields
}

func (s *Logger) write(out func(string, ...zap.Field), tag, msg string) {
	msg, fields := s.entry(tag, msg)
	out(msg, fields...)
}

func (s *Logger) Trace(args ...interface{}) {
	if s.enabled(TRACE) {
		s.write(Zap.Debug, "TRC", fmt.Sprint(args...))
	}
}

func (s *Logger) Tracef(format string, args ...interface{}) {
	if s.enabled(TRACE) {
		s.write(Zap.Debug, "TRC", fmt.Sprintf(format, args...))
	}
}

func (s *Logger) Debug(args ...interface{}) {
	if s.enabled(DEBUG) {
		s.write(Zap.Debug, "DBG", fmt.Sprint(args...))
	}
}

func (s *Logger) Debugf(format string, args ...interface{}) {
	if s.enabled(DEBUG) {
		s.write(Zap.Debug, "DBG", fmt.Sprintf(format, args...))
	}
}

func (s *Logger) Info(args ...interface{}) {
	if s.enabled(INFO) {
		s.write(Zap.Info, "INF", fmt.Sprint(args...))
	}
}

func (s *Logger) Infof(format string, args ...interface{}) {
	if s.enabled(INFO) {
		s.write(Zap.Info, "INF", fmt.Sprintf(format, args...))
	}
}

func (s *Logger) Warning(args ...interface{}) {
	if s.enabled(WARNING) {
		s.write(Zap.Warn, "WRN", fmt.Sprint(args...))
	}
}

func (s *Logger) Warningf(format string, args ...interface{}) {
	if s.enabled(WARNING) {
		s.write(Zap.Warn, "WRN", fmt.Sprintf(format, args...))
	}
}

func (s *Logger) Error(args ...interface{}) {
	if s.enabled(ERROR) {
		s.write(Zap.Error, "ERR", fmt.Sprint(args...))
	}
}

func (s *Logger) Errorf(format string, args ...interface{}) {
	if s.enabled(ERROR) {
		s.write(Zap.Error, "ERR", fmt.Sprintf(format, args...))
	}
}

// Fatal logs and exits the process.
func (s *Logger) Fatal(args ...interface{}) {
	s.write(Zap.Error, "FTL", fmt.Sprint(args...))
	_ = Zap.Sync()
	os.Exit(1)
}

func (s *Logger) Fatalf(format string, args ...interface{}) {
	s.write(Zap.Error, "FTL", fmt.Sprintf(format, args...))
	_ = Zap.Sync()
	os.Exit(1)
}

// Write lets the logger stand in for an io.Writer (stdlib log, gorm writer).
func (s *Logger) Write(p []byte) (n int, err error) {
	if len(p) == 0 {
		return 0, nil
	}
	Zap.Info(strings.TrimRight(string(p), "\n"), FileField())
	return len(p), nil
}
