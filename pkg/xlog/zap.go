package xlog

import (
	"flag"
	"fmt"
	"os"
	"path"
	"runtime"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	Zap = zap.NewNop()

	EnvMode  = "development"
	EnvColor = false

	optsName    string
	optsLogPath string
)

func init() {
	if mode := os.Getenv("XLOG_MODE"); mode != "" {
		EnvMode = mode
	}

	color := os.Getenv("XLOG_COLOR")
	if color == "" {
		// colored output only for interactive runs, never under go test
		if flag.Lookup("test.v") == nil {
			color = "true"
		} else {
			color = "false"
		}
	}
	EnvColor = color != "false" && color != "0"
}

// Init builds the zap core for app, writing json lines to logPath.
func Init(app string, logPath string) {
	if app == "" {
		app = "trademan"
	}
	if logPath == "" {
		logPath = path.Join("logs", app+".log")
	}

	optsName = app
	optsLogPath = logPath

	Zap = NewZap(EnvMode != "release")
	Zap.Info("zap init succeed", FileField())
}

func NewZap(debug bool) *zap.Logger {
	rotate := &lumberjack.Logger{
		Filename:   optsLogPath,
		MaxSize:    128, // MB
		MaxAge:     30,  // days
		MaxBackups: 30,
		Compress:   false,
	}
	console := &consoleWriter{color: EnvColor}

	encoderConfig := zapcore.EncoderConfig{
		MessageKey:     "msg",
		LevelKey:       "level",
		TimeKey:        "time",
		NameKey:        "logger",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.TimeEncoderOfLayout("2006-01-02T15:04:05.000Z07:00"),
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeName:     zapcore.FullNameEncoder,
	}

	atomicLevel := zap.NewAtomicLevelAt(zap.InfoLevel)
	if debug {
		atomicLevel.SetLevel(zap.DebugLevel)
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.NewMultiWriteSyncer(zapcore.AddSync(rotate), zapcore.AddSync(console)),
		atomicLevel,
	)

	return zap.New(core, zap.Fields(zap.String("app", optsName)))
}

func FileField() zap.Field {
	return zap.String("file", FileWithLineNum())
}

// FileWithLineNum reports the first caller outside of the logging plumbing as dir/file:line.
func FileWithLineNum() string {
	var (
		file string
		line int
	)

	for i := 1; i < 15; i++ {
		_file, _line := callerAt(i)
		if _file == "" {
			break
		}
		if !strings.Contains(_file, "/pkg/xlog/") &&
			!strings.Contains(_file, "/pkg/model/xgorm/") &&
			!strings.Contains(_file, "gorm.io/gorm") {
			file, line = _file, _line
			break
		}
	}

	ss := strings.Split(file, "/")
	var dir, fname string
	if len(ss) > 0 {
		fname = ss[len(ss)-1]
	}
	if len(ss) > 1 {
		dir = ss[len(ss)-2]
	}
	return fmt.Sprintf("%s/%s:%d", dir, fname, line)
}

func callerAt(skip int) (string, int) {
	_, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return "", 0
	}
	return file, line
}
