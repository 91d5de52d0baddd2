// Package log provides the process-wide structured logger: zap writing
// through a rotating lumberjack sink, the same setup the teacher's
// server/logger.go uses, generalized to hand out named per-package
// loggers instead of one global.
package log

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var base *zap.Logger

// Init wires zap to a rotating file sink. filePath is the log file; an
// empty filePath falls back to stderr (useful for local runs).
func Init(filePath string) error {
	var ws zapcore.WriteSyncer
	if filePath == "" {
		ws = zapcore.Lock(zapcore.AddSync(os.Stderr))
	} else {
		lj := &lumberjack.Logger{
			Filename:   filePath,
			MaxSize:    10, // MB
			MaxBackups: 3,
			MaxAge:     7, // days
			Compress:   false,
		}
		ws = zapcore.AddSync(lj)
	}

	encCfg := zapcore.EncoderConfig{
		TimeKey:       "ts",
		LevelKey:      "level",
		NameKey:       "logger",
		CallerKey:     "caller",
		MessageKey:    "msg",
		StacktraceKey: "stack",
		LineEnding:    zapcore.DefaultLineEnding,
		EncodeLevel:   zapcore.CapitalLevelEncoder,
		EncodeTime:    zapcore.ISO8601TimeEncoder,
		EncodeCaller:  zapcore.ShortCallerEncoder,
	}
	encoder := zapcore.NewConsoleEncoder(encCfg)
	core := zapcore.NewCore(encoder, ws, zapcore.DebugLevel)

	base = zap.New(core, zap.AddCaller())
	return nil
}

// Named returns a SugaredLogger scoped to a package/component name, e.g.
// log.Named("collision").
func Named(name string) *zap.SugaredLogger {
	if base == nil {
		_ = Init("")
	}
	return base.Named(name).Sugar()
}

// Sync flushes any buffered log entries; call on shutdown.
func Sync() {
	if base != nil {
		_ = base.Sync()
	}
}
