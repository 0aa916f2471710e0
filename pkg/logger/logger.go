package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log is the global application logger. Init must run before any package
// logs; a nop logger is installed so early calls never panic.
var Log = zap.NewNop()

// Init configures the global logger. level is one of debug/info/warn/error
// (empty falls back to CHATSYNC_LOG_LEVEL, then info); format is "json" or
// "console".
func Init(level, format string) {
	if level == "" {
		level = os.Getenv("CHATSYNC_LOG_LEVEL")
	}
	var lv zapcore.Level
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		lv = zapcore.DebugLevel
	case "warn", "warning":
		lv = zapcore.WarnLevel
	case "error":
		lv = zapcore.ErrorLevel
	default:
		lv = zapcore.InfoLevel
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	var enc zapcore.Encoder
	if strings.EqualFold(format, "console") {
		enc = zapcore.NewConsoleEncoder(encCfg)
	} else {
		enc = zapcore.NewJSONEncoder(encCfg)
	}

	core := zapcore.NewCore(enc, zapcore.Lock(os.Stdout), lv)
	Log = zap.New(core)
}

// Sync flushes buffered log entries; called on shutdown.
func Sync() {
	_ = Log.Sync()
}
