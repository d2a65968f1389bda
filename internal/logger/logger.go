package logger

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is replaced by Init at startup. The no-op default keeps packages
// that log usable from tests without initialization.
var Logger = zap.NewNop()

// Init builds the process-wide logger. Development gets a colored console
// logger; production gets JSON to stdout plus a size-rotated file.
func Init(environment, logDir string) error {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.MessageKey = "message"
	encCfg.LevelKey = "level"
	encCfg.CallerKey = "caller"
	encCfg.StacktraceKey = "stacktrace"

	var core zapcore.Core
	if environment == "production" {
		enc := zapcore.NewJSONEncoder(encCfg)
		sinks := []zapcore.Core{
			zapcore.NewCore(enc, zapcore.AddSync(os.Stdout), zap.InfoLevel),
		}
		if logDir != "" {
			if err := os.MkdirAll(logDir, 0755); err == nil {
				rotated := &lumberjack.Logger{
					Filename:   filepath.Join(logDir, "digipiggy-hub.log"),
					MaxSize:    10, // megabytes
					MaxBackups: 3,
					MaxAge:     28, // days
					Compress:   true,
				}
				sinks = append(sinks, zapcore.NewCore(enc, zapcore.AddSync(rotated), zap.InfoLevel))
			}
		}
		core = zapcore.NewTee(sinks...)
	} else {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		core = zapcore.NewCore(
			zapcore.NewConsoleEncoder(encCfg),
			zapcore.AddSync(os.Stdout),
			zap.DebugLevel,
		)
	}

	Logger = zap.New(core,
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
	zap.ReplaceGlobals(Logger)

	return nil
}

func Sync() {
	if Logger != nil {
		_ = Logger.Sync()
	}
}

func WithRequestID(requestID string) *zap.Logger {
	return Logger.With(zap.String("request_id", requestID))
}

func Debug(msg string, fields ...zap.Field) {
	Logger.Debug(msg, fields...)
}

func Info(msg string, fields ...zap.Field) {
	Logger.Info(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	Logger.Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	Logger.Error(msg, fields...)
}

func Fatal(msg string, fields ...zap.Field) {
	Logger.Fatal(msg, fields...)
}
