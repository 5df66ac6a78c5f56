package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log is the global logger. It is a no-op logger until Initialize is called so
// packages can log safely from tests.
var Log = zap.NewNop()

// Initialize sets up the structured logger.
// logLevel: "debug", "info", "warn", "error" (default: "info")
// logFile: JSON log file rotated by lumberjack; empty means console only.
func Initialize(logLevel string, logFile string) error {
	if logLevel == "" {
		logLevel = "info"
	}
	level := parseLogLevel(logLevel)

	consoleCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(os.Stdout),
		level,
	)

	cores := []zapcore.Core{consoleCore}
	if logFile != "" {
		jsonEncoderConfig := zap.NewProductionEncoderConfig()
		jsonEncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(jsonEncoderConfig),
			zapcore.AddSync(&lumberjack.Logger{
				Filename:   logFile,
				MaxSize:    50, // megabytes
				MaxBackups: 5,
				MaxAge:     14, // days
				Compress:   true,
			}),
			level,
		))
	}

	Log = zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))

	Log.Info("Logger initialized",
		zap.String("level", logLevel),
		zap.String("file", logFile),
	)
	return nil
}

// Close flushes buffered entries.
func Close() error {
	return Log.Sync()
}

func parseLogLevel(levelStr string) zapcore.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// InfoWithFields logs an info message with structured fields
func InfoWithFields(msg string, fields ...zap.Field) {
	Log.Info(msg, fields...)
}

// WarnWithFields logs a warning with an optional error and extra fields.
func WarnWithFields(msg string, err error, fields ...zap.Field) {
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	Log.Warn(msg, fields...)
}

// ErrorWithFields logs an error with an optional error and extra fields.
func ErrorWithFields(msg string, err error, fields ...zap.Field) {
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	Log.Error(msg, fields...)
}

func DebugWithFields(msg string, fields ...zap.Field) {
	Log.Debug(msg, fields...)
}

// FatalWithFields logs and exits. Only used by binaries during startup.
func FatalWithFields(msg string, err error) {
	if err != nil {
		Log.Fatal(msg, zap.Error(err))
	}
	Log.Fatal(msg)
}

func WithRequestID(requestID string) zap.Field {
	return zap.String("request_id", requestID)
}

func WithUserID(userID string) zap.Field {
	return zap.String("user_id", userID)
}

func WithPostID(postID string) zap.Field {
	return zap.String("post_id", postID)
}

func WithWritingID(writingID string) zap.Field {
	return zap.String("writing_id", writingID)
}

func WithCommentID(commentID string) zap.Field {
	return zap.String("comment_id", commentID)
}

func WithRoom(room string) zap.Field {
	return zap.String("room", room)
}

func WithIP(ip string) zap.Field {
	return zap.String("ip", ip)
}

func WithStatus(status int) zap.Field {
	return zap.Int("status", status)
}

func WithMediaKey(key string) zap.Field {
	return zap.String("media_key", key)
}
