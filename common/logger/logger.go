package logger

import (
	"os"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// FileOptions rotation settings for an optional log file.
type FileOptions struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// ParseLevel maps "debug", "info", "warn", "error" to a zap level (default info).
func ParseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// NewLogger builds a zap logger.
// format "console" selects the development config, anything else JSON to stdout.
// serviceName and hostname are attached to every entry.
func NewLogger(level string, format string, serviceName string) (*zap.Logger, error) {
	baseLogger, err := build(level, format)
	if err != nil {
		return nil, err
	}
	return withServiceFields(baseLogger, serviceName), nil
}

func build(level string, format string) (*zap.Logger, error) {
	var config zap.Config
	if format == "console" {
		config = zap.NewDevelopmentConfig()
	} else {
		config = zap.NewProductionConfig()
		config.EncoderConfig.TimeKey = "timestamp"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		config.OutputPaths = []string{"stdout"}
		config.ErrorOutputPaths = []string{"stderr"}
	}
	config.Level = zap.NewAtomicLevelAt(ParseLevel(level))
	return config.Build()
}

// NewFileLogger is NewLogger plus a rotating JSON file sink.
func NewFileLogger(level string, format string, serviceName string, file FileOptions) (*zap.Logger, error) {
	base, err := build(level, format)
	if err != nil {
		return nil, err
	}
	if file.Path == "" {
		return withServiceFields(base, serviceName), nil
	}

	rotator := &lumberjack.Logger{
		Filename:   file.Path,
		MaxSize:    file.MaxSizeMB,
		MaxBackups: file.MaxBackups,
		MaxAge:     file.MaxAgeDays,
		Compress:   file.Compress,
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	fileCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(rotator),
		ParseLevel(level),
	)

	combined := base.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, fileCore)
	}))
	return withServiceFields(combined, serviceName), nil
}

func withServiceFields(l *zap.Logger, serviceName string) *zap.Logger {
	if serviceName != "" {
		l = l.With(zap.String("service_name", serviceName))
	}
	if hostname, err := os.Hostname(); err == nil && hostname != "" {
		l = l.With(zap.String("hostname", hostname))
	}
	return l
}
