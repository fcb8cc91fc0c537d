package logfilefx

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewWriter returns a rotating writer, or nil when file logging is disabled.
func NewWriter(config Config) *lumberjack.Logger {
	if config.Filename == "" {
		return nil
	}

	return &lumberjack.Logger{
		Filename:   config.Filename,
		MaxSize:    config.MaxSizeMB,
		MaxBackups: config.MaxBackups,
		MaxAge:     config.MaxAgeDays,
		Compress:   config.Compress,
	}
}

// Tee duplicates every entry base would write into w as JSON, at the same
// levels base has enabled.
func Tee(base *zap.Logger, w zapcore.WriteSyncer) *zap.Logger {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return base.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		file := zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderConfig),
			w,
			zap.LevelEnablerFunc(core.Enabled),
		)

		return zapcore.NewTee(core, file)
	}))
}
