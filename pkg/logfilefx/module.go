package logfilefx

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Module tees the application logger into a rotating file. It is not
// wrapped in fx.Module so the decoration reaches every named logger.
func Module() fx.Option {
	return fx.Options(
		fx.Provide(NewWriter),
		fx.Decorate(func(l *zap.Logger, w *lumberjack.Logger) *zap.Logger {
			if w == nil {
				return l
			}
			return Tee(l, zapcore.AddSync(w))
		}),
		fx.Invoke(func(w *lumberjack.Logger, lc fx.Lifecycle) {
			if w == nil {
				return
			}
			lc.Append(fx.Hook{
				OnStop: func(_ context.Context) error {
					if err := w.Close(); err != nil {
						return fmt.Errorf("failed to close log file: %w", err)
					}
					return nil
				},
			})
		}),
	)
}
