package daemon

import (
	"github.com/gitsyncd/gitsyncd/internal/history"
	"github.com/gitsyncd/gitsyncd/internal/metrics"
	"github.com/gitsyncd/gitsyncd/internal/watcher"
	"github.com/go-core-fx/logger"
	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module(
		"daemon",
		logger.WithNamedLogger("daemon"),
		fx.Provide(func(w *watcher.Watcher) Watcher { return w }, fx.Private),
		fx.Provide(func(h *history.Service) History { return h }, fx.Private),
		fx.Provide(func(m *metrics.Metrics) TriggerObserver { return m }, fx.Private),
		fx.Provide(New),
		fx.Invoke(func(d *Daemon, lc fx.Lifecycle) {
			lc.Append(fx.Hook{
				OnStart: d.Start,
				OnStop:  d.Stop,
			})
		}),
	)
}
