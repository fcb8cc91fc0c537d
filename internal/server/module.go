package server

import (
	"github.com/gitsyncd/gitsyncd/internal/history"
	"github.com/gitsyncd/gitsyncd/internal/server/handlers/metrics"
	"github.com/gitsyncd/gitsyncd/internal/server/handlers/status"
	"github.com/gitsyncd/gitsyncd/internal/syncer"
	"github.com/go-core-fx/fiberfx"
	"github.com/go-core-fx/fiberfx/handler"
	"github.com/go-core-fx/fiberfx/health"
	"github.com/go-core-fx/logger"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func Module() fx.Option {
	return fx.Module(
		"server",
		logger.WithNamedLogger("server"),

		fx.Provide(func(log *zap.Logger) fiberfx.Options {
			opts := fiberfx.Options{}
			opts.WithErrorHandler(fiberfx.NewJSONErrorHandler(log))
			return opts
		}),

		fx.Provide(func(e *syncer.Engine) status.Engine { return e }, fx.Private),
		fx.Provide(func(h *history.Service) status.History { return h }, fx.Private),

		fx.Provide(
			fx.Annotate(health.NewHandler, fx.ResultTags(`name:"health-handler"`)), fx.Private,
			fx.Annotate(metrics.NewHandler, fx.ResultTags(`name:"metrics-handler"`)), fx.Private,
			fx.Annotate(status.NewHandler, fx.ResultTags(`group:"handlers"`)), fx.Private,
		),

		fx.Invoke(
			fx.Annotate(
				func(handlers []handler.Handler, healthHandler, metricsHandler handler.Handler, app *fiber.App) {
					setupRoutes(app, healthHandler, metricsHandler, handlers)
				},
				fx.ParamTags(`group:"handlers"`, `name:"health-handler"`, `name:"metrics-handler"`),
			),
		),
	)
}
