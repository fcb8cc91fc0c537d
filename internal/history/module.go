package history

import (
	"github.com/gitsyncd/gitsyncd/internal/syncer"
	"github.com/go-core-fx/logger"
	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module(
		"history",
		logger.WithNamedLogger("history"),
		fx.Provide(NewRepository, fx.Private),
		fx.Provide(NewService),
		syncer.AsListener[*Service](),
	)
}
