package syncer

import (
	"github.com/gitsyncd/gitsyncd/internal/git"
	"github.com/go-core-fx/logger"
	"github.com/jonboulle/clockwork"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type engineParams struct {
	fx.In

	Config    Config
	VCS       VCS
	Clock     clockwork.Clock
	Listeners []Listener `group:"sync_listeners"`
	Logger    *zap.Logger
}

func Module() fx.Option {
	return fx.Module(
		"syncer",
		logger.WithNamedLogger("syncer"),
		fx.Provide(func(svc *git.Service) VCS { return svc }, fx.Private),
		fx.Provide(func(p engineParams) *Engine {
			return NewEngine(p.Config, p.VCS, p.Clock, p.Logger, p.Listeners...)
		}),
	)
}

// AsListener registers an already provided T as an outcome listener.
func AsListener[T Listener]() fx.Option {
	return fx.Provide(
		fx.Annotate(
			func(l T) Listener { return l },
			fx.ResultTags(`group:"sync_listeners"`),
		),
	)
}
