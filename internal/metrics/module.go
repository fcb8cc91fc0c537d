package metrics

import (
	"github.com/gitsyncd/gitsyncd/internal/syncer"
	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module(
		"metrics",
		fx.Provide(New),
		syncer.AsListener[*Metrics](),
	)
}
