package workspace

import (
	"context"

	"github.com/gitsyncd/gitsyncd/internal/git"
	"github.com/go-core-fx/logger"
	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module(
		"workspace",
		logger.WithNamedLogger("workspace"),
		fx.Provide(func(svc *git.Service) VCS { return svc }, fx.Private),
		fx.Provide(NewBootstrapper),
		fx.Provide(func(b *Bootstrapper) (*RepositoryHandle, error) {
			return b.Ensure(context.Background())
		}),
	)
}
