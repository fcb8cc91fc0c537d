package internal

import (
	"context"

	"github.com/capcom6/go-infra-fx/validator"
	"github.com/gitsyncd/gitsyncd/internal/config"
	"github.com/gitsyncd/gitsyncd/internal/daemon"
	"github.com/gitsyncd/gitsyncd/internal/git"
	"github.com/gitsyncd/gitsyncd/internal/history"
	"github.com/gitsyncd/gitsyncd/internal/metrics"
	"github.com/gitsyncd/gitsyncd/internal/server"
	"github.com/gitsyncd/gitsyncd/internal/syncer"
	"github.com/gitsyncd/gitsyncd/internal/watcher"
	"github.com/gitsyncd/gitsyncd/internal/workspace"
	"github.com/gitsyncd/gitsyncd/pkg/badgerfx"
	"github.com/gitsyncd/gitsyncd/pkg/logfilefx"
	"github.com/go-core-fx/fiberfx"
	"github.com/go-core-fx/healthfx"
	"github.com/go-core-fx/logger"
	"github.com/jonboulle/clockwork"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X".
var version = "dev"

const releaseID = 1

// coreModules are shared by every command that touches the working copy.
func coreModules() fx.Option {
	return fx.Options(
		// CORE MODULES
		logger.Module(),
		logger.WithFxDefaultLogger(),
		logfilefx.Module(),
		badgerfx.Module(),
		validator.Module,
		fx.Provide(clockwork.NewRealClock),
		//
		// APP MODULES
		config.Module(),
		//
		// BUSINESS MODULES
		git.Module(),
		workspace.Module(),
		syncer.Module(),
		history.Module(),
		metrics.Module(),
	)
}

// newDaemon builds the long-running application: watcher, engine worker
// and status server.
func newDaemon() *fx.App {
	return fx.New(daemonModules())
}

func daemonModules() fx.Option {
	return fx.Options(
		coreModules(),
		healthfx.Module(),
		fiberfx.Module(),
		fx.Provide(func() healthfx.Version { return healthfx.Version{Version: version, ReleaseID: releaseID} }),
		server.Module(),
		watcher.Module(),
		daemon.Module(),
		//
		// LIFECYCLE MANAGEMENT
		fx.Invoke(func(lc fx.Lifecycle, logger *zap.Logger) {
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					logger.Info("gitsyncd starting up", zap.String("version", version))
					return nil
				},
				OnStop: func(_ context.Context) error {
					logger.Info("gitsyncd shutting down gracefully")
					return nil
				},
			})
		}),
	)
}

// newOneShot builds an application that bootstraps the working copy and
// exposes the engine without watching anything.
func newOneShot(engine **syncer.Engine) *fx.App {
	return fx.New(
		coreModules(),
		fx.Invoke(func(*workspace.RepositoryHandle) {}),
		fx.Populate(engine),
	)
}
