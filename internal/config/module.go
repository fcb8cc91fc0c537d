package config

import (
	"github.com/gitsyncd/gitsyncd/internal/daemon"
	"github.com/gitsyncd/gitsyncd/internal/git"
	"github.com/gitsyncd/gitsyncd/internal/history"
	"github.com/gitsyncd/gitsyncd/internal/syncer"
	"github.com/gitsyncd/gitsyncd/internal/workspace"
	"github.com/gitsyncd/gitsyncd/pkg/badgerfx"
	"github.com/gitsyncd/gitsyncd/pkg/logfilefx"
	"github.com/go-core-fx/fiberfx"
	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module(
		"config",
		fx.Provide(New),
		fx.Provide(func(cfg Config) fiberfx.Config {
			return fiberfx.Config{
				Address:     cfg.HTTP.Address,
				ProxyHeader: cfg.HTTP.ProxyHeader,
				Proxies:     cfg.HTTP.Proxies,
			}
		}),
		fx.Provide(func(cfg Config) badgerfx.Config {
			return badgerfx.Config{
				Dir:      cfg.Storage.DataDir,
				InMemory: cfg.Storage.InMemory,
			}
		}),
		fx.Provide(func(cfg Config) logfilefx.Config {
			return logfilefx.Config{
				Filename:   cfg.Log.File,
				MaxSizeMB:  cfg.Log.MaxSizeMB,
				MaxBackups: cfg.Log.MaxBackups,
				MaxAgeDays: cfg.Log.MaxAgeDays,
				Compress:   cfg.Log.Compress,
			}
		}),
		fx.Provide(func(cfg Config) git.Config {
			return git.Config{
				Path:       cfg.Repo.Path,
				RemoteName: cfg.Repo.RemoteName,
				Branch:     cfg.Repo.Branch,
				Binary:     cfg.Git.Binary,
				Timeout:    cfg.Git.Timeout,
				Auth: git.AuthConfig{
					SSH: git.SSHAuthConfig{
						PrivateKey: cfg.Git.Auth.SSH.PrivateKey,
						Passphrase: cfg.Git.Auth.SSH.Passphrase,
					},
					HTTPS: git.HTTPSAuthConfig{
						Username: cfg.Git.Auth.HTTPS.Username,
						Token:    cfg.Git.Auth.HTTPS.Token,
					},
				},
			}
		}),
		fx.Provide(func(cfg Config) workspace.Config {
			return workspace.Config{
				Path:       cfg.Repo.Path,
				RemoteName: cfg.Repo.RemoteName,
				RemoteURL:  cfg.Repo.RemoteURL,
				Identity: workspace.IdentityConfig{
					Name:  cfg.Identity.Name,
					Email: cfg.Identity.Email,
				},
			}
		}),
		fx.Provide(func(cfg Config) syncer.Config {
			return syncer.Config{
				MonitoredFile: cfg.Repo.MonitoredFile,
				TriggerPolicy: syncer.TriggerPolicy(cfg.Sync.TriggerPolicy),
			}
		}),
		fx.Provide(func(cfg Config) history.Config {
			return history.Config{
				Limit: cfg.Sync.HistoryLimit,
			}
		}),
		fx.Provide(func(cfg Config) daemon.Config {
			return daemon.Config{
				Interval: cfg.Sync.Interval,
				OnStart:  cfg.Sync.OnStart,
			}
		}),
	)
}
