package workspace

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
)

const defaultRemoteName = "origin"

// Bootstrapper makes sure the working copy exists and is ready to sync.
type Bootstrapper struct {
	config Config
	vcs    VCS

	logger *zap.Logger
}

func NewBootstrapper(config Config, vcs VCS, logger *zap.Logger) *Bootstrapper {
	if config.RemoteName == "" {
		config.RemoteName = defaultRemoteName
	}

	return &Bootstrapper{
		config: config,
		vcs:    vcs,
		logger: logger,
	}
}

// Ensure creates the working directory, initializes the repository, registers
// the remote and configures the committer identity. It is safe to call on an
// already bootstrapped working copy.
//
// Only failures that leave no usable repository are returned; remote and
// identity problems are logged and reported through the handle.
func (b *Bootstrapper) Ensure(ctx context.Context) (*RepositoryHandle, error) {
	logger := b.logger.With(zap.String("path", b.config.Path))

	handle := &RepositoryHandle{
		Path:       b.config.Path,
		RemoteName: b.config.RemoteName,
		RemoteURL:  b.config.RemoteURL,
	}

	if _, err := os.Stat(b.config.Path); os.IsNotExist(err) {
		if mkErr := os.MkdirAll(b.config.Path, 0o755); mkErr != nil {
			logger.Error("failed to create working directory", zap.Error(mkErr))
			return nil, fmt.Errorf("%w: %w", ErrDirectoryFailed, mkErr)
		}
		logger.Info("working directory created")
	} else if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDirectoryFailed, err)
	}

	if !b.vcs.HasLocalMetadata() {
		if err := b.vcs.Init(ctx); err != nil {
			logger.Error("failed to initialize repository", zap.Error(err))
			return nil, fmt.Errorf("%w: %w", ErrInitFailed, err)
		}
		logger.Info("repository initialized locally")
	}
	handle.Initialized = true

	handle.RemoteConfigured = b.ensureRemote(ctx, logger)
	handle.IdentityConfigured = b.ensureIdentity(ctx, logger)

	return handle, nil
}

func (b *Bootstrapper) ensureRemote(ctx context.Context, logger *zap.Logger) bool {
	exists, err := b.vcs.HasRemote(ctx, b.config.RemoteName)
	if err != nil {
		logger.Error("failed to inspect remotes",
			zap.String("kind", "RemoteRegistrationFailure"),
			zap.Error(fmt.Errorf("%w: %w", ErrRemoteRegistration, err)))
		return false
	}
	if exists {
		return true
	}

	if b.config.RemoteURL == "" {
		logger.Info("no remote url configured, synchronizing locally only")
		return false
	}

	if addErr := b.vcs.AddRemote(ctx, b.config.RemoteName, b.config.RemoteURL); addErr != nil {
		logger.Error("failed to register remote",
			zap.String("kind", "RemoteRegistrationFailure"),
			zap.String("remote", b.config.RemoteName),
			zap.Error(fmt.Errorf("%w: %w", ErrRemoteRegistration, addErr)))
		return false
	}

	logger.Info("remote configured",
		zap.String("remote", b.config.RemoteName),
		zap.String("url", b.config.RemoteURL))

	return true
}

func (b *Bootstrapper) ensureIdentity(ctx context.Context, logger *zap.Logger) bool {
	settings := []struct{ key, value string }{
		{"name", b.config.Identity.Name},
		{"email", b.config.Identity.Email},
	}

	for _, setting := range settings {
		if err := b.vcs.SetConfig(ctx, "user", setting.key, setting.value); err != nil {
			logger.Error("failed to configure committer identity",
				zap.String("kind", "IdentityConfigFailure"),
				zap.String("key", "user."+setting.key),
				zap.Error(fmt.Errorf("%w: %w", ErrIdentityConfig, err)))
			return false
		}
	}

	logger.Debug("committer identity configured",
		zap.String("name", b.config.Identity.Name),
		zap.String("email", b.config.Identity.Email))

	return true
}
