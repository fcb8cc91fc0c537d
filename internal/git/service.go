package git

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/go-git/go-git/v6"
	gitconfig "github.com/go-git/go-git/v6/config"
	"github.com/go-git/go-git/v6/plumbing"
	"github.com/go-git/go-git/v6/plumbing/format/index"
	"github.com/go-git/go-git/v6/plumbing/object"
	"github.com/go-git/go-git/v6/plumbing/transport"
	githttp "github.com/go-git/go-git/v6/plumbing/transport/http"
	gitssh "github.com/go-git/go-git/v6/plumbing/transport/ssh"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

const (
	defaultRemoteName = "origin"
	defaultBinary     = "git"
	tokenUsername     = "x-access-token"
)

// Service operates on the single working copy named by Config.Path.
type Service struct {
	config Config
	logger *zap.Logger
}

// NewService creates a new Service.
func NewService(config Config, logger *zap.Logger) *Service {
	if config.RemoteName == "" {
		config.RemoteName = defaultRemoteName
	}
	if config.Binary == "" {
		config.Binary = defaultBinary
	}

	return &Service{
		config: config,
		logger: logger,
	}
}

// Path returns the working copy path.
func (s *Service) Path() string {
	return s.config.Path
}

// HasLocalMetadata reports whether the working copy has been initialized.
func (s *Service) HasLocalMetadata() bool {
	_, err := git.PlainOpen(s.config.Path)
	return err == nil
}

// Init initializes a non-bare repository in place. Initializing an existing
// repository is a no-op.
func (s *Service) Init(_ context.Context) error {
	s.logger.Info("initializing repository", zap.String("path", s.config.Path))

	_, err := git.PlainInit(s.config.Path, false)
	if errors.Is(err, git.ErrTargetDirNotEmpty) {
		s.logger.Debug("repository already initialized", zap.String("path", s.config.Path))
		return nil
	}
	if err != nil {
		s.logger.Error("failed to initialize repository", zap.Error(err))
		return newError("init", ErrInitFailed, err)
	}

	s.logger.Info("repository initialized", zap.String("path", s.config.Path))

	return nil
}

// HasRemote reports whether a remote with the given name is configured.
func (s *Service) HasRemote(_ context.Context, name string) (bool, error) {
	repo, err := s.open()
	if err != nil {
		return false, err
	}

	_, err = repo.Remote(name)
	if errors.Is(err, git.ErrRemoteNotFound) {
		return false, nil
	}
	if err != nil {
		return false, newError("remote", ErrRemoteFailed, err)
	}

	return true, nil
}

// AddRemote registers a remote.
func (s *Service) AddRemote(_ context.Context, name, url string) error {
	s.logger.Info("adding remote",
		zap.String("name", name),
		zap.String("url", url))

	repo, err := s.open()
	if err != nil {
		return err
	}

	_, err = repo.CreateRemote(&gitconfig.RemoteConfig{
		Name: name,
		URLs: []string{url},
	})
	if err != nil {
		s.logger.Error("failed to add remote", zap.Error(err))
		return newError("remote", ErrRemoteFailed, err)
	}

	s.logger.Info("remote added", zap.String("name", name))

	return nil
}

// SetConfig writes a single option to the repository-local config.
func (s *Service) SetConfig(_ context.Context, section, key, value string) error {
	repo, err := s.open()
	if err != nil {
		return err
	}

	cfg, err := repo.Config()
	if err != nil {
		return newError("config", ErrConfigFailed, err)
	}

	// user.* is marshalled from the typed fields and would overwrite Raw.
	if section == "user" {
		switch key {
		case "name":
			cfg.User.Name = value
		case "email":
			cfg.User.Email = value
		}
	}
	cfg.Raw.Section(section).SetOption(key, value)

	if setErr := repo.SetConfig(cfg); setErr != nil {
		s.logger.Error("failed to write config",
			zap.String("section", section),
			zap.String("key", key),
			zap.Error(setErr))
		return newError("config", ErrConfigFailed, setErr)
	}

	s.logger.Debug("config written",
		zap.String("section", section),
		zap.String("key", key))

	return nil
}

// Status returns the unstaged and untracked files of the working tree.
func (s *Service) Status(_ context.Context) (WorkingTreeStatus, error) {
	_, worktree, err := s.worktree()
	if err != nil {
		return WorkingTreeStatus{}, err
	}

	status, err := worktree.Status()
	if err != nil {
		s.logger.Error("failed to read status", zap.Error(err))
		return WorkingTreeStatus{}, newError("status", ErrStatusFailed, err)
	}

	modified := lo.Keys(lo.PickBy(status, func(_ string, file *git.FileStatus) bool {
		return file.Worktree != git.Unmodified && file.Worktree != git.Untracked
	}))
	untracked := lo.Keys(lo.PickBy(status, func(_ string, file *git.FileStatus) bool {
		return file.Worktree == git.Untracked
	}))
	slices.Sort(modified)
	slices.Sort(untracked)

	return WorkingTreeStatus{
		Modified:  modified,
		Untracked: untracked,
	}, nil
}

// ModifiedFiles lists tracked files whose working tree content differs from
// the index.
func (s *Service) ModifiedFiles(ctx context.Context) ([]string, error) {
	status, err := s.Status(ctx)
	if err != nil {
		return nil, err
	}

	return status.Modified, nil
}

// UntrackedFiles lists files unknown to the index.
func (s *Service) UntrackedFiles(ctx context.Context) ([]string, error) {
	status, err := s.Status(ctx)
	if err != nil {
		return nil, err
	}

	return status.Untracked, nil
}

// StageAll stages additions, modifications and deletions. It refuses an
// index that still holds unmerged entries.
func (s *Service) StageAll(_ context.Context) error {
	repo, worktree, err := s.worktree()
	if err != nil {
		return err
	}

	if conflictErr := s.checkUnmerged(repo, "add"); conflictErr != nil {
		return conflictErr
	}

	if addErr := worktree.AddWithOptions(&git.AddOptions{All: true}); addErr != nil {
		s.logger.Error("failed to stage changes", zap.Error(addErr))
		return newError("add", ErrStageFailed, addErr)
	}

	s.logger.Debug("all changes staged")

	return nil
}

// StageUpdated stages modifications and deletions of tracked files only.
// Untracked files are left alone.
func (s *Service) StageUpdated(_ context.Context) error {
	_, worktree, err := s.worktree()
	if err != nil {
		return err
	}

	status, err := worktree.Status()
	if err != nil {
		return newError("add", ErrStatusFailed, err)
	}

	updated := lo.Keys(lo.PickBy(status, func(_ string, file *git.FileStatus) bool {
		return file.Worktree != git.Unmodified && file.Worktree != git.Untracked
	}))
	slices.Sort(updated)

	for _, path := range updated {
		if _, addErr := worktree.Add(path); addErr != nil {
			s.logger.Error("failed to stage file", zap.String("file", path), zap.Error(addErr))
			return newError("add", ErrStageFailed, addErr)
		}
	}

	s.logger.Debug("updated files staged", zap.Int("count", len(updated)))

	return nil
}

// Commit records the index with the given message and returns the commit
// hash. The author is the identity stored in the repository config; when it
// is missing go-git reports the error.
func (s *Service) Commit(_ context.Context, message string, when time.Time) (string, error) {
	s.logger.Info("committing", zap.String("message", message))

	repo, worktree, err := s.worktree()
	if err != nil {
		return "", err
	}

	opts := &git.CommitOptions{}
	if cfg, cfgErr := repo.Config(); cfgErr == nil && cfg.User.Name != "" {
		opts.Author = &object.Signature{
			Name:  cfg.User.Name,
			Email: cfg.User.Email,
			When:  when,
		}
	}

	hash, err := worktree.Commit(message, opts)
	if err != nil {
		s.logger.Error("failed to commit", zap.Error(err))
		return "", newError("commit", ErrCommitFailed, err)
	}

	s.logger.Info("commit created", zap.String("hash", hash.String()))

	return hash.String(), nil
}

// Push pushes the sync branch to the configured remote.
func (s *Service) Push(ctx context.Context) error {
	repo, err := s.open()
	if err != nil {
		return err
	}

	branch, err := s.branch(repo)
	if err != nil {
		return err
	}

	s.logger.Info("pushing repository",
		zap.String("remote", s.config.RemoteName),
		zap.String("branch", branch))

	auth, err := s.auth()
	if err != nil {
		return newError("push", ErrPushFailed, err)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	refSpec := gitconfig.RefSpec(fmt.Sprintf("refs/heads/%s:refs/heads/%s", branch, branch))
	err = repo.PushContext(ctx, &git.PushOptions{
		RemoteName: s.config.RemoteName,
		RefSpecs:   []gitconfig.RefSpec{refSpec},
		Auth:       auth,
	})
	if errors.Is(err, git.NoErrAlreadyUpToDate) {
		s.logger.Info("remote already up to date")
		return nil
	}
	if err != nil {
		s.logger.Error("failed to push repository", zap.Error(err))
		return newError("push", ErrPushFailed, err)
	}

	s.logger.Info("repository pushed successfully", zap.String("branch", branch))

	return nil
}

// Branch returns the branch synchronization runs on.
func (s *Service) Branch(_ context.Context) (string, error) {
	repo, err := s.open()
	if err != nil {
		return "", err
	}

	return s.branch(repo)
}

func (s *Service) branch(repo *git.Repository) (string, error) {
	if s.config.Branch != "" {
		return s.config.Branch, nil
	}

	// HEAD is symbolic even before the first commit.
	head, err := repo.Reference(plumbing.HEAD, false)
	if err != nil {
		return "", newError("head", ErrInvalidRepository, err)
	}
	if head.Type() != plumbing.SymbolicReference {
		return "", &Error{Op: "head", Kind: KindOther, Err: fmt.Errorf("%w: detached HEAD", ErrInvalidRepository)}
	}

	return head.Target().Short(), nil
}

// unmergedPaths lists the index entries left in a conflicted stage.
func (s *Service) unmergedPaths(repo *git.Repository) ([]string, error) {
	idx, err := repo.Storer.Index()
	if err != nil {
		return nil, err
	}

	// Stage 0 is a merged entry; 1 to 3 are the sides of a conflict.
	paths := lo.FilterMap(idx.Entries, func(entry *index.Entry, _ int) (string, bool) {
		return entry.Name, entry.Stage != 0
	})
	paths = lo.Uniq(paths)
	slices.Sort(paths)

	return paths, nil
}

// checkUnmerged returns a conflict error when the index has unmerged paths.
func (s *Service) checkUnmerged(repo *git.Repository, op string) error {
	paths, err := s.unmergedPaths(repo)
	if err != nil {
		s.logger.Error("failed to read index", zap.Error(err))
		return newError(op, ErrStatusFailed, err)
	}
	if len(paths) == 0 {
		return nil
	}

	s.logger.Warn("unmerged paths in index", zap.String("op", op), zap.Strings("files", paths))

	return &Error{
		Op:   op,
		Kind: KindConflict,
		Err:  fmt.Errorf("%w: %s", ErrUnmergedPaths, strings.Join(paths, ", ")),
	}
}

func (s *Service) auth() (transport.AuthMethod, error) {
	switch {
	case s.config.Auth.HTTPS.Token != "":
		username := s.config.Auth.HTTPS.Username
		if username == "" {
			username = tokenUsername
		}
		return &githttp.BasicAuth{
			Username: username,
			Password: s.config.Auth.HTTPS.Token,
		}, nil
	case s.config.Auth.SSH.PrivateKey != "":
		keys, err := gitssh.NewPublicKeysFromFile("git", s.config.Auth.SSH.PrivateKey, s.config.Auth.SSH.Passphrase)
		if err != nil {
			return nil, fmt.Errorf("failed to load ssh key: %w", err)
		}
		return keys, nil
	default:
		return nil, nil //nolint:nilnil // anonymous access
	}
}

func (s *Service) open() (*git.Repository, error) {
	repo, err := git.PlainOpen(s.config.Path)
	if err != nil {
		s.logger.Error("failed to open repository", zap.String("path", s.config.Path), zap.Error(err))
		return nil, newError("open", ErrRepositoryNotFound, err)
	}

	return repo, nil
}

func (s *Service) worktree() (*git.Repository, *git.Worktree, error) {
	repo, err := s.open()
	if err != nil {
		return nil, nil, err
	}

	worktree, err := repo.Worktree()
	if err != nil {
		s.logger.Error("failed to get worktree", zap.Error(err))
		return nil, nil, newError("worktree", ErrInvalidRepository, err)
	}

	return repo, worktree, nil
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.config.Timeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, s.config.Timeout)
}
