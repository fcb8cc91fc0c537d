package git

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

const tokenEnv = "GITSYNCD_GIT_TOKEN"

// go-git implements neither rebasing pulls nor merge tools, so these
// operations run the git binary against the same working copy.

// Pull fetches the sync branch and replays local work on top of it. Local
// uncommitted changes are stashed around the rebase. A branch that does not
// exist on the remote yet is treated as nothing to pull.
//
// git exits 0 when re-applying the stash conflicts, so the index is checked
// for unmerged entries afterwards and a conflict is reported for them.
func (s *Service) Pull(ctx context.Context) error {
	repo, err := s.open()
	if err != nil {
		return err
	}

	branch, err := s.branch(repo)
	if err != nil {
		return err
	}

	s.logger.Info("pulling repository",
		zap.String("remote", s.config.RemoteName),
		zap.String("branch", branch))

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	output, err := s.run(ctx, "pull", "--rebase", "--autostash", s.config.RemoteName, branch)
	if err != nil {
		if strings.Contains(strings.ToLower(output), "couldn't find remote ref") {
			s.logger.Info("remote branch does not exist yet, nothing to pull", zap.String("branch", branch))
			return nil
		}

		s.logger.Error("failed to pull repository", zap.Error(err))
		return newError("pull", ErrPullFailed, err)
	}

	if strings.Contains(strings.ToLower(output), "autostash resulted in conflicts") {
		s.logger.Warn("local changes conflict with pulled changes", zap.String("output", output))
	}

	if conflictErr := s.checkUnmerged(repo, "pull"); conflictErr != nil {
		return conflictErr
	}

	s.logger.Info("repository pulled successfully", zap.String("path", s.config.Path))

	return nil
}

// RunMergeTool runs the merge tool configured for git on every conflicted
// file. It fails when no tool is configured.
func (s *Service) RunMergeTool(ctx context.Context) error {
	s.logger.Info("running merge tool", zap.String("path", s.config.Path))

	if _, err := s.run(ctx, "mergetool", "--no-prompt"); err != nil {
		s.logger.Error("merge tool failed", zap.Error(err))
		return newError("mergetool", ErrMergeToolFailed, err)
	}

	s.logger.Info("merge tool finished")

	return nil
}

// run executes git in the working copy and returns its combined output.
func (s *Service) run(ctx context.Context, args ...string) (string, error) {
	argv := append([]string{"-C", s.config.Path}, s.authFlags()...)
	argv = append(argv, args...)

	cmd := exec.CommandContext(ctx, s.config.Binary, argv...)
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	cmd.Env = append(cmd.Env, s.authEnv()...)

	s.logger.Debug("running git", zap.Strings("args", args))

	output, err := cmd.CombinedOutput()
	out := strings.TrimSpace(string(output))
	if ctxErr := ctx.Err(); ctxErr != nil {
		return out, fmt.Errorf("%w: %w", ErrTimeout, ctxErr)
	}
	if err != nil {
		if out == "" {
			return out, err
		}
		return out, fmt.Errorf("%w: %s", err, out)
	}

	return out, nil
}

// authFlags returns global flags placed before the subcommand.
func (s *Service) authFlags() []string {
	if s.config.Auth.HTTPS.Token == "" {
		return nil
	}

	username := s.config.Auth.HTTPS.Username
	if username == "" {
		username = tokenUsername
	}

	// The token is read from the environment so it never shows up in argv.
	helper := fmt.Sprintf(`credential.helper=!f() { echo "username=%s"; echo "password=$%s"; }; f`, username, tokenEnv)

	return []string{"-c", "credential.helper=", "-c", helper}
}

func (s *Service) authEnv() []string {
	var env []string

	if s.config.Auth.HTTPS.Token != "" {
		env = append(env, tokenEnv+"="+s.config.Auth.HTTPS.Token)
	}

	if s.config.Auth.SSH.PrivateKey != "" {
		sshCmd := fmt.Sprintf("ssh -i %s -o StrictHostKeyChecking=accept-new -F /dev/null", shellQuote(s.config.Auth.SSH.PrivateKey))
		env = append(env, "GIT_SSH_COMMAND="+sshCmd)
	}

	return env
}

// shellQuote wraps v in single quotes, escaping any embedded single quotes.
func shellQuote(v string) string {
	return "'" + strings.ReplaceAll(v, "'", `'\''`) + "'"
}
